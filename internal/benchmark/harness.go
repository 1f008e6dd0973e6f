package benchmark

import (
	"context"
	"fmt"
	"strings"

	"htas-bench/internal/config"
	"htas-bench/internal/logging"
	"htas-bench/internal/sched"
	"htas-bench/internal/stats"
	"htas-bench/internal/task"
	"htas-bench/internal/topology"

	"github.com/sirupsen/logrus"
)

// Harness runs the synthetic workload once per policy, in isolation, and
// produces comparable aggregate statistics. Its tick loop is synchronous and
// single-threaded; the only yield points are between policy phases.
type Harness struct {
	topo     *topology.Topology
	schedCfg config.SchedulerConfig
	benchCfg config.BenchmarkConfig
	log      *logrus.Logger

	// Workload holds the task templates each run is seeded from. Tests may
	// replace it; runs never mutate it.
	Workload []SimTask
}

// Results collects one statistics record per policy.
type Results struct {
	ByKind [sched.NumKinds]*stats.Stats
}

func New(topo *topology.Topology, schedCfg config.SchedulerConfig, benchCfg config.BenchmarkConfig) *Harness {
	return &Harness{
		topo:     topo,
		schedCfg: schedCfg,
		benchCfg: benchCfg,
		log:      logging.GetSchedulerLogger(),
		Workload: DefaultWorkload(),
	}
}

// runState is the per-run scratch state; allocated fresh so runs of
// different policies cannot interfere.
type runState struct {
	tasks          []SimTask
	lastOnCPU      []int
	latencyTotal   uint64
	latencySamples uint64
	latencyMax     uint64
	tick           uint32
	rrIndex        int
}

func (h *Harness) newRun() *runState {
	rs := &runState{
		tasks:     make([]SimTask, len(h.Workload)),
		lastOnCPU: make([]int, h.topo.NumCPUs()),
	}
	copy(rs.tasks, h.Workload)
	for i := range rs.lastOnCPU {
		rs.lastOnCPU[i] = -1
	}
	return rs
}

// Run simulates the full workload under one policy and returns its
// aggregate statistics.
func (h *Harness) Run(kind sched.Kind) *stats.Stats {
	rs := h.newRun()
	s := &stats.Stats{}

	cpus := h.topo.CPUs()
	assigned := make([]int, len(cpus))

	for rs.tick = 0; rs.tick < h.benchCfg.DurationTicks; rs.tick++ {
		s.TotalTicks++

		h.prepareTick(rs)

		// One task at most per CPU per tick; the selected flag enforces
		// mutual exclusion across CPUs within the tick.
		for i, unit := range cpus {
			switch kind {
			case sched.HintBased:
				assigned[i] = h.selectScored(rs, unit, false)
			case sched.InferenceBased:
				assigned[i] = h.selectScored(rs, unit, true)
			default:
				assigned[i] = h.selectRoundRobin(rs)
			}
		}

		for i, unit := range cpus {
			h.accountTick(rs, s, i, unit, assigned[i])
		}

		h.finalizeTick(rs)
	}

	ll := &s.Intents[task.LowLatency]
	if rs.latencySamples > 0 {
		ll.AvgLatencyMicros = rs.latencyTotal / rs.latencySamples
	} else {
		ll.AvgLatencyMicros = 0
	}
	ll.MaxJitterMicros = rs.latencyMax

	return s
}

// prepareTick advances task readiness: the low-latency release state
// machine, duty cycles, and the always-ready default.
func (h *Harness) prepareTick(rs *runState) {
	for i := range rs.tasks {
		t := &rs.tasks[i]
		t.selected = false
		t.scheduled = false

		switch {
		case t.Intent == task.LowLatency:
			if t.workRemaining == 0 {
				if t.sinceRelease < t.PeriodTicks {
					t.sinceRelease++
					t.ready = false
				} else {
					if !t.ready {
						t.workRemaining = t.WorkTicks
						t.waitingSinceReady = 0
					}
					t.ready = t.workRemaining > 0
				}
			} else {
				t.ready = true
			}
		case t.DutyCycle > 0:
			t.ready = t.dutyPhase < t.ActiveTicks
			t.dutyPhase = (t.dutyPhase + 1) % t.DutyCycle
		default:
			t.ready = true
		}
	}
}

// selectRoundRobin is the topology-blind baseline: first ready task at or
// after the cursor wins.
func (h *Harness) selectRoundRobin(rs *runState) int {
	n := len(rs.tasks)
	for attempts := 0; attempts < n; attempts++ {
		idx := (rs.rrIndex + attempts) % n
		t := &rs.tasks[idx]
		if t.ready && !t.selected {
			rs.rrIndex = (idx + 1) % n
			t.selected = true
			return idx
		}
	}
	return -1
}

// selectScored picks the best-scoring ready task for one CPU, using either
// the explicit hints (hint-based) or the inferred behavior (inference-based)
// to build the scoring input. Both run through the same score formula with
// their own weight set.
func (h *Harness) selectScored(rs *runState, unit topology.ComputeUnit, inference bool) int {
	bestIdx := -1
	bestScore := 0

	for i := range rs.tasks {
		t := &rs.tasks[i]
		if !t.ready || t.selected {
			continue
		}

		in := sched.ScoreInput{
			BasePriority: t.BasePriority,
			Waiting:      t.waitingSinceReady > 0,
			AgeTicks:     rs.tick - t.lastScheduled,
			AgingBoost:   t.agingBoost,
		}

		var weights config.WeightsConfig
		if inference {
			if t.recentTicks > h.schedCfg.InferenceThreshold {
				in.Core = sched.PreferFast
			} else {
				in.Core = sched.PreferSlow
			}
			in.HasNode = true
			in.Node = t.inferredNode
			weights = h.schedCfg.InferenceWeights
		} else {
			if t.PreferFast {
				in.Core = sched.PreferFast
			} else {
				in.Core = sched.PreferSlow
			}
			in.HasNode = t.PreferredNode < h.topo.NumNodes()
			in.Node = t.PreferredNode
			in.LowLatency = t.Intent == task.LowLatency
			weights = h.schedCfg.HintWeights
		}

		score := sched.Score(in, unit.Class, unit.Node, weights)
		if bestIdx < 0 || score > bestScore {
			bestIdx = i
			bestScore = score
		}
	}

	if bestIdx >= 0 {
		rs.tasks[bestIdx].selected = true
	}
	return bestIdx
}

// accountTick charges one CPU's tick to the assigned task (or idle power),
// mirroring the live switch-accounting semantics over the synthetic type.
func (h *Harness) accountTick(rs *runState, s *stats.Stats, cpuIdx int, unit topology.ComputeUnit, taskIdx int) {
	fast := unit.Class == topology.FastCore

	if taskIdx < 0 {
		if fast {
			s.PowerUnits += h.benchCfg.FastIdlePower
		} else {
			s.PowerUnits += h.benchCfg.SlowIdlePower
		}
		return
	}

	t := &rs.tasks[taskIdx]

	t.waitTime = 0
	t.agingBoost = 0
	t.scheduled = true

	if t.recentTicks < h.schedCfg.InferenceWindow {
		t.recentTicks++
	}
	// A task that happens to land on its preferred node locks that node in
	// as its inferred preference; a stand-in for page-fault tracking.
	if !t.nodeLearned && unit.Node == t.PreferredNode {
		t.inferredNode = t.PreferredNode
		t.nodeLearned = true
	}

	if rs.lastOnCPU[cpuIdx] != taskIdx {
		s.ContextSwitches++
		t.Switches++
		s.Intents[t.Intent.Clamp()].Switches++
		rs.lastOnCPU[cpuIdx] = taskIdx
	}

	tick := h.benchCfg.TickMicros
	if fast {
		s.PowerUnits += h.benchCfg.FastBusyPower
		s.FastCoreMicros += tick
	} else {
		s.PowerUnits += h.benchCfg.SlowBusyPower
		s.SlowCoreMicros += tick
	}

	t.RuntimeMicros += tick
	s.Intents[t.Intent.Clamp()].RuntimeMicros += tick

	// Penalty is judged against the declared preferred node, for every
	// policy, so the counts stay comparable across runs.
	if t.PreferredNode < h.topo.NumNodes() && t.PreferredNode != unit.Node {
		s.NumaPenalties++
		t.NumaPenalties++
	}

	// Jitter is sampled at the instant a burst begins.
	if t.Intent == task.LowLatency && t.workRemaining == t.WorkTicks {
		jitter := uint64(t.waitingSinceReady) * tick
		rs.latencyTotal += jitter
		rs.latencySamples++
		if jitter > rs.latencyMax {
			rs.latencyMax = jitter
		}
	}

	if t.workRemaining > 0 {
		t.workRemaining--
		if t.workRemaining == 0 {
			t.sinceRelease = 0
			t.ready = false
		}
	}

	t.lastScheduled = rs.tick
}

// finalizeTick runs end-of-tick bookkeeping: low-latency wait tracking,
// aging for ready-but-unscheduled tasks, and the activity-counter leak.
func (h *Harness) finalizeTick(rs *runState) {
	for i := range rs.tasks {
		t := &rs.tasks[i]

		if t.Intent == task.LowLatency {
			if t.workRemaining > 0 && !t.scheduled {
				t.waitingSinceReady++
			} else if t.workRemaining == 0 {
				t.waitingSinceReady = 0
			}
		}

		if t.ready && !t.scheduled {
			t.waitTime++
			if t.waitTime > h.schedCfg.AgingThreshold {
				t.agingBoost = h.schedCfg.AgingBoost
			}
		}

		if !t.scheduled && t.recentTicks > 0 {
			t.recentTicks--
		}

		t.selected = false
		t.scheduled = false
	}
}

// RunAll runs every policy back to back and returns the collected results.
// The context is only checked between phases; a cancelled run keeps the
// phases already completed.
func (h *Harness) RunAll(ctx context.Context) (*Results, error) {
	results := &Results{}

	for _, kind := range sched.Kinds() {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		h.log.WithFields(logrus.Fields{
			"scheduler": kind.String(),
			"ticks":     h.benchCfg.DurationTicks,
			"tasks":     len(h.Workload),
		}).Info("Running benchmark phase")

		results.ByKind[kind] = h.Run(kind)

		h.log.WithField("scheduler", kind.String()).Info("Benchmark phase complete")
	}

	return results, nil
}

// Report renders the per-policy statistics and the pairwise comparisons
// between all three policies.
func (r *Results) Report() string {
	var b strings.Builder

	for _, kind := range sched.Kinds() {
		if r.ByKind[kind] == nil {
			continue
		}
		b.WriteString(r.ByKind[kind].Format(kind.DisplayName()))
	}

	pairs := [][2]sched.Kind{
		{sched.Baseline, sched.HintBased},
		{sched.Baseline, sched.InferenceBased},
		{sched.HintBased, sched.InferenceBased},
	}
	for _, pair := range pairs {
		a, bKind := r.ByKind[pair[0]], r.ByKind[pair[1]]
		if a == nil || bKind == nil {
			continue
		}
		fmt.Fprintf(&b, "\n########################################\n")
		fmt.Fprintf(&b, "# FINAL RESULTS (%s vs %s)\n", pair[0].DisplayName(), pair[1].DisplayName())
		fmt.Fprintf(&b, "########################################\n")
		b.WriteString(stats.Compare(a, pair[0].DisplayName(), bKind, pair[1].DisplayName()))
	}

	return b.String()
}
