package sched

import (
	"htas-bench/internal/config"
	"htas-bench/internal/logging"
	"htas-bench/internal/stats"
	"htas-bench/internal/task"
	"htas-bench/internal/topology"

	"github.com/sirupsen/logrus"
)

// Context owns all mutable scheduler state: the active policy, the
// round-robin cursor, the simulated current-CPU pointer, and one statistics
// record per policy. It is owned by whichever component drives the tick loop
// and must be invoked from a single serial decision point; there is no
// internal locking, and no operation here blocks or suspends.
type Context struct {
	topo  *topology.Topology
	table *task.Table
	cfg   config.SchedulerConfig
	log   *logrus.Logger

	kind       Kind
	cursor     int // baseline round-robin cursor over table slots
	currentCPU int
	tracked    [NumKinds]stats.Stats

	// delayCost accumulates simulated delay units (slow-core slowdown and
	// cross-node access penalties) instead of burning real cycles.
	delayCost uint64
}

// NewContext creates a scheduler context with Baseline active. Constructing
// a fresh context per run is how the benchmark harness keeps runs isolated.
func NewContext(topo *topology.Topology, table *task.Table, cfg config.SchedulerConfig) *Context {
	return &Context{
		topo:   topo,
		table:  table,
		cfg:    cfg,
		log:    logging.GetSchedulerLogger(),
		kind:   Baseline,
		cursor: -1,
	}
}

func (c *Context) Kind() Kind     { return c.kind }
func (c *Context) CurrentCPU() int { return c.currentCPU }

// DelayCost returns the accumulated simulated delay units.
func (c *Context) DelayCost() uint64 { return c.delayCost }

// SetKind switches the active policy. All tracked statistics are zeroed;
// task-level scheduling state is kept.
func (c *Context) SetKind(k Kind) {
	c.kind = k
	c.ResetStats()
	c.log.WithField("scheduler", k.String()).Info("Switched scheduler")
}

// Stats returns the tracked record for a policy.
func (c *Context) Stats(k Kind) *stats.Stats { return &c.tracked[k] }

// ActiveStats returns the record of the currently active policy.
func (c *Context) ActiveStats() *stats.Stats { return &c.tracked[c.kind] }

// ResetStats zeroes every tracked record.
func (c *Context) ResetStats() {
	for i := range c.tracked {
		c.tracked[i].Reset()
	}
}

// SetProfile applies an intent profile to an entity, deriving affinity,
// priority boost and preferred node from the current topology.
func (c *Context) SetProfile(id task.ID, profile task.IntentProfile) error {
	return c.table.SetProfile(c.topo, id, profile, c.cfg.LowLatencyBoost)
}

// PickNext runs one selection cycle for the active policy and performs the
// aging sweep over the entities that were not picked. It returns the chosen
// entity, or current when the policy finds nothing else runnable.
func (c *Context) PickNext(current *task.Entity) *task.Entity {
	c.ActiveStats().TotalTicks++

	var next *task.Entity
	switch c.kind {
	case HintBased:
		next = c.selectHint(c.currentCPU)
	case InferenceBased:
		next = c.selectInference(c.currentCPU)
	default:
		next = c.selectBaseline(current)
	}

	if next == nil {
		next = current
	}

	c.agingSweep(next)
	if c.kind == InferenceBased {
		c.observeActivity(next)
	}

	return next
}

// selectBaseline scans forward from the cursor, wrapping, and picks the
// first Ready/Running entity that is not the current one. The current entity
// is re-selected only when nothing else is runnable. Topology-blind.
func (c *Context) selectBaseline(current *task.Entity) *task.Entity {
	n := c.table.Capacity()

	var currentCandidate *task.Entity
	if current != nil {
		if current.State == task.Ready || current.State == task.Running {
			currentCandidate = current
		}
		c.cursor = int(current.ID)
	}

	start := 0
	if c.cursor >= 0 {
		start = (c.cursor + 1) % n
	}

	for scanned := 0; scanned < n; scanned++ {
		idx := (start + scanned) % n
		e := c.table.Slot(idx)
		if e.State != task.Ready && e.State != task.Running {
			continue
		}
		if e == currentCandidate {
			continue
		}
		c.cursor = idx
		return e
	}

	if currentCandidate != nil {
		return currentCandidate
	}
	c.cursor = -1
	return nil
}

// selectHint scores every eligible entity for the target CPU using the
// explicit hint-derived state. First strictly-greater score wins; ties keep
// the earlier slot. An entity without state scores 0 and is eligible
// everywhere.
func (c *Context) selectHint(cpu int) *task.Entity {
	class := c.topo.CoreClassOf(cpu)
	node := c.topo.NodeOfCPU(cpu)

	var best *task.Entity
	bestScore := 0
	for i := 0; i < c.table.Capacity(); i++ {
		e := c.table.Slot(i)
		if e.State != task.Ready && e.State != task.Running {
			continue
		}
		if !e.CanRunOn(cpu) {
			continue
		}

		var in ScoreInput
		if st := e.Sched; st != nil {
			in.BasePriority = st.PriorityBoost
			in.AgingBoost = st.AgingBoost
			in.HasNode = true
			in.Node = st.PreferredNode
		}
		score := Score(in, class, node, c.cfg.LiveWeights)

		if best == nil || score > bestScore {
			best = e
			bestScore = score
		}
	}
	return best
}

// selectInference scores candidates from observed behavior only: the leaky
// recent-activity counter decides the core-class preference, and the learned
// NUMA node replaces the declared one. Declared hints and affinity are
// deliberately ignored.
func (c *Context) selectInference(cpu int) *task.Entity {
	class := c.topo.CoreClassOf(cpu)
	node := c.topo.NodeOfCPU(cpu)

	var best *task.Entity
	bestScore := 0
	for i := 0; i < c.table.Capacity(); i++ {
		e := c.table.Slot(i)
		if e.State != task.Ready && e.State != task.Running {
			continue
		}

		var in ScoreInput
		if st := e.Sched; st != nil {
			if st.RecentTicks > c.cfg.InferenceThreshold {
				in.Core = PreferFast
			} else {
				in.Core = PreferSlow
			}
			in.HasNode = true
			in.Node = st.InferredNode
			in.Waiting = st.WaitTime > 0
			in.AgingBoost = st.AgingBoost
		}
		score := Score(in, class, node, c.cfg.InferenceWeights)

		if best == nil || score > bestScore {
			best = e
			bestScore = score
		}
	}
	return best
}

// agingSweep bumps the wait counter of every Ready entity that was not
// picked this cycle. Crossing the threshold grants the flat aging boost;
// reapplication does not stack.
func (c *Context) agingSweep(picked *task.Entity) {
	for i := 0; i < c.table.Capacity(); i++ {
		e := c.table.Slot(i)
		if e.State != task.Ready || e == picked || e.Sched == nil {
			continue
		}
		e.Sched.WaitTime++
		if e.Sched.WaitTime > c.cfg.AgingThreshold {
			e.Sched.AgingBoost = c.cfg.AgingBoost
		}
	}
}

// observeActivity maintains the inference state: the picked entity gains a
// tick of recent activity (capped at the window) and may latch its NUMA node
// when it lands on its preferred one; everyone else leaks one tick.
func (c *Context) observeActivity(picked *task.Entity) {
	for i := 0; i < c.table.Capacity(); i++ {
		e := c.table.Slot(i)
		st := e.Sched
		if st == nil {
			continue
		}
		if e == picked {
			if st.RecentTicks < c.cfg.InferenceWindow {
				st.RecentTicks++
			}
			if !st.NodeLearned && c.topo.NodeOfCPU(c.currentCPU) == st.PreferredNode {
				st.InferredNode = st.PreferredNode
				st.NodeLearned = true
			}
		} else if st.RecentTicks > 0 {
			st.RecentTicks--
		}
	}
}

// RecordSwitch performs switch accounting. It runs only when the selection
// actually changed: counters, simulated slow-core delay, power and
// time-on-core accrual, and the round-robin advance of the current-CPU
// pointer. The winner's wait time and aging boost reset to zero here, not in
// scoring.
func (c *Context) RecordSwitch(current, next *task.Entity) {
	if next == nil || next == current {
		return
	}

	s := c.ActiveStats()
	s.ContextSwitches++

	if st := next.Sched; st != nil {
		st.WaitTime = 0
		st.AgingBoost = 0
		st.Switches++
		s.Intents[st.Profile.Intent.Clamp()].Switches++
	}

	if c.topo.CoreClassOf(c.currentCPU) == topology.SlowCore {
		// Half-speed core: charge the simulated slowdown instead of spinning.
		c.delayCost += c.cfg.SlowdownFactor * 1000
		s.PowerUnits += c.cfg.SlowCorePower
		s.SlowCoreMicros += c.cfg.CoreTimeMicros
	} else {
		s.PowerUnits += c.cfg.FastCorePower
		s.FastCoreMicros += c.cfg.CoreTimeMicros
	}

	c.currentCPU = (c.currentCPU + 1) % c.topo.NumCPUs()
}

// SimulateAccess models one memory access by the given entity. When the
// address resolves to a different NUMA node than the one the current CPU
// belongs to, a fixed penalty is charged to the entity and to the active
// scheduler. Entities without scheduling state are not tracked.
func (c *Context) SimulateAccess(e *task.Entity, addr uint64, size uint32) {
	if e == nil || e.Sched == nil {
		return
	}

	memNode := c.topo.NodeOfAddress(addr)
	cpuNode := c.topo.NodeOfCPU(c.currentCPU)
	if memNode == cpuNode {
		return
	}

	c.delayCost += c.cfg.NumaPenaltyCost
	e.Sched.NumaPenalties++
	c.ActiveStats().NumaPenalties++
}
