package benchmark

import (
	"context"
	"reflect"
	"strings"
	"testing"

	"htas-bench/internal/config"
	"htas-bench/internal/sched"
	"htas-bench/internal/task"
	"htas-bench/internal/topology"
)

func newTestHarness(t *testing.T, ticks uint32) *Harness {
	t.Helper()
	cfg := config.Default()
	topo, err := topology.New(cfg.Topology)
	if err != nil {
		t.Fatalf("build topology: %v", err)
	}
	benchCfg := cfg.Benchmark
	benchCfg.DurationTicks = ticks
	return New(topo, cfg.Scheduler, benchCfg)
}

func TestRunIsDeterministic(t *testing.T) {
	h := newTestHarness(t, 500)

	for _, kind := range sched.Kinds() {
		first := h.Run(kind)
		second := h.Run(kind)
		if !reflect.DeepEqual(first, second) {
			t.Fatalf("%v: identical runs diverged:\n%+v\n%+v", kind, first, second)
		}
	}
}

func TestRunTracksEveryTick(t *testing.T) {
	h := newTestHarness(t, 200)
	s := h.Run(sched.Baseline)
	if s.TotalTicks != 200 {
		t.Fatalf("total ticks %d, want 200", s.TotalTicks)
	}
	if s.ContextSwitches == 0 {
		t.Fatalf("expected context switches under a mixed workload")
	}
}

func TestHintBasedImprovesOnBaseline(t *testing.T) {
	h := newTestHarness(t, 1000)

	baseline := h.Run(sched.Baseline)
	hint := h.Run(sched.HintBased)

	if hint.NumaPenalties > baseline.NumaPenalties {
		t.Fatalf("hint-based NUMA penalties %d exceed baseline %d",
			hint.NumaPenalties, baseline.NumaPenalties)
	}

	llBase := baseline.Intents[task.LowLatency]
	llHint := hint.Intents[task.LowLatency]
	if llHint.AvgLatencyMicros > llBase.AvgLatencyMicros {
		t.Fatalf("hint-based LL latency %d exceeds baseline %d",
			llHint.AvgLatencyMicros, llBase.AvgLatencyMicros)
	}
}

func TestLowLatencySoloTimeline(t *testing.T) {
	h := newTestHarness(t, 100)
	h.Workload = []SimTask{{
		Name:          "LL",
		Intent:        task.LowLatency,
		PreferFast:    true,
		PreferredNode: 0,
		BasePriority:  10,
		PeriodTicks:   16,
		WorkTicks:     2,
		sinceRelease:  16,
	}}

	s := h.Run(sched.HintBased)
	ll := s.Intents[task.LowLatency]

	// Bursts release at ticks 0, 18, 36, 54, 72, 90: six bursts of two ticks
	// within 100 ticks, each served immediately on an idle machine.
	if ll.RuntimeMicros != 12000 {
		t.Fatalf("LL runtime %d us, want 12000", ll.RuntimeMicros)
	}
	if ll.AvgLatencyMicros != 0 || ll.MaxJitterMicros != 0 {
		t.Fatalf("uncontended LL task must see zero latency/jitter, got %d/%d",
			ll.AvgLatencyMicros, ll.MaxJitterMicros)
	}
	// Only CPU 0 ever runs it, so exactly one context switch.
	if ll.Switches != 1 {
		t.Fatalf("LL switches %d, want 1", ll.Switches)
	}
	if s.NumaPenalties != 0 {
		t.Fatalf("node-0 task on a fast core must not be penalized, got %d", s.NumaPenalties)
	}
}

func TestRunAllMatchesIndividualRuns(t *testing.T) {
	h := newTestHarness(t, 300)

	results, err := h.RunAll(context.Background())
	if err != nil {
		t.Fatalf("run all: %v", err)
	}
	for _, kind := range sched.Kinds() {
		if results.ByKind[kind] == nil {
			t.Fatalf("missing results for %v", kind)
		}
		if !reflect.DeepEqual(results.ByKind[kind], h.Run(kind)) {
			t.Fatalf("%v: phase result differs from an isolated run", kind)
		}
	}
}

func TestRunAllHonorsCancellation(t *testing.T) {
	h := newTestHarness(t, 100)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := h.RunAll(ctx)
	if err == nil {
		t.Fatalf("expected context error")
	}
	for _, kind := range sched.Kinds() {
		if results.ByKind[kind] != nil {
			t.Fatalf("no phase should have run after cancellation")
		}
	}
}

func TestReportCoversAllComparisons(t *testing.T) {
	h := newTestHarness(t, 200)
	results, err := h.RunAll(context.Background())
	if err != nil {
		t.Fatalf("run all: %v", err)
	}

	out := results.Report()
	for _, want := range []string{
		"BASELINE (Round-Robin) SCHEDULER STATISTICS",
		"HTAS (Hint-Based) SCHEDULER STATISTICS",
		"DYNAMIC (Inference-Based) SCHEDULER STATISTICS",
		"FINAL RESULTS (BASELINE (Round-Robin) vs HTAS (Hint-Based))",
		"FINAL RESULTS (BASELINE (Round-Robin) vs DYNAMIC (Inference-Based))",
		"FINAL RESULTS (HTAS (Hint-Based) vs DYNAMIC (Inference-Based))",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("report missing %q", want)
		}
	}
}

func TestAgingDemoBreaksStarvation(t *testing.T) {
	cfg := DefaultAgingDemo()
	result := RunAgingDemo(cfg)

	if result.VictimRuns == 0 {
		t.Fatalf("victim must eventually run")
	}
	if result.StarvationTick < int(cfg.Threshold) {
		t.Fatalf("starvation detected at tick %d, before the threshold %d",
			result.StarvationTick, cfg.Threshold)
	}
	if !strings.Contains(result.Report, "RESULT: SUCCESS") {
		t.Fatalf("report should declare success:\n%s", result.Report)
	}
}

func TestAgingDemoWithoutBoostStarves(t *testing.T) {
	cfg := DefaultAgingDemo()
	cfg.Boost = 0

	result := RunAgingDemo(cfg)
	if result.VictimRuns != 0 {
		t.Fatalf("victim ran %d times without a boost", result.VictimRuns)
	}
	if !strings.Contains(result.Report, "RESULT: FAILURE") {
		t.Fatalf("report should declare failure:\n%s", result.Report)
	}
}
