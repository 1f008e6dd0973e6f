package sched

import (
	"testing"

	"htas-bench/internal/config"
	"htas-bench/internal/task"
	"htas-bench/internal/topology"
)

func newTestContext(t *testing.T, capacity int) (*Context, *task.Table, *topology.Topology) {
	t.Helper()
	cfg := config.Default()
	topo, err := topology.New(cfg.Topology)
	if err != nil {
		t.Fatalf("build topology: %v", err)
	}
	table := task.NewTable(capacity, capacity)
	return NewContext(topo, table, cfg.Scheduler), table, topo
}

func TestBaselineCycles(t *testing.T) {
	ctx, table, _ := newTestContext(t, 8)

	names := []string{"a", "b", "c"}
	for _, n := range names {
		if _, err := table.Add(n, task.Ready); err != nil {
			t.Fatalf("add %s: %v", n, err)
		}
	}

	var picked []string
	current := table.Running()
	for i := 0; i < 6; i++ {
		next := ctx.PickNext(current)
		if next == nil {
			t.Fatalf("cycle %d: expected a selection", i)
		}
		picked = append(picked, next.Name)
		ctx.RecordSwitch(current, next)
		table.SetRunning(next)
		current = next
	}

	want := []string{"a", "b", "c", "a", "b", "c"}
	for i := range want {
		if picked[i] != want[i] {
			t.Fatalf("round-robin order %v, want %v", picked, want)
		}
	}
}

func TestBaselineReselectsSoleRunnable(t *testing.T) {
	ctx, table, _ := newTestContext(t, 4)

	only, _ := table.Add("only", task.Ready)
	blocked, _ := table.Add("blocked", task.Blocked)

	table.SetRunning(only)
	next := ctx.PickNext(only)
	if next != only {
		t.Fatalf("expected the sole runnable entity to be re-selected, got %v", next)
	}
	_ = blocked

	// Empty table: nothing runnable at all falls through to current (nil).
	ctx2, _, _ := newTestContext(t, 4)
	if got := ctx2.PickNext(nil); got != nil {
		t.Fatalf("expected nil with an empty table, got %v", got)
	}
}

func TestHintAgingOvertakesEqualPeer(t *testing.T) {
	ctx, table, _ := newTestContext(t, 4)
	ctx.cfg.AgingThreshold = 10
	ctx.SetKind(HintBased)

	a, _ := table.Add("a", task.Ready)
	b, _ := table.Add("b", task.Ready)
	for _, e := range []*task.Entity{a, b} {
		if err := ctx.SetProfile(e.ID, task.IntentProfile{Intent: task.Default}); err != nil {
			t.Fatalf("set profile: %v", err)
		}
	}

	// With identical profiles the earlier slot wins every cycle until the
	// neglected peer crosses the aging threshold and outscores it.
	overtakeCycle := -1
	current := table.Running()
	for i := 0; i < 20; i++ {
		next := ctx.PickNext(current)
		ctx.RecordSwitch(current, next)
		table.SetRunning(next)
		if next == b {
			overtakeCycle = i
			break
		}
		current = next
	}

	if overtakeCycle < 0 {
		t.Fatalf("aged entity was never selected")
	}
	if overtakeCycle <= int(ctx.cfg.AgingThreshold) {
		t.Fatalf("entity overtook at cycle %d, before the threshold %d", overtakeCycle, ctx.cfg.AgingThreshold)
	}
	if b.Sched.WaitTime != 0 || b.Sched.AgingBoost != 0 {
		t.Fatalf("winner's wait time and boost must reset, got %d/%d", b.Sched.WaitTime, b.Sched.AgingBoost)
	}
}

func TestHintRespectsAffinity(t *testing.T) {
	ctx, table, _ := newTestContext(t, 4)
	ctx.SetKind(HintBased)

	eff, _ := table.Add("eff", task.Ready)
	if err := ctx.SetProfile(eff.ID, task.IntentProfile{Intent: task.Efficiency}); err != nil {
		t.Fatalf("set profile: %v", err)
	}

	// currentCPU starts at 0, a fast core; the efficiency task's affinity
	// excludes it, so nothing is selectable.
	if got := ctx.PickNext(nil); got != nil {
		t.Fatalf("efficiency task must not be picked for a fast core, got %v", got)
	}
}

func TestRecordSwitch(t *testing.T) {
	ctx, table, _ := newTestContext(t, 4)

	a, _ := table.Add("a", task.Running)
	b, _ := table.Add("b", task.Ready)
	for _, e := range []*task.Entity{a, b} {
		if err := ctx.SetProfile(e.ID, task.IntentProfile{Intent: task.Default}); err != nil {
			t.Fatalf("set profile: %v", err)
		}
	}
	a.Sched.WaitTime = 4
	a.Sched.AgingBoost = 5
	b.Sched.WaitTime = 7
	b.Sched.AgingBoost = 5

	ctx.RecordSwitch(a, b)

	if b.Sched.WaitTime != 0 || b.Sched.AgingBoost != 0 {
		t.Fatalf("winner not reset: %d/%d", b.Sched.WaitTime, b.Sched.AgingBoost)
	}
	if b.Sched.Switches != 1 {
		t.Fatalf("winner switch count %d, want 1", b.Sched.Switches)
	}
	if a.Sched.WaitTime != 4 || a.Sched.AgingBoost != 5 {
		t.Fatalf("losing runner must be untouched: %d/%d", a.Sched.WaitTime, a.Sched.AgingBoost)
	}

	s := ctx.ActiveStats()
	if s.ContextSwitches != 1 {
		t.Fatalf("context switches %d, want 1", s.ContextSwitches)
	}
	if s.Intents[task.Default].Switches != 1 {
		t.Fatalf("intent bucket switches %d, want 1", s.Intents[task.Default].Switches)
	}

	// Re-selecting the same entity is not a switch.
	ctx.RecordSwitch(b, b)
	ctx.RecordSwitch(b, nil)
	if s.ContextSwitches != 1 {
		t.Fatalf("no-op selections must not count, got %d", s.ContextSwitches)
	}
}

func TestRecordSwitchPowerAccounting(t *testing.T) {
	ctx, table, _ := newTestContext(t, 4)

	a, _ := table.Add("a", task.Ready)
	b, _ := table.Add("b", task.Ready)

	// Four switches walk the current-CPU pointer across CPUs 0..3: two fast
	// cores, then two slow ones.
	entities := []*task.Entity{a, b, a, b}
	var current *task.Entity
	for _, next := range entities {
		ctx.RecordSwitch(current, next)
		current = next
	}

	s := ctx.ActiveStats()
	if s.PowerUnits != 2*100+2*40 {
		t.Fatalf("power units %d, want 280", s.PowerUnits)
	}
	if s.FastCoreMicros != 20 || s.SlowCoreMicros != 20 {
		t.Fatalf("core micros %d/%d, want 20/20", s.FastCoreMicros, s.SlowCoreMicros)
	}
	if ctx.DelayCost() != 2*2*1000 {
		t.Fatalf("delay cost %d, want 4000 (two slow-core switches)", ctx.DelayCost())
	}
	if ctx.CurrentCPU() != 0 {
		t.Fatalf("current CPU should wrap back to 0, got %d", ctx.CurrentCPU())
	}
}

func TestSimulateAccess(t *testing.T) {
	ctx, table, _ := newTestContext(t, 4)

	e, _ := table.Add("e", task.Ready)
	if err := ctx.SetProfile(e.ID, task.IntentProfile{Intent: task.Default}); err != nil {
		t.Fatalf("set profile: %v", err)
	}

	// Current CPU is 0 (node 0). Local access: free.
	ctx.SimulateAccess(e, 0x00100000, 64)
	if ctx.DelayCost() != 0 || e.Sched.NumaPenalties != 0 {
		t.Fatalf("local access must not be penalized")
	}

	// Remote access: fixed penalty per access, charged to entity and stats.
	ctx.SimulateAccess(e, 0x08100000, 64)
	ctx.SimulateAccess(e, 0x08100000, 64)
	if ctx.DelayCost() != 200 {
		t.Fatalf("delay cost %d, want 200", ctx.DelayCost())
	}
	if e.Sched.NumaPenalties != 2 {
		t.Fatalf("entity penalties %d, want 2", e.Sched.NumaPenalties)
	}
	if ctx.ActiveStats().NumaPenalties != 2 {
		t.Fatalf("stats penalties %d, want 2", ctx.ActiveStats().NumaPenalties)
	}

	// Stateless entities are not tracked.
	bare, _ := table.Add("bare", task.Ready)
	ctx.SimulateAccess(bare, 0x08100000, 64)
	if ctx.ActiveStats().NumaPenalties != 2 {
		t.Fatalf("stateless access must be a no-op")
	}
}

func TestSetKindResetsStats(t *testing.T) {
	ctx, table, _ := newTestContext(t, 4)
	table.Add("a", task.Ready)

	ctx.PickNext(nil)
	if ctx.Stats(Baseline).TotalTicks != 1 {
		t.Fatalf("expected a tracked tick")
	}

	ctx.SetKind(HintBased)
	for _, k := range Kinds() {
		if ctx.Stats(k).TotalTicks != 0 {
			t.Fatalf("stats for %v must be zeroed on policy switch", k)
		}
	}
	if ctx.Kind() != HintBased {
		t.Fatalf("kind not switched")
	}
}

func TestInferenceObservesActivity(t *testing.T) {
	ctx, table, _ := newTestContext(t, 4)
	ctx.SetKind(InferenceBased)

	e, _ := table.Add("e", task.Ready)
	if err := ctx.SetProfile(e.ID, task.IntentProfile{Intent: task.Default}); err != nil {
		t.Fatalf("set profile: %v", err)
	}

	// Current CPU 0 is on the entity's preferred node 0, so the first
	// selection both counts activity and latches the learned node.
	next := ctx.PickNext(nil)
	if next != e {
		t.Fatalf("expected the only ready entity to be picked")
	}
	if e.Sched.RecentTicks != 1 {
		t.Fatalf("recent ticks %d, want 1", e.Sched.RecentTicks)
	}
	if !e.Sched.NodeLearned || e.Sched.InferredNode != 0 {
		t.Fatalf("node not latched: %+v", e.Sched)
	}

	// The activity counter saturates at the inference window.
	e.Sched.RecentTicks = ctx.cfg.InferenceWindow
	ctx.PickNext(next)
	if e.Sched.RecentTicks != ctx.cfg.InferenceWindow {
		t.Fatalf("recent ticks %d, want cap %d", e.Sched.RecentTicks, ctx.cfg.InferenceWindow)
	}

	// An idle peer leaks one tick per cycle, floored at zero.
	idle, _ := table.Add("idle", task.Blocked)
	if err := ctx.SetProfile(idle.ID, task.IntentProfile{Intent: task.Default}); err != nil {
		t.Fatalf("set profile: %v", err)
	}
	idle.Sched.RecentTicks = 1
	ctx.PickNext(next)
	ctx.PickNext(next)
	if idle.Sched.RecentTicks != 0 {
		t.Fatalf("idle peer should have leaked to 0, got %d", idle.Sched.RecentTicks)
	}
}
