package benchmark

import (
	"htas-bench/internal/task"
)

// SimTask is one synthetic workload task. It lives only inside the harness
// and is never shared with the live scheduler; each run starts from a fresh
// copy so runs cannot interfere.
type SimTask struct {
	Name          string
	Intent        task.Intent
	PreferFast    bool // preferred core class: true = fast, false = slow
	PreferredNode int
	BasePriority  int

	// Duty-cycled tasks are ready ActiveTicks out of every DutyCycle ticks.
	DutyCycle   uint32
	ActiveTicks uint32

	// Periodic low-latency tasks release a burst of WorkTicks every
	// PeriodTicks.
	PeriodTicks uint32
	WorkTicks   uint32

	// Per-tick run state.
	dutyPhase         uint32
	workRemaining     uint32
	sinceRelease      uint32
	waitingSinceReady uint32
	ready             bool
	selected          bool
	scheduled         bool
	lastScheduled     uint32

	// Aging.
	waitTime   uint32
	agingBoost int

	// Behavior inference.
	recentTicks  uint32
	inferredNode int
	nodeLearned  bool

	// Telemetry.
	RuntimeMicros uint64
	Switches      uint64
	NumaPenalties uint64
}

// DefaultWorkload is the fixed mixed workload: two performance tasks pinned
// to different NUMA nodes, four duty-cycled efficiency tasks, one periodic
// low-latency task, and one deliberately NUMA-hostile performance task that
// prefers a slow core on the opposite node.
func DefaultWorkload() []SimTask {
	tasks := []SimTask{
		{
			Name:          "PERF0",
			Intent:        task.Performance,
			PreferFast:    true,
			PreferredNode: 0,
			BasePriority:  12,
		},
		{
			Name:          "PERF1",
			Intent:        task.Performance,
			PreferFast:    true,
			PreferredNode: 1,
			BasePriority:  11,
		},
	}

	for i := 0; i < 4; i++ {
		tasks = append(tasks, SimTask{
			Name:          "EFFI" + string(rune('0'+i)),
			Intent:        task.Efficiency,
			PreferFast:    false,
			PreferredNode: 1,
			BasePriority:  10,
			DutyCycle:     5,
			ActiveTicks:   1,
		})
	}

	tasks = append(tasks, SimTask{
		Name:          "LOW_LAT",
		Intent:        task.LowLatency,
		PreferFast:    true,
		PreferredNode: 0,
		BasePriority:  10,
		PeriodTicks:   16,
		WorkTicks:     2,
		sinceRelease:  16, // first burst releases immediately
	})

	tasks = append(tasks, SimTask{
		Name:          "NUMA",
		Intent:        task.Performance,
		PreferFast:    false,
		PreferredNode: 1,
		BasePriority:  10,
	})

	return tasks
}
