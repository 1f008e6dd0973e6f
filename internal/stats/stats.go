package stats

import (
	"fmt"
	"strings"

	"htas-bench/internal/task"
)

// IntentStats is the per-intent breakdown of a scheduler's activity.
// Latency and jitter are only meaningful for the LowLatency bucket.
type IntentStats struct {
	RuntimeMicros    uint64
	Switches         uint64
	AvgLatencyMicros uint64
	MaxJitterMicros  uint64
}

// Stats is the aggregate record of one scheduler. It is zeroed on a
// scheduler-kind switch and on explicit reset, and mutated only by the
// switch-accounting step of the active scheduler.
type Stats struct {
	TotalTicks      uint64
	ContextSwitches uint64
	NumaPenalties   uint64
	FastCoreMicros  uint64
	SlowCoreMicros  uint64
	PowerUnits      uint64

	Intents [task.NumIntents]IntentStats
}

// Reset zeroes the record in place.
func (s *Stats) Reset() {
	*s = Stats{}
}

// Format renders the statistics block for one scheduler.
func (s *Stats) Format(name string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "\n========================================\n")
	fmt.Fprintf(&b, " %s SCHEDULER STATISTICS\n", name)
	fmt.Fprintf(&b, "========================================\n")

	fmt.Fprintf(&b, "Total ticks:           %d\n", s.TotalTicks)
	fmt.Fprintf(&b, "Context switches:      %d\n", s.ContextSwitches)
	fmt.Fprintf(&b, "NUMA penalties:        %d\n", s.NumaPenalties)
	fmt.Fprintf(&b, "P-core time:           %d us\n", s.FastCoreMicros)
	fmt.Fprintf(&b, "E-core time:           %d us\n", s.SlowCoreMicros)
	fmt.Fprintf(&b, "Power consumption:     %d units\n", s.PowerUnits)

	fmt.Fprintf(&b, "\nPer-Intent Statistics:\n")
	for i := 0; i < task.NumIntents; i++ {
		intent := task.Intent(i)
		bucket := s.Intents[i]
		if bucket.Switches == 0 {
			continue
		}
		fmt.Fprintf(&b, "  %s:\n", intent)
		fmt.Fprintf(&b, "    Runtime:      %d us\n", bucket.RuntimeMicros)
		fmt.Fprintf(&b, "    Switches:     %d\n", bucket.Switches)
		if intent == task.LowLatency {
			fmt.Fprintf(&b, "    Avg Latency:  %d us\n", bucket.AvgLatencyMicros)
			fmt.Fprintf(&b, "    Max Jitter:   %d us\n", bucket.MaxJitterMicros)
		}
	}
	fmt.Fprintf(&b, "========================================\n")

	return b.String()
}

// PercentChange computes (a-b)*100/a with integer arithmetic, defined as 0
// when a is 0. Positive means b is an improvement (reduction) over a. The
// asymmetry is deliberate and documented.
func PercentChange(a, b uint64) int64 {
	if a == 0 {
		return 0
	}
	return (int64(a) - int64(b)) * 100 / int64(a)
}

// Compare renders the pairwise comparison between two result sets.
func Compare(a *Stats, nameA string, b *Stats, nameB string) string {
	var out strings.Builder

	fmt.Fprintf(&out, "\n========================================\n")
	fmt.Fprintf(&out, " %s vs %s COMPARISON\n", nameA, nameB)
	fmt.Fprintf(&out, "========================================\n")

	fmt.Fprintf(&out, "NUMA Penalties:\n")
	fmt.Fprintf(&out, "  %s: %d\n", nameA, a.NumaPenalties)
	fmt.Fprintf(&out, "  %s: %d\n", nameB, b.NumaPenalties)
	fmt.Fprintf(&out, "  %s Improvement: %d%% reduction\n", nameB, PercentChange(a.NumaPenalties, b.NumaPenalties))

	fmt.Fprintf(&out, "\nPower Consumption:\n")
	fmt.Fprintf(&out, "  %s: %d units\n", nameA, a.PowerUnits)
	fmt.Fprintf(&out, "  %s: %d units\n", nameB, b.PowerUnits)
	fmt.Fprintf(&out, "  %s Improvement: %d%% reduction\n", nameB, PercentChange(a.PowerUnits, b.PowerUnits))

	fmt.Fprintf(&out, "\nContext Switches:\n")
	fmt.Fprintf(&out, "  %s: %d\n", nameA, a.ContextSwitches)
	fmt.Fprintf(&out, "  %s: %d\n", nameB, b.ContextSwitches)

	fmt.Fprintf(&out, "\nLOW_LATENCY Task Performance:\n")
	fmt.Fprintf(&out, "  %s Max Jitter: %d us\n", nameA, a.Intents[task.LowLatency].MaxJitterMicros)
	fmt.Fprintf(&out, "  %s Max Jitter: %d us\n", nameB, b.Intents[task.LowLatency].MaxJitterMicros)

	fmt.Fprintf(&out, "========================================\n")

	return out.String()
}
