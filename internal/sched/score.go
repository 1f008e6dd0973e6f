package sched

import (
	"htas-bench/internal/config"
	"htas-bench/internal/topology"
)

// CorePref is an optional core-class preference in a scoring input.
type CorePref int

const (
	NoCorePref CorePref = iota
	PreferFast
	PreferSlow
)

// ScoreInput is the policy-independent view of a candidate that the scoring
// function consumes. The live path and the benchmark harness both build it,
// from their respective task types, so there is exactly one score formula;
// the numeric behavior of each policy lives entirely in its weight set.
type ScoreInput struct {
	BasePriority int
	Core         CorePref
	Node         int
	HasNode      bool
	LowLatency   bool
	Waiting      bool
	AgeTicks     uint32
	AgingBoost   int
}

// Score evaluates a candidate for a CPU of the given class and NUMA node.
func Score(in ScoreInput, class topology.CoreClass, node int, w config.WeightsConfig) int {
	score := in.BasePriority

	switch in.Core {
	case PreferFast:
		if class == topology.FastCore {
			score += w.CoreMatch
		} else {
			score += w.FastPrefMiss
		}
	case PreferSlow:
		if class == topology.SlowCore {
			score += w.CoreMatch
		} else {
			score += w.SlowPrefMiss
		}
	}

	if in.HasNode {
		if node == in.Node {
			score += w.NumaMatch
		} else {
			score += w.NumaMiss
		}
	}

	if in.LowLatency {
		score += w.LowLatencyBonus
	}
	if in.Waiting {
		score += w.WaitingBonus
	}

	if w.AgeDivisor > 0 {
		score += int(in.AgeTicks) / w.AgeDivisor
	}
	score += in.AgingBoost

	return score
}
