package sched

import (
	"errors"
	"testing"

	"htas-bench/internal/config"
	"htas-bench/internal/topology"
)

func TestParseKind(t *testing.T) {
	cases := map[string]Kind{
		"baseline":  Baseline,
		"htas":      HintBased,
		"hint":      HintBased,
		"dynamic":   InferenceBased,
		"inference": InferenceBased,
	}
	for in, want := range cases {
		got, err := ParseKind(in)
		if err != nil || got != want {
			t.Fatalf("ParseKind(%q) = %v, %v; want %v", in, got, err, want)
		}
	}

	if _, err := ParseKind("fifo"); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestScore(t *testing.T) {
	w := config.Default().Scheduler.HintWeights

	cases := []struct {
		name  string
		in    ScoreInput
		class topology.CoreClass
		node  int
		want  int
	}{
		{"neutral", ScoreInput{}, topology.FastCore, 0, 0},
		{"base priority only", ScoreInput{BasePriority: 12}, topology.FastCore, 0, 12},
		{"fast pref on fast core", ScoreInput{Core: PreferFast}, topology.FastCore, 0, 12},
		{"fast pref on slow core", ScoreInput{Core: PreferFast}, topology.SlowCore, 0, -8},
		{"slow pref on slow core", ScoreInput{Core: PreferSlow}, topology.SlowCore, 0, 12},
		{"slow pref on fast core", ScoreInput{Core: PreferSlow}, topology.FastCore, 0, -6},
		{"numa match", ScoreInput{HasNode: true, Node: 1}, topology.FastCore, 1, 8},
		{"numa miss", ScoreInput{HasNode: true, Node: 1}, topology.FastCore, 0, -6},
		{"low latency waiting", ScoreInput{LowLatency: true, Waiting: true}, topology.FastCore, 0, 30},
		{"age credit", ScoreInput{AgeTicks: 40}, topology.FastCore, 0, 10},
		{"aging boost", ScoreInput{AgingBoost: 5}, topology.FastCore, 0, 5},
	}
	for _, tc := range cases {
		if got := Score(tc.in, tc.class, tc.node, w); got != tc.want {
			t.Fatalf("%s: score %d, want %d", tc.name, got, tc.want)
		}
	}
}

func TestScoreZeroAgeDivisor(t *testing.T) {
	w := config.Default().Scheduler.HintWeights
	w.AgeDivisor = 0
	if got := Score(ScoreInput{AgeTicks: 400}, topology.FastCore, 0, w); got != 0 {
		t.Fatalf("age credit must be disabled with divisor 0, got %d", got)
	}
}
