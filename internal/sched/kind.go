package sched

import (
	"errors"
	"fmt"
)

// ErrInvalidArgument is returned for an unrecognized scheduler selector.
var ErrInvalidArgument = errors.New("invalid argument")

// Kind selects which policy is active. Exactly one kind is active per
// context at a time; all three are selectable in both the live path and the
// benchmark harness.
type Kind int

const (
	Baseline Kind = iota // round-robin, topology-unaware
	HintBased            // topology-aware, driven by explicit intent hints
	InferenceBased       // topology-aware, driven by observed behavior

	NumKinds = 3
)

func (k Kind) String() string {
	switch k {
	case Baseline:
		return "baseline"
	case HintBased:
		return "htas"
	case InferenceBased:
		return "dynamic"
	default:
		return "unknown"
	}
}

// DisplayName is the name used in reports.
func (k Kind) DisplayName() string {
	switch k {
	case Baseline:
		return "BASELINE (Round-Robin)"
	case HintBased:
		return "HTAS (Hint-Based)"
	case InferenceBased:
		return "DYNAMIC (Inference-Based)"
	default:
		return "UNKNOWN"
	}
}

// ParseKind maps a selector string to a Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "baseline":
		return Baseline, nil
	case "htas", "hint":
		return HintBased, nil
	case "dynamic", "inference":
		return InferenceBased, nil
	}
	return Baseline, fmt.Errorf("unknown scheduler type %q: %w", s, ErrInvalidArgument)
}

// Kinds lists all policies in comparison order.
func Kinds() []Kind {
	return []Kind{Baseline, HintBased, InferenceBased}
}
