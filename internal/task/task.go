package task

import (
	"htas-bench/internal/topology"
)

// State is the lifecycle state of a schedulable entity. Unused and Blocked
// entities are invisible to scheduling.
type State int

const (
	Unused State = iota
	Ready
	Running
	Blocked
)

func (s State) String() string {
	switch s {
	case Ready:
		return "READY"
	case Running:
		return "RUNNING"
	case Blocked:
		return "BLOCKED"
	default:
		return "UNUSED"
	}
}

// Intent declares the scheduling treatment a task asks for.
type Intent int

const (
	Performance Intent = iota
	Efficiency
	LowLatency
	Default

	NumIntents = 4
)

func (i Intent) String() string {
	switch i {
	case Performance:
		return "PERFORMANCE"
	case Efficiency:
		return "EFFICIENCY"
	case LowLatency:
		return "LOW_LATENCY"
	default:
		return "DEFAULT"
	}
}

// Clamp maps any out-of-range value to Default, the documented safe bucket.
func (i Intent) Clamp() Intent {
	if i < Performance || i > Default {
		return Default
	}
	return i
}

// DataRegion identifies the primary data of a task for NUMA placement.
type DataRegion struct {
	Addr uint64
	Size uint32
}

// IntentProfile is the treatment request a task (or its owner) supplies.
// Reissuing it updates the derived scheduling state.
type IntentProfile struct {
	Intent Intent
	Data   *DataRegion // optional; nil means no locality hint
}

// SchedState holds the mutable per-task scheduling fields. It is attached
// lazily on the first profile set; a task without one is schedulable on every
// CPU with a neutral score.
type SchedState struct {
	Profile IntentProfile

	// Derived from the profile and topology; recomputed on every profile
	// change, never mutated elsewhere.
	Affinity      uint32
	PriorityBoost int
	PreferredNode int

	// Aging
	WaitTime   uint32
	AgingBoost int

	// Behavior inference (used by the inference-based policy)
	RecentTicks  uint32
	InferredNode int
	NodeLearned  bool

	// Telemetry only; never influences scheduling.
	RuntimeMicros uint64
	Switches      uint64
	NumaPenalties uint64
}

// ID is the stable identity of an entity in the table.
type ID int

// Entity is one schedulable unit as seen by this subsystem.
type Entity struct {
	ID    ID
	Name  string
	State State
	Sched *SchedState
}

// CanRunOn reports whether the entity may run on the given CPU. Absence of
// scheduling state means eligible everywhere.
func (e *Entity) CanRunOn(cpu int) bool {
	if e.Sched == nil {
		return true
	}
	return e.Sched.Affinity&(1<<uint(cpu)) != 0
}

// ComputeAffinity derives the CPU bitmask for a profile:
// Performance/LowLatency restrict to fast cores, Efficiency to slow cores,
// Default allows everything. A data region further restricts to its NUMA
// node; if that intersection comes out empty the NUMA restriction is dropped
// so the task never becomes unschedulable.
func ComputeAffinity(topo *topology.Topology, profile IntentProfile) (mask uint32, numaDropped bool) {
	switch profile.Intent.Clamp() {
	case Performance, LowLatency:
		mask = topo.ClassMask(topology.FastCore)
	case Efficiency:
		mask = topo.ClassMask(topology.SlowCore)
	default:
		mask = topo.AllMask()
	}

	if profile.Data != nil {
		node := topo.NodeOfAddress(profile.Data.Addr)
		restricted := mask & topo.NodeMask(node)
		if restricted == 0 {
			return mask, true
		}
		mask = restricted
	}

	return mask, false
}
