package task

import (
	"errors"
	"fmt"

	"htas-bench/internal/logging"
	"htas-bench/internal/topology"

	"github.com/sirupsen/logrus"
)

var (
	// ErrNotFound is returned when an entity id does not resolve.
	ErrNotFound = errors.New("entity not found")
	// ErrOutOfMemory is returned when per-task scheduling state cannot be
	// allocated (the state pool is exhausted).
	ErrOutOfMemory = errors.New("out of memory")
)

// Table is the fixed-capacity set of schedulable entities. It stands in for
// the process table of the surrounding system: entities expose a state, a
// stable identity, and an optional slot for this subsystem's per-task state.
//
// The table has no internal locking. All mutation happens from the single
// serial decision point that drives the scheduler.
type Table struct {
	slots     []Entity
	running   int // index of the currently running entity, -1 if none
	statePool int // remaining SchedState allocations
	log       *logrus.Logger
}

// NewTable creates a table with the given capacity. statePool bounds how many
// entities can carry scheduling state; pass capacity for no practical limit.
func NewTable(capacity, statePool int) *Table {
	t := &Table{
		slots:     make([]Entity, capacity),
		running:   -1,
		statePool: statePool,
		log:       logging.GetLogger(),
	}
	for i := range t.slots {
		t.slots[i].ID = ID(i)
	}
	return t
}

// Capacity returns the number of slots, used and unused.
func (t *Table) Capacity() int { return len(t.slots) }

// Slot returns the entity at a slot index regardless of its state.
func (t *Table) Slot(i int) *Entity { return &t.slots[i] }

// Add places a new entity in the first unused slot.
func (t *Table) Add(name string, state State) (*Entity, error) {
	for i := range t.slots {
		if t.slots[i].State == Unused {
			t.slots[i] = Entity{ID: ID(i), Name: name, State: state}
			return &t.slots[i], nil
		}
	}
	return nil, fmt.Errorf("add %q: table full: %w", name, ErrOutOfMemory)
}

// Find resolves an entity by identity.
func (t *Table) Find(id ID) (*Entity, error) {
	if int(id) < 0 || int(id) >= len(t.slots) || t.slots[id].State == Unused {
		return nil, fmt.Errorf("entity %d: %w", id, ErrNotFound)
	}
	return &t.slots[id], nil
}

// Running returns the currently running entity, or nil.
func (t *Table) Running() *Entity {
	if t.running < 0 {
		return nil
	}
	return &t.slots[t.running]
}

// SetRunning marks the given entity as the currently running one. The
// previous runner, if still marked Running, drops back to Ready.
func (t *Table) SetRunning(e *Entity) {
	if prev := t.Running(); prev != nil && prev != e && prev.State == Running {
		prev.State = Ready
	}
	if e == nil {
		t.running = -1
		return
	}
	e.State = Running
	t.running = int(e.ID)
}

// SetProfile attaches (lazily) or updates the scheduling state of an entity
// and recomputes the derived fields. Reapplying an identical profile leaves
// the derived fields unchanged. A failure leaves the prior state untouched.
func (t *Table) SetProfile(topo *topology.Topology, id ID, profile IntentProfile, llBoost int) error {
	e, err := t.Find(id)
	if err != nil {
		return fmt.Errorf("set profile: %w", err)
	}

	if e.Sched == nil {
		if t.statePool <= 0 {
			t.log.WithField("entity", id).Warn("Cannot attach scheduling state")
			return fmt.Errorf("set profile for entity %d: %w", id, ErrOutOfMemory)
		}
		t.statePool--
		e.Sched = &SchedState{}
	}

	st := e.Sched
	st.Profile = IntentProfile{Intent: profile.Intent.Clamp(), Data: profile.Data}

	mask, numaDropped := ComputeAffinity(topo, st.Profile)
	if numaDropped {
		t.log.WithFields(logrus.Fields{
			"entity": id,
			"intent": st.Profile.Intent.String(),
		}).Warn("NUMA restriction eliminated all CPUs, using intent mask")
	}
	st.Affinity = mask

	if st.Profile.Intent == LowLatency {
		st.PriorityBoost = llBoost
	} else {
		st.PriorityBoost = 0
	}

	if st.Profile.Data != nil {
		st.PreferredNode = topo.NodeOfAddress(st.Profile.Data.Addr)
	} else {
		st.PreferredNode = 0
	}

	t.log.WithFields(logrus.Fields{
		"entity":   id,
		"intent":   st.Profile.Intent.String(),
		"affinity": fmt.Sprintf("0x%x", st.Affinity),
		"node":     st.PreferredNode,
	}).Debug("Profile set")

	return nil
}
