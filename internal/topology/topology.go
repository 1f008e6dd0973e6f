package topology

import (
	"fmt"
	"strings"

	"htas-bench/internal/config"

	"github.com/emirpasic/gods/maps/treemap"
	"github.com/emirpasic/gods/utils"
)

// CoreClass distinguishes the two simulated compute-unit classes.
type CoreClass int

const (
	FastCore CoreClass = iota // P-core: full speed, higher power draw
	SlowCore                  // E-core: half speed, power saving
)

func (c CoreClass) String() string {
	if c == FastCore {
		return "P-Core"
	}
	return "E-Core"
}

// ComputeUnit is one simulated CPU. The set is fixed after initialization.
type ComputeUnit struct {
	ID     int
	Class  CoreClass
	Node   int
	Online bool
}

// Region is one NUMA memory region.
type Region struct {
	Base uint64
	Size uint64
	Node int
}

// Topology is the static hardware description. It is write-once: built from
// configuration at startup and read-only afterwards, safe for concurrent
// lookups.
type Topology struct {
	cpus     []ComputeUnit
	byID     map[int]ComputeUnit
	regions  []Region
	byBase   *treemap.Map // region base -> Region, for address lookups
	numNodes int
}

// New builds a topology from a validated configuration section.
func New(cfg config.TopologyConfig) (*Topology, error) {
	if len(cfg.CPUs) == 0 || len(cfg.Regions) == 0 {
		return nil, fmt.Errorf("topology requires at least one CPU and one region")
	}

	t := &Topology{
		byID:     make(map[int]ComputeUnit, len(cfg.CPUs)),
		byBase:   treemap.NewWith(utils.UInt64Comparator),
		numNodes: len(cfg.Regions),
	}

	for _, c := range cfg.CPUs {
		class := FastCore
		if c.Class == "slow" {
			class = SlowCore
		}
		unit := ComputeUnit{ID: c.ID, Class: class, Node: c.Node, Online: c.Online}
		t.cpus = append(t.cpus, unit)
		t.byID[c.ID] = unit
	}

	for node, r := range cfg.Regions {
		region := Region{Base: r.Base, Size: r.Size, Node: node}
		t.regions = append(t.regions, region)
		t.byBase.Put(r.Base, region)
	}

	return t, nil
}

func (t *Topology) NumCPUs() int  { return len(t.cpus) }
func (t *Topology) NumNodes() int { return t.numNodes }

// CPUs returns the compute units in declaration order.
func (t *Topology) CPUs() []ComputeUnit { return t.cpus }

// CoreClassOf is total: an unknown CPU id resolves to FastCore. This is
// simulation telemetry, not a correctness-critical path.
func (t *Topology) CoreClassOf(cpu int) CoreClass {
	if unit, ok := t.byID[cpu]; ok {
		return unit.Class
	}
	return FastCore
}

// NodeOfCPU is total: an unknown CPU id resolves to node 0.
func (t *Topology) NodeOfCPU(cpu int) int {
	if unit, ok := t.byID[cpu]; ok {
		return unit.Node
	}
	return 0
}

// NodeOfAddress maps an address to the NUMA node of the region containing it.
// An address outside all regions resolves to node 0; that is the documented
// fallback, not an error.
func (t *Topology) NodeOfAddress(addr uint64) int {
	_, value := t.byBase.Floor(addr)
	if value == nil {
		return 0
	}
	region := value.(Region)
	if addr >= region.Base+region.Size {
		return 0
	}
	return region.Node
}

// AllMask is the bitmask with every CPU set.
func (t *Topology) AllMask() uint32 {
	var mask uint32
	for _, unit := range t.cpus {
		mask |= 1 << uint(unit.ID)
	}
	return mask
}

// ClassMask returns the bitmask of CPUs of the given class.
func (t *Topology) ClassMask(class CoreClass) uint32 {
	var mask uint32
	for _, unit := range t.cpus {
		if unit.Class == class {
			mask |= 1 << uint(unit.ID)
		}
	}
	return mask
}

// NodeMask returns the bitmask of CPUs belonging to the given NUMA node.
func (t *Topology) NodeMask(node int) uint32 {
	var mask uint32
	for _, unit := range t.cpus {
		if unit.Node == node {
			mask |= 1 << uint(unit.ID)
		}
	}
	return mask
}

// Describe renders the static topology in the report format.
func (t *Topology) Describe() string {
	var b strings.Builder

	fmt.Fprintf(&b, "Simulated Hardware Configuration:\n")
	fmt.Fprintf(&b, "  Total CPUs: %d\n", len(t.cpus))
	fmt.Fprintf(&b, "  NUMA Nodes: %d\n\n", t.numNodes)

	fmt.Fprintf(&b, "CPU Topology:\n")
	for _, unit := range t.cpus {
		class := "P-Core (Fast)"
		if unit.Class == SlowCore {
			class = "E-Core (Efficient)"
		}
		state := "[ONLINE]"
		if !unit.Online {
			state = "[OFFLINE]"
		}
		fmt.Fprintf(&b, "  CPU %d: %-18s NUMA Node %d  %s\n", unit.ID, class, unit.Node, state)
	}

	fmt.Fprintf(&b, "\nNUMA Memory Regions:\n")
	for _, region := range t.regions {
		fmt.Fprintf(&b, "  Node %d: 0x%08x - 0x%08x (%d MB)\n",
			region.Node, region.Base, region.Base+region.Size-1, region.Size/(1024*1024))
	}

	return b.String()
}
