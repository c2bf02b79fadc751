package msx

import "math"

// Node is a junction in the pipe network. TankIndex is 0 for an
// ordinary junction and indexes into Project.Tanks otherwise (a weak
// reference: Node never owns the Tank).
type Node struct {
	ID        string
	Index     int
	TankIndex int
	Initial   []float64 // per species
	C         []float64 // running concentration, per species
	Sources   []*Source
	Report    bool
}

// IsTank reports whether this node is backed by a tank or reservoir.
func (n *Node) IsTank() bool { return n.TankIndex != 0 }

// AdjacencyEntry is one edge out of a node's adjacency list: the
// neighboring node reached by traversing LinkIndex.
type AdjacencyEntry struct {
	NeighborIndex int
	LinkIndex     int
}

// Link is a pipe connecting two nodes. Flow is signed; its sign gives
// the current flow direction (positive: N1 -> N2).
type Link struct {
	ID       string
	Index    int
	N1, N2   int
	Length   float64 // internal units (feet)
	Diameter float64 // internal units (feet)
	Roughness float64

	Initial []float64 // per species
	Flow    float64   // internal units (cfs), signed

	ReactedMass []float64 // cumulative per species
	Report      bool

	Segments *segmentDeque
	flowSign int // sign of Flow as of the last applied hydraulic snapshot
}

// applyFlow updates the link's signed flow for a new hydraulic
// snapshot, reversing its segment deque in O(1) if the flow direction
// has changed.
func (l *Link) applyFlow(newFlow float64) {
	sign := 0
	switch {
	case newFlow > 0:
		sign = 1
	case newFlow < 0:
		sign = -1
	}
	if l.flowSign != 0 && sign != 0 && sign != l.flowSign {
		l.Segments.Reverse()
	}
	if sign != 0 {
		l.flowSign = sign
	}
	l.Flow = newFlow
}

// xSectionArea returns the pipe's cross-sectional area in internal
// units (ft^2).
func (l *Link) xSectionArea() float64 {
	r := l.Diameter / 2
	return math.Pi * r * r
}

// fullVolume returns Σsegment.volume the pipe must hold at all times:
// a pipe is always physically full.
func (l *Link) fullVolume() float64 {
	return l.xSectionArea() * l.Length
}

// wallAv returns the wall-species reaction area per unit volume,
// 4/diameter in internal (feet) units, before any area-unit conversion.
func (l *Link) wallAv() float64 {
	if l.Diameter == 0 {
		return 0
	}
	return 4 / l.Diameter
}

// Tank is a storage node: a completely-mixed tank, a two-compartment
// tank, a FIFO plug-flow tank, a LIFO stacked tank, or a reservoir
// (Area == 0, infinite source at its initial concentration).
type Tank struct {
	ID        string
	Index     int
	NodeIndex int
	Mix       TankMix

	Area float64 // 0 for a reservoir
	V0   float64
	VMix float64 // MIX2 primary-compartment capacity

	Volume  float64 // running total volume
	VolMix  float64 // MIX2 primary-compartment running volume
	C       []float64
	C2      []float64 // MIX2 secondary compartment concentration

	ReactedMass []float64

	// FIFO/LIFO plug-flow deque, shared storage strategy with pipes.
	Segments *segmentDeque
}

// IsReservoir reports whether this tank behaves as an infinite source
// at its initial concentration (Area == 0).
func (t *Tank) IsReservoir() bool { return t.Area == 0 }

// Source attaches an injection of one species to a node.
type Source struct {
	SpeciesIndex int
	Kind         SourceKind
	Strength     float64
	PatternIndex int // 0: no pattern, strength is used directly
}

// multiplier returns the pattern multiplier applied to this source's
// strength at the given absolute pattern-period index (1 when the
// source has no pattern).
func (s *Source) multiplier(proj *Project, period int) float64 {
	if s.PatternIndex == 0 {
		return 1
	}
	return proj.Patterns[s.PatternIndex].Value(period)
}
