package msx

import "fmt"

// rateUnitSeconds converts a RateUnits value to seconds-per-unit, so a
// rate constant written in e.g. per-day terms can be converted once to
// an internal per-second rate.
func rateUnitSeconds(u RateUnits) float64 {
	switch u {
	case RateSecond:
		return 1
	case RateMinute:
		return 60
	case RateHour:
		return 3600
	case RateDay:
		return 86400
	default:
		return 1
	}
}

const feetPerMeter = 0.3048

// areaUnitFactor converts Av (wall-species reaction area per unit
// volume, internally 4/diameter in ft^-1) to the unit convention a
// reaction equation was written against: 1 for AreaFT2, or
// feet-to-meters for AreaM2 so Av comes out in m^-1.
func areaUnitFactor(u AreaUnits) float64 {
	switch u {
	case AreaM2:
		return 1 / feetPerMeter
	default:
		return 1
	}
}

// FinishInit validates project invariants, builds the node adjacency
// list from the link set, and computes the rate-unit and area-unit
// conversion factors used for the remainder of the run from the
// options set at this point. The factors are computed only here; the
// GetQuality* getters return stored concentrations without conversion.
func (p *Project) FinishInit() error {
	if err := p.requireState(Open); err != nil {
		return err
	}
	if len(p.Nodes) <= 1 {
		return fmt.Errorf("%w: project has no nodes", ErrInvalidObjectParams)
	}

	nSpecies := len(p.Species)
	for _, n := range p.Nodes[1:] {
		n.Initial = growToLen(n.Initial, nSpecies)
		n.C = make([]float64, nSpecies)
		copy(n.C, n.Initial)
	}
	for _, l := range p.Links[1:] {
		l.Initial = growToLen(l.Initial, nSpecies)
		l.ReactedMass = make([]float64, nSpecies)
		l.Segments = newSegmentDeque()
	}
	for _, t := range p.Tanks[1:] {
		t.C = make([]float64, nSpecies)
		t.C2 = make([]float64, nSpecies)
		node := p.Nodes[t.NodeIndex]
		copy(t.C, node.Initial)
		t.ReactedMass = make([]float64, nSpecies)
		if t.Mix == FIFO || t.Mix == LIFO {
			t.Segments = newSegmentDeque()
		}
	}

	p.adjacency = make([][]AdjacencyEntry, len(p.Nodes))
	for li, l := range p.Links {
		if l == nil {
			continue
		}
		p.adjacency[l.N1] = append(p.adjacency[l.N1], AdjacencyEntry{NeighborIndex: l.N2, LinkIndex: li})
		p.adjacency[l.N2] = append(p.adjacency[l.N2], AdjacencyEntry{NeighborIndex: l.N1, LinkIndex: li})
	}

	p.rateUnitFactor = 1 / rateUnitSeconds(p.Opts.RateUnits)
	p.areaUnitFactor = areaUnitFactor(p.Opts.AreaUnits)

	p.finished = true
	return nil
}

func growToLen(s []float64, n int) []float64 {
	if len(s) >= n {
		return s[:n]
	}
	out := make([]float64, n)
	copy(out, s)
	return out
}
