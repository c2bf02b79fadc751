package msx

import "math"

// minSegmentVolume returns the smallest segment volume worth keeping
// for a sub-step that moved volume V through a pipe: below this, a
// sliver segment is merged into its neighbor rather than tracked on
// its own.
func minSegmentVolume(v float64) float64 {
	return math.Max(1e-8, v*1e-3)
}

// transportSubstep advances every pipe's segment deque and every
// node's (and tank's) mixed concentration by exactly dt: a node's
// outflow concentration can only be computed once every link flowing
// into it has ejected its head segment for this sub-step, so nodes
// are visited in flowOrder.
//
// Flow magnitude (not direction) determines how much volume moves;
// links with zero flow this sub-step neither eject nor receive a new
// segment, matching a closed or idle pipe.
func (p *Project) transportSubstep(dt float64, periodIndex int) error {
	nSpecies := len(p.Species)

	order, err := p.flowOrder()
	if err != nil {
		return err
	}

	inflow := make([]nodeInflow, len(p.Nodes))
	for i := range inflow {
		inflow[i] = newNodeInflow(nSpecies)
	}

	for _, l := range p.Links[1:] {
		if l == nil || l.Flow == 0 {
			continue
		}
		vol := math.Abs(l.Flow) * dt
		downstream := l.N2
		if l.Flow < 0 {
			downstream = l.N1
		}
		mass := drainSegments(l.Segments, p.pool, vol, false, nSpecies)
		inflow[downstream].add(vol, divideVolume(mass, vol))
	}

	outConc := make([][]float64, len(p.Nodes))
	for _, ni := range order {
		n := p.Nodes[ni]
		if n == nil {
			continue
		}
		qOut := p.outwardFlow(ni)
		if n.IsTank() {
			outConc[ni] = p.mixTankNode(n, inflow[ni], qOut, dt, periodIndex)
		} else {
			outConc[ni] = p.mixJunction(n, inflow[ni], qOut, periodIndex)
		}

		for _, adj := range p.adjacency[ni] {
			l := p.Links[adj.LinkIndex]
			if l == nil || l.Flow == 0 {
				continue
			}
			upstream := l.N1
			if l.Flow < 0 {
				upstream = l.N2
			}
			if upstream != ni {
				continue
			}
			vol := math.Abs(l.Flow) * dt
			l.Segments.PushTail(p.pool, vol, outConc[ni])
		}
	}

	for _, l := range p.Links[1:] {
		if l == nil || l.Flow == 0 {
			continue
		}
		vol := math.Abs(l.Flow) * dt
		l.Segments.MergeAdjacent(p.pool, p.Species[1:])
		l.Segments.EnforceMinimumVolume(p.pool, minSegmentVolume(vol))
	}

	return nil
}

// outwardFlow sums the magnitude of flow leaving node ni this
// sub-step, the qOut term mixing and source application need.
func (p *Project) outwardFlow(ni int) float64 {
	var q float64
	for _, adj := range p.adjacency[ni] {
		l := p.Links[adj.LinkIndex]
		if l == nil || l.Flow == 0 {
			continue
		}
		upstream := l.N1
		if l.Flow < 0 {
			upstream = l.N2
		}
		if upstream == ni {
			q += math.Abs(l.Flow)
		}
	}
	return q
}

// mixTankNode dispatches to the mixing regime the tank backing node n
// uses, including the reservoir special case.
func (p *Project) mixTankNode(n *Node, in nodeInflow, qOut, dt float64, periodIndex int) []float64 {
	t := p.Tanks[n.TankIndex]
	switch {
	case t.IsReservoir():
		return p.mixReservoir(t, n, qOut, periodIndex)
	case t.Mix == MIX1:
		return p.mixTank1(t, n, in, qOut, dt, periodIndex)
	case t.Mix == MIX2:
		return p.mixTank2(t, n, in, qOut, dt, periodIndex)
	default: // FIFO, LIFO
		return p.mixPlugFlowTank(t, n, in, qOut, dt, p.pool, periodIndex)
	}
}

// divideVolume converts an accumulated mass vector back to a
// concentration vector over the volume it was drained from.
func divideVolume(mass []float64, vol float64) []float64 {
	c := make([]float64, len(mass))
	if vol <= 1e-12 {
		return c
	}
	for i := range c {
		c[i] = mass[i] / vol
	}
	return c
}
