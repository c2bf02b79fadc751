package msx

// nodeInflow accumulates, over one transport sub-step, the total volume
// and per-species mass delivered to a node by every incoming link's
// head-segment ejection.
type nodeInflow struct {
	volume float64
	mass   []float64 // length len(Species), indices 1..nSpecies-1
}

func newNodeInflow(nSpecies int) nodeInflow {
	return nodeInflow{mass: make([]float64, nSpecies)}
}

func (in *nodeInflow) add(volume float64, c []float64) {
	in.volume += volume
	for i := range in.mass {
		if i < len(c) {
			in.mass[i] += c[i] * volume
		}
	}
}

// applySourceConcentration applies one source's effect to a node's
// outflow concentration for a single species:
//
//   - CONCEN sets the outflow concentration outright whenever the node
//     has net outward flow (a boundary/inflow condition, e.g. a
//     reservoir or an external supply main).
//   - MASS injects a mass rate, converted to a concentration increment
//     by the node's total outward volumetric flow.
//   - SETPOINT forces the outflow concentration regardless of mixing.
//   - FLOWPACED adds a fixed concentration increment to the mixed
//     value, scaling automatically with flow since it is the outflow
//     concentration (not a rate) that is held constant.
func applySourceConcentration(kind SourceKind, strength, mult, mixed, qOut float64) float64 {
	dose := strength * mult
	switch kind {
	case CONCEN:
		if qOut > 0 {
			return dose
		}
		return mixed
	case MASS:
		if qOut > 0 {
			return mixed + dose/qOut
		}
		return mixed
	case SETPOINT:
		return dose
	case FLOWPACED:
		return mixed + dose
	default:
		return mixed
	}
}

func (p *Project) applyNodeSources(n *Node, c []float64, qOut float64, periodIndex int) {
	for _, src := range n.Sources {
		if src.SpeciesIndex <= 0 || src.SpeciesIndex >= len(c) {
			continue
		}
		mult := src.multiplier(p, periodIndex)
		c[src.SpeciesIndex] = applySourceConcentration(src.Kind, src.Strength, mult, c[src.SpeciesIndex], qOut)
	}
}

// mixJunction computes an ordinary node's outflow concentration: the
// flow-weighted blend of everything that arrived this sub-step, with
// no inflow falling back to the node's last known state, then layers
// on any attached sources.
func (p *Project) mixJunction(n *Node, in nodeInflow, qOut float64, periodIndex int) []float64 {
	c := make([]float64, len(n.C))
	if in.volume > 1e-12 {
		for i := range c {
			if i < len(in.mass) {
				c[i] = in.mass[i] / in.volume
			}
		}
	} else {
		copy(c, n.C)
	}
	p.applyNodeSources(n, c, qOut, periodIndex)
	n.C = c
	return c
}

// mixReservoir returns a reservoir's outflow concentration: always its
// current (initial) concentration, since a zero-area tank is an
// infinite source, with any boundary sources layered on top.
func (p *Project) mixReservoir(t *Tank, n *Node, qOut float64, periodIndex int) []float64 {
	c := make([]float64, len(t.C))
	copy(c, t.C)
	p.applyNodeSources(n, c, qOut, periodIndex)
	return c
}

// mixTank1 implements the single completely-mixed compartment regime:
// an explicit mass balance over the sub-step using the tank's
// concentration at the start of the step for the outflow term.
func (p *Project) mixTank1(t *Tank, n *Node, in nodeInflow, qOut, dt float64, periodIndex int) []float64 {
	outVol := qOut * dt
	newVol := t.Volume + in.volume - outVol
	if newVol < 0 {
		newVol = 0
	}

	c := make([]float64, len(t.C))
	for i := range c {
		oldMass := t.Volume * t.C[i]
		var inMass float64
		if i < len(in.mass) {
			inMass = in.mass[i]
		}
		mass := oldMass + inMass - outVol*t.C[i]
		if mass < 0 {
			mass = 0
		}
		if newVol > 1e-12 {
			c[i] = mass / newVol
		} else {
			c[i] = t.C[i]
		}
	}
	t.Volume = newVol
	t.C = c

	out := make([]float64, len(c))
	copy(out, c)
	p.applyNodeSources(n, out, qOut, periodIndex)
	return out
}

// mixTank2 implements the two-compartment regime: inflow enters the
// primary (mixing) compartment; outflow is drawn from the primary
// compartment, pulling from the secondary compartment first if the
// primary runs short; and any primary volume above VMix overflows into
// the secondary compartment, carrying the primary's concentration.
func (p *Project) mixTank2(t *Tank, n *Node, in nodeInflow, qOut, dt float64, periodIndex int) []float64 {
	nSpecies := len(t.C)
	primaryVol := t.VolMix
	secVol := t.Volume - t.VolMix
	if secVol < 0 {
		secVol = 0
	}

	primaryMass := make([]float64, nSpecies)
	secMass := make([]float64, nSpecies)
	for i := 0; i < nSpecies; i++ {
		primaryMass[i] = t.C[i] * primaryVol
		secMass[i] = t.C2[i] * secVol
	}

	// Inflow always enters the primary compartment.
	primaryVol += in.volume
	for i := 0; i < nSpecies; i++ {
		if i < len(in.mass) {
			primaryMass[i] += in.mass[i]
		}
	}

	outConc := make([]float64, nSpecies)
	outVol := qOut * dt

	if primaryVol < outVol && secVol > 0 {
		deficit := outVol - primaryVol
		if deficit > secVol {
			deficit = secVol
		}
		for i := 0; i < nSpecies; i++ {
			var secConc float64
			if secVol > 1e-12 {
				secConc = secMass[i] / secVol
			}
			transfer := secConc * deficit
			primaryMass[i] += transfer
			secMass[i] -= transfer
		}
		primaryVol += deficit
		secVol -= deficit
	}

	draw := outVol
	if draw > primaryVol {
		draw = primaryVol
	}
	for i := 0; i < nSpecies; i++ {
		var conc float64
		if primaryVol > 1e-12 {
			conc = primaryMass[i] / primaryVol
		}
		outConc[i] = conc
		primaryMass[i] -= conc * draw
	}
	primaryVol -= draw

	if primaryVol > t.VMix {
		excess := primaryVol - t.VMix
		for i := 0; i < nSpecies; i++ {
			var conc float64
			if primaryVol > 1e-12 {
				conc = primaryMass[i] / primaryVol
			}
			transfer := conc * excess
			primaryMass[i] -= transfer
			secMass[i] += transfer
		}
		primaryVol -= excess
		secVol += excess
	}

	t.VolMix = primaryVol
	t.Volume = primaryVol + secVol
	for i := 0; i < nSpecies; i++ {
		if primaryVol > 1e-12 {
			t.C[i] = primaryMass[i] / primaryVol
		}
		if secVol > 1e-12 {
			t.C2[i] = secMass[i] / secVol
		}
	}

	p.applyNodeSources(n, outConc, qOut, periodIndex)
	return outConc
}

// drainSegments removes up to vol of total volume from d, starting at
// its head (fromTail == false) or its tail (fromTail == true),
// returning the accumulated per-species mass removed. Running out of
// segments before vol is satisfied (a hydraulics inconsistency) simply
// stops early; only in that case does the returned mass cover less
// than vol.
func drainSegments(d *segmentDeque, pool *SegmentPool, vol float64, fromTail bool, nSpecies int) []float64 {
	mass := make([]float64, nSpecies)
	remaining := vol
	for remaining > 1e-12 {
		var s *Segment
		if fromTail {
			s = d.Tail()
		} else {
			s = d.Head()
		}
		if s == nil {
			break
		}
		if s.Volume <= remaining {
			for i := range mass {
				if i < len(s.C) {
					mass[i] += s.C[i] * s.Volume
				}
			}
			remaining -= s.Volume
			d.remove(s)
			pool.Put(s)
		} else {
			for i := range mass {
				if i < len(s.C) {
					mass[i] += s.C[i] * remaining
				}
			}
			s.Volume -= remaining
			remaining = 0
		}
	}
	return mass
}

// mixPlugFlowTank implements the FIFO and LIFO plug-flow regimes, both
// backed by a segment deque whose species layout matches Tank.C's
// (SegmentPool must be sized with len(Tank.C)-1 species so Segment.C
// lines up index-for-index with Tank.C). Inflow always pushes a new
// segment onto the tail. FIFO draws outflow from the head (oldest
// water leaves first); LIFO draws it back off the tail (last in,
// first out).
func (p *Project) mixPlugFlowTank(t *Tank, n *Node, in nodeInflow, qOut, dt float64, pool *SegmentPool, periodIndex int) []float64 {
	nSpecies := len(t.C)
	if in.volume > 1e-12 {
		c := make([]float64, nSpecies)
		for i := range c {
			if i < len(in.mass) {
				c[i] = in.mass[i] / in.volume
			}
		}
		t.Segments.PushTail(pool, in.volume, c)
	}

	outVol := qOut * dt
	fromTail := t.Mix == LIFO
	mass := drainSegments(t.Segments, pool, outVol, fromTail, nSpecies)

	t.Volume += in.volume - outVol
	if t.Volume < 0 {
		t.Volume = 0
	}

	out := make([]float64, nSpecies)
	if outVol > 1e-12 {
		for i := range out {
			out[i] = mass[i] / outVol
		}
	}
	copy(t.C, out)
	p.applyNodeSources(n, out, qOut, periodIndex)
	return out
}
