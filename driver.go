package msx

import (
	"fmt"
	"math"
	"runtime"
	"sync"

	"github.com/watermsx/msx/integrate"
)

// QualOpen transitions Open -> QualityOpen, allocating the segment
// pool sized for the project's species count. add*/set* calls are
// still admitted in QualityOpen and are rejected once QualInit has run.
func (p *Project) QualOpen() error {
	if err := p.requireState(Open); err != nil {
		return err
	}
	p.pool = NewSegmentPool(len(p.Species) - 1)
	p.state = QualityOpen
	p.log.Debug("quality model opened")
	return nil
}

// QualInit (re)initializes every pipe, tank, and reservoir to its
// configured initial concentration and resets the quality/report
// clocks. It is idempotent: it may be called again from Initialized
// or Stepping to restart a run without reopening the project.
func (p *Project) QualInit() error {
	if err := p.requireState(QualityOpen, Initialized, Stepping); err != nil {
		return err
	}

	for _, l := range p.Links[1:] {
		if l == nil {
			continue
		}
		l.Segments = newSegmentDeque()
		l.Segments.PushTail(p.pool, l.fullVolume(), l.Initial)
		for i := range l.ReactedMass {
			l.ReactedMass[i] = 0
		}
	}

	for _, t := range p.Tanks[1:] {
		if t == nil {
			continue
		}
		node := p.Nodes[t.NodeIndex]
		copy(t.C, node.Initial)
		copy(t.C2, node.Initial)
		t.Volume = t.V0
		if t.Mix == MIX2 {
			t.VolMix = math.Min(t.VMix, t.V0)
		} else {
			t.VolMix = t.V0
		}
		if t.Mix == FIFO || t.Mix == LIFO {
			t.Segments = newSegmentDeque()
			t.Segments.PushTail(p.pool, t.V0, node.Initial)
		}
		for i := range t.ReactedMass {
			t.ReactedMass[i] = 0
		}
	}

	for _, n := range p.Nodes[1:] {
		if n == nil {
			continue
		}
		copy(n.C, n.Initial)
	}

	for _, pat := range p.Patterns[1:] {
		if pat != nil {
			pat.Reset()
		}
	}

	p.qTime = 0
	p.rTime = p.Opts.Rstart
	p.periodIndex = 0
	p.finished = false
	p.state = Initialized
	p.log.Debug("quality model initialized")
	return nil
}

// SetHydraulics installs a new hydraulic snapshot: per-link signed
// flow, per-node head, and per-node demand, all in internal units.
// Any pipe whose flow direction has flipped since the previous
// snapshot has its segment deque reversed in place.
func (p *Project) SetHydraulics(t float64, demands, heads, flows []float64) error {
	if err := p.requireState(Initialized, Stepping); err != nil {
		return err
	}
	if len(flows) != len(p.Links) {
		return fmt.Errorf("%w: flows length %d, want %d", ErrInvalidObjectParams, len(flows), len(p.Links))
	}
	for i, l := range p.Links[1:] {
		l.applyFlow(flows[i+1])
	}
	p.hydTime = t
	p.demands = demands
	p.heads = heads
	p.flows = flows
	return nil
}

// Step advances the simulation by one quality step (Opts.Qstep),
// internally subdividing it into sub-steps no longer than the fastest
// pipe's full transit time so no segment can be swept more than once
// per sub-step. It reports the new simulation time and
// the time remaining until Opts.Duration.
func (p *Project) Step() (t, tleft float64, err error) {
	if err := p.requireState(Initialized, Stepping); err != nil {
		return 0, 0, err
	}

	remaining := p.Opts.Qstep
	for remaining > 1e-9 {
		dt := remaining
		for _, l := range p.Links[1:] {
			if l == nil || l.Flow == 0 {
				continue
			}
			lim := l.fullVolume() / math.Abs(l.Flow)
			if lim > 0 && lim < dt {
				dt = lim
			}
		}
		if dt <= 0 || dt > remaining {
			dt = remaining
		}

		switch p.Opts.Coupling {
		case FULL:
			if err := p.transportSubstep(dt, p.periodIndex); err != nil {
				return 0, 0, err
			}
			if err := p.reactSubstep(dt); err != nil {
				return 0, 0, err
			}
		default: // NONE
			if err := p.reactSubstep(dt); err != nil {
				return 0, 0, err
			}
			if err := p.transportSubstep(dt, p.periodIndex); err != nil {
				return 0, 0, err
			}
		}

		p.qTime += dt
		remaining -= dt
	}

	if p.Opts.Qstep > 0 {
		p.periodIndex = int(p.qTime / p.Opts.Qstep)
	}

	if p.qTime+1e-9 >= p.rTime && p.resultsWriter != nil {
		if err := p.writeReportInstant(); err != nil {
			return 0, 0, err
		}
		p.rTime += p.Opts.Rstep
	}

	p.state = Stepping
	tleft = p.Opts.Duration - p.qTime
	if tleft < 0 {
		tleft = 0
	}
	p.log.WithField("t", p.qTime).Debug("quality step complete")
	return p.qTime, tleft, nil
}

// writeReportInstant serializes every reported node and link's current
// concentration vector to the registered results writer.
func (p *Project) writeReportInstant() error {
	nodeVals := make([][]float32, 0, len(p.Nodes))
	for _, n := range p.Nodes[1:] {
		if n == nil || !n.Report {
			continue
		}
		nodeVals = append(nodeVals, toFloat32(n.C[1:]))
	}
	linkVals := make([][]float32, 0, len(p.Links))
	for _, l := range p.Links[1:] {
		if l == nil || !l.Report {
			continue
		}
		c := l.Segments.TotalConcentration()
		if len(c) > 1 {
			c = c[1:]
		}
		linkVals = append(linkVals, toFloat32(c))
	}
	if err := p.resultsWriter.WriteInstant(p.qTime, nodeVals, linkVals); err != nil {
		return fmt.Errorf("%w: %v", ErrOutputWrite, err)
	}
	return nil
}

func toFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(x)
	}
	return out
}

// Close transitions to Closed from any state, releasing the segment
// pool. It is not an error to Close a project that was never opened.
func (p *Project) Close() error {
	p.pool = nil
	p.state = Closed
	p.log.Debug("quality model closed")
	return nil
}

// GetQualityByIndex returns a node's (or, via its tank, reservoir's)
// current concentration of one species by 1-based index.
func (p *Project) GetQualityByIndex(nodeIndex, speciesIndex int) (float64, error) {
	if nodeIndex <= 0 || nodeIndex >= len(p.Nodes) || p.Nodes[nodeIndex] == nil {
		return 0, fmt.Errorf("%w: node index %d", ErrInvalidObjectIndex, nodeIndex)
	}
	n := p.Nodes[nodeIndex]
	c := n.C
	if n.IsTank() && n.TankIndex < len(p.Tanks) && p.Tanks[n.TankIndex] != nil {
		c = p.Tanks[n.TankIndex].C
	}
	if speciesIndex <= 0 || speciesIndex >= len(c) {
		return 0, fmt.Errorf("%w: species index %d", ErrInvalidObjectIndex, speciesIndex)
	}
	return c[speciesIndex], nil
}

// GetQualityByID is GetQualityByIndex addressed by node and species ID.
func (p *Project) GetQualityByID(nodeID, speciesID string) (float64, error) {
	ni, ok := p.nodeIndex[nodeID]
	if !ok {
		return 0, fmt.Errorf("%w: node %q", ErrUndefinedObjectID, nodeID)
	}
	si, ok := p.specIndex[speciesID]
	if !ok {
		return 0, fmt.Errorf("%w: species %q", ErrUndefinedObjectID, speciesID)
	}
	return p.GetQualityByIndex(ni, si)
}

// reactSubstep applies reaction kinetics to every pipe's segments and
// every non-reservoir tank's compartments over dt, fanning independent
// links and tanks out across available processors: no reaction depends
// on another link or tank's state within a sub-step, only on the
// mixing that follows.
func (p *Project) reactSubstep(dt float64) error {
	jobs := make([]func() error, 0, len(p.Links)+len(p.Tanks))
	for _, l := range p.Links[1:] {
		l := l
		if l == nil {
			continue
		}
		jobs = append(jobs, func() error { return p.reactLink(l, dt) })
	}
	for _, t := range p.Tanks[1:] {
		t := t
		if t == nil || t.IsReservoir() {
			continue
		}
		jobs = append(jobs, func() error { return p.reactTank(t, dt) })
	}
	return runConcurrent(jobs)
}

func (p *Project) reactLink(l *Link, dt float64) error {
	hv := linkHydraulicVars(l, p.areaUnitFactor)
	for s := l.Segments.Head(); s != nil; s = l.Segments.headNext(s) {
		if err := p.reactSegment(s.C, hv, l.Index, false, dt); err != nil {
			return fmt.Errorf("link %q: %w", l.ID, err)
		}
	}
	return nil
}

func (p *Project) reactTank(t *Tank, dt float64) error {
	if err := p.reactSegment(t.C, hydraulicVars{}, t.Index, true, dt); err != nil {
		return fmt.Errorf("tank %q: %w", t.ID, err)
	}
	if t.Mix == MIX2 {
		if err := p.reactSegment(t.C2, hydraulicVars{}, t.Index, true, dt); err != nil {
			return fmt.Errorf("tank %q secondary compartment: %w", t.ID, err)
		}
	}
	if t.Mix == FIFO || t.Mix == LIFO {
		for s := t.Segments.Head(); s != nil; s = t.Segments.headNext(s) {
			if err := p.reactSegment(s.C, hydraulicVars{}, t.Index, true, dt); err != nil {
				return fmt.Errorf("tank %q: %w", t.ID, err)
			}
		}
	}
	return nil
}

// reactSegment advances one concentration vector (a pipe segment or a
// tank compartment) by dt: RATE and FORMULA species are carried through
// the project's chosen ODE solver, then any EQUIL species are resolved
// by a damped-Newton solve against the final state.
func (p *Project) reactSegment(c []float64, hv hydraulicVars, idx int, isTank bool, dt float64) error {
	n := len(c)
	y0 := append([]float64(nil), c...)

	aTol := make([]float64, n)
	rTol := make([]float64, n)
	for _, sp := range p.Species[1:] {
		aTol[sp.Index] = sp.ATol
		rTol[sp.Index] = sp.RTol
		if aTol[sp.Index] == 0 && rTol[sp.Index] == 0 {
			aTol[sp.Index] = p.Opts.ATol
			rTol[sp.Index] = p.Opts.RTol
		}
	}

	rhs := func(t float64, y []float64) ([]float64, error) {
		trial := append([]float64(nil), y...)
		deriv, err := RHS(p, trial, hv, p.qTime+t, idx, idx, isTank)
		if err != nil {
			return nil, err
		}
		for i := range deriv {
			deriv[i] *= p.rateUnitFactor
		}
		return deriv, nil
	}

	var y []float64
	var err error
	switch p.Opts.SolverOpt {
	case RK5:
		y, err = integrate.RKF45(rhs, 0, y0, dt, aTol, rTol)
	case ROS2:
		y, err = integrate.Rosenbrock2(rhs, 0, y0, dt, aTol, rTol)
	default:
		y, err = integrate.Euler(rhs, 0, y0, dt, aTol)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIntegrationFailure, err)
	}

	copy(c, y)
	if _, err := RHS(p, c, hv, p.qTime+dt, idx, idx, isTank); err != nil {
		return err
	}

	equilIdx := equilSpeciesIndices(p.Species, isTank)
	if len(equilIdx) == 0 {
		return nil
	}
	y0e := make([]float64, len(equilIdx))
	for k, si := range equilIdx {
		y0e[k] = c[si]
	}
	g := func(y []float64) ([]float64, error) {
		trial := append([]float64(nil), c...)
		for k, si := range equilIdx {
			trial[si] = y[k]
		}
		return EquilResidual(p, trial, hv, p.qTime+dt, idx, idx, isTank, equilIdx)
	}
	ye, err := integrate.Newton(g, y0e, p.Opts.ATol, p.Opts.RTol)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrEquilibriumFailure, err)
	}
	for k, si := range equilIdx {
		c[si] = ye[k]
	}
	return nil
}

func equilSpeciesIndices(species []*Species, isTank bool) []int {
	var out []int
	for _, sp := range species[1:] {
		if sp == nil {
			continue
		}
		ex, class := sp.PipeExpr, sp.PipeExprClass
		if isTank {
			ex, class = sp.EffectiveTankExpr()
		}
		if ex != nil && class == EQUIL {
			out = append(out, sp.Index)
		}
	}
	return out
}

// runConcurrent runs each job on a bounded worker pool sized to the
// available processors, returning the first error encountered.
func runConcurrent(jobs []func() error) error {
	if len(jobs) == 0 {
		return nil
	}
	workers := runtime.GOMAXPROCS(0)
	if workers > len(jobs) {
		workers = len(jobs)
	}
	if workers < 1 {
		workers = 1
	}

	sem := make(chan struct{}, workers)
	errCh := make(chan error, len(jobs))
	var wg sync.WaitGroup
	for _, job := range jobs {
		job := job
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			if err := job(); err != nil {
				errCh <- err
			}
		}()
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		if err != nil {
			return err
		}
	}
	return nil
}
