package msx

import "math"

const kinematicViscosity = 1.1e-5 // ft^2/s, water at ~20C

// hydraulicVars carries the per-location reserved-variable values
// (Q, L, D, Re, Us, Ff, Av) an expression may reference, computed
// once per link (or left zero for tanks, where they do not apply) and
// reused across every species/segment evaluated against it.
type hydraulicVars struct {
	q, l, d, re, us, ff, av float64
}

// linkHydraulicVars computes a link's reserved hydraulic variables.
// avFactor scales Av from its internal ft^-1 convention to whichever
// area unit the project's reaction equations were written against
// (Project.areaUnitFactor, derived from Opts.AreaUnits).
func linkHydraulicVars(link *Link, avFactor float64) hydraulicVars {
	area := link.xSectionArea()
	if area == 0 {
		return hydraulicVars{}
	}
	v := link.Flow / area
	av := math.Abs(v)
	re := av * link.Diameter / kinematicViscosity

	var ff float64
	if re > 0 {
		// Swamee-Jain explicit approximation to the Colebrook-White
		// equation for the Darcy friction factor.
		rel := link.Roughness / (3.7 * link.Diameter)
		denom := math.Log10(rel + 5.74/math.Pow(re, 0.9))
		if denom != 0 {
			ff = 0.25 / (denom * denom)
		}
	}
	us := av * math.Sqrt(ff/8)

	return hydraulicVars{
		q: link.Flow, l: link.Length, d: link.Diameter,
		re: re, us: us, ff: ff, av: link.wallAv() * avFactor,
	}
}

// reactionContext implements expr.Context for one reaction evaluation:
// a segment's or tank's species vector, at one instant in simulated
// time, with named terms evaluated lazily and cached.
type reactionContext struct {
	proj *Project
	c    []float64 // 1-based by species index
	hv   hydraulicVars
	time float64

	// parameter scope: exactly one of link/tankIdx is meaningful.
	linkIndex int
	tankIndex int
	isTank    bool

	termCache    []float64
	termComputed []bool
}

func newReactionContext(proj *Project, c []float64, hv hydraulicVars, simTime float64) *reactionContext {
	return &reactionContext{
		proj: proj, c: c, hv: hv, time: simTime,
		termCache:    make([]float64, len(proj.Terms)),
		termComputed: make([]bool, len(proj.Terms)),
	}
}

func (ctx *reactionContext) forLink(idx int) *reactionContext {
	ctx.linkIndex, ctx.isTank = idx, false
	return ctx
}

func (ctx *reactionContext) forTank(idx int) *reactionContext {
	ctx.tankIndex, ctx.isTank = idx, true
	return ctx
}

// Lookup implements expr.Context.
func (ctx *reactionContext) Lookup(code int) (float64, error) {
	kind, idx := unpackCode(code)
	switch kind {
	case varSpecies:
		if idx < 0 || idx >= len(ctx.c) {
			return 0, ErrInvalidObjectIndex
		}
		return ctx.c[idx], nil
	case varTerm:
		return ctx.term(idx)
	case varConstant:
		if idx < 0 || idx >= len(ctx.proj.Constants) {
			return 0, ErrInvalidObjectIndex
		}
		return ctx.proj.Constants[idx].Value, nil
	case varParameter:
		if idx < 0 || idx >= len(ctx.proj.Parameters) {
			return 0, ErrInvalidObjectIndex
		}
		param := ctx.proj.Parameters[idx]
		if ctx.isTank {
			return param.ValueForTank(ctx.tankIndex), nil
		}
		return param.ValueForPipe(ctx.linkIndex), nil
	case varReserved:
		switch varKind(idx) {
		case reservedQ:
			return ctx.hv.q, nil
		case reservedL:
			return ctx.hv.l, nil
		case reservedD:
			return ctx.hv.d, nil
		case reservedRe:
			return ctx.hv.re, nil
		case reservedUs:
			return ctx.hv.us, nil
		case reservedFf:
			return ctx.hv.ff, nil
		case reservedAv:
			return ctx.hv.av, nil
		case reservedT:
			return ctx.time, nil
		}
	}
	return 0, ErrInvalidObjectIndex
}

func (ctx *reactionContext) term(idx int) (float64, error) {
	if idx < 0 || idx >= len(ctx.proj.Terms) {
		return 0, ErrInvalidObjectIndex
	}
	if ctx.termComputed[idx] {
		return ctx.termCache[idx], nil
	}
	v, err := ctx.proj.Terms[idx].Expr.Eval(ctx)
	if err != nil {
		return 0, err
	}
	ctx.termCache[idx] = v
	ctx.termComputed[idx] = true
	return v, nil
}

// RHS returns the derivative of every species with a RATE-class
// expression, whatever its kind, and writes every FORMULA-class
// species' direct assignment into c. EQUIL-class species get a zero
// derivative; they are resolved separately by the Newton solver in
// the integrate package.
func RHS(proj *Project, c []float64, hv hydraulicVars, simTime float64, linkIdx, tankIdx int, isTank bool) (deriv []float64, err error) {
	ctx := newReactionContext(proj, c, hv, simTime)
	if isTank {
		ctx.forTank(tankIdx)
	} else {
		ctx.forLink(linkIdx)
	}

	deriv = make([]float64, len(c))
	for _, sp := range proj.Species[1:] {
		ex := sp.PipeExpr
		class := sp.PipeExprClass
		if isTank {
			ex, class = sp.EffectiveTankExpr()
		}
		if ex == nil {
			continue
		}
		switch class {
		case RATE:
			v, everr := ex.Eval(ctx)
			if everr != nil {
				return nil, everr
			}
			deriv[sp.Index] = v
		case FORMULA:
			v, everr := ex.Eval(ctx)
			if everr != nil {
				return nil, everr
			}
			c[sp.Index] = v
		case EQUIL:
			// resolved by the Newton solver; no derivative contribution.
		}
	}
	return deriv, nil
}

// EquilResidual evaluates every EQUIL-class species' residual f(C) = 0
// at the current state, for the damped-Newton solver.
func EquilResidual(proj *Project, c []float64, hv hydraulicVars, simTime float64, linkIdx, tankIdx int, isTank bool, equilSpecies []int) ([]float64, error) {
	ctx := newReactionContext(proj, c, hv, simTime)
	if isTank {
		ctx.forTank(tankIdx)
	} else {
		ctx.forLink(linkIdx)
	}
	res := make([]float64, len(equilSpecies))
	for i, si := range equilSpecies {
		sp := proj.Species[si]
		ex := sp.PipeExpr
		class := sp.PipeExprClass
		if isTank {
			ex, class = sp.EffectiveTankExpr()
		}
		if class != EQUIL || ex == nil {
			continue
		}
		v, err := ex.Eval(ctx)
		if err != nil {
			return nil, err
		}
		// f(C) = C[species] - g(other species) == 0 form: the equation
		// the user writes is the RHS g(...); the residual is the
		// defining species' current value minus that RHS.
		res[i] = c[si] - v
	}
	return res, nil
}
