package msx

import (
	"fmt"

	"github.com/watermsx/msx/expr"
)

// resolveName binds a variable name appearing in an equation to an
// integer variable code: species concentration, named term, constant,
// parameter, or one of the reserved hydraulic/time symbols.
func (p *Project) resolveName(name string) (int, bool) {
	if kind, ok := reservedNames[name]; ok {
		return packCode(varReserved, int(kind)), true
	}
	if i, ok := p.specIndex[name]; ok {
		return packCode(varSpecies, i), true
	}
	if i, ok := p.termIndex[name]; ok {
		return packCode(varTerm, i), true
	}
	if i, ok := p.constIndex[name]; ok {
		return packCode(varConstant, i), true
	}
	if i, ok := p.paramIndex[name]; ok {
		return packCode(varParameter, i), true
	}
	return 0, false
}

// AddNode creates a junction node. Rejected outside Open/QualityOpen.
func (p *Project) AddNode(id string) (int, error) {
	if err := p.requireState(Open, QualityOpen); err != nil {
		return 0, err
	}
	if _, dup := p.nodeIndex[id]; dup {
		return 0, fmt.Errorf("%w: node %q", ErrDuplicateID, id)
	}
	idx := len(p.Nodes)
	p.Nodes = append(p.Nodes, &Node{ID: id, Index: idx})
	p.nodeIndex[id] = idx
	return idx, nil
}

// AddLink creates a pipe between two previously-added nodes.
func (p *Project) AddLink(id string, n1, n2 string, length, diameter, roughness float64) (int, error) {
	if err := p.requireState(Open, QualityOpen); err != nil {
		return 0, err
	}
	if _, dup := p.linkIndex[id]; dup {
		return 0, fmt.Errorf("%w: link %q", ErrDuplicateID, id)
	}
	i1, ok := p.nodeIndex[n1]
	if !ok {
		return 0, fmt.Errorf("%w: node %q", ErrUndefinedObjectID, n1)
	}
	i2, ok := p.nodeIndex[n2]
	if !ok {
		return 0, fmt.Errorf("%w: node %q", ErrUndefinedObjectID, n2)
	}
	if length <= 0 || diameter <= 0 {
		return 0, fmt.Errorf("%w: link %q: length and diameter must be positive", ErrInvalidObjectParams, id)
	}
	idx := len(p.Links)
	p.Links = append(p.Links, &Link{
		ID: id, Index: idx, N1: i1, N2: i2,
		Length: length, Diameter: diameter, Roughness: roughness,
	})
	p.linkIndex[id] = idx
	return idx, nil
}

func (p *Project) addTankOrReservoir(id string, v0 float64, mix TankMix, vMix float64, reservoir bool) (int, error) {
	if err := p.requireState(Open, QualityOpen); err != nil {
		return 0, err
	}
	if _, dup := p.tankIndex[id]; dup {
		return 0, fmt.Errorf("%w: tank %q", ErrDuplicateID, id)
	}
	nodeIdx, err := p.AddNode(id)
	if err != nil {
		return 0, err
	}
	idx := len(p.Tanks)
	area := 1.0
	if reservoir {
		area = 0
	}
	t := &Tank{
		ID: id, Index: idx, NodeIndex: nodeIdx,
		Mix: mix, Area: area, V0: v0, VMix: vMix, Volume: v0,
	}
	p.Tanks = append(p.Tanks, t)
	p.tankIndex[id] = idx
	p.Nodes[nodeIdx].TankIndex = idx
	return idx, nil
}

// AddTank creates a tank backed by a new node.
func (p *Project) AddTank(id string, v0 float64, mix TankMix, vMix float64) (int, error) {
	return p.addTankOrReservoir(id, v0, mix, vMix, false)
}

// AddReservoir creates a reservoir (area 0, infinite source at its
// initial concentration) backed by a new node.
func (p *Project) AddReservoir(id string, v0 float64, mix TankMix, vMix float64) (int, error) {
	return p.addTankOrReservoir(id, v0, mix, vMix, true)
}

// AddSpecies creates a species.
func (p *Project) AddSpecies(id string, kind SpeciesKind, units string, aTol, rTol float64) (int, error) {
	if err := p.requireState(Open, QualityOpen); err != nil {
		return 0, err
	}
	if _, dup := p.specIndex[id]; dup {
		return 0, fmt.Errorf("%w: species %q", ErrDuplicateID, id)
	}
	idx := len(p.Species)
	p.Species = append(p.Species, &Species{
		ID: id, Index: idx, Kind: kind, Units: units, ATol: aTol, RTol: rTol,
	})
	p.specIndex[id] = idx
	return idx, nil
}

// CoefficientKind selects whether AddCoefficient creates a Constant or
// a Parameter.
type CoefficientKind int

const (
	CoeffConstant CoefficientKind = iota
	CoeffParameter
)

// AddCoefficient creates a named constant or parameter.
func (p *Project) AddCoefficient(kind CoefficientKind, id string, value float64) (int, error) {
	if err := p.requireState(Open, QualityOpen); err != nil {
		return 0, err
	}
	switch kind {
	case CoeffConstant:
		if _, dup := p.constIndex[id]; dup {
			return 0, fmt.Errorf("%w: constant %q", ErrDuplicateID, id)
		}
		idx := len(p.Constants)
		p.Constants = append(p.Constants, &Constant{ID: id, Index: idx, Value: value})
		p.constIndex[id] = idx
		return idx, nil
	case CoeffParameter:
		if _, dup := p.paramIndex[id]; dup {
			return 0, fmt.Errorf("%w: parameter %q", ErrDuplicateID, id)
		}
		idx := len(p.Parameters)
		p.Parameters = append(p.Parameters, &Parameter{
			ID: id, Index: idx, Default: value,
			PipeValues: map[int]float64{}, TankValues: map[int]float64{},
		})
		p.paramIndex[id] = idx
		return idx, nil
	default:
		return 0, fmt.Errorf("%w: coefficient kind %v", ErrInvalidObjectType, kind)
	}
}

// AddTerm creates a named intermediate expression usable from other
// equations.
func (p *Project) AddTerm(id, equation string) (int, error) {
	if err := p.requireState(Open, QualityOpen); err != nil {
		return 0, err
	}
	if _, dup := p.termIndex[id]; dup {
		return 0, fmt.Errorf("%w: term %q", ErrDuplicateID, id)
	}
	// Reserve the index before parsing, but register the name only
	// after it, so the equation may reference other already-declared
	// terms but not itself.
	idx := len(p.Terms)
	p.Terms = append(p.Terms, nil)

	e, err := expr.Parse(equation, p.resolveName)
	if err != nil {
		p.Terms = p.Terms[:idx]
		return 0, err
	}
	p.termIndex[id] = idx
	p.Terms[idx] = &Term{ID: id, Index: idx, Expr: e}
	return idx, nil
}

// ExprScope selects whether AddExpression targets a species' pipe
// reaction or its tank reaction.
type ExprScope int

const (
	ExprPipe ExprScope = iota
	ExprTank
)

// AddExpression attaches a RATE/EQUIL/FORMULA expression to a species'
// pipe or tank reaction.
func (p *Project) AddExpression(scope ExprScope, class ExprClass, speciesID, equation string) error {
	if err := p.requireState(Open, QualityOpen); err != nil {
		return err
	}
	si, ok := p.specIndex[speciesID]
	if !ok {
		return fmt.Errorf("%w: species %q", ErrUndefinedObjectID, speciesID)
	}
	sp := p.Species[si]

	e, err := expr.Parse(equation, p.resolveName)
	if err != nil {
		return err
	}

	switch scope {
	case ExprPipe:
		if sp.PipeExpr != nil {
			return fmt.Errorf("%w: species %q pipe expression", ErrDuplicateExpression, speciesID)
		}
		sp.PipeExprClass = class
		sp.PipeExpr = e
	case ExprTank:
		if sp.TankExpr != nil || sp.TankSamePipe {
			return fmt.Errorf("%w: species %q tank expression", ErrDuplicateExpression, speciesID)
		}
		sp.TankExprClass = class
		sp.TankExpr = e
	default:
		return fmt.Errorf("%w: expression scope %v", ErrInvalidObjectType, scope)
	}
	return nil
}

// AliasTankToPipe marks a species' tank reaction as sharing its pipe
// expression (the one aliasing relation the data model allows).
func (p *Project) AliasTankToPipe(speciesID string) error {
	if err := p.requireState(Open, QualityOpen); err != nil {
		return err
	}
	si, ok := p.specIndex[speciesID]
	if !ok {
		return fmt.Errorf("%w: species %q", ErrUndefinedObjectID, speciesID)
	}
	sp := p.Species[si]
	if sp.TankExpr != nil {
		return fmt.Errorf("%w: species %q tank expression", ErrDuplicateExpression, speciesID)
	}
	sp.TankSamePipe = true
	return nil
}

// AddSource attaches a source of a species to a node.
func (p *Project) AddSource(kind SourceKind, nodeID, speciesID string, strength float64, patternID string) error {
	if err := p.requireState(Open, QualityOpen); err != nil {
		return err
	}
	ni, ok := p.nodeIndex[nodeID]
	if !ok {
		return fmt.Errorf("%w: node %q", ErrUndefinedObjectID, nodeID)
	}
	si, ok := p.specIndex[speciesID]
	if !ok {
		return fmt.Errorf("%w: species %q", ErrUndefinedObjectID, speciesID)
	}
	patIdx := 0
	if patternID != "" {
		pi, ok := p.patIndex[patternID]
		if !ok {
			return fmt.Errorf("%w: pattern %q", ErrUndefinedObjectID, patternID)
		}
		patIdx = pi
	}
	p.Nodes[ni].Sources = append(p.Nodes[ni].Sources, &Source{
		SpeciesIndex: si, Kind: kind, Strength: strength, PatternIndex: patIdx,
	})
	return nil
}

// AddQuality sets an initial concentration for a node or link.
func (p *Project) AddQuality(scope Scope, speciesID string, value float64, id string) error {
	if err := p.requireState(Open, QualityOpen); err != nil {
		return err
	}
	si, ok := p.specIndex[speciesID]
	if !ok {
		return fmt.Errorf("%w: species %q", ErrUndefinedObjectID, speciesID)
	}
	switch scope {
	case NodeScope:
		ni, ok := p.nodeIndex[id]
		if !ok {
			return fmt.Errorf("%w: node %q", ErrUndefinedObjectID, id)
		}
		n := p.Nodes[ni]
		n.Initial = growTo(n.Initial, si)
		n.Initial[si] = value
	case LinkScope:
		li, ok := p.linkIndex[id]
		if !ok {
			return fmt.Errorf("%w: link %q", ErrUndefinedObjectID, id)
		}
		l := p.Links[li]
		l.Initial = growTo(l.Initial, si)
		l.Initial[si] = value
	default:
		return fmt.Errorf("%w: scope %v", ErrInvalidObjectType, scope)
	}
	return nil
}

// AddParameter sets a parameter override for a pipe or tank.
func (p *Project) AddParameter(scope Scope, paramID string, value float64, id string) error {
	if err := p.requireState(Open, QualityOpen); err != nil {
		return err
	}
	pi, ok := p.paramIndex[paramID]
	if !ok {
		return fmt.Errorf("%w: parameter %q", ErrUndefinedObjectID, paramID)
	}
	param := p.Parameters[pi]
	switch scope {
	case LinkScope:
		li, ok := p.linkIndex[id]
		if !ok {
			return fmt.Errorf("%w: link %q", ErrUndefinedObjectID, id)
		}
		param.PipeValues[li] = value
	case NodeScope:
		ti, ok := p.tankIndex[id]
		if !ok {
			return fmt.Errorf("%w: tank %q", ErrUndefinedObjectID, id)
		}
		param.TankValues[ti] = value
	default:
		return fmt.Errorf("%w: scope %v", ErrInvalidObjectType, scope)
	}
	return nil
}

// AddPattern creates an empty pattern, ready for SetPattern.
func (p *Project) AddPattern(id string) (int, error) {
	if err := p.requireState(Open, QualityOpen); err != nil {
		return 0, err
	}
	if _, dup := p.patIndex[id]; dup {
		return 0, fmt.Errorf("%w: pattern %q", ErrDuplicateID, id)
	}
	idx := len(p.Patterns)
	p.Patterns = append(p.Patterns, &Pattern{ID: id, Index: idx})
	p.patIndex[id] = idx
	return idx, nil
}

// SetPattern replaces a pattern's entire multiplier sequence.
func (p *Project) SetPattern(index int, multipliers []float64) error {
	if err := p.requireState(Open, QualityOpen); err != nil {
		return err
	}
	if index <= 0 || index >= len(p.Patterns) {
		return fmt.Errorf("%w: pattern index %d", ErrInvalidObjectIndex, index)
	}
	pat := p.Patterns[index]
	pat.Multipliers = append([]float64(nil), multipliers...)
	pat.Reset()
	return nil
}

// SetPatternValue overwrites a single 1-based period of a pattern,
// growing the sequence if necessary.
func (p *Project) SetPatternValue(index, period int, value float64) error {
	if err := p.requireState(Open, QualityOpen); err != nil {
		return err
	}
	if index <= 0 || index >= len(p.Patterns) {
		return fmt.Errorf("%w: pattern index %d", ErrInvalidObjectIndex, index)
	}
	if period <= 0 {
		return fmt.Errorf("%w: pattern period %d", ErrInvalidObjectIndex, period)
	}
	pat := p.Patterns[index]
	for len(pat.Multipliers) < period {
		pat.Multipliers = append(pat.Multipliers, 0)
	}
	pat.Multipliers[period-1] = value
	return nil
}

// GetPatternValue returns the multiplier at 1-based period i.
func (p *Project) GetPatternValue(index, i int) (float64, error) {
	if index <= 0 || index >= len(p.Patterns) {
		return 0, fmt.Errorf("%w: pattern index %d", ErrInvalidObjectIndex, index)
	}
	pat := p.Patterns[index]
	if i <= 0 || i > len(pat.Multipliers) {
		return 0, fmt.Errorf("%w: pattern period %d", ErrInvalidObjectIndex, i)
	}
	return pat.Multipliers[i-1], nil
}

// SetReport marks a node or link for inclusion in report output, and
// for a species marks it reported and sets its report precision.
func (p *Project) SetReport(scope Scope, id string, precision int) error {
	if err := p.requireState(Open, QualityOpen); err != nil {
		return err
	}
	switch scope {
	case NodeScope:
		if ni, ok := p.nodeIndex[id]; ok {
			p.Nodes[ni].Report = true
			return nil
		}
		if si, ok := p.specIndex[id]; ok {
			p.Species[si].Report = true
			p.Species[si].ReportPrecision = precision
			return nil
		}
		return fmt.Errorf("%w: %q", ErrUndefinedObjectID, id)
	case LinkScope:
		li, ok := p.linkIndex[id]
		if !ok {
			return fmt.Errorf("%w: link %q", ErrUndefinedObjectID, id)
		}
		p.Links[li].Report = true
		return nil
	default:
		return fmt.Errorf("%w: scope %v", ErrInvalidObjectType, scope)
	}
}

func growTo(s []float64, idx int) []float64 {
	for len(s) <= idx {
		s = append(s, 0)
	}
	return s
}
