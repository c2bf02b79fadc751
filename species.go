package msx

import "github.com/watermsx/msx/expr"

// Species is a chemical species tracked by the simulation. Species are
// created during project build and are immutable once the project
// reaches Initialized.
type Species struct {
	ID              string
	Index           int // 1-based; 0 is never addressed
	Kind            SpeciesKind
	Units           string
	ATol, RTol      float64
	ReportPrecision int
	Report          bool

	PipeExprClass ExprClass
	PipeExpr      *expr.Expr

	// TankExpr is the species' tank-reaction expression. Per the source
	// program a species' tank expression may alias its pipe expression;
	// we make that an explicit sum type instead of sharing a pointer and
	// tracking ownership with an equality check at teardown.
	TankExprClass ExprClass
	TankExpr      *expr.Expr
	TankSamePipe  bool // true: evaluate PipeExpr/PipeExprClass for tanks too
}

// EffectiveTankExpr returns the expression and class to use when
// evaluating this species' tank reaction, resolving the Same aliasing
// relationship described in the data model.
func (s *Species) EffectiveTankExpr() (*expr.Expr, ExprClass) {
	if s.TankSamePipe {
		return s.PipeExpr, s.PipeExprClass
	}
	return s.TankExpr, s.TankExprClass
}

// Constant is a named scalar usable in any expression. Mutable between
// runs, immutable during a run.
type Constant struct {
	ID    string
	Index int
	Value float64
}

// Parameter is a named scalar with an optional per-pipe and per-tank
// override array layered over a default value.
type Parameter struct {
	ID          string
	Index       int
	Default     float64
	PipeValues  map[int]float64 // link index -> override
	TankValues  map[int]float64 // tank index -> override
}

// ValueForPipe resolves this parameter's effective value for a pipe,
// falling back to the default when no override is set.
func (p *Parameter) ValueForPipe(linkIndex int) float64 {
	if v, ok := p.PipeValues[linkIndex]; ok {
		return v
	}
	return p.Default
}

// ValueForTank resolves this parameter's effective value for a tank,
// falling back to the default when no override is set.
func (p *Parameter) ValueForTank(tankIndex int) float64 {
	if v, ok := p.TankValues[tankIndex]; ok {
		return v
	}
	return p.Default
}

// Term is a named intermediate sub-expression usable from other
// expressions, evaluated lazily and cached per evaluation context.
type Term struct {
	ID    string
	Index int
	Expr  *expr.Expr
}

// Pattern is a periodic sequence of multipliers applied to source
// strengths. The driver looks multipliers up with Value by absolute
// period count rather than through the cursor; the cursor moves only
// on explicit Advance calls and is reset by SetPattern and QualInit.
type Pattern struct {
	ID           string
	Index        int
	Multipliers  []float64
	cursor       int
}

// Value returns the multiplier active at 0-based period index i,
// wrapping around the pattern length.
func (p *Pattern) Value(i int) float64 {
	if len(p.Multipliers) == 0 {
		return 1
	}
	return p.Multipliers[((i%len(p.Multipliers))+len(p.Multipliers))%len(p.Multipliers)]
}

// Current returns the multiplier at the pattern's current cursor.
func (p *Pattern) Current() float64 { return p.Value(p.cursor) }

// Advance steps the pattern's cursor forward by one interval.
func (p *Pattern) Advance() { p.cursor++ }

// Reset returns the pattern's cursor to its initial position.
func (p *Pattern) Reset() { p.cursor = 0 }
