// Package expr builds and evaluates the symbolic reaction/formula
// expressions that species, terms, and sources carry. An expression is
// parsed once from an infix string against a name resolver that binds
// each variable to an integer variable code (species concentration,
// constant, parameter, named term, or a reserved hydraulic/time symbol);
// evaluation is then performed many times per simulation against a
// Context that resolves codes to values.
package expr

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/Knetic/govaluate"
)

// Sentinel errors, mirrored from the engine's error taxonomy so callers
// can errors.Is against them without importing the root package.
var (
	ErrMathExpr   = errors.New("expr: malformed math expression")
	ErrMathDomain = errors.New("expr: math domain error")
	ErrUndefined  = errors.New("expr: undefined variable")
)

// Resolve maps a variable name appearing in an equation to an integer
// variable code. It returns ok=false for names the caller does not
// recognize, which Parse reports as ErrUndefined.
type Resolve func(name string) (code int, ok bool)

// Context supplies the current value of a variable code during
// evaluation (species concentration, parameter value, hydraulic
// variable, simulation time, and so on).
type Context interface {
	Lookup(code int) (float64, error)
}

// Expr is a parsed equation, ready to be evaluated many times against
// different Contexts.
type Expr struct {
	source string
	eval   *govaluate.EvaluableExpression
	codes  map[string]int
}

// Source returns the original infix string the Expr was parsed from.
func (e *Expr) Source() string { return e.source }

// preprocess rewrites the subset of spec notation govaluate does not
// accept directly: '^' as exponentiation (govaluate reserves '^' for
// bitwise xor and spells exponentiation '**') and the unicode
// multiplication/division glyphs some reaction-system authors use.
func preprocess(equation string) string {
	r := strings.NewReplacer(
		"^", "**",
		"×", "*",
		"÷", "/",
	)
	return r.Replace(equation)
}

// Parse builds an expression tree from an infix string. resolve is
// consulted once per distinct variable name found in the equation;
// operator precedence and right-associativity of '^' are governed by
// the underlying evaluator (see the Open Questions entry in DESIGN.md
// for the one documented deviation: govaluate's '**' is left-associative,
// which only matters for doubly-nested exponents, vanishingly rare in
// reaction kinetics).
func Parse(equation string, resolve Resolve) (*Expr, error) {
	fns := functionTable()
	ee, err := govaluate.NewEvaluableExpressionWithFunctions(preprocess(equation), fns)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrMathExpr, equation, err)
	}

	codes := make(map[string]int)
	for _, name := range ee.Vars() {
		code, ok := resolve(name)
		if !ok {
			return nil, fmt.Errorf("%w: %q in %q", ErrUndefined, name, equation)
		}
		codes[name] = code
	}

	return &Expr{source: equation, eval: ee, codes: codes}, nil
}

// Eval evaluates the expression against ctx, returning ErrMathDomain for
// division by zero, overflow, or any of the domain violations the
// per-function wrappers in functions.go detect.
func (e *Expr) Eval(ctx Context) (float64, error) {
	params := make(map[string]interface{}, len(e.codes))
	for name, code := range e.codes {
		v, err := ctx.Lookup(code)
		if err != nil {
			return 0, err
		}
		params[name] = v
	}

	result, err := e.eval.Evaluate(params)
	if err != nil {
		var fnErr domainError
		if errors.As(err, &fnErr) {
			return 0, fmt.Errorf("%w: %s: %v", ErrMathDomain, e.source, err)
		}
		return 0, fmt.Errorf("%w: %s: %v", ErrMathExpr, e.source, err)
	}

	v, ok := result.(float64)
	if !ok {
		return 0, fmt.Errorf("%w: %s: non-numeric result", ErrMathExpr, e.source)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %s: result is %v", ErrMathDomain, e.source, v)
	}
	return v, nil
}
