package expr

import (
	"errors"
	"math"
	"testing"
)

type mapContext map[int]float64

func (m mapContext) Lookup(code int) (float64, error) {
	v, ok := m[code]
	if !ok {
		return 0, errors.New("expr_test: undefined code")
	}
	return v, nil
}

func resolveFixed(names map[string]int) Resolve {
	return func(name string) (int, bool) {
		code, ok := names[name]
		return code, ok
	}
}

func TestParseAndEvalArithmetic(t *testing.T) {
	e, err := Parse("2 + 3 * C1 - C2 / 2", resolveFixed(map[string]int{"C1": 1, "C2": 2}))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	got, err := e.Eval(mapContext{1: 4, 2: 10})
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	want := 2 + 3*4 - 10.0/2
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestCaretExponent(t *testing.T) {
	e, err := Parse("C1^2", resolveFixed(map[string]int{"C1": 1}))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	got, err := e.Eval(mapContext{1: 3})
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if math.Abs(got-9) > 1e-9 {
		t.Errorf("got %v, want 9", got)
	}
}

func TestDivisionByZeroIsMathDomain(t *testing.T) {
	e, err := Parse("1 / C1", resolveFixed(map[string]int{"C1": 1}))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	_, err = e.Eval(mapContext{1: 0})
	if !errors.Is(err, ErrMathDomain) {
		t.Errorf("expected ErrMathDomain, got %v", err)
	}
}

func TestLogNonPositiveIsMathDomain(t *testing.T) {
	e, err := Parse("log(C1)", resolveFixed(map[string]int{"C1": 1}))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	_, err = e.Eval(mapContext{1: -1})
	if !errors.Is(err, ErrMathDomain) {
		t.Errorf("expected ErrMathDomain, got %v", err)
	}
}

func TestUndefinedVariableRejectedAtParse(t *testing.T) {
	_, err := Parse("C1 + Unknown", resolveFixed(map[string]int{"C1": 1}))
	if !errors.Is(err, ErrUndefined) {
		t.Errorf("expected ErrUndefined, got %v", err)
	}
}

func TestMalformedExpression(t *testing.T) {
	_, err := Parse("C1 + + *", resolveFixed(map[string]int{"C1": 1}))
	if !errors.Is(err, ErrMathExpr) {
		t.Errorf("expected ErrMathExpr, got %v", err)
	}
}
