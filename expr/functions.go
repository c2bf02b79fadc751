package expr

import (
	"fmt"
	"math"

	"github.com/Knetic/govaluate"
)

// domainError marks a function-evaluation failure as a MathDomain
// violation, as opposed to a malformed-expression MathExpr failure.
type domainError struct{ msg string }

func (d domainError) Error() string { return d.msg }

func newDomainErr(format string, args ...interface{}) error {
	return domainError{fmt.Sprintf(format, args...)}
}

func arg1(name string, args []interface{}) (float64, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("expr: function %q takes 1 argument, got %d", name, len(args))
	}
	v, ok := args[0].(float64)
	if !ok {
		return 0, fmt.Errorf("expr: function %q argument is not numeric", name)
	}
	return v, nil
}

func unary(name string, f func(float64) (float64, error)) govaluate.ExpressionFunction {
	return func(args ...interface{}) (interface{}, error) {
		x, err := arg1(name, args)
		if err != nil {
			return nil, err
		}
		y, err := f(x)
		if err != nil {
			return nil, err
		}
		return y, nil
	}
}

// functionTable returns the unary-function vocabulary reaction
// equations can call: exp, log, sqrt, the trig/hyperbolic families and
// their inverses, abs, sgn, and the step function, each rejecting
// out-of-domain arguments with a domainError.
func functionTable() map[string]govaluate.ExpressionFunction {
	return map[string]govaluate.ExpressionFunction{
		"exp": unary("exp", func(x float64) (float64, error) {
			y := math.Exp(x)
			if math.IsInf(y, 0) {
				return 0, newDomainErr("exp(%g) overflows", x)
			}
			return y, nil
		}),
		"log": unary("log", func(x float64) (float64, error) {
			if x <= 0 {
				return 0, newDomainErr("log(%g): argument must be positive", x)
			}
			return math.Log(x), nil
		}),
		"sqrt": unary("sqrt", func(x float64) (float64, error) {
			if x < 0 {
				return 0, newDomainErr("sqrt(%g): argument must be non-negative", x)
			}
			return math.Sqrt(x), nil
		}),
		"sin":  unary("sin", func(x float64) (float64, error) { return math.Sin(x), nil }),
		"cos":  unary("cos", func(x float64) (float64, error) { return math.Cos(x), nil }),
		"tan":  unary("tan", func(x float64) (float64, error) { return math.Tan(x), nil }),
		"cot": unary("cot", func(x float64) (float64, error) {
			t := math.Tan(x)
			if t == 0 {
				return 0, newDomainErr("cot(%g): division by zero", x)
			}
			return 1 / t, nil
		}),
		"asin": unary("asin", func(x float64) (float64, error) {
			if x < -1 || x > 1 {
				return 0, newDomainErr("asin(%g): argument out of [-1,1]", x)
			}
			return math.Asin(x), nil
		}),
		"acos": unary("acos", func(x float64) (float64, error) {
			if x < -1 || x > 1 {
				return 0, newDomainErr("acos(%g): argument out of [-1,1]", x)
			}
			return math.Acos(x), nil
		}),
		"atan": unary("atan", func(x float64) (float64, error) { return math.Atan(x), nil }),
		"acot": unary("acot", func(x float64) (float64, error) {
			if x == 0 {
				return 0, newDomainErr("acot(0): division by zero")
			}
			return math.Atan(1 / x), nil
		}),
		"sinh": unary("sinh", func(x float64) (float64, error) { return math.Sinh(x), nil }),
		"cosh": unary("cosh", func(x float64) (float64, error) { return math.Cosh(x), nil }),
		"tanh": unary("tanh", func(x float64) (float64, error) { return math.Tanh(x), nil }),
		"coth": unary("coth", func(x float64) (float64, error) {
			t := math.Tanh(x)
			if t == 0 {
				return 0, newDomainErr("coth(%g): division by zero", x)
			}
			return 1 / t, nil
		}),
		"abs": unary("abs", func(x float64) (float64, error) { return math.Abs(x), nil }),
		"sgn": unary("sgn", func(x float64) (float64, error) {
			switch {
			case x > 0:
				return 1, nil
			case x < 0:
				return -1, nil
			default:
				return 0, nil
			}
		}),
		"step": unary("step", func(x float64) (float64, error) {
			if x > 0 {
				return 1, nil
			}
			return 0, nil
		}),
	}
}
