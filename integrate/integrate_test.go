package integrate

import (
	"math"
	"testing"
)

func decayRHS(k float64) VectorFunc {
	return func(t float64, y []float64) ([]float64, error) {
		return []float64{-k * y[0]}, nil
	}
}

func TestEulerDecay(t *testing.T) {
	y, err := Euler(decayRHS(0.1), 0, []float64{1}, 1, []float64{1e-8})
	if err != nil {
		t.Fatal(err)
	}
	want := 1 - 0.1 // one explicit-Euler step
	if math.Abs(y[0]-want) > 1e-9 {
		t.Errorf("got %v want %v", y[0], want)
	}
}

func TestEulerRejectsNegativeBeyondTolerance(t *testing.T) {
	// y0=1, k=10, dt=1 overshoots to a large negative value.
	_, err := Euler(decayRHS(10), 0, []float64{1}, 1, []float64{1e-8})
	if err != ErrDiverged {
		t.Fatalf("got %v, want ErrDiverged", err)
	}
}

func TestRKF45MatchesAnalyticDecay(t *testing.T) {
	k := 1e-4
	y0 := []float64{1}
	tau := 3600.0
	y, err := RKF45(decayRHS(k), 0, y0, tau, []float64{1e-8}, []float64{1e-6})
	if err != nil {
		t.Fatal(err)
	}
	want := math.Exp(-k * tau)
	if math.Abs(y[0]-want) > 1e-5 {
		t.Errorf("got %v want %v", y[0], want)
	}
}

func TestRosenbrock2MatchesAnalyticDecay(t *testing.T) {
	k := 1e-2
	y0 := []float64{1}
	tau := 100.0
	y, err := Rosenbrock2(decayRHS(k), 0, y0, tau, []float64{1e-8}, []float64{1e-6})
	if err != nil {
		t.Fatal(err)
	}
	want := math.Exp(-k * tau)
	if math.Abs(y[0]-want) > 1e-3 {
		t.Errorf("got %v want %v", y[0], want)
	}
}

func TestNewtonSolvesQuadraticEquilibrium(t *testing.T) {
	// C2 = K*C1^2, with C1 fixed at 0.1 and K=10: solve for C2 alone,
	// residual g(C2) = C2 - K*C1^2.
	k := 10.0
	c1 := 0.1
	g := func(y []float64) ([]float64, error) {
		return []float64{y[0] - k*c1*c1}, nil
	}
	y, err := Newton(g, []float64{0}, 1e-8, 1e-6)
	if err != nil {
		t.Fatal(err)
	}
	want := k * c1 * c1
	if math.Abs(y[0]-want) > 1e-6 {
		t.Errorf("got %v want %v", y[0], want)
	}
}

func TestNewtonFailsToConvergeReportsError(t *testing.T) {
	// g(y) with no root: always positive and flat, Newton cannot descend.
	g := func(y []float64) ([]float64, error) {
		return []float64{1 + y[0]*0}, nil
	}
	_, err := Newton(g, []float64{0}, 1e-10, 1e-10)
	if err == nil {
		t.Errorf("expected non-convergence error")
	}
}
