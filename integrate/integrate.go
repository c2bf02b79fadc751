// Package integrate provides the numerical drivers the reaction
// kernels are built on: explicit Euler, adaptive Runge-Kutta-Fehlberg
// (RKF45), a 2-stage Rosenbrock method for stiff systems, and a damped
// Newton solver for algebraic equilibria. Linear algebra (Jacobian
// solves) uses gonum's mat package, the same library the rest of this
// lineage's repos use for dense linear algebra.
package integrate

import (
	"errors"

	"gonum.org/v1/gonum/mat"
)

// ErrDiverged is returned when an adaptive method exhausts its
// rejection budget without accepting a step.
var ErrDiverged = errors.New("integrate: failed to converge")

// ErrNotConverged is returned by Newton when the iteration cap is
// reached without satisfying the residual tolerance.
var ErrNotConverged = errors.New("integrate: newton solve did not converge")

// VectorFunc evaluates dy/dt = f(t, y) for a first-order ODE system.
type VectorFunc func(t float64, y []float64) ([]float64, error)

// ResidualFunc evaluates f(y) for a nonlinear algebraic system whose
// root Newton seeks.
type ResidualFunc func(y []float64) ([]float64, error)

// errNorm computes the normalized max-norm error estimate shared by
// RKF45 and Rosenbrock's step-size control: e[i] is normalized by
// aTol[i] + rTol[i]*|y[i]|, and the overall norm is the max over i.
func errNorm(e, y, aTol, rTol []float64) float64 {
	var maxn float64
	for i := range e {
		scale := aTol[i] + rTol[i]*abs(y[i])
		if scale <= 0 {
			scale = 1e-12
		}
		n := abs(e[i]) / scale
		if n > maxn {
			maxn = n
		}
	}
	return maxn
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

func addScaled(dst, a []float64, scale float64, b []float64) []float64 {
	if dst == nil {
		dst = make([]float64, len(a))
	}
	for i := range a {
		dst[i] = a[i] + scale*b[i]
	}
	return dst
}

// solveLU solves A x = b by LU decomposition with partial pivoting,
// the shared linear-algebra primitive behind Rosenbrock2's stage
// solves and Newton's correction step.
func solveLU(a *mat.Dense, b []float64) ([]float64, error) {
	n := len(b)
	var lu mat.LU
	lu.Factorize(a)

	bv := mat.NewVecDense(n, append([]float64(nil), b...))
	var xv mat.VecDense
	if err := lu.SolveVecTo(&xv, false, bv); err != nil {
		return nil, err
	}
	x := make([]float64, n)
	for i := 0; i < n; i++ {
		x[i] = xv.AtVec(i)
	}
	return x, nil
}
