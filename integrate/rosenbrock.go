package integrate

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

const rosenbrockGamma = 1 + 1/math.Sqrt2

// jacobian approximates df/dy by forward finite differences with
// perturbation sqrt(machine epsilon)*max(1, |y_j|).
func jacobian(f VectorFunc, t float64, y, f0 []float64) (*mat.Dense, error) {
	n := len(y)
	eps := math.Sqrt(2.220446049250313e-16)
	J := mat.NewDense(n, n, nil)

	yp := make([]float64, n)
	for j := 0; j < n; j++ {
		copy(yp, y)
		h := eps * math.Max(1, math.Abs(y[j]))
		yp[j] += h
		fp, err := f(t, yp)
		if err != nil {
			return nil, err
		}
		for i := 0; i < n; i++ {
			J.Set(i, j, (fp[i]-f0[i])/h)
		}
		yp[j] = y[j]
	}
	return J, nil
}

// solveLinear solves (I - gamma*dt*J) x = b via LU decomposition with
// partial pivoting.
func solveLinear(J *mat.Dense, dt float64, b []float64) ([]float64, error) {
	n := len(b)
	A := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			v := -rosenbrockGamma * dt * J.At(i, j)
			if i == j {
				v += 1
			}
			A.Set(i, j, v)
		}
	}
	return solveLU(A, b)
}

// rosenbrock2Attempt evaluates one 2-stage Rosenbrock step (the
// classical L-stable ROS2 method) and returns the updated state and a
// normalized error estimate from the difference between the embedded
// first- and second-order predictions.
func rosenbrock2Attempt(f VectorFunc, t, dt float64, y, aTol, rTol []float64) (y1 []float64, norm float64, err error) {
	n := len(y)
	f0, err := f(t, y)
	if err != nil {
		return nil, 0, err
	}
	J, err := jacobian(f, t, y, f0)
	if err != nil {
		return nil, 0, err
	}

	k1, err := solveLinear(J, dt, f0)
	if err != nil {
		return nil, 0, err
	}

	y2 := addScaled(nil, y, dt, k1)
	f1, err := f(t+dt, y2)
	if err != nil {
		return nil, 0, err
	}
	rhs2 := make([]float64, n)
	for i := 0; i < n; i++ {
		rhs2[i] = f1[i] - 2*k1[i]
	}
	k2, err := solveLinear(J, dt, rhs2)
	if err != nil {
		return nil, 0, err
	}

	y1 = make([]float64, n)
	yOrder1 := make([]float64, n)
	for i := 0; i < n; i++ {
		yOrder1[i] = y[i] + dt*k1[i]
		y1[i] = y[i] + dt*(1.5*k1[i]+0.5*k2[i])
	}

	e := make([]float64, n)
	for i := range e {
		e[i] = y1[i] - yOrder1[i]
	}
	norm = errNorm(e, y1, aTol, rTol)
	return y1, norm, nil
}

// Rosenbrock2 advances the system from t0 by exactly dtTotal using the
// 2-stage semi-implicit Rosenbrock method, with the same PI step
// control criterion as RKF45 (see rkf45Attempt).
func Rosenbrock2(f VectorFunc, t0 float64, y0 []float64, dtTotal float64, aTol, rTol []float64) ([]float64, error) {
	t := t0
	y := y0
	remaining := dtTotal
	dt := dtTotal
	rejects := 0

	for remaining > 0 {
		if dt > remaining {
			dt = remaining
		}
		y1, norm, err := rosenbrock2Attempt(f, t, dt, y, aTol, rTol)
		if err != nil {
			return nil, err
		}

		var nextDt float64
		if norm <= 0 {
			nextDt = dt * rkfMaxGrow
		} else {
			factor := 0.84 * math.Pow(1/norm, 0.25)
			if factor > rkfMaxGrow {
				factor = rkfMaxGrow
			}
			nextDt = dt * factor
		}

		if norm <= 1 {
			t += dt
			remaining -= dt
			y = y1
			rejects = 0
			dt = nextDt
			continue
		}
		rejects++
		if rejects > rkfMaxRejects || nextDt < rkfMinStep {
			return nil, ErrDiverged
		}
		dt = nextDt
		if dt < rkfMinStep {
			dt = rkfMinStep
		}
	}
	return y, nil
}
