package integrate

import "math"

// Fehlberg's classic 4(5) tableau.
var (
	rkfC = [6]float64{0, 1.0 / 4, 3.0 / 8, 12.0 / 13, 1, 1.0 / 2}

	rkfA = [6][5]float64{
		{},
		{1.0 / 4},
		{3.0 / 32, 9.0 / 32},
		{1932.0 / 2197, -7200.0 / 2197, 7296.0 / 2197},
		{439.0 / 216, -8, 3680.0 / 513, -845.0 / 4104},
		{-8.0 / 27, 2, -3544.0 / 2565, 1859.0 / 4104, -11.0 / 40},
	}

	rkfB4 = [6]float64{25.0 / 216, 0, 1408.0 / 2565, 2197.0 / 4104, -1.0 / 5, 0}
	rkfB5 = [6]float64{16.0 / 135, 0, 6656.0 / 12825, 28561.0 / 56430, -9.0 / 50, 2.0 / 55}
)

const (
	rkfMinStep    = 1e-8
	rkfMaxGrow    = 5.0
	rkfMaxRejects = 10
)

// rkf45Attempt evaluates one embedded 4(5) step of size dt and returns
// the 5th-order solution, the normalized error norm, and the
// suggested next step size via PI-like control: shrink by
// 0.84*(1/norm)^0.25 on rejection, grow by the same rule capped at 5x
// on acceptance.
func rkf45Attempt(f VectorFunc, t, dt float64, y, aTol, rTol []float64) (y5 []float64, norm float64, nextDt float64, err error) {
	n := len(y)
	k := make([][]float64, 6)
	for stage := 0; stage < 6; stage++ {
		yi := make([]float64, n)
		copy(yi, y)
		for j := 0; j < stage; j++ {
			a := rkfA[stage][j]
			if a == 0 {
				continue
			}
			for i := range yi {
				yi[i] += dt * a * k[j][i]
			}
		}
		ki, ferr := f(t+rkfC[stage]*dt, yi)
		if ferr != nil {
			return nil, 0, 0, ferr
		}
		k[stage] = ki
	}

	y4 := make([]float64, n)
	y5 = make([]float64, n)
	copy(y4, y)
	copy(y5, y)
	for stage := 0; stage < 6; stage++ {
		for i := 0; i < n; i++ {
			y4[i] += dt * rkfB4[stage] * k[stage][i]
			y5[i] += dt * rkfB5[stage] * k[stage][i]
		}
	}

	e := make([]float64, n)
	for i := range e {
		e[i] = y5[i] - y4[i]
	}
	norm = errNorm(e, y5, aTol, rTol)

	if norm <= 0 {
		nextDt = dt * rkfMaxGrow
	} else {
		factor := 0.84 * math.Pow(1/norm, 0.25)
		if norm > 1 {
			nextDt = dt * factor // shrink: factor < 1
		} else {
			if factor > rkfMaxGrow {
				factor = rkfMaxGrow
			}
			nextDt = dt * factor
		}
	}
	return y5, norm, nextDt, nil
}

// RKF45 advances the system from t0 by exactly dtTotal, internally
// sub-stepping and retrying rejected steps, and returns the state at
// t0+dtTotal. It fails with ErrDiverged if ten consecutive rejections
// occur or the step size would fall below the 1e-8 floor.
func RKF45(f VectorFunc, t0 float64, y0 []float64, dtTotal float64, aTol, rTol []float64) ([]float64, error) {
	t := t0
	y := y0
	remaining := dtTotal
	dt := dtTotal
	rejects := 0

	for remaining > 0 {
		if dt > remaining {
			dt = remaining
		}
		y5, norm, nextDt, err := rkf45Attempt(f, t, dt, y, aTol, rTol)
		if err != nil {
			return nil, err
		}
		if norm <= 1 {
			t += dt
			remaining -= dt
			y = y5
			rejects = 0
			dt = nextDt
			continue
		}
		rejects++
		if rejects >= rkfMaxRejects || nextDt < rkfMinStep {
			return nil, ErrDiverged
		}
		dt = nextDt
		if dt < rkfMinStep {
			dt = rkfMinStep
		}
	}
	return y, nil
}
