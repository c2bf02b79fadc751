package integrate

// Euler performs a single explicit-Euler step of size dt. It is used
// when Solver == EUL and the caller has already chosen a Qstep small
// enough to trust a first-order method. The result is rejected with
// ErrDiverged if any component goes negative beyond its tolerance,
// since no species concentration can be truly negative.
func Euler(f VectorFunc, t0 float64, y0 []float64, dt float64, aTol []float64) ([]float64, error) {
	k, err := f(t0, y0)
	if err != nil {
		return nil, err
	}
	y := addScaled(nil, y0, dt, k)
	for i, v := range y {
		tol := 0.0
		if i < len(aTol) {
			tol = aTol[i]
		}
		if v < -tol {
			return nil, ErrDiverged
		}
	}
	return y, nil
}
