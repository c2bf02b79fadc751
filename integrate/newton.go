package integrate

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

const (
	newtonMaxIter  = 20
	newtonMinAlpha = 1.0 / 1024
)

func norm2(v []float64) float64 {
	var s float64
	for _, x := range v {
		s += x * x
	}
	return math.Sqrt(s)
}

// jacobianResidual approximates d(residual)/dy by forward finite
// differences, the same perturbation rule used for the ODE Jacobian.
func jacobianResidual(g ResidualFunc, y, f0 []float64) ([][]float64, error) {
	n := len(y)
	eps := math.Sqrt(2.220446049250313e-16)
	J := make([][]float64, n)
	yp := make([]float64, n)
	copy(yp, y)
	for j := 0; j < n; j++ {
		h := eps * math.Max(1, math.Abs(y[j]))
		yp[j] += h
		fp, err := g(yp)
		if err != nil {
			return nil, err
		}
		col := make([]float64, n)
		for i := 0; i < n; i++ {
			col[i] = (fp[i] - f0[i]) / h
		}
		for i := 0; i < n; i++ {
			if J[i] == nil {
				J[i] = make([]float64, n)
			}
			J[i][j] = col[i]
		}
		yp[j] = y[j]
	}
	return J, nil
}

// Newton solves g(y) = 0 by damped Newton iteration: y <- y - alpha *
// J^-1 * g(y), halving alpha whenever ||g|| grows, terminating when
// ||g|| < rTol*||y|| + aTol, and failing with ErrNotConverged after 20
// outer iterations.
func Newton(g ResidualFunc, y0 []float64, aTol, rTol float64) ([]float64, error) {
	y := make([]float64, len(y0))
	copy(y, y0)

	fy, err := g(y)
	if err != nil {
		return nil, err
	}
	normF := norm2(fy)

	for iter := 0; iter < newtonMaxIter; iter++ {
		if normF < rTol*norm2(y)+aTol {
			return y, nil
		}

		Jrows, err := jacobianResidual(g, y, fy)
		if err != nil {
			return nil, err
		}
		n := len(y)
		J := mat.NewDense(n, n, nil)
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				J.Set(i, j, Jrows[i][j])
			}
		}
		delta, err := solveLU(J, fy)
		if err != nil {
			return nil, ErrNotConverged
		}

		alpha := 1.0
		for {
			trial := make([]float64, len(y))
			for i := range y {
				trial[i] = y[i] - alpha*delta[i]
			}
			fTrial, err := g(trial)
			if err != nil {
				return nil, err
			}
			normTrial := norm2(fTrial)
			if normTrial <= normF || alpha <= newtonMinAlpha {
				y = trial
				fy = fTrial
				normF = normTrial
				break
			}
			alpha /= 2
		}
	}
	return nil, ErrNotConverged
}

