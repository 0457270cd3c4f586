package cv

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

var (
	ErrShape     = errors.New("cv: shape mismatch")
	ErrFit       = errors.New("cv: least-squares fit failed")
	ErrNotFitted = errors.New("cv: estimator not fitted")
)

// DefaultRankTolerance is the relative singular value cutoff of
// LinearRegression.
const DefaultRankTolerance = 1e-12

// Estimator is a multi-output regression model.
type Estimator interface {
	Fit(x, y mat.Matrix) error
	Predict(x mat.Matrix) (*mat.Dense, error)
}

// LinearRegression is ordinary least squares without intercept. It is not
// safe for concurrent use.
type LinearRegression struct {
	// RankTol overrides DefaultRankTolerance when positive.
	RankTol float64

	coef *mat.Dense
}

// Fit solves min ||y - x*B|| for every column of y.
func (lr *LinearRegression) Fit(x, y mat.Matrix) error {
	xr, xc := x.Dims()
	yr, yc := y.Dims()
	if xr != yr {
		return fmt.Errorf("%w: x has %d rows, y %d", ErrShape, xr, yr)
	}

	var svd mat.SVD
	if !svd.Factorize(x, mat.SVDThin) {
		return ErrFit
	}
	tol := lr.RankTol
	if tol <= 0 {
		tol = DefaultRankTolerance
	}

	coef := mat.NewDense(xc, yc, nil)
	if values := svd.Values(nil); len(values) > 0 && values[0] > 0 {
		if rank := svd.Rank(tol); rank > 0 {
			svd.SolveTo(coef, y, rank)
		}
	}
	lr.coef = coef
	return nil
}

// Predict returns x*B.
func (lr *LinearRegression) Predict(x mat.Matrix) (*mat.Dense, error) {
	if lr.coef == nil {
		return nil, ErrNotFitted
	}
	_, xc := x.Dims()
	if cr, _ := lr.coef.Dims(); cr != xc {
		return nil, fmt.Errorf("%w: x has %d columns, model %d", ErrShape, xc, cr)
	}
	var out mat.Dense
	out.Mul(x, lr.coef)
	return &out, nil
}

// Coef returns the fitted coefficients (predictors x outputs).
func (lr *LinearRegression) Coef() *mat.Dense {
	return lr.coef
}
