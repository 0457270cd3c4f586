package cv

import (
	"fmt"

	"github.com/cwbudde/algo-vecmath"
	"gonum.org/v1/gonum/mat"
)

// CrossValR2 returns the pooled out-of-fold R² of est for every column of
// y. Columns whose pooled held-out variance is zero score 0.
func CrossValR2(est Estimator, x, y mat.Matrix, s Splitter, groups []int) ([]float64, error) {
	xr, _ := x.Dims()
	yr, yc := y.Dims()
	if xr != yr {
		return nil, fmt.Errorf("%w: x has %d rows, y %d", ErrShape, xr, yr)
	}

	folds, err := s.Split(yr, groups)
	if err != nil {
		return nil, err
	}

	ssRes := make([]float64, yc)
	ssTot := make([]float64, yc)
	col := make([]float64, 0, yr)
	fold := 0
	for f := range folds {
		xTrain, yTrain := rows(x, f.Train), rows(y, f.Train)
		xTest, yTest := rows(x, f.Test), rows(y, f.Test)

		if err := est.Fit(xTrain, yTrain); err != nil {
			return nil, fmt.Errorf("cv: fold %d: %w", fold, err)
		}
		pred, err := est.Predict(xTest)
		if err != nil {
			return nil, fmt.Errorf("cv: fold %d: %w", fold, err)
		}

		var resid mat.Dense
		resid.Sub(yTest, pred)
		for j := range yc {
			col = mat.Col(col[:len(f.Test)], j, &resid)
			ssRes[j] += vecmath.DotProduct(col, col)

			mean := vecmath.Sum(mat.Col(nil, j, yTrain)) / float64(len(f.Train))
			col = mat.Col(col[:len(f.Test)], j, yTest)
			for i := range col {
				d := col[i] - mean
				ssTot[j] += d * d
			}
		}
		fold++
	}

	r2 := make([]float64, yc)
	for j := range r2 {
		if ssTot[j] > 0 {
			r2[j] = 1 - ssRes[j]/ssTot[j]
		}
	}
	return r2, nil
}

// rows copies the given rows of m.
func rows(m mat.Matrix, idx []int) *mat.Dense {
	_, c := m.Dims()
	out := mat.NewDense(len(idx), c, nil)
	row := make([]float64, c)
	for i, r := range idx {
		out.SetRow(i, mat.Row(row, r, m))
	}
	return out
}
