package noise

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

var ErrEmptyGrid = errors.New("noise: empty score grid")

// ReduceGrid picks, for every unit (column) of a candidates x units R²
// grid, the 1-based candidate with the highest score. Ties go to the
// smaller candidate. Units whose best score is negative get 0.
func ReduceGrid(r2 mat.Matrix) (opt []int, best []float64) {
	k, v := r2.Dims()
	opt = make([]int, v)
	best = make([]float64, v)
	col := make([]float64, k)
	for j := range v {
		mat.Col(col, j, r2)
		i := floats.MaxIdx(col)
		best[j] = col[i]
		if col[i] >= 0 {
			opt[j] = i + 1
		}
	}
	return opt, best
}

// ReduceTensor reduces an HRF x candidates x units tensor, given as one
// candidates x units grid per HRF. The best score over HRFs decides the
// candidate as in ReduceGrid; the HRF index is the first HRF reaching the
// best score at that candidate, and 0 for units left at candidate 0.
func ReduceTensor(r2 []*mat.Dense) (opt, hrfIdx []int, best []float64, err error) {
	if len(r2) == 0 {
		return nil, nil, nil, ErrEmptyGrid
	}
	k, v := r2[0].Dims()
	for h, g := range r2[1:] {
		if gk, gv := g.Dims(); gk != k || gv != v {
			return nil, nil, nil, fmt.Errorf("noise: HRF %d grid is %dx%d, want %dx%d", h+1, gk, gv, k, v)
		}
	}

	overHRF := mat.NewDense(k, v, nil)
	for i := range k {
		for j := range v {
			m := r2[0].At(i, j)
			for _, g := range r2[1:] {
				m = max(m, g.At(i, j))
			}
			overHRF.Set(i, j, m)
		}
	}

	opt, best = ReduceGrid(overHRF)
	hrfIdx = make([]int, v)
	scores := make([]float64, len(r2))
	for j, c := range opt {
		if c == 0 {
			continue
		}
		for h, g := range r2 {
			scores[h] = g.At(c-1, j)
		}
		hrfIdx[j] = floats.MaxIdx(scores)
	}
	return opt, hrfIdx, best, nil
}
