package fit

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/cwbudde/algo-vecmath"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

var (
	ErrNoiseModel = errors.New("fit: unknown noise model")
	ErrShape      = errors.New("fit: shape mismatch")
	ErrSolve      = errors.New("fit: design decomposition failed")
)

// NoiseModel names the residual model of RunGLM.
type NoiseModel string

const (
	NoiseOLS NoiseModel = "ols"
	NoiseAR1 NoiseModel = "ar1"
)

// ParseNoiseModel validates a noise model name.
func ParseNoiseModel(name string) (NoiseModel, error) {
	switch m := NoiseModel(name); m {
	case NoiseOLS, NoiseAR1:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrNoiseModel, name)
	}
}

// arBins is the number of autocorrelation bins per unit interval.
const arBins = 100

// rankTol is the relative singular value cutoff of the GLM solve.
const rankTol = 1e-10

// Results holds the fit of one design to a set of units.
type Results struct {
	// Theta is predictors x units.
	Theta *mat.Dense
	// Residuals and Predicted are time x units, on the unwhitened scale.
	Residuals *mat.Dense
	Predicted *mat.Dense
	// Dispersion is the residual variance per unit (whitened SSR / df).
	Dispersion []float64
	// NormalizedCov is pinv(XᵀX) of the (whitened) design.
	NormalizedCov *mat.Dense
	// R2 is the explained variance per unit.
	R2 []float64
	// Rho is the AR(1) coefficient used for whitening.
	Rho float64
	// DF is the residual degrees of freedom.
	DF int
}

// TValues returns the t statistic of predictor col for every unit.
func (r *Results) TValues(col int) []float64 {
	_, v := r.Theta.Dims()
	out := make([]float64, v)
	c := r.NormalizedCov.At(col, col)
	for j := range out {
		se := math.Sqrt(r.Dispersion[j] * c)
		if se > 0 {
			out[j] = r.Theta.At(col, j) / se
		}
	}
	return out
}

// RunGLM fits y (time x units) on x (time x predictors). It returns a label
// per unit and the results per label.
func RunGLM(y, x *mat.Dense, model NoiseModel) ([]int, map[int]*Results, error) {
	yr, yc := y.Dims()
	xr, _ := x.Dims()
	if yr != xr {
		return nil, nil, fmt.Errorf("%w: y has %d rows, x %d", ErrShape, yr, xr)
	}

	ols, err := fitOLS(y, x, 0)
	if err != nil {
		return nil, nil, err
	}
	labels := make([]int, yc)

	switch model {
	case NoiseOLS:
		return labels, map[int]*Results{0: ols}, nil
	case NoiseAR1:
	default:
		return nil, nil, fmt.Errorf("%w: %q", ErrNoiseModel, model)
	}

	col := make([]float64, yr)
	for j := range labels {
		mat.Col(col, j, ols.Residuals)
		labels[j] = arLabel(col)
	}

	results := map[int]*Results{}
	for _, label := range uniqueSorted(labels) {
		units := indicesOf(labels, label)
		res, err := fitOLS(selectColumns(y, units), x, float64(label)/arBins)
		if err != nil {
			return nil, nil, fmt.Errorf("fit: AR bin %d: %w", label, err)
		}
		results[label] = res
	}
	return labels, results, nil
}

// arLabel returns the lag-1 autocorrelation of e truncated toward zero to
// a multiple of 1/arBins, times arBins.
func arLabel(e []float64) int {
	den := vecmath.DotProduct(e, e)
	if den == 0 {
		return 0
	}
	rho := vecmath.DotProduct(e[1:], e[:len(e)-1]) / den
	return int(rho * arBins)
}

// whiten returns m with row t replaced by m[t] - rho*m[t-1]; row 0 is kept.
func whiten(m *mat.Dense, rho float64) *mat.Dense {
	out := mat.DenseCopyOf(m)
	if rho == 0 {
		return out
	}
	r, _ := m.Dims()
	for t := 1; t < r; t++ {
		floats.AddScaledTo(out.RawRowView(t), m.RawRowView(t), -rho, m.RawRowView(t-1))
	}
	return out
}

func fitOLS(y, x *mat.Dense, rho float64) (*Results, error) {
	wy, wx := whiten(y, rho), whiten(x, rho)
	n, p := wx.Dims()
	_, v := wy.Dims()

	var svd mat.SVD
	if !svd.Factorize(wx, mat.SVDThin) {
		return nil, ErrSolve
	}
	values := svd.Values(nil)
	rank := 0
	if len(values) > 0 && values[0] > 0 {
		rank = svd.Rank(rankTol)
	}

	theta := mat.NewDense(p, v, nil)
	cov := mat.NewDense(p, p, nil)
	if rank > 0 {
		svd.SolveTo(theta, wy, rank)

		var vMat mat.Dense
		svd.VTo(&vMat)
		vr := vMat.Slice(0, p, 0, rank).(*mat.Dense)
		scaled := mat.DenseCopyOf(vr)
		for k := range rank {
			inv := 1 / (values[k] * values[k])
			for i := range p {
				scaled.Set(i, k, scaled.At(i, k)*inv)
			}
		}
		cov.Mul(scaled, vr.T())
	}

	var wfit, wres mat.Dense
	wfit.Mul(wx, theta)
	wres.Sub(wy, &wfit)

	pred := mat.NewDense(n, v, nil)
	pred.Mul(x, theta)
	resid := mat.NewDense(n, v, nil)
	resid.Sub(y, pred)

	df := n - rank
	disp := make([]float64, v)
	r2 := make([]float64, v)
	col := make([]float64, n)
	for j := range v {
		mat.Col(col, j, &wres)
		ssr := vecmath.DotProduct(col, col)
		if df > 0 {
			disp[j] = ssr / float64(df)
		}

		mat.Col(col, j, resid)
		sse := vecmath.DotProduct(col, col)
		mat.Col(col, j, y)
		mean := vecmath.Sum(col) / float64(n)
		var sst float64
		for _, yv := range col {
			sst += (yv - mean) * (yv - mean)
		}
		if sst > 0 {
			r2[j] = 1 - sse/sst
		}
	}

	return &Results{
		Theta:         theta,
		Residuals:     resid,
		Predicted:     pred,
		Dispersion:    disp,
		NormalizedCov: cov,
		R2:            r2,
		Rho:           rho,
		DF:            df,
	}, nil
}

func uniqueSorted(v []int) []int {
	out := slices.Clone(v)
	slices.Sort(out)
	return slices.Compact(out)
}

func indicesOf(v []int, want int) []int {
	var idx []int
	for i, x := range v {
		if x == want {
			idx = append(idx, i)
		}
	}
	return idx
}

func selectColumns(m *mat.Dense, idx []int) *mat.Dense {
	r, _ := m.Dims()
	out := mat.NewDense(r, len(idx), nil)
	col := make([]float64, r)
	for j, c := range idx {
		out.SetCol(j, mat.Col(col, c, m))
	}
	return out
}
