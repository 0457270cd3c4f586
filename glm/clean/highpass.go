package clean

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-bold/dsp/filter/savgol"
	"gonum.org/v1/gonum/mat"
)

var ErrHighPassType = errors.New("clean: unknown high-pass type")

// HighPassKind selects the drift model.
type HighPassKind string

const (
	HighPassDCT    HighPassKind = "dct"
	HighPassSavGol HighPassKind = "savgol"
	HighPassNone   HighPassKind = "none"
)

// savgolOrder is the polynomial order of the Savitzky-Golay drift fit.
const savgolOrder = 2

// ParseHighPass validates a high-pass type name.
func ParseHighPass(name string) (HighPassKind, error) {
	switch k := HighPassKind(name); k {
	case HighPassDCT, HighPassSavGol, HighPassNone:
		return k, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrHighPassType, name)
	}
}

// DCTBasis returns the discrete cosine drift regressors for the given
// frame times: every cosine with a period longer than 1/cutoff seconds,
// scaled to unit norm, plus a trailing constant column.
func DCTBasis(frameTimes []float64, cutoff float64) *mat.Dense {
	n := len(frameTimes)
	dt := 1.0
	if n > 1 {
		dt = (frameTimes[n-1] - frameTimes[0]) / float64(n-1)
	}
	order := max(min(n-1, int(math.Floor(2*float64(n)*cutoff*dt))), 0)

	basis := mat.NewDense(n, order+1, nil)
	norm := math.Sqrt(2 / float64(n))
	for k := 1; k <= order; k++ {
		for t := range n {
			basis.Set(t, k-1, norm*math.Cos(math.Pi/float64(n)*(float64(t)+0.5)*float64(k)))
		}
	}
	for t := range n {
		basis.Set(t, order, 1)
	}
	return basis
}

// HighPass removes drift slower than cutoff Hz from every column of
// target. The DCT variant also removes column means.
func HighPass(target *mat.Dense, tr float64, frameTimes []float64, kind HighPassKind, cutoff float64) (*mat.Dense, error) {
	rows, cols := target.Dims()
	if len(frameTimes) != rows {
		return nil, fmt.Errorf("%w: %d frame times for %d rows", ErrShapeMismatch, len(frameTimes), rows)
	}

	switch kind {
	case HighPassNone:
		return mat.DenseCopyOf(target), nil
	case HighPassDCT:
		return Clean(target, nil, WithBasis(DCTBasis(frameTimes, cutoff)))
	case HighPassSavGol:
		window := savgol.WindowFor(cutoff, tr)
		// Runs shorter than the window use the longest odd window that fits.
		if window > rows {
			window = rows - (1 - rows%2)
		}
		f, err := savgol.New(window, savgolOrder)
		if err != nil {
			return nil, fmt.Errorf("clean: savgol high-pass for %d frames: %w", rows, err)
		}

		out := mat.NewDense(rows, cols, nil)
		col := make([]float64, rows)
		for j := range cols {
			mat.Col(col, j, target)
			hp, err := f.HighPass(col)
			if err != nil {
				return nil, err
			}
			out.SetCol(j, hp)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrHighPassType, kind)
	}
}
