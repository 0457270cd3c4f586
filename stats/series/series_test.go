package series

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-bold/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

const tolerance = 1e-10

func TestCalculateConstant(t *testing.T) {
	x := make([]float64, 100)
	for i := range x {
		x[i] = 1234.5
	}
	s := Calculate(x)

	assert.Equal(t, 100, s.Length)
	assert.InDelta(t, 1234.5, s.Mean, tolerance)
	assert.Zero(t, s.Variance)
	assert.Zero(t, s.Std)
	assert.True(t, s.Constant())
	assert.False(t, s.AllZero())
}

func TestCalculateMatchesGonum(t *testing.T) {
	x := testutil.DeterministicGaussian(7, 2.5, 500)
	for i := range x {
		x[i] += 8000
	}
	s := Calculate(x)

	mean, variance := stat.PopMeanVariance(x, nil)
	assert.InDelta(t, mean, s.Mean, 1e-9)
	assert.InDelta(t, variance, s.Variance, 1e-6)
	assert.InDelta(t, math.Sqrt(variance), s.Std, 1e-6)
	assert.False(t, s.Constant())
	assert.Equal(t, s.Max-s.Min, s.Range)
	assert.Equal(t, x[s.MaxPos], s.Max)
	assert.Equal(t, x[s.MinPos], s.Min)
}

func TestCalculateMoments(t *testing.T) {
	x := []float64{-1, 1, -1, 1}
	s := Calculate(x)

	assert.InDelta(t, 0, s.Mean, tolerance)
	assert.InDelta(t, 1, s.Variance, tolerance)
	assert.InDelta(t, 1, s.RMS, tolerance)
	assert.InDelta(t, 4, s.Energy, tolerance)
	assert.InDelta(t, 0, s.Skewness, tolerance)
	assert.InDelta(t, -2, s.Kurtosis, tolerance)
}

func TestCalculateEmpty(t *testing.T) {
	s := Calculate(nil)
	assert.Zero(t, s.Length)
	assert.True(t, s.Constant())
	assert.True(t, s.AllZero())
}

func TestColumnHelpers(t *testing.T) {
	m := mat.NewDense(3, 4, []float64{
		0, 1, 2, 5,
		0, 1, 3, 5,
		0, 1, 4, 5,
	})

	require.Len(t, Columns(m), 4)
	assert.Equal(t, []int{0, 1, 3}, ConstantColumns(m))
	assert.Equal(t, []int{0}, ZeroColumns(m))

	mean, std := MeanStd([]float64{2, 3, 4})
	assert.InDelta(t, 3, mean, tolerance)
	assert.InDelta(t, math.Sqrt(2.0/3.0), std, tolerance)
}
