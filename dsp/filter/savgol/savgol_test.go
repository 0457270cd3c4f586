package savgol

import (
	"testing"

	"github.com/cwbudde/algo-bold/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoefficientsMatchTable(t *testing.T) {
	f, err := New(5, 2)
	require.NoError(t, err)

	want := []float64{-3.0 / 35, 12.0 / 35, 17.0 / 35, 12.0 / 35, -3.0 / 35}
	testutil.RequireSliceNearlyEqual(t, f.Coefficients(), want, 1e-12)
	assert.Equal(t, 5, f.Window())
	assert.Equal(t, 2, f.Order())
}

func TestSmoothPreservesQuadratic(t *testing.T) {
	f, err := New(11, 2)
	require.NoError(t, err)

	x := make([]float64, 60)
	for i := range x {
		v := float64(i)
		x[i] = 0.05*v*v - 2*v + 3
	}

	smooth, err := f.Smooth(x)
	require.NoError(t, err)
	testutil.RequireSliceNearlyEqual(t, smooth, x, 1e-8)

	hp, err := f.HighPass(x)
	require.NoError(t, err)
	testutil.RequireSliceNearlyEqual(t, hp, make([]float64, len(x)), 1e-8)
}

func TestHighPassRemovesRamp(t *testing.T) {
	f, err := New(11, 2)
	require.NoError(t, err)

	x := make([]float64, 40)
	for i := range x {
		x[i] = 1 + 0.5*float64(i)
	}

	hp, err := f.HighPass(x)
	require.NoError(t, err)
	testutil.RequireSliceNearlyEqual(t, hp, make([]float64, len(x)), 1e-9)
}

func TestHighPassKeepsFastComponent(t *testing.T) {
	f, err := New(21, 2)
	require.NoError(t, err)

	n := 200
	x := make([]float64, n)
	for i := range x {
		if i%2 == 0 {
			x[i] = 1
		} else {
			x[i] = -1
		}
	}

	hp, err := f.HighPass(x)
	require.NoError(t, err)
	for i := 20; i < n-20; i++ {
		assert.InDelta(t, x[i], hp[i], 0.2, "sample %d", i)
	}
}

func TestNewValidation(t *testing.T) {
	_, err := New(4, 2)
	require.ErrorIs(t, err, ErrWindow)

	_, err = New(3, 3)
	require.ErrorIs(t, err, ErrWindow)

	_, err = New(5, -1)
	require.ErrorIs(t, err, ErrOrder)

	f, err := New(7, 2)
	require.NoError(t, err)
	_, err = f.Smooth(make([]float64, 6))
	require.ErrorIs(t, err, ErrTooShort)
}

func TestWindowFor(t *testing.T) {
	assert.Equal(t, 51, WindowFor(0.01, 2.0))
	assert.Equal(t, 101, WindowFor(0.01, 1.0))
	assert.Equal(t, 63, WindowFor(0.01, 1.6))
}
