package cv

import (
	"testing"

	"github.com/cwbudde/algo-bold/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestLinearRegressionRecoversCoefficients(t *testing.T) {
	x := testutil.GaussianDense(1, 50, 3)
	b := mat.NewDense(3, 2, []float64{
		1, -2,
		0.5, 0,
		3, 1,
	})
	var y mat.Dense
	y.Mul(x, b)

	var lr LinearRegression
	require.NoError(t, lr.Fit(x, &y))
	testutil.RequireDenseNearlyEqual(t, lr.Coef(), b, 1e-10)

	pred, err := lr.Predict(x)
	require.NoError(t, err)
	testutil.RequireDenseNearlyEqual(t, pred, &y, 1e-10)
}

func TestLinearRegressionMinimumNorm(t *testing.T) {
	// Two identical predictors share the weight equally.
	col := testutil.DeterministicGaussian(2, 1, 40)
	x := mat.NewDense(40, 2, nil)
	y := mat.NewDense(40, 1, nil)
	for i, v := range col {
		x.Set(i, 0, v)
		x.Set(i, 1, v)
		y.Set(i, 0, 4*v)
	}

	var lr LinearRegression
	require.NoError(t, lr.Fit(x, y))
	assert.InDelta(t, 2, lr.Coef().At(0, 0), 1e-9)
	assert.InDelta(t, 2, lr.Coef().At(1, 0), 1e-9)
}

func TestLinearRegressionZeroPredictors(t *testing.T) {
	var lr LinearRegression
	require.NoError(t, lr.Fit(mat.NewDense(5, 2, nil), testutil.GaussianDense(3, 5, 1)))
	pred, err := lr.Predict(mat.NewDense(2, 2, nil))
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0}, mat.Col(nil, 0, pred))
}

func TestLinearRegressionErrors(t *testing.T) {
	var lr LinearRegression
	_, err := lr.Predict(mat.NewDense(2, 2, nil))
	require.ErrorIs(t, err, ErrNotFitted)

	err = lr.Fit(mat.NewDense(4, 1, nil), mat.NewDense(3, 1, nil))
	require.ErrorIs(t, err, ErrShape)

	require.NoError(t, lr.Fit(testutil.GaussianDense(4, 6, 2), testutil.GaussianDense(5, 6, 1)))
	_, err = lr.Predict(mat.NewDense(2, 3, nil))
	require.ErrorIs(t, err, ErrShape)
}
