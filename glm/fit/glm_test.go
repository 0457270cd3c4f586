package fit

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-bold/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

func noiselessProblem() (x, b, y *mat.Dense) {
	x = testutil.GaussianDense(1, 80, 3)
	b = mat.NewDense(3, 2, []float64{
		1.5, -1,
		0, 2,
		-0.5, 0.25,
	})
	y = &mat.Dense{}
	y.Mul(x, b)
	return x, b, y
}

func TestRunGLMOLS(t *testing.T) {
	x, b, y := noiselessProblem()

	labels, results, err := RunGLM(y, x, NoiseOLS)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 0}, labels)
	require.Contains(t, results, 0)

	res := results[0]
	testutil.RequireDenseNearlyEqual(t, res.Theta, b, 1e-10)
	testutil.RequireDenseNearlyEqual(t, res.Predicted, y, 1e-10)
	assert.Equal(t, 77, res.DF)
	for j := range 2 {
		assert.InDelta(t, 1, res.R2[j], 1e-12)
		assert.InDelta(t, 0, res.Dispersion[j], 1e-20)
	}

	// NormalizedCov is the inverse of XᵀX.
	var xtx, eye mat.Dense
	xtx.Mul(x.T(), x)
	eye.Mul(&xtx, res.NormalizedCov)
	testutil.RequireDenseNearlyEqual(t, &eye, identity(3), 1e-10)
}

func identity(n int) *mat.Dense {
	m := mat.NewDense(n, n, nil)
	for i := range n {
		m.Set(i, i, 1)
	}
	return m
}

func TestTValues(t *testing.T) {
	x := testutil.GaussianDense(2, 100, 2)
	noise := testutil.DeterministicGaussian(3, 0.5, 100)
	y := mat.NewDense(100, 1, nil)
	for i := range 100 {
		y.Set(i, 0, 3*x.At(i, 0)+noise[i])
	}

	_, results, err := RunGLM(y, x, NoiseOLS)
	require.NoError(t, err)
	tv := results[0].TValues(0)
	assert.Greater(t, tv[0], 20.0)
	assert.Less(t, results[0].TValues(1)[0], 5.0)
}

func TestWhitenZeroRhoIsIdentity(t *testing.T) {
	m := testutil.GaussianDense(4, 10, 2)
	testutil.RequireDenseNearlyEqual(t, whiten(m, 0), m, 0)

	w := whiten(mat.NewDense(3, 1, []float64{1, 2, 3}), 0.5)
	assert.Equal(t, []float64{1, 1.5, 2}, mat.Col(nil, 0, w))
}

func TestRunGLMAR1(t *testing.T) {
	const n = 400
	x := mat.NewDense(n, 2, nil)
	drive := testutil.DeterministicGaussian(5, 1, n)
	for i := range n {
		x.Set(i, 0, drive[i])
		x.Set(i, 1, 1)
	}

	white := testutil.DeterministicGaussian(6, 1, n)
	indep := testutil.DeterministicGaussian(7, 1, n)
	y := mat.NewDense(n, 2, nil)
	var ar float64
	for i := range n {
		ar = 0.8*ar + white[i]
		y.Set(i, 0, 2*drive[i]+ar)
		y.Set(i, 1, -drive[i]+indep[i])
	}

	labels, results, err := RunGLM(y, x, NoiseAR1)
	require.NoError(t, err)
	require.Len(t, labels, 2)
	assert.InDelta(t, 78, labels[0], 12)
	assert.InDelta(t, 0, labels[1], 20)

	for _, l := range labels {
		require.Contains(t, results, l)
	}
	assert.InDelta(t, float64(labels[0])/100, results[labels[0]].Rho, 1e-12)
	assert.InDelta(t, 2, results[labels[0]].Theta.At(0, 0), 0.3)

	// The AR(1) bin must agree with OLS on explicitly prewhitened data.
	rho := float64(labels[0]) / 100
	wy := whiten(mat.DenseCopyOf(y.Slice(0, n, 0, 1)), rho)
	wx := whiten(x, rho)

	var theta mat.Dense
	require.NoError(t, theta.Solve(wx, wy))
	var fitted, resid mat.Dense
	fitted.Mul(wx, &theta)
	resid.Sub(wy, &fitted)
	e := mat.Col(nil, 0, &resid)
	disp := floats.Dot(e, e) / float64(n-2)

	var gram, inv mat.Dense
	gram.Mul(wx.T(), wx)
	require.NoError(t, inv.Inverse(&gram))
	tv := theta.At(0, 0) / math.Sqrt(disp*inv.At(0, 0))

	got := results[labels[0]]
	assert.InDelta(t, theta.At(0, 0), got.Theta.At(0, 0), 1e-9)
	assert.InDelta(t, disp, got.Dispersion[0], 1e-9*disp)
	assert.InDelta(t, tv, got.TValues(0)[0], 1e-6*math.Abs(tv))
}

func TestRunGLMErrors(t *testing.T) {
	_, _, err := RunGLM(mat.NewDense(4, 1, nil), mat.NewDense(5, 1, nil), NoiseOLS)
	require.ErrorIs(t, err, ErrShape)

	x, _, y := noiselessProblem()
	_, _, err = RunGLM(y, x, NoiseModel("ar2"))
	require.ErrorIs(t, err, ErrNoiseModel)

	_, err = ParseNoiseModel("gls")
	require.ErrorIs(t, err, ErrNoiseModel)
}
