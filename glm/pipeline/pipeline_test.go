package pipeline

import (
	"context"
	"strings"
	"testing"

	"github.com/cwbudde/algo-bold/dsp/hrf"
	"github.com/cwbudde/algo-bold/glm/clean"
	"github.com/cwbudde/algo-bold/glm/design"
	"github.com/cwbudde/algo-bold/glm/fit"
	"github.com/cwbudde/algo-bold/glm/noise"
	"github.com/cwbudde/algo-bold/internal/config"
	"github.com/cwbudde/algo-bold/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

const (
	frames = 90
	tr     = 2.0
)

// dataset has two runs of six alternating a/b trials. Unit 0 responds
// positively to a and negatively to b on top of confound 0; unit 1 is
// confound 1 plus noise.
func dataset(t *testing.T, modulated bool) *noise.Dataset {
	t.Helper()
	var events design.Events
	for run := 1; run <= 2; run++ {
		for i := range 6 {
			cond := "a"
			if i%2 == 1 {
				cond = "b"
			}
			mod := 1.0
			if modulated {
				mod = 1 + 0.25*float64(i)
			}
			events = append(events, design.Event{
				Condition: cond, Onset: float64(10 + 25*i), Duration: 4, Modulation: mod, Run: run,
			})
		}
	}

	b, err := design.NewBuilder(hrf.ModelGlover)
	require.NoError(t, err)
	conf := testutil.GaussianDense(41, 2*frames, 3)
	eps := testutil.DeterministicGaussian(42, 0.05, 4*frames)

	signal := mat.NewDense(2*frames, 2, nil)
	runIdx := make([]int, 2*frames)
	for run := range 2 {
		m, err := b.BuildIndex(tr, design.FrameTimes(tr, frames, 0.5), events.ForRun(run+1), 0)
		require.NoError(t, err)
		for i := range frames {
			row := run*frames + i
			runIdx[row] = run
			signal.Set(row, 0, 10*m.Data.At(i, 0)-5*m.Data.At(i, 1)+conf.At(row, 0)+eps[row])
			signal.Set(row, 1, conf.At(row, 1)+eps[2*frames+row])
		}
	}
	return &noise.Dataset{Signal: signal, Confounds: conf, RunIdx: runIdx, TRs: []float64{tr, tr}, Events: events}
}

func meanBeta(names []string, betas *mat.Dense, prefix string, unit int) float64 {
	var sum float64
	var n int
	for i, name := range names {
		if strings.HasPrefix(name, prefix) {
			sum += betas.At(i, unit)
			n++
		}
	}
	return sum / float64(n)
}

func TestRunSkipNoise(t *testing.T) {
	cfg := config.Default()
	cfg.SkipNoise = true

	out, err := Run(context.Background(), dataset(t, false), cfg, nil)
	require.NoError(t, err)

	for _, opt := range out.Selection.OptNComps {
		assert.Equal(t, []int{0, 0}, opt)
	}
	r, c := out.Denoised.Dims()
	assert.Equal(t, 2*frames, r)
	assert.Equal(t, 2, c)

	require.Len(t, out.Betas, 2)
	want := []string{"a_0000", "a_0002", "a_0004", "b_0001", "b_0003", "b_0005"}
	for run := range 2 {
		assert.Equal(t, want, out.TrialNames[run])
		br, bc := out.Betas[run].Dims()
		assert.Equal(t, 6, br)
		assert.Equal(t, 2, bc)
		testutil.RequireFinite(t, out.Betas[run].RawMatrix().Data)
	}
}

func TestRunAcrossRuns(t *testing.T) {
	cfg := config.Default()
	cfg.SignalProc = string(noise.ModeGLMDenoise)
	cfg.NComps = 3
	cfg.Workers = 2

	out, err := Run(context.Background(), dataset(t, false), cfg, nil)
	require.NoError(t, err)

	sel := out.Selection
	assert.Equal(t, noise.ModeGLMDenoise, sel.Mode)
	assert.Equal(t, []int{0, 0}, sel.OptHRF)
	assert.GreaterOrEqual(t, sel.OptNComps[0][0], 1)

	for run := range 2 {
		names, betas := out.TrialNames[run], out.Betas[run]
		assert.Greater(t, meanBeta(names, betas, "a_", 0), 0.0)
		assert.Less(t, meanBeta(names, betas, "b_", 0), 0.0)
	}
}

func TestRunWithinRunsUncorrelated(t *testing.T) {
	cfg := config.Default()
	cfg.NComps = 3
	cfg.Uncorrelation = true
	cfg.NoiseModel = "ar1"

	out, err := Run(context.Background(), dataset(t, true), cfg, nil)
	require.NoError(t, err)

	assert.Nil(t, out.Selection.OptHRF)
	require.Len(t, out.Selection.RunR2, 2)
	for run := range 2 {
		assert.NotContains(t, out.TrialNames[run], cfg.Unmodulated)
		assert.Len(t, out.TrialNames[run], 6)
		testutil.RequireFinite(t, out.Betas[run].RawMatrix().Data)
		r2 := out.Selection.RunR2[run].RawMatrix().Data
		testutil.RequireFinite(t, r2)
		for _, v := range r2 {
			assert.LessOrEqual(t, v, 1.0)
		}
	}
}

func TestUncorrelatedTrialsAgainstUnmodulated(t *testing.T) {
	cfg := config.Default()
	ds := dataset(t, true)
	_, _, events := ds.Run(0)
	events = design.WithUnmodulated(design.SingleTrials(events, cfg.TrialID), cfg.Unmodulated)

	b, err := design.NewBuilder(hrf.ModelGlover)
	require.NoError(t, err)
	d, err := b.BuildIndex(tr, design.FrameTimes(tr, frames, cfg.SliceTimeRef), events, 0)
	require.NoError(t, err)

	f, err := fit.NewFitter(
		fit.WithHighPass(clean.HighPassNone, 0),
		fit.WithUnmodulated(cfg.Unmodulated),
		fit.WithNoiseModel(fit.NoiseAR1),
	)
	require.NoError(t, err)
	x, err := f.Orthogonalize(d, mat.NewDense(frames, 1, nil), 0, tr)
	require.NoError(t, err)

	ref, err := x.Column(cfg.Unmodulated)
	require.NoError(t, err)
	before, err := d.Column(cfg.Unmodulated)
	require.NoError(t, err)
	testutil.RequireSliceNearlyEqual(t, ref, before, 0)

	var trials int
	for _, name := range x.Names {
		if name == cfg.Unmodulated || name == design.ConstantName {
			continue
		}
		trials++
		raw, err := d.Column(name)
		require.NoError(t, err)
		assert.Greater(t, stat.Correlation(raw, ref, nil), 0.1, name)

		col, err := x.Column(name)
		require.NoError(t, err)
		assert.InDelta(t, 0, stat.Correlation(col, ref, nil), 1e-9, name)
	}
	assert.Equal(t, 6, trials)
}

func TestRunWithoutEvents(t *testing.T) {
	ds := dataset(t, false)
	ds.Events = nil
	cfg := config.Default()
	cfg.NComps = 3

	out, err := Run(context.Background(), ds, cfg, nil)
	require.NoError(t, err)
	assert.NotNil(t, out.Denoised)
	assert.Nil(t, out.Betas)
}

func TestRunRejectsBadConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Uncorrelation = true
	cfg.TrialModel = "lss"

	_, err := Run(context.Background(), dataset(t, false), cfg, nil)
	require.ErrorIs(t, err, config.ErrInvalid)

	cfg = config.Default()
	_, err = Run(context.Background(), dataset(t, false), cfg, nil)
	require.ErrorIs(t, err, noise.ErrTooManyComps)
}
