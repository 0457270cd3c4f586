// Package pipeline runs noise selection, denoising and single-trial
// estimation over a run-concatenated dataset.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/cwbudde/algo-bold/dsp/hrf"
	"github.com/cwbudde/algo-bold/glm/clean"
	"github.com/cwbudde/algo-bold/glm/design"
	"github.com/cwbudde/algo-bold/glm/fit"
	"github.com/cwbudde/algo-bold/glm/noise"
	"github.com/cwbudde/algo-bold/internal/config"
	"gonum.org/v1/gonum/mat"
)

// Output collects everything a run produces.
type Output struct {
	Selection *noise.Selection
	// Denoised is the cleaned, per-run z-scored signal.
	Denoised *mat.Dense
	// Betas holds one trials x units matrix per run.
	Betas []*mat.Dense
	// TrialNames labels the rows of Betas per run.
	TrialNames [][]string
}

// Run executes the pipeline. A nil logger discards.
func Run(ctx context.Context, ds *noise.Dataset, cfg config.Config, logger *slog.Logger) (*Output, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if err := ds.Validate(); err != nil {
		return nil, err
	}

	selector, err := noise.NewSelector(
		noise.WithMode(noise.Mode(cfg.SignalProc)),
		noise.WithNComps(cfg.NComps),
		noise.WithCV(cfg.CVSplits, cfg.CVRepeats),
		noise.WithSeed(cfg.Seed),
		noise.WithHRFModel(hrf.Model(cfg.HRFModel)),
		noise.WithHighPass(clean.HighPassKind(cfg.HighPassType), cfg.HighPass),
		noise.WithSliceTimeRef(cfg.SliceTimeRef),
		noise.WithWorkers(cfg.Workers),
		noise.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}

	var sel *noise.Selection
	if cfg.SkipNoise {
		logger.Info("skipping noise selection")
		sel, err = noise.SkipSelection(ds)
	} else {
		sel, err = selector.Select(ctx, ds)
	}
	if err != nil {
		return nil, err
	}

	denoised, err := selector.Denoise(ctx, ds, sel.OptNComps)
	if err != nil {
		return nil, err
	}
	out := &Output{Selection: sel, Denoised: denoised}
	if len(ds.Events) == 0 {
		logger.Info("no events, skipping single-trial estimation")
		return out, nil
	}

	fitOpts := []fit.Option{
		fit.WithNoiseModel(fit.NoiseModel(cfg.NoiseModel)),
		fit.WithHighPass(clean.HighPassKind(cfg.HighPassType), cfg.HighPass),
		fit.WithSliceTimeRef(cfg.SliceTimeRef),
		fit.WithWorkers(cfg.Workers),
		fit.WithLogger(logger),
	}
	if cfg.Uncorrelation {
		fitOpts = append(fitOpts, fit.WithUnmodulated(cfg.Unmodulated))
	}
	fitter, err := fit.NewFitter(fitOpts...)
	if err != nil {
		return nil, err
	}
	builder, err := design.NewBuilder(hrf.Model(cfg.HRFModel))
	if err != nil {
		return nil, err
	}

	for r := range ds.Runs() {
		est, err := estimateRun(ctx, ds, denoised, sel, r, cfg, fitter, builder)
		if err != nil {
			return nil, fmt.Errorf("pipeline: run %d: %w", r, err)
		}
		out.Betas = append(out.Betas, est.Betas)
		out.TrialNames = append(out.TrialNames, est.Names)
		logger.Info("run estimated", "run", r, "trials", len(est.Names), "groups", est.Groups)
	}
	return out, nil
}

func estimateRun(ctx context.Context, ds *noise.Dataset, denoised *mat.Dense, sel *noise.Selection, r int,
	cfg config.Config, fitter *fit.Fitter, builder *design.Builder,
) (*fit.Estimates, error) {
	rows := ds.Rows(r)
	_, confounds, events := ds.Run(r)
	if len(events) == 0 {
		return nil, fmt.Errorf("%w: no events", fit.ErrInput)
	}

	events = design.SingleTrials(events, cfg.TrialID)
	if cfg.Uncorrelation {
		events = design.WithUnmodulated(events, cfg.Unmodulated)
	}

	tr := ds.TRs[r]
	ft := design.FrameTimes(tr, len(rows), cfg.SliceTimeRef)
	var designs []*design.Matrix
	if sel.OptHRF != nil {
		all, err := builder.Build(tr, ft, events)
		if err != nil {
			return nil, err
		}
		designs = all
	} else {
		// Without a fitted HRF index every unit uses the first kernel.
		d, err := builder.BuildIndex(tr, ft, events, 0)
		if err != nil {
			return nil, err
		}
		designs = []*design.Matrix{d}
	}

	return fitter.TrialEstimates(ctx, fit.RunInput{
		Signal:    rowsOf(denoised, rows),
		Confounds: confounds,
		Designs:   designs,
		OptNComps: sel.OptNComps[r],
		OptHRF:    sel.OptHRF,
		TR:        tr,
	}, fit.TrialModel(cfg.TrialModel))
}

func rowsOf(m *mat.Dense, idx []int) *mat.Dense {
	_, c := m.Dims()
	out := mat.NewDense(len(idx), c, nil)
	for i, r := range idx {
		out.SetRow(i, m.RawRowView(r))
	}
	return out
}
