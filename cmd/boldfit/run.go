package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/cwbudde/algo-bold/glm/design"
	"github.com/cwbudde/algo-bold/glm/noise"
	"github.com/cwbudde/algo-bold/glm/pipeline"
	"github.com/cwbudde/algo-bold/internal/config"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"
)

type runOptions struct {
	signal    string
	confounds string
	events    string
	out       string
	runFrames []int
	trs       []float64

	cfg config.Config
}

func newRunCmd(root *rootOptions) *cobra.Command {
	opts := &runOptions{cfg: config.Default()}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Select noise components, denoise and estimate single-trial betas",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}
			opts.override(cmd, &cfg)

			ds, err := opts.dataset()
			if err != nil {
				return err
			}
			logger := root.logger(cmd.ErrOrStderr())
			out, err := pipeline.Run(cmd.Context(), ds, cfg, logger)
			if err != nil {
				return err
			}
			return opts.write(out)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.signal, "signal", "", "signal table, frames x units (required)")
	f.StringVar(&opts.confounds, "confounds", "", "ranked confound table, frames x components (required)")
	f.StringVar(&opts.events, "events", "", "events table")
	f.StringVarP(&opts.out, "out", "o", ".", "output directory")
	f.IntSliceVar(&opts.runFrames, "run-frames", nil, "frames per run; default is one run")
	f.Float64SliceVar(&opts.trs, "tr", []float64{2}, "repetition time per run, or one for all runs")

	c := &opts.cfg
	f.StringVar(&c.SignalProc, "mode", c.SignalProc, "selection mode: single-trial or glmdenoise")
	f.BoolVar(&c.SkipNoise, "skip-noise", c.SkipNoise, "skip noise selection and only z-score runs")
	f.IntVar(&c.NComps, "n-comps", c.NComps, "maximum number of noise components")
	f.IntVar(&c.CVSplits, "cv-splits", c.CVSplits, "cross-validation folds")
	f.IntVar(&c.CVRepeats, "cv-repeats", c.CVRepeats, "cross-validation repeats")
	f.Uint64Var(&c.Seed, "seed", c.Seed, "fold shuffling seed")
	f.StringVar(&c.HRFModel, "hrf-model", c.HRFModel, "HRF model: glover, spm or kay")
	f.StringVar(&c.NoiseModel, "noise-model", c.NoiseModel, "GLM noise model: ols or ar1")
	f.StringVar(&c.TrialModel, "trial-model", c.TrialModel, "single-trial model: lsa or lss")
	f.StringVar(&c.TrialID, "trial-id", c.TrialID, "substring selecting single-trial conditions")
	f.BoolVar(&c.Uncorrelation, "uncorrelation", c.Uncorrelation, "orthogonalize trials against the unmodulated regressor")
	f.StringVar(&c.HighPassType, "high-pass-type", c.HighPassType, "drift removal: dct, savgol or none")
	f.Float64Var(&c.HighPass, "high-pass", c.HighPass, "high-pass cutoff in Hz")
	f.IntVar(&c.Workers, "workers", c.Workers, "parallel workers; 0 uses all CPUs")

	_ = cmd.MarkFlagRequired("signal")
	_ = cmd.MarkFlagRequired("confounds")
	return cmd
}

// override copies every explicitly set flag over the file configuration.
func (o *runOptions) override(cmd *cobra.Command, cfg *config.Config) {
	set := func(name string) bool { return cmd.Flags().Changed(name) }
	c := o.cfg
	if set("mode") {
		cfg.SignalProc = c.SignalProc
	}
	if set("skip-noise") {
		cfg.SkipNoise = c.SkipNoise
	}
	if set("n-comps") {
		cfg.NComps = c.NComps
	}
	if set("cv-splits") {
		cfg.CVSplits = c.CVSplits
	}
	if set("cv-repeats") {
		cfg.CVRepeats = c.CVRepeats
	}
	if set("seed") {
		cfg.Seed = c.Seed
	}
	if set("hrf-model") {
		cfg.HRFModel = c.HRFModel
	}
	if set("noise-model") {
		cfg.NoiseModel = c.NoiseModel
	}
	if set("trial-model") {
		cfg.TrialModel = c.TrialModel
	}
	if set("trial-id") {
		cfg.TrialID = c.TrialID
	}
	if set("uncorrelation") {
		cfg.Uncorrelation = c.Uncorrelation
	}
	if set("high-pass-type") {
		cfg.HighPassType = c.HighPassType
	}
	if set("high-pass") {
		cfg.HighPass = c.HighPass
	}
	if set("workers") {
		cfg.Workers = c.Workers
	}
}

func (o *runOptions) dataset() (*noise.Dataset, error) {
	signal, err := readMatrixFile(o.signal)
	if err != nil {
		return nil, err
	}
	confounds, err := readMatrixFile(o.confounds)
	if err != nil {
		return nil, err
	}
	var events design.Events
	if o.events != "" {
		f, err := os.Open(o.events)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		if events, err = readEvents(f); err != nil {
			return nil, fmt.Errorf("%s: %w", o.events, err)
		}
	}

	rows, _ := signal.Dims()
	frames := o.runFrames
	if len(frames) == 0 {
		frames = []int{rows}
	}
	runIdx := make([]int, 0, rows)
	for r, n := range frames {
		for range n {
			runIdx = append(runIdx, r)
		}
	}

	trs := o.trs
	if len(trs) == 1 && len(frames) > 1 {
		for len(trs) < len(frames) {
			trs = append(trs, o.trs[0])
		}
	}
	if len(trs) != len(frames) {
		return nil, fmt.Errorf("boldfit: %d TRs for %d runs", len(trs), len(frames))
	}

	return &noise.Dataset{Signal: signal, Confounds: confounds, RunIdx: runIdx, TRs: trs, Events: events}, nil
}

func readMatrixFile(path string) (*mat.Dense, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	m, err := readMatrix(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

func (o *runOptions) write(out *pipeline.Output) error {
	if err := os.MkdirAll(o.out, 0o755); err != nil {
		return err
	}
	sel := out.Selection

	files := map[string]func(io.Writer) error{
		"n_comps.tsv": func(w io.Writer) error { return writeInts(w, sel.OptNComps) },
		"max_r2.tsv": func(w io.Writer) error {
			return writeMatrix(w, floatRows(sel.MaxR2), nil)
		},
		"denoised.tsv": func(w io.Writer) error { return writeMatrix(w, out.Denoised, nil) },
	}
	if sel.OptHRF != nil {
		files["hrf_index.tsv"] = func(w io.Writer) error { return writeInts(w, [][]int{sel.OptHRF}) }
	}
	for r, b := range out.Betas {
		names := out.TrialNames[r]
		files[fmt.Sprintf("betas_run-%02d.tsv", r+1)] = func(w io.Writer) error {
			return writeMatrix(w, b, names)
		}
	}

	for name, fn := range files {
		if err := writeFile(filepath.Join(o.out, name), fn); err != nil {
			return err
		}
	}
	return nil
}

func writeFile(path string, fn func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return fn(f)
}

func floatRows(rows [][]float64) *mat.Dense {
	m := mat.NewDense(len(rows), len(rows[0]), nil)
	for i, r := range rows {
		m.SetRow(i, r)
	}
	return m
}
