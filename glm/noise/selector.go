package noise

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/cwbudde/algo-bold/dsp/hrf"
	"github.com/cwbudde/algo-bold/glm/clean"
	"github.com/cwbudde/algo-bold/glm/cv"
	"github.com/cwbudde/algo-bold/glm/design"
	"github.com/cwbudde/algo-bold/internal/workpool"
	"github.com/cwbudde/algo-bold/stats/series"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

var (
	ErrInvalidConfig = errors.New("noise: invalid configuration")
	ErrTooManyComps  = errors.New("noise: more components requested than confounds available")
	ErrUnknownMode   = errors.New("noise: unknown mode")
)

// Mode selects where noise components are chosen.
type Mode string

const (
	// ModeSingleTrial selects components within each run.
	ModeSingleTrial Mode = "single-trial"
	// ModeGLMDenoise selects components across runs with a task model.
	ModeGLMDenoise Mode = "glmdenoise"
)

// ParseMode validates a mode name.
func ParseMode(name string) (Mode, error) {
	switch m := Mode(name); m {
	case ModeSingleTrial, ModeGLMDenoise:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, name)
	}
}

// Defaults.
const (
	DefaultNComps       = 50
	DefaultSplits       = 5
	DefaultRepeats      = 2
	DefaultHighPass     = 0.01
	DefaultSliceTimeRef = 0.5
)

// Selector runs the component search. It is immutable after construction
// and may be shared.
type Selector struct {
	mode         Mode
	nComps       int
	splits       int
	repeats      int
	seed         uint64
	hrfModel     hrf.Model
	hpKind       clean.HighPassKind
	hpCutoff     float64
	sliceTimeRef float64
	workers      int
	logger       *slog.Logger
}

// Option configures a Selector.
type Option func(*Selector)

// WithMode sets the selection mode.
func WithMode(m Mode) Option {
	return func(s *Selector) { s.mode = m }
}

// WithNComps sets the largest candidate component count.
func WithNComps(n int) Option {
	return func(s *Selector) { s.nComps = n }
}

// WithCV sets the K-fold splits and repeats of the single-trial mode.
func WithCV(splits, repeats int) Option {
	return func(s *Selector) {
		s.splits = splits
		s.repeats = repeats
	}
}

// WithSeed seeds the fold shuffles.
func WithSeed(seed uint64) Option {
	return func(s *Selector) { s.seed = seed }
}

// WithHRFModel sets the response model of the glmdenoise mode.
func WithHRFModel(m hrf.Model) Option {
	return func(s *Selector) { s.hrfModel = m }
}

// WithHighPass sets the drift removal applied to design matrices.
func WithHighPass(kind clean.HighPassKind, cutoff float64) Option {
	return func(s *Selector) {
		s.hpKind = kind
		s.hpCutoff = cutoff
	}
}

// WithSliceTimeRef sets the frame time reference, in fractions of a TR.
func WithSliceTimeRef(ref float64) Option {
	return func(s *Selector) { s.sliceTimeRef = ref }
}

// WithWorkers bounds parallelism; n <= 0 uses GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(s *Selector) { s.workers = n }
}

// WithLogger sets the logger. The default discards.
func WithLogger(l *slog.Logger) Option {
	return func(s *Selector) { s.logger = l }
}

// NewSelector validates the options.
func NewSelector(opts ...Option) (*Selector, error) {
	s := &Selector{
		mode:         ModeSingleTrial,
		nComps:       DefaultNComps,
		splits:       DefaultSplits,
		repeats:      DefaultRepeats,
		hrfModel:     hrf.ModelGlover,
		hpKind:       clean.HighPassDCT,
		hpCutoff:     DefaultHighPass,
		sliceTimeRef: DefaultSliceTimeRef,
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}

	if _, err := ParseMode(string(s.mode)); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if _, err := hrf.ParseModel(string(s.hrfModel)); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if _, err := clean.ParseHighPass(string(s.hpKind)); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	switch {
	case s.nComps < 1:
		return nil, fmt.Errorf("%w: n_comps %d", ErrInvalidConfig, s.nComps)
	case s.splits < 2 || s.repeats < 1:
		return nil, fmt.Errorf("%w: %d splits, %d repeats", ErrInvalidConfig, s.splits, s.repeats)
	case s.hpKind != clean.HighPassNone && !(s.hpCutoff > 0):
		return nil, fmt.Errorf("%w: high-pass cutoff %v", ErrInvalidConfig, s.hpCutoff)
	case s.sliceTimeRef < 0 || s.sliceTimeRef > 1:
		return nil, fmt.Errorf("%w: slice time reference %v", ErrInvalidConfig, s.sliceTimeRef)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return s, nil
}

// Mode returns the configured mode.
func (s *Selector) Mode() Mode {
	return s.mode
}

// Candidates returns the candidate component counts 1..N.
func (s *Selector) Candidates() []int {
	out := make([]int, s.nComps)
	for i := range out {
		out[i] = i + 1
	}
	return out
}

// Selection is the outcome of Select. Per-run arrays are indexed
// [run][unit]; in ModeGLMDenoise every run carries the same values.
type Selection struct {
	Mode Mode
	// OptNComps is the selected component count, 0 for "do not denoise".
	OptNComps [][]int
	// OptHRF is the selected HRF index per unit (ModeGLMDenoise only).
	OptHRF []int
	// RunR2 holds one candidates x units grid per run (ModeSingleTrial).
	RunR2 []*mat.Dense
	// HRFR2 holds one candidates x units grid per HRF (ModeGLMDenoise).
	HRFR2 []*mat.Dense
	// MaxR2 is the best score per run and unit.
	MaxR2 [][]float64
	// Excluded flags units that could not be scored.
	Excluded [][]bool
}

// SkipSelection returns a selection that leaves every unit undenoised.
func SkipSelection(ds *Dataset) (*Selection, error) {
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	runs, units := ds.Runs(), ds.Units()
	sel := &Selection{Mode: ModeSingleTrial}
	for range runs {
		sel.OptNComps = append(sel.OptNComps, make([]int, units))
		sel.MaxR2 = append(sel.MaxR2, make([]float64, units))
		sel.Excluded = append(sel.Excluded, make([]bool, units))
	}
	return sel, nil
}

// Select validates ds against the configuration and runs the search.
func (s *Selector) Select(ctx context.Context, ds *Dataset) (*Selection, error) {
	if err := s.check(ds); err != nil {
		return nil, err
	}
	s.logger.Info("noise selection",
		"mode", s.mode, "n_comps", s.nComps, "runs", ds.Runs(), "units", ds.Units())

	if s.mode == ModeSingleTrial {
		return s.selectWithinRuns(ctx, ds)
	}
	return s.selectAcrossRuns(ctx, ds)
}

// check fails fast on everything that would otherwise fail mid-search.
func (s *Selector) check(ds *Dataset) error {
	if err := ds.Validate(); err != nil {
		return err
	}
	if _, c := ds.Confounds.Dims(); s.nComps > c {
		return fmt.Errorf("%w: cannot select %d from %d components", ErrTooManyComps, s.nComps, c)
	}

	switch s.mode {
	case ModeSingleTrial:
		for r := range ds.Runs() {
			if n := len(ds.Rows(r)); n < s.splits {
				return fmt.Errorf("%w: run %d has %d rows for %d splits", ErrInvalidConfig, r, n, s.splits)
			}
		}
	case ModeGLMDenoise:
		if ds.Runs() < 2 {
			return fmt.Errorf("%w: %s needs at least 2 runs", ErrInvalidConfig, s.mode)
		}
		if err := ds.Events.Validate(); err != nil {
			return err
		}
		for r := range ds.Runs() {
			if len(ds.Events.ForRun(r+1)) == 0 {
				return fmt.Errorf("%w: run %d has no events", ErrInvalidConfig, r)
			}
		}
	}
	return nil
}

// scorable returns the non-constant units of signal and an exclusion mask.
func scorable(signal *mat.Dense) (keep []int, excluded []bool) {
	stats := series.Columns(signal)
	excluded = make([]bool, len(stats))
	for j, st := range stats {
		if st.Constant() {
			excluded[j] = true
			continue
		}
		keep = append(keep, j)
	}
	return keep, excluded
}

// runSeed derives a per-run shuffle seed.
func (s *Selector) runSeed(run int) uint64 {
	return s.seed ^ (uint64(run+1) * 0x9e3779b97f4a7c15)
}

type runScores struct {
	grid     *mat.Dense
	excluded []bool
}

func (s *Selector) selectWithinRuns(ctx context.Context, ds *Dataset) (*Selection, error) {
	scores, err := workpool.Map(ctx, ds.Runs(), s.workers, func(ctx context.Context, run int) (runScores, error) {
		return s.scoreRun(ctx, ds, run)
	})
	if err != nil {
		return nil, err
	}

	sel := &Selection{Mode: s.mode}
	for _, rs := range scores {
		opt, best := ReduceGrid(rs.grid)
		sel.OptNComps = append(sel.OptNComps, opt)
		sel.MaxR2 = append(sel.MaxR2, best)
		sel.RunR2 = append(sel.RunR2, rs.grid)
		sel.Excluded = append(sel.Excluded, rs.excluded)
	}
	return sel, nil
}

func (s *Selector) scoreRun(ctx context.Context, ds *Dataset, run int) (runScores, error) {
	signal, conf, _ := ds.Run(run)
	keep, excluded := scorable(signal)
	grid := mat.NewDense(s.nComps, ds.Units(), nil)
	if len(keep) == 0 {
		return runScores{grid: grid, excluded: excluded}, nil
	}

	y := columns(signal, keep)
	splitter := cv.RepeatedKFold{Splits: s.splits, Repeats: s.repeats, Seed: s.runSeed(run)}
	for _, k := range s.Candidates() {
		if err := ctx.Err(); err != nil {
			return runScores{}, err
		}
		r2, err := cv.CrossValR2(&cv.LinearRegression{}, leading(conf, k), y, splitter, nil)
		if err != nil {
			return runScores{}, fmt.Errorf("noise: run %d, k=%d: %w", run, k, err)
		}
		for i, j := range keep {
			grid.Set(k-1, j, r2[i])
		}
	}
	s.logger.Debug("run scored", "run", run, "excluded", len(excluded)-len(keep))
	return runScores{grid: grid, excluded: excluded}, nil
}

func (s *Selector) selectAcrossRuns(ctx context.Context, ds *Dataset) (*Selection, error) {
	designs, err := s.buildDesigns(ds)
	if err != nil {
		return nil, err
	}
	keep, excluded := scorable(ds.Signal)
	nHRF := len(designs)

	// One task per candidate; each returns one row per HRF.
	rows, err := workpool.Map(ctx, s.nComps, s.workers, func(ctx context.Context, i int) (*mat.Dense, error) {
		return s.scoreCandidate(ctx, ds, designs, keep, i+1)
	})
	if err != nil {
		return nil, err
	}

	tensor := make([]*mat.Dense, nHRF)
	for h := range tensor {
		tensor[h] = mat.NewDense(s.nComps, ds.Units(), nil)
		for k, row := range rows {
			tensor[h].SetRow(k, row.RawRowView(h))
		}
	}

	opt, hrfIdx, best, err := ReduceTensor(tensor)
	if err != nil {
		return nil, err
	}

	sel := &Selection{Mode: s.mode, OptHRF: hrfIdx, HRFR2: tensor}
	for range ds.Runs() {
		sel.OptNComps = append(sel.OptNComps, append([]int(nil), opt...))
		sel.MaxR2 = append(sel.MaxR2, append([]float64(nil), best...))
		sel.Excluded = append(sel.Excluded, append([]bool(nil), excluded...))
	}
	return sel, nil
}

// buildDesigns returns the task regressors (no intercept) of every run for
// every HRF of the model, indexed [hrf][run]. Columns are aligned on the
// union of conditions across runs.
func (s *Selector) buildDesigns(ds *Dataset) ([][]*mat.Dense, error) {
	b, err := design.NewBuilder(s.hrfModel)
	if err != nil {
		return nil, err
	}
	conditions := ds.Events.Conditions()

	out := make([][]*mat.Dense, b.Size())
	for h := range out {
		out[h] = make([]*mat.Dense, ds.Runs())
	}
	for r := range ds.Runs() {
		n := len(ds.Rows(r))
		ft := design.FrameTimes(ds.TRs[r], n, s.sliceTimeRef)
		mats, err := b.Build(ds.TRs[r], ft, ds.Events.ForRun(r+1))
		if err != nil {
			return nil, fmt.Errorf("noise: design of run %d: %w", r, err)
		}
		for h, m := range mats {
			out[h][r] = align(m, conditions, n)
		}
	}
	return out, nil
}

// align maps the condition columns of m onto conditions, zero-filling
// conditions absent from the run.
func align(m *design.Matrix, conditions []string, n int) *mat.Dense {
	out := mat.NewDense(n, len(conditions), nil)
	col := make([]float64, n)
	for j, name := range conditions {
		if src := m.Index(name); src >= 0 {
			out.SetCol(j, mat.Col(col, src, m.Data))
		}
	}
	return out
}

// scoreCandidate scores candidate k for every HRF; row h of the result
// holds the per-unit R².
func (s *Selector) scoreCandidate(ctx context.Context, ds *Dataset, designs [][]*mat.Dense, keep []int, k int) (*mat.Dense, error) {
	nHRF := len(designs)
	out := mat.NewDense(nHRF, ds.Units(), nil)
	if len(keep) == 0 {
		return out, nil
	}

	confK := leading(ds.Confounds, k)
	y, err := clean.Clean(columns(ds.Signal, keep), confK, clean.WithStandardize(true))
	if err != nil {
		return nil, fmt.Errorf("noise: k=%d: cleaning signal: %w", k, err)
	}

	rows, _ := ds.Signal.Dims()
	for h := range nHRF {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		_, nCond := designs[h][0].Dims()
		x := mat.NewDense(rows, nCond, nil)
		for r := range ds.Runs() {
			xr, err := s.cleanDesign(ds, designs[h][r], confK, r)
			if err != nil {
				return nil, fmt.Errorf("noise: k=%d, hrf %d, run %d: %w", k, h, r, err)
			}
			for i, row := range ds.Rows(r) {
				x.SetRow(row, xr.RawRowView(i))
			}
		}

		r2, err := cv.CrossValR2(&cv.LinearRegression{}, x, y, cv.LeaveOneGroupOut{}, ds.RunIdx)
		if err != nil {
			return nil, fmt.Errorf("noise: k=%d, hrf %d: %w", k, h, err)
		}
		for i, j := range keep {
			out.Set(h, j, r2[i])
		}
	}
	s.logger.Debug("candidate scored", "k", k, "hrfs", nHRF)
	return out, nil
}

// cleanDesign high-passes one run's regressors, removes that run's first k
// confounds and centers the columns.
func (s *Selector) cleanDesign(ds *Dataset, x, confK *mat.Dense, run int) (*mat.Dense, error) {
	idx := ds.Rows(run)
	ft := design.FrameTimes(ds.TRs[run], len(idx), s.sliceTimeRef)

	hp, err := clean.HighPass(x, ds.TRs[run], ft, s.hpKind, s.hpCutoff)
	if err != nil {
		return nil, err
	}
	out, err := clean.Clean(hp, copyRows(confK, idx))
	if err != nil {
		return nil, err
	}
	centerColumns(out)
	return out, nil
}

func centerColumns(m *mat.Dense) {
	r, c := m.Dims()
	col := make([]float64, r)
	for j := range c {
		mat.Col(col, j, m)
		floats.AddConst(-series.Calculate(col).Mean, col)
		m.SetCol(j, col)
	}
}
