package fit

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"slices"

	"github.com/cwbudde/algo-bold/glm/clean"
	"github.com/cwbudde/algo-bold/glm/design"
	"github.com/cwbudde/algo-bold/stats/series"
	"github.com/cwbudde/algo-vecmath"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

var (
	ErrInvalidConfig = errors.New("fit: invalid configuration")
	ErrInput         = errors.New("fit: invalid run input")
	ErrNoUnmodulated = errors.New("fit: unmodulated reference column missing")
)

// DefaultUnmodulated is the conventional label of the reference regressor.
const DefaultUnmodulated = "unmodstim"

// Fitter configures the grouped GLM.
type Fitter struct {
	noiseModel   NoiseModel
	hpKind       clean.HighPassKind
	hpCutoff     float64
	sliceTimeRef float64
	unmodulated  string
	workers      int
	logger       *slog.Logger
}

// Option configures a Fitter.
type Option func(*Fitter)

// WithNoiseModel sets the GLM noise model.
func WithNoiseModel(m NoiseModel) Option {
	return func(f *Fitter) { f.noiseModel = m }
}

// WithHighPass sets the drift removal applied to designs.
func WithHighPass(kind clean.HighPassKind, cutoff float64) Option {
	return func(f *Fitter) {
		f.hpKind = kind
		f.hpCutoff = cutoff
	}
}

// WithSliceTimeRef sets the frame time reference, in fractions of a TR.
func WithSliceTimeRef(ref float64) Option {
	return func(f *Fitter) { f.sliceTimeRef = ref }
}

// WithUnmodulated enables orthogonalization of every regressor against the
// column called label.
func WithUnmodulated(label string) Option {
	return func(f *Fitter) { f.unmodulated = label }
}

// WithWorkers bounds parallelism of TrialEstimates; n <= 0 uses GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(f *Fitter) { f.workers = n }
}

// WithLogger sets the logger. The default discards.
func WithLogger(l *slog.Logger) Option {
	return func(f *Fitter) { f.logger = l }
}

// NewFitter validates the options.
func NewFitter(opts ...Option) (*Fitter, error) {
	f := &Fitter{
		noiseModel:   NoiseOLS,
		hpKind:       clean.HighPassDCT,
		hpCutoff:     0.01,
		sliceTimeRef: 0.5,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.logger == nil {
		f.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if _, err := ParseNoiseModel(string(f.noiseModel)); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if _, err := clean.ParseHighPass(string(f.hpKind)); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if f.hpKind != clean.HighPassNone && !(f.hpCutoff > 0) {
		return nil, fmt.Errorf("%w: high-pass cutoff %v", ErrInvalidConfig, f.hpCutoff)
	}
	return f, nil
}

// RunInput is everything the fitter needs for one run.
type RunInput struct {
	// Signal is the denoised signal, time x units.
	Signal *mat.Dense
	// Confounds are the run's raw confounds, best first.
	Confounds *mat.Dense
	// Designs holds the raw design per HRF index; a canonical model has one.
	Designs []*design.Matrix
	// OptNComps is the selected confound count per unit.
	OptNComps []int
	// OptHRF is the selected HRF index per unit; nil means 0 everywhere.
	OptHRF []int
	// TR is the repetition time in seconds.
	TR float64
	// Units restricts fitting to these units; nil fits all.
	Units []int
}

// Group is the GLM of all units sharing a confound count and HRF.
type Group struct {
	K       int
	HRF     int
	Units   []int
	Design  *design.Matrix
	Labels  []int
	Results map[int]*Results
}

type groupKey struct {
	k, hrf int
}

// plan validates in and partitions the requested units.
func (f *Fitter) plan(in RunInput) ([]groupKey, map[groupKey][]int, error) {
	if in.Signal == nil || in.Confounds == nil || len(in.Designs) == 0 {
		return nil, nil, fmt.Errorf("%w: signal, confounds and design are required", ErrInput)
	}
	rows, units := in.Signal.Dims()
	cr, nConf := in.Confounds.Dims()
	if cr != rows {
		return nil, nil, fmt.Errorf("%w: %d signal rows, %d confound rows", ErrInput, rows, cr)
	}
	for h, d := range in.Designs {
		if dr, _ := d.Dims(); dr != rows {
			return nil, nil, fmt.Errorf("%w: design %d has %d rows, signal %d", ErrInput, h, dr, rows)
		}
		if f.unmodulated != "" && d.Index(f.unmodulated) < 0 {
			return nil, nil, fmt.Errorf("%w: %q not in design %d", ErrNoUnmodulated, f.unmodulated, h)
		}
	}
	if len(in.OptNComps) != units {
		return nil, nil, fmt.Errorf("%w: %d component counts for %d units", ErrInput, len(in.OptNComps), units)
	}
	if in.OptHRF != nil && len(in.OptHRF) != units {
		return nil, nil, fmt.Errorf("%w: %d HRF indices for %d units", ErrInput, len(in.OptHRF), units)
	}
	if !(in.TR > 0) {
		return nil, nil, fmt.Errorf("%w: TR %v", ErrInput, in.TR)
	}

	requested := in.Units
	if requested == nil {
		requested = make([]int, units)
		for i := range requested {
			requested[i] = i
		}
	}

	groups := map[groupKey][]int{}
	for _, u := range requested {
		if u < 0 || u >= units {
			return nil, nil, fmt.Errorf("%w: unit %d of %d", ErrInput, u, units)
		}
		key := groupKey{k: in.OptNComps[u]}
		if in.OptHRF != nil {
			key.hrf = in.OptHRF[u]
		}
		if key.k < 0 || key.k > nConf {
			return nil, nil, fmt.Errorf("%w: unit %d wants %d of %d confounds", ErrInput, u, key.k, nConf)
		}
		if key.hrf < 0 || key.hrf >= len(in.Designs) {
			return nil, nil, fmt.Errorf("%w: unit %d HRF index %d of %d", ErrInput, u, key.hrf, len(in.Designs))
		}
		groups[key] = append(groups[key], u)
	}

	keys := make([]groupKey, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b groupKey) int {
		return cmp.Or(cmp.Compare(a.k, b.k), cmp.Compare(a.hrf, b.hrf))
	})
	return keys, groups, nil
}

// Groups yields one fitted Group per distinct (k, HRF) pair among the
// requested units, in increasing order. Input errors are yielded once,
// before any fitting.
func (f *Fitter) Groups(ctx context.Context, in RunInput) iter.Seq2[Group, error] {
	return func(yield func(Group, error) bool) {
		keys, groups, err := f.plan(in)
		if err != nil {
			yield(Group{}, err)
			return
		}
		for _, key := range keys {
			if err := ctx.Err(); err != nil {
				yield(Group{}, err)
				return
			}
			g, err := f.fitGroup(in, key, groups[key])
			if !yield(g, err) || err != nil {
				return
			}
		}
	}
}

func (f *Fitter) fitGroup(in RunInput, key groupKey, units []int) (Group, error) {
	x, err := f.Orthogonalize(in.Designs[key.hrf], in.Confounds, key.k, in.TR)
	if err != nil {
		return Group{}, fmt.Errorf("fit: k=%d, hrf %d: %w", key.k, key.hrf, err)
	}
	labels, results, err := RunGLM(selectColumns(in.Signal, units), x.Data, f.noiseModel)
	if err != nil {
		return Group{}, fmt.Errorf("fit: k=%d, hrf %d: %w", key.k, key.hrf, err)
	}
	f.logger.Debug("group fitted", "k", key.k, "hrf", key.hrf, "units", len(units), "bins", len(results))
	return Group{K: key.k, HRF: key.hrf, Units: units, Design: x, Labels: labels, Results: results}, nil
}

// Orthogonalize returns a cleaned copy of d: regressors are first
// decorrelated from the unmodulated reference (when configured), then
// high-passed and cleaned of the first k confounds. The reference column
// is left as is. Any intercept is replaced by a fresh trailing one.
func (f *Fitter) Orthogonalize(d *design.Matrix, confounds *mat.Dense, k int, tr float64) (*design.Matrix, error) {
	x := d.DropColumn(design.ConstantName)
	if x.Data == nil {
		return d.WithIntercept(), nil
	}
	rows, cols := x.Dims()

	ref := -1
	if f.unmodulated != "" {
		ref = x.Index(f.unmodulated)
		if ref < 0 {
			return nil, fmt.Errorf("%w: %q", ErrNoUnmodulated, f.unmodulated)
		}
	}

	targets := make([]int, 0, cols)
	for j := range cols {
		if j != ref {
			targets = append(targets, j)
		}
	}
	if len(targets) == 0 {
		return x.WithIntercept(), nil
	}

	sub := selectColumns(x.Data, targets)
	if ref >= 0 {
		decorrelate(sub, mat.Col(nil, ref, x.Data))
	}

	ft := design.FrameTimes(tr, rows, f.sliceTimeRef)
	hp, err := clean.HighPass(sub, tr, ft, f.hpKind, f.hpCutoff)
	if err != nil {
		return nil, err
	}
	var conf *mat.Dense
	if k > 0 {
		conf = mat.DenseCopyOf(confounds.Slice(0, rows, 0, k))
	}
	cleaned, err := clean.Clean(hp, conf)
	if err != nil {
		return nil, err
	}

	col := make([]float64, rows)
	for j, c := range targets {
		x.Data.SetCol(c, mat.Col(col, j, cleaned))
	}
	return x.WithIntercept(), nil
}

// decorrelate removes from every column of m its linear dependence on the
// centered reference, keeping the column mean.
func decorrelate(m *mat.Dense, ref []float64) {
	rs := series.Calculate(ref)
	if rs.Variance == 0 {
		return
	}
	centered := make([]float64, len(ref))
	for i, v := range ref {
		centered[i] = v - rs.Mean
	}
	den := float64(len(ref)) * rs.Variance

	rows, cols := m.Dims()
	col := make([]float64, rows)
	for j := range cols {
		mat.Col(col, j, m)
		beta := vecmath.DotProduct(col, centered) / den
		floats.AddScaled(col, -beta, centered)
		m.SetCol(j, col)
	}
}
