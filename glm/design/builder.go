package design

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/cwbudde/algo-bold/dsp/conv"
	"github.com/cwbudde/algo-bold/dsp/hrf"
	"github.com/cwbudde/algo-bold/dsp/interp"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

var (
	ErrUnknownHRF  = errors.New("design: unknown HRF model")
	ErrHRFIndex    = errors.New("design: HRF index out of range")
	ErrFrameTimes  = errors.New("design: frame times must be increasing with at least two frames")
	ErrRepetitionT = errors.New("design: repetition time must be positive")
)

// DefaultMinOnset is how far before the first frame, in seconds, the
// high-resolution grid starts, so events shortly before the scan still
// contribute their tail.
const DefaultMinOnset = -24.0

// FrameTimes returns the acquisition time of every frame in seconds:
// (i + sliceTimeRef) * tr.
func FrameTimes(tr float64, n int, sliceTimeRef float64) []float64 {
	ft := make([]float64, n)
	for i := range ft {
		ft[i] = (float64(i) + sliceTimeRef) * tr
	}
	return ft
}

// Builder turns trial tables into design matrices for one HRF model.
// A Builder is immutable after construction and safe for concurrent use.
type Builder struct {
	model    hrf.Model
	step     float64
	minOnset float64
	kernels  []hrf.Kernel
}

// Option configures a Builder.
type Option func(*Builder)

// WithStep sets the high-resolution sampling step in seconds.
func WithStep(step float64) Option {
	return func(b *Builder) { b.step = step }
}

// WithMinOnset sets the start of the high-resolution grid relative to the
// first frame.
func WithMinOnset(offset float64) Option {
	return func(b *Builder) { b.minOnset = offset }
}

// NewBuilder samples the kernels of model once and returns a builder.
func NewBuilder(model hrf.Model, opts ...Option) (*Builder, error) {
	if _, err := hrf.ParseModel(string(model)); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnknownHRF, err)
	}

	b := &Builder{model: model, step: hrf.HighResStep, minOnset: DefaultMinOnset}
	for _, opt := range opts {
		opt(b)
	}

	kernels, err := hrf.Kernels(model, b.step)
	if err != nil {
		return nil, fmt.Errorf("design: sampling %s kernels: %w", model, err)
	}
	b.kernels = kernels
	return b, nil
}

// Model returns the HRF model.
func (b *Builder) Model() hrf.Model {
	return b.model
}

// Size returns how many matrices Build produces.
func (b *Builder) Size() int {
	return len(b.kernels)
}

// Build returns one design matrix per kernel of the model. events must
// belong to a single run.
func (b *Builder) Build(tr float64, ft []float64, events Events) ([]*Matrix, error) {
	g, err := b.prepare(tr, ft, events)
	if err != nil {
		return nil, err
	}

	out := make([]*Matrix, len(b.kernels))
	for i, k := range b.kernels {
		m, err := g.convolve(k)
		if err != nil {
			return nil, fmt.Errorf("design: kernel %s: %w", k.Name, err)
		}
		out[i] = m
	}
	return out, nil
}

// BuildIndex returns the design matrix for kernel idx of the model.
func (b *Builder) BuildIndex(tr float64, ft []float64, events Events, idx int) (*Matrix, error) {
	if idx < 0 || idx >= len(b.kernels) {
		return nil, fmt.Errorf("%w: %d not in [0, %d)", ErrHRFIndex, idx, len(b.kernels))
	}
	g, err := b.prepare(tr, ft, events)
	if err != nil {
		return nil, err
	}
	return g.convolve(b.kernels[idx])
}

// grid holds the kernel-independent part of a build: one boxcar per
// condition on the high-resolution grid.
type grid struct {
	frames  []float64
	hr      []float64
	names   []string
	boxcars [][]float64
}

func (b *Builder) prepare(tr float64, ft []float64, events Events) (*grid, error) {
	if !(tr > 0) {
		return nil, fmt.Errorf("%w: %v", ErrRepetitionT, tr)
	}
	if len(ft) < 2 || !sort.Float64sAreSorted(ft) || ft[0] == ft[len(ft)-1] {
		return nil, fmt.Errorf("%w: %d frames", ErrFrameTimes, len(ft))
	}
	if _, err := events.singleRun(); err != nil {
		return nil, err
	}
	if err := events.Validate(); err != nil {
		return nil, err
	}

	hr := b.highResGrid(tr, ft)
	names := events.Conditions()
	boxcars := make([][]float64, len(names))
	for j, name := range names {
		boxcars[j] = boxcar(hr, events, name)
	}
	return &grid{frames: ft, hr: hr, names: names, boxcars: boxcars}, nil
}

// highResGrid spans [ft[0]+minOnset, ft[n-1]*(1+1/(n-1))] with a spacing
// close to the builder step, independent of tr.
func (b *Builder) highResGrid(tr float64, ft []float64) []float64 {
	n := float64(len(ft))
	lo, hi := ft[0], ft[len(ft)-1]
	oversampling := tr / b.step
	end := hi * (1 + 1/(n-1))

	nhr := (n-1)/(hi-lo)*(end-lo-b.minOnset)*oversampling + 1
	return floats.Span(make([]float64, int(math.RoundToEven(nhr))), lo+b.minOnset, end)
}

// boxcar places +modulation at each onset and -modulation at each offset of
// condition and integrates. Zero-duration events last one grid step.
func boxcar(hr []float64, events Events, condition string) []float64 {
	last := len(hr) - 1
	x := make([]float64, len(hr))
	for _, ev := range events {
		if ev.Condition != condition {
			continue
		}
		on := min(sort.SearchFloat64s(hr, ev.Onset), last)
		off := min(sort.SearchFloat64s(hr, ev.Onset+ev.Duration), last)
		if off < last && off == on {
			off++
		}
		x[on] += ev.Modulation
		x[off] -= ev.Modulation
	}
	floats.CumSum(x, x)
	return x
}

// convolve filters every boxcar with k and resamples onto the frames.
func (g *grid) convolve(k hrf.Kernel) (*Matrix, error) {
	n := len(g.frames)
	data := mat.NewDense(n, len(g.names)+1, nil)

	oa, err := conv.NewOverlapAdd(k.Values, 0)
	if err != nil {
		return nil, err
	}
	col := make([]float64, n)
	for j, x := range g.boxcars {
		full, err := oa.Process(x)
		if err != nil {
			return nil, err
		}
		if err := interp.LinearTo(col, g.hr, full[:len(x)], g.frames); err != nil {
			return nil, err
		}
		data.SetCol(j, col)
	}
	for i := range n {
		data.Set(i, len(g.names), 1)
	}

	names := append(append([]string(nil), g.names...), ConstantName)
	return &Matrix{Names: names, Data: data}, nil
}
