package noise

import (
	"context"
	"fmt"
	"math"
	"slices"

	"github.com/cwbudde/algo-bold/glm/clean"
	"github.com/cwbudde/algo-bold/internal/workpool"
	"github.com/cwbudde/algo-bold/stats/series"
	"gonum.org/v1/gonum/mat"
)

// zeroTol is the magnitude below which a unit counts as having no signal.
const zeroTol = 1e-8

// Partition groups units by key, skipping units for which skip returns
// true. Keys are returned in increasing order.
func Partition(keys []int, skip func(unit int) bool) (order []int, groups map[int][]int) {
	groups = map[int][]int{}
	for unit, k := range keys {
		if skip != nil && skip(unit) {
			continue
		}
		groups[k] = append(groups[k], unit)
	}
	for k := range groups {
		order = append(order, k)
	}
	slices.Sort(order)
	return order, groups
}

// Denoise removes, from every unit of every run, the first optNComps[run][unit]
// confounds of that run and z-scores each run. Units at 0 components or
// without signal are only z-scored. The result is a new run-concatenated
// matrix shaped like ds.Signal.
func (s *Selector) Denoise(ctx context.Context, ds *Dataset, optNComps [][]int) (*mat.Dense, error) {
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	if len(optNComps) != ds.Runs() {
		return nil, fmt.Errorf("%w: %d component rows for %d runs", ErrInvalidConfig, len(optNComps), ds.Runs())
	}
	_, nConf := ds.Confounds.Dims()
	for r, opt := range optNComps {
		if len(opt) != ds.Units() {
			return nil, fmt.Errorf("%w: run %d has %d counts for %d units", ErrInvalidConfig, r, len(opt), ds.Units())
		}
		for _, k := range opt {
			if k < 0 || k > nConf {
				return nil, fmt.Errorf("%w: count %d with %d confounds", ErrTooManyComps, k, nConf)
			}
		}
	}

	cleaned, err := workpool.Map(ctx, ds.Runs(), s.workers, func(_ context.Context, run int) (*mat.Dense, error) {
		out, err := denoiseRun(ds, run, optNComps[run])
		if err != nil {
			return nil, fmt.Errorf("noise: denoising run %d: %w", run, err)
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}

	rows, cols := ds.Signal.Dims()
	out := mat.NewDense(rows, cols, nil)
	for run, m := range cleaned {
		for i, row := range ds.Rows(run) {
			out.SetRow(row, m.RawRowView(i))
		}
	}
	s.logger.Info("denoised", "runs", ds.Runs(), "units", cols)
	return out, nil
}

func denoiseRun(ds *Dataset, run int, opt []int) (*mat.Dense, error) {
	signal, conf, _ := ds.Run(run)
	stats := series.Columns(signal)

	order, groups := Partition(opt, func(unit int) bool {
		st := stats[unit]
		return opt[unit] == 0 || math.Max(math.Abs(st.Max), math.Abs(st.Min)) <= zeroTol
	})
	for _, k := range order {
		units := groups[k]
		part, err := clean.Clean(columns(signal, units), leading(conf, k))
		if err != nil {
			return nil, fmt.Errorf("k=%d: %w", k, err)
		}
		setColumns(signal, part, units)
	}
	return clean.ZScore(signal), nil
}
