package clean

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-bold/stats/series"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

var (
	ErrShapeMismatch = errors.New("clean: row count mismatch")
	ErrDecomposition = errors.New("clean: SVD of confounds failed")
)

// DefaultRankTolerance is the singular value cutoff, relative to the
// largest, below which confound directions are treated as redundant.
const DefaultRankTolerance = 1e-10

type options struct {
	basis                *mat.Dense
	standardize          bool
	standardizeConfounds bool
	rankTol              float64
}

// Option configures Clean.
type Option func(*options)

// WithBasis adds basis columns (for instance a drift basis) to the
// confounds. Basis columns are used as given.
func WithBasis(basis *mat.Dense) Option {
	return func(o *options) { o.basis = basis }
}

// WithStandardize z-scores every output column after projection.
func WithStandardize(on bool) Option {
	return func(o *options) { o.standardize = on }
}

// WithStandardizeConfounds controls whether confound columns are z-scored
// before projection (default true). A z-scored confound set does not
// remove the column means of the target.
func WithStandardizeConfounds(on bool) Option {
	return func(o *options) { o.standardizeConfounds = on }
}

// WithRankTolerance sets the relative singular value cutoff.
func WithRankTolerance(tol float64) Option {
	return func(o *options) { o.rankTol = tol }
}

// Clean returns target with the span of the confounds (and basis) removed
// from every column. With nil confounds, no basis and no standardization
// it returns an unchanged copy. The target is never modified.
func Clean(target, confounds *mat.Dense, opts ...Option) (*mat.Dense, error) {
	o := options{standardizeConfounds: true, rankTol: DefaultRankTolerance}
	for _, opt := range opts {
		opt(&o)
	}

	out := mat.DenseCopyOf(target)
	reg, err := regressors(out, confounds, o)
	if err != nil {
		return nil, err
	}
	if reg != nil {
		q, err := orthonormalBasis(reg, o.rankTol)
		if err != nil {
			return nil, err
		}
		if q != nil {
			var coef, fitted mat.Dense
			coef.Mul(q.T(), out)
			fitted.Mul(q, &coef)
			out.Sub(out, &fitted)
		}
	}

	if o.standardize {
		zscoreInPlace(out)
	}
	return out, nil
}

// regressors stacks [basis | confounds] or returns nil when both are absent.
func regressors(target, confounds *mat.Dense, o options) (*mat.Dense, error) {
	rows, _ := target.Dims()

	var blocks []*mat.Dense
	if o.basis != nil {
		if r, _ := o.basis.Dims(); r != rows {
			return nil, fmt.Errorf("%w: basis has %d rows, target %d", ErrShapeMismatch, r, rows)
		}
		blocks = append(blocks, o.basis)
	}
	if confounds != nil {
		if r, _ := confounds.Dims(); r != rows {
			return nil, fmt.Errorf("%w: confounds have %d rows, target %d", ErrShapeMismatch, r, rows)
		}
		c := confounds
		if o.standardizeConfounds {
			c = mat.DenseCopyOf(confounds)
			zscoreInPlace(c)
		}
		blocks = append(blocks, c)
	}

	switch len(blocks) {
	case 0:
		return nil, nil
	case 1:
		return blocks[0], nil
	}
	var stacked mat.Dense
	stacked.Augment(blocks[0], blocks[1])
	return &stacked, nil
}

// orthonormalBasis returns the left singular vectors spanning the column
// space of reg, or nil if reg is numerically zero.
func orthonormalBasis(reg *mat.Dense, tol float64) (*mat.Dense, error) {
	var svd mat.SVD
	if !svd.Factorize(reg, mat.SVDThin) {
		return nil, ErrDecomposition
	}
	values := svd.Values(nil)
	if len(values) == 0 || values[0] == 0 {
		return nil, nil
	}
	rank := svd.Rank(tol)
	if rank == 0 {
		return nil, nil
	}

	var u mat.Dense
	svd.UTo(&u)
	rows, _ := u.Dims()
	return u.Slice(0, rows, 0, rank).(*mat.Dense), nil
}

// ZScore returns a copy of m with every column at zero mean and unit
// population variance. Constant columns are only centered.
func ZScore(m *mat.Dense) *mat.Dense {
	out := mat.DenseCopyOf(m)
	zscoreInPlace(out)
	return out
}

func zscoreInPlace(m *mat.Dense) {
	_, c := m.Dims()
	for j := range c {
		col := mat.Col(nil, j, m)
		s := series.Calculate(col)
		floats.AddConst(-s.Mean, col)
		if s.Std > 0 {
			floats.Scale(1/s.Std, col)
		}
		m.SetCol(j, col)
	}
}
