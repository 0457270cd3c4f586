package fit

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-bold/glm/design"
	"gonum.org/v1/gonum/mat"
)

var (
	ErrIncompatibleOutputs = errors.New("fit: time-series and per-predictor outputs are mutually exclusive")
	ErrUnknownParam        = errors.New("fit: unknown result parameter")
	ErrParamShape          = errors.New("fit: parameter shape does not match the requested output")
	ErrMissingLabel        = errors.New("fit: no results for label")
)

// Param names a field of Results.
type Param string

const (
	ParamTheta      Param = "theta"
	ParamResiduals  Param = "residuals"
	ParamPredicted  Param = "predicted"
	ParamDispersion Param = "dispersion"
	ParamR2         Param = "r2"
)

// ParamOptions selects the shape of a Param extraction.
type ParamOptions struct {
	// TimeSeries extracts a time x units parameter.
	TimeSeries bool
	// Predictors extracts a predictors x units parameter.
	Predictors bool
}

// ExtractParam gathers a parameter from per-label results back into unit
// order. The result is time x units, predictors x units, or 1 x units for
// per-unit scalars.
func ExtractParam(name Param, labels []int, results map[int]*Results, d *design.Matrix, opts ParamOptions) (*mat.Dense, error) {
	if opts.TimeSeries && opts.Predictors {
		return nil, ErrIncompatibleOutputs
	}
	frames, predictors := d.Dims()
	rows := 1
	switch {
	case opts.TimeSeries:
		rows = frames
	case opts.Predictors:
		rows = predictors
	}

	out := mat.NewDense(rows, len(labels), nil)
	for _, label := range uniqueSorted(labels) {
		res, ok := results[label]
		if !ok {
			return nil, fmt.Errorf("%w %d", ErrMissingLabel, label)
		}
		src, err := paramOf(res, name)
		if err != nil {
			return nil, err
		}
		if r, _ := src.Dims(); r != rows {
			return nil, fmt.Errorf("%w: %s has %d rows, want %d", ErrParamShape, name, r, rows)
		}

		col := make([]float64, rows)
		for j, unit := range indicesOf(labels, label) {
			out.SetCol(unit, mat.Col(col, j, src))
		}
	}
	return out, nil
}

func paramOf(r *Results, name Param) (*mat.Dense, error) {
	switch name {
	case ParamTheta:
		return r.Theta, nil
	case ParamResiduals:
		return r.Residuals, nil
	case ParamPredicted:
		return r.Predicted, nil
	case ParamDispersion:
		return mat.NewDense(1, len(r.Dispersion), r.Dispersion), nil
	case ParamR2:
		return mat.NewDense(1, len(r.R2), r.R2), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownParam, name)
	}
}
