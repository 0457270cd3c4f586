package fit

import (
	"context"
	"fmt"
	"slices"

	"github.com/cwbudde/algo-bold/glm/design"
	"github.com/cwbudde/algo-bold/internal/workpool"
	"gonum.org/v1/gonum/mat"
)

// TrialModel selects how single-trial betas are estimated.
type TrialModel string

const (
	// TrialLSA fits all trials in one model.
	TrialLSA TrialModel = "lsa"
	// TrialLSS fits one model per trial with the other trials pooled.
	TrialLSS TrialModel = "lss"
)

// ParseTrialModel validates a trial model name.
func ParseTrialModel(name string) (TrialModel, error) {
	switch m := TrialModel(name); m {
	case TrialLSA, TrialLSS:
		return m, nil
	default:
		return "", fmt.Errorf("%w: trial model %q", ErrInvalidConfig, name)
	}
}

// Estimates holds per-trial betas of one run.
type Estimates struct {
	// Names labels the rows of Betas.
	Names []string
	// Betas is regressors x units; units not requested stay zero.
	Betas *mat.Dense
	// Groups is the number of (k, HRF) groups fitted.
	Groups int
}

// TrialEstimates fits every group of in and collects the beta of every
// regressor except the intercept and the unmodulated reference.
func (f *Fitter) TrialEstimates(ctx context.Context, in RunInput, model TrialModel) (*Estimates, error) {
	if _, err := ParseTrialModel(string(model)); err != nil {
		return nil, err
	}
	if model == TrialLSS && f.unmodulated != "" {
		return nil, fmt.Errorf("%w: unmodulated orthogonalization cannot be combined with LSS", ErrInvalidConfig)
	}
	keys, groups, err := f.plan(in)
	if err != nil {
		return nil, err
	}

	names := f.trialNames(in.Designs[0])
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: design has no trial regressors", ErrInput)
	}
	_, units := in.Signal.Dims()

	type part struct {
		units []int
		betas *mat.Dense // trials x len(units)
	}
	parts, err := workpool.Map(ctx, len(keys), f.workers, func(_ context.Context, i int) (part, error) {
		key := keys[i]
		members := groups[key]
		x, err := f.Orthogonalize(in.Designs[key.hrf], in.Confounds, key.k, in.TR)
		if err != nil {
			return part{}, fmt.Errorf("fit: k=%d, hrf %d: %w", key.k, key.hrf, err)
		}
		y := selectColumns(in.Signal, members)

		var betas *mat.Dense
		if model == TrialLSA {
			betas, err = f.lsa(y, x, names)
		} else {
			betas, err = f.lss(y, x, names)
		}
		if err != nil {
			return part{}, fmt.Errorf("fit: k=%d, hrf %d: %w", key.k, key.hrf, err)
		}
		return part{units: members, betas: betas}, nil
	})
	if err != nil {
		return nil, err
	}

	out := mat.NewDense(len(names), units, nil)
	col := make([]float64, len(names))
	for _, p := range parts {
		for j, u := range p.units {
			out.SetCol(u, mat.Col(col, j, p.betas))
		}
	}
	f.logger.Info("trial estimates", "model", model, "trials", len(names), "groups", len(keys))
	return &Estimates{Names: names, Betas: out, Groups: len(keys)}, nil
}

// trialNames lists the regressors of d that receive a beta.
func (f *Fitter) trialNames(d *design.Matrix) []string {
	var names []string
	for _, n := range d.Names {
		if n != design.ConstantName && n != f.unmodulated {
			names = append(names, n)
		}
	}
	return names
}

// lsa fits x once and picks the named rows of theta.
func (f *Fitter) lsa(y *mat.Dense, x *design.Matrix, names []string) (*mat.Dense, error) {
	labels, results, err := RunGLM(y, x.Data, f.noiseModel)
	if err != nil {
		return nil, err
	}
	theta, err := ExtractParam(ParamTheta, labels, results, x, ParamOptions{Predictors: true})
	if err != nil {
		return nil, err
	}

	_, units := y.Dims()
	out := mat.NewDense(len(names), units, nil)
	for i, n := range names {
		j := x.Index(n)
		if j < 0 {
			return nil, fmt.Errorf("%w: regressor %q missing", ErrInput, n)
		}
		out.SetRow(i, mat.Row(nil, j, theta))
	}
	return out, nil
}

// lss fits, per trial, [trial, sum of other regressors, intercept].
func (f *Fitter) lss(y *mat.Dense, x *design.Matrix, names []string) (*mat.Dense, error) {
	rows, _ := y.Dims()
	_, units := y.Dims()

	cols := make([][]float64, len(names))
	total := make([]float64, rows)
	for i, n := range names {
		j := x.Index(n)
		if j < 0 {
			return nil, fmt.Errorf("%w: regressor %q missing", ErrInput, n)
		}
		cols[i] = mat.Col(nil, j, x.Data)
		for t, v := range cols[i] {
			total[t] += v
		}
	}

	out := mat.NewDense(len(names), units, nil)
	for i, n := range names {
		others := slices.Clone(total)
		for t, v := range cols[i] {
			others[t] -= v
		}
		m := mat.NewDense(rows, 3, nil)
		m.SetCol(0, cols[i])
		m.SetCol(1, others)
		for t := range rows {
			m.Set(t, 2, 1)
		}
		dm := &design.Matrix{Names: []string{n, "other", design.ConstantName}, Data: m}

		labels, results, err := RunGLM(y, m, f.noiseModel)
		if err != nil {
			return nil, fmt.Errorf("trial %s: %w", n, err)
		}
		theta, err := ExtractParam(ParamTheta, labels, results, dm, ParamOptions{Predictors: true})
		if err != nil {
			return nil, err
		}
		out.SetRow(i, mat.Row(nil, 0, theta))
	}
	return out, nil
}
