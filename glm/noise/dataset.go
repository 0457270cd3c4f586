package noise

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-bold/glm/design"
	"gonum.org/v1/gonum/mat"
)

var ErrDataset = errors.New("noise: invalid dataset")

// Dataset is the run-concatenated input of selection and denoising.
type Dataset struct {
	// Signal is time x units.
	Signal *mat.Dense
	// Confounds is time x components, most explanatory component first.
	Confounds *mat.Dense
	// RunIdx assigns every row to a 0-based run.
	RunIdx []int
	// TRs holds the repetition time of every run in seconds.
	TRs []float64
	// Events is the trial table; run r owns the events with Run == r+1.
	Events design.Events
}

// Validate checks shapes and run labels.
func (d *Dataset) Validate() error {
	if d.Signal == nil || d.Confounds == nil {
		return fmt.Errorf("%w: signal and confounds are required", ErrDataset)
	}
	rows, _ := d.Signal.Dims()
	if cr, _ := d.Confounds.Dims(); cr != rows {
		return fmt.Errorf("%w: %d signal rows, %d confound rows", ErrDataset, rows, cr)
	}
	if len(d.RunIdx) != rows {
		return fmt.Errorf("%w: %d run labels for %d rows", ErrDataset, len(d.RunIdx), rows)
	}

	counts := make([]int, len(d.TRs))
	for i, r := range d.RunIdx {
		if r < 0 || r >= len(d.TRs) {
			return fmt.Errorf("%w: row %d has run %d, have %d TRs", ErrDataset, i, r, len(d.TRs))
		}
		counts[r]++
	}
	for r, n := range counts {
		if n == 0 {
			return fmt.Errorf("%w: run %d has no rows", ErrDataset, r)
		}
		if !(d.TRs[r] > 0) {
			return fmt.Errorf("%w: run %d TR %v", ErrDataset, r, d.TRs[r])
		}
	}
	return nil
}

// Runs returns the number of runs.
func (d *Dataset) Runs() int {
	return len(d.TRs)
}

// Units returns the number of signal columns.
func (d *Dataset) Units() int {
	_, c := d.Signal.Dims()
	return c
}

// Rows returns the row indices of run r in order.
func (d *Dataset) Rows(r int) []int {
	var idx []int
	for i, label := range d.RunIdx {
		if label == r {
			idx = append(idx, i)
		}
	}
	return idx
}

// Run returns copies of the signal and confound rows of run r and its
// events.
func (d *Dataset) Run(r int) (signal, confounds *mat.Dense, events design.Events) {
	idx := d.Rows(r)
	return copyRows(d.Signal, idx), copyRows(d.Confounds, idx), d.Events.ForRun(r + 1)
}

func copyRows(m *mat.Dense, idx []int) *mat.Dense {
	_, c := m.Dims()
	out := mat.NewDense(len(idx), c, nil)
	for i, r := range idx {
		out.SetRow(i, m.RawRowView(r))
	}
	return out
}

// leading returns a copy of the first k columns of m.
func leading(m *mat.Dense, k int) *mat.Dense {
	r, _ := m.Dims()
	return mat.DenseCopyOf(m.Slice(0, r, 0, k))
}

// columns returns a copy of the given columns of m.
func columns(m *mat.Dense, idx []int) *mat.Dense {
	r, _ := m.Dims()
	out := mat.NewDense(r, len(idx), nil)
	col := make([]float64, r)
	for j, c := range idx {
		out.SetCol(j, mat.Col(col, c, m))
	}
	return out
}

// setColumns writes the columns of src into dst at idx.
func setColumns(dst, src *mat.Dense, idx []int) {
	r, _ := src.Dims()
	col := make([]float64, r)
	for j, c := range idx {
		dst.SetCol(c, mat.Col(col, j, src))
	}
}
