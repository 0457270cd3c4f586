package design

import (
	"fmt"
	"slices"

	"gonum.org/v1/gonum/mat"
)

// ConstantName labels the intercept column.
const ConstantName = "constant"

// Matrix is a design matrix with named columns.
type Matrix struct {
	Names []string
	Data  *mat.Dense
}

// Dims returns the number of frames and regressors.
func (m *Matrix) Dims() (frames, regressors int) {
	return m.Data.Dims()
}

// Clone returns a deep copy.
func (m *Matrix) Clone() *Matrix {
	return &Matrix{Names: slices.Clone(m.Names), Data: mat.DenseCopyOf(m.Data)}
}

// Index returns the column of name, or -1.
func (m *Matrix) Index(name string) int {
	return slices.Index(m.Names, name)
}

// Column returns a copy of the named column.
func (m *Matrix) Column(name string) ([]float64, error) {
	j := m.Index(name)
	if j < 0 {
		return nil, fmt.Errorf("design: no column %q", name)
	}
	return mat.Col(nil, j, m.Data), nil
}

// Select returns a new matrix holding the given columns in order. Data is
// nil when cols is empty, since gonum has no zero-width matrices.
func (m *Matrix) Select(cols []int) *Matrix {
	if len(cols) == 0 {
		return &Matrix{}
	}
	r, _ := m.Data.Dims()
	names := make([]string, len(cols))
	data := mat.NewDense(r, len(cols), nil)
	for dst, src := range cols {
		names[dst] = m.Names[src]
		data.SetCol(dst, mat.Col(nil, src, m.Data))
	}
	return &Matrix{Names: names, Data: data}
}

// DropColumn returns a copy without every column called name.
func (m *Matrix) DropColumn(name string) *Matrix {
	keep := make([]int, 0, len(m.Names))
	for j, n := range m.Names {
		if n != name {
			keep = append(keep, j)
		}
	}
	return m.Select(keep)
}

// WithIntercept returns a copy with any existing intercept removed and a
// fresh all-ones column appended.
func (m *Matrix) WithIntercept() *Matrix {
	r, _ := m.Data.Dims()
	base := m.DropColumn(ConstantName)

	c := len(base.Names)
	data := mat.NewDense(r, c+1, nil)
	if c > 0 {
		data.Slice(0, r, 0, c).(*mat.Dense).Copy(base.Data)
	}
	for i := range r {
		data.Set(i, c, 1)
	}
	return &Matrix{Names: append(base.Names, ConstantName), Data: data}
}
