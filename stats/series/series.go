package series

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Stats holds summary statistics of one series.
type Stats struct {
	Length   int
	Mean     float64
	Variance float64 // population variance
	Std      float64
	Min      float64
	MinPos   int
	Max      float64
	MaxPos   int
	Range    float64 // max - min
	Energy   float64 // sum of squares
	RMS      float64
	Skewness float64
	Kurtosis float64 // excess
}

// Constant reports whether every sample equals the first one.
// An empty series is constant.
func (s Stats) Constant() bool {
	return s.Range == 0
}

// AllZero reports whether every sample is zero.
func (s Stats) AllZero() bool {
	return s.Energy == 0
}

// Calculate computes all statistics in a single pass.
func Calculate(x []float64) Stats {
	n := len(x)
	if n == 0 {
		return Stats{}
	}

	var mean, m2, m3, m4, energy float64
	minVal, maxVal := x[0], x[0]
	var minPos, maxPos int

	for i, v := range x {
		ni := float64(i + 1)
		delta := v - mean
		deltaN := delta / ni
		deltaN2 := deltaN * deltaN
		term1 := delta * deltaN * float64(i)

		// M4 before M3 before M2.
		m4 += term1*deltaN2*(ni*ni-3*ni+3) + 6*deltaN2*m2 - 4*deltaN*m3
		m3 += term1*deltaN*(float64(i)-1) - 3*deltaN*m2
		m2 += term1
		mean += deltaN

		energy += v * v

		if v > maxVal {
			maxVal, maxPos = v, i
		}
		if v < minVal {
			minVal, minPos = v, i
		}
	}

	nf := float64(n)
	variance := m2 / nf
	if maxVal == minVal {
		variance = 0
	}

	var skew, kurt float64
	if variance > 0 {
		skew = (m3 / nf) / (variance * math.Sqrt(variance))
		kurt = (m4/nf)/(variance*variance) - 3
	}

	return Stats{
		Length:   n,
		Mean:     mean,
		Variance: variance,
		Std:      math.Sqrt(variance),
		Min:      minVal,
		MinPos:   minPos,
		Max:      maxVal,
		MaxPos:   maxPos,
		Range:    maxVal - minVal,
		Energy:   energy,
		RMS:      math.Sqrt(energy / nf),
		Skewness: skew,
		Kurtosis: kurt,
	}
}

// MeanStd returns the mean and population standard deviation of x.
func MeanStd(x []float64) (mean, std float64) {
	s := Calculate(x)
	return s.Mean, s.Std
}

// Columns computes Stats for every column of m.
func Columns(m mat.Matrix) []Stats {
	r, c := m.Dims()
	out := make([]Stats, c)
	col := make([]float64, r)
	for j := range c {
		mat.Col(col, j, m)
		out[j] = Calculate(col)
	}
	return out
}

// ConstantColumns returns the indices of constant columns of m.
func ConstantColumns(m mat.Matrix) []int {
	var idx []int
	for j, s := range Columns(m) {
		if s.Constant() {
			idx = append(idx, j)
		}
	}
	return idx
}

// ZeroColumns returns the indices of all-zero columns of m.
func ZeroColumns(m mat.Matrix) []int {
	var idx []int
	for j, s := range Columns(m) {
		if s.AllZero() {
			idx = append(idx, j)
		}
	}
	return idx
}
