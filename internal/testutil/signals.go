package testutil

import (
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// DeterministicNoise generates uniform white noise in [-amplitude, amplitude)
// with a fixed seed for reproducibility.
func DeterministicNoise(seed int64, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	rng := rand.New(rand.NewSource(seed))
	for i := range out {
		out[i] = (rng.Float64()*2 - 1) * amplitude
	}
	return out
}

// DeterministicGaussian generates normal noise with standard deviation sd.
func DeterministicGaussian(seed int64, sd float64, length int) []float64 {
	out := make([]float64, length)
	rng := rand.New(rand.NewSource(seed))
	for i := range out {
		out[i] = rng.NormFloat64() * sd
	}
	return out
}

// GaussianDense returns a rows x cols matrix of seeded standard-normal values.
func GaussianDense(seed int64, rows, cols int) *mat.Dense {
	return mat.NewDense(rows, cols, DeterministicGaussian(seed, 1, rows*cols))
}

// Column returns a copy of column j of m.
func Column(m mat.Matrix, j int) []float64 {
	return mat.Col(nil, j, m)
}

// Ramp returns 0, 1, ..., n-1 scaled by step.
func Ramp(n int, step float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i) * step
	}
	return out
}
