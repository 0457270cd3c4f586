package testutil

import (
	"testing"

	"gonum.org/v1/gonum/stat"
)

func TestDeterministicNoiseRepeatable(t *testing.T) {
	a := DeterministicNoise(7, 0.5, 64)
	b := DeterministicNoise(7, 0.5, 64)
	RequireSliceNearlyEqual(t, a, b, 0)
	for i, v := range a {
		if v < -0.5 || v >= 0.5 {
			t.Fatalf("index %d: %v outside [-0.5, 0.5)", i, v)
		}
	}
}

func TestDeterministicGaussianMoments(t *testing.T) {
	x := DeterministicGaussian(3, 2, 20000)
	mean, sd := stat.MeanStdDev(x, nil)
	if mean < -0.1 || mean > 0.1 {
		t.Fatalf("mean %v, want about 0", mean)
	}
	if sd < 1.9 || sd > 2.1 {
		t.Fatalf("sd %v, want about 2", sd)
	}

	m := GaussianDense(3, 4, 5)
	if r, c := m.Dims(); r != 4 || c != 5 {
		t.Fatalf("dims %dx%d, want 4x5", r, c)
	}
	RequireSliceNearlyEqual(t, Ramp(3, 0.5), []float64{0, 0.5, 1}, 0)
}
