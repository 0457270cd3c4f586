package conv

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-bold/internal/testutil"
)

func TestDirect(t *testing.T) {
	tests := []struct {
		name     string
		a        []float64
		b        []float64
		expected []float64
	}{
		{
			name:     "simple 3x3",
			a:        []float64{1, 2, 3},
			b:        []float64{1, 1, 1},
			expected: []float64{1, 3, 6, 5, 3},
		},
		{
			name:     "impulse",
			a:        []float64{1, 2, 3, 4, 5},
			b:        []float64{1},
			expected: []float64{1, 2, 3, 4, 5},
		},
		{
			name:     "delayed impulse",
			a:        []float64{1, 2, 3, 4, 5},
			b:        []float64{0, 0, 1},
			expected: []float64{0, 0, 1, 2, 3, 4, 5},
		},
		{
			name:     "symmetric",
			a:        []float64{1, 2, 1},
			b:        []float64{1, 2, 1},
			expected: []float64{1, 4, 6, 4, 1},
		},
		{
			name:     "vector path",
			a:        []float64{1, 0, 2},
			b:        []float64{1, 2, 3, 4, 5},
			expected: []float64{1, 2, 5, 8, 11, 8, 10},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Direct(tt.a, tt.b)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			testutil.RequireSliceNearlyEqual(t, result, tt.expected, 1e-12)
		})
	}
}

func TestDirectErrors(t *testing.T) {
	_, err := Direct([]float64{}, []float64{1, 2})
	if !errors.Is(err, ErrEmptyInput) {
		t.Errorf("expected ErrEmptyInput, got %v", err)
	}

	_, err = Direct([]float64{1, 2}, []float64{})
	if !errors.Is(err, ErrEmptyKernel) {
		t.Errorf("expected ErrEmptyKernel, got %v", err)
	}
}

func TestOverlapAddMatchesDirect(t *testing.T) {
	signal := testutil.DeterministicNoise(3, 1, 3000)

	// HRF-like kernel: long, smooth, causal.
	kernel := make([]float64, 700)
	for i := range kernel {
		x := float64(i) / 100
		kernel[i] = x * x * math.Exp(-x)
	}

	want, err := Direct(signal, kernel)
	if err != nil {
		t.Fatalf("direct convolution failed: %v", err)
	}

	got, err := OverlapAddConvolve(signal, kernel)
	if err != nil {
		t.Fatalf("overlap-add convolution failed: %v", err)
	}

	diff, err := testutil.MaxAbsDiff(got, want)
	if err != nil {
		t.Fatal(err)
	}
	if diff > 1e-8 {
		t.Errorf("max difference %v exceeds tolerance", diff)
	}
}

func TestOverlapAddProcessToLength(t *testing.T) {
	oa, err := NewOverlapAdd([]float64{1, 2, 3}, 4)
	if err != nil {
		t.Fatal(err)
	}
	if oa.BlockSize() != 4 || oa.KernelLen() != 3 {
		t.Fatalf("unexpected geometry: block=%d kernel=%d", oa.BlockSize(), oa.KernelLen())
	}

	err = oa.ProcessTo(make([]float64, 5), make([]float64, 5))
	if !errors.Is(err, ErrLengthMismatch) {
		t.Fatalf("expected ErrLengthMismatch, got %v", err)
	}

	if _, err := NewOverlapAdd([]float64{1}, -1); !errors.Is(err, ErrInvalidBlockSize) {
		t.Fatalf("expected ErrInvalidBlockSize, got %v", err)
	}
}

func TestConvolveMode(t *testing.T) {
	a := []float64{1, 2, 3, 4, 5}
	b := []float64{1, 2, 3}

	full, _ := ConvolveMode(a, b, ModeFull)
	if len(full) != len(a)+len(b)-1 {
		t.Errorf("full mode length: got %d, expected %d", len(full), len(a)+len(b)-1)
	}

	same, _ := ConvolveMode(a, b, ModeSame)
	if len(same) != len(a) {
		t.Errorf("same mode length: got %d, expected %d", len(same), len(a))
	}

	valid, _ := ConvolveMode(a, b, ModeValid)
	if len(valid) != len(a)-len(b)+1 {
		t.Errorf("valid mode length: got %d, expected %d", len(valid), len(a)-len(b)+1)
	}

	causal, _ := ConvolveMode(a, b, ModeCausal)
	testutil.RequireSliceNearlyEqual(t, causal, []float64{1, 4, 10, 16, 22}, 1e-12)
}

func TestCausalConvolutionHasNoPreOnsetResponse(t *testing.T) {
	train := make([]float64, 500)
	for i := 200; i < 300; i++ {
		train[i] = 1
	}
	kernel := make([]float64, 120)
	for i := range kernel {
		kernel[i] = math.Sin(math.Pi * float64(i) / float64(len(kernel)))
	}

	out, err := ConvolveMode(train, kernel, ModeCausal)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 200; i++ {
		if math.Abs(out[i]) > 1e-9 {
			t.Fatalf("response before onset at %d: %v", i, out[i])
		}
	}
	if out[250] <= 0 {
		t.Fatalf("expected positive response during stimulus, got %v", out[250])
	}
}

func TestDirectMatchesNaiveLoop(t *testing.T) {
	signal := testutil.DeterministicNoise(4, 1, 257)

	for _, m := range []int{1, 3, 4, 7, 16, 33, 64} {
		kernel := testutil.DeterministicNoise(int64(10+m), 1, m)
		want := make([]float64, len(signal)+m-1)
		for i, x := range signal {
			for j, k := range kernel {
				want[i+j] += x * k
			}
		}

		got, err := Direct(signal, kernel)
		if err != nil {
			t.Fatalf("m=%d: %v", m, err)
		}
		testutil.RequireSliceNearlyEqual(t, got, want, 1e-12)
	}
}
