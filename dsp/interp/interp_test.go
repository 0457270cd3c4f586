package interp

import (
	"errors"
	"testing"

	"github.com/cwbudde/algo-bold/internal/testutil"
)

func TestLerp(t *testing.T) {
	if got := Lerp(2, 4, 0.25); got != 2.5 {
		t.Fatalf("got %v want 2.5", got)
	}
}

func TestLinearIdentityOnRamp(t *testing.T) {
	xp := []float64{0, 1, 2, 4}
	fp := []float64{0, 2, 4, 8}

	got, err := Linear(xp, fp, []float64{0, 0.5, 1, 3, 4})
	if err != nil {
		t.Fatal(err)
	}
	testutil.RequireSliceNearlyEqual(t, got, []float64{0, 1, 2, 6, 8}, 1e-12)
}

func TestLinearErrors(t *testing.T) {
	tests := []struct {
		name string
		xp   []float64
		fp   []float64
		x    []float64
		want error
	}{
		{"empty", nil, nil, []float64{0}, ErrEmpty},
		{"length", []float64{0, 1}, []float64{0}, []float64{0}, ErrLengthMismatch},
		{"unsorted", []float64{0, 2, 1}, []float64{0, 1, 2}, []float64{0}, ErrNotIncreasing},
		{"below", []float64{0, 1}, []float64{0, 1}, []float64{-0.1}, ErrOutOfRange},
		{"above", []float64{0, 1}, []float64{0, 1}, []float64{1.1}, ErrOutOfRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Linear(tt.xp, tt.fp, tt.x)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}
