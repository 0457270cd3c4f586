package interp

import (
	"errors"
	"fmt"
	"sort"
)

// Errors returned by interpolation functions.
var (
	ErrEmpty          = errors.New("interp: empty sample grid")
	ErrLengthMismatch = errors.New("interp: xp and fp length mismatch")
	ErrNotIncreasing  = errors.New("interp: xp must be strictly increasing")
	ErrOutOfRange     = errors.New("interp: position outside sampled range")
)

// Lerp computes 2-point linear interpolation between a and b at frac in [0,1].
func Lerp(a, b, frac float64) float64 {
	return a + frac*(b-a)
}

// Linear evaluates the piecewise-linear interpolant through (xp, fp) at each
// position in x.
func Linear(xp, fp, x []float64) ([]float64, error) {
	out := make([]float64, len(x))
	if err := LinearTo(out, xp, fp, x); err != nil {
		return nil, err
	}
	return out, nil
}

// LinearTo is Linear writing into dst, which must have len(x).
func LinearTo(dst, xp, fp, x []float64) error {
	if len(xp) == 0 {
		return ErrEmpty
	}
	if len(xp) != len(fp) {
		return fmt.Errorf("%w: %d vs %d", ErrLengthMismatch, len(xp), len(fp))
	}
	if len(dst) != len(x) {
		return fmt.Errorf("%w: dst %d vs x %d", ErrLengthMismatch, len(dst), len(x))
	}
	for i := 1; i < len(xp); i++ {
		if xp[i] <= xp[i-1] {
			return fmt.Errorf("%w: xp[%d]=%v <= xp[%d]=%v", ErrNotIncreasing, i, xp[i], i-1, xp[i-1])
		}
	}

	lo, hi := xp[0], xp[len(xp)-1]
	for i, v := range x {
		if v < lo || v > hi {
			return fmt.Errorf("%w: %v not in [%v, %v]", ErrOutOfRange, v, lo, hi)
		}

		// First index with xp[j] >= v.
		j := sort.SearchFloat64s(xp, v)
		if j < len(xp) && xp[j] == v {
			dst[i] = fp[j]
			continue
		}
		frac := (v - xp[j-1]) / (xp[j] - xp[j-1])
		dst[i] = Lerp(fp[j-1], fp[j], frac)
	}
	return nil
}
