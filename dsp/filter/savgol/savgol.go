package savgol

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/cwbudde/algo-bold/dsp/conv"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

var (
	ErrWindow   = errors.New("savgol: window must be odd and larger than the polynomial order")
	ErrOrder    = errors.New("savgol: polynomial order must be >= 0")
	ErrTooShort = errors.New("savgol: input shorter than window")
)

// Filter holds the least-squares projection for one window/order pair.
type Filter struct {
	window int
	order  int
	half   int

	// fit maps a window of samples to polynomial coefficients in
	// window-relative coordinates (-half..half); (order+1) x window.
	fit *mat.Dense

	// center is row 0 of fit reversed, ready for convolution.
	center []float64
}

// WindowFor returns the odd window length, in samples, whose smooth removes
// fluctuations slower than cutoffHz at repetition time tr. Even lengths are
// rounded up to the next odd number.
func WindowFor(cutoffHz, tr float64) int {
	w := int(math.Round(1 / cutoffHz / tr))
	if w%2 == 0 {
		w++
	}
	return w
}

// New creates a filter. window must be odd and greater than order.
func New(window, order int) (*Filter, error) {
	if order < 0 {
		return nil, fmt.Errorf("%w: %d", ErrOrder, order)
	}
	if window%2 == 0 || window <= order {
		return nil, fmt.Errorf("%w: window=%d order=%d", ErrWindow, window, order)
	}

	half := window / 2
	vander := mat.NewDense(window, order+1, nil)
	for i := range window {
		x := float64(i - half)
		p := 1.0
		for j := 0; j <= order; j++ {
			vander.Set(i, j, p)
			p *= x
		}
	}

	eye := mat.NewDiagDense(window, nil)
	for i := range window {
		eye.SetDiag(i, 1)
	}

	var fit mat.Dense
	if err := fit.Solve(vander, eye); err != nil {
		return nil, fmt.Errorf("savgol: least-squares projection: %w", err)
	}

	center := mat.Row(nil, 0, &fit)
	slices.Reverse(center)

	return &Filter{
		window: window,
		order:  order,
		half:   half,
		fit:    &fit,
		center: center,
	}, nil
}

// Window returns the window length.
func (f *Filter) Window() int {
	return f.window
}

// Order returns the polynomial order.
func (f *Filter) Order() int {
	return f.order
}

// Coefficients returns a copy of the interior smoothing coefficients.
func (f *Filter) Coefficients() []float64 {
	c := slices.Clone(f.center)
	slices.Reverse(c)
	return c
}

// Smooth returns the Savitzky-Golay smooth of x.
func (f *Filter) Smooth(x []float64) ([]float64, error) {
	if len(x) < f.window {
		return nil, fmt.Errorf("%w: %d < %d", ErrTooShort, len(x), f.window)
	}

	out, err := conv.ConvolveMode(x, f.center, conv.ModeSame)
	if err != nil {
		return nil, err
	}
	out = slices.Clone(out)

	f.fitEdge(out[:f.half], x[:f.window], 0)
	f.fitEdge(out[len(x)-f.half:], x[len(x)-f.window:], f.half+1)
	return out, nil
}

// fitEdge fits the polynomial to window and evaluates it at the relative
// positions first-half, first-half+1, ... into dst.
func (f *Filter) fitEdge(dst, window []float64, first int) {
	coef := make([]float64, f.order+1)
	for j := range coef {
		coef[j] = mat.Dot(f.fit.RowView(j), mat.NewVecDense(len(window), window))
	}
	for i := range dst {
		x := float64(first + i - f.half)
		v, p := 0.0, 1.0
		for _, c := range coef {
			v += c * p
			p *= x
		}
		dst[i] = v
	}
}

// HighPass returns x minus its smooth.
func (f *Filter) HighPass(x []float64) ([]float64, error) {
	smooth, err := f.Smooth(x)
	if err != nil {
		return nil, err
	}
	return floats.SubTo(make([]float64, len(x)), x, smooth), nil
}
