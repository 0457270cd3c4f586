package hrf

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-vecmath"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"
)

const (
	// ReferencePeak is the maximum every kernel is rescaled to.
	ReferencePeak = 0.249007

	// HighResStep is the sampling step of kernels and high-resolution
	// regressors, in seconds.
	HighResStep = 0.01

	// Support is the kernel length in seconds.
	Support = 32.0
)

var (
	ErrUnknownModel = errors.New("hrf: unknown model")
	ErrInvalidStep  = errors.New("hrf: invalid sampling step")
	ErrIndex        = errors.New("hrf: library index out of range")
	ErrDegenerate   = errors.New("hrf: kernel has no positive peak")
)

// Model names an HRF family.
type Model string

const (
	ModelGlover Model = "glover"
	ModelSPM    Model = "spm"
	ModelKay    Model = "kay"
)

// ParseModel validates a model name.
func ParseModel(name string) (Model, error) {
	switch m := Model(name); m {
	case ModelGlover, ModelSPM, ModelKay:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownModel, name)
	}
}

// IsLibrary reports whether the model carries more than one kernel.
func (m Model) IsLibrary() bool {
	return m == ModelKay
}

// Size returns the number of kernels the model provides.
func (m Model) Size() int {
	if m.IsLibrary() {
		return LibrarySize
	}
	return 1
}

// GammaDifference parametrizes a peak gamma minus a scaled undershoot gamma.
// Delay and Undershoot are the shape-times-dispersion of each lobe;
// Dispersion and UDispersion are their scales in seconds.
type GammaDifference struct {
	Delay       float64
	Undershoot  float64
	Dispersion  float64
	UDispersion float64
	Ratio       float64
}

var (
	// SPM is the canonical SPM response.
	SPM = GammaDifference{Delay: 6, Undershoot: 16, Dispersion: 1, UDispersion: 1, Ratio: 0.167}

	// Glover is the Glover (1999) response.
	Glover = GammaDifference{Delay: 6, Undershoot: 12, Dispersion: 0.9, UDispersion: 0.9, Ratio: 0.35}
)

// Sample evaluates the response on linspace(0, Support, rint(Support/step))
// and rescales it to ReferencePeak.
func (g GammaDifference) Sample(step float64) ([]float64, error) {
	if !(step > 0) || step >= Support {
		return nil, fmt.Errorf("%w: %v", ErrInvalidStep, step)
	}

	n := int(math.Round(Support / step))
	if n < 2 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidStep, step)
	}
	peak := distuv.Gamma{Alpha: g.Delay / g.Dispersion, Beta: 1 / g.Dispersion}
	under := distuv.Gamma{Alpha: g.Undershoot / g.UDispersion, Beta: 1 / g.UDispersion}

	out := make([]float64, n)
	spacing := sampleSpacing(n)
	for i := range out {
		// Both lobes start one step after t=0 so the kernel is strictly causal.
		t := float64(i)*spacing - step
		if t <= 0 {
			continue
		}
		out[i] = peak.Prob(t) - g.Ratio*under.Prob(t)
	}

	if err := rescale(out); err != nil {
		return nil, err
	}
	return out, nil
}

// sampleSpacing returns the distance in seconds between neighbouring
// points of an n-point kernel.
func sampleSpacing(n int) float64 {
	return Support / float64(n-1)
}

// rescale scales h in place so max(h) == ReferencePeak.
func rescale(h []float64) error {
	top := floats.Max(h)
	if !(top > 0) {
		return ErrDegenerate
	}
	vecmath.ScaleBlockInPlace(h, ReferencePeak/top)
	return nil
}

// Kernel is a sampled response.
type Kernel struct {
	Name string
	// Step is the sample spacing in seconds, Support/(len(Values)-1).
	Step   float64
	Values []float64
}

// PeakTime returns the time of the kernel maximum in seconds.
func (k Kernel) PeakTime() float64 {
	return float64(floats.MaxIdx(k.Values)) * k.Step
}

// FWHM returns the full width at half maximum of the main lobe in seconds.
func (k Kernel) FWHM() float64 {
	i := floats.MaxIdx(k.Values)
	half := k.Values[i] / 2

	lo := i
	for lo > 0 && k.Values[lo] > half {
		lo--
	}
	hi := i
	for hi < len(k.Values)-1 && k.Values[hi] > half {
		hi++
	}
	return float64(hi-lo) * k.Step
}

// Undershoot returns the time and value of the kernel minimum.
func (k Kernel) Undershoot() (at, value float64) {
	i := floats.MinIdx(k.Values)
	return float64(i) * k.Step, k.Values[i]
}

// Canonical returns the single kernel of a non-library model.
func Canonical(m Model, step float64) (Kernel, error) {
	var g GammaDifference
	switch m {
	case ModelGlover:
		g = Glover
	case ModelSPM:
		g = SPM
	default:
		return Kernel{}, fmt.Errorf("%w: %q is not a canonical model", ErrUnknownModel, m)
	}

	values, err := g.Sample(step)
	if err != nil {
		return Kernel{}, err
	}
	return Kernel{Name: string(m), Step: sampleSpacing(len(values)), Values: values}, nil
}

// Kernels returns every kernel of the model: one for canonical models,
// LibrarySize for the library.
func Kernels(m Model, step float64) ([]Kernel, error) {
	if m.IsLibrary() {
		return Library(step)
	}
	k, err := Canonical(m, step)
	if err != nil {
		return nil, err
	}
	return []Kernel{k}, nil
}
