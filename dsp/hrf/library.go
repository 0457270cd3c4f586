package hrf

import "fmt"

// LibrarySize is the number of kernels in the library model.
const LibrarySize = 20

// Library delays span 4.5 s to 9 s; the undershoot follows at twice the
// delay with the Glover dispersion and ratio.
const (
	libraryMinDelay = 4.5
	libraryMaxDelay = 9.0
)

// LibraryShape returns the parameters of library entry idx.
func LibraryShape(idx int) (GammaDifference, error) {
	if idx < 0 || idx >= LibrarySize {
		return GammaDifference{}, fmt.Errorf("%w: %d not in [0, %d)", ErrIndex, idx, LibrarySize)
	}
	delay := libraryMinDelay + float64(idx)*(libraryMaxDelay-libraryMinDelay)/(LibrarySize-1)
	return GammaDifference{
		Delay:       delay,
		Undershoot:  2 * delay,
		Dispersion:  Glover.Dispersion,
		UDispersion: Glover.UDispersion,
		Ratio:       Glover.Ratio,
	}, nil
}

// LibraryKernel returns library entry idx.
func LibraryKernel(idx int, step float64) (Kernel, error) {
	g, err := LibraryShape(idx)
	if err != nil {
		return Kernel{}, err
	}
	values, err := g.Sample(step)
	if err != nil {
		return Kernel{}, err
	}
	return Kernel{Name: fmt.Sprintf("kay-%02d", idx), Step: sampleSpacing(len(values)), Values: values}, nil
}

// Library returns all library kernels ordered by increasing time-to-peak.
func Library(step float64) ([]Kernel, error) {
	out := make([]Kernel, LibrarySize)
	for i := range out {
		k, err := LibraryKernel(i, step)
		if err != nil {
			return nil, err
		}
		out[i] = k
	}
	return out, nil
}

// ForIndex returns the kernel of model m at idx. Canonical models only
// accept idx 0.
func ForIndex(m Model, idx int, step float64) (Kernel, error) {
	if m.IsLibrary() {
		return LibraryKernel(idx, step)
	}
	if idx != 0 {
		return Kernel{}, fmt.Errorf("%w: %d for canonical model %q", ErrIndex, idx, m)
	}
	return Canonical(m, step)
}
