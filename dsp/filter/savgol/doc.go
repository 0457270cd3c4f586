// Package savgol implements Savitzky-Golay polynomial smoothing.
//
// Each output sample is the value at the window center of a least-squares
// polynomial fitted to the surrounding window. Interior samples are computed
// as a centered FIR convolution; the first and last half-windows are taken
// from polynomials fitted to the first and last full windows, so the output
// has the input length and no padding artefacts.
//
// Subtracting the smooth from the signal gives a high-pass filter whose
// cutoff is set by the window length:
//
//	f, err := savgol.New(savgol.WindowFor(0.01, 2.0), 2)
//	hp, err := f.HighPass(series)
package savgol
