// Package hrf provides hemodynamic response function kernels.
//
// Kernels are sampled on a fixed high-resolution grid ([HighResStep]) so the
// temporal resolution of a design does not depend on the scanner TR. Every
// kernel is rescaled so its maximum equals [ReferencePeak]; amplitudes
// estimated with different kernels therefore share one scale.
//
// Three models are available:
//
//   - [ModelGlover]: gamma-difference response with the Glover (1999) parameters
//   - [ModelSPM]: gamma-difference response with the SPM parameters
//   - [ModelKay]: a library of [LibrarySize] gamma-difference responses whose
//     time-to-peak spans roughly 3.5 to 8 seconds
//
// # Usage
//
//	kernels, err := hrf.Kernels(hrf.ModelKay, hrf.HighResStep)
//	for i, k := range kernels {
//		fmt.Println(i, k.PeakTime())
//	}
package hrf
