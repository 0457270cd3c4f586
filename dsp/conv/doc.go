// Package conv provides linear convolution of sampled regressors with
// response kernels.
//
// Two strategies are available:
//
//   - Direct convolution: O(N*M) time-domain convolution, best for short kernels (< 64 samples)
//   - Overlap-add (OLA): FFT-based block convolution for long kernels such as
//     hemodynamic responses sampled at 10 ms
//
// # Usage
//
// For one-shot convolution, use the simple functions:
//
//	result, err := conv.Convolve(signal, kernel)  // Auto-selects best algorithm
//	result, err := conv.Direct(signal, kernel)    // Force direct convolution
//
// A causal response of the same length as the input, the form used when a
// stimulus train is convolved with an HRF, is obtained with [ModeCausal]:
//
//	bold, err := conv.ConvolveMode(train, hrf, conv.ModeCausal)
//
// For repeated convolution with the same kernel, create a reusable convolver:
//
//	c, err := conv.NewOverlapAdd(kernel, blockSize)
//	result, err := c.Process(signal)
//
// # Algorithm Selection
//
// The [Convolve] function selects the algorithm from the shorter input's length:
//   - length <= 64: Direct convolution
//   - length > 64: FFT-based overlap-add
package conv
