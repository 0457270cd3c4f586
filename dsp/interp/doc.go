// Package interp provides interpolation of sampled signals onto new sample
// positions.
//
// [Linear] evaluates a piecewise-linear interpolant through (xp, fp) at
// arbitrary positions and is used to bring high-resolution regressors down
// to scanner frame times. Positions outside the sampled range are an error,
// never an extrapolation.
package interp
