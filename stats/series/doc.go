// Package series computes single-pass summary statistics of sampled time
// series, such as the columns of a BOLD signal or a confound matrix.
//
// [Calculate] uses Welford's online update, so the variance of a long,
// offset-heavy series (raw scanner intensities sit around 10^3..10^4) stays
// accurate. [Columns] applies it to every column of a matrix.
//
// The degeneracy checks used by the noise selector are [Stats.Constant] and
// [Stats.AllZero].
package series
