// Package fit estimates single-trial response amplitudes with a GLM whose
// design is cleaned the same way the signal was denoised.
//
// Units of a run are grouped by their selected confound count k (and HRF
// index). For each group the design is copied, optionally orthogonalized
// against an unmodulated reference regressor, high-passed and cleaned of
// the first k confounds, given a fresh intercept and fitted to the group's
// units with [RunGLM]. Groups are produced lazily by [Fitter.Groups];
// [Fitter.TrialEstimates] collects per-trial betas with either one model
// for all trials (LSA) or one model per trial (LSS).
//
// # Noise models
//
// "ols" fits ordinary least squares. "ar1" estimates the lag-1
// autocorrelation of each unit's OLS residuals, truncates it to bins of
// 0.01 and refits every bin on prewhitened data. Results are keyed by bin
// label (the coefficient times 100); OLS uses the single label 0.
package fit
