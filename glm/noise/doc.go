// Package noise chooses, per unit, how many leading confound components to
// regress out of a BOLD signal, and applies that choice.
//
// # Selection
//
// A [Selector] scores every candidate count k = 1..N with cross-validated
// R² and keeps, per unit, the smallest k reaching the best score. A unit
// whose best score is negative gets k = 0 (left undenoised). Two modes
// exist:
//
//   - [ModeSingleTrial] works within each run: the signal of that run is
//     predicted from its first k confounds under repeated K-fold splits.
//   - [ModeGLMDenoise] pools runs: for each k and each HRF of the model,
//     the task design of every run is high-passed and cleaned of its k
//     confounds, the signal is cleaned and z-scored, and the design
//     predicts the signal under leave-one-run-out splits. The winning HRF
//     per unit is reported with the winning k.
//
// Constant units cannot be scored; they get R² = 0 and are flagged in
// [Selection.Excluded].
//
// # Denoising
//
// [Selector.Denoise] partitions units by their selected k, removes the
// first k confounds from each partition, and z-scores every run.
package noise
