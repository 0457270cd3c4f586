// Package cv scores linear models by cross-validated explained variance.
//
// A [Splitter] yields train/test folds; [RepeatedKFold] shuffles timepoints
// within one run and [LeaveOneGroupOut] holds out one whole run per fold.
// [CrossValR2] fits an [Estimator] on every fold and pools the held-out
// error over all folds before forming R², so folds with little variance do
// not dominate the score:
//
//	R² = 1 - Σ_folds Σ_test (y - ŷ)² / Σ_folds Σ_test (y - mean_train(y))²
//
// [LinearRegression] is the estimator used throughout: ordinary least
// squares without an implicit intercept, solved by SVD so rank-deficient
// predictors get the minimum-norm solution.
package cv
