// Package clean removes nuisance structure from the columns of a matrix.
//
// [Clean] regresses out a set of confound columns, optionally together with
// a drift basis, from every column of a target matrix by orthogonal
// projection. The target may be a BOLD signal (time x units) or a design
// matrix (time x regressors); each target column is treated independently.
//
// [HighPass] removes slow drift with either a discrete cosine basis
// ([DCTBasis]) or a Savitzky-Golay smooth, and [ZScore] standardizes
// columns.
package clean
