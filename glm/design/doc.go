// Package design builds event-related design matrices for BOLD regression.
//
// Each condition of a trial table becomes one regressor: its (onset,
// duration, modulation) tuples are laid out as a boxcar on a 10 ms grid,
// convolved with a hemodynamic response kernel from package hrf and
// linearly resampled onto the scan frame times. A trailing "constant"
// column carries the intercept.
//
// # Usage
//
//	b, err := design.NewBuilder(hrf.ModelGlover)
//	ft := design.FrameTimes(tr, nScans, 0.5)
//	mats, err := b.Build(tr, ft, events.ForRun(1))
//
// A library model (hrf.ModelKay) yields one matrix per library kernel from
// [Builder.Build]; [Builder.BuildIndex] builds a single matrix for a fixed
// library entry.
//
// # Single trials
//
// [SingleTrials] relabels matching events so each trial owns a column, and
// [WithUnmodulated] adds a reference regressor pooling every trial at unit
// modulation.
package design
