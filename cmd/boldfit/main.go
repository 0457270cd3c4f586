// Command boldfit selects noise components, denoises BOLD time series and
// estimates single-trial responses.
//
// Usage:
//
//	boldfit run --signal signal.tsv --confounds confounds.tsv --events events.tsv \
//	    --run-frames 150,150 --tr 2 --out results/
//	boldfit hrf [model ...]
//	boldfit config
//
// Tables are tab-separated. Signal and confound tables hold one row per
// frame with runs concatenated; lines starting with '#' are ignored. The
// events table has a header naming at least onset, duration, trial_type
// and run; a modulation column is optional.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
