package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/cwbudde/algo-bold/dsp/hrf"
	"github.com/spf13/cobra"
)

var models = []hrf.Model{hrf.ModelGlover, hrf.ModelSPM, hrf.ModelKay}

func newHRFCmd() *cobra.Command {
	var step float64
	cmd := &cobra.Command{
		Use:   "hrf [model ...]",
		Short: "Print shape properties of the HRF kernels",
		Long:  "Prints peak time, width and undershoot of every kernel of the named models, or of all models.",
		RunE: func(cmd *cobra.Command, args []string) error {
			selected := models
			if len(args) > 0 {
				selected = nil
				for _, a := range args {
					m, err := hrf.ParseModel(strings.ToLower(strings.TrimSpace(a)))
					if err != nil {
						return err
					}
					selected = append(selected, m)
				}
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(tw, "Kernel\tSamples\tPeak [s]\tFWHM [s]\tUndershoot [s]\tUndershoot\n")
			fmt.Fprintf(tw, "------\t-------\t--------\t--------\t--------------\t----------\n")
			for _, m := range selected {
				kernels, err := hrf.Kernels(m, step)
				if err != nil {
					return err
				}
				for _, k := range kernels {
					at, v := k.Undershoot()
					fmt.Fprintf(tw, "%s\t%d\t%.2f\t%.2f\t%.2f\t%.5f\n",
						k.Name, len(k.Values), k.PeakTime(), k.FWHM(), at, v)
				}
			}
			return tw.Flush()
		},
	}
	cmd.Flags().Float64Var(&step, "step", hrf.HighResStep, "sampling step in seconds")
	return cmd
}
