package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/keywell/keywell"
	"github.com/spf13/cobra"
)

func wiringCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "wiring",
		Short: "print the switch-matrix wiring of one half",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			layout, err := keywell.SolveLayout(cfg)
			if err != nil {
				return err
			}
			wiring, err := keywell.DeriveWiring(cfg, layout)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 2, 0, 2, ' ', 0)
			fmt.Fprintf(w, "matrix\t%d rows x %d columns\n", wiring.RowNets, wiring.ColumnNets)
			fmt.Fprintln(w, "key\trow\tcol\tpad x\tpad y")
			for i, key := range wiring.FingerKeys {
				fmt.Fprintf(w, "finger %d\t%d\t%d\t%.2f\t%.2f\n",
					i, key.RowNet, key.ColumnNet, key.Anchor.X, key.Anchor.Y)
			}
			for i, key := range wiring.ThumbKeys {
				fmt.Fprintf(w, "thumb %d\t%d\t%d\t%.2f\t%.2f\n",
					i, key.RowNet, key.ColumnNet, key.Anchor.X, key.Anchor.Y)
			}
			return w.Flush()
		},
	}
}

func infoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "summarize the configured keyboard and its meshing cost",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			layout, err := keywell.SolveLayout(cfg)
			if err != nil {
				return err
			}
			solids, err := keywell.BuildCase(cfg, layout)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "finger keys: %d (%d columns x %d rows)\n",
				layout.FingerKeyCount(), len(layout.Columns), layout.Rows())
			fmt.Fprintf(out, "thumb keys:  %d\n", len(layout.ThumbKeys))
			fmt.Fprintf(out, "resolution:  %.2f mm\n", cfg.Preview.Resolution)
			fmt.Fprintf(out, "field samples per half: %d\n",
				keywell.SampleCount(solids.RightHalf, cfg.Preview.Resolution))
			return nil
		},
	}
}
