package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"facewarp/internal/tuning"
)

// NewTuneCmd sweeps grid sizes and reports warp accuracy for each.
func NewTuneCmd() *cobra.Command {
	cfg := tuning.DefaultConfig()
	var tolerance float64
	cmd := &cobra.Command{
		Use:   "tune",
		Short: "Measure grid-size accuracy of the raster warp",
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := envFrom(cmd)
			if err != nil {
				return err
			}
			c := cfg
			if !cmd.Flags().Changed("alpha") {
				c.Alpha = env.Config.Warp.Alpha
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Sweeping %d grid sizes on %dx%d with %d points (%d workers)\n",
				len(c.GridSizes), c.Width, c.Height, c.Points, c.Workers)

			results, err := tuning.Sweep(cmd.Context(), c)
			if err != nil {
				return err
			}
			for _, r := range results {
				fmt.Fprintln(out, r)
			}
			if best, ok := tuning.Best(results, tolerance); ok {
				fmt.Fprintf(out, "\nCoarsest grid within %.2fpx: %d (configured %d)\n", tolerance, best.GridSize, env.Config.Warp.GridSize)
			} else {
				fmt.Fprintf(out, "\nNo grid size within %.2fpx\n", tolerance)
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.IntVar(&cfg.Width, "width", cfg.Width, "frame width")
	f.IntVar(&cfg.Height, "height", cfg.Height, "frame height")
	f.IntVar(&cfg.Points, "points", cfg.Points, "random control points")
	f.Float64Var(&cfg.MaxShift, "shift", cfg.MaxShift, "max displacement per axis in pixels")
	f.Uint64Var(&cfg.Seed, "seed", cfg.Seed, "random seed")
	f.IntSliceVar(&cfg.GridSizes, "grid", cfg.GridSizes, "grid sizes to evaluate")
	f.Float64Var(&cfg.Alpha, "alpha", cfg.Alpha, "MLS weight exponent; defaults to warp.alpha")
	f.IntVar(&cfg.Stride, "stride", cfg.Stride, "pixel stride for the exact reference map")
	f.IntVar(&cfg.Workers, "workers", cfg.Workers, "worker goroutines")
	f.Float64Var(&tolerance, "tolerance", 0.25, "acceptable max error in pixels")
	return cmd
}
