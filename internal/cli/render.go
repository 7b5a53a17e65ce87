package cli

import (
	"time"

	"github.com/spf13/cobra"

	"facewarp/internal/logging"
	"facewarp/pkg/raster"
)

// NewRenderCmd renders one plan to a PNG.
func NewRenderCmd() *cobra.Command {
	var src sources
	var out string
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Warp a photo with a procedure plan and write a PNG",
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := envFrom(cmd)
			if err != nil {
				return err
			}
			if err := requireFlag("out", out); err != nil {
				return err
			}
			s := env.newSimulator("", nil)
			defer s.Close()

			if _, err := prepare(cmd.Context(), s, src); err != nil {
				return err
			}
			start := time.Now()
			img, err := s.Recompute(cmd.Context())
			if err != nil {
				return err
			}
			if err := raster.Save(out, img); err != nil {
				return err
			}
			env.Logger.Info("rendered",
				logging.String("out", out),
				logging.Int("zones", len(s.Assignments())),
				logging.Duration("elapsed", time.Since(start)),
			)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&src.plan, "plan", "p", "", "procedure plan (YAML or JSON)")
	f.StringVarP(&src.image, "image", "i", "", "input photo; overrides the plan")
	f.StringVarP(&src.landmarks, "landmarks", "l", "", "landmark file; overrides the plan")
	f.StringVarP(&out, "out", "o", "", "output PNG")
	return cmd
}
