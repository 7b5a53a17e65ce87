package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"facewarp/internal/app"
)

// NewPreviewCmd opens the interactive preview window. It needs a binary
// built with -tags ebiten.
func NewPreviewCmd() *cobra.Command {
	var src sources
	cfg := app.DefaultConfig()
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Open an interactive window with the HUD and sculpt tool",
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := envFrom(cmd)
			if err != nil {
				return err
			}
			s := env.newSimulator("", nil)
			defer s.Close()

			if _, err := prepare(cmd.Context(), s, src); err != nil {
				return err
			}
			if s.Frame().Image == nil {
				return errors.New("cli: preview needs a photo (--image or a plan with image)")
			}
			s.Request()
			return app.Run(app.New(s, cfg, env.Logger), "facewarp "+s.Session())
		},
	}
	f := cmd.Flags()
	f.StringVarP(&src.plan, "plan", "p", "", "procedure plan (YAML or JSON)")
	f.StringVarP(&src.image, "image", "i", "", "input photo; overrides the plan")
	f.StringVarP(&src.landmarks, "landmarks", "l", "", "landmark file; overrides the plan")
	f.IntVar(&cfg.MaxWidth, "max-width", cfg.MaxWidth, "largest frame width shown")
	f.IntVar(&cfg.MaxHeight, "max-height", cfg.MaxHeight, "largest frame height shown")
	f.IntVar(&cfg.PanelWidth, "panel", cfg.PanelWidth, "HUD panel width")
	f.IntVar(&cfg.RequestRate, "rate", cfg.RequestRate, "max recompute requests per second from the HUD")
	f.StringVar(&cfg.ExportPath, "export", cfg.ExportPath, "PNG written by the E key")
	return cmd
}
