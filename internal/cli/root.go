// Package cli wires the facewarp cobra commands.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"facewarp/internal/config"
	"facewarp/internal/landmarks"
	"facewarp/internal/logging"
	"facewarp/internal/metrics"
	"facewarp/internal/plan"
	"facewarp/internal/sim"
	"facewarp/pkg/raster"
)

// Version is injected at build time.
var Version = "dev"

type envKey struct{}

// Env carries the loaded configuration and shared dependencies through the
// command tree.
type Env struct {
	Config  *config.Config
	Logger  logging.Logger
	Metrics *metrics.Metrics
}

type rootOptions struct {
	configPath string
	logLevel   string
}

// NewRootCommand builds the facewarp command tree.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "facewarp",
		Short:         "Preview facial harmonization procedures on a photo",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			env, err := newEnv(opts)
			if err != nil {
				return err
			}
			cmd.SetContext(context.WithValue(cmd.Context(), envKey{}, env))
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if env, err := envFrom(cmd); err == nil {
				_ = env.Logger.Sync()
			}
		},
	}
	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.configPath, "config", "c", "", "config file (YAML)")
	pf.StringVar(&opts.logLevel, "log-level", "", "override log.level (debug, info, warn, error)")

	cmd.AddCommand(
		NewZonesCmd(),
		NewRenderCmd(),
		NewWatchCmd(),
		NewTuneCmd(),
		NewRecordsCmd(),
		NewPreviewCmd(),
	)
	return cmd
}

// Execute runs the root command with ctx.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

func newEnv(opts *rootOptions) (*Env, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}
	log, err := logging.NewLogger(cfg.Log)
	if err != nil {
		return nil, err
	}
	return &Env{Config: cfg, Logger: log, Metrics: metrics.New()}, nil
}

func envFrom(cmd *cobra.Command) (*Env, error) {
	if ctx := cmd.Context(); ctx != nil {
		if env, ok := ctx.Value(envKey{}).(*Env); ok {
			return env, nil
		}
	}
	return nil, errors.New("cli: command environment not initialised")
}

// newSimulator builds a Simulator from the loaded settings.
func (e *Env) newSimulator(session string, onFrame func(sim.Frame)) *sim.Simulator {
	opts := sim.OptionsFromConfig(e.Config)
	opts.Logger = e.Logger
	opts.Metrics = e.Metrics
	opts.Session = session
	opts.OnFrame = onFrame
	return sim.New(opts)
}

// sources names the inputs of a run; flags take precedence over the plan.
type sources struct {
	plan      string
	image     string
	landmarks string
	// planOnly skips the photo and landmarks.
	planOnly bool
}

func (src sources) resolve(p *plan.Plan) sources {
	if src.image == "" && p != nil {
		src.image = p.Image
	}
	if src.landmarks == "" && p != nil {
		src.landmarks = p.Landmarks
	}
	return src
}

// prepare loads the photo, landmarks and plan into s.
func prepare(ctx context.Context, s *sim.Simulator, src sources) (*plan.Plan, error) {
	p := &plan.Plan{}
	if src.plan != "" {
		var err error
		if p, err = plan.Load(src.plan); err != nil {
			return nil, err
		}
	}
	src = src.resolve(p)
	if src.image != "" && !src.planOnly {
		img, err := raster.Load(src.image)
		if err != nil {
			return nil, err
		}
		if err := s.LoadImage(img); err != nil {
			return nil, err
		}
		if src.landmarks != "" {
			if err := s.Analyze(ctx, landmarks.File{Path: src.landmarks}); err != nil {
				return nil, err
			}
		}
	}
	if err := p.Apply(s); err != nil {
		return nil, err
	}
	return p, nil
}

func requireFlag(name, value string) error {
	if value == "" {
		return fmt.Errorf("cli: --%s is required", name)
	}
	return nil
}
