package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"facewarp/internal/logging"
	"facewarp/internal/sim"
	"facewarp/pkg/raster"
)

// NewWatchCmd re-renders whenever the plan, photo or landmark file changes.
func NewWatchCmd() *cobra.Command {
	var src sources
	var out string
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-render a plan to a PNG every time its inputs change",
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := envFrom(cmd)
			if err != nil {
				return err
			}
			if err := requireFlag("plan", src.plan); err != nil {
				return err
			}
			if err := requireFlag("out", out); err != nil {
				return err
			}
			ctx := cmd.Context()
			log := env.Logger.Named("watch")

			s := env.newSimulator("", func(f sim.Frame) {
				if err := writeAtomic(out, f.Image); err != nil {
					log.Error("write frame", logging.Err(err))
					return
				}
				log.Info("frame written", logging.String("out", out), logging.Uint64("generation", f.Generation))
			})
			defer s.Close()

			if addr := env.Config.Metrics.Addr; addr != "" {
				stop := serveMetrics(addr, env, log)
				defer stop()
			}

			w, err := newWatcher(s, src, log)
			if err != nil {
				return err
			}
			defer w.close()
			return w.run(ctx)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&src.plan, "plan", "p", "", "procedure plan (YAML or JSON)")
	f.StringVarP(&src.image, "image", "i", "", "input photo; overrides the plan")
	f.StringVarP(&src.landmarks, "landmarks", "l", "", "landmark file; overrides the plan")
	f.StringVarP(&out, "out", "o", "", "output PNG, replaced on every frame")
	return cmd
}

type watcher struct {
	s     *sim.Simulator
	src   sources
	log   logging.Logger
	fs    *fsnotify.Watcher
	files map[string]bool
}

func newWatcher(s *sim.Simulator, src sources, log logging.Logger) (*watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &watcher{s: s, src: src, log: log, fs: fw, files: make(map[string]bool)}, nil
}

func (w *watcher) close() { _ = w.fs.Close() }

// reload reads every input again and schedules a recompute. The watched set
// follows the plan, which may name a different photo after an edit.
func (w *watcher) reload(ctx context.Context) error {
	p, err := prepare(ctx, w.s, w.src)
	if err != nil {
		return err
	}
	resolved := w.src.resolve(p)
	for _, path := range []string{resolved.plan, resolved.image, resolved.landmarks} {
		if path == "" {
			continue
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			return err
		}
		if w.files[abs] {
			continue
		}
		// Editors often replace files, so watch the directory.
		if err := w.fs.Add(filepath.Dir(abs)); err != nil {
			return err
		}
		w.files[abs] = true
	}
	w.s.Request()
	return nil
}

func (w *watcher) relevant(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
		return false
	}
	abs, err := filepath.Abs(ev.Name)
	return err == nil && w.files[abs]
}

func (w *watcher) run(ctx context.Context) error {
	if err := w.reload(ctx); err != nil {
		return err
	}
	w.log.Info("watching", logging.Int("files", len(w.files)))
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if !w.relevant(ev) {
				continue
			}
			w.log.Debug("input changed", logging.String("file", ev.Name))
			if err := w.reload(ctx); err != nil {
				w.log.Warn("reload failed, keeping previous inputs", logging.Err(err))
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error", logging.Err(err))
		}
	}
}

func writeAtomic(path string, img *raster.Image) error {
	tmp := path + ".tmp"
	if err := raster.Save(tmp, img); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func serveMetrics(addr string, env *Env, log logging.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", env.Metrics.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		log.Info("metrics listening", logging.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server", logging.Err(err))
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
