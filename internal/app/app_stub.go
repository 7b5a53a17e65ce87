//go:build !ebiten

package app

import (
	"errors"

	"facewarp/internal/logging"
	"facewarp/internal/sim"
)

// ErrNoGUI is returned by Run in builds without the ebiten tag.
var ErrNoGUI = errors.New("app: the preview window requires building with -tags ebiten")

// Game is a placeholder that satisfies the API expected by the GUI build.
type Game struct{}

// New returns a placeholder game in the headless build.
func New(*sim.Simulator, Config, logging.Logger) *Game { return &Game{} }

// WindowSize returns zeros in the headless build.
func (g *Game) WindowSize() (int, int) { return 0, 0 }

// Run always fails in the headless build.
func Run(*Game, string) error { return ErrNoGUI }
