//go:build ebiten

package app

import (
	"errors"
	"fmt"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"facewarp/internal/core"
	"facewarp/internal/logging"
	"facewarp/internal/render"
	"facewarp/internal/sculpt"
	"facewarp/internal/sim"
	"facewarp/internal/ui"
	"facewarp/pkg/geom"
	"facewarp/pkg/raster"
)

// Game adapts a Simulator to the ebiten.Game interface.
type Game struct {
	s        *sim.Simulator
	cfg      Config
	log      logging.Logger
	hud      *ui.HUD
	overlay  *ui.Overlay
	throttle *core.Throttle

	view   viewport
	tex    *ebiten.Image
	shown  *raster.Image
	frameW int
	frameH int

	sculpt   *sculpt.Session
	dirty    bool
	dragging bool
	last     geom.Point
	note     string
}

// New constructs a Game for s. The frame size is fixed by the loaded photo.
func New(s *sim.Simulator, cfg Config, log logging.Logger) *Game {
	if log == nil {
		log = logging.NewNop()
	}
	g := &Game{
		s:        s,
		cfg:      cfg,
		log:      log.Named("preview"),
		hud:      ui.NewHUD(s, "Zones", cfg.PanelWidth),
		overlay:  ui.NewOverlay(simSource{s}),
		throttle: core.NewThrottle(cfg.RequestRate),
	}
	if f := s.Frame().Image; f != nil {
		g.frameW, g.frameH = f.Width, f.Height
		g.view = fitView(f.Width, f.Height, cfg.MaxWidth, cfg.MaxHeight)
	}
	return g
}

// WindowSize is the window size that fits the frame and the HUD panel.
func (g *Game) WindowSize() (int, int) {
	return g.view.w + g.cfg.PanelWidth, g.view.h
}

// Update handles input and schedules recomputes.
func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyQ) || inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	g.overlay.Update()
	if inpututil.IsKeyJustPressed(ebiten.KeyS) {
		g.toggleSculpt()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyE) {
		g.export()
	}
	if g.sculpt != nil {
		g.updateSculpt()
		return nil
	}
	if g.hud.Update(g.view.w) {
		if g.throttle.Trigger() {
			g.s.Request()
		}
	} else if g.throttle.Flush() {
		g.s.Request()
	}
	return nil
}

func (g *Game) toggleSculpt() {
	if g.sculpt == nil {
		sess, err := g.s.ActivateSculpt()
		if err != nil {
			g.setNote("sculpt: %v", err)
			return
		}
		g.sculpt = sess
		g.dirty = true
		return
	}
	if _, err := g.s.DeactivateSculpt(); err != nil {
		g.setNote("sculpt: %v", err)
	}
	g.sculpt = nil
	g.dragging = false
}

func (g *Game) updateSculpt() {
	sess := g.sculpt
	if inpututil.IsKeyJustPressed(ebiten.KeyT) {
		sess.SetTool(sess.Tool().Next())
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyBracketLeft) {
		sess.SetBrushSize(sess.BrushSize() * 0.8)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyBracketRight) {
		sess.SetBrushSize(sess.BrushSize() * 1.25)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyZ) && sess.Undo() {
		g.dirty = true
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyBackspace) {
		sess.Reset()
		g.dirty = true
	}

	mx, my := ebiten.CursorPosition()
	pressed := ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft)
	switch {
	case !pressed || !g.view.inside(mx, my):
		g.dragging = false
	case !g.dragging:
		g.dragging = true
		g.last = g.view.toFrame(mx, my)
	default:
		p := g.view.toFrame(mx, my)
		if p == g.last {
			return
		}
		if err := sess.Stroke(g.last, p); err != nil {
			g.setNote("stroke: %v", err)
			return
		}
		g.last = p
		g.dirty = true
	}
}

func (g *Game) export() {
	path := g.cfg.ExportPath
	f, err := os.Create(path)
	if err != nil {
		g.setNote("export: %v", err)
		return
	}
	err = g.s.Export(f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		g.setNote("export: %v", err)
		return
	}
	g.log.Info("exported frame", logging.String("path", path))
	g.note = "exported " + path
}

func (g *Game) setNote(format string, args ...any) {
	g.note = fmt.Sprintf(format, args...)
	g.log.Warn(g.note)
}

// Draw renders the frame, overlays and the HUD panel.
func (g *Game) Draw(screen *ebiten.Image) {
	g.refreshTexture()
	if g.tex != nil {
		screen.DrawImage(g.tex, nil)
	}
	g.overlay.Draw(screen, g.frameW, g.frameH, g.view.scale)
	if g.sculpt != nil {
		mx, my := ebiten.CursorPosition()
		if g.view.inside(mx, my) {
			g.overlay.DrawBrush(screen, float64(mx), float64(my), g.sculpt.BrushSize()*g.view.scale)
		}
	}
	g.hud.Draw(screen, g.view.w, g.view.h)
	ebitenutil.DebugPrintAt(screen, g.status().String(), 4, 4)
}

// refreshTexture uploads the visible frame when it changed.
func (g *Game) refreshTexture() {
	var img *raster.Image
	if g.sculpt != nil {
		if !g.dirty && g.tex != nil {
			return
		}
		img = g.sculpt.Image()
		g.dirty = false
	} else {
		img = g.s.Frame().Image
		if img == nil || (img == g.shown && g.tex != nil) {
			return
		}
		g.shown = img
	}
	fit, _ := render.Fit(img, g.view.w, g.view.h)
	if g.tex == nil || g.tex.Bounds().Dx() != fit.Width || g.tex.Bounds().Dy() != fit.Height {
		g.tex = ebiten.NewImage(fit.Width, fit.Height)
	}
	g.tex.WritePixels(fit.Pix)
}

func (g *Game) status() status {
	st := status{
		sculpting: g.sculpt != nil,
		gen:       g.s.Generation(),
		frameGen:  g.s.Frame().Generation,
		note:      g.note,
	}
	if g.sculpt != nil {
		st.tool = g.sculpt.Tool().String()
		st.brush = g.sculpt.BrushSize()
		st.undo = g.sculpt.UndoDepth()
	}
	return st
}

// Layout returns the logical screen size.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.WindowSize()
}

// Run opens the window and blocks until it is closed.
func Run(g *Game, title string) error {
	w, h := g.WindowSize()
	ebiten.SetWindowTitle(title)
	ebiten.SetWindowSize(w, h)
	if err := ebiten.RunGame(g); err != nil && !errors.Is(err, ebiten.Termination) {
		return err
	}
	return nil
}
