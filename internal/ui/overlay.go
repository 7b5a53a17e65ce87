//go:build ebiten

package ui

import (
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// Overlay draws the zone and landmark layers plus the sculpt brush on top
// of the preview. Key 1 toggles zones, key 2 toggles landmarks.
type Overlay struct {
	src       OverlaySource
	showZones bool
	showMarks bool

	layer    *ebiten.Image
	layerKey layerKey

	pixel *ebiten.Image
}

// NewOverlay constructs an overlay with zones shown.
func NewOverlay(src OverlaySource) *Overlay {
	o := &Overlay{src: src, showZones: true}
	o.pixel = ebiten.NewImage(1, 1)
	o.pixel.Fill(color.White)
	return o
}

// Update handles the layer toggles.
func (o *Overlay) Update() {
	if inpututil.IsKeyJustPressed(ebiten.KeyDigit1) {
		o.showZones = !o.showZones
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyDigit2) {
		o.showMarks = !o.showMarks
	}
}

// Draw paints the enabled layers for a w x h frame drawn at scale.
func (o *Overlay) Draw(screen *ebiten.Image, w, h int, scale float64) {
	if o.src == nil || w <= 0 || h <= 0 {
		return
	}
	k := layerKey{gen: o.src.Generation(), w: w, h: h, zones: o.showZones, marks: o.showMarks}
	if k != o.layerKey || o.layer == nil {
		o.rebuild(k)
	}
	if o.layer == nil {
		return
	}
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(scale, scale)
	op.Filter = ebiten.FilterLinear
	screen.DrawImage(o.layer, op)
}

func (o *Overlay) rebuild(k layerKey) {
	o.layerKey = k
	pix := composeLayers(o.src, k)
	if pix == nil {
		o.layer = nil
		return
	}
	if o.layer == nil || o.layer.Bounds().Dx() != k.w || o.layer.Bounds().Dy() != k.h {
		o.layer = ebiten.NewImage(k.w, k.h)
	}
	o.layer.WritePixels(pix)
}

// DrawBrush outlines the sculpt brush at screen position (x, y).
func (o *Overlay) DrawBrush(screen *ebiten.Image, x, y, radius float64) {
	if radius <= 0 {
		return
	}
	col := color.RGBA{R: 255, G: 255, B: 255, A: 180}
	const segments = 48
	px, py := x+radius, y
	for i := 1; i <= segments; i++ {
		a := 2 * math.Pi * float64(i) / segments
		nx, ny := x+radius*math.Cos(a), y+radius*math.Sin(a)
		o.drawLine(screen, px, py, nx, ny, 1, col)
		px, py = nx, ny
	}
	o.drawPoint(screen, x, y, 2, col)
}

func (o *Overlay) drawPoint(screen *ebiten.Image, x, y, size float64, col color.RGBA) {
	if o.pixel == nil || size <= 0 {
		return
	}
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(size, size)
	op.GeoM.Translate(x-size*0.5, y-size*0.5)
	op.ColorScale.ScaleWithColor(col)
	screen.DrawImage(o.pixel, op)
}

func (o *Overlay) drawLine(screen *ebiten.Image, x1, y1, x2, y2, thickness float64, col color.RGBA) {
	if o.pixel == nil || thickness <= 0 {
		return
	}
	dx := x2 - x1
	dy := y2 - y1
	length := math.Hypot(dx, dy)
	if length <= 1e-4 {
		return
	}
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(length, thickness)
	op.GeoM.Translate(0, -thickness/2)
	op.GeoM.Rotate(math.Atan2(dy, dx))
	op.GeoM.Translate(x1, y1)
	op.ColorScale.ScaleWithColor(col)
	screen.DrawImage(o.pixel, op)
}
