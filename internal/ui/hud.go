//go:build ebiten

package ui

import (
	"image"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"golang.org/x/image/font/basicfont"
)

// HUD renders the parameter panel to the right of the preview.
type HUD struct {
	params     Params
	width      int
	panel      *ebiten.Image
	lastHeight int

	controls     []controlState
	scroll       int
	panelOffsetX int
	title        string

	pixel *ebiten.Image
}

// NewHUD constructs a HUD for p with the given panel width.
func NewHUD(p Params, title string, width int) *HUD {
	if width < 0 {
		width = 0
	}
	if title == "" {
		title = "Controls"
	}
	h := &HUD{params: p, width: width, title: title}
	if width > 0 {
		h.pixel = ebiten.NewImage(1, 1)
		h.pixel.Fill(color.White)
	}
	if p != nil {
		h.controls = newControlStates(p.ParameterControls())
		layout(h.controls, width)
	}
	return h
}

// Update refreshes values and handles clicks and scrolling. It reports
// whether a parameter changed.
func (h *HUD) Update(panelOffsetX int) bool {
	if h == nil || h.params == nil {
		return false
	}
	h.panelOffsetX = panelOffsetX
	refresh(h.controls, h.params.Parameters())

	mx, my := ebiten.CursorPosition()
	if mx < h.panelOffsetX {
		return false
	}
	if _, dy := ebiten.Wheel(); dy != 0 {
		h.scroll -= int(dy)
		h.clampScroll()
	}
	if !inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		return false
	}
	st, dir := hit(h.controls, mx-h.panelOffsetX, my+h.scroll*lineHeight)
	return adjust(h.params, st, dir)
}

func (h *HUD) clampScroll() {
	limit := len(h.controls) - visibleRows(h.lastHeight)
	if h.scroll > limit {
		h.scroll = limit
	}
	if h.scroll < 0 {
		h.scroll = 0
	}
}

// Draw paints the panel at offsetX with the given height.
func (h *HUD) Draw(screen *ebiten.Image, offsetX, height int) {
	if h == nil || h.width <= 0 || height <= 0 {
		return
	}
	if h.panel == nil || h.lastHeight != height {
		h.panel = ebiten.NewImage(h.width, height)
		h.lastHeight = height
		h.clampScroll()
	}
	h.panel.Fill(color.RGBA{R: 16, G: 16, B: 20, A: 255})
	h.drawControls()
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(float64(offsetX), 0)
	screen.DrawImage(h.panel, op)
}

func (h *HUD) drawControls() {
	face := basicfont.Face7x13
	headerY := panelPadding + headerBaseline
	text.Draw(h.panel, h.title, face, panelPadding, headerY, color.RGBA{R: 200, G: 200, B: 210, A: 255})
	if len(h.controls) == 0 {
		text.Draw(h.panel, "No adjustable parameters", face, panelPadding, headerY+infoSpacing, color.RGBA{R: 160, G: 160, B: 170, A: 255})
		return
	}
	shift := h.scroll * lineHeight
	for i := range h.controls {
		st := &h.controls[i]
		top := st.top - shift
		if top < controlsTop || top+lineHeight > h.lastHeight {
			continue
		}
		labelY := top + labelBaseline
		text.Draw(h.panel, st.control.Label, face, panelPadding, labelY, color.RGBA{R: 220, G: 220, B: 230, A: 255})

		valueColor := color.RGBA{R: 220, G: 220, B: 230, A: 255}
		if !st.hasValue {
			valueColor = color.RGBA{R: 160, G: 160, B: 170, A: 255}
		}
		bounds := text.BoundString(face, st.value)
		valueX := st.minusRect.Min.X - buttonGap - bounds.Dx()
		text.Draw(h.panel, st.value, face, valueX, labelY, valueColor)

		h.drawButton(st.minusRect.Sub(image.Pt(0, shift)), "-", canAdjust(st, -1))
		h.drawButton(st.plusRect.Sub(image.Pt(0, shift)), "+", canAdjust(st, 1))
	}
}

func (h *HUD) drawButton(rect image.Rectangle, label string, enabled bool) {
	if h.pixel == nil {
		return
	}
	bg := color.RGBA{R: 54, G: 56, B: 64, A: 255}
	fg := color.RGBA{R: 230, G: 230, B: 240, A: 255}
	if !enabled {
		bg = color.RGBA{R: 32, G: 34, B: 40, A: 255}
		fg = color.RGBA{R: 120, G: 120, B: 130, A: 255}
	}
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(float64(rect.Dx()), float64(rect.Dy()))
	op.GeoM.Translate(float64(rect.Min.X), float64(rect.Min.Y))
	op.ColorScale.ScaleWithColor(bg)
	h.panel.DrawImage(h.pixel, op)

	face := basicfont.Face7x13
	bounds := text.BoundString(face, label)
	x := rect.Min.X + (rect.Dx()-bounds.Dx())/2
	y := rect.Min.Y + (rect.Dy()-bounds.Dy())/2 + bounds.Dy()
	text.Draw(h.panel, label, face, x, y, fg)
}
