// Package render rasterizes the preview overlays (zone ellipses and mesh
// landmarks) into plain RGBA buffers so they can be tested without a window.
package render

import (
	"image"
	"image/color"
	"math"

	xdraw "golang.org/x/image/draw"

	"facewarp/internal/landmarks"
	"facewarp/internal/zones"
	"facewarp/pkg/raster"
)

// groupPalette colours zone outlines by anatomical third.
var groupPalette = map[zones.Group]color.NRGBA{
	zones.GroupUpper:     {R: 90, G: 170, B: 255, A: 220},
	zones.GroupMid:       {R: 120, G: 230, B: 140, A: 220},
	zones.GroupLower:     {R: 255, G: 170, B: 80, A: 220},
	zones.GroupSubmental: {R: 220, G: 120, B: 220, A: 220},
}

var (
	landmarkColor = color.NRGBA{R: 255, G: 64, B: 64, A: 200}
	activeColor   = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
)

// GroupColor returns the outline colour for a zone group.
func GroupColor(g zones.Group) color.NRGBA {
	if c, ok := groupPalette[g]; ok {
		return c
	}
	return color.NRGBA{R: 200, G: 200, B: 200, A: 200}
}

// ZoneOutline is one ellipse to draw.
type ZoneOutline struct {
	Region zones.Region
	Group  zones.Group
	// Active zones carry an assignment and are drawn thicker and brighter.
	Active bool
}

// Zones draws every outline onto a transparent w x h buffer.
func Zones(w, h int, outlines []ZoneOutline) *raster.Image {
	dst := raster.New(w, h)
	for _, z := range outlines {
		cx, cy, rx, ry := z.Region.Pixels(w, h)
		col := GroupColor(z.Group)
		thickness := 1.0
		if z.Active {
			col = blendColors(col, activeColor, 0.5)
			thickness = 2
		}
		Ellipse(dst, cx, cy, rx, ry, thickness, col)
	}
	return dst
}

// Landmarks draws one dot per landmark onto a transparent w x h buffer.
func Landmarks(w, h int, set landmarks.Set, radius float64) *raster.Image {
	dst := raster.New(w, h)
	for i := range set {
		p, ok := set.Pixel(i, w, h)
		if !ok {
			continue
		}
		Dot(dst, p.X, p.Y, radius, landmarkColor)
	}
	return dst
}

// Ellipse strokes an axis-aligned ellipse outline.
func Ellipse(dst *raster.Image, cx, cy, rx, ry, thickness float64, col color.NRGBA) {
	if rx <= 0 || ry <= 0 {
		return
	}
	// Enough steps that adjacent samples are under a pixel apart.
	steps := int(2*math.Pi*math.Max(rx, ry)) + 8
	half := math.Max(thickness, 1) / 2
	for i := 0; i < steps; i++ {
		a := 2 * math.Pi * float64(i) / float64(steps)
		Dot(dst, cx+rx*math.Cos(a), cy+ry*math.Sin(a), half, col)
	}
}

// Dot fills a disc of radius r. Radii below half a pixel diagonal are raised
// so every dot lights at least one pixel.
func Dot(dst *raster.Image, x, y, r float64, col color.NRGBA) {
	x0 := int(math.Floor(x - r))
	x1 := int(math.Ceil(x + r))
	y0 := int(math.Floor(y - r))
	y1 := int(math.Ceil(y + r))
	r2 := math.Max(r*r, 0.5)
	for py := y0; py <= y1; py++ {
		if py < 0 || py >= dst.Height {
			continue
		}
		for px := x0; px <= x1; px++ {
			if px < 0 || px >= dst.Width {
				continue
			}
			dx := float64(px) + 0.5 - x
			dy := float64(py) + 0.5 - y
			if dx*dx+dy*dy > r2 {
				continue
			}
			setPixel(dst, px, py, col)
		}
	}
}

// setPixel writes col over the existing pixel by its alpha.
func setPixel(dst *raster.Image, x, y int, col color.NRGBA) {
	i := dst.Index(x, y)
	base := color.NRGBA{R: dst.Pix[i], G: dst.Pix[i+1], B: dst.Pix[i+2], A: dst.Pix[i+3]}
	out := col
	if base.A != 0 {
		out = blendColors(base, col, float64(col.A)/255)
		out.A = max(base.A, col.A)
	}
	dst.Pix[i+0] = out.R
	dst.Pix[i+1] = out.G
	dst.Pix[i+2] = out.B
	dst.Pix[i+3] = out.A
}

func blendColors(base, over color.NRGBA, w float64) color.NRGBA {
	if w <= 0 {
		return base
	}
	if w >= 1 {
		return over
	}
	inv := 1 - w
	return color.NRGBA{
		R: uint8(float64(base.R)*inv + float64(over.R)*w + 0.5),
		G: uint8(float64(base.G)*inv + float64(over.G)*w + 0.5),
		B: uint8(float64(base.B)*inv + float64(over.B)*w + 0.5),
		A: uint8(float64(base.A)*inv + float64(over.A)*w + 0.5),
	}
}

// Fit scales src down to fit within maxW x maxH, keeping the aspect ratio.
// It returns src itself when it already fits, and the scale factor applied.
func Fit(src *raster.Image, maxW, maxH int) (*raster.Image, float64) {
	if maxW <= 0 || maxH <= 0 || (src.Width <= maxW && src.Height <= maxH) {
		return src, 1
	}
	s := math.Min(float64(maxW)/float64(src.Width), float64(maxH)/float64(src.Height))
	w := max(1, int(math.Round(float64(src.Width)*s)))
	h := max(1, int(math.Round(float64(src.Height)*s)))
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src.NRGBA(), image.Rect(0, 0, src.Width, src.Height), xdraw.Src, nil)
	out, _ := raster.FromPix(w, h, dst.Pix)
	return out, s
}
