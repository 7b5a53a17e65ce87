// Package raster provides the row-major RGBA pixel buffer used as the input
// and output of the warp pipeline.
package raster

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	"math"
)

// ErrSize is returned when a pixel buffer does not match its dimensions.
var ErrSize = errors.New("raster: pixel buffer does not match dimensions")

// Image stores 4 bytes per pixel (R,G,B,A), rows top to bottom.
type Image struct {
	Width, Height int
	Pix           []uint8
}

// New allocates a transparent image with the given dimensions.
func New(w, h int) *Image {
	if w <= 0 {
		w = 1
	}
	if h <= 0 {
		h = 1
	}
	return &Image{Width: w, Height: h, Pix: make([]uint8, 4*w*h)}
}

// FromPix wraps an existing buffer without copying it.
func FromPix(w, h int, pix []uint8) (*Image, error) {
	if w <= 0 || h <= 0 || len(pix) != 4*w*h {
		return nil, fmt.Errorf("%w: %dx%d with %d bytes", ErrSize, w, h, len(pix))
	}
	return &Image{Width: w, Height: h, Pix: pix}, nil
}

// Index returns the offset of the first byte of pixel (x, y).
func (m *Image) Index(x, y int) int { return (y*m.Width + x) * 4 }

// Clone returns a deep copy of m.
func (m *Image) Clone() *Image {
	return &Image{Width: m.Width, Height: m.Height, Pix: append([]uint8(nil), m.Pix...)}
}

// SameSize reports whether o has the same dimensions as m.
func (m *Image) SameSize(o *Image) bool {
	return o != nil && m.Width == o.Width && m.Height == o.Height
}

// Fill paints every pixel with the provided color.
func (m *Image) Fill(r, g, b, a uint8) {
	for i := 0; i < len(m.Pix); i += 4 {
		m.Pix[i+0] = r
		m.Pix[i+1] = g
		m.Pix[i+2] = b
		m.Pix[i+3] = a
	}
}

// At returns the RGBA bytes of pixel (x, y).
func (m *Image) At(x, y int) [4]uint8 {
	i := m.Index(x, y)
	return [4]uint8{m.Pix[i], m.Pix[i+1], m.Pix[i+2], m.Pix[i+3]}
}

// Set writes the RGBA bytes of pixel (x, y).
func (m *Image) Set(x, y int, c [4]uint8) {
	i := m.Index(x, y)
	m.Pix[i+0] = c[0]
	m.Pix[i+1] = c[1]
	m.Pix[i+2] = c[2]
	m.Pix[i+3] = c[3]
}

// Sample bilinearly interpolates the color channels at a fractional
// coordinate. Coordinates outside [0, W-1]x[0, H-1] are clamped to the
// nearest edge. Only R, G and B are written to out.
func (m *Image) Sample(fx, fy float64, out *[4]uint8) {
	maxX := float64(m.Width - 1)
	maxY := float64(m.Height - 1)
	if fx < 0 || math.IsNaN(fx) {
		fx = 0
	} else if fx > maxX {
		fx = maxX
	}
	if fy < 0 || math.IsNaN(fy) {
		fy = 0
	} else if fy > maxY {
		fy = maxY
	}

	x0 := int(fx)
	y0 := int(fy)
	tx := fx - float64(x0)
	ty := fy - float64(y0)
	x1 := x0 + 1
	y1 := y0 + 1
	if x1 >= m.Width {
		x1 = x0
		tx = 0
	}
	if y1 >= m.Height {
		y1 = y0
		ty = 0
	}

	i00 := m.Index(x0, y0)
	i10 := m.Index(x1, y0)
	i01 := m.Index(x0, y1)
	i11 := m.Index(x1, y1)

	w00 := (1 - tx) * (1 - ty)
	w10 := tx * (1 - ty)
	w01 := (1 - tx) * ty
	w11 := tx * ty

	for c := 0; c < 3; c++ {
		v := w00*float64(m.Pix[i00+c]) + w10*float64(m.Pix[i10+c]) + w01*float64(m.Pix[i01+c]) + w11*float64(m.Pix[i11+c])
		if v < 0 {
			v = 0
		} else if v > 255 {
			v = 255
		}
		out[c] = uint8(v + 0.5)
	}
}

// FromImage converts any image.Image into a non-premultiplied RGBA buffer.
func FromImage(src image.Image) *Image {
	b := src.Bounds()
	if n, ok := src.(*image.NRGBA); ok && n.Stride == 4*b.Dx() && b.Min == (image.Point{}) {
		return &Image{Width: b.Dx(), Height: b.Dy(), Pix: append([]uint8(nil), n.Pix...)}
	}
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return &Image{Width: b.Dx(), Height: b.Dy(), Pix: dst.Pix}
}

// NRGBA exposes m as an image.NRGBA sharing the same backing buffer.
func (m *Image) NRGBA() *image.NRGBA {
	return &image.NRGBA{Pix: m.Pix, Stride: 4 * m.Width, Rect: image.Rect(0, 0, m.Width, m.Height)}
}
