// Package skin applies the subtle per-zone smoothing and brightening blend
// that runs on the warped frame.
package skin

import (
	"math"

	"facewarp/internal/zones"
	"facewarp/pkg/raster"
)

const (
	// DefaultMaxBlend caps the blend factor at full intensity.
	DefaultMaxBlend = 0.35
	// DefaultExpand scales the zone radii to get the processed box.
	DefaultExpand = 1.2

	featherStart = 0.5
	brightenGain = 0.12
	maxBlurRad   = 4
)

// Options tunes the blend. The zero value uses the defaults.
type Options struct {
	MaxBlend float64
	Expand   float64
}

func (o Options) normalized() Options {
	if o.MaxBlend <= 0 || o.MaxBlend >= 1 {
		o.MaxBlend = DefaultMaxBlend
	}
	if o.Expand < 1 {
		o.Expand = DefaultExpand
	}
	return o
}

// Zone is one region to treat. Smooth and Brighten weight the two effects
// in [0,1]; Intensity is 0-100.
type Zone struct {
	Region    zones.Region
	Intensity float64
	Smooth    float64
	Brighten  float64
}

// Apply blends every zone into img in place, touching only pixels inside
// each zone's expanded ellipse.
func Apply(img *raster.Image, list []Zone, opts Options) {
	opts = opts.normalized()
	for _, z := range list {
		applyZone(img, z, opts)
	}
}

func applyZone(img *raster.Image, z Zone, opts Options) {
	t := z.Intensity / 100
	if t <= 0 || (z.Smooth <= 0 && z.Brighten <= 0) {
		return
	}
	if t > 1 {
		t = 1
	}
	strength := opts.MaxBlend * t

	cx, cy, rxp, ryp := z.Region.Pixels(img.Width, img.Height)
	rxp *= opts.Expand
	ryp *= opts.Expand
	if rxp <= 0 || ryp <= 0 {
		return
	}
	x0 := clampInt(int(math.Floor(cx-rxp)), 0, img.Width-1)
	x1 := clampInt(int(math.Ceil(cx+rxp)), 0, img.Width-1)
	y0 := clampInt(int(math.Floor(cy-ryp)), 0, img.Height-1)
	y1 := clampInt(int(math.Ceil(cy+ryp)), 0, img.Height-1)
	if x1 < x0 || y1 < y0 {
		return
	}

	radius := clampInt(int(math.Min(rxp, ryp)/20), 1, maxBlurRad)
	box := crop(img, x0-radius, y0-radius, x1+radius, y1+radius)

	smooth := clamp01(z.Smooth)
	bright := clamp01(z.Brighten) * brightenGain
	for y := y0; y <= y1; y++ {
		dy := (float64(y) - cy) / ryp
		for x := x0; x <= x1; x++ {
			dx := (float64(x) - cx) / rxp
			e := math.Sqrt(dx*dx + dy*dy)
			if e >= 1 {
				continue
			}
			blend := strength * (1 - smoothstep(featherStart, 1, e))
			if blend <= 0 {
				continue
			}
			bx, by := x-box.x, y-box.y
			orig := box.img.At(bx, by)
			blur := box.mean(bx, by, radius)

			var out [4]uint8
			for c := 0; c < 3; c++ {
				v := float64(orig[c])
				target := v*(1-smooth) + blur[c]*smooth
				target += (255 - target) * bright
				out[c] = toByte(v*(1-blend) + target*blend)
			}
			out[3] = orig[3]
			img.Set(x, y, out)
		}
	}
}

// window is a copy of part of an image so blurs read pre-blend values.
type window struct {
	img  *raster.Image
	x, y int
}

func crop(src *raster.Image, x0, y0, x1, y1 int) window {
	x0 = clampInt(x0, 0, src.Width-1)
	y0 = clampInt(y0, 0, src.Height-1)
	x1 = clampInt(x1, 0, src.Width-1)
	y1 = clampInt(y1, 0, src.Height-1)
	w := raster.New(x1-x0+1, y1-y0+1)
	for y := y0; y <= y1; y++ {
		copy(w.Pix[w.Index(0, y-y0):w.Index(0, y-y0)+4*w.Width], src.Pix[src.Index(x0, y):src.Index(x1, y)+4])
	}
	return window{img: w, x: x0, y: y0}
}

func (w window) mean(x, y, radius int) [3]float64 {
	var sum [3]float64
	n := 0
	for yy := y - radius; yy <= y+radius; yy++ {
		if yy < 0 || yy >= w.img.Height {
			continue
		}
		for xx := x - radius; xx <= x+radius; xx++ {
			if xx < 0 || xx >= w.img.Width {
				continue
			}
			i := w.img.Index(xx, yy)
			sum[0] += float64(w.img.Pix[i])
			sum[1] += float64(w.img.Pix[i+1])
			sum[2] += float64(w.img.Pix[i+2])
			n++
		}
	}
	if n == 0 {
		return sum
	}
	f := 1 / float64(n)
	return [3]float64{sum[0] * f, sum[1] * f, sum[2] * f}
}

func smoothstep(edge0, edge1, x float64) float64 {
	t := clamp01((x - edge0) / (edge1 - edge0))
	return t * t * (3 - 2*t)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func toByte(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v + 0.5)
}
