// Package displace turns a zone, its assigned intensity and the detected
// landmarks into control-point pairs for the MLS warp.
package displace

import (
	"math"

	"facewarp/internal/landmarks"
	"facewarp/internal/zones"
	"facewarp/pkg/geom"
)

const (
	// DefaultFalloffReach is the falloff radius as a multiple of the
	// region's larger pixel radius.
	DefaultFalloffReach = 1.5
	// DefaultAnchorSpacing is the distance in pixels between edge anchors.
	DefaultAnchorSpacing = 40

	// maxShare caps any displacement at this fraction of the region's
	// smaller pixel radius.
	maxShare = 0.5
)

// Input is everything the resolver reads for one zone.
type Input struct {
	Def       zones.Def
	Region    zones.Region
	Intensity float64 // 0-100
	Landmarks landmarks.Set
	Width     int
	Height    int
}

// Resolver produces control-point pairs. The zero value uses the defaults.
type Resolver struct {
	FalloffReach  float64
	AnchorSpacing int
}

func (r Resolver) reach() float64 {
	if r.FalloffReach <= 0 {
		return DefaultFalloffReach
	}
	return r.FalloffReach
}

func (r Resolver) spacing() int {
	if r.AnchorSpacing <= 0 {
		return DefaultAnchorSpacing
	}
	return r.AnchorSpacing
}

// Zone returns the displaced landmark pairs for one zone without edge
// anchors, plus how many of the zone's landmark indices were skipped
// because the supplied set is shorter than expected. No landmarks, or a
// zone without landmark indices, yields no pairs.
func (r Resolver) Zone(in Input) (pairs []geom.Pair, skipped int) {
	if len(in.Landmarks) == 0 || len(in.Def.Landmarks) == 0 || in.Width <= 0 || in.Height <= 0 {
		return nil, 0
	}
	t := normalizeIntensity(in.Intensity)
	cx, cy, rxp, ryp := in.Region.Pixels(in.Width, in.Height)
	center := geom.Pt(cx, cy)
	reach := r.reach() * math.Max(rxp, ryp)

	pairs = make([]geom.Pair, 0, len(in.Def.Landmarks))
	for _, idx := range in.Def.Landmarks {
		p, ok := in.Landmarks.Pixel(idx, in.Width, in.Height)
		if !ok {
			skipped++
			continue
		}
		toCenter := center.Sub(p)
		dist := toCenter.Len()
		falloff := 0.0
		if reach > 0 {
			falloff = math.Max(0, 1-dist/reach)
		}
		d := Displacement(in.Def.Behavior, toCenter, falloff, t, rxp, ryp)
		pairs = append(pairs, geom.Pair{From: p, To: p.Add(d)})
	}
	return pairs, skipped
}

// Resolve returns the zone pairs followed by the edge anchors for the image.
func (r Resolver) Resolve(in Input) []geom.Pair {
	pairs, _ := r.Zone(in)
	return append(pairs, EdgeAnchors(in.Width, in.Height, r.spacing())...)
}

// Anchors returns the edge anchor ring using the resolver's spacing.
func (r Resolver) Anchors(w, h int) []geom.Pair {
	return EdgeAnchors(w, h, r.spacing())
}

func normalizeIntensity(v float64) float64 {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	if v >= 100 {
		return 1
	}
	return v / 100
}

// Displacement is the per-behavior displacement of a landmark. toCenter
// points from the landmark to the region centre; falloff and t are in
// [0,1]; rxp and ryp are the region radii in pixels. The result is linear
// in t and its length never exceeds half the smaller radius.
func Displacement(b zones.Behavior, toCenter geom.Point, falloff, t, rxp, ryp float64) geom.Point {
	k := t * falloff
	if k <= 0 {
		return geom.Point{}
	}
	size := math.Max(rxp, ryp)
	outward := toCenter.Unit().Scale(-1)

	var d geom.Point
	switch b {
	case zones.Smooth:
		d = toCenter.Scale(0.06 * k)
	case zones.Lift:
		d = geom.Pt(0, -0.12*k*ryp)
	case zones.Volume:
		d = outward.Scale(0.10 * k * size)
	case zones.Brighten:
		d = geom.Pt(outward.X*0.03*k*rxp, -0.06*k*ryp)
	case zones.Contour:
		d = geom.Pt(toCenter.X*0.15*k, 0)
	case zones.Slim:
		d = toCenter.Scale(0.22 * k)
	}

	limit := maxShare * math.Min(rxp, ryp)
	if l := d.Len(); l > limit && l > 0 {
		d = d.Scale(limit / l)
	}
	return d
}

// EdgeAnchors places zero-displacement pairs every spacing pixels along the
// image border, always including the four corners.
func EdgeAnchors(w, h, spacing int) []geom.Pair {
	if w <= 0 || h <= 0 {
		return nil
	}
	if spacing <= 0 {
		spacing = DefaultAnchorSpacing
	}
	seen := make(map[[2]int]struct{})
	var out []geom.Pair
	add := func(x, y int) {
		key := [2]int{x, y}
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		p := geom.Pt(float64(x), float64(y))
		out = append(out, geom.Pair{From: p, To: p})
	}
	for x := 0; x < w; x += spacing {
		add(x, 0)
		add(x, h-1)
	}
	add(w-1, 0)
	add(w-1, h-1)
	for y := spacing; y < h; y += spacing {
		add(0, y)
		add(w-1, y)
	}
	return out
}
