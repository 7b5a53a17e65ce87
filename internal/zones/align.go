package zones

import (
	"math"

	"facewarp/internal/landmarks"
)

const (
	alignPadding  = 1.15
	alignMinRatio = 0.4
)

// Align fits a zone's region to detected landmarks: the centre is the
// centre of the bounding box of the zone's landmarks and the radii are the
// padded half extents, floored at a fraction of the default radii and capped
// by MaxRX/MaxRY. The default region is returned when fewer than two of the
// zone's landmarks are present.
func Align(d Def, set landmarks.Set) Region {
	if len(set) == 0 || len(d.Landmarks) == 0 {
		return d.Region
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	n := 0
	for _, i := range d.Landmarks {
		if !set.Valid(i) {
			continue
		}
		lm := set[i]
		minX = math.Min(minX, lm.X)
		maxX = math.Max(maxX, lm.X)
		minY = math.Min(minY, lm.Y)
		maxY = math.Max(maxY, lm.Y)
		n++
	}
	if n < 2 {
		return d.Region
	}

	rx := math.Max((maxX-minX)/2*alignPadding, d.Region.RX*alignMinRatio)
	ry := math.Max((maxY-minY)/2*alignPadding, d.Region.RY*alignMinRatio)
	rx, ry = d.ClampRadii(rx, ry)
	return Region{
		CX: (minX + maxX) / 2,
		CY: (minY + maxY) / 2,
		RX: rx,
		RY: ry,
	}
}
