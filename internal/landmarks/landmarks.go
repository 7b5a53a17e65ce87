// Package landmarks describes the face-mesh input produced by an external
// detector and provides file-backed detectors for offline use.
package landmarks

import (
	"context"
	"errors"

	"facewarp/pkg/geom"
	"facewarp/pkg/raster"
)

// MeshSize is the number of points in the reference face mesh.
const MeshSize = 468

// ErrNoFace reports that the detector found no face. Callers treat it as a
// normal, non-fatal state.
var ErrNoFace = errors.New("landmarks: no face found")

// Landmark is one normalized mesh coordinate. Z is depth and unused by the warp.
type Landmark struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
}

// Set is an ordered mesh as returned by a detector. A nil Set means no face.
type Set []Landmark

// Valid reports whether index i can be looked up in s.
func (s Set) Valid(i int) bool { return i >= 0 && i < len(s) }

// Pixel returns landmark i in pixel space for a w x h image. The second
// result is false when i is outside the supplied sequence.
func (s Set) Pixel(i, w, h int) (geom.Point, bool) {
	if !s.Valid(i) {
		return geom.Point{}, false
	}
	return geom.Pt(s[i].X*float64(w), s[i].Y*float64(h)), true
}

// Clone returns a copy of s that shares no memory with it.
func (s Set) Clone() Set {
	if s == nil {
		return nil
	}
	return append(Set(nil), s...)
}

// Detector produces a landmark set for an image. Implementations return
// ErrNoFace when no face is present.
type Detector interface {
	Detect(ctx context.Context, img *raster.Image) (Set, error)
}

// Static is a Detector that always returns the same set.
type Static Set

// Detect returns the static set, or ErrNoFace when it is empty.
func (s Static) Detect(ctx context.Context, _ *raster.Image) (Set, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(s) == 0 {
		return nil, ErrNoFace
	}
	return Set(s).Clone(), nil
}
