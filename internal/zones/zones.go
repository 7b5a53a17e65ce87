// Package zones holds the static registry of facial zones: their default
// regions, simulation behavior, and the mesh landmarks that anchor them.
package zones

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned by ByID for an unknown zone id.
var ErrNotFound = errors.New("zones: zone not found")

// Behavior enumerates the geometric effect a zone produces.
type Behavior uint8

// Behaviors, one displacement formula each.
const (
	Smooth   Behavior = iota // relax toward the centre
	Lift                     // pull upward
	Volume                   // push outward radially
	Brighten                 // lift with a slight outward pull
	Contour                  // narrow horizontally
	Slim                     // pull inward on both axes
)

var behaviorNames = [...]string{"smooth", "lift", "volume", "brighten", "contour", "slim"}

// String returns the lowercase tag used in plan files.
func (b Behavior) String() string {
	if int(b) < len(behaviorNames) {
		return behaviorNames[b]
	}
	return fmt.Sprintf("behavior(%d)", uint8(b))
}

// ParseBehavior maps a tag back to its Behavior.
func ParseBehavior(s string) (Behavior, error) {
	for i, name := range behaviorNames {
		if strings.EqualFold(s, name) {
			return Behavior(i), nil
		}
	}
	return 0, fmt.Errorf("zones: unknown behavior %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (b Behavior) MarshalText() ([]byte, error) { return []byte(b.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (b *Behavior) UnmarshalText(text []byte) error {
	v, err := ParseBehavior(string(text))
	if err != nil {
		return err
	}
	*b = v
	return nil
}

// Group is the anatomical third a zone belongs to.
type Group string

// Anatomical groups in registry order.
const (
	GroupUpper     Group = "upper"
	GroupMid       Group = "mid"
	GroupLower     Group = "lower"
	GroupSubmental Group = "submental"
)

// Region is an axis-aligned ellipse in normalized image coordinates.
type Region struct {
	CX float64 `json:"cx" yaml:"cx"`
	CY float64 `json:"cy" yaml:"cy"`
	RX float64 `json:"rx" yaml:"rx"`
	RY float64 `json:"ry" yaml:"ry"`
}

// Pixels returns the centre and radii scaled to a w x h image.
func (r Region) Pixels(w, h int) (cx, cy, rx, ry float64) {
	fw, fh := float64(w), float64(h)
	return r.CX * fw, r.CY * fh, r.RX * fw, r.RY * fh
}

// Def is the static definition of one zone.
type Def struct {
	ID       string   `json:"id" yaml:"id"`
	Name     string   `json:"name" yaml:"name"`
	Group    Group    `json:"group" yaml:"group"`
	Behavior Behavior `json:"behavior" yaml:"behavior"`
	Region   Region   `json:"region" yaml:"region"`
	// MaxRX and MaxRY cap the radii; zero means uncapped.
	MaxRX     float64 `json:"max_rx,omitempty" yaml:"max_rx,omitempty"`
	MaxRY     float64 `json:"max_ry,omitempty" yaml:"max_ry,omitempty"`
	Landmarks []int   `json:"landmarks,omitempty" yaml:"landmarks,omitempty"`
}

// MinRadius is the smallest normalized radius a zone may be resized to.
const MinRadius = 0.005

// ClampRadii bounds rx, ry to [MinRadius, cap].
func (d Def) ClampRadii(rx, ry float64) (float64, float64) {
	rx = clampRadius(rx, d.MaxRX)
	ry = clampRadius(ry, d.MaxRY)
	return rx, ry
}

func clampRadius(r, limit float64) float64 {
	if limit > 0 && r > limit {
		r = limit
	}
	if r < MinRadius {
		r = MinRadius
	}
	return r
}
