// Package core holds the small contracts shared by the simulator and the
// preview HUD: parameter descriptions and request throttling.
package core

// ParamType enumerates how a parameter value is rendered and edited.
type ParamType string

// Parameter types understood by the HUD.
const (
	ParamTypeInt    ParamType = "int"    // integer, edited in whole steps
	ParamTypeFloat  ParamType = "float"  // decimal, edited in Step increments
	ParamTypeString ParamType = "string" // display only
)

// Parameter is one read-only value shown on the HUD.
type Parameter struct {
	Key   string
	Label string
	Type  ParamType
	Value string
}

// ParameterGroup clusters related parameters under a heading.
type ParameterGroup struct {
	Name    string
	Params  []Parameter
	Summary string
}

// ParameterSnapshot is the full set of values exposed at one moment.
type ParameterSnapshot struct {
	Groups []ParameterGroup
}

// Lookup finds a parameter by key across all groups.
func (s ParameterSnapshot) Lookup(key string) (Parameter, bool) {
	for _, g := range s.Groups {
		for _, p := range g.Params {
			if p.Key == key {
				return p, true
			}
		}
	}
	return Parameter{}, false
}

// ParameterControl describes a HUD-adjustable value. Bounds apply only when
// the matching Has flag is set.
type ParameterControl struct {
	Key   string
	Label string
	Type  ParamType

	Step float64

	Min    float64
	Max    float64
	HasMin bool
	HasMax bool
}

// Clamp bounds v to the control's limits.
func (c ParameterControl) Clamp(v float64) float64 {
	if c.HasMin && v < c.Min {
		v = c.Min
	}
	if c.HasMax && v > c.Max {
		v = c.Max
	}
	return v
}

// ParameterProvider exposes the snapshot shown on the HUD.
type ParameterProvider interface {
	Parameters() ParameterSnapshot
}

// ParameterControlsProvider exposes the HUD-adjustable controls.
type ParameterControlsProvider interface {
	ParameterControls() []ParameterControl
}

// IntParameterSetter updates integer parameters from the HUD.
type IntParameterSetter interface {
	SetIntParameter(key string, value int) bool
}

// FloatParameterSetter updates floating point parameters from the HUD.
type FloatParameterSetter interface {
	SetFloatParameter(key string, value float64) bool
}
