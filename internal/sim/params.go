package sim

import (
	"strconv"
	"strings"

	"facewarp/internal/core"
)

const (
	keyGridSize   = "warp.grid_size"
	keyAlpha      = "warp.alpha"
	intensityPfx  = "zone."
	intensitySfx  = ".intensity"
	maxHUDGrid    = 32
	intensityStep = 5
)

// IntensityKey is the HUD parameter key for a zone's intensity.
func IntensityKey(zoneID string) string { return intensityPfx + zoneID + intensitySfx }

func zoneFromKey(key string) (string, bool) {
	if !strings.HasPrefix(key, intensityPfx) || !strings.HasSuffix(key, intensitySfx) {
		return "", false
	}
	id := strings.TrimSuffix(strings.TrimPrefix(key, intensityPfx), intensitySfx)
	return id, id != ""
}

// Parameters describes the current state for the HUD.
func (s *Simulator) Parameters() core.ParameterSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	session := []core.Parameter{
		stringParam("session", "Session", s.session),
		uintParam("generation", "Generation", s.gen),
		uintParam("frame", "Frame generation", s.frame.Generation),
		intParam("landmarks", "Landmarks", len(s.lm)),
	}
	if s.original != nil {
		session = append(session,
			intParam("width", "Width", s.original.Width),
			intParam("height", "Height", s.original.Height))
	}

	var zoneParams []core.Parameter
	for _, d := range s.defs {
		a, ok := s.assign[d.ID]
		if !ok {
			continue
		}
		zoneParams = append(zoneParams, floatParam(IntensityKey(d.ID), d.Name+" ("+a.Procedure.String()+")", a.Intensity))
	}

	return core.ParameterSnapshot{Groups: []core.ParameterGroup{
		{Name: "Session", Params: session},
		{Name: "Warp", Params: []core.Parameter{
			intParam(keyGridSize, "Grid size", s.warp.GridSize),
			floatParam(keyAlpha, "Weight falloff", s.warp.Alpha),
		}},
		{Name: "Zones", Params: zoneParams, Summary: strconv.Itoa(len(zoneParams)) + " assigned"},
	}}
}

// ParameterControls lists the HUD adjustable values: the grid size and the
// intensity of every assigned zone.
func (s *Simulator) ParameterControls() []core.ParameterControl {
	s.mu.Lock()
	defer s.mu.Unlock()
	controls := []core.ParameterControl{{
		Key: keyGridSize, Label: "Grid size", Type: core.ParamTypeInt,
		Step: 1, Min: 1, Max: maxHUDGrid, HasMin: true, HasMax: true,
	}}
	for _, d := range s.defs {
		if _, ok := s.assign[d.ID]; !ok {
			continue
		}
		controls = append(controls, core.ParameterControl{
			Key: IntensityKey(d.ID), Label: d.Name, Type: core.ParamTypeFloat,
			Step: intensityStep, Min: 0, Max: 100, HasMin: true, HasMax: true,
		})
	}
	return controls
}

// SetIntParameter implements core.IntParameterSetter.
func (s *Simulator) SetIntParameter(key string, value int) bool {
	if key != keyGridSize || value < 1 || value > maxHUDGrid {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.warp.GridSize == value {
		return false
	}
	s.warp.GridSize = value
	s.gen++
	return true
}

// SetFloatParameter implements core.FloatParameterSetter.
func (s *Simulator) SetFloatParameter(key string, value float64) bool {
	id, ok := zoneFromKey(key)
	if !ok {
		return false
	}
	return s.SetIntensity(id, value) == nil
}

func stringParam(key, label, value string) core.Parameter {
	return core.Parameter{Key: key, Label: label, Type: core.ParamTypeString, Value: value}
}

func intParam(key, label string, value int) core.Parameter {
	return core.Parameter{Key: key, Label: label, Type: core.ParamTypeInt, Value: strconv.Itoa(value)}
}

func uintParam(key, label string, value uint64) core.Parameter {
	return core.Parameter{Key: key, Label: label, Type: core.ParamTypeInt, Value: strconv.FormatUint(value, 10)}
}

func floatParam(key, label string, value float64) core.Parameter {
	return core.Parameter{Key: key, Label: label, Type: core.ParamTypeFloat, Value: strconv.FormatFloat(value, 'f', -1, 64)}
}
