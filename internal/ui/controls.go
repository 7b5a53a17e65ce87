package ui

import (
	"image"
	"math"
	"strconv"

	"facewarp/internal/core"
)

// Params is what the HUD needs from the thing it controls. The simulator
// satisfies it.
type Params interface {
	core.ParameterProvider
	core.ParameterControlsProvider
	core.IntParameterSetter
	core.FloatParameterSetter
}

type controlState struct {
	control core.ParameterControl
	value   string

	intValue   int
	floatValue float64
	hasValue   bool

	top       int
	minusRect image.Rectangle
	plusRect  image.Rectangle
}

func newControlStates(ctrls []core.ParameterControl) []controlState {
	out := make([]controlState, len(ctrls))
	for i, c := range ctrls {
		out[i] = controlState{control: c, value: "--"}
	}
	return out
}

// refresh copies current values from snap into the control states.
func refresh(states []controlState, snap core.ParameterSnapshot) {
	for i := range states {
		st := &states[i]
		st.hasValue = false
		st.value = "--"
		p, ok := snap.Lookup(st.control.Key)
		if !ok {
			continue
		}
		switch st.control.Type {
		case core.ParamTypeInt:
			v, err := strconv.Atoi(p.Value)
			if err != nil {
				continue
			}
			st.intValue, st.floatValue = v, float64(v)
			st.value = strconv.Itoa(v)
			st.hasValue = true
		case core.ParamTypeFloat:
			v, err := strconv.ParseFloat(p.Value, 64)
			if err != nil {
				continue
			}
			st.floatValue = v
			st.value = formatFloat(st.control, v)
			st.hasValue = true
		}
	}
}

func intStep(c core.ParameterControl) int {
	if s := int(math.Round(c.Step)); s > 0 {
		return s
	}
	return 1
}

func floatStep(c core.ParameterControl) float64 {
	if c.Step > 0 {
		return c.Step
	}
	return 0.05
}

// canAdjust reports whether one step in direction stays within bounds.
func canAdjust(st *controlState, direction int) bool {
	if st == nil || direction == 0 || !st.hasValue {
		return false
	}
	c := st.control
	var target float64
	switch c.Type {
	case core.ParamTypeInt:
		target = float64(st.intValue + direction*intStep(c))
	case core.ParamTypeFloat:
		target = st.floatValue + float64(direction)*floatStep(c)
	default:
		return false
	}
	if direction < 0 && c.HasMin && target < c.Min-1e-9 {
		return false
	}
	if direction > 0 && c.HasMax && target > c.Max+1e-9 {
		return false
	}
	return true
}

// adjust moves st one step in direction through p and reports whether the
// value changed.
func adjust(p Params, st *controlState, direction int) bool {
	if p == nil || st == nil || direction == 0 || !st.hasValue {
		return false
	}
	c := st.control
	switch c.Type {
	case core.ParamTypeInt:
		target := int(math.Round(c.Clamp(float64(st.intValue + direction*intStep(c)))))
		if target == st.intValue || !p.SetIntParameter(c.Key, target) {
			return false
		}
		st.intValue, st.floatValue = target, float64(target)
		st.value = strconv.Itoa(target)
		return true
	case core.ParamTypeFloat:
		target := c.Clamp(st.floatValue + float64(direction)*floatStep(c))
		if math.Abs(target-st.floatValue) < 1e-9 || !p.SetFloatParameter(c.Key, target) {
			return false
		}
		st.floatValue = target
		st.value = formatFloat(c, target)
		return true
	}
	return false
}

// layout positions each control's row and buttons inside a panel of the
// given width.
func layout(states []controlState, width int) {
	for i := range states {
		top := controlsTop + i*lineHeight
		buttonY := top + (lineHeight-buttonSize)/2
		plus := image.Rect(width-panelPadding-buttonSize, buttonY, width-panelPadding, buttonY+buttonSize)
		minus := image.Rect(plus.Min.X-buttonGap-buttonSize, buttonY, plus.Min.X-buttonGap, buttonY+buttonSize)
		states[i].top = top
		states[i].minusRect = minus
		states[i].plusRect = plus
	}
}

// hit returns the control and direction under panel-local point (x, y).
func hit(states []controlState, x, y int) (*controlState, int) {
	pt := image.Pt(x, y)
	for i := range states {
		st := &states[i]
		if !st.hasValue {
			continue
		}
		if pt.In(st.minusRect) {
			return st, -1
		}
		if pt.In(st.plusRect) {
			return st, 1
		}
	}
	return nil, 0
}

func formatFloat(c core.ParameterControl, v float64) string {
	step := floatStep(c)
	precision := 1
	switch {
	case step < 0.001:
		precision = 4
	case step < 0.01:
		precision = 3
	case step < 0.1:
		precision = 2
	}
	return strconv.FormatFloat(v, 'f', precision, 64)
}

// visibleRows is how many control rows fit in a panel of the given height.
func visibleRows(height int) int {
	if height <= controlsTop {
		return 0
	}
	return (height - controlsTop) / lineHeight
}

const (
	panelPadding   = 12
	lineHeight     = 28
	buttonSize     = 20
	buttonGap      = 6
	headerBaseline = 18
	labelBaseline  = 18
	infoSpacing    = 36
	controlsTop    = panelPadding + headerBaseline + 14
)
