package ui

import (
	"image"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"facewarp/internal/core"
	"facewarp/internal/landmarks"
	"facewarp/internal/render"
	"facewarp/internal/zones"
)

type fakeParams struct {
	ints   map[string]int
	floats map[string]float64
	ctrls  []core.ParameterControl
	reject bool
}

func (f *fakeParams) Parameters() core.ParameterSnapshot {
	var params []core.Parameter
	for k, v := range f.ints {
		params = append(params, core.Parameter{Key: k, Type: core.ParamTypeInt, Value: strconv.Itoa(v)})
	}
	for k, v := range f.floats {
		params = append(params, core.Parameter{Key: k, Type: core.ParamTypeFloat, Value: strconv.FormatFloat(v, 'f', -1, 64)})
	}
	return core.ParameterSnapshot{Groups: []core.ParameterGroup{{Name: "all", Params: params}}}
}

func (f *fakeParams) ParameterControls() []core.ParameterControl { return f.ctrls }

func (f *fakeParams) SetIntParameter(key string, v int) bool {
	if f.reject {
		return false
	}
	f.ints[key] = v
	return true
}

func (f *fakeParams) SetFloatParameter(key string, v float64) bool {
	if f.reject {
		return false
	}
	f.floats[key] = v
	return true
}

func newFake() *fakeParams {
	return &fakeParams{
		ints:   map[string]int{"grid": 8},
		floats: map[string]float64{"intensity": 95},
		ctrls: []core.ParameterControl{
			{Key: "grid", Label: "Grid", Type: core.ParamTypeInt, Step: 1, Min: 1, Max: 9, HasMin: true, HasMax: true},
			{Key: "intensity", Label: "Intensity", Type: core.ParamTypeFloat, Step: 5, Min: 0, Max: 100, HasMin: true, HasMax: true},
			{Key: "missing", Label: "Missing", Type: core.ParamTypeInt},
		},
	}
}

func TestRefreshReadsSnapshot(t *testing.T) {
	f := newFake()
	states := newControlStates(f.ctrls)
	refresh(states, f.Parameters())

	assert.True(t, states[0].hasValue)
	assert.Equal(t, "8", states[0].value)
	assert.True(t, states[1].hasValue)
	assert.Equal(t, "95.0", states[1].value)
	assert.False(t, states[2].hasValue)
	assert.Equal(t, "--", states[2].value)
}

func TestAdjustClampsToBounds(t *testing.T) {
	f := newFake()
	states := newControlStates(f.ctrls)
	refresh(states, f.Parameters())

	require.True(t, adjust(f, &states[0], 1))
	assert.Equal(t, 9, f.ints["grid"])
	assert.False(t, adjust(f, &states[0], 1), "already at max")
	assert.False(t, canAdjust(&states[0], 1))
	assert.True(t, canAdjust(&states[0], -1))

	require.True(t, adjust(f, &states[1], 1))
	assert.Equal(t, 100.0, f.floats["intensity"])
	assert.Equal(t, "100.0", states[1].value)
	assert.False(t, adjust(f, &states[1], 1))

	assert.False(t, adjust(f, &states[2], 1), "no value")
}

func TestAdjustRejectedBySetter(t *testing.T) {
	f := newFake()
	states := newControlStates(f.ctrls)
	refresh(states, f.Parameters())
	f.reject = true

	assert.False(t, adjust(f, &states[0], -1))
	assert.Equal(t, 8, states[0].intValue)
}

func TestLayoutAndHit(t *testing.T) {
	f := newFake()
	states := newControlStates(f.ctrls)
	refresh(states, f.Parameters())
	layout(states, 200)

	assert.Equal(t, controlsTop, states[0].top)
	assert.Equal(t, controlsTop+lineHeight, states[1].top)
	assert.Equal(t, 200-panelPadding, states[0].plusRect.Max.X)

	c := states[1].minusRect.Min.Add(image.Pt(1, 1))
	st, dir := hit(states, c.X, c.Y)
	require.NotNil(t, st)
	assert.Equal(t, "intensity", st.control.Key)
	assert.Equal(t, -1, dir)

	c = states[2].plusRect.Min.Add(image.Pt(1, 1))
	st, _ = hit(states, c.X, c.Y)
	assert.Nil(t, st, "controls without a value are inert")
}

func TestFormatFloatPrecision(t *testing.T) {
	assert.Equal(t, "0.1235", formatFloat(core.ParameterControl{Step: 0.0005}, 0.12345))
	assert.Equal(t, "0.123", formatFloat(core.ParameterControl{Step: 0.005}, 0.1234))
	assert.Equal(t, "0.12", formatFloat(core.ParameterControl{}, 0.1234))
	assert.Equal(t, "12.5", formatFloat(core.ParameterControl{Step: 5}, 12.5))
}

func TestVisibleRows(t *testing.T) {
	assert.Zero(t, visibleRows(controlsTop))
	assert.Equal(t, 2, visibleRows(controlsTop+2*lineHeight+3))
}

type fakeSource struct {
	outlines []render.ZoneOutline
	marks    landmarks.Set
}

func (f fakeSource) Outlines() []render.ZoneOutline { return f.outlines }
func (f fakeSource) Landmarks() landmarks.Set       { return f.marks }
func (f fakeSource) Generation() uint64             { return 1 }

func TestComposeLayers(t *testing.T) {
	src := fakeSource{
		outlines: []render.ZoneOutline{{Region: zones.Region{CX: 0.5, CY: 0.5, RX: 0.25, RY: 0.25}, Group: zones.GroupMid}},
		marks:    landmarks.Set{{X: 0.5, Y: 0.5}},
	}
	assert.Nil(t, composeLayers(src, layerKey{w: 20, h: 20}))

	zonesOnly := composeLayers(src, layerKey{w: 20, h: 20, zones: true})
	require.Len(t, zonesOnly, 20*20*4)
	centre := (10*20 + 10) * 4
	assert.Zero(t, zonesOnly[centre+3])

	both := composeLayers(src, layerKey{w: 20, h: 20, zones: true, marks: true})
	assert.NotZero(t, both[centre+3])
	assert.Equal(t, uint8(255), both[centre])
}
