package app

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"facewarp/internal/sim"
	"facewarp/pkg/geom"
	"facewarp/pkg/raster"
)

func TestFitViewNeverEnlarges(t *testing.T) {
	v := fitView(400, 300, 960, 960)
	assert.Equal(t, 1.0, v.scale)
	assert.Equal(t, 400, v.w)
	assert.Equal(t, 300, v.h)
}

func TestFitViewShrinksToLimitingSide(t *testing.T) {
	v := fitView(2000, 1000, 1000, 800)
	assert.InDelta(t, 0.5, v.scale, 1e-12)
	assert.Equal(t, 1000, v.w)
	assert.Equal(t, 500, v.h)

	assert.Equal(t, geom.Pt(200, 100), v.toFrame(100, 50))
	assert.True(t, v.inside(999, 499))
	assert.False(t, v.inside(1000, 10))
	assert.False(t, v.inside(-1, 10))
}

func TestSimSourceMarksAssignedZones(t *testing.T) {
	s := sim.New(sim.Options{})
	defer s.Close()
	img := raster.New(64, 64)
	img.Fill(100, 100, 100, 255)
	require.NoError(t, s.LoadImage(img))
	require.NoError(t, s.Assign("mento", sim.Assignment{Procedure: sim.Filler, Intensity: 50}))

	outlines := simSource{s}.Outlines()
	require.Len(t, outlines, len(s.Zones()))
	active := 0
	for i, o := range outlines {
		if o.Active {
			active++
			assert.Equal(t, "mento", s.Zones()[i].ID)
		}
	}
	assert.Equal(t, 1, active)
	assert.Equal(t, s.Generation(), simSource{s}.Generation())
}

func TestStatusLine(t *testing.T) {
	idle := status{gen: 3, frameGen: 2}.String()
	assert.Contains(t, idle, "gen 3")
	assert.Contains(t, idle, "rendering")

	sc := status{sculpting: true, tool: "push", brush: 40, undo: 2, note: "exported x.png"}.String()
	assert.True(t, strings.HasPrefix(sc, "SCULPT push"))
	assert.Contains(t, sc, "undo 2")
	assert.Contains(t, sc, "\nexported x.png")
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Positive(t, cfg.PanelWidth)
	assert.Positive(t, cfg.RequestRate)
	assert.NotEmpty(t, cfg.ExportPath)
}
