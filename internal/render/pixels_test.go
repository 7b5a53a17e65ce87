package render

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"facewarp/internal/landmarks"
	"facewarp/internal/zones"
	"facewarp/pkg/raster"
)

func TestZonesDrawsOutlineOnly(t *testing.T) {
	img := Zones(100, 100, []ZoneOutline{{
		Region: zones.Region{CX: 0.5, CY: 0.5, RX: 0.3, RY: 0.2},
		Group:  zones.GroupUpper,
	}})

	assert.Zero(t, img.At(50, 50)[3], "centre stays transparent")
	assert.NotZero(t, img.At(80, 50)[3], "right vertex")
	assert.NotZero(t, img.At(50, 30)[3], "top vertex")
	assert.Zero(t, img.At(2, 2)[3])
}

func TestActiveZoneIsBrighter(t *testing.T) {
	region := zones.Region{CX: 0.5, CY: 0.5, RX: 0.3, RY: 0.3}
	plain := Zones(60, 60, []ZoneOutline{{Region: region, Group: zones.GroupLower}})
	active := Zones(60, 60, []ZoneOutline{{Region: region, Group: zones.GroupLower, Active: true}})

	p := plain.At(48, 30)
	a := active.At(48, 30)
	require.NotZero(t, p[3])
	assert.GreaterOrEqual(t, int(a[2]), int(p[2]))
}

func TestLandmarksSkipsOutOfFrame(t *testing.T) {
	set := landmarks.Set{{X: 0.25, Y: 0.25}, {X: 2, Y: 2}}
	img := Landmarks(40, 40, set, 1.5)
	assert.Equal(t, landmarkColor.A, img.At(10, 10)[3])
	assert.Zero(t, img.At(39, 39)[3])
}

func TestDotBlendsOverExisting(t *testing.T) {
	img := raster.New(4, 4)
	Dot(img, 2, 2, 0.5, color.NRGBA{R: 200, A: 255})
	Dot(img, 2, 2, 0.5, color.NRGBA{B: 200, A: 128})
	px := img.At(2, 2)
	assert.Greater(t, px[0], uint8(50))
	assert.Greater(t, px[2], uint8(50))
	assert.Equal(t, uint8(255), px[3])
}

func TestFit(t *testing.T) {
	src := raster.New(400, 200)
	src.Fill(10, 20, 30, 255)

	same, s := Fit(src, 800, 800)
	assert.Same(t, src, same)
	assert.Equal(t, 1.0, s)

	small, s := Fit(src, 100, 100)
	assert.Equal(t, 100, small.Width)
	assert.Equal(t, 50, small.Height)
	assert.InDelta(t, 0.25, s, 1e-12)
	assert.Equal(t, [4]uint8{10, 20, 30, 255}, small.At(20, 20))
}

func TestGroupColorFallback(t *testing.T) {
	assert.Equal(t, groupPalette[zones.GroupMid], GroupColor(zones.GroupMid))
	assert.Equal(t, uint8(200), GroupColor("other").R)
}
