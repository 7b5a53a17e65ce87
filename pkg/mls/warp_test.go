package mls

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"facewarp/pkg/geom"
	"facewarp/pkg/raster"
)

func gradient(w, h int) *raster.Image {
	m := raster.New(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			m.Set(x, y, [4]uint8{uint8(x * 2), uint8(y * 3), uint8((x + y) % 256), 255})
		}
	}
	return m
}

func borderAnchors(w, h, spacing int) []geom.Point {
	var pts []geom.Point
	for x := 0; x < w; x += spacing {
		pts = append(pts, geom.Pt(float64(x), 0), geom.Pt(float64(x), float64(h-1)))
	}
	for y := spacing; y < h; y += spacing {
		pts = append(pts, geom.Pt(0, float64(y)), geom.Pt(float64(w-1), float64(y)))
	}
	return append(pts, geom.Pt(float64(w-1), 0), geom.Pt(float64(w-1), float64(h-1)))
}

func TestWarpWithoutControlPointsCopiesSolidGray(t *testing.T) {
	src := raster.New(100, 100)
	src.Fill(128, 128, 128, 255)

	out := Warp(src, nil, nil, DefaultGridSize)
	require.Equal(t, 100, out.Width)
	require.Equal(t, 100, out.Height)
	for y := 0; y < 100; y++ {
		for x := 0; x < 100; x++ {
			require.Equal(t, [4]uint8{128, 128, 128, 255}, out.At(x, y))
		}
	}
}

func TestWarpForcesOpaqueAlpha(t *testing.T) {
	src := raster.New(16, 16)
	src.Fill(10, 20, 30, 40)

	noop := Warp(src, nil, nil, 4)
	assert.Equal(t, uint8(255), noop.At(3, 3)[3])

	from := []geom.Point{geom.Pt(8, 8)}
	to := []geom.Point{geom.Pt(9, 8)}
	moved := Warp(src, from, to, 4)
	for i := 3; i < len(moved.Pix); i += 4 {
		require.Equal(t, uint8(255), moved.Pix[i])
	}
	assert.Equal(t, uint8(40), src.At(3, 3)[3], "source must not be mutated")
}

func TestWarpIdentityPairsKeepPixels(t *testing.T) {
	src := gradient(64, 48)
	anchors := borderAnchors(64, 48, 16)

	out := Warp(src, anchors, anchors, 8)
	assert.Equal(t, src.Pix, out.Pix)
}

func TestWarpIsDeterministic(t *testing.T) {
	src := gradient(90, 70)
	from := append(borderAnchors(90, 70, 40), geom.Pt(45, 35))
	to := append(borderAnchors(90, 70, 40), geom.Pt(50, 30))

	a := Warp(src, from, to, 8)
	b, err := WarpContext(context.Background(), src, from, to, Options{GridSize: 8, Workers: 3})
	require.NoError(t, err)
	assert.Equal(t, a.Pix, b.Pix)
}

func TestWarpEdgeAnchorsKeepBorderColors(t *testing.T) {
	w, h := 120, 80
	src := gradient(w, h)
	anchors := borderAnchors(w, h, 40)
	from := append(append([]geom.Point(nil), anchors...), geom.Pt(60, 40), geom.Pt(70, 35))
	to := append(append([]geom.Point(nil), anchors...), geom.Pt(66, 44), geom.Pt(74, 31))

	out := Warp(src, from, to, 8)
	for _, a := range anchors {
		x, y := int(a.X), int(a.Y)
		want := src.At(x, y)
		got := out.At(x, y)
		for c := 0; c < 3; c++ {
			assert.InDelta(t, int(want[c]), int(got[c]), 2, "anchor (%d,%d) channel %d", x, y, c)
		}
	}

	center := out.At(60, 40)
	assert.NotEqual(t, src.At(60, 40), center, "interior control point should move pixels")
}

func TestWarpContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := WarpContext(ctx, gradient(32, 32), []geom.Point{geom.Pt(1, 1)}, []geom.Point{geom.Pt(2, 2)}, Options{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReverseGridDimensions(t *testing.T) {
	g, err := ReverseGrid(context.Background(), 100, 33, nil, nil, Options{GridSize: 8})
	require.NoError(t, err)
	assert.Equal(t, 14, g.Cols)
	assert.Equal(t, 6, g.Rows)
	assert.Equal(t, geom.Pt(56, 40), g.Nodes[5*g.Cols+7])
	assert.Equal(t, geom.Pt(13, 29), g.Lookup(13, 29))
}

func TestSplitRowsCoversHeight(t *testing.T) {
	for _, tc := range []struct{ h, workers int }{{10, 3}, {5, 8}, {7, 1}, {100, 0}, {0, 4}} {
		bands := splitRows(tc.h, tc.workers)
		next := 0
		for _, b := range bands {
			assert.Equal(t, next, b[0])
			next = b[1]
		}
		assert.Equal(t, tc.h, next)
	}
}

func TestWarpEmptyImageDoesNotPanic(t *testing.T) {
	src := &raster.Image{Width: 10, Height: 0}
	from := []geom.Point{geom.Pt(2, 2)}
	to := []geom.Point{geom.Pt(3, 3)}

	var out *raster.Image
	require.NotPanics(t, func() { out = Warp(src, from, to, 4) })
	require.NotNil(t, out)
	assert.Equal(t, 10, out.Width)
	assert.Zero(t, out.Height)
	assert.Empty(t, splitRows(0, 4))
}
