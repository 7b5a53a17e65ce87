package mls

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"facewarp/pkg/geom"
	"facewarp/pkg/raster"
)

// DefaultGridSize is the spacing in pixels between reverse-map grid nodes.
const DefaultGridSize = 8

// Options tunes the raster warp.
type Options struct {
	// GridSize is the node spacing of the reverse map. Values < 1 use DefaultGridSize.
	GridSize int
	// Alpha is the MLS weight exponent. Values <= 0 use 1.
	Alpha float64
	// Workers bounds the goroutines used per pass. Values < 1 use GOMAXPROCS.
	Workers int
}

func (o Options) normalized() Options {
	if o.GridSize < 1 {
		o.GridSize = DefaultGridSize
	}
	if o.Alpha <= 0 {
		o.Alpha = 1
	}
	if o.Workers < 1 {
		o.Workers = runtime.GOMAXPROCS(0)
	}
	return o
}

// Grid is a coarse reverse map: each node stores the source coordinate a
// destination pixel at that node samples from.
type Grid struct {
	Cols, Rows int
	Size       int
	Nodes      []geom.Point
}

// Lookup bilinearly interpolates the source coordinate for destination pixel (x, y).
func (g *Grid) Lookup(x, y int) geom.Point {
	i0 := x / g.Size
	j0 := y / g.Size
	fx := float64(x-i0*g.Size) / float64(g.Size)
	fy := float64(y-j0*g.Size) / float64(g.Size)
	i1 := i0 + 1
	j1 := j0 + 1
	if i1 >= g.Cols {
		i1 = i0
	}
	if j1 >= g.Rows {
		j1 = j0
	}
	n00 := g.Nodes[j0*g.Cols+i0]
	n10 := g.Nodes[j0*g.Cols+i1]
	n01 := g.Nodes[j1*g.Cols+i0]
	n11 := g.Nodes[j1*g.Cols+i1]
	top := n00.Scale(1 - fx).Add(n10.Scale(fx))
	bottom := n01.Scale(1 - fx).Add(n11.Scale(fx))
	return top.Scale(1 - fy).Add(bottom.Scale(fy))
}

// ReverseGrid evaluates the inverse deformation on a
// (ceil(w/size)+1) x (ceil(h/size)+1) node lattice. Targets and sources are
// swapped relative to Deform because each node answers "where in the
// source does this destination position come from".
func ReverseGrid(ctx context.Context, w, h int, from, to []geom.Point, opts Options) (*Grid, error) {
	opts = opts.normalized()
	gs := opts.GridSize
	g := &Grid{
		Cols: (w+gs-1)/gs + 1,
		Rows: (h+gs-1)/gs + 1,
		Size: gs,
	}
	g.Nodes = make([]geom.Point, g.Cols*g.Rows)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(opts.Workers)
	for j := 0; j < g.Rows; j++ {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			y := float64(j * gs)
			row := g.Nodes[j*g.Cols : (j+1)*g.Cols]
			for i := range row {
				row[i] = DeformAlpha(to, from, geom.Pt(float64(i*gs), y), opts.Alpha)
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return g, nil
}

// Warp applies the deformation moving from[i] to to[i] to src using the
// default options. The result always has opaque alpha.
func Warp(src *raster.Image, from, to []geom.Point, gridSize int) *raster.Image {
	out, _ := WarpContext(context.Background(), src, from, to, Options{GridSize: gridSize})
	return out
}

// WarpContext is Warp with cancellation. It returns ctx.Err() when the
// context is cancelled before the warp finishes.
func WarpContext(ctx context.Context, src *raster.Image, from, to []geom.Point, opts Options) (*raster.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	opts = opts.normalized()
	dst := src.Clone()
	if len(from) == 0 || len(to) == 0 || src.Width < 1 || src.Height < 1 {
		forceOpaque(dst)
		return dst, nil
	}

	grid, err := ReverseGrid(ctx, src.Width, src.Height, from, to, opts)
	if err != nil {
		return nil, err
	}

	eg, egCtx := errgroup.WithContext(ctx)
	for _, band := range splitRows(src.Height, opts.Workers) {
		eg.Go(func() error {
			var px [4]uint8
			for y := band[0]; y < band[1]; y++ {
				if err := egCtx.Err(); err != nil {
					return err
				}
				for x := 0; x < src.Width; x++ {
					s := grid.Lookup(x, y)
					src.Sample(s.X, s.Y, &px)
					i := dst.Index(x, y)
					dst.Pix[i+0] = px[0]
					dst.Pix[i+1] = px[1]
					dst.Pix[i+2] = px[2]
					dst.Pix[i+3] = 255
				}
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return dst, nil
}

func forceOpaque(m *raster.Image) {
	for i := 3; i < len(m.Pix); i += 4 {
		m.Pix[i] = 255
	}
}

// splitRows partitions [0, h) into at most workers contiguous bands.
func splitRows(h, workers int) [][2]int {
	if h < 1 {
		return nil
	}
	if workers < 1 {
		workers = 1
	}
	if workers > h {
		workers = h
	}
	rows := make([][2]int, 0, workers)
	step := h / workers
	start := 0
	for i := 0; i < workers; i++ {
		end := start + step
		if i == workers-1 {
			end = h
		}
		rows = append(rows, [2]int{start, end})
		start = end
	}
	return rows
}
