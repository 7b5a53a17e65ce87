// Package tuning measures how far the grid-interpolated reverse map drifts
// from evaluating MLS at every pixel, for a range of grid sizes.
package tuning

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"runtime"
	"sort"
	"sync"
	"time"

	"facewarp/internal/displace"
	"facewarp/pkg/geom"
	"facewarp/pkg/mls"
)

// Config describes one sweep. Zero fields take the defaults listed in
// DefaultConfig.
type Config struct {
	Width, Height int
	// Points is the number of random displaced control points.
	Points int
	// MaxShift bounds each displacement component in pixels.
	MaxShift float64
	Seed     uint64
	// GridSizes are the candidates, evaluated concurrently.
	GridSizes []int
	Alpha     float64
	// Stride samples every Stride-th pixel in each axis for the exact map.
	Stride  int
	Workers int
}

// DefaultConfig is a 256x256 frame with a face-like number of points.
func DefaultConfig() Config {
	return Config{
		Width:     256,
		Height:    256,
		Points:    24,
		MaxShift:  6,
		Seed:      1337,
		GridSizes: []int{2, 4, 6, 8, 12, 16, 24, 32},
		Alpha:     1,
		Stride:    2,
		Workers:   runtime.NumCPU(),
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Width <= 0 {
		c.Width = d.Width
	}
	if c.Height <= 0 {
		c.Height = d.Height
	}
	if c.Points <= 0 {
		c.Points = d.Points
	}
	if c.MaxShift <= 0 {
		c.MaxShift = d.MaxShift
	}
	if len(c.GridSizes) == 0 {
		c.GridSizes = d.GridSizes
	}
	if c.Alpha <= 0 {
		c.Alpha = d.Alpha
	}
	if c.Stride <= 0 {
		c.Stride = d.Stride
	}
	if c.Workers <= 0 {
		c.Workers = d.Workers
	}
	return c
}

// Result is the accuracy and cost of one grid size.
type Result struct {
	GridSize int
	MaxErr   float64
	MeanErr  float64
	Nodes    int
	Elapsed  time.Duration
}

// String formats r as one aligned report line.
func (r Result) String() string {
	return fmt.Sprintf("grid=%-3d nodes=%-6d max=%.4fpx mean=%.4fpx elapsed=%s",
		r.GridSize, r.Nodes, r.MaxErr, r.MeanErr, r.Elapsed.Round(time.Microsecond))
}

// Scene builds the seeded control points: random interior displacements
// plus the usual edge anchors.
func Scene(cfg Config) (from, to []geom.Point) {
	cfg = cfg.withDefaults()
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))
	margin := 0.15
	w, h := float64(cfg.Width), float64(cfg.Height)
	pairs := make([]geom.Pair, 0, cfg.Points)
	for i := 0; i < cfg.Points; i++ {
		p := geom.Pt(
			w*(margin+(1-2*margin)*rng.Float64()),
			h*(margin+(1-2*margin)*rng.Float64()),
		)
		d := geom.Pt((2*rng.Float64()-1)*cfg.MaxShift, (2*rng.Float64()-1)*cfg.MaxShift)
		pairs = append(pairs, geom.Pair{From: p, To: p.Add(d)})
	}
	pairs = append(pairs, displace.EdgeAnchors(cfg.Width, cfg.Height, displace.DefaultAnchorSpacing)...)
	return geom.Split(pairs)
}

// Sweep evaluates every grid size against the exact reverse map. Results
// are ordered by grid size.
func Sweep(ctx context.Context, cfg Config) ([]Result, error) {
	cfg = cfg.withDefaults()
	from, to := Scene(cfg)
	exact := exactMap(cfg, from, to)

	jobs := make(chan int)
	results := make(chan Result)
	errs := make(chan error, 1)
	var wg sync.WaitGroup

	workers := min(cfg.Workers, len(cfg.GridSizes))
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for gs := range jobs {
				res, err := measure(ctx, cfg, gs, from, to, exact)
				if err != nil {
					select {
					case errs <- err:
					default:
					}
					continue
				}
				results <- res
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	go func() {
		defer close(jobs)
		for _, gs := range cfg.GridSizes {
			select {
			case jobs <- gs:
			case <-ctx.Done():
				return
			}
		}
	}()

	var all []Result
	for res := range results {
		all = append(all, res)
	}
	select {
	case err := <-errs:
		return nil, fmt.Errorf("tuning: %w", err)
	default:
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("tuning: %w", err)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].GridSize < all[j].GridSize })
	return all, nil
}

// Best returns the coarsest grid whose worst-case error stays within tol.
func Best(results []Result, tol float64) (Result, bool) {
	var best Result
	found := false
	for _, r := range results {
		if r.MaxErr <= tol && (!found || r.GridSize > best.GridSize) {
			best = r
			found = true
		}
	}
	return best, found
}

type sample struct {
	x, y int
	src  geom.Point
}

func exactMap(cfg Config, from, to []geom.Point) []sample {
	var out []sample
	for y := 0; y < cfg.Height; y += cfg.Stride {
		for x := 0; x < cfg.Width; x += cfg.Stride {
			p := mls.DeformAlpha(to, from, geom.Pt(float64(x), float64(y)), cfg.Alpha)
			out = append(out, sample{x: x, y: y, src: p})
		}
	}
	return out
}

func measure(ctx context.Context, cfg Config, gs int, from, to []geom.Point, exact []sample) (Result, error) {
	start := time.Now()
	g, err := mls.ReverseGrid(ctx, cfg.Width, cfg.Height, from, to, mls.Options{GridSize: gs, Alpha: cfg.Alpha, Workers: 1})
	if err != nil {
		return Result{}, err
	}
	res := Result{GridSize: gs, Nodes: len(g.Nodes)}
	var sum float64
	for _, s := range exact {
		d := g.Lookup(s.x, s.y).Sub(s.src).Len()
		sum += d
		res.MaxErr = math.Max(res.MaxErr, d)
	}
	if len(exact) > 0 {
		res.MeanErr = sum / float64(len(exact))
	}
	res.Elapsed = time.Since(start)
	return res, nil
}
