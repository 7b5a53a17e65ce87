// Package geom holds the 2D vector type shared by the warp engine and the
// displacement resolver.
package geom

import "math"

// Point is an immutable 2D vector in pixel or normalized space.
type Point struct {
	X, Y float64
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point { return Point{X: x, Y: y} }

// Add returns p+q.
func (p Point) Add(q Point) Point { return Point{X: p.X + q.X, Y: p.Y + q.Y} }

// Sub returns p-q.
func (p Point) Sub(q Point) Point { return Point{X: p.X - q.X, Y: p.Y - q.Y} }

// Scale returns p multiplied by s.
func (p Point) Scale(s float64) Point { return Point{X: p.X * s, Y: p.Y * s} }

// Dot returns the dot product of p and q.
func (p Point) Dot(q Point) float64 { return p.X*q.X + p.Y*q.Y }

// Len returns the Euclidean length of p.
func (p Point) Len() float64 { return math.Hypot(p.X, p.Y) }

// LenSq returns the squared length of p.
func (p Point) LenSq() float64 { return p.X*p.X + p.Y*p.Y }

// Unit returns p scaled to length 1, or the zero vector when p is zero.
func (p Point) Unit() Point {
	l := p.Len()
	if l == 0 {
		return Point{}
	}
	return Point{X: p.X / l, Y: p.Y / l}
}

// IsFinite reports whether both components are neither NaN nor infinite.
func (p Point) IsFinite() bool {
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) && !math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0)
}

// Pair is a control-point correspondence consumed by the warp engine.
type Pair struct {
	From Point
	To   Point
}

// Split separates pairs into parallel source and target slices.
func Split(pairs []Pair) (from, to []Point) {
	from = make([]Point, len(pairs))
	to = make([]Point, len(pairs))
	for i, p := range pairs {
		from[i] = p.From
		to[i] = p.To
	}
	return from, to
}
