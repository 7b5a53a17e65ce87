// Package mls implements affine Moving Least Squares point deformation and
// a grid-accelerated raster warp built on top of it.
package mls

import (
	"math"

	"facewarp/pkg/geom"
)

const (
	// coincidentEps is the squared distance below which a control point is
	// treated as sitting exactly on the query point.
	coincidentEps = 1e-8
	// coincidentWeight pins the query to a coincident control point.
	coincidentWeight = 1e12
	// detEps is the smallest det(B)/(a*d) ratio accepted as invertible. The
	// ratio is 1 for an isotropic spread and 0 for collinear points.
	detEps = 1e-8
)

// Deform maps v through the deformation defined by moving from[i] to to[i],
// using inverse squared distance weights (alpha = 1).
func Deform(from, to []geom.Point, v geom.Point) geom.Point {
	return DeformAlpha(from, to, v, 1)
}

// DeformAlpha is Deform with weights |p_i - v|^(-2*alpha).
//
// Affine maps are reproduced exactly: when every to[i] is A*from[i]+t the
// result is A*v+t. With no control points v is returned unchanged. A
// singular covariance matrix falls back to the identity instead of failing.
func DeformAlpha(from, to []geom.Point, v geom.Point, alpha float64) geom.Point {
	n := len(from)
	if len(to) < n {
		n = len(to)
	}
	if n == 0 {
		return v
	}

	var stack [64]float64
	w := stack[:0]
	if n > len(stack) {
		w = make([]float64, 0, n)
	}

	var sumW float64
	var pStar, qStar geom.Point
	for i := 0; i < n; i++ {
		d2 := from[i].Sub(v).LenSq()
		var wi float64
		switch {
		case d2 < coincidentEps:
			wi = coincidentWeight
		case alpha == 1:
			wi = 1 / d2
		default:
			wi = 1 / math.Pow(d2, alpha)
		}
		w = append(w, wi)
		sumW += wi
		pStar = pStar.Add(from[i].Scale(wi))
		qStar = qStar.Add(to[i].Scale(wi))
	}
	pStar = pStar.Scale(1 / sumW)
	qStar = qStar.Scale(1 / sumW)
	// Normalized weights keep B independent of the query distance and alpha.
	for i := range w {
		w[i] /= sumW
	}

	// B = sum w_i * ph_i * ph_i^T, symmetric.
	var a, b, d float64
	for i := 0; i < n; i++ {
		ph := from[i].Sub(pStar)
		a += w[i] * ph.X * ph.X
		b += w[i] * ph.X * ph.Y
		d += w[i] * ph.Y * ph.Y
	}

	i00, i01, i10, i11 := 1.0, 0.0, 0.0, 1.0
	if det := a*d - b*b; det > 0 && det >= detEps*a*d {
		i00 = d / det
		i01 = -b / det
		i10 = -b / det
		i11 = a / det
	}

	vr := v.Sub(pStar)
	// Row vector vr * B^-1.
	rx := vr.X*i00 + vr.Y*i10
	ry := vr.X*i01 + vr.Y*i11

	out := qStar
	for i := 0; i < n; i++ {
		ph := from[i].Sub(pStar)
		qh := to[i].Sub(qStar)
		out = out.Add(qh.Scale(w[i] * (rx*ph.X + ry*ph.Y)))
	}
	if !out.IsFinite() {
		return v
	}
	return out
}
