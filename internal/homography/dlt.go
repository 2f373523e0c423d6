package homography

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/MeKo-Tech/pitchmap/internal/geometry"
)

// rankEpsilon is the relative singular value below which the DLT system is rank deficient.
const rankEpsilon = 1e-12

var errRankDeficient = errors.New("correspondences do not constrain a homography")

// similarity is the Hartley conditioning transform for a point set: it moves the centroid to
// the origin and scales the mean distance from it to sqrt(2).
type similarity struct {
	cx, cy, s float64
}

func conditioning(pts []geometry.Point) (similarity, bool) {
	c := geometry.Centroid(pts)
	mean := 0.0
	for _, p := range pts {
		mean += math.Hypot(p.X-c.X, p.Y-c.Y)
	}
	mean /= float64(len(pts))
	if mean == 0 || math.IsNaN(mean) || math.IsInf(mean, 0) {
		return similarity{}, false
	}
	return similarity{cx: c.X, cy: c.Y, s: math.Sqrt2 / mean}, true
}

func (t similarity) apply(p geometry.Point) geometry.Point {
	return geometry.Point{X: (p.X - t.cx) * t.s, Y: (p.Y - t.cy) * t.s}
}

func (t similarity) applyAll(pts []geometry.Point) []geometry.Point {
	out := make([]geometry.Point, len(pts))
	for i, p := range pts {
		out[i] = t.apply(p)
	}
	return out
}

func (t similarity) matrix() Matrix {
	return Matrix{
		{t.s, 0, -t.s * t.cx},
		{0, t.s, -t.s * t.cy},
		{0, 0, 1},
	}
}

func (t similarity) inverse() Matrix {
	return Matrix{
		{1 / t.s, 0, t.cx},
		{0, 1 / t.s, t.cy},
		{0, 0, 1},
	}
}

// denormalize lifts a homography estimated between conditioned point sets back to the
// original coordinates: H = T_dst⁻¹ · Hn · T_src.
func denormalize(hn Matrix, src, dst similarity) Matrix {
	return dst.inverse().Mul(hn).Mul(src.matrix()).Normalized()
}

// fitDLT solves the normalised direct linear transform over all given correspondences in the
// least-squares sense. The solution is the right singular vector of the smallest singular value.
func fitDLT(src, dst []geometry.Point) (Matrix, error) {
	n := len(src)
	if n < 4 || n != len(dst) {
		return Matrix{}, errRankDeficient
	}
	ts, ok := conditioning(src)
	if !ok {
		return Matrix{}, errRankDeficient
	}
	td, ok := conditioning(dst)
	if !ok {
		return Matrix{}, errRankDeficient
	}

	a := mat.NewDense(2*n, 9, nil)
	for i := range n {
		p := ts.apply(src[i])
		q := td.apply(dst[i])
		x, y := p.X, p.Y
		u, v := q.X, q.Y
		a.SetRow(2*i, []float64{-x, -y, -1, 0, 0, 0, u * x, u * y, u})
		a.SetRow(2*i+1, []float64{0, 0, 0, -x, -y, -1, v * x, v * y, v})
	}

	var svd mat.SVD
	if !svd.Factorize(a, mat.SVDFullV) {
		return Matrix{}, errRankDeficient
	}
	values := svd.Values(nil)
	// Eight independent equations are needed for the eight degrees of freedom.
	if len(values) < 8 || values[0] == 0 || values[7] <= rankEpsilon*values[0] {
		return Matrix{}, errRankDeficient
	}

	var v mat.Dense
	svd.VTo(&v)
	var hn Matrix
	for k := range 9 {
		hn[k/3][k%3] = v.At(k, 8)
	}
	h := denormalize(hn, ts, td)
	if !h.IsFinite() {
		return Matrix{}, errRankDeficient
	}
	return h, nil
}
