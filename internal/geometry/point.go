package geometry

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// collinearTolerance bounds |sin θ| between two edges below which three points are treated as
// lying on one line.
const collinearTolerance = 1e-6

// ErrMalformedPoint is returned when a coordinate pair does not hold exactly two finite numbers.
var ErrMalformedPoint = errors.New("point must be a pair of finite numbers [x, y]")

// Point is a 2D coordinate. Video-space points are pixels, pitch-space points are meters.
type Point struct {
	X float64
	Y float64
}

// Distance returns the Euclidean distance between p and q.
func (p Point) Distance(q Point) float64 {
	return math.Hypot(q.X-p.X, q.Y-p.Y)
}

// IsFinite reports whether both coordinates are neither NaN nor infinite.
func (p Point) IsFinite() bool {
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) && !math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0)
}

// Pair returns the point as a two-element slice, the wire layout used by the API.
func (p Point) Pair() []float64 {
	return []float64{p.X, p.Y}
}

// MarshalJSON encodes the point as [x, y].
func (p Point) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{p.X, p.Y})
}

// UnmarshalJSON decodes [x, y], rejecting any other arity.
func (p *Point) UnmarshalJSON(data []byte) error {
	var raw []float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedPoint, err)
	}
	pt, err := FromPair(raw)
	if err != nil {
		return err
	}
	*p = pt
	return nil
}

// FromPair converts a [x, y] slice into a Point.
func FromPair(pair []float64) (Point, error) {
	if len(pair) != 2 {
		return Point{}, fmt.Errorf("%w: got %d values", ErrMalformedPoint, len(pair))
	}
	p := Point{X: pair[0], Y: pair[1]}
	if !p.IsFinite() {
		return Point{}, ErrMalformedPoint
	}
	return p, nil
}

// FromPairs converts a list of [x, y] slices, reporting the first malformed index.
func FromPairs(pairs [][]float64) ([]Point, error) {
	pts := make([]Point, len(pairs))
	for i, pair := range pairs {
		p, err := FromPair(pair)
		if err != nil {
			return nil, fmt.Errorf("point %d: %w", i, err)
		}
		pts[i] = p
	}
	return pts, nil
}

// ToPairs is the inverse of FromPairs.
func ToPairs(pts []Point) [][]float64 {
	out := make([][]float64, len(pts))
	for i, p := range pts {
		out[i] = p.Pair()
	}
	return out
}

// Collinear reports whether a, b and c lie on a common line. Coincident points count as collinear.
func Collinear(a, b, c Point) bool {
	abx, aby := b.X-a.X, b.Y-a.Y
	acx, acy := c.X-a.X, c.Y-a.Y
	lab := math.Hypot(abx, aby)
	lac := math.Hypot(acx, acy)
	if lab == 0 || lac == 0 || b == c {
		return true
	}
	cross := abx*acy - aby*acx
	return math.Abs(cross) <= collinearTolerance*lab*lac
}

// AnyThreeCollinear reports whether any triple drawn from pts is collinear.
func AnyThreeCollinear(pts []Point) bool {
	n := len(pts)
	for i := 0; i < n-2; i++ {
		for j := i + 1; j < n-1; j++ {
			for k := j + 1; k < n; k++ {
				if Collinear(pts[i], pts[j], pts[k]) {
					return true
				}
			}
		}
	}
	return false
}

// Centroid returns the arithmetic mean of pts. The zero point is returned for an empty slice.
func Centroid(pts []Point) Point {
	if len(pts) == 0 {
		return Point{}
	}
	var c Point
	for _, p := range pts {
		c.X += p.X
		c.Y += p.Y
	}
	n := float64(len(pts))
	return Point{X: c.X / n, Y: c.Y / n}
}
