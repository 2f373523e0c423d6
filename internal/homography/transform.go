package homography

import (
	"fmt"
	"math"

	"github.com/MeKo-Tech/pitchmap/internal/geometry"
)

// projectionEpsilon is the magnitude below which the homogeneous w component counts as zero.
const projectionEpsilon = 1e-12

// Apply maps p through h: lift to (x, y, 1), multiply, divide by w. A singular h collapses the
// plane and is rejected with ErrSingularTransform.
func Apply(p geometry.Point, h Matrix) (geometry.Point, error) {
	if err := checkForward(h); err != nil {
		return geometry.Point{}, err
	}
	return project(p, h)
}

// checkForward rejects matrices of rank < 3.
func checkForward(h Matrix) error {
	if h.IsSingular() {
		return fmt.Errorf("%w: matrix is not invertible", ErrSingularTransform)
	}
	return nil
}

// project is Apply without the rank check, for callers that validated h once.
func project(p geometry.Point, h Matrix) (geometry.Point, error) {
	w := h[2][0]*p.X + h[2][1]*p.Y + h[2][2]
	if math.Abs(w) < projectionEpsilon || math.IsNaN(w) {
		return geometry.Point{}, fmt.Errorf("%w: point (%g, %g) maps to infinity", ErrDegenerateProjection, p.X, p.Y)
	}
	out := geometry.Point{
		X: (h[0][0]*p.X + h[0][1]*p.Y + h[0][2]) / w,
		Y: (h[1][0]*p.X + h[1][1]*p.Y + h[1][2]) / w,
	}
	if !out.IsFinite() {
		return geometry.Point{}, fmt.Errorf("%w: point (%g, %g) has no finite image", ErrDegenerateProjection, p.X, p.Y)
	}
	return out, nil
}

// ApplyMany maps every point through h, preserving order. The first degenerate point fails the
// whole call and no partial results are returned.
func ApplyMany(pts []geometry.Point, h Matrix) ([]geometry.Point, error) {
	if err := checkForward(h); err != nil {
		return nil, err
	}
	out := make([]geometry.Point, len(pts))
	for i, p := range pts {
		q, err := project(p, h)
		if err != nil {
			return nil, fmt.Errorf("point %d: %w", i, err)
		}
		out[i] = q
	}
	return out, nil
}

// ApplyInverse maps a pitch-space point back into video space through the inverse of h.
func ApplyInverse(p geometry.Point, h Matrix) (geometry.Point, error) {
	inv, err := Invert(h)
	if err != nil {
		return geometry.Point{}, err
	}
	return project(p, inv)
}

// Distance transforms both points through h and returns the Euclidean distance between the
// images, together with the images themselves.
func Distance(p1, p2 geometry.Point, h Matrix) (float64, geometry.Point, geometry.Point, error) {
	if err := checkForward(h); err != nil {
		return 0, geometry.Point{}, geometry.Point{}, err
	}
	q1, err := project(p1, h)
	if err != nil {
		return 0, geometry.Point{}, geometry.Point{}, err
	}
	q2, err := project(p2, h)
	if err != nil {
		return 0, geometry.Point{}, geometry.Point{}, err
	}
	return q1.Distance(q2), q1, q2, nil
}
