package homography

import "errors"

var (
	// ErrInvalidInput reports malformed or insufficient correspondences.
	ErrInvalidInput = errors.New("invalid input")

	// ErrSingularTransform reports that estimation or inversion produced no usable matrix.
	ErrSingularTransform = errors.New("singular transform")

	// ErrDegenerateProjection reports a point mapped onto the line at infinity (w == 0).
	ErrDegenerateProjection = errors.New("degenerate projection")
)
