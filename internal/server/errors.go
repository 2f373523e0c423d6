package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/MeKo-Tech/pitchmap/internal/geometry"
	"github.com/MeKo-Tech/pitchmap/internal/homography"
	"github.com/MeKo-Tech/pitchmap/internal/session"
)

// Error types reported in ErrorResponse.ErrorType and WebSocket error frames.
const (
	errorTypeInvalidInput         = "invalid_input"
	errorTypeSingularTransform    = "singular_transform"
	errorTypeDegenerateProjection = "degenerate_projection"
	errorTypeNoTransform          = "no_transform"
	errorTypeRequestTooLarge      = "request_too_large"
	errorTypeInternal             = "internal_error"
)

// errMalformedRequest marks bodies that are not valid JSON for the endpoint.
var errMalformedRequest = errors.New("malformed request")

// classifyError maps a domain error onto an HTTP status and error type.
func classifyError(err error) (int, string) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge, errorTypeRequestTooLarge
	case errors.Is(err, errMalformedRequest),
		errors.Is(err, geometry.ErrMalformedPoint),
		errors.Is(err, homography.ErrInvalidInput):
		return http.StatusBadRequest, errorTypeInvalidInput
	case errors.Is(err, homography.ErrSingularTransform):
		return http.StatusBadRequest, errorTypeSingularTransform
	case errors.Is(err, homography.ErrDegenerateProjection):
		return http.StatusBadRequest, errorTypeDegenerateProjection
	case errors.Is(err, session.ErrNoTransformAvailable):
		return http.StatusBadRequest, errorTypeNoTransform
	default:
		return http.StatusInternalServerError, errorTypeInternal
	}
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errMalformedRequest, fmt.Sprintf(format, args...))
}
