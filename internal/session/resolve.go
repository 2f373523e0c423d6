package session

import (
	"errors"

	"github.com/MeKo-Tech/pitchmap/internal/homography"
)

// Source identifies where a resolved transform came from.
type Source int

const (
	// SourceExplicit means the caller supplied the matrix.
	SourceExplicit Source = iota + 1
	// SourceSession means the matrix was looked up in the registry.
	SourceSession
)

func (s Source) String() string {
	switch s {
	case SourceExplicit:
		return "explicit"
	case SourceSession:
		return "session"
	default:
		return "unknown"
	}
}

// Resolution is the transform chosen for an operation together with its origin.
type Resolution struct {
	Source    Source
	SessionID string // empty for SourceExplicit
	Matrix    homography.Matrix
}

// Resolve picks the transform for an operation. An explicit matrix is used as is and the
// registry is neither read nor written. Otherwise the session (DefaultID when empty) is
// looked up.
func (r *Registry) Resolve(explicit *homography.Matrix, id string) (Resolution, error) {
	if explicit != nil {
		return Resolution{Source: SourceExplicit, Matrix: *explicit}, nil
	}

	id = r.normalize(id)
	h, err := r.Get(id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Resolution{}, ErrNoTransformAvailable
		}
		return Resolution{}, err
	}
	return Resolution{Source: SourceSession, SessionID: id, Matrix: h}, nil
}
