// Package session keeps the most recent calibration of every session for the lifetime of the
// process. Nothing is persisted and entries never expire.
package session

import (
	"errors"
	"fmt"
	"sync"

	"github.com/MeKo-Tech/pitchmap/internal/homography"
)

// DefaultID is the session used when a caller names none.
const DefaultID = "default"

var (
	// ErrNotFound is returned by Get for a session that has never been calibrated.
	ErrNotFound = errors.New("session not found")

	// ErrNoTransformAvailable is returned by Resolve when neither an explicit matrix nor a
	// calibrated session is available.
	ErrNoTransformAvailable = errors.New("no homography matrix available, calibrate first or provide matrix")
)

// Registry maps session identifiers to their active transform. It is safe for concurrent use:
// a Get never observes a partially written matrix.
type Registry struct {
	mu         sync.RWMutex
	transforms map[string]homography.Matrix
	defaultID  string
}

// NewRegistry creates an empty registry. An empty defaultID selects DefaultID.
func NewRegistry(defaultID string) *Registry {
	if defaultID == "" {
		defaultID = DefaultID
	}
	return &Registry{
		transforms: make(map[string]homography.Matrix),
		defaultID:  defaultID,
	}
}

// DefaultID returns the identifier substituted for an empty session id.
func (r *Registry) DefaultID() string {
	return r.defaultID
}

// Put stores h under id, replacing any earlier transform.
func (r *Registry) Put(id string, h homography.Matrix) {
	id = r.normalize(id)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.transforms[id] = h
}

// Get returns a copy of the transform stored under id.
func (r *Registry) Get(id string) (homography.Matrix, error) {
	id = r.normalize(id)

	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.transforms[id]
	if !ok {
		return homography.Matrix{}, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return h, nil
}

// Len returns the number of calibrated sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.transforms)
}

func (r *Registry) normalize(id string) string {
	if id == "" {
		return r.defaultID
	}
	return id
}
