// Package calibration composes homography estimation, point transformation and the session
// registry into the operations exposed by the HTTP, WebSocket and CLI front ends.
package calibration

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/MeKo-Tech/pitchmap/internal/geometry"
	"github.com/MeKo-Tech/pitchmap/internal/homography"
	"github.com/MeKo-Tech/pitchmap/internal/session"
)

// Service runs calibrations and coordinate transformations against a session registry.
type Service struct {
	registry *session.Registry
	opts     homography.Options
}

// NewService creates a service backed by registry. A nil registry gets a fresh one.
func NewService(registry *session.Registry, opts homography.Options) (*Service, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid estimator options: %w", err)
	}
	if registry == nil {
		registry = session.NewRegistry("")
	}
	return &Service{registry: registry, opts: opts}, nil
}

// Registry returns the registry the service reads and writes.
func (s *Service) Registry() *session.Registry {
	return s.registry
}

// Options returns the estimator options in use.
func (s *Service) Options() homography.Options {
	return s.opts
}

// Target selects the transform for an operation: Matrix when set, otherwise the session.
type Target struct {
	Matrix    *homography.Matrix
	SessionID string
}

// CalibrateRequest holds the correspondences of one calibration.
type CalibrateRequest struct {
	VideoPoints []geometry.Point
	PitchPoints []geometry.Point
	SessionID   string
}

// CalibrateResult is the outcome of a successful calibration.
type CalibrateResult struct {
	SessionID         string
	Matrix            homography.Matrix
	ReprojectionError float64
	Inliers           []bool
	InlierCount       int
	Message           string
}

// Calibrate estimates the transform for req and stores it under the request's session.
// A failed estimate leaves the registry untouched.
func (s *Service) Calibrate(req CalibrateRequest) (CalibrateResult, error) {
	id := req.SessionID
	if id == "" {
		id = s.registry.DefaultID()
	}

	res, err := homography.Estimate(req.VideoPoints, req.PitchPoints, s.opts)
	if err != nil {
		slog.Debug("Calibration failed", "session_id", id, "points", len(req.VideoPoints), "error", err)
		return CalibrateResult{}, err
	}

	s.registry.Put(id, res.Matrix)

	n := len(req.VideoPoints)
	slog.Info("Calibration stored",
		"session_id", id,
		"points", n,
		"inliers", res.InlierCount,
		"reprojection_error", res.ReprojectionError)

	return CalibrateResult{
		SessionID:         id,
		Matrix:            res.Matrix,
		ReprojectionError: res.ReprojectionError,
		Inliers:           res.Inliers,
		InlierCount:       res.InlierCount,
		Message:           Summary(n, res.ReprojectionError),
	}, nil
}

// Summary is the human-readable outcome of a calibration.
func Summary(points int, reprojectionError float64) string {
	return fmt.Sprintf("Calibration successful with %d points. Reprojection error: %.2fm", points, reprojectionError)
}

func (s *Service) resolve(target Target) (session.Resolution, error) {
	res, err := s.registry.Resolve(target.Matrix, target.SessionID)
	if err != nil {
		slog.Debug("No transform resolved", "session_id", target.SessionID, "error", err)
		return session.Resolution{}, err
	}
	return res, nil
}

// Transform maps a video point into pitch space.
func (s *Service) Transform(p geometry.Point, target Target) (geometry.Point, session.Resolution, error) {
	res, err := s.resolve(target)
	if err != nil {
		return geometry.Point{}, res, err
	}
	q, err := homography.Apply(p, res.Matrix)
	return q, res, err
}

// BatchTransform maps every video point into pitch space. Any failure aborts the whole batch.
func (s *Service) BatchTransform(pts []geometry.Point, target Target) ([]geometry.Point, session.Resolution, error) {
	res, err := s.resolve(target)
	if err != nil {
		return nil, res, err
	}
	out, err := homography.ApplyMany(pts, res.Matrix)
	return out, res, err
}

// InverseTransform maps a pitch point back into video space.
func (s *Service) InverseTransform(p geometry.Point, target Target) (geometry.Point, session.Resolution, error) {
	res, err := s.resolve(target)
	if err != nil {
		return geometry.Point{}, res, err
	}
	q, err := homography.ApplyInverse(p, res.Matrix)
	return q, res, err
}

// DistanceResult reports a measured pitch distance.
type DistanceResult struct {
	// Distance is in meters, rounded to 0.1.
	Distance float64
	// Pitch1 and Pitch2 are the transformed inputs at full precision.
	Pitch1 geometry.Point
	Pitch2 geometry.Point
	Source session.Source
}

// Distance measures the pitch distance between two video points.
func (s *Service) Distance(p1, p2 geometry.Point, target Target) (DistanceResult, error) {
	res, err := s.resolve(target)
	if err != nil {
		return DistanceResult{}, err
	}
	d, q1, q2, err := homography.Distance(p1, p2, res.Matrix)
	if err != nil {
		return DistanceResult{}, err
	}
	return DistanceResult{
		Distance: RoundDistance(d),
		Pitch1:   q1,
		Pitch2:   q2,
		Source:   res.Source,
	}, nil
}

// RoundDistance rounds meters to the 0.1 m resolution reported to callers.
func RoundDistance(d float64) float64 {
	return math.Round(d*10) / 10
}
