package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MeKo-Tech/pitchmap/internal/calibration"
)

// DefaultMaxBodyBytes caps request bodies when Config.MaxBodyBytes is unset.
const DefaultMaxBodyBytes = 1 << 20

// Server holds the HTTP server state and dependencies.
type Server struct {
	service      *calibration.Service
	corsOrigin   string
	maxBodyBytes int64
	rateLimiter  *RateLimiter
}

// Config holds server configuration.
type Config struct {
	Host            string
	Port            int
	CORSOrigin      string
	MaxBodyBytes    int64
	Timeout         time.Duration
	ShutdownTimeout time.Duration
	RateLimit       RateLimitConfig
}

// RateLimitConfig holds per-client limits. Zero values disable the individual limit.
type RateLimitConfig struct {
	Enabled           bool
	RequestsPerMinute int
	RequestsPerHour   int
	MaxRequestsPerDay int
	MaxDataPerDay     int64
}

// HealthResponse is returned by / and /health.
type HealthResponse struct {
	Status   string `json:"status"`
	Service  string `json:"service"`
	Version  string `json:"version,omitempty"`
	Time     string `json:"time"`
	Sessions int    `json:"sessions"`
}

// CalibrateRequest is the body of POST /calibrate.
type CalibrateRequest struct {
	VideoPoints [][]float64 `json:"video_points"`
	PitchPoints [][]float64 `json:"pitch_points"`
	SessionID   string      `json:"session_id,omitempty"`
}

// CalibrateResponse is the result of POST /calibrate.
type CalibrateResponse struct {
	Success           bool        `json:"success"`
	SessionID         string      `json:"session_id"`
	Matrix            [][]float64 `json:"matrix"`
	ReprojectionError float64     `json:"reprojection_error"`
	Inliers           []bool      `json:"inliers"`
	InlierCount       int         `json:"inlier_count"`
	Message           string      `json:"message"`
}

// TransformRequest is the body of POST /transform and POST /inverse-transform. For the
// inverse, VideoPoint carries the pitch point to map back.
type TransformRequest struct {
	VideoPoint []float64   `json:"video_point"`
	Matrix     [][]float64 `json:"matrix,omitempty"`
	SessionID  string      `json:"session_id,omitempty"`
}

// TransformResponse is the result of POST /transform.
type TransformResponse struct {
	Success    bool      `json:"success"`
	PitchPoint []float64 `json:"pitch_point"`
	Source     string    `json:"source"`
}

// InverseTransformResponse is the result of POST /inverse-transform.
type InverseTransformResponse struct {
	Success    bool      `json:"success"`
	VideoPoint []float64 `json:"video_point"`
	Source     string    `json:"source"`
}

// DistanceRequest is the body of POST /distance.
type DistanceRequest struct {
	Point1    []float64   `json:"point1"`
	Point2    []float64   `json:"point2"`
	Matrix    [][]float64 `json:"matrix,omitempty"`
	SessionID string      `json:"session_id,omitempty"`
}

// DistanceResponse is the result of POST /distance.
type DistanceResponse struct {
	Success     bool      `json:"success"`
	Distance    float64   `json:"distance"`
	PitchPoint1 []float64 `json:"pitch_point1"`
	PitchPoint2 []float64 `json:"pitch_point2"`
	Source      string    `json:"source"`
}

// BatchTransformRequest is the body of POST /batch-transform.
type BatchTransformRequest struct {
	VideoPoints [][]float64 `json:"video_points"`
	Matrix      [][]float64 `json:"matrix,omitempty"`
	SessionID   string      `json:"session_id,omitempty"`
}

// BatchTransformResponse is the result of POST /batch-transform.
type BatchTransformResponse struct {
	Success     bool        `json:"success"`
	PitchPoints [][]float64 `json:"pitch_points"`
	Source      string      `json:"source"`
}

// ErrorResponse is written for every failed request.
type ErrorResponse struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	ErrorType string `json:"error_type"`
}

// NewServer creates a new server backed by service.
func NewServer(config Config, service *calibration.Service) (*Server, error) {
	if service == nil {
		return nil, errors.New("calibration service is required")
	}

	maxBody := config.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = DefaultMaxBodyBytes
	}

	s := &Server{
		service:      service,
		corsOrigin:   config.CORSOrigin,
		maxBodyBytes: maxBody,
	}

	if config.RateLimit.Enabled {
		s.rateLimiter = NewRateLimiter(
			config.RateLimit.RequestsPerMinute,
			config.RateLimit.RequestsPerHour,
			config.RateLimit.MaxRequestsPerDay,
			config.RateLimit.MaxDataPerDay,
		)
	}

	return s, nil
}

// Service returns the calibration service the server dispatches to.
func (s *Server) Service() *calibration.Service {
	return s.service
}

// SetupRoutes configures the HTTP routes.
func (s *Server) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/{$}", s.corsMiddleware(s.healthHandler))
	mux.HandleFunc("/health", s.corsMiddleware(s.healthHandler))
	mux.HandleFunc("/calibrate", s.corsMiddleware(s.rateLimitMiddleware(s.calibrateHandler)))
	mux.HandleFunc("/transform", s.corsMiddleware(s.rateLimitMiddleware(s.transformHandler)))
	mux.HandleFunc("/distance", s.corsMiddleware(s.rateLimitMiddleware(s.distanceHandler)))
	mux.HandleFunc("/batch-transform", s.corsMiddleware(s.rateLimitMiddleware(s.batchTransformHandler)))
	mux.HandleFunc("/inverse-transform", s.corsMiddleware(s.rateLimitMiddleware(s.inverseTransformHandler)))
	mux.Handle("/metrics", promhttp.Handler())
	// The upgrade needs the raw ResponseWriter, so /ws bypasses the instrumenting wrapper.
	mux.HandleFunc("/ws", s.rateLimitMiddleware(s.webSocketHandler))
}

// Handler returns a mux with all routes installed.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.SetupRoutes(mux)
	return mux
}
