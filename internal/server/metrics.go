package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pitchmap_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "status", "outcome"}, // outcome: ok or the error_type
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pitchmap_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	requestBodyBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pitchmap_request_body_bytes",
			Help:    "Size of request bodies in bytes",
			Buckets: []float64{128, 512, 1024, 4 * 1024, 16 * 1024, 64 * 1024, 256 * 1024, 1024 * 1024},
		},
	)

	// Calibration metrics
	calibrationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pitchmap_calibrations_total",
			Help: "Total number of calibration requests",
		},
		[]string{"transport", "status"}, // transport: http, websocket
	)

	reprojectionError = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pitchmap_reprojection_error_meters",
			Help:    "RMS reprojection error of successful calibrations",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2, 5, 10, 25},
		},
	)

	inlierRatio = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pitchmap_calibration_inlier_ratio",
			Help:    "Fraction of correspondences kept by RANSAC",
			Buckets: []float64{.25, .5, .6, .7, .8, .9, .95, 1},
		},
	)

	activeSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pitchmap_active_sessions",
			Help: "Number of sessions holding a calibrated transform",
		},
	)

	// Transformation metrics
	transformedPoints = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pitchmap_transformed_points_total",
			Help: "Total number of points mapped between video and pitch space",
		},
		[]string{"operation", "source"}, // source: explicit, session
	)

	// Rate limiting metrics
	rateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pitchmap_rate_limit_hits_total",
			Help: "Total number of rate limit hits",
		},
		[]string{"type", "route"}, // type: minute, hour, requests, data
	)

	// WebSocket metrics
	websocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pitchmap_websocket_active_connections",
			Help: "Number of active WebSocket connections",
		},
	)

	websocketMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pitchmap_websocket_messages_total",
			Help: "Total number of WebSocket messages",
		},
		[]string{"direction"}, // direction: sent, received
	)
)
