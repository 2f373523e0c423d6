package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// exposedHeaders lets browser annotation tools read the back-off hints on a 429.
var exposedHeaders = strings.Join([]string{
	"Retry-After",
	"X-RateLimit-Type", "X-RateLimit-Limit",
	"X-Quota-Type", "X-Quota-Limit", "X-Quota-Used", "X-Quota-Resets",
}, ", ")

// responseWriter records the status and, for error envelopes, the pitchmap error_type.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	errorType  string
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) recordErrorType(errorType string) {
	rw.errorType = errorType
}

// errorTypeRecorder is satisfied by writers that want the error_type of a failed request.
type errorTypeRecorder interface {
	recordErrorType(errorType string)
}

// routeLabel names the matched route. Requests that matched no pattern share one label.
func routeLabel(r *http.Request) string {
	if r.Pattern == "" {
		return "unmatched"
	}
	return r.Pattern
}

// corsMiddleware opens the API to annotation front ends on corsOrigin and records per-route
// request metrics, labelled by error_type on failure.
func (s *Server) corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", s.corsOrigin)
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		h.Set("Access-Control-Expose-Headers", exposedHeaders)
		h.Set("Access-Control-Max-Age", "86400")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		start := time.Now()
		next(rw, r)
		duration := time.Since(start)

		route := routeLabel(r)
		outcome := "ok"
		if rw.errorType != "" {
			outcome = rw.errorType
		}
		httpRequestsTotal.WithLabelValues(route, strconv.Itoa(rw.statusCode), outcome).Inc()
		httpRequestDuration.WithLabelValues(route).Observe(duration.Seconds())
		slog.Debug("Request served", "route", route, "status", rw.statusCode, "outcome", outcome,
			"duration_ms", duration.Milliseconds())
	}
}

// limitType names the exhausted limit of a rate limiter rejection.
func limitType(err error) string {
	var rl *RateLimitError
	var quota *QuotaExceededError
	switch {
	case errors.As(err, &rl):
		return rl.Type
	case errors.As(err, &quota):
		return quota.Type
	default:
		return "unknown"
	}
}

// rateLimitMiddleware throttles clients per address. The body size counts against the data
// quota, so large batch-transform payloads use it up faster than single points.
func (s *Server) rateLimitMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.rateLimiter == nil {
			next(w, r)
			return
		}

		client := getClientIP(r)
		size := max(r.ContentLength, 0)

		if err := s.rateLimiter.CheckRateLimit(client, size); err != nil {
			route := routeLabel(r)
			kind := limitType(err)
			rateLimitHits.WithLabelValues(kind, route).Inc()
			slog.Warn("Client throttled", "client", client, "route", route, "limit", kind,
				"body_bytes", size, "error", err)
			s.handleRateLimitError(w, err)
			return
		}

		next(w, r)
	}
}

// handleRateLimitError handles rate limit and quota errors.
func (s *Server) handleRateLimitError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")

	var e *RateLimitError
	var e1 *QuotaExceededError
	var response map[string]interface{}
	switch {
	case errors.As(err, &e):
		w.Header().Set("X-RateLimit-Type", e.Type)
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(e.Limit))
		w.Header().Set("Retry-After", fmt.Sprintf("%.0f", e.RetryAfter.Seconds()))
		w.WriteHeader(http.StatusTooManyRequests)
		response = map[string]interface{}{
			"success": false, "error": e.Error(), "error_type": "rate_limit_exceeded",
			"type": e.Type, "limit": e.Limit, "retry_after": e.RetryAfter.Seconds(),
		}
	case errors.As(err, &e1):
		w.Header().Set("X-Quota-Type", e1.Type)
		w.Header().Set("X-Quota-Limit", strconv.FormatInt(e1.Limit, 10))
		w.Header().Set("X-Quota-Used", strconv.FormatInt(e1.Used, 10))
		w.Header().Set("X-Quota-Resets", e1.Resets.Format(http.TimeFormat))
		w.WriteHeader(http.StatusTooManyRequests)
		response = map[string]interface{}{
			"success": false, "error": e1.Error(), "error_type": "quota_exceeded",
			"type": e1.Type, "limit": e1.Limit, "used": e1.Used, "resets": e1.Resets.Format(time.RFC3339),
		}
	default:
		w.WriteHeader(http.StatusInternalServerError)
		response = map[string]interface{}{
			"success": false, "error": "Rate limiting check failed", "error_type": errorTypeInternal,
		}
	}

	if rec, ok := w.(errorTypeRecorder); ok {
		rec.recordErrorType(response["error_type"].(string))
	}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		slog.Error("Failed to encode rate limit response", "error", err)
	}
}

// getClientIP extracts the client IP address from the request.
func getClientIP(r *http.Request) string {
	// X-Forwarded-For can contain multiple IPs, take the first one
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx > 0 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
