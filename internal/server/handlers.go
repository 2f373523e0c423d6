package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/MeKo-Tech/pitchmap/internal/version"
)

// healthHandler returns server health status.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := HealthResponse{
		Status:   "ok",
		Service:  version.ServiceName,
		Version:  version.Version,
		Time:     time.Now().UTC().Format(time.RFC3339),
		Sessions: s.service.Registry().Len(),
	}

	s.writeJSON(w, http.StatusOK, response)
}

// calibrateHandler estimates and stores a session transform.
func (s *Server) calibrateHandler(w http.ResponseWriter, r *http.Request) {
	var req CalibrateRequest
	if !s.decodePost(w, r, &req) {
		return
	}
	resp, err := s.calibrate(transportHTTP, req)
	s.respond(w, resp, err)
}

// transformHandler maps one video point into pitch space.
func (s *Server) transformHandler(w http.ResponseWriter, r *http.Request) {
	var req TransformRequest
	if !s.decodePost(w, r, &req) {
		return
	}
	resp, err := s.transform(req)
	s.respond(w, resp, err)
}

// distanceHandler measures the pitch distance between two video points.
func (s *Server) distanceHandler(w http.ResponseWriter, r *http.Request) {
	var req DistanceRequest
	if !s.decodePost(w, r, &req) {
		return
	}
	resp, err := s.distance(req)
	s.respond(w, resp, err)
}

// batchTransformHandler maps a list of video points into pitch space.
func (s *Server) batchTransformHandler(w http.ResponseWriter, r *http.Request) {
	var req BatchTransformRequest
	if !s.decodePost(w, r, &req) {
		return
	}
	resp, err := s.batchTransform(req)
	s.respond(w, resp, err)
}

// inverseTransformHandler maps a pitch point back into video space.
func (s *Server) inverseTransformHandler(w http.ResponseWriter, r *http.Request) {
	var req TransformRequest
	if !s.decodePost(w, r, &req) {
		return
	}
	resp, err := s.inverseTransform(req)
	s.respond(w, resp, err)
}

// decodePost enforces POST, limits the body size and decodes JSON into dst. It writes the error
// response itself and reports whether the handler should continue.
func (s *Server) decodePost(w http.ResponseWriter, r *http.Request, dst any) bool {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return false
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxBodyBytes)
	if r.ContentLength > 0 {
		requestBodyBytes.Observe(float64(r.ContentLength))
	}

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if !errors.As(err, &tooLarge) {
			err = malformed("invalid JSON body: %v", err)
		}
		s.writeError(w, err)
		return false
	}
	return true
}

func (s *Server) respond(w http.ResponseWriter, resp any, err error) {
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Log error, but can't send another response
		slog.Error("Failed to encode response", "error", err)
	}
}

// writeError classifies err and writes the JSON error envelope.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status, errorType := classifyError(err)
	if status >= http.StatusInternalServerError {
		slog.Error("Request failed", "error", err)
	} else {
		slog.Debug("Request rejected", "error_type", errorType, "error", err)
	}
	s.writeErrorResponse(w, err.Error(), errorType, status)
}

// writeErrorResponse writes a JSON error response.
func (s *Server) writeErrorResponse(w http.ResponseWriter, message, errorType string, statusCode int) {
	if rec, ok := w.(errorTypeRecorder); ok {
		rec.recordErrorType(errorType)
	}
	s.writeJSON(w, statusCode, ErrorResponse{
		Success:   false,
		Error:     message,
		ErrorType: errorType,
	})
}
