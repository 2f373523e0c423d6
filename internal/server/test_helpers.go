package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/pitchmap/internal/calibration"
	"github.com/MeKo-Tech/pitchmap/internal/homography"
	"github.com/MeKo-Tech/pitchmap/internal/session"
)

// newTestServer creates a server with a fresh registry and default estimator options.
func newTestServer(t *testing.T, cfg Config) *Server {
	t.Helper()
	svc, err := calibration.NewService(session.NewRegistry(""), homography.DefaultOptions())
	require.NoError(t, err)
	s, err := NewServer(cfg, svc)
	require.NoError(t, err)
	return s
}

// doJSON sends body, JSON-encoded unless it is already a string, through the full route table.
func doJSON(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

// decodeBody unmarshals a recorded JSON response into T.
func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), "body: %s", w.Body.String())
	return v
}

// scaleCalibration maps a 100x60 pixel rectangle onto a 10x6 m rectangle.
func scaleCalibration(sessionID string) CalibrateRequest {
	return CalibrateRequest{
		VideoPoints: [][]float64{{0, 0}, {100, 0}, {100, 60}, {0, 60}},
		PitchPoints: [][]float64{{0, 0}, {10, 0}, {10, 6}, {0, 6}},
		SessionID:   sessionID,
	}
}
