package support

import (
	"fmt"
	"net/http"
	"net/http/httptest"

	"github.com/gorilla/websocket"

	"github.com/MeKo-Tech/pitchmap/internal/calibration"
	"github.com/MeKo-Tech/pitchmap/internal/homography"
	"github.com/MeKo-Tech/pitchmap/internal/server"
	"github.com/MeKo-Tech/pitchmap/internal/session"
)

// TestContext holds the state of one scenario.
type TestContext struct {
	// Server under test
	Config     server.Config
	API        *server.Server
	HTTPServer *httptest.Server

	// HTTP response state
	LastStatusCode int
	LastBody       []byte
	LastHeaders    http.Header
	LastJSON       interface{}

	// WebSocket state
	WSConn *websocket.Conn

	// Matrices remembered by name, e.g. a calibration captured for later explicit use.
	Matrices map[string][][]float64
}

// NewTestContext creates a context with default server settings.
func NewTestContext() *TestContext {
	return &TestContext{
		Config: server.Config{
			Host:       "127.0.0.1",
			CORSOrigin: "*",
		},
		Matrices: map[string][][]float64{},
	}
}

// StartServer builds the service stack and serves it over httptest.
func (testCtx *TestContext) StartServer() error {
	if testCtx.HTTPServer != nil {
		return nil
	}

	svc, err := calibration.NewService(session.NewRegistry(session.DefaultID), homography.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to create calibration service: %w", err)
	}

	api, err := server.NewServer(testCtx.Config, svc)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	testCtx.API = api
	testCtx.HTTPServer = httptest.NewServer(api.Handler())
	return nil
}

// URL returns the absolute URL for path on the running server.
func (testCtx *TestContext) URL(path string) string {
	return testCtx.HTTPServer.URL + path
}

// Cleanup closes the WebSocket connection and the server.
func (testCtx *TestContext) Cleanup() error {
	var err error
	if testCtx.WSConn != nil {
		err = testCtx.WSConn.Close()
		testCtx.WSConn = nil
	}
	if testCtx.HTTPServer != nil {
		testCtx.HTTPServer.Close()
		testCtx.HTTPServer = nil
	}
	return err
}
