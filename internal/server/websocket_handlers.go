package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
)

const (
	wsReadDeadline = 60 * time.Second
	wsPingInterval = 30 * time.Second
	wsWriteWait    = 10 * time.Second
)

// WebSocket message types.
const (
	wsTypeCalibrate        = "calibrate"
	wsTypeTransform        = "transform"
	wsTypeDistance         = "distance"
	wsTypeBatchTransform   = "batch_transform"
	wsTypeInverseTransform = "inverse_transform"
)

// WebSocket upgrader with reasonable defaults.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Browser clients are served from arbitrary annotation front ends.
		return true
	},
}

// WebSocketRequest is a request frame. Payload uses the shape of the matching HTTP request body.
type WebSocketRequest struct {
	Type      string          `json:"type"`
	RequestID string          `json:"request_id,omitempty"`
	Payload   json.RawMessage `json:"payload"`
}

// WebSocketConnWriter is an interface for writing WebSocket messages.
type WebSocketConnWriter interface {
	WriteMessage(messageType int, data []byte) error
}

// WebSocketResponse is a reply frame.
type WebSocketResponse struct {
	Type      string      `json:"type"`
	Status    string      `json:"status"` // "completed" or "error"
	Result    interface{} `json:"result,omitempty"`
	Error     string      `json:"error,omitempty"`
	ErrorType string      `json:"error_type,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
}

// webSocketHandler upgrades the connection and serves request frames until the client leaves.
func (s *Server) webSocketHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("Failed to upgrade connection to WebSocket", "error", err)
		return
	}
	defer func() {
		_ = conn.Close()
	}()

	websocketConnections.Inc()
	defer websocketConnections.Dec()

	slog.Info("WebSocket connection established", "remote_addr", r.RemoteAddr)
	s.handleWebSocketConnection(conn)
	slog.Info("WebSocket connection closed", "remote_addr", r.RemoteAddr)
}

// handleWebSocketConnection processes messages from a WebSocket connection.
func (s *Server) handleWebSocketConnection(conn *websocket.Conn) {
	conn.SetReadLimit(s.maxBodyBytes)
	_ = conn.SetReadDeadline(time.Now().Add(wsReadDeadline))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(wsReadDeadline))
		return nil
	})

	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(wsPingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(wsWriteWait)); err != nil {
					return
				}
			}
		}
	}()

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Error("WebSocket error", "error", err)
			}
			return
		}

		websocketMessagesTotal.WithLabelValues("received").Inc()

		if messageType == websocket.TextMessage {
			s.handleWebSocketMessage(conn, data)
		}
	}
}

// handleWebSocketMessage dispatches one request frame and writes exactly one reply.
func (s *Server) handleWebSocketMessage(conn WebSocketConnWriter, data []byte) {
	var req WebSocketRequest
	if err := json.Unmarshal(data, &req); err != nil {
		s.sendWebSocketError(conn, "error", "", malformed("invalid frame: %v", err))
		return
	}

	requestID := req.RequestID
	if requestID == "" {
		requestID = strconv.FormatInt(time.Now().UnixNano(), 10)
	}
	replyType := req.Type + "_response"

	result, err := s.dispatchWebSocket(req)
	if err != nil {
		s.sendWebSocketError(conn, replyType, requestID, err)
		return
	}

	s.sendWebSocketResponse(conn, WebSocketResponse{
		Type:      replyType,
		Status:    "completed",
		Result:    result,
		RequestID: requestID,
	})
}

func (s *Server) dispatchWebSocket(req WebSocketRequest) (interface{}, error) {
	switch req.Type {
	case wsTypeCalibrate:
		var p CalibrateRequest
		if err := decodePayload(req.Payload, &p); err != nil {
			return nil, err
		}
		return s.calibrate(transportWebSocket, p)
	case wsTypeTransform:
		var p TransformRequest
		if err := decodePayload(req.Payload, &p); err != nil {
			return nil, err
		}
		return s.transform(p)
	case wsTypeDistance:
		var p DistanceRequest
		if err := decodePayload(req.Payload, &p); err != nil {
			return nil, err
		}
		return s.distance(p)
	case wsTypeBatchTransform:
		var p BatchTransformRequest
		if err := decodePayload(req.Payload, &p); err != nil {
			return nil, err
		}
		return s.batchTransform(p)
	case wsTypeInverseTransform:
		var p TransformRequest
		if err := decodePayload(req.Payload, &p); err != nil {
			return nil, err
		}
		return s.inverseTransform(p)
	default:
		return nil, malformed("unsupported request type %q", req.Type)
	}
}

func decodePayload(raw json.RawMessage, dst any) error {
	if len(raw) == 0 {
		return malformed("payload is required")
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return malformed("invalid payload: %v", err)
	}
	return nil
}

// sendWebSocketResponse sends a response message over WebSocket.
func (s *Server) sendWebSocketResponse(conn WebSocketConnWriter, response WebSocketResponse) {
	data, err := json.Marshal(response)
	if err != nil {
		slog.Error("Failed to marshal WebSocket response", "error", err)
		return
	}

	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		slog.Error("Failed to send WebSocket message", "error", err)
		return
	}

	websocketMessagesTotal.WithLabelValues("sent").Inc()
}

// sendWebSocketError sends an error reply classified like the HTTP error envelope.
func (s *Server) sendWebSocketError(conn WebSocketConnWriter, replyType, requestID string, err error) {
	_, errorType := classifyError(err)
	s.sendWebSocketResponse(conn, WebSocketResponse{
		Type:      replyType,
		Status:    "error",
		Error:     err.Error(),
		ErrorType: errorType,
		RequestID: requestID,
	})
}
