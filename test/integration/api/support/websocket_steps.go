package support

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cucumber/godog"
	"github.com/gorilla/websocket"
)

const wsReplyTimeout = 5 * time.Second

// iConnectToTheWebSocketEndpoint dials /ws on the running server.
func (testCtx *TestContext) iConnectToTheWebSocketEndpoint() error {
	if testCtx.HTTPServer == nil {
		return fmt.Errorf("server is not running")
	}
	url := "ws" + strings.TrimPrefix(testCtx.HTTPServer.URL, "http") + "/ws"

	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return fmt.Errorf("failed to dial %s: %w", url, err)
	}
	testCtx.WSConn = conn
	return nil
}

// iSendAWebSocketMessageWith wraps the doc string payload in a request frame.
func (testCtx *TestContext) iSendAWebSocketMessageWith(msgType, requestID string, payload *godog.DocString) error {
	frame := map[string]interface{}{
		"type":       msgType,
		"request_id": requestID,
		"payload":    json.RawMessage(payload.Content),
	}
	data, err := json.Marshal(frame)
	if err != nil {
		return fmt.Errorf("payload is not valid JSON: %w", err)
	}
	return testCtx.exchange(data)
}

func (testCtx *TestContext) iSendARawWebSocketMessage(raw *godog.DocString) error {
	return testCtx.exchange([]byte(raw.Content))
}

// exchange writes one text frame and stores the reply as the last JSON response.
func (testCtx *TestContext) exchange(data []byte) error {
	if testCtx.WSConn == nil {
		return fmt.Errorf("not connected to the WebSocket endpoint")
	}
	if err := testCtx.WSConn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}

	_ = testCtx.WSConn.SetReadDeadline(time.Now().Add(wsReplyTimeout))
	_, reply, err := testCtx.WSConn.ReadMessage()
	if err != nil {
		return fmt.Errorf("failed to read reply: %w", err)
	}

	testCtx.LastBody = reply
	testCtx.LastJSON = nil
	if err := json.Unmarshal(reply, &testCtx.LastJSON); err != nil {
		return fmt.Errorf("reply is not valid JSON: %w", err)
	}
	return nil
}

// RegisterWebSocketSteps registers WebSocket connection and messaging steps.
func (testCtx *TestContext) RegisterWebSocketSteps(sc *godog.ScenarioContext) {
	sc.Step(`^I connect to the WebSocket endpoint$`, testCtx.iConnectToTheWebSocketEndpoint)
	sc.Step(`^I send a WebSocket "([^"]*)" message with request id "([^"]*)" and payload:$`,
		testCtx.iSendAWebSocketMessageWith)
	sc.Step(`^I send a raw WebSocket message:$`, testCtx.iSendARawWebSocketMessage)
}
