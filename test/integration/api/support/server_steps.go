package support

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cucumber/godog"
)

// thePitchmapServerIsRunning starts a server with default settings.
func (testCtx *TestContext) thePitchmapServerIsRunning() error {
	return testCtx.StartServer()
}

// thePitchmapServerIsRunningWithARateLimit starts a server that allows perMinute requests
// per client and minute.
func (testCtx *TestContext) thePitchmapServerIsRunningWithARateLimit(perMinute int) error {
	testCtx.Config.RateLimit.Enabled = true
	testCtx.Config.RateLimit.RequestsPerMinute = perMinute
	return testCtx.StartServer()
}

// thePitchmapServerIsRunningWithABodyLimit starts a server that rejects bodies above maxBytes.
func (testCtx *TestContext) thePitchmapServerIsRunningWithABodyLimit(maxBytes int) error {
	testCtx.Config.MaxBodyBytes = int64(maxBytes)
	return testCtx.StartServer()
}

// iSendARequestTo issues a request without a body.
func (testCtx *TestContext) iSendARequestTo(method, path string) error {
	return testCtx.do(method, path, nil)
}

// iSendAPOSTRequestToWith issues a POST with the doc string as JSON body.
func (testCtx *TestContext) iSendAPOSTRequestToWith(path string, body *godog.DocString) error {
	return testCtx.do(http.MethodPost, path, []byte(body.Content))
}

// iSendAPOSTRequestToUsingMatrixWith merges a remembered matrix into the JSON body.
func (testCtx *TestContext) iSendAPOSTRequestToUsingMatrixWith(path, name string, body *godog.DocString) error {
	m, ok := testCtx.Matrices[name]
	if !ok {
		return fmt.Errorf("no matrix remembered as %q", name)
	}

	var doc map[string]interface{}
	if err := json.Unmarshal([]byte(body.Content), &doc); err != nil {
		return fmt.Errorf("request body is not a JSON object: %w", err)
	}
	doc["matrix"] = m

	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return testCtx.do(http.MethodPost, path, data)
}

// postJSON marshals v and POSTs it to path.
func (testCtx *TestContext) postJSON(path string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return testCtx.do(http.MethodPost, path, data)
}

func (testCtx *TestContext) do(method, path string, body []byte) error {
	if testCtx.HTTPServer == nil {
		return fmt.Errorf("server is not running")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, testCtx.URL(path), reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	testCtx.LastStatusCode = resp.StatusCode
	testCtx.LastHeaders = resp.Header
	testCtx.LastBody = data
	testCtx.LastJSON = nil
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(data, &testCtx.LastJSON); err != nil {
			return fmt.Errorf("response is not valid JSON: %w", err)
		}
	}
	return nil
}

// iSendRequestsTo repeats a POST body n times, keeping the last response.
func (testCtx *TestContext) iSendRequestsToWith(n int, path string, body *godog.DocString) error {
	for i := 0; i < n; i++ {
		if err := testCtx.do(http.MethodPost, path, []byte(body.Content)); err != nil {
			return fmt.Errorf("request %d: %w", i+1, err)
		}
	}
	return nil
}

// RegisterServerSteps registers server lifecycle and request steps.
func (testCtx *TestContext) RegisterServerSteps(sc *godog.ScenarioContext) {
	sc.Step(`^the pitchmap server is running$`, testCtx.thePitchmapServerIsRunning)
	sc.Step(`^the pitchmap server is running with a limit of (\d+) requests per minute$`,
		testCtx.thePitchmapServerIsRunningWithARateLimit)
	sc.Step(`^the pitchmap server is running with a body limit of (\d+) bytes$`,
		testCtx.thePitchmapServerIsRunningWithABodyLimit)

	sc.Step(`^I send an? (GET|POST|PUT|DELETE|OPTIONS) request to "([^"]*)"$`, testCtx.iSendARequestTo)
	sc.Step(`^I send a POST request to "([^"]*)" with:$`, testCtx.iSendAPOSTRequestToWith)
	sc.Step(`^I send a POST request to "([^"]*)" using matrix "([^"]*)" with:$`,
		testCtx.iSendAPOSTRequestToUsingMatrixWith)
	sc.Step(`^I send (\d+) POST requests to "([^"]*)" with:$`, testCtx.iSendRequestsToWith)
}
