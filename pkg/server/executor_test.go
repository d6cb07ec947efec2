package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/entrhq/bridge/pkg/bridge"
	"github.com/entrhq/bridge/pkg/config"
)

// newTestServer builds a Server around a fresh Hub and serves it from an
// httptest listener.
func newTestServer(t *testing.T, cfg *config.Config) (*httptest.Server, *bridge.Hub) {
	t.Helper()

	if cfg == nil {
		cfg = config.Default()
		cfg.Capabilities.Timeout = 2 * time.Second
	}

	hub := bridge.NewHub(
		bridge.WithStreamBuffer(cfg.Bridge.StreamBuffer),
		bridge.WithBacklogLimit(cfg.Bridge.BacklogLimit),
	)

	srv, err := New(cfg, hub)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, hub
}

func postJSON(t *testing.T, url string, body interface{}) *http.Response {
	t.Helper()

	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("failed to marshal body: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("POST %s failed: %v", url, err)
	}
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
}

func TestWaitForRequest_ReturnsQueuedRequest(t *testing.T) {
	ts, hub := newTestServer(t, nil)

	go hub.Request(context.Background(), "echo", "{}", 2*time.Second)

	deadline := time.Now().Add(time.Second)
	for hub.BacklogLen() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	resp, err := http.Get(ts.URL + "/v1/executor/requests/next")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var req bridge.BridgeRequest
	decodeJSON(t, resp, &req)

	if req.Method != "echo" {
		t.Errorf("method = %q, want echo", req.Method)
	}
	if req.ID == "" {
		t.Error("expected non-empty correlation id")
	}

	// Settle the request so its goroutine exits promptly.
	hub.Complete(bridge.CompleteRequest{ID: req.ID, Success: true, Result: "{}"})
}

func TestComplete_RoundTrip(t *testing.T) {
	ts, hub := newTestServer(t, nil)

	type result struct {
		done bridge.CompleteRequest
		err  error
	}
	resultCh := make(chan result, 1)
	go func() {
		done, err := hub.Request(context.Background(), "echo", "{}", 2*time.Second)
		resultCh <- result{done, err}
	}()

	deadline := time.Now().Add(time.Second)
	for hub.BacklogLen() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	req, err := hub.PollNext(context.Background())
	if err != nil {
		t.Fatalf("PollNext() error = %v", err)
	}

	resp := postJSON(t, ts.URL+"/v1/executor/complete", bridge.CompleteRequest{
		ID:      req.ID,
		Success: true,
		Result:  `{"ok":true}`,
	})

	var completed completeResponse
	decodeJSON(t, resp, &completed)
	if !completed.Accepted {
		t.Error("accepted = false, want true")
	}

	res := <-resultCh
	if res.err != nil {
		t.Fatalf("Request() error = %v", res.err)
	}
	if res.done.Result != `{"ok":true}` {
		t.Errorf("result = %q, want the executor's payload", res.done.Result)
	}

	// The same completion again is rejected.
	resp = postJSON(t, ts.URL+"/v1/executor/complete", bridge.CompleteRequest{ID: req.ID, Success: true})
	decodeJSON(t, resp, &completed)
	if completed.Accepted {
		t.Error("duplicate completion accepted = true, want false")
	}
}

func TestComplete_Validation(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	resp := postJSON(t, ts.URL+"/v1/executor/complete", bridge.CompleteRequest{Success: true})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for missing id", resp.StatusCode)
	}

	resp, err := http.Post(ts.URL+"/v1/executor/complete", "application/json", bytes.NewReader([]byte("not json")))
	if err != nil {
		t.Fatalf("POST failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for malformed body", resp.StatusCode)
	}
}

func TestSubscribeRequests_StreamsBacklogThenLive(t *testing.T) {
	ts, hub := newTestServer(t, nil)

	// Two queued before the executor connects.
	go hub.Request(context.Background(), "m1", "{}", 5*time.Second)
	deadline := time.Now().Add(time.Second)
	for hub.BacklogLen() < 1 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	go hub.Request(context.Background(), "m2", "{}", 5*time.Second)
	deadline = time.Now().Add(time.Second)
	for hub.BacklogLen() < 2 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	streamReq, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/v1/executor/requests/stream", nil)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	resp, err := http.DefaultClient.Do(streamReq)
	if err != nil {
		t.Fatalf("stream request failed: %v", err)
	}
	defer resp.Body.Close()

	if got := resp.Header.Get("Content-Type"); got != "application/x-ndjson" {
		t.Errorf("Content-Type = %q, want application/x-ndjson", got)
	}

	scanner := bufio.NewScanner(resp.Body)
	var got []bridge.BridgeRequest
	for len(got) < 2 && scanner.Scan() {
		var req bridge.BridgeRequest
		if err := json.Unmarshal(scanner.Bytes(), &req); err != nil {
			t.Fatalf("bad stream line %q: %v", scanner.Text(), err)
		}
		got = append(got, req)
	}
	if len(got) != 2 {
		t.Fatalf("read %d requests, want 2", len(got))
	}
	if got[0].Method != "m1" || got[1].Method != "m2" {
		t.Errorf("stream order = [%q, %q], want [m1, m2]", got[0].Method, got[1].Method)
	}

	for _, req := range got {
		hub.Complete(bridge.CompleteRequest{ID: req.ID, Success: true, Result: "{}"})
	}
}

func TestStatus(t *testing.T) {
	ts, hub := newTestServer(t, nil)

	go hub.Request(context.Background(), "queued", "{}", 2*time.Second)
	deadline := time.Now().Add(time.Second)
	for hub.BacklogLen() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	resp, err := http.Get(ts.URL + "/v1/status")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}

	var status statusResponse
	decodeJSON(t, resp, &status)

	if status.Status != "ok" {
		t.Errorf("status = %q, want ok", status.Status)
	}
	if status.ExecutorConnected {
		t.Error("executor_connected = true, want false with no stream open")
	}
	if status.BacklogLength != 1 {
		t.Errorf("backlog_length = %d, want 1", status.BacklogLength)
	}
	if status.PendingRequests != 1 {
		t.Errorf("pending_requests = %d, want 1", status.PendingRequests)
	}
}

func TestVersion(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	resp, err := http.Get(ts.URL + "/v1/version")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}

	var info struct {
		Name    string `json:"name"`
		Version string `json:"version"`
	}
	decodeJSON(t, resp, &info)

	if info.Name != "bridged" {
		t.Errorf("name = %q, want bridged", info.Name)
	}
	if info.Version == "" {
		t.Error("expected non-empty version")
	}
}
