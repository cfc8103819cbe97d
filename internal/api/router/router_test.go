package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/soconail/lead-relay/internal/leadqueue"
	"github.com/soconail/lead-relay/internal/webhook"
	"github.com/soconail/lead-relay/pkg/logging"
)

func newTestServer(t *testing.T, repo leadqueue.Repository) *httptest.Server {
	t.Helper()
	logger := logging.New("error")
	sender := webhook.New(webhook.Config{Logger: logger})
	inspector := leadqueue.NewInspector(repo)
	dispatcher := leadqueue.NewDispatcher(repo, sender, logger).WithDelay(0)
	handler := leadqueue.NewHandler(inspector, dispatcher, repo, logger)

	srv := httptest.NewServer(New(&Config{
		Logger:             logger,
		QueueHandler:       handler,
		CORSAllowedOrigins: []string{"*"},
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRouterHealth(t *testing.T) {
	srv := newTestServer(t, leadqueue.NewInMemoryRepository())

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("health request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestRouterUnknownRoute(t *testing.T) {
	srv := newTestServer(t, leadqueue.NewInMemoryRepository())

	resp, err := http.Get(srv.URL + "/nope")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestRouterMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t, leadqueue.NewInMemoryRepository())

	resp, err := http.Get(srv.URL + "/api/process-queue")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", resp.StatusCode)
	}
}

// TestRouterEndToEndDispatch drains the queue against the server's own
// test-webhook endpoint, then verifies the status endpoint sees the result.
func TestRouterEndToEndDispatch(t *testing.T) {
	repo := leadqueue.NewInMemoryRepository()
	repo.Insert(leadqueue.ConversationRecord{
		ConversationID: "conv_1",
		Messages: []leadqueue.Message{
			{Role: "user", Content: "book me in"},
		},
		LeadAnalysis: &leadqueue.LeadAnalysis{
			CustomerName:  "Sarah",
			CustomerEmail: "sarah@x.com",
			LeadQuality:   "good",
		},
	})
	srv := newTestServer(t, repo)

	body, _ := json.Marshal(leadqueue.ProcessQueueRequest{
		WebhookURL: srv.URL + "/api/test-webhook",
	})
	resp, err := http.Post(srv.URL+"/api/process-queue", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("process-queue request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var report leadqueue.ProcessQueueResponse
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if report.Processed != 1 || report.Failed != 0 || report.Total != 1 {
		t.Fatalf("unexpected report: %+v", report)
	}

	statusResp, err := http.Get(srv.URL + "/api/queue-status")
	if err != nil {
		t.Fatalf("queue-status request: %v", err)
	}
	defer statusResp.Body.Close()

	var status leadqueue.QueueStatusResponse
	if err := json.NewDecoder(statusResp.Body).Decode(&status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if status.Stats.Sent != 1 || status.Stats.Pending != 0 {
		t.Fatalf("unexpected stats after dispatch: %+v", status.Stats)
	}
}

func TestRouterCORSPreflight(t *testing.T) {
	srv := newTestServer(t, leadqueue.NewInMemoryRepository())

	req, _ := http.NewRequest(http.MethodOptions, srv.URL+"/api/process-queue", nil)
	req.Header.Set("Origin", "https://widget.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("preflight request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "https://widget.example" {
		t.Fatalf("expected origin echoed, got %q", got)
	}
}
