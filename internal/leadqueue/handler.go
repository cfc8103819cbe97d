package leadqueue

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/soconail/lead-relay/pkg/logging"
)

// Handler exposes the queue over HTTP.
type Handler struct {
	inspector  *Inspector
	dispatcher *Dispatcher
	repo       Repository
	logger     *logging.Logger
}

// NewHandler creates a queue HTTP handler.
func NewHandler(inspector *Inspector, dispatcher *Dispatcher, repo Repository, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		inspector:  inspector,
		dispatcher: dispatcher,
		repo:       repo,
		logger:     logger,
	}
}

// ProcessQueueRequest is the trigger body for a dispatch run.
type ProcessQueueRequest struct {
	WebhookURL string `json:"webhook_url"`
}

// ProcessQueueResponse wraps a dispatch report for the HTTP caller.
type ProcessQueueResponse struct {
	Success   bool         `json:"success"`
	Message   string       `json:"message"`
	Processed int          `json:"processed"`
	Failed    int          `json:"failed"`
	Total     int          `json:"total"`
	Results   []ReportItem `json:"results"`
	Timestamp string       `json:"timestamp"`
}

// ProcessQueue handles POST /api/process-queue. Partial failure is still a
// 200; only a malformed request or an unreadable store is an error response.
func (h *Handler) ProcessQueue(w http.ResponseWriter, r *http.Request) {
	var req ProcessQueueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode process-queue request", "error", err)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}

	report, err := h.dispatcher.Dispatch(r.Context(), req.WebhookURL)
	if err != nil {
		if errors.Is(err, ErrWebhookURLRequired) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Webhook URL is required"})
			return
		}
		h.logger.Error("queue processing failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"success": false,
			"error":   "Failed to process queue",
			"details": err.Error(),
		})
		return
	}

	message := fmt.Sprintf("Processed %d conversations successfully, %d failed", report.Processed, report.Failed)
	if report.Total == 0 {
		message = "No unprocessed conversations found"
	}
	writeJSON(w, http.StatusOK, ProcessQueueResponse{
		Success:   true,
		Message:   message,
		Processed: report.Processed,
		Failed:    report.Failed,
		Total:     report.Total,
		Results:   report.Results,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// QueueStatusResponse wraps the inspector snapshot for the HTTP caller.
type QueueStatusResponse struct {
	Success   bool        `json:"success"`
	Stats     QueueStats  `json:"stats"`
	Queue     []QueueItem `json:"queue"`
	Timestamp string      `json:"timestamp"`
}

// QueueStatus handles GET /api/queue-status.
func (h *Handler) QueueStatus(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.inspector.Inspect(r.Context())
	if err != nil {
		h.logger.Error("queue status failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"success": false,
			"error":   "Failed to get queue status",
			"details": err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, QueueStatusResponse{
		Success:   true,
		Stats:     snapshot.Stats,
		Queue:     snapshot.Items,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// ListConversations handles GET /api/conversations.
func (h *Handler) ListConversations(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.repo.ListSummaries(r.Context())
	if err != nil {
		h.logger.Error("failed to list conversations", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to fetch conversations"})
		return
	}
	writeJSON(w, http.StatusOK, summaries)
}

// HealthCheck handles GET /health by probing the store.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	count, err := h.repo.CountConversations(r.Context())
	if err != nil {
		h.logger.Error("health check store probe failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"status":    "unhealthy",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"error":     "Database connection failed",
			"details":   err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":            "healthy",
		"timestamp":         time.Now().UTC().Format(time.RFC3339),
		"conversationCount": count,
		"database":          "connected",
	})
}

// TestWebhook handles POST /api/test-webhook, a development receiver that
// echoes back whatever payload it is sent. Point a dispatch run at it to
// smoke-test the loop without an external endpoint.
func (h *Handler) TestWebhook(w http.ResponseWriter, r *http.Request) {
	var received any
	if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}

	h.logger.Info("test webhook received data")
	writeJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"message":      "Webhook test successful!",
		"receivedData": received,
		"timestamp":    time.Now().UTC().Format(time.RFC3339),
		"processed":    true,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
