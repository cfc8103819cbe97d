// queuectl inspects and drains the webhook delivery queue through a running
// lead-relay API server.
//
// Usage:
//
//	queuectl                # print queue status
//	queuectl <webhook-url>  # dispatch the pending backlog to the URL
//
// The server address comes from LEAD_RELAY_API_URL (default
// http://localhost:8080).
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	appconfig "github.com/soconail/lead-relay/internal/config"
	"github.com/soconail/lead-relay/internal/leadqueue"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	client := &http.Client{Timeout: 5 * time.Minute}

	args := os.Args[1:]
	var err error
	if len(args) == 0 {
		err = checkQueueStatus(client, cfg.APIBaseURL)
	} else {
		err = processQueue(client, cfg.APIBaseURL, args[0])
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		fmt.Fprintln(os.Stderr, "hint: make sure the lead-relay server is running at", cfg.APIBaseURL)
		os.Exit(1)
	}
}

func checkQueueStatus(client *http.Client, baseURL string) error {
	resp, err := client.Get(baseURL + "/api/queue-status")
	if err != nil {
		return fmt.Errorf("queue status request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("queue status failed with HTTP %d: %s", resp.StatusCode, apiErrorMessage(resp.Body))
	}

	var status leadqueue.QueueStatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return fmt.Errorf("decode queue status: %w", err)
	}
	if !status.Success {
		return fmt.Errorf("queue status failed with HTTP %d", resp.StatusCode)
	}

	fmt.Println("Queue statistics:")
	fmt.Printf("  Total conversations: %d\n", status.Stats.Total)
	fmt.Printf("  Pending webhooks:    %d\n", status.Stats.Pending)
	fmt.Printf("  Sent webhooks:       %d\n", status.Stats.Sent)
	fmt.Printf("  With email:          %d\n", status.Stats.WithEmail)
	fmt.Printf("  Good leads:          %d\n", status.Stats.GoodLeads)

	if status.Stats.Pending > 0 {
		fmt.Println()
		fmt.Println("You have unprocessed webhook data.")
		fmt.Println("Run: queuectl <your-webhook-url>")
	} else {
		fmt.Println()
		fmt.Println("All conversations have been processed.")
	}
	return nil
}

// apiErrorMessage pulls a readable message out of an error response. The API
// answers JSON with an "error" field, but middleware in front of it (the rate
// limiter) answers plain text.
func apiErrorMessage(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, 2048))
	if err != nil || len(bytes.TrimSpace(raw)) == 0 {
		return "no response body"
	}
	var apiErr struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error != "" {
		return apiErr.Error
	}
	return strings.TrimSpace(string(raw))
}

func processQueue(client *http.Client, baseURL, webhookURL string) error {
	fmt.Println("Processing webhook queue...")
	fmt.Println("Webhook URL:", webhookURL)
	fmt.Println()

	body, err := json.Marshal(leadqueue.ProcessQueueRequest{WebhookURL: webhookURL})
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	resp, err := client.Post(baseURL+"/api/process-queue", "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("process queue request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("queue processing failed with HTTP %d: %s", resp.StatusCode, apiErrorMessage(resp.Body))
	}

	var result leadqueue.ProcessQueueResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("decode process queue response: %w", err)
	}
	if !result.Success {
		return fmt.Errorf("queue processing failed with HTTP %d: %s", resp.StatusCode, result.Message)
	}

	fmt.Println("Queue processing completed.")
	fmt.Printf("  Processed: %d\n", result.Processed)
	fmt.Printf("  Failed:    %d\n", result.Failed)
	fmt.Printf("  Total:     %d\n", result.Total)

	if len(result.Results) > 0 {
		fmt.Println()
		fmt.Println("Results:")
		for _, item := range result.Results {
			marker := "ok  "
			if item.Status != "success" {
				marker = "FAIL"
			}
			fmt.Printf("  [%s] %s: %s\n", marker, item.ConversationID, item.CustomerName)
			if item.Error != "" {
				fmt.Printf("         %s\n", strings.TrimSpace(item.Error))
			}
		}
	}
	return nil
}
