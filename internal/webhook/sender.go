package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/soconail/lead-relay/pkg/logging"
)

var senderTracer = otel.Tracer("leadrelay.internal.webhook.sender")

const defaultUserAgent = "lead-relay/0.1"

// Config controls how the sender behaves.
type Config struct {
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *logging.Logger
	UserAgent  string
}

// Sender posts JSON payloads to operator-supplied webhook endpoints. It adds
// no authentication headers; the receiving endpoint owns auth.
type Sender struct {
	httpClient *http.Client
	logger     *logging.Logger
	userAgent  string
}

// New creates a configured Sender with sane defaults.
func New(cfg Config) *Sender {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &Sender{
		httpClient: httpClient,
		logger:     logger,
		userAgent:  userAgent,
	}
}

// Deliver POSTs body as JSON to url. Any transport error or non-2xx status
// is a delivery failure.
func (s *Sender) Deliver(ctx context.Context, url string, body any) error {
	ctx, span := senderTracer.Start(ctx, "webhook.deliver")
	defer span.End()
	span.SetAttributes(attribute.String("leadrelay.webhook_url", url))

	raw, err := json.Marshal(body)
	if err != nil {
		err = fmt.Errorf("webhook: encode payload: %w", err)
		span.RecordError(err)
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		err = fmt.Errorf("webhook: build request: %w", err)
		span.RecordError(err)
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		err = fmt.Errorf("webhook: post failed: %w", err)
		span.RecordError(err)
		return err
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		_ = resp.Body.Close()
	}()

	span.SetAttributes(attribute.Int("leadrelay.status_code", resp.StatusCode))
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		err = fmt.Errorf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
		span.RecordError(err)
		return err
	}

	s.logger.Debug("webhook delivered", "url", url, "status", resp.StatusCode)
	return nil
}
