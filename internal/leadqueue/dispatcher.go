package leadqueue

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/soconail/lead-relay/internal/observability/metrics"
	"github.com/soconail/lead-relay/pkg/logging"
)

var dispatchTracer = otel.Tracer("leadrelay.internal.leadqueue.dispatcher")

type dispatchStore interface {
	ListPending(ctx context.Context) ([]ConversationRecord, error)
	MarkDelivered(ctx context.Context, conversationID string, sentAt time.Time) error
}

type payloadSender interface {
	Deliver(ctx context.Context, url string, body any) error
}

// Report is the result of one dispatch run. It is returned to the caller
// and never persisted.
type Report struct {
	Processed int          `json:"processed"`
	Failed    int          `json:"failed"`
	Total     int          `json:"total"`
	Results   []ReportItem `json:"results"`
}

// ReportItem records the outcome of a single delivery attempt.
type ReportItem struct {
	ConversationID string `json:"conversation_id"`
	Status         string `json:"status"`
	CustomerName   string `json:"customer_name"`
	Error          string `json:"error,omitempty"`
}

// Dispatcher drains the pending delivery backlog against a webhook endpoint.
// Records are processed strictly sequentially with a fixed pause between
// attempts; one record's failure never aborts the batch. Failed records stay
// pending and are picked up again on the next run. Two overlapping dispatch
// runs against the same store can both deliver the same record; callers are
// expected to invoke one run at a time.
type Dispatcher struct {
	store   dispatchStore
	sender  payloadSender
	logger  *logging.Logger
	metrics *metrics.DeliveryMetrics
	delay   time.Duration
	source  string
}

// NewDispatcher creates a dispatcher with default pacing.
func NewDispatcher(store dispatchStore, sender payloadSender, logger *logging.Logger) *Dispatcher {
	if logger == nil {
		logger = logging.Default()
	}
	return &Dispatcher{
		store:  store,
		sender: sender,
		logger: logger,
		delay:  100 * time.Millisecond,
		source: "Soco Nail Chatbot",
	}
}

// WithDelay sets the pause between delivery attempts. Zero disables pacing.
func (d *Dispatcher) WithDelay(delay time.Duration) *Dispatcher {
	if delay >= 0 {
		d.delay = delay
	}
	return d
}

// WithSource sets the payload source label.
func (d *Dispatcher) WithSource(source string) *Dispatcher {
	if source != "" {
		d.source = source
	}
	return d
}

// WithMetrics attaches delivery metrics.
func (d *Dispatcher) WithMetrics(m *metrics.DeliveryMetrics) *Dispatcher {
	d.metrics = m
	return d
}

// Dispatch sends every pending lead to webhookURL and reports per-record
// outcomes. It fails outright only on a missing URL or an unreadable store;
// once the loop starts, delivery errors are captured in the report. If the
// context is cancelled mid-run, records that never got an attempt are
// reported as failed, so Processed+Failed always equals Total.
func (d *Dispatcher) Dispatch(ctx context.Context, webhookURL string) (*Report, error) {
	webhookURL = strings.TrimSpace(webhookURL)
	if webhookURL == "" {
		return nil, ErrWebhookURLRequired
	}

	ctx, span := dispatchTracer.Start(ctx, "leadqueue.dispatch")
	defer span.End()

	records, err := d.store.ListPending(ctx)
	if err != nil {
		err = fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("leadrelay.pending", len(records)))

	report := &Report{Total: len(records), Results: make([]ReportItem, 0, len(records))}
	if len(records) == 0 {
		return report, nil
	}

	d.logger.Info("dispatch run started", "pending", len(records), "endpoint", webhookURL)
	start := time.Now()

	for idx, rec := range records {
		d.deliverOne(ctx, webhookURL, rec, report)

		if d.delay > 0 && idx < len(records)-1 {
			select {
			case <-ctx.Done():
				for _, rest := range records[idx+1:] {
					report.Failed++
					report.Results = append(report.Results, ReportItem{
						ConversationID: rest.ConversationID,
						Status:         "failed",
						CustomerName:   customerNameOf(rest),
						Error:          "not attempted: " + ctx.Err().Error(),
					})
				}
				d.logger.Warn("dispatch run interrupted",
					"processed", report.Processed,
					"failed", report.Failed,
					"skipped", len(records)-idx-1,
				)
				return report, nil
			case <-time.After(d.delay):
			}
		}
	}

	d.metrics.ObserveRun(time.Since(start).Seconds())
	d.logger.Info("dispatch run completed",
		"processed", report.Processed,
		"failed", report.Failed,
		"total", report.Total,
	)
	return report, nil
}

func customerNameOf(rec ConversationRecord) string {
	if rec.LeadAnalysis == nil {
		return placeholderName
	}
	return orPlaceholder(rec.LeadAnalysis.CustomerName, placeholderName)
}

func (d *Dispatcher) deliverOne(ctx context.Context, webhookURL string, rec ConversationRecord, report *Report) {
	payload := BuildPayload(rec, d.source, time.Now())
	customerName := customerNameOf(rec)

	if err := d.sender.Deliver(ctx, webhookURL, payload); err != nil {
		report.Failed++
		report.Results = append(report.Results, ReportItem{
			ConversationID: rec.ConversationID,
			Status:         "failed",
			CustomerName:   customerName,
			Error:          err.Error(),
		})
		d.metrics.ObserveDelivery("failed")
		d.logger.Error("webhook delivery failed", "error", err, "conversation_id", rec.ConversationID)
		return
	}

	// Best effort: a successful delivery already happened, so a failed mark
	// must not trigger a second send in this run.
	if err := d.store.MarkDelivered(ctx, rec.ConversationID, time.Now().UTC()); err != nil {
		d.logger.Error("mark delivered failed after successful delivery",
			"error", err, "conversation_id", rec.ConversationID)
	}

	report.Processed++
	report.Results = append(report.Results, ReportItem{
		ConversationID: rec.ConversationID,
		Status:         "success",
		CustomerName:   customerName,
	})
	d.metrics.ObserveDelivery("success")
}
