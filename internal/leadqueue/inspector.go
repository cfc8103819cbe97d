package leadqueue

import (
	"context"
	"fmt"
	"time"
)

// Placeholder values shown for absent lead fields. with_email counts
// against the email placeholder, so it doubles as the "no email" sentinel.
const (
	placeholderName    = "Unknown"
	placeholderEmail   = "No email"
	placeholderService = "No service"
	placeholderQuality = "unknown"
)

// QueueStats aggregates the delivery backlog.
type QueueStats struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Sent      int `json:"sent"`
	WithEmail int `json:"with_email"`
	GoodLeads int `json:"good_leads"`
}

// QueueItem is one conversation's delivery status, denormalized for display.
type QueueItem struct {
	ConversationID  string     `json:"conversation_id"`
	Status          string     `json:"status"`
	CustomerName    string     `json:"customer_name"`
	CustomerEmail   string     `json:"customer_email"`
	CustomerService string     `json:"customer_service"`
	LeadQuality     string     `json:"lead_quality"`
	CreatedAt       time.Time  `json:"created_at"`
	WebhookSent     bool       `json:"webhook_sent"`
	WebhookSentAt   *time.Time `json:"webhook_sent_at"`
	MessageCount    int        `json:"message_count"`
}

// QueueSnapshot is the inspector's full result.
type QueueSnapshot struct {
	Stats QueueStats  `json:"stats"`
	Items []QueueItem `json:"queue"`
}

type extractedLister interface {
	ListExtracted(ctx context.Context) ([]ConversationRecord, error)
}

// Inspector reports delivery state over all extracted conversations.
// It is read-only; it never mutates the store.
type Inspector struct {
	store extractedLister
}

// NewInspector creates an inspector over the given store.
func NewInspector(store extractedLister) *Inspector {
	return &Inspector{store: store}
}

// Inspect reads every extracted conversation and computes queue statistics.
// A failed read aborts with no partial result.
func (i *Inspector) Inspect(ctx context.Context) (*QueueSnapshot, error) {
	records, err := i.store.ListExtracted(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	snapshot := &QueueSnapshot{Items: make([]QueueItem, 0, len(records))}
	for _, rec := range records {
		item := newQueueItem(rec)
		snapshot.Items = append(snapshot.Items, item)

		snapshot.Stats.Total++
		if rec.WebhookSent {
			snapshot.Stats.Sent++
		} else {
			snapshot.Stats.Pending++
		}
		if item.CustomerEmail != placeholderEmail {
			snapshot.Stats.WithEmail++
		}
		if item.LeadQuality == "good" {
			snapshot.Stats.GoodLeads++
		}
	}
	return snapshot, nil
}

func newQueueItem(rec ConversationRecord) QueueItem {
	analysis := rec.LeadAnalysis
	if analysis == nil {
		analysis = &LeadAnalysis{}
	}
	return QueueItem{
		ConversationID:  rec.ConversationID,
		Status:          rec.DeliveryStatus(),
		CustomerName:    orPlaceholder(analysis.CustomerName, placeholderName),
		CustomerEmail:   orPlaceholder(analysis.CustomerEmail, placeholderEmail),
		CustomerService: orPlaceholder(analysis.CustomerService, placeholderService),
		LeadQuality:     orPlaceholder(analysis.LeadQuality, placeholderQuality),
		CreatedAt:       rec.CreatedAt,
		WebhookSent:     rec.WebhookSent,
		WebhookSentAt:   rec.WebhookSentAt,
		MessageCount:    len(rec.Messages),
	}
}

func orPlaceholder(value, placeholder string) string {
	if value == "" {
		return placeholder
	}
	return value
}
