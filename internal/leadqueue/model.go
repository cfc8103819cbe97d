package leadqueue

import (
	"time"

	"github.com/google/uuid"
)

// Delivery statuses reported for queue items.
const (
	StatusPending = "pending"
	StatusSent    = "sent"
)

// Message is one turn of a stored conversation. The conversation subsystem
// owns these; the queue only reads them to build transcripts.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// LeadAnalysis holds the structured fields extracted from a conversation.
// Every field is optional; absent values are stored as zero values and
// defaulted at projection time. JSON tags match the stored analysis blob.
type LeadAnalysis struct {
	CustomerName       string `json:"customerName,omitempty"`
	CustomerEmail      string `json:"customerEmail,omitempty"`
	CustomerPhone      string `json:"customerPhone,omitempty"`
	CustomerService    string `json:"customerService,omitempty"`
	AppointmentBooked  bool   `json:"customerAppointment,omitempty"`
	CustomerTime       string `json:"customerTime,omitempty"`
	CustomerNotes      string `json:"customerNotes,omitempty"`
	CustomerTechnician string `json:"customerTechnician,omitempty"`
	LeadQuality        string `json:"leadQuality,omitempty"`
}

// ConversationRecord is a conversation row as persisted in the store.
// LeadAnalysis is nil until extraction has run; such records are outside
// the delivery queue entirely.
type ConversationRecord struct {
	ID             uuid.UUID
	ConversationID string
	Messages       []Message
	LeadAnalysis   *LeadAnalysis
	AnalyzedAt     *time.Time
	WebhookSent    bool
	WebhookSentAt  *time.Time
	CreatedAt      time.Time
}

// DeliveryStatus resolves the record's queue status string.
func (r *ConversationRecord) DeliveryStatus() string {
	if r.WebhookSent {
		return StatusSent
	}
	return StatusPending
}

// ConversationSummary is the read-only listing shape for dashboards.
type ConversationSummary struct {
	ID             uuid.UUID     `json:"id"`
	ConversationID string        `json:"conversationId"`
	MessageCount   int           `json:"messageCount"`
	CreatedAt      time.Time     `json:"createdAt"`
	LastActivity   time.Time     `json:"lastActivity"`
	LeadAnalysis   *LeadAnalysis `json:"leadAnalysis"`
	AnalyzedAt     *time.Time    `json:"analyzedAt"`
}
