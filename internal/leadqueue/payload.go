package leadqueue

import (
	"fmt"
	"strings"
	"time"
)

// DeliveryPayload is the flat JSON body posted to the webhook endpoint.
// Field names are part of the external contract consumed by automation
// tools on the receiving end.
type DeliveryPayload struct {
	CustomerName        string `json:"customer_name"`
	CustomerEmail       string `json:"customer_email"`
	CustomerPhone       string `json:"customer_phone"`
	CustomerService     string `json:"customer_service"`
	AppointmentTime     string `json:"appointment_time"`
	SpecialNotes        string `json:"special_notes"`
	PreferredTechnician string `json:"preferred_technician"`
	LeadQuality         string `json:"lead_quality"`
	AppointmentBooked   bool   `json:"appointment_booked"`
	ConversationID      string `json:"conversation_id"`
	MessageCount        int    `json:"message_count"`
	CustomerMessages    string `json:"customer_messages"`
	Source              string `json:"source"`
	Timestamp           string `json:"timestamp"`
	ExtractedAt         string `json:"extracted_at"`
}

// BuildPayload projects a conversation record into a delivery payload.
// The projection is total: a record with no analysis at all still yields a
// well-formed payload with empty-string/false defaults. It never mutates
// the record.
func BuildPayload(rec ConversationRecord, source string, now time.Time) DeliveryPayload {
	analysis := rec.LeadAnalysis
	if analysis == nil {
		analysis = &LeadAnalysis{}
	}

	ts := now.UTC().Format(time.RFC3339)
	return DeliveryPayload{
		CustomerName:        analysis.CustomerName,
		CustomerEmail:       analysis.CustomerEmail,
		CustomerPhone:       analysis.CustomerPhone,
		CustomerService:     analysis.CustomerService,
		AppointmentTime:     analysis.CustomerTime,
		SpecialNotes:        analysis.CustomerNotes,
		PreferredTechnician: analysis.CustomerTechnician,
		LeadQuality:         analysis.LeadQuality,
		AppointmentBooked:   analysis.AppointmentBooked,
		ConversationID:      rec.ConversationID,
		MessageCount:        len(rec.Messages),
		CustomerMessages:    transcript(rec.Messages),
		Source:              source,
		Timestamp:           ts,
		ExtractedAt:         ts,
	}
}

// transcript flattens the message history into "Customer:"/"Assistant:"
// lines joined by newlines.
func transcript(messages []Message) string {
	lines := make([]string, 0, len(messages))
	for _, msg := range messages {
		prefix := "Assistant"
		if msg.Role == "user" {
			prefix = "Customer"
		}
		lines = append(lines, fmt.Sprintf("%s: %s", prefix, msg.Content))
	}
	return strings.Join(lines, "\n")
}
