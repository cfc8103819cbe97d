package leadqueue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBuildPayloadFullAnalysis(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rec := ConversationRecord{
		ConversationID: "conv_1",
		Messages: []Message{
			{Role: "user", Content: "I want a gel manicure"},
			{Role: "assistant", Content: "Great choice! What day works for you?"},
			{Role: "user", Content: "Friday at 3pm"},
		},
		LeadAnalysis: &LeadAnalysis{
			CustomerName:       "Sarah",
			CustomerEmail:      "sarah@x.com",
			CustomerPhone:      "+15551234",
			CustomerService:    "gel manicure",
			AppointmentBooked:  true,
			CustomerTime:       "Friday 3pm",
			CustomerNotes:      "allergic to acetone",
			CustomerTechnician: "Mia",
			LeadQuality:        "good",
		},
	}

	p := BuildPayload(rec, "Soco Nail Chatbot", now)

	assert.Equal(t, "Sarah", p.CustomerName)
	assert.Equal(t, "sarah@x.com", p.CustomerEmail)
	assert.Equal(t, "+15551234", p.CustomerPhone)
	assert.Equal(t, "gel manicure", p.CustomerService)
	assert.Equal(t, "Friday 3pm", p.AppointmentTime)
	assert.Equal(t, "allergic to acetone", p.SpecialNotes)
	assert.Equal(t, "Mia", p.PreferredTechnician)
	assert.Equal(t, "good", p.LeadQuality)
	assert.True(t, p.AppointmentBooked)
	assert.Equal(t, "conv_1", p.ConversationID)
	assert.Equal(t, 3, p.MessageCount)
	assert.Equal(t, "Soco Nail Chatbot", p.Source)
	assert.Equal(t, "2026-03-01T12:00:00Z", p.Timestamp)
	assert.Equal(t, p.Timestamp, p.ExtractedAt)

	want := "Customer: I want a gel manicure\n" +
		"Assistant: Great choice! What day works for you?\n" +
		"Customer: Friday at 3pm"
	assert.Equal(t, want, p.CustomerMessages)
}

func TestBuildPayloadIsTotal(t *testing.T) {
	// A record with no analysis and no messages still projects cleanly.
	p := BuildPayload(ConversationRecord{ConversationID: "conv_empty"}, "src", time.Now())

	assert.Equal(t, "", p.CustomerName)
	assert.Equal(t, "", p.CustomerEmail)
	assert.Equal(t, "", p.CustomerPhone)
	assert.Equal(t, "", p.CustomerService)
	assert.Equal(t, "", p.AppointmentTime)
	assert.Equal(t, "", p.SpecialNotes)
	assert.Equal(t, "", p.PreferredTechnician)
	assert.Equal(t, "", p.LeadQuality)
	assert.False(t, p.AppointmentBooked)
	assert.Equal(t, "conv_empty", p.ConversationID)
	assert.Equal(t, 0, p.MessageCount)
	assert.Equal(t, "", p.CustomerMessages)
}

func TestBuildPayloadDoesNotMutateRecord(t *testing.T) {
	rec := ConversationRecord{
		ConversationID: "conv_2",
		LeadAnalysis:   &LeadAnalysis{CustomerName: "Ana"},
	}
	_ = BuildPayload(rec, "src", time.Now())

	assert.Equal(t, "Ana", rec.LeadAnalysis.CustomerName)
	assert.False(t, rec.WebhookSent)
}

func TestTranscriptRolePrefixes(t *testing.T) {
	got := transcript([]Message{
		{Role: "user", Content: "hi"},
		{Role: "assistant", Content: "hello"},
		{Role: "system", Content: "ignored role maps to assistant"},
	})
	assert.Equal(t, "Customer: hi\nAssistant: hello\nAssistant: ignored role maps to assistant", got)
}
