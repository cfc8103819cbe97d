package leadqueue

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository defines the conversation-store operations the queue needs.
// The queue never creates, deletes, or re-analyzes conversations; the only
// mutation is marking a record delivered.
type Repository interface {
	// ListExtracted returns every record with a non-nil analysis, newest first.
	ListExtracted(ctx context.Context) ([]ConversationRecord, error)
	// ListPending returns extracted records not yet delivered, newest first.
	ListPending(ctx context.Context) ([]ConversationRecord, error)
	// MarkDelivered flags a record as delivered at the given time.
	MarkDelivered(ctx context.Context, conversationID string, sentAt time.Time) error
	// CountConversations reports the total number of stored conversations.
	CountConversations(ctx context.Context) (int64, error)
	// ListSummaries returns all conversation summaries, newest first.
	ListSummaries(ctx context.Context) ([]ConversationSummary, error)
}

// InMemoryRepository is a Repository backed by a map, used in development
// mode and in tests.
type InMemoryRepository struct {
	mu      sync.RWMutex
	records map[string]*ConversationRecord
}

// NewInMemoryRepository creates an empty in-memory repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		records: make(map[string]*ConversationRecord),
	}
}

// Insert stores a record, assigning an ID and creation time if unset.
func (r *InMemoryRepository) Insert(rec ConversationRecord) {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	r.mu.Lock()
	r.records[rec.ConversationID] = &rec
	r.mu.Unlock()
}

// ListExtracted returns analyzed records, newest first.
func (r *InMemoryRepository) ListExtracted(ctx context.Context) ([]ConversationRecord, error) {
	return r.list(func(rec *ConversationRecord) bool {
		return rec.LeadAnalysis != nil
	}), nil
}

// ListPending returns analyzed, undelivered records, newest first.
func (r *InMemoryRepository) ListPending(ctx context.Context) ([]ConversationRecord, error) {
	return r.list(func(rec *ConversationRecord) bool {
		return rec.LeadAnalysis != nil && !rec.WebhookSent
	}), nil
}

// MarkDelivered flags the record as delivered.
func (r *InMemoryRepository) MarkDelivered(ctx context.Context, conversationID string, sentAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[conversationID]
	if !ok {
		return ErrConversationNotFound
	}
	rec.WebhookSent = true
	rec.WebhookSentAt = &sentAt
	return nil
}

// CountConversations reports the number of stored records.
func (r *InMemoryRepository) CountConversations(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.records)), nil
}

// ListSummaries returns every record's summary, newest first.
func (r *InMemoryRepository) ListSummaries(ctx context.Context) ([]ConversationSummary, error) {
	records := r.list(func(*ConversationRecord) bool { return true })
	summaries := make([]ConversationSummary, 0, len(records))
	for _, rec := range records {
		summaries = append(summaries, ConversationSummary{
			ID:             rec.ID,
			ConversationID: rec.ConversationID,
			MessageCount:   len(rec.Messages),
			CreatedAt:      rec.CreatedAt,
			LastActivity:   rec.CreatedAt,
			LeadAnalysis:   rec.LeadAnalysis,
			AnalyzedAt:     rec.AnalyzedAt,
		})
	}
	return summaries, nil
}

func (r *InMemoryRepository) list(keep func(*ConversationRecord) bool) []ConversationRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]ConversationRecord, 0, len(r.records))
	for _, rec := range r.records {
		if keep(rec) {
			out = append(out, *rec)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}
