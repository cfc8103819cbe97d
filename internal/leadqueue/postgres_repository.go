package leadqueue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// PgxPool is the subset of pgxpool.Pool the repository uses.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores conversation delivery state in Postgres.
type PostgresRepository struct {
	pool PgxPool
}

// NewPostgresRepository initializes a repo backed by a pgx pool.
func NewPostgresRepository(pool PgxPool) *PostgresRepository {
	if pool == nil {
		panic("leadqueue: pgx pool required")
	}
	return &PostgresRepository{pool: pool}
}

const recordColumns = `id, conversation_id, messages, lead_analysis, analyzed_at, webhook_sent, webhook_sent_at, created_at`

// ListExtracted returns analyzed records, newest first.
func (r *PostgresRepository) ListExtracted(ctx context.Context) ([]ConversationRecord, error) {
	query := `
		SELECT ` + recordColumns + `
		FROM conversations
		WHERE lead_analysis IS NOT NULL
		ORDER BY created_at DESC
	`
	return r.queryRecords(ctx, query)
}

// ListPending returns analyzed records not yet delivered, newest first.
func (r *PostgresRepository) ListPending(ctx context.Context) ([]ConversationRecord, error) {
	query := `
		SELECT ` + recordColumns + `
		FROM conversations
		WHERE lead_analysis IS NOT NULL AND webhook_sent = FALSE
		ORDER BY created_at DESC
	`
	return r.queryRecords(ctx, query)
}

func (r *PostgresRepository) queryRecords(ctx context.Context, query string) ([]ConversationRecord, error) {
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("leadqueue: select conversations: %w", err)
	}
	defer rows.Close()

	var records []ConversationRecord
	for rows.Next() {
		var (
			rec      ConversationRecord
			messages []byte
			analysis []byte
		)
		if err := rows.Scan(
			&rec.ID,
			&rec.ConversationID,
			&messages,
			&analysis,
			&rec.AnalyzedAt,
			&rec.WebhookSent,
			&rec.WebhookSentAt,
			&rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("leadqueue: scan conversation: %w", err)
		}
		if len(messages) > 0 {
			if err := json.Unmarshal(messages, &rec.Messages); err != nil {
				return nil, fmt.Errorf("leadqueue: decode messages for %s: %w", rec.ConversationID, err)
			}
		}
		if len(analysis) > 0 {
			rec.LeadAnalysis = &LeadAnalysis{}
			if err := json.Unmarshal(analysis, rec.LeadAnalysis); err != nil {
				return nil, fmt.Errorf("leadqueue: decode analysis for %s: %w", rec.ConversationID, err)
			}
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("leadqueue: iterate conversations: %w", err)
	}
	return records, nil
}

// MarkDelivered sets the delivered flag and timestamp on a record.
func (r *PostgresRepository) MarkDelivered(ctx context.Context, conversationID string, sentAt time.Time) error {
	query := `
		UPDATE conversations
		SET webhook_sent = TRUE, webhook_sent_at = $2
		WHERE conversation_id = $1
	`
	tag, err := r.pool.Exec(ctx, query, conversationID, sentAt)
	if err != nil {
		return fmt.Errorf("leadqueue: mark delivered: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrConversationNotFound
	}
	return nil
}

// CountConversations reports the total number of stored conversations.
func (r *PostgresRepository) CountConversations(ctx context.Context) (int64, error) {
	var count int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM conversations`).Scan(&count); err != nil {
		return 0, fmt.Errorf("leadqueue: count conversations: %w", err)
	}
	return count, nil
}

// ListSummaries returns every conversation's summary, newest first.
func (r *PostgresRepository) ListSummaries(ctx context.Context) ([]ConversationSummary, error) {
	query := `
		SELECT id, conversation_id, messages, lead_analysis, analyzed_at, created_at
		FROM conversations
		ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("leadqueue: select summaries: %w", err)
	}
	defer rows.Close()

	var summaries []ConversationSummary
	for rows.Next() {
		var (
			s        ConversationSummary
			messages []byte
			analysis []byte
		)
		if err := rows.Scan(&s.ID, &s.ConversationID, &messages, &analysis, &s.AnalyzedAt, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("leadqueue: scan summary: %w", err)
		}
		if len(messages) > 0 {
			var msgs []Message
			if err := json.Unmarshal(messages, &msgs); err != nil {
				return nil, fmt.Errorf("leadqueue: decode messages for %s: %w", s.ConversationID, err)
			}
			s.MessageCount = len(msgs)
		}
		if len(analysis) > 0 {
			s.LeadAnalysis = &LeadAnalysis{}
			if err := json.Unmarshal(analysis, s.LeadAnalysis); err != nil {
				return nil, fmt.Errorf("leadqueue: decode analysis for %s: %w", s.ConversationID, err)
			}
		}
		s.LastActivity = s.CreatedAt
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("leadqueue: iterate summaries: %w", err)
	}
	return summaries, nil
}
