package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"utility-cloud/internal/eventing"
)

const defaultOutboxTable = "event_outbox"

// OutboxStore persists event envelopes until the dispatcher drains them.
type OutboxStore struct {
	db    *sql.DB
	table string
}

// NewOutboxStore constructs an outbox store.
func NewOutboxStore(db *sql.DB, opts ...OutboxOption) *OutboxStore {
	store := &OutboxStore{db: db, table: defaultOutboxTable}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

// OutboxOption configures the outbox store.
type OutboxOption func(*OutboxStore)

// WithOutboxTable overrides the table name.
func WithOutboxTable(table string) OutboxOption {
	return func(store *OutboxStore) {
		if table != "" {
			store.table = table
		}
	}
}

// Insert stores an envelope as a pending record and returns the row id.
func (s *OutboxStore) Insert(ctx context.Context, env eventing.Envelope) (string, error) {
	if s == nil || s.db == nil {
		return "", errors.New("outbox store: nil db")
	}
	payload, err := json.Marshal(env)
	if err != nil {
		return "", err
	}

	id := eventing.NewEventID()
	query := fmt.Sprintf(`
INSERT INTO %s (id, event_id, event_type, payload, status, attempts)
VALUES ($1, $2, $3, $4, 'pending', 0)
ON CONFLICT (id) DO NOTHING`, s.table)

	if _, err := s.db.ExecContext(ctx, query, id, env.EventID, env.EventType, payload); err != nil {
		return "", err
	}
	return id, nil
}

// ListPending returns up to limit undelivered records, oldest first.
func (s *OutboxStore) ListPending(ctx context.Context, limit int) ([]eventing.OutboxRecord, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("outbox store: nil db")
	}
	if limit <= 0 {
		limit = 50
	}
	query := fmt.Sprintf(`
SELECT id, payload FROM %s
WHERE status = 'pending'
ORDER BY created_at ASC
LIMIT $1`, s.table)

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []eventing.OutboxRecord
	for rows.Next() {
		var (
			record  eventing.OutboxRecord
			payload []byte
		)
		if err := rows.Scan(&record.ID, &payload); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(payload, &record.Envelope); err != nil {
			return nil, err
		}
		result = append(result, record)
	}
	return result, rows.Err()
}

// MarkSent settles a delivered record.
func (s *OutboxStore) MarkSent(ctx context.Context, id string) error {
	return s.setStatus(ctx, id, `status = 'sent', sent_at = $2`, time.Now().UTC())
}

// MarkFailed flags a record for retry inspection and counts the attempt.
func (s *OutboxStore) MarkFailed(ctx context.Context, id string) error {
	return s.setStatus(ctx, id, `status = 'failed', attempts = attempts + 1`)
}

func (s *OutboxStore) setStatus(ctx context.Context, id, assignment string, args ...any) error {
	if s == nil || s.db == nil {
		return errors.New("outbox store: nil db")
	}
	query := fmt.Sprintf(`UPDATE %s SET %s WHERE id = $1`, s.table, assignment)
	_, err := s.db.ExecContext(ctx, query, append([]any{id}, args...)...)
	return err
}
