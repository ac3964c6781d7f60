package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	audit "firledger/pkg/platform/audit"
)

// Store persists audit events in the audit_events table.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Schema creates the audit table when absent.
const Schema = `
CREATE TABLE IF NOT EXISTS audit_events (
    id         UUID PRIMARY KEY,
    category   TEXT NOT NULL,
    occurred_at TIMESTAMPTZ NOT NULL,
    actor      TEXT NOT NULL,
    fir_id     TEXT,
    action     TEXT NOT NULL,
    decision   TEXT,
    reason     TEXT,
    request_id TEXT,
    ledger_seq BIGINT
)`

// EnsureSchema applies the audit schema.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("ensure audit schema: %w", err)
	}
	return nil
}

// Append writes one event. The category is derived from the action when the
// emitter left it unset so the stored row always classifies.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	category := event.Category
	if category == "" {
		category = audit.AuditEvent(event.Action).Category()
	}
	query := `
		INSERT INTO audit_events
			(id, category, occurred_at, actor, fir_id, action, decision, reason, request_id, ledger_seq)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.New(),
		string(category),
		event.Timestamp,
		event.Actor.String(),
		event.FIRID,
		string(event.Action),
		event.Decision,
		event.Reason,
		event.RequestID,
		event.LedgerSeq,
	)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

var _ audit.Store = (*Store)(nil)
