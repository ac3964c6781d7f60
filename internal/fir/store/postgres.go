package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"firledger/internal/fir/models"
	id "firledger/pkg/domain"
	"firledger/pkg/platform/sentinel"
)

// Postgres persists FIR records across the firs and fir_history tables.
// Every mutation runs in one SQL transaction so the status change and its
// history append commit together or not at all.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a postgres-backed record store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// Schema creates the record tables when absent. The id sequence is owned by
// the database, which makes allocation linearizable across all writers.
const Schema = `
CREATE TABLE IF NOT EXISTS firs (
    id         BIGSERIAL PRIMARY KEY,
    filer      TEXT NOT NULL,
    status     TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS fir_history (
    fir_id     BIGINT NOT NULL REFERENCES firs (id),
    seq        INT NOT NULL,
    actor      TEXT NOT NULL,
    action     TEXT NOT NULL,
    message    TEXT NOT NULL,
    occurred_at TIMESTAMPTZ NOT NULL,
    PRIMARY KEY (fir_id, seq)
);
CREATE INDEX IF NOT EXISTS fir_status_idx ON firs (status)`

// EnsureSchema applies the record schema.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("ensure fir schema: %w", err)
	}
	return nil
}

// Create files a new record and its creation history entry in one
// transaction.
func (p *Postgres) Create(ctx context.Context, filer id.Identity, message string, now time.Time) (*models.FIRRecord, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: begin create: %v", sentinel.ErrUnavailable, err)
	}
	defer func() { _ = tx.Rollback() }()

	var rawID uint64
	err = tx.QueryRowContext(ctx,
		`INSERT INTO firs (filer, status, created_at) VALUES ($1, $2, $3) RETURNING id`,
		filer.String(), id.StatusFiled.String(), now,
	).Scan(&rawID)
	if err != nil {
		return nil, fmt.Errorf("insert fir: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO fir_history (fir_id, seq, actor, action, message, occurred_at)
		 VALUES ($1, 1, $2, $3, $4, $5)`,
		rawID, filer.String(), string(models.ActionCreate), message, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert creation history: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: commit create: %v", sentinel.ErrUnavailable, err)
	}
	return models.NewFIRRecord(id.FIRID(rawID), filer, message, now), nil
}

// ApplyTransition re-checks the committed status inside the transaction via
// a conditional UPDATE, appends the history entry, and commits both together.
// Zero rows updated means either the record is unknown or its status moved;
// the follow-up SELECT distinguishes the two.
func (p *Postgres) ApplyTransition(ctx context.Context, firID id.FIRID, action models.Action, actor id.Identity, message string, now time.Time) (*models.FIRRecord, error) {
	required, known := models.RequiredStatus(action)
	if !known {
		return nil, fmt.Errorf("%w: unknown action %q", sentinel.ErrInvalidState, action)
	}
	next, _ := models.NextStatus(action)

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: begin transition: %v", sentinel.ErrUnavailable, err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`UPDATE firs SET status = $1 WHERE id = $2 AND status = $3`,
		next.String(), uint64(firID), required.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}
	if affected == 0 {
		var current string
		err := tx.QueryRowContext(ctx, `SELECT status FROM firs WHERE id = $1`, uint64(firID)).Scan(&current)
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: fir %s", sentinel.ErrNotFound, firID)
		}
		if err != nil {
			return nil, fmt.Errorf("load status: %w", err)
		}
		return nil, fmt.Errorf("%w: fir %s is %s, action %q requires %s",
			sentinel.ErrInvalidState, firID, current, action, required)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO fir_history (fir_id, seq, actor, action, message, occurred_at)
		 SELECT $1, COALESCE(MAX(seq), 0) + 1, $2, $3, $4, $5 FROM fir_history WHERE fir_id = $1`,
		uint64(firID), actor.String(), string(action), message, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert history: %w", err)
	}

	record, err := loadRecord(ctx, tx, firID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: commit transition: %v", sentinel.ErrUnavailable, err)
	}
	return record, nil
}

// Get returns one record with its full history.
func (p *Postgres) Get(ctx context.Context, firID id.FIRID) (*models.FIRRecord, error) {
	return loadRecord(ctx, p.db, firID)
}

// List returns all records with history, in id order.
func (p *Postgres) List(ctx context.Context) ([]*models.FIRRecord, error) {
	return p.listWhere(ctx, "", nil)
}

// ListByStatus returns records currently in the given status, in id order.
func (p *Postgres) ListByStatus(ctx context.Context, status id.Status) ([]*models.FIRRecord, error) {
	return p.listWhere(ctx, `WHERE status = $1`, []any{status.String()})
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func loadRecord(ctx context.Context, q querier, firID id.FIRID) (*models.FIRRecord, error) {
	record := &models.FIRRecord{ID: firID}
	var rawStatus, rawFiler string
	err := q.QueryRowContext(ctx,
		`SELECT filer, status, created_at FROM firs WHERE id = $1`, uint64(firID),
	).Scan(&rawFiler, &rawStatus, &record.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: fir %s", sentinel.ErrNotFound, firID)
	}
	if err != nil {
		return nil, fmt.Errorf("load fir: %w", err)
	}
	record.Filer = id.Identity(rawFiler)
	status, err := id.ParseStatus(rawStatus)
	if err != nil {
		return nil, fmt.Errorf("stored status %q is not valid: %w", rawStatus, err)
	}
	record.Status = status

	history, err := loadHistory(ctx, q, firID)
	if err != nil {
		return nil, err
	}
	record.History = history
	return record, nil
}

func loadHistory(ctx context.Context, q querier, firID id.FIRID) ([]models.HistoryEntry, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT actor, action, message, occurred_at FROM fir_history WHERE fir_id = $1 ORDER BY seq`,
		uint64(firID),
	)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	defer rows.Close()

	var history []models.HistoryEntry
	for rows.Next() {
		var entry models.HistoryEntry
		var actor, action string
		if err := rows.Scan(&actor, &action, &entry.Message, &entry.Timestamp); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		entry.Actor = id.Identity(actor)
		entry.Action = models.Action(action)
		history = append(history, entry)
	}
	return history, rows.Err()
}

func (p *Postgres) listWhere(ctx context.Context, where string, args []any) ([]*models.FIRRecord, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT id FROM firs `+where+` ORDER BY id`, args...,
	)
	if err != nil {
		return nil, fmt.Errorf("list firs: %w", err)
	}
	defer rows.Close()

	var ids []id.FIRID
	for rows.Next() {
		var rawID uint64
		if err := rows.Scan(&rawID); err != nil {
			return nil, fmt.Errorf("scan fir id: %w", err)
		}
		ids = append(ids, id.FIRID(rawID))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]*models.FIRRecord, 0, len(ids))
	for _, firID := range ids {
		record, err := loadRecord(ctx, p.db, firID)
		if err != nil {
			return nil, err
		}
		out = append(out, record)
	}
	return out, nil
}
