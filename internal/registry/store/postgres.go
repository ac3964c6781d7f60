package store

import (
	"context"
	"database/sql"
	"fmt"

	id "firledger/pkg/domain"
)

// Postgres persists role assignments in the roles table.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a postgres-backed registry store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// Schema creates the registry table when absent.
const Schema = `
CREATE TABLE IF NOT EXISTS roles (
    identity   TEXT PRIMARY KEY,
    role       TEXT NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// EnsureSchema applies the registry schema.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("ensure roles schema: %w", err)
	}
	return nil
}

// Set upserts the target's role. Assigning RoleNone deletes the row so
// lookups fall back to the implicit default.
func (p *Postgres) Set(ctx context.Context, target id.Identity, role id.Role) error {
	if role == id.RoleNone {
		if _, err := p.db.ExecContext(ctx, `DELETE FROM roles WHERE identity = $1`, target.String()); err != nil {
			return fmt.Errorf("revoke role: %w", err)
		}
		return nil
	}
	query := `
		INSERT INTO roles (identity, role, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (identity) DO UPDATE SET
			role = EXCLUDED.role,
			updated_at = EXCLUDED.updated_at
	`
	if _, err := p.db.ExecContext(ctx, query, target.String(), role.String()); err != nil {
		return fmt.Errorf("assign role: %w", err)
	}
	return nil
}

// Get returns the stored role, or RoleNone when no row exists.
func (p *Postgres) Get(ctx context.Context, identity id.Identity) (id.Role, error) {
	var raw string
	err := p.db.QueryRowContext(ctx, `SELECT role FROM roles WHERE identity = $1`, identity.String()).Scan(&raw)
	if err != nil {
		if err == sql.ErrNoRows {
			return id.RoleNone, nil
		}
		return id.RoleNone, fmt.Errorf("lookup role: %w", err)
	}
	role, err := id.ParseRole(raw)
	if err != nil {
		return id.RoleNone, fmt.Errorf("stored role %q is not valid: %w", raw, err)
	}
	return role, nil
}
