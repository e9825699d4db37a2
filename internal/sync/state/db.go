// Package state provides the stores that keep the status of the last
// reconciliation cycle across restarts.
package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/stacklok/toolhive-bucket-sync/internal/status"
)

// DefaultTable holds one cycle status row per role
const DefaultTable = "sync_cycle_status"

// Querier is the subset of pgxpool.Pool used by the database store
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

type dbStatusPersistence struct {
	db    Querier
	table string
}

// NewDBStatusPersistence creates a status.Persistence backed by PostgreSQL.
// Every instance competing for the same role shares one row, so a newly
// elected leader sees the status written by its predecessor.
func NewDBStatusPersistence(db Querier) status.Persistence {
	return &dbStatusPersistence{
		db:    db,
		table: pgx.Identifier{DefaultTable}.Sanitize(),
	}
}

// EnsureSchema creates the status table when it does not exist
func EnsureSchema(ctx context.Context, db Querier) error {
	stmt := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	role       TEXT PRIMARY KEY,
	status     JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`, pgx.Identifier{DefaultTable}.Sanitize())

	if _, err := db.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("failed to create status table: %w", err)
	}
	return nil
}

// SaveStatus upserts the cycle status row of a role
func (d *dbStatusPersistence) SaveStatus(ctx context.Context, role string, cycle *status.CycleStatus) error {
	data, err := json.Marshal(cycle)
	if err != nil {
		return fmt.Errorf("failed to marshal status data for role '%s': %w", role, err)
	}

	stmt := fmt.Sprintf(`INSERT INTO %s (role, status, updated_at) VALUES ($1, $2, now())
ON CONFLICT (role) DO UPDATE SET status = EXCLUDED.status, updated_at = EXCLUDED.updated_at`, d.table)

	if _, err := d.db.Exec(ctx, stmt, role, data); err != nil {
		return fmt.Errorf("failed to save status for role '%s': %w", role, err)
	}
	return nil
}

// LoadStatus reads the cycle status of a role.
// Returns an empty CycleStatus if nothing was saved yet.
func (d *dbStatusPersistence) LoadStatus(ctx context.Context, role string) (*status.CycleStatus, error) {
	stmt := fmt.Sprintf(`SELECT status FROM %s WHERE role = $1`, d.table)

	var data []byte
	if err := d.db.QueryRow(ctx, stmt, role).Scan(&data); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &status.CycleStatus{}, nil
		}
		return nil, fmt.Errorf("failed to load status for role '%s': %w", role, err)
	}

	var cycle status.CycleStatus
	if err := json.Unmarshal(data, &cycle); err != nil {
		return nil, fmt.Errorf("failed to unmarshal status data for role '%s': %w", role, err)
	}
	return &cycle, nil
}
