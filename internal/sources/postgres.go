package sources

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/stacklok/toolhive-bucket-sync/internal/records"
)

// DefaultTable is the legacy table holding source documents
const DefaultTable = "ingest_source"

// Querier is the subset of pgxpool.Pool used by the store
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// postgresStore reads legacy sources from a PostgreSQL table
type postgresStore struct {
	db          Querier
	table       string
	extractType string
}

// PostgresOption configures the PostgreSQL source store
type PostgresOption func(*postgresStore)

// WithTable overrides the legacy table name
func WithTable(table string) PostgresOption {
	return func(s *postgresStore) {
		if table != "" {
			s.table = table
		}
	}
}

// WithExtractType overrides the extract type that scopes the in-scope sources
func WithExtractType(extractType string) PostgresOption {
	return func(s *postgresStore) {
		if extractType != "" {
			s.extractType = extractType
		}
	}
}

// NewPostgresStore creates a Store backed by a pgx pool or connection.
// The caller owns the pool.
func NewPostgresStore(db Querier, opts ...PostgresOption) (Store, error) {
	if db == nil {
		return nil, fmt.Errorf("pgx pool is required")
	}

	s := &postgresStore{
		db:          db,
		table:       DefaultTable,
		extractType: DefaultExtractType,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// EnsureSchema creates the legacy table when it does not exist.
// Only used for local setups and tests; production tables belong to the legacy system.
func EnsureSchema(ctx context.Context, db Querier, table string) error {
	if table == "" {
		table = DefaultTable
	}
	name := pgx.Identifier{table}.Sanitize()

	stmt := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	key             TEXT PRIMARY KEY,
	modified        TEXT NOT NULL DEFAULT '',
	extract_type    TEXT NOT NULL DEFAULT '',
	document        JSONB NOT NULL,
	harvest_status  TEXT,
	harvest_message TEXT
)`, name)
	if _, err := db.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("failed to create table %s: %w", table, err)
	}
	return nil
}

func (s *postgresStore) tableName() string {
	return pgx.Identifier{s.table}.Sanitize()
}

// ListIndex returns the key and raw timestamp of every source with the configured extract type
func (s *postgresStore) ListIndex(ctx context.Context) (records.SourceIndex, error) {
	query := fmt.Sprintf("SELECT key, modified FROM %s WHERE extract_type = $1", s.tableName())
	rows, err := s.db.Query(ctx, query, s.extractType)
	if err != nil {
		return nil, fmt.Errorf("failed to list sources: %w", err)
	}

	type indexRow struct {
		key      string
		modified string
	}
	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (indexRow, error) {
		var r indexRow
		err := row.Scan(&r.key, &r.modified)
		return r, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan source index: %w", err)
	}

	index := make(records.SourceIndex, len(entries))
	for _, e := range entries {
		index[e.key] = e.modified
	}
	return index, nil
}

// Get returns the source document for a key within scope
func (s *postgresStore) Get(ctx context.Context, id string) (*records.SourceRecord, error) {
	query := fmt.Sprintf(
		"SELECT key, modified, document FROM %s WHERE key = $1 AND extract_type = $2", s.tableName())

	var src records.SourceRecord
	err := s.db.QueryRow(ctx, query, id, s.extractType).Scan(&src.ID, &src.Modified, &src.Payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get source %s: %w", id, err)
	}
	return &src, nil
}

// UpdateStatus writes the harvest status columns of a source
func (s *postgresStore) UpdateStatus(ctx context.Context, id string, st records.SourceStatus) error {
	query := fmt.Sprintf(
		"UPDATE %s SET harvest_status = $2, harvest_message = $3 WHERE key = $1", s.tableName())

	tag, err := s.db.Exec(ctx, query, id, st.HarvestStatus, st.HarvestMessage)
	if err != nil {
		return fmt.Errorf("failed to update status of source %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}
