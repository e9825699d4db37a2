// Package storage provides factory functions for creating storage-dependent components.
// It implements the Abstract Factory pattern so the source store, bucket writer and
// cycle status store of one process share their database handles.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"gorm.io/gorm"

	"github.com/stacklok/toolhive-bucket-sync/internal/config"
	"github.com/stacklok/toolhive-bucket-sync/internal/sources"
	"github.com/stacklok/toolhive-bucket-sync/internal/status"
	"github.com/stacklok/toolhive-bucket-sync/internal/sync/state"
	"github.com/stacklok/toolhive-bucket-sync/internal/sync/writer"
)

//go:generate mockgen -destination=mocks/mock_factory.go -package=mocks -source=factory.go Factory

// Factory creates storage-dependent components as a family.
//
// The factory encapsulates the creation of:
// - sources.Store: Reads legacy sources and writes their status block
// - writer.BucketWriter: Applies plans to the bucket management store
// - status.Persistence: Keeps the last cycle status across restarts
//
// It also manages the lifecycle of storage resources (e.g., database connections).
type Factory interface {
	// CreateSourceStore creates the legacy source store
	CreateSourceStore(ctx context.Context) (sources.Store, error)

	// CreateBucketWriter creates the writer for the bucket management store
	CreateBucketWriter(ctx context.Context) (writer.BucketWriter, error)

	// CreateStatusPersistence creates the cycle status store
	CreateStatusPersistence(ctx context.Context) (status.Persistence, error)

	// Migrate creates the bucket tables and, for the database status store, the
	// status table. withSources also creates the legacy source table, which is
	// only wanted for local setups.
	Migrate(ctx context.Context, withSources bool) error

	// Cleanup releases any resources held by this factory.
	// Should be called when the application shuts down.
	Cleanup()
}

// StoreFactory is the default Factory. Components are created once and
// returned on every call.
type StoreFactory struct {
	config *config.Config

	pool   *pgxpool.Pool
	sqlDB  *sql.DB
	gormDB *gorm.DB

	sourceStore sources.Store
	writer      writer.BucketWriter
}

var _ Factory = (*StoreFactory)(nil)

// NewStorageFactory opens the connections required by the configured store types.
// A PostgreSQL pool is opened when the sources, the target or the status store use
// PostgreSQL; the gorm target shares that pool.
func NewStorageFactory(ctx context.Context, cfg *config.Config) (*StoreFactory, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	f := &StoreFactory{config: cfg}

	if needsPool(cfg) {
		if cfg.Database == nil {
			return nil, fmt.Errorf("database configuration is required for postgres storage")
		}
		pool, err := buildDatabaseConnectionPool(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to create database connection pool: %w", err)
		}
		f.pool = pool
	}

	if err := f.openTarget(); err != nil {
		f.Cleanup()
		return nil, err
	}

	slog.Info("Storage factory created",
		"sources", cfg.Sources.Type,
		"target", cfg.Target.Type,
		"status_store", cfg.Sync.GetStatusStore())
	return f, nil
}

func needsPool(cfg *config.Config) bool {
	return cfg.Sources.Type == config.StoreTypePostgres ||
		cfg.Target.Type == config.StoreTypePostgres ||
		cfg.Sync.GetStatusStore() == config.StatusStoreDatabase
}

func (f *StoreFactory) openTarget() error {
	switch f.config.Target.Type {
	case config.StoreTypePostgres:
		gormDB, sqlDB, err := openPostgresGorm(f.pool)
		if err != nil {
			return err
		}
		f.gormDB, f.sqlDB = gormDB, sqlDB
	case config.StoreTypeSQLite:
		gormDB, err := openSQLiteGorm(f.config.Target.SQLitePath)
		if err != nil {
			return err
		}
		f.gormDB = gormDB
	case config.StoreTypeMemory:
		f.writer = writer.NewMemoryWriter()
	default:
		return fmt.Errorf("unsupported target type: %q", f.config.Target.Type)
	}

	if f.gormDB != nil {
		w, err := writer.NewGormWriter(f.gormDB)
		if err != nil {
			return err
		}
		f.writer = w
	}
	return nil
}

// CreateSourceStore creates the legacy source store
func (f *StoreFactory) CreateSourceStore(_ context.Context) (sources.Store, error) {
	if f.sourceStore != nil {
		return f.sourceStore, nil
	}

	switch f.config.Sources.Type {
	case config.StoreTypePostgres:
		store, err := sources.NewPostgresStore(f.pool,
			sources.WithTable(f.config.Sources.Table),
			sources.WithExtractType(f.config.Sources.ExtractType),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create postgres source store: %w", err)
		}
		f.sourceStore = store
	case config.StoreTypeMemory:
		store := sources.NewMemoryStore()
		if f.config.Sources.SeedFile != "" {
			if err := store.LoadDocuments(f.config.Sources.SeedFile); err != nil {
				return nil, err
			}
		}
		slog.Warn("Using in-memory source store; source status is not persisted")
		f.sourceStore = store
	default:
		return nil, fmt.Errorf("unsupported sources type: %q", f.config.Sources.Type)
	}

	return f.sourceStore, nil
}

// CreateBucketWriter returns the writer for the configured target
func (f *StoreFactory) CreateBucketWriter(_ context.Context) (writer.BucketWriter, error) {
	if f.writer == nil {
		return nil, fmt.Errorf("bucket writer is not available")
	}
	return f.writer, nil
}

// CreateStatusPersistence creates the cycle status store selected by sync.statusStore
func (f *StoreFactory) CreateStatusPersistence(_ context.Context) (status.Persistence, error) {
	var db state.Querier
	if f.pool != nil {
		db = f.pool
	}
	return state.NewStatusPersistence(f.config, db)
}

// Migrate creates the tables owned by the synchronizer
func (f *StoreFactory) Migrate(ctx context.Context, withSources bool) error {
	if gw, ok := f.writer.(*writer.GormWriter); ok {
		if err := gw.Migrate(ctx); err != nil {
			return err
		}
		slog.Info("Bucket tables migrated", "target", f.config.Target.Type)
	}

	if f.config.Sync.GetStatusStore() == config.StatusStoreDatabase {
		if err := state.EnsureSchema(ctx, f.pool); err != nil {
			return err
		}
		slog.Info("Cycle status table created")
	}

	if withSources && f.config.Sources.Type == config.StoreTypePostgres {
		if err := sources.EnsureSchema(ctx, f.pool, f.config.Sources.Table); err != nil {
			return err
		}
		slog.Info("Legacy source table created")
	}
	return nil
}

// Cleanup closes the gorm handle and the connection pool
func (f *StoreFactory) Cleanup() {
	if f.sqlDB != nil {
		_ = f.sqlDB.Close()
		f.sqlDB = nil
	} else if f.gormDB != nil {
		if sqlDB, err := f.gormDB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	f.gormDB = nil

	if f.pool != nil {
		slog.Info("Closing database connection pool")
		f.pool.Close()
		f.pool = nil
	}
}
