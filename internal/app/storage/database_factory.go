package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/stacklok/toolhive-bucket-sync/internal/config"
)

// buildDatabaseConnectionPool creates a database connection pool with proper configuration.
func buildDatabaseConnectionPool(ctx context.Context, dbCfg *config.DatabaseConfig) (*pgxpool.Pool, error) {
	connStr, err := dbCfg.GetConnectionString()
	if err != nil {
		return nil, fmt.Errorf("failed to get database connection string: %w", err)
	}

	poolConfig, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database connection string: %w", err)
	}

	// Configure pool settings from config
	if dbCfg.MaxOpenConns > 0 {
		poolConfig.MaxConns = dbCfg.MaxOpenConns
	}
	if dbCfg.MaxIdleConns > 0 {
		poolConfig.MinConns = dbCfg.MaxIdleConns
	}
	if dbCfg.ConnMaxLifetime != "" {
		lifetime, err := time.ParseDuration(dbCfg.ConnMaxLifetime)
		if err != nil {
			return nil, fmt.Errorf("failed to parse connMaxLifetime: %w", err)
		}
		poolConfig.MaxConnLifetime = lifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create database connection pool: %w", err)
	}

	slog.Info("Database connection pool created successfully",
		"host", dbCfg.Host,
		"database", dbCfg.Database)
	return pool, nil
}

func gormConfig() *gorm.Config {
	return &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	}
}

// openPostgresGorm opens gorm on top of the shared pgx pool
func openPostgresGorm(pool *pgxpool.Pool) (*gorm.DB, *sql.DB, error) {
	if pool == nil {
		return nil, nil, fmt.Errorf("database pool is required for postgres target")
	}

	sqlDB := stdlib.OpenDBFromPool(pool)
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), gormConfig())
	if err != nil {
		_ = sqlDB.Close()
		return nil, nil, fmt.Errorf("failed to open postgres target: %w", err)
	}
	return db, sqlDB, nil
}

// openSQLiteGorm opens a sqlite database file as the bucket store
func openSQLiteGorm(path string) (*gorm.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is required for sqlite target")
	}

	db, err := gorm.Open(sqlite.Open(path), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite target %s: %w", path, err)
	}
	return db, nil
}
