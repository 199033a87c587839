// Package postgres provides a lib/pq connection with pgvector schema management.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // registers the "postgres" driver

	"github.com/kailas-cloud/shopchat/internal/db"
)

// Config holds connection parameters for Postgres.
type Config struct {
	DSN          string
	MaxOpenConns int
}

// DB wraps a *sql.DB opened with lib/pq.
type DB struct {
	*sql.DB
}

// Open opens a connection pool. It does not wait for the server.
func Open(cfg Config) (*DB, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("dsn is required")
	}
	sqlDB, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.MaxOpenConns)
	}
	return &DB{DB: sqlDB}, nil
}

// Ping checks connectivity.
func (d *DB) Ping(ctx context.Context) error {
	if err := d.PingContext(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Close releases the pool.
func (d *DB) Close() {
	_ = d.DB.Close()
}

// WaitForReady polls Ping until the server responds or timeout expires.
func (d *DB) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for database: %w", ctx.Err())
		case <-ticker.C:
			if err := d.Ping(ctx); err == nil {
				return nil
			}
		}
	}
}

// EnsureSchema creates the pgvector extension, the products table and its
// cosine HNSW index when missing.
func (d *DB) EnsureSchema(ctx context.Context, table string, dim int) error {
	stmts, err := SchemaStatements(table, dim)
	if err != nil {
		return err
	}
	for _, stmt := range stmts {
		if _, err := d.ExecContext(ctx, stmt); err != nil {
			return &db.Error{Op: db.OpExec, Err: fmt.Errorf("ensure schema: %w", err)}
		}
	}
	return nil
}
