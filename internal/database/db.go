// Package database provides the SQLite-backed record store for
// Guardian: policies, suppression rules, scan history, baselines, and
// usage tracking.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// DB wraps a SQLite connection pool with migrations and transaction
// helpers.
type DB struct {
	conn        *sql.DB
	path        string
	maxConns    int
	busyTimeout time.Duration
}

// Option configures a DB.
type Option func(*DB)

// WithMaxConnections sets the maximum number of open connections.
func WithMaxConnections(n int) Option {
	return func(db *DB) {
		db.maxConns = n
	}
}

// WithBusyTimeout sets the busy timeout for SQLite.
func WithBusyTimeout(timeout time.Duration) Option {
	return func(db *DB) {
		db.busyTimeout = timeout
	}
}

// Open opens (creating if needed) the database at path, applies SQLite
// tuning pragmas, and runs pending migrations.
func Open(path string, opts ...Option) (*DB, error) {
	db := &DB{
		path:        path,
		maxConns:    10,
		busyTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(db)
	}

	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	conn, err := sql.Open("sqlite3", fmt.Sprintf("%s%s_busy_timeout=%d", path, sep, db.busyTimeout.Milliseconds()))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	conn.SetMaxOpenConns(db.maxConns)
	conn.SetMaxIdleConns(db.maxConns / 2)
	conn.SetConnMaxLifetime(time.Hour)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("setting %s: %w", pragma, err)
		}
	}

	db.conn = conn

	if err := db.Migrate(context.Background()); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return db, nil
}

// OpenMemory opens an in-memory database for testing. Shared cache
// mode lets every pooled connection see the same data; the idle
// connections in the pool keep the database alive.
func OpenMemory() (*DB, error) {
	return Open("file::memory:?cache=shared")
}

// Close closes the database connection.
func (db *DB) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}

// ExecContext executes a query that doesn't return rows.
func (db *DB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return db.conn.ExecContext(ctx, query, args...)
}

// QueryContext executes a query that returns rows.
func (db *DB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return db.conn.QueryContext(ctx, query, args...)
}

// QueryRowContext executes a query that returns at most one row.
func (db *DB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return db.conn.QueryRowContext(ctx, query, args...)
}

// InTransaction executes fn within a transaction, rolling back on
// error.
func (db *DB) InTransaction(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rolling back transaction: %w (original error: %v)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}
