// Package db provides SQLite database access for Gatepass.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Config holds database open options.
type Config struct {
	// Path is the SQLite database file path.
	Path string

	// BusyTimeoutMs is how long a connection waits on a locked database.
	BusyTimeoutMs int
}

// DB wraps the sql handle so repositories share one connection profile.
type DB struct {
	*sql.DB
}

// Open opens (creating if needed) the SQLite database, applies the
// per-connection pragmas and runs pending migrations plus the column drift
// check. The handle is limited to a single connection: writes from a small
// site crew are rare and WAL readers do not block on it.
func Open(ctx context.Context, cfg Config) (*DB, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path is required")
	}
	if cfg.BusyTimeoutMs <= 0 {
		cfg.BusyTimeoutMs = 5000
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir db dir: %w", err)
	}

	dsn := fmt.Sprintf(
		"file:%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(%d)",
		cfg.Path, cfg.BusyTimeoutMs,
	)

	handle, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql.Open: %w", err)
	}

	handle.SetMaxOpenConns(1)
	handle.SetMaxIdleConns(1)
	handle.SetConnMaxLifetime(0)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := handle.PingContext(pingCtx); err != nil {
		_ = handle.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}

	db := &DB{DB: handle}

	if err := db.migrate(ctx); err != nil {
		_ = handle.Close()
		return nil, err
	}
	if err := db.ensureDriftColumns(ctx); err != nil {
		_ = handle.Close()
		return nil, err
	}

	return db, nil
}

// Transaction runs fn inside a transaction, rolling back on error.
func (db *DB) Transaction(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}
