package session

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS session_fields (
  session_key TEXT NOT NULL,
  field       TEXT NOT NULL,
  value       BLOB NOT NULL,
  PRIMARY KEY (session_key, field)
)`

const sqliteUpsert = `
INSERT INTO session_fields (session_key, field, value) VALUES (?, ?, ?)
ON CONFLICT(session_key, field) DO UPDATE SET value = excluded.value`

const sqliteSelect = `SELECT value FROM session_fields WHERE session_key = ? AND field = ?`

// SQLiteBackend stores session fields as rows in a local SQLite database. It suits
// single-node deployments and development setups without a Redis server.
//
// *sql.DB is the connection pool; it is safe for concurrent use.
type SQLiteBackend struct {
	db     *sql.DB
	closed atomic.Bool
}

// OpenSQLite opens (or creates) the database at path and ensures the schema exists.
func OpenSQLite(ctx context.Context, path string) (*SQLiteBackend, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("sqlite path required")
	}

	dsn := path
	if !strings.Contains(dsn, "?") {
		dsn += "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open sqlite: %v", ErrConnection, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: ping sqlite: %v", ErrConnection, err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: create schema: %v", ErrStore, err)
	}

	return &SQLiteBackend{db: db}, nil
}

// GetField reads one field of the record at key.
func (b *SQLiteBackend) GetField(ctx context.Context, key, field string) (string, error) {
	if b == nil || b.db == nil || b.closed.Load() {
		return "", ErrConnection
	}
	var value []byte
	if err := b.db.QueryRowContext(ctx, sqliteSelect, key, field).Scan(&value); err != nil {
		return "", mapSQLError(err)
	}
	return string(value), nil
}

// SetField upserts one field of the record at key.
func (b *SQLiteBackend) SetField(ctx context.Context, key, field, value string) error {
	if b == nil || b.db == nil || b.closed.Load() {
		return ErrConnection
	}
	if _, err := b.db.ExecContext(ctx, sqliteUpsert, key, field, []byte(value)); err != nil {
		return mapSQLError(err)
	}
	return nil
}

// Ping checks that the database file is usable.
func (b *SQLiteBackend) Ping(ctx context.Context) error {
	if b == nil || b.db == nil || b.closed.Load() {
		return ErrConnection
	}
	if err := b.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}
	return nil
}

// Close closes the database. Later calls fail with ErrConnection.
func (b *SQLiteBackend) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	if !b.closed.CompareAndSwap(false, true) {
		return nil
	}
	return b.db.Close()
}

func mapSQLError(err error) error {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return ErrNotFound
	case errors.Is(err, sql.ErrConnDone),
		errors.Is(err, driver.ErrBadConn),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", ErrConnection, err)
	default:
		return fmt.Errorf("%w: %v", ErrStore, err)
	}
}
