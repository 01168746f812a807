package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"recipebook"
)

const kvTableStmt = `
CREATE TABLE IF NOT EXISTS kv (
	key        TEXT PRIMARY KEY,
	value      BLOB NOT NULL,
	updated_at TEXT NOT NULL
);`

// SQLiteBridge stores blobs in a single key-value table.
type SQLiteBridge struct {
	db *sql.DB
}

// OpenSQLiteBridge opens (or creates) the database at dataSourceName and
// makes sure the kv table exists.
func OpenSQLiteBridge(dataSourceName string) (*SQLiteBridge, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to sqlite database: %w", err)
	}

	for _, stmt := range []string{"PRAGMA busy_timeout = 5000", kvTableStmt} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", stmt, err)
		}
	}

	return &SQLiteBridge{db: db}, nil
}

func (b *SQLiteBridge) Load(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := b.db.QueryRowContext(ctx, "SELECT value FROM kv WHERE key = ?", key).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, recipebook.ErrBlobNotFound
		}
		return nil, fmt.Errorf("load blob %q: %w", key, err)
	}
	return data, nil
}

func (b *SQLiteBridge) Save(ctx context.Context, key string, blob []byte) error {
	_, err := b.db.ExecContext(ctx,
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, blob, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("save blob %q: %w", key, err)
	}
	return nil
}

// Close closes the database connection.
func (b *SQLiteBridge) Close() error {
	if b.db == nil {
		return nil
	}
	return b.db.Close()
}
