package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

const blobSchema = `
CREATE TABLE IF NOT EXISTS blobs (
	name       TEXT PRIMARY KEY,
	data       BLOB NOT NULL,
	updated_at TEXT NOT NULL
)`

// SQLiteRepository keeps blobs as rows of a single table.
type SQLiteRepository struct {
	db *sqlx.DB
}

// OpenSQLite opens (or creates) the database at path and ensures the schema.
func OpenSQLite(ctx context.Context, path string) (*SQLiteRepository, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("storage: ensure db dir: %w", err)
		}
	}
	db, err := sqlx.ConnectContext(ctx, "sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage: open %s: %w", path, err)
	}
	// One writer; also keeps an in-memory database alive across calls.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			db.Close()
			return nil, fmt.Errorf("storage: %s: %w", p, err)
		}
	}
	if _, err := db.ExecContext(ctx, blobSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: create schema: %w", err)
	}
	return &SQLiteRepository{db: db}, nil
}

// Load reads the blob if present.
func (r *SQLiteRepository) Load(ctx context.Context, blob Blob) ([]byte, error) {
	var data []byte
	err := r.db.GetContext(ctx, &data, `SELECT data FROM blobs WHERE name = ?`, string(blob))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("storage: load %s: %w", blob, err)
	}
	return data, nil
}

// Save upserts the blob.
func (r *SQLiteRepository) Save(ctx context.Context, blob Blob, data []byte) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO blobs (name, data, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		string(blob), data, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("storage: save %s: %w", blob, err)
	}
	return nil
}

// Delete removes the blob. Deleting a missing blob is not an error.
func (r *SQLiteRepository) Delete(ctx context.Context, blob Blob) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM blobs WHERE name = ?`, string(blob)); err != nil {
		return fmt.Errorf("storage: delete %s: %w", blob, err)
	}
	return nil
}

// Close releases the database.
func (r *SQLiteRepository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}
