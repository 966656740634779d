// Package storage persists the three independently loadable state blobs:
// the phrase list, the progress map and the session state.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotFound is returned when a blob has never been saved.
var ErrNotFound = errors.New("storage: blob not found")

// Blob names one persisted document.
type Blob string

const (
	BlobPhrases  Blob = "phrases"
	BlobProgress Blob = "progress"
	BlobSession  Blob = "session"
)

// Blobs lists every blob the application persists.
func Blobs() []Blob {
	return []Blob{BlobPhrases, BlobProgress, BlobSession}
}

// Repository stores opaque blobs by name.
type Repository interface {
	Load(ctx context.Context, blob Blob) ([]byte, error)
	Save(ctx context.Context, blob Blob, data []byte) error
	Delete(ctx context.Context, blob Blob) error
	Close() error
}

// LoadJSON decodes blob into v. A missing blob yields ErrNotFound.
func LoadJSON(ctx context.Context, repo Repository, blob Blob, v any) error {
	data, err := repo.Load(ctx, blob)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("storage: decode %s: %w", blob, err)
	}
	return nil
}

// SaveJSON encodes v and stores it under blob.
func SaveJSON(ctx context.Context, repo Repository, blob Blob, v any) error {
	encoded, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("storage: encode %s: %w", blob, err)
	}
	return repo.Save(ctx, blob, append(encoded, '\n'))
}

// Reset deletes every blob.
func Reset(ctx context.Context, repo Repository) error {
	for _, blob := range Blobs() {
		if err := repo.Delete(ctx, blob); err != nil {
			return err
		}
	}
	return nil
}

// Backend names a repository implementation.
type Backend string

const (
	BackendFile   Backend = "file"
	BackendSQLite Backend = "sqlite"
)

// Open returns the repository for backend. dir holds file blobs; dbPath is
// the sqlite database file.
func Open(ctx context.Context, backend Backend, dir, dbPath string) (Repository, error) {
	switch backend {
	case BackendFile, "":
		return NewFileRepository(dir), nil
	case BackendSQLite:
		repo, err := OpenSQLite(ctx, dbPath)
		if err != nil {
			return nil, err
		}
		return repo, nil
	default:
		return nil, fmt.Errorf("storage: unknown backend %q", backend)
	}
}
