package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FileRepository keeps each blob as a JSON file inside dir.
type FileRepository struct {
	dir string
}

// NewFileRepository creates a repository rooted at dir.
func NewFileRepository(dir string) *FileRepository {
	return &FileRepository{dir: dir}
}

func (r *FileRepository) path(blob Blob) string {
	return filepath.Join(r.dir, string(blob)+".json")
}

// Load reads the blob if present.
func (r *FileRepository) Load(ctx context.Context, blob Blob) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(r.path(blob))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("storage: read %s: %w", blob, err)
	}
	return data, nil
}

// Save writes the blob through a temp file and rename.
func (r *FileRepository) Save(ctx context.Context, blob Blob, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return fmt.Errorf("storage: ensure dir: %w", err)
	}
	target := r.path(blob)
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("storage: write %s: %w", blob, err)
	}
	if err := os.Rename(tmp, target); err != nil {
		return fmt.Errorf("storage: commit %s: %w", blob, err)
	}
	return nil
}

// Delete removes the blob. Deleting a missing blob is not an error.
func (r *FileRepository) Delete(ctx context.Context, blob Blob) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Remove(r.path(blob)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("storage: delete %s: %w", blob, err)
	}
	return nil
}

// Close is a no-op.
func (r *FileRepository) Close() error {
	return nil
}
