package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Backend reads and writes whole collection documents. A missing document
// reads as nil data and no error.
type Backend interface {
	Read(c Collection) ([]byte, error)
	Write(c Collection, data []byte) error
	Close() error
}

// FileBackend keeps one JSON file per collection in a directory.
type FileBackend struct {
	dir string
}

// OpenFileBackend creates dir if needed and returns a backend rooted there.
func OpenFileBackend(dir string) (*FileBackend, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory %s: %w", dir, err)
	}
	return &FileBackend{dir: dir}, nil
}

// Dir returns the data directory.
func (b *FileBackend) Dir() string { return b.dir }

func (b *FileBackend) path(c Collection) string {
	return filepath.Join(b.dir, c.FileName())
}

// Read returns the raw document for c.
func (b *FileBackend) Read(c Collection) ([]byte, error) {
	data, err := os.ReadFile(b.path(c))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", c, err)
	}
	return data, nil
}

// Write replaces the document for c. The data goes to a temporary file in
// the same directory which is synced and then renamed over the target, so
// readers see either the old or the new document, never a partial one.
func (b *FileBackend) Write(c Collection, data []byte) (err error) {
	target := b.path(c)
	tmp, err := os.CreateTemp(b.dir, c.FileName()+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", c, err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return fmt.Errorf("failed to write %s: %w", c, err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync %s: %w", c, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file for %s: %w", c, err)
	}
	if err = os.Rename(tmp.Name(), target); err != nil {
		return fmt.Errorf("failed to replace %s: %w", c, err)
	}
	return nil
}

// Close is a no-op for the file backend.
func (b *FileBackend) Close() error { return nil }
