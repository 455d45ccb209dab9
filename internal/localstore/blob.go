package localstore

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/starford/menuboard/internal/apperr"
)

// Blobs is the binary surface Scoped depends on.
type Blobs interface {
	Read(key string) ([]byte, error)
	Write(key string, data []byte) error
	Delete(key string) error
	List(prefix string) ([]string, error)
}

var _ Blobs = (*BlobDir)(nil)

// BlobDir stores one file per key in a flat directory.
type BlobDir struct {
	root string // absolute path
}

// NewBlobDir creates the directory if needed and returns a store rooted there.
func NewBlobDir(root string) (*BlobDir, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("localstore: resolve blob dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("localstore: create blob dir: %w", err)
	}
	return &BlobDir{root: abs}, nil
}

// Root returns the absolute blob directory.
func (b *BlobDir) Root() string { return b.root }

// path maps a key to a file inside root. Keys are plain names; separators and
// traversal are rejected.
func (b *BlobDir) path(key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("localstore: empty blob key")
	}
	if strings.ContainsAny(key, `/\`) || key == "." || key == ".." || strings.HasPrefix(key, ".") {
		return "", fmt.Errorf("localstore: invalid blob key: %s", key)
	}
	return filepath.Join(b.root, key), nil
}

// Read returns the blob bytes or apperr.ErrNotFound.
func (b *BlobDir) Read(key string) ([]byte, error) {
	p, err := b.path(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("localstore: read blob %s: %w", key, err)
	}
	return data, nil
}

// Write atomically replaces the blob: tmp file → fsync → rename.
func (b *BlobDir) Write(key string, data []byte) error {
	p, err := b.path(key)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(b.root, ".blob-tmp-*")
	if err != nil {
		return fmt.Errorf("localstore: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("localstore: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("localstore: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("localstore: close temp: %w", err)
	}
	if err := os.Rename(tmpName, p); err != nil {
		return fmt.Errorf("localstore: rename: %w", err)
	}
	success = true
	return nil
}

// Delete removes the blob. Missing blobs are ignored.
func (b *BlobDir) Delete(key string) error {
	p, err := b.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("localstore: delete blob %s: %w", key, err)
	}
	return nil
}

// List returns the keys starting with prefix, skipping temp files.
func (b *BlobDir) List(prefix string) ([]string, error) {
	entries, err := os.ReadDir(b.root)
	if err != nil {
		return nil, fmt.Errorf("localstore: list blobs: %w", err)
	}
	var out []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		if strings.HasPrefix(name, prefix) {
			out = append(out, name)
		}
	}
	return out, nil
}
