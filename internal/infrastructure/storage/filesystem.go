// Package storage keeps rendered badge artifacts on the local filesystem.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// FileStore saves artifacts as files under one directory. All access goes
// through an os.Root, so stored paths cannot escape it.
type FileStore struct {
	root *os.Root
}

// NewFileStore creates dir if needed and opens it as the artifact root.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create artifact dir: %w", err)
	}
	root, err := os.OpenRoot(dir)
	if err != nil {
		return nil, fmt.Errorf("open artifact dir: %w", err)
	}
	return &FileStore{root: root}, nil
}

// Close releases the directory handle.
func (s *FileStore) Close() error { return s.root.Close() }

// Save writes data under name and returns name as the artifact path. Writes
// go to a temporary file first so readers never see a partial document.
func (s *FileStore) Save(ctx context.Context, name string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := validName(name); err != nil {
		return "", err
	}

	tmp := "." + name + ".tmp"
	if err := s.root.WriteFile(tmp, data, 0o640); err != nil {
		return "", fmt.Errorf("write artifact: %w", err)
	}
	if err := s.root.Rename(tmp, name); err != nil {
		_ = s.root.Remove(tmp)
		return "", fmt.Errorf("commit artifact: %w", err)
	}
	return name, nil
}

// Open returns a reader for a stored artifact.
func (s *FileStore) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validName(path); err != nil {
		return nil, err
	}
	f, err := s.root.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open artifact: %w", err)
	}
	return f, nil
}

// Delete removes a stored artifact. Missing files are not an error.
func (s *FileStore) Delete(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validName(path); err != nil {
		return err
	}
	if err := s.root.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete artifact: %w", err)
	}
	return nil
}

// validName accepts plain file names only.
func validName(name string) error {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return fmt.Errorf("invalid artifact name %q", name)
	}
	return nil
}
