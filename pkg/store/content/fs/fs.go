// Package fs implements filesystem-based content storage.
//
// Content lives directly under a configured base directory, one file per
// path. Paths generated by Write are UUIDs, so they are filesystem-safe and
// derived-artifact suffixes ("<uuid>_<width>") cannot collide with them.
package fs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cabinetfs/cabinet/pkg/store/content"
	"github.com/google/uuid"
)

// FSStore implements content.Store using the local filesystem.
//
// Writes go through a temp file and rename, so a crash mid-write never
// leaves a partial object at a resolvable path.
type FSStore struct {
	basePath string
}

// NewFSStore creates a filesystem content store rooted at basePath,
// creating the directory if it does not exist.
func NewFSStore(ctx context.Context, basePath string) (*FSStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if basePath == "" {
		return nil, fmt.Errorf("filesystem content store: base path is required")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create content directory: %w", err)
	}
	return &FSStore{basePath: basePath}, nil
}

// Write implements content.Store.
func (s *FSStore) Write(ctx context.Context, data []byte) (string, error) {
	path := uuid.NewString()
	if err := s.Put(ctx, path, data); err != nil {
		return "", err
	}
	return path, nil
}

// Put implements content.Store.
func (s *FSStore) Put(ctx context.Context, path string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	target := s.fullPath(path)
	tmp, err := os.CreateTemp(s.basePath, ".write-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write content: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to place content: %w", err)
	}
	return nil
}

// Read implements content.Store.
func (s *FSStore) Read(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.fullPath(path))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", path, content.ErrContentNotFound)
		}
		return nil, fmt.Errorf("failed to read content: %w", err)
	}
	return data, nil
}

// Close implements content.Store. The filesystem store holds no resources.
func (s *FSStore) Close() error {
	return nil
}

// fullPath joins the opaque content path with the base directory. The path
// components are store-generated, never client-supplied, but Base is applied
// anyway so a corrupt metadata record cannot escape the root.
func (s *FSStore) fullPath(path string) string {
	return filepath.Join(s.basePath, filepath.Base(path))
}
