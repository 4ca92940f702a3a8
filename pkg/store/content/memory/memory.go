// Package memory implements an in-memory content.Store for tests and local
// development.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/cabinetfs/cabinet/pkg/store/content"
	"github.com/google/uuid"
)

// MemoryStore implements content.Store backed by a map.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// NewMemoryStore creates an empty in-memory content store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string][]byte)}
}

// Write implements content.Store.
func (s *MemoryStore) Write(ctx context.Context, data []byte) (string, error) {
	path := uuid.NewString()
	if err := s.Put(ctx, path, data); err != nil {
		return "", err
	}
	return path, nil
}

// Put implements content.Store.
func (s *MemoryStore) Put(_ context.Context, path string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := make([]byte, len(data))
	copy(stored, data)
	s.objects[path] = stored
	return nil
}

// Read implements content.Store.
func (s *MemoryStore) Read(_ context.Context, path string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.objects[path]
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, content.ErrContentNotFound)
	}
	result := make([]byte, len(data))
	copy(result, data)
	return result, nil
}

// Close implements content.Store.
func (s *MemoryStore) Close() error {
	return nil
}

// Len returns the number of stored objects. Test helper.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
