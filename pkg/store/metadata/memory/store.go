// Package memory implements an in-memory metadata.Store.
//
// This implementation keeps everything in maps guarded by a single mutex.
// It is intended for tests and local development; nothing survives a process
// restart. Insertion order is tracked explicitly so listings behave exactly
// like the persistent implementation.
package memory

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/cabinetfs/cabinet/pkg/store/metadata"
	"github.com/google/uuid"
)

// MemoryStore implements metadata.Store backed by process memory.
type MemoryStore struct {
	mu sync.RWMutex

	users        map[uuid.UUID]*metadata.User
	usersByEmail map[string]uuid.UUID

	entries map[uuid.UUID]*metadata.FileEntry
	// order holds entry ids in insertion order for deterministic listings.
	order []uuid.UUID

	closed bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:        make(map[uuid.UUID]*metadata.User),
		usersByEmail: make(map[string]uuid.UUID),
		entries:      make(map[uuid.UUID]*metadata.FileEntry),
	}
}

// CreateUser implements metadata.Store.
func (s *MemoryStore) CreateUser(_ context.Context, user *metadata.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := normalizeEmail(user.Email)
	if _, exists := s.usersByEmail[key]; exists {
		return metadata.ErrDuplicateEmail
	}

	stored := *user
	s.users[user.ID] = &stored
	s.usersByEmail[key] = user.ID
	return nil
}

// UserByEmail implements metadata.Store.
func (s *MemoryStore) UserByEmail(_ context.Context, email string) (*metadata.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.usersByEmail[normalizeEmail(email)]
	if !ok {
		return nil, metadata.ErrNotFound
	}
	user := *s.users[id]
	return &user, nil
}

// UserByID implements metadata.Store.
func (s *MemoryStore) UserByID(_ context.Context, id uuid.UUID) (*metadata.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, metadata.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

// CountUsers implements metadata.Store.
func (s *MemoryStore) CountUsers(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users), nil
}

// CreateEntry implements metadata.Store.
func (s *MemoryStore) CreateEntry(_ context.Context, entry *metadata.FileEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *entry
	s.entries[entry.ID] = &stored
	s.order = append(s.order, entry.ID)
	return nil
}

// EntryByID implements metadata.Store.
func (s *MemoryStore) EntryByID(_ context.Context, id uuid.UUID) (*metadata.FileEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[id]
	if !ok {
		return nil, metadata.ErrNotFound
	}
	copied := *entry
	return &copied, nil
}

// EntryOwnedBy implements metadata.Store.
func (s *MemoryStore) EntryOwnedBy(_ context.Context, userID, id uuid.UUID) (*metadata.FileEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[id]
	if !ok || entry.UserID != userID {
		return nil, metadata.ErrNotFound
	}
	copied := *entry
	return &copied, nil
}

// ListEntries implements metadata.Store.
func (s *MemoryStore) ListEntries(_ context.Context, userID uuid.UUID, parent metadata.ParentRef, offset, limit int) ([]*metadata.FileEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*metadata.FileEntry, 0, limit)
	skipped := 0
	for _, id := range s.order {
		entry := s.entries[id]
		if entry.UserID != userID || entry.Parent != parent {
			continue
		}
		if skipped < offset {
			skipped++
			continue
		}
		copied := *entry
		result = append(result, &copied)
		if len(result) == limit {
			break
		}
	}
	return result, nil
}

// SetEntryVisibility implements metadata.Store.
func (s *MemoryStore) SetEntryVisibility(_ context.Context, userID, id uuid.UUID, public bool) (*metadata.FileEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[id]
	if !ok || entry.UserID != userID {
		return nil, metadata.ErrNotFound
	}
	entry.IsPublic = public
	copied := *entry
	return &copied, nil
}

// CountEntries implements metadata.Store.
func (s *MemoryStore) CountEntries(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries), nil
}

// Ping implements metadata.Store.
func (s *MemoryStore) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return errors.New("store is closed")
	}
	return nil
}

// Close implements metadata.Store.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// normalizeEmail lowercases the address so lookups are case-insensitive.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
