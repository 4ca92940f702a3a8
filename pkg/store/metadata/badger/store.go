// Package badger implements metadata.Store on BadgerDB, a fast embedded
// key-value store.
//
// This is the persistent production store: users and file entries survive
// restarts, and the listing index preserves insertion order across them.
// See keys.go for the key schema and serialization.go for value encoding.
//
// Thread safety: BadgerDB transactions provide snapshot isolation with
// conflict detection; every operation here runs in its own transaction, so
// the store is safe for concurrent use by the request path and the workers.
package badger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/cabinetfs/cabinet/pkg/store/metadata"
	"github.com/google/uuid"
)

// BadgerStoreConfig contains configuration for the BadgerDB metadata store.
type BadgerStoreConfig struct {
	// Dir is the directory BadgerDB uses for its LSM tree and value log.
	// Created if absent. Only one process may open it at a time.
	Dir string `mapstructure:"dir"`

	// InMemory runs BadgerDB without touching disk. Useful for tests.
	InMemory bool `mapstructure:"in_memory"`
}

// BadgerStore implements metadata.Store using BadgerDB.
type BadgerStore struct {
	db  *badger.DB
	seq *badger.Sequence
}

// NewBadgerStore opens (or creates) the database in cfg.Dir.
func NewBadgerStore(ctx context.Context, cfg BadgerStoreConfig) (*BadgerStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !cfg.InMemory && cfg.Dir == "" {
		return nil, fmt.Errorf("badger metadata store: dir is required")
	}

	opts := badger.DefaultOptions(cfg.Dir).
		WithInMemory(cfg.InMemory).
		WithLogger(nil)
	if cfg.InMemory {
		opts = opts.WithDir("").WithValueDir("")
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database: %w", err)
	}

	seq, err := db.GetSequence([]byte(sequenceKey), sequenceBandwidth)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open listing sequence: %w", err)
	}

	return &BadgerStore{db: db, seq: seq}, nil
}

// CreateUser implements metadata.Store.
func (s *BadgerStore) CreateUser(ctx context.Context, user *metadata.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	emailKey := userEmailKey(normalizeEmail(user.Email))
	value, err := encodeUser(user)
	if err != nil {
		return err
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(emailKey)
		switch {
		case err == nil:
			return metadata.ErrDuplicateEmail
		case !errors.Is(err, badger.ErrKeyNotFound):
			return err
		}
		if err := txn.Set(userKey(user.ID), value); err != nil {
			return err
		}
		return txn.Set(emailKey, []byte(user.ID.String()))
	})
	if err != nil {
		if errors.Is(err, metadata.ErrDuplicateEmail) {
			return metadata.ErrDuplicateEmail
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// UserByEmail implements metadata.Store.
func (s *BadgerStore) UserByEmail(ctx context.Context, email string) (*metadata.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var user *metadata.User
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(userEmailKey(normalizeEmail(email)))
		if err != nil {
			return err
		}
		var id uuid.UUID
		if err := item.Value(func(val []byte) error {
			parsed, err := parseUUID(string(val))
			if err != nil {
				return err
			}
			id = parsed
			return nil
		}); err != nil {
			return err
		}
		user, err = getUser(txn, id)
		return err
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, metadata.ErrNotFound
		}
		return nil, fmt.Errorf("failed to look up user by email: %w", err)
	}
	return user, nil
}

// UserByID implements metadata.Store.
func (s *BadgerStore) UserByID(ctx context.Context, id uuid.UUID) (*metadata.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var user *metadata.User
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		user, err = getUser(txn, id)
		return err
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, metadata.ErrNotFound
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	return user, nil
}

// CountUsers implements metadata.Store.
func (s *BadgerStore) CountUsers(ctx context.Context) (int, error) {
	return s.countPrefix(ctx, prefixUser)
}

// CreateEntry implements metadata.Store.
//
// The entry document and its listing-index key are written in one
// transaction, so a listed entry can always be resolved.
func (s *BadgerStore) CreateEntry(ctx context.Context, entry *metadata.FileEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	value, err := encodeEntry(entry)
	if err != nil {
		return err
	}
	seq, err := s.seq.Next()
	if err != nil {
		return fmt.Errorf("failed to advance listing sequence: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(entryKey(entry.ID), value); err != nil {
			return err
		}
		return txn.Set(listingKey(entry.UserID, entry.Parent, seq), []byte(entry.ID.String()))
	})
	if err != nil {
		return fmt.Errorf("failed to create file entry: %w", err)
	}
	return nil
}

// EntryByID implements metadata.Store.
func (s *BadgerStore) EntryByID(ctx context.Context, id uuid.UUID) (*metadata.FileEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var entry *metadata.FileEntry
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		entry, err = getEntry(txn, id)
		return err
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, metadata.ErrNotFound
		}
		return nil, fmt.Errorf("failed to look up file entry: %w", err)
	}
	return entry, nil
}

// EntryOwnedBy implements metadata.Store.
func (s *BadgerStore) EntryOwnedBy(ctx context.Context, userID, id uuid.UUID) (*metadata.FileEntry, error) {
	entry, err := s.EntryByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if entry.UserID != userID {
		return nil, metadata.ErrNotFound
	}
	return entry, nil
}

// ListEntries implements metadata.Store.
//
// A single prefix scan over the listing index yields the owner's children of
// the given parent in insertion order; pagination is skip-and-collect.
func (s *BadgerStore) ListEntries(ctx context.Context, userID uuid.UUID, parent metadata.ParentRef, offset, limit int) ([]*metadata.FileEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := make([]*metadata.FileEntry, 0, limit)
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = listingPrefix(userID, parent)
		it := txn.NewIterator(opts)
		defer it.Close()

		skipped := 0
		for it.Rewind(); it.Valid(); it.Next() {
			if skipped < offset {
				skipped++
				continue
			}
			var id uuid.UUID
			if err := it.Item().Value(func(val []byte) error {
				parsed, err := parseUUID(string(val))
				if err != nil {
					return err
				}
				id = parsed
				return nil
			}); err != nil {
				return err
			}
			entry, err := getEntry(txn, id)
			if err != nil {
				return err
			}
			result = append(result, entry)
			if len(result) == limit {
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list file entries: %w", err)
	}
	return result, nil
}

// SetEntryVisibility implements metadata.Store.
func (s *BadgerStore) SetEntryVisibility(ctx context.Context, userID, id uuid.UUID, public bool) (*metadata.FileEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var updated *metadata.FileEntry
	err := s.db.Update(func(txn *badger.Txn) error {
		entry, err := getEntry(txn, id)
		if err != nil {
			return err
		}
		if entry.UserID != userID {
			return badger.ErrKeyNotFound
		}
		entry.IsPublic = public
		value, err := encodeEntry(entry)
		if err != nil {
			return err
		}
		if err := txn.Set(entryKey(id), value); err != nil {
			return err
		}
		updated = entry
		return nil
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, metadata.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update file entry visibility: %w", err)
	}
	return updated, nil
}

// CountEntries implements metadata.Store.
func (s *BadgerStore) CountEntries(ctx context.Context) (int, error) {
	return s.countPrefix(ctx, prefixEntry)
}

// Ping implements metadata.Store.
func (s *BadgerStore) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.db.IsClosed() {
		return fmt.Errorf("badger database is closed")
	}
	return nil
}

// Close releases the listing sequence and closes the database.
func (s *BadgerStore) Close() error {
	if err := s.seq.Release(); err != nil {
		s.db.Close()
		return fmt.Errorf("failed to release listing sequence: %w", err)
	}
	return s.db.Close()
}

// countPrefix counts keys under a prefix without fetching values.
func (s *BadgerStore) countPrefix(ctx context.Context, prefix string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	count := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefix)
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count keys under %q: %w", prefix, err)
	}
	return count, nil
}

// getUser fetches and decodes a user inside an open transaction.
func getUser(txn *badger.Txn, id uuid.UUID) (*metadata.User, error) {
	item, err := txn.Get(userKey(id))
	if err != nil {
		return nil, err
	}
	var user *metadata.User
	err = item.Value(func(val []byte) error {
		decoded, err := decodeUser(val)
		if err != nil {
			return err
		}
		user = decoded
		return nil
	})
	return user, err
}

// getEntry fetches and decodes a file entry inside an open transaction.
func getEntry(txn *badger.Txn, id uuid.UUID) (*metadata.FileEntry, error) {
	item, err := txn.Get(entryKey(id))
	if err != nil {
		return nil, err
	}
	var entry *metadata.FileEntry
	err = item.Value(func(val []byte) error {
		decoded, err := decodeEntry(val)
		if err != nil {
			return err
		}
		entry = decoded
		return nil
	})
	return entry, err
}

func parseUUID(s string) (uuid.UUID, error) {
	return uuid.Parse(s)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
