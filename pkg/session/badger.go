package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	badger "github.com/dgraph-io/badger/v4"
)

// BadgerCacheConfig contains configuration for the BadgerDB session cache.
type BadgerCacheConfig struct {
	// Dir is the directory for the cache database. Kept separate from the
	// metadata store's directory: session churn should not pollute the
	// document store's value log, and the two stores have independent
	// lifetimes.
	Dir string `mapstructure:"dir"`

	// InMemory runs the cache without touching disk. Sessions then behave
	// like a classic volatile cache: a restart logs everyone out.
	InMemory bool `mapstructure:"in_memory"`
}

// BadgerCache implements Cache on BadgerDB using native per-entry TTLs.
//
// Badger expires entries at whole-second granularity; with a 24-hour session
// TTL that imprecision is irrelevant.
type BadgerCache struct {
	db *badger.DB
}

// NewBadgerCache opens (or creates) the cache database.
func NewBadgerCache(ctx context.Context, cfg BadgerCacheConfig) (*BadgerCache, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !cfg.InMemory && cfg.Dir == "" {
		return nil, fmt.Errorf("badger session cache: dir is required")
	}

	opts := badger.DefaultOptions(cfg.Dir).
		WithInMemory(cfg.InMemory).
		WithLogger(nil)
	if cfg.InMemory {
		opts = opts.WithDir("").WithValueDir("")
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open session cache: %w", err)
	}
	return &BadgerCache{db: db}, nil
}

// Set implements Cache.
func (c *BadgerCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := c.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(key), []byte(value)).WithTTL(ttl)
		return txn.SetEntry(entry)
	})
	if err != nil {
		return fmt.Errorf("failed to set cache entry: %w", err)
	}
	return nil
}

// Get implements Cache.
func (c *BadgerCache) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}

	var value string
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			value = string(val)
			return nil
		})
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to get cache entry: %w", err)
	}
	return value, true, nil
}

// Delete implements Cache.
func (c *BadgerCache) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := c.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}
	return nil
}

// Ping implements Cache.
func (c *BadgerCache) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.db.IsClosed() {
		return errors.New("session cache is closed")
	}
	return nil
}

// Close implements Cache.
func (c *BadgerCache) Close() error {
	return c.db.Close()
}
