// Package session implements opaque bearer-token authentication backed by a
// key-value cache with per-entry TTL.
package session

import (
	"context"
	"time"
)

// Cache is the key-value store behind the session manager.
//
// Entries expire at a fixed TTL set on write; Get never extends it. A miss
// (absent or expired key) is reported through the boolean, not as an error:
// absence is the expected "unauthenticated" signal, not a failure.
type Cache interface {
	// Set stores value under key for the given duration.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Get returns the value under key and whether it exists and is live.
	Get(ctx context.Context, key string) (string, bool, error)

	// Delete removes key unconditionally. Deleting an absent key is a no-op.
	Delete(ctx context.Context, key string) error

	// Ping reports whether the cache is reachable.
	Ping(ctx context.Context) error

	// Close releases cache resources.
	Close() error
}
