package session

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DefaultTTL is the fixed lifetime of a session token. There is no sliding
// expiration: the TTL counts from issuance, never from last use.
const DefaultTTL = 24 * time.Hour

// keyPrefix namespaces session entries in the cache.
const keyPrefix = "session:"

// Manager issues, resolves, and revokes opaque session tokens.
//
// Tokens are UUIDv4 strings mapped to a user id in the cache; the cache owns
// the token's lifetime. Multiple concurrent logins for one user simply
// create independent tokens.
type Manager struct {
	cache Cache
	ttl   time.Duration
}

// NewManager creates a session manager over the given cache. A ttl of zero
// selects DefaultTTL.
func NewManager(cache Cache, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{cache: cache, ttl: ttl}
}

// Issue creates a new token for userID and stores it with the fixed TTL.
func (m *Manager) Issue(ctx context.Context, userID uuid.UUID) (string, error) {
	token := uuid.NewString()
	if err := m.cache.Set(ctx, keyPrefix+token, userID.String(), m.ttl); err != nil {
		return "", fmt.Errorf("failed to store session token: %w", err)
	}
	return token, nil
}

// Resolve maps a token back to a user id. The boolean is false when the
// token is absent or expired; that outcome is not an error.
func (m *Manager) Resolve(ctx context.Context, token string) (uuid.UUID, bool, error) {
	if token == "" {
		return uuid.Nil, false, nil
	}
	value, ok, err := m.cache.Get(ctx, keyPrefix+token)
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("failed to resolve session token: %w", err)
	}
	if !ok {
		return uuid.Nil, false, nil
	}
	userID, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("corrupt session entry: %w", err)
	}
	return userID, true, nil
}

// Revoke deletes the token mapping unconditionally. Revoking a token that
// does not exist succeeds; the caller decides the client-visible outcome by
// resolving first.
func (m *Manager) Revoke(ctx context.Context, token string) error {
	if err := m.cache.Delete(ctx, keyPrefix+token); err != nil {
		return fmt.Errorf("failed to revoke session token: %w", err)
	}
	return nil
}

// Ping reports whether the backing cache is reachable.
func (m *Manager) Ping(ctx context.Context) error {
	return m.cache.Ping(ctx)
}
