package metadata

import (
	"context"

	"github.com/google/uuid"
)

// PageSize is the fixed number of entries returned per listing page.
const PageSize = 20

// Store is the document store for users and file entries.
//
// Implementations must be safe for concurrent use: the request path and the
// job workers share a single store. Absence is reported as ErrNotFound (or
// ErrDuplicateEmail for conflicting registrations), never as a bare
// infrastructure error, so callers can distinguish domain outcomes from I/O
// failures.
//
// Listing returns entries in insertion order. There is no re-parenting and
// no delete: the namespace is append-only except for the IsPublic flag.
type Store interface {
	// CreateUser inserts a new user. Returns ErrDuplicateEmail if the email
	// is already registered.
	CreateUser(ctx context.Context, user *User) error

	// UserByEmail returns the user with the given email, or ErrNotFound.
	UserByEmail(ctx context.Context, email string) (*User, error)

	// UserByID returns the user with the given id, or ErrNotFound.
	UserByID(ctx context.Context, id uuid.UUID) (*User, error)

	// CountUsers returns the total number of registered users.
	CountUsers(ctx context.Context) (int, error)

	// CreateEntry inserts a new file entry. The caller is responsible for
	// validation (parent existence, content rules); the store only persists.
	CreateEntry(ctx context.Context, entry *FileEntry) error

	// EntryByID returns the entry with the given id regardless of owner,
	// or ErrNotFound. Used by content retrieval, which applies its own
	// visibility rules, and by parent validation.
	EntryByID(ctx context.Context, id uuid.UUID) (*FileEntry, error)

	// EntryOwnedBy returns the entry only if it belongs to userID,
	// or ErrNotFound.
	EntryOwnedBy(ctx context.Context, userID, id uuid.UUID) (*FileEntry, error)

	// ListEntries returns up to limit entries owned by userID under the
	// given parent, skipping offset entries, in insertion order.
	ListEntries(ctx context.Context, userID uuid.UUID, parent ParentRef, offset, limit int) ([]*FileEntry, error)

	// SetEntryVisibility updates IsPublic on an entry owned by userID and
	// returns the updated entry, or ErrNotFound. The operation is idempotent.
	SetEntryVisibility(ctx context.Context, userID, id uuid.UUID, public bool) (*FileEntry, error)

	// CountEntries returns the total number of file entries.
	CountEntries(ctx context.Context) (int, error)

	// Ping reports whether the store is reachable.
	Ping(ctx context.Context) error

	// Close releases store resources.
	Close() error
}
