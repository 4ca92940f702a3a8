// Package content defines the content store abstraction: raw bytes addressed
// by an opaque path, fully independent of the metadata layer.
//
// Originals are written through Write, which generates the path; derived
// artifacts (thumbnails) are written through Put at a path computed with
// DerivedPath. There is no registry of derived artifacts; presence is
// checked by attempting the read.
package content

import (
	"context"
	"errors"
	"fmt"
)

// ErrContentNotFound indicates the requested content does not exist.
//
// Filesystem and object-store misses are both normalized to this error so
// callers never see backend detail; the retrieval path maps it to NotFound.
var ErrContentNotFound = errors.New("content not found")

// Store persists raw bytes for file and image entries.
//
// Paths returned by Write are opaque to callers: they are stored verbatim in
// the metadata layer and handed back on reads. Implementations must be safe
// for concurrent use; concurrent writes to distinct paths never interfere,
// and path uniqueness is the generator's responsibility, not the store's.
type Store interface {
	// Write persists data at a newly generated unique path and returns it.
	Write(ctx context.Context, data []byte) (string, error)

	// Put persists data at the given path, overwriting any previous bytes.
	// Used for derived artifacts whose path is computed from the original's.
	Put(ctx context.Context, path string, data []byte) error

	// Read returns the bytes at path, or ErrContentNotFound.
	Read(ctx context.Context, path string) ([]byte, error)

	// Close releases store resources.
	Close() error
}

// DerivedPath returns the address of the derived artifact of the given width
// for the original at path. The convention is "<path>_<width>".
func DerivedPath(path string, width int) string {
	return fmt.Sprintf("%s_%d", path, width)
}
