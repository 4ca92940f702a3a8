package badger

import (
	"fmt"

	"github.com/cabinetfs/cabinet/pkg/store/metadata"
	"github.com/google/uuid"
)

// Database Key Namespace Design
// ==============================
//
// BadgerDB is a key-value store, so we use prefixed keys to organize the two
// document collections (users, file entries) into logical namespaces. This:
//   - Prevents key collisions between data types
//   - Enables efficient range scans (listings, counts)
//   - Makes the database structure self-documenting
//
// Key Namespace Prefixes:
//
// Data Type          Prefix  Key Format                           Value
// ==========================================================================
// User               "u:"    u:<uuid>                             User (JSON)
// Email Index        "ue:"   ue:<lowercased email>                user uuid (bytes)
// File Entry         "f:"    f:<uuid>                             FileEntry (JSON)
// Listing Index      "fl:"   fl:<userUUID>:<parent>:<seq20>       entry uuid (bytes)
//
// Listing Index Rationale:
//
// Listings must come back in insertion order, scoped to an owner and a
// parent. Badger iterates keys in lexicographic order, so the index key
// embeds a zero-padded monotonic sequence number (from badger.Sequence)
// as its last component: a prefix scan over "fl:<user>:<parent>:" yields
// the owner's children of that parent oldest-first, and offset/limit
// pagination is a skip-and-collect over that scan.
//
// <parent> is the ParentRef wire form: "0" for the root, the folder UUID
// otherwise, so root-level and folder-level listings share one scheme.

const (
	prefixUser      = "u:"
	prefixUserEmail = "ue:"
	prefixEntry     = "f:"
	prefixListing   = "fl:"

	// sequenceKey names the badger.Sequence used for listing-index ordering.
	sequenceKey = "seq:entries"

	// sequenceBandwidth is how many sequence numbers are leased at once.
	sequenceBandwidth = 128
)

func userKey(id uuid.UUID) []byte {
	return []byte(prefixUser + id.String())
}

func userEmailKey(email string) []byte {
	return []byte(prefixUserEmail + email)
}

func entryKey(id uuid.UUID) []byte {
	return []byte(prefixEntry + id.String())
}

// listingPrefix returns the scan prefix for all children of parent owned by
// userID.
func listingPrefix(userID uuid.UUID, parent metadata.ParentRef) []byte {
	return []byte(fmt.Sprintf("%s%s:%s:", prefixListing, userID, parent))
}

// listingKey returns the index key for one entry at the given sequence
// position. The sequence is zero-padded so lexicographic order matches
// numeric order.
func listingKey(userID uuid.UUID, parent metadata.ParentRef, seq uint64) []byte {
	return []byte(fmt.Sprintf("%s%s:%s:%020d", prefixListing, userID, parent, seq))
}
