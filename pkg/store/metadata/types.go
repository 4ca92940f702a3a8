// Package metadata defines the domain types and the Store interface for
// Cabinet's document layer: user accounts and the hierarchical file
// namespace. Implementations live in the sibling memory and badger packages.
package metadata

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// EntryType classifies a file entry. Folders never carry content; files and
// images always do.
type EntryType string

const (
	EntryTypeFolder EntryType = "folder"
	EntryTypeFile   EntryType = "file"
	EntryTypeImage  EntryType = "image"
)

// Valid reports whether t is one of the three known entry types.
func (t EntryType) Valid() bool {
	switch t {
	case EntryTypeFolder, EntryTypeFile, EntryTypeImage:
		return true
	}
	return false
}

// HasContent reports whether entries of this type carry bytes in the
// content store.
func (t EntryType) HasContent() bool {
	return t == EntryTypeFile || t == EntryTypeImage
}

// ParentRef identifies the parent of a file entry: either the namespace root
// or an existing folder entry.
//
// The zero value is the root reference. Keeping root and folder-id as a
// single type (instead of a nullable id or a magic string) makes the "parent
// must exist and be a folder" check a single code path at creation time.
//
// Wire format: the root renders as the string "0", a folder reference as the
// folder's UUID string.
type ParentRef struct {
	id     uuid.UUID
	folder bool
}

// RootParent returns the reference meaning "no parent / top level".
func RootParent() ParentRef {
	return ParentRef{}
}

// ParentOf returns a reference to the folder with the given id.
func ParentOf(id uuid.UUID) ParentRef {
	return ParentRef{id: id, folder: true}
}

// IsRoot reports whether p refers to the namespace root.
func (p ParentRef) IsRoot() bool {
	return !p.folder
}

// FolderID returns the referenced folder id. The second return value is
// false for the root reference.
func (p ParentRef) FolderID() (uuid.UUID, bool) {
	return p.id, p.folder
}

// String renders the wire form: "0" for root, the UUID string otherwise.
func (p ParentRef) String() string {
	if p.IsRoot() {
		return "0"
	}
	return p.id.String()
}

// ParseParentRef parses the wire form. An empty string or "0" means root;
// anything else must be a valid UUID.
func ParseParentRef(s string) (ParentRef, error) {
	if s == "" || s == "0" {
		return RootParent(), nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return ParentRef{}, fmt.Errorf("invalid parent id %q: %w", s, err)
	}
	return ParentOf(id), nil
}

// MarshalJSON implements json.Marshaler using the wire form.
func (p ParentRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

// UnmarshalJSON implements json.Unmarshaler using the wire form.
func (p *ParentRef) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	ref, err := ParseParentRef(s)
	if err != nil {
		return err
	}
	*p = ref
	return nil
}

// User is a registered account. PasswordHash is a bcrypt digest and must
// never be serialized toward clients or written to logs.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash []byte    `json:"-"`
}

// FileEntry is a node in the hierarchical namespace.
//
// ContentPath is the content-store address of the entry's bytes. It is empty
// for folders and opaque outside the content store. IsPublic is the only
// field that may change after creation.
type FileEntry struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"userId"`
	Name        string    `json:"name"`
	Type        EntryType `json:"type"`
	IsPublic    bool      `json:"isPublic"`
	Parent      ParentRef `json:"parentId"`
	ContentPath string    `json:"-"`
}
