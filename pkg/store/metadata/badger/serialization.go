package badger

import (
	"encoding/json"
	"fmt"

	"github.com/cabinetfs/cabinet/pkg/store/metadata"
)

// Values are stored as JSON. The documents here are small (a user record, a
// file entry) and JSON keeps the database inspectable and tolerant of field
// additions; the hot path is the point lookup, not the decode.

// userRecord is the stored form of a user. PasswordHash is excluded from the
// domain type's JSON so the digest is serialized explicitly here and nowhere
// else.
type userRecord struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	PasswordHash []byte `json:"password_hash"`
}

// entryRecord is the stored form of a file entry.
type entryRecord struct {
	ID          string `json:"id"`
	UserID      string `json:"user_id"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	IsPublic    bool   `json:"is_public"`
	Parent      string `json:"parent"`
	ContentPath string `json:"content_path,omitempty"`
}

func encodeUser(user *metadata.User) ([]byte, error) {
	rec := userRecord{
		ID:           user.ID.String(),
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to encode user: %w", err)
	}
	return data, nil
}

func decodeUser(data []byte) (*metadata.User, error) {
	var rec userRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode user: %w", err)
	}
	id, err := parseUUID(rec.ID)
	if err != nil {
		return nil, fmt.Errorf("corrupt user record: %w", err)
	}
	return &metadata.User{
		ID:           id,
		Email:        rec.Email,
		PasswordHash: rec.PasswordHash,
	}, nil
}

func encodeEntry(entry *metadata.FileEntry) ([]byte, error) {
	rec := entryRecord{
		ID:          entry.ID.String(),
		UserID:      entry.UserID.String(),
		Name:        entry.Name,
		Type:        string(entry.Type),
		IsPublic:    entry.IsPublic,
		Parent:      entry.Parent.String(),
		ContentPath: entry.ContentPath,
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to encode file entry: %w", err)
	}
	return data, nil
}

func decodeEntry(data []byte) (*metadata.FileEntry, error) {
	var rec entryRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode file entry: %w", err)
	}
	id, err := parseUUID(rec.ID)
	if err != nil {
		return nil, fmt.Errorf("corrupt file entry: %w", err)
	}
	userID, err := parseUUID(rec.UserID)
	if err != nil {
		return nil, fmt.Errorf("corrupt file entry: %w", err)
	}
	parent, err := metadata.ParseParentRef(rec.Parent)
	if err != nil {
		return nil, fmt.Errorf("corrupt file entry: %w", err)
	}
	return &metadata.FileEntry{
		ID:          id,
		UserID:      userID,
		Name:        rec.Name,
		Type:        metadata.EntryType(rec.Type),
		IsPublic:    rec.IsPublic,
		Parent:      parent,
		ContentPath: rec.ContentPath,
	}, nil
}
