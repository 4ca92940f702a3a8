// Package files implements the file-metadata operations: upload, retrieval,
// listing, visibility, and content fetch. Every operation except content
// fetch is scoped to the authenticated owner; content fetch applies the
// public/private visibility rules instead.
package files

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/cabinetfs/cabinet/internal/logger"
	"github.com/cabinetfs/cabinet/pkg/queue"
	"github.com/cabinetfs/cabinet/pkg/store/content"
	"github.com/cabinetfs/cabinet/pkg/store/metadata"
	"github.com/cabinetfs/cabinet/pkg/worker"
)

// defaultMimeType is served when the entry name's extension resolves to
// nothing.
const defaultMimeType = "application/octet-stream"

// Service coordinates the metadata store, the content store, and the job
// queue for file operations.
type Service struct {
	store   metadata.Store
	content content.Store
	queue   queue.Queue
}

// NewService creates a file service over the given stores and queue.
func NewService(store metadata.Store, contentStore content.Store, q queue.Queue) *Service {
	return &Service{
		store:   store,
		content: contentStore,
		queue:   q,
	}
}

// CreateRequest carries a validated-on-entry upload.
type CreateRequest struct {
	Name     string
	Type     metadata.EntryType
	IsPublic bool
	Parent   metadata.ParentRef
	Data     []byte
}

// Create validates and persists a new entry under userID.
//
// Validation is fail-fast, first error wins: name, then type, then content
// (required and non-empty for non-folders), then parent existence, then
// parent kind. Nothing is written before validation passes.
//
// For non-folders the content bytes are written before the metadata insert:
// a crash between the two steps leaves an orphaned content object, never a
// metadata record pointing at nothing. There is no lock around the parent
// check and the insert; the namespace is append-only, so a checked parent
// cannot disappear before the insert lands.
//
// Image entries enqueue a thumbnail job after the metadata write succeeds.
func (s *Service) Create(ctx context.Context, userID uuid.UUID, req CreateRequest) (*metadata.FileEntry, error) {
	if req.Name == "" {
		return nil, metadata.ErrMissingName
	}
	if !req.Type.Valid() {
		return nil, metadata.ErrMissingType
	}
	if req.Type.HasContent() && len(req.Data) == 0 {
		return nil, metadata.ErrMissingData
	}
	if parentID, ok := req.Parent.FolderID(); ok {
		parent, err := s.store.EntryByID(ctx, parentID)
		if err != nil {
			if errors.Is(err, metadata.ErrNotFound) {
				return nil, metadata.ErrParentNotFound
			}
			return nil, err
		}
		if parent.Type != metadata.EntryTypeFolder {
			return nil, metadata.ErrParentNotFolder
		}
	}

	entry := &metadata.FileEntry{
		ID:       uuid.New(),
		UserID:   userID,
		Name:     req.Name,
		Type:     req.Type,
		IsPublic: req.IsPublic,
		Parent:   req.Parent,
	}

	if req.Type.HasContent() {
		path, err := s.content.Write(ctx, req.Data)
		if err != nil {
			return nil, fmt.Errorf("failed to store content: %w", err)
		}
		entry.ContentPath = path
	}

	if err := s.store.CreateEntry(ctx, entry); err != nil {
		return nil, err
	}

	if entry.Type == metadata.EntryTypeImage {
		s.enqueueThumbnails(ctx, entry)
	}

	return entry, nil
}

// enqueueThumbnails queues derivation for a new image. The entry exists
// either way; a lost job means missing thumbnails, which is logged loudly
// but does not fail the upload.
func (s *Service) enqueueThumbnails(ctx context.Context, entry *metadata.FileEntry) {
	payload, err := json.Marshal(worker.ThumbnailJob{
		FileID: entry.ID,
		UserID: entry.UserID,
	})
	if err == nil {
		err = s.queue.Enqueue(ctx, worker.TopicThumbnails, payload)
	}
	if err != nil {
		logger.Error("failed to enqueue thumbnail job for entry %s: %v", entry.ID, err)
	}
}

// Get returns the entry only if it belongs to userID. There is no
// public-access bypass here; that exists only for content retrieval.
func (s *Service) Get(ctx context.Context, userID, fileID uuid.UUID) (*metadata.FileEntry, error) {
	return s.store.EntryOwnedBy(ctx, userID, fileID)
}

// List returns the page of userID's entries under parent, in insertion
// order. Pages are metadata.PageSize long; negative pages read as page 0.
func (s *Service) List(ctx context.Context, userID uuid.UUID, parent metadata.ParentRef, page int) ([]*metadata.FileEntry, error) {
	if page < 0 {
		page = 0
	}
	return s.store.ListEntries(ctx, userID, parent, page*metadata.PageSize, metadata.PageSize)
}

// SetVisibility publishes or unpublishes an entry owned by userID and
// returns the updated view. Idempotent: repeating the call leaves the same
// state and returns equivalent metadata.
func (s *Service) SetVisibility(ctx context.Context, userID, fileID uuid.UUID, public bool) (*metadata.FileEntry, error) {
	return s.store.SetEntryVisibility(ctx, userID, fileID, public)
}

// Content returns the bytes and content type for an entry.
//
// Public entries need no requester; private entries require requester to be
// the owner, and any other case reads as NotFound so existence is not
// leaked. width zero serves the original; a non-zero width serves the
// derived artifact at "<path>_<width>", and a missing artifact (not yet
// derived, or an unknown width) also reads as NotFound.
func (s *Service) Content(ctx context.Context, fileID uuid.UUID, width int, requester *uuid.UUID) ([]byte, string, error) {
	entry, err := s.store.EntryByID(ctx, fileID)
	if err != nil {
		return nil, "", err
	}

	if !entry.IsPublic {
		if requester == nil || *requester != entry.UserID {
			return nil, "", metadata.ErrNotFound
		}
	}

	if entry.Type == metadata.EntryTypeFolder {
		return nil, "", metadata.ErrFolderHasNoContent
	}

	path := entry.ContentPath
	if width != 0 {
		path = content.DerivedPath(path, width)
	}

	data, err := s.content.Read(ctx, path)
	if err != nil {
		if errors.Is(err, content.ErrContentNotFound) {
			return nil, "", metadata.ErrNotFound
		}
		return nil, "", err
	}

	return data, mimeTypeFor(entry.Name), nil
}

// Stats reports the total number of users and file entries.
func (s *Service) Stats(ctx context.Context) (users, entries int, err error) {
	users, err = s.store.CountUsers(ctx)
	if err != nil {
		return 0, 0, err
	}
	entries, err = s.store.CountEntries(ctx)
	if err != nil {
		return 0, 0, err
	}
	return users, entries, nil
}

// mimeTypeFor resolves the content type from the entry name's extension.
func mimeTypeFor(name string) string {
	if t := mime.TypeByExtension(filepath.Ext(name)); t != "" {
		return t
	}
	return defaultMimeType
}
