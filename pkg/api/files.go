package api

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/cabinetfs/cabinet/pkg/files"
	"github.com/cabinetfs/cabinet/pkg/store/metadata"
)

// entryView is the client-facing shape of a file entry. The content path is
// internal to the content store and never leaves the server.
type entryView struct {
	ID       string `json:"id"`
	UserID   string `json:"userId"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	IsPublic bool   `json:"isPublic"`
	ParentID string `json:"parentId"`
}

func viewEntry(e *metadata.FileEntry) entryView {
	return entryView{
		ID:       e.ID.String(),
		UserID:   e.UserID.String(),
		Name:     e.Name,
		Type:     string(e.Type),
		IsPublic: e.IsPublic,
		ParentID: e.Parent.String(),
	}
}

// handleUpload creates a folder or stores an uploaded file/image.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	var payload struct {
		Name     string `json:"name"`
		Type     string `json:"type"`
		IsPublic bool   `json:"isPublic"`
		ParentID string `json:"parentId"`
		Data     string `json:"data"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	parent, err := metadata.ParseParentRef(payload.ParentID)
	if err != nil {
		writeError(w, http.StatusBadRequest, metadata.ErrParentNotFound.Message)
		return
	}

	var data []byte
	if payload.Data != "" {
		data, err = base64.StdEncoding.DecodeString(payload.Data)
		if err != nil {
			writeError(w, http.StatusBadRequest, metadata.ErrMissingData.Message)
			return
		}
	}

	entry, err := s.files.Create(r.Context(), userID, files.CreateRequest{
		Name:     payload.Name,
		Type:     metadata.EntryType(payload.Type),
		IsPublic: payload.IsPublic,
		Parent:   parent,
		Data:     data,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, viewEntry(entry))
}

// handleGetFile returns one entry owned by the caller.
func (s *Server) handleGetFile(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	fileID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, metadata.ErrNotFound.Message)
		return
	}

	entry, err := s.files.Get(r.Context(), userID, fileID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewEntry(entry))
}

// handleListFiles returns one page of the caller's entries under a parent.
func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	parent, err := metadata.ParseParentRef(r.URL.Query().Get("parentId"))
	if err != nil {
		writeJSON(w, http.StatusOK, []entryView{})
		return
	}
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))

	entries, err := s.files.List(r.Context(), userID, parent, page)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	views := make([]entryView, 0, len(entries))
	for _, entry := range entries {
		views = append(views, viewEntry(entry))
	}
	writeJSON(w, http.StatusOK, views)
}

// handlePublish makes an entry public.
func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	s.setVisibility(w, r, true)
}

// handleUnpublish makes an entry private.
func (s *Server) handleUnpublish(w http.ResponseWriter, r *http.Request) {
	s.setVisibility(w, r, false)
}

func (s *Server) setVisibility(w http.ResponseWriter, r *http.Request, public bool) {
	userID, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	fileID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, metadata.ErrNotFound.Message)
		return
	}

	entry, err := s.files.SetVisibility(r.Context(), userID, fileID, public)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewEntry(entry))
}

// handleFileData serves an entry's bytes, or a thumbnail when ?size= is one
// of the derived widths. Public entries need no token; private entries
// require the owner's.
func (s *Server) handleFileData(w http.ResponseWriter, r *http.Request) {
	fileID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, metadata.ErrNotFound.Message)
		return
	}

	width := 0
	if size := r.URL.Query().Get("size"); size != "" {
		width, err = strconv.Atoi(size)
		if err != nil || width < 0 {
			writeError(w, http.StatusNotFound, metadata.ErrNotFound.Message)
			return
		}
	}

	// The token is optional here: its absence only matters for private
	// entries, and the service decides that.
	var requester *uuid.UUID
	if userID, ok, err := s.sessions.Resolve(r.Context(), r.Header.Get(TokenHeader)); err == nil && ok {
		requester = &userID
	}

	data, mimeType, err := s.files.Content(r.Context(), fileID, width, requester)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", mimeType)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
