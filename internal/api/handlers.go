package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/starford/quire/internal/models"
	"github.com/starford/quire/internal/notebook"
	"github.com/starford/quire/internal/query"
)

// Handler holds API route handlers.
type Handler struct {
	svc       *notebook.Service
	retention time.Duration
}

// NewHandler creates a new Handler.
func NewHandler(svc *notebook.Service, retention time.Duration) *Handler {
	return &Handler{svc: svc, retention: retention}
}

// ListNotes handles GET /api/notes.
//
//	@Summary		List notes narrowed by view, search term and folder
//	@Tags			notes
//	@Produce		json
//	@Param			view	query		string	false	"View"	Enums(documents, favorites, shared)
//	@Param			q		query		string	false	"Search term"
//	@Param			folder	query		string	false	"Folder id"
//	@Success		200		{object}	NoteListResponse
//	@Security		BearerAuth
//	@Router			/notes [get]
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	notes := h.svc.ListNotes(r.Context(), query.Filter{
		View:     query.ParseView(q.Get("view")),
		Term:     q.Get("q"),
		FolderID: q.Get("folder"),
	})
	writeJSON(w, http.StatusOK, NoteListResponse{Notes: notes, Total: len(notes)})
}

// GetNote handles GET /api/notes/{id}.
//
//	@Summary		Get a single note
//	@Tags			notes
//	@Produce		json
//	@Param			id	path		string	true	"Note id"
//	@Success		200	{object}	models.Note
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id} [get]
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	note, err := h.svc.GetNote(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, "get note", err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// CreateNote handles POST /api/notes. The body is optional; without a
// folder_id the note goes into the selected folder, if any.
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBytes)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read body"))
		return
	}
	var req CreateNoteRequest
	if len(strings.TrimSpace(string(body))) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
			return
		}
	}
	writeJSON(w, http.StatusCreated, h.svc.CreateNote(r.Context(), req.FolderID))
}

// SaveNote handles PUT /api/notes/{id}.
//
//	@Summary		Save note title and content
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string			true	"Note id"
//	@Param			body	body		SaveNoteRequest	true	"New title and content"
//	@Success		200		{object}	models.Note
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id} [put]
func (h *Handler) SaveNote(w http.ResponseWriter, r *http.Request) {
	var req SaveNoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	note, err := h.svc.SaveNote(r.Context(), chi.URLParam(r, "id"), req.Title, req.Content)
	if err != nil {
		writeServiceError(w, "save note", err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// ToggleFavorite handles POST /api/notes/{id}/favorite.
func (h *Handler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	note, err := h.svc.ToggleFavorite(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, "toggle favorite", err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// MoveNote handles PUT /api/notes/{id}/folder.
func (h *Handler) MoveNote(w http.ResponseWriter, r *http.Request) {
	var req MoveNoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	note, err := h.svc.MoveNote(r.Context(), chi.URLParam(r, "id"), req.FolderID)
	if err != nil {
		writeServiceError(w, "move note", err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// ExportNote handles GET /api/notes/{id}/export as a Markdown download.
func (h *Handler) ExportNote(w http.ResponseWriter, r *http.Request) {
	name, data, err := h.svc.ExportNote(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, "export note", err)
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// ImportNote handles POST /api/notes/import. The body is raw Markdown; the
// optional folder query parameter places the note.
func (h *Handler) ImportNote(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBytes)
	data, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read body"))
		return
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		writeJSON(w, http.StatusBadRequest, errorBody("markdown body is required"))
		return
	}
	writeJSON(w, http.StatusCreated, h.svc.ImportMarkdown(r.Context(), r.URL.Query().Get("folder"), data))
}

// ListFolders handles GET /api/folders.
func (h *Handler) ListFolders(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, FolderListResponse{Folders: h.svc.ListFolders(r.Context())})
}

// GetFolder handles GET /api/folders/{id}.
func (h *Handler) GetFolder(w http.ResponseWriter, r *http.Request) {
	f, err := h.svc.GetFolder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, "get folder", err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

// CreateFolder handles POST /api/folders.
//
//	@Summary		Create a folder
//	@Tags			folders
//	@Accept			json
//	@Produce		json
//	@Param			body	body		FolderRequest	true	"Name and optional color"
//	@Success		201		{object}	models.Folder
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/folders [post]
func (h *Handler) CreateFolder(w http.ResponseWriter, r *http.Request) {
	var req FolderRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	f, err := h.svc.CreateFolder(r.Context(), req)
	if err != nil {
		writeServiceError(w, "create folder", err)
		return
	}
	writeJSON(w, http.StatusCreated, f)
}

// UpdateFolder handles PUT /api/folders/{id}.
func (h *Handler) UpdateFolder(w http.ResponseWriter, r *http.Request) {
	var req FolderRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	f, err := h.svc.UpdateFolder(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		writeServiceError(w, "update folder", err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

// TrashFolder handles POST /api/folders/{id}/trash.
func (h *Handler) TrashFolder(w http.ResponseWriter, r *http.Request) {
	f, err := h.svc.TrashFolder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, "trash folder", err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

// GetSelection handles GET /api/selection.
func (h *Handler) GetSelection(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, SelectionResponse{FolderID: h.svc.SelectedFolder()})
}

// SetSelection handles PUT /api/selection.
//
//	@Summary		Select the folder new notes go into
//	@Tags			folders
//	@Accept			json
//	@Produce		json
//	@Param			body	body		SelectionRequest	true	"Folder to select"
//	@Success		200		{object}	SelectionResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/selection [put]
func (h *Handler) SetSelection(w http.ResponseWriter, r *http.Request) {
	var req SelectionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.svc.SelectFolder(r.Context(), req.FolderID); err != nil {
		writeServiceError(w, "select folder", err)
		return
	}
	writeJSON(w, http.StatusOK, SelectionResponse{FolderID: h.svc.SelectedFolder()})
}

// FolderView handles GET /api/folders/{id}/view?q=.
func (h *Handler) FolderView(w http.ResponseWriter, r *http.Request) {
	v, err := h.svc.FolderView(r.Context(), chi.URLParam(r, "id"), r.URL.Query().Get("q"))
	if err != nil {
		writeServiceError(w, "folder view", err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// ListTrash handles GET /api/trash.
func (h *Handler) ListTrash(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, FolderListResponse{Folders: h.svc.ListTrash(r.Context())})
}

// RestoreFolder handles POST /api/trash/{id}/restore.
func (h *Handler) RestoreFolder(w http.ResponseWriter, r *http.Request) {
	f, err := h.svc.RestoreFolder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, "restore folder", err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

// PurgeTrash handles POST /api/trash/purge?older_than=<duration>. Without
// older_than the configured retention applies.
func (h *Handler) PurgeTrash(w http.ResponseWriter, r *http.Request) {
	olderThan := h.retention
	if raw := r.URL.Query().Get("older_than"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d < 0 {
			writeJSON(w, http.StatusBadRequest, errorBody("older_than must be a non-negative duration"))
			return
		}
		olderThan = d
	}
	purged := h.svc.PurgeTrash(r.Context(), olderThan)
	if purged == nil {
		purged = []models.Folder{}
	}
	writeJSON(w, http.StatusOK, PurgeResponse{Purged: purged})
}

// ListTemplates handles GET /api/templates.
func (h *Handler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, TemplateListResponse{Templates: h.svc.Templates(r.Context())})
}

// CreateFromTemplate handles POST /api/templates/{id}/notes?folder=.
func (h *Handler) CreateFromTemplate(w http.ResponseWriter, r *http.Request) {
	note, err := h.svc.CreateNoteFromTemplate(r.Context(), chi.URLParam(r, "id"), r.URL.Query().Get("folder"))
	if err != nil {
		writeServiceError(w, "create from template", err)
		return
	}
	writeJSON(w, http.StatusCreated, note)
}
