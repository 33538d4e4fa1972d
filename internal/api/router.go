package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/starford/quire/internal/notebook"
)

const (
	maxJSONBytes   = 10 << 20 // 10 MB
	maxUploadBytes = 50 << 20 // 50 MB
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
// retention is the default age for POST /trash/purge.
func NewRouter(svc *notebook.Service, blobs BlobSource, authEnabled bool, token string, sseHandler http.Handler, retention time.Duration) chi.Router {
	h := NewHandler(svc, retention)
	ph := NewPDFHandler(svc, blobs)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Notes.
	r.Get("/notes", h.ListNotes)
	r.Post("/notes", h.CreateNote)
	r.Post("/notes/import", h.ImportNote)
	r.Get("/notes/{id}", h.GetNote)
	r.Put("/notes/{id}", h.SaveNote)
	r.Post("/notes/{id}/favorite", h.ToggleFavorite)
	r.Put("/notes/{id}/folder", h.MoveNote)
	r.Get("/notes/{id}/export", h.ExportNote)

	// Folders.
	r.Get("/folders", h.ListFolders)
	r.Post("/folders", h.CreateFolder)
	r.Get("/folders/{id}", h.GetFolder)
	r.Put("/folders/{id}", h.UpdateFolder)
	r.Post("/folders/{id}/trash", h.TrashFolder)
	r.Get("/folders/{id}/view", h.FolderView)
	r.Post("/folders/{id}/pdfs", ph.Upload)

	// Selection.
	r.Get("/selection", h.GetSelection)
	r.Put("/selection", h.SetSelection)

	// Trash.
	r.Get("/trash", h.ListTrash)
	r.Post("/trash/purge", h.PurgeTrash)
	r.Post("/trash/{id}/restore", h.RestoreFolder)

	// Templates.
	r.Get("/templates", h.ListTemplates)
	r.Post("/templates/{id}/notes", h.CreateFromTemplate)

	// PDFs.
	r.Get("/pdfs/{id}", ph.ServeFile)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
