package api

import (
	"github.com/starford/quire/internal/models"
	"github.com/starford/quire/internal/notebook"
)

// CreateNoteRequest is the optional body of POST /api/notes.
type CreateNoteRequest struct {
	FolderID string `json:"folder_id,omitempty" example:"folder-1"`
}

// SaveNoteRequest is the body of PUT /api/notes/{id}.
type SaveNoteRequest struct {
	Title   string `json:"title" example:"Groceries"`
	Content string `json:"content" example:"<p>milk</p>"`
}

// MoveNoteRequest is the body of PUT /api/notes/{id}/folder. An empty
// folder_id detaches the note.
type MoveNoteRequest struct {
	FolderID string `json:"folder_id"`
}

// SelectionRequest is the body of PUT /api/selection. An empty folder_id
// clears the selection.
type SelectionRequest struct {
	FolderID string `json:"folder_id" example:"folder-1"`
}

// SelectionResponse reports the current folder selection.
type SelectionResponse struct {
	FolderID string `json:"folder_id"`
}

// FolderRequest is the body of folder create and update.
type FolderRequest = notebook.FolderInput

// NoteListResponse wraps note listings.
type NoteListResponse struct {
	Notes []models.Note `json:"notes" validate:"required"`
	Total int           `json:"total" example:"42" validate:"required"`
}

// FolderListResponse wraps folder listings.
type FolderListResponse struct {
	Folders []models.Folder `json:"folders" validate:"required"`
}

// TemplateListResponse wraps template listings.
type TemplateListResponse struct {
	Templates []models.Template `json:"templates" validate:"required"`
}

// PDFUploadResponse is returned after a successful PDF import.
type PDFUploadResponse struct {
	PDFs []models.PDF `json:"pdfs" validate:"required"`
}

// PurgeResponse lists the folders removed by a purge.
type PurgeResponse struct {
	Purged []models.Folder `json:"purged" validate:"required"`
}
