package notebook

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/quire/internal/apperr"
	"github.com/starford/quire/internal/idgen"
	"github.com/starford/quire/internal/models"
	"github.com/starford/quire/internal/query"
)

// DefaultFolderColor is used when a folder is created without a color.
const DefaultFolderColor = "#3b82f6"

var hexColor = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// FolderInput is the editable part of a folder.
type FolderInput struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// Validate implements validation.Validatable.
func (in FolderInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&in.Color, validation.Required, validation.Match(hexColor)),
	)
}

func (in FolderInput) normalize() FolderInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Color = strings.TrimSpace(in.Color)
	if in.Color == "" {
		in.Color = DefaultFolderColor
	}
	return in
}

// FolderView is a folder together with its notes and PDFs.
type FolderView struct {
	Folder models.Folder `json:"folder"`
	Notes  []models.Note `json:"notes"`
	PDFs   []models.PDF  `json:"pdfs"`
}

// ListFolders returns the active folders in stored order.
func (s *Service) ListFolders(ctx context.Context) []models.Folder {
	return s.folders.Load(ctx)
}

// GetFolder returns an active folder.
func (s *Service) GetFolder(ctx context.Context, id string) (models.Folder, error) {
	f, ok := s.folders.Find(ctx, id)
	if !ok {
		return models.Folder{}, fmt.Errorf("folder %s: %w", id, apperr.ErrNotFound)
	}
	return f, nil
}

// CreateFolder appends a new folder. Names are trimmed and must not be blank.
func (s *Service) CreateFolder(ctx context.Context, in FolderInput) (models.Folder, error) {
	in = in.normalize()
	if err := in.Validate(); err != nil {
		return models.Folder{}, fmt.Errorf("%w: %w", apperr.ErrInvalid, err)
	}
	f := models.Folder{
		ID:     s.ids.New(idgen.PrefixFolder),
		Name:   in.Name,
		Color:  in.Color,
		UserID: models.GuestUserID,
	}
	s.folders.Append(ctx, f)
	s.emit(KindCreated, EntityFolder, f.ID)
	return f, nil
}

// UpdateFolder renames or recolors an active folder.
func (s *Service) UpdateFolder(ctx context.Context, id string, in FolderInput) (models.Folder, error) {
	in = in.normalize()
	if err := in.Validate(); err != nil {
		return models.Folder{}, fmt.Errorf("%w: %w", apperr.ErrInvalid, err)
	}
	items, found, _ := s.folders.UpdateByID(ctx, id, func(f models.Folder) models.Folder {
		f.Name = in.Name
		f.Color = in.Color
		return f
	})
	if !found {
		return models.Folder{}, fmt.Errorf("folder %s: %w", id, apperr.ErrNotFound)
	}
	s.emit(KindUpdated, EntityFolder, id)
	for _, f := range items {
		if f.ID == id {
			return f, nil
		}
	}
	return models.Folder{}, fmt.Errorf("folder %s: %w", id, apperr.ErrNotFound)
}

// TrashFolder moves an active folder to the trash. Notes keep their
// folder_id; a selection pointing at the folder is cleared.
func (s *Service) TrashFolder(ctx context.Context, id string) (models.Folder, error) {
	f, err := s.trash.MoveToTrash(ctx, id)
	if err != nil {
		return models.Folder{}, err
	}
	s.clearSelection(id)
	s.emit(KindTrashed, EntityFolder, id)
	return f, nil
}

// RestoreFolder moves a trashed folder back to the active collection.
func (s *Service) RestoreFolder(ctx context.Context, id string) (models.Folder, error) {
	f, err := s.trash.Restore(ctx, id)
	if err != nil {
		return models.Folder{}, err
	}
	s.emit(KindRestored, EntityFolder, id)
	return f, nil
}

// ListTrash returns the trashed folders.
func (s *Service) ListTrash(ctx context.Context) []models.Folder {
	return s.trash.List(ctx)
}

// PurgeTrash permanently drops trashed folders deleted more than olderThan ago.
func (s *Service) PurgeTrash(ctx context.Context, olderThan time.Duration) []models.Folder {
	purged := s.trash.Purge(ctx, olderThan)
	for _, f := range purged {
		s.emit(KindPurged, EntityFolder, f.ID)
	}
	return purged
}

// FolderView returns an active folder with its notes and PDFs, optionally
// narrowed by a case-insensitive search term.
func (s *Service) FolderView(ctx context.Context, id, term string) (FolderView, error) {
	f, err := s.GetFolder(ctx, id)
	if err != nil {
		return FolderView{}, err
	}
	notes := query.ByFolder(s.notes.Load(ctx), id)
	pdfs := query.PDFsByFolder(s.pdfs.Load(ctx), id)
	if term != "" {
		notes = query.SearchFolderNotes(notes, term)
		pdfs = query.SearchPDFs(pdfs, term)
	}
	return FolderView{Folder: f, Notes: nonNilSlice(notes), PDFs: nonNilSlice(pdfs)}, nil
}
