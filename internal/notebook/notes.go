package notebook

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/starford/quire/internal/apperr"
	"github.com/starford/quire/internal/idgen"
	"github.com/starford/quire/internal/markdown"
	"github.com/starford/quire/internal/models"
	"github.com/starford/quire/internal/query"
)

// UntitledNote is the title given to blank notes.
const UntitledNote = "Untitled Note"

// ListNotes returns the stored notes narrowed by f, in stored order.
func (s *Service) ListNotes(ctx context.Context, f query.Filter) []models.Note {
	return query.Apply(s.notes.Load(ctx), f)
}

// GetNote returns a note, asking the remote backend first when one is
// configured and falling back to local storage on any remote failure.
func (s *Service) GetNote(ctx context.Context, id string) (models.Note, error) {
	if s.remote.Enabled() {
		var rows []models.Note
		err := s.remote.Select(ctx, remoteNotesTable, map[string]string{"id": id, "user_id": models.GuestUserID}, &rows)
		if err == nil && len(rows) > 0 {
			return rows[0], nil
		}
		if err != nil {
			s.logger.Debug("remote get failed, using local", slog.String("id", id), slog.String("error", err.Error()))
		}
	}
	n, ok := s.notes.Find(ctx, id)
	if !ok {
		return models.Note{}, fmt.Errorf("note %s: %w", id, apperr.ErrNotFound)
	}
	return n, nil
}

// CreateNote inserts a blank note at the front of the collection. An empty
// folderID falls back to the selected folder, if any.
func (s *Service) CreateNote(ctx context.Context, folderID string) models.Note {
	if folderID == "" {
		folderID = s.SelectedFolder()
	}
	return s.insertNote(ctx, UntitledNote, "", []string{}, folderID)
}

// CreateNoteFromTemplate creates a note seeded from template templateID.
func (s *Service) CreateNoteFromTemplate(ctx context.Context, templateID, folderID string) (models.Note, error) {
	tpl, err := s.Template(ctx, templateID)
	if err != nil {
		return models.Note{}, err
	}
	if folderID == "" {
		folderID = s.SelectedFolder()
	}
	return s.insertNote(ctx, tpl.Name, tpl.Content, []string{tpl.Category}, folderID), nil
}

// ImportMarkdown creates a note from a Markdown document.
func (s *Service) ImportMarkdown(ctx context.Context, folderID string, data []byte) models.Note {
	res := markdown.Parse(data)
	title := strings.TrimSpace(res.Title)
	if title == "" {
		title = UntitledNote
	}
	return s.insertNote(ctx, title, markdown.BodyHTML(res.Body, title), res.Tags, folderID)
}

func (s *Service) insertNote(ctx context.Context, title, content string, tags []string, folderID string) models.Note {
	now := s.timestamp()
	n := models.Note{
		ID:         s.ids.New(idgen.PrefixNote),
		Title:      title,
		Content:    content,
		FolderID:   folderID,
		Tags:       nonNilSlice(tags),
		CreatedAt:  now,
		UpdatedAt:  now,
		UserID:     models.GuestUserID,
		SharedWith: []string{},
	}
	s.notes.InsertFront(ctx, n)
	s.emit(KindCreated, EntityNote, n.ID)
	return n
}

// SaveNote stores a new title and content for note id.
func (s *Service) SaveNote(ctx context.Context, id, title, content string) (models.Note, error) {
	now := s.timestamp()
	s.pushRemote(ctx, id, map[string]any{"title": title, "content": content, "updated_at": now})
	return s.updateNote(ctx, id, func(n models.Note) models.Note {
		n.Title = title
		n.Content = content
		n.UpdatedAt = now
		return n
	})
}

// ToggleFavorite flips the favorite flag of note id.
func (s *Service) ToggleFavorite(ctx context.Context, id string) (models.Note, error) {
	current, ok := s.notes.Find(ctx, id)
	if ok {
		s.pushRemote(ctx, id, map[string]any{"is_favorite": !current.IsFavorite})
	}
	return s.updateNote(ctx, id, func(n models.Note) models.Note {
		n.IsFavorite = !n.IsFavorite
		return n
	})
}

// MoveNote reassigns note id to folderID ("" detaches it).
func (s *Service) MoveNote(ctx context.Context, id, folderID string) (models.Note, error) {
	if folderID != "" {
		if _, ok := s.folders.Find(ctx, folderID); !ok {
			return models.Note{}, fmt.Errorf("folder %s: %w", folderID, apperr.ErrNotFound)
		}
	}
	now := s.timestamp()
	return s.updateNote(ctx, id, func(n models.Note) models.Note {
		n.FolderID = folderID
		n.UpdatedAt = now
		return n
	})
}

// ExportNote renders note id as a Markdown download.
func (s *Service) ExportNote(ctx context.Context, id string) (string, []byte, error) {
	n, err := s.GetNote(ctx, id)
	if err != nil {
		return "", nil, err
	}
	data, err := markdown.Render(n)
	if err != nil {
		return "", nil, err
	}
	return markdown.Filename(n.Title), data, nil
}

func (s *Service) updateNote(ctx context.Context, id string, patch func(models.Note) models.Note) (models.Note, error) {
	items, found, _ := s.notes.UpdateByID(ctx, id, patch)
	if !found {
		return models.Note{}, fmt.Errorf("note %s: %w", id, apperr.ErrNotFound)
	}
	s.emit(KindUpdated, EntityNote, id)
	for _, n := range items {
		if n.ID == id {
			return n, nil
		}
	}
	return models.Note{}, fmt.Errorf("note %s: %w", id, apperr.ErrNotFound)
}

// pushRemote mirrors a note patch to the remote backend. Failures are
// expected offline and only logged; the local write always follows.
func (s *Service) pushRemote(ctx context.Context, id string, patch map[string]any) {
	if !s.remote.Enabled() {
		return
	}
	if err := s.remote.Update(ctx, remoteNotesTable, map[string]string{"id": id}, patch); err != nil {
		s.logger.Debug("remote update failed, local only", slog.String("id", id), slog.String("error", err.Error()))
	}
}
