package notebook

import (
	"context"
	"fmt"
	"strings"

	"github.com/starford/quire/internal/apperr"
	"github.com/starford/quire/internal/idgen"
	"github.com/starford/quire/internal/models"
	"github.com/starford/quire/internal/query"
)

// PDFUpload is one file handed to ImportPDFs.
type PDFUpload struct {
	Name string
	Data []byte
}

// ImportPDFs registers a batch of PDFs under folderID. The batch lands at
// the front of the collection in the order given. Every name is checked
// before any file is handed to the locator.
func (s *Service) ImportPDFs(ctx context.Context, folderID string, files []PDFUpload) ([]models.PDF, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("no files: %w", apperr.ErrInvalid)
	}
	if _, err := s.GetFolder(ctx, folderID); err != nil {
		return nil, err
	}
	if s.locator == nil {
		return nil, fmt.Errorf("pdf import not configured: %w", apperr.ErrInvalid)
	}

	names := make([]string, len(files))
	for i, f := range files {
		names[i] = strings.TrimSpace(f.Name)
		if names[i] == "" {
			return nil, fmt.Errorf("file %d: name required: %w", i, apperr.ErrInvalid)
		}
	}

	now := s.timestamp()
	batch := make([]models.PDF, 0, len(files))
	for i, f := range files {
		id := s.ids.New(idgen.PrefixPDF)
		batch = append(batch, models.PDF{
			ID:        id,
			Name:      names[i],
			FolderID:  folderID,
			URL:       s.locator.Put(id, names[i], f.Data),
			CreatedAt: now,
		})
	}
	s.pdfs.InsertFront(ctx, batch...)
	for _, p := range batch {
		s.emit(KindCreated, EntityPDF, p.ID)
	}
	return batch, nil
}

// ListPDFs returns the PDFs of folderID ("" for all).
func (s *Service) ListPDFs(ctx context.Context, folderID string) []models.PDF {
	all := s.pdfs.Load(ctx)
	if folderID == "" {
		return all
	}
	return query.PDFsByFolder(all, folderID)
}
