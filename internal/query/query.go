// Package query derives filtered views from loaded collections. Every
// function is pure: inputs are never mutated and a fresh slice is returned.
package query

import (
	"sort"
	"strings"

	"github.com/starford/quire/internal/models"
)

// View selects the sidebar section a note list is drawn for.
type View string

const (
	ViewDocuments View = "documents"
	ViewFavorites View = "favorites"
	ViewShared    View = "shared"
)

// ParseView maps a request value to a View; unknown values fall back to documents.
func ParseView(s string) View {
	switch View(s) {
	case ViewFavorites, ViewShared:
		return View(s)
	default:
		return ViewDocuments
	}
}

// Filter combines the independent note predicates.
type Filter struct {
	View     View
	Term     string
	FolderID string
}

// Apply runs the view filter, then text search, then the folder filter.
func Apply(notes []models.Note, f Filter) []models.Note {
	out := ByView(notes, f.View)
	out = TextSearch(out, f.Term)
	return ByFolder(out, f.FolderID)
}

// ByView keeps favorites or shared notes; documents keeps everything.
func ByView(notes []models.Note, v View) []models.Note {
	switch v {
	case ViewFavorites:
		return ByFavorite(notes)
	case ViewShared:
		return ByShared(notes)
	default:
		return where(notes, func(models.Note) bool { return true })
	}
}

// ByFolder keeps notes in folderID. An empty folderID disables the filter;
// it does not select notes without a folder.
func ByFolder(notes []models.Note, folderID string) []models.Note {
	if folderID == "" {
		return where(notes, func(models.Note) bool { return true })
	}
	return where(notes, func(n models.Note) bool { return n.FolderID == folderID })
}

// ByFavorite keeps favorite notes.
func ByFavorite(notes []models.Note) []models.Note {
	return where(notes, func(n models.Note) bool { return n.IsFavorite })
}

// ByShared keeps notes with at least one share target.
func ByShared(notes []models.Note) []models.Note {
	return where(notes, func(n models.Note) bool { return len(n.SharedWith) > 0 })
}

// TextSearch keeps notes whose title, content or any tag contains term,
// ignoring case. An empty term matches every note.
func TextSearch(notes []models.Note, term string) []models.Note {
	needle := strings.ToLower(term)
	return where(notes, func(n models.Note) bool {
		if contains(n.Title, needle) || contains(n.Content, needle) {
			return true
		}
		for _, tag := range n.Tags {
			if contains(tag, needle) {
				return true
			}
		}
		return false
	})
}

// SearchFolderNotes matches title or content only, as the folder page does.
func SearchFolderNotes(notes []models.Note, term string) []models.Note {
	needle := strings.ToLower(term)
	return where(notes, func(n models.Note) bool {
		return contains(n.Title, needle) || contains(n.Content, needle)
	})
}

// SortByUpdated returns a copy ordered newest first; ties keep input order.
func SortByUpdated(notes []models.Note) []models.Note {
	out := append([]models.Note{}, notes...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out
}

// PDFsByFolder keeps PDFs owned by folderID.
func PDFsByFolder(pdfs []models.PDF, folderID string) []models.PDF {
	out := make([]models.PDF, 0, len(pdfs))
	for _, p := range pdfs {
		if p.FolderID == folderID {
			out = append(out, p)
		}
	}
	return out
}

// SearchPDFs keeps PDFs whose name contains term, ignoring case.
func SearchPDFs(pdfs []models.PDF, term string) []models.PDF {
	needle := strings.ToLower(term)
	out := make([]models.PDF, 0, len(pdfs))
	for _, p := range pdfs {
		if contains(p.Name, needle) {
			out = append(out, p)
		}
	}
	return out
}

func where(notes []models.Note, keep func(models.Note) bool) []models.Note {
	out := make([]models.Note, 0, len(notes))
	for _, n := range notes {
		if keep(n) {
			out = append(out, n)
		}
	}
	return out
}

// contains expects needle already lower-cased.
func contains(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), needle)
}
