// Package notebook coordinates the note, folder, template and PDF
// collections, the folder trash and the optional remote backend.
package notebook

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/starford/quire/internal/collection"
	"github.com/starford/quire/internal/idgen"
	"github.com/starford/quire/internal/kv"
	"github.com/starford/quire/internal/models"
	"github.com/starford/quire/internal/remote"
	"github.com/starford/quire/internal/trash"
)

// remoteNotesTable is the remote collection holding notes.
const remoteNotesTable = "notes_v2"

// Event kinds.
const (
	KindCreated  = "created"
	KindUpdated  = "updated"
	KindTrashed  = "trashed"
	KindRestored = "restored"
	KindPurged   = "purged"
)

// Event entities.
const (
	EntityNote   = "note"
	EntityFolder = "folder"
	EntityPDF    = "pdf"
)

// Event describes one applied mutation.
type Event struct {
	Kind   string `json:"kind"`
	Entity string `json:"entity"`
	ID     string `json:"id"`
}

// EventFunc receives every Event after the mutation is stored.
type EventFunc func(Event)

// Locator stores imported file data and returns a URL valid for this process.
type Locator interface {
	Put(id, name string, data []byte) string
}

// Option is a functional option for configuring the Service.
type Option func(*Service)

// WithRemote sets the remote backend. The default is remote.Disabled.
func WithRemote(b remote.Backend) Option {
	return func(s *Service) { s.remote = b }
}

// WithIDs sets the identifier generator. The default is idgen.UUID.
func WithIDs(g idgen.Generator) Option {
	return func(s *Service) { s.ids = g }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLocator sets where imported PDF data is kept.
func WithLocator(l Locator) Option {
	return func(s *Service) { s.locator = l }
}

// WithEvents registers the mutation callback.
func WithEvents(fn EventFunc) Option {
	return func(s *Service) { s.onEvent = fn }
}

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// Service is the notebook workspace.
type Service struct {
	notes     *collection.Store[models.Note]
	folders   *collection.Store[models.Folder]
	templates *collection.Store[models.Template]
	pdfs      *collection.Store[models.PDF]
	trash     *trash.Lifecycle

	remote  remote.Backend
	ids     idgen.Generator
	locator Locator
	now     func() time.Time
	logger  *slog.Logger
	onEvent EventFunc

	mu       sync.RWMutex
	selected string
}

// New creates a Service whose collections live in store.
func New(store kv.Store, opts ...Option) *Service {
	s := &Service{
		remote: remote.Disabled{},
		ids:    idgen.UUID{},
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(slog.String("component", "notebook"))

	s.notes = collection.New(store, collection.NotesKey, collection.WithLogger[models.Note](s.logger))
	s.folders = collection.New(store, collection.FoldersKey, collection.WithLogger[models.Folder](s.logger))
	trashed := collection.New(store, collection.FolderTrashKey, collection.WithLogger[models.Folder](s.logger))
	s.templates = collection.New(store, collection.TemplatesKey,
		collection.WithSeed(DefaultTemplates),
		collection.WithLogger[models.Template](s.logger))
	s.pdfs = collection.New(store, collection.PDFsKey, collection.WithLogger[models.PDF](s.logger))
	s.trash = trash.New(s.folders, trashed, s.now)
	return s
}

// SelectFolder marks the active folder id as the current folder; "" clears
// the selection.
func (s *Service) SelectFolder(ctx context.Context, id string) error {
	if id != "" {
		if _, err := s.GetFolder(ctx, id); err != nil {
			return err
		}
	}
	s.mu.Lock()
	s.selected = id
	s.mu.Unlock()
	return nil
}

// SelectedFolder returns the current folder selection.
func (s *Service) SelectedFolder() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selected
}

func (s *Service) clearSelection(id string) {
	s.mu.Lock()
	if s.selected == id {
		s.selected = ""
	}
	s.mu.Unlock()
}

func (s *Service) emit(kind, entity, id string) {
	if s.onEvent != nil {
		s.onEvent(Event{Kind: kind, Entity: entity, ID: id})
	}
}

func (s *Service) timestamp() time.Time {
	return s.now().UTC()
}

func nonNilSlice[T any](v []T) []T {
	if v == nil {
		return []T{}
	}
	return v
}
