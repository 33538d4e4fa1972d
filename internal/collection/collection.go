// Package collection provides whole-collection CRUD over a single kv key.
//
// Every mutation reads the full collection, applies the change and writes the
// full collection back. Two Store values on the same key (or two processes on
// the same backing store) race: the last writer wins. Mutations through one
// Store value are serialized by its mutex.
package collection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/starford/quire/internal/codec"
	"github.com/starford/quire/internal/kv"
	"github.com/starford/quire/internal/models"
)

// Persisted collection keys.
const (
	NotesKey       = "notes_local"
	FoldersKey     = "folders_local"
	FolderTrashKey = "folders_trash"
	TemplatesKey   = "templates_local"
	PDFsKey        = "pdfs_local"
)

// Option configures a Store.
type Option[T models.Entity] func(*Store[T])

// WithSeed makes Load return seed() for an absent or unreadable key. An
// absent key is also written back so later loads see the seeded data.
func WithSeed[T models.Entity](seed func() []T) Option[T] {
	return func(s *Store[T]) { s.seed = seed }
}

// WithLogger sets the logger used for swallowed storage and parse failures.
func WithLogger[T models.Entity](logger *slog.Logger) Option[T] {
	return func(s *Store[T]) { s.logger = logger }
}

// Store is CRUD over one named collection. Reads degrade to an empty
// collection on storage or parse errors. Mutations return storage errors so
// callers may stop, and never write after a failed read.
type Store[T models.Entity] struct {
	kv     kv.Store
	key    string
	seed   func() []T
	logger *slog.Logger
	mu     sync.Mutex
}

// New creates a Store for key on top of store.
func New[T models.Entity](store kv.Store, key string, opts ...Option[T]) *Store[T] {
	s := &Store[T]{kv: store, key: key, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(slog.String("collection", key))
	return s
}

// Key returns the collection key.
func (s *Store[T]) Key() string { return s.key }

// Load returns the stored collection, or an empty one if it is absent,
// unparsable or the store is unavailable.
func (s *Store[T]) Load(ctx context.Context) []T {
	items, err := s.load(ctx)
	if err != nil {
		return s.fallback(ctx, false)
	}
	return items
}

// load separates storage failures from parse failures. A storage failure is
// returned so mutations can skip their write; an unparsable value counts as
// empty.
func (s *Store[T]) load(ctx context.Context) ([]T, error) {
	raw, ok, err := s.kv.Get(ctx, s.key)
	if err != nil {
		s.logFailure("load failed", err)
		return nil, fmt.Errorf("collection %s: load: %w", s.key, err)
	}
	if !ok {
		return s.fallback(ctx, true), nil
	}
	items, err := codec.Decode[T]([]byte(raw))
	if err != nil {
		s.logger.Warn("collection: parse failed, treating as empty", slog.String("error", err.Error()))
		return s.fallback(ctx, false), nil
	}
	return items, nil
}

// Save overwrites the whole collection. Failures are logged and returned.
func (s *Store[T]) Save(ctx context.Context, items []T) error {
	data, err := codec.Encode(items)
	if err != nil {
		s.logger.Error("collection: encode failed", slog.String("error", err.Error()))
		return fmt.Errorf("collection %s: encode: %w", s.key, err)
	}
	if err := s.kv.Set(ctx, s.key, string(data)); err != nil {
		s.logFailure("save failed", err)
		return fmt.Errorf("collection %s: save: %w", s.key, err)
	}
	return nil
}

// InsertFront prepends items, keeping their given order, and returns the
// resulting collection. When the current collection cannot be read nothing
// is written.
func (s *Store[T]) InsertFront(ctx context.Context, items ...T) ([]T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.load(ctx)
	if err != nil {
		return []T{}, err
	}
	out := make([]T, 0, len(items)+len(current))
	out = append(out, items...)
	out = append(out, current...)
	return out, s.Save(ctx, out)
}

// Append adds item at the end and returns the resulting collection.
func (s *Store[T]) Append(ctx context.Context, item T) ([]T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.load(ctx)
	if err != nil {
		return []T{}, err
	}
	out := append(current, item)
	return out, s.Save(ctx, out)
}

// UpdateByID replaces the entry with the given id by patch(entry). When no
// entry matches nothing is written and the loaded collection is returned
// with found=false.
func (s *Store[T]) UpdateByID(ctx context.Context, id string, patch func(T) T) (items []T, found bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err = s.load(ctx)
	if err != nil {
		return []T{}, false, err
	}
	for i, item := range items {
		if item.EntityID() == id {
			items[i] = patch(item)
			found = true
		}
	}
	if found {
		err = s.Save(ctx, items)
	}
	return items, found, err
}

// RemoveByID drops every entry with the given id and returns the resulting
// collection. Removing an absent id leaves the stored collection untouched.
func (s *Store[T]) RemoveByID(ctx context.Context, id string) ([]T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.load(ctx)
	if err != nil {
		return []T{}, err
	}
	out := make([]T, 0, len(current))
	for _, item := range current {
		if item.EntityID() != id {
			out = append(out, item)
		}
	}
	if len(out) != len(current) {
		return out, s.Save(ctx, out)
	}
	return out, nil
}

// Find returns the entry with the given id.
func (s *Store[T]) Find(ctx context.Context, id string) (T, bool) {
	for _, item := range s.Load(ctx) {
		if item.EntityID() == id {
			return item, true
		}
	}
	var zero T
	return zero, false
}

func (s *Store[T]) fallback(ctx context.Context, absent bool) []T {
	if s.seed == nil {
		return []T{}
	}
	items := s.seed()
	if absent {
		s.Save(ctx, items)
	}
	return items
}

func (s *Store[T]) logFailure(msg string, err error) {
	if errors.Is(err, kv.ErrUnavailable) {
		s.logger.Warn("collection: storage unavailable", slog.String("op", msg))
		return
	}
	s.logger.Warn("collection: "+msg, slog.String("error", err.Error()))
}
