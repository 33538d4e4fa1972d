// Package trash moves folders between the active and trash collections.
//
// A folder is Active (in the active collection, no trash fields) or Trashed
// (in the trash collection with IsTrashed and DeletedAt set). Purge drops
// trashed folders past a retention age; it only runs when called.
package trash

import (
	"context"
	"fmt"
	"time"

	"github.com/starford/quire/internal/apperr"
	"github.com/starford/quire/internal/collection"
	"github.com/starford/quire/internal/models"
)

// Lifecycle owns the active/trash folder pair.
type Lifecycle struct {
	active *collection.Store[models.Folder]
	trash  *collection.Store[models.Folder]
	now    func() time.Time
}

// New creates a Lifecycle. now defaults to time.Now.
func New(active, trash *collection.Store[models.Folder], now func() time.Time) *Lifecycle {
	if now == nil {
		now = time.Now
	}
	return &Lifecycle{active: active, trash: trash, now: now}
}

// MoveToTrash stamps the active folder id as trashed and moves it to the
// trash collection. A storage failure leaves both collections as they were.
func (l *Lifecycle) MoveToTrash(ctx context.Context, id string) (models.Folder, error) {
	folder, ok := l.active.Find(ctx, id)
	if !ok {
		return models.Folder{}, fmt.Errorf("trash: folder %s: %w", id, apperr.ErrNotFound)
	}
	deletedAt := l.now().UTC()
	folder.IsTrashed = true
	folder.DeletedAt = &deletedAt

	// a stale trash copy would break disjointness once restored
	if _, err := l.trash.RemoveByID(ctx, id); err != nil {
		return models.Folder{}, fmt.Errorf("trash: move %s: %w", id, err)
	}
	if _, err := l.trash.Append(ctx, folder); err != nil {
		return models.Folder{}, fmt.Errorf("trash: move %s: %w", id, err)
	}
	if _, err := l.active.RemoveByID(ctx, id); err != nil {
		_, _ = l.trash.RemoveByID(ctx, id)
		return models.Folder{}, fmt.Errorf("trash: move %s: %w", id, err)
	}
	return folder, nil
}

// Restore moves the trashed folder id back to the active collection with its
// trash fields cleared. A storage failure leaves the folder in the trash.
func (l *Lifecycle) Restore(ctx context.Context, id string) (models.Folder, error) {
	trashed, ok := l.trash.Find(ctx, id)
	if !ok {
		return models.Folder{}, fmt.Errorf("trash: folder %s: %w", id, apperr.ErrNotFound)
	}
	folder := trashed
	folder.IsTrashed = false
	folder.DeletedAt = nil

	if _, err := l.active.RemoveByID(ctx, id); err != nil {
		return models.Folder{}, fmt.Errorf("trash: restore %s: %w", id, err)
	}
	if _, err := l.active.Append(ctx, folder); err != nil {
		return models.Folder{}, fmt.Errorf("trash: restore %s: %w", id, err)
	}
	if _, err := l.trash.RemoveByID(ctx, id); err != nil {
		_, _ = l.active.RemoveByID(ctx, id)
		return models.Folder{}, fmt.Errorf("trash: restore %s: %w", id, err)
	}
	return folder, nil
}

// List returns the trashed folders.
func (l *Lifecycle) List(ctx context.Context) []models.Folder {
	return l.trash.Load(ctx)
}

// Purge permanently removes trashed folders deleted more than olderThan ago
// and returns them. Entries without a deletion time are kept.
func (l *Lifecycle) Purge(ctx context.Context, olderThan time.Duration) []models.Folder {
	cutoff := l.now().Add(-olderThan)
	var purged []models.Folder
	for _, f := range l.trash.Load(ctx) {
		if f.DeletedAt != nil && f.DeletedAt.Before(cutoff) {
			purged = append(purged, f)
		}
	}
	removed := purged[:0]
	for _, f := range purged {
		if _, err := l.trash.RemoveByID(ctx, f.ID); err != nil {
			break
		}
		removed = append(removed, f)
	}
	return removed
}
