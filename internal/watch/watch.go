// Package watch reports collection changes made to a file-backed store by
// other processes.
package watch

import (
	"context"
	"log/slog"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/quire/internal/kv"
)

// Callback is called with the key of a collection changed outside this process.
type Callback func(key string)

const settle = 100 * time.Millisecond

// Watch starts an fsnotify watcher on the store directory and processes file
// change events until ctx is cancelled. Events are debounced per key and
// reported through cb only when the stored value differs from what tracker
// last wrote or saw.
func Watch(ctx context.Context, store *kv.File, tracker *Tracker, logger *slog.Logger, cb Callback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(store.Root()); err != nil {
		return err
	}
	if err := tracker.Prime(ctx); err != nil {
		logger.Warn("watcher: prime failed", slog.String("error", err.Error()))
	}

	logger.Info("watcher: started", slog.String("root", store.Root()))

	// pending holds keys touched since the last flush; the timer debounces
	// the temp-file + rename bursts of a single write.
	pending := make(map[string]struct{})
	var flushTimer *time.Timer
	var flushCh <-chan time.Time

	schedule := func() {
		if flushTimer == nil {
			flushTimer = time.NewTimer(settle)
			flushCh = flushTimer.C
		} else {
			flushTimer.Reset(settle)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if flushTimer != nil {
				flushTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-flushCh:
			for key := range pending {
				delete(pending, key)
				changed, obsErr := tracker.observe(ctx, key)
				if obsErr != nil {
					logger.Warn("watcher: read failed", slog.String("key", key), slog.String("error", obsErr.Error()))
					continue
				}
				if !changed {
					continue
				}
				logger.Debug("watcher: external change", slog.String("key", key))
				if cb != nil {
					cb(key)
				}
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			key, ok := store.KeyForPath(ev.Name)
			if !ok {
				continue
			}
			pending[key] = struct{}{}
			schedule()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}
