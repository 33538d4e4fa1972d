package watch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"

	"github.com/starford/quire/internal/kv"
)

// Tracker is a kv.Store decorator that remembers a digest of the last value
// this process wrote or saw for each key, so the watcher can tell external
// edits from its own writes.
type Tracker struct {
	kv.Store

	mu   sync.Mutex
	sums map[string]string
}

// NewTracker wraps store.
func NewTracker(store kv.Store) *Tracker {
	return &Tracker{Store: store, sums: make(map[string]string)}
}

// Set records value before writing it so the resulting file event is
// recognised as our own.
func (t *Tracker) Set(ctx context.Context, key, value string) error {
	t.remember(key, digest(value))
	return t.Store.Set(ctx, key, value)
}

// Remove records key as absent before removing it.
func (t *Tracker) Remove(ctx context.Context, key string) error {
	t.remember(key, "")
	return t.Store.Remove(ctx, key)
}

// Prime records the current value of every stored key.
func (t *Tracker) Prime(ctx context.Context) error {
	keys, err := t.Store.Keys(ctx)
	if err != nil {
		return err
	}
	for _, k := range keys {
		v, ok, err := t.Store.Get(ctx, k)
		if err != nil || !ok {
			continue
		}
		t.remember(k, digest(v))
	}
	return nil
}

// observe compares the current value of key with the last recorded one,
// records it and reports whether it changed.
func (t *Tracker) observe(ctx context.Context, key string) (bool, error) {
	v, ok, err := t.Store.Get(ctx, key)
	if err != nil {
		return false, err
	}
	sum := ""
	if ok {
		sum = digest(v)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if prev, seen := t.sums[key]; seen && prev == sum {
		return false, nil
	}
	t.sums[key] = sum
	return true, nil
}

func (t *Tracker) remember(key, sum string) {
	t.mu.Lock()
	t.sums[key] = sum
	t.mu.Unlock()
}

// digest returns the hex-encoded SHA-256 digest of value.
func digest(value string) string {
	h := sha256.Sum256([]byte(value))
	return hex.EncodeToString(h[:])
}
