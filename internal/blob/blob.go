// Package blob keeps uploaded files in memory for the life of the process and
// hands out URLs for them. Nothing here is persisted; URLs stop resolving
// after a restart.
package blob

import (
	"sync"
)

// Blob is one stored file.
type Blob struct {
	Name string
	Data []byte
}

// Registry maps ids to blobs and builds their URLs.
type Registry struct {
	prefix string

	mu    sync.RWMutex
	blobs map[string]Blob
}

// NewRegistry returns a registry whose URLs are prefix + id.
func NewRegistry(prefix string) *Registry {
	return &Registry{prefix: prefix, blobs: make(map[string]Blob)}
}

// Put stores data under id and returns its URL.
func (r *Registry) Put(id, name string, data []byte) string {
	r.mu.Lock()
	r.blobs[id] = Blob{Name: name, Data: data}
	r.mu.Unlock()
	return r.prefix + id
}

// Get returns the blob stored under id.
func (r *Registry) Get(id string) (Blob, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.blobs[id]
	return b, ok
}

// Len reports how many blobs are held.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.blobs)
}
