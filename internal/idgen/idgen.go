// Package idgen produces entity identifiers.
package idgen

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// Entity prefixes.
const (
	PrefixNote   = "note"
	PrefixFolder = "folder"
	PrefixPDF    = "pdf"
)

// Generator returns a fresh identifier for the given prefix.
type Generator interface {
	New(prefix string) string
}

// UUID generates "<prefix>-<uuid v4>" identifiers. Safe for batch creation
// within the same millisecond.
type UUID struct{}

func (UUID) New(prefix string) string {
	return prefix + "-" + uuid.NewString()
}

// Sequence generates "<prefix>-<n>" with a process-wide counter. Intended for
// deterministic tests.
type Sequence struct {
	n atomic.Int64
}

func (s *Sequence) New(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, s.n.Add(1))
}
