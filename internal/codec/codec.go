// Package codec converts entity collections to and from their persisted JSON text.
package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformed wraps any failure to decode a stored collection.
var ErrMalformed = errors.New("codec: malformed collection")

// Encode serializes items as a JSON array. A nil slice encodes as [].
func Encode[T any](items []T) ([]byte, error) {
	if items == nil {
		items = []T{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("codec: encode: %w", err)
	}
	return data, nil
}

// Decode parses a JSON array. Blank input and JSON null decode to an empty
// slice; anything else that is not an array of T is ErrMalformed.
func Decode[T any](data []byte) ([]T, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []T{}, nil
	}
	var out []T
	if err := json.Unmarshal(trimmed, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}
