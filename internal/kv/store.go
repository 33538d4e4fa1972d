// Package kv defines the key-value byte-string store that backs every
// collection, plus its memory, file, sqlite and disabled implementations.
package kv

import (
	"context"
	"errors"
	"fmt"
	"regexp"
)

var (
	// ErrUnavailable reports that the underlying store cannot be used at all.
	ErrUnavailable = errors.New("kv: storage unavailable")
	// ErrInvalidKey rejects keys that are empty or carry path characters.
	ErrInvalidKey = errors.New("kv: invalid key")
)

var keyRe = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// Store is a string-keyed text store. Get reports ok=false for absent keys.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)
	Close() error
}

// Driver names accepted by Open.
const (
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverSQLite   = "sqlite"
	DriverDisabled = "disabled"
)

// Open builds a Store for the named driver. path is a directory for the file
// driver and a database file for sqlite; memory and disabled ignore it.
func Open(driver, path string) (Store, error) {
	switch driver {
	case DriverMemory, "":
		return NewMemory(), nil
	case DriverFile:
		return NewFile(path)
	case DriverSQLite:
		return OpenSQLite(path)
	case DriverDisabled:
		return Disabled{}, nil
	default:
		return nil, fmt.Errorf("kv: unknown driver %q", driver)
	}
}

func validKey(key string) error {
	if key == "." || key == ".." || !keyRe.MatchString(key) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}
