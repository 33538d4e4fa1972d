// Package testutil provides shared test helpers for setting up stores and
// notebook services.
package testutil

import (
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/starford/quire/internal/blob"
	"github.com/starford/quire/internal/idgen"
	"github.com/starford/quire/internal/kv"
	"github.com/starford/quire/internal/notebook"
)

// Logger returns a logger that discards everything.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestSQLite creates a temporary SQLite key-value store that is automatically cleaned up.
func TestSQLite(t *testing.T) *kv.SQLite {
	t.Helper()
	dbFile, err := os.CreateTemp("", "quire-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := kv.OpenSQLite(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestFileStore creates a temporary directory backed key-value store.
func TestFileStore(t *testing.T) (string, *kv.File) {
	t.Helper()
	dir := t.TempDir()
	store, err := kv.NewFile(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, store
}

// TestNotebook builds a notebook service over store with sequential ids and
// an in-memory PDF registry.
func TestNotebook(t *testing.T, store kv.Store, opts ...notebook.Option) (*notebook.Service, *blob.Registry) {
	t.Helper()
	blobs := blob.NewRegistry("/api/pdfs/")
	base := []notebook.Option{
		notebook.WithIDs(&idgen.Sequence{}),
		notebook.WithLocator(blobs),
		notebook.WithLogger(Logger()),
	}
	return notebook.New(store, append(base, opts...)...), blobs
}
