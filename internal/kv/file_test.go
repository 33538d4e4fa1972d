package kv

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func tempFileStore(t *testing.T) *File {
	t.Helper()
	f, err := NewFile(t.TempDir())
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}
	return f
}

func TestFile_WritesJSONFile(t *testing.T) {
	s := tempFileStore(t)
	if err := s.Set(context.Background(), "notes_local", "[]"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(s.Root(), "notes_local.json"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "[]" {
		t.Errorf("content = %q", data)
	}
}

func TestFile_AtomicWriteNoLeftovers(t *testing.T) {
	s := tempFileStore(t)
	ctx := context.Background()
	_ = s.Set(ctx, "folders_local", "original")
	if err := s.Set(ctx, "folders_local", "updated"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, _, _ := s.Get(ctx, "folders_local")
	if got != "updated" {
		t.Errorf("expected updated content, got %q", got)
	}
	matches, _ := filepath.Glob(filepath.Join(s.Root(), ".quire-tmp-*"))
	if len(matches) != 0 {
		t.Errorf("leftover temp files: %v", matches)
	}
}

func TestFile_KeysIgnoresForeignFiles(t *testing.T) {
	s := tempFileStore(t)
	_ = s.Set(context.Background(), "pdfs_local", "[]")
	_ = os.WriteFile(filepath.Join(s.Root(), "readme.txt"), []byte("x"), 0o644)
	_ = os.Mkdir(filepath.Join(s.Root(), "sub.json"), 0o755)

	keys, err := s.Keys(context.Background())
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	if len(keys) != 1 || keys[0] != "pdfs_local" {
		t.Errorf("keys = %v, want [pdfs_local]", keys)
	}
}

func TestFile_KeyForPath(t *testing.T) {
	s := tempFileStore(t)
	if k, ok := s.KeyForPath(filepath.Join(s.Root(), "notes_local.json")); !ok || k != "notes_local" {
		t.Errorf("KeyForPath = %q, %v", k, ok)
	}
	if _, ok := s.KeyForPath(filepath.Join(s.Root(), "nested", "notes_local.json")); ok {
		t.Error("nested path should not map to a key")
	}
	if _, ok := s.KeyForPath(filepath.Join(s.Root(), ".quire-tmp-123")); ok {
		t.Error("temp file should not map to a key")
	}
}

func TestNewFile_CreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	if _, err := NewFile(dir); err != nil {
		t.Fatalf("NewFile: %v", err)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Errorf("store dir not created: %v", err)
	}
}

func TestNewFile_FileNotDir(t *testing.T) {
	f, _ := os.CreateTemp("", "quire-test-*")
	_ = f.Close()
	defer os.Remove(f.Name())
	if _, err := NewFile(f.Name()); err == nil {
		t.Error("expected error when root is a file")
	}
}
