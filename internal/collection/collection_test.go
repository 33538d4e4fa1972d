package collection

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"strings"
	"testing"

	"github.com/starford/quire/internal/kv"
	"github.com/starford/quire/internal/models"
)

// flakyKV records writes and can fail the next reads or writes.
type flakyKV struct {
	*kv.Memory
	sets     int
	failGets int
	failSets int
}

var errLocked = errors.New("database is locked")

func (f *flakyKV) Get(ctx context.Context, key string) (string, bool, error) {
	if f.failGets > 0 {
		f.failGets--
		return "", false, errLocked
	}
	return f.Memory.Get(ctx, key)
}

func (f *flakyKV) Set(ctx context.Context, key, value string) error {
	if f.failSets > 0 {
		f.failSets--
		return errLocked
	}
	f.sets++
	return f.Memory.Set(ctx, key, value)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newNotes(t *testing.T) (*Store[models.Note], *flakyKV) {
	t.Helper()
	store := &flakyKV{Memory: kv.NewMemory()}
	return New[models.Note](store, NotesKey, WithLogger[models.Note](quietLogger())), store
}

func note(id, title string) models.Note {
	return models.Note{ID: id, Title: title, Tags: []string{}, SharedWith: []string{}}
}

func ids(notes []models.Note) []string {
	out := make([]string, len(notes))
	for i, n := range notes {
		out[i] = n.ID
	}
	return out
}

func wantIDs(t *testing.T, got []models.Note, want ...string) {
	t.Helper()
	if !reflect.DeepEqual(ids(got), want) {
		t.Errorf("ids = %v, want %v", ids(got), want)
	}
}

func TestLoad_AbsentIsEmpty(t *testing.T) {
	s, _ := newNotes(t)
	got := s.Load(context.Background())
	if got == nil || len(got) != 0 {
		t.Errorf("Load = %#v, want empty non-nil slice", got)
	}
}

func TestLoad_ParseFailureIsEmpty(t *testing.T) {
	s, store := newNotes(t)
	if err := store.Memory.Set(context.Background(), NotesKey, "{not json"); err != nil {
		t.Fatal(err)
	}
	if got := s.Load(context.Background()); len(got) != 0 {
		t.Errorf("Load = %v, want empty", got)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, _ := newNotes(t)
	in := []models.Note{note("a", "A"), note("b", "B")}
	if err := s.Save(ctx, in); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if got := s.Load(ctx); !reflect.DeepEqual(got, in) {
		t.Errorf("Load = %v, want %v", got, in)
	}
}

func TestInsertFront(t *testing.T) {
	ctx := context.Background()
	s, _ := newNotes(t)
	s.InsertFront(ctx, note("a", "A"))
	s.InsertFront(ctx, note("b", "B"))
	got, err := s.InsertFront(ctx, note("c", "C"), note("d", "D"))
	if err != nil {
		t.Fatalf("InsertFront: %v", err)
	}
	wantIDs(t, got, "c", "d", "b", "a")
	wantIDs(t, s.Load(ctx), "c", "d", "b", "a")
}

func TestAppend(t *testing.T) {
	ctx := context.Background()
	s, _ := newNotes(t)
	s.Append(ctx, note("a", "A"))
	s.Append(ctx, note("b", "B"))
	wantIDs(t, s.Load(ctx), "a", "b")
}

func TestUpdateByID(t *testing.T) {
	ctx := context.Background()
	s, _ := newNotes(t)
	s.Save(ctx, []models.Note{note("a", "A"), note("b", "B")})

	got, found, err := s.UpdateByID(ctx, "b", func(n models.Note) models.Note {
		n.Title = "Renamed"
		return n
	})
	if err != nil || !found {
		t.Fatalf("UpdateByID: found=%v err=%v", found, err)
	}
	if got[1].Title != "Renamed" {
		t.Errorf("returned title = %q", got[1].Title)
	}
	stored := s.Load(ctx)
	if stored[0].Title != "A" || stored[1].Title != "Renamed" {
		t.Errorf("stored titles = %q, %q", stored[0].Title, stored[1].Title)
	}
}

func TestUpdateByID_AbsentIsNoop(t *testing.T) {
	ctx := context.Background()
	s, store := newNotes(t)
	original := []models.Note{note("a", "A")}
	s.Save(ctx, original)
	writes := store.sets

	got, found, err := s.UpdateByID(ctx, "missing", func(n models.Note) models.Note {
		t.Fatal("patch must not be called")
		return n
	})
	if err != nil || found {
		t.Errorf("found=%v err=%v, want false, nil", found, err)
	}
	if !reflect.DeepEqual(got, original) {
		t.Errorf("got %v, want %v", got, original)
	}
	if store.sets != writes {
		t.Errorf("writes = %d, want %d", store.sets, writes)
	}
}

func TestRemoveByID_Idempotent(t *testing.T) {
	ctx := context.Background()
	s, store := newNotes(t)
	s.Save(ctx, []models.Note{note("a", "A"), note("b", "B")})

	got, _ := s.RemoveByID(ctx, "a")
	wantIDs(t, got, "b")
	writes := store.sets
	got, _ = s.RemoveByID(ctx, "a")
	wantIDs(t, got, "b")
	if store.sets != writes {
		t.Errorf("second remove wrote: %d writes, want %d", store.sets, writes)
	}
	wantIDs(t, s.Load(ctx), "b")
}

func TestFind(t *testing.T) {
	ctx := context.Background()
	s, _ := newNotes(t)
	s.Save(ctx, []models.Note{note("a", "A")})

	n, ok := s.Find(ctx, "a")
	if !ok || n.Title != "A" {
		t.Errorf("Find(a) = %v, %v", n, ok)
	}
	if _, ok := s.Find(ctx, "zzz"); ok {
		t.Error("Find(zzz) should miss")
	}
}

func TestMixedSequence(t *testing.T) {
	ctx := context.Background()
	s, _ := newNotes(t)
	s.InsertFront(ctx, note("1", "one"))
	s.InsertFront(ctx, note("2", "two"))
	s.Append(ctx, note("3", "three"))
	s.UpdateByID(ctx, "1", func(n models.Note) models.Note { n.IsFavorite = true; return n })
	s.RemoveByID(ctx, "2")

	got := s.Load(ctx)
	wantIDs(t, got, "1", "3")
	if len(got) == 2 && !got[0].IsFavorite {
		t.Error("note 1 should be favorite")
	}
}

func TestStorageUnavailable_Degrades(t *testing.T) {
	ctx := context.Background()
	s := New[models.Note](kv.Disabled{}, NotesKey, WithLogger[models.Note](quietLogger()))

	if got := s.Load(ctx); len(got) != 0 {
		t.Errorf("Load = %v, want empty", got)
	}
	if err := s.Save(ctx, []models.Note{note("a", "A")}); !errors.Is(err, kv.ErrUnavailable) {
		t.Errorf("Save err = %v, want ErrUnavailable", err)
	}
	if got, err := s.InsertFront(ctx, note("b", "B")); err == nil || len(got) != 0 {
		t.Errorf("InsertFront = %v, %v; want empty and error", got, err)
	}
	if _, found, err := s.UpdateByID(ctx, "b", func(n models.Note) models.Note { return n }); found || err == nil {
		t.Errorf("UpdateByID found=%v err=%v", found, err)
	}
	if _, err := s.RemoveByID(ctx, "b"); err == nil {
		t.Error("RemoveByID should report the storage failure")
	}
}

func TestFailedRead_MutationsKeepStoredData(t *testing.T) {
	ctx := context.Background()
	seed := []models.Note{note("a", "A"), note("b", "B"), note("c", "C")}

	mutations := map[string]func(s *Store[models.Note]) error{
		"InsertFront": func(s *Store[models.Note]) error {
			_, err := s.InsertFront(ctx, note("new", "New"))
			return err
		},
		"Append": func(s *Store[models.Note]) error {
			_, err := s.Append(ctx, note("new", "New"))
			return err
		},
		"UpdateByID": func(s *Store[models.Note]) error {
			_, _, err := s.UpdateByID(ctx, "a", func(n models.Note) models.Note { n.Title = "X"; return n })
			return err
		},
		"RemoveByID": func(s *Store[models.Note]) error {
			_, err := s.RemoveByID(ctx, "a")
			return err
		},
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			s, store := newNotes(t)
			s.Save(ctx, seed)
			writes := store.sets

			store.failGets = 1
			err := mutate(s)
			if !errors.Is(err, errLocked) {
				t.Errorf("err = %v, want %v", err, errLocked)
			}
			if store.sets != writes {
				t.Errorf("wrote after failed read: %d writes, want %d", store.sets, writes)
			}
			if got := s.Load(ctx); !reflect.DeepEqual(got, seed) {
				t.Errorf("stored = %v, want %v", ids(got), ids(seed))
			}

			// next call succeeds against the intact collection
			if err := mutate(s); err != nil {
				t.Fatalf("retry: %v", err)
			}
		})
	}
}

func TestFailedSave_ReturnsError(t *testing.T) {
	ctx := context.Background()
	s, store := newNotes(t)
	s.Save(ctx, []models.Note{note("a", "A")})

	store.failSets = 1
	if _, err := s.Append(ctx, note("b", "B")); !errors.Is(err, errLocked) {
		t.Errorf("err = %v, want %v", err, errLocked)
	}
	wantIDs(t, s.Load(ctx), "a")
}

func TestSeed(t *testing.T) {
	ctx := context.Background()
	store := &flakyKV{Memory: kv.NewMemory()}
	seed := func() []models.Template {
		return []models.Template{{ID: "1", Name: "Meeting Notes"}}
	}
	s := New(store, TemplatesKey, WithSeed(seed), WithLogger[models.Template](quietLogger()))

	if got := s.Load(ctx); len(got) != 1 {
		t.Fatalf("Load = %v, want seed", got)
	}
	raw, ok, _ := store.Memory.Get(ctx, TemplatesKey)
	if !ok || !strings.Contains(raw, "Meeting Notes") {
		t.Errorf("seed not persisted on first read: %q", raw)
	}

	writes := store.sets
	s.Load(ctx)
	if store.sets != writes {
		t.Error("second load must not rewrite")
	}
}

func TestSeed_ParseFailureNotPersisted(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	if err := store.Set(ctx, TemplatesKey, "garbage"); err != nil {
		t.Fatal(err)
	}
	s := New(store, TemplatesKey,
		WithSeed(func() []models.Template { return []models.Template{{ID: "1"}} }),
		WithLogger[models.Template](quietLogger()))

	if got := s.Load(ctx); len(got) != 1 {
		t.Errorf("Load = %v, want seed", got)
	}
	if raw, _, _ := store.Get(ctx, TemplatesKey); raw != "garbage" {
		t.Errorf("stored = %q, want untouched", raw)
	}
}
