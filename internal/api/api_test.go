package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/starford/quire/internal/models"
	"github.com/starford/quire/internal/notebook"
	"github.com/starford/quire/internal/testutil"
)

// testEnv sets up a SQLite backed notebook and router for testing.
// An empty authToken means disabled mode; otherwise token mode.
func testEnv(t *testing.T, authToken string) (*notebook.Service, http.Handler) {
	t.Helper()
	return testEnvWithSSE(t, authToken != "", authToken, nil)
}

func testEnvWithSSE(t *testing.T, authEnabled bool, token string, sseHandler http.Handler) (*notebook.Service, http.Handler) {
	t.Helper()
	svc, blobs := testutil.TestNotebook(t, testutil.TestSQLite(t))
	router := NewRouter(svc, blobs, authEnabled, token, sseHandler, 30*24*time.Hour)
	return svc, router
}

func do(t *testing.T, router http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rd = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			t.Fatal(err)
		}
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, rd)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
	return v
}

func TestCreateAndGetNote(t *testing.T) {
	_, router := testEnv(t, "")

	w := do(t, router, http.MethodPost, "/notes", nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", w.Code, w.Body.String())
	}
	created := decode[models.Note](t, w)
	if created.Title != notebook.UntitledNote {
		t.Errorf("title = %q", created.Title)
	}
	if created.FolderID != "" {
		t.Errorf("folder_id = %q, want empty", created.FolderID)
	}

	w = do(t, router, http.MethodGet, "/notes/"+created.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}
	if got := decode[models.Note](t, w); got.ID != created.ID {
		t.Errorf("id = %q, want %q", got.ID, created.ID)
	}
}

func TestCreateNote_InFolder(t *testing.T) {
	_, router := testEnv(t, "")

	w := do(t, router, http.MethodPost, "/notes", CreateNoteRequest{FolderID: "folder-7"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create = %d", w.Code)
	}
	if got := decode[models.Note](t, w); got.FolderID != "folder-7" {
		t.Errorf("folder_id = %q", got.FolderID)
	}

	w = do(t, router, http.MethodPost, "/notes", "{bad")
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad body = %d, want 400", w.Code)
	}
}

func TestSaveNote(t *testing.T) {
	_, router := testEnv(t, "")
	created := decode[models.Note](t, do(t, router, http.MethodPost, "/notes", nil))

	w := do(t, router, http.MethodPut, "/notes/"+created.ID, SaveNoteRequest{Title: "Plan", Content: "<p>x</p>"})
	if w.Code != http.StatusOK {
		t.Fatalf("save = %d, body = %s", w.Code, w.Body.String())
	}
	saved := decode[models.Note](t, w)
	if saved.Title != "Plan" || saved.Content != "<p>x</p>" {
		t.Errorf("saved = %+v", saved)
	}

	w = do(t, router, http.MethodPut, "/notes/ghost", SaveNoteRequest{Title: "x"})
	if w.Code != http.StatusNotFound {
		t.Errorf("save missing = %d, want 404", w.Code)
	}
	w = do(t, router, http.MethodPut, "/notes/"+created.ID, "not json")
	if w.Code != http.StatusBadRequest {
		t.Errorf("save bad body = %d, want 400", w.Code)
	}
}

func TestGetNote_NotFound(t *testing.T) {
	_, router := testEnv(t, "")

	w := do(t, router, http.MethodGet, "/notes/nope", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing note = %d, want 404", w.Code)
	}
}

func TestListNotes_Filters(t *testing.T) {
	svc, router := testEnv(t, "")
	ctx := context.Background()
	a := svc.CreateNote(ctx, "folder-1")
	if _, err := svc.SaveNote(ctx, a.ID, "Budget", "numbers"); err != nil {
		t.Fatal(err)
	}
	b := svc.CreateNote(ctx, "")
	if _, err := svc.ToggleFavorite(ctx, b.ID); err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		target string
		want   int
	}{
		{"/notes", 2},
		{"/notes?view=favorites", 1},
		{"/notes?view=shared", 0},
		{"/notes?q=budget", 1},
		{"/notes?folder=folder-1", 1},
		{"/notes?view=favorites&q=budget", 0},
	}
	for _, tc := range cases {
		w := do(t, router, http.MethodGet, tc.target, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("%s = %d", tc.target, w.Code)
		}
		resp := decode[NoteListResponse](t, w)
		if resp.Total != tc.want || len(resp.Notes) != tc.want {
			t.Errorf("%s: total = %d, want %d", tc.target, resp.Total, tc.want)
		}
	}
}

func TestToggleFavorite(t *testing.T) {
	_, router := testEnv(t, "")
	created := decode[models.Note](t, do(t, router, http.MethodPost, "/notes", nil))

	on := decode[models.Note](t, do(t, router, http.MethodPost, "/notes/"+created.ID+"/favorite", nil))
	off := decode[models.Note](t, do(t, router, http.MethodPost, "/notes/"+created.ID+"/favorite", nil))
	if !on.IsFavorite || off.IsFavorite {
		t.Errorf("favorite sequence = %v, %v", on.IsFavorite, off.IsFavorite)
	}

	w := do(t, router, http.MethodPost, "/notes/ghost/favorite", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("toggle missing = %d, want 404", w.Code)
	}
}

func TestMoveNote(t *testing.T) {
	_, router := testEnv(t, "")
	folder := decode[models.Folder](t, do(t, router, http.MethodPost, "/folders", FolderRequest{Name: "Work"}))
	created := decode[models.Note](t, do(t, router, http.MethodPost, "/notes", nil))

	w := do(t, router, http.MethodPut, "/notes/"+created.ID+"/folder", MoveNoteRequest{FolderID: folder.ID})
	if w.Code != http.StatusOK {
		t.Fatalf("move = %d, body = %s", w.Code, w.Body.String())
	}
	if got := decode[models.Note](t, w); got.FolderID != folder.ID {
		t.Errorf("folder_id = %q", got.FolderID)
	}

	w = do(t, router, http.MethodPut, "/notes/"+created.ID+"/folder", MoveNoteRequest{FolderID: "folder-404"})
	if w.Code != http.StatusNotFound {
		t.Errorf("move to missing folder = %d, want 404", w.Code)
	}
}

func TestExportAndImportNote(t *testing.T) {
	_, router := testEnv(t, "")
	created := decode[models.Note](t, do(t, router, http.MethodPost, "/notes", nil))
	do(t, router, http.MethodPut, "/notes/"+created.ID, SaveNoteRequest{Title: "Trip", Content: "<p>Pack</p>"})

	w := do(t, router, http.MethodGet, "/notes/"+created.ID+"/export", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("export = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/markdown") {
		t.Errorf("content type = %q", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, `"Trip.md"`) {
		t.Errorf("content disposition = %q", cd)
	}
	if !strings.Contains(w.Body.String(), "# Trip") {
		t.Errorf("export body = %q", w.Body.String())
	}

	w = do(t, router, http.MethodPost, "/notes/import?folder=folder-2", "# Imported\n\nhello #idea\n")
	if w.Code != http.StatusCreated {
		t.Fatalf("import = %d, body = %s", w.Code, w.Body.String())
	}
	imported := decode[models.Note](t, w)
	if imported.Title != "Imported" || imported.FolderID != "folder-2" {
		t.Errorf("imported = %+v", imported)
	}
	if len(imported.Tags) != 1 || imported.Tags[0] != "idea" {
		t.Errorf("tags = %v", imported.Tags)
	}

	w = do(t, router, http.MethodPost, "/notes/import", "  ")
	if w.Code != http.StatusBadRequest {
		t.Errorf("empty import = %d, want 400", w.Code)
	}
}

func TestFolders(t *testing.T) {
	_, router := testEnv(t, "")

	w := do(t, router, http.MethodPost, "/folders", FolderRequest{Name: "Work", Color: "#ff0000"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create folder = %d, body = %s", w.Code, w.Body.String())
	}
	folder := decode[models.Folder](t, w)

	w = do(t, router, http.MethodPost, "/folders", FolderRequest{Name: "   "})
	if w.Code != http.StatusBadRequest {
		t.Errorf("blank name = %d, want 400", w.Code)
	}

	w = do(t, router, http.MethodPut, "/folders/"+folder.ID, FolderRequest{Name: "Jobs"})
	if w.Code != http.StatusOK {
		t.Fatalf("update folder = %d", w.Code)
	}
	if got := decode[models.Folder](t, w); got.Name != "Jobs" || got.Color != notebook.DefaultFolderColor {
		t.Errorf("updated = %+v", got)
	}

	w = do(t, router, http.MethodGet, "/folders/"+folder.ID, nil)
	if w.Code != http.StatusOK {
		t.Errorf("get folder = %d", w.Code)
	}
	w = do(t, router, http.MethodGet, "/folders", nil)
	if got := decode[FolderListResponse](t, w); len(got.Folders) != 1 {
		t.Errorf("folders = %d, want 1", len(got.Folders))
	}
}

func TestTrashRestoreAndPurge(t *testing.T) {
	_, router := testEnv(t, "")
	folder := decode[models.Folder](t, do(t, router, http.MethodPost, "/folders", FolderRequest{Name: "Work"}))

	w := do(t, router, http.MethodPost, "/folders/"+folder.ID+"/trash", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("trash = %d", w.Code)
	}
	if got := decode[models.Folder](t, w); !got.IsTrashed || got.DeletedAt == nil {
		t.Errorf("trashed = %+v", got)
	}
	if got := decode[FolderListResponse](t, do(t, router, http.MethodGet, "/folders", nil)); len(got.Folders) != 0 {
		t.Errorf("active after trash = %d", len(got.Folders))
	}
	if got := decode[FolderListResponse](t, do(t, router, http.MethodGet, "/trash", nil)); len(got.Folders) != 1 {
		t.Errorf("trash after trash = %d", len(got.Folders))
	}

	w = do(t, router, http.MethodPost, "/trash/"+folder.ID+"/restore", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("restore = %d", w.Code)
	}
	w = do(t, router, http.MethodPost, "/trash/"+folder.ID+"/restore", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("second restore = %d, want 404", w.Code)
	}

	do(t, router, http.MethodPost, "/folders/"+folder.ID+"/trash", nil)
	if got := decode[PurgeResponse](t, do(t, router, http.MethodPost, "/trash/purge", nil)); len(got.Purged) != 0 {
		t.Errorf("default retention purged %d", len(got.Purged))
	}
	time.Sleep(5 * time.Millisecond)
	if got := decode[PurgeResponse](t, do(t, router, http.MethodPost, "/trash/purge?older_than=1ms", nil)); len(got.Purged) != 1 {
		t.Errorf("purged = %d, want 1", len(got.Purged))
	}
	w = do(t, router, http.MethodPost, "/trash/purge?older_than=soon", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad duration = %d, want 400", w.Code)
	}
}

func TestSelection_CreateAndTrash(t *testing.T) {
	_, router := testEnv(t, "")
	folder := decode[models.Folder](t, do(t, router, http.MethodPost, "/folders", FolderRequest{Name: "Work"}))

	w := do(t, router, http.MethodPut, "/selection", SelectionRequest{FolderID: folder.ID})
	if w.Code != http.StatusOK {
		t.Fatalf("select = %d, body = %s", w.Code, w.Body.String())
	}
	if got := decode[SelectionResponse](t, do(t, router, http.MethodGet, "/selection", nil)); got.FolderID != folder.ID {
		t.Errorf("selection = %q, want %q", got.FolderID, folder.ID)
	}

	created := decode[models.Note](t, do(t, router, http.MethodPost, "/notes", nil))
	if created.FolderID != folder.ID {
		t.Errorf("note folder_id = %q, want selected %q", created.FolderID, folder.ID)
	}

	if w := do(t, router, http.MethodPost, "/folders/"+folder.ID+"/trash", nil); w.Code != http.StatusOK {
		t.Fatalf("trash = %d", w.Code)
	}
	if got := decode[SelectionResponse](t, do(t, router, http.MethodGet, "/selection", nil)); got.FolderID != "" {
		t.Errorf("selection after trash = %q, want cleared", got.FolderID)
	}
	if got := decode[models.Note](t, do(t, router, http.MethodPost, "/notes", nil)); got.FolderID != "" {
		t.Errorf("note after trash folder_id = %q, want empty", got.FolderID)
	}
}

func TestSelection_Rejections(t *testing.T) {
	_, router := testEnv(t, "")

	if w := do(t, router, http.MethodPut, "/selection", SelectionRequest{FolderID: "ghost"}); w.Code != http.StatusNotFound {
		t.Errorf("select missing = %d, want 404", w.Code)
	}
	if w := do(t, router, http.MethodPut, "/selection", "{bad"); w.Code != http.StatusBadRequest {
		t.Errorf("bad body = %d, want 400", w.Code)
	}
	w := do(t, router, http.MethodPut, "/selection", SelectionRequest{})
	if w.Code != http.StatusOK {
		t.Fatalf("clear = %d", w.Code)
	}
	if got := decode[SelectionResponse](t, w); got.FolderID != "" {
		t.Errorf("selection = %q, want empty", got.FolderID)
	}
}

func TestTemplates(t *testing.T) {
	_, router := testEnv(t, "")

	got := decode[TemplateListResponse](t, do(t, router, http.MethodGet, "/templates", nil))
	if len(got.Templates) != 5 {
		t.Fatalf("templates = %d, want 5", len(got.Templates))
	}

	w := do(t, router, http.MethodPost, "/templates/1/notes", nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("from template = %d", w.Code)
	}
	if n := decode[models.Note](t, w); n.Title != "Meeting Notes" {
		t.Errorf("title = %q", n.Title)
	}
	w = do(t, router, http.MethodPost, "/templates/42/notes", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing template = %d, want 404", w.Code)
	}
}

func TestAuthMiddleware_TokenMode(t *testing.T) {
	_, router := testEnv(t, "secret")

	req := httptest.NewRequest(http.MethodGet, "/notes", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("no token = %d, want 401", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/notes", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token = %d, want 401", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/notes", nil)
	req.Header.Set("Authorization", "Bearer secret")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("valid token = %d, want 200", w.Code)
	}
}

func TestAuthMiddleware_HeaderForms(t *testing.T) {
	_, router := testEnv(t, "secret")

	cases := []struct {
		header string
		want   int
	}{
		{"bearer secret", http.StatusOK},
		{"Bearer  secret ", http.StatusOK},
		{"Basic secret", http.StatusUnauthorized},
		{"Bearer", http.StatusUnauthorized},
		{"Bearer secret2", http.StatusUnauthorized},
		{"secret", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/notes", nil)
		req.Header.Set("Authorization", tc.header)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code != tc.want {
			t.Errorf("%q = %d, want %d", tc.header, w.Code, tc.want)
		}
		if w.Code == http.StatusUnauthorized && w.Header().Get("WWW-Authenticate") == "" {
			t.Errorf("%q: missing WWW-Authenticate", tc.header)
		}
	}
}

func TestAuthMiddleware_Disabled(t *testing.T) {
	_, router := testEnv(t, "")

	w := do(t, router, http.MethodGet, "/notes", nil)
	if w.Code != http.StatusOK {
		t.Errorf("no auth = %d, want 200", w.Code)
	}
}

// SSE endpoint auth tests.

func sseStub() http.Handler {
	// Minimal SSE handler stub: writes headers and blocks until context done.
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		<-r.Context().Done()
	})
}

func TestSSEEvents_AuthProtected(t *testing.T) {
	_, router := testEnvWithSSE(t, true, "secret", sseStub())

	w := do(t, router, http.MethodGet, "/events", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("SSE no auth = %d, want 401", w.Code)
	}
}

func TestSSEEvents_ValidToken(t *testing.T) {
	_, router := testEnvWithSSE(t, true, "tok", sseStub())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer tok")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code == http.StatusUnauthorized {
		t.Error("SSE with valid token should not 401")
	}
}

// PDF tests.

func uploadPDFs(t *testing.T, router http.Handler, folderID string, files map[string][]byte, order []string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, name := range order {
		part, err := mw.CreateFormFile("file", name)
		if err != nil {
			t.Fatal(err)
		}
		_, _ = io.Copy(part, bytes.NewReader(files[name]))
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/folders/"+folderID+"/pdfs", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestUploadAndServePDFs(t *testing.T) {
	_, router := testEnv(t, "")
	folder := decode[models.Folder](t, do(t, router, http.MethodPost, "/folders", FolderRequest{Name: "Papers"}))

	files := map[string][]byte{"a.pdf": []byte("%PDF-a"), "b.pdf": []byte("%PDF-b")}
	w := uploadPDFs(t, router, folder.ID, files, []string{"a.pdf", "b.pdf"})
	if w.Code != http.StatusCreated {
		t.Fatalf("upload = %d, body = %s", w.Code, w.Body.String())
	}
	resp := decode[PDFUploadResponse](t, w)
	if len(resp.PDFs) != 2 || resp.PDFs[0].Name != "a.pdf" || resp.PDFs[1].Name != "b.pdf" {
		t.Fatalf("pdfs = %+v", resp.PDFs)
	}
	if resp.PDFs[0].URL != "/api/pdfs/"+resp.PDFs[0].ID {
		t.Errorf("url = %q", resp.PDFs[0].URL)
	}

	w = do(t, router, http.MethodGet, "/pdfs/"+resp.PDFs[1].ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("serve = %d", w.Code)
	}
	if w.Body.String() != "%PDF-b" {
		t.Errorf("served = %q", w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("content type = %q", ct)
	}

	view := decode[notebook.FolderView](t, do(t, router, http.MethodGet, "/folders/"+folder.ID+"/view?q=B.PDF", nil))
	if len(view.PDFs) != 1 || view.PDFs[0].Name != "b.pdf" {
		t.Errorf("view pdfs = %+v", view.PDFs)
	}
}

func TestUploadPDFs_Rejections(t *testing.T) {
	_, router := testEnv(t, "")
	folder := decode[models.Folder](t, do(t, router, http.MethodPost, "/folders", FolderRequest{Name: "Papers"}))

	w := uploadPDFs(t, router, folder.ID, map[string][]byte{"notes.txt": []byte("x")}, []string{"notes.txt"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("non-pdf = %d, want 400", w.Code)
	}

	w = uploadPDFs(t, router, "folder-404", map[string][]byte{"a.pdf": []byte("x")}, []string{"a.pdf"})
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown folder = %d, want 404", w.Code)
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("wrong", "data")
	mw.Close()
	req := httptest.NewRequest(http.MethodPost, "/folders/"+folder.ID+"/pdfs", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing field = %d, want 400", rec.Code)
	}
}

func TestServePDF_NotFound(t *testing.T) {
	_, router := testEnv(t, "")

	w := do(t, router, http.MethodGet, "/pdfs/pdf-404", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing pdf = %d, want 404", w.Code)
	}
}
