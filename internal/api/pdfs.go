package api

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/starford/quire/internal/blob"
	"github.com/starford/quire/internal/notebook"
)

// BlobSource resolves stored PDF data by id.
type BlobSource interface {
	Get(id string) (blob.Blob, bool)
}

// PDFHandler accepts PDF uploads and serves their data.
type PDFHandler struct {
	svc   *notebook.Service
	blobs BlobSource
}

// NewPDFHandler creates a PDF handler.
func NewPDFHandler(svc *notebook.Service, blobs BlobSource) *PDFHandler {
	return &PDFHandler{svc: svc, blobs: blobs}
}

// ServeFile handles GET /api/pdfs/{id}.
func (h *PDFHandler) ServeFile(w http.ResponseWriter, r *http.Request) {
	b, ok := h.blobs.Get(chi.URLParam(r, "id"))
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", b.Name))
	http.ServeContent(w, r, b.Name, time.Time{}, bytes.NewReader(b.Data))
}

// Upload handles POST /api/folders/{id}/pdfs (multipart/form-data, one or
// more "file" fields). Files are imported in form order.
func (h *PDFHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("file too large or invalid multipart"))
		return
	}

	headers := r.MultipartForm.File["file"]
	if len(headers) == 0 {
		writeJSON(w, http.StatusBadRequest, errorBody("missing 'file' field in multipart form"))
		return
	}

	uploads := make([]notebook.PDFUpload, 0, len(headers))
	for _, fh := range headers {
		name := filepath.Base(fh.Filename)
		if !strings.EqualFold(filepath.Ext(name), ".pdf") {
			writeJSON(w, http.StatusBadRequest, errorBody("only .pdf files are accepted: "+name))
			return
		}
		f, err := fh.Open()
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("failed to open upload"))
			return
		}
		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("failed to read upload"))
			return
		}
		uploads = append(uploads, notebook.PDFUpload{Name: name, Data: data})
	}

	pdfs, err := h.svc.ImportPDFs(r.Context(), chi.URLParam(r, "id"), uploads)
	if err != nil {
		writeServiceError(w, "import pdfs", err)
		return
	}
	writeJSON(w, http.StatusCreated, PDFUploadResponse{PDFs: pdfs})
}
