package mcpserver

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/quire/internal/notebook"
)

const (
	maxPDFSize  = 10 << 20 // 10 MB
	pdfMIME     = "application/pdf"
	pdfExt      = ".pdf"
	pdfMagic    = "%PDF-"
	maxRedirect = 5
)

var safeFilenameRe = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

type importResult struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

func (s *Server) importPDF(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	folderID, err := req.RequireString("folder_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rawURL, err := req.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var data []byte
	if strings.HasPrefix(rawURL, "data:") {
		data, err = decodeDataURI(rawURL)
	} else {
		data, err = s.fetcher.fetch(ctx, rawURL)
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(data) > maxPDFSize {
		return mcp.NewToolResultError(fmt.Sprintf("file too large: %d bytes (max %d)", len(data), maxPDFSize)), nil
	}
	if !bytes.HasPrefix(data, []byte(pdfMagic)) {
		return mcp.NewToolResultError("content does not appear to be a PDF (missing %PDF- header)"), nil
	}

	filename := optionalString(req, "filename")
	if filename == "" {
		filename = filenameFromURL(rawURL)
	}
	filename = sanitizeFilename(filename)
	if strings.ToLower(filepath.Ext(filename)) != pdfExt {
		return mcp.NewToolResultError(fmt.Sprintf("unsupported file extension: %s (only .pdf)", filepath.Ext(filename))), nil
	}

	pdfs, err := s.svc.ImportPDFs(ctx, folderID, []notebook.PDFUpload{{Name: filename, Data: data}})
	if err != nil {
		return serviceError(err), nil
	}
	out, _ := json.Marshal(importResult{ID: pdfs[0].ID, Name: pdfs[0].Name, URL: pdfs[0].URL})
	return mcp.NewToolResultText(string(out)), nil
}

// decodeDataURI parses a data:application/pdf;base64,<data> URI.
func decodeDataURI(uri string) ([]byte, error) {
	rest := strings.TrimPrefix(uri, "data:")
	commaIdx := strings.Index(rest, ",")
	if commaIdx < 0 {
		return nil, fmt.Errorf("invalid data URI: missing comma separator")
	}

	meta := rest[:commaIdx]
	encoded := rest[commaIdx+1:]

	if !strings.Contains(meta, ";base64") {
		return nil, fmt.Errorf("only base64 data URIs are supported")
	}
	if mime := strings.Split(strings.TrimSuffix(meta, ";base64"), ";")[0]; mime != pdfMIME {
		return nil, fmt.Errorf("unsupported MIME type in data URI: %s", mime)
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, fmt.Errorf("invalid base64 data: %w", err)
		}
	}
	return data, nil
}

// fetcher downloads PDFs over http(s) with host and size checks.
type fetcher struct {
	client *resty.Client
	// checkHost is swapped out in tests that serve from loopback.
	checkHost func(host string) error
}

func newFetcher() *fetcher {
	f := &fetcher{checkHost: checkBlockedHost}
	f.client = resty.New().
		SetTimeout(30 * time.Second).
		SetRedirectPolicy(resty.RedirectPolicyFunc(func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirect {
				return fmt.Errorf("too many redirects (max %d)", maxRedirect)
			}
			return f.checkHost(req.URL.Hostname())
		}))
	return f
}

func (f *fetcher) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme: %s (only http/https)", parsed.Scheme)
	}
	if err := f.checkHost(parsed.Hostname()); err != nil {
		return nil, err
	}

	resp, err := f.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(rawURL)
	if err != nil {
		return nil, fmt.Errorf("download failed: %w", err)
	}
	body := resp.RawBody()
	defer func() { _ = body.Close() }()

	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("download failed: HTTP %d", resp.StatusCode())
	}

	data, err := io.ReadAll(io.LimitReader(body, maxPDFSize+1))
	if err != nil {
		return nil, fmt.Errorf("read body failed: %w", err)
	}
	if len(data) > maxPDFSize {
		return nil, fmt.Errorf("file too large: exceeds %d bytes", maxPDFSize)
	}
	return data, nil
}

// checkBlockedHost rejects loopback and cloud metadata addresses.
func checkBlockedHost(host string) error {
	if host == "metadata.google.internal" {
		return fmt.Errorf("blocked host: %s", host)
	}

	ip := net.ParseIP(host)
	if ip == nil {
		ips, lookupErr := net.LookupIP(host)
		if lookupErr != nil || len(ips) == 0 {
			return nil //nolint:nilerr // let the client report DNS failures
		}
		ip = ips[0]
	}

	if ip.IsLoopback() {
		return fmt.Errorf("blocked host: loopback address %s", host)
	}
	// AWS/GCP/Azure metadata endpoint.
	if ip.Equal(net.ParseIP("169.254.169.254")) {
		return fmt.Errorf("blocked host: cloud metadata address %s", host)
	}
	return nil
}

// filenameFromURL takes the last path segment of an http URL, falling back
// to a random name.
func filenameFromURL(rawURL string) string {
	if !strings.HasPrefix(rawURL, "data:") {
		if parsed, err := url.Parse(rawURL); err == nil {
			base := path.Base(parsed.Path)
			if base != "" && base != "." && base != "/" && strings.Contains(base, ".") {
				return base
			}
		}
	}
	return uuid.New().String() + pdfExt
}

// sanitizeFilename strips path separators and unsafe characters.
func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	name = safeFilenameRe.ReplaceAllString(name, "_")
	if name == "" || name == "." {
		name = uuid.New().String() + pdfExt
	}
	return name
}
