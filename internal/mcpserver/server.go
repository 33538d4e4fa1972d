// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Quire tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/quire/internal/apperr"
	"github.com/starford/quire/internal/notebook"
	"github.com/starford/quire/internal/query"
)

const contractURI = "quire://note-format"

// Server wraps the MCP server with Quire tools.
type Server struct {
	mcp     *server.MCPServer
	svc     *notebook.Service
	fetcher *fetcher
}

// New creates a new MCP server with all Quire tools registered.
func New(svc *notebook.Service) *Server {
	s := &Server{svc: svc, fetcher: newFetcher()}

	s.mcp = server.NewMCPServer(
		"Quire",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_notes",
		mcp.WithDescription("Case-insensitive search through note titles, content and tags."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
		mcp.WithString("view", mcp.Description("Optional view: documents, favorites or shared")),
	), s.searchNotes)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read a note as JSON."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Note id (e.g. note-…)")),
	), s.readNote)

	s.mcp.AddTool(mcp.NewTool("create_note",
		mcp.WithDescription("Create a new note, optionally inside a folder and with an initial "+
			"title and content. Content MUST follow the note format contract; read it via "+
			"get_note_contract or the "+contractURI+" resource."),
		mcp.WithString("folder_id", mcp.Description("Optional folder id")),
		mcp.WithString("title", mcp.Description("Optional title")),
		mcp.WithString("content", mcp.Description("Optional editor markup")),
	), s.createNote)

	s.mcp.AddTool(mcp.NewTool("save_note",
		mcp.WithDescription("Replace the title and content of an existing note."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Note id")),
		mcp.WithString("title", mcp.Required(), mcp.Description("New title")),
		mcp.WithString("content", mcp.Required(), mcp.Description("New editor markup")),
	), s.saveNote)

	s.mcp.AddTool(mcp.NewTool("toggle_favorite",
		mcp.WithDescription("Flip the favorite flag of a note."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Note id")),
	), s.toggleFavorite)

	s.mcp.AddTool(mcp.NewTool("list_notes",
		mcp.WithDescription("List notes, or only the notes of one folder."),
		mcp.WithString("folder", mcp.Description("Optional folder id (empty for all)")),
	), s.listNotes)

	s.mcp.AddTool(mcp.NewTool("list_folders",
		mcp.WithDescription("List the active (non-trashed) folders."),
	), s.listFolders)

	s.mcp.AddTool(mcp.NewTool("select_folder",
		mcp.WithDescription("Select the folder that create_note uses when no folder_id is given. "+
			"An empty folder_id clears the selection."),
		mcp.WithString("folder_id", mcp.Description("Active folder id, or empty to clear")),
	), s.selectFolder)

	s.mcp.AddTool(mcp.NewTool("list_templates",
		mcp.WithDescription("List the note templates."),
	), s.listTemplates)

	s.mcp.AddTool(mcp.NewTool("get_note_contract",
		mcp.WithDescription("Returns the Quire note format contract. "+
			"Call this before creating or saving notes to ensure correct structure."),
	), s.getNoteContract)

	s.mcp.AddTool(mcp.NewTool("import_pdf",
		mcp.WithDescription("Import a PDF into a folder from an http(s) URL or a base64 data URI."),
		mcp.WithString("folder_id", mcp.Required(), mcp.Description("Target folder id")),
		mcp.WithString("url", mcp.Required(), mcp.Description("http(s) URL or data:application/pdf;base64,… URI")),
		mcp.WithString("filename", mcp.Description("Optional file name (must end with .pdf)")),
	), s.importPDF)

	// Resource: note format contract.
	s.mcp.AddResource(
		mcp.NewResource(contractURI, "Note Format Contract",
			mcp.WithResourceDescription("Note fields and content markup that all notes must follow."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readNoteFormatResource,
	)

	return s
}

// Serve speaks MCP over in/out until ctx is cancelled or in is closed.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	return server.NewStdioServer(s.mcp).Listen(ctx, in, out)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) *mcp.CallToolResult {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultText(string(out))
}

func serviceError(err error) *mcp.CallToolResult {
	if errors.Is(err, apperr.ErrNotFound) {
		return mcp.NewToolResultError("not found: " + err.Error())
	}
	return mcp.NewToolResultError(err.Error())
}

func optionalString(req mcp.CallToolRequest, name string) string {
	if v, err := req.RequireString(name); err == nil {
		return v
	}
	return ""
}

func (s *Server) searchNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	q, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	notes := s.svc.ListNotes(ctx, query.Filter{
		View: query.ParseView(optionalString(req, "view")),
		Term: q,
	})
	return jsonResult(notes), nil
}

func (s *Server) readNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	n, err := s.svc.GetNote(ctx, id)
	if err != nil {
		return serviceError(err), nil
	}
	return jsonResult(n), nil
}

func (s *Server) createNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	n := s.svc.CreateNote(ctx, optionalString(req, "folder_id"))

	title, content := optionalString(req, "title"), optionalString(req, "content")
	if title != "" || content != "" {
		if title == "" {
			title = n.Title
		}
		saved, err := s.svc.SaveNote(ctx, n.ID, title, content)
		if err != nil {
			return serviceError(err), nil
		}
		n = saved
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %s", n.ID)), nil
}

func (s *Server) saveNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if _, err := s.svc.SaveNote(ctx, id, title, content); err != nil {
		return serviceError(err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("saved: %s", id)), nil
}

func (s *Server) toggleFavorite(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	n, err := s.svc.ToggleFavorite(ctx, id)
	if err != nil {
		return serviceError(err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("favorite: %t", n.IsFavorite)), nil
}

func (s *Server) listNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	notes := s.svc.ListNotes(ctx, query.Filter{FolderID: optionalString(req, "folder")})

	lines := make([]string, 0, len(notes))
	for _, n := range notes {
		lines = append(lines, n.ID+"\t"+n.Title)
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) listFolders(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.svc.ListFolders(ctx)), nil
}

func (s *Server) selectFolder(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := optionalString(req, "folder_id")
	if err := s.svc.SelectFolder(ctx, id); err != nil {
		return serviceError(err), nil
	}
	if id == "" {
		return mcp.NewToolResultText("selection cleared"), nil
	}
	return mcp.NewToolResultText("selected folder " + id), nil
}

func (s *Server) listTemplates(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.svc.Templates(ctx)), nil
}

func (s *Server) getNoteContract(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(NoteFormatContract), nil
}

func (s *Server) readNoteFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      contractURI,
			MIMEType: "text/markdown",
			Text:     NoteFormatContract,
		},
	}, nil
}
