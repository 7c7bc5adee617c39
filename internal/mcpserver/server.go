// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Inkwell tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/inkwell/internal/models"
	"github.com/starford/inkwell/internal/vault"
)

const noteFormatURI = "inkwell://note-format"

// Server wraps the MCP server with Inkwell tools.
type Server struct {
	mcp *server.MCPServer
	v   *vault.Vault
}

// New creates a new MCP server with all Inkwell tools registered.
func New(v *vault.Vault, version string) *Server {
	s := &Server{v: v}

	s.mcp = server.NewMCPServer(
		"Inkwell",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	idArg := mcp.WithString("id", mcp.Required(), mcp.Description(`Note id in "folder:slot" form, e.g. "0:3"`))
	pwArg := mcp.WithString("password", mcp.Description("Password, required for encrypted notes"))

	s.mcp.AddTool(mcp.NewTool("search_notes",
		mcp.WithDescription("Fuzzy search over note titles and bodies. Encrypted bodies are not searched."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchNotes)

	s.mcp.AddTool(mcp.NewTool("list_notes",
		mcp.WithDescription("List all notes, or the notes of one folder."),
		mcp.WithNumber("folder", mcp.Description("Optional folder id")),
	), s.listNotes)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read the body of a note."),
		idArg, pwArg,
	), s.readNote)

	s.mcp.AddTool(mcp.NewTool("create_note",
		mcp.WithDescription("Create a note in a folder. Titles are unique within a folder. "+
			"Read the format contract via get_note_contract or the "+noteFormatURI+" resource first."),
		mcp.WithNumber("folder", mcp.Required(), mcp.Description("Folder id")),
		mcp.WithString("title", mcp.Required(), mcp.Description("Note title")),
		mcp.WithString("body", mcp.Description("Optional initial Markdown body")),
	), s.createNote)

	s.mcp.AddTool(mcp.NewTool("save_note",
		mcp.WithDescription("Replace the body of a note. Every save records a version."),
		idArg,
		mcp.WithString("body", mcp.Required(), mcp.Description("New Markdown body")),
		pwArg,
	), s.saveNote)

	s.mcp.AddTool(mcp.NewTool("get_note_contract",
		mcp.WithDescription("Returns the Inkwell note format contract. "+
			"Call this before creating or updating notes."),
	), s.getNoteContract)

	s.mcp.AddTool(mcp.NewTool("get_backlinks",
		mcp.WithDescription("Find all notes that reference the specified note by title."),
		idArg,
	), s.getBacklinks)

	s.mcp.AddTool(mcp.NewTool("get_unresolved_links",
		mcp.WithDescription("List the references of a note that name no existing note."),
		idArg,
	), s.getUnresolvedLinks)

	s.mcp.AddTool(mcp.NewTool("list_versions",
		mcp.WithDescription("List the recorded versions of a note."),
		idArg,
	), s.listVersions)

	s.mcp.AddTool(mcp.NewTool("restore_version",
		mcp.WithDescription("Restore an old version of a note. The restore is recorded as a new version."),
		idArg,
		mcp.WithNumber("seq", mcp.Required(), mcp.Description("Version sequence number")),
		pwArg,
	), s.restoreVersion)

	s.mcp.AddTool(mcp.NewTool("diff_versions",
		mcp.WithDescription("Compare two versions of a note. Returns line insertions, deletions and a unified patch."),
		idArg,
		mcp.WithNumber("from", mcp.Required(), mcp.Description("Older version sequence number")),
		mcp.WithNumber("to", mcp.Required(), mcp.Description("Newer version sequence number")),
		pwArg,
	), s.diffVersions)

	s.mcp.AddResource(
		mcp.NewResource(noteFormatURI, "Note Format Contract",
			mcp.WithResourceDescription("How Inkwell notes are written and linked."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readNoteFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
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

func noteArg(req mcp.CallToolRequest) (models.NoteID, error) {
	raw, err := req.RequireString("id")
	if err != nil {
		return models.NoteID{}, err
	}
	return models.ParseNoteID(raw)
}

// noteRef is how tools report other notes.
type noteRef struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

func (s *Server) refs(ids []models.NoteID) []noteRef {
	out := make([]noteRef, 0, len(ids))
	for _, id := range ids {
		ref := noteRef{ID: id.String()}
		if n, err := s.v.Note(id); err == nil {
			ref.Title = n.Title
		}
		out = append(out, ref)
	}
	return out
}

func (s *Server) searchNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results := s.v.Search(query)
	if len(results) > 20 {
		results = results[:20]
	}
	return jsonResult(results), nil
}

func (s *Server) listNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	folder := req.GetInt("folder", -1)

	var lines []string
	for _, n := range s.v.Notes() {
		if folder >= 0 && n.ID.Folder != folder {
			continue
		}
		lines = append(lines, n.ID.String()+"\t"+n.Title)
	}
	if len(lines) == 0 {
		return mcp.NewToolResultText("no notes"), nil
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) readNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := noteArg(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	body, err := s.v.Body(id, req.GetString("password", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(body), nil
}

func (s *Server) createNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	folder, err := req.RequireInt("folder")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	id, err := s.v.CreateNote(folder, title)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if body := req.GetString("body", ""); body != "" {
		if err := s.v.SaveNote(id, body, ""); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("created %s but save failed: %v", id, err)), nil
		}
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %s", id)), nil
}

func (s *Server) saveNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := noteArg(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	body, err := req.RequireString("body")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.v.SaveNote(id, body, req.GetString("password", "")); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("saved: %s", id)), nil
}

func (s *Server) getNoteContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(NoteFormatContract), nil
}

func (s *Server) readNoteFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      noteFormatURI,
			MIMEType: "text/markdown",
			Text:     NoteFormatContract,
		},
	}, nil
}

func (s *Server) getBacklinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := noteArg(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	bl, err := s.v.Backlinks(id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(bl) == 0 {
		return mcp.NewToolResultText("no backlinks found"), nil
	}
	return jsonResult(s.refs(bl)), nil
}

func (s *Server) getUnresolvedLinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := noteArg(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	titles, err := s.v.UnresolvedLinks(id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(titles) == 0 {
		return mcp.NewToolResultText("no unresolved links"), nil
	}
	return mcp.NewToolResultText(strings.Join(titles, "\n")), nil
}

func (s *Server) listVersions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := noteArg(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	versions, err := s.v.Versions(id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(versions), nil
}

func (s *Server) diffVersions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := noteArg(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	from, err := req.RequireInt("from")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	to, err := req.RequireInt("to")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	d, err := s.v.DiffVersions(id, int64(from), int64(to), req.GetString("password", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(d), nil
}

func (s *Server) restoreVersion(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := noteArg(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	seq, err := req.RequireInt("seq")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.v.RestoreVersion(id, int64(seq), req.GetString("password", "")); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("restored %s from v%d", id, seq)), nil
}
