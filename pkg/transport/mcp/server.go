package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/rhuss/quill/pkg/api"
	"github.com/rhuss/quill/pkg/auth"
	"github.com/rhuss/quill/pkg/notes"
)

// ServerName is reported to MCP clients during initialization.
const ServerName = "quill"

// SearchInput is the argument of search_notes.
type SearchInput struct {
	Query string `json:"query" jsonschema:"case-insensitive text to find in note titles and content"`
}

// AddNoteInput is the argument of add_note.
type AddNoteInput struct {
	Title   string   `json:"title" jsonschema:"note title"`
	Content string   `json:"content" jsonschema:"note body"`
	Tags    []string `json:"tags,omitempty" jsonschema:"optional tags"`
}

// SetPinnedInput is the argument of set_note_pinned.
type SetPinnedInput struct {
	NoteID   string `json:"noteId" jsonschema:"id of the note"`
	IsPinned bool   `json:"isPinned" jsonschema:"whether the note is pinned"`
}

// NoteIDInput is the argument of delete_note.
type NoteIDInput struct {
	NoteID string `json:"noteId" jsonschema:"id of the note"`
}

// NewHandler returns the streamable HTTP handler. It must run behind the
// auth middleware; requests without an identity get no server.
func NewHandler(svc *notes.Service, version string) http.Handler {
	return mcp.NewStreamableHTTPHandler(func(r *http.Request) *mcp.Server {
		accountID := auth.AccountIDFromContext(r.Context())
		if accountID == "" {
			slog.Warn("mcp request without identity", "path", r.URL.Path)
			return nil
		}
		return NewServer(svc, accountID, version)
	}, &mcp.StreamableHTTPOptions{Stateless: true})
}

// NewServer builds an MCP server whose tools act for accountID.
func NewServer(svc *notes.Service, accountID, version string) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: ServerName, Version: version}, nil)
	t := &tools{svc: svc, accountID: accountID}

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_notes",
		Description: "Lists all of your notes, pinned notes first",
	}, t.listNotes)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_notes",
		Description: "Finds your notes whose title or content contains the query, ignoring case",
	}, t.searchNotes)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_note",
		Description: "Creates a new note",
	}, t.addNote)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "set_note_pinned",
		Description: "Pins or unpins one of your notes",
	}, t.setPinned)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "delete_note",
		Description: "Deletes one of your notes",
	}, t.deleteNote)

	return server
}

// tools holds the per-request binding between the tool handlers and the caller.
type tools struct {
	svc       *notes.Service
	accountID string
}

func (t *tools) listNotes(ctx context.Context, _ *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, any, error) {
	resp, err := t.svc.ListNotes(ctx, t.accountID)
	return result(resp, err)
}

func (t *tools) searchNotes(ctx context.Context, _ *mcp.CallToolRequest, in SearchInput) (*mcp.CallToolResult, any, error) {
	resp, err := t.svc.SearchNotes(ctx, t.accountID, in.Query)
	return result(resp, err)
}

func (t *tools) addNote(ctx context.Context, _ *mcp.CallToolRequest, in AddNoteInput) (*mcp.CallToolResult, any, error) {
	resp, err := t.svc.AddNote(ctx, t.accountID, &api.AddNoteRequest{
		Title:   in.Title,
		Content: in.Content,
		Tags:    in.Tags,
	})
	return result(resp, err)
}

func (t *tools) setPinned(ctx context.Context, _ *mcp.CallToolRequest, in SetPinnedInput) (*mcp.CallToolResult, any, error) {
	pinned := in.IsPinned
	resp, err := t.svc.UpdatePinned(ctx, t.accountID, in.NoteID, &api.PinNoteRequest{IsPinned: &pinned})
	return result(resp, err)
}

func (t *tools) deleteNote(ctx context.Context, _ *mcp.CallToolRequest, in NoteIDInput) (*mcp.CallToolResult, any, error) {
	resp, err := t.svc.DeleteNote(ctx, t.accountID, in.NoteID)
	return result(resp, err)
}

// result renders a service response as JSON text. Service errors become
// tool errors carrying the client-facing message.
func result(v any, err error) (*mcp.CallToolResult, any, error) {
	if err != nil {
		msg := notes.MsgInternalError
		var apiErr *api.APIError
		if errors.As(err, &apiErr) {
			msg = apiErr.Message
		}
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{&mcp.TextContent{Text: msg}},
		}, nil, nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return nil, nil, err
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}, nil, nil
}
