package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"

	"github.com/rhuss/quill/pkg/api"
	"github.com/rhuss/quill/pkg/auth"
	"github.com/rhuss/quill/pkg/notes"
	"github.com/rhuss/quill/pkg/transport"
)

// PingMessage is the body of GET /.
const PingMessage = "respond received from the server!"

// Adapter serves the account and note routes over HTTP.
// It decodes requests, delegates to the notes service and serializes results.
type Adapter struct {
	service *notes.Service
	config  Config
}

// Config holds configuration for the HTTP adapter.
type Config struct {
	MaxBodySize int64
}

// DefaultConfig returns the default adapter configuration.
func DefaultConfig() Config {
	return Config{
		MaxBodySize: 1 << 20, // 1 MB
	}
}

// NewAdapter creates an HTTP adapter for the given service.
func NewAdapter(service *notes.Service, cfg Config) *Adapter {
	if cfg.MaxBodySize <= 0 {
		cfg.MaxBodySize = DefaultConfig().MaxBodySize
	}
	return &Adapter{service: service, config: cfg}
}

// Register adds the adapter routes to mux.
func (a *Adapter) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", a.handlePing)
	mux.HandleFunc("POST /create-account", a.handleCreateAccount)
	mux.HandleFunc("POST /login", a.handleLogin)
	mux.HandleFunc("GET /get-user", a.handleGetUser)
	mux.HandleFunc("POST /add-note", a.handleAddNote)
	mux.HandleFunc("PUT /edit-note/{noteId}", a.handleEditNote)
	mux.HandleFunc("PUT /update-note-pinned/{noteId}", a.handleUpdatePinned)
	mux.HandleFunc("GET /get-all-notes", a.handleListNotes)
	mux.HandleFunc("DELETE /delete-note/{noteId}", a.handleDeleteNote)
	mux.HandleFunc("GET /search-notes", a.handleSearchNotes)
}

// Handler returns a bare mux with only the adapter routes. It carries no
// middleware; use NewHandler for the full stack.
func (a *Adapter) Handler() http.Handler {
	mux := http.NewServeMux()
	a.Register(mux)
	return mux
}

func (a *Adapter) handlePing(w http.ResponseWriter, r *http.Request) {
	transport.WriteJSON(w, http.StatusOK, map[string]string{"data": PingMessage})
}

// handleCreateAccount handles POST /create-account.
func (a *Adapter) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req api.CreateAccountRequest
	if !a.decode(w, r, &req) {
		return
	}
	resp, err := a.service.CreateAccount(r.Context(), &req)
	respond(w, resp, err)
}

// handleLogin handles POST /login.
func (a *Adapter) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req api.LoginRequest
	if !a.decode(w, r, &req) {
		return
	}
	resp, err := a.service.Login(r.Context(), &req)
	respond(w, resp, err)
}

// handleGetUser handles GET /get-user.
func (a *Adapter) handleGetUser(w http.ResponseWriter, r *http.Request) {
	resp, err := a.service.GetUser(r.Context(), auth.AccountIDFromContext(r.Context()))
	respond(w, resp, err)
}

// handleAddNote handles POST /add-note.
func (a *Adapter) handleAddNote(w http.ResponseWriter, r *http.Request) {
	var req api.AddNoteRequest
	if !a.decode(w, r, &req) {
		return
	}
	resp, err := a.service.AddNote(r.Context(), auth.AccountIDFromContext(r.Context()), &req)
	respond(w, resp, err)
}

// handleEditNote handles PUT /edit-note/{noteId}.
func (a *Adapter) handleEditNote(w http.ResponseWriter, r *http.Request) {
	var req api.EditNoteRequest
	if !a.decode(w, r, &req) {
		return
	}
	resp, err := a.service.EditNote(r.Context(), auth.AccountIDFromContext(r.Context()), r.PathValue("noteId"), &req)
	respond(w, resp, err)
}

// handleUpdatePinned handles PUT /update-note-pinned/{noteId}.
func (a *Adapter) handleUpdatePinned(w http.ResponseWriter, r *http.Request) {
	var req api.PinNoteRequest
	if !a.decode(w, r, &req) {
		return
	}
	resp, err := a.service.UpdatePinned(r.Context(), auth.AccountIDFromContext(r.Context()), r.PathValue("noteId"), &req)
	respond(w, resp, err)
}

// handleListNotes handles GET /get-all-notes.
func (a *Adapter) handleListNotes(w http.ResponseWriter, r *http.Request) {
	resp, err := a.service.ListNotes(r.Context(), auth.AccountIDFromContext(r.Context()))
	respond(w, resp, err)
}

// handleDeleteNote handles DELETE /delete-note/{noteId}.
func (a *Adapter) handleDeleteNote(w http.ResponseWriter, r *http.Request) {
	resp, err := a.service.DeleteNote(r.Context(), auth.AccountIDFromContext(r.Context()), r.PathValue("noteId"))
	respond(w, resp, err)
}

// handleSearchNotes handles GET /search-notes?query=.
func (a *Adapter) handleSearchNotes(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	resp, err := a.service.SearchNotes(r.Context(), auth.AccountIDFromContext(r.Context()), query)
	respond(w, resp, err)
}

// decode reads a JSON body into dst. On failure it writes the error
// response and returns false.
func (a *Adapter) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if ct := r.Header.Get("Content-Type"); ct != "" {
		mediaType, _, err := mime.ParseMediaType(ct)
		if err != nil || mediaType != "application/json" {
			transport.WriteErrorResponse(w,
				api.NewInvalidRequestError("content_type", "Content-Type must be application/json"),
				http.StatusUnsupportedMediaType,
			)
			return false
		}
	}

	r.Body = http.MaxBytesReader(w, r.Body, a.config.MaxBodySize)

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			transport.WriteErrorResponse(w,
				api.NewInvalidRequestError("body", fmt.Sprintf("request body too large (max %d bytes)", a.config.MaxBodySize)),
				http.StatusRequestEntityTooLarge,
			)
			return false
		}
		transport.WriteAPIError(w, api.NewInvalidRequestError("body", "invalid JSON: "+err.Error()))
		return false
	}
	return true
}

// respond writes v with 200, or the error response for err.
func respond(w http.ResponseWriter, v any, err error) {
	if err != nil {
		var apiErr *api.APIError
		if !errors.As(err, &apiErr) {
			apiErr = api.NewServerError(notes.MsgInternalError)
		}
		transport.WriteAPIError(w, apiErr)
		return
	}
	transport.WriteJSON(w, http.StatusOK, v)
}
