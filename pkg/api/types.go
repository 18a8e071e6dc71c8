package api

import "time"

// Account is a registered user.
type Account struct {
	ID        string    `json:"_id"`
	FullName  string    `json:"fullName"`
	Email     string    `json:"email"`
	CreatedOn time.Time `json:"createdOn"`

	// PasswordHash is the bcrypt hash of the account password. It is
	// persisted by stores but never written to clients.
	PasswordHash string `json:"-"`
}

// Note is a note owned by a single account.
type Note struct {
	ID        string    `json:"_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Tags      []string  `json:"tags"`
	IsPinned  bool      `json:"isPinned"`
	UserID    string    `json:"userId"`
	CreatedOn time.Time `json:"createdOn"`
}

// Clone returns a deep copy of the note, so that callers holding the copy
// cannot mutate shared tag slices.
func (n *Note) Clone() *Note {
	if n == nil {
		return nil
	}
	c := *n
	c.Tags = append([]string{}, n.Tags...)
	return &c
}

// CreateAccountRequest is the body of POST /create-account.
type CreateAccountRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the body of POST /login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AddNoteRequest is the body of POST /add-note.
type AddNoteRequest struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Tags    []string `json:"tags,omitempty"`
}

// EditNoteRequest is the body of PUT /edit-note/{noteId}. A nil field was
// omitted by the client and is left unchanged.
type EditNoteRequest struct {
	Title    *string   `json:"title,omitempty"`
	Content  *string   `json:"content,omitempty"`
	Tags     *[]string `json:"tags,omitempty"`
	IsPinned *bool     `json:"isPinned,omitempty"`
}

// HasChanges reports whether the request carries any of the editable
// content fields. IsPinned alone does not count; it has its own route.
func (r *EditNoteRequest) HasChanges() bool {
	return r.Title != nil || r.Content != nil || r.Tags != nil
}

// Apply overwrites the fields of n that are present in the request.
func (r *EditNoteRequest) Apply(n *Note) {
	if r.Title != nil {
		n.Title = *r.Title
	}
	if r.Content != nil {
		n.Content = *r.Content
	}
	if r.Tags != nil {
		n.Tags = append([]string{}, (*r.Tags)...)
	}
	if r.IsPinned != nil {
		n.IsPinned = *r.IsPinned
	}
}

// PinNoteRequest is the body of PUT /update-note-pinned/{noteId}.
type PinNoteRequest struct {
	IsPinned *bool `json:"isPinned"`
}

// AccountResponse is returned by POST /create-account.
type AccountResponse struct {
	Error       bool     `json:"error"`
	User        *Account `json:"user,omitempty"`
	AccessToken string   `json:"accessToken,omitempty"`
	Message     string   `json:"message"`
}

// LoginResponse is returned by POST /login.
type LoginResponse struct {
	Error       bool   `json:"error"`
	Message     string `json:"message"`
	Email       string `json:"email"`
	AccessToken string `json:"accessToken"`
}

// UserResponse is returned by GET /get-user.
type UserResponse struct {
	User    *Account `json:"user"`
	Message string   `json:"message"`
}

// NoteResponse is returned by the single-note routes.
type NoteResponse struct {
	Error   bool   `json:"error"`
	Note    *Note  `json:"note"`
	Message string `json:"message"`
}

// NoteListResponse is returned by GET /get-all-notes and GET /search-notes.
type NoteListResponse struct {
	Error   bool    `json:"error"`
	Notes   []*Note `json:"notes"`
	Message string  `json:"message"`
}

// MessageResponse is returned by DELETE /delete-note/{noteId}.
type MessageResponse struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
}
