package notes

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/rhuss/quill/pkg/api"
	"github.com/rhuss/quill/pkg/auth/password"
	"github.com/rhuss/quill/pkg/observability"
	"github.com/rhuss/quill/pkg/storage"
)

// Response messages shared with clients.
const (
	MsgUserExists      = "User already exist"
	MsgRegistered      = "Registration Successful"
	MsgUserNotFound    = "User not found"
	MsgLoginSuccessful = "Login Successful"
	MsgInvalidCreds    = "Invalid Credentials"
	MsgNoteNotFound    = "Note not found"
	MsgNoteAdded       = "Note added successfully"
	MsgNoteUpdated     = "Note updated successfully"
	MsgPinnedUpdated   = "Note pinned status updated successfully"
	MsgNotesRetrieved  = "All notes retrieved successfully"
	MsgNoteDeleted     = "Note deleted successfully"
	MsgSearchRetrieved = "Notes matching the search query retrieved successfully"
	MsgInternalError   = "Internal Server Error"
	MsgAuthRequired    = "authentication required"
	MsgPasswordTooLong = "Password must be at most 72 bytes"

	// MsgUserRetrieved is a single space; existing clients expect it.
	MsgUserRetrieved = " "
)

// TokenIssuer creates access tokens for an account.
type TokenIssuer interface {
	Issue(accountID string) (string, error)
}

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(hash, plain string) error
}

// Config holds optional service settings.
type Config struct {
	// Validation limits for note fields. Zero value uses api.DefaultValidationConfig.
	Validation api.ValidationConfig

	// Logger for operation failures (default: slog.Default()).
	Logger *slog.Logger

	// Now returns the current time (default: time.Now).
	Now func() time.Time
}

// Service implements the account and note operations.
type Service struct {
	store      storage.Store
	tokens     TokenIssuer
	hasher     PasswordHasher
	validation api.ValidationConfig
	logger     *slog.Logger
	now        func() time.Time
}

// NewService creates a Service. store, tokens and hasher are required.
func NewService(store storage.Store, tokens TokenIssuer, hasher PasswordHasher, cfg Config) (*Service, error) {
	if store == nil {
		return nil, errors.New("store is required")
	}
	if tokens == nil {
		return nil, errors.New("token issuer is required")
	}
	if hasher == nil {
		return nil, errors.New("password hasher is required")
	}

	if cfg.Validation == (api.ValidationConfig{}) {
		cfg.Validation = api.DefaultValidationConfig()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Service{
		store:      store,
		tokens:     tokens,
		hasher:     hasher,
		validation: cfg.Validation,
		logger:     cfg.Logger,
		now:        cfg.Now,
	}, nil
}

// CreateAccount registers a new account and issues its first token. A taken
// email yields a conflict error and creates nothing.
func (s *Service) CreateAccount(ctx context.Context, req *api.CreateAccountRequest) (_ *api.AccountResponse, err error) {
	defer s.record("create_account", &err)

	if apiErr := api.ValidateCreateAccount(req); apiErr != nil {
		return nil, apiErr
	}
	email := api.NormalizeEmail(req.Email)

	_, err = s.store.GetAccountByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, api.NewConflictError(MsgUserExists)
	case !errors.Is(err, storage.ErrNotFound):
		return nil, s.internal(ctx, "create_account", err)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		if errors.Is(err, password.ErrTooLong) {
			return nil, api.NewInvalidRequestError("password", MsgPasswordTooLong)
		}
		return nil, s.internal(ctx, "create_account", err)
	}

	acct := &api.Account{
		FullName:     req.FullName,
		Email:        email,
		PasswordHash: hash,
		CreatedOn:    s.now().UTC(),
	}
	if err := s.store.CreateAccount(ctx, acct); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return nil, api.NewConflictError(MsgUserExists)
		}
		return nil, s.internal(ctx, "create_account", err)
	}

	token, err := s.tokens.Issue(acct.ID)
	if err != nil {
		return nil, s.internal(ctx, "create_account", err)
	}

	s.logger.Info("account created", "account_id", acct.ID)

	return &api.AccountResponse{
		Error:       false,
		User:        acct,
		AccessToken: token,
		Message:     MsgRegistered,
	}, nil
}

// Login verifies credentials and issues a token.
func (s *Service) Login(ctx context.Context, req *api.LoginRequest) (_ *api.LoginResponse, err error) {
	defer s.record("login", &err)

	if apiErr := api.ValidateLogin(req); apiErr != nil {
		return nil, apiErr
	}
	email := api.NormalizeEmail(req.Email)

	acct, err := s.store.GetAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, api.NewInvalidRequestError("email", MsgUserNotFound)
		}
		return nil, s.internal(ctx, "login", err)
	}

	if err := s.hasher.Verify(acct.PasswordHash, req.Password); err != nil {
		if errors.Is(err, password.ErrMismatch) {
			s.logger.Warn("login rejected", "account_id", acct.ID, "reason", "password mismatch")
			return nil, api.NewInvalidRequestError("password", MsgInvalidCreds)
		}
		return nil, s.internal(ctx, "login", err)
	}

	token, err := s.tokens.Issue(acct.ID)
	if err != nil {
		return nil, s.internal(ctx, "login", err)
	}

	s.logger.Info("login succeeded", "account_id", acct.ID)

	return &api.LoginResponse{
		Error:       false,
		Message:     MsgLoginSuccessful,
		Email:       acct.Email,
		AccessToken: token,
	}, nil
}

// GetUser returns the caller's account. An account that no longer exists
// is reported as unauthenticated.
func (s *Service) GetUser(ctx context.Context, accountID string) (_ *api.UserResponse, err error) {
	defer s.record("get_user", &err)

	if accountID == "" {
		return nil, api.NewUnauthenticatedError(MsgAuthRequired)
	}

	acct, err := s.store.GetAccount(ctx, accountID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, api.NewUnauthenticatedError(MsgUserNotFound)
		}
		return nil, s.internal(ctx, "get_user", err)
	}

	return &api.UserResponse{User: acct, Message: MsgUserRetrieved}, nil
}

// AddNote creates a note owned by the caller.
func (s *Service) AddNote(ctx context.Context, accountID string, req *api.AddNoteRequest) (_ *api.NoteResponse, err error) {
	defer s.record("add_note", &err)

	if accountID == "" {
		return nil, api.NewUnauthenticatedError(MsgAuthRequired)
	}
	if apiErr := api.ValidateAddNote(req, s.validation); apiErr != nil {
		return nil, apiErr
	}

	note := &api.Note{
		Title:     req.Title,
		Content:   req.Content,
		Tags:      append([]string{}, req.Tags...),
		IsPinned:  false,
		UserID:    accountID,
		CreatedOn: s.now().UTC(),
	}
	if err := s.store.SaveNote(ctx, note); err != nil {
		return nil, s.internal(ctx, "add_note", err)
	}

	s.logger.Debug("note added", "account_id", accountID, "note_id", note.ID)

	return &api.NoteResponse{Error: false, Note: note, Message: MsgNoteAdded}, nil
}

// EditNote overwrites the supplied fields of one of the caller's notes.
// The read and the write are separate store calls; a concurrent edit of the
// same note may be lost.
func (s *Service) EditNote(ctx context.Context, accountID, noteID string, req *api.EditNoteRequest) (_ *api.NoteResponse, err error) {
	defer s.record("edit_note", &err)

	if accountID == "" {
		return nil, api.NewUnauthenticatedError(MsgAuthRequired)
	}
	if apiErr := api.ValidateEditNote(req, s.validation); apiErr != nil {
		return nil, apiErr
	}

	note, err := s.ownedNote(ctx, "edit_note", accountID, noteID)
	if err != nil {
		return nil, err
	}

	req.Apply(note)
	if err := s.updateNote(ctx, "edit_note", note); err != nil {
		return nil, err
	}

	return &api.NoteResponse{Error: false, Note: note, Message: MsgNoteUpdated}, nil
}

// UpdatePinned sets the pinned flag of one of the caller's notes. Setting
// the current value again succeeds and changes nothing.
func (s *Service) UpdatePinned(ctx context.Context, accountID, noteID string, req *api.PinNoteRequest) (_ *api.NoteResponse, err error) {
	defer s.record("update_pinned", &err)

	if accountID == "" {
		return nil, api.NewUnauthenticatedError(MsgAuthRequired)
	}
	if apiErr := api.ValidatePinNote(req); apiErr != nil {
		return nil, apiErr
	}

	note, err := s.ownedNote(ctx, "update_pinned", accountID, noteID)
	if err != nil {
		return nil, err
	}

	note.IsPinned = *req.IsPinned
	if err := s.updateNote(ctx, "update_pinned", note); err != nil {
		return nil, err
	}

	return &api.NoteResponse{Error: false, Note: note, Message: MsgPinnedUpdated}, nil
}

// ListNotes returns all of the caller's notes, pinned first.
func (s *Service) ListNotes(ctx context.Context, accountID string) (_ *api.NoteListResponse, err error) {
	defer s.record("list_notes", &err)

	if accountID == "" {
		return nil, api.NewUnauthenticatedError(MsgAuthRequired)
	}

	notes, err := s.store.ListNotes(ctx, accountID)
	if err != nil {
		return nil, s.internal(ctx, "list_notes", err)
	}

	return &api.NoteListResponse{Error: false, Notes: nonNil(notes), Message: MsgNotesRetrieved}, nil
}

// DeleteNote removes one of the caller's notes.
func (s *Service) DeleteNote(ctx context.Context, accountID, noteID string) (_ *api.MessageResponse, err error) {
	defer s.record("delete_note", &err)

	if accountID == "" {
		return nil, api.NewUnauthenticatedError(MsgAuthRequired)
	}

	if err := s.store.DeleteNote(ctx, accountID, noteID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, api.NewNotFoundError(MsgNoteNotFound)
		}
		return nil, s.internal(ctx, "delete_note", err)
	}

	s.logger.Debug("note deleted", "account_id", accountID, "note_id", noteID)

	return &api.MessageResponse{Error: false, Message: MsgNoteDeleted}, nil
}

// SearchNotes returns the caller's notes whose title or content contains
// query, ignoring case.
func (s *Service) SearchNotes(ctx context.Context, accountID, query string) (_ *api.NoteListResponse, err error) {
	defer s.record("search_notes", &err)

	if accountID == "" {
		return nil, api.NewUnauthenticatedError(MsgAuthRequired)
	}
	if apiErr := api.ValidateSearchQuery(query); apiErr != nil {
		return nil, apiErr
	}

	notes, err := s.store.SearchNotes(ctx, accountID, query)
	if err != nil {
		return nil, s.internal(ctx, "search_notes", err)
	}

	return &api.NoteListResponse{Error: false, Notes: nonNil(notes), Message: MsgSearchRetrieved}, nil
}

// HealthCheck reports whether the store is reachable.
func (s *Service) HealthCheck(ctx context.Context) error {
	return s.store.HealthCheck(ctx)
}

func (s *Service) ownedNote(ctx context.Context, op, accountID, noteID string) (*api.Note, error) {
	note, err := s.store.GetNote(ctx, accountID, noteID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, api.NewNotFoundError(MsgNoteNotFound)
		}
		return nil, s.internal(ctx, op, err)
	}
	return note, nil
}

func (s *Service) updateNote(ctx context.Context, op string, note *api.Note) error {
	if err := s.store.UpdateNote(ctx, note); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return api.NewNotFoundError(MsgNoteNotFound)
		}
		return s.internal(ctx, op, err)
	}
	return nil
}

// internal logs err and hides it behind a generic server error.
func (s *Service) internal(ctx context.Context, op string, err error) *api.APIError {
	s.logger.ErrorContext(ctx, "store operation failed",
		"operation", op,
		"error", err,
	)
	return api.NewServerError(MsgInternalError)
}

// record counts the operation outcome once it has returned.
func (s *Service) record(op string, errp *error) {
	observability.NoteOperationsTotal.WithLabelValues(op, Outcome(*errp)).Inc()
}

// Outcome classifies an operation error as a metric label.
func Outcome(err error) string {
	if err == nil {
		return "ok"
	}
	var apiErr *api.APIError
	if !errors.As(err, &apiErr) {
		return "error"
	}
	switch apiErr.Type {
	case api.ErrorTypeInvalidRequest:
		return "invalid"
	case api.ErrorTypeNotFound:
		return "not_found"
	case api.ErrorTypeConflict:
		return "conflict"
	case api.ErrorTypeUnauthenticated:
		return "unauthenticated"
	default:
		return "error"
	}
}

func nonNil(notes []*api.Note) []*api.Note {
	if notes == nil {
		return []*api.Note{}
	}
	return notes
}
