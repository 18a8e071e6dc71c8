package storage

import (
	"context"

	"github.com/rhuss/quill/pkg/api"
)

// Store persists accounts and their notes.
type Store interface {
	// CreateAccount inserts acct and assigns its ID. CreatedOn is set when
	// zero. Returns ErrConflict when the email is already registered.
	CreateAccount(ctx context.Context, acct *api.Account) error

	// GetAccount returns the account with the given id.
	GetAccount(ctx context.Context, id string) (*api.Account, error)

	// GetAccountByEmail returns the account registered with email, which
	// must already be normalized.
	GetAccountByEmail(ctx context.Context, email string) (*api.Account, error)

	// SaveNote inserts n and assigns its ID. CreatedOn is set when zero.
	SaveNote(ctx context.Context, n *api.Note) error

	// GetNote returns the note only when it is owned by ownerID.
	GetNote(ctx context.Context, ownerID, noteID string) (*api.Note, error)

	// UpdateNote overwrites title, content, tags and isPinned of the note
	// matching both n.ID and n.UserID.
	UpdateNote(ctx context.Context, n *api.Note) error

	// DeleteNote removes the note only when it is owned by ownerID.
	DeleteNote(ctx context.Context, ownerID, noteID string) error

	// ListNotes returns every note owned by ownerID, pinned notes first,
	// then in insertion order.
	ListNotes(ctx context.Context, ownerID string) ([]*api.Note, error)

	// SearchNotes returns the notes owned by ownerID whose title or content
	// contains query, ignoring case. The query is matched literally. Results
	// are ordered like ListNotes.
	SearchNotes(ctx context.Context, ownerID, query string) ([]*api.Note, error)

	// HealthCheck verifies the backing store is reachable.
	HealthCheck(ctx context.Context) error

	// Close releases the store's resources.
	Close() error
}
