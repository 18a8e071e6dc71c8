// Package memory provides an in-memory implementation of storage.Store for
// tests and single-process deployments. Data is lost when the process exits.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rhuss/quill/pkg/api"
	"github.com/rhuss/quill/pkg/storage"
)

// noteEntry holds a stored note and its insertion sequence.
type noteEntry struct {
	note *api.Note
	seq  uint64
}

// Store is an in-memory storage.Store. Records are copied on the way in
// and on the way out, so callers never share state with the store.
type Store struct {
	mu       sync.RWMutex
	accounts map[string]*api.Account
	emails   map[string]string // email -> account id
	notes    map[string]*noteEntry
	seq      uint64
	now      func() time.Time
}

// Ensure Store implements storage.Store at compile time.
var _ storage.Store = (*Store)(nil)

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		accounts: make(map[string]*api.Account),
		emails:   make(map[string]string),
		notes:    make(map[string]*noteEntry),
		now:      time.Now,
	}
}

// CreateAccount stores a copy of acct under a new id.
func (s *Store) CreateAccount(_ context.Context, acct *api.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.emails[acct.Email]; exists {
		return storage.ErrConflict
	}

	acct.ID = uuid.NewString()
	if acct.CreatedOn.IsZero() {
		acct.CreatedOn = s.now().UTC()
	}

	c := *acct
	s.accounts[c.ID] = &c
	s.emails[c.Email] = c.ID
	return nil
}

// GetAccount returns a copy of the account with the given id.
func (s *Store) GetAccount(_ context.Context, id string) (*api.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.accounts[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	c := *a
	return &c, nil
}

// GetAccountByEmail returns a copy of the account registered with email.
func (s *Store) GetAccountByEmail(_ context.Context, email string) (*api.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.emails[email]
	if !ok {
		return nil, storage.ErrNotFound
	}
	c := *s.accounts[id]
	return &c, nil
}

// SaveNote stores a copy of n under a new id.
func (s *Store) SaveNote(_ context.Context, n *api.Note) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n.ID = uuid.NewString()
	if n.CreatedOn.IsZero() {
		n.CreatedOn = s.now().UTC()
	}
	if n.Tags == nil {
		n.Tags = []string{}
	}

	s.seq++
	s.notes[n.ID] = &noteEntry{note: n.Clone(), seq: s.seq}
	return nil
}

// GetNote returns a copy of the note when it is owned by ownerID.
func (s *Store) GetNote(_ context.Context, ownerID, noteID string) (*api.Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.notes[noteID]
	if !ok || e.note.UserID != ownerID {
		return nil, storage.ErrNotFound
	}
	return e.note.Clone(), nil
}

// UpdateNote overwrites the mutable fields of the note matching n.ID and n.UserID.
func (s *Store) UpdateNote(_ context.Context, n *api.Note) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.notes[n.ID]
	if !ok || e.note.UserID != n.UserID {
		return storage.ErrNotFound
	}

	updated := e.note.Clone()
	updated.Title = n.Title
	updated.Content = n.Content
	updated.Tags = append([]string{}, n.Tags...)
	updated.IsPinned = n.IsPinned
	e.note = updated
	return nil
}

// DeleteNote removes the note when it is owned by ownerID.
func (s *Store) DeleteNote(_ context.Context, ownerID, noteID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.notes[noteID]
	if !ok || e.note.UserID != ownerID {
		return storage.ErrNotFound
	}
	delete(s.notes, noteID)
	return nil
}

// ListNotes returns copies of every note owned by ownerID.
func (s *Store) ListNotes(_ context.Context, ownerID string) ([]*api.Note, error) {
	return s.collect(ownerID, func(*api.Note) bool { return true }), nil
}

// SearchNotes returns copies of the notes owned by ownerID whose title or
// content contains query, ignoring case.
func (s *Store) SearchNotes(_ context.Context, ownerID, query string) ([]*api.Note, error) {
	q := strings.ToLower(query)
	return s.collect(ownerID, func(n *api.Note) bool {
		return strings.Contains(strings.ToLower(n.Title), q) ||
			strings.Contains(strings.ToLower(n.Content), q)
	}), nil
}

// collect returns matching notes of ownerID, pinned first, then by insertion.
func (s *Store) collect(ownerID string, match func(*api.Note) bool) []*api.Note {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var entries []*noteEntry
	for _, e := range s.notes {
		if e.note.UserID == ownerID && match(e.note) {
			entries = append(entries, e)
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].note.IsPinned != entries[j].note.IsPinned {
			return entries[i].note.IsPinned
		}
		return entries[i].seq < entries[j].seq
	})

	result := make([]*api.Note, 0, len(entries))
	for _, e := range entries {
		result = append(result, e.note.Clone())
	}
	return result
}

// HealthCheck always returns nil for the in-memory store.
func (s *Store) HealthCheck(_ context.Context) error {
	return nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error {
	return nil
}
