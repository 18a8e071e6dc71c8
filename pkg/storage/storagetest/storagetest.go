// Package storagetest provides a behavioral test suite that every
// storage.Store adapter runs against its own backend.
package storagetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rhuss/quill/pkg/api"
	"github.com/rhuss/quill/pkg/storage"
)

// MissingNoteIDs returns note ids that exist in no store. Adapters with a
// constrained id format add their own malformed values.
var MissingNoteIDs = []string{"does-not-exist", "00000000-0000-0000-0000-000000000000"}

// Run executes the suite. newStore must return an empty store; it is
// called once per subtest.
func Run(t *testing.T, newStore func(t *testing.T) storage.Store) {
	t.Helper()

	tests := []struct {
		name string
		fn   func(t *testing.T, s storage.Store)
	}{
		{"CreateAndGetAccount", testCreateAndGetAccount},
		{"DuplicateEmail", testDuplicateEmail},
		{"AccountNotFound", testAccountNotFound},
		{"SaveAndGetNote", testSaveAndGetNote},
		{"SaveNoteCreatedOnRoundTrip", testSaveNoteCreatedOnRoundTrip},
		{"NoteTagsDefaultEmpty", testNoteTagsDefaultEmpty},
		{"NoteNotFound", testNoteNotFound},
		{"CrossAccountIsolation", testCrossAccountIsolation},
		{"UpdateNote", testUpdateNote},
		{"UpdateNoteFalsyValues", testUpdateNoteFalsyValues},
		{"DeleteNote", testDeleteNote},
		{"ListOrdering", testListOrdering},
		{"SearchCaseInsensitive", testSearchCaseInsensitive},
		{"SearchLiteral", testSearchLiteral},
		{"HealthCheck", testHealthCheck},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(t, newStore(t))
		})
	}
}

func mustAccount(t *testing.T, s storage.Store, email string) *api.Account {
	t.Helper()
	acct := &api.Account{FullName: "Test User", Email: email, PasswordHash: "$2a$04$hash"}
	if err := s.CreateAccount(context.Background(), acct); err != nil {
		t.Fatalf("CreateAccount(%s): %v", email, err)
	}
	return acct
}

func mustNote(t *testing.T, s storage.Store, owner, title, content string, tags ...string) *api.Note {
	t.Helper()
	n := &api.Note{Title: title, Content: content, Tags: tags, UserID: owner}
	if err := s.SaveNote(context.Background(), n); err != nil {
		t.Fatalf("SaveNote(%s): %v", title, err)
	}
	return n
}

func testCreateAndGetAccount(t *testing.T, s storage.Store) {
	ctx := context.Background()
	acct := mustAccount(t, s, "alice@example.com")

	if acct.ID == "" {
		t.Fatal("CreateAccount did not assign an ID")
	}
	if acct.CreatedOn.IsZero() {
		t.Error("CreateAccount did not set CreatedOn")
	}

	got, err := s.GetAccount(ctx, acct.ID)
	if err != nil {
		t.Fatalf("GetAccount: %v", err)
	}
	if got.Email != "alice@example.com" || got.FullName != "Test User" {
		t.Errorf("GetAccount = %+v", got)
	}
	if got.PasswordHash != "$2a$04$hash" {
		t.Errorf("PasswordHash = %q, want stored hash", got.PasswordHash)
	}

	byEmail, err := s.GetAccountByEmail(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("GetAccountByEmail: %v", err)
	}
	if byEmail.ID != acct.ID {
		t.Errorf("GetAccountByEmail ID = %q, want %q", byEmail.ID, acct.ID)
	}
}

func testDuplicateEmail(t *testing.T, s storage.Store) {
	mustAccount(t, s, "dup@example.com")

	err := s.CreateAccount(context.Background(), &api.Account{FullName: "Other", Email: "dup@example.com", PasswordHash: "x"})
	if !errors.Is(err, storage.ErrConflict) {
		t.Errorf("second CreateAccount = %v, want ErrConflict", err)
	}
}

func testAccountNotFound(t *testing.T, s storage.Store) {
	ctx := context.Background()
	if _, err := s.GetAccountByEmail(ctx, "nobody@example.com"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetAccountByEmail = %v, want ErrNotFound", err)
	}
	for _, id := range MissingNoteIDs {
		if _, err := s.GetAccount(ctx, id); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("GetAccount(%q) = %v, want ErrNotFound", id, err)
		}
	}
}

func testSaveAndGetNote(t *testing.T, s storage.Store) {
	ctx := context.Background()
	owner := mustAccount(t, s, "notes@example.com")
	n := mustNote(t, s, owner.ID, "Groceries", "milk, eggs", "home", "todo")

	if n.ID == "" {
		t.Fatal("SaveNote did not assign an ID")
	}

	got, err := s.GetNote(ctx, owner.ID, n.ID)
	if err != nil {
		t.Fatalf("GetNote: %v", err)
	}
	if got.Title != "Groceries" || got.Content != "milk, eggs" || got.UserID != owner.ID || got.IsPinned {
		t.Errorf("GetNote = %+v", got)
	}
	if len(got.Tags) != 2 || got.Tags[0] != "home" || got.Tags[1] != "todo" {
		t.Errorf("Tags = %v, want [home todo]", got.Tags)
	}
	if got.CreatedOn.IsZero() {
		t.Error("CreatedOn not persisted")
	}
	if d := got.CreatedOn.Sub(n.CreatedOn); d > time.Millisecond || d < -time.Millisecond {
		t.Errorf("CreatedOn = %v, want %v", got.CreatedOn, n.CreatedOn)
	}
}

// A caller-supplied timestamp comes back from SaveNote exactly as the store
// later reads it.
func testSaveNoteCreatedOnRoundTrip(t *testing.T, s storage.Store) {
	ctx := context.Background()
	owner := mustAccount(t, s, "clock@example.com")

	n := &api.Note{
		Title:     "Clock",
		Content:   "nanoseconds",
		UserID:    owner.ID,
		CreatedOn: time.Date(2024, 3, 9, 10, 11, 12, 123456789, time.UTC),
	}
	if err := s.SaveNote(ctx, n); err != nil {
		t.Fatalf("SaveNote: %v", err)
	}

	got, err := s.GetNote(ctx, owner.ID, n.ID)
	if err != nil {
		t.Fatalf("GetNote: %v", err)
	}
	if !got.CreatedOn.Equal(n.CreatedOn) {
		t.Errorf("stored CreatedOn = %v, SaveNote reported %v", got.CreatedOn, n.CreatedOn)
	}

	list, err := s.ListNotes(ctx, owner.ID)
	if err != nil {
		t.Fatalf("ListNotes: %v", err)
	}
	if len(list) != 1 || !list[0].CreatedOn.Equal(n.CreatedOn) {
		t.Errorf("ListNotes CreatedOn differs from SaveNote result %v", n.CreatedOn)
	}
}

func testNoteTagsDefaultEmpty(t *testing.T, s storage.Store) {
	owner := mustAccount(t, s, "tags@example.com")
	n := mustNote(t, s, owner.ID, "T", "C")

	got, err := s.GetNote(context.Background(), owner.ID, n.ID)
	if err != nil {
		t.Fatalf("GetNote: %v", err)
	}
	if got.Tags == nil || len(got.Tags) != 0 {
		t.Errorf("Tags = %#v, want empty non-nil slice", got.Tags)
	}
}

func testNoteNotFound(t *testing.T, s storage.Store) {
	ctx := context.Background()
	owner := mustAccount(t, s, "missing@example.com")

	for _, id := range MissingNoteIDs {
		if _, err := s.GetNote(ctx, owner.ID, id); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("GetNote(%q) = %v, want ErrNotFound", id, err)
		}
		if err := s.DeleteNote(ctx, owner.ID, id); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("DeleteNote(%q) = %v, want ErrNotFound", id, err)
		}
		err := s.UpdateNote(ctx, &api.Note{ID: id, UserID: owner.ID, Title: "x", Content: "y", Tags: []string{}})
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("UpdateNote(%q) = %v, want ErrNotFound", id, err)
		}
	}
}

func testCrossAccountIsolation(t *testing.T, s storage.Store) {
	ctx := context.Background()
	alice := mustAccount(t, s, "a@example.com")
	bob := mustAccount(t, s, "b@example.com")
	n := mustNote(t, s, alice.ID, "Secret", "alice only")

	if _, err := s.GetNote(ctx, bob.ID, n.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetNote by other account = %v, want ErrNotFound", err)
	}

	err := s.UpdateNote(ctx, &api.Note{ID: n.ID, UserID: bob.ID, Title: "pwned", Content: "x", Tags: []string{}})
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("UpdateNote by other account = %v, want ErrNotFound", err)
	}

	if err := s.DeleteNote(ctx, bob.ID, n.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("DeleteNote by other account = %v, want ErrNotFound", err)
	}

	list, err := s.ListNotes(ctx, bob.ID)
	if err != nil {
		t.Fatalf("ListNotes: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("other account lists %d notes, want 0", len(list))
	}

	found, err := s.SearchNotes(ctx, bob.ID, "Secret")
	if err != nil {
		t.Fatalf("SearchNotes: %v", err)
	}
	if len(found) != 0 {
		t.Errorf("other account finds %d notes, want 0", len(found))
	}

	got, err := s.GetNote(ctx, alice.ID, n.ID)
	if err != nil {
		t.Fatalf("owner GetNote: %v", err)
	}
	if got.Title != "Secret" {
		t.Errorf("note altered by other account: %+v", got)
	}
}

func testUpdateNote(t *testing.T, s storage.Store) {
	ctx := context.Background()
	owner := mustAccount(t, s, "upd@example.com")
	n := mustNote(t, s, owner.ID, "Old", "old content", "a")

	n.Title = "New"
	n.Content = "new content"
	n.Tags = []string{"b", "c"}
	n.IsPinned = true
	if err := s.UpdateNote(ctx, n); err != nil {
		t.Fatalf("UpdateNote: %v", err)
	}

	got, err := s.GetNote(ctx, owner.ID, n.ID)
	if err != nil {
		t.Fatalf("GetNote: %v", err)
	}
	if got.Title != "New" || got.Content != "new content" || !got.IsPinned {
		t.Errorf("GetNote after update = %+v", got)
	}
	if len(got.Tags) != 2 || got.Tags[0] != "b" {
		t.Errorf("Tags = %v, want [b c]", got.Tags)
	}
}

func testUpdateNoteFalsyValues(t *testing.T, s storage.Store) {
	ctx := context.Background()
	owner := mustAccount(t, s, "falsy@example.com")
	n := mustNote(t, s, owner.ID, "T", "C", "x")
	n.IsPinned = true
	if err := s.UpdateNote(ctx, n); err != nil {
		t.Fatalf("UpdateNote(pin): %v", err)
	}

	n.IsPinned = false
	n.Tags = []string{}
	if err := s.UpdateNote(ctx, n); err != nil {
		t.Fatalf("UpdateNote(unpin): %v", err)
	}

	got, err := s.GetNote(ctx, owner.ID, n.ID)
	if err != nil {
		t.Fatalf("GetNote: %v", err)
	}
	if got.IsPinned {
		t.Error("IsPinned = true, want false")
	}
	if got.Tags == nil || len(got.Tags) != 0 {
		t.Errorf("Tags = %#v, want empty", got.Tags)
	}
}

func testDeleteNote(t *testing.T, s storage.Store) {
	ctx := context.Background()
	owner := mustAccount(t, s, "del@example.com")
	n := mustNote(t, s, owner.ID, "Gone", "soon")

	if err := s.DeleteNote(ctx, owner.ID, n.ID); err != nil {
		t.Fatalf("DeleteNote: %v", err)
	}
	if _, err := s.GetNote(ctx, owner.ID, n.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetNote after delete = %v, want ErrNotFound", err)
	}
	if err := s.DeleteNote(ctx, owner.ID, n.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("second DeleteNote = %v, want ErrNotFound", err)
	}
}

func testListOrdering(t *testing.T, s storage.Store) {
	ctx := context.Background()
	owner := mustAccount(t, s, "order@example.com")

	first := mustNote(t, s, owner.ID, "first", "1")
	second := mustNote(t, s, owner.ID, "second", "2")
	third := mustNote(t, s, owner.ID, "third", "3")
	fourth := mustNote(t, s, owner.ID, "fourth", "4")

	for _, n := range []*api.Note{third, second} {
		n.IsPinned = true
		if err := s.UpdateNote(ctx, n); err != nil {
			t.Fatalf("UpdateNote: %v", err)
		}
	}

	list, err := s.ListNotes(ctx, owner.ID)
	if err != nil {
		t.Fatalf("ListNotes: %v", err)
	}

	want := []string{second.ID, third.ID, first.ID, fourth.ID}
	if len(list) != len(want) {
		t.Fatalf("ListNotes returned %d notes, want %d", len(list), len(want))
	}
	for i, id := range want {
		if list[i].ID != id {
			t.Errorf("list[%d] = %q (%s), want %q", i, list[i].ID, list[i].Title, id)
		}
	}
}

func testSearchCaseInsensitive(t *testing.T, s storage.Store) {
	ctx := context.Background()
	owner := mustAccount(t, s, "search@example.com")
	byTitle := mustNote(t, s, owner.ID, "Meeting Notes", "agenda")
	byContent := mustNote(t, s, owner.ID, "Todo", "schedule a MEETING")
	mustNote(t, s, owner.ID, "Other", "nothing here")

	found, err := s.SearchNotes(ctx, owner.ID, "meeting")
	if err != nil {
		t.Fatalf("SearchNotes: %v", err)
	}
	if len(found) != 2 {
		t.Fatalf("SearchNotes found %d notes, want 2", len(found))
	}
	if found[0].ID != byTitle.ID || found[1].ID != byContent.ID {
		t.Errorf("SearchNotes order = [%s %s], want [%s %s]", found[0].Title, found[1].Title, byTitle.Title, byContent.Title)
	}

	apples := mustNote(t, s, owner.ID, "ÄPFEL", "Ernte")
	found, err = s.SearchNotes(ctx, owner.ID, "äpfel")
	if err != nil {
		t.Fatalf("SearchNotes: %v", err)
	}
	if len(found) != 1 || found[0].ID != apples.ID {
		t.Errorf("SearchNotes(%q) found %d notes, want the %q note", "äpfel", len(found), apples.Title)
	}
}

func testSearchLiteral(t *testing.T, s storage.Store) {
	ctx := context.Background()
	owner := mustAccount(t, s, "literal@example.com")
	mustNote(t, s, owner.ID, "discount 100%", "sale")
	mustNote(t, s, owner.ID, "file_name", "a.b")
	mustNote(t, s, owner.ID, "plain", "words")

	tests := []struct {
		query string
		want  int
	}{
		{"100%", 1},
		{"%", 1},
		{"_", 1},
		{".", 1},
		{".*", 0},
		{"(", 0},
		{`\`, 0},
	}
	for _, tt := range tests {
		found, err := s.SearchNotes(ctx, owner.ID, tt.query)
		if err != nil {
			t.Fatalf("SearchNotes(%q): %v", tt.query, err)
		}
		if len(found) != tt.want {
			t.Errorf("SearchNotes(%q) found %d notes, want %d", tt.query, len(found), tt.want)
		}
	}
}

func testHealthCheck(t *testing.T, s storage.Store) {
	if err := s.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck: %v", err)
	}
}
