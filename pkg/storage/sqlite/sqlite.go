// Package sqlite provides a SQLite implementation of storage.Store using
// mattn/go-sqlite3. Schema changes are applied with golang-migrate from
// embedded migration files. Tags are stored as a JSON array.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	sqlite3 "github.com/mattn/go-sqlite3"

	"github.com/rhuss/quill/pkg/api"
	"github.com/rhuss/quill/pkg/storage"
)

// driverName is go-sqlite3 with a fold() SQL function registered on every
// connection. SQLite's lower() only folds ASCII.
const driverName = "sqlite3_quill"

func init() {
	sql.Register(driverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc("fold", strings.ToLower, true)
		},
	})
}

// Config holds SQLite settings.
type Config struct {
	// Path is the database file, or ":memory:" for a private in-memory database.
	Path string

	// MigrateOnStart runs schema migrations when the store is opened.
	MigrateOnStart bool
}

// Store is a SQLite-backed storage.Store.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Ensure Store implements storage.Store at compile time.
var _ storage.Store = (*Store)(nil)

// New opens the database at cfg.Path with foreign keys enforced.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Path == "" {
		return nil, errors.New("sqlite path is required")
	}

	dsn := cfg.Path + "?_foreign_keys=on&_busy_timeout=5000"
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Each connection to ":memory:" would see its own empty database.
	if cfg.Path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	s := &Store{db: db, now: time.Now}

	if cfg.MigrateOnStart {
		if err := s.Migrate(); err != nil {
			db.Close()
			return nil, fmt.Errorf("running migrations: %w", err)
		}
	}

	return s, nil
}

// CreateAccount inserts acct under a new id.
func (s *Store) CreateAccount(ctx context.Context, acct *api.Account) error {
	id := uuid.NewString()
	createdOn := acct.CreatedOn
	if createdOn.IsZero() {
		createdOn = s.now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO accounts (id, full_name, email, password_hash, created_on)
		VALUES (?, ?, ?, ?, ?)
	`, id, acct.FullName, acct.Email, acct.PasswordHash, formatTime(createdOn))
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrConflict
		}
		return fmt.Errorf("inserting account: %w", err)
	}

	acct.ID = id
	acct.CreatedOn = createdOn
	return nil
}

// GetAccount retrieves an account by id.
func (s *Store) GetAccount(ctx context.Context, id string) (*api.Account, error) {
	return s.getAccount(ctx, `SELECT id, full_name, email, password_hash, created_on FROM accounts WHERE id = ?`, id)
}

// GetAccountByEmail retrieves an account by its normalized email.
func (s *Store) GetAccountByEmail(ctx context.Context, email string) (*api.Account, error) {
	return s.getAccount(ctx, `SELECT id, full_name, email, password_hash, created_on FROM accounts WHERE email = ?`, email)
}

func (s *Store) getAccount(ctx context.Context, query, arg string) (*api.Account, error) {
	var a api.Account
	var createdOn string
	err := s.db.QueryRowContext(ctx, query, arg).Scan(&a.ID, &a.FullName, &a.Email, &a.PasswordHash, &createdOn)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying account: %w", err)
	}
	if a.CreatedOn, err = parseTime(createdOn); err != nil {
		return nil, err
	}
	return &a, nil
}

// SaveNote inserts n under a new id.
func (s *Store) SaveNote(ctx context.Context, n *api.Note) error {
	id := uuid.NewString()
	createdOn := n.CreatedOn
	if createdOn.IsZero() {
		createdOn = s.now().UTC()
	}
	tags := n.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return fmt.Errorf("marshaling tags: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO notes (id, user_id, title, content, tags, is_pinned, created_on)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, id, n.UserID, n.Title, n.Content, string(tagsJSON), n.IsPinned, formatTime(createdOn))
	if err != nil {
		return fmt.Errorf("inserting note: %w", err)
	}

	n.ID = id
	n.CreatedOn = createdOn
	n.Tags = tags
	return nil
}

const noteColumns = `id, user_id, title, content, tags, is_pinned, created_on`

// GetNote retrieves a note by id, scoped to ownerID.
func (s *Store) GetNote(ctx context.Context, ownerID, noteID string) (*api.Note, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+noteColumns+` FROM notes WHERE id = ? AND user_id = ?`,
		noteID, ownerID,
	)
	n, err := scanNote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying note: %w", err)
	}
	return n, nil
}

// UpdateNote overwrites the mutable fields of the note matching n.ID and n.UserID.
func (s *Store) UpdateNote(ctx context.Context, n *api.Note) error {
	tags := n.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return fmt.Errorf("marshaling tags: %w", err)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE notes SET title = ?, content = ?, tags = ?, is_pinned = ?
		WHERE id = ? AND user_id = ?
	`, n.Title, n.Content, string(tagsJSON), n.IsPinned, n.ID, n.UserID)
	if err != nil {
		return fmt.Errorf("updating note: %w", err)
	}
	return requireRow(result)
}

// DeleteNote removes a note, scoped to ownerID.
func (s *Store) DeleteNote(ctx context.Context, ownerID, noteID string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM notes WHERE id = ? AND user_id = ?`, noteID, ownerID)
	if err != nil {
		return fmt.Errorf("deleting note: %w", err)
	}
	return requireRow(result)
}

// ListNotes returns every note owned by ownerID, pinned first, then by rowid.
func (s *Store) ListNotes(ctx context.Context, ownerID string) ([]*api.Note, error) {
	return s.queryNotes(ctx,
		`SELECT `+noteColumns+` FROM notes WHERE user_id = ? ORDER BY is_pinned DESC, rowid ASC`,
		ownerID,
	)
}

// SearchNotes matches query literally and case-insensitively against title
// and content.
func (s *Store) SearchNotes(ctx context.Context, ownerID, query string) ([]*api.Note, error) {
	pattern := storage.EscapeLike(strings.ToLower(query))
	return s.queryNotes(ctx, `
		SELECT `+noteColumns+` FROM notes
		WHERE user_id = ?
		  AND (fold(title) LIKE ? ESCAPE '\' OR fold(content) LIKE ? ESCAPE '\')
		ORDER BY is_pinned DESC, rowid ASC
	`, ownerID, pattern, pattern)
}

func (s *Store) queryNotes(ctx context.Context, query string, args ...any) ([]*api.Note, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying notes: %w", err)
	}
	defer rows.Close()

	notes := []*api.Note{}
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning note: %w", err)
		}
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating notes: %w", err)
	}
	return notes, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanNote(row rowScanner) (*api.Note, error) {
	var n api.Note
	var tagsJSON, createdOn string
	if err := row.Scan(&n.ID, &n.UserID, &n.Title, &n.Content, &tagsJSON, &n.IsPinned, &createdOn); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(tagsJSON), &n.Tags); err != nil {
		return nil, fmt.Errorf("unmarshaling tags: %w", err)
	}
	if n.Tags == nil {
		n.Tags = []string{}
	}
	var err error
	if n.CreatedOn, err = parseTime(createdOn); err != nil {
		return nil, err
	}
	return &n, nil
}

// HealthCheck verifies the database is reachable.
func (s *Store) HealthCheck(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func requireRow(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading affected rows: %w", err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing timestamp %q: %w", s, err)
	}
	return t, nil
}

// isUniqueViolation reports whether err is a SQLite UNIQUE constraint failure.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}
