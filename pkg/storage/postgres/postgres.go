// Package postgres provides a PostgreSQL implementation of storage.Store.
// It uses pgx/v5 for connection pooling and stores note tags as TEXT[].
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rhuss/quill/pkg/api"
	"github.com/rhuss/quill/pkg/storage"
)

// Store is a PostgreSQL-backed storage.Store.
type Store struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// Ensure Store implements storage.Store at compile time.
var _ storage.Store = (*Store)(nil)

// New creates a new PostgreSQL store with the given configuration.
// If MigrateOnStart is true, schema migrations are applied automatically.
func New(ctx context.Context, cfg Config) (*Store, error) {
	cfg.defaults()

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parsing DSN: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	s := &Store{pool: pool, now: time.Now}

	if cfg.MigrateOnStart {
		if err := s.Migrate(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("running migrations: %w", err)
		}
	}

	return s, nil
}

// timestamp returns t, or the current time when t is zero, at the
// precision PostgreSQL keeps.
func (s *Store) timestamp(t time.Time) time.Time {
	if t.IsZero() {
		t = s.now()
	}
	return t.UTC().Truncate(time.Microsecond)
}

// CreateAccount inserts acct under a new id.
func (s *Store) CreateAccount(ctx context.Context, acct *api.Account) error {
	id := uuid.NewString()
	createdOn := s.timestamp(acct.CreatedOn)

	_, err := s.pool.Exec(ctx, `
		INSERT INTO accounts (id, full_name, email, password_hash, created_on)
		VALUES ($1, $2, $3, $4, $5)
	`, id, acct.FullName, acct.Email, acct.PasswordHash, createdOn)
	if err != nil {
		if isDuplicateKey(err) {
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
	return s.getAccount(ctx, "id", id)
}

// GetAccountByEmail retrieves an account by its normalized email.
func (s *Store) GetAccountByEmail(ctx context.Context, email string) (*api.Account, error) {
	return s.getAccount(ctx, "email", email)
}

func (s *Store) getAccount(ctx context.Context, column, value string) (*api.Account, error) {
	// column is one of two constants chosen by the callers above.
	query := `SELECT id, full_name, email, password_hash, created_on FROM accounts WHERE ` + column + ` = $1`

	var a api.Account
	err := s.pool.QueryRow(ctx, query, value).Scan(&a.ID, &a.FullName, &a.Email, &a.PasswordHash, &a.CreatedOn)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying account: %w", err)
	}
	a.CreatedOn = a.CreatedOn.UTC()
	return &a, nil
}

// SaveNote inserts n under a new id.
func (s *Store) SaveNote(ctx context.Context, n *api.Note) error {
	id := uuid.NewString()
	createdOn := s.timestamp(n.CreatedOn)
	tags := n.Tags
	if tags == nil {
		tags = []string{}
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO notes (id, user_id, title, content, tags, is_pinned, created_on)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, id, n.UserID, n.Title, n.Content, tags, n.IsPinned, createdOn)
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
	row := s.pool.QueryRow(ctx,
		`SELECT `+noteColumns+` FROM notes WHERE id = $1 AND user_id = $2`,
		noteID, ownerID,
	)
	n, err := scanNote(row)
	if errors.Is(err, pgx.ErrNoRows) {
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

	result, err := s.pool.Exec(ctx, `
		UPDATE notes SET title = $1, content = $2, tags = $3, is_pinned = $4
		WHERE id = $5 AND user_id = $6
	`, n.Title, n.Content, tags, n.IsPinned, n.ID, n.UserID)
	if err != nil {
		return fmt.Errorf("updating note: %w", err)
	}
	if result.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// DeleteNote removes a note, scoped to ownerID.
func (s *Store) DeleteNote(ctx context.Context, ownerID, noteID string) error {
	result, err := s.pool.Exec(ctx,
		"DELETE FROM notes WHERE id = $1 AND user_id = $2",
		noteID, ownerID,
	)
	if err != nil {
		return fmt.Errorf("deleting note: %w", err)
	}
	if result.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ListNotes returns every note owned by ownerID, pinned first.
func (s *Store) ListNotes(ctx context.Context, ownerID string) ([]*api.Note, error) {
	return s.queryNotes(ctx,
		`SELECT `+noteColumns+` FROM notes WHERE user_id = $1 ORDER BY is_pinned DESC, seq ASC`,
		ownerID,
	)
}

// SearchNotes matches query literally against title and content with ILIKE.
func (s *Store) SearchNotes(ctx context.Context, ownerID, query string) ([]*api.Note, error) {
	pattern := storage.EscapeLike(query)
	return s.queryNotes(ctx, `
		SELECT `+noteColumns+` FROM notes
		WHERE user_id = $1 AND (title ILIKE $2 OR content ILIKE $2)
		ORDER BY is_pinned DESC, seq ASC
	`, ownerID, pattern)
}

func (s *Store) queryNotes(ctx context.Context, query string, args ...any) ([]*api.Note, error) {
	rows, err := s.pool.Query(ctx, query, args...)
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

func scanNote(row pgx.Row) (*api.Note, error) {
	var n api.Note
	if err := row.Scan(&n.ID, &n.UserID, &n.Title, &n.Content, &n.Tags, &n.IsPinned, &n.CreatedOn); err != nil {
		return nil, err
	}
	if n.Tags == nil {
		n.Tags = []string{}
	}
	n.CreatedOn = n.CreatedOn.UTC()
	return &n, nil
}

// HealthCheck verifies the database connection.
func (s *Store) HealthCheck(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// isDuplicateKey checks if the error is a PostgreSQL unique violation (23505).
func isDuplicateKey(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
