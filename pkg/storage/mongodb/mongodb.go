// Package mongodb provides a MongoDB implementation of storage.Store using
// the official mongo-driver. Accounts and notes live in the "accounts" and
// "notes" collections and are keyed by ObjectID.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/rhuss/quill/pkg/api"
	"github.com/rhuss/quill/pkg/storage"
)

// Config holds MongoDB connection settings.
type Config struct {
	// URI is the connection string, e.g. "mongodb://localhost:27017".
	URI string

	// Database is the database name (default: "quill").
	Database string

	// ConnectTimeout bounds the initial connection and ping (default: 10s).
	ConnectTimeout time.Duration

	// MigrateOnStart creates the collection indexes when the store is opened.
	MigrateOnStart bool
}

func (c *Config) defaults() {
	if c.Database == "" {
		c.Database = "quill"
	}
	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = 10 * time.Second
	}
}

// Store is a MongoDB-backed storage.Store.
type Store struct {
	client   *mongo.Client
	accounts *mongo.Collection
	notes    *mongo.Collection
	now      func() time.Time
}

// Ensure Store implements storage.Store at compile time.
var _ storage.Store = (*Store)(nil)

type accountDoc struct {
	ID        primitive.ObjectID `bson:"_id"`
	FullName  string             `bson:"fullName"`
	Email     string             `bson:"email"`
	Password  string             `bson:"password"`
	CreatedOn time.Time          `bson:"createdOn"`
}

type noteDoc struct {
	ID        primitive.ObjectID `bson:"_id"`
	Title     string             `bson:"title"`
	Content   string             `bson:"content"`
	Tags      []string           `bson:"tags"`
	IsPinned  bool               `bson:"isPinned"`
	UserID    string             `bson:"userId"`
	CreatedOn time.Time          `bson:"createdOn"`
}

// New connects to MongoDB and verifies the connection.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.URI == "" {
		return nil, errors.New("mongo URI is required")
	}
	cfg.defaults()

	connectCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connecting to mongo: %w", err)
	}
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("pinging mongo: %w", err)
	}

	db := client.Database(cfg.Database)
	s := &Store{
		client:   client,
		accounts: db.Collection("accounts"),
		notes:    db.Collection("notes"),
		now:      time.Now,
	}

	if cfg.MigrateOnStart {
		if err := s.EnsureIndexes(ctx); err != nil {
			client.Disconnect(context.Background())
			return nil, err
		}
	}

	return s, nil
}

// EnsureIndexes creates the unique email index and the note listing index.
// Existing indexes are left in place.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.accounts.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("creating account index: %w", err)
	}

	_, err = s.notes.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "userId", Value: 1}, {Key: "isPinned", Value: -1}, {Key: "_id", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("creating note index: %w", err)
	}
	return nil
}

// timestamp returns the current time at the precision BSON dates keep.
func (s *Store) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}

// CreateAccount inserts acct under a new ObjectID.
func (s *Store) CreateAccount(ctx context.Context, acct *api.Account) error {
	doc := accountDoc{
		ID:        primitive.NewObjectID(),
		FullName:  acct.FullName,
		Email:     acct.Email,
		Password:  acct.PasswordHash,
		CreatedOn: acct.CreatedOn.UTC().Truncate(time.Millisecond),
	}
	if acct.CreatedOn.IsZero() {
		doc.CreatedOn = s.timestamp()
	}

	if _, err := s.accounts.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return storage.ErrConflict
		}
		return fmt.Errorf("inserting account: %w", err)
	}

	acct.ID = doc.ID.Hex()
	acct.CreatedOn = doc.CreatedOn
	return nil
}

// GetAccount retrieves an account by its hex ObjectID.
func (s *Store) GetAccount(ctx context.Context, id string) (*api.Account, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, storage.ErrNotFound
	}
	return s.findAccount(ctx, bson.M{"_id": oid})
}

// GetAccountByEmail retrieves an account by its normalized email.
func (s *Store) GetAccountByEmail(ctx context.Context, email string) (*api.Account, error) {
	return s.findAccount(ctx, bson.M{"email": email})
}

func (s *Store) findAccount(ctx context.Context, filter bson.M) (*api.Account, error) {
	var doc accountDoc
	err := s.accounts.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying account: %w", err)
	}
	return &api.Account{
		ID:           doc.ID.Hex(),
		FullName:     doc.FullName,
		Email:        doc.Email,
		PasswordHash: doc.Password,
		CreatedOn:    doc.CreatedOn.UTC(),
	}, nil
}

// SaveNote inserts n under a new ObjectID.
func (s *Store) SaveNote(ctx context.Context, n *api.Note) error {
	doc := noteDoc{
		ID:        primitive.NewObjectID(),
		Title:     n.Title,
		Content:   n.Content,
		Tags:      n.Tags,
		IsPinned:  n.IsPinned,
		UserID:    n.UserID,
		CreatedOn: n.CreatedOn.UTC().Truncate(time.Millisecond),
	}
	if doc.Tags == nil {
		doc.Tags = []string{}
	}
	if n.CreatedOn.IsZero() {
		doc.CreatedOn = s.timestamp()
	}

	if _, err := s.notes.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("inserting note: %w", err)
	}

	n.ID = doc.ID.Hex()
	n.Tags = doc.Tags
	n.CreatedOn = doc.CreatedOn
	return nil
}

// noteFilter matches one note by id and owner. ok is false when noteID is
// not a valid ObjectID, in which case no note can match.
func noteFilter(ownerID, noteID string) (bson.M, bool) {
	oid, err := primitive.ObjectIDFromHex(noteID)
	if err != nil {
		return nil, false
	}
	return bson.M{"_id": oid, "userId": ownerID}, true
}

// GetNote retrieves a note by id, scoped to ownerID.
func (s *Store) GetNote(ctx context.Context, ownerID, noteID string) (*api.Note, error) {
	filter, ok := noteFilter(ownerID, noteID)
	if !ok {
		return nil, storage.ErrNotFound
	}

	var doc noteDoc
	err := s.notes.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying note: %w", err)
	}
	return doc.toNote(), nil
}

// UpdateNote overwrites the mutable fields of the note matching n.ID and n.UserID.
func (s *Store) UpdateNote(ctx context.Context, n *api.Note) error {
	filter, ok := noteFilter(n.UserID, n.ID)
	if !ok {
		return storage.ErrNotFound
	}
	tags := n.Tags
	if tags == nil {
		tags = []string{}
	}

	result, err := s.notes.UpdateOne(ctx, filter, bson.M{"$set": bson.M{
		"title":    n.Title,
		"content":  n.Content,
		"tags":     tags,
		"isPinned": n.IsPinned,
	}})
	if err != nil {
		return fmt.Errorf("updating note: %w", err)
	}
	if result.MatchedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// DeleteNote removes a note, scoped to ownerID.
func (s *Store) DeleteNote(ctx context.Context, ownerID, noteID string) error {
	filter, ok := noteFilter(ownerID, noteID)
	if !ok {
		return storage.ErrNotFound
	}

	result, err := s.notes.DeleteOne(ctx, filter)
	if err != nil {
		return fmt.Errorf("deleting note: %w", err)
	}
	if result.DeletedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ListNotes returns every note owned by ownerID, pinned first, then by _id.
func (s *Store) ListNotes(ctx context.Context, ownerID string) ([]*api.Note, error) {
	return s.findNotes(ctx, bson.M{"userId": ownerID})
}

// SearchNotes matches query as a quoted, case-insensitive regular expression
// against title and content.
func (s *Store) SearchNotes(ctx context.Context, ownerID, query string) ([]*api.Note, error) {
	re := primitive.Regex{Pattern: regexp.QuoteMeta(query), Options: "i"}
	return s.findNotes(ctx, bson.M{
		"userId": ownerID,
		"$or": bson.A{
			bson.M{"title": re},
			bson.M{"content": re},
		},
	})
}

func (s *Store) findNotes(ctx context.Context, filter bson.M) ([]*api.Note, error) {
	opts := options.Find().SetSort(bson.D{{Key: "isPinned", Value: -1}, {Key: "_id", Value: 1}})
	cursor, err := s.notes.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("querying notes: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []noteDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decoding notes: %w", err)
	}

	notes := make([]*api.Note, 0, len(docs))
	for i := range docs {
		notes = append(notes, docs[i].toNote())
	}
	return notes, nil
}

func (d *noteDoc) toNote() *api.Note {
	tags := d.Tags
	if tags == nil {
		tags = []string{}
	}
	return &api.Note{
		ID:        d.ID.Hex(),
		Title:     d.Title,
		Content:   d.Content,
		Tags:      tags,
		IsPinned:  d.IsPinned,
		UserID:    d.UserID,
		CreatedOn: d.CreatedOn.UTC(),
	}
}

// HealthCheck pings the primary.
func (s *Store) HealthCheck(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
