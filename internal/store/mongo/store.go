// Package mongostore provides MongoDB-backed persistence for imported pages.
package mongostore

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/contentforge/siteimport/internal/content"
)

const (
	defaultDatabase   = "siteimport"
	defaultCollection = "sitecontent"
)

// Config controls the MongoDB connection used for content documents.
type Config struct {
	URI        string
	Database   string
	Collection string
}

// Store writes imported page documents into MongoDB.
type Store struct {
	client     *mongo.Client
	collection *mongo.Collection
	database   string
}

// New connects to MongoDB, verifies the connection and prepares the content
// collection. The ctx bounds the initial connect and ping.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("store.uri is required")
	}
	database := cfg.Database
	if database == "" {
		database = defaultDatabase
	}
	collection := cfg.Collection
	if collection == "" {
		collection = defaultCollection
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	s := &Store{
		client:     client,
		collection: client.Database(database).Collection(collection),
		database:   database,
	}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	model := mongo.IndexModel{
		Keys: bson.D{{Key: "created_at", Value: -1}},
	}
	if _, err := s.collection.Indexes().CreateOne(ctx, model); err != nil {
		return fmt.Errorf("create created_at index: %w", err)
	}
	return nil
}

// Create inserts a content document.
func (s *Store) Create(ctx context.Context, rec content.SiteContent) (content.SiteContent, error) {
	if rec.ID == "" {
		return content.SiteContent{}, &content.StoreError{Op: "create", Err: fmt.Errorf("record id is required")}
	}
	if _, err := s.collection.InsertOne(ctx, rec); err != nil {
		return content.SiteContent{}, &content.StoreError{Op: "create", Err: err}
	}
	return rec, nil
}

// Latest returns up to limit documents ordered newest-first by creation
// time. A non-positive limit returns no documents rather than the whole
// collection.
func (s *Store) Latest(ctx context.Context, limit int) ([]content.SiteContent, error) {
	if limit <= 0 {
		return []content.SiteContent{}, nil
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := s.collection.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, &content.StoreError{Op: "latest", Err: err}
	}

	out := make([]content.SiteContent, 0, limit)
	if err := cursor.All(ctx, &out); err != nil {
		return nil, &content.StoreError{Op: "latest", Err: err}
	}
	return out, nil
}

// Ping verifies connectivity to the primary.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx, readpref.Primary()); err != nil {
		return &content.StoreError{Op: "ping", Err: err}
	}
	return nil
}

// Collections lists the collection names in the configured database.
func (s *Store) Collections(ctx context.Context) ([]string, error) {
	names, err := s.client.Database(s.database).ListCollectionNames(ctx, bson.D{})
	if err != nil {
		return nil, &content.StoreError{Op: "collections", Err: err}
	}
	return names, nil
}

// Name identifies the provider.
func (s *Store) Name() string {
	return "mongo"
}

// Close disconnects from MongoDB.
func (s *Store) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	if err := s.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("disconnect mongo: %w", err)
	}
	return nil
}
