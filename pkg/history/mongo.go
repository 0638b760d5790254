package history

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoOptions configures the MongoDB history backend.
type MongoOptions struct {
	URI        string
	Database   string
	Collection string
}

// MongoStore persists history entries in a MongoDB collection.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoStore connects to MongoDB and verifies the connection.
// Fails fast so a misconfigured deployment surfaces at startup, not on
// the first recorded run.
func NewMongoStore(ctx context.Context, opts MongoOptions) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(opts.URI))
	if err != nil {
		return nil, fmt.Errorf("connecting to mongodb: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("pinging mongodb at %s: %w", opts.URI, err)
	}

	return &MongoStore{
		client: client,
		coll:   client.Database(opts.Database).Collection(opts.Collection),
	}, nil
}

// Record inserts the entry.
func (s *MongoStore) Record(ctx context.Context, entry Entry) error {
	if _, err := s.coll.InsertOne(ctx, entry); err != nil {
		return fmt.Errorf("recording history entry: %w", err)
	}
	return nil
}

// Recent returns up to limit entries sorted by creation time, newest
// first.
func (s *MongoStore) Recent(ctx context.Context, limit int) ([]Entry, error) {
	findOpts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))

	cur, err := s.coll.Find(ctx, bson.D{}, findOpts)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer cur.Close(ctx)

	entries := []Entry{}
	if err := cur.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("decoding history entries: %w", err)
	}
	return entries, nil
}

// Close disconnects from MongoDB.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

var _ Store = (*MongoStore)(nil)
