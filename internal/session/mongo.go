// Package session provides the legacy cookie session store, persisted in
// MongoDB when configured and in memory otherwise.
package session

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CollectionName holds one document per live session.
const CollectionName = "sessions"

type document struct {
	ID        string     `bson:"_id"`
	Value     []byte     `bson:"value"`
	ExpiresAt *time.Time `bson:"expiresAt,omitempty"`
}

// MongoStorage implements fiber.Storage on a MongoDB collection. Expired
// documents are hidden from Get and removed by a TTL index.
type MongoStorage struct {
	coll    *mongo.Collection
	timeout time.Duration
	now     func() time.Time
}

// Connect opens a client for uri and verifies it with a ping.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return client, nil
}

// NewMongoStorage prepares the sessions collection of db, creating its indexes.
func NewMongoStorage(ctx context.Context, db *mongo.Database) (*MongoStorage, error) {
	s := &MongoStorage{
		coll:    db.Collection(CollectionName),
		timeout: 5 * time.Second,
		now:     time.Now,
	}
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "expiresAt", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		},
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (s *MongoStorage) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.timeout)
}

// Get returns nil, nil for unknown or expired keys.
func (s *MongoStorage) Get(key string) ([]byte, error) {
	if key == "" {
		return nil, nil
	}
	ctx, cancel := s.ctx()
	defer cancel()

	var doc document
	err := s.coll.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if doc.ExpiresAt != nil && !doc.ExpiresAt.After(s.now()) {
		return nil, nil
	}
	return doc.Value, nil
}

// Set upserts key. A zero exp keeps the value until deleted.
func (s *MongoStorage) Set(key string, val []byte, exp time.Duration) error {
	if key == "" || len(val) == 0 {
		return nil
	}
	ctx, cancel := s.ctx()
	defer cancel()

	doc := document{ID: key, Value: val}
	if exp > 0 {
		t := s.now().Add(exp).UTC()
		doc.ExpiresAt = &t
	}
	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": key}, doc, options.Replace().SetUpsert(true))
	return err
}

func (s *MongoStorage) Delete(key string) error {
	if key == "" {
		return nil
	}
	ctx, cancel := s.ctx()
	defer cancel()
	_, err := s.coll.DeleteOne(ctx, bson.M{"_id": key})
	return err
}

func (s *MongoStorage) Reset() error {
	ctx, cancel := s.ctx()
	defer cancel()
	_, err := s.coll.DeleteMany(ctx, bson.M{})
	return err
}

// Ping checks the server backing the collection.
func (s *MongoStorage) Ping(ctx context.Context) error {
	return s.coll.Database().Client().Ping(ctx, nil)
}

// Close is a no-op; the client is owned by the caller.
func (s *MongoStorage) Close() error {
	return nil
}
