package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Sentinel errors returned by the storage layer. Handlers map these onto
// HTTP status codes.
var (
	ErrUserNotFound  = errors.New("user not found")
	ErrEventNotFound = errors.New("event not found")
	ErrEventFull     = errors.New("event is full")
	ErrAlreadyJoined = errors.New("user has already joined this event")
	ErrNotJoined     = errors.New("user has not joined this event")
)

// DB is the scoped database handle acquired once at startup and passed to
// every handler. There is no package-level client.
type DB struct {
	client *mongo.Client

	Users         *mongo.Collection
	Events        *mongo.Collection
	Counters      *mongo.Collection
	Subscriptions *mongo.Collection
}

// Connect dials MongoDB, pings it, and returns the handle. Callers are
// expected to treat failure as fatal.
func Connect(ctx context.Context, uri, dbName string) (*DB, error) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	db := client.Database(dbName)
	return &DB{
		client:        client,
		Users:         db.Collection("users"),
		Events:        db.Collection("events"),
		Counters:      db.Collection("counters"),
		Subscriptions: db.Collection("subscriptions"),
	}, nil
}

func (db *DB) Disconnect(ctx context.Context) error {
	if db == nil || db.client == nil {
		return nil
	}
	return db.client.Disconnect(ctx)
}

func (db *DB) Ping(ctx context.Context) error {
	return db.client.Ping(ctx, nil)
}

// EnsureIndexes creates the indexes the service relies on. The unique uid
// index is what makes concurrent first-registrations safe.
func (db *DB) EnsureIndexes(ctx context.Context) error {
	_, err := db.Users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "uid", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("users_uid_unique"),
		},
	})
	if err != nil {
		return fmt.Errorf("users indexes: %w", err)
	}

	_, err = db.Events.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "eventId", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("events_event_id_unique"),
		},
		{
			Keys:    bson.D{{Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("events_created_at"),
		},
	})
	if err != nil {
		return fmt.Errorf("events indexes: %w", err)
	}

	_, err = db.Subscriptions.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "uid", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("subscriptions_uid_unique"),
		},
	})
	if err != nil {
		return fmt.Errorf("subscriptions indexes: %w", err)
	}
	return nil
}

// NextSequence atomically increments and returns the named counter. The
// upsert makes the first call for a name start at 1.
func (db *DB) NextSequence(ctx context.Context, name string) (int64, error) {
	var doc struct {
		Seq int64 `bson:"seq"`
	}
	err := db.Counters.FindOneAndUpdate(
		ctx,
		bson.M{"_id": name},
		bson.M{"$inc": bson.M{"seq": 1}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return 0, fmt.Errorf("next sequence %q: %w", name, err)
	}
	return doc.Seq, nil
}

// FormatEventID renders a sequence number as a public event id, e.g. EVT007.
// Ids keep growing past three digits (EVT1000).
func FormatEventID(seq int64) string {
	return fmt.Sprintf("EVT%03d", seq)
}

// FormatUserID renders a sequence number as a public user id, e.g. USR001.
func FormatUserID(seq int64) string {
	return fmt.Sprintf("USR%03d", seq)
}
