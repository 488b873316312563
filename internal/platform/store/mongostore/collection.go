// Package mongostore is the MongoDB backend of the record store.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/caretrack/caretrack/internal/platform/store"
)

// Connect opens a client with the uuid codec registered and pings it.
func Connect(ctx context.Context, uri, database string) (*mongo.Database, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).SetRegistry(Registry()))
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}
	return client.Database(database), nil
}

// Collection implements store.Repository over one MongoDB collection.
// Document keys are the wire field names, with id stored as _id.
type Collection[T store.Entity] struct {
	coll        *mongo.Collection
	defaultSort []store.SortKey
	now         func() time.Time
}

func New[T store.Entity](db *mongo.Database, name string, defaultSort ...store.SortKey) *Collection[T] {
	return &Collection[T]{coll: db.Collection(name), defaultSort: defaultSort, now: time.Now}
}

func (c *Collection[T]) List(ctx context.Context, q store.Query) ([]T, int, error) {
	if err := q.Validate(nil); err != nil {
		return nil, 0, err
	}
	filter := Filter(q)
	total, err := c.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count %s: %w", c.coll.Name(), err)
	}

	keys := q.OrderBy
	if len(keys) == 0 {
		keys = c.defaultSort
	}
	opts := options.Find().SetSort(Sort(keys))
	if p := Projection(q.Fields); p != nil {
		opts.SetProjection(p)
	}
	if q.Offset > 0 {
		opts.SetSkip(int64(q.Offset))
	}
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}

	cursor, err := c.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("find %s: %w", c.coll.Name(), err)
	}
	var items []T
	if err := cursor.All(ctx, &items); err != nil {
		return nil, 0, fmt.Errorf("decode %s: %w", c.coll.Name(), err)
	}
	return items, int(total), nil
}

func (c *Collection[T]) GetByID(ctx context.Context, id uuid.UUID) (T, error) {
	var v T
	err := c.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&v)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return v, store.ErrNotFound
	}
	return v, err
}

func (c *Collection[T]) Create(ctx context.Context, v T) error {
	if v.GetID() == uuid.Nil {
		v.SetID(uuid.New())
	}
	now := c.now().UTC()
	v.Stamp(now, now)
	_, err := c.coll.InsertOne(ctx, v)
	return err
}

func (c *Collection[T]) Update(ctx context.Context, v T) error {
	old, err := c.GetByID(ctx, v.GetID())
	if err != nil {
		return err
	}
	created, _ := old.Field("created_at")
	createdAt, _ := created.(time.Time)
	v.Stamp(createdAt, c.now().UTC())

	res, err := c.coll.ReplaceOne(ctx, bson.M{"_id": v.GetID()}, v)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (c *Collection[T]) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res, err := c.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}
