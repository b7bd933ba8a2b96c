package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CollectionInterface is the part of *mongo.Collection the store uses.
// Tests substitute an in-memory implementation.
type CollectionInterface interface {
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (CursorInterface, error)
	DeleteOne(ctx context.Context, filter interface{}) (DeleteResultInterface, error)
}

// DatabaseProvider hands out collections by name
type DatabaseProvider interface {
	Collection(name string) CollectionInterface
}

type DeleteResultInterface interface{ Deleted() int64 }

type CursorInterface interface {
	Next(ctx context.Context) bool
	Decode(val interface{}) error
	Close(ctx context.Context) error
	Err() error
}

// MongoDatabaseAdapter makes *mongo.Database satisfy DatabaseProvider
type MongoDatabaseAdapter struct {
	db *mongo.Database
}

func NewMongoDatabaseAdapter(db *mongo.Database) *MongoDatabaseAdapter {
	return &MongoDatabaseAdapter{db: db}
}

func (m *MongoDatabaseAdapter) Collection(name string) CollectionInterface {
	return NewMongoCollectionAdapter(m.db.Collection(name))
}

// MongoCollectionAdapter makes *mongo.Collection satisfy CollectionInterface
type MongoCollectionAdapter struct {
	col *mongo.Collection
}

func NewMongoCollectionAdapter(col *mongo.Collection) *MongoCollectionAdapter {
	return &MongoCollectionAdapter{col: col}
}

func (m *MongoCollectionAdapter) DeleteOne(ctx context.Context, filter interface{}) (DeleteResultInterface, error) {
	res, err := m.col.DeleteOne(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &MongoDeleteResultAdapter{deleted: res.DeletedCount}, nil
}

func (m *MongoCollectionAdapter) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (CursorInterface, error) {
	cur, err := m.col.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	return &MongoCursorAdapter{cur: cur}, nil
}

// MongoDeleteResultAdapter wraps the deleted count
type MongoDeleteResultAdapter struct {
	deleted int64
}

func (m *MongoDeleteResultAdapter) Deleted() int64 { return m.deleted }

type MongoCursorAdapter struct {
	cur *mongo.Cursor
}

func (m *MongoCursorAdapter) Next(ctx context.Context) bool   { return m.cur.Next(ctx) }
func (m *MongoCursorAdapter) Decode(val interface{}) error    { return m.cur.Decode(val) }
func (m *MongoCursorAdapter) Close(ctx context.Context) error { return m.cur.Close(ctx) }
func (m *MongoCursorAdapter) Err() error                      { return m.cur.Err() }
