package mongodb

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// fakeDatabase keeps documents per Mongo collection and evaluates the small
// filter dialect the store emits: equality, $gt and $ne.
type fakeDatabase struct {
	mu        sync.Mutex
	docs      map[string][]bson.M
	findErr   map[string]error
	deleteErr map[string]error
	finds     int
}

func newFakeDatabase() *fakeDatabase {
	return &fakeDatabase{
		docs:      make(map[string][]bson.M),
		findErr:   make(map[string]error),
		deleteErr: make(map[string]error),
	}
}

func (f *fakeDatabase) insert(collectionID, parentPath, documentID string, extra bson.M) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc := bson.M{
		"projectID":    "demo-project",
		"databaseID":   "(default)",
		"collectionID": collectionID,
		"documentID":   documentID,
		"parentPath":   parentPath,
		"path":         parentPath + "/" + documentID,
		"exists":       true,
	}
	for k, v := range extra {
		doc[k] = v
	}
	f.docs[collectionID] = append(f.docs[collectionID], doc)
}

func (f *fakeDatabase) Collection(name string) CollectionInterface {
	return &fakeCollection{db: f, name: name}
}

type fakeCollection struct {
	db   *fakeDatabase
	name string
}

func (c *fakeCollection) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (CursorInterface, error) {
	c.db.mu.Lock()
	defer c.db.mu.Unlock()
	c.db.finds++
	if err, ok := c.db.findErr[c.name]; ok {
		return nil, err
	}

	var matched []bson.M
	for _, doc := range c.db.docs[c.name] {
		if matches(doc, filter.(bson.M)) {
			matched = append(matched, doc)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i]["documentID"].(string) < matched[j]["documentID"].(string)
	})
	for _, o := range opts {
		if o != nil && o.Limit != nil && int64(len(matched)) > *o.Limit {
			matched = matched[:*o.Limit]
		}
	}
	return &fakeCursor{docs: matched, pos: -1}, nil
}

func (c *fakeCollection) DeleteOne(ctx context.Context, filter interface{}) (DeleteResultInterface, error) {
	c.db.mu.Lock()
	defer c.db.mu.Unlock()
	f := filter.(bson.M)
	if err, ok := c.db.deleteErr[fmt.Sprint(f["documentID"])]; ok {
		return nil, err
	}
	docs := c.db.docs[c.name]
	for i, doc := range docs {
		if matches(doc, f) {
			c.db.docs[c.name] = append(docs[:i:i], docs[i+1:]...)
			return &MongoDeleteResultAdapter{deleted: 1}, nil
		}
	}
	return &MongoDeleteResultAdapter{deleted: 0}, nil
}

func matches(doc bson.M, filter bson.M) bool {
	for key, want := range filter {
		got, present := doc[key]
		switch cond := want.(type) {
		case bson.M:
			if gt, ok := cond["$gt"]; ok && (!present || got.(string) <= gt.(string)) {
				return false
			}
			if ne, ok := cond["$ne"]; ok && present && got == ne {
				return false
			}
		default:
			if !present || got != want {
				return false
			}
		}
	}
	return true
}

type fakeCursor struct {
	docs []bson.M
	pos  int
}

func (c *fakeCursor) Next(ctx context.Context) bool {
	c.pos++
	return c.pos < len(c.docs)
}

func (c *fakeCursor) Decode(val interface{}) error {
	raw, err := bson.Marshal(c.docs[c.pos])
	if err != nil {
		return err
	}
	return bson.Unmarshal(raw, val)
}

func (c *fakeCursor) Close(ctx context.Context) error { return nil }
func (c *fakeCursor) Err() error                      { return nil }
