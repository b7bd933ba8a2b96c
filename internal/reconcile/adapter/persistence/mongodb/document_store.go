package mongodb

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"favorites-reconciler/internal/reconcile/domain/repository"
	"favorites-reconciler/internal/shared/errors"
	"favorites-reconciler/internal/shared/firestore"
	"favorites-reconciler/internal/shared/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const defaultPageSize = 500

// documentRef is the projection of a stored document the store reads
type documentRef struct {
	DocumentID string `bson:"documentID"`
}

// DocumentStore reads and deletes documents in the Firestore-compatible
// layout: one Mongo collection per collection ID, each document scoped by
// projectID, databaseID and the full parentPath of its collection.
type DocumentStore struct {
	db         DatabaseProvider
	projectID  string
	databaseID string
	pageSize   int
	logger     logger.Logger

	closed    atomic.Bool
	closeOnce sync.Once
	closeFn   func(ctx context.Context) error
	closeErr  error
}

var _ repository.DocumentStore = (*DocumentStore)(nil)

// NewDocumentStore creates a store scoped to one project and database.
// closeFn releases the underlying session and may be nil.
func NewDocumentStore(db DatabaseProvider, projectID, databaseID string, pageSize int, log logger.Logger, closeFn func(ctx context.Context) error) *DocumentStore {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &DocumentStore{
		db:         db,
		projectID:  projectID,
		databaseID: databaseID,
		pageSize:   pageSize,
		logger:     log.WithComponent("mongodb-store"),
		closeFn:    closeFn,
	}
}

// ListDocumentIDs pages through the collection ordered by documentID
func (s *DocumentStore) ListDocumentIDs(ctx context.Context, collectionPath string) ([]string, error) {
	if s.closed.Load() {
		return nil, errors.NewInfrastructureError(fmt.Sprintf("failed to list %s", collectionPath)).
			WithCause(errors.ErrStoreAlreadyClosed)
	}
	_, collectionID, err := firestore.SplitCollectionPath(collectionPath)
	if err != nil {
		return nil, err
	}

	var ids []string
	pageToken := ""
	for {
		page, next, err := s.listPage(ctx, collectionID, collectionPath, pageToken)
		if err != nil {
			return nil, errors.NewInfrastructureError(fmt.Sprintf("failed to list %s", collectionPath)).
				WithCause(err).
				WithComponent("mongodb-store")
		}
		ids = append(ids, page...)
		if next == "" {
			break
		}
		pageToken = next
	}

	s.logger.WithFields(map[string]interface{}{
		"collection": collectionPath,
		"count":      len(ids),
	}).Debug("Listed collection")
	return ids, nil
}

// ListSubcollectionIDs lists parentCollection/parentID/subcollection. A
// subcollection with no documents lists as empty.
func (s *DocumentStore) ListSubcollectionIDs(ctx context.Context, parentCollection, parentID, subcollection string) ([]string, error) {
	return s.ListDocumentIDs(ctx, firestore.JoinPaths(parentCollection, parentID, subcollection))
}

func (s *DocumentStore) listPage(ctx context.Context, collectionID, collectionPath, pageToken string) ([]string, string, error) {
	filter := bson.M{
		"projectID":  s.projectID,
		"databaseID": s.databaseID,
		"parentPath": firestore.BuildFirestorePath(s.projectID, s.databaseID, collectionPath),
		"exists":     bson.M{"$ne": false},
	}
	if pageToken != "" {
		filter["documentID"] = bson.M{"$gt": pageToken}
	}

	findOptions := options.Find()
	findOptions.SetSort(bson.D{{Key: "documentID", Value: 1}})
	findOptions.SetLimit(int64(s.pageSize + 1))
	findOptions.SetProjection(bson.M{"documentID": 1, "_id": 0})

	cursor, err := s.db.Collection(collectionID).Find(ctx, filter, findOptions)
	if err != nil {
		return nil, "", fmt.Errorf("failed to list documents: %w", err)
	}
	defer cursor.Close(ctx)

	ids := make([]string, 0, s.pageSize+1)
	for cursor.Next(ctx) {
		var ref documentRef
		if err := cursor.Decode(&ref); err != nil {
			return nil, "", fmt.Errorf("failed to decode document: %w", err)
		}
		ids = append(ids, ref.DocumentID)
	}
	if err := cursor.Err(); err != nil {
		return nil, "", fmt.Errorf("cursor error: %w", err)
	}

	var nextPageToken string
	if len(ids) > s.pageSize {
		nextPageToken = ids[s.pageSize-1]
		ids = ids[:s.pageSize]
	}
	return ids, nextPageToken, nil
}

// DeleteDocument deletes each id independently and stops at the first failure.
// A document that is already gone counts as deleted.
func (s *DocumentStore) DeleteDocument(ctx context.Context, collectionPath string, ids ...string) error {
	if s.closed.Load() {
		return errors.NewDeletionError(collectionPath).WithCause(errors.ErrStoreAlreadyClosed)
	}
	_, collectionID, err := firestore.SplitCollectionPath(collectionPath)
	if err != nil {
		return errors.NewDeletionError(collectionPath).WithCause(err)
	}
	parentPath := firestore.BuildFirestorePath(s.projectID, s.databaseID, collectionPath)

	for _, id := range ids {
		path := collectionPath + "/" + id
		if err := firestore.ValidateDocumentID(id); err != nil {
			return errors.NewDeletionError(path).WithCause(err)
		}
		filter := bson.M{
			"projectID":  s.projectID,
			"databaseID": s.databaseID,
			"parentPath": parentPath,
			"documentID": id,
		}
		result, err := s.db.Collection(collectionID).DeleteOne(ctx, filter)
		if err != nil {
			return errors.NewDeletionError(path).WithCause(err).WithComponent("mongodb-store")
		}
		if result.Deleted() == 0 {
			s.logger.WithFields(map[string]interface{}{"path": path}).Debug("Document already absent")
		}
	}
	return nil
}

// Close releases the session once; later calls return the first result.
// Reads and deletes fail with ErrStoreAlreadyClosed afterwards.
func (s *DocumentStore) Close(ctx context.Context) error {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		if s.closeFn != nil {
			s.closeErr = s.closeFn(ctx)
		}
	})
	return s.closeErr
}
