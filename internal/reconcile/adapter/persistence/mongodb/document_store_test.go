package mongodb

import (
	"context"
	"errors"
	"fmt"
	"testing"

	apperrors "favorites-reconciler/internal/shared/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

const root = "projects/demo-project/databases/(default)/documents"

func newTestStore(db *fakeDatabase, pageSize int) *DocumentStore {
	return NewDocumentStore(db, "demo-project", "(default)", pageSize, nil, nil)
}

func TestListDocumentIDs_PaginatesInDocumentIDOrder(t *testing.T) {
	db := newFakeDatabase()
	for i := 0; i < 7; i++ {
		db.insert("bots", root+"/bots", fmt.Sprintf("b%d", i), nil)
	}
	store := newTestStore(db, 3)

	ids, err := store.ListDocumentIDs(context.Background(), "bots")

	require.NoError(t, err)
	assert.Equal(t, []string{"b0", "b1", "b2", "b3", "b4", "b5", "b6"}, ids)
	assert.Equal(t, 3, db.finds)
}

func TestListDocumentIDs_ScopedToProjectAndParent(t *testing.T) {
	db := newFakeDatabase()
	db.insert("bots", root+"/bots", "b1", nil)
	db.insert("bots", root+"/bots", "other", bson.M{"projectID": "someone-else"})
	db.insert("bots", root+"/bots", "gone", bson.M{"exists": false})
	db.insert("bots", root+"/archive/a1/bots", "nested", nil)

	ids, err := newTestStore(db, 10).ListDocumentIDs(context.Background(), "bots")

	require.NoError(t, err)
	assert.Equal(t, []string{"b1"}, ids)
}

func TestListSubcollectionIDs(t *testing.T) {
	db := newFakeDatabase()
	db.insert("favorites", root+"/users/u1/favorites", "b1", nil)
	db.insert("favorites", root+"/users/u1/favorites", "b3", nil)
	db.insert("favorites", root+"/users/u2/favorites", "b2", nil)
	store := newTestStore(db, 10)

	ids, err := store.ListSubcollectionIDs(context.Background(), "users", "u1", "favorites")
	require.NoError(t, err)
	assert.Equal(t, []string{"b1", "b3"}, ids)

	empty, err := store.ListSubcollectionIDs(context.Background(), "users", "u9", "favorites")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestListDocumentIDs_FindFailure(t *testing.T) {
	db := newFakeDatabase()
	db.findErr["users"] = errors.New("not authorized")

	_, err := newTestStore(db, 10).ListDocumentIDs(context.Background(), "users")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "not authorized")
	assert.Equal(t, apperrors.ExitCodeFailure, apperrors.ExitCodeFor(err))
}

func TestListDocumentIDs_InvalidPath(t *testing.T) {
	_, err := newTestStore(newFakeDatabase(), 10).ListDocumentIDs(context.Background(), "")
	assert.ErrorIs(t, err, apperrors.ErrInvalidPath)
}

func TestDeleteDocument(t *testing.T) {
	db := newFakeDatabase()
	db.insert("favorites", root+"/users/u1/favorites", "b3", nil)
	db.insert("favorites", root+"/users/u2/favorites", "b3", nil)
	store := newTestStore(db, 10)

	require.NoError(t, store.DeleteDocument(context.Background(), "users/u1/favorites", "b3"))

	left, err := store.ListSubcollectionIDs(context.Background(), "users", "u1", "favorites")
	require.NoError(t, err)
	assert.Empty(t, left)
	other, err := store.ListSubcollectionIDs(context.Background(), "users", "u2", "favorites")
	require.NoError(t, err)
	assert.Equal(t, []string{"b3"}, other)
}

func TestDeleteDocument_MissingIsSuccess(t *testing.T) {
	store := newTestStore(newFakeDatabase(), 10)
	assert.NoError(t, store.DeleteDocument(context.Background(), "users/u1/favorites", "b3"))
	assert.NoError(t, store.DeleteDocument(context.Background(), "users/u1/favorites", "b3"))
}

func TestDeleteDocument_FailureIsDeletionError(t *testing.T) {
	db := newFakeDatabase()
	cause := errors.New("write concern timeout")
	db.deleteErr["x"] = cause

	err := newTestStore(db, 10).DeleteDocument(context.Background(), "users/u1/favorites", "x")

	require.Error(t, err)
	assert.True(t, apperrors.IsDeletion(err))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "users/u1/favorites/x")
}

func TestClose_RunsOnce(t *testing.T) {
	calls := 0
	store := NewDocumentStore(newFakeDatabase(), "p", "d", 0, nil, func(ctx context.Context) error {
		calls++
		return nil
	})

	require.NoError(t, store.Close(context.Background()))
	require.NoError(t, store.Close(context.Background()))
	assert.Equal(t, 1, calls)
	assert.Equal(t, defaultPageSize, store.pageSize)
}

func TestDeleteDocument_InvalidDocumentID(t *testing.T) {
	db := newFakeDatabase()
	db.insert("favorites", root+"/users/u1/favorites", "b1", nil)
	store := newTestStore(db, 10)

	err := store.DeleteDocument(context.Background(), "users/u1/favorites", "__bot__")

	assert.True(t, apperrors.IsDeletion(err))
	assert.ErrorIs(t, err, apperrors.ErrInvalidDocumentID)
	left, listErr := store.ListDocumentIDs(context.Background(), "users/u1/favorites")
	require.NoError(t, listErr)
	assert.Equal(t, []string{"b1"}, left)
}

func TestClosedStoreRejectsOperations(t *testing.T) {
	db := newFakeDatabase()
	db.insert("bots", root+"/bots", "b1", nil)
	store := newTestStore(db, 10)
	require.NoError(t, store.Close(context.Background()))

	_, err := store.ListDocumentIDs(context.Background(), "bots")
	assert.ErrorIs(t, err, apperrors.ErrStoreAlreadyClosed)
	assert.Equal(t, 0, db.finds)

	err = store.DeleteDocument(context.Background(), "bots", "b1")
	assert.True(t, apperrors.IsDeletion(err))
	assert.ErrorIs(t, err, apperrors.ErrStoreAlreadyClosed)
}
