// Package testutil provides in-memory fakes of the reconciliation ports.
package testutil

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"favorites-reconciler/internal/reconcile/domain/model"
	"favorites-reconciler/internal/reconcile/domain/repository"
	"favorites-reconciler/internal/shared/errors"
	"favorites-reconciler/internal/shared/firestore"
)

// MemoryStore is a goroutine-safe DocumentStore over nested maps keyed by
// collection path. Missing top-level collections list as empty; missing
// subcollections report not-found like a sparse hierarchical store.
type MemoryStore struct {
	mu          sync.Mutex
	collections map[string]map[string]struct{}
	listErrs    map[string]error
	deleteErrs  map[string]error
	deleted     []string
	deleteCalls int
	closeCalls  int
}

var _ repository.DocumentStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: make(map[string]map[string]struct{}),
		listErrs:    make(map[string]error),
		deleteErrs:  make(map[string]error),
	}
}

// WithBots adds documents to the canonical bots collection
func (s *MemoryStore) WithBots(ids ...string) *MemoryStore {
	s.Put(model.DefaultBotsCollection, ids...)
	return s
}

// WithUser adds a user document and, when favorites are given, its favorites subcollection
func (s *MemoryStore) WithUser(userID string, favorites ...string) *MemoryStore {
	s.Put(model.DefaultUsersCollection, userID)
	if len(favorites) > 0 {
		s.Put(favoritesPath(userID), favorites...)
	}
	return s
}

// Put adds documents to any collection path
func (s *MemoryStore) Put(collectionPath string, ids ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	docs, ok := s.collections[collectionPath]
	if !ok {
		docs = make(map[string]struct{})
		s.collections[collectionPath] = docs
	}
	for _, id := range ids {
		docs[id] = struct{}{}
	}
}

// FailList makes every listing of collectionPath fail with err
func (s *MemoryStore) FailList(collectionPath string, err error) *MemoryStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listErrs[collectionPath] = err
	return s
}

// FailDelete makes deletion of the document at docPath fail with err
func (s *MemoryStore) FailDelete(docPath string, err error) *MemoryStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteErrs[docPath] = err
	return s
}

// ListDocumentIDs implements repository.DocumentStore
func (s *MemoryStore) ListDocumentIDs(ctx context.Context, collectionPath string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.listErrs[collectionPath]; ok {
		return nil, err
	}
	return s.idsLocked(collectionPath), nil
}

// ListSubcollectionIDs implements repository.DocumentStore
func (s *MemoryStore) ListSubcollectionIDs(ctx context.Context, parentCollection, parentID, subcollection string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := firestore.JoinPaths(parentCollection, parentID, subcollection)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.listErrs[path]; ok {
		return nil, err
	}
	if _, ok := s.collections[path]; !ok {
		return nil, errors.NewNotFoundError(path).WithCause(errors.ErrCollectionNotFound)
	}
	return s.idsLocked(path), nil
}

// DeleteDocument implements repository.DocumentStore
func (s *MemoryStore) DeleteDocument(ctx context.Context, collectionPath string, ids ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		s.deleteCalls++
		path := collectionPath + "/" + id
		if err, ok := s.deleteErrs[path]; ok {
			return errors.NewDeletionError(path).WithCause(err)
		}
		if docs, ok := s.collections[collectionPath]; ok {
			delete(docs, id)
		}
		s.deleted = append(s.deleted, path)
	}
	return nil
}

// Close implements repository.DocumentStore
func (s *MemoryStore) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeCalls++
	return nil
}

// DeleteCalls is the number of document deletions attempted
func (s *MemoryStore) DeleteCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteCalls
}

// Deleted returns the paths deleted successfully, in call order
func (s *MemoryStore) Deleted() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.deleted...)
}

// CloseCalls is the number of times Close was called
func (s *MemoryStore) CloseCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeCalls
}

// Favorites returns the remaining favorites of a user, sorted
func (s *MemoryStore) Favorites(userID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.idsLocked(favoritesPath(userID))
}

func (s *MemoryStore) idsLocked(collectionPath string) []string {
	docs := s.collections[collectionPath]
	ids := make([]string, 0, len(docs))
	for id := range docs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func favoritesPath(userID string) string {
	return fmt.Sprintf("%s/%s/%s", model.DefaultUsersCollection, userID, model.DefaultFavoritesSubcollection)
}

// Connector hands out a fixed store, or fails with Err
type Connector struct {
	Store repository.DocumentStore
	Err   error

	mu    sync.Mutex
	calls int
	cred  *model.Credential
}

var _ repository.StoreConnector = (*Connector)(nil)

// Connect implements repository.StoreConnector
func (c *Connector) Connect(ctx context.Context, cred *model.Credential) (repository.DocumentStore, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	c.cred = cred
	if c.Err != nil {
		return nil, c.Err
	}
	return c.Store, nil
}

// Calls is the number of connection attempts
func (c *Connector) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// Credential is the credential of the last connection attempt
func (c *Connector) Credential() *model.Credential {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cred
}

// StaticLoader returns a fixed credential, or fails with Err
type StaticLoader struct {
	Credential *model.Credential
	Err        error
	Sources    []string
}

var _ repository.CredentialLoader = (*StaticLoader)(nil)

// Load implements repository.CredentialLoader
func (l *StaticLoader) Load(source string) (*model.Credential, error) {
	l.Sources = append(l.Sources, source)
	if l.Err != nil {
		return nil, l.Err
	}
	return l.Credential, nil
}

// TestCredential is a minimal valid credential for the "demo-project" project
func TestCredential() *model.Credential {
	return &model.Credential{
		Type:         "service_account",
		ProjectID:    "demo-project",
		PrivateKeyID: "key-1",
		PrivateKey:   "unused",
		ClientEmail:  "reconciler@demo-project.iam.gserviceaccount.com",
		ClientID:     "1234567890",
	}
}
