package repository

import (
	"context"

	"favorites-reconciler/internal/reconcile/domain/model"
)

// DocumentStore is the slice of a hierarchical document database the job
// needs. Collection paths are relative ("bots", "users/u1/favorites").
type DocumentStore interface {
	// ListDocumentIDs returns every document ID in the collection. The
	// sequence is finite and its order is not guaranteed.
	ListDocumentIDs(ctx context.Context, collectionPath string) ([]string, error)

	// ListSubcollectionIDs returns the document IDs of parentCollection/parentID/subcollection.
	// A missing subcollection may be reported as a not-found error.
	ListSubcollectionIDs(ctx context.Context, parentCollection, parentID, subcollection string) ([]string, error)

	// DeleteDocument deletes the given documents of a collection. Deleting a
	// missing document succeeds. Failures are reported as deletion errors.
	DeleteDocument(ctx context.Context, collectionPath string, ids ...string) error

	// Close releases the session. It is safe to call more than once.
	Close(ctx context.Context) error
}

// StoreConnector opens a session scoped to the project a credential names
type StoreConnector interface {
	Connect(ctx context.Context, cred *model.Credential) (DocumentStore, error)
}

// CredentialLoader reads and validates a credential before any network I/O
type CredentialLoader interface {
	Load(source string) (*model.Credential, error)
}
