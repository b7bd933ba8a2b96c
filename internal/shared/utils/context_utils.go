package utils

import (
	"context"
	"errors"

	"favorites-reconciler/internal/shared/contextkeys"
)

// Common context errors
var (
	ErrProjectIDNotFound  = errors.New("projectID not found in context")
	ErrProjectIDNotString = errors.New("projectID in context is not a string")
)

func stringValue(ctx context.Context, key interface{}, notFound, notString error) (string, error) {
	val := ctx.Value(key)
	if val == nil {
		return "", notFound
	}
	s, ok := val.(string)
	if !ok {
		return "", notString
	}
	return s, nil
}

// GetProjectIDFromContext retrieves the project ID from the context.
func GetProjectIDFromContext(ctx context.Context) (string, error) {
	return stringValue(ctx, contextkeys.ProjectIDKey, ErrProjectIDNotFound, ErrProjectIDNotString)
}

// WithRun stores the run, project and database identifiers in the context.
func WithRun(ctx context.Context, runID, projectID, databaseID string) context.Context {
	ctx = context.WithValue(ctx, contextkeys.RunIDKey, runID)
	if projectID != "" {
		ctx = context.WithValue(ctx, contextkeys.ProjectIDKey, projectID)
	}
	if databaseID != "" {
		ctx = context.WithValue(ctx, contextkeys.DatabaseIDKey, databaseID)
	}
	return ctx
}

// WithUser stores the user being processed in the context.
func WithUser(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, contextkeys.UserIDKey, userID)
}

// WithOperation stores the current pipeline step in the context.
func WithOperation(ctx context.Context, operation string) context.Context {
	return context.WithValue(ctx, contextkeys.OperationKey, operation)
}
