package utils

import (
	"context"
	"testing"

	"favorites-reconciler/internal/shared/contextkeys"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithRun(t *testing.T) {
	ctx := WithRun(context.Background(), "run-1", "proj", "(default)")

	assert.Equal(t, "run-1", ctx.Value(contextkeys.RunIDKey))

	projectID, err := GetProjectIDFromContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, "proj", projectID)
	assert.Equal(t, "(default)", ctx.Value(contextkeys.DatabaseIDKey))
}

func TestWithRun_SkipsEmptyScope(t *testing.T) {
	ctx := WithRun(context.Background(), "run-1", "", "")
	_, err := GetProjectIDFromContext(ctx)
	assert.ErrorIs(t, err, ErrProjectIDNotFound)
	assert.Nil(t, ctx.Value(contextkeys.DatabaseIDKey))
}

func TestGetProjectIDFromContext_NotString(t *testing.T) {
	ctx := context.WithValue(context.Background(), contextkeys.ProjectIDKey, 42)
	_, err := GetProjectIDFromContext(ctx)
	assert.ErrorIs(t, err, ErrProjectIDNotString)
}

func TestWithUser(t *testing.T) {
	ctx := WithUser(context.Background(), "u1")
	assert.Equal(t, "u1", ctx.Value(contextkeys.UserIDKey))
}

func TestWithOperation(t *testing.T) {
	ctx := WithOperation(context.Background(), "delete")
	assert.Equal(t, "delete", ctx.Value(contextkeys.OperationKey))
}
