package repository

import (
	"context"

	"favorites-reconciler/internal/reconcile/domain/model"
)

// Confirmer asks the operator a yes/no question
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// Reporter receives the human-readable progress of a run
type Reporter interface {
	Connected(projectID, databaseID string)
	AuthoritativeSetLoaded(collection string, count int)
	UsersFound(collection string, count int)
	UserScanned(userID string, favorites, orphans int)
	UserScanFailed(userID string, err error)
	ScanSummary(stats model.RunStatistics, orphans []model.OrphanedFavorite)
	Clean()
	DryRun(orphans int)
	Cancelled()
	DeletionStarted(orphans int)
	Deleted(orphan model.OrphanedFavorite)
	DeletionFailed(orphan model.OrphanedFavorite, err error)
	FinalSummary(result *model.RunResult)
	Failure(err error)
}
