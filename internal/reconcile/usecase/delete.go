package usecase

import (
	"context"
	"sync/atomic"

	"favorites-reconciler/internal/reconcile/domain/model"
	"favorites-reconciler/internal/reconcile/domain/repository"
	"favorites-reconciler/internal/shared/eventbus"
	"favorites-reconciler/internal/shared/utils"

	"golang.org/x/sync/errgroup"
)

// deleteOrphans attempts every orphan independently. Failures are counted
// and recorded in orphan order; none of them stops the batch. With a
// concurrency of 1 deletions run strictly in list order.
func (uc *reconcileUsecaseImpl) deleteOrphans(ctx context.Context, store repository.DocumentStore, cred *model.Credential, result *model.RunResult) {
	var (
		deleted  atomic.Int64
		failed   atomic.Int64
		failures = make([]*model.DeletionFailure, len(result.Orphans))
		g        errgroup.Group
	)
	g.SetLimit(uc.settings.DeleteConcurrency)

	for i, orphan := range result.Orphans {
		g.Go(func() error {
			opCtx := utils.WithOperation(utils.WithUser(ctx, orphan.UserID), "delete_favorite")
			log := uc.log.WithContext(opCtx).WithComponent("deleter")

			if err := store.DeleteDocument(opCtx, orphan.CollectionPath, orphan.FavoriteID); err != nil {
				failed.Add(1)
				failures[i] = &model.DeletionFailure{Orphan: orphan, Reason: err.Error()}
				log.Warnf("Failed to delete %s: %v", orphan.Path(), err)
				uc.reporter.DeletionFailed(orphan, err)
				uc.publish(opCtx, eventbus.EventTypeFavoriteDeletionFailed, uc.favoriteEvent(result, cred, orphan, err))
				return nil
			}

			deleted.Add(1)
			log.Debugf("Deleted %s", orphan.Path())
			uc.reporter.Deleted(orphan)
			uc.publish(opCtx, eventbus.EventTypeFavoriteDeleted, uc.favoriteEvent(result, cred, orphan, nil))
			return nil
		})
	}
	_ = g.Wait()

	result.Statistics.DeletedFavorites = int(deleted.Load())
	result.Statistics.FailedDeletions = int(failed.Load())
	for _, f := range failures {
		if f != nil {
			result.DeletionFailures = append(result.DeletionFailures, *f)
		}
	}
}
