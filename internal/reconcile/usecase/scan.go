package usecase

import (
	"context"
	"sort"
	"sync"

	"favorites-reconciler/internal/reconcile/domain/model"
	"favorites-reconciler/internal/reconcile/domain/repository"
	"favorites-reconciler/internal/shared/errors"
	"favorites-reconciler/internal/shared/eventbus"
	"favorites-reconciler/internal/shared/utils"

	"golang.org/x/sync/errgroup"
)

// scan lists every user's favorites with bounded parallelism and folds the
// results into result. A user whose favorites cannot be listed counts as
// having none. The orphan list is sorted by (userID, favoriteID).
func (uc *reconcileUsecaseImpl) scan(ctx context.Context, store repository.DocumentStore, authoritative model.IDSet, userIDs []string, result *model.RunResult) {
	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(uc.settings.ScanConcurrency)

	for _, userID := range userIDs {
		g.Go(func() error {
			userCtx := utils.WithOperation(utils.WithUser(ctx, userID), "scan_user")
			user, scanErr := uc.scanUser(userCtx, store, userID)
			orphans := model.FindOrphans(authoritative, uc.settings.UsersCollection, uc.settings.FavoritesSubcollection, user)

			mu.Lock()
			result.Statistics.RecordUser(user, len(orphans))
			result.Orphans = append(result.Orphans, orphans...)
			if scanErr != nil {
				result.Statistics.ScanFailures++
				result.ScanFailures = append(result.ScanFailures, model.ScanFailure{UserID: userID, Reason: scanErr.Error()})
			}
			mu.Unlock()

			if scanErr != nil {
				projectID, _ := utils.GetProjectIDFromContext(ctx)
				uc.publish(userCtx, eventbus.EventTypeUserScanFailed, model.UserScanFailedEvent{
					RunID:     result.RunID,
					ProjectID: projectID,
					UserID:    userID,
					Error:     scanErr.Error(),
				})
				if result.Options.Verbose {
					uc.reporter.UserScanFailed(userID, scanErr)
				}
				return nil
			}
			if result.Options.Verbose {
				uc.reporter.UserScanned(userID, len(user.FavoriteIDs), len(orphans))
			}
			return nil
		})
	}
	_ = g.Wait()

	model.SortOrphans(result.Orphans)
	sort.Slice(result.ScanFailures, func(i, j int) bool {
		return result.ScanFailures[i].UserID < result.ScanFailures[j].UserID
	})
}

// scanUser returns the user's favorites. A missing subcollection is an
// empty one; any other failure is returned alongside an empty record.
func (uc *reconcileUsecaseImpl) scanUser(ctx context.Context, store repository.DocumentStore, userID string) (model.UserRecord, error) {
	log := uc.log.WithContext(ctx).WithComponent("scanner")
	user := model.UserRecord{UserID: userID}

	ids, err := store.ListSubcollectionIDs(ctx, uc.settings.UsersCollection, userID, uc.settings.FavoritesSubcollection)
	if err != nil {
		if errors.IsNotFound(err) {
			log.Debug("No favorites subcollection")
			return user, nil
		}
		log.Warnf("Failed to list favorites, counting as none: %v", err)
		return user, err
	}

	user.FavoriteIDs = ids
	log.Debugf("Listed %d favorites", len(ids))
	return user, nil
}
