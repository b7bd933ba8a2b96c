package usecase

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"favorites-reconciler/internal/reconcile/domain/model"
	"favorites-reconciler/internal/reconcile/domain/repository"
	"favorites-reconciler/internal/shared/errors"
	"favorites-reconciler/internal/shared/eventbus"
	"favorites-reconciler/internal/shared/logger"
	"favorites-reconciler/internal/shared/utils"

	"github.com/google/uuid"
)

// ReconcileUsecase finds favorites that reference deleted bots and removes them
type ReconcileUsecase interface {
	// Run executes one reconciliation. A non-nil error means the run aborted
	// before the scan could be trusted; per-user and per-deletion failures
	// are reported in the result instead.
	Run(ctx context.Context, opts model.RunOptions) (*model.RunResult, error)
}

// Settings are the collection names and fan-out limits of a run
type Settings struct {
	BotsCollection         string
	UsersCollection        string
	FavoritesSubcollection string
	ScanConcurrency        int
	DeleteConcurrency      int
}

// DefaultSettings uses the canonical collection names and sequential I/O
func DefaultSettings() Settings {
	return Settings{
		BotsCollection:         model.DefaultBotsCollection,
		UsersCollection:        model.DefaultUsersCollection,
		FavoritesSubcollection: model.DefaultFavoritesSubcollection,
		ScanConcurrency:        1,
		DeleteConcurrency:      1,
	}
}

// Dependencies are the ports a run talks to. Bus, Logger, Now and NewRunID
// are optional.
type Dependencies struct {
	Loader    repository.CredentialLoader
	Connector repository.StoreConnector
	Confirmer repository.Confirmer
	Reporter  repository.Reporter
	Bus       eventbus.EventBusInterface
	Logger    logger.Logger
	Now       func() time.Time
	NewRunID  func() string
}

type reconcileUsecaseImpl struct {
	loader    repository.CredentialLoader
	connector repository.StoreConnector
	confirmer repository.Confirmer
	reporter  repository.Reporter
	bus       eventbus.EventBusInterface
	log       logger.Logger
	now       func() time.Time
	newRunID  func() string
	settings  Settings
}

// NewReconcileUsecase creates the reconciliation job
func NewReconcileUsecase(deps Dependencies, settings Settings) ReconcileUsecase {
	defaults := DefaultSettings()
	if settings.BotsCollection == "" {
		settings.BotsCollection = defaults.BotsCollection
	}
	if settings.UsersCollection == "" {
		settings.UsersCollection = defaults.UsersCollection
	}
	if settings.FavoritesSubcollection == "" {
		settings.FavoritesSubcollection = defaults.FavoritesSubcollection
	}
	if settings.ScanConcurrency < 1 {
		settings.ScanConcurrency = 1
	}
	if settings.DeleteConcurrency < 1 {
		settings.DeleteConcurrency = 1
	}

	uc := &reconcileUsecaseImpl{
		loader:    deps.Loader,
		connector: deps.Connector,
		confirmer: deps.Confirmer,
		reporter:  deps.Reporter,
		bus:       deps.Bus,
		log:       deps.Logger,
		now:       deps.Now,
		newRunID:  deps.NewRunID,
		settings:  settings,
	}
	if uc.log == nil {
		uc.log = logger.NewNopLogger()
	}
	if uc.now == nil {
		uc.now = func() time.Time { return time.Now().UTC() }
	}
	if uc.newRunID == nil {
		uc.newRunID = uuid.NewString
	}
	return uc
}

// Run implements ReconcileUsecase
func (uc *reconcileUsecaseImpl) Run(ctx context.Context, opts model.RunOptions) (*model.RunResult, error) {
	result := model.NewRunResult(uc.newRunID(), opts, uc.now())
	ctx = utils.WithRun(ctx, result.RunID, "", "")
	log := uc.log.WithContext(ctx).WithComponent("reconcile")

	if err := opts.Validate(); err != nil {
		return uc.abort(log, result, err)
	}

	cred, err := uc.loader.Load(opts.CredentialSource)
	if err != nil {
		return uc.abort(log, result, err)
	}
	if err := result.Transition(model.StateCredentialsLoaded); err != nil {
		return uc.abort(log, result, err)
	}

	ctx = utils.WithRun(ctx, result.RunID, cred.ProjectID, cred.Database())
	log = uc.log.WithContext(ctx).WithComponent("reconcile")
	uc.publish(ctx, eventbus.EventTypeRunStarted, model.RunStartedEvent{
		RunID:      result.RunID,
		ProjectID:  cred.ProjectID,
		DatabaseID: cred.Database(),
	})

	store, err := uc.connector.Connect(ctx, cred)
	if err != nil {
		return uc.abort(log, result, asAppError(err, errors.NewConnectionError("failed to connect to document store")))
	}
	defer func() {
		if cerr := store.Close(context.Background()); cerr != nil {
			log.Warnf("Failed to close document store: %v", cerr)
		}
	}()
	if err := result.Transition(model.StateConnected); err != nil {
		return uc.abort(log, result, err)
	}
	uc.reporter.Connected(cred.ProjectID, cred.Database())

	authoritative, err := uc.loadAuthoritativeSet(ctx, store)
	if err != nil {
		return uc.abort(log, result, err)
	}
	if err := result.Transition(model.StateAuthoritativeSetBuilt); err != nil {
		return uc.abort(log, result, err)
	}
	uc.reporter.AuthoritativeSetLoaded(uc.settings.BotsCollection, authoritative.Len())

	userIDs, err := store.ListDocumentIDs(utils.WithOperation(ctx, "list_users"), uc.settings.UsersCollection)
	if err != nil {
		return uc.abort(log, result, asAppError(err,
			errors.NewInfrastructureError(fmt.Sprintf("failed to enumerate %s", uc.settings.UsersCollection))))
	}
	result.Statistics.TotalUsers = len(userIDs)
	uc.reporter.UsersFound(uc.settings.UsersCollection, len(userIDs))

	if err := result.Transition(model.StateScanning); err != nil {
		return uc.abort(log, result, err)
	}
	uc.scan(ctx, store, authoritative, userIDs, result)
	uc.reporter.ScanSummary(result.Statistics, result.Orphans)
	for _, orphan := range result.Orphans {
		uc.publish(ctx, eventbus.EventTypeFavoriteOrphaned, uc.favoriteEvent(result, cred, orphan, nil))
	}
	log.WithFields(map[string]interface{}{
		"users":     result.Statistics.TotalUsers,
		"favorites": result.Statistics.TotalFavorites,
		"orphans":   result.Statistics.OrphanedFavorites,
	}).Info("Scan finished")

	outcome, err := uc.gate(ctx, log, store, cred, result)
	if err != nil {
		return uc.abort(log, result, err)
	}
	if err := result.Finish(outcome, uc.now()); err != nil {
		return uc.abort(log, result, err)
	}

	uc.reporter.FinalSummary(result)
	uc.publish(ctx, eventbus.EventTypeReconciliationCompleted, model.RunCompletedEvent{ProjectID: cred.ProjectID, Result: result})
	log.WithFields(map[string]interface{}{
		"outcome":          result.Outcome,
		"deleted":          result.Statistics.DeletedFavorites,
		"failed_deletions": result.Statistics.FailedDeletions,
	}).Info("Reconciliation finished")
	return result, nil
}

// loadAuthoritativeSet lists the bots collection. An empty set aborts the
// run: every favorite would otherwise be flagged as orphaned.
func (uc *reconcileUsecaseImpl) loadAuthoritativeSet(ctx context.Context, store repository.DocumentStore) (model.IDSet, error) {
	ids, err := store.ListDocumentIDs(utils.WithOperation(ctx, "list_bots"), uc.settings.BotsCollection)
	if err != nil {
		return model.IDSet{}, asAppError(err,
			errors.NewInfrastructureError(fmt.Sprintf("failed to enumerate %s", uc.settings.BotsCollection)))
	}
	set := model.NewIDSet(ids)
	if set.IsEmpty() {
		return model.IDSet{}, errors.NewEmptyAuthoritativeSetError(uc.settings.BotsCollection)
	}
	return set, nil
}

// gate decides between clean, dry run, cancellation and deletion
func (uc *reconcileUsecaseImpl) gate(ctx context.Context, log logger.Logger, store repository.DocumentStore, cred *model.Credential, result *model.RunResult) (model.Outcome, error) {
	if result.Statistics.IsClean() {
		uc.reporter.Clean()
		return model.OutcomeClean, result.Transition(model.StateClean)
	}

	if result.Options.DryRun {
		uc.reporter.DryRun(result.Statistics.OrphanedFavorites)
		return model.OutcomeDryRun, result.Transition(model.StateDryRunComplete)
	}

	if err := result.Transition(model.StateAwaitingConfirmation); err != nil {
		return "", err
	}
	if !result.Options.AutoConfirm {
		prompt := fmt.Sprintf("Delete %d orphaned favorites?", result.Statistics.OrphanedFavorites)
		confirmed, err := uc.confirmer.Confirm(ctx, prompt)
		if err != nil {
			log.Warnf("Confirmation failed, treating as no: %v", err)
		}
		if err != nil || !confirmed {
			uc.reporter.Cancelled()
			log.Info("Deletion cancelled by user")
			return model.OutcomeCancelled, nil
		}
	}

	if err := result.Transition(model.StateDeleting); err != nil {
		return "", err
	}
	uc.reporter.DeletionStarted(len(result.Orphans))
	uc.deleteOrphans(ctx, store, cred, result)
	return model.OutcomeCompleted, nil
}

func (uc *reconcileUsecaseImpl) abort(log logger.Logger, result *model.RunResult, err error) (*model.RunResult, error) {
	log.Errorf("Reconciliation aborted in state %s: %v", result.State, err)
	uc.reporter.Failure(err)
	return result, err
}

func (uc *reconcileUsecaseImpl) publish(ctx context.Context, eventType string, data interface{}) {
	if uc.bus == nil {
		return
	}
	if err := uc.bus.Publish(ctx, eventbus.NewBasicEventWithSource(eventType, data, "reconcile")); err != nil {
		uc.log.WithContext(ctx).Warnf("Failed to publish %s event: %v", eventType, err)
	}
}

func (uc *reconcileUsecaseImpl) favoriteEvent(result *model.RunResult, cred *model.Credential, orphan model.OrphanedFavorite, err error) model.FavoriteEvent {
	event := model.FavoriteEvent{RunID: result.RunID, ProjectID: cred.ProjectID, Orphan: orphan}
	if err != nil {
		event.Error = err.Error()
	}
	return event
}

// asAppError keeps typed errors and wraps anything else in fallback
func asAppError(err error, fallback *errors.AppError) error {
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		return err
	}
	return fallback.WithCause(err)
}
