package testutil

import (
	"context"
	"fmt"
	"sync"

	"favorites-reconciler/internal/reconcile/domain/model"
	"favorites-reconciler/internal/reconcile/domain/repository"
)

// ScriptedConfirmer answers every prompt with Answer, or fails with Err
type ScriptedConfirmer struct {
	Answer  bool
	Err     error
	Prompts []string
}

var _ repository.Confirmer = (*ScriptedConfirmer)(nil)

// Confirm implements repository.Confirmer
func (c *ScriptedConfirmer) Confirm(ctx context.Context, prompt string) (bool, error) {
	c.Prompts = append(c.Prompts, prompt)
	if c.Err != nil {
		return false, c.Err
	}
	return c.Answer, nil
}

// RecordingReporter keeps every event it receives as a formatted line
type RecordingReporter struct {
	mu     sync.Mutex
	Lines  []string
	Result *model.RunResult
	Err    error
}

var _ repository.Reporter = (*RecordingReporter)(nil)

func (r *RecordingReporter) record(format string, args ...interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Lines = append(r.Lines, fmt.Sprintf(format, args...))
}

// Contains reports whether any recorded line equals line
func (r *RecordingReporter) Contains(line string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.Lines {
		if l == line {
			return true
		}
	}
	return false
}

func (r *RecordingReporter) Connected(projectID, databaseID string) {
	r.record("connected %s/%s", projectID, databaseID)
}

func (r *RecordingReporter) AuthoritativeSetLoaded(collection string, count int) {
	r.record("loaded %d %s", count, collection)
}

func (r *RecordingReporter) UsersFound(collection string, count int) {
	r.record("found %d %s", count, collection)
}

func (r *RecordingReporter) UserScanned(userID string, favorites, orphans int) {
	r.record("scanned %s favorites=%d orphans=%d", userID, favorites, orphans)
}

func (r *RecordingReporter) UserScanFailed(userID string, err error) {
	r.record("scan failed %s: %v", userID, err)
}

func (r *RecordingReporter) ScanSummary(stats model.RunStatistics, orphans []model.OrphanedFavorite) {
	r.record("summary orphans=%d", stats.OrphanedFavorites)
	for _, o := range orphans {
		r.record("orphan %s", o.Path())
	}
}

func (r *RecordingReporter) Clean() {
	r.record("database is clean")
}

func (r *RecordingReporter) DryRun(orphans int) {
	r.record("dry run: %d", orphans)
}

func (r *RecordingReporter) Cancelled() {
	r.record("cancelled by user")
}

func (r *RecordingReporter) DeletionStarted(orphans int) {
	r.record("deleting %d", orphans)
}

func (r *RecordingReporter) Deleted(orphan model.OrphanedFavorite) {
	r.record("deleted %s", orphan.Path())
}

func (r *RecordingReporter) DeletionFailed(orphan model.OrphanedFavorite, err error) {
	r.record("failed %s", orphan.Path())
}

func (r *RecordingReporter) FinalSummary(result *model.RunResult) {
	r.mu.Lock()
	r.Result = result
	r.mu.Unlock()
	r.record("final %s", result.Outcome)
}

func (r *RecordingReporter) Failure(err error) {
	r.mu.Lock()
	r.Err = err
	r.mu.Unlock()
	r.record("failure: %v", err)
}
