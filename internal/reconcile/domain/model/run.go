package model

import (
	"fmt"
	"time"

	"favorites-reconciler/internal/shared/errors"
)

// RunOptions are the per-invocation switches of the job
type RunOptions struct {
	CredentialSource string
	AutoConfirm      bool
	DryRun           bool
	Verbose          bool
}

// Validate checks the options before anything else runs
func (o RunOptions) Validate() error {
	if o.CredentialSource == "" {
		return errors.NewInvalidCredentialError("credential source is required").WithCause(errors.ErrMissingCredential)
	}
	return nil
}

// RunState is a step of the reconciliation state machine
type RunState string

const (
	StateInit                  RunState = "init"
	StateCredentialsLoaded     RunState = "credentials_loaded"
	StateConnected             RunState = "connected"
	StateAuthoritativeSetBuilt RunState = "authoritative_set_built"
	StateScanning              RunState = "scanning"
	StateClean                 RunState = "clean"
	StateAwaitingConfirmation  RunState = "awaiting_confirmation"
	StateDryRunComplete        RunState = "dry_run_complete"
	StateDeleting              RunState = "deleting"
	StateDone                  RunState = "done"
)

var transitions = map[RunState][]RunState{
	StateInit:                  {StateCredentialsLoaded},
	StateCredentialsLoaded:     {StateConnected},
	StateConnected:             {StateAuthoritativeSetBuilt},
	StateAuthoritativeSetBuilt: {StateScanning},
	StateScanning:              {StateClean, StateAwaitingConfirmation, StateDryRunComplete},
	StateClean:                 {StateDone},
	StateDryRunComplete:        {StateDone},
	StateAwaitingConfirmation:  {StateDeleting, StateDone},
	StateDeleting:              {StateDone},
}

// CanTransition reports whether the state machine allows from -> to
func CanTransition(from, to RunState) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Outcome summarizes how a run that reached Done ended
type Outcome string

const (
	OutcomeClean     Outcome = "clean"
	OutcomeDryRun    Outcome = "dry_run"
	OutcomeCancelled Outcome = "cancelled"
	OutcomeCompleted Outcome = "completed"
)

// DeletionFailure records one orphan that could not be deleted
type DeletionFailure struct {
	Orphan OrphanedFavorite `json:"orphan"`
	Reason string           `json:"reason"`
}

// ScanFailure records one user whose favorites could not be listed
type ScanFailure struct {
	UserID string `json:"userId"`
	Reason string `json:"reason"`
}

// RunResult is the outcome of one run
type RunResult struct {
	RunID            string             `json:"runId"`
	State            RunState           `json:"state"`
	Outcome          Outcome            `json:"outcome,omitempty"`
	Options          RunOptions         `json:"-"`
	Statistics       RunStatistics      `json:"statistics"`
	Orphans          []OrphanedFavorite `json:"orphans"`
	DeletionFailures []DeletionFailure  `json:"deletionFailures,omitempty"`
	ScanFailures     []ScanFailure      `json:"scanFailures,omitempty"`
	StartedAt        time.Time          `json:"startedAt"`
	FinishedAt       time.Time          `json:"finishedAt,omitempty"`
}

// NewRunResult starts a result in StateInit
func NewRunResult(runID string, opts RunOptions, now time.Time) *RunResult {
	return &RunResult{
		RunID:     runID,
		State:     StateInit,
		Options:   opts,
		StartedAt: now,
	}
}

// Transition moves the result to the next state
func (r *RunResult) Transition(to RunState) error {
	if !CanTransition(r.State, to) {
		return errors.NewInternalError(fmt.Sprintf("cannot move run from %s to %s", r.State, to)).
			WithCause(errors.ErrInvalidStateChange)
	}
	r.State = to
	return nil
}

// Finish moves the result to Done with the given outcome
func (r *RunResult) Finish(outcome Outcome, now time.Time) error {
	if err := r.Transition(StateDone); err != nil {
		return err
	}
	r.Outcome = outcome
	r.FinishedAt = now
	return nil
}

// Duration is the wall time of a finished run
func (r *RunResult) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
