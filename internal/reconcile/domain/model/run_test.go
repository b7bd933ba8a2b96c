package model

import (
	"testing"
	"time"

	"favorites-reconciler/internal/shared/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunOptions_Validate(t *testing.T) {
	err := RunOptions{}.Validate()
	require.Error(t, err)
	assert.True(t, errors.IsInvalidCredential(err))
	assert.NoError(t, RunOptions{CredentialSource: "sa.json"}.Validate())
}

func TestRunResult_HappyPathTransitions(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	r := NewRunResult("run-1", RunOptions{}, start)
	for _, s := range []RunState{
		StateCredentialsLoaded, StateConnected, StateAuthoritativeSetBuilt,
		StateScanning, StateAwaitingConfirmation, StateDeleting,
	} {
		require.NoError(t, r.Transition(s), "transition to %s", s)
	}
	require.NoError(t, r.Finish(OutcomeCompleted, start.Add(time.Second)))
	assert.Equal(t, StateDone, r.State)
	assert.Equal(t, OutcomeCompleted, r.Outcome)
	assert.Equal(t, time.Second, r.Duration())
}

func TestRunResult_RejectsSkippedStates(t *testing.T) {
	r := NewRunResult("run-1", RunOptions{}, time.Now())
	err := r.Transition(StateScanning)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrInvalidStateChange)
	assert.Equal(t, StateInit, r.State)
}

func TestCanTransition_DeletingOnlyFromConfirmation(t *testing.T) {
	assert.True(t, CanTransition(StateAwaitingConfirmation, StateDeleting))
	assert.False(t, CanTransition(StateScanning, StateDeleting))
	assert.False(t, CanTransition(StateDryRunComplete, StateDeleting))
	assert.False(t, CanTransition(StateClean, StateDeleting))
	assert.False(t, CanTransition(StateDone, StateInit))
}

func TestRunStatistics(t *testing.T) {
	var s RunStatistics
	s.RecordUser(UserRecord{UserID: "u1", FavoriteIDs: []string{"b1", "b3"}}, 1)
	s.RecordUser(UserRecord{UserID: "u2"}, 0)
	assert.Equal(t, 2, s.TotalFavorites)
	assert.Equal(t, 1, s.UsersWithFavorites)
	assert.Equal(t, 1, s.OrphanedFavorites)
	assert.False(t, s.IsClean())
	assert.Equal(t, 1, s.PendingDeletions())

	rows := s.Rows()
	assert.Equal(t, [2]string{"Favorites checked", "2"}, rows[2])
}

func TestCredential_Database(t *testing.T) {
	assert.Equal(t, "(default)", (&Credential{}).Database())
	assert.Equal(t, "staging", (&Credential{DatabaseID: "staging"}).Database())
}
