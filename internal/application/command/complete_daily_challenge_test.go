package command

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crealearn/crealearn-backend/internal/domain/catalog"
	"github.com/crealearn/crealearn-backend/internal/domain/learner"
	"github.com/crealearn/crealearn-backend/internal/domain/shared"
)

func newChallengeFixture(t *testing.T) (*fakeLearnerRepo, *eventRecorder, *CompleteDailyChallengeHandler) {
	t.Helper()

	learners := newFakeLearnerRepo()
	events := &eventRecorder{}
	seedLearner(t, learners, "learner-1")

	awardXP := NewAwardXPHandler(learners, &fakeHistoryRepo{}, events, nil, nil)
	h := NewCompleteDailyChallengeHandler(newFakeProgressionRepo(), awardXP, events, nil)
	return learners, events, h
}

func TestCompleteDailyChallenge_FirstClaimEarnsXP(t *testing.T) {
	learners, events, h := newChallengeFixture(t)

	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	result, err := h.Handle(context.Background(), CompleteDailyChallengeCommand{
		LearnerID: "learner-1",
		Now:       now,
	})
	require.NoError(t, err)

	assert.False(t, result.AlreadyClaimed)
	assert.Equal(t, catalog.DailyChallengeXP, result.XPEarned)
	assert.Equal(t, time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC), result.Day)
	require.NotNil(t, result.Award)

	stored, err := learners.GetByID(context.Background(), "learner-1")
	require.NoError(t, err)
	assert.Equal(t, learner.XP(catalog.DailyChallengeXP), stored.CurrentXP)

	assert.Len(t, events.ofType(shared.EventDailyChallengeCompleted), 1)
}

func TestCompleteDailyChallenge_SecondClaimSameDayIsIdempotent(t *testing.T) {
	learners, events, h := newChallengeFixture(t)

	morning := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	evening := time.Date(2026, 3, 14, 22, 30, 0, 0, time.UTC)

	_, err := h.Handle(context.Background(), CompleteDailyChallengeCommand{
		LearnerID: "learner-1", Now: morning,
	})
	require.NoError(t, err)

	result, err := h.Handle(context.Background(), CompleteDailyChallengeCommand{
		LearnerID: "learner-1", Now: evening,
	})
	require.NoError(t, err)

	assert.True(t, result.AlreadyClaimed)
	assert.Zero(t, result.XPEarned)
	assert.Nil(t, result.Award)

	stored, err := learners.GetByID(context.Background(), "learner-1")
	require.NoError(t, err)
	assert.Equal(t, learner.XP(catalog.DailyChallengeXP), stored.CurrentXP)
	assert.Len(t, events.ofType(shared.EventDailyChallengeCompleted), 1)
}

func TestCompleteDailyChallenge_NextDayClaimsAgain(t *testing.T) {
	learners, _, h := newChallengeFixture(t)

	day1 := time.Date(2026, 3, 14, 23, 59, 0, 0, time.UTC)
	day2 := time.Date(2026, 3, 15, 0, 1, 0, 0, time.UTC)

	_, err := h.Handle(context.Background(), CompleteDailyChallengeCommand{
		LearnerID: "learner-1", Now: day1,
	})
	require.NoError(t, err)

	result, err := h.Handle(context.Background(), CompleteDailyChallengeCommand{
		LearnerID: "learner-1", Now: day2,
	})
	require.NoError(t, err)

	assert.False(t, result.AlreadyClaimed)
	assert.Equal(t, catalog.DailyChallengeXP, result.XPEarned)

	stored, err := learners.GetByID(context.Background(), "learner-1")
	require.NoError(t, err)
	assert.Equal(t, learner.XP(2*catalog.DailyChallengeXP), stored.CurrentXP)
}

func TestCompleteDailyChallenge_RequiresLearnerID(t *testing.T) {
	_, _, h := newChallengeFixture(t)

	_, err := h.Handle(context.Background(), CompleteDailyChallengeCommand{})
	assert.Error(t, err)
}
