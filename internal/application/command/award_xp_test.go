package command

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crealearn/crealearn-backend/internal/domain/learner"
	"github.com/crealearn/crealearn-backend/internal/domain/shared"
)

func seedLearner(t *testing.T, repo *fakeLearnerRepo, id string) {
	t.Helper()
	l, err := learner.NewLearner(learner.NewLearnerParams{
		ID:           id,
		Email:        id + "@exemple.fr",
		PasswordHash: "hash",
		DisplayName:  "Apprenant " + id,
	})
	require.NoError(t, err)
	repo.put(l)
}

func TestAwardXP_CreditsAndLevels(t *testing.T) {
	repo := newFakeLearnerRepo()
	history := &fakeHistoryRepo{}
	events := &eventRecorder{}
	seedLearner(t, repo, "learner-1")

	h := NewAwardXPHandler(repo, history, events, nil, nil)

	result, err := h.Handle(context.Background(), AwardXPCommand{
		LearnerID: "learner-1",
		Amount:    150,
		Source:    SourceModuleCompleted,
		Reference: "mod-trouver-sa-niche",
	})
	require.NoError(t, err)

	assert.Equal(t, 0, result.OldXP)
	assert.Equal(t, 150, result.NewXP)
	assert.Equal(t, 1, result.OldLevel)
	assert.Equal(t, 2, result.NewLevel)
	assert.True(t, result.LeveledUp)
	assert.Equal(t, 1, result.Attempts)

	stored, err := repo.GetByID(context.Background(), "learner-1")
	require.NoError(t, err)
	assert.Equal(t, learner.XP(150), stored.CurrentXP)
	assert.Equal(t, learner.Level(2), stored.CurrentLevel)

	require.Len(t, history.entries, 1)
	assert.Equal(t, learner.XP(150), history.entries[0].Delta)
	assert.Equal(t, SourceModuleCompleted, history.entries[0].Source)

	assert.Len(t, events.ofType(shared.EventXPGained), 1)
	assert.Len(t, events.ofType(shared.EventLevelUp), 1)
}

func TestAwardXP_NoLevelUpEventBelowThreshold(t *testing.T) {
	repo := newFakeLearnerRepo()
	events := &eventRecorder{}
	seedLearner(t, repo, "learner-1")

	h := NewAwardXPHandler(repo, &fakeHistoryRepo{}, events, nil, nil)

	result, err := h.Handle(context.Background(), AwardXPCommand{
		LearnerID: "learner-1",
		Amount:    50,
		Source:    SourceDailyChallenge,
	})
	require.NoError(t, err)

	assert.False(t, result.LeveledUp)
	assert.Len(t, events.ofType(shared.EventXPGained), 1)
	assert.Empty(t, events.ofType(shared.EventLevelUp))
}

func TestAwardXP_Validation(t *testing.T) {
	h := NewAwardXPHandler(newFakeLearnerRepo(), &fakeHistoryRepo{}, &eventRecorder{}, nil, nil)

	_, err := h.Handle(context.Background(), AwardXPCommand{Amount: 10, Source: SourceQuizPassed})
	assert.Error(t, err)

	_, err = h.Handle(context.Background(), AwardXPCommand{LearnerID: "l", Amount: -5, Source: SourceQuizPassed})
	assert.Error(t, err)

	_, err = h.Handle(context.Background(), AwardXPCommand{LearnerID: "l", Amount: 10})
	assert.Error(t, err)
}

func TestAwardXP_UnknownLearner(t *testing.T) {
	h := NewAwardXPHandler(newFakeLearnerRepo(), &fakeHistoryRepo{}, &eventRecorder{}, nil, nil)

	_, err := h.Handle(context.Background(), AwardXPCommand{
		LearnerID: "fantome",
		Amount:    10,
		Source:    SourceQuizPassed,
	})
	assert.True(t, shared.IsNotFound(err))
}

func TestAwardXP_RetriesOnVersionConflict(t *testing.T) {
	repo := newFakeLearnerRepo()
	seedLearner(t, repo, "learner-1")
	repo.conflictsToInject = 2

	h := NewAwardXPHandler(repo, &fakeHistoryRepo{}, &eventRecorder{}, nil, nil)

	result, err := h.Handle(context.Background(), AwardXPCommand{
		LearnerID: "learner-1",
		Amount:    100,
		Source:    SourceQuizPassed,
	})
	require.NoError(t, err)

	assert.Equal(t, 3, result.Attempts)
	assert.Equal(t, 100, result.NewXP)
}

func TestAwardXP_ConcurrentAwardsLoseNothing(t *testing.T) {
	repo := newFakeLearnerRepo()
	seedLearner(t, repo, "learner-1")

	h := NewAwardXPHandler(repo, &fakeHistoryRepo{}, &eventRecorder{}, nil, nil)

	const workers = 8
	const amount = 50

	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = h.Handle(context.Background(), AwardXPCommand{
				LearnerID: "learner-1",
				Amount:    amount,
				Source:    SourceSimulationUsed,
			})
		}(i)
	}
	wg.Wait()

	credited := 0
	for _, err := range errs {
		if err == nil {
			credited++
		}
	}
	require.Greater(t, credited, 0)

	stored, err := repo.GetByID(context.Background(), "learner-1")
	require.NoError(t, err)
	assert.Equal(t, learner.XP(credited*amount), stored.CurrentXP)
	assert.NoError(t, stored.CheckInvariant())
}

func TestAwardXP_TriggersBadgeEvaluation(t *testing.T) {
	repo := newFakeLearnerRepo()
	seedLearner(t, repo, "learner-1")

	var evaluated []string
	eval := badgeEvaluatorFunc(func(_ context.Context, cmd EvaluateBadgesCommand) (*EvaluateBadgesResult, error) {
		evaluated = append(evaluated, cmd.LearnerID)
		return &EvaluateBadgesResult{LearnerID: cmd.LearnerID}, nil
	})

	h := NewAwardXPHandler(repo, &fakeHistoryRepo{}, &eventRecorder{}, eval, nil)

	_, err := h.Handle(context.Background(), AwardXPCommand{
		LearnerID: "learner-1",
		Amount:    25,
		Source:    SourceDailyChallenge,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"learner-1"}, evaluated)
}

type badgeEvaluatorFunc func(ctx context.Context, cmd EvaluateBadgesCommand) (*EvaluateBadgesResult, error)

func (f badgeEvaluatorFunc) Handle(ctx context.Context, cmd EvaluateBadgesCommand) (*EvaluateBadgesResult, error) {
	return f(ctx, cmd)
}
