package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crealearn/crealearn-backend/internal/domain/catalog"
	"github.com/crealearn/crealearn-backend/internal/domain/learner"
	"github.com/crealearn/crealearn-backend/internal/domain/shared"
)

func newModuleFixture(t *testing.T) (*fakeLearnerRepo, *fakeProgressionRepo, *eventRecorder, *CompleteModuleHandler) {
	t.Helper()

	learners := newFakeLearnerRepo()
	progress := newFakeProgressionRepo()
	events := &eventRecorder{}
	seedLearner(t, learners, "learner-1")

	awardXP := NewAwardXPHandler(learners, &fakeHistoryRepo{}, events, nil, nil)
	h := NewCompleteModuleHandler(catalog.NewDefaultCatalog(), progress, awardXP, events, nil)
	return learners, progress, events, h
}

func TestCompleteModule_FirstCompletionEarnsXP(t *testing.T) {
	learners, _, events, h := newModuleFixture(t)

	result, err := h.Handle(context.Background(), CompleteModuleCommand{
		LearnerID: "learner-1",
		ModuleID:  "mod-trouver-sa-niche",
	})
	require.NoError(t, err)

	assert.False(t, result.AlreadyCompleted)
	assert.Equal(t, 150, result.XPEarned)
	require.NotNil(t, result.Award)
	assert.Equal(t, 150, result.Award.NewXP)

	stored, err := learners.GetByID(context.Background(), "learner-1")
	require.NoError(t, err)
	assert.Equal(t, learner.XP(150), stored.CurrentXP)

	assert.Len(t, events.ofType(shared.EventModuleCompleted), 1)
	assert.Len(t, events.ofType(shared.EventXPGained), 1)
}

func TestCompleteModule_RepeatIsIdempotent(t *testing.T) {
	learners, _, events, h := newModuleFixture(t)

	cmd := CompleteModuleCommand{LearnerID: "learner-1", ModuleID: "mod-trouver-sa-niche"}

	_, err := h.Handle(context.Background(), cmd)
	require.NoError(t, err)

	result, err := h.Handle(context.Background(), cmd)
	require.NoError(t, err)

	assert.True(t, result.AlreadyCompleted)
	assert.Zero(t, result.XPEarned)
	assert.Nil(t, result.Award)

	// The balance did not move and no second completion event went out.
	stored, err := learners.GetByID(context.Background(), "learner-1")
	require.NoError(t, err)
	assert.Equal(t, learner.XP(150), stored.CurrentXP)
	assert.Len(t, events.ofType(shared.EventModuleCompleted), 1)
	assert.Len(t, events.ofType(shared.EventXPGained), 1)
}

func TestCompleteModule_UnknownModule(t *testing.T) {
	_, progress, _, h := newModuleFixture(t)

	_, err := h.Handle(context.Background(), CompleteModuleCommand{
		LearnerID: "learner-1",
		ModuleID:  "mod-inconnu",
	})
	assert.True(t, shared.IsNotFound(err))

	// Nothing was recorded for the failed lookup.
	done, err := progress.HasCompletedModule(context.Background(), "learner-1", "mod-inconnu")
	require.NoError(t, err)
	assert.False(t, done)
}

func TestCompleteModule_Validation(t *testing.T) {
	_, _, _, h := newModuleFixture(t)

	_, err := h.Handle(context.Background(), CompleteModuleCommand{ModuleID: "mod-x"})
	assert.Error(t, err)

	_, err = h.Handle(context.Background(), CompleteModuleCommand{LearnerID: "learner-1"})
	assert.Error(t, err)
}
