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

func newQuizFixture(t *testing.T) (*fakeLearnerRepo, *fakeProgressionRepo, *eventRecorder, *SubmitQuizHandler) {
	t.Helper()

	learners := newFakeLearnerRepo()
	progress := newFakeProgressionRepo()
	events := &eventRecorder{}
	seedLearner(t, learners, "learner-1")

	awardXP := NewAwardXPHandler(learners, &fakeHistoryRepo{}, events, nil, nil)
	h := NewSubmitQuizHandler(catalog.NewDefaultCatalog(), progress, awardXP, events, nil)
	return learners, progress, events, h
}

// quiz-niche: passing score 70, reward 50, perfect bonus 25.

func TestSubmitQuiz_FailingAttemptEarnsNothing(t *testing.T) {
	learners, progress, events, h := newQuizFixture(t)

	result, err := h.Handle(context.Background(), SubmitQuizCommand{
		LearnerID: "learner-1",
		QuizID:    "quiz-niche",
		Score:     60,
	})
	require.NoError(t, err)

	assert.False(t, result.Passed)
	assert.False(t, result.FirstPass)
	assert.Zero(t, result.XPEarned)
	assert.Nil(t, result.Award)

	// The attempt is kept even though it failed.
	attempts, err := progress.ListQuizAttempts(context.Background(), "learner-1")
	require.NoError(t, err)
	assert.Len(t, attempts, 1)

	stored, err := learners.GetByID(context.Background(), "learner-1")
	require.NoError(t, err)
	assert.Equal(t, learner.XP(0), stored.CurrentXP)
	assert.Empty(t, events.ofType(shared.EventQuizPassed))
}

func TestSubmitQuiz_FirstPassEarnsReward(t *testing.T) {
	_, _, events, h := newQuizFixture(t)

	result, err := h.Handle(context.Background(), SubmitQuizCommand{
		LearnerID: "learner-1",
		QuizID:    "quiz-niche",
		Score:     85,
	})
	require.NoError(t, err)

	assert.True(t, result.Passed)
	assert.True(t, result.FirstPass)
	assert.False(t, result.Perfect)
	assert.Equal(t, 50, result.XPEarned)
	require.NotNil(t, result.Award)
	assert.Equal(t, 50, result.Award.NewXP)

	assert.Len(t, events.ofType(shared.EventQuizPassed), 1)
}

func TestSubmitQuiz_PerfectFirstPassEarnsBonus(t *testing.T) {
	_, _, _, h := newQuizFixture(t)

	result, err := h.Handle(context.Background(), SubmitQuizCommand{
		LearnerID: "learner-1",
		QuizID:    "quiz-niche",
		Score:     100,
	})
	require.NoError(t, err)

	assert.True(t, result.Perfect)
	assert.Equal(t, 75, result.XPEarned)
}

func TestSubmitQuiz_RetakeAfterPassEarnsNothing(t *testing.T) {
	learners, _, events, h := newQuizFixture(t)

	_, err := h.Handle(context.Background(), SubmitQuizCommand{
		LearnerID: "learner-1", QuizID: "quiz-niche", Score: 80,
	})
	require.NoError(t, err)

	// A later perfect score does not re-earn the reward or the bonus:
	// the quiz was already passed.
	result, err := h.Handle(context.Background(), SubmitQuizCommand{
		LearnerID: "learner-1", QuizID: "quiz-niche", Score: 100,
	})
	require.NoError(t, err)

	assert.True(t, result.Passed)
	assert.True(t, result.Perfect)
	assert.False(t, result.FirstPass)
	assert.Zero(t, result.XPEarned)
	assert.Nil(t, result.Award)

	stored, err := learners.GetByID(context.Background(), "learner-1")
	require.NoError(t, err)
	assert.Equal(t, learner.XP(50), stored.CurrentXP)

	// Both passes are still announced; only the credit is once-only.
	assert.Len(t, events.ofType(shared.EventQuizPassed), 2)
}

func TestSubmitQuiz_FailThenPassEarnsOnThePass(t *testing.T) {
	learners, _, _, h := newQuizFixture(t)

	_, err := h.Handle(context.Background(), SubmitQuizCommand{
		LearnerID: "learner-1", QuizID: "quiz-niche", Score: 40,
	})
	require.NoError(t, err)

	result, err := h.Handle(context.Background(), SubmitQuizCommand{
		LearnerID: "learner-1", QuizID: "quiz-niche", Score: 75,
	})
	require.NoError(t, err)

	assert.True(t, result.FirstPass)
	assert.Equal(t, 50, result.XPEarned)

	stored, err := learners.GetByID(context.Background(), "learner-1")
	require.NoError(t, err)
	assert.Equal(t, learner.XP(50), stored.CurrentXP)
}

// staleReadProgressionRepo reports no prior pass regardless of stored
// attempts, like two simultaneous submissions that both read before either
// insert committed.
type staleReadProgressionRepo struct {
	*fakeProgressionRepo
}

func (r *staleReadProgressionRepo) HasPassedQuiz(context.Context, string, string) (bool, error) {
	return false, nil
}

func TestSubmitQuiz_ConcurrentFirstPassCreditsOnce(t *testing.T) {
	learners := newFakeLearnerRepo()
	progress := &staleReadProgressionRepo{fakeProgressionRepo: newFakeProgressionRepo()}
	events := &eventRecorder{}
	seedLearner(t, learners, "learner-1")

	awardXP := NewAwardXPHandler(learners, &fakeHistoryRepo{}, events, nil, nil)
	h := NewSubmitQuizHandler(catalog.NewDefaultCatalog(), progress, awardXP, events, nil)

	first, err := h.Handle(context.Background(), SubmitQuizCommand{
		LearnerID: "learner-1", QuizID: "quiz-niche", Score: 85,
	})
	require.NoError(t, err)
	assert.True(t, first.FirstPass)
	assert.Equal(t, 50, first.XPEarned)

	// The second submission also believes it is first; the storage
	// constraint on rewarded attempts must stop the double credit.
	second, err := h.Handle(context.Background(), SubmitQuizCommand{
		LearnerID: "learner-1", QuizID: "quiz-niche", Score: 90,
	})
	require.NoError(t, err)

	assert.True(t, second.Passed)
	assert.False(t, second.FirstPass)
	assert.Zero(t, second.XPEarned)
	assert.Nil(t, second.Award)

	stored, err := learners.GetByID(context.Background(), "learner-1")
	require.NoError(t, err)
	assert.Equal(t, learner.XP(50), stored.CurrentXP)

	// The losing attempt is still kept, just without a reward.
	attempts, err := progress.ListQuizAttempts(context.Background(), "learner-1")
	require.NoError(t, err)
	require.Len(t, attempts, 2)
	assert.Equal(t, 50, attempts[0].XPEarned+attempts[1].XPEarned)
}

func TestSubmitQuiz_UnknownQuiz(t *testing.T) {
	_, _, _, h := newQuizFixture(t)

	_, err := h.Handle(context.Background(), SubmitQuizCommand{
		LearnerID: "learner-1", QuizID: "quiz-inconnu", Score: 80,
	})
	assert.True(t, shared.IsNotFound(err))
}

func TestSubmitQuiz_ScoreOutOfRange(t *testing.T) {
	_, _, _, h := newQuizFixture(t)

	_, err := h.Handle(context.Background(), SubmitQuizCommand{
		LearnerID: "learner-1", QuizID: "quiz-niche", Score: 120,
	})
	assert.Error(t, err)

	_, err = h.Handle(context.Background(), SubmitQuizCommand{
		LearnerID: "learner-1", QuizID: "quiz-niche", Score: -1,
	})
	assert.Error(t, err)
}
