package progression

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewQuizAttempt(t *testing.T) {
	attempt, err := NewQuizAttempt("att-1", "learner-1", "quiz-niche", 85, 70)
	require.NoError(t, err)

	assert.Equal(t, 85, attempt.Score)
	assert.True(t, attempt.Passed)
	assert.False(t, attempt.Perfect)
	assert.Equal(t, 0, attempt.XPEarned)
	assert.False(t, attempt.AttemptedAt.IsZero())
}

func TestNewQuizAttempt_FailingScore(t *testing.T) {
	attempt, err := NewQuizAttempt("att-1", "learner-1", "quiz-niche", 65, 70)
	require.NoError(t, err)

	assert.False(t, attempt.Passed)
	assert.False(t, attempt.Perfect)
}

func TestNewQuizAttempt_ExactPassingScorePasses(t *testing.T) {
	attempt, err := NewQuizAttempt("att-1", "learner-1", "quiz-niche", 70, 70)
	require.NoError(t, err)

	assert.True(t, attempt.Passed)
}

func TestNewQuizAttempt_PerfectScore(t *testing.T) {
	attempt, err := NewQuizAttempt("att-1", "learner-1", "quiz-niche", 100, 70)
	require.NoError(t, err)

	assert.True(t, attempt.Passed)
	assert.True(t, attempt.Perfect)
}

func TestNewQuizAttempt_Validation(t *testing.T) {
	_, err := NewQuizAttempt("", "learner-1", "quiz-niche", 50, 70)
	assert.Error(t, err)

	_, err = NewQuizAttempt("att-1", "", "quiz-niche", 50, 70)
	assert.Error(t, err)

	_, err = NewQuizAttempt("att-1", "learner-1", "", 50, 70)
	assert.Error(t, err)

	_, err = NewQuizAttempt("att-1", "learner-1", "quiz-niche", -1, 70)
	assert.ErrorIs(t, err, ErrInvalidScore)

	_, err = NewQuizAttempt("att-1", "learner-1", "quiz-niche", 101, 70)
	assert.ErrorIs(t, err, ErrInvalidScore)
}

func TestDayOf(t *testing.T) {
	// An afternoon in Paris is the same UTC day.
	paris, err := time.LoadLocation("Europe/Paris")
	require.NoError(t, err)

	afternoon := time.Date(2026, 3, 14, 15, 30, 0, 0, paris)
	assert.Equal(t, time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC), DayOf(afternoon))

	// One in the morning in Paris during winter is still the previous UTC day.
	night := time.Date(2026, 3, 14, 0, 30, 0, 0, paris)
	assert.Equal(t, time.Date(2026, 3, 13, 0, 0, 0, 0, time.UTC), DayOf(night))

	// Already-truncated instants are fixed points.
	midnight := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, midnight, DayOf(midnight))
}
