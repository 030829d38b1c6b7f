package query

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crealearn/crealearn-backend/internal/domain/badge"
)

func TestGetBadges_GridShowsEarnedAndUnearned(t *testing.T) {
	earnedAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	awards := &fakeAwardRepo{awards: []badge.Award{
		{LearnerID: "learner-1", BadgeID: "premier-pas", EarnedAt: earnedAt},
	}}

	h := NewGetBadgesHandler(badge.MustStaticDefinitions(badge.DefaultDefinitions()), awards)

	grid, err := h.Handle(context.Background(), GetBadgesQuery{LearnerID: "learner-1"})
	require.NoError(t, err)

	assert.Equal(t, len(badge.DefaultDefinitions()), grid.TotalCount)
	assert.Equal(t, 1, grid.EarnedCount)
	assert.Len(t, grid.Badges, grid.TotalCount)

	byID := make(map[string]BadgeView)
	for _, v := range grid.Badges {
		byID[v.ID] = v
	}

	premier := byID["premier-pas"]
	assert.True(t, premier.Earned)
	require.NotNil(t, premier.EarnedAt)
	assert.Equal(t, earnedAt, *premier.EarnedAt)

	explorateur := byID["explorateur"]
	assert.False(t, explorateur.Earned)
	assert.Nil(t, explorateur.EarnedAt)
}

func TestGetBadges_AnotherLearnersAwardsDoNotLeak(t *testing.T) {
	awards := &fakeAwardRepo{awards: []badge.Award{
		{LearnerID: "autre", BadgeID: "premier-pas", EarnedAt: time.Now()},
	}}

	h := NewGetBadgesHandler(badge.MustStaticDefinitions(badge.DefaultDefinitions()), awards)

	grid, err := h.Handle(context.Background(), GetBadgesQuery{LearnerID: "learner-1"})
	require.NoError(t, err)
	assert.Zero(t, grid.EarnedCount)
}

func TestGetBadges_RequiresLearnerID(t *testing.T) {
	h := NewGetBadgesHandler(badge.MustStaticDefinitions(badge.DefaultDefinitions()), &fakeAwardRepo{})

	_, err := h.Handle(context.Background(), GetBadgesQuery{})
	assert.Error(t, err)
}
