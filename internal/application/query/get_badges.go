package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/crealearn/crealearn-backend/internal/domain/badge"
)

// ══════════════════════════════════════════════════════════════════════════════
// BADGES QUERY
// The badge grid: every definition in the collection, flagged with whether
// and when the learner earned it. Unearned badges are shown too; the grid
// is the roadmap.
// ══════════════════════════════════════════════════════════════════════════════

// GetBadgesQuery identifies the learner whose badge grid to build.
type GetBadgesQuery struct {
	// LearnerID is the internal ID of the learner.
	LearnerID string
}

// BadgeView is one badge in the grid.
type BadgeView struct {
	// ID is the badge identifier.
	ID string `json:"id"`

	// Name is the display name.
	Name string `json:"name"`

	// Description is the display description.
	Description string `json:"description"`

	// Emoji is the badge pictogram.
	Emoji string `json:"emoji"`

	// Earned is true when the learner holds this badge.
	Earned bool `json:"earned"`

	// EarnedAt is when the badge was earned (nil when not earned).
	EarnedAt *time.Time `json:"earned_at,omitempty"`
}

// BadgeGrid is the full badge response.
type BadgeGrid struct {
	// Badges are the definitions in collection order.
	Badges []BadgeView `json:"badges"`

	// EarnedCount is the number of badges held.
	EarnedCount int `json:"earned_count"`

	// TotalCount is the size of the collection.
	TotalCount int `json:"total_count"`
}

// GetBadgesHandler handles the GetBadgesQuery.
type GetBadgesHandler struct {
	definitions badge.DefinitionSource
	awardRepo   badge.AwardRepository
}

// NewGetBadgesHandler creates a new GetBadgesHandler.
func NewGetBadgesHandler(definitions badge.DefinitionSource, awardRepo badge.AwardRepository) *GetBadgesHandler {
	return &GetBadgesHandler{
		definitions: definitions,
		awardRepo:   awardRepo,
	}
}

// Handle executes the badges query.
func (h *GetBadgesHandler) Handle(ctx context.Context, q GetBadgesQuery) (*BadgeGrid, error) {
	if q.LearnerID == "" {
		return nil, errors.New("get_badges: learner_id is required")
	}

	defs, err := h.definitions.ListDefinitions(ctx)
	if err != nil {
		return nil, fmt.Errorf("get_badges: failed to list definitions: %w", err)
	}

	awards, err := h.awardRepo.ListAwards(ctx, q.LearnerID)
	if err != nil {
		return nil, fmt.Errorf("get_badges: failed to list awards: %w", err)
	}

	earnedAt := make(map[string]time.Time, len(awards))
	for _, a := range awards {
		earnedAt[a.BadgeID] = a.EarnedAt
	}

	grid := &BadgeGrid{
		Badges:     make([]BadgeView, 0, len(defs)),
		TotalCount: len(defs),
	}

	for _, d := range defs {
		view := BadgeView{
			ID:          d.ID,
			Name:        d.Name,
			Description: d.Description,
			Emoji:       d.Emoji,
		}
		if at, ok := earnedAt[d.ID]; ok {
			view.Earned = true
			at := at
			view.EarnedAt = &at
			grid.EarnedCount++
		}
		grid.Badges = append(grid.Badges, view)
	}

	return grid, nil
}
