package query

import (
	"context"
	"errors"
	"fmt"

	"github.com/crealearn/crealearn-backend/internal/domain/learner"
	"github.com/crealearn/crealearn-backend/internal/domain/shared"
	"github.com/crealearn/crealearn-backend/internal/infrastructure/persistence/redis"
	"github.com/crealearn/crealearn-backend/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD QUERY
// The global XP ranking. Ranks come from the Redis sorted set; display names
// and levels are resolved from Postgres. When Redis is unavailable or
// disabled, the query falls back to a Postgres scan ordered by XP.
// ══════════════════════════════════════════════════════════════════════════════

// DefaultLeaderboardLimit is used when the caller does not specify a limit.
const DefaultLeaderboardLimit = 10

// RankingSource is the Redis-side surface the leaderboard query needs.
type RankingSource interface {
	Top(ctx context.Context, n int64) ([]redis.RankedEntry, error)
	Rank(ctx context.Context, learnerID string) (redis.RankedEntry, error)
}

// GetLeaderboardQuery contains leaderboard query parameters.
type GetLeaderboardQuery struct {
	// Limit is the number of entries to return. Clamped to the configured
	// maximum; defaults to DefaultLeaderboardLimit when zero.
	Limit int

	// LearnerID, when set, also resolves this learner's own rank even if
	// they are outside the returned page.
	LearnerID string
}

// LeaderboardRow is one row of the rendered leaderboard.
type LeaderboardRow struct {
	// Rank is the 1-based position.
	Rank int `json:"rank"`

	// LearnerID is the internal ID of the learner.
	LearnerID string `json:"learner_id"`

	// DisplayName is the name shown on the platform.
	DisplayName string `json:"display_name"`

	// Level is the current level.
	Level int `json:"level"`

	// XP is the total experience points.
	XP int `json:"xp"`
}

// LeaderboardView is the full leaderboard response.
type LeaderboardView struct {
	// Rows are the top entries, best first.
	Rows []LeaderboardRow `json:"rows"`

	// Me is the requesting learner's own row (nil when not requested or
	// not ranked yet).
	Me *LeaderboardRow `json:"me,omitempty"`
}

// GetLeaderboardHandler handles the GetLeaderboardQuery.
type GetLeaderboardHandler struct {
	ranking     RankingSource
	learnerRepo learner.Repository
	maxLimit    int
	log         *logger.Logger
}

// NewGetLeaderboardHandler creates a new GetLeaderboardHandler.
// The ranking source may be nil; the handler then serves from Postgres only.
func NewGetLeaderboardHandler(
	ranking RankingSource,
	learnerRepo learner.Repository,
	maxLimit int,
	log *logger.Logger,
) *GetLeaderboardHandler {
	if maxLimit <= 0 {
		maxLimit = 100
	}
	if log == nil {
		log = logger.Default()
	}

	return &GetLeaderboardHandler{
		ranking:     ranking,
		learnerRepo: learnerRepo,
		maxLimit:    maxLimit,
		log:         log.With(logger.Component("get_leaderboard")),
	}
}

// Handle executes the leaderboard query.
func (h *GetLeaderboardHandler) Handle(ctx context.Context, q GetLeaderboardQuery) (*LeaderboardView, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultLeaderboardLimit
	}
	if limit > h.maxLimit {
		limit = h.maxLimit
	}

	if h.ranking == nil {
		return h.fromPostgres(ctx, q, limit)
	}

	view, err := h.fromRedis(ctx, q, limit)
	if err != nil {
		h.log.Warn("redis leaderboard unavailable, falling back to postgres",
			logger.Err(err),
		)
		return h.fromPostgres(ctx, q, limit)
	}

	return view, nil
}

// fromRedis serves the ranking from the sorted set, resolving names from
// Postgres.
func (h *GetLeaderboardHandler) fromRedis(ctx context.Context, q GetLeaderboardQuery, limit int) (*LeaderboardView, error) {
	entries, err := h.ranking.Top(ctx, int64(limit))
	if err != nil {
		return nil, err
	}

	view := &LeaderboardView{Rows: make([]LeaderboardRow, 0, len(entries))}

	for _, e := range entries {
		row, err := h.resolve(ctx, e)
		if err != nil {
			// A learner deleted from Postgres but still in the sorted set
			// disappears from the view until the next rebuild.
			if shared.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		view.Rows = append(view.Rows, row)
	}

	if q.LearnerID != "" {
		me, err := h.ranking.Rank(ctx, q.LearnerID)
		switch {
		case err == nil:
			row, rerr := h.resolve(ctx, me)
			if rerr == nil {
				view.Me = &row
			}
		case errors.Is(err, redis.ErrLearnerNotRanked):
			// Not ranked yet, leave Me nil.
		default:
			return nil, err
		}
	}

	return view, nil
}

// fromPostgres serves the ranking straight from the learners table.
func (h *GetLeaderboardHandler) fromPostgres(ctx context.Context, q GetLeaderboardQuery, limit int) (*LeaderboardView, error) {
	learners, err := h.learnerRepo.List(ctx, learner.ListOptions{Offset: 0, Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("get_leaderboard: %w", err)
	}

	view := &LeaderboardView{Rows: make([]LeaderboardRow, 0, len(learners))}
	for i, l := range learners {
		row := LeaderboardRow{
			Rank:        i + 1,
			LearnerID:   l.ID,
			DisplayName: l.DisplayName,
			Level:       int(l.CurrentLevel),
			XP:          int(l.CurrentXP),
		}
		view.Rows = append(view.Rows, row)

		if q.LearnerID != "" && l.ID == q.LearnerID {
			me := row
			view.Me = &me
		}
	}

	return view, nil
}

// resolve turns a ranked entry into a display row.
func (h *GetLeaderboardHandler) resolve(ctx context.Context, e redis.RankedEntry) (LeaderboardRow, error) {
	l, err := h.learnerRepo.GetByID(ctx, e.LearnerID)
	if err != nil {
		return LeaderboardRow{}, err
	}

	return LeaderboardRow{
		Rank:        int(e.Rank),
		LearnerID:   l.ID,
		DisplayName: l.DisplayName,
		Level:       int(l.CurrentLevel),
		XP:          int(e.XP),
	}, nil
}
