// Package query contains read operations (CQRS - Queries).
package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/crealearn/crealearn-backend/internal/domain/badge"
	"github.com/crealearn/crealearn-backend/internal/domain/learner"
	"github.com/crealearn/crealearn-backend/internal/domain/progression"
	"github.com/crealearn/crealearn-backend/internal/infrastructure/persistence/redis"
	"github.com/crealearn/crealearn-backend/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEARNER SUMMARY QUERY
// The aggregated progress view shown on the learner's dashboard: balance,
// level, completion counts and badge count in one payload. Served from a
// short-TTL cache; the cache is also invalidated on every XP gain, so the
// TTL only matters for the facts that change without XP moving.
// ══════════════════════════════════════════════════════════════════════════════

// SummaryCache is the cache surface the summary query needs.
type SummaryCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// GetLearnerSummaryQuery identifies the learner to summarize.
type GetLearnerSummaryQuery struct {
	// LearnerID is the internal ID of the learner.
	LearnerID string
}

// LearnerSummary is the aggregated progress view of one learner.
type LearnerSummary struct {
	// LearnerID is the internal ID of the learner.
	LearnerID string `json:"learner_id"`

	// DisplayName is the name shown on the platform.
	DisplayName string `json:"display_name"`

	// Level is the current level.
	Level int `json:"level"`

	// XP is the current XP balance.
	XP int `json:"xp"`

	// XPToNextLevel is the XP remaining before the next level.
	XPToNextLevel int `json:"xp_to_next_level"`

	// CompletedModules is the number of completed course modules.
	CompletedModules int `json:"completed_modules"`

	// PassedQuizzes is the number of distinct quizzes passed.
	PassedQuizzes int `json:"passed_quizzes"`

	// PerfectQuizzes is the number of perfect-score attempts.
	PerfectQuizzes int `json:"perfect_quizzes"`

	// TotalAttempts is the total number of quiz attempts.
	TotalAttempts int `json:"total_attempts"`

	// AverageScore is the mean score over all attempts (0 if none).
	AverageScore float64 `json:"average_score"`

	// SimulationRuns is the number of simulation sessions.
	SimulationRuns int `json:"simulation_runs"`

	// DailyChallenges is the number of daily challenges claimed.
	DailyChallenges int `json:"daily_challenges"`

	// BadgeCount is the number of badges earned.
	BadgeCount int `json:"badge_count"`

	// JoinedAt is when the account was created.
	JoinedAt time.Time `json:"joined_at"`
}

// GetLearnerSummaryHandler handles the GetLearnerSummaryQuery.
type GetLearnerSummaryHandler struct {
	learnerRepo  learner.Repository
	progressRepo progression.Repository
	awardRepo    badge.AwardRepository
	cache        SummaryCache
	cacheTTL     time.Duration
	log          *logger.Logger
}

// NewGetLearnerSummaryHandler creates a new GetLearnerSummaryHandler.
// The cache may be nil; every read then hits Postgres.
func NewGetLearnerSummaryHandler(
	learnerRepo learner.Repository,
	progressRepo progression.Repository,
	awardRepo badge.AwardRepository,
	cache SummaryCache,
	cacheTTL time.Duration,
	log *logger.Logger,
) *GetLearnerSummaryHandler {
	if cacheTTL <= 0 {
		cacheTTL = redis.TTLSummaryCache
	}
	if log == nil {
		log = logger.Default()
	}

	return &GetLearnerSummaryHandler{
		learnerRepo:  learnerRepo,
		progressRepo: progressRepo,
		awardRepo:    awardRepo,
		cache:        cache,
		cacheTTL:     cacheTTL,
		log:          log.With(logger.Component("get_learner_summary")),
	}
}

// Handle executes the learner summary query.
func (h *GetLearnerSummaryHandler) Handle(ctx context.Context, q GetLearnerSummaryQuery) (*LearnerSummary, error) {
	if q.LearnerID == "" {
		return nil, errors.New("get_learner_summary: learner_id is required")
	}

	key := redis.SummaryKey(q.LearnerID)

	if h.cache != nil {
		var cached LearnerSummary
		err := h.cache.Get(ctx, key, &cached)
		if err == nil {
			return &cached, nil
		}
		if !errors.Is(err, redis.ErrCacheMiss) {
			// A sick cache degrades to a slower read, never to an error.
			h.log.Warn("summary cache read failed",
				logger.LearnerID(q.LearnerID),
				logger.Err(err),
			)
		}
	}

	summary, err := h.build(ctx, q.LearnerID)
	if err != nil {
		return nil, err
	}

	if h.cache != nil {
		if err := h.cache.Set(ctx, key, summary, h.cacheTTL); err != nil {
			h.log.Warn("summary cache write failed",
				logger.LearnerID(q.LearnerID),
				logger.Err(err),
			)
		}
	}

	return summary, nil
}

// build assembles the summary from Postgres.
func (h *GetLearnerSummaryHandler) build(ctx context.Context, learnerID string) (*LearnerSummary, error) {
	l, err := h.learnerRepo.GetByID(ctx, learnerID)
	if err != nil {
		return nil, fmt.Errorf("get_learner_summary: %w", err)
	}

	stats, err := h.progressRepo.GetStats(ctx, learnerID)
	if err != nil {
		return nil, fmt.Errorf("get_learner_summary: failed to load stats: %w", err)
	}

	badges, err := h.awardRepo.CountAwards(ctx, learnerID)
	if err != nil {
		return nil, fmt.Errorf("get_learner_summary: failed to count badges: %w", err)
	}

	return &LearnerSummary{
		LearnerID:        l.ID,
		DisplayName:      l.DisplayName,
		Level:            int(l.CurrentLevel),
		XP:               int(l.CurrentXP),
		XPToNextLevel:    int(l.XPToNextLevel()),
		CompletedModules: stats.CompletedModules,
		PassedQuizzes:    stats.PassedQuizzes,
		PerfectQuizzes:   stats.PerfectQuizzes,
		TotalAttempts:    stats.TotalAttempts,
		AverageScore:     stats.AverageScore,
		SimulationRuns:   stats.SimulationRuns,
		DailyChallenges:  stats.DailyChallenges,
		BadgeCount:       badges,
		JoinedAt:         l.JoinedAt,
	}, nil
}
