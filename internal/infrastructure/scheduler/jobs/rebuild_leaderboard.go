// Package jobs contains the worker's scheduled jobs.
package jobs

import (
	"context"
	"fmt"

	"github.com/crealearn/crealearn-backend/internal/domain/learner"
	"github.com/crealearn/crealearn-backend/pkg/logger"
)

// LeaderboardRebuilder is the Redis-side interface the rebuild job needs.
type LeaderboardRebuilder interface {
	Rebuild(ctx context.Context, scores map[string]int64) error
}

// RebuildLeaderboardJob resynchronizes the Redis leaderboard from Postgres.
// Incremental ZINCRBY updates can drift after missed events or a restored
// backup; a periodic full rebuild makes the ranking self-healing.
type RebuildLeaderboardJob struct {
	learners    learner.Repository
	leaderboard LeaderboardRebuilder
	log         *logger.Logger
	batchSize   int
}

// NewRebuildLeaderboardJob creates the rebuild job.
func NewRebuildLeaderboardJob(learners learner.Repository, leaderboard LeaderboardRebuilder, log *logger.Logger) *RebuildLeaderboardJob {
	return &RebuildLeaderboardJob{
		learners:    learners,
		leaderboard: leaderboard,
		log:         log.With(logger.Component("rebuild_leaderboard")),
		batchSize:   500,
	}
}

// Name returns the unique name of the job.
func (j *RebuildLeaderboardJob) Name() string {
	return "rebuild_leaderboard"
}

// Run fetches all learners page by page and replaces the Redis ranking.
func (j *RebuildLeaderboardJob) Run(ctx context.Context) error {
	scores := make(map[string]int64)

	opts := learner.ListOptions{Offset: 0, Limit: j.batchSize}
	for {
		page, err := j.learners.List(ctx, opts)
		if err != nil {
			return fmt.Errorf("list learners: %w", err)
		}

		for _, l := range page {
			scores[l.ID] = int64(l.CurrentXP)
		}

		if len(page) < opts.Limit {
			break
		}
		opts.Offset += opts.Limit
	}

	if err := j.leaderboard.Rebuild(ctx, scores); err != nil {
		return fmt.Errorf("rebuild leaderboard: %w", err)
	}

	j.log.Info("leaderboard rebuilt", logger.Int("learners", len(scores)))
	return nil
}
