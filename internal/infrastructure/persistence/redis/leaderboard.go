package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrLearnerNotRanked is returned when the learner is not in the leaderboard.
	ErrLearnerNotRanked = errors.New("leaderboard: learner not ranked")

	// ErrLearnerIDEmpty is returned when an empty learner ID is provided.
	ErrLearnerIDEmpty = errors.New("leaderboard: learner id cannot be empty")
)

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD
// ══════════════════════════════════════════════════════════════════════════════

// RankedEntry is one leaderboard row: a learner and their XP score.
// Display names are resolved by the query layer from Postgres.
type RankedEntry struct {
	// LearnerID is the unique identifier of the learner.
	LearnerID string `json:"learner_id"`

	// XP is the total experience points.
	XP int64 `json:"xp"`

	// Rank is the position in the leaderboard (1-based).
	Rank int64 `json:"rank"`
}

// Leaderboard maintains the global XP ranking in a Redis sorted set.
//
// The set "leaderboard:xp" maps learnerID -> XP. Incremental updates ride
// on XP-gained events via ZINCRBY; the worker periodically rebuilds the set
// from Postgres so drift (missed events, restored backups) self-heals.
type Leaderboard struct {
	cache *Cache
}

// keyLeaderboardXP is the sorted set holding the global XP ranking.
const keyLeaderboardXP = PrefixLeaderboard + "xp"

// NewLeaderboard creates a new Leaderboard instance.
func NewLeaderboard(cache *Cache) *Leaderboard {
	return &Leaderboard{cache: cache}
}

// IncrementScore adds delta to a learner's score. O(log N).
func (l *Leaderboard) IncrementScore(ctx context.Context, learnerID string, delta int64) error {
	if learnerID == "" {
		return ErrLearnerIDEmpty
	}

	return l.cache.Client().ZIncrBy(ctx, keyLeaderboardXP, float64(delta), learnerID).Err()
}

// SetScore sets a learner's absolute score.
func (l *Leaderboard) SetScore(ctx context.Context, learnerID string, xp int64) error {
	if learnerID == "" {
		return ErrLearnerIDEmpty
	}

	return l.cache.Client().ZAdd(ctx, keyLeaderboardXP, redis.Z{
		Score:  float64(xp),
		Member: learnerID,
	}).Err()
}

// Top returns the top N entries, best first.
func (l *Leaderboard) Top(ctx context.Context, n int64) ([]RankedEntry, error) {
	if n <= 0 {
		return nil, nil
	}

	results, err := l.cache.Client().ZRevRangeWithScores(ctx, keyLeaderboardXP, 0, n-1).Result()
	if err != nil {
		return nil, fmt.Errorf("leaderboard: failed to fetch top entries: %w", err)
	}

	entries := make([]RankedEntry, 0, len(results))
	for i, z := range results {
		id, ok := z.Member.(string)
		if !ok {
			continue
		}
		entries = append(entries, RankedEntry{
			LearnerID: id,
			XP:        int64(z.Score),
			Rank:      int64(i) + 1,
		})
	}

	return entries, nil
}

// Rank returns a learner's 1-based rank and score.
// Returns ErrLearnerNotRanked if the learner has no score yet.
func (l *Leaderboard) Rank(ctx context.Context, learnerID string) (RankedEntry, error) {
	if learnerID == "" {
		return RankedEntry{}, ErrLearnerIDEmpty
	}

	pipe := l.cache.Client().Pipeline()
	rankCmd := pipe.ZRevRank(ctx, keyLeaderboardXP, learnerID)
	scoreCmd := pipe.ZScore(ctx, keyLeaderboardXP, learnerID)

	if _, err := pipe.Exec(ctx); err != nil {
		if errors.Is(err, redis.Nil) {
			return RankedEntry{}, ErrLearnerNotRanked
		}
		return RankedEntry{}, fmt.Errorf("leaderboard: failed to fetch rank: %w", err)
	}

	return RankedEntry{
		LearnerID: learnerID,
		XP:        int64(scoreCmd.Val()),
		Rank:      rankCmd.Val() + 1,
	}, nil
}

// Size returns the number of ranked learners.
func (l *Leaderboard) Size(ctx context.Context) (int64, error) {
	return l.cache.Client().ZCard(ctx, keyLeaderboardXP).Result()
}

// Rebuild replaces the whole ranking with the given scores atomically.
// Called by the worker with fresh data from Postgres.
func (l *Leaderboard) Rebuild(ctx context.Context, scores map[string]int64) error {
	pipe := l.cache.Client().TxPipeline()

	pipe.Del(ctx, keyLeaderboardXP)

	if len(scores) > 0 {
		members := make([]redis.Z, 0, len(scores))
		for id, xp := range scores {
			if id == "" {
				continue
			}
			members = append(members, redis.Z{Score: float64(xp), Member: id})
		}
		pipe.ZAdd(ctx, keyLeaderboardXP, members...)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("leaderboard: rebuild failed: %w", err)
	}

	return nil
}
