package query

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/crealearn/crealearn-backend/internal/domain/badge"
	"github.com/crealearn/crealearn-backend/internal/domain/learner"
	"github.com/crealearn/crealearn-backend/internal/domain/progression"
	"github.com/crealearn/crealearn-backend/internal/domain/shared"
	"github.com/crealearn/crealearn-backend/internal/infrastructure/persistence/redis"
)

// ══════════════════════════════════════════════════════════════════════════════
// IN-MEMORY FAKES
// ══════════════════════════════════════════════════════════════════════════════

type fakeLearnerRepo struct {
	mu       sync.Mutex
	learners map[string]*learner.Learner
}

func newFakeLearnerRepo() *fakeLearnerRepo {
	return &fakeLearnerRepo{learners: make(map[string]*learner.Learner)}
}

func (r *fakeLearnerRepo) put(l *learner.Learner) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.learners[l.ID] = l.Clone()
}

func (r *fakeLearnerRepo) Create(_ context.Context, l *learner.Learner) error {
	r.put(l)
	return nil
}

func (r *fakeLearnerRepo) GetByID(_ context.Context, id string) (*learner.Learner, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.learners[id]
	if !ok {
		return nil, shared.ErrLearnerNotFound
	}
	return l.Clone(), nil
}

func (r *fakeLearnerRepo) GetByEmail(_ context.Context, email string) (*learner.Learner, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, l := range r.learners {
		if l.Email == email {
			return l.Clone(), nil
		}
	}
	return nil, shared.ErrLearnerNotFound
}

func (r *fakeLearnerRepo) UpdateProgress(_ context.Context, l *learner.Learner) error {
	r.put(l)
	return nil
}

func (r *fakeLearnerRepo) List(_ context.Context, opts learner.ListOptions) ([]*learner.Learner, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	all := make([]*learner.Learner, 0, len(r.learners))
	for _, l := range r.learners {
		all = append(all, l.Clone())
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CurrentXP > all[j].CurrentXP })

	if opts.Offset >= len(all) {
		return nil, nil
	}
	all = all[opts.Offset:]
	if opts.Limit > 0 && opts.Limit < len(all) {
		all = all[:opts.Limit]
	}
	return all, nil
}

func (r *fakeLearnerRepo) Count(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.learners), nil
}

func (r *fakeLearnerRepo) Exists(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.learners[id]
	return ok, nil
}

// statsRepo serves fixed stats and stubs the rest of the progression surface.
type statsRepo struct {
	stats progression.LearnerStats
}

func (r *statsRepo) RecordModuleCompletion(context.Context, progression.ModuleCompletion) error {
	return nil
}

func (r *statsRepo) HasCompletedModule(context.Context, string, string) (bool, error) {
	return false, nil
}

func (r *statsRepo) RecordQuizAttempt(context.Context, progression.QuizAttempt) error {
	return nil
}

func (r *statsRepo) HasPassedQuiz(context.Context, string, string) (bool, error) {
	return false, nil
}

func (r *statsRepo) RecordSimulationRun(context.Context, progression.SimulationRun) error {
	return nil
}

func (r *statsRepo) RecordDailyChallengeClaim(context.Context, progression.DailyChallengeClaim) error {
	return nil
}

func (r *statsRepo) HasClaimedChallenge(context.Context, string, time.Time) (bool, error) {
	return false, nil
}

func (r *statsRepo) GetStats(context.Context, string) (progression.LearnerStats, error) {
	return r.stats, nil
}

func (r *statsRepo) ListCompletions(context.Context, string) ([]progression.ModuleCompletion, error) {
	return nil, nil
}

func (r *statsRepo) ListQuizAttempts(context.Context, string) ([]progression.QuizAttempt, error) {
	return nil, nil
}

type fakeAwardRepo struct {
	awards []badge.Award
}

func (r *fakeAwardRepo) CreateAward(_ context.Context, a badge.Award) error {
	r.awards = append(r.awards, a)
	return nil
}

func (r *fakeAwardRepo) ListAwards(_ context.Context, learnerID string) ([]badge.Award, error) {
	var out []badge.Award
	for _, a := range r.awards {
		if a.LearnerID == learnerID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeAwardRepo) HasAward(_ context.Context, learnerID, badgeID string) (bool, error) {
	for _, a := range r.awards {
		if a.LearnerID == learnerID && a.BadgeID == badgeID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeAwardRepo) CountAwards(_ context.Context, learnerID string) (int, error) {
	count := 0
	for _, a := range r.awards {
		if a.LearnerID == learnerID {
			count++
		}
	}
	return count, nil
}

// fakeSummaryCache stores values as JSON, mirroring the Redis cache codec.
type fakeSummaryCache struct {
	mu      sync.Mutex
	values  map[string][]byte
	gets    int
	sets    int
	failing bool
}

func newFakeSummaryCache() *fakeSummaryCache {
	return &fakeSummaryCache{values: make(map[string][]byte)}
}

func (c *fakeSummaryCache) Get(_ context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gets++
	if c.failing {
		return errors.New("cache down")
	}
	raw, ok := c.values[key]
	if !ok {
		return redis.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (c *fakeSummaryCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.sets++
	if c.failing {
		return errors.New("cache down")
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.values[key] = raw
	return nil
}

// fakeRanking serves a fixed ranking, optionally failing every call.
type fakeRanking struct {
	entries []redis.RankedEntry
	err     error
}

func (r *fakeRanking) Top(_ context.Context, n int64) ([]redis.RankedEntry, error) {
	if r.err != nil {
		return nil, r.err
	}
	if n > int64(len(r.entries)) {
		n = int64(len(r.entries))
	}
	return r.entries[:n], nil
}

func (r *fakeRanking) Rank(_ context.Context, learnerID string) (redis.RankedEntry, error) {
	if r.err != nil {
		return redis.RankedEntry{}, r.err
	}
	for _, e := range r.entries {
		if e.LearnerID == learnerID {
			return e, nil
		}
	}
	return redis.RankedEntry{}, redis.ErrLearnerNotRanked
}

type fakeHistoryRepo struct {
	entries []learner.XPHistoryEntry
}

func (r *fakeHistoryRepo) SaveXPChange(_ context.Context, entry learner.XPHistoryEntry) error {
	r.entries = append(r.entries, entry)
	return nil
}

func (r *fakeHistoryRepo) GetXPHistory(_ context.Context, learnerID string, from, to time.Time) ([]learner.XPHistoryEntry, error) {
	var out []learner.XPHistoryEntry
	for _, e := range r.entries {
		if e.LearnerID == learnerID && !e.Timestamp.Before(from) && !e.Timestamp.After(to) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeHistoryRepo) GetRecentXPChanges(_ context.Context, learnerID string, limit int) ([]learner.XPHistoryEntry, error) {
	var out []learner.XPHistoryEntry
	for i := len(r.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if r.entries[i].LearnerID == learnerID {
			out = append(out, r.entries[i])
		}
	}
	return out, nil
}
