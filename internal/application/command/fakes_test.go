package command

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/crealearn/crealearn-backend/internal/domain/badge"
	"github.com/crealearn/crealearn-backend/internal/domain/learner"
	"github.com/crealearn/crealearn-backend/internal/domain/progression"
	"github.com/crealearn/crealearn-backend/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// IN-MEMORY FAKES
// The learner repo enforces the same optimistic version check as the Postgres
// implementation, so concurrency tests exercise the real retry path.
// ══════════════════════════════════════════════════════════════════════════════

type fakeLearnerRepo struct {
	mu       sync.Mutex
	learners map[string]*learner.Learner

	// conflictsToInject forces UpdateProgress to report a version conflict
	// for the next N calls, regardless of the actual version.
	conflictsToInject int
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
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.learners {
		if existing.Email == l.Email {
			return shared.ErrLearnerAlreadyExists
		}
	}
	r.learners[l.ID] = l.Clone()
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
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.conflictsToInject > 0 {
		r.conflictsToInject--
		return shared.ErrProgressConflict
	}

	stored, ok := r.learners[l.ID]
	if !ok {
		return shared.ErrLearnerNotFound
	}
	if stored.Version != l.Version {
		return shared.ErrProgressConflict
	}

	updated := l.Clone()
	updated.Version++
	r.learners[l.ID] = updated
	l.Version = updated.Version
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

type fakeHistoryRepo struct {
	mu      sync.Mutex
	entries []learner.XPHistoryEntry
}

func (r *fakeHistoryRepo) SaveXPChange(_ context.Context, entry learner.XPHistoryEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
	return nil
}

func (r *fakeHistoryRepo) GetXPHistory(_ context.Context, learnerID string, from, to time.Time) ([]learner.XPHistoryEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []learner.XPHistoryEntry
	for _, e := range r.entries {
		if e.LearnerID == learnerID && !e.Timestamp.Before(from) && !e.Timestamp.After(to) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeHistoryRepo) GetRecentXPChanges(_ context.Context, learnerID string, limit int) ([]learner.XPHistoryEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []learner.XPHistoryEntry
	for i := len(r.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if r.entries[i].LearnerID == learnerID {
			out = append(out, r.entries[i])
		}
	}
	return out, nil
}

type fakeProgressionRepo struct {
	mu          sync.Mutex
	completions map[string]progression.ModuleCompletion
	attempts    []progression.QuizAttempt
	simulations []progression.SimulationRun
	claims      map[string]progression.DailyChallengeClaim
}

func newFakeProgressionRepo() *fakeProgressionRepo {
	return &fakeProgressionRepo{
		completions: make(map[string]progression.ModuleCompletion),
		claims:      make(map[string]progression.DailyChallengeClaim),
	}
}

func (r *fakeProgressionRepo) RecordModuleCompletion(_ context.Context, c progression.ModuleCompletion) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := c.LearnerID + "|" + c.ModuleID
	if _, exists := r.completions[key]; exists {
		return progression.ErrAlreadyCompleted
	}
	r.completions[key] = c
	return nil
}

func (r *fakeProgressionRepo) HasCompletedModule(_ context.Context, learnerID, moduleID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.completions[learnerID+"|"+moduleID]
	return ok, nil
}

func (r *fakeProgressionRepo) RecordQuizAttempt(_ context.Context, a progression.QuizAttempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Mirrors the partial unique index: one rewarded attempt per quiz.
	if a.XPEarned > 0 {
		for _, existing := range r.attempts {
			if existing.LearnerID == a.LearnerID && existing.QuizID == a.QuizID && existing.XPEarned > 0 {
				return progression.ErrQuizRewardAlreadyGranted
			}
		}
	}

	r.attempts = append(r.attempts, a)
	return nil
}

func (r *fakeProgressionRepo) HasPassedQuiz(_ context.Context, learnerID, quizID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, a := range r.attempts {
		if a.LearnerID == learnerID && a.QuizID == quizID && a.Passed {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeProgressionRepo) RecordSimulationRun(_ context.Context, run progression.SimulationRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.simulations = append(r.simulations, run)
	return nil
}

func (r *fakeProgressionRepo) RecordDailyChallengeClaim(_ context.Context, c progression.DailyChallengeClaim) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := c.LearnerID + "|" + c.Day.Format("2006-01-02")
	if _, exists := r.claims[key]; exists {
		return progression.ErrChallengeAlreadyClaimed
	}
	r.claims[key] = c
	return nil
}

func (r *fakeProgressionRepo) HasClaimedChallenge(_ context.Context, learnerID string, day time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.claims[learnerID+"|"+day.Format("2006-01-02")]
	return ok, nil
}

func (r *fakeProgressionRepo) GetStats(_ context.Context, learnerID string) (progression.LearnerStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stats := progression.LearnerStats{}
	for _, c := range r.completions {
		if c.LearnerID == learnerID {
			stats.CompletedModules++
		}
	}

	passed := make(map[string]bool)
	var totalScore int
	for _, a := range r.attempts {
		if a.LearnerID != learnerID {
			continue
		}
		stats.TotalAttempts++
		totalScore += a.Score
		if a.Passed {
			passed[a.QuizID] = true
		}
		if a.Perfect {
			stats.PerfectQuizzes++
		}
	}
	stats.PassedQuizzes = len(passed)
	if stats.TotalAttempts > 0 {
		stats.AverageScore = float64(totalScore) / float64(stats.TotalAttempts)
	}

	for _, s := range r.simulations {
		if s.LearnerID == learnerID {
			stats.SimulationRuns++
		}
	}
	for _, c := range r.claims {
		if c.LearnerID == learnerID {
			stats.DailyChallenges++
		}
	}
	return stats, nil
}

func (r *fakeProgressionRepo) ListCompletions(_ context.Context, learnerID string) ([]progression.ModuleCompletion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []progression.ModuleCompletion
	for _, c := range r.completions {
		if c.LearnerID == learnerID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *fakeProgressionRepo) ListQuizAttempts(_ context.Context, learnerID string) ([]progression.QuizAttempt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []progression.QuizAttempt
	for _, a := range r.attempts {
		if a.LearnerID == learnerID {
			out = append(out, a)
		}
	}
	return out, nil
}

type fakeAwardRepo struct {
	mu     sync.Mutex
	awards map[string]badge.Award
}

func newFakeAwardRepo() *fakeAwardRepo {
	return &fakeAwardRepo{awards: make(map[string]badge.Award)}
}

func (r *fakeAwardRepo) CreateAward(_ context.Context, award badge.Award) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := award.LearnerID + "|" + award.BadgeID
	if _, exists := r.awards[key]; exists {
		return badge.ErrAlreadyAwarded
	}
	r.awards[key] = award
	return nil
}

func (r *fakeAwardRepo) ListAwards(_ context.Context, learnerID string) ([]badge.Award, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []badge.Award
	for _, a := range r.awards {
		if a.LearnerID == learnerID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeAwardRepo) HasAward(_ context.Context, learnerID, badgeID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.awards[learnerID+"|"+badgeID]
	return ok, nil
}

func (r *fakeAwardRepo) CountAwards(_ context.Context, learnerID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0
	for _, a := range r.awards {
		if a.LearnerID == learnerID {
			count++
		}
	}
	return count, nil
}

type eventRecorder struct {
	mu     sync.Mutex
	events []shared.Event
}

func (r *eventRecorder) Publish(event shared.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *eventRecorder) ofType(t shared.EventType) []shared.Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []shared.Event
	for _, e := range r.events {
		if e.EventType() == t {
			out = append(out, e)
		}
	}
	return out
}
