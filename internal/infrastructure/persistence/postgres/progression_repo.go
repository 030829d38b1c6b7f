package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/crealearn/crealearn-backend/internal/domain/progression"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESSION REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// ProgressionRepository implements progression.Repository for PostgreSQL.
type ProgressionRepository struct {
	conn *Connection
}

// NewProgressionRepository creates a new ProgressionRepository.
func NewProgressionRepository(conn *Connection) *ProgressionRepository {
	return &ProgressionRepository{conn: conn}
}

// ─────────────────────────────────────────────────────────────────────────────
// Module completions
// ─────────────────────────────────────────────────────────────────────────────

// RecordModuleCompletion inserts a module completion.
// The (learner_id, module_id) primary key rejects duplicates.
func (r *ProgressionRepository) RecordModuleCompletion(ctx context.Context, c progression.ModuleCompletion) error {
	query := `
		INSERT INTO module_completions (learner_id, module_id, xp_earned, completed_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.conn.Exec(ctx, query, c.LearnerID, c.ModuleID, c.XPEarned, c.CompletedAt)
	if err != nil {
		if IsUniqueViolation(err) {
			return progression.ErrAlreadyCompleted
		}
		return fmt.Errorf("failed to record module completion: %w", err)
	}

	return nil
}

// HasCompletedModule checks if a module is already completed.
func (r *ProgressionRepository) HasCompletedModule(ctx context.Context, learnerID, moduleID string) (bool, error) {
	var exists bool
	err := r.conn.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM module_completions WHERE learner_id = $1 AND module_id = $2)",
		learnerID, moduleID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check module completion: %w", err)
	}
	return exists, nil
}

// ListCompletions returns a learner's module completions, newest first.
func (r *ProgressionRepository) ListCompletions(ctx context.Context, learnerID string) ([]progression.ModuleCompletion, error) {
	query := `
		SELECT learner_id, module_id, xp_earned, completed_at
		FROM module_completions
		WHERE learner_id = $1
		ORDER BY completed_at DESC
	`

	rows, err := r.conn.Query(ctx, query, learnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list module completions: %w", err)
	}
	defer rows.Close()

	var completions []progression.ModuleCompletion
	for rows.Next() {
		var c progression.ModuleCompletion
		if err := rows.Scan(&c.LearnerID, &c.ModuleID, &c.XPEarned, &c.CompletedAt); err != nil {
			return nil, fmt.Errorf("failed to scan module completion: %w", err)
		}
		completions = append(completions, c)
	}

	return completions, rows.Err()
}

// ─────────────────────────────────────────────────────────────────────────────
// Quiz attempts
// ─────────────────────────────────────────────────────────────────────────────

// RecordQuizAttempt inserts a quiz attempt.
// The partial unique index on (learner_id, quiz_id) WHERE xp_earned > 0
// rejects a second rewarded attempt for the same quiz.
func (r *ProgressionRepository) RecordQuizAttempt(ctx context.Context, a progression.QuizAttempt) error {
	query := `
		INSERT INTO quiz_attempts (id, learner_id, quiz_id, score, passed, perfect, xp_earned, attempted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.conn.Exec(ctx, query,
		a.ID, a.LearnerID, a.QuizID, a.Score, a.Passed, a.Perfect, a.XPEarned, a.AttemptedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) && a.XPEarned > 0 {
			return progression.ErrQuizRewardAlreadyGranted
		}
		return fmt.Errorf("failed to record quiz attempt: %w", err)
	}

	return nil
}

// HasPassedQuiz checks if the learner has already passed this quiz.
func (r *ProgressionRepository) HasPassedQuiz(ctx context.Context, learnerID, quizID string) (bool, error) {
	var exists bool
	err := r.conn.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM quiz_attempts WHERE learner_id = $1 AND quiz_id = $2 AND passed)",
		learnerID, quizID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check quiz pass: %w", err)
	}
	return exists, nil
}

// ListQuizAttempts returns a learner's quiz attempts, newest first.
func (r *ProgressionRepository) ListQuizAttempts(ctx context.Context, learnerID string) ([]progression.QuizAttempt, error) {
	query := `
		SELECT id, learner_id, quiz_id, score, passed, perfect, xp_earned, attempted_at
		FROM quiz_attempts
		WHERE learner_id = $1
		ORDER BY attempted_at DESC
	`

	rows, err := r.conn.Query(ctx, query, learnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list quiz attempts: %w", err)
	}
	defer rows.Close()

	var attempts []progression.QuizAttempt
	for rows.Next() {
		var a progression.QuizAttempt
		err := rows.Scan(&a.ID, &a.LearnerID, &a.QuizID, &a.Score, &a.Passed, &a.Perfect, &a.XPEarned, &a.AttemptedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan quiz attempt: %w", err)
		}
		attempts = append(attempts, a)
	}

	return attempts, rows.Err()
}

// ─────────────────────────────────────────────────────────────────────────────
// Simulations and daily challenges
// ─────────────────────────────────────────────────────────────────────────────

// RecordSimulationRun inserts a simulation session.
func (r *ProgressionRepository) RecordSimulationRun(ctx context.Context, run progression.SimulationRun) error {
	query := `
		INSERT INTO simulation_runs (id, learner_id, simulation_id, xp_earned, ran_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.conn.Exec(ctx, query, run.ID, run.LearnerID, run.SimulationID, run.XPEarned, run.RanAt)
	if err != nil {
		return fmt.Errorf("failed to record simulation run: %w", err)
	}

	return nil
}

// RecordDailyChallengeClaim inserts the daily challenge claim.
// The (learner_id, day) primary key rejects a second claim the same day.
func (r *ProgressionRepository) RecordDailyChallengeClaim(ctx context.Context, c progression.DailyChallengeClaim) error {
	query := `
		INSERT INTO daily_challenge_claims (learner_id, day, xp_earned, claimed_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.conn.Exec(ctx, query, c.LearnerID, c.Day, c.XPEarned, c.ClaimedAt)
	if err != nil {
		if IsUniqueViolation(err) {
			return progression.ErrChallengeAlreadyClaimed
		}
		return fmt.Errorf("failed to record daily challenge claim: %w", err)
	}

	return nil
}

// HasClaimedChallenge checks if the given day's challenge is already claimed.
func (r *ProgressionRepository) HasClaimedChallenge(ctx context.Context, learnerID string, day time.Time) (bool, error) {
	var exists bool
	err := r.conn.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM daily_challenge_claims WHERE learner_id = $1 AND day = $2)",
		learnerID, progression.DayOf(day),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check daily challenge claim: %w", err)
	}
	return exists, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Aggregate stats
// ─────────────────────────────────────────────────────────────────────────────

// GetStats computes a learner's aggregate progression stats in one round trip.
func (r *ProgressionRepository) GetStats(ctx context.Context, learnerID string) (progression.LearnerStats, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM module_completions WHERE learner_id = $1),
			(SELECT COUNT(DISTINCT quiz_id) FROM quiz_attempts WHERE learner_id = $1 AND passed),
			(SELECT COUNT(*) FROM quiz_attempts WHERE learner_id = $1 AND perfect),
			(SELECT COUNT(*) FROM quiz_attempts WHERE learner_id = $1),
			(SELECT COALESCE(AVG(score), 0) FROM quiz_attempts WHERE learner_id = $1),
			(SELECT COUNT(*) FROM simulation_runs WHERE learner_id = $1),
			(SELECT COUNT(*) FROM daily_challenge_claims WHERE learner_id = $1)
	`

	var stats progression.LearnerStats
	err := r.conn.QueryRow(ctx, query, learnerID).Scan(
		&stats.CompletedModules,
		&stats.PassedQuizzes,
		&stats.PerfectQuizzes,
		&stats.TotalAttempts,
		&stats.AverageScore,
		&stats.SimulationRuns,
		&stats.DailyChallenges,
	)
	if err != nil {
		return progression.LearnerStats{}, fmt.Errorf("failed to get learner stats: %w", err)
	}

	return stats, nil
}
