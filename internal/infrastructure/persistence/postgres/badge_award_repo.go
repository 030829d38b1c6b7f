package postgres

import (
	"context"
	"fmt"

	"github.com/crealearn/crealearn-backend/internal/domain/badge"
)

// ══════════════════════════════════════════════════════════════════════════════
// BADGE AWARD REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// BadgeAwardRepository implements badge.AwardRepository for PostgreSQL.
type BadgeAwardRepository struct {
	conn *Connection
}

// NewBadgeAwardRepository creates a new BadgeAwardRepository.
func NewBadgeAwardRepository(conn *Connection) *BadgeAwardRepository {
	return &BadgeAwardRepository{conn: conn}
}

// CreateAward inserts an award. The (learner_id, badge_id) primary key
// guarantees at most one award per badge; a duplicate insert maps to
// badge.ErrAlreadyAwarded so callers can treat it as a no-op.
func (r *BadgeAwardRepository) CreateAward(ctx context.Context, award badge.Award) error {
	query := `
		INSERT INTO badge_awards (learner_id, badge_id, earned_at)
		VALUES ($1, $2, $3)
	`

	_, err := r.conn.Exec(ctx, query, award.LearnerID, award.BadgeID, award.EarnedAt)
	if err != nil {
		if IsUniqueViolation(err) {
			return badge.ErrAlreadyAwarded
		}
		return fmt.Errorf("failed to create badge award: %w", err)
	}

	return nil
}

// ListAwards returns all awards for a learner, newest first.
func (r *BadgeAwardRepository) ListAwards(ctx context.Context, learnerID string) ([]badge.Award, error) {
	query := `
		SELECT learner_id, badge_id, earned_at
		FROM badge_awards
		WHERE learner_id = $1
		ORDER BY earned_at DESC
	`

	rows, err := r.conn.Query(ctx, query, learnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list badge awards: %w", err)
	}
	defer rows.Close()

	var awards []badge.Award
	for rows.Next() {
		var a badge.Award
		if err := rows.Scan(&a.LearnerID, &a.BadgeID, &a.EarnedAt); err != nil {
			return nil, fmt.Errorf("failed to scan badge award: %w", err)
		}
		awards = append(awards, a)
	}

	return awards, rows.Err()
}

// HasAward checks if a badge is already awarded.
func (r *BadgeAwardRepository) HasAward(ctx context.Context, learnerID, badgeID string) (bool, error) {
	var exists bool
	err := r.conn.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM badge_awards WHERE learner_id = $1 AND badge_id = $2)",
		learnerID, badgeID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check badge award: %w", err)
	}
	return exists, nil
}

// CountAwards returns the number of badges a learner has earned.
func (r *BadgeAwardRepository) CountAwards(ctx context.Context, learnerID string) (int, error) {
	var count int
	err := r.conn.QueryRow(ctx,
		"SELECT COUNT(*) FROM badge_awards WHERE learner_id = $1",
		learnerID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count badge awards: %w", err)
	}
	return count, nil
}
