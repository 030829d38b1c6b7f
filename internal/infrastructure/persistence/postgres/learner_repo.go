package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/crealearn/crealearn-backend/internal/domain/learner"
	"github.com/crealearn/crealearn-backend/internal/domain/shared"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEARNER REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// LearnerRepository implements learner.Repository for PostgreSQL.
type LearnerRepository struct {
	conn *Connection
}

// NewLearnerRepository creates a new LearnerRepository.
func NewLearnerRepository(conn *Connection) *LearnerRepository {
	return &LearnerRepository{conn: conn}
}

const learnerColumns = `id, email, password_hash, display_name, current_xp,
	   current_level, version, joined_at, created_at, updated_at`

// Create creates a new learner.
func (r *LearnerRepository) Create(ctx context.Context, l *learner.Learner) error {
	query := `
		INSERT INTO learners (
			id, email, password_hash, display_name, current_xp,
			current_level, version, joined_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.conn.Exec(ctx, query,
		l.ID,
		l.Email,
		l.PasswordHash,
		l.DisplayName,
		int(l.CurrentXP),
		int(l.CurrentLevel),
		l.Version,
		l.JoinedAt,
		l.CreatedAt,
		l.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrLearnerAlreadyExists
		}
		return fmt.Errorf("failed to create learner: %w", err)
	}

	return nil
}

// GetByID returns a learner by internal ID.
func (r *LearnerRepository) GetByID(ctx context.Context, id string) (*learner.Learner, error) {
	query := `SELECT ` + learnerColumns + ` FROM learners WHERE id = $1`

	row := r.conn.QueryRow(ctx, query, id)
	return r.scanLearner(row)
}

// GetByEmail returns a learner by email.
func (r *LearnerRepository) GetByEmail(ctx context.Context, email string) (*learner.Learner, error) {
	query := `SELECT ` + learnerColumns + ` FROM learners WHERE email = $1`

	row := r.conn.QueryRow(ctx, query, email)
	return r.scanLearner(row)
}

// UpdateProgress writes xp and level atomically under optimistic concurrency.
// The UPDATE only succeeds when the stored version matches l.Version; the
// version is incremented in the same statement. Zero rows affected means
// either a concurrent write or a missing learner, which we distinguish with
// a follow-up existence check.
func (r *LearnerRepository) UpdateProgress(ctx context.Context, l *learner.Learner) error {
	query := `
		UPDATE learners SET
			current_xp = $1,
			current_level = $2,
			version = version + 1,
			updated_at = $3
		WHERE id = $4 AND version = $5
	`

	result, err := r.conn.Exec(ctx, query,
		int(l.CurrentXP),
		int(l.CurrentLevel),
		time.Now().UTC(),
		l.ID,
		l.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update learner progress: %w", err)
	}

	if result.RowsAffected() == 0 {
		exists, err := r.Exists(ctx, l.ID)
		if err != nil {
			return err
		}
		if !exists {
			return shared.ErrLearnerNotFound
		}
		return shared.ErrConcurrentModification
	}

	l.Version++
	return nil
}

// List returns learners with pagination, sorted by XP descending.
func (r *LearnerRepository) List(ctx context.Context, opts learner.ListOptions) ([]*learner.Learner, error) {
	query := `
		SELECT ` + learnerColumns + `
		FROM learners
		ORDER BY current_xp DESC, id ASC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.conn.Query(ctx, query, opts.Limit, opts.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list learners: %w", err)
	}
	defer rows.Close()

	return r.scanLearners(rows)
}

// Count returns the total number of learners.
func (r *LearnerRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.conn.QueryRow(ctx, "SELECT COUNT(*) FROM learners").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count learners: %w", err)
	}
	return count, nil
}

// Exists checks if a learner exists by ID.
func (r *LearnerRepository) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.conn.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM learners WHERE id = $1)",
		id,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check learner existence: %w", err)
	}
	return exists, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Scan helpers
// ─────────────────────────────────────────────────────────────────────────────

func (r *LearnerRepository) scanLearner(row pgx.Row) (*learner.Learner, error) {
	var l learner.Learner
	var currentXP, currentLevel int

	err := row.Scan(
		&l.ID,
		&l.Email,
		&l.PasswordHash,
		&l.DisplayName,
		&currentXP,
		&currentLevel,
		&l.Version,
		&l.JoinedAt,
		&l.CreatedAt,
		&l.UpdatedAt,
	)

	if IsNoRows(err) {
		return nil, shared.ErrLearnerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan learner: %w", err)
	}

	l.CurrentXP = learner.XP(currentXP)
	l.CurrentLevel = learner.Level(currentLevel)

	return &l, nil
}

func (r *LearnerRepository) scanLearners(rows pgx.Rows) ([]*learner.Learner, error) {
	var learners []*learner.Learner

	for rows.Next() {
		var l learner.Learner
		var currentXP, currentLevel int

		err := rows.Scan(
			&l.ID,
			&l.Email,
			&l.PasswordHash,
			&l.DisplayName,
			&currentXP,
			&currentLevel,
			&l.Version,
			&l.JoinedAt,
			&l.CreatedAt,
			&l.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan learner: %w", err)
		}

		l.CurrentXP = learner.XP(currentXP)
		l.CurrentLevel = learner.Level(currentLevel)

		learners = append(learners, &l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return learners, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// XP HISTORY REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// HistoryRepository implements learner.HistoryRepository for PostgreSQL.
type HistoryRepository struct {
	conn *Connection
}

// NewHistoryRepository creates a new HistoryRepository.
func NewHistoryRepository(conn *Connection) *HistoryRepository {
	return &HistoryRepository{conn: conn}
}

// SaveXPChange saves an XP change entry.
func (r *HistoryRepository) SaveXPChange(ctx context.Context, entry learner.XPHistoryEntry) error {
	query := `
		INSERT INTO xp_history (learner_id, old_xp, new_xp, delta, source, reference, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	var reference *string
	if entry.Reference != "" {
		reference = &entry.Reference
	}

	_, err := r.conn.Exec(ctx, query,
		entry.LearnerID,
		int(entry.OldXP),
		int(entry.NewXP),
		int(entry.Delta),
		entry.Source,
		reference,
		entry.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to save xp change: %w", err)
	}

	return nil
}

// GetXPHistory returns XP history for a learner within a time range.
func (r *HistoryRepository) GetXPHistory(ctx context.Context, learnerID string, from, to time.Time) ([]learner.XPHistoryEntry, error) {
	query := `
		SELECT learner_id, old_xp, new_xp, delta, source, COALESCE(reference, ''), created_at
		FROM xp_history
		WHERE learner_id = $1 AND created_at >= $2 AND created_at <= $3
		ORDER BY created_at ASC
	`

	rows, err := r.conn.Query(ctx, query, learnerID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to get xp history: %w", err)
	}
	defer rows.Close()

	return r.scanEntries(rows)
}

// GetRecentXPChanges returns the most recent XP changes.
func (r *HistoryRepository) GetRecentXPChanges(ctx context.Context, learnerID string, limit int) ([]learner.XPHistoryEntry, error) {
	query := `
		SELECT learner_id, old_xp, new_xp, delta, source, COALESCE(reference, ''), created_at
		FROM xp_history
		WHERE learner_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.conn.Query(ctx, query, learnerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent xp changes: %w", err)
	}
	defer rows.Close()

	return r.scanEntries(rows)
}

func (r *HistoryRepository) scanEntries(rows pgx.Rows) ([]learner.XPHistoryEntry, error) {
	var entries []learner.XPHistoryEntry
	for rows.Next() {
		var entry learner.XPHistoryEntry
		var oldXP, newXP, delta int

		err := rows.Scan(&entry.LearnerID, &oldXP, &newXP, &delta, &entry.Source, &entry.Reference, &entry.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("failed to scan xp history entry: %w", err)
		}

		entry.OldXP = learner.XP(oldXP)
		entry.NewXP = learner.XP(newXP)
		entry.Delta = learner.XP(delta)

		entries = append(entries, entry)
	}

	return entries, rows.Err()
}
