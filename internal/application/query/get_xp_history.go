package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/crealearn/crealearn-backend/internal/domain/learner"
)

// ══════════════════════════════════════════════════════════════════════════════
// XP HISTORY QUERY
// The audit trail of a learner's XP awards: each entry carries the balance
// before and after, the delta, and the source that triggered it.
// ══════════════════════════════════════════════════════════════════════════════

// DefaultHistoryLimit is used when the caller does not specify a limit.
const DefaultHistoryLimit = 20

// MaxHistoryLimit caps the page size of recent-history reads.
const MaxHistoryLimit = 200

// GetXPHistoryQuery contains history query parameters.
type GetXPHistoryQuery struct {
	// LearnerID is the internal ID of the learner.
	LearnerID string

	// From and To bound the period. When both are zero the query returns
	// the most recent entries instead.
	From time.Time
	To   time.Time

	// Limit is the number of recent entries to return (only used when no
	// period is given). Clamped to MaxHistoryLimit.
	Limit int
}

// XPHistoryItem is one rendered history entry.
type XPHistoryItem struct {
	// Timestamp is when the award was committed.
	Timestamp time.Time `json:"timestamp"`

	// OldXP is the balance before the award.
	OldXP int `json:"old_xp"`

	// NewXP is the balance after the award.
	NewXP int `json:"new_xp"`

	// Delta is the amount credited.
	Delta int `json:"delta"`

	// Source identifies where the XP came from.
	Source string `json:"source"`

	// Reference is the module/quiz involved, if any.
	Reference string `json:"reference,omitempty"`
}

// GetXPHistoryHandler handles the GetXPHistoryQuery.
type GetXPHistoryHandler struct {
	historyRepo learner.HistoryRepository
}

// NewGetXPHistoryHandler creates a new GetXPHistoryHandler.
func NewGetXPHistoryHandler(historyRepo learner.HistoryRepository) *GetXPHistoryHandler {
	return &GetXPHistoryHandler{historyRepo: historyRepo}
}

// Handle executes the XP history query.
func (h *GetXPHistoryHandler) Handle(ctx context.Context, q GetXPHistoryQuery) ([]XPHistoryItem, error) {
	if q.LearnerID == "" {
		return nil, errors.New("get_xp_history: learner_id is required")
	}

	var (
		entries []learner.XPHistoryEntry
		err     error
	)

	if q.From.IsZero() && q.To.IsZero() {
		limit := q.Limit
		if limit <= 0 {
			limit = DefaultHistoryLimit
		}
		if limit > MaxHistoryLimit {
			limit = MaxHistoryLimit
		}
		entries, err = h.historyRepo.GetRecentXPChanges(ctx, q.LearnerID, limit)
	} else {
		from, to := q.From, q.To
		if to.IsZero() {
			to = time.Now().UTC()
		}
		entries, err = h.historyRepo.GetXPHistory(ctx, q.LearnerID, from, to)
	}
	if err != nil {
		return nil, fmt.Errorf("get_xp_history: %w", err)
	}

	items := make([]XPHistoryItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, XPHistoryItem{
			Timestamp: e.Timestamp,
			OldXP:     int(e.OldXP),
			NewXP:     int(e.NewXP),
			Delta:     int(e.Delta),
			Source:    e.Source,
			Reference: e.Reference,
		})
	}

	return items, nil
}
