// Package eventhandler contains the domain event handlers that run the
// read-path side effects: leaderboard updates and cache invalidation.
package eventhandler

import (
	"context"
	"time"

	"github.com/crealearn/crealearn-backend/internal/domain/shared"
	"github.com/crealearn/crealearn-backend/internal/infrastructure/persistence/redis"
	"github.com/crealearn/crealearn-backend/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// ON XP GAINED HANDLER
// Keeps the read path in step with the ledger: bumps the Redis leaderboard
// and drops the learner's cached summary so the next read sees the new
// balance. Both effects are best-effort; Postgres stays the source of truth
// and the worker's periodic rebuild repairs any miss.
// ══════════════════════════════════════════════════════════════════════════════

// ScoreIncrementer is the leaderboard surface this handler needs.
type ScoreIncrementer interface {
	IncrementScore(ctx context.Context, learnerID string, delta int64) error
}

// CacheInvalidator is the cache surface this handler needs.
type CacheInvalidator interface {
	Delete(ctx context.Context, keys ...string) error
}

// OnXPGainedHandler reacts to XP gained events.
type OnXPGainedHandler struct {
	leaderboard ScoreIncrementer
	cache       CacheInvalidator
	log         *logger.Logger
	timeout     time.Duration
}

// NewOnXPGainedHandler creates a new OnXPGainedHandler.
// Either dependency may be nil when the corresponding feature is disabled.
func NewOnXPGainedHandler(
	leaderboard ScoreIncrementer,
	cache CacheInvalidator,
	log *logger.Logger,
) *OnXPGainedHandler {
	if log == nil {
		log = logger.Default()
	}

	return &OnXPGainedHandler{
		leaderboard: leaderboard,
		cache:       cache,
		log:         log.With(logger.Component("on_xp_gained")),
		timeout:     5 * time.Second,
	}
}

// Handle processes an XP gained event.
// Implements shared.EventHandler via method value.
func (h *OnXPGainedHandler) Handle(event shared.Event) error {
	xpEvent, ok := event.(shared.XPGainedEvent)
	if !ok {
		h.log.Warn("received non-XPGainedEvent",
			logger.String("event_type", string(event.EventType())),
		)
		return nil
	}

	// Events are handled off the request path; they carry their own deadline.
	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	if h.leaderboard != nil {
		if err := h.leaderboard.IncrementScore(ctx, xpEvent.LearnerID, int64(xpEvent.Amount)); err != nil {
			h.log.Error("failed to bump leaderboard score",
				logger.LearnerID(xpEvent.LearnerID),
				logger.XPAmount(xpEvent.Amount),
				logger.Err(err),
			)
		}
	}

	if h.cache != nil {
		if err := h.cache.Delete(ctx, redis.SummaryKey(xpEvent.LearnerID)); err != nil {
			h.log.Error("failed to invalidate summary cache",
				logger.LearnerID(xpEvent.LearnerID),
				logger.Err(err),
			)
		}
	}

	return nil
}

// EventType returns the event type this handler processes.
func (h *OnXPGainedHandler) EventType() shared.EventType {
	return shared.EventXPGained
}
