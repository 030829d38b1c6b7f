package eventhandler

import (
	"context"
	"time"

	"github.com/crealearn/crealearn-backend/internal/domain/shared"
	"github.com/crealearn/crealearn-backend/internal/infrastructure/persistence/redis"
	"github.com/crealearn/crealearn-backend/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// ON BADGE AWARDED HANDLER
// A fresh badge changes the learner's summary (badge count), so the cached
// copy is dropped. The award itself is also logged at info level; that log
// line feeds the ops dashboard.
// ══════════════════════════════════════════════════════════════════════════════

// OnBadgeAwardedHandler reacts to badge awarded events.
type OnBadgeAwardedHandler struct {
	cache   CacheInvalidator
	log     *logger.Logger
	timeout time.Duration
}

// NewOnBadgeAwardedHandler creates a new OnBadgeAwardedHandler.
func NewOnBadgeAwardedHandler(cache CacheInvalidator, log *logger.Logger) *OnBadgeAwardedHandler {
	if log == nil {
		log = logger.Default()
	}

	return &OnBadgeAwardedHandler{
		cache:   cache,
		log:     log.With(logger.Component("on_badge_awarded")),
		timeout: 5 * time.Second,
	}
}

// Handle processes a badge awarded event.
func (h *OnBadgeAwardedHandler) Handle(event shared.Event) error {
	badgeEvent, ok := event.(shared.BadgeAwardedEvent)
	if !ok {
		h.log.Warn("received non-BadgeAwardedEvent",
			logger.String("event_type", string(event.EventType())),
		)
		return nil
	}

	h.log.Info("badge earned",
		logger.LearnerID(badgeEvent.LearnerID),
		logger.BadgeID(badgeEvent.BadgeID),
		logger.String("badge_name", badgeEvent.BadgeName),
	)

	if h.cache == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	if err := h.cache.Delete(ctx, redis.SummaryKey(badgeEvent.LearnerID)); err != nil {
		h.log.Error("failed to invalidate summary cache",
			logger.LearnerID(badgeEvent.LearnerID),
			logger.Err(err),
		)
	}

	return nil
}

// EventType returns the event type this handler processes.
func (h *OnBadgeAwardedHandler) EventType() shared.EventType {
	return shared.EventBadgeAwarded
}
