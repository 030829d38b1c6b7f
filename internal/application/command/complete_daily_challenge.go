package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/crealearn/crealearn-backend/internal/domain/catalog"
	"github.com/crealearn/crealearn-backend/internal/domain/progression"
	"github.com/crealearn/crealearn-backend/internal/domain/shared"
	"github.com/crealearn/crealearn-backend/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// COMPLETE DAILY CHALLENGE COMMAND
// Claims the daily challenge reward. One claim per learner per UTC day,
// regardless of the client's local timezone. Re-claiming is a no-op.
// ══════════════════════════════════════════════════════════════════════════════

// CompleteDailyChallengeCommand contains the data to claim the daily challenge.
type CompleteDailyChallengeCommand struct {
	// LearnerID is the internal ID of the learner.
	LearnerID string

	// Now is the claim instant (defaults to time.Now if zero). The claim
	// day is derived from it in UTC.
	Now time.Time

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c CompleteDailyChallengeCommand) Validate() error {
	if c.LearnerID == "" {
		return errors.New("complete_daily_challenge: learner_id is required")
	}
	return nil
}

// CompleteDailyChallengeResult contains the outcome of a claim.
type CompleteDailyChallengeResult struct {
	// LearnerID is the internal ID of the learner.
	LearnerID string

	// Day is the UTC day the claim applies to.
	Day time.Time

	// AlreadyClaimed is true when today's challenge had been claimed.
	// No XP is credited in that case.
	AlreadyClaimed bool

	// XPEarned is the XP credited by this claim (0 on repeat).
	XPEarned int

	// Award describes the ledger change (nil on repeat).
	Award *AwardXPResult
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// CompleteDailyChallengeHandler handles the CompleteDailyChallengeCommand.
type CompleteDailyChallengeHandler struct {
	progressRepo   progression.Repository
	awardXP        XPAwarder
	eventPublisher shared.EventPublisher
	log            *logger.Logger
}

// NewCompleteDailyChallengeHandler creates a new CompleteDailyChallengeHandler.
func NewCompleteDailyChallengeHandler(
	progressRepo progression.Repository,
	awardXP XPAwarder,
	eventPublisher shared.EventPublisher,
	log *logger.Logger,
) *CompleteDailyChallengeHandler {
	if log == nil {
		log = logger.Default()
	}

	return &CompleteDailyChallengeHandler{
		progressRepo:   progressRepo,
		awardXP:        awardXP,
		eventPublisher: eventPublisher,
		log:            log.With(logger.Component("complete_daily_challenge")),
	}
}

// Handle executes the complete daily challenge command.
func (h *CompleteDailyChallengeHandler) Handle(ctx context.Context, cmd CompleteDailyChallengeCommand) (*CompleteDailyChallengeResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("complete_daily_challenge: validation failed: %w", err)
	}

	now := cmd.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}
	day := progression.DayOf(now)

	claim := progression.DailyChallengeClaim{
		LearnerID: cmd.LearnerID,
		Day:       day,
		XPEarned:  catalog.DailyChallengeXP,
		ClaimedAt: now.UTC(),
	}

	// The primary key on (learner, day) is the once-per-day guard.
	if err := h.progressRepo.RecordDailyChallengeClaim(ctx, claim); err != nil {
		if errors.Is(err, progression.ErrChallengeAlreadyClaimed) {
			h.log.Debug("daily challenge already claimed",
				logger.LearnerID(cmd.LearnerID),
				logger.Time("day", day),
			)
			return &CompleteDailyChallengeResult{
				LearnerID:      cmd.LearnerID,
				Day:            day,
				AlreadyClaimed: true,
			}, nil
		}
		return nil, fmt.Errorf("complete_daily_challenge: failed to record claim: %w", err)
	}

	award, err := h.awardXP.Handle(ctx, AwardXPCommand{
		LearnerID:     cmd.LearnerID,
		Amount:        catalog.DailyChallengeXP,
		Source:        SourceDailyChallenge,
		Reference:     day.Format("2006-01-02"),
		CorrelationID: cmd.CorrelationID,
	})
	if err != nil {
		return nil, fmt.Errorf("complete_daily_challenge: failed to award xp: %w", err)
	}

	event := shared.NewDailyChallengeCompletedEvent(cmd.LearnerID, day, catalog.DailyChallengeXP)
	if cmd.CorrelationID != "" {
		event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	}
	if err := h.eventPublisher.Publish(event); err != nil {
		h.log.Error("failed to publish daily challenge event",
			logger.LearnerID(cmd.LearnerID),
			logger.Err(err),
		)
	}

	return &CompleteDailyChallengeResult{
		LearnerID: cmd.LearnerID,
		Day:       day,
		XPEarned:  catalog.DailyChallengeXP,
		Award:     award,
	}, nil
}
