// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/crealearn/crealearn-backend/internal/domain/learner"
	"github.com/crealearn/crealearn-backend/internal/domain/shared"
	"github.com/crealearn/crealearn-backend/pkg/logger"
	"github.com/crealearn/crealearn-backend/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// AWARD XP COMMAND
// The single write path for the progress ledger. Every XP source (module,
// quiz, simulation, daily challenge) funnels through this handler, so the
// level invariant and the history trail are enforced in exactly one place.
// ══════════════════════════════════════════════════════════════════════════════

// XP sources as recorded in the history trail and events.
const (
	SourceModuleCompleted = "module_completed"
	SourceQuizPassed      = "quiz_passed"
	SourceSimulationUsed  = "simulation_used"
	SourceDailyChallenge  = "daily_challenge"
)

// AwardXPCommand contains the data to credit XP to a learner.
type AwardXPCommand struct {
	// LearnerID is the internal ID of the learner.
	LearnerID string

	// Amount is the XP to credit. Must be non-negative.
	Amount int

	// Source identifies where the XP came from (see Source* constants).
	Source string

	// Reference is the ID of the module/quiz/simulation involved, if any.
	Reference string

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c AwardXPCommand) Validate() error {
	if c.LearnerID == "" {
		return errors.New("award_xp: learner_id is required")
	}
	if c.Amount < 0 {
		return shared.ErrNegativeXPAward
	}
	if c.Source == "" {
		return errors.New("award_xp: source is required")
	}
	return nil
}

// AwardXPResult contains the outcome of an XP award.
type AwardXPResult struct {
	// LearnerID is the internal ID of the learner.
	LearnerID string

	// OldXP is the XP balance before the award.
	OldXP int

	// NewXP is the XP balance after the award.
	NewXP int

	// OldLevel is the level before the award.
	OldLevel int

	// NewLevel is the level after the award.
	NewLevel int

	// LeveledUp indicates whether a level threshold was crossed.
	LeveledUp bool

	// Attempts is how many optimistic-lock attempts the write took.
	Attempts int

	// AwardedAt is when the award was committed.
	AwardedAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// BadgeEvaluator re-checks badge criteria after a progress change.
type BadgeEvaluator interface {
	Handle(ctx context.Context, cmd EvaluateBadgesCommand) (*EvaluateBadgesResult, error)
}

// AwardXPHandler handles the AwardXPCommand.
//
// Concurrency: the read-modify-write on the learner row is guarded by an
// optimistic version check. On a version conflict the handler re-reads the
// learner and retries with short backoff; concurrent awards to the same
// learner serialize without losing either amount.
type AwardXPHandler struct {
	learnerRepo    learner.Repository
	historyRepo    learner.HistoryRepository
	eventPublisher shared.EventPublisher
	badges         BadgeEvaluator
	retrier        *retry.Retrier
	log            *logger.Logger
}

// NewAwardXPHandler creates a new AwardXPHandler.
// The badge evaluator may be nil (e.g. in tests that only exercise the ledger).
func NewAwardXPHandler(
	learnerRepo learner.Repository,
	historyRepo learner.HistoryRepository,
	eventPublisher shared.EventPublisher,
	badges BadgeEvaluator,
	log *logger.Logger,
) *AwardXPHandler {
	if log == nil {
		log = logger.Default()
	}

	return &AwardXPHandler{
		learnerRepo:    learnerRepo,
		historyRepo:    historyRepo,
		eventPublisher: eventPublisher,
		badges:         badges,
		retrier:        retry.OptimisticLockRetrier(),
		log:            log.With(logger.Component("award_xp")),
	}
}

// Handle executes the award XP command.
func (h *AwardXPHandler) Handle(ctx context.Context, cmd AwardXPCommand) (*AwardXPResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("award_xp: validation failed: %w", err)
	}

	var (
		award    learner.AwardResult
		attempts int
	)

	err := h.retrier.Do(ctx, func(ctx context.Context) error {
		attempts++

		// Re-read on every attempt: a conflict means someone else moved
		// the balance, so the stale copy must be discarded.
		l, err := h.learnerRepo.GetByID(ctx, cmd.LearnerID)
		if err != nil {
			return retry.Permanent(err)
		}

		result, err := l.AwardXP(learner.XP(cmd.Amount))
		if err != nil {
			return retry.Permanent(err)
		}

		if err := h.learnerRepo.UpdateProgress(ctx, l); err != nil {
			if shared.IsConflict(err) {
				return retry.Retryable(err)
			}
			return retry.Permanent(err)
		}

		award = result
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("award_xp: failed to credit learner %s: %w", cmd.LearnerID, err)
	}

	if attempts > 1 {
		h.log.Debug("xp award retried",
			logger.LearnerID(cmd.LearnerID),
			logger.Attempt(attempts),
		)
	}

	awardedAt := time.Now().UTC()

	// The history entry is an audit trail, not part of the balance itself.
	// A failed insert is logged and does not roll back the award.
	if err := h.historyRepo.SaveXPChange(ctx, learner.XPHistoryEntry{
		LearnerID: cmd.LearnerID,
		Timestamp: awardedAt,
		OldXP:     award.OldXP,
		NewXP:     award.NewXP,
		Delta:     learner.XP(cmd.Amount),
		Source:    cmd.Source,
		Reference: cmd.Reference,
	}); err != nil {
		h.log.Error("failed to save xp history",
			logger.LearnerID(cmd.LearnerID),
			logger.Source(cmd.Source),
			logger.Err(err),
		)
	}

	h.publishEvents(cmd, award)
	h.evaluateBadges(ctx, cmd)

	return &AwardXPResult{
		LearnerID: cmd.LearnerID,
		OldXP:     int(award.OldXP),
		NewXP:     int(award.NewXP),
		OldLevel:  int(award.OldLevel),
		NewLevel:  int(award.NewLevel),
		LeveledUp: award.LeveledUp(),
		Attempts:  attempts,
		AwardedAt: awardedAt,
	}, nil
}

// publishEvents emits the XP gained event and, if a threshold was crossed,
// the level up event.
func (h *AwardXPHandler) publishEvents(cmd AwardXPCommand, award learner.AwardResult) {
	xpEvent := shared.NewXPGainedEvent(
		cmd.LearnerID, cmd.Amount, int(award.NewXP), cmd.Source, cmd.Reference,
	)
	if cmd.CorrelationID != "" {
		xpEvent.BaseEvent = xpEvent.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	}
	if err := h.eventPublisher.Publish(xpEvent); err != nil {
		h.log.Error("failed to publish xp gained event",
			logger.LearnerID(cmd.LearnerID),
			logger.Err(err),
		)
	}

	if !award.LeveledUp() {
		return
	}

	levelEvent := shared.NewLevelUpEvent(
		cmd.LearnerID, int(award.OldLevel), int(award.NewLevel), int(award.NewXP),
	)
	if cmd.CorrelationID != "" {
		levelEvent.BaseEvent = levelEvent.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	}
	if err := h.eventPublisher.Publish(levelEvent); err != nil {
		h.log.Error("failed to publish level up event",
			logger.LearnerID(cmd.LearnerID),
			logger.Err(err),
		)
	}
}

// evaluateBadges re-checks badge criteria after the award. Badge evaluation
// is idempotent, so running it after every award is safe; a failure here is
// logged and never fails the XP award that triggered it.
func (h *AwardXPHandler) evaluateBadges(ctx context.Context, cmd AwardXPCommand) {
	if h.badges == nil {
		return
	}

	if _, err := h.badges.Handle(ctx, EvaluateBadgesCommand{
		LearnerID:     cmd.LearnerID,
		CorrelationID: cmd.CorrelationID,
	}); err != nil {
		h.log.Error("badge evaluation failed after xp award",
			logger.LearnerID(cmd.LearnerID),
			logger.Err(err),
		)
	}
}
