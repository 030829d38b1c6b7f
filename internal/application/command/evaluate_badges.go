package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/crealearn/crealearn-backend/internal/domain/badge"
	"github.com/crealearn/crealearn-backend/internal/domain/learner"
	"github.com/crealearn/crealearn-backend/internal/domain/progression"
	"github.com/crealearn/crealearn-backend/internal/domain/shared"
	"github.com/crealearn/crealearn-backend/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// EVALUATE BADGES COMMAND
// Re-checks every badge definition against the learner's current stats and
// awards the ones newly satisfied. The whole operation is idempotent: badges
// already held are skipped, the storage-level uniqueness constraint catches
// any race, and running the evaluation twice changes nothing.
// ══════════════════════════════════════════════════════════════════════════════

// EvaluateBadgesCommand contains the data to evaluate badges for a learner.
type EvaluateBadgesCommand struct {
	// LearnerID is the internal ID of the learner.
	LearnerID string

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c EvaluateBadgesCommand) Validate() error {
	if c.LearnerID == "" {
		return errors.New("evaluate_badges: learner_id is required")
	}
	return nil
}

// EvaluateBadgesResult contains the outcome of a badge evaluation.
type EvaluateBadgesResult struct {
	// LearnerID is the internal ID of the learner.
	LearnerID string

	// Evaluated is the number of definitions checked.
	Evaluated int

	// NewlyAwarded lists the badges granted during this evaluation.
	NewlyAwarded []badge.Definition

	// Failed maps badge IDs to the error that prevented their evaluation.
	// One broken definition never blocks the others.
	Failed map[string]error
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// EvaluateBadgesHandler handles the EvaluateBadgesCommand.
type EvaluateBadgesHandler struct {
	learnerRepo    learner.Repository
	progressRepo   progression.Repository
	definitions    badge.DefinitionSource
	awardRepo      badge.AwardRepository
	eventPublisher shared.EventPublisher
	log            *logger.Logger
}

// NewEvaluateBadgesHandler creates a new EvaluateBadgesHandler.
func NewEvaluateBadgesHandler(
	learnerRepo learner.Repository,
	progressRepo progression.Repository,
	definitions badge.DefinitionSource,
	awardRepo badge.AwardRepository,
	eventPublisher shared.EventPublisher,
	log *logger.Logger,
) *EvaluateBadgesHandler {
	if log == nil {
		log = logger.Default()
	}

	return &EvaluateBadgesHandler{
		learnerRepo:    learnerRepo,
		progressRepo:   progressRepo,
		definitions:    definitions,
		awardRepo:      awardRepo,
		eventPublisher: eventPublisher,
		log:            log.With(logger.Component("evaluate_badges")),
	}
}

// Handle executes the evaluate badges command.
func (h *EvaluateBadgesHandler) Handle(ctx context.Context, cmd EvaluateBadgesCommand) (*EvaluateBadgesResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("evaluate_badges: validation failed: %w", err)
	}

	stats, err := h.snapshotStats(ctx, cmd.LearnerID)
	if err != nil {
		return nil, fmt.Errorf("evaluate_badges: failed to load stats: %w", err)
	}

	defs, err := h.definitions.ListDefinitions(ctx)
	if err != nil {
		return nil, fmt.Errorf("evaluate_badges: failed to list definitions: %w", err)
	}

	result := &EvaluateBadgesResult{
		LearnerID:    cmd.LearnerID,
		NewlyAwarded: make([]badge.Definition, 0),
		Failed:       make(map[string]error),
	}

	// Criteria are independent of each other, so the iteration order has
	// no effect on which badges end up awarded.
	for _, def := range defs {
		result.Evaluated++

		awarded, err := h.evaluateOne(ctx, cmd, def, stats)
		if err != nil {
			result.Failed[def.ID] = err
			h.log.Error("badge evaluation failed",
				logger.LearnerID(cmd.LearnerID),
				logger.BadgeID(def.ID),
				logger.Err(err),
			)
			continue
		}

		if awarded {
			result.NewlyAwarded = append(result.NewlyAwarded, def)
		}
	}

	return result, nil
}

// snapshotStats assembles the stats snapshot the criteria evaluate against.
func (h *EvaluateBadgesHandler) snapshotStats(ctx context.Context, learnerID string) (badge.Stats, error) {
	l, err := h.learnerRepo.GetByID(ctx, learnerID)
	if err != nil {
		return badge.Stats{}, err
	}

	progress, err := h.progressRepo.GetStats(ctx, learnerID)
	if err != nil {
		return badge.Stats{}, err
	}

	return badge.Stats{
		TotalXP:          int(l.CurrentXP),
		Level:            int(l.CurrentLevel),
		CompletedModules: progress.CompletedModules,
		PassedQuizzes:    progress.PassedQuizzes,
		PerfectQuizzes:   progress.PerfectQuizzes,
	}, nil
}

// evaluateOne checks a single definition and awards it if newly satisfied.
// Returns true only for a fresh award.
func (h *EvaluateBadgesHandler) evaluateOne(
	ctx context.Context,
	cmd EvaluateBadgesCommand,
	def badge.Definition,
	stats badge.Stats,
) (bool, error) {
	held, err := h.awardRepo.HasAward(ctx, cmd.LearnerID, def.ID)
	if err != nil {
		return false, fmt.Errorf("check existing award: %w", err)
	}
	if held {
		return false, nil
	}

	matches, err := def.Criteria.Matches(stats)
	if err != nil {
		return false, fmt.Errorf("evaluate criterion: %w", err)
	}
	if !matches {
		return false, nil
	}

	award, err := badge.NewAward(cmd.LearnerID, def.ID)
	if err != nil {
		return false, err
	}

	if err := h.awardRepo.CreateAward(ctx, award); err != nil {
		// A concurrent evaluation may have awarded the badge between the
		// HasAward check and this insert. The uniqueness constraint turns
		// that race into a harmless no-op.
		if errors.Is(err, badge.ErrAlreadyAwarded) {
			return false, nil
		}
		return false, fmt.Errorf("create award: %w", err)
	}

	h.log.Info("badge awarded",
		logger.LearnerID(cmd.LearnerID),
		logger.BadgeID(def.ID),
	)

	event := shared.NewBadgeAwardedEvent(cmd.LearnerID, def.ID, def.Name)
	if cmd.CorrelationID != "" {
		event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	}
	if err := h.eventPublisher.Publish(event); err != nil {
		h.log.Error("failed to publish badge awarded event",
			logger.LearnerID(cmd.LearnerID),
			logger.BadgeID(def.ID),
			logger.Err(err),
		)
	}

	return true, nil
}
