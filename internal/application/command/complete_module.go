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
// COMPLETE MODULE COMMAND
// Records a course module completion and credits its XP reward exactly once.
// Re-completing a module is a no-op, not an error: the client may retry a
// request freely without double-crediting.
// ══════════════════════════════════════════════════════════════════════════════

// CompleteModuleCommand contains the data to record a module completion.
type CompleteModuleCommand struct {
	// LearnerID is the internal ID of the learner.
	LearnerID string

	// ModuleID is the catalog ID of the completed module.
	ModuleID string

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c CompleteModuleCommand) Validate() error {
	if c.LearnerID == "" {
		return errors.New("complete_module: learner_id is required")
	}
	if c.ModuleID == "" {
		return errors.New("complete_module: module_id is required")
	}
	return nil
}

// CompleteModuleResult contains the outcome of a module completion.
type CompleteModuleResult struct {
	// LearnerID is the internal ID of the learner.
	LearnerID string

	// ModuleID is the catalog ID of the module.
	ModuleID string

	// AlreadyCompleted is true when the module had been completed before.
	// No XP is credited in that case.
	AlreadyCompleted bool

	// XPEarned is the XP credited by this completion (0 on repeat).
	XPEarned int

	// Award describes the ledger change (nil on repeat).
	Award *AwardXPResult
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// XPAwarder is the ledger write path the progression commands delegate to.
type XPAwarder interface {
	Handle(ctx context.Context, cmd AwardXPCommand) (*AwardXPResult, error)
}

// CompleteModuleHandler handles the CompleteModuleCommand.
type CompleteModuleHandler struct {
	catalog        catalog.Catalog
	progressRepo   progression.Repository
	awardXP        XPAwarder
	eventPublisher shared.EventPublisher
	log            *logger.Logger
}

// NewCompleteModuleHandler creates a new CompleteModuleHandler.
func NewCompleteModuleHandler(
	cat catalog.Catalog,
	progressRepo progression.Repository,
	awardXP XPAwarder,
	eventPublisher shared.EventPublisher,
	log *logger.Logger,
) *CompleteModuleHandler {
	if log == nil {
		log = logger.Default()
	}

	return &CompleteModuleHandler{
		catalog:        cat,
		progressRepo:   progressRepo,
		awardXP:        awardXP,
		eventPublisher: eventPublisher,
		log:            log.With(logger.Component("complete_module")),
	}
}

// Handle executes the complete module command.
func (h *CompleteModuleHandler) Handle(ctx context.Context, cmd CompleteModuleCommand) (*CompleteModuleResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("complete_module: validation failed: %w", err)
	}

	module, err := h.catalog.GetModule(ctx, cmd.ModuleID)
	if err != nil {
		return nil, fmt.Errorf("complete_module: %w", err)
	}

	completion := progression.ModuleCompletion{
		LearnerID:   cmd.LearnerID,
		ModuleID:    module.ID,
		XPEarned:    module.XPReward,
		CompletedAt: time.Now().UTC(),
	}

	// The primary key on (learner, module) is the idempotence guard.
	// Inserting first means two concurrent requests cannot both reach
	// the XP award.
	if err := h.progressRepo.RecordModuleCompletion(ctx, completion); err != nil {
		if errors.Is(err, progression.ErrAlreadyCompleted) {
			h.log.Debug("module already completed",
				logger.LearnerID(cmd.LearnerID),
				logger.ModuleID(cmd.ModuleID),
			)
			return &CompleteModuleResult{
				LearnerID:        cmd.LearnerID,
				ModuleID:         module.ID,
				AlreadyCompleted: true,
			}, nil
		}
		return nil, fmt.Errorf("complete_module: failed to record completion: %w", err)
	}

	award, err := h.awardXP.Handle(ctx, AwardXPCommand{
		LearnerID:     cmd.LearnerID,
		Amount:        module.XPReward,
		Source:        SourceModuleCompleted,
		Reference:     module.ID,
		CorrelationID: cmd.CorrelationID,
	})
	if err != nil {
		return nil, fmt.Errorf("complete_module: failed to award xp: %w", err)
	}

	event := shared.NewModuleCompletedEvent(cmd.LearnerID, module.ID, module.XPReward)
	if cmd.CorrelationID != "" {
		event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	}
	if err := h.eventPublisher.Publish(event); err != nil {
		h.log.Error("failed to publish module completed event",
			logger.LearnerID(cmd.LearnerID),
			logger.ModuleID(module.ID),
			logger.Err(err),
		)
	}

	return &CompleteModuleResult{
		LearnerID: cmd.LearnerID,
		ModuleID:  module.ID,
		XPEarned:  module.XPReward,
		Award:     award,
	}, nil
}
