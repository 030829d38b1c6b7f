package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/crealearn/crealearn-backend/internal/domain/catalog"
	"github.com/crealearn/crealearn-backend/internal/domain/progression"
	"github.com/crealearn/crealearn-backend/internal/domain/shared"
	"github.com/crealearn/crealearn-backend/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECORD SIMULATION COMMAND
// Records a simulation workshop session. Unlike modules and quizzes,
// simulations reward every run: practice is the point.
// ══════════════════════════════════════════════════════════════════════════════

// RecordSimulationCommand contains the data to record a simulation session.
type RecordSimulationCommand struct {
	// LearnerID is the internal ID of the learner.
	LearnerID string

	// SimulationID is the catalog ID of the simulation.
	SimulationID string

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c RecordSimulationCommand) Validate() error {
	if c.LearnerID == "" {
		return errors.New("record_simulation: learner_id is required")
	}
	if c.SimulationID == "" {
		return errors.New("record_simulation: simulation_id is required")
	}
	return nil
}

// RecordSimulationResult contains the outcome of a simulation session.
type RecordSimulationResult struct {
	// RunID is the ID of the recorded session.
	RunID string

	// LearnerID is the internal ID of the learner.
	LearnerID string

	// SimulationID is the catalog ID of the simulation.
	SimulationID string

	// XPEarned is the XP credited for this session.
	XPEarned int

	// Award describes the ledger change.
	Award *AwardXPResult
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// RecordSimulationHandler handles the RecordSimulationCommand.
type RecordSimulationHandler struct {
	catalog        catalog.Catalog
	progressRepo   progression.Repository
	awardXP        XPAwarder
	eventPublisher shared.EventPublisher
	log            *logger.Logger
}

// NewRecordSimulationHandler creates a new RecordSimulationHandler.
func NewRecordSimulationHandler(
	cat catalog.Catalog,
	progressRepo progression.Repository,
	awardXP XPAwarder,
	eventPublisher shared.EventPublisher,
	log *logger.Logger,
) *RecordSimulationHandler {
	if log == nil {
		log = logger.Default()
	}

	return &RecordSimulationHandler{
		catalog:        cat,
		progressRepo:   progressRepo,
		awardXP:        awardXP,
		eventPublisher: eventPublisher,
		log:            log.With(logger.Component("record_simulation")),
	}
}

// Handle executes the record simulation command.
func (h *RecordSimulationHandler) Handle(ctx context.Context, cmd RecordSimulationCommand) (*RecordSimulationResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("record_simulation: validation failed: %w", err)
	}

	sim, err := h.catalog.GetSimulation(ctx, cmd.SimulationID)
	if err != nil {
		return nil, fmt.Errorf("record_simulation: %w", err)
	}

	run := progression.SimulationRun{
		ID:           uuid.NewString(),
		LearnerID:    cmd.LearnerID,
		SimulationID: sim.ID,
		XPEarned:     sim.XPReward,
		RanAt:        time.Now().UTC(),
	}

	if err := h.progressRepo.RecordSimulationRun(ctx, run); err != nil {
		return nil, fmt.Errorf("record_simulation: failed to record run: %w", err)
	}

	award, err := h.awardXP.Handle(ctx, AwardXPCommand{
		LearnerID:     cmd.LearnerID,
		Amount:        sim.XPReward,
		Source:        SourceSimulationUsed,
		Reference:     sim.ID,
		CorrelationID: cmd.CorrelationID,
	})
	if err != nil {
		return nil, fmt.Errorf("record_simulation: failed to award xp: %w", err)
	}

	event := shared.NewSimulationUsedEvent(cmd.LearnerID, sim.ID, sim.XPReward)
	if cmd.CorrelationID != "" {
		event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	}
	if err := h.eventPublisher.Publish(event); err != nil {
		h.log.Error("failed to publish simulation used event",
			logger.LearnerID(cmd.LearnerID),
			logger.String("simulation_id", sim.ID),
			logger.Err(err),
		)
	}

	return &RecordSimulationResult{
		RunID:        run.ID,
		LearnerID:    cmd.LearnerID,
		SimulationID: sim.ID,
		XPEarned:     sim.XPReward,
		Award:        award,
	}, nil
}
