package command

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/crealearn/crealearn-backend/internal/domain/learner"
	"github.com/crealearn/crealearn-backend/internal/domain/shared"
	"github.com/crealearn/crealearn-backend/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// REGISTER LEARNER COMMAND
// Creates a learner account. The progress ledger starts at xp=0, level=1.
// ══════════════════════════════════════════════════════════════════════════════

// MinPasswordLength is the minimum accepted password length.
const MinPasswordLength = 8

// RegisterLearnerCommand contains the data to register a new learner.
type RegisterLearnerCommand struct {
	// Email is the account e-mail address (unique).
	Email string

	// Password is the plaintext password. It is hashed before storage and
	// never persisted or logged as-is.
	Password string

	// DisplayName is the name shown on the platform.
	DisplayName string

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c RegisterLearnerCommand) Validate() error {
	if strings.TrimSpace(c.Email) == "" {
		return errors.New("register_learner: email is required")
	}
	if len(c.Password) < MinPasswordLength {
		return fmt.Errorf("register_learner: password must be at least %d chars", MinPasswordLength)
	}
	if strings.TrimSpace(c.DisplayName) == "" {
		return errors.New("register_learner: display_name is required")
	}
	return nil
}

// RegisterLearnerResult contains the outcome of a registration.
type RegisterLearnerResult struct {
	// LearnerID is the internal ID of the new learner.
	LearnerID string `json:"learner_id"`

	// Email is the normalized e-mail address.
	Email string `json:"email"`

	// DisplayName is the display name.
	DisplayName string `json:"display_name"`

	// Level is the starting level.
	Level int `json:"level"`

	// XP is the starting XP balance.
	XP int `json:"xp"`

	// RegisteredAt is when the account was created.
	RegisteredAt time.Time `json:"registered_at"`
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// RegisterLearnerHandler handles the RegisterLearnerCommand.
type RegisterLearnerHandler struct {
	learnerRepo    learner.Repository
	eventPublisher shared.EventPublisher
	log            *logger.Logger
	bcryptCost     int
}

// NewRegisterLearnerHandler creates a new RegisterLearnerHandler.
func NewRegisterLearnerHandler(
	learnerRepo learner.Repository,
	eventPublisher shared.EventPublisher,
	log *logger.Logger,
) *RegisterLearnerHandler {
	if log == nil {
		log = logger.Default()
	}

	return &RegisterLearnerHandler{
		learnerRepo:    learnerRepo,
		eventPublisher: eventPublisher,
		log:            log.With(logger.Component("register_learner")),
		bcryptCost:     bcrypt.DefaultCost,
	}
}

// Handle executes the register learner command.
func (h *RegisterLearnerHandler) Handle(ctx context.Context, cmd RegisterLearnerCommand) (*RegisterLearnerResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("register_learner: validation failed: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cmd.Password), h.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("register_learner: failed to hash password: %w", err)
	}

	l, err := learner.NewLearner(learner.NewLearnerParams{
		ID:           uuid.NewString(),
		Email:        cmd.Email,
		PasswordHash: string(hash),
		DisplayName:  cmd.DisplayName,
	})
	if err != nil {
		return nil, fmt.Errorf("register_learner: %w", err)
	}

	// The unique index on email is the real guard; Create surfaces the
	// duplicate directly so there is no check-then-insert race.
	if err := h.learnerRepo.Create(ctx, l); err != nil {
		return nil, fmt.Errorf("register_learner: failed to create learner: %w", err)
	}

	h.log.Info("learner registered",
		logger.LearnerID(l.ID),
		logger.String("display_name", l.DisplayName),
	)

	event := shared.NewLearnerRegisteredEvent(l.ID, l.Email, l.DisplayName)
	if cmd.CorrelationID != "" {
		event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	}
	if err := h.eventPublisher.Publish(event); err != nil {
		h.log.Error("failed to publish learner registered event",
			logger.LearnerID(l.ID),
			logger.Err(err),
		)
	}

	return &RegisterLearnerResult{
		LearnerID:    l.ID,
		Email:        l.Email,
		DisplayName:  l.DisplayName,
		Level:        int(l.CurrentLevel),
		XP:           int(l.CurrentXP),
		RegisteredAt: l.CreatedAt,
	}, nil
}
