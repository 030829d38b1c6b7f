package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/crealearn/crealearn-backend/internal/domain/catalog"
	"github.com/crealearn/crealearn-backend/internal/domain/progression"
	"github.com/crealearn/crealearn-backend/internal/domain/shared"
	"github.com/crealearn/crealearn-backend/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// SUBMIT QUIZ COMMAND
// Records a quiz attempt. Every attempt is kept, but only the first passing
// attempt on a quiz earns XP; the perfect-score bonus rides on that same
// first pass. Retakes after a pass are free practice.
// ══════════════════════════════════════════════════════════════════════════════

// SubmitQuizCommand contains the data to record a quiz attempt.
type SubmitQuizCommand struct {
	// LearnerID is the internal ID of the learner.
	LearnerID string

	// QuizID is the catalog ID of the quiz.
	QuizID string

	// Score is the score obtained (0-100).
	Score int

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c SubmitQuizCommand) Validate() error {
	if c.LearnerID == "" {
		return errors.New("submit_quiz: learner_id is required")
	}
	if c.QuizID == "" {
		return errors.New("submit_quiz: quiz_id is required")
	}
	if c.Score < 0 || c.Score > 100 {
		return progression.ErrInvalidScore
	}
	return nil
}

// SubmitQuizResult contains the outcome of a quiz submission.
type SubmitQuizResult struct {
	// AttemptID is the ID of the recorded attempt.
	AttemptID string

	// LearnerID is the internal ID of the learner.
	LearnerID string

	// QuizID is the catalog ID of the quiz.
	QuizID string

	// Score is the score obtained.
	Score int

	// Passed is true when the score reached the quiz passing threshold.
	Passed bool

	// Perfect is true when the score is 100.
	Perfect bool

	// FirstPass is true when this attempt is the first passing one.
	FirstPass bool

	// XPEarned is the XP credited by this attempt (0 unless first pass).
	XPEarned int

	// Award describes the ledger change (nil when no XP was credited).
	Award *AwardXPResult
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// SubmitQuizHandler handles the SubmitQuizCommand.
type SubmitQuizHandler struct {
	catalog        catalog.Catalog
	progressRepo   progression.Repository
	awardXP        XPAwarder
	eventPublisher shared.EventPublisher
	log            *logger.Logger
}

// NewSubmitQuizHandler creates a new SubmitQuizHandler.
func NewSubmitQuizHandler(
	cat catalog.Catalog,
	progressRepo progression.Repository,
	awardXP XPAwarder,
	eventPublisher shared.EventPublisher,
	log *logger.Logger,
) *SubmitQuizHandler {
	if log == nil {
		log = logger.Default()
	}

	return &SubmitQuizHandler{
		catalog:        cat,
		progressRepo:   progressRepo,
		awardXP:        awardXP,
		eventPublisher: eventPublisher,
		log:            log.With(logger.Component("submit_quiz")),
	}
}

// Handle executes the submit quiz command.
func (h *SubmitQuizHandler) Handle(ctx context.Context, cmd SubmitQuizCommand) (*SubmitQuizResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("submit_quiz: validation failed: %w", err)
	}

	quiz, err := h.catalog.GetQuiz(ctx, cmd.QuizID)
	if err != nil {
		return nil, fmt.Errorf("submit_quiz: %w", err)
	}

	attempt, err := progression.NewQuizAttempt(
		uuid.NewString(), cmd.LearnerID, quiz.ID, cmd.Score, quiz.PassingScore,
	)
	if err != nil {
		return nil, fmt.Errorf("submit_quiz: %w", err)
	}

	firstPass := false
	if attempt.Passed {
		alreadyPassed, err := h.progressRepo.HasPassedQuiz(ctx, cmd.LearnerID, quiz.ID)
		if err != nil {
			return nil, fmt.Errorf("submit_quiz: failed to check prior passes: %w", err)
		}
		firstPass = !alreadyPassed
	}

	if firstPass {
		attempt.XPEarned = quiz.XPReward
		if attempt.Perfect {
			attempt.XPEarned += quiz.PerfectBonus
		}
	}

	// The insert is the arbiter of "first pass": storage allows at most one
	// rewarded attempt per (learner, quiz), so a concurrent submission that
	// also saw no prior pass loses here and is kept as a practice attempt.
	if err := h.progressRepo.RecordQuizAttempt(ctx, *attempt); err != nil {
		if !errors.Is(err, progression.ErrQuizRewardAlreadyGranted) {
			return nil, fmt.Errorf("submit_quiz: failed to record attempt: %w", err)
		}

		firstPass = false
		attempt.XPEarned = 0
		if err := h.progressRepo.RecordQuizAttempt(ctx, *attempt); err != nil {
			return nil, fmt.Errorf("submit_quiz: failed to record attempt: %w", err)
		}
	}

	result := &SubmitQuizResult{
		AttemptID: attempt.ID,
		LearnerID: cmd.LearnerID,
		QuizID:    quiz.ID,
		Score:     attempt.Score,
		Passed:    attempt.Passed,
		Perfect:   attempt.Perfect,
		FirstPass: firstPass,
		XPEarned:  attempt.XPEarned,
	}

	if attempt.XPEarned > 0 {
		award, err := h.awardXP.Handle(ctx, AwardXPCommand{
			LearnerID:     cmd.LearnerID,
			Amount:        attempt.XPEarned,
			Source:        SourceQuizPassed,
			Reference:     quiz.ID,
			CorrelationID: cmd.CorrelationID,
		})
		if err != nil {
			return nil, fmt.Errorf("submit_quiz: failed to award xp: %w", err)
		}
		result.Award = award
	}

	if attempt.Passed {
		event := shared.NewQuizPassedEvent(
			cmd.LearnerID, quiz.ID, attempt.Score, attempt.Perfect, attempt.XPEarned,
		)
		if cmd.CorrelationID != "" {
			event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
		}
		if err := h.eventPublisher.Publish(event); err != nil {
			h.log.Error("failed to publish quiz passed event",
				logger.LearnerID(cmd.LearnerID),
				logger.QuizID(quiz.ID),
				logger.Err(err),
			)
		}
	}

	return result, nil
}
