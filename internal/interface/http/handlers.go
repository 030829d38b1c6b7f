package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/crealearn/crealearn-backend/internal/application/command"
	"github.com/crealearn/crealearn-backend/internal/application/query"
	"github.com/crealearn/crealearn-backend/internal/domain/progression"
	"github.com/crealearn/crealearn-backend/internal/domain/shared"
	"github.com/crealearn/crealearn-backend/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// ROUTING
// ══════════════════════════════════════════════════════════════════════════════

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	// ─────────────────────────────────────────────────────────────────────────
	// Health
	// ─────────────────────────────────────────────────────────────────────────
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /healthz", s.handleHealth) // Kubernetes alias

	// ─────────────────────────────────────────────────────────────────────────
	// Accounts
	// ─────────────────────────────────────────────────────────────────────────
	s.router.HandleFunc("POST /api/v1/learners", s.handleRegisterLearner)

	// ─────────────────────────────────────────────────────────────────────────
	// Progress writes
	// ─────────────────────────────────────────────────────────────────────────
	s.router.HandleFunc("POST /api/v1/learners/{id}/modules/{moduleID}/complete", s.handleCompleteModule)
	s.router.HandleFunc("POST /api/v1/learners/{id}/quizzes/{quizID}/attempts", s.handleSubmitQuiz)
	s.router.HandleFunc("POST /api/v1/learners/{id}/simulations/{simulationID}/runs", s.handleRecordSimulation)
	s.router.HandleFunc("POST /api/v1/learners/{id}/daily-challenge", s.handleCompleteDailyChallenge)

	// ─────────────────────────────────────────────────────────────────────────
	// Reads
	// ─────────────────────────────────────────────────────────────────────────
	s.router.HandleFunc("GET /api/v1/learners/{id}/summary", s.handleGetSummary)
	s.router.HandleFunc("GET /api/v1/learners/{id}/badges", s.handleGetBadges)
	s.router.HandleFunc("GET /api/v1/learners/{id}/history", s.handleGetXPHistory)
	s.router.HandleFunc("GET /api/v1/leaderboard", s.handleGetLeaderboard)
}

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH
// ══════════════════════════════════════════════════════════════════════════════

// handleHealth reports process health and dependency reachability.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	type depStatus struct {
		Status string `json:"status"`
	}

	status := http.StatusOK
	deps := make(map[string]depStatus)

	if s.deps.PingPostgres != nil {
		if err := s.deps.PingPostgres(ctx); err != nil {
			deps["postgres"] = depStatus{Status: "down"}
			status = http.StatusServiceUnavailable
		} else {
			deps["postgres"] = depStatus{Status: "up"}
		}
	}

	// Redis being down degrades reads but does not make the service
	// unhealthy: Postgres remains the source of truth.
	if s.deps.PingRedis != nil {
		if err := s.deps.PingRedis(ctx); err != nil {
			deps["redis"] = depStatus{Status: "down"}
		} else {
			deps["redis"] = depStatus{Status: "up"}
		}
	}

	overall := "healthy"
	if status != http.StatusOK {
		overall = "unhealthy"
	}

	writeJSON(w, status, map[string]interface{}{
		"status":       overall,
		"dependencies": deps,
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// ACCOUNT HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleRegisterLearner creates a learner account.
func (s *Server) handleRegisterLearner(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email       string `json:"email"`
		Password    string `json:"password"`
		DisplayName string `json:"display_name"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "request body must be valid JSON")
		return
	}

	result, err := s.deps.RegisterLearner.Handle(r.Context(), command.RegisterLearnerCommand{
		Email:         body.Email,
		Password:      body.Password,
		DisplayName:   body.DisplayName,
		CorrelationID: requestIDFrom(r),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleCompleteModule records a module completion.
// Re-completing is a 200 with already_completed=true, never an error.
func (s *Server) handleCompleteModule(w http.ResponseWriter, r *http.Request) {
	result, err := s.deps.CompleteModule.Handle(r.Context(), command.CompleteModuleCommand{
		LearnerID:     r.PathValue("id"),
		ModuleID:      r.PathValue("moduleID"),
		CorrelationID: requestIDFrom(r),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"module_id":         result.ModuleID,
		"already_completed": result.AlreadyCompleted,
		"xp_earned":         result.XPEarned,
		"progress":          awardPayload(result.Award),
	})
}

// handleSubmitQuiz records a quiz attempt.
func (s *Server) handleSubmitQuiz(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Score int `json:"score"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "request body must be valid JSON")
		return
	}

	result, err := s.deps.SubmitQuiz.Handle(r.Context(), command.SubmitQuizCommand{
		LearnerID:     r.PathValue("id"),
		QuizID:        r.PathValue("quizID"),
		Score:         body.Score,
		CorrelationID: requestIDFrom(r),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"attempt_id": result.AttemptID,
		"score":      result.Score,
		"passed":     result.Passed,
		"perfect":    result.Perfect,
		"first_pass": result.FirstPass,
		"xp_earned":  result.XPEarned,
		"progress":   awardPayload(result.Award),
	})
}

// handleRecordSimulation records a simulation session.
func (s *Server) handleRecordSimulation(w http.ResponseWriter, r *http.Request) {
	result, err := s.deps.RecordSimulation.Handle(r.Context(), command.RecordSimulationCommand{
		LearnerID:     r.PathValue("id"),
		SimulationID:  r.PathValue("simulationID"),
		CorrelationID: requestIDFrom(r),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"run_id":    result.RunID,
		"xp_earned": result.XPEarned,
		"progress":  awardPayload(result.Award),
	})
}

// handleCompleteDailyChallenge claims the daily challenge.
func (s *Server) handleCompleteDailyChallenge(w http.ResponseWriter, r *http.Request) {
	result, err := s.deps.CompleteDailyChallenge.Handle(r.Context(), command.CompleteDailyChallengeCommand{
		LearnerID:     r.PathValue("id"),
		CorrelationID: requestIDFrom(r),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"day":             result.Day.Format("2006-01-02"),
		"already_claimed": result.AlreadyClaimed,
		"xp_earned":       result.XPEarned,
		"progress":        awardPayload(result.Award),
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// READ HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleGetSummary returns the learner's aggregated progress.
func (s *Server) handleGetSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.deps.GetLearnerSummary.Handle(r.Context(), query.GetLearnerSummaryQuery{
		LearnerID: r.PathValue("id"),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// handleGetBadges returns the learner's badge grid.
func (s *Server) handleGetBadges(w http.ResponseWriter, r *http.Request) {
	grid, err := s.deps.GetBadges.Handle(r.Context(), query.GetBadgesQuery{
		LearnerID: r.PathValue("id"),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, grid)
}

// handleGetXPHistory returns recent XP awards.
func (s *Server) handleGetXPHistory(w http.ResponseWriter, r *http.Request) {
	items, err := s.deps.GetXPHistory.Handle(r.Context(), query.GetXPHistoryQuery{
		LearnerID: r.PathValue("id"),
		Limit:     queryInt(r, "limit", query.DefaultHistoryLimit),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"history": items})
}

// handleGetLeaderboard returns the global XP ranking.
func (s *Server) handleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	view, err := s.deps.GetLeaderboard.Handle(r.Context(), query.GetLeaderboardQuery{
		Limit:     queryInt(r, "limit", query.DefaultLeaderboardLimit),
		LearnerID: r.URL.Query().Get("learner_id"),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// ══════════════════════════════════════════════════════════════════════════════
// ERROR MAPPING
// ══════════════════════════════════════════════════════════════════════════════

// writeDomainError maps domain errors to HTTP status codes.
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case shared.IsNotFound(err):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case shared.IsAlreadyExists(err):
		writeError(w, http.StatusConflict, "already_exists", err.Error())
	case shared.IsValidation(err),
		errors.Is(err, progression.ErrInvalidScore),
		isValidationMessage(err):
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
	case shared.IsConflict(err):
		// Surfaces only when all retry attempts were exhausted.
		writeError(w, http.StatusConflict, "conflict", "progress changed concurrently, please retry")
	default:
		s.log.Error("unhandled error",
			logger.String("path", r.URL.Path),
			logger.String("request_id", requestIDFrom(r)),
			logger.Err(err),
		)
		writeError(w, http.StatusInternalServerError, "internal_error", "an unexpected error occurred")
	}
}

// isValidationMessage catches command validation failures, which are plain
// errors wrapped with a "validation failed" marker.
func isValidationMessage(err error) bool {
	return err != nil && strings.Contains(err.Error(), "validation failed")
}

// awardPayload renders a ledger change for the response (nil-safe).
func awardPayload(a *command.AwardXPResult) interface{} {
	if a == nil {
		return nil
	}
	return map[string]interface{}{
		"xp":         a.NewXP,
		"level":      a.NewLevel,
		"leveled_up": a.LeveledUp,
	}
}
