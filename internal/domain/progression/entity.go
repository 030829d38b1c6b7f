// Package progression contient les traces d'apprentissage : modules
// complétés, tentatives de quiz, sessions de simulation et défis quotidiens.
// Ce sont les faits bruts sur lesquels s'agrègent les statistiques servant
// à l'évaluation des badges et au résumé de progression.
package progression

import (
	"errors"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// ERREURS DE DOMAINE
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrInvalidScore - score de quiz hors de l'intervalle 0-100.
	ErrInvalidScore = errors.New("invalid quiz score: must be 0-100")

	// ErrAlreadyCompleted - le module est déjà complété par cet apprenant.
	ErrAlreadyCompleted = errors.New("module already completed")

	// ErrChallengeAlreadyClaimed - le défi du jour est déjà validé.
	ErrChallengeAlreadyClaimed = errors.New("daily challenge already claimed today")

	// ErrQuizRewardAlreadyGranted - l'XP de ce quiz a déjà été crédité par
	// une autre tentative réussie.
	ErrQuizRewardAlreadyGranted = errors.New("quiz reward already granted")
)

// PerfectScore - score d'une tentative parfaite.
const PerfectScore = 100

// ══════════════════════════════════════════════════════════════════════════════
// FAITS DE PROGRESSION
// ══════════════════════════════════════════════════════════════════════════════

// ModuleCompletion - la complétion d'un module par un apprenant.
// Au plus une par couple (apprenant, module).
type ModuleCompletion struct {
	// LearnerID - identifiant de l'apprenant.
	LearnerID string

	// ModuleID - identifiant du module.
	ModuleID string

	// XPEarned - XP crédité pour cette complétion.
	XPEarned int

	// CompletedAt - date de complétion.
	CompletedAt time.Time
}

// QuizAttempt - une tentative de quiz. Toutes les tentatives sont
// conservées, réussies ou non ; seule la première réussite d'un quiz
// donne de l'XP.
type QuizAttempt struct {
	// ID - identifiant de la tentative (UUID).
	ID string

	// LearnerID - identifiant de l'apprenant.
	LearnerID string

	// QuizID - identifiant du quiz.
	QuizID string

	// Score - score obtenu (0-100).
	Score int

	// Passed - vrai si le score atteint le seuil de réussite du quiz.
	Passed bool

	// Perfect - vrai si le score est parfait.
	Perfect bool

	// XPEarned - XP crédité pour cette tentative (0 si échec ou redite).
	XPEarned int

	// AttemptedAt - date de la tentative.
	AttemptedAt time.Time
}

// NewQuizAttempt crée une tentative validée.
func NewQuizAttempt(id, learnerID, quizID string, score, passingScore int) (*QuizAttempt, error) {
	if id == "" {
		return nil, errors.New("attempt id is required")
	}
	if learnerID == "" {
		return nil, errors.New("learner id is required")
	}
	if quizID == "" {
		return nil, errors.New("quiz id is required")
	}
	if score < 0 || score > 100 {
		return nil, ErrInvalidScore
	}

	return &QuizAttempt{
		ID:          id,
		LearnerID:   learnerID,
		QuizID:      quizID,
		Score:       score,
		Passed:      score >= passingScore,
		Perfect:     score == PerfectScore,
		AttemptedAt: time.Now().UTC(),
	}, nil
}

// SimulationRun - une session d'atelier de simulation.
type SimulationRun struct {
	// ID - identifiant de la session (UUID).
	ID string

	// LearnerID - identifiant de l'apprenant.
	LearnerID string

	// SimulationID - identifiant de la simulation.
	SimulationID string

	// XPEarned - XP crédité pour cette session.
	XPEarned int

	// RanAt - date de la session.
	RanAt time.Time
}

// DailyChallengeClaim - la validation du défi quotidien.
// Au plus une par couple (apprenant, jour UTC).
type DailyChallengeClaim struct {
	// LearnerID - identifiant de l'apprenant.
	LearnerID string

	// Day - jour UTC (minuit) du défi.
	Day time.Time

	// XPEarned - XP crédité.
	XPEarned int

	// ClaimedAt - date de validation.
	ClaimedAt time.Time
}

// DayOf tronque un instant au début du jour UTC.
func DayOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ══════════════════════════════════════════════════════════════════════════════
// STATISTIQUES AGRÉGÉES
// ══════════════════════════════════════════════════════════════════════════════

// LearnerStats - agrégat de progression d'un apprenant, calculé en lecture
// sur les faits persistés. Peut être légèrement en retard sur une
// attribution d'XP en cours ; acceptable pour l'affichage.
type LearnerStats struct {
	// CompletedModules - nombre de modules complétés.
	CompletedModules int

	// PassedQuizzes - nombre de quiz distincts réussis.
	PassedQuizzes int

	// PerfectQuizzes - nombre de tentatives parfaites.
	PerfectQuizzes int

	// TotalAttempts - nombre total de tentatives de quiz.
	TotalAttempts int

	// AverageScore - score moyen sur toutes les tentatives (0 si aucune).
	AverageScore float64

	// SimulationRuns - nombre de sessions de simulation.
	SimulationRuns int

	// DailyChallenges - nombre de défis quotidiens validés.
	DailyChallenges int
}
