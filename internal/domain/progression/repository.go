package progression

import (
	"context"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// INTERFACE DE RÉFÉRENTIEL
// ══════════════════════════════════════════════════════════════════════════════

// Repository définit les opérations de persistance des faits de progression.
// L'unicité (apprenant, module) et (apprenant, jour) est portée par le
// stockage, pas par la couche applicative.
type Repository interface {
	// RecordModuleCompletion insère une complétion de module.
	// Retourne ErrAlreadyCompleted si le couple (apprenant, module)
	// existe déjà.
	RecordModuleCompletion(ctx context.Context, c ModuleCompletion) error

	// HasCompletedModule vérifie si un module est déjà complété.
	HasCompletedModule(ctx context.Context, learnerID, moduleID string) (bool, error)

	// RecordQuizAttempt insère une tentative de quiz. Chaque tentative a
	// son propre ID, mais au plus une tentative par (apprenant, quiz) peut
	// porter un XPEarned positif : l'insertion d'une seconde tentative
	// récompensée retourne ErrQuizRewardAlreadyGranted.
	RecordQuizAttempt(ctx context.Context, a QuizAttempt) error

	// HasPassedQuiz vérifie si l'apprenant a déjà réussi ce quiz.
	HasPassedQuiz(ctx context.Context, learnerID, quizID string) (bool, error)

	// RecordSimulationRun insère une session de simulation.
	RecordSimulationRun(ctx context.Context, r SimulationRun) error

	// RecordDailyChallengeClaim insère la validation du défi du jour.
	// Retourne ErrChallengeAlreadyClaimed si le couple (apprenant, jour)
	// existe déjà.
	RecordDailyChallengeClaim(ctx context.Context, c DailyChallengeClaim) error

	// HasClaimedChallenge vérifie si le défi du jour donné est déjà validé.
	HasClaimedChallenge(ctx context.Context, learnerID string, day time.Time) (bool, error)

	// GetStats calcule les statistiques agrégées d'un apprenant.
	GetStats(ctx context.Context, learnerID string) (LearnerStats, error)

	// ListCompletions retourne les complétions de modules d'un apprenant,
	// de la plus récente à la plus ancienne.
	ListCompletions(ctx context.Context, learnerID string) ([]ModuleCompletion, error)

	// ListQuizAttempts retourne les tentatives de quiz d'un apprenant,
	// de la plus récente à la plus ancienne.
	ListQuizAttempts(ctx context.Context, learnerID string) ([]QuizAttempt, error)
}
