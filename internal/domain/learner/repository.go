package learner

import (
	"context"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// INTERFACES DE RÉFÉRENTIEL
// Ces interfaces définissent le contrat avec la couche de persistance.
// Les implémentations vivent dans infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Repository définit les opérations de persistance des apprenants.
type Repository interface {
	// Create crée un nouvel apprenant.
	// Retourne shared.ErrLearnerAlreadyExists si l'e-mail est déjà pris.
	Create(ctx context.Context, l *Learner) error

	// GetByID retourne un apprenant par son ID interne.
	// Retourne shared.ErrLearnerNotFound si introuvable.
	GetByID(ctx context.Context, id string) (*Learner, error)

	// GetByEmail retourne un apprenant par son adresse e-mail.
	// Retourne shared.ErrLearnerNotFound si introuvable.
	GetByEmail(ctx context.Context, email string) (*Learner, error)

	// UpdateProgress écrit xp et niveau de façon atomique, sous contrôle
	// de concurrence optimiste : l'écriture n'aboutit que si la version
	// persistée correspond à l.Version. En cas de succès la version est
	// incrémentée ; sinon shared.ErrConcurrentModification est retourné
	// et l'appelant relit puis réessaie.
	UpdateProgress(ctx context.Context, l *Learner) error

	// List retourne les apprenants avec pagination, triés par XP décroissant.
	List(ctx context.Context, opts ListOptions) ([]*Learner, error)

	// Count retourne le nombre total d'apprenants.
	Count(ctx context.Context) (int, error)

	// Exists vérifie l'existence d'un apprenant par ID.
	Exists(ctx context.Context, id string) (bool, error)
}

// ListOptions contient les paramètres de pagination.
type ListOptions struct {
	// Offset - décalage de pagination.
	Offset int

	// Limit - nombre maximal d'enregistrements.
	Limit int
}

// DefaultListOptions retourne les paramètres par défaut.
func DefaultListOptions() ListOptions {
	return ListOptions{
		Offset: 0,
		Limit:  50,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// HISTORIQUE D'XP
// Chaque attribution laisse une trace : ancien solde, nouveau solde, source.
// ══════════════════════════════════════════════════════════════════════════════

// XPHistoryEntry - une entrée de l'historique d'XP.
type XPHistoryEntry struct {
	// LearnerID - identifiant de l'apprenant.
	LearnerID string

	// Timestamp - date de l'attribution.
	Timestamp time.Time

	// OldXP - XP avant l'attribution.
	OldXP XP

	// NewXP - XP après l'attribution.
	NewXP XP

	// Delta - montant attribué.
	Delta XP

	// Source - origine de l'attribution (module_completed, quiz_passed,
	// simulation_used, daily_challenge).
	Source string

	// Reference - identifiant du module/quiz concerné (si applicable).
	Reference string
}

// HistoryRepository définit les opérations sur l'historique d'XP.
type HistoryRepository interface {
	// SaveXPChange enregistre une attribution d'XP.
	SaveXPChange(ctx context.Context, entry XPHistoryEntry) error

	// GetXPHistory retourne l'historique d'un apprenant sur une période.
	GetXPHistory(ctx context.Context, learnerID string, from, to time.Time) ([]XPHistoryEntry, error)

	// GetRecentXPChanges retourne les N dernières attributions.
	GetRecentXPChanges(ctx context.Context, learnerID string, limit int) ([]XPHistoryEntry, error)
}
