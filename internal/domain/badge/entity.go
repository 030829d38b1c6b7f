// Package badge contient le modèle de domaine des badges : définitions,
// critères d'obtention et attributions. Les critères forment un petit
// langage de prédicats à variantes étiquetées, évalué exhaustivement -
// jamais de texte libre interprété à la volée.
package badge

import (
	"errors"
	"fmt"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// ERREURS DE DOMAINE
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrUnknownCriterionKind - variante de critère inconnue.
	ErrUnknownCriterionKind = errors.New("unknown badge criterion kind")

	// ErrInvalidThreshold - seuil de critère invalide.
	ErrInvalidThreshold = errors.New("invalid criterion threshold: must be positive")

	// ErrInvalidBadgeID - identifiant de badge invalide.
	ErrInvalidBadgeID = errors.New("invalid badge id")

	// ErrAlreadyAwarded - le badge est déjà attribué à cet apprenant.
	// Traité comme un non-événement d'idempotence, jamais comme une panne.
	ErrAlreadyAwarded = errors.New("badge already awarded")

	// ErrDefinitionNotFound - définition de badge inconnue.
	ErrDefinitionNotFound = errors.New("badge definition not found")
)

// ══════════════════════════════════════════════════════════════════════════════
// STATISTIQUES AGRÉGÉES
// Les critères s'évaluent sur cette photographie de la progression.
// ══════════════════════════════════════════════════════════════════════════════

// Stats - statistiques agrégées d'un apprenant au moment de l'évaluation.
type Stats struct {
	// TotalXP - XP total accumulé.
	TotalXP int

	// Level - niveau courant.
	Level int

	// CompletedModules - nombre de modules complétés.
	CompletedModules int

	// PassedQuizzes - nombre de quiz réussis (distincts).
	PassedQuizzes int

	// PerfectQuizzes - nombre de tentatives avec un score parfait.
	PerfectQuizzes int
}

// ══════════════════════════════════════════════════════════════════════════════
// LANGAGE DE CRITÈRES
// ══════════════════════════════════════════════════════════════════════════════

// CriterionKind identifie la variante d'un critère d'obtention.
type CriterionKind string

const (
	// CriterionModuleCount - au moins N modules complétés.
	CriterionModuleCount CriterionKind = "module_count"

	// CriterionQuizCount - au moins N quiz réussis.
	CriterionQuizCount CriterionKind = "quiz_count"

	// CriterionPerfectQuizCount - au moins N scores parfaits.
	CriterionPerfectQuizCount CriterionKind = "perfect_quiz_count"

	// CriterionLevel - niveau N atteint.
	CriterionLevel CriterionKind = "level"

	// CriterionTotalXP - au moins N XP accumulés.
	CriterionTotalXP CriterionKind = "total_xp"
)

// IsValid vérifie que la variante est connue.
func (k CriterionKind) IsValid() bool {
	switch k {
	case CriterionModuleCount, CriterionQuizCount, CriterionPerfectQuizCount,
		CriterionLevel, CriterionTotalXP:
		return true
	default:
		return false
	}
}

// Criterion - un prédicat d'obtention : une variante et son seuil.
// Les critères sont indépendants les uns des autres : l'ordre d'évaluation
// entre badges n'a aucun effet sur le résultat.
type Criterion struct {
	// Kind - variante du critère.
	Kind CriterionKind

	// Threshold - seuil à atteindre (inclus).
	Threshold int
}

// Validate vérifie la cohérence du critère.
func (c Criterion) Validate() error {
	if !c.Kind.IsValid() {
		return fmt.Errorf("%w: %q", ErrUnknownCriterionKind, c.Kind)
	}
	if c.Threshold <= 0 {
		return ErrInvalidThreshold
	}
	return nil
}

// Matches évalue le critère sur les statistiques données.
// Le switch est exhaustif : une variante inconnue est une erreur,
// pas un faux silencieux.
func (c Criterion) Matches(s Stats) (bool, error) {
	switch c.Kind {
	case CriterionModuleCount:
		return s.CompletedModules >= c.Threshold, nil
	case CriterionQuizCount:
		return s.PassedQuizzes >= c.Threshold, nil
	case CriterionPerfectQuizCount:
		return s.PerfectQuizzes >= c.Threshold, nil
	case CriterionLevel:
		return s.Level >= c.Threshold, nil
	case CriterionTotalXP:
		return s.TotalXP >= c.Threshold, nil
	default:
		return false, fmt.Errorf("%w: %q", ErrUnknownCriterionKind, c.Kind)
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// DÉFINITIONS & ATTRIBUTIONS
// ══════════════════════════════════════════════════════════════════════════════

// Definition - un badge tel que défini par le catalogue de contenu.
type Definition struct {
	// ID - identifiant du badge.
	ID string

	// Name - nom affiché (en français).
	Name string

	// Description - description affichée.
	Description string

	// Emoji - pictogramme affiché dans la grille de badges.
	Emoji string

	// Criteria - prédicat d'obtention.
	Criteria Criterion
}

// Validate vérifie la cohérence de la définition.
func (d Definition) Validate() error {
	if d.ID == "" {
		return ErrInvalidBadgeID
	}
	if d.Name == "" {
		return errors.New("badge name is required")
	}
	return d.Criteria.Validate()
}

// Award - un badge attribué à un apprenant. Immuable : une attribution
// n'est jamais révoquée, et il existe au plus une attribution par couple
// (apprenant, badge) - unicité garantie par la couche de persistance.
type Award struct {
	// LearnerID - identifiant de l'apprenant.
	LearnerID string

	// BadgeID - identifiant du badge.
	BadgeID string

	// EarnedAt - date d'obtention.
	EarnedAt time.Time
}

// NewAward crée une attribution datée de maintenant.
func NewAward(learnerID, badgeID string) (Award, error) {
	if learnerID == "" {
		return Award{}, errors.New("learner id is required")
	}
	if badgeID == "" {
		return Award{}, ErrInvalidBadgeID
	}

	return Award{
		LearnerID: learnerID,
		BadgeID:   badgeID,
		EarnedAt:  time.Now().UTC(),
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// BADGES EMBARQUÉS
// La collection actuelle de la plateforme. Comme pour le catalogue de cours,
// l'édition sans redéploiement viendra plus tard.
// ══════════════════════════════════════════════════════════════════════════════

// DefaultDefinitions retourne les badges de la plateforme.
func DefaultDefinitions() []Definition {
	return []Definition{
		{
			ID:          "premier-pas",
			Name:        "Premier Pas",
			Description: "Premier module complété",
			Emoji:       "👣",
			Criteria:    Criterion{Kind: CriterionModuleCount, Threshold: 1},
		},
		{
			ID:          "explorateur",
			Name:        "Explorateur",
			Description: "Trois modules complétés",
			Emoji:       "🧭",
			Criteria:    Criterion{Kind: CriterionModuleCount, Threshold: 3},
		},
		{
			ID:          "marathonien",
			Name:        "Marathonien du savoir",
			Description: "Tous les huit modules complétés",
			Emoji:       "🏃",
			Criteria:    Criterion{Kind: CriterionModuleCount, Threshold: 8},
		},
		{
			ID:          "premier-quiz",
			Name:        "Esprit vif",
			Description: "Premier quiz réussi",
			Emoji:       "💡",
			Criteria:    Criterion{Kind: CriterionQuizCount, Threshold: 1},
		},
		{
			ID:          "maitre-quiz",
			Name:        "Maître des quiz",
			Description: "Cinq quiz réussis",
			Emoji:       "🎓",
			Criteria:    Criterion{Kind: CriterionQuizCount, Threshold: 5},
		},
		{
			ID:          "sans-faute",
			Name:        "Sans-faute",
			Description: "Premier score parfait",
			Emoji:       "🎯",
			Criteria:    Criterion{Kind: CriterionPerfectQuizCount, Threshold: 1},
		},
		{
			ID:          "perfectionniste",
			Name:        "Perfectionniste",
			Description: "Trois scores parfaits",
			Emoji:       "💎",
			Criteria:    Criterion{Kind: CriterionPerfectQuizCount, Threshold: 3},
		},
		{
			ID:          "niveau-3",
			Name:        "Créateur en herbe",
			Description: "Niveau 3 atteint",
			Emoji:       "🌱",
			Criteria:    Criterion{Kind: CriterionLevel, Threshold: 3},
		},
		{
			ID:          "niveau-5",
			Name:        "Créateur confirmé",
			Description: "Niveau 5 atteint",
			Emoji:       "⭐",
			Criteria:    Criterion{Kind: CriterionLevel, Threshold: 5},
		},
		{
			ID:          "mille-xp",
			Name:        "Mille étincelles",
			Description: "1000 XP accumulés",
			Emoji:       "✨",
			Criteria:    Criterion{Kind: CriterionTotalXP, Threshold: 1000},
		},
	}
}
