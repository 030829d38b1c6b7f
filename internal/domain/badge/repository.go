package badge

import (
	"context"
)

// ══════════════════════════════════════════════════════════════════════════════
// INTERFACES DE RÉFÉRENTIEL
// ══════════════════════════════════════════════════════════════════════════════

// DefinitionSource expose les définitions de badges en lecture seule.
// Les définitions appartiennent au catalogue de contenu ; le moteur ne
// les modifie jamais.
type DefinitionSource interface {
	// ListDefinitions retourne toutes les définitions de badges.
	ListDefinitions(ctx context.Context) ([]Definition, error)

	// GetDefinition retourne une définition par ID.
	// Retourne shared.ErrBadgeNotFound si inconnue.
	GetDefinition(ctx context.Context, id string) (Definition, error)
}

// AwardRepository définit les opérations de persistance des attributions.
type AwardRepository interface {
	// CreateAward insère une attribution. La contrainte d'unicité sur
	// (learner_id, badge_id) est portée par le stockage : un doublon
	// retourne ErrAlreadyAwarded, que l'appelant traite comme un
	// non-événement.
	CreateAward(ctx context.Context, award Award) error

	// ListAwards retourne toutes les attributions d'un apprenant.
	ListAwards(ctx context.Context, learnerID string) ([]Award, error)

	// HasAward vérifie si un badge est déjà attribué.
	HasAward(ctx context.Context, learnerID, badgeID string) (bool, error)

	// CountAwards retourne le nombre de badges d'un apprenant.
	CountAwards(ctx context.Context, learnerID string) (int, error)
}

// ══════════════════════════════════════════════════════════════════════════════
// SOURCE DE DÉFINITIONS EMBARQUÉE
// ══════════════════════════════════════════════════════════════════════════════

// StaticDefinitions - source de définitions en mémoire, immuable.
type StaticDefinitions struct {
	byID    map[string]Definition
	ordered []Definition
}

// NewStaticDefinitions construit la source à partir des définitions données.
// Les définitions invalides sont rejetées à la construction.
func NewStaticDefinitions(defs []Definition) (*StaticDefinitions, error) {
	s := &StaticDefinitions{
		byID:    make(map[string]Definition, len(defs)),
		ordered: make([]Definition, len(defs)),
	}

	copy(s.ordered, defs)
	for _, d := range defs {
		if err := d.Validate(); err != nil {
			return nil, err
		}
		s.byID[d.ID] = d
	}

	return s, nil
}

// MustStaticDefinitions construit la source ou panique.
// Réservé au câblage au démarrage avec les définitions embarquées.
func MustStaticDefinitions(defs []Definition) *StaticDefinitions {
	s, err := NewStaticDefinitions(defs)
	if err != nil {
		panic(err)
	}
	return s
}

// ListDefinitions retourne toutes les définitions.
func (s *StaticDefinitions) ListDefinitions(_ context.Context) ([]Definition, error) {
	out := make([]Definition, len(s.ordered))
	copy(out, s.ordered)
	return out, nil
}

// GetDefinition retourne une définition par ID.
func (s *StaticDefinitions) GetDefinition(_ context.Context, id string) (Definition, error) {
	d, ok := s.byID[id]
	if !ok {
		return Definition{}, ErrDefinitionNotFound
	}
	return d, nil
}
