// Package learner contient le modèle de domaine de l'apprenant CreaLearn.
// C'est le cœur de la logique métier - aucune dépendance externe ici.
package learner

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// ERREURS DE DOMAINE
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrInvalidEmail - adresse e-mail invalide.
	ErrInvalidEmail = errors.New("invalid email: must contain @ and be 5-254 chars")

	// ErrInvalidDisplayName - pseudonyme invalide.
	ErrInvalidDisplayName = errors.New("invalid display name: must be 1-100 chars")

	// ErrInvalidXP - montant d'XP invalide.
	ErrInvalidXP = errors.New("invalid xp: must be non-negative")

	// ErrLevelMismatch - le niveau stocké ne correspond pas à la formule.
	ErrLevelMismatch = errors.New("level does not match leveling formula for xp")
)

// ══════════════════════════════════════════════════════════════════════════════
// ENTITÉ PRINCIPALE : LEARNER
// ══════════════════════════════════════════════════════════════════════════════

// Learner - entité centrale du système : un créateur de contenu en formation.
// Le couple (XP, Level) forme le registre de progression : l'invariant
// Level == LevelFor(CurrentXP) est garanti après chaque écriture.
type Learner struct {
	// ID - identifiant interne unique (UUID au format chaîne).
	ID string

	// Email - adresse e-mail du compte (unique).
	Email string

	// PasswordHash - hachage bcrypt du mot de passe.
	PasswordHash string

	// DisplayName - pseudonyme affiché sur la plateforme.
	DisplayName string

	// CurrentXP - points d'expérience accumulés (jamais décrémentés).
	CurrentXP XP

	// CurrentLevel - niveau dérivé de CurrentXP via LevelFor.
	CurrentLevel Level

	// Version - compteur de version pour la concurrence optimiste.
	Version int64

	// JoinedAt - date de création du compte.
	JoinedAt time.Time

	// CreatedAt - date de création de l'enregistrement.
	CreatedAt time.Time

	// UpdatedAt - date de dernière modification.
	UpdatedAt time.Time
}

// NewLearnerParams contient les paramètres de création d'un apprenant.
type NewLearnerParams struct {
	ID           string
	Email        string
	PasswordHash string
	DisplayName  string
}

// NewLearner crée un nouvel apprenant avec validation de tous les champs.
// Le registre de progression démarre à xp=0, niveau=1.
func NewLearner(params NewLearnerParams) (*Learner, error) {
	if params.ID == "" {
		return nil, errors.New("learner id is required")
	}

	email := strings.TrimSpace(strings.ToLower(params.Email))
	if !isValidEmail(email) {
		return nil, ErrInvalidEmail
	}

	if params.PasswordHash == "" {
		return nil, errors.New("password hash is required")
	}

	displayName := strings.TrimSpace(params.DisplayName)
	if len(displayName) == 0 || len(displayName) > 100 {
		return nil, ErrInvalidDisplayName
	}

	now := time.Now().UTC()

	return &Learner{
		ID:           params.ID,
		Email:        email,
		PasswordHash: params.PasswordHash,
		DisplayName:  displayName,
		CurrentXP:    0,
		CurrentLevel: 1,
		Version:      1,
		JoinedAt:     now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func isValidEmail(s string) bool {
	if len(s) < 5 || len(s) > 254 {
		return false
	}
	at := strings.Index(s, "@")
	return at > 0 && at < len(s)-1 && !strings.ContainsAny(s, " \t\n\r")
}

// ══════════════════════════════════════════════════════════════════════════════
// MÉTHODES DE DOMAINE
// ══════════════════════════════════════════════════════════════════════════════

// AwardResult décrit l'effet d'une attribution d'XP.
type AwardResult struct {
	// OldXP - XP avant l'attribution.
	OldXP XP

	// NewXP - XP après l'attribution.
	NewXP XP

	// OldLevel - niveau avant l'attribution.
	OldLevel Level

	// NewLevel - niveau après l'attribution.
	NewLevel Level
}

// LeveledUp retourne vrai si l'attribution a franchi un seuil de niveau.
func (r AwardResult) LeveledUp() bool {
	return r.NewLevel > r.OldLevel
}

// AwardXP crédite un montant d'XP et recalcule le niveau.
// Le montant doit être positif ou nul : l'XP ne décroît jamais
// (hors correction administrative, qui passe par un autre chemin).
func (l *Learner) AwardXP(amount XP) (AwardResult, error) {
	if amount < 0 {
		return AwardResult{}, ErrInvalidXP
	}

	result := AwardResult{
		OldXP:    l.CurrentXP,
		OldLevel: l.CurrentLevel,
	}

	l.CurrentXP = l.CurrentXP.Add(amount)
	l.CurrentLevel = LevelFor(l.CurrentXP)
	l.UpdatedAt = time.Now().UTC()

	result.NewXP = l.CurrentXP
	result.NewLevel = l.CurrentLevel

	return result, nil
}

// CheckInvariant vérifie que le niveau stocké correspond à la formule.
// Utilisé par le job d'audit du worker.
func (l *Learner) CheckInvariant() error {
	if !l.CurrentXP.IsValid() {
		return ErrInvalidXP
	}
	if l.CurrentLevel != LevelFor(l.CurrentXP) {
		return ErrLevelMismatch
	}
	return nil
}

// XPToNextLevel retourne l'XP restant avant le prochain niveau.
func (l *Learner) XPToNextLevel() XP {
	return XPToNextLevel(l.CurrentXP)
}

// String retourne une représentation textuelle pour les journaux.
func (l *Learner) String() string {
	return fmt.Sprintf(
		"Learner{ID: %s, Email: %s, XP: %d, Level: %d}",
		l.ID, l.Email, l.CurrentXP, l.CurrentLevel,
	)
}

// Clone crée une copie profonde de l'apprenant.
func (l *Learner) Clone() *Learner {
	if l == nil {
		return nil
	}

	clone := *l
	return &clone
}
