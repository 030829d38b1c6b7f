package learner

import "math"

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS : XP & NIVEAU
// ══════════════════════════════════════════════════════════════════════════════

// XP représente les points d'expérience accumulés par un apprenant.
type XP int

// IsValid vérifie que le montant d'XP est positif ou nul.
func (x XP) IsValid() bool {
	return x >= 0
}

// Add additionne deux montants d'XP.
func (x XP) Add(delta XP) XP {
	return x + delta
}

// Level représente le niveau d'un apprenant, dérivé de son XP.
type Level int

// IsValid vérifie que le niveau est strictement positif.
func (l Level) IsValid() bool {
	return l >= 1
}

// ══════════════════════════════════════════════════════════════════════════════
// FORMULE DE PROGRESSION
// Les seuils croissent quadratiquement : le niveau n commence à 100*(n-1)².
// ══════════════════════════════════════════════════════════════════════════════

// LevelFor calcule le niveau correspondant à un montant d'XP.
// Formule : niveau = floor(sqrt(xp / 100)) + 1. Fonction pure, sans plafond.
func LevelFor(xp XP) Level {
	if xp <= 0 {
		return 1
	}

	lvl := Level(math.Sqrt(float64(xp)/100.0)) + 1

	// Corrige les erreurs d'arrondi flottant aux seuils exacts.
	for Threshold(lvl+1) <= xp {
		lvl++
	}
	for lvl > 1 && Threshold(lvl) > xp {
		lvl--
	}

	return lvl
}

// Threshold retourne l'XP minimal requis pour atteindre le niveau n.
// Threshold(1) = 0, Threshold(2) = 100, Threshold(3) = 400, etc.
func Threshold(n Level) XP {
	if n <= 1 {
		return 0
	}
	d := int(n - 1)
	return XP(100 * d * d)
}

// XPToNextLevel retourne l'XP restant avant le prochain niveau.
func XPToNextLevel(xp XP) XP {
	return Threshold(LevelFor(xp)+1) - xp
}
