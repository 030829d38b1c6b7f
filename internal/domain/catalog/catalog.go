// Package catalog contient le catalogue de contenu pédagogique : modules de
// cours, quiz et simulations, avec leur récompense d'XP. Le catalogue est la
// source de vérité des magnitudes d'XP - le moteur de gamification ne décide
// jamais lui-même combien vaut un module.
package catalog

import "context"

// ══════════════════════════════════════════════════════════════════════════════
// DÉFINITIONS DE CONTENU
// ══════════════════════════════════════════════════════════════════════════════

// Module - un module de cours (unité de contenu pédagogique).
type Module struct {
	// ID - identifiant du module.
	ID string

	// Title - titre affiché (en français).
	Title string

	// XPReward - XP attribué à la première complétion.
	XPReward int
}

// Quiz - un quiz associé à un module.
type Quiz struct {
	// ID - identifiant du quiz.
	ID string

	// ModuleID - module auquel le quiz appartient.
	ModuleID string

	// Title - titre affiché.
	Title string

	// PassingScore - score minimal (0-100) pour réussir.
	PassingScore int

	// XPReward - XP attribué à la première réussite.
	XPReward int

	// PerfectBonus - XP supplémentaire pour un score parfait (100).
	PerfectBonus int
}

// Simulation - un atelier de simulation scénarisé (pitch, négociation...).
type Simulation struct {
	// ID - identifiant de la simulation.
	ID string

	// Title - titre affiché.
	Title string

	// XPReward - XP attribué par session d'utilisation.
	XPReward int
}

// DailyChallengeXP - récompense fixe du défi quotidien.
const DailyChallengeXP = 25

// ══════════════════════════════════════════════════════════════════════════════
// INTERFACE DU CATALOGUE
// ══════════════════════════════════════════════════════════════════════════════

// Catalog expose le contenu pédagogique en lecture seule.
type Catalog interface {
	// GetModule retourne un module par ID.
	// Retourne shared.ErrModuleNotFound si inconnu.
	GetModule(ctx context.Context, id string) (Module, error)

	// GetQuiz retourne un quiz par ID.
	// Retourne shared.ErrQuizNotFound si inconnu.
	GetQuiz(ctx context.Context, id string) (Quiz, error)

	// GetSimulation retourne une simulation par ID.
	// Retourne shared.ErrSimulationNotFound si inconnue.
	GetSimulation(ctx context.Context, id string) (Simulation, error)

	// ListModules retourne tous les modules du parcours.
	ListModules(ctx context.Context) ([]Module, error)
}

// ══════════════════════════════════════════════════════════════════════════════
// CATALOGUE EMBARQUÉ
// Le parcours "Créateur de contenu" actuel. Un catalogue en base viendra
// plus tard si l'équipe pédagogique veut éditer sans redéployer.
// ══════════════════════════════════════════════════════════════════════════════

// DefaultModules retourne les modules du parcours créateur.
func DefaultModules() []Module {
	return []Module{
		{ID: "mod-trouver-sa-niche", Title: "Trouver sa niche", XPReward: 150},
		{ID: "mod-ecrire-pour-le-web", Title: "Écrire pour le web", XPReward: 150},
		{ID: "mod-tourner-sa-premiere-video", Title: "Tourner sa première vidéo", XPReward: 200},
		{ID: "mod-montage-essentiel", Title: "Le montage essentiel", XPReward: 200},
		{ID: "mod-algorithmes-et-portee", Title: "Algorithmes et portée", XPReward: 250},
		{ID: "mod-monetisation", Title: "Monétiser sa création", XPReward: 250},
		{ID: "mod-marque-personnelle", Title: "Construire sa marque personnelle", XPReward: 300},
		{ID: "mod-partenariats", Title: "Partenariats et sponsors", XPReward: 300},
	}
}

// DefaultQuizzes retourne les quiz du parcours créateur.
func DefaultQuizzes() []Quiz {
	return []Quiz{
		{ID: "quiz-niche", ModuleID: "mod-trouver-sa-niche", Title: "Quiz : Trouver sa niche", PassingScore: 70, XPReward: 50, PerfectBonus: 25},
		{ID: "quiz-ecriture", ModuleID: "mod-ecrire-pour-le-web", Title: "Quiz : Écrire pour le web", PassingScore: 70, XPReward: 50, PerfectBonus: 25},
		{ID: "quiz-video", ModuleID: "mod-tourner-sa-premiere-video", Title: "Quiz : Première vidéo", PassingScore: 70, XPReward: 60, PerfectBonus: 30},
		{ID: "quiz-montage", ModuleID: "mod-montage-essentiel", Title: "Quiz : Montage", PassingScore: 70, XPReward: 60, PerfectBonus: 30},
		{ID: "quiz-algorithmes", ModuleID: "mod-algorithmes-et-portee", Title: "Quiz : Algorithmes", PassingScore: 75, XPReward: 75, PerfectBonus: 35},
		{ID: "quiz-monetisation", ModuleID: "mod-monetisation", Title: "Quiz : Monétisation", PassingScore: 75, XPReward: 75, PerfectBonus: 35},
	}
}

// DefaultSimulations retourne les simulations scénarisées.
func DefaultSimulations() []Simulation {
	return []Simulation{
		{ID: "sim-pitch-sponsor", Title: "Simulation : Pitch à un sponsor", XPReward: 30},
		{ID: "sim-negociation-tarif", Title: "Simulation : Négocier son tarif", XPReward: 30},
		{ID: "sim-gestion-communaute", Title: "Simulation : Gérer sa communauté", XPReward: 20},
	}
}
