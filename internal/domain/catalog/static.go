package catalog

import (
	"context"

	"github.com/crealearn/crealearn-backend/internal/domain/shared"
)

// StaticCatalog - implémentation en mémoire du catalogue, construite au
// démarrage à partir des définitions embarquées. Immuable après création,
// donc sûre en lecture concurrente.
type StaticCatalog struct {
	modules     map[string]Module
	quizzes     map[string]Quiz
	simulations map[string]Simulation
	ordered     []Module
}

// NewStaticCatalog construit le catalogue à partir des définitions données.
func NewStaticCatalog(modules []Module, quizzes []Quiz, simulations []Simulation) *StaticCatalog {
	c := &StaticCatalog{
		modules:     make(map[string]Module, len(modules)),
		quizzes:     make(map[string]Quiz, len(quizzes)),
		simulations: make(map[string]Simulation, len(simulations)),
		ordered:     make([]Module, len(modules)),
	}

	copy(c.ordered, modules)
	for _, m := range modules {
		c.modules[m.ID] = m
	}
	for _, q := range quizzes {
		c.quizzes[q.ID] = q
	}
	for _, s := range simulations {
		c.simulations[s.ID] = s
	}

	return c
}

// NewDefaultCatalog construit le catalogue du parcours créateur.
func NewDefaultCatalog() *StaticCatalog {
	return NewStaticCatalog(DefaultModules(), DefaultQuizzes(), DefaultSimulations())
}

// GetModule retourne un module par ID.
func (c *StaticCatalog) GetModule(_ context.Context, id string) (Module, error) {
	m, ok := c.modules[id]
	if !ok {
		return Module{}, shared.ErrModuleNotFound
	}
	return m, nil
}

// GetQuiz retourne un quiz par ID.
func (c *StaticCatalog) GetQuiz(_ context.Context, id string) (Quiz, error) {
	q, ok := c.quizzes[id]
	if !ok {
		return Quiz{}, shared.ErrQuizNotFound
	}
	return q, nil
}

// GetSimulation retourne une simulation par ID.
func (c *StaticCatalog) GetSimulation(_ context.Context, id string) (Simulation, error) {
	s, ok := c.simulations[id]
	if !ok {
		return Simulation{}, shared.ErrSimulationNotFound
	}
	return s, nil
}

// ListModules retourne les modules dans l'ordre du parcours.
func (c *StaticCatalog) ListModules(_ context.Context) ([]Module, error) {
	out := make([]Module, len(c.ordered))
	copy(out, c.ordered)
	return out, nil
}
