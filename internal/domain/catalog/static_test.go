package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crealearn/crealearn-backend/internal/domain/shared"
)

func TestDefaultCatalogLookups(t *testing.T) {
	c := NewDefaultCatalog()
	ctx := context.Background()

	m, err := c.GetModule(ctx, "mod-trouver-sa-niche")
	require.NoError(t, err)
	assert.Equal(t, 150, m.XPReward)

	q, err := c.GetQuiz(ctx, "quiz-niche")
	require.NoError(t, err)
	assert.Equal(t, "mod-trouver-sa-niche", q.ModuleID)
	assert.Equal(t, 70, q.PassingScore)

	s, err := c.GetSimulation(ctx, "sim-pitch-sponsor")
	require.NoError(t, err)
	assert.Equal(t, 30, s.XPReward)
}

func TestDefaultCatalogUnknownIDs(t *testing.T) {
	c := NewDefaultCatalog()
	ctx := context.Background()

	_, err := c.GetModule(ctx, "mod-inconnu")
	assert.ErrorIs(t, err, shared.ErrModuleNotFound)
	assert.True(t, shared.IsNotFound(err))

	_, err = c.GetQuiz(ctx, "quiz-inconnu")
	assert.ErrorIs(t, err, shared.ErrQuizNotFound)

	_, err = c.GetSimulation(ctx, "sim-inconnue")
	assert.ErrorIs(t, err, shared.ErrSimulationNotFound)
}

func TestListModulesKeepsCourseOrder(t *testing.T) {
	c := NewDefaultCatalog()

	modules, err := c.ListModules(context.Background())
	require.NoError(t, err)
	require.Len(t, modules, 8)

	assert.Equal(t, "mod-trouver-sa-niche", modules[0].ID)
	assert.Equal(t, "mod-partenariats", modules[len(modules)-1].ID)
}

func TestDefaultQuizzesReferenceExistingModules(t *testing.T) {
	c := NewDefaultCatalog()
	ctx := context.Background()

	for _, q := range DefaultQuizzes() {
		_, err := c.GetModule(ctx, q.ModuleID)
		assert.NoError(t, err, "quiz %s references module %s", q.ID, q.ModuleID)
	}
}
