package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/crealearn/crealearn-backend/internal/domain/shared"
)

func TestRegisterLearner(t *testing.T) {
	repo := newFakeLearnerRepo()
	events := &eventRecorder{}
	h := NewRegisterLearnerHandler(repo, events, nil)

	result, err := h.Handle(context.Background(), RegisterLearnerCommand{
		Email:       "Camille@Exemple.FR",
		Password:    "motdepasse",
		DisplayName: "Camille",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, result.LearnerID)
	assert.Equal(t, "camille@exemple.fr", result.Email)
	assert.Equal(t, 1, result.Level)
	assert.Zero(t, result.XP)

	stored, err := repo.GetByID(context.Background(), result.LearnerID)
	require.NoError(t, err)

	// The password is stored hashed, never as-is.
	assert.NotEqual(t, "motdepasse", stored.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("motdepasse")))

	assert.Len(t, events.ofType(shared.EventLearnerRegistered), 1)
}

func TestRegisterLearner_DuplicateEmail(t *testing.T) {
	repo := newFakeLearnerRepo()
	h := NewRegisterLearnerHandler(repo, &eventRecorder{}, nil)

	cmd := RegisterLearnerCommand{
		Email:       "camille@exemple.fr",
		Password:    "motdepasse",
		DisplayName: "Camille",
	}

	_, err := h.Handle(context.Background(), cmd)
	require.NoError(t, err)

	_, err = h.Handle(context.Background(), cmd)
	assert.True(t, shared.IsAlreadyExists(err))
}

func TestRegisterLearner_Validation(t *testing.T) {
	h := NewRegisterLearnerHandler(newFakeLearnerRepo(), &eventRecorder{}, nil)

	_, err := h.Handle(context.Background(), RegisterLearnerCommand{
		Password: "motdepasse", DisplayName: "Camille",
	})
	assert.Error(t, err)

	_, err = h.Handle(context.Background(), RegisterLearnerCommand{
		Email: "camille@exemple.fr", Password: "court", DisplayName: "Camille",
	})
	assert.Error(t, err)

	_, err = h.Handle(context.Background(), RegisterLearnerCommand{
		Email: "camille@exemple.fr", Password: "motdepasse",
	})
	assert.Error(t, err)
}
