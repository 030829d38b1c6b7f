package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noopJob struct {
	name string
}

func (j *noopJob) Name() string              { return j.name }
func (j *noopJob) Run(context.Context) error { return nil }

func TestEvery_Schedule(t *testing.T) {
	s := Every(15 * time.Minute)

	at := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, at.Add(15*time.Minute), s.Next(at))
	assert.Equal(t, "@every 15m0s", s.String())
}

func TestRegister_RejectsNilAndDuplicates(t *testing.T) {
	s := New(Config{})

	assert.ErrorIs(t, s.Register(nil, Every(time.Minute)), ErrNilJob)
	assert.ErrorIs(t, s.Register(&noopJob{name: "audit"}, nil), ErrNilSchedule)

	require.NoError(t, s.Register(&noopJob{name: "audit"}, Every(time.Minute)))
	assert.ErrorIs(t, s.Register(&noopJob{name: "audit"}, Every(time.Hour)), ErrJobAlreadyExists)
}

func TestStartStop_Lifecycle(t *testing.T) {
	s := New(Config{})
	require.NoError(t, s.Register(&noopJob{name: "rebuild"}, Every(time.Hour)))

	assert.False(t, s.IsRunning())
	assert.ErrorIs(t, s.Stop(), ErrSchedulerNotRunning)

	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.IsRunning())
	assert.ErrorIs(t, s.Start(context.Background()), ErrSchedulerAlreadyRunning)

	require.NoError(t, s.Stop())
	assert.False(t, s.IsRunning())
}
