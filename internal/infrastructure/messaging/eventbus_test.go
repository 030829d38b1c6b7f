package messaging

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crealearn/crealearn-backend/internal/domain/shared"
)

func newSyncBus() *InMemoryEventBus {
	return NewInMemoryEventBus(Config{AsyncMode: false})
}

func TestPublish_RoutesToSubscribedType(t *testing.T) {
	bus := newSyncBus()
	defer bus.Close()

	var received []shared.Event
	err := bus.Subscribe(shared.EventXPGained, func(e shared.Event) error {
		received = append(received, e)
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, bus.Publish(shared.NewXPGainedEvent("learner-1", 50, 50, "quiz_passed", "quiz-niche")))
	require.NoError(t, bus.Publish(shared.NewBadgeAwardedEvent("learner-1", "premier-pas", "Premier Pas")))

	// Only the subscribed type arrives.
	require.Len(t, received, 1)
	assert.Equal(t, shared.EventXPGained, received[0].EventType())
	assert.Equal(t, "learner-1", received[0].AggregateID())
}

func TestSubscribeAll_ReceivesEveryType(t *testing.T) {
	bus := newSyncBus()
	defer bus.Close()

	count := 0
	require.NoError(t, bus.SubscribeAll(func(e shared.Event) error {
		count++
		return nil
	}))

	require.NoError(t, bus.Publish(shared.NewXPGainedEvent("l", 10, 10, "daily_challenge", "")))
	require.NoError(t, bus.Publish(shared.NewLevelUpEvent("l", 1, 2, 100)))
	assert.Equal(t, 2, count)
}

func TestPublish_HandlerFailureDoesNotPropagate(t *testing.T) {
	bus := newSyncBus()
	defer bus.Close()

	require.NoError(t, bus.Subscribe(shared.EventXPGained, func(shared.Event) error {
		return errors.New("side effect broke")
	}))

	called := false
	require.NoError(t, bus.Subscribe(shared.EventXPGained, func(shared.Event) error {
		called = true
		return nil
	}))

	err := bus.Publish(shared.NewXPGainedEvent("l", 10, 10, "quiz_passed", ""))
	assert.NoError(t, err)
	assert.True(t, called, "later handlers still run after a failure")
}

func TestPublish_AsyncDeliversBeforeClose(t *testing.T) {
	bus := NewInMemoryEventBus(Config{AsyncMode: true, WorkerPoolSize: 4})

	var mu sync.Mutex
	count := 0
	require.NoError(t, bus.SubscribeAll(func(shared.Event) error {
		mu.Lock()
		count++
		mu.Unlock()
		return nil
	}))

	for i := 0; i < 20; i++ {
		require.NoError(t, bus.Publish(shared.NewXPGainedEvent("l", 1, i+1, "simulation_used", "")))
	}

	// Close waits for in-flight handlers.
	require.NoError(t, bus.Close())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 20, count)
}

func TestClosedBusRejectsOperations(t *testing.T) {
	bus := newSyncBus()
	require.NoError(t, bus.Close())

	err := bus.Publish(shared.NewXPGainedEvent("l", 1, 1, "quiz_passed", ""))
	assert.ErrorIs(t, err, ErrEventBusClosed)

	err = bus.Subscribe(shared.EventXPGained, func(shared.Event) error { return nil })
	assert.ErrorIs(t, err, ErrEventBusClosed)

	// Double close is a no-op.
	assert.NoError(t, bus.Close())
}

func TestSubscribe_NilHandler(t *testing.T) {
	bus := newSyncBus()
	defer bus.Close()

	assert.ErrorIs(t, bus.Subscribe(shared.EventXPGained, nil), ErrNilHandler)
	assert.ErrorIs(t, bus.SubscribeAll(nil), ErrNilHandler)
}

func TestPublish_NilEvent(t *testing.T) {
	bus := newSyncBus()
	defer bus.Close()

	assert.ErrorIs(t, bus.Publish(nil), ErrNilEvent)
}
