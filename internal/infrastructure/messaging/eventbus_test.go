package messaging

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guildhub/guild-xp-hub/internal/domain/shared"
)

func syncBus() *InMemoryEventBus {
	cfg := DefaultInMemoryEventBusConfig()
	cfg.AsyncMode = false
	cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewInMemoryEventBus(cfg)
}

func TestEventBus_RoutesByType(t *testing.T) {
	bus := syncBus()
	defer bus.Close()

	var levelUps, gains int

	require.NoError(t, bus.Subscribe(shared.EventLevelUp, func(shared.Event) error {
		levelUps++
		return nil
	}))
	require.NoError(t, bus.Subscribe(shared.EventXPGained, func(shared.Event) error {
		gains++
		return nil
	}))

	require.NoError(t, bus.Publish(shared.NewLevelUpEvent(1, 10, 2, 350, 555)))
	require.NoError(t, bus.Publish(shared.NewXPGainedEvent(1, 10, 25, 375, "message")))
	require.NoError(t, bus.Publish(shared.NewXPGainedEvent(1, 10, 25, 400, "message")))

	assert.Equal(t, 1, levelUps)
	assert.Equal(t, 2, gains)
}

func TestEventBus_SubscribeAllSeesEverything(t *testing.T) {
	bus := syncBus()
	defer bus.Close()

	var all int
	require.NoError(t, bus.SubscribeAll(func(shared.Event) error {
		all++
		return nil
	}))

	require.NoError(t, bus.Publish(shared.NewLevelUpEvent(1, 10, 2, 350, 555)))
	require.NoError(t, bus.Publish(shared.NewXPGainedEvent(1, 10, 25, 375, "message")))

	assert.Equal(t, 2, all)
}

func TestEventBus_HandlerErrorDoesNotFailPublish(t *testing.T) {
	bus := syncBus()
	defer bus.Close()

	var second bool
	require.NoError(t, bus.Subscribe(shared.EventLevelUp, func(shared.Event) error {
		return errors.New("boom")
	}))
	require.NoError(t, bus.Subscribe(shared.EventLevelUp, func(shared.Event) error {
		second = true
		return nil
	}))

	assert.NoError(t, bus.Publish(shared.NewLevelUpEvent(1, 10, 2, 350, 555)))
	assert.True(t, second)

	snap := bus.Metrics().Snapshot()
	assert.Equal(t, int64(2), snap.TotalHandlerExecs)
	assert.InDelta(t, 0.5, snap.HandlerSuccessRate, 0.01)
}

func TestEventBus_AsyncDeliversBeforeClose(t *testing.T) {
	cfg := DefaultInMemoryEventBusConfig()
	cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	bus := NewInMemoryEventBus(cfg)

	var mu sync.Mutex
	var delivered int

	require.NoError(t, bus.Subscribe(shared.EventXPGained, func(shared.Event) error {
		mu.Lock()
		delivered++
		mu.Unlock()
		return nil
	}))

	for i := 0; i < 20; i++ {
		require.NoError(t, bus.Publish(shared.NewXPGainedEvent(1, 10, 25, int64(25*(i+1)), "message")))
	}

	// Close waits for the worker pool to drain.
	require.NoError(t, bus.Close())
	assert.Equal(t, 20, delivered)
}

func TestEventBus_ClosedBusRejectsOperations(t *testing.T) {
	bus := syncBus()
	require.NoError(t, bus.Close())

	assert.ErrorIs(t, bus.Publish(shared.NewLevelUpEvent(1, 10, 2, 350, 555)), ErrEventBusClosed)
	assert.ErrorIs(t, bus.Subscribe(shared.EventLevelUp, func(shared.Event) error { return nil }), ErrEventBusClosed)
}
