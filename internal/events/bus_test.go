package events

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/angelmondragon/cartengine/pkg/enums"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func TestPublishDeliversToAllHandlersDespiteFailures(t *testing.T) {
	bus := NewBus(nil)
	var delivered atomic.Int32

	ok := HandlerFunc(func(ctx context.Context, event Event) error {
		delivered.Add(1)
		return nil
	})
	failing := HandlerFunc(func(ctx context.Context, event Event) error {
		delivered.Add(1)
		return errors.New("analytics down")
	})
	panicking := HandlerFunc(func(ctx context.Context, event Event) error {
		delivered.Add(1)
		panic("boom")
	})

	require.NoError(t, bus.Subscribe(enums.CartEventItemAdded, ok))
	require.NoError(t, bus.Subscribe(enums.CartEventItemAdded, failing))
	require.NoError(t, bus.Subscribe(enums.CartEventItemAdded, panicking))
	require.NoError(t, bus.Subscribe(enums.CartEventItemAdded, ok))

	err := bus.Publish(context.Background(), New(enums.CartEventItemAdded, "u1", time.Now(), ItemAdded{ProductID: 1, Quantity: 1}))

	require.Error(t, err)
	assert.Equal(t, int32(4), delivered.Load())
	assert.Len(t, multierr.Errors(err), 2)
	assert.Contains(t, err.Error(), "analytics down")
	assert.Contains(t, err.Error(), "handler panic")
}

func TestPublishRunsHandlersConcurrentlyAndJoins(t *testing.T) {
	bus := NewBus(nil)
	const n = 3
	var started sync.WaitGroup
	started.Add(n)
	release := make(chan struct{})
	var finished atomic.Int32

	for i := 0; i < n; i++ {
		require.NoError(t, bus.Subscribe(enums.CartEventCartCleared, HandlerFunc(func(ctx context.Context, event Event) error {
			started.Done()
			<-release
			finished.Add(1)
			return nil
		})))
	}

	done := make(chan error, 1)
	go func() {
		done <- bus.Publish(context.Background(), New(enums.CartEventCartCleared, "u1", time.Now(), CartCleared{}))
	}()

	// every handler must be running at once before any is released
	started.Wait()
	select {
	case <-done:
		t.Fatal("publish returned before handlers finished")
	default:
	}
	close(release)

	require.NoError(t, <-done)
	assert.Equal(t, int32(n), finished.Load())
}

func TestPublishOnlyReachesMatchingType(t *testing.T) {
	bus := NewBus(nil)
	var calls atomic.Int32
	require.NoError(t, bus.Subscribe(enums.CartEventCartExpired, HandlerFunc(func(ctx context.Context, event Event) error {
		calls.Add(1)
		return nil
	})))

	require.NoError(t, bus.Publish(context.Background(), New(enums.CartEventItemAdded, "u1", time.Now(), nil)))
	assert.Equal(t, int32(0), calls.Load())

	require.NoError(t, bus.Publish(context.Background(), New(enums.CartEventCartExpired, "u1", time.Now(), CartExpired{})))
	assert.Equal(t, int32(1), calls.Load())
}

func TestSubscribeValidation(t *testing.T) {
	bus := NewBus(nil)
	assert.Error(t, bus.Subscribe("bogus", HandlerFunc(func(context.Context, Event) error { return nil })))
	assert.Error(t, bus.Subscribe(enums.CartEventItemAdded, nil))

	require.NoError(t, bus.SubscribeAll(HandlerFunc(func(context.Context, Event) error { return nil })))
	for _, eventType := range enums.CartEventTypes() {
		assert.Equal(t, 1, bus.HandlerCount(eventType), "event %s", eventType)
	}
}

func TestNewEventAssignsIdentity(t *testing.T) {
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.FixedZone("x", 3600))
	a := New(enums.CartEventCartShared, "u1", at, CartShared{Token: "t"})
	b := New(enums.CartEventCartShared, "u1", at, CartShared{Token: "t"})

	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, time.UTC, a.OccurredAt.Location())
	assert.True(t, a.OccurredAt.Equal(at))
}
