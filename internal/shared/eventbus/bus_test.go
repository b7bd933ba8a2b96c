package eventbus

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// DummyEvent implements Event for testing
type DummyEvent struct {
	typeStr   string
	data      interface{}
	timestamp time.Time
	source    string
}

func (e *DummyEvent) Type() string         { return e.typeStr }
func (e *DummyEvent) Data() interface{}    { return e.data }
func (e *DummyEvent) Timestamp() time.Time { return e.timestamp }
func (e *DummyEvent) Source() string       { return e.source }

func TestEventBus_SubscribePublish(t *testing.T) {
	bus := NewEventBus(nil)
	var called bool
	bus.Subscribe(EventTypeFavoriteDeleted, func(ctx context.Context, event Event) error {
		called = true
		assert.Equal(t, EventTypeFavoriteDeleted, event.Type())
		assert.Equal(t, "users/u1/favorites/b3", event.Data())
		return nil
	})
	err := bus.Publish(context.Background(), NewBasicEvent(EventTypeFavoriteDeleted, "users/u1/favorites/b3"))
	assert.NoError(t, err)
	assert.True(t, called)
}

func TestEventBus_PublishWithoutSubscribers(t *testing.T) {
	bus := NewEventBus(nil)
	assert.NoError(t, bus.Publish(context.Background(), &DummyEvent{typeStr: "nobody"}))
}

func TestEventBus_AllHandlersRunWhenOneFails(t *testing.T) {
	bus := NewEventBus(nil)
	boom := errors.New("boom")
	var second bool
	bus.Subscribe("ev", func(ctx context.Context, event Event) error { return boom })
	bus.Subscribe("ev", func(ctx context.Context, event Event) error {
		second = true
		return nil
	})

	err := bus.Publish(context.Background(), &DummyEvent{typeStr: "ev"})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.True(t, second)
}

func TestEventBus_Retries(t *testing.T) {
	bus := NewEventBusWithConfig(nil, BusConfig{MaxRetries: 2, RetryDelay: time.Millisecond})
	var attempts int32
	bus.Subscribe("flaky", func(ctx context.Context, event Event) error {
		if atomic.AddInt32(&attempts, 1) < 3 {
			return errors.New("not yet")
		}
		return nil
	})

	assert.NoError(t, bus.Publish(context.Background(), &DummyEvent{typeStr: "flaky"}))
	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
}

func TestEventBus_RetriesExhausted(t *testing.T) {
	bus := NewEventBusWithConfig(nil, BusConfig{MaxRetries: 1, RetryDelay: time.Millisecond})
	boom := errors.New("redis down")
	var attempts int32
	bus.Subscribe("ev", func(ctx context.Context, event Event) error {
		atomic.AddInt32(&attempts, 1)
		return boom
	})

	err := bus.Publish(context.Background(), &DummyEvent{typeStr: "ev"})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, int32(2), atomic.LoadInt32(&attempts))
}

func TestEventBus_RetryStopsOnCancelledContext(t *testing.T) {
	bus := NewEventBusWithConfig(nil, BusConfig{MaxRetries: 3, RetryDelay: time.Hour})
	bus.Subscribe("ev", func(ctx context.Context, event Event) error { return errors.New("fail") })
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, bus.Publish(ctx, &DummyEvent{typeStr: "ev"}), context.Canceled)
}

func TestEventBus_Unsubscribe(t *testing.T) {
	bus := NewEventBus(nil)
	bus.Subscribe("ev", func(ctx context.Context, event Event) error { return nil })
	assert.Equal(t, 1, bus.GetSubscriberCount("ev"))
	bus.Unsubscribe("ev")
	assert.Equal(t, 0, bus.GetSubscriberCount("ev"))
}

func TestBasicEvent(t *testing.T) {
	ev := NewBasicEventWithSource(EventTypeReconciliationCompleted, 42, "reconcile")
	assert.Equal(t, EventTypeReconciliationCompleted, ev.Type())
	assert.Equal(t, 42, ev.Data())
	assert.Equal(t, "reconcile", ev.Source())
	assert.False(t, ev.Timestamp().IsZero())
	assert.Equal(t, "unknown", NewBasicEvent("x", nil).Source())
}
