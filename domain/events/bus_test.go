package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_EmitDispatchesToSubscribers(t *testing.T) {
	bus := NewBus()

	var wg sync.WaitGroup
	wg.Add(2)

	var mu sync.Mutex
	var received []int64

	handler := func(ctx context.Context, event Event) {
		defer wg.Done()
		e, ok := event.(UserCreatedEvent)
		if !ok {
			return
		}
		mu.Lock()
		received = append(received, e.UserID)
		mu.Unlock()
	}

	bus.Subscribe(EventTypeUserCreated, handler)
	bus.Subscribe(EventTypeUserCreated, handler)

	bus.Emit(context.Background(), UserCreatedEvent{UserID: 42, Username: "alice", InitialBalance: 1000})
	wg.Wait()

	assert.Equal(t, []int64{42, 42}, received)
}

func TestBus_EmitIgnoresUnrelatedTypes(t *testing.T) {
	bus := NewBus()

	called := make(chan struct{}, 1)
	bus.Subscribe(EventTypeBetCreated, func(ctx context.Context, event Event) {
		called <- struct{}{}
	})

	bus.Emit(context.Background(), UserCreatedEvent{UserID: 1})

	select {
	case <-called:
		t.Fatal("handler for a different event type should not run")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBus_HandlerPanicDoesNotAffectOthers(t *testing.T) {
	bus := NewBus()

	done := make(chan struct{})
	bus.Subscribe(EventTypeUserCreated, func(ctx context.Context, event Event) {
		panic("boom")
	})
	bus.Subscribe(EventTypeUserCreated, func(ctx context.Context, event Event) {
		close(done)
	})

	bus.Emit(context.Background(), UserCreatedEvent{UserID: 1})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("surviving handler was never called")
	}
}

func TestTransactionalBus(t *testing.T) {
	t.Run("publish buffers until flush", func(t *testing.T) {
		real := NewBus()
		txBus := NewTransactionalBus(real)

		events := make(chan Event, 2)
		real.Subscribe(EventTypeUserCreated, func(ctx context.Context, event Event) {
			events <- event
		})

		require.NoError(t, txBus.Publish(UserCreatedEvent{UserID: 7}))

		select {
		case <-events:
			t.Fatal("event emitted before flush")
		case <-time.After(50 * time.Millisecond):
		}

		require.NoError(t, txBus.Flush(context.Background()))

		select {
		case event := <-events:
			assert.Equal(t, int64(7), event.(UserCreatedEvent).UserID)
		case <-time.After(time.Second):
			t.Fatal("event not emitted after flush")
		}
	})

	t.Run("discard drops pending events", func(t *testing.T) {
		real := NewBus()
		txBus := NewTransactionalBus(real)

		events := make(chan Event, 1)
		real.Subscribe(EventTypeUserCreated, func(ctx context.Context, event Event) {
			events <- event
		})

		require.NoError(t, txBus.Publish(UserCreatedEvent{UserID: 9}))
		txBus.Discard()
		require.NoError(t, txBus.Flush(context.Background()))

		select {
		case <-events:
			t.Fatal("discarded event was emitted")
		case <-time.After(50 * time.Millisecond):
		}
	})

	t.Run("flush clears the queue", func(t *testing.T) {
		real := NewBus()
		txBus := NewTransactionalBus(real)

		var count int32
		var mu sync.Mutex
		done := make(chan struct{}, 2)
		real.Subscribe(EventTypeUserCreated, func(ctx context.Context, event Event) {
			mu.Lock()
			count++
			mu.Unlock()
			done <- struct{}{}
		})

		require.NoError(t, txBus.Publish(UserCreatedEvent{UserID: 1}))
		require.NoError(t, txBus.Flush(context.Background()))
		<-done

		// A second flush must not re-emit
		require.NoError(t, txBus.Flush(context.Background()))

		select {
		case <-done:
			t.Fatal("flushed event emitted twice")
		case <-time.After(50 * time.Millisecond):
		}

		mu.Lock()
		assert.Equal(t, int32(1), count)
		mu.Unlock()
	})
}
