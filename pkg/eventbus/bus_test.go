package eventbus_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhvanit-ts/hrms-sub001/pkg/backoff"
	"github.com/dhvanit-ts/hrms-sub001/pkg/eventbus"
)

func mustEvent(t *testing.T) eventbus.Event {
	t.Helper()
	evt, err := eventbus.NewPostUpvoted("post-1", "author-1", "voter-1", "Sam Green")
	require.NoError(t, err)
	return evt
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	require.Fail(t, msg)
}

func TestBus_PublishAndSubscribe(t *testing.T) {
	t.Parallel()

	bus := eventbus.New()
	defer bus.Close(context.Background())

	var typed, wildcard atomic.Int32
	bus.Subscribe(eventbus.TypePostUpvoted, func(ctx context.Context, evt eventbus.Event) error {
		typed.Add(1)
		return nil
	})
	bus.SubscribeAll(func(ctx context.Context, evt eventbus.Event) error {
		wildcard.Add(1)
		return nil
	})

	bus.Publish(context.Background(), mustEvent(t))

	waitFor(t, func() bool { return typed.Load() == 1 && wildcard.Load() == 1 }, "handlers not invoked")
}

func TestBus_DropsInvalidEvent(t *testing.T) {
	t.Parallel()

	bus := eventbus.New()
	defer bus.Close(context.Background())

	var calls atomic.Int32
	bus.SubscribeAll(func(ctx context.Context, evt eventbus.Event) error {
		calls.Add(1)
		return nil
	})

	// Missing target fields: rejected at the bus boundary, never dispatched.
	bus.Publish(context.Background(), eventbus.Event{Type: eventbus.TypePostUpvoted})

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(0), calls.Load())
}

func TestBus_RetriesFailedHandler(t *testing.T) {
	t.Parallel()

	bus := eventbus.New(eventbus.WithBackoff(backoff.Fixed{Interval: time.Millisecond}))
	defer bus.Close(context.Background())

	var attempts atomic.Int32
	bus.Subscribe(eventbus.TypePostUpvoted, func(ctx context.Context, evt eventbus.Event) error {
		if attempts.Add(1) < 3 {
			return errors.New("transient")
		}
		return nil
	}, eventbus.WithMaxRetries(3))

	bus.Publish(context.Background(), mustEvent(t))

	waitFor(t, func() bool { return attempts.Load() == 3 }, "handler not retried to success")
}

func TestBus_HandlerErrorAfterExhaustion(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var captured []eventbus.HandlerError

	bus := eventbus.New(
		eventbus.WithBackoff(backoff.Fixed{Interval: time.Millisecond}),
		eventbus.WithHandlerErrorCallback(func(he eventbus.HandlerError) {
			mu.Lock()
			captured = append(captured, he)
			mu.Unlock()
		}),
	)
	defer bus.Close(context.Background())

	var attempts atomic.Int32
	bus.Subscribe(eventbus.TypePostUpvoted, func(ctx context.Context, evt eventbus.Event) error {
		attempts.Add(1)
		return errors.New("permanent")
	}, eventbus.WithMaxRetries(2))

	evt := mustEvent(t)
	bus.Publish(context.Background(), evt)

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(captured) == 1
	}, "handler-error signal not emitted")

	assert.Equal(t, int32(3), attempts.Load())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, evt.ID, captured[0].Event.ID)
	assert.Equal(t, 3, captured[0].Attempts)
	assert.ErrorContains(t, captured[0].Err, "permanent")
}

func TestBus_SlowHandlerDoesNotBlockSiblings(t *testing.T) {
	t.Parallel()

	bus := eventbus.New()
	defer bus.Close(context.Background())

	release := make(chan struct{})
	var fast atomic.Int32

	bus.Subscribe(eventbus.TypePostUpvoted, func(ctx context.Context, evt eventbus.Event) error {
		<-release
		return nil
	}, eventbus.WithPriority(10))
	bus.Subscribe(eventbus.TypePostUpvoted, func(ctx context.Context, evt eventbus.Event) error {
		fast.Add(1)
		return nil
	})

	bus.Publish(context.Background(), mustEvent(t))

	waitFor(t, func() bool { return fast.Load() == 1 }, "sibling handler blocked by slow handler")
	close(release)
}

func TestBus_HandlerTimeout(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var captured []eventbus.HandlerError

	bus := eventbus.New(
		eventbus.WithBackoff(backoff.Fixed{Interval: time.Millisecond}),
		eventbus.WithHandlerErrorCallback(func(he eventbus.HandlerError) {
			mu.Lock()
			captured = append(captured, he)
			mu.Unlock()
		}),
	)
	defer bus.Close(context.Background())

	bus.Subscribe(eventbus.TypePostUpvoted, func(ctx context.Context, evt eventbus.Event) error {
		<-ctx.Done()
		return ctx.Err()
	}, eventbus.WithTimeout(10*time.Millisecond), eventbus.WithMaxRetries(0))

	bus.Publish(context.Background(), mustEvent(t))

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(captured) == 1
	}, "timeout not surfaced as handler error")

	mu.Lock()
	defer mu.Unlock()
	assert.ErrorIs(t, captured[0].Err, eventbus.ErrHandlerTimeout)
}

func TestBus_PanicIsRecovered(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var captured []eventbus.HandlerError

	bus := eventbus.New(
		eventbus.WithBackoff(backoff.Fixed{Interval: time.Millisecond}),
		eventbus.WithHandlerErrorCallback(func(he eventbus.HandlerError) {
			mu.Lock()
			captured = append(captured, he)
			mu.Unlock()
		}),
	)
	defer bus.Close(context.Background())

	bus.Subscribe(eventbus.TypePostUpvoted, func(ctx context.Context, evt eventbus.Event) error {
		panic("boom")
	}, eventbus.WithMaxRetries(0))

	var healthy atomic.Int32
	bus.Subscribe(eventbus.TypePostUpvoted, func(ctx context.Context, evt eventbus.Event) error {
		healthy.Add(1)
		return nil
	})

	bus.Publish(context.Background(), mustEvent(t))

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(captured) == 1
	}, "panic not converted to handler error")

	mu.Lock()
	assert.ErrorContains(t, captured[0].Err, "panic in handler")
	mu.Unlock()

	bus.Publish(context.Background(), mustEvent(t))
	waitFor(t, func() bool { return healthy.Load() == 2 }, "bus stopped dispatching after panic")
}

func TestBus_Unsubscribe(t *testing.T) {
	t.Parallel()

	bus := eventbus.New()
	defer bus.Close(context.Background())

	var calls atomic.Int32
	unsubscribe := bus.Subscribe(eventbus.TypePostUpvoted, func(ctx context.Context, evt eventbus.Event) error {
		calls.Add(1)
		return nil
	})

	bus.Publish(context.Background(), mustEvent(t))
	waitFor(t, func() bool { return calls.Load() == 1 }, "handler not invoked before unsubscribe")

	unsubscribe()
	bus.Publish(context.Background(), mustEvent(t))

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
}

func TestBus_CloseDrainsInflight(t *testing.T) {
	t.Parallel()

	bus := eventbus.New()

	var finished atomic.Bool
	bus.Subscribe(eventbus.TypePostUpvoted, func(ctx context.Context, evt eventbus.Event) error {
		time.Sleep(50 * time.Millisecond)
		finished.Store(true)
		return nil
	})

	bus.Publish(context.Background(), mustEvent(t))
	time.Sleep(10 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, bus.Close(ctx))
	assert.True(t, finished.Load())
}

func TestBus_CloseTimeoutProceedsAnyway(t *testing.T) {
	t.Parallel()

	bus := eventbus.New()

	block := make(chan struct{})
	defer close(block)
	bus.Subscribe(eventbus.TypePostUpvoted, func(ctx context.Context, evt eventbus.Event) error {
		<-block
		return nil
	})

	bus.Publish(context.Background(), mustEvent(t))
	time.Sleep(10 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, bus.Close(ctx), eventbus.ErrDrainTimeout)
}

func TestBus_PublishAfterCloseIsNoop(t *testing.T) {
	t.Parallel()

	bus := eventbus.New()

	var calls atomic.Int32
	bus.SubscribeAll(func(ctx context.Context, evt eventbus.Event) error {
		calls.Add(1)
		return nil
	})

	require.NoError(t, bus.Close(context.Background()))
	bus.Publish(context.Background(), mustEvent(t))

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(0), calls.Load())
}
