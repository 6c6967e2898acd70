package eventbus

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dhvanit-ts/hrms-sub001/pkg/backoff"
	"github.com/dhvanit-ts/hrms-sub001/pkg/logger"
)

// Handler processes a single event. A non-nil error triggers the bus-level
// retry loop for that handler only; sibling handlers are unaffected.
type Handler func(ctx context.Context, evt Event) error

// HandlerError is the internal signal emitted when a handler exhausts its
// retries. It never propagates to the publisher.
type HandlerError struct {
	Event    Event
	Err      error
	Attempts int
}

type subscription struct {
	id         string
	eventType  Type // zero value means "all events"
	handler    Handler
	maxRetries int
	timeout    time.Duration
	priority   int
}

// Bus is the in-process publish/subscribe primitive. Publishing is
// fire-and-forget: failures are logged, retried per handler, and finally
// surfaced through the handler-error callback, never to the publisher.
type Bus struct {
	mu   sync.RWMutex
	subs map[Type][]*subscription
	all  []*subscription

	// stopMu synchronizes Close with in-flight wg.Add calls so the drain
	// WaitGroup never races with late publishes.
	stopMu sync.Mutex
	closed bool
	wg     sync.WaitGroup

	ctx    context.Context
	cancel context.CancelFunc

	strategy       backoff.Strategy
	logger         *slog.Logger
	onHandlerError func(HandlerError)
}

// New creates an event bus. The bus holds no lock beyond the handler
// registry; every publish fans out to independently scheduled executions.
func New(opts ...Option) *Bus {
	ctx, cancel := context.WithCancel(context.Background())
	b := &Bus{
		subs:     make(map[Type][]*subscription),
		ctx:      ctx,
		cancel:   cancel,
		strategy: backoff.Default(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers a handler for a single event type and returns an
// unsubscribe function.
func (b *Bus) Subscribe(t Type, h Handler, opts ...SubscribeOption) func() {
	sub := newSubscription(t, h, opts...)

	b.mu.Lock()
	b.subs[t] = append(b.subs[t], sub)
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.subs[t] = removeSubscription(b.subs[t], sub.id)
	}
}

// SubscribeAll registers a handler that receives every valid event published
// to the bus, regardless of type.
func (b *Bus) SubscribeAll(h Handler, opts ...SubscribeOption) func() {
	sub := newSubscription("", h, opts...)

	b.mu.Lock()
	b.all = append(b.all, sub)
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.all = removeSubscription(b.all, sub.id)
	}
}

// Publish dispatches an event to all matching handlers. It never returns an
// error: invalid events are logged and dropped, handler failures are handled
// by the per-handler retry loop.
func (b *Bus) Publish(ctx context.Context, evt Event) {
	if evt.ID == "" {
		evt.ID = uuid.New().String()
	}
	if evt.CreatedAt.IsZero() {
		evt.CreatedAt = time.Now()
	}

	if err := evt.Validate(); err != nil {
		b.logger.LogAttrs(ctx, slog.LevelWarn, "Dropping invalid event",
			logger.EventType(string(evt.Type)),
			logger.Error(err),
		)
		return
	}

	b.mu.RLock()
	handlers := make([]*subscription, 0, len(b.subs[evt.Type])+len(b.all))
	handlers = append(handlers, b.subs[evt.Type]...)
	handlers = append(handlers, b.all...)
	b.mu.RUnlock()

	sort.SliceStable(handlers, func(i, j int) bool {
		return handlers[i].priority > handlers[j].priority
	})

	for _, sub := range handlers {
		b.stopMu.Lock()
		if b.closed {
			b.stopMu.Unlock()
			b.logger.LogAttrs(ctx, slog.LevelDebug, "Bus closed, dropping event",
				logger.EventID(evt.ID),
				logger.EventType(string(evt.Type)),
			)
			return
		}
		b.wg.Add(1)
		b.stopMu.Unlock()

		go b.runHandler(sub, evt)
	}
}

// runHandler executes one handler with timeout and exponential backoff retry.
func (b *Bus) runHandler(sub *subscription, evt Event) {
	defer b.wg.Done()

	var lastErr error
	for attempt := 1; attempt <= sub.maxRetries+1; attempt++ {
		if attempt > 1 {
			select {
			case <-b.ctx.Done():
				return
			case <-time.After(b.strategy.NextInterval(attempt - 1)):
			}
		}

		lastErr = b.invoke(sub, evt)
		if lastErr == nil {
			return
		}

		b.logger.LogAttrs(b.ctx, slog.LevelWarn, "Event handler failed",
			logger.EventID(evt.ID),
			logger.EventType(string(evt.Type)),
			logger.Attempt(attempt),
			logger.Error(lastErr),
		)
	}

	b.logger.LogAttrs(b.ctx, slog.LevelError, "Event handler exhausted retries",
		logger.EventID(evt.ID),
		logger.EventType(string(evt.Type)),
		logger.Error(lastErr),
	)

	if b.onHandlerError != nil {
		b.onHandlerError(HandlerError{
			Event:    evt,
			Err:      lastErr,
			Attempts: sub.maxRetries + 1,
		})
	}
}

// invoke runs the handler once with its timeout, converting panics to errors
// so a misbehaving handler cannot take down the bus.
func (b *Bus) invoke(sub *subscription, evt Event) error {
	ctx, cancel := context.WithTimeout(b.ctx, sub.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("panic in handler: %v", r)
				}
			}()
			return sub.handler(ctx, evt)
		}()
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("%w after %s", ErrHandlerTimeout, sub.timeout)
	}
}

// Close stops accepting new work and waits for in-flight handler executions
// until ctx expires. The drain is best effort: on timeout, remaining
// executions are cancelled and ErrDrainTimeout returned.
func (b *Bus) Close(ctx context.Context) error {
	b.stopMu.Lock()
	if b.closed {
		b.stopMu.Unlock()
		return nil
	}
	b.closed = true
	b.stopMu.Unlock()

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		b.cancel()
		return nil
	case <-ctx.Done():
		b.cancel()
		return ErrDrainTimeout
	}
}

func newSubscription(t Type, h Handler, opts ...SubscribeOption) *subscription {
	sub := &subscription{
		id:         uuid.New().String(),
		eventType:  t,
		handler:    h,
		maxRetries: 3,
		timeout:    30 * time.Second,
	}
	for _, opt := range opts {
		opt(sub)
	}
	return sub
}

func removeSubscription(subs []*subscription, id string) []*subscription {
	for i, s := range subs {
		if s.id == id {
			return append(subs[:i:i], subs[i+1:]...)
		}
	}
	return subs
}
