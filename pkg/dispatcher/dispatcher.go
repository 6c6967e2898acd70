package dispatcher

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dhvanit-ts/hrms-sub001/pkg/backoff"
	"github.com/dhvanit-ts/hrms-sub001/pkg/eventbus"
	"github.com/dhvanit-ts/hrms-sub001/pkg/logger"
	"github.com/dhvanit-ts/hrms-sub001/pkg/notifications"
)

// Bus is the event bus surface the dispatcher consumes. Satisfied by
// *eventbus.Bus.
type Bus interface {
	Subscribe(t eventbus.Type, h eventbus.Handler, opts ...eventbus.SubscribeOption) func()
	SubscribeAll(h eventbus.Handler, opts ...eventbus.SubscribeOption) func()
	Publish(ctx context.Context, evt eventbus.Event)
}

// Processor turns an event into stored notifications. Satisfied by
// *notifications.Processor.
type Processor interface {
	Process(ctx context.Context, evt eventbus.Event) (notifications.Result, error)
}

// Deliverer pushes a stored notification to the receiver's live sessions.
// Satisfied by *delivery.Service.
type Deliverer interface {
	Deliver(ctx context.Context, receiverType, receiverID, notificationID string) error
}

// Dispatcher is the single subscriber between the bus and the rest of the
// pipeline. It gates processing behind a circuit breaker, retries failures
// with backoff from its own scheduler loop, diverts events into a bounded
// queue while the breaker is open, and dead-letters events that exhaust
// their retries. Delivery failures are retried on an independent track.
type Dispatcher struct {
	bus       Bus
	processor Processor
	deliverer Deliverer
	breaker   *Breaker
	strategy  backoff.Strategy
	log       *slog.Logger

	maxRetries      int
	processTimeout  time.Duration
	deliveryTimeout time.Duration
	tick            time.Duration

	queue *degradationQueue

	mu               sync.Mutex
	failedEvents     map[string]*failedEvent
	failedDeliveries map[string]*failedDelivery

	deadLettered atomic.Int64

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	startOnce   sync.Once
	stopOnce    sync.Once
	started     bool
	unsubscribe []func()
}

// New creates a dispatcher wired to the given bus, processor, and deliverer.
// Call Start to subscribe and begin the retry scheduler.
func New(bus Bus, processor Processor, deliverer Deliverer, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		bus:              bus,
		processor:        processor,
		deliverer:        deliverer,
		breaker:          NewBreaker(0, 0, 0),
		strategy:         backoff.Default(),
		log:              slog.Default(),
		maxRetries:       3,
		processTimeout:   30 * time.Second,
		deliveryTimeout:  10 * time.Second,
		tick:             500 * time.Millisecond,
		queue:            newDegradationQueue(0),
		failedEvents:     make(map[string]*failedEvent),
		failedDeliveries: make(map[string]*failedDelivery),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Start subscribes to the bus and launches the retry scheduler. The
// dispatcher owns its retries end to end, so both subscriptions disable
// bus-level retries.
func (d *Dispatcher) Start(ctx context.Context) error {
	startedNow := false
	d.startOnce.Do(func() {
		startedNow = true

		d.ctx, d.cancel = context.WithCancel(context.WithoutCancel(ctx))
		d.started = true

		d.unsubscribe = append(d.unsubscribe,
			d.bus.SubscribeAll(d.handleEvent,
				eventbus.WithMaxRetries(0),
				eventbus.WithTimeout(d.processTimeout+time.Second)),
			d.bus.Subscribe(eventbus.TypeNotificationCreated, d.handleNotificationCreated,
				eventbus.WithMaxRetries(0),
				eventbus.WithTimeout(d.deliveryTimeout+time.Second)),
		)

		d.wg.Add(1)
		go d.run()
	})

	if !startedNow {
		return ErrAlreadyStarted
	}
	return nil
}

// Close unsubscribes from the bus, stops the scheduler, and waits for it up
// to the context deadline. Pending retry state is discarded.
func (d *Dispatcher) Close(ctx context.Context) error {
	if !d.started {
		return nil
	}

	var err error
	d.stopOnce.Do(func() {
		for _, unsub := range d.unsubscribe {
			unsub()
		}
		d.cancel()

		done := make(chan struct{})
		go func() {
			d.wg.Wait()
			close(done)
		}()

		select {
		case <-done:
		case <-ctx.Done():
			err = ErrShutdownTimeout
		}
	})
	return err
}

// handleEvent is the processing path for every published event. It never
// returns an error to the bus: failures are absorbed into the dispatcher's
// own retry bookkeeping.
func (d *Dispatcher) handleEvent(ctx context.Context, evt eventbus.Event) error {
	switch evt.Type {
	case eventbus.TypeNotificationCreated, eventbus.TypeEventDeadLettered:
		// Internal pipeline events; the delivery subscription and the
		// dead-letter log own these.
		return nil
	}

	d.dispatchEvent(ctx, evt)
	return nil
}

// dispatchEvent runs one processing attempt for a fresh or replayed event,
// respecting the breaker.
func (d *Dispatcher) dispatchEvent(ctx context.Context, evt eventbus.Event) {
	if !d.breaker.Allow() {
		d.enqueue(ctx, evt)
		return
	}

	err := d.processOnce(ctx, evt)
	if err == nil {
		d.breaker.RecordSuccess()
		return
	}

	if isBackpressure(err) {
		// The processor is saturated or already working on this event.
		// Retry later without charging the breaker; the downstream is
		// busy, not broken.
		d.scheduleEventRetry(evt, err)
		return
	}

	d.breaker.RecordFailure()

	if d.maxRetries == 0 {
		d.deadLetter(evt, 0, err)
		return
	}

	d.scheduleEventRetry(evt, err)
	d.log.WarnContext(ctx, "event processing failed, scheduled for retry",
		logger.Error(err),
		logger.EventID(evt.ID),
		logger.EventType(string(evt.Type)))
}

func (d *Dispatcher) processOnce(ctx context.Context, evt eventbus.Event) error {
	ctx, cancel := context.WithTimeout(ctx, d.processTimeout)
	defer cancel()

	_, err := d.processor.Process(ctx, evt)
	return err
}

func (d *Dispatcher) enqueue(ctx context.Context, evt eventbus.Event) {
	dropped, evicted := d.queue.push(evt)
	d.log.WarnContext(ctx, "circuit open, event queued for replay",
		logger.EventID(evt.ID),
		logger.EventType(string(evt.Type)))
	if evicted {
		d.log.ErrorContext(ctx, "degradation queue full, dropped oldest event",
			logger.EventID(dropped.ID),
			logger.EventType(string(dropped.Type)))
	}
}

// handleNotificationCreated is the delivery path.
func (d *Dispatcher) handleNotificationCreated(ctx context.Context, evt eventbus.Event) error {
	notifID := evt.MetaString(eventbus.MetaNotificationID)
	receiverID := evt.MetaString(eventbus.MetaReceiverID)
	receiverType := evt.MetaString(eventbus.MetaReceiverType)
	if notifID == "" || receiverID == "" || receiverType == "" {
		d.log.WarnContext(ctx, "notification created event missing receiver metadata",
			logger.EventID(evt.ID))
		return nil
	}

	if err := d.deliverOnce(ctx, receiverType, receiverID, notifID); err != nil {
		d.scheduleDeliveryRetry(receiverType, receiverID, notifID, err)
		d.log.WarnContext(ctx, "delivery failed, scheduled for retry",
			logger.Error(err),
			logger.NotificationID(notifID),
			logger.ReceiverID(receiverID),
			logger.ReceiverType(receiverType))
	}
	return nil
}

func (d *Dispatcher) deliverOnce(ctx context.Context, receiverType, receiverID, notifID string) error {
	ctx, cancel := context.WithTimeout(ctx, d.deliveryTimeout)
	defer cancel()

	return d.deliverer.Deliver(ctx, receiverType, receiverID, notifID)
}

// run is the scheduler loop: one ticker drives queue replay and both retry
// tracks, so there are no per-retry timers to leak.
func (d *Dispatcher) run() {
	defer d.wg.Done()

	ticker := time.NewTicker(d.tick)
	defer ticker.Stop()

	for {
		select {
		case <-d.ctx.Done():
			return
		case <-ticker.C:
			d.replayQueue()
			d.retryDueEvents()
			d.retryDueDeliveries()
		}
	}
}

// replayQueue feeds queued events back through the processing path in FIFO
// order once the breaker leaves the open state. In half-open the first
// replayed event is the trial pass; a breaker that reopens mid-replay
// re-queues the event instead of looping.
func (d *Dispatcher) replayQueue() {
	for i := d.queue.len(); i > 0; i-- {
		if d.breaker.State() == StateOpen {
			return
		}
		evt, ok := d.queue.pop()
		if !ok {
			return
		}
		d.log.InfoContext(d.ctx, "replaying queued event",
			logger.EventID(evt.ID),
			logger.EventType(string(evt.Type)))
		d.dispatchEvent(d.ctx, evt)
	}
}

func (d *Dispatcher) retryDueEvents() {
	now := time.Now()
	for _, due := range d.dueEventRetries(now) {
		if !d.breaker.Allow() {
			// The attempt never ran; give it back and let the next tick
			// pick the entry up once the breaker allows work through.
			d.deferEventRetry(due.event.ID)
			continue
		}

		err := d.processOnce(d.ctx, due.event)
		if err == nil {
			d.breaker.RecordSuccess()
			d.removeFailedEvent(due.event.ID)
			d.log.InfoContext(d.ctx, "event retry succeeded",
				logger.EventID(due.event.ID),
				logger.Attempt(due.attempt))
			continue
		}

		if !isBackpressure(err) {
			d.breaker.RecordFailure()
		}

		if due.attempt >= d.maxRetries {
			d.deadLetter(due.event, due.attempt, err)
			continue
		}

		d.rescheduleEvent(due.event.ID, due.attempt, err)
		d.log.WarnContext(d.ctx, "event retry failed",
			logger.Error(err),
			logger.EventID(due.event.ID),
			logger.Attempt(due.attempt))
	}
}

func (d *Dispatcher) retryDueDeliveries() {
	for _, due := range d.dueDeliveryRetries(time.Now()) {
		err := d.deliverOnce(d.ctx, due.receiverType, due.receiverID, due.notificationID)
		if err == nil {
			d.removeFailedDelivery(due.key)
			continue
		}

		if due.attempt >= d.maxRetries {
			// Abandoned, not dead-lettered: the notification is stored
			// and stays reachable through the pull API.
			d.removeFailedDelivery(due.key)
			d.log.WarnContext(d.ctx, "delivery retries exhausted, abandoning push",
				logger.Error(err),
				logger.DeliveryKey(due.key),
				logger.Attempt(due.attempt))
			continue
		}

		d.rescheduleDelivery(due.key, due.attempt, err)
	}
}

// deadLetter removes the event from the retry set, logs it, and publishes
// the dead-letter marker event. No automatic redelivery happens after this.
func (d *Dispatcher) deadLetter(evt eventbus.Event, attempts int, err error) {
	d.removeFailedEvent(evt.ID)
	d.deadLettered.Add(1)

	d.log.ErrorContext(d.ctx, "event dead-lettered after exhausting retries",
		logger.Error(err),
		logger.EventID(evt.ID),
		logger.EventType(string(evt.Type)),
		logger.EventKey(evt.Key()),
		logger.Attempt(attempts))

	dl, buildErr := eventbus.NewEventDeadLettered(evt, err.Error())
	if buildErr != nil {
		d.log.ErrorContext(d.ctx, "failed to build dead-letter event",
			logger.Error(buildErr), logger.EventID(evt.ID))
		return
	}
	d.bus.Publish(d.ctx, dl)
}

// ResetBreaker forces the circuit breaker back to closed.
func (d *Dispatcher) ResetBreaker() {
	d.breaker.Reset()
}

// ClearQueuedEvents discards every event queued while the breaker was open
// and returns how many were dropped.
func (d *Dispatcher) ClearQueuedEvents() int {
	return d.queue.clear()
}

func isBackpressure(err error) bool {
	return errors.Is(err, notifications.ErrCapacityExceeded) ||
		errors.Is(err, notifications.ErrAlreadyProcessing)
}
