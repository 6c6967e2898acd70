package notifications

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dhvanit-ts/hrms-sub001/pkg/eventbus"
	"github.com/dhvanit-ts/hrms-sub001/pkg/logger"
)

// Publisher emits follow-up events. Satisfied by *eventbus.Bus.
type Publisher interface {
	Publish(ctx context.Context, evt eventbus.Event)
}

// Result reports what one processed event produced.
type Result struct {
	EventID string
	// NotificationIDs holds the notifications written or merged for the
	// event, one per successful receiver.
	NotificationIDs []string
	// Duplicate is true when the event was already processed and nothing
	// was written.
	Duplicate bool
}

// Processor turns events into stored notifications. It is the idempotent
// stage of the pipeline: an EventStore gate drops already-processed events,
// an in-flight set drops concurrent duplicates, and a semaphore bounds
// concurrent work.
type Processor struct {
	events    EventStore
	storage   Storage
	rules     RuleSet
	publisher Publisher
	log       *slog.Logger

	sem chan struct{}

	mu       sync.Mutex
	inflight map[string]struct{}

	wg sync.WaitGroup
}

// ProcessorOption configures a Processor.
type ProcessorOption func(*Processor)

// WithProcessorLogger sets the logger. Defaults to slog.Default.
func WithProcessorLogger(log *slog.Logger) ProcessorOption {
	return func(p *Processor) {
		if log != nil {
			p.log = log
		}
	}
}

// WithMaxConcurrent bounds how many events may be processed at once.
// Defaults to 10; values below 1 panic.
func WithMaxConcurrent(n int) ProcessorOption {
	if n < 1 {
		panic("notifications: max concurrent must be at least 1")
	}
	return func(p *Processor) {
		p.sem = make(chan struct{}, n)
	}
}

// WithPublisher sets the bus the processor emits NotificationCreated events
// on. Without a publisher, notifications are stored but never announced.
func WithPublisher(pub Publisher) ProcessorOption {
	return func(p *Processor) {
		p.publisher = pub
	}
}

// NewProcessor creates a notification processor.
func NewProcessor(events EventStore, storage Storage, rules RuleSet, opts ...ProcessorOption) *Processor {
	p := &Processor{
		events:   events,
		storage:  storage,
		rules:    rules,
		log:      slog.Default(),
		sem:      make(chan struct{}, 10),
		inflight: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process handles a single event: resolve receivers, upsert one notification
// per receiver, and announce each created or merged notification.
//
// Errors split into three classes: ErrCapacityExceeded and
// ErrAlreadyProcessing mean "not attempted, safe to retry later"; a
// duplicate event returns a Result with Duplicate set and no error; any
// other error means the event was attempted and at least one receiver
// failed. Partial success counts as success: if any receiver got its
// notification, the failures are logged but not returned.
func (p *Processor) Process(ctx context.Context, evt eventbus.Event) (Result, error) {
	select {
	case p.sem <- struct{}{}:
	default:
		return Result{}, ErrCapacityExceeded
	}
	defer func() { <-p.sem }()

	p.mu.Lock()
	if _, busy := p.inflight[evt.ID]; busy {
		p.mu.Unlock()
		return Result{}, ErrAlreadyProcessing
	}
	p.inflight[evt.ID] = struct{}{}
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		delete(p.inflight, evt.ID)
		p.mu.Unlock()
	}()

	return p.process(ctx, evt)
}

func (p *Processor) process(ctx context.Context, evt eventbus.Event) (Result, error) {
	// No rule means nobody wants a notification for this type. Not an
	// error: the pipeline carries event types it does not notify on.
	rule, ok := p.rules.Rule(evt.Type)
	if !ok {
		p.log.DebugContext(ctx, "no notification rule for event type",
			logger.EventType(string(evt.Type)))
		return Result{EventID: evt.ID}, nil
	}

	receivers, err := rule.Resolve(ctx, evt)
	if err != nil {
		return Result{}, fmt.Errorf("resolve receivers: %w", err)
	}
	if len(receivers) == 0 {
		return Result{}, ErrNoReceivers
	}

	// Idempotence gate. The event key is content-derived, so retried and
	// re-published copies of the same logical event land here too.
	created, err := p.events.Store(ctx, evt)
	if err != nil {
		return Result{}, fmt.Errorf("record event: %w", err)
	}
	if !created {
		p.log.DebugContext(ctx, "skipping already processed event",
			logger.EventID(evt.ID), logger.EventType(string(evt.Type)))
		return Result{EventID: evt.ID, Duplicate: true}, nil
	}

	result := Result{EventID: evt.ID}
	var failures []error

	for _, recv := range receivers {
		notif, err := p.storeForReceiver(ctx, evt, rule, recv)
		if err != nil {
			p.log.ErrorContext(ctx, "failed to store notification",
				logger.Error(err),
				logger.EventID(evt.ID),
				logger.ReceiverID(recv.ID),
				logger.ReceiverType(recv.Type))
			failures = append(failures, fmt.Errorf("receiver %s/%s: %w", recv.Type, recv.ID, err))
			continue
		}

		result.NotificationIDs = append(result.NotificationIDs, notif.ID)
		p.announce(ctx, notif)
	}

	if len(result.NotificationIDs) == 0 {
		// Nothing was written, so the event must stay retryable. Release the
		// idempotence key; leaving it would turn every retry into a no-op
		// duplicate and lose the notification for good.
		if delErr := p.events.Delete(ctx, evt); delErr != nil {
			p.log.ErrorContext(ctx, "failed to release event key after storage failure",
				logger.Error(delErr), logger.EventID(evt.ID))
		}
		return Result{}, fmt.Errorf("%w: %w", ErrAllReceiversFailed, errors.Join(failures...))
	}
	return result, nil
}

func (p *Processor) storeForReceiver(ctx context.Context, evt eventbus.Event, rule Rule, recv Receiver) (Notification, error) {
	candidate := Notification{
		ID:           uuid.NewString(),
		ReceiverID:   recv.ID,
		ReceiverType: recv.Type,
		Type:         string(evt.Type),
		TargetID:     evt.TargetID,
		TargetType:   evt.TargetType,
		Actors:       []string{evt.ActorName},
		CreatedAt:    time.Now(),
	}
	window := rule.Window
	if rule.AggregationKey != nil {
		candidate.AggregationKey = rule.AggregationKey(evt)
	}
	if candidate.AggregationKey == "" {
		// No grouping: give the row a unique key so nothing merges into it.
		candidate.AggregationKey = candidate.ID
		window = 0
	}

	notif, _, err := p.storage.Upsert(ctx, candidate, window)
	return notif, err
}

// announce publishes the NotificationCreated event that hands the
// notification to the delivery path. Best effort: the notification is
// already stored, so a pull can still find it if the announcement is lost.
func (p *Processor) announce(ctx context.Context, notif Notification) {
	if p.publisher == nil {
		return
	}

	evt, err := eventbus.NewNotificationCreated(notif.ID, notif.ReceiverID, notif.ReceiverType)
	if err != nil {
		p.log.ErrorContext(ctx, "failed to build notification created event",
			logger.Error(err), logger.NotificationID(notif.ID))
		return
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.publisher.Publish(context.WithoutCancel(ctx), evt)
	}()
}

// Wait blocks until all pending announcements have been handed to the
// publisher. Intended for shutdown and tests.
func (p *Processor) Wait() {
	p.wg.Wait()
}
