package dispatcher

import (
	"time"

	"github.com/dhvanit-ts/hrms-sub001/pkg/eventbus"
)

// failedEvent tracks one event awaiting a processing retry.
type failedEvent struct {
	event     eventbus.Event
	attempts  int
	nextRetry time.Time
	lastErr   error
}

// failedDelivery tracks one notification awaiting a delivery retry.
// Delivery retries are bookkept separately from processing retries: the
// notification is already stored, so exhausting these is safe.
type failedDelivery struct {
	receiverType   string
	receiverID     string
	notificationID string
	attempts       int
	nextRetry      time.Time
	lastErr        error
}

// DeliveryKey identifies a delivery retry entry.
func DeliveryKey(receiverType, receiverID, notificationID string) string {
	return receiverType + ":" + receiverID + ":" + notificationID
}

// eventAttempt is a snapshot of a due processing retry, detached from the
// bookkeeping map so the attempt itself runs outside the lock.
type eventAttempt struct {
	event   eventbus.Event
	attempt int
}

// deliveryAttempt is a snapshot of a due delivery retry.
type deliveryAttempt struct {
	key            string
	receiverType   string
	receiverID     string
	notificationID string
	attempt        int
}

// RetryEvent marks a failed event due for an immediate retry attempt.
// Returns false when the event ID is not in the retry set.
func (d *Dispatcher) RetryEvent(eventID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	entry, ok := d.failedEvents[eventID]
	if !ok {
		return false
	}
	entry.nextRetry = time.Time{}
	return true
}

// RetryDelivery marks a failed delivery due for an immediate retry attempt.
// Returns false when the key is not in the retry set.
func (d *Dispatcher) RetryDelivery(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	entry, ok := d.failedDeliveries[key]
	if !ok {
		return false
	}
	entry.nextRetry = time.Time{}
	return true
}

// ClearFailedEvents drops every pending processing retry and returns how
// many were dropped.
func (d *Dispatcher) ClearFailedEvents() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	n := len(d.failedEvents)
	d.failedEvents = make(map[string]*failedEvent)
	return n
}

// ClearFailedDeliveries drops every pending delivery retry and returns how
// many were dropped.
func (d *Dispatcher) ClearFailedDeliveries() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	n := len(d.failedDeliveries)
	d.failedDeliveries = make(map[string]*failedDelivery)
	return n
}

func (d *Dispatcher) scheduleEventRetry(evt eventbus.Event, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	entry, ok := d.failedEvents[evt.ID]
	if !ok {
		entry = &failedEvent{event: evt}
		d.failedEvents[evt.ID] = entry
	}
	entry.lastErr = err
	entry.nextRetry = time.Now().Add(d.strategy.NextInterval(entry.attempts + 1))
}

// rescheduleEvent records a failed retry attempt. The entry may have been
// cleared manually while the attempt ran; that wins.
func (d *Dispatcher) rescheduleEvent(eventID string, attempt int, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	entry, ok := d.failedEvents[eventID]
	if !ok {
		return
	}
	entry.lastErr = err
	entry.nextRetry = time.Now().Add(d.strategy.NextInterval(attempt + 1))
}

func (d *Dispatcher) scheduleDeliveryRetry(receiverType, receiverID, notificationID string, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	key := DeliveryKey(receiverType, receiverID, notificationID)
	entry, ok := d.failedDeliveries[key]
	if !ok {
		entry = &failedDelivery{
			receiverType:   receiverType,
			receiverID:     receiverID,
			notificationID: notificationID,
		}
		d.failedDeliveries[key] = entry
	}
	entry.lastErr = err
	entry.nextRetry = time.Now().Add(d.strategy.NextInterval(entry.attempts + 1))
}

func (d *Dispatcher) rescheduleDelivery(key string, attempt int, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	entry, ok := d.failedDeliveries[key]
	if !ok {
		return
	}
	entry.lastErr = err
	entry.nextRetry = time.Now().Add(d.strategy.NextInterval(attempt + 1))
}

// dueEventRetries snapshots the events whose retry time has arrived,
// incrementing their attempt counters.
func (d *Dispatcher) dueEventRetries(now time.Time) []eventAttempt {
	d.mu.Lock()
	defer d.mu.Unlock()

	var due []eventAttempt
	for _, entry := range d.failedEvents {
		if !entry.nextRetry.After(now) {
			entry.attempts++
			due = append(due, eventAttempt{event: entry.event, attempt: entry.attempts})
		}
	}
	return due
}

func (d *Dispatcher) dueDeliveryRetries(now time.Time) []deliveryAttempt {
	d.mu.Lock()
	defer d.mu.Unlock()

	var due []deliveryAttempt
	for key, entry := range d.failedDeliveries {
		if !entry.nextRetry.After(now) {
			entry.attempts++
			due = append(due, deliveryAttempt{
				key:            key,
				receiverType:   entry.receiverType,
				receiverID:     entry.receiverID,
				notificationID: entry.notificationID,
				attempt:        entry.attempts,
			})
		}
	}
	return due
}

// deferEventRetry returns the attempt reserved by dueEventRetries when the
// breaker blocked it before it ran. The entry stays due for the next tick.
func (d *Dispatcher) deferEventRetry(eventID string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if entry, ok := d.failedEvents[eventID]; ok {
		entry.attempts--
	}
}

func (d *Dispatcher) removeFailedEvent(eventID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.failedEvents, eventID)
}

func (d *Dispatcher) removeFailedDelivery(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.failedDeliveries, key)
}
