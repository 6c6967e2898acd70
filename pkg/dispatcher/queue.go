package dispatcher

import (
	"sync"

	"github.com/dhvanit-ts/hrms-sub001/pkg/eventbus"
)

// degradationQueue holds events diverted while the breaker is open. Bounded
// FIFO: when full, the oldest event is dropped to make room, so a long
// outage costs the oldest notifications rather than the process.
type degradationQueue struct {
	mu       sync.Mutex
	events   []eventbus.Event
	capacity int
}

func newDegradationQueue(capacity int) *degradationQueue {
	if capacity <= 0 {
		capacity = 1000
	}
	return &degradationQueue{capacity: capacity}
}

// push appends the event, dropping the oldest entry if the queue is full.
// Returns the dropped event when an eviction happened.
func (q *degradationQueue) push(evt eventbus.Event) (eventbus.Event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var dropped eventbus.Event
	evicted := false
	if len(q.events) >= q.capacity {
		dropped = q.events[0]
		q.events = q.events[1:]
		evicted = true
	}
	q.events = append(q.events, evt)
	return dropped, evicted
}

// pop removes and returns the oldest queued event.
func (q *degradationQueue) pop() (eventbus.Event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.events) == 0 {
		return eventbus.Event{}, false
	}
	evt := q.events[0]
	q.events = q.events[1:]
	return evt, true
}

func (q *degradationQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

func (q *degradationQueue) clear() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := len(q.events)
	q.events = nil
	return n
}
