package notifications

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dhvanit-ts/hrms-sub001/pkg/eventbus"
)

// EventStore records which events have already been turned into
// notifications. Store is the idempotence gate: the first call for a given
// event returns true, every later call for the same event returns false.
// Delete releases the key again; the processor calls it when an event
// claimed the key but produced no notifications, so a retry is not treated
// as a duplicate.
type EventStore interface {
	Store(ctx context.Context, evt eventbus.Event) (created bool, err error)
	Delete(ctx context.Context, evt eventbus.Event) error
}

// storedEventKey identifies an event by content rather than by its assigned
// ID, so a re-published copy of the same logical event dedupes too.
// Timestamps are truncated to the second to absorb clock jitter between
// publishes.
func storedEventKey(evt eventbus.Event) string {
	return fmt.Sprintf("%s|%s|%s|%s|%d",
		evt.Type, evt.TargetID, evt.TargetType, evt.ActorID, evt.CreatedAt.Truncate(time.Second).Unix())
}

// MemoryEventStore keeps seen-event keys in memory with a TTL. Suitable for
// development and tests; production deployments use RedisEventStore.
type MemoryEventStore struct {
	mu   sync.Mutex
	seen map[string]time.Time
	ttl  time.Duration
}

// NewMemoryEventStore creates an in-memory event store. Keys expire after
// ttl; a non-positive ttl defaults to 24 hours.
func NewMemoryEventStore(ttl time.Duration) *MemoryEventStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &MemoryEventStore{
		seen: make(map[string]time.Time),
		ttl:  ttl,
	}
}

func (s *MemoryEventStore) Store(_ context.Context, evt eventbus.Event) (bool, error) {
	key := storedEventKey(evt)
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if expiry, ok := s.seen[key]; ok && now.Before(expiry) {
		return false, nil
	}

	// Opportunistically drop expired keys so the map does not grow without
	// bound under a long-lived process.
	for k, expiry := range s.seen {
		if now.After(expiry) {
			delete(s.seen, k)
		}
	}

	s.seen[key] = now.Add(s.ttl)
	return true, nil
}

func (s *MemoryEventStore) Delete(_ context.Context, evt eventbus.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.seen, storedEventKey(evt))
	return nil
}
