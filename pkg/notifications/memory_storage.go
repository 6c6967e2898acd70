package notifications

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStorage is an in-memory implementation of the Storage interface.
// Suitable for development and testing.
type MemoryStorage struct {
	notifications map[string][]Notification // receiverType:receiverID -> notifications
	mu            sync.Mutex
}

// NewMemoryStorage creates a new in-memory notification storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		notifications: make(map[string][]Notification),
	}
}

func receiverKey(receiverType, receiverID string) string {
	return receiverType + ":" + receiverID
}

func (s *MemoryStorage) Upsert(ctx context.Context, candidate Notification, window time.Duration) (Notification, bool, error) {
	if candidate.ID == "" {
		return Notification{}, false, ErrMissingNotificationID
	}
	if candidate.ReceiverID == "" || candidate.ReceiverType == "" {
		return Notification{}, false, ErrMissingReceiver
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := receiverKey(candidate.ReceiverType, candidate.ReceiverID)
	now := time.Now()

	rows := s.notifications[key]
	for i := range rows {
		if rows[i].AggregationKey != candidate.AggregationKey {
			continue
		}
		if !rows[i].InWindow(now, window) {
			continue
		}

		actor := ""
		if len(candidate.Actors) > 0 {
			actor = candidate.Actors[0]
		}
		rows[i].Merge(actor)
		s.notifications[key] = rows
		return rows[i], false, nil
	}

	if candidate.CreatedAt.IsZero() {
		candidate.CreatedAt = now
	}
	if candidate.UpdatedAt.IsZero() {
		candidate.UpdatedAt = candidate.CreatedAt
	}
	if candidate.Count == 0 {
		candidate.Count = 1
	}

	s.notifications[key] = append(rows, candidate)
	return candidate, true, nil
}

func (s *MemoryStorage) Get(ctx context.Context, receiverType, receiverID, notifID string) (*Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, n := range s.notifications[receiverKey(receiverType, receiverID)] {
		if n.ID == notifID {
			// Return a copy to prevent external mutation of stored data
			notif := n
			notif.Actors = append([]string(nil), n.Actors...)
			return &notif, nil
		}
	}

	return nil, ErrNotificationNotFound
}

func (s *MemoryStorage) List(ctx context.Context, receiverType, receiverID string, opts ListOptions) ([]Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var filtered []Notification
	for _, n := range s.notifications[receiverKey(receiverType, receiverID)] {
		if opts.OnlyUnread && n.Read {
			continue
		}
		if opts.Since != nil && n.CreatedAt.Before(*opts.Since) {
			continue
		}
		filtered = append(filtered, n)
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].CreatedAt.After(filtered[j].CreatedAt)
	})

	start := opts.Offset
	if start > len(filtered) {
		return []Notification{}, nil
	}

	end := start + opts.Limit
	if opts.Limit == 0 || end > len(filtered) {
		end = len(filtered)
	}

	return filtered[start:end], nil
}

func (s *MemoryStorage) MarkRead(ctx context.Context, receiverType, receiverID string, notifIDs ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idMap := make(map[string]bool, len(notifIDs))
	for _, id := range notifIDs {
		idMap[id] = true
	}

	key := receiverKey(receiverType, receiverID)
	rows := s.notifications[key]
	for i := range rows {
		if idMap[rows[i].ID] {
			rows[i].MarkAsRead()
		}
	}
	s.notifications[key] = rows
	return nil
}

func (s *MemoryStorage) MarkAllRead(ctx context.Context, receiverType, receiverID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := receiverKey(receiverType, receiverID)
	rows := s.notifications[key]
	marked := 0
	for i := range rows {
		if !rows[i].Read {
			rows[i].MarkAsRead()
			marked++
		}
	}
	s.notifications[key] = rows
	return marked, nil
}

func (s *MemoryStorage) MarkDelivered(ctx context.Context, receiverType, receiverID, notifID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := receiverKey(receiverType, receiverID)
	rows := s.notifications[key]
	for i := range rows {
		if rows[i].ID == notifID {
			rows[i].DeliveredAt = &at
			rows[i].UpdatedAt = time.Now()
			s.notifications[key] = rows
			return nil
		}
	}

	return ErrNotificationNotFound
}

func (s *MemoryStorage) CountUnread(ctx context.Context, receiverType, receiverID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, n := range s.notifications[receiverKey(receiverType, receiverID)] {
		if !n.Read {
			count++
		}
	}

	return count, nil
}

func (s *MemoryStorage) Delete(ctx context.Context, receiverType, receiverID string, notifIDs ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idMap := make(map[string]bool, len(notifIDs))
	for _, id := range notifIDs {
		idMap[id] = true
	}

	key := receiverKey(receiverType, receiverID)
	var filtered []Notification
	for _, n := range s.notifications[key] {
		if !idMap[n.ID] {
			filtered = append(filtered, n)
		}
	}

	s.notifications[key] = filtered
	return nil
}
