package delivery

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dhvanit-ts/hrms-sub001/pkg/logger"
	"github.com/dhvanit-ts/hrms-sub001/pkg/notifications"
	"github.com/dhvanit-ts/hrms-sub001/pkg/realtime"
)

// Storage is the notification lookup surface the service needs. Satisfied
// by notifications.Storage implementations.
type Storage interface {
	Get(ctx context.Context, receiverType, receiverID, notifID string) (*notifications.Notification, error)
	MarkDelivered(ctx context.Context, receiverType, receiverID, notifID string, at time.Time) error
	CountUnread(ctx context.Context, receiverType, receiverID string) (int, error)
}

// Rooms resolves a receiver's realtime room without creating one.
// Satisfied by *realtime.Registry.
type Rooms interface {
	Lookup(name string) (*realtime.Room, bool)
}

// UnreadCount is the payload of an unread-count message.
type UnreadCount struct {
	Count int `json:"count"`
}

// Service pushes stored notifications to live sessions. It is never the
// source of truth: a receiver with no sessions simply picks the
// notification up through the pull API later.
type Service struct {
	storage Storage
	rooms   Rooms
	log     *slog.Logger
	stats   *Stats
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// NewService creates a delivery service.
func NewService(storage Storage, rooms Rooms, opts ...Option) *Service {
	s := &Service{
		storage: storage,
		rooms:   rooms,
		log:     slog.Default(),
		stats:   &Stats{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Deliver pushes the notification and a refreshed unread count to every
// live session of the receiver, then marks the notification delivered.
//
// A receiver with zero live sessions is a normal outcome: Deliver returns
// nil, leaves DeliveredAt unset, and the caller must not retry. An error
// return means the push genuinely failed and is worth retrying.
func (s *Service) Deliver(ctx context.Context, receiverType, receiverID, notifID string) error {
	s.stats.attempted.Add(1)

	notif, err := s.storage.Get(ctx, receiverType, receiverID, notifID)
	if err != nil {
		s.stats.failed.Add(1)
		return fmt.Errorf("load notification: %w", err)
	}

	room, ok := s.rooms.Lookup(realtime.RoomName(receiverType, receiverID))
	if !ok || room.SessionCount() == 0 {
		s.stats.offline.Add(1)
		s.log.DebugContext(ctx, "receiver offline, skipping push",
			logger.NotificationID(notifID),
			logger.ReceiverID(receiverID),
			logger.ReceiverType(receiverType))
		return nil
	}

	unread, err := s.storage.CountUnread(ctx, receiverType, receiverID)
	if err != nil {
		s.stats.failed.Add(1)
		return fmt.Errorf("count unread: %w", err)
	}

	delivered := room.Push(realtime.Message{
		Kind:    realtime.MessageKindNotification,
		Payload: notif,
	})
	if delivered == 0 {
		// Every session detached between the lookup and the push.
		s.stats.offline.Add(1)
		return nil
	}
	room.Push(realtime.Message{
		Kind:    realtime.MessageKindUnreadCount,
		Payload: UnreadCount{Count: unread},
	})

	if err := s.storage.MarkDelivered(ctx, receiverType, receiverID, notifID, time.Now()); err != nil {
		s.stats.failed.Add(1)
		return fmt.Errorf("mark delivered: %w", err)
	}

	s.stats.delivered.Add(1)
	s.log.DebugContext(ctx, "notification pushed",
		logger.NotificationID(notifID),
		logger.ReceiverID(receiverID),
		logger.ReceiverType(receiverType))
	return nil
}

// Stats returns the service's delivery counters.
func (s *Service) Stats() StatsSnapshot {
	return s.stats.Snapshot()
}
