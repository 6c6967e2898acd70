package logger

import "log/slog"

// Error creates an attribute for a single error under the key "error".
// If err is nil, it returns an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// EventID records the domain event identifier under the key "event_id".
func EventID(id string) slog.Attr {
	return slog.String("event_id", id)
}

// EventType records the domain event type under the key "event_type".
func EventType(eventType string) slog.Attr {
	return slog.String("event_type", eventType)
}

// EventKey records the retry bookkeeping key under the key "event_key".
func EventKey(key string) slog.Attr {
	return slog.String("event_key", key)
}

// NotificationID records the notification identifier under the key "notification_id".
func NotificationID(id string) slog.Attr {
	return slog.String("notification_id", id)
}

// ReceiverID records the receiver identifier under the key "receiver_id".
func ReceiverID(id string) slog.Attr {
	return slog.String("receiver_id", id)
}

// ReceiverType records the receiver type under the key "receiver_type".
func ReceiverType(t string) slog.Attr {
	return slog.String("receiver_type", t)
}

// DeliveryKey records the delivery retry key under the key "delivery_key".
func DeliveryKey(key string) slog.Attr {
	return slog.String("delivery_key", key)
}

// Attempt records the attempt number under the key "attempt".
func Attempt(n int) slog.Attr {
	return slog.Int("attempt", n)
}

// Component records the component name under the key "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// Duration records a duration under the key "duration".
func Duration(d any) slog.Attr {
	return slog.Any("duration", d)
}
