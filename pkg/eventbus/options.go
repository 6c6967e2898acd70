package eventbus

import (
	"log/slog"
	"time"

	"github.com/dhvanit-ts/hrms-sub001/pkg/backoff"
)

// Option configures a Bus.
type Option func(*Bus)

// WithLogger sets the logger for the bus.
func WithLogger(l *slog.Logger) Option {
	return func(b *Bus) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithBackoff sets the retry delay strategy for handler retries.
func WithBackoff(s backoff.Strategy) Option {
	return func(b *Bus) {
		if s != nil {
			b.strategy = s
		}
	}
}

// WithHandlerErrorCallback registers the observer invoked when a handler
// exhausts its retries. Intended for metrics and alerting; errors never
// reach the publisher.
func WithHandlerErrorCallback(fn func(HandlerError)) Option {
	return func(b *Bus) {
		b.onHandlerError = fn
	}
}

// SubscribeOption configures a single subscription.
type SubscribeOption func(*subscription)

// WithMaxRetries sets how many times a failed handler execution is retried.
// Zero disables bus-level retries for subscribers that manage their own.
func WithMaxRetries(n int) SubscribeOption {
	return func(s *subscription) {
		if n >= 0 {
			s.maxRetries = n
		}
	}
}

// WithTimeout bounds a single handler execution.
func WithTimeout(d time.Duration) SubscribeOption {
	return func(s *subscription) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithPriority orders handler launch for a given event; higher runs first.
// Completion is still independent, priority only sequences the fan-out.
func WithPriority(p int) SubscribeOption {
	return func(s *subscription) {
		s.priority = p
	}
}
