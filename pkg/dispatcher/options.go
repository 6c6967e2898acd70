package dispatcher

import (
	"log/slog"
	"time"

	"github.com/dhvanit-ts/hrms-sub001/pkg/backoff"
)

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.log = l
		}
	}
}

// WithBackoff sets the retry delay strategy shared by the processing and
// delivery retry tracks.
func WithBackoff(s backoff.Strategy) Option {
	return func(d *Dispatcher) {
		if s != nil {
			d.strategy = s
		}
	}
}

// WithBreaker replaces the default circuit breaker.
func WithBreaker(b *Breaker) Option {
	return func(d *Dispatcher) {
		if b != nil {
			d.breaker = b
		}
	}
}

// WithMaxRetries sets how many retry attempts follow an initial failure
// before an event is dead-lettered (or a delivery abandoned). Panics on
// negative values.
func WithMaxRetries(n int) Option {
	if n < 0 {
		panic("dispatcher: max retries must not be negative")
	}
	return func(d *Dispatcher) {
		d.maxRetries = n
	}
}

// WithProcessTimeout bounds one processing attempt.
func WithProcessTimeout(timeout time.Duration) Option {
	if timeout <= 0 {
		panic("dispatcher: process timeout must be positive")
	}
	return func(d *Dispatcher) {
		d.processTimeout = timeout
	}
}

// WithDeliveryTimeout bounds one delivery attempt.
func WithDeliveryTimeout(timeout time.Duration) Option {
	if timeout <= 0 {
		panic("dispatcher: delivery timeout must be positive")
	}
	return func(d *Dispatcher) {
		d.deliveryTimeout = timeout
	}
}

// WithQueueCapacity bounds the degradation queue. When full, the oldest
// queued event is dropped. Panics on non-positive values.
func WithQueueCapacity(n int) Option {
	if n <= 0 {
		panic("dispatcher: queue capacity must be positive")
	}
	return func(d *Dispatcher) {
		d.queue = newDegradationQueue(n)
	}
}

// WithTickInterval sets how often the scheduler loop scans for due retries
// and queued events. Panics on non-positive values.
func WithTickInterval(interval time.Duration) Option {
	if interval <= 0 {
		panic("dispatcher: tick interval must be positive")
	}
	return func(d *Dispatcher) {
		d.tick = interval
	}
}
