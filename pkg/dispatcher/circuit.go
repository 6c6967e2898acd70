package dispatcher

import (
	"sync"
	"time"
)

// State is the circuit breaker state.
type State int

const (
	// StateClosed allows all processing.
	StateClosed State = iota
	// StateOpen diverts new events into the degradation queue.
	StateOpen
	// StateHalfOpen allows trial processing to test recovery.
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Breaker guards the processing path: after enough consecutive failures it
// opens and the dispatcher queues events instead of processing them. Safe
// for concurrent use.
type Breaker struct {
	mu sync.RWMutex

	failureThreshold int
	successThreshold int
	recoveryTimeout  time.Duration

	state           State
	failures        int
	successCount    int
	lastFailureTime time.Time
}

// NewBreaker creates a circuit breaker. Non-positive arguments fall back to
// defaults: open after 5 consecutive failures, close after a single
// half-open success, test recovery after 30 seconds.
func NewBreaker(failureThreshold, successThreshold int, recoveryTimeout time.Duration) *Breaker {
	if failureThreshold <= 0 {
		failureThreshold = 5
	}
	if successThreshold <= 0 {
		successThreshold = 1
	}
	if recoveryTimeout <= 0 {
		recoveryTimeout = 30 * time.Second
	}

	return &Breaker{
		failureThreshold: failureThreshold,
		successThreshold: successThreshold,
		recoveryTimeout:  recoveryTimeout,
		state:            StateClosed,
	}
}

// Allow reports whether processing may proceed. Takes a write lock because
// an open breaker transitions to half-open here once the recovery timeout
// has elapsed.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return true

	case StateOpen:
		if time.Since(b.lastFailureTime) > b.recoveryTimeout {
			b.state = StateHalfOpen
			b.successCount = 0
			return true
		}
		return false

	case StateHalfOpen:
		return true

	default:
		return false
	}
}

// RecordSuccess records a successful processing attempt and may close the
// circuit.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		b.failures = 0

	case StateHalfOpen:
		b.successCount++
		if b.successCount >= b.successThreshold {
			b.state = StateClosed
			b.failures = 0
			b.successCount = 0
		}
	}
}

// RecordFailure records a failed processing attempt and may open the
// circuit.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.lastFailureTime = time.Now()

	switch b.state {
	case StateClosed:
		b.failures++
		if b.failures >= b.failureThreshold {
			b.state = StateOpen
		}

	case StateHalfOpen:
		// Still failing, reopen immediately.
		b.state = StateOpen
		b.failures = b.failureThreshold
		b.successCount = 0
	}
}

// State returns the current state, accounting for the automatic
// open-to-half-open transition Allow would perform.
func (b *Breaker) State() State {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.state == StateOpen && time.Since(b.lastFailureTime) > b.recoveryTimeout {
		return StateHalfOpen
	}
	return b.state
}

// Reset forces the breaker back to closed.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.state = StateClosed
	b.failures = 0
	b.successCount = 0
	b.lastFailureTime = time.Time{}
}

// BreakerStats is a point-in-time snapshot for the health surface.
type BreakerStats struct {
	State           string    `json:"state"`
	Failures        int       `json:"failures"`
	SuccessCount    int       `json:"success_count"`
	LastFailureTime time.Time `json:"last_failure_time,omitzero"`
}

// Stats returns the breaker's current counters.
func (b *Breaker) Stats() BreakerStats {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return BreakerStats{
		State:           b.state.String(),
		Failures:        b.failures,
		SuccessCount:    b.successCount,
		LastFailureTime: b.lastFailureTime,
	}
}
