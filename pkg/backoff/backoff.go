package backoff

import (
	"math"
	"math/rand"
	"time"
)

// Strategy calculates the delay before a retry attempt.
// Implementations must be safe for concurrent use.
type Strategy interface {
	// NextInterval returns the backoff duration for the given attempt.
	// Attempt starts at 1 for the first retry.
	NextInterval(attempt int) time.Duration
}

// Exponential implements exponential backoff with optional jitter.
// Jitter spreads retry times to avoid coordinated retry storms when many
// failed items become due at once.
type Exponential struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
	JitterFactor    float64
}

// NextInterval computes min(InitialInterval * Multiplier^(attempt-1), MaxInterval),
// scaled by a random factor in (1±JitterFactor) when jitter is enabled.
func (e Exponential) NextInterval(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}

	initial := e.InitialInterval
	if initial == 0 {
		initial = time.Second
	}

	cap := e.MaxInterval
	if cap == 0 {
		cap = 30 * time.Second
	}

	multiplier := e.Multiplier
	if multiplier == 0 {
		multiplier = 2
	}

	interval := float64(initial) * math.Pow(multiplier, float64(attempt-1))

	// Zero jitter is allowed for deterministic behavior in tests.
	if e.JitterFactor > 0 {
		randomJitter := (rand.Float64()*2 - 1) * e.JitterFactor
		interval = interval * (1 + randomJitter)
	}

	if interval > float64(cap) {
		interval = float64(cap)
	}

	return time.Duration(interval)
}

// Fixed implements a constant delay between retries.
type Fixed struct {
	Interval time.Duration
}

// NextInterval always returns the same interval regardless of attempt number.
func (f Fixed) NextInterval(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	return f.Interval
}

// Default returns the exponential strategy used across the pipeline:
// 1s initial delay doubling up to 30s, with 10% jitter.
func Default() Strategy {
	return Exponential{
		InitialInterval: time.Second,
		MaxInterval:     30 * time.Second,
		Multiplier:      2,
		JitterFactor:    0.1,
	}
}
