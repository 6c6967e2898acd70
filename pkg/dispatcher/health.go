package dispatcher

// Health is a point-in-time snapshot of the dispatcher's resilience state,
// consumed by the operational HTTP surface.
type Health struct {
	CircuitBreaker   BreakerStats `json:"circuit_breaker"`
	FailedEvents     int          `json:"failed_events"`
	FailedDeliveries int          `json:"failed_deliveries"`
	QueuedEvents     int          `json:"queued_events"`
	DeadLettered     int64        `json:"dead_lettered"`
}

// Health reports the breaker state and the sizes of the retry sets and the
// degradation queue.
func (d *Dispatcher) Health() Health {
	d.mu.Lock()
	failedEvents := len(d.failedEvents)
	failedDeliveries := len(d.failedDeliveries)
	d.mu.Unlock()

	return Health{
		CircuitBreaker:   d.breaker.Stats(),
		FailedEvents:     failedEvents,
		FailedDeliveries: failedDeliveries,
		QueuedEvents:     d.queue.len(),
		DeadLettered:     d.deadLettered.Load(),
	}
}
