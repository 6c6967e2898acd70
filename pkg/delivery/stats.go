package delivery

import "sync/atomic"

// Stats holds the delivery counters behind the health surface.
type Stats struct {
	attempted atomic.Int64
	delivered atomic.Int64
	offline   atomic.Int64
	failed    atomic.Int64
}

// StatsSnapshot is a point-in-time copy of the counters.
type StatsSnapshot struct {
	Attempted int64 `json:"attempted"`
	Delivered int64 `json:"delivered"`
	Offline   int64 `json:"offline"`
	Failed    int64 `json:"failed"`
}

// Snapshot copies the current counter values.
func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		Attempted: s.attempted.Load(),
		Delivered: s.delivered.Load(),
		Offline:   s.offline.Load(),
		Failed:    s.failed.Load(),
	}
}
