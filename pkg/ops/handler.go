package ops

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"runtime"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dhvanit-ts/hrms-sub001/pkg/delivery"
	"github.com/dhvanit-ts/hrms-sub001/pkg/dispatcher"
	"github.com/dhvanit-ts/hrms-sub001/pkg/logger"
	"github.com/dhvanit-ts/hrms-sub001/pkg/notifications"
)

// Dispatcher is the recovery surface the handler drives. Satisfied by
// *dispatcher.Dispatcher.
type Dispatcher interface {
	Health() dispatcher.Health
	RetryEvent(eventID string) bool
	RetryDelivery(key string) bool
	ClearFailedEvents() int
	ClearFailedDeliveries() int
	ClearQueuedEvents() int
	ResetBreaker()
}

// DeliveryStats reports push counters. Satisfied by *delivery.Service.
type DeliveryStats interface {
	Stats() delivery.StatsSnapshot
}

// Probe checks one external dependency for the readiness section of
// /health.
type Probe func(context.Context) error

// Handler serves the operational HTTP surface: health and metrics
// snapshots, manual retry/clear/reset controls, and the notification pull
// API.
type Handler struct {
	dispatcher Dispatcher
	delivery   DeliveryStats
	storage    notifications.Storage
	log        *slog.Logger
	probes     map[string]Probe
	startedAt  time.Time
}

// Option configures a Handler.
type Option func(*Handler)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.log = l
		}
	}
}

// WithProbe registers a named readiness probe reported under /health.
func WithProbe(name string, probe Probe) Option {
	return func(h *Handler) {
		if probe != nil {
			h.probes[name] = probe
		}
	}
}

// NewHandler creates the operational handler.
func NewHandler(d Dispatcher, ds DeliveryStats, storage notifications.Storage, opts ...Option) *Handler {
	h := &Handler{
		dispatcher: d,
		delivery:   ds,
		storage:    storage,
		log:        slog.Default(),
		probes:     make(map[string]Probe),
		startedAt:  time.Now(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Router mounts all operational routes.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()

	r.Get("/health", h.health)
	r.Get("/metrics", h.metrics)

	r.Post("/events/{eventID}/retry", h.retryEvent)
	r.Post("/deliveries/{deliveryKey}/retry", h.retryDelivery)
	r.Post("/circuit-breaker/reset", h.resetBreaker)
	r.Post("/failed-events/clear", h.clearFailedEvents)
	r.Post("/failed-deliveries/clear", h.clearFailedDeliveries)
	r.Post("/queued-events/clear", h.clearQueuedEvents)

	r.Route("/receivers/{receiverType}/{receiverID}/notifications", func(r chi.Router) {
		r.Get("/", h.listNotifications)
		r.Get("/unread-count", h.unreadCount)
		r.Post("/read", h.markRead)
		r.Post("/read-all", h.markAllRead)
		r.Delete("/{notificationID}", h.deleteNotification)
	})

	return r
}

type healthResponse struct {
	Status        string                 `json:"status"`
	Dispatcher    dispatcher.Health      `json:"dispatcher"`
	Delivery      delivery.StatsSnapshot `json:"delivery"`
	UptimeSeconds int64                  `json:"uptime_seconds"`
	HeapBytes     uint64                 `json:"heap_bytes"`
	Goroutines    int                    `json:"goroutines"`
	Checks        map[string]string      `json:"checks,omitempty"`
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	dh := h.dispatcher.Health()
	resp := healthResponse{
		Status:        "ok",
		Dispatcher:    dh,
		Delivery:      h.delivery.Stats(),
		UptimeSeconds: int64(time.Since(h.startedAt).Seconds()),
		HeapBytes:     mem.HeapAlloc,
		Goroutines:    runtime.NumGoroutine(),
	}
	if dh.CircuitBreaker.State != "closed" {
		resp.Status = "degraded"
	}

	if len(h.probes) > 0 {
		resp.Checks = make(map[string]string, len(h.probes))
		for name, probe := range h.probes {
			if err := probe(r.Context()); err != nil {
				resp.Checks[name] = err.Error()
				resp.Status = "degraded"
				continue
			}
			resp.Checks[name] = "ok"
		}
	}

	status := http.StatusOK
	if resp.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	h.respond(w, status, resp)
}

func (h *Handler) metrics(w http.ResponseWriter, r *http.Request) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	dh := h.dispatcher.Health()
	ds := h.delivery.Stats()

	h.respond(w, http.StatusOK, map[string]int64{
		"circuit_breaker_open":    boolMetric(dh.CircuitBreaker.State == "open"),
		"circuit_failures":        int64(dh.CircuitBreaker.Failures),
		"failed_events":           int64(dh.FailedEvents),
		"failed_deliveries":       int64(dh.FailedDeliveries),
		"queued_events":           int64(dh.QueuedEvents),
		"dead_lettered":           dh.DeadLettered,
		"delivery_attempted":      ds.Attempted,
		"delivery_delivered":      ds.Delivered,
		"delivery_offline":        ds.Offline,
		"delivery_failed":         ds.Failed,
		"uptime_seconds":          int64(time.Since(h.startedAt).Seconds()),
		"heap_bytes":              int64(mem.HeapAlloc),
		"goroutines":              int64(runtime.NumGoroutine()),
	})
}

func boolMetric(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func (h *Handler) retryEvent(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")
	if !h.dispatcher.RetryEvent(eventID) {
		h.respond(w, http.StatusNotFound, map[string]string{"error": "unknown event"})
		return
	}

	h.log.InfoContext(r.Context(), "manual event retry requested", logger.EventID(eventID))
	h.respond(w, http.StatusAccepted, map[string]string{"status": "retry scheduled"})
}

func (h *Handler) retryDelivery(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "deliveryKey")
	if !h.dispatcher.RetryDelivery(key) {
		h.respond(w, http.StatusNotFound, map[string]string{"error": "unknown delivery"})
		return
	}

	h.log.InfoContext(r.Context(), "manual delivery retry requested", logger.DeliveryKey(key))
	h.respond(w, http.StatusAccepted, map[string]string{"status": "retry scheduled"})
}

func (h *Handler) resetBreaker(w http.ResponseWriter, r *http.Request) {
	h.dispatcher.ResetBreaker()
	h.log.WarnContext(r.Context(), "circuit breaker manually reset")
	h.respond(w, http.StatusOK, map[string]string{"status": "reset"})
}

func (h *Handler) clearFailedEvents(w http.ResponseWriter, r *http.Request) {
	cleared := h.dispatcher.ClearFailedEvents()
	h.log.WarnContext(r.Context(), "failed events cleared", slog.Int("cleared", cleared))
	h.respond(w, http.StatusOK, map[string]int{"cleared": cleared})
}

func (h *Handler) clearFailedDeliveries(w http.ResponseWriter, r *http.Request) {
	cleared := h.dispatcher.ClearFailedDeliveries()
	h.log.WarnContext(r.Context(), "failed deliveries cleared", slog.Int("cleared", cleared))
	h.respond(w, http.StatusOK, map[string]int{"cleared": cleared})
}

func (h *Handler) clearQueuedEvents(w http.ResponseWriter, r *http.Request) {
	cleared := h.dispatcher.ClearQueuedEvents()
	h.log.WarnContext(r.Context(), "queued events cleared", slog.Int("cleared", cleared))
	h.respond(w, http.StatusOK, map[string]int{"cleared": cleared})
}

func (h *Handler) respond(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error("failed to encode response", logger.Error(err))
	}
}
