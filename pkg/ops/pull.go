package ops

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dhvanit-ts/hrms-sub001/pkg/notifications"
)

// Pull API: the durable read path clients fall back to when they were
// offline for a realtime push.

func (h *Handler) listNotifications(w http.ResponseWriter, r *http.Request) {
	receiverType := chi.URLParam(r, "receiverType")
	receiverID := chi.URLParam(r, "receiverID")

	opts := notifications.ListOptions{}
	q := r.URL.Query()
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			h.respond(w, http.StatusBadRequest, map[string]string{"error": "invalid limit"})
			return
		}
		opts.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			h.respond(w, http.StatusBadRequest, map[string]string{"error": "invalid offset"})
			return
		}
		opts.Offset = n
	}
	if q.Get("unread") == "true" {
		opts.OnlyUnread = true
	}
	if v := q.Get("since"); v != "" {
		since, err := time.Parse(time.RFC3339, v)
		if err != nil {
			h.respond(w, http.StatusBadRequest, map[string]string{"error": "invalid since timestamp"})
			return
		}
		opts.Since = &since
	}

	list, err := h.storage.List(r.Context(), receiverType, receiverID, opts)
	if err != nil {
		h.storageError(w, err)
		return
	}

	h.respond(w, http.StatusOK, map[string]any{"notifications": list})
}

func (h *Handler) unreadCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.storage.CountUnread(r.Context(),
		chi.URLParam(r, "receiverType"), chi.URLParam(r, "receiverID"))
	if err != nil {
		h.storageError(w, err)
		return
	}

	h.respond(w, http.StatusOK, map[string]int{"count": count})
}

func (h *Handler) markRead(w http.ResponseWriter, r *http.Request) {
	var body struct {
		IDs []string `json:"ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || len(body.IDs) == 0 {
		h.respond(w, http.StatusBadRequest, map[string]string{"error": "ids required"})
		return
	}

	err := h.storage.MarkRead(r.Context(),
		chi.URLParam(r, "receiverType"), chi.URLParam(r, "receiverID"), body.IDs...)
	if err != nil {
		h.storageError(w, err)
		return
	}

	h.respond(w, http.StatusOK, map[string]string{"status": "read"})
}

func (h *Handler) markAllRead(w http.ResponseWriter, r *http.Request) {
	marked, err := h.storage.MarkAllRead(r.Context(),
		chi.URLParam(r, "receiverType"), chi.URLParam(r, "receiverID"))
	if err != nil {
		h.storageError(w, err)
		return
	}

	h.respond(w, http.StatusOK, map[string]int{"marked": marked})
}

func (h *Handler) deleteNotification(w http.ResponseWriter, r *http.Request) {
	err := h.storage.Delete(r.Context(),
		chi.URLParam(r, "receiverType"), chi.URLParam(r, "receiverID"),
		chi.URLParam(r, "notificationID"))
	if err != nil {
		h.storageError(w, err)
		return
	}

	h.respond(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) storageError(w http.ResponseWriter, err error) {
	if errors.Is(err, notifications.ErrNotificationNotFound) {
		h.respond(w, http.StatusNotFound, map[string]string{"error": "notification not found"})
		return
	}
	h.respond(w, http.StatusInternalServerError, map[string]string{"error": "storage failure"})
}
