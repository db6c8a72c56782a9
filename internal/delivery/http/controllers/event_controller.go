package controllers

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	h "groupcalendar/internal/delivery/http/helpers"
	"groupcalendar/internal/services"
)

// sseKeepAliveInterval is how often an SSE comment line is sent to keep
// intermediaries from closing an idle stream.
const sseKeepAliveInterval = 30 * time.Second

type EventController struct {
	Logger *slog.Logger
	Store  *services.EventStore
}

func NewEventController(logger *slog.Logger, store *services.EventStore) *EventController {
	return &EventController{
		Logger: logger,
		Store:  store,
	}
}

// List godoc
// @Summary List calendar events
// @Description Returns the cached display events, optionally filtered by a case-insensitive search term matched against title, description, and responsible name.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param search query string false "Filter term"
// @Success 200 {object} helpers.APIResponse "data contains the event list"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Router /events [get]
func (c *EventController) List(w http.ResponseWriter, r *http.Request) {
	events := c.Store.Filter(r.URL.Query().Get("search"))
	h.WriteJSONSuccess(w, http.StatusOK, events)
}

// Stream godoc
// @Summary Stream event change signals
// @Description Server-sent events: emits a "change" event after every cache refresh. Clients re-fetch the list on each signal.
// @Tags events
// @Produce text/event-stream
// @Security BearerAuth
// @Success 200 {string} string "SSE stream"
// @Router /events/stream [get]
func (c *EventController) Stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		h.WriteJSONError(w, http.StatusInternalServerError, h.ErrCodeInternalError, "streaming unsupported")
		return
	}
	ch, cancel := c.Store.Watch()
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	keepAlive := time.NewTicker(sseKeepAliveInterval)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case _, open := <-ch:
			if !open {
				return
			}
			fmt.Fprint(w, "event: change\ndata: {}\n\n")
			flusher.Flush()
		case <-keepAlive.C:
			fmt.Fprint(w, ": keep-alive\n\n")
			flusher.Flush()
		}
	}
}
