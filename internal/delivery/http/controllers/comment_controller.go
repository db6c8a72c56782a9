package controllers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	h "groupcalendar/internal/delivery/http/helpers"
	"groupcalendar/internal/delivery/http/middleware"
	"groupcalendar/internal/domain"
	"groupcalendar/internal/services"
)

// PostCommentRequest is the request body for POST /events/{eventID}/comments
type PostCommentRequest struct {
	Content string `json:"content"`
}

type CommentController struct {
	Logger *slog.Logger
	Feed   *services.DiscussionFeed
}

func NewCommentController(logger *slog.Logger, feed *services.DiscussionFeed) *CommentController {
	return &CommentController{
		Logger: logger,
		Feed:   feed,
	}
}

// List godoc
// @Summary List comments for an event
// @Description Returns the event's comments joined with author display fields, oldest first.
// @Tags comments
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Success 200 {object} helpers.APIResponse "data contains the comment list"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Router /events/{eventID}/comments [get]
func (c *CommentController) List(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		h.WriteJSONError(w, http.StatusBadRequest, h.ErrCodeBadRequest, "missing eventID")
		return
	}
	comments, err := c.Feed.List(r.Context(), eventID)
	if err != nil {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		h.WriteJSONError(w, http.StatusInternalServerError, h.ErrCodeInternalError, err.Error())
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, comments)
}

// Post godoc
// @Summary Post a comment
// @Description Adds a comment under the event. Whitespace-only content is rejected.
// @Tags comments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Param body body PostCommentRequest true "Comment content"
// @Success 201 {object} helpers.APIResponse "data contains the created comment"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Router /events/{eventID}/comments [post]
func (c *CommentController) Post(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		h.WriteJSONError(w, http.StatusBadRequest, h.ErrCodeBadRequest, "missing eventID")
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "unauthorized")
		return
	}
	var req PostCommentRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	comment, err := c.Feed.Post(r.Context(), eventID, userID, req.Content)
	if err != nil {
		if errors.Is(err, domain.ErrEmptyComment) {
			h.WriteJSONError(w, http.StatusBadRequest, h.ErrCodeBadRequest, "comment text is empty")
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		h.WriteJSONError(w, http.StatusInternalServerError, h.ErrCodeInternalError, err.Error())
		return
	}
	h.WriteJSONSuccess(w, http.StatusCreated, comment)
}

// Stream godoc
// @Summary Stream comment change signals for an event
// @Description Server-sent events scoped to one event: emits a "change" event whenever its comment set changes. Clients re-fetch the list on each signal.
// @Tags comments
// @Produce text/event-stream
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Success 200 {string} string "SSE stream"
// @Router /events/{eventID}/comments/stream [get]
func (c *CommentController) Stream(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		h.WriteJSONError(w, http.StatusBadRequest, h.ErrCodeBadRequest, "missing eventID")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		h.WriteJSONError(w, http.StatusInternalServerError, h.ErrCodeInternalError, "streaming unsupported")
		return
	}
	ch, cancel := c.Feed.Watch(eventID)
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
