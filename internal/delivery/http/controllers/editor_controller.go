package controllers

import (
	"errors"
	"log/slog"
	"net/http"

	h "groupcalendar/internal/delivery/http/helpers"
	"groupcalendar/internal/delivery/http/middleware"
	"groupcalendar/internal/domain"
	"groupcalendar/internal/services"
)

// OpenEditorRequest is the request body for POST /editor. An empty event_id
// opens the editor in creation mode.
type OpenEditorRequest struct {
	EventID string `json:"event_id"`
}

// SetLocationRequest is the request body for PUT /editor/{sessionID}/location
type SetLocationRequest struct {
	Text string `json:"text"`
}

// SetCoordinatesRequest is the request body for PUT /editor/{sessionID}/coordinates
type SetCoordinatesRequest struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// SaveResponse is the response body for POST /editor/{sessionID}/save
type SaveResponse struct {
	Event    *domain.Event           `json:"event"`
	Snapshot services.EditorSnapshot `json:"snapshot"`
}

type EditorController struct {
	Logger  *slog.Logger
	Manager *services.EditorManager
}

func NewEditorController(logger *slog.Logger, manager *services.EditorManager) *EditorController {
	return &EditorController{
		Logger:  logger,
		Manager: manager,
	}
}

// session resolves the session from the path, writing 404 when it is gone.
func (c *EditorController) session(w http.ResponseWriter, r *http.Request) (*services.EditorSession, bool) {
	id := r.PathValue("sessionID")
	if id == "" {
		h.WriteJSONError(w, http.StatusBadRequest, h.ErrCodeBadRequest, "missing sessionID")
		return nil, false
	}
	s, ok := c.Manager.Get(id)
	if !ok {
		h.WriteJSONError(w, http.StatusNotFound, h.ErrCodeNotFound, "editor session not found")
		return nil, false
	}
	return s, true
}

// Open godoc
// @Summary Open an editor session
// @Description Opens an edit session for an existing event, or a creation session when event_id is empty.
// @Tags editor
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body OpenEditorRequest true "Target event"
// @Success 201 {object} helpers.APIResponse "data contains the session snapshot"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /editor [post]
func (c *EditorController) Open(w http.ResponseWriter, r *http.Request) {
	var req OpenEditorRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "unauthorized")
		return
	}
	s, err := c.Manager.Open(r.Context(), userID, req.EventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			h.WriteJSONError(w, http.StatusNotFound, h.ErrCodeNotFound, "event not found")
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		h.WriteJSONError(w, http.StatusInternalServerError, h.ErrCodeInternalError, err.Error())
		return
	}
	h.WriteJSONSuccess(w, http.StatusCreated, s.Snapshot())
}

// Get godoc
// @Summary Get the editor session state
// @Tags editor
// @Produce json
// @Security BearerAuth
// @Param sessionID path string true "Session ID"
// @Success 200 {object} helpers.APIResponse "data contains the session snapshot"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /editor/{sessionID} [get]
func (c *EditorController) Get(w http.ResponseWriter, r *http.Request) {
	s, ok := c.session(w, r)
	if !ok {
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, s.Snapshot())
}

// SetFields godoc
// @Summary Update the editable fields
// @Description Replaces title, description, times, category, and responsible. Times are raw datetime-local strings; they are validated only on save.
// @Tags editor
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param sessionID path string true "Session ID"
// @Param body body services.FieldsInput true "Field values"
// @Success 200 {object} helpers.APIResponse "data contains the session snapshot"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /editor/{sessionID}/fields [put]
func (c *EditorController) SetFields(w http.ResponseWriter, r *http.Request) {
	s, ok := c.session(w, r)
	if !ok {
		return
	}
	var req services.FieldsInput
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	s.SetFields(req)
	h.WriteJSONSuccess(w, http.StatusOK, s.Snapshot())
}

// SetLocation godoc
// @Summary Update the location text
// @Description Updates the location text immediately and schedules a debounced geocode of it. The snapshot returned here may not yet contain resolved coordinates.
// @Tags editor
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param sessionID path string true "Session ID"
// @Param body body SetLocationRequest true "Location text"
// @Success 200 {object} helpers.APIResponse "data contains the session snapshot"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /editor/{sessionID}/location [put]
func (c *EditorController) SetLocation(w http.ResponseWriter, r *http.Request) {
	s, ok := c.session(w, r)
	if !ok {
		return
	}
	var req SetLocationRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	s.SetLocation(req.Text)
	h.WriteJSONSuccess(w, http.StatusOK, s.Snapshot())
}

// SetCoordinates godoc
// @Summary Set coordinates directly
// @Description Map-click override: sets the coordinate pair and cancels any pending geocode.
// @Tags editor
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param sessionID path string true "Session ID"
// @Param body body SetCoordinatesRequest true "Coordinates"
// @Success 200 {object} helpers.APIResponse "data contains the session snapshot"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /editor/{sessionID}/coordinates [put]
func (c *EditorController) SetCoordinates(w http.ResponseWriter, r *http.Request) {
	s, ok := c.session(w, r)
	if !ok {
		return
	}
	var req SetCoordinatesRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	s.SetCoordinates(req.Lat, req.Lng)
	h.WriteJSONSuccess(w, http.StatusOK, s.Snapshot())
}

// Validate godoc
// @Summary Validate the session fields
// @Description Runs the save validation without writing anything.
// @Tags editor
// @Produce json
// @Security BearerAuth
// @Param sessionID path string true "Session ID"
// @Success 200 {object} helpers.APIResponse "data contains valid: true"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request, message names the violated field"
// @Router /editor/{sessionID}/validate [post]
func (c *EditorController) Validate(w http.ResponseWriter, r *http.Request) {
	s, ok := c.session(w, r)
	if !ok {
		return
	}
	if err := s.Validate(); err != nil {
		h.WriteJSONError(w, http.StatusBadRequest, h.ErrCodeBadRequest, err.Error())
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, map[string]bool{"valid": true})
}

// Save godoc
// @Summary Save the event
// @Description Validates and persists the event. Creation sets the caller as owner; an update never changes ownership. The responsible party is notified asynchronously.
// @Tags editor
// @Produce json
// @Security BearerAuth
// @Param sessionID path string true "Session ID"
// @Success 200 {object} helpers.APIResponse "data contains the saved event and the session snapshot"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 409 {object} helpers.APIResponse "error.code: busy"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /editor/{sessionID}/save [post]
func (c *EditorController) Save(w http.ResponseWriter, r *http.Request) {
	s, ok := c.session(w, r)
	if !ok {
		return
	}
	ev, err := s.Save(r.Context())
	if err != nil {
		if errors.Is(err, domain.ErrBusy) {
			h.WriteJSONError(w, http.StatusConflict, h.ErrCodeBusy, "save or delete already in progress")
			return
		}
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			h.WriteJSONError(w, http.StatusBadRequest, h.ErrCodeBadRequest, verr.Error())
			return
		}
		c.Logger.ErrorContext(r.Context(), "save failed", "path", r.URL.Path, "err", err)
		h.WriteJSONError(w, http.StatusInternalServerError, h.ErrCodeInternalError, err.Error())
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, SaveResponse{Event: ev, Snapshot: s.Snapshot()})
}

// Delete godoc
// @Summary Delete the event
// @Tags editor
// @Produce json
// @Security BearerAuth
// @Param sessionID path string true "Session ID"
// @Success 200 {object} helpers.APIResponse "data contains the session snapshot"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 409 {object} helpers.APIResponse "error.code: busy"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /editor/{sessionID}/delete [post]
func (c *EditorController) Delete(w http.ResponseWriter, r *http.Request) {
	s, ok := c.session(w, r)
	if !ok {
		return
	}
	if err := s.Delete(r.Context()); err != nil {
		if errors.Is(err, domain.ErrBusy) {
			h.WriteJSONError(w, http.StatusConflict, h.ErrCodeBusy, "save or delete already in progress")
			return
		}
		if errors.Is(err, domain.ErrInvalidInput) {
			h.WriteJSONError(w, http.StatusBadRequest, h.ErrCodeBadRequest, "session has no saved event")
			return
		}
		c.Logger.ErrorContext(r.Context(), "delete failed", "path", r.URL.Path, "err", err)
		h.WriteJSONError(w, http.StatusInternalServerError, h.ErrCodeInternalError, err.Error())
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, s.Snapshot())
}

// Close godoc
// @Summary Close the editor session
// @Description Dismisses the session and cancels any pending geocode. Idempotent.
// @Tags editor
// @Produce json
// @Security BearerAuth
// @Param sessionID path string true "Session ID"
// @Success 200 {object} helpers.APIResponse "data contains closed: true"
// @Router /editor/{sessionID} [delete]
func (c *EditorController) Close(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("sessionID")
	if id == "" {
		h.WriteJSONError(w, http.StatusBadRequest, h.ErrCodeBadRequest, "missing sessionID")
		return
	}
	c.Manager.Close(id)
	h.WriteJSONSuccess(w, http.StatusOK, map[string]bool{"closed": true})
}
