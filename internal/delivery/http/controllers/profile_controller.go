package controllers

import (
	"errors"
	"log/slog"
	"net/http"

	h "groupcalendar/internal/delivery/http/helpers"
	"groupcalendar/internal/delivery/http/middleware"
	"groupcalendar/internal/domain"
)

type ProfileController struct {
	Logger   *slog.Logger
	Profiles domain.ProfileRepository
}

func NewProfileController(logger *slog.Logger, profiles domain.ProfileRepository) *ProfileController {
	return &ProfileController{
		Logger:   logger,
		Profiles: profiles,
	}
}

// List godoc
// @Summary List all profiles
// @Description Returns every registered profile, ordered by name. Used to populate the responsible-party selector.
// @Tags profiles
// @Produce json
// @Security BearerAuth
// @Success 200 {object} helpers.APIResponse "data contains the profile list"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Router /profiles [get]
func (c *ProfileController) List(w http.ResponseWriter, r *http.Request) {
	profiles, err := c.Profiles.List(r.Context())
	if err != nil {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		h.WriteJSONError(w, http.StatusInternalServerError, h.ErrCodeInternalError, err.Error())
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, profiles)
}

// Me godoc
// @Summary Get the authenticated profile
// @Tags profiles
// @Produce json
// @Security BearerAuth
// @Success 200 {object} helpers.APIResponse "data contains the profile"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /profiles/me [get]
func (c *ProfileController) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "unauthorized")
		return
	}
	profile, err := c.Profiles.GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			h.WriteJSONError(w, http.StatusNotFound, h.ErrCodeNotFound, "profile not found")
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		h.WriteJSONError(w, http.StatusInternalServerError, h.ErrCodeInternalError, err.Error())
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, profile)
}
