package server

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"storyteller/pkg/session"
	"storyteller/pkg/state"
	"storyteller/pkg/studio"
	"storyteller/pkg/utils"
)

// statusFor maps workflow errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, studio.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, studio.ErrNoFile), errors.Is(err, studio.ErrInvalidPDF):
		return http.StatusBadRequest
	case errors.Is(err, studio.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, studio.ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// actionError answers a failed action with the error and, when the session
// exists, the state it was left in.
func (s *Server) actionError(c echo.Context, st state.UIState, err error) error {
	code := statusFor(err)
	if code == http.StatusNotFound {
		return echo.NewHTTPError(code, "session not found")
	}
	if code == http.StatusInternalServerError {
		s.log.Error("action failed", "path", c.Path(), "error", err)
	}
	body := utils.ErrJSON(err.Error())
	body["state"] = st
	return c.JSON(code, body)
}
