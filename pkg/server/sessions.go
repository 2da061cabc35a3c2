package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"storyteller/pkg/state"
)

type sessionResp struct {
	ID    string        `json:"id"`
	State state.UIState `json:"state"`
}

// POST /api/sessions
func (s *Server) handlePostSession(c echo.Context) error {
	id, st, err := s.Studio.NewSession(c.Request().Context())
	if err != nil {
		return s.actionError(c, st, err)
	}
	return c.JSON(http.StatusCreated, sessionResp{ID: id, State: st})
}

// DELETE /api/sessions/:id
func (s *Server) handleDeleteSession(c echo.Context) error {
	if err := s.Studio.EndSession(c.Request().Context(), c.Param("id")); err != nil {
		return s.actionError(c, state.UIState{}, err)
	}
	return c.NoContent(http.StatusNoContent)
}
