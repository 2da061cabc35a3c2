package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"storyteller/pkg/schema"
)

func (s *Server) handleGetRoot(c echo.Context) error {
	status := "ok"
	if err := s.Studio.Ping(c.Request().Context()); err != nil {
		s.log.Warn("session store unreachable", "error", err)
		status = "degraded"
	}
	return c.JSON(http.StatusOK, map[string]string{
		"service":     "Emotion-Driven Storyteller API",
		"status":      status,
		"upload_mode": s.Config.UploadMode,
	})
}

// GET /api/sessions/:id
func (s *Server) handleGetSession(c echo.Context) error {
	st, err := s.Studio.Session(c.Request().Context(), c.Param("id"))
	if err != nil {
		return s.actionError(c, st, err)
	}
	return c.JSON(http.StatusOK, st)
}

// GET /api/sessions/:id/script
func (s *Server) handleGetScript(c echo.Context) error {
	st, err := s.Studio.Session(c.Request().Context(), c.Param("id"))
	if err != nil {
		return s.actionError(c, st, err)
	}
	return c.String(http.StatusOK, schema.Render(st.Extraction.Dialogues))
}
