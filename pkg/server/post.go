package server

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"

	"storyteller/pkg/config"
	"storyteller/pkg/state"
	"storyteller/pkg/studio"
	"storyteller/pkg/utils"
)

// POST /api/sessions/:id/upload
func (s *Server) handlePostUpload(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")
	if st, err := s.Studio.Session(ctx, id); err != nil {
		return s.actionError(c, st, err)
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, utils.ErrJSON(studio.ErrNoFile.Error()))
	}
	want := "." + s.Config.UploadMode
	if !strings.EqualFold(filepath.Ext(fh.Filename), want) {
		return c.JSON(http.StatusUnsupportedMediaType, utils.ErrJSON(fmt.Sprintf("only %s files are accepted", want)))
	}

	f, err := fh.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, utils.ErrJSON("unreadable upload"))
	}
	defer f.Close()

	var st state.UIState
	switch s.Config.UploadMode {
	case config.UploadModePDF:
		st, err = s.Studio.UploadPDF(ctx, id, fh.Filename, f)
	default:
		st, err = s.Studio.UploadText(ctx, id, fh.Filename, f)
	}
	if err != nil {
		return s.actionError(c, st, err)
	}
	return c.JSON(http.StatusOK, st)
}

// POST /api/sessions/:id/generate
//
// With Accept: text/event-stream the story is streamed as a "story" event
// as soon as it is stored, followed by "done" with the final state.
func (s *Server) handlePostGenerate(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	if !strings.Contains(c.Request().Header.Get(echo.HeaderAccept), "text/event-stream") {
		st, err := s.Studio.Generate(ctx, id, nil)
		if err != nil {
			return s.actionError(c, st, err)
		}
		return c.JSON(http.StatusOK, st)
	}

	if st, err := s.Studio.Session(ctx, id); err != nil {
		return s.actionError(c, st, err)
	}
	w, err := utils.NewSSEWriter(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotAcceptable, err.Error())
	}
	defer w.Close()

	st, err := s.Studio.Generate(ctx, id, func(st state.UIState) {
		if err := w.Event("story", st); err != nil {
			s.log.Debug("sse write failed", "error", err)
		}
	})
	if err != nil {
		body := utils.ErrJSON(err.Error())
		body["state"] = st
		return w.Event("error", body)
	}
	return w.Event("done", st)
}

// POST /api/sessions/:id/annotate
func (s *Server) handlePostAnnotate(c echo.Context) error {
	st, err := s.Studio.Annotate(c.Request().Context(), c.Param("id"))
	if err != nil {
		return s.actionError(c, st, err)
	}
	return c.JSON(http.StatusOK, st)
}
