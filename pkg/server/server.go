package server

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	glog "github.com/labstack/gommon/log"

	"storyteller/pkg/config"
	"storyteller/pkg/studio"
)

type Server struct {
	Echo   *echo.Echo
	Studio *studio.Studio
	Config *config.Config
	Ctx    context.Context

	log *log.Logger
}

func NewServer(ctx context.Context, cfg *config.Config, st *studio.Studio, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	if strings.EqualFold(cfg.LogLevel, "debug") {
		e.Logger.SetLevel(glog.DEBUG)
	} else {
		e.Logger.SetLevel(glog.INFO)
	}

	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			kv := []any{"method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency, "request_id", v.RequestID}
			if v.Error != nil {
				logger.Warn("request", append(kv, "error", v.Error)...)
				return nil
			}
			logger.Info("request", kv...)
			return nil
		},
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
	}))
	// Leave room for multipart framing on top of the largest accepted file.
	e.Use(middleware.BodyLimit(fmt.Sprintf("%dK", cfg.MaxUploadBytes>>10+1024)))

	s := &Server{
		Echo:   e,
		Studio: st,
		Config: cfg,
		Ctx:    ctx,
		log:    logger,
	}

	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.Echo.GET("/", s.handleGetRoot)

	api := s.Echo.Group("/api")
	api.POST("/sessions", s.handlePostSession)
	api.GET("/sessions/:id", s.handleGetSession)
	api.DELETE("/sessions/:id", s.handleDeleteSession)
	api.GET("/sessions/:id/script", s.handleGetScript)
	api.POST("/sessions/:id/upload", s.handlePostUpload)
	api.POST("/sessions/:id/generate", s.handlePostGenerate)
	api.POST("/sessions/:id/annotate", s.handlePostAnnotate)
}

func (s *Server) Start(addr string) error {
	s.log.Info("server listening", "addr", addr, "upload_mode", s.Config.UploadMode, "provider", s.Config.Provider)
	return s.Echo.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down server")
	return s.Echo.Shutdown(ctx)
}
