// Package server exposes the analysis pipeline over HTTP and pushes
// job progress over WebSocket.
package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"fewknow/internal/interfaces"
	"fewknow/internal/jobs"
	"fewknow/internal/logger"
	"fewknow/internal/store"
)

const version = "1.0.0"

// Server wires the HTTP routes to the pipeline.
type Server struct {
	echo      *echo.Echo
	cfg       *store.Config
	pipeline  *jobs.Pipeline
	validator interfaces.TickerValidator
}

// New creates the HTTP server
func New(cfg *store.Config, pipeline *jobs.Pipeline, validator interfaces.TickerValidator) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.Server.AllowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
	}))

	s := &Server{echo: e, cfg: cfg, pipeline: pipeline, validator: validator}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.echo.GET("/", s.health)
	s.echo.POST("/api/analyze", s.analyze)
	s.echo.GET("/api/status/:job_id", s.status)
	s.echo.GET("/api/result/:job_id", s.result)
	s.echo.GET("/api/validate/:ticker", s.validate)
	s.echo.GET("/ws/:job_id", s.websocket)
}

// Start blocks serving HTTP on the configured address.
func (s *Server) Start() error {
	logger.Info(context.Background(), "HTTP server starting", "addr", s.cfg.Server.Addr)
	return s.echo.Start(s.cfg.Server.Addr)
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// Echo exposes the router, mainly for tests.
func (s *Server) Echo() *echo.Echo { return s.echo }

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "fewknow",
		"version": version,
	})
}

type analyzeRequest struct {
	Ticker string `json:"ticker"`
}

func (s *Server) analyze(c echo.Context) error {
	var req analyzeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Ticker == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "ticker is required")
	}

	jobID, err := s.pipeline.Submit(c.Request().Context(), req.Ticker)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return c.JSON(http.StatusAccepted, map[string]string{
		"job_id": jobID,
		"status": "pending",
	})
}

func (s *Server) status(c echo.Context) error {
	st, err := s.pipeline.Store().Status(c.Param("job_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "job not found")
	}
	return c.JSON(http.StatusOK, st)
}

func (s *Server) result(c echo.Context) error {
	res, err := s.pipeline.Store().FetchResult(c.Param("job_id"))
	switch {
	case errors.Is(err, jobs.ErrExpired):
		return echo.NewHTTPError(http.StatusGone, "job result expired")
	case errors.Is(err, jobs.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "job result not found")
	case err != nil:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, res)
}

func (s *Server) validate(c echo.Context) error {
	info, err := s.validator.Validate(c.Request().Context(), c.Param("ticker"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return c.JSON(http.StatusOK, info)
}
