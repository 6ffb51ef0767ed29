// Package http provides the HTTP API for complyd.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/complyd/internal/compliance"
)

// Server exposes the validate and correct operations over HTTP.
type Server struct {
	echo    *echo.Echo
	service *compliance.Service
	logger  *zap.Logger
	config  *Config
}

// Config holds HTTP server configuration.
type Config struct {
	Host string
	Port int
}

// NewServer creates a new HTTP server.
func NewServer(service *compliance.Service, logger *zap.Logger, cfg *Config) (*Server, error) {
	if service == nil {
		return nil, fmt.Errorf("service cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = &Config{
			Host: "localhost",
			Port: 9070,
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			duration := time.Since(start)

			logger.Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", duration),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)

			return err
		}
	})

	s := &Server{
		echo:    e,
		service: service,
		logger:  logger,
		config:  cfg,
	}

	// Register routes
	s.registerRoutes()

	return s, nil
}

// registerRoutes sets up the HTTP endpoints.
func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	v1 := s.echo.Group("/api/v1")
	v1.POST("/validate", s.handleValidate)
	v1.POST("/correct", s.handleCorrect)
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

// handleHealth returns a simple health check response.
func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// handleValidate evaluates the requested modules against a document.
func (s *Server) handleValidate(c echo.Context) error {
	var req compliance.ValidateRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn("invalid validate request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	resp, err := s.service.Validate(c.Request().Context(), req)
	if err != nil {
		return badRequestOr500(err)
	}

	s.logger.Debug("validated document",
		zap.String("request_id", resp.RequestID),
		zap.Int("gates", len(resp.Validation.Results)),
		zap.Bool("degraded", resp.Validation.Degraded),
	)

	return c.JSON(http.StatusOK, resp)
}

// correctRequest wraps the service request with surface-only defaults.
type correctRequest struct {
	compliance.CorrectRequest

	// AutoApply defaults to true on the wire; a pointer distinguishes
	// "absent" from an explicit false.
	AutoApply *bool `json:"auto_apply"`
}

// handleCorrect validates a document and synthesizes corrections.
func (s *Server) handleCorrect(c echo.Context) error {
	var req correctRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn("invalid correct request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	req.CorrectRequest.AutoApply = req.AutoApply == nil || *req.AutoApply

	resp, err := s.service.Correct(c.Request().Context(), req.CorrectRequest)
	if err != nil {
		return badRequestOr500(err)
	}

	s.logger.Debug("corrected document",
		zap.String("request_id", resp.RequestID),
		zap.Bool("applied", resp.Applied),
		zap.Int("corrections", len(resp.Result.Corrections)),
		zap.String("fingerprint", resp.Result.Fingerprint),
	)

	return c.JSON(http.StatusOK, resp)
}

// badRequestOr500 maps caller mistakes to 400 and everything else to 500.
func badRequestOr500(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "request cancelled")
	}
	if compliance.IsRequestError(err) {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info("starting http server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}
