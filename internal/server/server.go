// Package server exposes the search engine over HTTP.
package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/labstack/echo"
	"github.com/labstack/echo/middleware"
	"go.uber.org/zap"

	"github.com/inodb/vibe-search/internal/output"
	"github.com/inodb/vibe-search/internal/search"
)

// Searcher runs one search request.
type Searcher interface {
	Search(ctx context.Context, c *search.Criteria) (*output.Results, error)
}

// Server routes HTTP requests to a Searcher.
type Server struct {
	echo     *echo.Echo
	searcher Searcher
	defaults search.Defaults
	logger   *zap.Logger
}

// New creates a server for searcher.
func New(searcher Searcher, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{echo: echo.New(), searcher: searcher, defaults: search.StandardDefaults, logger: logger}
	s.echo.HideBanner = true
	s.echo.Use(middleware.Recover())
	s.echo.Use(s.logRequests)

	s.echo.GET("/health", s.health)
	s.echo.POST("/search", s.search)
	return s
}

// SetDefaults sets the values filled into unset request fields.
func (s *Server) SetDefaults(d search.Defaults) {
	s.defaults = d
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start listens on addr until Shutdown is called.
func (s *Server) Start(addr string) error {
	s.logger.Info("listening", zap.String("addr", addr))
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server, waiting for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) logRequests(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		s.logger.Debug("request",
			zap.String("method", c.Request().Method),
			zap.String("path", c.Path()),
			zap.Int("status", c.Response().Status),
			zap.Duration("elapsed", time.Since(start)))
		return err
	}
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) search(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return s.fail(c, http.StatusBadRequest, err)
	}
	criteria, err := search.ParseCriteriaWithDefaults(body, s.defaults)
	if err != nil {
		return s.fail(c, http.StatusBadRequest, err)
	}

	res, err := s.searcher.Search(c.Request().Context(), criteria)
	if err != nil {
		return s.fail(c, statusFor(err), err)
	}
	data, err := json.Marshal(res)
	if err != nil {
		return s.fail(c, http.StatusInternalServerError, err)
	}
	return c.JSONBlob(http.StatusOK, data)
}

func (s *Server) fail(c echo.Context, status int, err error) error {
	if status >= http.StatusInternalServerError {
		s.logger.Error("search failed", zap.Int("status", status), zap.Error(err))
	}
	return c.JSON(status, map[string]string{"error": err.Error()})
}

// statusFor maps search errors to HTTP status codes.
func statusFor(err error) int {
	var invalid *search.InvalidSearchError
	var unsupported *search.UnsupportedOperationError
	switch {
	case errors.As(err, &invalid):
		return http.StatusBadRequest
	case errors.As(err, &unsupported):
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}
