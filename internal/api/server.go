// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package api exposes authflow over HTTP with echo.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/samber/oops"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/holomush/authflow/internal/auth"
	"github.com/holomush/authflow/internal/observability"
	"github.com/holomush/authflow/pkg/authflow"
)

const tracerName = "github.com/holomush/authflow/internal/api"

// AuthService is the subset of authflow.Service used by the API.
type AuthService interface {
	Register(ctx context.Context, input authflow.RegisterInput) (*auth.Account, error)
	Login(ctx context.Context, input authflow.LoginInput) (authflow.LoginResult[*auth.Account], error)
	Validate(ctx context.Context, token string) authflow.ValidationResult[*auth.Account]
	Logout(ctx context.Context, token string) error
}

var _ AuthService = (*authflow.Service[*auth.Account])(nil)

// Server serves the /v1 auth endpoints.
type Server struct {
	echo    *echo.Echo
	auth    AuthService
	metrics *observability.Metrics
	logger  *slog.Logger
	tracer  trace.Tracer

	listener   net.Listener
	httpServer *http.Server
	running    atomic.Bool
}

// Option configures a Server.
type Option func(*Server)

// WithMetrics records every request in m.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithLogger replaces slog.Default.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithTracerProvider replaces the global tracer provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Server) { s.tracer = tp.Tracer(tracerName) }
}

// New builds the echo router for svc.
func New(svc AuthService, opts ...Option) *Server {
	s := &Server{
		auth:   svc,
		logger: slog.Default(),
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.handleHTTPError

	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:     true,
		LogURIPath:    true,
		LogStatus:     true,
		LogLatency:    true,
		LogRequestID:  true,
		LogValuesFunc: s.logRequest,
	}))
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			s.logger.ErrorContext(c.Request().Context(), "panic recovered",
				"error", err, "stack", string(stack))
			return err
		},
	}))

	v1 := e.Group("/v1")
	v1.POST("/register", s.handleRegister)
	v1.POST("/login", s.handleLogin)
	v1.POST("/validate", s.handleValidate)
	v1.POST("/logout", s.handleLogout)

	s.echo = e
	return s
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) logRequest(c echo.Context, v middleware.RequestLoggerValues) error {
	s.logger.DebugContext(c.Request().Context(), "request",
		"method", v.Method,
		"path", v.URIPath,
		"status", v.Status,
		"latency", v.Latency,
		"request_id", v.RequestID,
	)
	return nil
}

// Start listens on addr and serves in the background. The returned channel
// receives a serve error if the server fails after starting, and is closed
// when it stops.
func (s *Server) Start(addr string) (<-chan error, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, oops.Errorf("api server already running")
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		s.running.Store(false)
		return nil, oops.Code("API_LISTEN_FAILED").With("addr", addr).Wrap(err)
	}
	s.listener = listener

	httpSrv := &http.Server{
		Handler:           s.echo,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.httpServer = httpSrv

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		if serveErr := httpSrv.Serve(listener); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			s.logger.Error("api server error", "error", serveErr)
			errCh <- serveErr
		}
	}()

	s.logger.Info("api server started", "addr", listener.Addr().String())
	return errCh, nil
}

// Stop drains in-flight requests until ctx is done.
func (s *Server) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}
	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.running.Store(true)
		return oops.With("operation", "shutdown_api_server").Wrap(err)
	}
	s.logger.Info("api server stopped")
	return nil
}

// Addr returns the listening address, or "" if never started.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}
