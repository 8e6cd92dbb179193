package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/tphakala/orderlens/internal/logger"
)

// Server is the OrderLens HTTP server.
type Server struct {
	echo       *echo.Echo
	config     *Config
	controller *Controller
	log        logger.Logger

	metricsHandler http.Handler

	mu       sync.Mutex
	listener net.Listener
}

// ServerOption is a functional option for configuring the Server.
type ServerOption func(*Server)

// WithLogger sets the server logger.
func WithLogger(log logger.Logger) ServerOption {
	return func(s *Server) {
		if log != nil {
			s.log = log.Module("api")
		}
	}
}

// WithMetrics exposes h on GET /metrics.
func WithMetrics(h http.Handler) ServerOption {
	return func(s *Server) {
		s.metricsHandler = h
	}
}

// New creates a server answering queries with queries and health checks with health.
func New(cfg *Config, queries QueryRunner, health HealthChecker, opts ...ServerOption) (*Server, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid server configuration: %w", err)
	}
	if queries == nil || health == nil {
		return nil, fmt.Errorf("query runner and health checker are required")
	}

	s := &Server{
		config: cfg,
		log:    logger.NewSlogLogger(nil, logger.LogLevelInfo, nil).Module("api"),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.controller = NewController(queries, health, s.log)
	s.echo = s.newEcho()
	return s, nil
}

func (s *Server) newEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Debug = s.config.Debug
	e.Logger = newEchoLogger(s.log.With(logger.String("source", "echo")))

	e.Server.ReadTimeout = s.config.ReadTimeout
	e.Server.WriteTimeout = s.config.WriteTimeout
	e.Server.IdleTimeout = s.config.IdleTimeout

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.BodyLimit(s.config.BodyLimit))
	e.Use(s.requestLogger())

	v1 := e.Group("/api/v1")
	v1.POST("/query", s.controller.HandleQuery, s.queryRateLimiter()...)
	v1.GET("/health", s.controller.HandleHealth)

	if s.metricsHandler != nil {
		e.GET("/metrics", echo.WrapHandler(s.metricsHandler))
	}
	return e
}

// queryRateLimiter throttles query requests per client IP. Idle clients are
// forgotten after a few minutes.
func (s *Server) queryRateLimiter() []echo.MiddlewareFunc {
	if s.config.QueryRate <= 0 {
		return nil
	}
	store := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(s.config.QueryRate),
		Burst:     s.config.QueryBurst,
		ExpiresIn: 3 * time.Minute,
	})
	return []echo.MiddlewareFunc{middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: store,
		DenyHandler: func(c echo.Context, _ string, err error) error {
			return s.controller.HandleError(c, err, "Too many query requests", http.StatusTooManyRequests)
		},
	})}
}

// requestLogger logs each request, skipping metric scrapes.
func (s *Server) requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []logger.Field{
				logger.String("method", v.Method),
				logger.String("uri", v.URI),
				logger.Int("status", v.Status),
				logger.String("ip", v.RemoteIP),
				logger.String("request_id", v.RequestID),
				logger.Duration("latency", v.Latency),
			}
			if v.Error != nil {
				fields = append(fields, logger.Error(v.Error))
			}
			s.log.Info("request", fields...)
			return nil
		},
	})
}

// Echo returns the underlying Echo instance.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// Addr returns the bound listen address once the server is running.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Run serves HTTP requests until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Listen)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.config.Listen, err)
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()
	s.echo.Listener = ln

	s.log.Info("starting HTTP server", logger.String("address", ln.Addr().String()))

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.echo.Start("")
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
		s.log.Info("shutdown requested, stopping HTTP server")
		if err := s.Shutdown(); err != nil {
			return err
		}
		<-errCh
		return nil
	}
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()

	if err := s.echo.Shutdown(ctx); err != nil {
		s.log.Error("error during server shutdown", logger.Error(err))
		return fmt.Errorf("shutdown error: %w", err)
	}
	return nil
}
