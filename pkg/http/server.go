package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"FinCast/pkg/http/middleware"
	applogger "FinCast/pkg/logger"
)

// ServerOption configures Server.
type ServerOption func(*ServerConfig)

// ServerConfig holds server configuration.
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	SlowThreshold   time.Duration
	AllowOrigins    []string
	RateLimitRPS    float64
	RateLimitBurst  int
	MetricsPath     string
	Registry        *prometheus.Registry
	Logger          *applogger.Logger
}

// Server wraps Echo HTTP server.
type Server struct {
	echo   *echo.Echo
	config *ServerConfig
}

// NewServer creates an Echo server with recovery, request logging, request
// metrics, CORS and optional per-client rate limiting, then lets handler
// register its routes. cfg.MetricsPath, when set, exposes cfg.Registry.
func NewServer(handler Handler, opts ...ServerOption) *Server {
	cfg := &ServerConfig{
		Host:            "0.0.0.0",
		Port:            8000,
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    15 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		AllowOrigins:    []string{"*"},
		RateLimitBurst:  20,
		MetricsPath:     "/metrics",
		Logger:          applogger.Nop(),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.Registry == nil {
		cfg.Registry = prometheus.NewRegistry()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover(cfg.Logger))
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogging(cfg.Logger))
	e.Use(middleware.NewHTTPMetrics(cfg.Registry).Middleware(cfg.Logger, cfg.SlowThreshold))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{
			echo.HeaderOrigin,
			echo.HeaderContentType,
			echo.HeaderAccept,
			echo.HeaderAuthorization,
		},
	}))
	if cfg.RateLimitRPS > 0 {
		e.Use(middleware.RateLimit(middleware.NewLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, 10*time.Minute)))
	}

	if handler != nil {
		handler.RegisterRoutes(e)
	}
	if cfg.MetricsPath != "" {
		e.GET(cfg.MetricsPath, echo.WrapHandler(promhttp.HandlerFor(cfg.Registry, promhttp.HandlerOpts{Registry: cfg.Registry})))
	}

	return &Server{echo: e, config: cfg}
}

// Addr is the listen address.
func (s *Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.Addr(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.config.Logger.Info("http server listening", applogger.String("addr", srv.Addr))
		errCh <- s.echo.StartServer(srv)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	return s.Stop(shutdownCtx)
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}
	s.config.Logger.Info("http server stopped")
	return nil
}

// Echo returns the underlying Echo instance.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// WithHost sets server host.
func WithHost(host string) ServerOption {
	return func(c *ServerConfig) {
		c.Host = host
	}
}

// WithPort sets server port.
func WithPort(port int) ServerOption {
	return func(c *ServerConfig) {
		c.Port = port
	}
}

// WithTimeouts sets read/write/shutdown timeouts.
func WithTimeouts(read, write, shutdown time.Duration) ServerOption {
	return func(c *ServerConfig) {
		c.ReadTimeout = read
		c.WriteTimeout = write
		c.ShutdownTimeout = shutdown
	}
}

// WithSlowThreshold logs requests slower than d as warnings.
func WithSlowThreshold(d time.Duration) ServerOption {
	return func(c *ServerConfig) {
		c.SlowThreshold = d
	}
}

// WithAllowOrigins sets the CORS origin allow list.
func WithAllowOrigins(origins []string) ServerOption {
	return func(c *ServerConfig) {
		if len(origins) > 0 {
			c.AllowOrigins = origins
		}
	}
}

// WithRateLimit enables per-client rate limiting; rps 0 disables it.
func WithRateLimit(rps float64, burst int) ServerOption {
	return func(c *ServerConfig) {
		c.RateLimitRPS = rps
		c.RateLimitBurst = burst
	}
}

// WithRegistry serves and records metrics on reg.
func WithRegistry(reg *prometheus.Registry) ServerOption {
	return func(c *ServerConfig) {
		c.Registry = reg
	}
}

// WithMetricsPath serves metrics at path; "" disables the endpoint.
func WithMetricsPath(path string) ServerOption {
	return func(c *ServerConfig) {
		c.MetricsPath = path
	}
}

// WithLogger sets the server logger.
func WithLogger(l *applogger.Logger) ServerOption {
	return func(c *ServerConfig) {
		if l != nil {
			c.Logger = l
		}
	}
}
