// Package http serves the rooty admin surface: health, service and hook
// introspection, the plugins screen, ACF options pages and metrics.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/rooty/internal/abort"
	"github.com/fyrsmithlabs/rooty/internal/app"
	"github.com/fyrsmithlabs/rooty/internal/logging"
	"github.com/fyrsmithlabs/rooty/internal/platform"
	"github.com/fyrsmithlabs/rooty/internal/telemetry"
)

// Server provides the HTTP endpoints of a booted application.
type Server struct {
	echo    *echo.Echo
	app     *app.Application
	logger  *logging.Logger
	config  *Config
	tel     *telemetry.Telemetry
	metrics *HTTPMetrics
	users   UserResolver
	pages   *pageTemplates

	writeLimiter echo.MiddlewareFunc
}

// Config holds HTTP server configuration.
type Config struct {
	Host string
	Port int

	// WriteRate limits admin form posts per client IP, in requests per
	// second. Zero selects DefaultWriteRate.
	WriteRate  float64
	WriteBurst int
}

// Admin form post limits applied when Config leaves them zero.
const (
	DefaultWriteRate  = 5
	DefaultWriteBurst = 10
)

// UserResolver maps an incoming request to the acting user. A nil user is
// an anonymous visitor.
type UserResolver func(r *http.Request) *platform.User

// LocalAdmin is the default resolver. The server binds to loopback by
// default and every request acts as the site administrator.
func LocalAdmin(*http.Request) *platform.User {
	return &platform.User{ID: 1, Login: "admin", DisplayName: "Administrator", Roles: []string{"administrator"}}
}

// Option configures a Server.
type Option func(*Server)

// WithTelemetry records HTTP metrics on the telemetry meter and reports
// its health on /health.
func WithTelemetry(t *telemetry.Telemetry) Option {
	return func(s *Server) { s.tel = t }
}

// WithUserResolver replaces LocalAdmin.
func WithUserResolver(fn UserResolver) Option {
	return func(s *Server) {
		if fn != nil {
			s.users = fn
		}
	}
}

// NewServer creates the server for a booted application. A nil cfg takes
// host and port from the application configuration.
func NewServer(a *app.Application, logger *logging.Logger, cfg *Config, opts ...Option) (*Server, error) {
	if a == nil {
		return nil, fmt.Errorf("application cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if _, ok := a.Abort().(*abort.CLIManager); ok {
		return nil, fmt.Errorf("%w: the http server cannot run with the cli abort manager", abort.ErrUnknownManager)
	}
	if cfg == nil {
		sc := a.Config().Server
		cfg = &Config{Host: sc.Host, Port: sc.Port}
	}
	c := *cfg
	if c.WriteRate <= 0 {
		c.WriteRate = DefaultWriteRate
	}
	if c.WriteBurst <= 0 {
		c.WriteBurst = DefaultWriteBurst
	}
	cfg = &c

	s := &Server{
		app:    a,
		logger: logger.Named("http"),
		config: cfg,
		users:  LocalAdmin,
	}
	for _, opt := range opts {
		opt(s)
	}

	pages, err := newPageTemplates(a.Hooks())
	if err != nil {
		return nil, err
	}
	s.pages = pages

	meter := s.tel.Meter(httpInstrumentationName)
	s.metrics = NewHTTPMetrics(meter, s.logger.Underlying())

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.handleError

	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: logging.NewRequestID,
	}))
	e.Use(s.requestLogger)
	e.Use(s.metrics.MetricsMiddleware())
	e.Use(s.platformRequest)
	e.Use(s.abortRecovery)

	s.echo = e
	s.writeLimiter = s.newWriteLimiter()
	s.registerRoutes()
	return s, nil
}

func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	v1 := s.echo.Group("/api/v1")
	v1.GET("/services", s.handleServices)
	v1.GET("/hooks", s.handleHooks)
	v1.GET("/plugins", s.handlePluginsJSON)

	admin := s.echo.Group("/wp-admin")
	admin.GET("/plugins.php", s.handlePlugins)
	admin.POST("/plugins.php", s.handleActivatePlugin, s.writeLimiter)
	admin.GET("/admin.php", s.handleOptionsPage)
	admin.POST("/admin.php", s.handleSaveOptionsPage, s.writeLimiter)
}

// Echo returns the underlying echo instance.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// Start starts the HTTP server and blocks until it stops. A graceful
// shutdown returns nil.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info(context.Background(), "starting http server", zap.String("addr", addr))
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info(ctx, "shutting down http server")
	return s.echo.Shutdown(ctx)
}
