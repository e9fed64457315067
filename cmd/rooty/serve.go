package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/rooty/internal/acf"
	"github.com/fyrsmithlabs/rooty/internal/app"
	"github.com/fyrsmithlabs/rooty/internal/config"
	httpserver "github.com/fyrsmithlabs/rooty/internal/http"
	"github.com/fyrsmithlabs/rooty/internal/logging"
	"github.com/fyrsmithlabs/rooty/internal/telemetry"
)

var watchJSON bool

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().BoolVar(&watchJSON, "watch", true, "reload ACF local JSON field groups when they change")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Boot the application and serve the admin surface",
	Long: `Boot the application and serve the admin surface until SIGINT or SIGTERM.

Examples:
  # Serve on the configured port
  rooty serve

  # Use another config file and disable the local JSON watcher
  rooty serve --config /etc/rooty/config.yaml --watch=false`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return runServe(ctx)
	},
}

// newLogger builds the process logger from cfg. Logs go to stderr so
// command output on stdout stays parseable.
func newLogger(cfg *config.Config) (*logging.Logger, error) {
	lc, err := logging.FromConfig(cfg)
	if err != nil {
		return nil, err
	}
	lc.Output.Writer = os.Stderr
	// No OTEL log exporter is configured; the bridge stays off.
	lc.Output.OTEL = false
	return logging.NewLogger(lc, nil)
}

// loadApp loads the configuration and builds the application without
// booting it.
func loadApp(opts ...app.Option) (*app.Application, *logging.Logger, error) {
	cfg, err := config.LoadWithFile(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	a, err := app.New(cfg, logger, nil, opts...)
	if err != nil {
		return nil, nil, err
	}
	return a, logger, nil
}

// runServe boots the application and blocks until ctx is cancelled.
//
//  1. Loads and validates configuration
//  2. Initializes logger and telemetry
//  3. Boots the application (services, hooks, ACF)
//  4. Starts the local JSON watcher
//  5. Starts the HTTP server and shuts it down gracefully on cancellation
func runServe(ctx context.Context) error {
	cfg, err := config.LoadWithFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = logger.Sync() // Best-effort sync on shutdown
	}()

	tel, err := telemetry.New(ctx, telemetry.FromConfig(cfg, version), logger.Component("telemetry"))
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		if err := tel.Shutdown(context.Background()); err != nil {
			logger.Warn(ctx, "telemetry shutdown failed", zap.Error(err))
		}
	}()

	logger.Info(ctx, "starting rooty",
		zap.String("version", version),
		zap.String("env", cfg.App.Env),
		zap.String("root", cfg.App.Root),
		zap.Int("port", cfg.Server.Port),
		zap.Duration("shutdown_timeout", cfg.Server.ShutdownTimeout))

	a, err := app.New(cfg, logger, nil, app.WithTelemetry(tel))
	if err != nil {
		return err
	}
	if err := a.Boot(ctx); err != nil {
		return err
	}

	if watchJSON {
		w, err := startWatcher(ctx, a, logger)
		if err != nil {
			logger.Warn(ctx, "[ACF] local JSON watcher disabled", zap.Error(err))
		} else if w != nil {
			defer w.Stop()
		}
	}

	srv, err := httpserver.NewServer(a, logger, nil, httpserver.WithTelemetry(tel))
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info(context.Background(), "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info(context.Background(), "server shutdown complete")
	return nil
}

// startWatcher watches the ACF local JSON directories. It returns nil
// without error when ACF did not boot or no directory exists.
func startWatcher(ctx context.Context, a *app.Application, logger *logging.Logger) (*acf.Watcher, error) {
	svc, err := a.ACF()
	if err != nil {
		return nil, nil
	}
	settings := svc.Settings()
	dirs := append([]string{settings.SaveJSON}, settings.LoadJSON...)

	w, err := acf.NewWatcher(svc.Store(), dirs, logger.Component("acf"))
	if err != nil {
		return nil, err
	}
	if len(w.Dirs()) == 0 {
		w.Stop()
		return nil, nil
	}
	if err := w.Start(ctx); err != nil {
		w.Stop()
		return nil, err
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events():
				if !ok {
					return
				}
				if ev.Err != nil {
					logger.Warn(ctx, "[ACF] local JSON sync failed", zap.String("path", ev.Path), zap.Error(ev.Err))
					continue
				}
				logger.Info(ctx, "[ACF] local JSON synced",
					zap.Stringer("op", ev.Op),
					zap.String("path", ev.Path),
					zap.String("group", ev.GroupKey))
			}
		}
	}()

	logger.Info(ctx, "[ACF] watching local JSON", zap.Strings("dirs", w.Dirs()))
	return w, nil
}
