// Package main boots the atiendo API server: configuration, the DI
// container, the event pipeline and the Echo HTTP listener.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/atiendo/atiendo/internal/config"
)

// gracefulShutdownSleep gives background services a moment to drain
// after their context is cancelled, before connections are closed.
const gracefulShutdownSleep = 100 * time.Millisecond

func main() {
	cfg, err := config.Load()
	if err != nil {
		//nolint:sloglint // No context available before logger setup
		slog.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := setupLogger(cfg)

	if runErr := run(cfg, logger); runErr != nil {
		logger.Error("server exited", slog.String("error", runErr.Error()))
		os.Exit(1)
	}
}

// run wires the container, starts the event pipeline and serves HTTP
// until a shutdown signal arrives.
func run(cfg *config.Config, logger *slog.Logger) error {
	logger.Info("starting atiendo API server",
		slog.String("environment", getEnvironment(cfg)),
	)

	container, err := NewContainer(cfg, WithLogger(logger))
	if err != nil {
		return fmt.Errorf("build container: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if startErr := container.StartEventBus(ctx); startErr != nil {
		_ = container.Close()
		return fmt.Errorf("start event bus: %w", startErr)
	}
	container.StartHub(ctx)

	e := SetupRoutes(container).Echo()
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout

	go gracefulShutdown(ctx, cancel, e, container, cfg.Server.ShutdownTimeout, logger)

	logger.Info("server listening",
		slog.String("address", cfg.Server.Address()),
		slog.Duration("read_timeout", cfg.Server.ReadTimeout),
		slog.Duration("write_timeout", cfg.Server.WriteTimeout),
	)

	if serveErr := e.Start(cfg.Server.Address()); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
		cancel()
		_ = container.Close()
		return fmt.Errorf("serve: %w", serveErr)
	}

	return nil
}

// setupLogger creates and configures the structured logger based on configuration.
func setupLogger(cfg *config.Config) *slog.Logger {
	var handler slog.Handler

	level := parseLogLevel(cfg.Log.Level)
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: cfg.IsDevelopment(),
	}

	switch cfg.Log.Format {
	case "text":
		handler = slog.NewTextHandler(os.Stdout, opts)
	default: // "json" or any other value defaults to JSON
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts a string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// getEnvironment returns the environment name based on configuration.
func getEnvironment(cfg *config.Config) string {
	if cfg.IsProduction() {
		return "production"
	}
	return "development"
}

// gracefulShutdown waits for a termination signal, drains the HTTP
// server and then tears down the container. Draining first keeps
// in-flight requests working against live repositories; the container
// closes its connections only once they are done.
func gracefulShutdown(
	ctx context.Context,
	cancel context.CancelFunc,
	e *echo.Echo,
	container *Container,
	shutdownTimeout time.Duration,
	logger *slog.Logger,
) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)

	logCtx := context.Background()
	select {
	case sig := <-quit:
		logger.InfoContext(logCtx, "shutdown signal received", slog.String("signal", sig.String()))
	case <-ctx.Done():
		logger.InfoContext(logCtx, "shutting down, context cancelled")
	}

	drainCtx, drainCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer drainCancel()

	if err := e.Shutdown(drainCtx); err != nil {
		logger.ErrorContext(drainCtx, "http server drain failed", slog.String("error", err.Error()))
	}

	// Stop the event bus loop and the hub before closing their
	// connections.
	cancel()
	time.Sleep(gracefulShutdownSleep)

	if err := container.Close(); err != nil {
		logger.ErrorContext(drainCtx, "container close failed", slog.String("error", err.Error()))
	}

	logger.InfoContext(drainCtx, "shutdown complete")
}
