// Package main provides the outbox relay worker entry point.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/atiendo/atiendo/internal/config"
	"github.com/atiendo/atiendo/internal/infrastructure/eventbus"
	"github.com/atiendo/atiendo/internal/infrastructure/metrics"
	inframongo "github.com/atiendo/atiendo/internal/infrastructure/mongodb"
	"github.com/atiendo/atiendo/internal/infrastructure/outbox"
	"github.com/atiendo/atiendo/internal/worker"
)

// Timeout constants for the worker service.
const redisPingTimeout = 5 * time.Second

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		//nolint:sloglint // No context available before logger setup
		slog.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Setup logger
	logger := setupLogger(cfg)

	logger.Info("starting atiendo relay worker",
		slog.String("version", "0.1.0"),
		slog.String("environment", getEnvironment(cfg)),
	)

	// Create a context that will be cancelled on shutdown signal
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup graceful shutdown
	go handleShutdown(cancel, logger)

	// Connect to MongoDB
	mongoClient, err := connectMongoDB(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to connect to MongoDB", slog.String("error", err.Error()))
		cancel()
		os.Exit(1) //nolint:gocritic // cancel() called before exit
	}
	defer func() {
		if disconnectErr := mongoClient.Disconnect(context.Background()); disconnectErr != nil {
			logger.Error("failed to disconnect from MongoDB", slog.String("error", disconnectErr.Error()))
		}
	}()

	// Setup Redis for the event bus
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})
	defer func() {
		if closeErr := redisClient.Close(); closeErr != nil {
			logger.Error("failed to close Redis", slog.String("error", closeErr.Error()))
		}
	}()

	// Verify Redis connection
	pingCtx, pingCancel := context.WithTimeout(ctx, redisPingTimeout)
	if pingErr := redisClient.Ping(pingCtx).Err(); pingErr != nil {
		pingCancel()
		logger.Error("failed to connect to Redis", slog.String("error", pingErr.Error()))
		os.Exit(1)
	}
	pingCancel()

	logger.InfoContext(ctx, "connected to Redis", slog.String("addr", cfg.Redis.Addr))

	// The relay publishes drained entries to Redis so every API
	// instance sees them.
	eventBus := eventbus.NewRedisEventBus(
		redisClient,
		eventbus.WithLogger(logger),
		eventbus.WithChannelPrefix(cfg.EventBus.RedisChannelPrefix),
	)

	// Setup the outbox
	db := mongoClient.Database(cfg.MongoDB.Database)
	outboxColl := db.Collection(inframongo.CollectionOutbox)
	mongoOutbox := outbox.NewMongoOutbox(outboxColl, outbox.WithLogger(logger))

	// Setup metrics
	outboxMetrics := metrics.NewOutboxMetrics(prometheus.DefaultRegisterer)

	// Setup the relay
	relayConfig := worker.DefaultOutboxRelayConfig()
	relayConfig.Enabled = cfg.EventBus.Outbox

	relay := worker.NewOutboxRelay(
		mongoOutbox,
		eventBus,
		logger,
		relayConfig,
		outboxMetrics,
	)

	logger.Info("starting outbox relay",
		slog.Bool("enabled", relayConfig.Enabled),
		slog.Duration("poll_interval", relayConfig.PollInterval),
		slog.Int("batch_size", relayConfig.BatchSize),
	)

	if runErr := relay.Run(ctx); runErr != nil && !errors.Is(runErr, context.Canceled) {
		logger.Error("outbox relay error", slog.String("error", runErr.Error()))
		os.Exit(1)
	}

	logger.Info("relay worker shutdown complete")
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
	default:
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

// connectMongoDB establishes a connection to MongoDB.
func connectMongoDB(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*mongo.Client, error) {
	clientOpts := options.Client().
		ApplyURI(cfg.MongoDB.URI).
		SetMaxPoolSize(cfg.MongoDB.MaxPoolSize)

	client, err := mongo.Connect(clientOpts)
	if err != nil {
		return nil, err
	}

	// Ping to verify connection
	pingCtx, pingCancel := context.WithTimeout(ctx, cfg.MongoDB.Timeout)
	defer pingCancel()

	if pingErr := client.Ping(pingCtx, nil); pingErr != nil {
		return nil, pingErr
	}

	logger.InfoContext(ctx, "connected to MongoDB",
		slog.String("database", cfg.MongoDB.Database),
	)

	return client, nil
}

// handleShutdown listens for OS signals and cancels the context.
func handleShutdown(cancel context.CancelFunc, logger *slog.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)

	sig := <-quit
	logger.Info("received shutdown signal", slog.String("signal", sig.String()))
	cancel()
}
