package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	chatapp "github.com/atiendo/atiendo/internal/application/chat"
	messageapp "github.com/atiendo/atiendo/internal/application/message"
	visitorapp "github.com/atiendo/atiendo/internal/application/visitor"
	"github.com/atiendo/atiendo/internal/config"
	domainchat "github.com/atiendo/atiendo/internal/domain/chat"
	"github.com/atiendo/atiendo/internal/domain/event"
	domainmessage "github.com/atiendo/atiendo/internal/domain/message"
	"github.com/atiendo/atiendo/internal/domain/uuid"
	httphandler "github.com/atiendo/atiendo/internal/handler/http"
	wshandler "github.com/atiendo/atiendo/internal/handler/websocket"
	"github.com/atiendo/atiendo/internal/infrastructure/ai"
	"github.com/atiendo/atiendo/internal/infrastructure/eventbus"
	"github.com/atiendo/atiendo/internal/infrastructure/httpserver"
	"github.com/atiendo/atiendo/internal/infrastructure/metrics"
	inframongo "github.com/atiendo/atiendo/internal/infrastructure/mongodb"
	"github.com/atiendo/atiendo/internal/infrastructure/outbox"
	"github.com/atiendo/atiendo/internal/infrastructure/queue"
	"github.com/atiendo/atiendo/internal/infrastructure/repository/mongodb"
	ws "github.com/atiendo/atiendo/internal/infrastructure/websocket"
	"github.com/atiendo/atiendo/internal/middleware"
)

// Infrastructure timeouts.
const (
	mongoConnectTimeout = 10 * time.Second
	redisPingTimeout    = 5 * time.Second
	healthCheckTimeout  = 2 * time.Second
)

// subscribableBus is the surface shared by the in-process and Redis
// buses: publish plus per-event-type subscriptions.
type subscribableBus interface {
	event.Bus
	Subscribe(eventType string, handler eventbus.EventHandler) error
}

// Container holds all application dependencies wired together.
type Container struct {
	Config *config.Config
	Logger *slog.Logger

	// Infrastructure
	MongoClient *mongo.Client
	Database    *mongo.Database
	RedisClient *redis.Client
	Hub         *ws.Hub
	Outbox      *outbox.MongoOutbox

	// EventBus delivers events to subscribers. When the transactional
	// outbox is enabled the use cases publish through publishBus
	// instead, and the relay worker drains the outbox onto this bus.
	EventBus   subscribableBus
	redisBus   *eventbus.RedisEventBus
	publishBus event.Bus

	// Metrics
	ChatMetrics *metrics.ChatMetrics

	// Repositories
	ChatRepo    *mongodb.MongoChatRepository
	MessageRepo *mongodb.MongoMessageRepository
	VisitorRepo *mongodb.MongoVisitorRepository
	SiteRepo    *mongodb.MongoSiteRepository

	// SiteResolver maps widget site keys to tenants. Backed by the site
	// repository in production, replaceable in tests.
	SiteResolver middleware.SiteResolver

	// Services
	VisitorService *visitorapp.Service
	ChatService    httphandler.ChatService
	MessageService *messageapp.Service

	// Handlers
	VisitorHandler *httphandler.VisitorHandler
	ChatHandler    *httphandler.ChatHandler
	MessageHandler *httphandler.MessageHandler
	WSHandler      *wshandler.Handler
}

// ContainerOption configures the container during construction.
type ContainerOption func(*Container)

// WithLogger sets the logger for the container.
func WithLogger(logger *slog.Logger) ContainerOption {
	return func(c *Container) {
		c.Logger = logger
	}
}

// NewContainer builds the dependency container. Construction connects
// to MongoDB and Redis and fails fast if either is unreachable.
func NewContainer(cfg *config.Config, opts ...ContainerOption) (*Container, error) {
	c := &Container{
		Config: cfg,
		Logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	if err := c.setupInfrastructure(); err != nil {
		return nil, fmt.Errorf("failed to setup infrastructure: %w", err)
	}

	c.setupRepositories()
	c.setupServices()

	if err := c.setupEventHandlers(); err != nil {
		return nil, fmt.Errorf("failed to setup event handlers: %w", err)
	}

	c.setupHandlers()

	return c, nil
}

func (c *Container) setupInfrastructure() error {
	if err := c.setupMongoDB(); err != nil {
		return err
	}
	if err := c.setupRedis(); err != nil {
		return err
	}
	if err := c.setupEventBus(); err != nil {
		return err
	}

	c.Hub = ws.NewHub(ws.WithHubLogger(c.Logger))
	c.ChatMetrics = metrics.NewChatMetrics(prometheus.DefaultRegisterer)

	return nil
}

func (c *Container) setupMongoDB() error {
	ctx, cancel := context.WithTimeout(context.Background(), mongoConnectTimeout)
	defer cancel()

	clientOpts := options.Client().
		ApplyURI(c.Config.MongoDB.URI).
		SetMaxPoolSize(c.Config.MongoDB.MaxPoolSize)

	client, err := mongo.Connect(clientOpts)
	if err != nil {
		return fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if pingErr := client.Ping(ctx, nil); pingErr != nil {
		return fmt.Errorf("failed to ping MongoDB: %w", pingErr)
	}

	c.MongoClient = client
	c.Database = client.Database(c.Config.MongoDB.Database)

	if indexErr := inframongo.CreateAllIndexes(ctx, c.Database); indexErr != nil {
		return fmt.Errorf("failed to create indexes: %w", indexErr)
	}

	c.Logger.Info("connected to MongoDB",
		slog.String("database", c.Config.MongoDB.Database),
	)

	return nil
}

func (c *Container) setupRedis() error {
	client := redis.NewClient(&redis.Options{
		Addr:     c.Config.Redis.Addr,
		Password: c.Config.Redis.Password,
		DB:       c.Config.Redis.DB,
		PoolSize: c.Config.Redis.PoolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}

	c.RedisClient = client
	c.Logger.Info("connected to Redis", slog.String("addr", c.Config.Redis.Addr))

	return nil
}

func (c *Container) setupEventBus() error {
	switch strings.ToLower(c.Config.EventBus.Type) {
	case config.EventBusTypeRedis:
		c.redisBus = eventbus.NewRedisEventBus(
			c.RedisClient,
			eventbus.WithLogger(c.Logger),
			eventbus.WithChannelPrefix(c.Config.EventBus.RedisChannelPrefix),
		)
		c.EventBus = c.redisBus
	case config.EventBusTypeInMemory:
		c.EventBus = eventbus.NewInProcessBus(eventbus.WithInProcessLogger(c.Logger))
	default:
		return fmt.Errorf("unknown event bus type: %s", c.Config.EventBus.Type)
	}

	// With the outbox enabled, events are staged durably and the relay
	// worker publishes them. Without it, publishes go straight to the
	// bus.
	if c.Config.EventBus.Outbox {
		c.Outbox = outbox.NewMongoOutbox(
			c.Database.Collection(inframongo.CollectionOutbox),
			outbox.WithLogger(c.Logger),
		)
		c.publishBus = outbox.NewBus(c.Outbox)
	} else {
		c.publishBus = c.EventBus
	}

	return nil
}

func (c *Container) setupRepositories() {
	c.ChatRepo = mongodb.NewMongoChatRepository(c.Database.Collection(inframongo.CollectionChats))
	c.MessageRepo = mongodb.NewMongoMessageRepository(c.Database.Collection(inframongo.CollectionMessages))
	c.VisitorRepo = mongodb.NewMongoVisitorRepository(c.Database.Collection(inframongo.CollectionVisitors))
	c.SiteRepo = mongodb.NewMongoSiteRepository(c.Database.Collection(inframongo.CollectionSites))
	c.SiteResolver = c.SiteRepo
}

func (c *Container) setupServices() {
	resolverOpts := []chatapp.ResolverOption{
		chatapp.WithResolverLogger(c.Logger),
	}
	if c.Config.Queue.StrictOrdering {
		sequencer := queue.NewRedisSequencer(queue.RedisSequencerConfig{
			Client: c.RedisClient,
			TTL:    c.Config.Queue.PositionTTL,
		})
		resolverOpts = append(resolverOpts, chatapp.WithSequencer(sequencer))
	}
	resolver := chatapp.NewQueuePositionResolver(c.ChatRepo, resolverOpts...)

	c.VisitorService = visitorapp.NewService(c.VisitorRepo, c.Logger)
	c.ChatService = &instrumentedChatService{
		inner:   chatapp.NewService(c.ChatRepo, c.MessageRepo, resolver, c.publishBus, c.Logger),
		metrics: c.ChatMetrics,
	}
	c.MessageService = messageapp.NewService(c.ChatRepo, c.MessageRepo, c.publishBus, c.Logger)
}

func (c *Container) setupEventHandlers() error {
	summary := eventbus.NewChatSummaryHandler(
		c.ChatRepo,
		c.MessageRepo,
		eventbus.WithChatSummaryLogger(c.Logger),
	)

	emitter := metrics.NewInstrumentedRoomEmitter(c.Hub, c.Hub, c.ChatMetrics)
	realtime := eventbus.NewRealtimeHandler(emitter, eventbus.WithRealtimeLogger(c.Logger))

	observer := metrics.NewChatObserver(c.ChatMetrics)

	subscriptions := []struct {
		eventType string
		handler   eventbus.EventHandler
	}{
		{domainmessage.EventTypeMessageSent, summary.Handle},
		{domainmessage.EventTypeMessageSent, realtime.Handle},
		{domainmessage.EventTypeMessageSent, observer.Handle},
		{domainchat.EventTypeChatCreated, observer.Handle},
	}

	if c.Config.AI.Enabled {
		responder := ai.NewResponder(
			ai.Config{
				APIKey:       c.Config.AI.APIKey,
				BaseURL:      c.Config.AI.BaseURL,
				Model:        c.Config.AI.Model,
				SystemPrompt: c.Config.AI.SystemPrompt,
				MaxTokens:    c.Config.AI.MaxTokens,
			},
			c.ChatRepo,
			c.MessageRepo,
			c.MessageService,
			ai.WithResponderLogger(c.Logger),
		)
		subscriptions = append(subscriptions, struct {
			eventType string
			handler   eventbus.EventHandler
		}{domainmessage.EventTypeMessageSent, responder.Handle})
	}

	for _, sub := range subscriptions {
		if err := c.EventBus.Subscribe(sub.eventType, sub.handler); err != nil {
			return fmt.Errorf("failed to subscribe to %s: %w", sub.eventType, err)
		}
	}

	return nil
}

func (c *Container) setupHandlers() {
	c.VisitorHandler = httphandler.NewVisitorHandler(c.VisitorService)
	c.ChatHandler = httphandler.NewChatHandler(c.ChatService)
	c.MessageHandler = httphandler.NewMessageHandler(c.MessageService)

	c.WSHandler = wshandler.NewHandler(c.Hub, wshandler.WithHandlerConfig(wshandler.HandlerConfig{
		ReadBufferSize:  c.Config.WebSocket.ReadBufferSize,
		WriteBufferSize: c.Config.WebSocket.WriteBufferSize,
		Logger:          c.Logger,
		ClientConfig: ws.ClientConfig{
			ReadBufferSize:  c.Config.WebSocket.ReadBufferSize,
			WriteBufferSize: c.Config.WebSocket.WriteBufferSize,
			PingInterval:    c.Config.WebSocket.PingInterval,
			PongWait:        c.Config.WebSocket.PongTimeout,
		},
	}))
}

// StartEventBus starts the Redis subscriber loop. The in-process bus
// delivers synchronously and needs no start.
func (c *Container) StartEventBus(ctx context.Context) error {
	if c.redisBus == nil {
		return nil
	}
	if err := c.redisBus.Start(ctx); err != nil {
		return fmt.Errorf("failed to start event bus: %w", err)
	}
	return nil
}

// StartHub starts the WebSocket hub event loop.
func (c *Container) StartHub(ctx context.Context) {
	go c.Hub.Run(ctx)
}

// Close releases all container resources.
func (c *Container) Close() error {
	var errsAll []error

	if c.redisBus != nil && c.redisBus.IsRunning() {
		if err := c.redisBus.Shutdown(); err != nil {
			errsAll = append(errsAll, fmt.Errorf("event bus shutdown: %w", err))
		}
	}

	if c.Hub != nil && c.Hub.IsRunning() {
		c.Hub.Stop()
	}

	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			errsAll = append(errsAll, fmt.Errorf("redis close: %w", err))
		}
	}

	if c.MongoClient != nil {
		if err := c.MongoClient.Disconnect(context.Background()); err != nil {
			errsAll = append(errsAll, fmt.Errorf("mongodb disconnect: %w", err))
		}
	}

	return errors.Join(errsAll...)
}

// IsReady reports whether the infrastructure can serve traffic.
func (c *Container) IsReady(ctx context.Context) bool {
	checkCtx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	if err := c.MongoClient.Ping(checkCtx, nil); err != nil {
		return false
	}
	if err := c.RedisClient.Ping(checkCtx).Err(); err != nil {
		return false
	}
	return true
}

// GetHealthStatus returns the per-component health status.
func (c *Container) GetHealthStatus(ctx context.Context) []httpserver.ComponentStatus {
	checkCtx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	components := make([]httpserver.ComponentStatus, 0, 3)

	mongoStatus := httpserver.ComponentStatus{Name: "mongodb", Status: httpserver.StatusHealthy}
	if err := c.MongoClient.Ping(checkCtx, nil); err != nil {
		mongoStatus.Status = httpserver.StatusUnhealthy
		mongoStatus.Message = err.Error()
	}
	components = append(components, mongoStatus)

	redisStatus := httpserver.ComponentStatus{Name: "redis", Status: httpserver.StatusHealthy}
	if err := c.RedisClient.Ping(checkCtx).Err(); err != nil {
		redisStatus.Status = httpserver.StatusUnhealthy
		redisStatus.Message = err.Error()
	}
	components = append(components, redisStatus)

	hubStatus := httpserver.ComponentStatus{Name: "websocket_hub", Status: httpserver.StatusHealthy}
	if !c.Hub.IsRunning() {
		hubStatus.Status = httpserver.StatusDegraded
		hubStatus.Message = "hub not running"
	}
	components = append(components, hubStatus)

	return components
}

var _ httpserver.HealthChecker = (*Container)(nil)

// instrumentedChatService records waiting room positions as they are
// handed out.
type instrumentedChatService struct {
	inner   httphandler.ChatService
	metrics *metrics.ChatMetrics
}

func (s *instrumentedChatService) CreateChat(
	ctx context.Context,
	cmd chatapp.CreateChatCommand,
) (chatapp.Result, error) {
	return s.inner.CreateChat(ctx, cmd)
}

func (s *instrumentedChatService) JoinWaitingRoom(
	ctx context.Context,
	cmd chatapp.JoinWaitingRoomCommand,
) (chatapp.JoinWaitingRoomResult, error) {
	result, err := s.inner.JoinWaitingRoom(ctx, cmd)
	if err == nil {
		s.metrics.ObserveQueuePosition(result.Position)
	}
	return result, err
}

func (s *instrumentedChatService) CloseChat(
	ctx context.Context,
	cmd chatapp.CloseChatCommand,
) (chatapp.Result, error) {
	return s.inner.CloseChat(ctx, cmd)
}

func (s *instrumentedChatService) GetChat(
	ctx context.Context,
	chatID uuid.UUID,
) (*domainchat.Chat, error) {
	return s.inner.GetChat(ctx, chatID)
}

var _ httphandler.ChatService = (*instrumentedChatService)(nil)
