// Package websocket provides HTTP handlers for WebSocket connections.
package websocket

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/atiendo/atiendo/internal/domain/uuid"
	ws "github.com/atiendo/atiendo/internal/infrastructure/websocket"
)

// Handler configuration constants.
const (
	defaultHandlerReadBufferSize  = 1024
	defaultHandlerWriteBufferSize = 1024
)

// Handler handles WebSocket HTTP requests for both sides of a chat: the
// visitor widget and the commercial console.
type Handler struct {
	hub          *ws.Hub
	upgrader     websocket.Upgrader
	logger       *slog.Logger
	clientConfig ws.ClientConfig
}

// HandlerConfig holds configuration for the WebSocket handler.
type HandlerConfig struct {
	// ReadBufferSize is the size of the read buffer for WebSocket connections.
	ReadBufferSize int

	// WriteBufferSize is the size of the write buffer for WebSocket connections.
	WriteBufferSize int

	// CheckOrigin is a function that returns true if the request origin is
	// acceptable. If nil, all origins are allowed; the widget runs on
	// arbitrary customer domains.
	CheckOrigin func(r *http.Request) bool

	// Logger is the structured logger for the handler.
	Logger *slog.Logger

	// ClientConfig is the configuration for WebSocket clients.
	ClientConfig ws.ClientConfig
}

// DefaultHandlerConfig returns a default configuration.
func DefaultHandlerConfig() HandlerConfig {
	return HandlerConfig{
		ReadBufferSize:  defaultHandlerReadBufferSize,
		WriteBufferSize: defaultHandlerWriteBufferSize,
		CheckOrigin:     nil,
		Logger:          slog.Default(),
		ClientConfig:    ws.DefaultClientConfig(),
	}
}

// HandlerOption configures the Handler.
type HandlerOption func(*Handler)

// WithHandlerLogger sets the logger for the handler.
func WithHandlerLogger(logger *slog.Logger) HandlerOption {
	return func(h *Handler) {
		h.logger = logger
	}
}

// WithHandlerConfig sets the handler configuration.
func WithHandlerConfig(config HandlerConfig) HandlerOption {
	return func(h *Handler) {
		h.upgrader.ReadBufferSize = config.ReadBufferSize
		h.upgrader.WriteBufferSize = config.WriteBufferSize
		if config.CheckOrigin != nil {
			h.upgrader.CheckOrigin = config.CheckOrigin
		}
		if config.Logger != nil {
			h.logger = config.Logger
		}
		h.clientConfig = config.ClientConfig
	}
}

// NewHandler creates a new WebSocket handler.
func NewHandler(hub *ws.Hub, opts ...HandlerOption) *Handler {
	h := &Handler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  defaultHandlerReadBufferSize,
			WriteBufferSize: defaultHandlerWriteBufferSize,
			CheckOrigin: func(_ *http.Request) bool {
				return true
			},
		},
		logger:       slog.Default(),
		clientConfig: ws.DefaultClientConfig(),
	}

	for _, opt := range opts {
		opt(h)
	}

	return h
}

// HandleVisitor handles WebSocket upgrade requests from the widget.
// The visitor identifies itself with the visitor_id query parameter.
func (h *Handler) HandleVisitor(c echo.Context) error {
	return h.handle(c, "visitor_id", false)
}

// HandleCommercial handles WebSocket upgrade requests from the agent
// console. Commercial clients additionally receive internal notes and
// chat summary updates.
func (h *Handler) HandleCommercial(c echo.Context) error {
	return h.handle(c, "agent_id", true)
}

func (h *Handler) handle(c echo.Context, idParam string, commercial bool) error {
	userID, parseErr := uuid.ParseUUID(c.QueryParam(idParam))
	if parseErr != nil || userID.IsZero() {
		h.logger.Warn("websocket connection rejected: missing identity",
			slog.String("param", idParam),
			slog.String("remote_ip", c.RealIP()),
		)
		return c.JSON(http.StatusBadRequest, map[string]any{
			"success": false,
			"error": map[string]string{
				"code":    "IDENTITY_REQUIRED",
				"message": "The " + idParam + " query parameter is required",
			},
		})
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed",
			slog.String("user_id", userID.String()),
			slog.String("error", err.Error()),
		)
		return nil // Upgrade already sent an error response
	}

	clientOpts := []ws.ClientOption{
		ws.WithClientConfig(h.clientConfig),
		ws.WithClientLogger(h.logger),
	}
	if commercial {
		clientOpts = append(clientOpts, ws.AsCommercial())
	}

	client := ws.NewClient(h.hub, conn, userID, clientOpts...)
	h.hub.Register(client)

	h.logger.Info("websocket connection established",
		slog.String("user_id", userID.String()),
		slog.Bool("commercial", commercial),
		slog.String("remote_ip", c.RealIP()),
	)

	go client.WritePump()
	go client.ReadPump()

	return nil
}

// RegisterRoutes registers the WebSocket endpoints with the Echo router.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws/widget", h.HandleVisitor)
	e.GET("/ws/agent", h.HandleCommercial)
}
