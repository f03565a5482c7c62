package httphandler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	chatapp "github.com/atiendo/atiendo/internal/application/chat"
	domainchat "github.com/atiendo/atiendo/internal/domain/chat"
	"github.com/atiendo/atiendo/internal/domain/uuid"
	"github.com/atiendo/atiendo/internal/infrastructure/httpserver"
)

// CreateChatRequest opens a chat for a visitor. The widget generates the
// chat ID so retried requests create the chat exactly once.
type CreateChatRequest struct {
	ChatID      uuid.UUID         `json:"chat_id"      form:"chat_id"      validate:"required"`
	VisitorID   uuid.UUID         `json:"visitor_id"   form:"visitor_id"   validate:"required"`
	Name        string            `json:"name"         form:"name"         validate:"max=200"`
	Email       string            `json:"email"        form:"email"        validate:"omitempty,email"`
	IP          string            `json:"ip"           form:"ip"`
	Priority    string            `json:"priority"     form:"priority"     validate:"omitempty,oneof=low normal high urgent"`
	Department  string            `json:"department"   form:"department"   validate:"max=100"`
	Source      string            `json:"source"       form:"source"       validate:"max=200"`
	Tags        []string          `json:"tags"         form:"tags"`
	UTM         map[string]string `json:"utm"          form:"utm"`
	Commercials []uuid.UUID       `json:"commercials"  form:"commercials"`
}

// JoinWaitingRoomRequest puts a visitor into the waiting room.
type JoinWaitingRoomRequest struct {
	VisitorID  uuid.UUID `json:"visitor_id" form:"visitor_id" validate:"required"`
	Name       string    `json:"name"       form:"name"       validate:"max=200"`
	Email      string    `json:"email"      form:"email"      validate:"omitempty,email"`
	IP         string    `json:"ip"         form:"ip"`
	Priority   string    `json:"priority"   form:"priority"   validate:"omitempty,oneof=low normal high urgent"`
	Department string    `json:"department" form:"department" validate:"max=100"`
	Source     string    `json:"source"     form:"source"     validate:"max=200"`
}

// CloseChatRequest finishes a chat.
type CloseChatRequest struct {
	ClosedBy uuid.UUID `json:"closed_by" form:"closed_by" validate:"required"`
	Reason   string    `json:"reason"    form:"reason"    validate:"max=500"`
}

// ChatResponse represents a chat in API responses.
type ChatResponse struct {
	ID                 uuid.UUID            `json:"id"`
	VisitorID          uuid.UUID            `json:"visitor_id"`
	Visitor            VisitorInfoResponse  `json:"visitor"`
	Status             string               `json:"status"`
	Priority           string               `json:"priority"`
	Metadata           ChatMetadataResponse `json:"metadata"`
	LastMessageContent string               `json:"last_message_content,omitempty"`
	LastMessageAt      *string              `json:"last_message_at,omitempty"`
	TotalMessages      int                  `json:"total_messages"`
	CreatedAt          string               `json:"created_at"`
	ClosedAt           *string              `json:"closed_at,omitempty"`
}

// VisitorInfoResponse is the visitor snapshot embedded in a chat.
type VisitorInfoResponse struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	IP    string `json:"ip,omitempty"`
}

// ChatMetadataResponse carries routing and attribution data.
type ChatMetadataResponse struct {
	Department string            `json:"department,omitempty"`
	Source     string            `json:"source,omitempty"`
	Tags       []string          `json:"tags,omitempty"`
	UTM        map[string]string `json:"utm,omitempty"`
}

// JoinWaitingRoomResponse pairs the created chat with its queue position.
type JoinWaitingRoomResponse struct {
	Chat     ChatResponse `json:"chat"`
	Position int          `json:"position"`
}

// ChatService defines the interface for chat operations.
// Declared on the consumer side per project guidelines.
type ChatService interface {
	// CreateChat creates a pending chat, idempotent on the supplied ID.
	CreateChat(ctx context.Context, cmd chatapp.CreateChatCommand) (chatapp.Result, error)

	// JoinWaitingRoom creates a pending chat and assigns a queue position.
	JoinWaitingRoom(ctx context.Context, cmd chatapp.JoinWaitingRoomCommand) (chatapp.JoinWaitingRoomResult, error)

	// CloseChat finishes a chat.
	CloseChat(ctx context.Context, cmd chatapp.CloseChatCommand) (chatapp.Result, error)

	// GetChat gets a chat by ID.
	GetChat(ctx context.Context, chatID uuid.UUID) (*domainchat.Chat, error)
}

// ChatHandler handles chat-related HTTP requests.
type ChatHandler struct {
	chatService ChatService
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(chatService ChatService) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
	}
}

// RegisterRoutes registers chat routes with the router.
func (h *ChatHandler) RegisterRoutes(r *httpserver.Router) {
	// Widget routes: the visitor side of a conversation.
	r.Widget().POST("/chats", h.Create)
	r.Widget().POST("/waiting-room", h.JoinWaitingRoom)
	r.Widget().GET("/chats/:id", h.Get)

	// Agent routes: the commercial side.
	r.Agent().GET("/chats/:id", h.Get)
	r.Agent().POST("/chats/:id/close", h.Close)
}

// Create handles POST /api/v1/widget/chats.
// Retrying with the same chat_id returns the already-created chat.
func (h *ChatHandler) Create(c echo.Context) error {
	var req CreateChatRequest
	if bindErr := c.Bind(&req); bindErr != nil {
		return httpserver.RespondErrorWithCode(
			c, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body")
	}
	if valErr := validateStruct(&req); valErr != nil {
		return httpserver.RespondErrorWithCode(
			c, http.StatusBadRequest, "VALIDATION_ERROR", valErr.Error())
	}

	cmd := chatapp.CreateChatCommand{
		ChatID:    req.ChatID,
		VisitorID: req.VisitorID,
		VisitorInfo: domainchat.VisitorInfo{
			Name:  req.Name,
			Email: req.Email,
			IP:    req.IP,
		},
		AvailableCommercialIDs: req.Commercials,
		Priority:               req.Priority,
		Metadata: domainchat.Metadata{
			Department: req.Department,
			Source:     req.Source,
			Tags:       req.Tags,
			UTM:        req.UTM,
		},
	}

	result, err := h.chatService.CreateChat(c.Request().Context(), cmd)
	if err != nil {
		return httpserver.RespondError(c, err)
	}

	return httpserver.RespondCreated(c, ToChatResponse(result.Value))
}

// JoinWaitingRoom handles POST /api/v1/widget/waiting-room.
// Returns the new chat and its FIFO position within the department queue.
func (h *ChatHandler) JoinWaitingRoom(c echo.Context) error {
	var req JoinWaitingRoomRequest
	if bindErr := c.Bind(&req); bindErr != nil {
		return httpserver.RespondErrorWithCode(
			c, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body")
	}
	if valErr := validateStruct(&req); valErr != nil {
		return httpserver.RespondErrorWithCode(
			c, http.StatusBadRequest, "VALIDATION_ERROR", valErr.Error())
	}

	cmd := chatapp.JoinWaitingRoomCommand{
		VisitorID: req.VisitorID,
		VisitorInfo: domainchat.VisitorInfo{
			Name:  req.Name,
			Email: req.Email,
			IP:    req.IP,
		},
		Priority: req.Priority,
		Metadata: domainchat.Metadata{
			Department: req.Department,
			Source:     req.Source,
		},
	}

	result, err := h.chatService.JoinWaitingRoom(c.Request().Context(), cmd)
	if err != nil {
		return httpserver.RespondError(c, err)
	}

	resp := JoinWaitingRoomResponse{
		Chat:     ToChatResponse(result.Chat),
		Position: result.Position,
	}
	return httpserver.RespondCreated(c, resp)
}

// Get handles GET /api/v1/widget/chats/:id and GET /api/v1/agent/chats/:id.
func (h *ChatHandler) Get(c echo.Context) error {
	chatID, parseErr := uuid.ParseUUID(c.Param("id"))
	if parseErr != nil {
		return httpserver.RespondErrorWithCode(
			c, http.StatusBadRequest, "INVALID_CHAT_ID", "invalid chat ID format")
	}

	chat, err := h.chatService.GetChat(c.Request().Context(), chatID)
	if err != nil {
		return httpserver.RespondError(c, err)
	}

	return httpserver.RespondOK(c, ToChatResponse(chat))
}

// Close handles POST /api/v1/agent/chats/:id/close.
func (h *ChatHandler) Close(c echo.Context) error {
	chatID, parseErr := uuid.ParseUUID(c.Param("id"))
	if parseErr != nil {
		return httpserver.RespondErrorWithCode(
			c, http.StatusBadRequest, "INVALID_CHAT_ID", "invalid chat ID format")
	}

	var req CloseChatRequest
	if bindErr := c.Bind(&req); bindErr != nil {
		return httpserver.RespondErrorWithCode(
			c, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body")
	}
	if valErr := validateStruct(&req); valErr != nil {
		return httpserver.RespondErrorWithCode(
			c, http.StatusBadRequest, "VALIDATION_ERROR", valErr.Error())
	}

	cmd := chatapp.CloseChatCommand{
		ChatID:   chatID,
		ClosedBy: req.ClosedBy,
		Reason:   req.Reason,
	}

	result, err := h.chatService.CloseChat(c.Request().Context(), cmd)
	if err != nil {
		return httpserver.RespondError(c, err)
	}

	return httpserver.RespondOK(c, ToChatResponse(result.Value))
}

// MockChatService is a mock implementation of ChatService for testing.
type MockChatService struct {
	chats        map[uuid.UUID]*domainchat.Chat
	nextPosition int
}

// NewMockChatService creates a new mock chat service.
func NewMockChatService() *MockChatService {
	return &MockChatService{
		chats: make(map[uuid.UUID]*domainchat.Chat),
	}
}

// AddChat adds a chat to the mock service.
func (m *MockChatService) AddChat(chat *domainchat.Chat) {
	m.chats[chat.ID()] = chat
}

// CreateChat creates a chat in the mock service. A second call with the
// same ID returns the first chat, mirroring the idempotent create.
func (m *MockChatService) CreateChat(
	_ context.Context,
	cmd chatapp.CreateChatCommand,
) (chatapp.Result, error) {
	if existing, ok := m.chats[cmd.ChatID]; ok {
		return chatapp.Result{Value: existing}, nil
	}

	chat, err := domainchat.NewPendingChat(domainchat.CreateParams{
		ID:                     cmd.ChatID,
		VisitorID:              cmd.VisitorID,
		VisitorInfo:            cmd.VisitorInfo,
		AvailableCommercialIDs: cmd.AvailableCommercialIDs,
		Priority:               cmd.Priority,
		Metadata:               cmd.Metadata,
	})
	if err != nil {
		return chatapp.Result{}, err
	}
	m.AddChat(chat)
	return chatapp.Result{Value: chat}, nil
}

// JoinWaitingRoom creates a chat and assigns the next position.
func (m *MockChatService) JoinWaitingRoom(
	_ context.Context,
	cmd chatapp.JoinWaitingRoomCommand,
) (chatapp.JoinWaitingRoomResult, error) {
	chat, err := domainchat.NewPendingChat(domainchat.CreateParams{
		VisitorID:   cmd.VisitorID,
		VisitorInfo: cmd.VisitorInfo,
		Priority:    cmd.Priority,
		Metadata:    cmd.Metadata,
	})
	if err != nil {
		return chatapp.JoinWaitingRoomResult{}, err
	}
	m.AddChat(chat)
	m.nextPosition++
	return chatapp.JoinWaitingRoomResult{
		ChatID:   chat.ID(),
		Chat:     chat,
		Position: m.nextPosition,
	}, nil
}

// CloseChat closes a chat in the mock service.
func (m *MockChatService) CloseChat(
	_ context.Context,
	cmd chatapp.CloseChatCommand,
) (chatapp.Result, error) {
	chat, ok := m.chats[cmd.ChatID]
	if !ok {
		return chatapp.Result{}, chatapp.ErrChatNotFound
	}
	if err := chat.Close(cmd.ClosedBy, cmd.Reason); err != nil {
		return chatapp.Result{}, chatapp.ErrChatClosed
	}
	return chatapp.Result{Value: chat}, nil
}

// GetChat gets a chat from the mock service.
func (m *MockChatService) GetChat(_ context.Context, chatID uuid.UUID) (*domainchat.Chat, error) {
	chat, ok := m.chats[chatID]
	if !ok {
		return nil, chatapp.ErrChatNotFound
	}
	return chat, nil
}

// ToChatResponse converts a domain Chat to ChatResponse.
func ToChatResponse(chat *domainchat.Chat) ChatResponse {
	meta := chat.Metadata()
	info := chat.VisitorInfo()

	resp := ChatResponse{
		ID:        chat.ID(),
		VisitorID: chat.VisitorID(),
		Visitor: VisitorInfoResponse{
			Name:  info.Name,
			Email: info.Email,
			IP:    info.IP,
		},
		Status:   string(chat.Status()),
		Priority: chat.Priority(),
		Metadata: ChatMetadataResponse{
			Department: meta.Department,
			Source:     meta.Source,
			Tags:       meta.Tags,
			UTM:        meta.UTM,
		},
		LastMessageContent: chat.LastMessageContent(),
		TotalMessages:      chat.TotalMessages(),
		CreatedAt:          chat.CreatedAt().Format(timeFormat),
	}

	if lastAt := chat.LastMessageAt(); lastAt != nil {
		formatted := lastAt.Format(timeFormat)
		resp.LastMessageAt = &formatted
	}
	if closedAt := chat.ClosedAt(); closedAt != nil {
		formatted := closedAt.Format(timeFormat)
		resp.ClosedAt = &formatted
	}

	return resp
}
