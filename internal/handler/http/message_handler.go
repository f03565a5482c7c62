package httphandler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	messageapp "github.com/atiendo/atiendo/internal/application/message"
	domainmessage "github.com/atiendo/atiendo/internal/domain/message"
	"github.com/atiendo/atiendo/internal/domain/uuid"
	"github.com/atiendo/atiendo/internal/infrastructure/httpserver"
)

// Pagination bounds for message listings.
const (
	defaultMessageListLimit = 50
	maxMessageListLimit     = 100
)

// SendMessageRequest represents the request to send a text message.
type SendMessageRequest struct {
	SenderID uuid.UUID `json:"sender_id" form:"sender_id" validate:"required"`
	Content  string    `json:"content"   form:"content"   validate:"required,max=10000"`
	Internal bool      `json:"internal"  form:"internal"`
}

// SendFileMessageRequest represents the request to send a file message.
type SendFileMessageRequest struct {
	SenderID uuid.UUID `json:"sender_id" form:"sender_id" validate:"required"`
	URL      string    `json:"url"       form:"url"       validate:"required,url"`
	FileName string    `json:"file_name" form:"file_name" validate:"required,max=255"`
	FileSize int64     `json:"file_size" form:"file_size" validate:"required,gt=0"`
	MimeType string    `json:"mime_type" form:"mime_type" validate:"required,max=128"`
	Internal bool      `json:"internal"  form:"internal"`
}

// MessageResponse represents a message in API responses.
type MessageResponse struct {
	ID         uuid.UUID           `json:"id"`
	ChatID     uuid.UUID           `json:"chat_id"`
	SenderID   uuid.UUID           `json:"sender_id"`
	Content    string              `json:"content"`
	Type       string              `json:"type"`
	Internal   bool                `json:"internal"`
	AI         bool                `json:"ai,omitempty"`
	System     *SystemDataResponse `json:"system,omitempty"`
	Attachment *AttachmentResponse `json:"attachment,omitempty"`
	AIMetadata *AIMetadataResponse `json:"ai_metadata,omitempty"`
	CreatedAt  string              `json:"created_at"`
}

// SystemDataResponse describes an automatic system message.
type SystemDataResponse struct {
	Action     string    `json:"action"`
	FromUserID uuid.UUID `json:"from_user_id,omitempty"`
	ToUserID   uuid.UUID `json:"to_user_id,omitempty"`
	Reason     string    `json:"reason,omitempty"`
}

// AttachmentResponse represents a message attachment in API responses.
type AttachmentResponse struct {
	URL      string `json:"url"`
	FileName string `json:"file_name"`
	FileSize int64  `json:"file_size"`
	MimeType string `json:"mime_type"`
}

// AIMetadataResponse describes how an AI reply was produced.
type AIMetadataResponse struct {
	Model     string `json:"model"`
	LatencyMS int64  `json:"latency_ms"`
}

// MessageListResponse represents one page of messages.
type MessageListResponse struct {
	Messages []MessageResponse `json:"messages"`
	Total    int               `json:"total"`
	HasMore  bool              `json:"has_more"`
}

// MessageService defines the interface for message operations.
// Declared on the consumer side per project guidelines.
type MessageService interface {
	// SendMessage appends a text message to a chat.
	SendMessage(ctx context.Context, cmd messageapp.SendMessageCommand) (messageapp.Result, error)

	// SendFileMessage appends a message carrying an attachment.
	SendFileMessage(ctx context.Context, cmd messageapp.SendFileMessageCommand) (messageapp.Result, error)

	// ListMessages pages through a chat's messages, newest first.
	ListMessages(ctx context.Context, query messageapp.ListMessagesQuery) (messageapp.ListMessagesResult, error)
}

// MessageHandler handles message-related HTTP requests.
type MessageHandler struct {
	messageService MessageService
}

// NewMessageHandler creates a new MessageHandler.
func NewMessageHandler(messageService MessageService) *MessageHandler {
	return &MessageHandler{
		messageService: messageService,
	}
}

// RegisterRoutes registers message routes with the router.
func (h *MessageHandler) RegisterRoutes(r *httpserver.Router) {
	// Widget routes: visitor view hides internal and system messages.
	r.Widget().POST("/chats/:chat_id/messages", h.SendFromWidget)
	r.Widget().GET("/chats/:chat_id/messages", h.ListForWidget)

	// Agent routes: the full timeline, internal notes and files allowed.
	r.Agent().POST("/chats/:chat_id/messages", h.SendFromAgent)
	r.Agent().POST("/chats/:chat_id/files", h.SendFile)
	r.Agent().GET("/chats/:chat_id/messages", h.ListForAgent)
}

// SendFromWidget handles POST /api/v1/widget/chats/:chat_id/messages.
// Visitor messages are never internal.
func (h *MessageHandler) SendFromWidget(c echo.Context) error {
	return h.send(c, false)
}

// SendFromAgent handles POST /api/v1/agent/chats/:chat_id/messages.
func (h *MessageHandler) SendFromAgent(c echo.Context) error {
	return h.send(c, true)
}

func (h *MessageHandler) send(c echo.Context, allowInternal bool) error {
	chatID, parseErr := uuid.ParseUUID(c.Param("chat_id"))
	if parseErr != nil {
		return httpserver.RespondErrorWithCode(
			c, http.StatusBadRequest, "INVALID_CHAT_ID", "invalid chat ID format")
	}

	var req SendMessageRequest
	if bindErr := c.Bind(&req); bindErr != nil {
		return httpserver.RespondErrorWithCode(
			c, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body")
	}
	if valErr := validateStruct(&req); valErr != nil {
		return httpserver.RespondErrorWithCode(
			c, http.StatusBadRequest, "VALIDATION_ERROR", valErr.Error())
	}

	cmd := messageapp.SendMessageCommand{
		ChatID:     chatID,
		SenderID:   req.SenderID,
		Content:    req.Content,
		IsInternal: allowInternal && req.Internal,
	}

	result, err := h.messageService.SendMessage(c.Request().Context(), cmd)
	if err != nil {
		return httpserver.RespondError(c, err)
	}

	return httpserver.RespondCreated(c, ToMessageResponse(result.Value))
}

// SendFile handles POST /api/v1/agent/chats/:chat_id/files.
func (h *MessageHandler) SendFile(c echo.Context) error {
	chatID, parseErr := uuid.ParseUUID(c.Param("chat_id"))
	if parseErr != nil {
		return httpserver.RespondErrorWithCode(
			c, http.StatusBadRequest, "INVALID_CHAT_ID", "invalid chat ID format")
	}

	var req SendFileMessageRequest
	if bindErr := c.Bind(&req); bindErr != nil {
		return httpserver.RespondErrorWithCode(
			c, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body")
	}
	if valErr := validateStruct(&req); valErr != nil {
		return httpserver.RespondErrorWithCode(
			c, http.StatusBadRequest, "VALIDATION_ERROR", valErr.Error())
	}

	cmd := messageapp.SendFileMessageCommand{
		ChatID:   chatID,
		SenderID: req.SenderID,
		FileName: req.FileName,
		Attachment: domainmessage.Attachment{
			URL:      req.URL,
			FileName: req.FileName,
			FileSize: req.FileSize,
			MimeType: req.MimeType,
		},
		IsInternal: req.Internal,
	}

	result, err := h.messageService.SendFileMessage(c.Request().Context(), cmd)
	if err != nil {
		return httpserver.RespondError(c, err)
	}

	return httpserver.RespondCreated(c, ToMessageResponse(result.Value))
}

// ListForWidget handles GET /api/v1/widget/chats/:chat_id/messages.
func (h *MessageHandler) ListForWidget(c echo.Context) error {
	return h.list(c, true)
}

// ListForAgent handles GET /api/v1/agent/chats/:chat_id/messages.
func (h *MessageHandler) ListForAgent(c echo.Context) error {
	return h.list(c, false)
}

func (h *MessageHandler) list(c echo.Context, visitorView bool) error {
	chatID, parseErr := uuid.ParseUUID(c.Param("chat_id"))
	if parseErr != nil {
		return httpserver.RespondErrorWithCode(
			c, http.StatusBadRequest, "INVALID_CHAT_ID", "invalid chat ID format")
	}

	limit, offset := parseMessagePagination(c)

	query := messageapp.ListMessagesQuery{
		ChatID: chatID,
		Pagination: domainmessage.Pagination{
			Limit:  limit,
			Offset: offset,
		},
		VisitorView: visitorView,
	}

	result, err := h.messageService.ListMessages(c.Request().Context(), query)
	if err != nil {
		return httpserver.RespondError(c, err)
	}

	messages := make([]MessageResponse, 0, len(result.Messages))
	for _, msg := range result.Messages {
		messages = append(messages, ToMessageResponse(msg))
	}

	resp := MessageListResponse{
		Messages: messages,
		Total:    result.Total,
		HasMore:  offset+len(messages) < result.Total,
	}

	return httpserver.RespondOK(c, resp)
}

func parseMessagePagination(c echo.Context) (int, int) {
	limit := defaultMessageListLimit
	offset := 0

	if limitStr := c.QueryParam("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			limit = min(l, maxMessageListLimit)
		}
	}

	if offsetStr := c.QueryParam("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			offset = o
		}
	}

	return limit, offset
}

// MockMessageService is a mock implementation of MessageService for testing.
type MockMessageService struct {
	chatMessages map[uuid.UUID][]*domainmessage.Message
}

// NewMockMessageService creates a new mock message service.
func NewMockMessageService() *MockMessageService {
	return &MockMessageService{
		chatMessages: make(map[uuid.UUID][]*domainmessage.Message),
	}
}

// AddMessage adds a message to the mock service.
func (m *MockMessageService) AddMessage(msg *domainmessage.Message) {
	m.chatMessages[msg.ChatID()] = append([]*domainmessage.Message{msg}, m.chatMessages[msg.ChatID()]...)
}

// SendMessage sends a text message in the mock service.
func (m *MockMessageService) SendMessage(
	_ context.Context,
	cmd messageapp.SendMessageCommand,
) (messageapp.Result, error) {
	msg, err := domainmessage.NewTextMessage(domainmessage.TextParams{
		ChatID:     cmd.ChatID,
		SenderID:   cmd.SenderID,
		Content:    cmd.Content,
		IsInternal: cmd.IsInternal,
		IsAI:       cmd.IsAI,
		AIMetadata: cmd.AIMetadata,
	})
	if err != nil {
		return messageapp.Result{}, messageapp.ErrInvalidContent
	}
	m.AddMessage(msg)
	return messageapp.Result{Value: msg}, nil
}

// SendFileMessage sends a file message in the mock service.
func (m *MockMessageService) SendFileMessage(
	_ context.Context,
	cmd messageapp.SendFileMessageCommand,
) (messageapp.Result, error) {
	msg, err := domainmessage.NewFileMessage(domainmessage.FileParams{
		ChatID:     cmd.ChatID,
		SenderID:   cmd.SenderID,
		FileName:   cmd.FileName,
		Attachment: cmd.Attachment,
		IsInternal: cmd.IsInternal,
	})
	if err != nil {
		return messageapp.Result{}, messageapp.ErrInvalidAttachment
	}
	m.AddMessage(msg)
	return messageapp.Result{Value: msg}, nil
}

// ListMessages lists messages in the mock service, newest first.
func (m *MockMessageService) ListMessages(
	_ context.Context,
	query messageapp.ListMessagesQuery,
) (messageapp.ListMessagesResult, error) {
	all := m.chatMessages[query.ChatID]
	if query.VisitorView {
		visible := make([]*domainmessage.Message, 0, len(all))
		for _, msg := range all {
			if msg.IsVisibleToVisitor() {
				visible = append(visible, msg)
			}
		}
		all = visible
	}

	total := len(all)
	offset := min(query.Pagination.Offset, total)
	end := total
	if query.Pagination.Limit > 0 {
		end = min(offset+query.Pagination.Limit, total)
	}

	return messageapp.ListMessagesResult{
		Messages: all[offset:end],
		Total:    total,
	}, nil
}

// ToMessageResponse converts a domain Message to MessageResponse.
func ToMessageResponse(msg *domainmessage.Message) MessageResponse {
	resp := MessageResponse{
		ID:        msg.ID(),
		ChatID:    msg.ChatID(),
		SenderID:  msg.SenderID(),
		Content:   msg.Content(),
		Type:      string(msg.MessageType()),
		Internal:  msg.IsInternal(),
		AI:        msg.IsAI(),
		CreatedAt: msg.CreatedAt().Format(timeFormat),
	}

	if sys := msg.SystemData(); sys != nil {
		resp.System = &SystemDataResponse{
			Action:     sys.Action,
			FromUserID: sys.FromUserID,
			ToUserID:   sys.ToUserID,
			Reason:     sys.Reason,
		}
	}
	if att := msg.Attachment(); att != nil {
		resp.Attachment = &AttachmentResponse{
			URL:      att.URL,
			FileName: att.FileName,
			FileSize: att.FileSize,
			MimeType: att.MimeType,
		}
	}
	if meta := msg.AIMetadata(); meta != nil {
		resp.AIMetadata = &AIMetadataResponse{
			Model:     meta.Model,
			LatencyMS: meta.LatencyMS,
		}
	}

	return resp
}
