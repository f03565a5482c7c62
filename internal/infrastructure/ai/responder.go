// Package ai contains the optional auto-responder that drafts a reply
// to visitor messages while no commercial has picked up the chat.
package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	messageapp "github.com/atiendo/atiendo/internal/application/message"
	domainchat "github.com/atiendo/atiendo/internal/domain/chat"
	"github.com/atiendo/atiendo/internal/domain/errs"
	"github.com/atiendo/atiendo/internal/domain/event"
	domainmessage "github.com/atiendo/atiendo/internal/domain/message"
	"github.com/atiendo/atiendo/internal/domain/uuid"
)

// Defaults applied when the configuration leaves a field empty.
const (
	defaultModel        = openai.GPT4oMini
	defaultMaxTokens    = 500
	defaultHistoryLimit = 20
	defaultSystemPrompt = "Eres el asistente de atención al cliente. " +
		"Responde de forma breve y amable en el idioma del visitante. " +
		"Si no conoces la respuesta, indica que un agente responderá en breve."
)

// Config holds the responder settings.
type Config struct {
	APIKey       string
	BaseURL      string
	Model        string
	SystemPrompt string
	MaxTokens    int
	HistoryLimit int
}

// MessageSender appends an AI reply to a chat.
// Declared on the consumer side per project guidelines.
type MessageSender interface {
	SendMessage(ctx context.Context, cmd messageapp.SendMessageCommand) (messageapp.Result, error)
}

// sentSnapshot is the part of the message.sent payload the responder needs.
type sentSnapshot struct {
	ChatID     uuid.UUID
	SenderID   uuid.UUID
	Content    string
	IsInternal bool
	IsAI       bool
}

// payloadEvent is implemented by events deserialized from a broker.
type payloadEvent interface {
	event.DomainEvent
	Payload() json.RawMessage
}

// Responder reacts to message.sent by generating a completion and
// appending it to the chat as an AI message. It only answers visitor
// text in pending chats, so it goes quiet the moment a commercial
// takes over.
type Responder struct {
	client      *openai.Client
	chatRepo    domainchat.Repository
	messageRepo domainmessage.Repository
	sender      MessageSender
	config      Config
	logger      *slog.Logger
}

// ResponderOption configures the Responder.
type ResponderOption func(*Responder)

// WithResponderLogger sets the logger for the Responder.
func WithResponderLogger(logger *slog.Logger) ResponderOption {
	return func(r *Responder) {
		r.logger = logger
	}
}

// WithClient replaces the OpenAI client, used by tests.
func WithClient(client *openai.Client) ResponderOption {
	return func(r *Responder) {
		r.client = client
	}
}

// NewResponder creates a new Responder.
func NewResponder(
	cfg Config,
	chatRepo domainchat.Repository,
	messageRepo domainmessage.Repository,
	sender MessageSender,
	opts ...ResponderOption,
) *Responder {
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = defaultSystemPrompt
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = defaultHistoryLimit
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	r := &Responder{
		client:      openai.NewClientWithConfig(clientConfig),
		chatRepo:    chatRepo,
		messageRepo: messageRepo,
		sender:      sender,
		config:      cfg,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Handle processes a message.sent event. Anything that is not a plain
// visitor message in a pending chat is ignored.
func (r *Responder) Handle(ctx context.Context, evt event.DomainEvent) error {
	if evt.EventType() != domainmessage.EventTypeMessageSent {
		return nil
	}

	sent, err := r.extractSent(evt)
	if err != nil {
		return err
	}
	if sent.IsAI || sent.IsInternal || strings.TrimSpace(sent.Content) == "" {
		return nil
	}

	chatAggregate, err := r.chatRepo.FindByID(ctx, sent.ChatID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to load chat: %w", err)
	}
	// Only the visitor's own messages trigger a reply, and only while
	// no commercial has answered yet.
	if !chatAggregate.IsPending() || sent.SenderID != chatAggregate.VisitorID() {
		return nil
	}

	reply, latency, err := r.complete(ctx, chatAggregate, sent.Content)
	if err != nil {
		// A failed completion is not worth a redelivery; the visitor
		// is still in the queue for a human.
		r.logger.WarnContext(ctx, "ai completion failed",
			slog.String("chat_id", sent.ChatID.String()),
			slog.String("error", err.Error()),
		)
		return nil
	}
	if reply == "" {
		return nil
	}

	_, sendErr := r.sender.SendMessage(ctx, messageapp.SendMessageCommand{
		ChatID:   sent.ChatID,
		SenderID: domainmessage.SystemSenderID,
		Content:  reply,
		IsAI:     true,
		AIMetadata: &domainmessage.AIMetadata{
			Model:     r.config.Model,
			LatencyMS: latency.Milliseconds(),
		},
	})
	if sendErr != nil {
		return fmt.Errorf("failed to send ai reply: %w", sendErr)
	}

	r.logger.InfoContext(ctx, "ai reply sent",
		slog.String("chat_id", sent.ChatID.String()),
		slog.String("model", r.config.Model),
		slog.Int64("latency_ms", latency.Milliseconds()),
	)
	return nil
}

// complete builds the conversation from the recent history and asks the
// model for the next turn.
func (r *Responder) complete(
	ctx context.Context,
	chatAggregate *domainchat.Chat,
	latest string,
) (string, time.Duration, error) {
	history, err := r.messageRepo.FindByChatID(ctx, chatAggregate.ID(), domainmessage.Pagination{
		Limit: r.config.HistoryLimit,
	})
	if err != nil {
		return "", 0, fmt.Errorf("failed to load history: %w", err)
	}

	msgs := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	msgs = append(msgs, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: r.config.SystemPrompt,
	})

	// History arrives newest first; replay it oldest first.
	for i := len(history) - 1; i >= 0; i-- {
		msg := history[i]
		if msg.IsInternal() || msg.MessageType() != domainmessage.TypeText {
			continue
		}
		role := openai.ChatMessageRoleUser
		if msg.SenderID() != chatAggregate.VisitorID() {
			role = openai.ChatMessageRoleAssistant
		}
		msgs = append(msgs, openai.ChatCompletionMessage{
			Role:    role,
			Content: msg.Content(),
		})
	}

	// The triggering message may not be visible in the store yet when
	// events are delivered out of band.
	if len(msgs) == 1 || msgs[len(msgs)-1].Content != latest {
		msgs = append(msgs, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleUser,
			Content: latest,
		})
	}

	start := time.Now()
	resp, err := r.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     r.config.Model,
		Messages:  msgs,
		MaxTokens: r.config.MaxTokens,
	})
	latency := time.Since(start)
	if err != nil {
		return "", latency, err
	}
	if len(resp.Choices) == 0 {
		return "", latency, nil
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), latency, nil
}

// extractSent reads the message.sent snapshot out of an event, whether
// it arrived in process or deserialized from a broker.
func (r *Responder) extractSent(evt event.DomainEvent) (sentSnapshot, error) {
	switch e := evt.(type) {
	case *domainmessage.Sent:
		return sentSnapshot{
			ChatID:     e.ChatID,
			SenderID:   e.SenderID,
			Content:    e.Content,
			IsInternal: e.IsInternal,
			IsAI:       e.IsAI,
		}, nil
	case payloadEvent:
		var snapshot sentSnapshot
		if err := json.Unmarshal(e.Payload(), &snapshot); err != nil {
			return sentSnapshot{}, fmt.Errorf("failed to unmarshal message.sent payload: %w", err)
		}
		return snapshot, nil
	default:
		return sentSnapshot{}, fmt.Errorf("unexpected event type %T for %s", evt, evt.EventType())
	}
}
