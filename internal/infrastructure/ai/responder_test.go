package ai_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	messageapp "github.com/atiendo/atiendo/internal/application/message"
	domainchat "github.com/atiendo/atiendo/internal/domain/chat"
	"github.com/atiendo/atiendo/internal/domain/errs"
	"github.com/atiendo/atiendo/internal/domain/event"
	domainmessage "github.com/atiendo/atiendo/internal/domain/message"
	"github.com/atiendo/atiendo/internal/domain/uuid"
	"github.com/atiendo/atiendo/internal/infrastructure/ai"
)

type fakeChatRepo struct {
	mu    sync.Mutex
	chats map[uuid.UUID]*domainchat.Chat
}

func newFakeChatRepo() *fakeChatRepo {
	return &fakeChatRepo{chats: make(map[uuid.UUID]*domainchat.Chat)}
}

func (r *fakeChatRepo) FindByID(_ context.Context, id uuid.UUID) (*domainchat.Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.chats[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return c, nil
}

func (r *fakeChatRepo) Save(_ context.Context, c *domainchat.Chat) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.chats[c.ID()] = c
	return nil
}

func (r *fakeChatRepo) CountPendingCreatedBefore(_ context.Context, _ time.Time, _ string) (int, error) {
	return 0, nil
}

type fakeMessageRepo struct {
	mu       sync.Mutex
	messages []*domainmessage.Message
}

func (r *fakeMessageRepo) FindByID(_ context.Context, id uuid.UUID) (*domainmessage.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.messages {
		if m.ID() == id {
			return m, nil
		}
	}
	return nil, errs.ErrNotFound
}

func (r *fakeMessageRepo) FindByChatID(
	_ context.Context,
	chatID uuid.UUID,
	pagination domainmessage.Pagination,
) ([]*domainmessage.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domainmessage.Message
	// Newest first, mirroring the persistent store.
	for i := len(r.messages) - 1; i >= 0; i-- {
		if r.messages[i].ChatID() == chatID {
			out = append(out, r.messages[i])
		}
	}
	if pagination.Limit > 0 && pagination.Limit < len(out) {
		out = out[:pagination.Limit]
	}
	return out, nil
}

func (r *fakeMessageRepo) CountByChatID(_ context.Context, chatID uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, m := range r.messages {
		if m.ChatID() == chatID {
			count++
		}
	}
	return count, nil
}

func (r *fakeMessageRepo) Save(_ context.Context, m *domainmessage.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, m)
	return nil
}

type capturingSender struct {
	mu   sync.Mutex
	sent []messageapp.SendMessageCommand
}

func (s *capturingSender) SendMessage(
	_ context.Context,
	cmd messageapp.SendMessageCommand,
) (messageapp.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, cmd)
	return messageapp.Result{}, nil
}

func (s *capturingSender) commands() []messageapp.SendMessageCommand {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]messageapp.SendMessageCommand(nil), s.sent...)
}

// newCompletionServer returns a stub OpenAI endpoint that always answers
// with the given content and records the received requests.
func newCompletionServer(t *testing.T, content string) (*httptest.Server, *[]openai.ChatCompletionRequest) {
	t.Helper()
	var requests []openai.ChatCompletionRequest
	var mu sync.Mutex

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req openai.ChatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		mu.Lock()
		requests = append(requests, req)
		mu.Unlock()

		resp := openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{
				{Message: openai.ChatCompletionMessage{
					Role:    openai.ChatMessageRoleAssistant,
					Content: content,
				}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	t.Cleanup(server.Close)

	return server, &requests
}

func newPendingChat(t *testing.T, visitorID uuid.UUID) *domainchat.Chat {
	t.Helper()
	chat, err := domainchat.NewPendingChat(domainchat.CreateParams{
		VisitorID:   visitorID,
		VisitorInfo: domainchat.VisitorInfo{Name: "Ana"},
	})
	require.NoError(t, err)
	return chat
}

func sentEvent(t *testing.T, chatID, senderID uuid.UUID, content string) event.DomainEvent {
	t.Helper()
	msg, err := domainmessage.NewTextMessage(domainmessage.TextParams{
		ChatID:   chatID,
		SenderID: senderID,
		Content:  content,
	})
	require.NoError(t, err)
	events := msg.UncommittedEvents()
	require.Len(t, events, 1)
	return events[0]
}

func TestResponder_Handle(t *testing.T) {
	t.Run("replies to visitor message in pending chat", func(t *testing.T) {
		server, requests := newCompletionServer(t, "Claro, un agente le atenderá en breve.")

		visitorID := uuid.NewUUID()
		chatRepo := newFakeChatRepo()
		chat := newPendingChat(t, visitorID)
		require.NoError(t, chatRepo.Save(context.Background(), chat))

		sender := &capturingSender{}
		responder := ai.NewResponder(
			ai.Config{APIKey: "test-key", BaseURL: server.URL, Model: "gpt-4o-mini"},
			chatRepo,
			&fakeMessageRepo{},
			sender,
		)

		evt := sentEvent(t, chat.ID(), visitorID, "¿Tienen stock del modelo azul?")
		require.NoError(t, responder.Handle(context.Background(), evt))

		sent := sender.commands()
		require.Len(t, sent, 1)
		assert.Equal(t, chat.ID(), sent[0].ChatID)
		assert.Equal(t, domainmessage.SystemSenderID, sent[0].SenderID)
		assert.Equal(t, "Claro, un agente le atenderá en breve.", sent[0].Content)
		assert.True(t, sent[0].IsAI)
		require.NotNil(t, sent[0].AIMetadata)
		assert.Equal(t, "gpt-4o-mini", sent[0].AIMetadata.Model)

		require.Len(t, *requests, 1)
		req := (*requests)[0]
		require.NotEmpty(t, req.Messages)
		assert.Equal(t, openai.ChatMessageRoleSystem, req.Messages[0].Role)
		assert.Equal(t, "¿Tienen stock del modelo azul?", req.Messages[len(req.Messages)-1].Content)
	})

	t.Run("ignores its own replies", func(t *testing.T) {
		server, _ := newCompletionServer(t, "should never be asked")

		visitorID := uuid.NewUUID()
		chatRepo := newFakeChatRepo()
		chat := newPendingChat(t, visitorID)
		require.NoError(t, chatRepo.Save(context.Background(), chat))

		sender := &capturingSender{}
		responder := ai.NewResponder(
			ai.Config{APIKey: "test-key", BaseURL: server.URL},
			chatRepo,
			&fakeMessageRepo{},
			sender,
		)

		msg, err := domainmessage.NewTextMessage(domainmessage.TextParams{
			ChatID:   chat.ID(),
			SenderID: domainmessage.SystemSenderID,
			Content:  "respuesta automática",
			IsAI:     true,
		})
		require.NoError(t, err)
		evt := msg.UncommittedEvents()[0]

		require.NoError(t, responder.Handle(context.Background(), evt))
		assert.Empty(t, sender.commands())
	})

	t.Run("goes quiet once a commercial answered", func(t *testing.T) {
		server, _ := newCompletionServer(t, "should never be asked")

		visitorID := uuid.NewUUID()
		chatRepo := newFakeChatRepo()
		chat := newPendingChat(t, visitorID)
		chat.MarkInProgress()
		require.NoError(t, chatRepo.Save(context.Background(), chat))

		sender := &capturingSender{}
		responder := ai.NewResponder(
			ai.Config{APIKey: "test-key", BaseURL: server.URL},
			chatRepo,
			&fakeMessageRepo{},
			sender,
		)

		evt := sentEvent(t, chat.ID(), visitorID, "¿sigue ahí?")
		require.NoError(t, responder.Handle(context.Background(), evt))
		assert.Empty(t, sender.commands())
	})

	t.Run("ignores commercial messages", func(t *testing.T) {
		server, _ := newCompletionServer(t, "should never be asked")

		visitorID := uuid.NewUUID()
		chatRepo := newFakeChatRepo()
		chat := newPendingChat(t, visitorID)
		require.NoError(t, chatRepo.Save(context.Background(), chat))

		sender := &capturingSender{}
		responder := ai.NewResponder(
			ai.Config{APIKey: "test-key", BaseURL: server.URL},
			chatRepo,
			&fakeMessageRepo{},
			sender,
		)

		evt := sentEvent(t, chat.ID(), uuid.NewUUID(), "Hola, soy María de ventas")
		require.NoError(t, responder.Handle(context.Background(), evt))
		assert.Empty(t, sender.commands())
	})

	t.Run("missing chat is skipped", func(t *testing.T) {
		server, _ := newCompletionServer(t, "should never be asked")

		sender := &capturingSender{}
		responder := ai.NewResponder(
			ai.Config{APIKey: "test-key", BaseURL: server.URL},
			newFakeChatRepo(),
			&fakeMessageRepo{},
			sender,
		)

		evt := sentEvent(t, uuid.NewUUID(), uuid.NewUUID(), "hola")
		require.NoError(t, responder.Handle(context.Background(), evt))
		assert.Empty(t, sender.commands())
	})

	t.Run("completion failure does not surface", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		t.Cleanup(server.Close)

		visitorID := uuid.NewUUID()
		chatRepo := newFakeChatRepo()
		chat := newPendingChat(t, visitorID)
		require.NoError(t, chatRepo.Save(context.Background(), chat))

		sender := &capturingSender{}
		responder := ai.NewResponder(
			ai.Config{APIKey: "test-key", BaseURL: server.URL},
			chatRepo,
			&fakeMessageRepo{},
			sender,
		)

		evt := sentEvent(t, chat.ID(), visitorID, "hola")
		require.NoError(t, responder.Handle(context.Background(), evt))
		assert.Empty(t, sender.commands())
	})

	t.Run("other event types are ignored", func(t *testing.T) {
		responder := ai.NewResponder(
			ai.Config{APIKey: "test-key"},
			newFakeChatRepo(),
			&fakeMessageRepo{},
			&capturingSender{},
		)

		chat := newPendingChat(t, uuid.NewUUID())
		events := chat.UncommittedEvents()
		require.NotEmpty(t, events)
		require.NoError(t, responder.Handle(context.Background(), events[0]))
	})
}
