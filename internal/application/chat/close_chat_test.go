package chat_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	chatapp "github.com/atiendo/atiendo/internal/application/chat"
	domainchat "github.com/atiendo/atiendo/internal/domain/chat"
	"github.com/atiendo/atiendo/internal/domain/errs"
	"github.com/atiendo/atiendo/internal/domain/message"
	"github.com/atiendo/atiendo/internal/domain/uuid"
)

// fakeMessageRepo stores messages in memory.
type fakeMessageRepo struct {
	mu       sync.Mutex
	messages []*message.Message
	saveErr  error
}

func (r *fakeMessageRepo) FindByID(_ context.Context, _ uuid.UUID) (*message.Message, error) {
	return nil, errs.ErrNotFound
}

func (r *fakeMessageRepo) FindByChatID(
	_ context.Context,
	chatID uuid.UUID,
	_ message.Pagination,
) ([]*message.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*message.Message
	for _, m := range r.messages {
		if m.ChatID() == chatID {
			out = append(out, m)
		}
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

func (r *fakeMessageRepo) Save(_ context.Context, m *message.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	r.messages = append(r.messages, m)
	return nil
}

func seedChat(t *testing.T, repo *fakeChatRepo) *domainchat.Chat {
	t.Helper()
	c, err := domainchat.NewPendingChat(domainchat.CreateParams{VisitorID: uuid.NewUUID()})
	require.NoError(t, err)
	c.MarkEventsCommitted()
	require.NoError(t, repo.Save(testContext(), c))
	return c
}

func TestCloseChat_Success(t *testing.T) {
	chatRepo := newFakeChatRepo()
	messageRepo := &fakeMessageRepo{}
	bus := &recordingBus{}
	useCase := chatapp.NewCloseChatUseCase(chatRepo, messageRepo, bus, nil)

	c := seedChat(t, chatRepo)
	closedBy := uuid.NewUUID()

	result, err := useCase.Execute(testContext(), chatapp.CloseChatCommand{
		ChatID:   c.ID(),
		ClosedBy: closedBy,
		Reason:   "resolved",
	})
	require.NoError(t, err)
	assert.Equal(t, domainchat.StatusClosed, result.Value.Status())

	// A "left" system message is appended to the agent timeline.
	require.Len(t, messageRepo.messages, 1)
	sysMsg := messageRepo.messages[0]
	assert.Equal(t, message.TypeSystem, sysMsg.MessageType())
	assert.True(t, sysMsg.IsInternal())
	assert.Equal(t, "Usuario abandonó el chat", sysMsg.Content())

	// chat.closed and message.sent both published, in that order.
	published := bus.published()
	require.Len(t, published, 2)
	assert.Equal(t, domainchat.EventTypeChatClosed, published[0].EventType())
	assert.Equal(t, message.EventTypeMessageSent, published[1].EventType())
}

func TestCloseChat_NotFound(t *testing.T) {
	useCase := chatapp.NewCloseChatUseCase(newFakeChatRepo(), &fakeMessageRepo{}, &recordingBus{}, nil)

	_, err := useCase.Execute(testContext(), chatapp.CloseChatCommand{
		ChatID:   uuid.NewUUID(),
		ClosedBy: uuid.NewUUID(),
	})
	assert.ErrorIs(t, err, chatapp.ErrChatNotFound)
}

func TestCloseChat_AlreadyClosed(t *testing.T) {
	chatRepo := newFakeChatRepo()
	useCase := chatapp.NewCloseChatUseCase(chatRepo, &fakeMessageRepo{}, &recordingBus{}, nil)

	c := seedChat(t, chatRepo)
	cmd := chatapp.CloseChatCommand{ChatID: c.ID(), ClosedBy: uuid.NewUUID()}

	_, err := useCase.Execute(testContext(), cmd)
	require.NoError(t, err)

	_, err = useCase.Execute(testContext(), cmd)
	assert.ErrorIs(t, err, chatapp.ErrChatClosed)
}

func TestCloseChat_SystemMessageFailureDoesNotFailClose(t *testing.T) {
	chatRepo := newFakeChatRepo()
	messageRepo := &fakeMessageRepo{saveErr: assert.AnError}
	useCase := chatapp.NewCloseChatUseCase(chatRepo, messageRepo, &recordingBus{}, nil)

	c := seedChat(t, chatRepo)

	result, err := useCase.Execute(testContext(), chatapp.CloseChatCommand{
		ChatID:   c.ID(),
		ClosedBy: uuid.NewUUID(),
	})
	require.NoError(t, err, "system message is best-effort")
	assert.Equal(t, domainchat.StatusClosed, result.Value.Status())
}
