package message_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	domainchat "github.com/atiendo/atiendo/internal/domain/chat"
	"github.com/atiendo/atiendo/internal/domain/errs"
	"github.com/atiendo/atiendo/internal/domain/event"
	domainmessage "github.com/atiendo/atiendo/internal/domain/message"
	"github.com/atiendo/atiendo/internal/domain/uuid"
)

func testContext() context.Context {
	return context.Background()
}

type fakeChatRepo struct {
	mu      sync.Mutex
	chats   map[uuid.UUID]*domainchat.Chat
	findErr error
}

func newFakeChatRepo() *fakeChatRepo {
	return &fakeChatRepo{chats: make(map[uuid.UUID]*domainchat.Chat)}
}

func (r *fakeChatRepo) FindByID(_ context.Context, id uuid.UUID) (*domainchat.Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
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

func (r *fakeChatRepo) CountPendingCreatedBefore(
	_ context.Context,
	_ time.Time,
	_ string,
) (int, error) {
	return 0, nil
}

type fakeMessageRepo struct {
	mu       sync.Mutex
	messages []*domainmessage.Message
	saveErr  error
	countErr error
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
	for _, m := range r.messages {
		if m.ChatID() == chatID {
			out = append(out, m)
		}
	}
	if pagination.Offset >= len(out) {
		return nil, nil
	}
	out = out[pagination.Offset:]
	if pagination.Limit > 0 && pagination.Limit < len(out) {
		out = out[:pagination.Limit]
	}
	return out, nil
}

func (r *fakeMessageRepo) CountByChatID(_ context.Context, chatID uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.countErr != nil {
		return 0, r.countErr
	}
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
	if r.saveErr != nil {
		return r.saveErr
	}
	r.messages = append(r.messages, m)
	return nil
}

type recordingBus struct {
	mu     sync.Mutex
	events []event.DomainEvent
}

func (b *recordingBus) Publish(_ context.Context, evt event.DomainEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, evt)
	return nil
}

func (b *recordingBus) published() []event.DomainEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]event.DomainEvent(nil), b.events...)
}

// seedChat stores a fresh pending chat and returns it.
func seedChat(t *testing.T, repo *fakeChatRepo) *domainchat.Chat {
	t.Helper()
	c, err := domainchat.NewPendingChat(domainchat.CreateParams{VisitorID: uuid.NewUUID()})
	require.NoError(t, err)
	c.MarkEventsCommitted()
	require.NoError(t, repo.Save(testContext(), c))
	return c
}
