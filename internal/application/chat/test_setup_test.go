package chat_test

import (
	"context"
	"sync"
	"time"

	domainchat "github.com/atiendo/atiendo/internal/domain/chat"
	"github.com/atiendo/atiendo/internal/domain/errs"
	"github.com/atiendo/atiendo/internal/domain/event"
	"github.com/atiendo/atiendo/internal/domain/uuid"
)

func testContext() context.Context {
	return context.Background()
}

// fakeChatRepo is an in-memory chat repository with injectable failures.
type fakeChatRepo struct {
	mu        sync.Mutex
	chats     map[uuid.UUID]*domainchat.Chat
	saveCalls int

	saveErr  error
	findErr  error
	countErr error

	pendingCount int
	lastCountDep string
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
	r.saveCalls++
	if r.saveErr != nil {
		return r.saveErr
	}
	if existing, ok := r.chats[c.ID()]; ok && existing.CreatedAt() != c.CreatedAt() {
		return errs.ErrAlreadyExists
	}
	r.chats[c.ID()] = c
	return nil
}

func (r *fakeChatRepo) CountPendingCreatedBefore(
	_ context.Context,
	_ time.Time,
	department string,
) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastCountDep = department
	if r.countErr != nil {
		return 0, r.countErr
	}
	return r.pendingCount, nil
}

// recordingBus collects published events in order.
type recordingBus struct {
	mu     sync.Mutex
	events []event.DomainEvent
	err    error
}

func (b *recordingBus) Publish(_ context.Context, evt event.DomainEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return b.err
	}
	b.events = append(b.events, evt)
	return nil
}

func (b *recordingBus) published() []event.DomainEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]event.DomainEvent(nil), b.events...)
}
