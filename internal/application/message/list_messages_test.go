package message_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	messageapp "github.com/atiendo/atiendo/internal/application/message"
	domainmessage "github.com/atiendo/atiendo/internal/domain/message"
	"github.com/atiendo/atiendo/internal/domain/uuid"
)

func TestListMessages_VisitorViewHidesInternalAndSystem(t *testing.T) {
	chatRepo := newFakeChatRepo()
	messageRepo := &fakeMessageRepo{}
	c := seedChat(t, chatRepo)

	visible, err := domainmessage.NewTextMessage(domainmessage.TextParams{
		ChatID: c.ID(), SenderID: c.VisitorID(), Content: "hola",
	})
	require.NoError(t, err)
	internal, err := domainmessage.NewTextMessage(domainmessage.TextParams{
		ChatID: c.ID(), SenderID: uuid.NewUUID(), Content: "nota", IsInternal: true,
	})
	require.NoError(t, err)
	system, err := domainmessage.NewSystemMessage(domainmessage.SystemParams{
		ChatID: c.ID(), Action: domainmessage.ActionJoined,
	})
	require.NoError(t, err)
	for _, m := range []*domainmessage.Message{visible, internal, system} {
		require.NoError(t, messageRepo.Save(testContext(), m))
	}

	useCase := messageapp.NewListMessagesUseCase(chatRepo, messageRepo, nil)

	result, err := useCase.Execute(testContext(), messageapp.ListMessagesQuery{
		ChatID:      c.ID(),
		VisitorView: true,
	})
	require.NoError(t, err)
	require.Len(t, result.Messages, 1)
	assert.Equal(t, visible.ID(), result.Messages[0].ID())
	// Total counts the whole timeline, not the filtered view.
	assert.Equal(t, 3, result.Total)
}

func TestListMessages_AgentViewSeesEverything(t *testing.T) {
	chatRepo := newFakeChatRepo()
	messageRepo := &fakeMessageRepo{}
	c := seedChat(t, chatRepo)

	for _, content := range []string{"uno", "dos"} {
		m, err := domainmessage.NewTextMessage(domainmessage.TextParams{
			ChatID: c.ID(), SenderID: c.VisitorID(), Content: content,
		})
		require.NoError(t, err)
		require.NoError(t, messageRepo.Save(testContext(), m))
	}

	useCase := messageapp.NewListMessagesUseCase(chatRepo, messageRepo, nil)

	result, err := useCase.Execute(testContext(), messageapp.ListMessagesQuery{ChatID: c.ID()})
	require.NoError(t, err)
	assert.Len(t, result.Messages, 2)
	assert.Equal(t, 2, result.Total)
}

func TestListMessages_ChatNotFound(t *testing.T) {
	useCase := messageapp.NewListMessagesUseCase(newFakeChatRepo(), &fakeMessageRepo{}, nil)

	_, err := useCase.Execute(testContext(), messageapp.ListMessagesQuery{ChatID: uuid.NewUUID()})
	assert.ErrorIs(t, err, messageapp.ErrChatNotFound)
}

func TestListMessages_PaginationClamped(t *testing.T) {
	chatRepo := newFakeChatRepo()
	messageRepo := &fakeMessageRepo{}
	c := seedChat(t, chatRepo)

	for i := 0; i < 3; i++ {
		m, err := domainmessage.NewTextMessage(domainmessage.TextParams{
			ChatID: c.ID(), SenderID: c.VisitorID(), Content: "msg",
		})
		require.NoError(t, err)
		require.NoError(t, messageRepo.Save(testContext(), m))
	}

	useCase := messageapp.NewListMessagesUseCase(chatRepo, messageRepo, nil)

	result, err := useCase.Execute(testContext(), messageapp.ListMessagesQuery{
		ChatID:     c.ID(),
		Pagination: domainmessage.Pagination{Limit: 2, Offset: 1},
	})
	require.NoError(t, err)
	assert.Len(t, result.Messages, 2)
	assert.Equal(t, 3, result.Total)
}
