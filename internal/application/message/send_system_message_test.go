package message_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	messageapp "github.com/atiendo/atiendo/internal/application/message"
	domainmessage "github.com/atiendo/atiendo/internal/domain/message"
	"github.com/atiendo/atiendo/internal/domain/uuid"
)

func TestSendSystemMessage_Assigned(t *testing.T) {
	chatRepo := newFakeChatRepo()
	messageRepo := &fakeMessageRepo{}
	bus := &recordingBus{}
	useCase := messageapp.NewSendSystemMessageUseCase(chatRepo, messageRepo, bus, nil)

	c := seedChat(t, chatRepo)
	commercial := uuid.NewUUID()

	result, err := useCase.Execute(testContext(), messageapp.SendSystemMessageCommand{
		ChatID:   c.ID(),
		Action:   domainmessage.ActionAssigned,
		ToUserID: commercial,
	})
	require.NoError(t, err)

	msg := result.Value
	assert.Equal(t, domainmessage.TypeSystem, msg.MessageType())
	assert.Equal(t, "Comercial asignado al chat", msg.Content())
	assert.Equal(t, domainmessage.SystemSenderID, msg.SenderID())
	assert.True(t, msg.IsInternal())
	require.NotNil(t, msg.SystemData())
	assert.Equal(t, commercial, msg.SystemData().ToUserID)

	require.Len(t, bus.published(), 1)
}

func TestSendSystemMessage_WorksOnClosedChat(t *testing.T) {
	chatRepo := newFakeChatRepo()
	useCase := messageapp.NewSendSystemMessageUseCase(chatRepo, &fakeMessageRepo{}, &recordingBus{}, nil)

	c := seedChat(t, chatRepo)
	require.NoError(t, c.Close(uuid.NewUUID(), "done"))
	c.MarkEventsCommitted()

	result, err := useCase.Execute(testContext(), messageapp.SendSystemMessageCommand{
		ChatID: c.ID(),
		Action: domainmessage.ActionLeft,
	})
	require.NoError(t, err)
	assert.Equal(t, "Usuario abandonó el chat", result.Value.Content())
}

func TestSendSystemMessage_ChatNotFound(t *testing.T) {
	useCase := messageapp.NewSendSystemMessageUseCase(
		newFakeChatRepo(), &fakeMessageRepo{}, &recordingBus{}, nil,
	)

	_, err := useCase.Execute(testContext(), messageapp.SendSystemMessageCommand{
		ChatID: uuid.NewUUID(),
		Action: domainmessage.ActionJoined,
	})
	assert.ErrorIs(t, err, messageapp.ErrChatNotFound)
}

func TestSendSystemMessage_MissingAction(t *testing.T) {
	chatRepo := newFakeChatRepo()
	useCase := messageapp.NewSendSystemMessageUseCase(chatRepo, &fakeMessageRepo{}, &recordingBus{}, nil)

	c := seedChat(t, chatRepo)

	_, err := useCase.Execute(testContext(), messageapp.SendSystemMessageCommand{ChatID: c.ID()})
	assert.Error(t, err)
}
