package message_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atiendo/atiendo/internal/domain/errs"
	"github.com/atiendo/atiendo/internal/domain/message"
	"github.com/atiendo/atiendo/internal/domain/uuid"
)

func validAttachment() message.Attachment {
	return message.Attachment{
		URL:      "https://files.example.com/a1b2c3",
		FileName: "presupuesto.pdf",
		FileSize: 2048,
		MimeType: "application/pdf",
	}
}

func TestNewTextMessage_Success(t *testing.T) {
	chatID := uuid.NewUUID()
	senderID := uuid.NewUUID()

	m, err := message.NewTextMessage(message.TextParams{
		ChatID:   chatID,
		SenderID: senderID,
		Content:  "  Hola, necesito ayuda  ",
	})
	require.NoError(t, err)

	assert.Equal(t, chatID, m.ChatID())
	assert.Equal(t, senderID, m.SenderID())
	assert.Equal(t, "Hola, necesito ayuda", m.Content(), "content should be trimmed")
	assert.Equal(t, message.TypeText, m.MessageType())
	assert.False(t, m.IsInternal())
	assert.True(t, m.IsVisibleToVisitor())
}

func TestNewTextMessage_ContentBounds(t *testing.T) {
	chatID := uuid.NewUUID()
	senderID := uuid.NewUUID()

	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{"empty", "", errs.ErrInvalidContent},
		{"blank after trim", "   \t\n  ", errs.ErrInvalidContent},
		{"single char", "a", nil},
		{"exactly 4000", strings.Repeat("x", 4000), nil},
		{"4001 chars", strings.Repeat("x", 4001), errs.ErrInvalidContent},
		{"4001 trimmed to 4000", " " + strings.Repeat("x", 4000) + " ", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := message.NewTextMessage(message.TextParams{
				ChatID:   chatID,
				SenderID: senderID,
				Content:  tt.content,
			})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewTextMessage_EmitsSentEvent(t *testing.T) {
	m, err := message.NewTextMessage(message.TextParams{
		ChatID:          uuid.NewUUID(),
		SenderID:        uuid.NewUUID(),
		Content:         "Buenos días",
		IsFirstResponse: true,
	})
	require.NoError(t, err)

	events := m.UncommittedEvents()
	require.Len(t, events, 1)

	sent, ok := events[0].(*message.Sent)
	require.True(t, ok, "factory must record a Sent event")
	assert.Equal(t, message.EventTypeMessageSent, sent.EventType())
	assert.Equal(t, m.ID(), sent.MessageID)
	assert.Equal(t, m.ChatID(), sent.ChatID)
	assert.Equal(t, "Buenos días", sent.Content)
	assert.True(t, sent.IsFirstResponse)
	assert.False(t, sent.IsInternal)
	assert.Equal(t, m.CreatedAt(), sent.SentAt)

	m.MarkEventsCommitted()
	assert.Empty(t, m.UncommittedEvents())
}

func TestNewSystemMessage_AlwaysInternal(t *testing.T) {
	chatID := uuid.NewUUID()

	for _, action := range []string{
		message.ActionAssigned,
		message.ActionTransferred,
		message.ActionJoined,
		message.ActionLeft,
		"escalated", // unknown action
	} {
		t.Run(action, func(t *testing.T) {
			m, err := message.NewSystemMessage(message.SystemParams{
				ChatID: chatID,
				Action: action,
			})
			require.NoError(t, err)

			assert.True(t, m.IsInternal(), "system messages must be internal")
			assert.False(t, m.IsVisibleToVisitor())
			assert.Equal(t, message.SystemSenderID, m.SenderID())
			assert.Equal(t, message.TypeSystem, m.MessageType())
		})
	}
}

func TestNewSystemMessage_ContentLookup(t *testing.T) {
	chatID := uuid.NewUUID()

	tests := []struct {
		action string
		want   string
	}{
		{message.ActionAssigned, "Comercial asignado al chat"},
		{message.ActionTransferred, "Chat transferido a otro comercial"},
		{message.ActionJoined, "Usuario se unió al chat"},
		{message.ActionLeft, "Usuario abandonó el chat"},
		{"escalated", "Acción del sistema: escalated"},
	}

	for _, tt := range tests {
		t.Run(tt.action, func(t *testing.T) {
			m, err := message.NewSystemMessage(message.SystemParams{ChatID: chatID, Action: tt.action})
			require.NoError(t, err)
			assert.Equal(t, tt.want, m.Content())
		})
	}
}

func TestNewSystemMessage_KeepsActionPayload(t *testing.T) {
	from := uuid.NewUUID()
	to := uuid.NewUUID()

	m, err := message.NewSystemMessage(message.SystemParams{
		ChatID:     uuid.NewUUID(),
		Action:     message.ActionTransferred,
		FromUserID: from,
		ToUserID:   to,
		Reason:     "vacaciones",
	})
	require.NoError(t, err)

	data := m.SystemData()
	require.NotNil(t, data)
	assert.Equal(t, from, data.FromUserID)
	assert.Equal(t, to, data.ToUserID)
	assert.Equal(t, "vacaciones", data.Reason)
}

func TestNewFileMessage_TypeFromMime(t *testing.T) {
	chatID := uuid.NewUUID()
	senderID := uuid.NewUUID()

	tests := []struct {
		mimeType string
		want     message.Type
	}{
		{"image/png", message.TypeImage},
		{"image/jpeg", message.TypeImage},
		{"image/svg+xml", message.TypeImage},
		{"application/pdf", message.TypeFile},
		{"text/plain", message.TypeFile},
		{"video/mp4", message.TypeFile},
	}

	for _, tt := range tests {
		t.Run(tt.mimeType, func(t *testing.T) {
			attachment := validAttachment()
			attachment.MimeType = tt.mimeType

			m, err := message.NewFileMessage(message.FileParams{
				ChatID:     chatID,
				SenderID:   senderID,
				FileName:   attachment.FileName,
				Attachment: attachment,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.want, m.MessageType())
		})
	}
}

func TestNewFileMessage_ContentAndAttachment(t *testing.T) {
	m, err := message.NewFileMessage(message.FileParams{
		ChatID:     uuid.NewUUID(),
		SenderID:   uuid.NewUUID(),
		FileName:   "presupuesto.pdf",
		Attachment: validAttachment(),
	})
	require.NoError(t, err)

	assert.Equal(t, "Archivo adjunto: presupuesto.pdf", m.Content())
	require.NotNil(t, m.Attachment())
	assert.Equal(t, "application/pdf", m.Attachment().MimeType)

	events := m.UncommittedEvents()
	require.Len(t, events, 1)
	sent := events[0].(*message.Sent)
	require.NotNil(t, sent.Attachment)
	assert.Equal(t, "presupuesto.pdf", sent.Attachment.FileName)
}

func TestNewFileMessage_InvalidAttachment(t *testing.T) {
	attachment := validAttachment()
	attachment.FileSize = 0

	_, err := message.NewFileMessage(message.FileParams{
		ChatID:     uuid.NewUUID(),
		SenderID:   uuid.NewUUID(),
		FileName:   attachment.FileName,
		Attachment: attachment,
	})
	assert.ErrorIs(t, err, errs.ErrInvalidInput)
}

func TestContentSummary(t *testing.T) {
	m, err := message.NewTextMessage(message.TextParams{
		ChatID:   uuid.NewUUID(),
		SenderID: uuid.NewUUID(),
		Content:  strings.Repeat("m", 120),
	})
	require.NoError(t, err)

	summary := m.ContentSummary()
	assert.Len(t, []rune(summary), 103)
	assert.True(t, strings.HasSuffix(summary, "..."))

	short, err := message.NewTextMessage(message.TextParams{
		ChatID:   uuid.NewUUID(),
		SenderID: uuid.NewUUID(),
		Content:  "corto",
	})
	require.NoError(t, err)
	assert.Equal(t, "corto", short.ContentSummary())
}

func TestInternalTextMessage_NotVisibleToVisitor(t *testing.T) {
	m, err := message.NewTextMessage(message.TextParams{
		ChatID:     uuid.NewUUID(),
		SenderID:   uuid.NewUUID(),
		Content:    "nota interna",
		IsInternal: true,
	})
	require.NoError(t, err)

	assert.False(t, m.IsVisibleToVisitor())
}

func TestAIMessage_CarriesMetadata(t *testing.T) {
	m, err := message.NewTextMessage(message.TextParams{
		ChatID:     uuid.NewUUID(),
		SenderID:   uuid.NewUUID(),
		Content:    "Claro, puedo ayudarte con eso.",
		IsAI:       true,
		AIMetadata: &message.AIMetadata{Model: "gpt-4o-mini", LatencyMS: 420},
	})
	require.NoError(t, err)

	assert.True(t, m.IsAI())
	require.NotNil(t, m.AIMetadata())
	assert.Equal(t, "gpt-4o-mini", m.AIMetadata().Model)

	sent := m.UncommittedEvents()[0].(*message.Sent)
	assert.True(t, sent.IsAI)
	require.NotNil(t, sent.AIMetadata)
}
