package httphandler_test

import (
	"encoding/json"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainmessage "github.com/atiendo/atiendo/internal/domain/message"
	"github.com/atiendo/atiendo/internal/domain/uuid"
	httphandler "github.com/atiendo/atiendo/internal/handler/http"
)

// Helper function to create a test text message.
func createTestTextMessage(t *testing.T, chatID, senderID uuid.UUID, content string, internal bool) *domainmessage.Message {
	t.Helper()
	msg, err := domainmessage.NewTextMessage(domainmessage.TextParams{
		ChatID:     chatID,
		SenderID:   senderID,
		Content:    content,
		IsInternal: internal,
	})
	require.NoError(t, err)
	return msg
}

// Helper function to build chat messages URL.
func chatMessagesURL(prefix string, chatID uuid.UUID) string {
	return "/api/v1/" + prefix + "/chats/" + chatID.String() + "/messages"
}

func TestMessageHandler_Send(t *testing.T) {
	t.Run("widget send", func(t *testing.T) {
		e := echo.New()
		chatID := uuid.NewUUID()
		visitorID := uuid.NewUUID()

		mockService := httphandler.NewMockMessageService()
		handler := httphandler.NewMessageHandler(mockService)

		reqBody := `{"sender_id": "` + visitorID.String() + `", "content": "Hola, necesito ayuda"}`
		req := httptest.NewRequest(stdhttp.MethodPost, chatMessagesURL("widget", chatID), strings.NewReader(reqBody))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("chat_id")
		c.SetParamValues(chatID.String())

		err := handler.SendFromWidget(c)
		require.NoError(t, err)
		assert.Equal(t, stdhttp.StatusCreated, rec.Code)

		var resp struct {
			Success bool                        `json:"success"`
			Data    httphandler.MessageResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.Equal(t, chatID, resp.Data.ChatID)
		assert.Equal(t, "Hola, necesito ayuda", resp.Data.Content)
		assert.Equal(t, "text", resp.Data.Type)
		assert.False(t, resp.Data.Internal)
	})

	t.Run("widget cannot send internal notes", func(t *testing.T) {
		e := echo.New()
		chatID := uuid.NewUUID()

		mockService := httphandler.NewMockMessageService()
		handler := httphandler.NewMessageHandler(mockService)

		reqBody := `{"sender_id": "` + uuid.NewUUID().String() + `", "content": "nota", "internal": true}`
		req := httptest.NewRequest(stdhttp.MethodPost, chatMessagesURL("widget", chatID), strings.NewReader(reqBody))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("chat_id")
		c.SetParamValues(chatID.String())

		err := handler.SendFromWidget(c)
		require.NoError(t, err)
		assert.Equal(t, stdhttp.StatusCreated, rec.Code)

		var resp struct {
			Data httphandler.MessageResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.False(t, resp.Data.Internal)
	})

	t.Run("agent internal note", func(t *testing.T) {
		e := echo.New()
		chatID := uuid.NewUUID()

		mockService := httphandler.NewMockMessageService()
		handler := httphandler.NewMessageHandler(mockService)

		reqBody := `{"sender_id": "` + uuid.NewUUID().String() + `", "content": "cliente VIP", "internal": true}`
		req := httptest.NewRequest(stdhttp.MethodPost, chatMessagesURL("agent", chatID), strings.NewReader(reqBody))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("chat_id")
		c.SetParamValues(chatID.String())

		err := handler.SendFromAgent(c)
		require.NoError(t, err)
		assert.Equal(t, stdhttp.StatusCreated, rec.Code)

		var resp struct {
			Data httphandler.MessageResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.True(t, resp.Data.Internal)
	})

	t.Run("empty content", func(t *testing.T) {
		e := echo.New()
		chatID := uuid.NewUUID()

		mockService := httphandler.NewMockMessageService()
		handler := httphandler.NewMessageHandler(mockService)

		reqBody := `{"sender_id": "` + uuid.NewUUID().String() + `", "content": ""}`
		req := httptest.NewRequest(stdhttp.MethodPost, chatMessagesURL("widget", chatID), strings.NewReader(reqBody))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("chat_id")
		c.SetParamValues(chatID.String())

		err := handler.SendFromWidget(c)
		require.NoError(t, err)
		assert.Equal(t, stdhttp.StatusBadRequest, rec.Code)
	})

	t.Run("malformed chat id", func(t *testing.T) {
		e := echo.New()

		mockService := httphandler.NewMockMessageService()
		handler := httphandler.NewMessageHandler(mockService)

		reqBody := `{"sender_id": "` + uuid.NewUUID().String() + `", "content": "hola"}`
		req := httptest.NewRequest(stdhttp.MethodPost, "/api/v1/widget/chats/xx/messages", strings.NewReader(reqBody))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("chat_id")
		c.SetParamValues("xx")

		err := handler.SendFromWidget(c)
		require.NoError(t, err)
		assert.Equal(t, stdhttp.StatusBadRequest, rec.Code)
	})
}

func TestMessageHandler_SendFile(t *testing.T) {
	t.Run("image attachment", func(t *testing.T) {
		e := echo.New()
		chatID := uuid.NewUUID()

		mockService := httphandler.NewMockMessageService()
		handler := httphandler.NewMessageHandler(mockService)

		reqBody := `{
			"sender_id": "` + uuid.NewUUID().String() + `",
			"url": "https://files.example.com/captura.png",
			"file_name": "captura.png",
			"file_size": 2048,
			"mime_type": "image/png"
		}`
		req := httptest.NewRequest(
			stdhttp.MethodPost, "/api/v1/agent/chats/"+chatID.String()+"/files", strings.NewReader(reqBody))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("chat_id")
		c.SetParamValues(chatID.String())

		err := handler.SendFile(c)
		require.NoError(t, err)
		assert.Equal(t, stdhttp.StatusCreated, rec.Code)

		var resp struct {
			Data httphandler.MessageResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "image", resp.Data.Type)
		require.NotNil(t, resp.Data.Attachment)
		assert.Equal(t, "captura.png", resp.Data.Attachment.FileName)
		assert.Equal(t, int64(2048), resp.Data.Attachment.FileSize)
	})

	t.Run("missing url", func(t *testing.T) {
		e := echo.New()
		chatID := uuid.NewUUID()

		mockService := httphandler.NewMockMessageService()
		handler := httphandler.NewMessageHandler(mockService)

		reqBody := `{
			"sender_id": "` + uuid.NewUUID().String() + `",
			"file_name": "captura.png",
			"file_size": 2048,
			"mime_type": "image/png"
		}`
		req := httptest.NewRequest(
			stdhttp.MethodPost, "/api/v1/agent/chats/"+chatID.String()+"/files", strings.NewReader(reqBody))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("chat_id")
		c.SetParamValues(chatID.String())

		err := handler.SendFile(c)
		require.NoError(t, err)
		assert.Equal(t, stdhttp.StatusBadRequest, rec.Code)
	})
}

func TestMessageHandler_List(t *testing.T) {
	t.Run("visitor view hides internal messages", func(t *testing.T) {
		e := echo.New()
		chatID := uuid.NewUUID()
		visitorID := uuid.NewUUID()
		agentID := uuid.NewUUID()

		mockService := httphandler.NewMockMessageService()
		mockService.AddMessage(createTestTextMessage(t, chatID, visitorID, "hola", false))
		mockService.AddMessage(createTestTextMessage(t, chatID, agentID, "nota interna", true))
		mockService.AddMessage(createTestTextMessage(t, chatID, agentID, "buenos días", false))
		handler := httphandler.NewMessageHandler(mockService)

		req := httptest.NewRequest(stdhttp.MethodGet, chatMessagesURL("widget", chatID), nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("chat_id")
		c.SetParamValues(chatID.String())

		err := handler.ListForWidget(c)
		require.NoError(t, err)
		assert.Equal(t, stdhttp.StatusOK, rec.Code)

		var resp struct {
			Data httphandler.MessageListResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Data.Messages, 2)
		for _, msg := range resp.Data.Messages {
			assert.False(t, msg.Internal)
		}
	})

	t.Run("agent view sees the full timeline", func(t *testing.T) {
		e := echo.New()
		chatID := uuid.NewUUID()
		agentID := uuid.NewUUID()

		mockService := httphandler.NewMockMessageService()
		mockService.AddMessage(createTestTextMessage(t, chatID, agentID, "hola", false))
		mockService.AddMessage(createTestTextMessage(t, chatID, agentID, "nota interna", true))
		handler := httphandler.NewMessageHandler(mockService)

		req := httptest.NewRequest(stdhttp.MethodGet, chatMessagesURL("agent", chatID), nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("chat_id")
		c.SetParamValues(chatID.String())

		err := handler.ListForAgent(c)
		require.NoError(t, err)
		assert.Equal(t, stdhttp.StatusOK, rec.Code)

		var resp struct {
			Data httphandler.MessageListResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Len(t, resp.Data.Messages, 2)
		assert.Equal(t, 2, resp.Data.Total)
	})

	t.Run("pagination", func(t *testing.T) {
		e := echo.New()
		chatID := uuid.NewUUID()
		agentID := uuid.NewUUID()

		mockService := httphandler.NewMockMessageService()
		for range 5 {
			mockService.AddMessage(createTestTextMessage(t, chatID, agentID, "mensaje", false))
		}
		handler := httphandler.NewMessageHandler(mockService)

		req := httptest.NewRequest(stdhttp.MethodGet, chatMessagesURL("agent", chatID)+"?limit=2&offset=4", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("chat_id")
		c.SetParamValues(chatID.String())

		err := handler.ListForAgent(c)
		require.NoError(t, err)
		assert.Equal(t, stdhttp.StatusOK, rec.Code)

		var resp struct {
			Data httphandler.MessageListResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Len(t, resp.Data.Messages, 1)
		assert.Equal(t, 5, resp.Data.Total)
		assert.False(t, resp.Data.HasMore)
	})

	t.Run("empty chat", func(t *testing.T) {
		e := echo.New()
		chatID := uuid.NewUUID()

		mockService := httphandler.NewMockMessageService()
		handler := httphandler.NewMessageHandler(mockService)

		req := httptest.NewRequest(stdhttp.MethodGet, chatMessagesURL("widget", chatID), nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("chat_id")
		c.SetParamValues(chatID.String())

		err := handler.ListForWidget(c)
		require.NoError(t, err)
		assert.Equal(t, stdhttp.StatusOK, rec.Code)

		var resp struct {
			Data httphandler.MessageListResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Empty(t, resp.Data.Messages)
		assert.Equal(t, 0, resp.Data.Total)
	})
}
