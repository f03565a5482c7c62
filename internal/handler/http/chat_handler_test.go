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

	domainchat "github.com/atiendo/atiendo/internal/domain/chat"
	"github.com/atiendo/atiendo/internal/domain/uuid"
	httphandler "github.com/atiendo/atiendo/internal/handler/http"
	"github.com/atiendo/atiendo/internal/infrastructure/httpserver"
)

// Helper function to create a pending test chat.
func createTestChat(t *testing.T, visitorID uuid.UUID) *domainchat.Chat {
	t.Helper()
	chat, err := domainchat.NewPendingChat(domainchat.CreateParams{
		VisitorID:   visitorID,
		VisitorInfo: domainchat.VisitorInfo{Name: "Ana", Email: "ana@example.com"},
		Metadata:    domainchat.Metadata{Department: "ventas", Source: "widget"},
	})
	require.NoError(t, err)
	return chat
}

func TestChatHandler_Create(t *testing.T) {
	t.Run("successful create", func(t *testing.T) {
		e := echo.New()
		chatID := uuid.NewUUID()
		visitorID := uuid.NewUUID()

		mockService := httphandler.NewMockChatService()
		handler := httphandler.NewChatHandler(mockService)

		reqBody := `{
			"chat_id": "` + chatID.String() + `",
			"visitor_id": "` + visitorID.String() + `",
			"name": "Ana",
			"priority": "high",
			"department": "ventas"
		}`
		req := httptest.NewRequest(stdhttp.MethodPost, "/api/v1/widget/chats", strings.NewReader(reqBody))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		err := handler.Create(c)
		require.NoError(t, err)
		assert.Equal(t, stdhttp.StatusCreated, rec.Code)

		var resp struct {
			Success bool                     `json:"success"`
			Data    httphandler.ChatResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.Equal(t, chatID, resp.Data.ID)
		assert.Equal(t, "pending", resp.Data.Status)
		assert.Equal(t, "high", resp.Data.Priority)
		assert.Equal(t, "ventas", resp.Data.Metadata.Department)
	})

	t.Run("retry with same chat id returns the first chat", func(t *testing.T) {
		e := echo.New()
		chatID := uuid.NewUUID()
		visitorID := uuid.NewUUID()

		mockService := httphandler.NewMockChatService()
		handler := httphandler.NewChatHandler(mockService)

		reqBody := `{"chat_id": "` + chatID.String() + `", "visitor_id": "` + visitorID.String() + `"}`
		for range 2 {
			req := httptest.NewRequest(stdhttp.MethodPost, "/api/v1/widget/chats", strings.NewReader(reqBody))
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			err := handler.Create(c)
			require.NoError(t, err)
			assert.Equal(t, stdhttp.StatusCreated, rec.Code)

			var resp struct {
				Data httphandler.ChatResponse `json:"data"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, chatID, resp.Data.ID)
		}
	})

	t.Run("missing chat id", func(t *testing.T) {
		e := echo.New()

		mockService := httphandler.NewMockChatService()
		handler := httphandler.NewChatHandler(mockService)

		reqBody := `{"visitor_id": "` + uuid.NewUUID().String() + `"}`
		req := httptest.NewRequest(stdhttp.MethodPost, "/api/v1/widget/chats", strings.NewReader(reqBody))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		err := handler.Create(c)
		require.NoError(t, err)
		assert.Equal(t, stdhttp.StatusBadRequest, rec.Code)
	})

	t.Run("invalid priority", func(t *testing.T) {
		e := echo.New()

		mockService := httphandler.NewMockChatService()
		handler := httphandler.NewChatHandler(mockService)

		reqBody := `{
			"chat_id": "` + uuid.NewUUID().String() + `",
			"visitor_id": "` + uuid.NewUUID().String() + `",
			"priority": "apocalyptic"
		}`
		req := httptest.NewRequest(stdhttp.MethodPost, "/api/v1/widget/chats", strings.NewReader(reqBody))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		err := handler.Create(c)
		require.NoError(t, err)
		assert.Equal(t, stdhttp.StatusBadRequest, rec.Code)
	})
}

func TestChatHandler_JoinWaitingRoom(t *testing.T) {
	t.Run("positions are sequential", func(t *testing.T) {
		e := echo.New()

		mockService := httphandler.NewMockChatService()
		handler := httphandler.NewChatHandler(mockService)

		for want := 1; want <= 3; want++ {
			reqBody := `{"visitor_id": "` + uuid.NewUUID().String() + `", "department": "ventas"}`
			req := httptest.NewRequest(stdhttp.MethodPost, "/api/v1/widget/waiting-room", strings.NewReader(reqBody))
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			err := handler.JoinWaitingRoom(c)
			require.NoError(t, err)
			assert.Equal(t, stdhttp.StatusCreated, rec.Code)

			var resp struct {
				Data httphandler.JoinWaitingRoomResponse `json:"data"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, want, resp.Data.Position)
			assert.Equal(t, "pending", resp.Data.Chat.Status)
		}
	})

	t.Run("missing visitor id", func(t *testing.T) {
		e := echo.New()

		mockService := httphandler.NewMockChatService()
		handler := httphandler.NewChatHandler(mockService)

		req := httptest.NewRequest(stdhttp.MethodPost, "/api/v1/widget/waiting-room", strings.NewReader(`{}`))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		err := handler.JoinWaitingRoom(c)
		require.NoError(t, err)
		assert.Equal(t, stdhttp.StatusBadRequest, rec.Code)
	})
}

func TestChatHandler_Get(t *testing.T) {
	t.Run("existing chat", func(t *testing.T) {
		e := echo.New()
		chat := createTestChat(t, uuid.NewUUID())

		mockService := httphandler.NewMockChatService()
		mockService.AddChat(chat)
		handler := httphandler.NewChatHandler(mockService)

		req := httptest.NewRequest(stdhttp.MethodGet, "/api/v1/agent/chats/"+chat.ID().String(), nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues(chat.ID().String())

		err := handler.Get(c)
		require.NoError(t, err)
		assert.Equal(t, stdhttp.StatusOK, rec.Code)

		var resp struct {
			Data httphandler.ChatResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, chat.ID(), resp.Data.ID)
		assert.Equal(t, "Ana", resp.Data.Visitor.Name)
	})

	t.Run("unknown chat", func(t *testing.T) {
		e := echo.New()

		mockService := httphandler.NewMockChatService()
		handler := httphandler.NewChatHandler(mockService)

		chatID := uuid.NewUUID()
		req := httptest.NewRequest(stdhttp.MethodGet, "/api/v1/agent/chats/"+chatID.String(), nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues(chatID.String())

		err := handler.Get(c)
		require.NoError(t, err)
		assert.Equal(t, stdhttp.StatusNotFound, rec.Code)

		var resp httpserver.Response
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.False(t, resp.Success)
		assert.Equal(t, "CHAT_NOT_FOUND", resp.Error.Code)
	})

	t.Run("malformed chat id", func(t *testing.T) {
		e := echo.New()

		mockService := httphandler.NewMockChatService()
		handler := httphandler.NewChatHandler(mockService)

		req := httptest.NewRequest(stdhttp.MethodGet, "/api/v1/agent/chats/nope", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues("nope")

		err := handler.Get(c)
		require.NoError(t, err)
		assert.Equal(t, stdhttp.StatusBadRequest, rec.Code)
	})
}

func TestChatHandler_Close(t *testing.T) {
	t.Run("successful close", func(t *testing.T) {
		e := echo.New()
		chat := createTestChat(t, uuid.NewUUID())
		agentID := uuid.NewUUID()

		mockService := httphandler.NewMockChatService()
		mockService.AddChat(chat)
		handler := httphandler.NewChatHandler(mockService)

		reqBody := `{"closed_by": "` + agentID.String() + `", "reason": "resolved"}`
		req := httptest.NewRequest(
			stdhttp.MethodPost, "/api/v1/agent/chats/"+chat.ID().String()+"/close", strings.NewReader(reqBody))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues(chat.ID().String())

		err := handler.Close(c)
		require.NoError(t, err)
		assert.Equal(t, stdhttp.StatusOK, rec.Code)

		var resp struct {
			Data httphandler.ChatResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "closed", resp.Data.Status)
		require.NotNil(t, resp.Data.ClosedAt)
	})

	t.Run("closing twice is rejected", func(t *testing.T) {
		e := echo.New()
		chat := createTestChat(t, uuid.NewUUID())
		require.NoError(t, chat.Close(uuid.NewUUID(), "done"))

		mockService := httphandler.NewMockChatService()
		mockService.AddChat(chat)
		handler := httphandler.NewChatHandler(mockService)

		reqBody := `{"closed_by": "` + uuid.NewUUID().String() + `"}`
		req := httptest.NewRequest(
			stdhttp.MethodPost, "/api/v1/agent/chats/"+chat.ID().String()+"/close", strings.NewReader(reqBody))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues(chat.ID().String())

		err := handler.Close(c)
		require.NoError(t, err)
		assert.Equal(t, stdhttp.StatusGone, rec.Code)
	})
}
