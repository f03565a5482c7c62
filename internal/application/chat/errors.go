package chat

import (
	"net/http"
)

// appError implements the httpserver.HTTPError interface so the
// transport layer can map application errors without inspecting them.
type appError struct {
	msg        string
	httpStatus int
	httpCode   string
	httpMsg    string
}

func (e *appError) Error() string       { return e.msg }
func (e *appError) HTTPStatus() int     { return e.httpStatus }
func (e *appError) HTTPCode() string    { return e.httpCode }
func (e *appError) HTTPMessage() string { return e.httpMsg }

var (
	// ErrChatNotFound indicates that the chat was not found
	ErrChatNotFound = &appError{
		msg:        "chat not found",
		httpStatus: http.StatusNotFound,
		httpCode:   "CHAT_NOT_FOUND",
		httpMsg:    "chat not found",
	}

	// ErrChatAlreadyExists indicates an idempotent-create collision.
	// The create-chat flow treats it as success and returns the prior
	// chat; it surfaces only if the duplicate cannot be loaded.
	ErrChatAlreadyExists = &appError{
		msg:        "chat already exists",
		httpStatus: http.StatusConflict,
		httpCode:   "CHAT_ALREADY_EXISTS",
		httpMsg:    "chat already exists",
	}

	// ErrChatClosed indicates the chat no longer accepts operations
	ErrChatClosed = &appError{
		msg:        "chat is closed",
		httpStatus: http.StatusGone,
		httpCode:   "CHAT_CLOSED",
		httpMsg:    "chat is closed",
	}
)
