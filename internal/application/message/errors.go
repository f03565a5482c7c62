package message

import (
	"net/http"
)

// appError mirrors the transport mapping used by the chat use cases.
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
	// ErrChatNotFound indicates the target chat does not exist
	ErrChatNotFound = &appError{
		msg:        "chat not found",
		httpStatus: http.StatusNotFound,
		httpCode:   "CHAT_NOT_FOUND",
		httpMsg:    "chat not found",
	}

	// ErrChatClosed indicates the chat no longer accepts messages
	ErrChatClosed = &appError{
		msg:        "chat is closed",
		httpStatus: http.StatusGone,
		httpCode:   "CHAT_CLOSED",
		httpMsg:    "chat is closed",
	}

	// ErrInvalidContent indicates the content failed length validation
	ErrInvalidContent = &appError{
		msg:        "message content must be 1 to 4000 characters",
		httpStatus: http.StatusBadRequest,
		httpCode:   "INVALID_CONTENT",
		httpMsg:    "message content must be 1 to 4000 characters",
	}

	// ErrInvalidAttachment indicates a malformed attachment
	ErrInvalidAttachment = &appError{
		msg:        "invalid attachment",
		httpStatus: http.StatusBadRequest,
		httpCode:   "INVALID_ATTACHMENT",
		httpMsg:    "invalid attachment",
	}
)
