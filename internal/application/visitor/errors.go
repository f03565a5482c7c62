package visitor

import (
	"net/http"
)

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
	// ErrVisitorNotFound indicates the visitor does not exist
	ErrVisitorNotFound = &appError{
		msg:        "visitor not found",
		httpStatus: http.StatusNotFound,
		httpCode:   "VISITOR_NOT_FOUND",
		httpMsg:    "visitor not found",
	}

	// ErrInvalidTransition indicates the state change is not allowed
	ErrInvalidTransition = &appError{
		msg:        "state transition not allowed",
		httpStatus: http.StatusConflict,
		httpCode:   "INVALID_TRANSITION",
		httpMsg:    "state transition not allowed",
	}

	// ErrUnknownState indicates an unrecognized state name
	ErrUnknownState = &appError{
		msg:        "unknown visitor state",
		httpStatus: http.StatusBadRequest,
		httpCode:   "UNKNOWN_STATE",
		httpMsg:    "unknown visitor state",
	}
)
