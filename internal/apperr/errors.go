package apperr

import "net/http"

// Error is the caller-facing error taxonomy. Classification happens once,
// where a provider call returns; the resulting Error propagates unchanged
// to the HTTP layer.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func BadRequest(msg string) *Error {
	return &Error{Status: http.StatusBadRequest, Message: msg}
}

func NotAuthorized(msg string) *Error {
	return &Error{Status: http.StatusUnauthorized, Message: msg}
}

// Internal suppresses the underlying message so provider internals never
// leak to callers.
func Internal() *Error {
	return &Error{Status: http.StatusInternalServerError, Message: "Something went wrong."}
}
