package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/opuscm/users/internal/apperr"
)

type responseEnvelope struct {
	Data  any    `json:"data,omitempty"`
	Time  string `json:"time"`
	Error any    `json:"error,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(responseEnvelope{
		Data: v,
		Time: time.Now().UTC().Format(time.RFC3339),
	})
}

func WriteError[T any](w http.ResponseWriter, status int, errBody ErrorResponse[T]) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(responseEnvelope{
		Time:  time.Now().UTC().Format(time.RFC3339),
		Error: errBody,
	})
}

// WriteDomainError maps the apperr taxonomy onto the wire envelope. Errors
// outside the taxonomy become a 500 with the message suppressed.
func WriteDomainError(w http.ResponseWriter, err error) {
	var derr *apperr.Error
	if !errors.As(err, &derr) {
		derr = apperr.Internal()
	}
	WriteError(w, derr.Status, ErrorResponse[any]{
		Code:    codeForStatus(derr.Status),
		Message: derr.Message,
	})
}

func codeForStatus(status int) ErrorCode {
	switch status {
	case http.StatusBadRequest:
		return ErrBadRequest
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusNotFound:
		return ErrNotFound
	default:
		return ErrInternal
	}
}
