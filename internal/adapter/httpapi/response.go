package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/Atharva-3000/pearl-monad/internal/application/port/output"
	"github.com/Atharva-3000/pearl-monad/internal/usecase/chat"
)

const maxRequestBodyBytes = 1 << 20

const msgInternal = "Internal Server Error"

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func decodeJSONBody(r *http.Request, dst any) error {
	if r.Body == nil {
		return errors.New("request body is required")
	}
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxRequestBodyBytes))
	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

// mapError returns the status and caller-safe message for a service error.
// ok is false when the error is unexpected and should be logged.
func mapError(err error, notFound string) (status int, message string, ok bool) {
	var chatErr *chat.Error
	switch {
	case errors.As(err, &chatErr):
		switch {
		case errors.Is(chatErr.Kind, chat.ErrInvalidRequest):
			return http.StatusBadRequest, chatErr.Message, true
		case errors.Is(chatErr.Kind, chat.ErrQuotaExceeded):
			return http.StatusTooManyRequests, chatErr.Message, true
		default:
			return http.StatusInternalServerError, chatErr.Message, false
		}
	case errors.Is(err, output.ErrNotFound):
		return http.StatusNotFound, notFound, true
	default:
		return http.StatusInternalServerError, msgInternal, false
	}
}
