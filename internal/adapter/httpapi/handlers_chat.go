package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/Atharva-3000/pearl-monad/internal/adapter/sse"
	"github.com/Atharva-3000/pearl-monad/internal/application/port/input"
	"github.com/Atharva-3000/pearl-monad/internal/domain/entity"

	"github.com/go-chi/httplog"
)

type chatRequest struct {
	Message        string `json:"message"`
	UserID         string `json:"userId"`
	ChatID         string `json:"chatId"`
	IsFirstMessage bool   `json:"isFirstMessage"`
}

type messageResponse struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Sender    string    `json:"sender"`
	Timestamp time.Time `json:"timestamp"`
}

func (h *handlers) postChat(w http.ResponseWriter, r *http.Request) {
	var body chatRequest
	if err := decodeJSONBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	httplog.LogEntrySetField(r.Context(), "chatId", body.ChatID)

	turn, err := h.chat.Prepare(r.Context(), input.ChatRequest{
		Message:        body.Message,
		UserID:         body.UserID,
		ChatID:         body.ChatID,
		IsFirstMessage: body.IsFirstMessage,
	})
	if err != nil {
		h.fail(w, "Chat request rejected", err, "Not found")
		return
	}

	sink, err := sse.NewWriter(w)
	if err != nil {
		h.fail(w, "Cannot stream response", err, "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.cfg.TurnTimeout)
	defer cancel()

	if err := h.chat.Stream(ctx, turn, sink); err != nil {
		h.logger.Warn("Chat turn ended with error", "chatId", body.ChatID, "error", err)
	}
}

func (h *handlers) getChat(w http.ResponseWriter, r *http.Request) {
	chatID := r.URL.Query().Get("chatId")
	msgs, err := h.chat.History(r.Context(), chatID)
	if err != nil {
		h.fail(w, "Failed to fetch messages", err, "Chat not found")
		return
	}

	out := make([]messageResponse, 0, len(msgs))
	for _, m := range msgs {
		role := entity.RoleUser
		if m.Sender == entity.RoleAssistant {
			role = entity.RoleAssistant
		}
		out = append(out, messageResponse{
			ID:        m.ID,
			Role:      string(role),
			Content:   m.Content,
			Sender:    string(m.Sender),
			Timestamp: m.Timestamp,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// fail writes a JSON error for err and logs it when it is unexpected.
func (h *handlers) fail(w http.ResponseWriter, msg string, err error, notFound string) {
	status, message, expected := mapError(err, notFound)
	if expected {
		h.logger.Debug(msg, "status", status, "error", err)
	} else {
		h.logger.Error(msg, "status", status, "error", err)
	}
	writeError(w, status, message)
}
