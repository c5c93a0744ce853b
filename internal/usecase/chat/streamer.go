package chat

import (
	"context"
	"strings"
	"time"

	"github.com/Atharva-3000/pearl-monad/internal/application/port/output"
	"github.com/Atharva-3000/pearl-monad/internal/domain/entity"

	"github.com/google/uuid"
)

const StreamErrorMessage = "Error processing response"

// Producer pushes full-text snapshots to onChunk until the answer is final.
type Producer func(onChunk func(entity.StreamChunk)) error

// Streamer turns snapshots into deltas for the client and persists the final
// answer once the producer is done.
type Streamer struct {
	chats  output.ChatStore
	logger output.LoggerPort
	now    func() time.Time
}

func NewStreamer(chats output.ChatStore, logger output.LoggerPort, now func() time.Time) *Streamer {
	if now == nil {
		now = time.Now
	}
	return &Streamer{chats: chats, logger: logger, now: now}
}

// Stream returns the accumulated answer text. The sink always receives Done,
// preceded by a single Error event when the producer fails. Error chunks reach
// the client as content but are not saved to the chat.
func (s *Streamer) Stream(ctx context.Context, chatID string, produce Producer, sink output.EventSink) (string, error) {
	var (
		accumulated string
		failed      bool
		sinkErr     error
	)

	onChunk := func(chunk entity.StreamChunk) {
		if chunk.Kind == entity.ChunkError {
			failed = true
		}
		content := chunk.Content
		if content == accumulated || sinkErr != nil {
			return
		}

		delta := content
		if strings.HasPrefix(content, accumulated) {
			delta = content[len(accumulated):]
		}
		accumulated = content

		if err := sink.Delta(delta); err != nil {
			sinkErr = err
			s.logger.Warn("Client stopped receiving", "chatId", chatID, "error", err)
		}
	}

	err := produce(onChunk)
	if err != nil {
		s.logger.Error("Streaming error", "chatId", chatID, "error", err)
		if sinkErr == nil {
			sinkErr = sink.Error(StreamErrorMessage)
		}
	} else if accumulated != "" && !failed {
		s.persist(ctx, chatID, accumulated)
	}

	if doneErr := sink.Done(); doneErr != nil && sinkErr == nil {
		sinkErr = doneErr
	}

	if err != nil {
		return accumulated, err
	}
	return accumulated, sinkErr
}

func (s *Streamer) persist(ctx context.Context, chatID, content string) {
	msg := entity.ChatMessage{
		ID:        uuid.NewString(),
		ChatID:    chatID,
		Sender:    entity.RoleAssistant,
		Content:   content,
		Timestamp: s.now(),
	}
	// the turn context may already be past its deadline; the answer was delivered
	if err := s.chats.AppendMessage(context.WithoutCancel(ctx), msg); err != nil {
		s.logger.Error("Failed to save assistant message", "chatId", chatID, "error", err)
	}
}
