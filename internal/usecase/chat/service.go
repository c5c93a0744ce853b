package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Atharva-3000/pearl-monad/internal/application/port/input"
	"github.com/Atharva-3000/pearl-monad/internal/application/port/output"
	"github.com/Atharva-3000/pearl-monad/internal/domain/entity"

	"github.com/google/uuid"
)

var _ input.ChatService = (*Service)(nil)

const (
	msgMissingFields  = "Message, userId, and chatId are required"
	msgMissingChatID  = "chatId is required"
	msgQuotaExceeded  = "Daily prompt limit reached"
	msgAssistantInit  = "Failed to initialize AI"
	msgStorageFailure = "Failed to save message"
)

type Config struct {
	// DailyPromptLimit caps prompts per user per day; zero disables the check.
	DailyPromptLimit int
	Now              func() time.Time
}

type Service struct {
	chats    output.ChatStore
	usage    output.UsageStore
	users    output.UserStore
	session  input.SessionManager
	driver   input.RunDriver
	streamer *Streamer
	logger   output.LoggerPort
	cfg      Config
}

func NewService(
	store output.Store,
	session input.SessionManager,
	driver input.RunDriver,
	logger output.LoggerPort,
	cfg Config,
) *Service {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Service{
		chats:    store,
		usage:    store,
		users:    store,
		session:  session,
		driver:   driver,
		streamer: NewStreamer(store, logger, cfg.Now),
		logger:   logger,
		cfg:      cfg,
	}
}

func (s *Service) Prepare(ctx context.Context, req input.ChatRequest) (*input.Turn, error) {
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" || req.UserID == "" || req.ChatID == "" {
		return nil, invalid(msgMissingFields)
	}

	now := s.cfg.Now()
	if s.cfg.DailyPromptLimit > 0 {
		count, err := s.usage.PromptCount(ctx, req.UserID, entity.UsageDate(now))
		if err != nil {
			return nil, fmt.Errorf("read prompt usage: %w", err)
		}
		if count >= s.cfg.DailyPromptLimit {
			return nil, &Error{Kind: ErrQuotaExceeded, Message: msgQuotaExceeded}
		}
	}

	if req.IsFirstMessage {
		err := s.chats.CreateChat(ctx, entity.Chat{
			ID:        req.ChatID,
			UserID:    req.UserID,
			Title:     entity.ChatTitle(req.Message),
			CreatedAt: now,
		})
		if err != nil && !errors.Is(err, output.ErrChatExists) {
			return nil, &Error{Kind: ErrUnavailable, Message: msgStorageFailure, Cause: err}
		}
	}

	err := s.chats.AppendMessage(ctx, entity.ChatMessage{
		ID:        uuid.NewString(),
		ChatID:    req.ChatID,
		Sender:    entity.RoleUser,
		Content:   req.Message,
		Timestamp: now,
	})
	if err != nil {
		return nil, &Error{Kind: ErrUnavailable, Message: msgStorageFailure, Cause: err}
	}

	cred, err := s.credential(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	assistantID, err := s.session.GetOrCreateAssistant(ctx)
	if err != nil {
		s.logger.Error("Assistant initialization failed", "error", err)
		return nil, &Error{Kind: ErrUnavailable, Message: msgAssistantInit, Cause: err}
	}

	return &input.Turn{Request: req, AssistantID: assistantID, Credential: cred}, nil
}

// credential loads the user's key. Unknown users chat without a wallet; the
// tools that need one answer with an authentication error.
func (s *Service) credential(ctx context.Context, userID string) (entity.Credential, error) {
	user, err := s.users.GetUser(ctx, userID)
	switch {
	case errors.Is(err, output.ErrNotFound):
		s.logger.Debug("Chat from user without wallet", "user", userID)
		return entity.NewCredential(userID, ""), nil
	case err != nil:
		return entity.Credential{}, fmt.Errorf("load user: %w", err)
	}
	return entity.NewCredential(userID, user.PrivateKey), nil
}

// Stream runs the turn and writes it to sink. Failures after the stream is
// open are reported in-band; the returned error is for logging only.
func (s *Service) Stream(ctx context.Context, turn *input.Turn, sink output.EventSink) error {
	log := s.logger.WithFields(map[string]any{"chatId": turn.Request.ChatID, "user": turn.Request.UserID})

	produce := func(onChunk func(entity.StreamChunk)) error {
		run, err := s.session.StartTurn(ctx, turn.AssistantID, turn.Request.Message)
		if err != nil {
			return err
		}
		log.Debug("Driving run", "runId", run.ID, "threadId", run.ThreadID)
		return s.driver.Drive(ctx, turn.Credential, run, onChunk)
	}

	answer, err := s.streamer.Stream(ctx, turn.Request.ChatID, produce, sink)
	if err != nil {
		return err
	}
	log.Info("Turn completed", "answerLen", len(answer))
	return nil
}

func (s *Service) History(ctx context.Context, chatID string) ([]entity.ChatMessage, error) {
	if strings.TrimSpace(chatID) == "" {
		return nil, invalid(msgMissingChatID)
	}
	return s.chats.ListMessages(ctx, chatID)
}
