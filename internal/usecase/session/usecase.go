package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/Atharva-3000/pearl-monad/internal/application/port/input"
	"github.com/Atharva-3000/pearl-monad/internal/application/port/output"
	"github.com/Atharva-3000/pearl-monad/internal/domain/entity"

	"golang.org/x/sync/singleflight"
)

var _ input.SessionManager = (*UseCase)(nil)

var ErrEmptyMessage = errors.New("message is empty")

type Config struct {
	Name         string
	Model        string
	Instructions string
	// AssistantID skips creation when an assistant was provisioned ahead of time.
	AssistantID string
}

// UseCase owns the process-wide assistant and opens one thread per turn.
type UseCase struct {
	assistants output.AssistantPort
	tools      output.ToolRegistry
	logger     output.LoggerPort
	cfg        Config

	group singleflight.Group
	mu    sync.RWMutex
	id    string
}

func New(assistants output.AssistantPort, tools output.ToolRegistry, logger output.LoggerPort, cfg Config) *UseCase {
	return &UseCase{
		assistants: assistants,
		tools:      tools,
		logger:     logger,
		cfg:        cfg,
		id:         strings.TrimSpace(cfg.AssistantID),
	}
}

// GetOrCreateAssistant returns the cached assistant id, creating the assistant
// on first use. Concurrent first callers share a single creation request.
// A failed creation is not cached.
func (uc *UseCase) GetOrCreateAssistant(ctx context.Context) (string, error) {
	uc.mu.RLock()
	id := uc.id
	uc.mu.RUnlock()
	if id != "" {
		return id, nil
	}

	v, err, _ := uc.group.Do("assistant", func() (interface{}, error) {
		uc.mu.RLock()
		cached := uc.id
		uc.mu.RUnlock()
		if cached != "" {
			return cached, nil
		}

		created, err := uc.assistants.CreateAssistant(ctx, output.AssistantSpec{
			Name:         uc.cfg.Name,
			Model:        uc.cfg.Model,
			Instructions: uc.cfg.Instructions,
			Tools:        uc.tools.Definitions(),
		})
		if err != nil {
			return "", fmt.Errorf("create assistant: %w", err)
		}

		uc.mu.Lock()
		uc.id = created
		uc.mu.Unlock()

		uc.logger.Info("Assistant created", "assistantId", created, "model", uc.cfg.Model, "tools", len(uc.tools.All()))
		return created, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// StartTurn opens a fresh thread seeded with message and starts a run on it.
func (uc *UseCase) StartTurn(ctx context.Context, assistantID, message string) (*entity.Run, error) {
	if strings.TrimSpace(message) == "" {
		return nil, ErrEmptyMessage
	}

	threadID, err := uc.assistants.CreateThread(ctx, message)
	if err != nil {
		return nil, fmt.Errorf("create thread: %w", err)
	}

	run, err := uc.assistants.CreateRun(ctx, threadID, assistantID)
	if err != nil {
		return nil, fmt.Errorf("create run: %w", err)
	}
	if run.ThreadID == "" {
		run.ThreadID = threadID
	}

	uc.logger.Debug("Run started", "threadId", threadID, "runId", run.ID)
	return run, nil
}
