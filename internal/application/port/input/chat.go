package input

import (
	"context"

	"github.com/Atharva-3000/pearl-monad/internal/application/port/output"
	"github.com/Atharva-3000/pearl-monad/internal/domain/entity"
)

type ChatRequest struct {
	Message        string
	UserID         string
	ChatID         string
	IsFirstMessage bool
}

// Turn is a validated chat request whose user message is already persisted.
type Turn struct {
	Request     ChatRequest
	AssistantID string
	Credential  entity.Credential
}

type ChatService interface {
	// Prepare runs the synchronous part of a turn; its errors are reported
	// before any stream is opened.
	Prepare(ctx context.Context, req ChatRequest) (*Turn, error)
	Stream(ctx context.Context, turn *Turn, sink output.EventSink) error
	History(ctx context.Context, chatID string) ([]entity.ChatMessage, error)
}

type AccountService interface {
	CreateUser(ctx context.Context, id, email string) (entity.User, bool, error)
	WalletAddress(ctx context.Context, id string) (string, error)
	PromptUsage(ctx context.Context, userID, date string) (int, error)
	TrackPrompt(ctx context.Context, userID, date string) (int, error)
}
