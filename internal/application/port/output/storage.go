package output

import (
	"context"
	"errors"
	"time"

	"github.com/Atharva-3000/pearl-monad/internal/domain/entity"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrChatExists = errors.New("chat already exists")
)

type ChatStore interface {
	CreateChat(ctx context.Context, chat entity.Chat) error
	AppendMessage(ctx context.Context, msg entity.ChatMessage) error
	ListMessages(ctx context.Context, chatID string) ([]entity.ChatMessage, error)
}

// UsageStore keeps the per-user daily prompt counter. Date is a caller supplied
// calendar day such as "2025-03-01".
type UsageStore interface {
	PromptCount(ctx context.Context, userID, date string) (int, error)
	IncrementPrompt(ctx context.Context, userID, date string) (int, error)
}

type CooldownStore interface {
	LastFaucetRequest(ctx context.Context, address string) (time.Time, bool, error)
	RecordFaucetRequest(ctx context.Context, address string, at time.Time) error
}

type UserStore interface {
	// UpsertUser creates the user or updates the email of an existing one.
	// created reports whether a new row was written.
	UpsertUser(ctx context.Context, user entity.User) (stored entity.User, created bool, err error)
	GetUser(ctx context.Context, id string) (entity.User, error)
}

type Store interface {
	ChatStore
	UsageStore
	CooldownStore
	UserStore
	Close() error
}
