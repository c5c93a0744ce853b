package account

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Atharva-3000/pearl-monad/internal/application/port/input"
	"github.com/Atharva-3000/pearl-monad/internal/application/port/output"
	"github.com/Atharva-3000/pearl-monad/internal/domain/entity"
	"github.com/Atharva-3000/pearl-monad/internal/usecase/chat"
)

var _ input.AccountService = (*Service)(nil)

// Service manages users, their custodial keys and the daily prompt counter.
type Service struct {
	users   output.UserStore
	usage   output.UsageStore
	wallets output.WalletProvider
	logger  output.LoggerPort
	now     func() time.Time
}

func NewService(users output.UserStore, usage output.UsageStore, wallets output.WalletProvider, logger output.LoggerPort, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{users: users, usage: usage, wallets: wallets, logger: logger, now: now}
}

// CreateUser registers id with a freshly generated key. An existing user keeps
// its key and only has the email updated.
func (s *Service) CreateUser(ctx context.Context, id, email string) (entity.User, bool, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return entity.User{}, false, invalid("DID is required")
	}

	user, err := s.users.GetUser(ctx, id)
	switch {
	case errors.Is(err, output.ErrNotFound):
		key, genErr := s.wallets.GenerateKey()
		if genErr != nil {
			return entity.User{}, false, fmt.Errorf("generate key: %w", genErr)
		}
		user = entity.User{ID: id, PrivateKey: key, CreatedAt: s.now()}
	case err != nil:
		return entity.User{}, false, fmt.Errorf("load user: %w", err)
	}
	user.Email = email

	stored, created, err := s.users.UpsertUser(ctx, user)
	if err != nil {
		return entity.User{}, false, fmt.Errorf("save user: %w", err)
	}
	if created {
		s.logger.Info("User created", "user", id)
	}
	return stored, created, nil
}

func (s *Service) WalletAddress(ctx context.Context, id string) (string, error) {
	if strings.TrimSpace(id) == "" {
		return "", invalid("DID is required")
	}
	user, err := s.users.GetUser(ctx, id)
	if err != nil {
		return "", err
	}
	wallet, err := s.wallets.OpenKey(user.PrivateKey)
	if err != nil {
		return "", fmt.Errorf("open wallet: %w", err)
	}
	return wallet.Address().Hex(), nil
}

func (s *Service) PromptUsage(ctx context.Context, userID, date string) (int, error) {
	date, err := s.usageKey(userID, date)
	if err != nil {
		return 0, err
	}
	return s.usage.PromptCount(ctx, userID, date)
}

func (s *Service) TrackPrompt(ctx context.Context, userID, date string) (int, error) {
	date, err := s.usageKey(userID, date)
	if err != nil {
		return 0, err
	}
	return s.usage.IncrementPrompt(ctx, userID, date)
}

// usageKey defaults date to today (UTC) and rejects anything but YYYY-MM-DD.
func (s *Service) usageKey(userID, date string) (string, error) {
	if strings.TrimSpace(userID) == "" {
		return "", invalid("Missing required fields")
	}
	if date == "" {
		return entity.UsageDate(s.now()), nil
	}
	if _, err := time.Parse(entity.UsageDateLayout, date); err != nil {
		return "", invalid("date must be formatted as YYYY-MM-DD")
	}
	return date, nil
}

func invalid(msg string) error {
	return &chat.Error{Kind: chat.ErrInvalidRequest, Message: msg}
}
