package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Atharva-3000/pearl-monad/internal/application/port/output"
	"github.com/Atharva-3000/pearl-monad/internal/domain/entity"
)

var _ output.Store = (*Store)(nil)

// Store keeps everything in process memory. Used when no database is configured
// and in tests.
type Store struct {
	mu        sync.RWMutex
	chats     map[string]entity.Chat
	messages  map[string][]entity.ChatMessage
	usage     map[usageKey]int
	cooldowns map[string]time.Time
	users     map[string]entity.User
}

type usageKey struct {
	userID string
	date   string
}

func New() *Store {
	return &Store{
		chats:     make(map[string]entity.Chat),
		messages:  make(map[string][]entity.ChatMessage),
		usage:     make(map[usageKey]int),
		cooldowns: make(map[string]time.Time),
		users:     make(map[string]entity.User),
	}
}

func (s *Store) CreateChat(_ context.Context, chat entity.Chat) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.chats[chat.ID]; ok {
		return output.ErrChatExists
	}
	s.chats[chat.ID] = chat
	return nil
}

func (s *Store) AppendMessage(_ context.Context, msg entity.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages[msg.ChatID] = append(s.messages[msg.ChatID], msg)
	return nil
}

// ListMessages returns the chat's messages oldest first. Messages with equal
// timestamps keep insertion order.
func (s *Store) ListMessages(_ context.Context, chatID string) ([]entity.ChatMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]entity.ChatMessage, len(s.messages[chatID]))
	copy(out, s.messages[chatID])
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

func (s *Store) PromptCount(_ context.Context, userID, date string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.usage[usageKey{userID, date}], nil
}

func (s *Store) IncrementPrompt(_ context.Context, userID, date string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := usageKey{userID, date}
	s.usage[k]++
	return s.usage[k], nil
}

func (s *Store) LastFaucetRequest(_ context.Context, address string) (time.Time, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	at, ok := s.cooldowns[address]
	return at, ok, nil
}

func (s *Store) RecordFaucetRequest(_ context.Context, address string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cooldowns[address] = at
	return nil
}

func (s *Store) UpsertUser(_ context.Context, user entity.User) (entity.User, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.users[user.ID]
	if ok {
		existing.Email = user.Email
		s.users[user.ID] = existing
		return existing, false, nil
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	s.users[user.ID] = user
	return user, true, nil
}

func (s *Store) GetUser(_ context.Context, id string) (entity.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return entity.User{}, output.ErrNotFound
	}
	return user, nil
}

func (s *Store) Close() error { return nil }
