package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Atharva-3000/pearl-monad/internal/application/port/output"
	"github.com/Atharva-3000/pearl-monad/internal/domain/entity"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var _ output.Store = (*Store)(nil)

type Store struct {
	pool *pgxpool.Pool
}

// Open connects to databaseURL and verifies the connection.
func Open(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func (s *Store) CreateChat(ctx context.Context, chat entity.Chat) error {
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO chats (id, user_id, title, created_at) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO NOTHING`,
		chat.ID, chat.UserID, chat.Title, timestampOrNow(chat.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert chat: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return output.ErrChatExists
	}
	return nil
}

func (s *Store) AppendMessage(ctx context.Context, msg entity.ChatMessage) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO messages (id, chat_id, sender, content, timestamp) VALUES ($1, $2, $3, $4, $5)`,
		msg.ID, msg.ChatID, string(msg.Sender), msg.Content, timestampOrNow(msg.Timestamp))
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

func (s *Store) ListMessages(ctx context.Context, chatID string) ([]entity.ChatMessage, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, chat_id, sender, content, timestamp FROM messages
		 WHERE chat_id = $1 ORDER BY timestamp ASC, seq ASC`,
		chatID)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}

	msgs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.ChatMessage, error) {
		var m entity.ChatMessage
		var sender string
		err := row.Scan(&m.ID, &m.ChatID, &sender, &m.Content, &m.Timestamp)
		m.Sender = entity.MessageRole(sender)
		return m, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan messages: %w", err)
	}
	return msgs, nil
}

func (s *Store) PromptCount(ctx context.Context, userID, date string) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx,
		`SELECT count FROM prompt_usage WHERE user_id = $1 AND day = $2`,
		userID, date).Scan(&count)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("query prompt usage: %w", err)
	}
	return count, nil
}

func (s *Store) IncrementPrompt(ctx context.Context, userID, date string) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx,
		`INSERT INTO prompt_usage (user_id, day, count) VALUES ($1, $2, 1)
		 ON CONFLICT (user_id, day) DO UPDATE SET count = prompt_usage.count + 1
		 RETURNING count`,
		userID, date).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("increment prompt usage: %w", err)
	}
	return count, nil
}

func (s *Store) LastFaucetRequest(ctx context.Context, address string) (time.Time, bool, error) {
	var at time.Time
	err := s.pool.QueryRow(ctx,
		`SELECT last_request_at FROM faucet_requests WHERE address = $1`,
		address).Scan(&at)
	if errors.Is(err, pgx.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("query faucet request: %w", err)
	}
	return at, true, nil
}

func (s *Store) RecordFaucetRequest(ctx context.Context, address string, at time.Time) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO faucet_requests (address, last_request_at) VALUES ($1, $2)
		 ON CONFLICT (address) DO UPDATE SET last_request_at = EXCLUDED.last_request_at`,
		address, at)
	if err != nil {
		return fmt.Errorf("record faucet request: %w", err)
	}
	return nil
}

// UpsertUser inserts the user or updates the email only; an existing key is
// never replaced.
func (s *Store) UpsertUser(ctx context.Context, user entity.User) (entity.User, bool, error) {
	var stored entity.User
	var created bool
	err := s.pool.QueryRow(ctx,
		`INSERT INTO users (id, email, private_key, created_at) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO UPDATE SET email = EXCLUDED.email
		 RETURNING id, email, private_key, created_at, (xmax = 0)`,
		user.ID, user.Email, user.PrivateKey, timestampOrNow(user.CreatedAt)).
		Scan(&stored.ID, &stored.Email, &stored.PrivateKey, &stored.CreatedAt, &created)
	if err != nil {
		return entity.User{}, false, fmt.Errorf("upsert user: %w", err)
	}
	return stored, created, nil
}

func (s *Store) GetUser(ctx context.Context, id string) (entity.User, error) {
	var u entity.User
	err := s.pool.QueryRow(ctx,
		`SELECT id, email, private_key, created_at FROM users WHERE id = $1`,
		id).Scan(&u.ID, &u.Email, &u.PrivateKey, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return entity.User{}, output.ErrNotFound
	}
	if err != nil {
		return entity.User{}, fmt.Errorf("query user: %w", err)
	}
	return u, nil
}

func timestampOrNow(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t
}
