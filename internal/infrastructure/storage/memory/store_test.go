package memory

import (
	"context"
	"testing"
	"time"

	"github.com/Atharva-3000/pearl-monad/internal/application/port/output"
	"github.com/Atharva-3000/pearl-monad/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatsAndMessages(t *testing.T) {
	ctx := context.Background()
	s := New()

	chat := entity.Chat{ID: "c1", UserID: "u1", Title: "hello"}
	require.NoError(t, s.CreateChat(ctx, chat))
	assert.ErrorIs(t, s.CreateChat(ctx, chat), output.ErrChatExists)

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.AppendMessage(ctx, entity.ChatMessage{ID: "2", ChatID: "c1", Content: "later", Timestamp: base.Add(time.Minute)}))
	require.NoError(t, s.AppendMessage(ctx, entity.ChatMessage{ID: "1", ChatID: "c1", Content: "first", Timestamp: base}))
	require.NoError(t, s.AppendMessage(ctx, entity.ChatMessage{ID: "3", ChatID: "c1", Content: "tie", Timestamp: base.Add(time.Minute)}))

	msgs, err := s.ListMessages(ctx, "c1")
	require.NoError(t, err)
	ids := []string{}
	for _, m := range msgs {
		ids = append(ids, m.ID)
	}
	assert.Equal(t, []string{"1", "2", "3"}, ids)

	empty, err := s.ListMessages(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestPromptUsage(t *testing.T) {
	ctx := context.Background()
	s := New()

	n, err := s.PromptCount(ctx, "u1", "2025-03-01")
	require.NoError(t, err)
	assert.Zero(t, n)

	for i := 1; i <= 3; i++ {
		n, err = s.IncrementPrompt(ctx, "u1", "2025-03-01")
		require.NoError(t, err)
		assert.Equal(t, i, n)
	}
	n, _ = s.PromptCount(ctx, "u1", "2025-03-02")
	assert.Zero(t, n)
	n, _ = s.PromptCount(ctx, "u2", "2025-03-01")
	assert.Zero(t, n)
}

func TestFaucetCooldown(t *testing.T) {
	ctx := context.Background()
	s := New()

	_, ok, err := s.LastFaucetRequest(ctx, "0xabc")
	require.NoError(t, err)
	assert.False(t, ok)

	at := time.Now()
	require.NoError(t, s.RecordFaucetRequest(ctx, "0xabc", at))
	got, ok, err := s.LastFaucetRequest(ctx, "0xabc")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, at.Equal(got))
}

func TestUsers(t *testing.T) {
	ctx := context.Background()
	s := New()

	_, err := s.GetUser(ctx, "did:privy:1")
	assert.ErrorIs(t, err, output.ErrNotFound)

	stored, created, err := s.UpsertUser(ctx, entity.User{ID: "did:privy:1", Email: "a@x.io", PrivateKey: "0xkey"})
	require.NoError(t, err)
	assert.True(t, created)
	assert.False(t, stored.CreatedAt.IsZero())

	stored, created, err = s.UpsertUser(ctx, entity.User{ID: "did:privy:1", Email: "b@x.io", PrivateKey: "0xother"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "b@x.io", stored.Email)
	assert.Equal(t, "0xkey", stored.PrivateKey)
}
