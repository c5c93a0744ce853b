package input

import (
	"context"

	"github.com/Atharva-3000/pearl-monad/internal/domain/entity"
)

// RunDriver polls one run to a terminal state, answering tool calls on the way.
// onChunk is called with full-text snapshots, never deltas.
type RunDriver interface {
	Drive(ctx context.Context, cred entity.Credential, run *entity.Run, onChunk func(entity.StreamChunk)) error
}

type SessionManager interface {
	GetOrCreateAssistant(ctx context.Context) (string, error)
	StartTurn(ctx context.Context, assistantID, message string) (*entity.Run, error)
}
