package output

import (
	"context"

	"github.com/Atharva-3000/pearl-monad/internal/domain/entity"
)

type AssistantSpec struct {
	Name         string
	Model        string
	Instructions string
	Tools        []entity.ToolDefinition
}

// AssistantPort is the minimal provider surface the run loop depends on.
type AssistantPort interface {
	CreateAssistant(ctx context.Context, spec AssistantSpec) (string, error)
	CreateThread(ctx context.Context, userMessage string) (string, error)
	CreateRun(ctx context.Context, threadID, assistantID string) (*entity.Run, error)
	RetrieveRun(ctx context.Context, threadID, runID string) (*entity.Run, error)
	SubmitToolOutputs(ctx context.Context, threadID, runID string, results []entity.ToolResult) (*entity.Run, error)
	// LatestAssistantMessage returns the newest assistant-authored text in the thread.
	// ok is false when the thread has no assistant message.
	LatestAssistantMessage(ctx context.Context, threadID string) (text string, ok bool, err error)
}
