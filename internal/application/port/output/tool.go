package output

import (
	"context"

	"github.com/Atharva-3000/pearl-monad/internal/domain/entity"
)

// ToolPort is one assistant-callable action. The caller credential is passed on
// every call so a single tool instance can serve many users concurrently.
type ToolPort interface {
	Name() entity.ToolName
	Description() string
	Parameters() map[string]interface{}
	Execute(ctx context.Context, cred entity.Credential, arguments string) (string, error)
}

// ConcurrentTool is implemented by tools without on-chain side effects; the
// run driver may execute them in parallel within one batch.
type ConcurrentTool interface {
	Concurrent() bool
}

type ToolRegistry interface {
	Register(tool ToolPort) error
	Get(name entity.ToolName) (ToolPort, bool)
	All() []ToolPort
	Definitions() []entity.ToolDefinition
	Validate(name entity.ToolName, arguments string) error
}
