package entity

type RunStatus string

const (
	RunStatusQueued         RunStatus = "queued"
	RunStatusInProgress     RunStatus = "in_progress"
	RunStatusRequiresAction RunStatus = "requires_action"
	RunStatusCompleted      RunStatus = "completed"
	RunStatusFailed         RunStatus = "failed"
	RunStatusCancelling     RunStatus = "cancelling"
	RunStatusCancelled      RunStatus = "cancelled"
	RunStatusExpired        RunStatus = "expired"
	RunStatusIncomplete     RunStatus = "incomplete"
)

// Pending reports whether the run is still being worked on by the provider.
func (s RunStatus) Pending() bool {
	switch s {
	case RunStatusQueued, RunStatusInProgress, RunStatusCancelling:
		return true
	}
	return false
}

type RunError struct {
	Code    string
	Message string
}

type Run struct {
	ID                string
	ThreadID          string
	AssistantID       string
	Status            RunStatus
	LastError         *RunError
	RequiredToolCalls []ToolCall
}

// FailureReason returns the provider failure message or "Unknown error".
func (r *Run) FailureReason() string {
	if r.LastError != nil && r.LastError.Message != "" {
		return r.LastError.Message
	}
	if r.Status != RunStatusFailed && r.Status != "" {
		return "run " + string(r.Status)
	}
	return "Unknown error"
}

type ChunkKind string

const (
	ChunkSnapshot ChunkKind = "snapshot"
	ChunkError    ChunkKind = "error"
)

// StreamChunk is one unit produced by the run driver. Content is always the full
// text seen so far, never a delta.
type StreamChunk struct {
	Kind    ChunkKind
	Content string
}

func SnapshotChunk(content string) StreamChunk {
	return StreamChunk{Kind: ChunkSnapshot, Content: content}
}

func ErrorChunk(reason string) StreamChunk {
	return StreamChunk{Kind: ChunkError, Content: "Error: " + reason}
}
