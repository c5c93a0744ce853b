package executor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Atharva-3000/pearl-monad/internal/application/port/input"
	"github.com/Atharva-3000/pearl-monad/internal/application/port/output"
	"github.com/Atharva-3000/pearl-monad/internal/domain/entity"

	"golang.org/x/sync/errgroup"
)

var _ input.RunDriver = (*UseCase)(nil)

const (
	DefaultPollInterval = 500 * time.Millisecond
	NoResponseMessage   = "No response from assistant"

	maxToolRounds     = 50
	maxObservationLen = 20000
	maxParallelTools  = 4
)

var (
	ErrTooManyToolRounds = errors.New("too many tool rounds")
	ErrEmptyToolBatch    = errors.New("run requires action but has no tool calls")
)

// UseCase drives one assistant run from creation to a terminal state.
type UseCase struct {
	assistants   output.AssistantPort
	tools        output.ToolRegistry
	logger       output.LoggerPort
	pollInterval time.Duration
}

func New(
	assistants output.AssistantPort,
	tools output.ToolRegistry,
	logger output.LoggerPort,
	pollInterval time.Duration,
) *UseCase {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	return &UseCase{
		assistants:   assistants,
		tools:        tools,
		logger:       logger,
		pollInterval: pollInterval,
	}
}

// Drive polls run until it completes or fails. Provider errors and context
// cancellation are returned; a failed run is reported through onChunk.
func (uc *UseCase) Drive(ctx context.Context, cred entity.Credential, run *entity.Run, onChunk func(entity.StreamChunk)) error {
	log := uc.logger.WithFields(map[string]any{"runId": run.ID, "threadId": run.ThreadID})
	rounds := 0

	for {
		switch {
		case run.Status.Pending():
			if err := uc.wait(ctx); err != nil {
				return err
			}
			next, err := uc.assistants.RetrieveRun(ctx, run.ThreadID, run.ID)
			if err != nil {
				return fmt.Errorf("poll run: %w", err)
			}
			run = carryIDs(run, next)

		case run.Status == entity.RunStatusRequiresAction:
			rounds++
			if rounds > maxToolRounds {
				return fmt.Errorf("%w (%d)", ErrTooManyToolRounds, maxToolRounds)
			}
			if len(run.RequiredToolCalls) == 0 {
				return ErrEmptyToolBatch
			}

			log.Debug("Dispatching tool batch", "round", rounds, "calls", len(run.RequiredToolCalls))
			results := uc.dispatch(ctx, cred, run.RequiredToolCalls)

			next, err := uc.assistants.SubmitToolOutputs(ctx, run.ThreadID, run.ID, results)
			if err != nil {
				return fmt.Errorf("submit tool outputs: %w", err)
			}
			run = carryIDs(run, next)

		case run.Status == entity.RunStatusCompleted:
			text, ok, err := uc.assistants.LatestAssistantMessage(ctx, run.ThreadID)
			if err != nil {
				return fmt.Errorf("fetch answer: %w", err)
			}
			if !ok || strings.TrimSpace(text) == "" {
				log.Warn("Run completed without an assistant message")
				text = NoResponseMessage
			}
			onChunk(entity.SnapshotChunk(text))
			return nil

		default:
			reason := run.FailureReason()
			log.Warn("Run ended without completing", "status", run.Status, "reason", reason)
			onChunk(entity.ErrorChunk(reason))
			return nil
		}
	}
}

func (uc *UseCase) wait(ctx context.Context) error {
	timer := time.NewTimer(uc.pollInterval)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// dispatch answers every call in the batch. Read-only tools run in parallel;
// the rest run one at a time in request order so nonces stay ordered.
func (uc *UseCase) dispatch(ctx context.Context, cred entity.Credential, calls []entity.ToolCall) []entity.ToolResult {
	results := make([]entity.ToolResult, len(calls))
	var sequential []int

	var g errgroup.Group
	g.SetLimit(maxParallelTools)
	for i, call := range calls {
		results[i].CallID = call.ID
		if !uc.concurrent(call.Name) {
			sequential = append(sequential, i)
			continue
		}
		g.Go(func() error {
			results[i].Output = uc.executeTool(ctx, cred, call)
			return nil
		})
	}
	for _, i := range sequential {
		results[i].Output = uc.executeTool(ctx, cred, calls[i])
	}
	_ = g.Wait()

	return results
}

func (uc *UseCase) concurrent(name entity.ToolName) bool {
	tool, ok := uc.tools.Get(name)
	if !ok {
		return false
	}
	ct, ok := tool.(output.ConcurrentTool)
	return ok && ct.Concurrent()
}

func (uc *UseCase) executeTool(ctx context.Context, cred entity.Credential, tc entity.ToolCall) (result string) {
	tool, ok := uc.tools.Get(tc.Name)
	if !ok {
		uc.logger.Warn("Unknown tool called", "name", tc.Name)
		return fmt.Sprintf("Error: unknown tool '%s'", tc.Name)
	}

	if err := uc.tools.Validate(tc.Name, tc.Arguments); err != nil {
		uc.logger.Warn("Tool arguments rejected", "name", tc.Name, "error", err)
		return "Error: " + err.Error()
	}

	defer func() {
		if r := recover(); r != nil {
			uc.logger.Error("Tool panicked", "name", tc.Name, "panic", r)
			result = fmt.Sprintf("Error: tool '%s' failed unexpectedly", tc.Name)
		}
	}()

	uc.logger.Info("Executing tool", "name", tc.Name, "callId", tc.ID, "user", cred.UserID)

	result, err := tool.Execute(ctx, cred, tc.Arguments)
	if err != nil {
		uc.logger.Error("Tool execution failed", "name", tc.Name, "error", err)
		return "Error: " + err.Error()
	}

	result = truncateObservation(result, maxObservationLen)

	uc.logger.Debug("Tool completed", "name", tc.Name, "resultLen", len(result))
	return result
}

// truncateObservation cuts s to at most n bytes on a rune boundary.
func truncateObservation(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "\n... (truncated)"
}

// carryIDs keeps the run and thread ids when the provider omits them.
func carryIDs(prev, next *entity.Run) *entity.Run {
	if next.ID == "" {
		next.ID = prev.ID
	}
	if next.ThreadID == "" {
		next.ThreadID = prev.ThreadID
	}
	return next
}
