package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Atharva-3000/pearl-monad/internal/application/port/output"
	"github.com/Atharva-3000/pearl-monad/internal/application/service"
	"github.com/Atharva-3000/pearl-monad/internal/domain/entity"
	"github.com/Atharva-3000/pearl-monad/internal/infrastructure/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockAssistants struct {
	mock.Mock
}

var _ output.AssistantPort = (*mockAssistants)(nil)

func (m *mockAssistants) CreateAssistant(ctx context.Context, spec output.AssistantSpec) (string, error) {
	args := m.Called(ctx, spec)
	return args.String(0), args.Error(1)
}

func (m *mockAssistants) CreateThread(ctx context.Context, userMessage string) (string, error) {
	args := m.Called(ctx, userMessage)
	return args.String(0), args.Error(1)
}

func (m *mockAssistants) CreateRun(ctx context.Context, threadID, assistantID string) (*entity.Run, error) {
	args := m.Called(ctx, threadID, assistantID)
	run, _ := args.Get(0).(*entity.Run)
	return run, args.Error(1)
}

func (m *mockAssistants) RetrieveRun(ctx context.Context, threadID, runID string) (*entity.Run, error) {
	args := m.Called(ctx, threadID, runID)
	run, _ := args.Get(0).(*entity.Run)
	return run, args.Error(1)
}

func (m *mockAssistants) SubmitToolOutputs(ctx context.Context, threadID, runID string, results []entity.ToolResult) (*entity.Run, error) {
	args := m.Called(ctx, threadID, runID, results)
	run, _ := args.Get(0).(*entity.Run)
	return run, args.Error(1)
}

func (m *mockAssistants) LatestAssistantMessage(ctx context.Context, threadID string) (string, bool, error) {
	args := m.Called(ctx, threadID)
	return args.String(0), args.Bool(1), args.Error(2)
}

type nopTool struct{ name entity.ToolName }

func (t nopTool) Name() entity.ToolName { return t.name }
func (t nopTool) Description() string   { return "nop" }
func (t nopTool) Parameters() map[string]interface{} {
	return map[string]interface{}{"type": "object", "properties": map[string]interface{}{}}
}
func (t nopTool) Execute(context.Context, entity.Credential, string) (string, error) {
	return "", nil
}

func newRegistry(t *testing.T) *service.ToolRegistryImpl {
	t.Helper()
	registry := service.NewToolRegistry()
	registry.MustRegister(nopTool{entity.ToolGetBalance}, nopTool{entity.ToolRequestFunds})
	return registry
}

func TestGetOrCreateAssistant_CreatesOnce(t *testing.T) {
	m := &mockAssistants{}
	m.On("CreateAssistant", mock.Anything, mock.MatchedBy(func(spec output.AssistantSpec) bool {
		return spec.Model == "gpt-4o-mini" && spec.Instructions == "be helpful" && len(spec.Tools) == 2
	})).Return("asst_123", nil).Once()

	uc := New(m, newRegistry(t), logger.NewNop(), Config{Name: "PEARL", Model: "gpt-4o-mini", Instructions: "be helpful"})

	first, err := uc.GetOrCreateAssistant(context.Background())
	require.NoError(t, err)
	second, err := uc.GetOrCreateAssistant(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "asst_123", first)
	assert.Equal(t, first, second)
	m.AssertExpectations(t)
}

func TestGetOrCreateAssistant_ConcurrentCallersShareCreation(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	m := &mockAssistants{}
	m.On("CreateAssistant", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) {
			calls.Add(1)
			<-release
		}).
		Return("asst_shared", nil)

	uc := New(m, newRegistry(t), logger.NewNop(), Config{Model: "gpt-4o-mini"})

	var wg sync.WaitGroup
	ids := make([]string, 8)
	for i := range ids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := uc.GetOrCreateAssistant(context.Background())
			assert.NoError(t, err)
			ids[i] = id
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, id := range ids {
		assert.Equal(t, "asst_shared", id)
	}
}

func TestGetOrCreateAssistant_Preconfigured(t *testing.T) {
	m := &mockAssistants{}
	uc := New(m, newRegistry(t), logger.NewNop(), Config{AssistantID: " asst_env "})

	id, err := uc.GetOrCreateAssistant(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "asst_env", id)
	m.AssertNotCalled(t, "CreateAssistant", mock.Anything, mock.Anything)
}

func TestGetOrCreateAssistant_FailureIsNotCached(t *testing.T) {
	m := &mockAssistants{}
	m.On("CreateAssistant", mock.Anything, mock.Anything).Return("", errors.New("invalid api key")).Once()
	m.On("CreateAssistant", mock.Anything, mock.Anything).Return("asst_retry", nil).Once()

	uc := New(m, newRegistry(t), logger.NewNop(), Config{})

	_, err := uc.GetOrCreateAssistant(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid api key")

	id, err := uc.GetOrCreateAssistant(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "asst_retry", id)
}

func TestStartTurn(t *testing.T) {
	m := &mockAssistants{}
	m.On("CreateThread", mock.Anything, "What's my balance?").Return("thread_1", nil)
	m.On("CreateRun", mock.Anything, "thread_1", "asst_1").
		Return(&entity.Run{ID: "run_1", Status: entity.RunStatusQueued}, nil)

	uc := New(m, newRegistry(t), logger.NewNop(), Config{})

	run, err := uc.StartTurn(context.Background(), "asst_1", "What's my balance?")
	require.NoError(t, err)
	assert.Equal(t, "run_1", run.ID)
	assert.Equal(t, "thread_1", run.ThreadID)
	assert.Equal(t, entity.RunStatusQueued, run.Status)
}

func TestStartTurn_Errors(t *testing.T) {
	uc := New(&mockAssistants{}, newRegistry(t), logger.NewNop(), Config{})
	_, err := uc.StartTurn(context.Background(), "asst_1", "   ")
	assert.ErrorIs(t, err, ErrEmptyMessage)

	errUpstream := errors.New("503")
	m := &mockAssistants{}
	m.On("CreateThread", mock.Anything, "hi").Return("", errUpstream)
	uc = New(m, newRegistry(t), logger.NewNop(), Config{})
	_, err = uc.StartTurn(context.Background(), "asst_1", "hi")
	assert.ErrorIs(t, err, errUpstream)
}
