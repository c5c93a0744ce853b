package assistants

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Atharva-3000/pearl-monad/internal/application/port/output"
	"github.com/Atharva-3000/pearl-monad/internal/domain/entity"

	"github.com/sashabaranov/go-openai"
)

var _ output.AssistantPort = (*Adapter)(nil)

// Adapter drives the OpenAI Assistants v2 API.
type Adapter struct {
	client *openai.Client
	logger output.LoggerPort
}

type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
	Logger  output.LoggerPort
}

func DefaultConfig(apiKey string) Config {
	return Config{
		APIKey:  apiKey,
		BaseURL: "https://api.openai.com/v1",
		Timeout: 30 * time.Second,
	}
}

type loggingTransport struct {
	base   http.RoundTripper
	logger output.LoggerPort
}

// RoundTrip logs request lines only. Bodies carry user messages and tool
// outputs and are left out.
func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := t.base.RoundTrip(req)
	if t.logger == nil {
		return resp, err
	}
	if err != nil {
		t.logger.Warn("Assistants API request failed", "method", req.Method, "path", req.URL.Path, "error", err)
		return resp, err
	}
	t.logger.Debug("Assistants API request",
		"method", req.Method,
		"path", req.URL.Path,
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)
	return resp, err
}

func NewAdapter(cfg Config) *Adapter {
	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	config.HTTPClient = &http.Client{
		Timeout:   cfg.Timeout,
		Transport: &loggingTransport{base: http.DefaultTransport, logger: cfg.Logger},
	}

	return &Adapter{
		client: openai.NewClientWithConfig(config),
		logger: cfg.Logger,
	}
}

func (a *Adapter) CreateAssistant(ctx context.Context, spec output.AssistantSpec) (string, error) {
	name, instructions := spec.Name, spec.Instructions
	assistant, err := a.client.CreateAssistant(ctx, openai.AssistantRequest{
		Model:        spec.Model,
		Name:         &name,
		Instructions: &instructions,
		Tools:        convertTools(spec.Tools),
	})
	if err != nil {
		return "", fmt.Errorf("create assistant: %w", err)
	}
	if a.logger != nil {
		a.logger.Info("Assistant created", "id", assistant.ID, "model", spec.Model, "tools", len(spec.Tools))
	}
	return assistant.ID, nil
}

func (a *Adapter) CreateThread(ctx context.Context, userMessage string) (string, error) {
	thread, err := a.client.CreateThread(ctx, openai.ThreadRequest{
		Messages: []openai.ThreadMessage{{Role: openai.ThreadMessageRoleUser, Content: userMessage}},
	})
	if err != nil {
		return "", fmt.Errorf("create thread: %w", err)
	}
	return thread.ID, nil
}

func (a *Adapter) CreateRun(ctx context.Context, threadID, assistantID string) (*entity.Run, error) {
	run, err := a.client.CreateRun(ctx, threadID, openai.RunRequest{AssistantID: assistantID})
	if err != nil {
		return nil, fmt.Errorf("create run: %w", err)
	}
	return convertRun(run), nil
}

func (a *Adapter) RetrieveRun(ctx context.Context, threadID, runID string) (*entity.Run, error) {
	run, err := a.client.RetrieveRun(ctx, threadID, runID)
	if err != nil {
		return nil, fmt.Errorf("retrieve run %s: %w", runID, err)
	}
	return convertRun(run), nil
}

func (a *Adapter) SubmitToolOutputs(ctx context.Context, threadID, runID string, results []entity.ToolResult) (*entity.Run, error) {
	outputs := make([]openai.ToolOutput, 0, len(results))
	for _, r := range results {
		outputs = append(outputs, openai.ToolOutput{ToolCallID: r.CallID, Output: r.Output})
	}
	run, err := a.client.SubmitToolOutputs(ctx, threadID, runID, openai.SubmitToolOutputsRequest{ToolOutputs: outputs})
	if err != nil {
		return nil, fmt.Errorf("submit tool outputs for run %s: %w", runID, err)
	}
	return convertRun(run), nil
}

func (a *Adapter) LatestAssistantMessage(ctx context.Context, threadID string) (string, bool, error) {
	limit, order := 20, "desc"
	list, err := a.client.ListMessage(ctx, threadID, &limit, &order, nil, nil, nil)
	if err != nil {
		return "", false, fmt.Errorf("list messages: %w", err)
	}
	text, ok := latestAssistantText(list.Messages)
	return text, ok, nil
}

// latestAssistantText expects messages newest first.
func latestAssistantText(messages []openai.Message) (string, bool) {
	for _, m := range messages {
		if m.Role != string(openai.ThreadMessageRoleAssistant) {
			continue
		}
		var parts []string
		for _, c := range m.Content {
			if c.Type == "text" && c.Text != nil {
				parts = append(parts, c.Text.Value)
			}
		}
		return strings.Join(parts, "\n"), true
	}
	return "", false
}

func convertTools(tools []entity.ToolDefinition) []openai.AssistantTool {
	result := make([]openai.AssistantTool, 0, len(tools))
	for _, t := range tools {
		result = append(result, openai.AssistantTool{
			Type: openai.AssistantToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name.String(),
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		})
	}
	return result
}

func convertRun(run openai.Run) *entity.Run {
	result := &entity.Run{
		ID:          run.ID,
		ThreadID:    run.ThreadID,
		AssistantID: run.AssistantID,
		Status:      entity.RunStatus(run.Status),
	}
	if run.LastError != nil {
		result.LastError = &entity.RunError{Code: string(run.LastError.Code), Message: run.LastError.Message}
	}
	if run.RequiredAction != nil && run.RequiredAction.SubmitToolOutputs != nil {
		for _, tc := range run.RequiredAction.SubmitToolOutputs.ToolCalls {
			result.RequiredToolCalls = append(result.RequiredToolCalls, entity.ToolCall{
				ID:        tc.ID,
				Name:      entity.ToolName(tc.Function.Name),
				Arguments: tc.Function.Arguments,
			})
		}
	}
	return result
}
