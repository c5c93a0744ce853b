package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
)

// fakeAssistants serves the subset of the Assistants v2 API the service uses.
// Every run asks for the scripted tool calls once, then completes with a
// reply built from the submitted outputs.
type fakeAssistants struct {
	mu        sync.Mutex
	script    [][]toolCall
	turns     int
	submitted map[string][]toolOutput
	assistant int
}

type toolCall struct {
	Name      string
	Arguments string
}

type toolOutput struct {
	ToolCallID string `json:"tool_call_id"`
	Output     string `json:"output"`
}

func newFakeAssistants(t *testing.T, script ...[]toolCall) (*fakeAssistants, *httptest.Server) {
	f := &fakeAssistants{script: script, submitted: map[string][]toolOutput{}}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/assistants", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.assistant++
		f.mu.Unlock()
		writeJSON(w, map[string]any{"id": "asst_1", "object": "assistant"})
	})
	mux.HandleFunc("POST /v1/threads", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.turns++
		n := f.turns
		f.mu.Unlock()
		writeJSON(w, map[string]any{"id": fmt.Sprintf("thread_%d", n), "object": "thread"})
	})
	mux.HandleFunc("POST /v1/threads/{thread}/runs", func(w http.ResponseWriter, r *http.Request) {
		thread := r.PathValue("thread")
		writeJSON(w, map[string]any{"id": "run_" + thread, "thread_id": thread, "status": "queued"})
	})
	mux.HandleFunc("GET /v1/threads/{thread}/runs/{run}", func(w http.ResponseWriter, r *http.Request) {
		thread, run := r.PathValue("thread"), r.PathValue("run")
		f.mu.Lock()
		_, answered := f.submitted[thread]
		calls := f.callsFor(thread)
		f.mu.Unlock()

		if answered || len(calls) == 0 {
			writeJSON(w, map[string]any{"id": run, "thread_id": thread, "status": "completed"})
			return
		}
		toolCalls := make([]map[string]any, 0, len(calls))
		for i, c := range calls {
			toolCalls = append(toolCalls, map[string]any{
				"id":       fmt.Sprintf("call_%d", i+1),
				"type":     "function",
				"function": map[string]any{"name": c.Name, "arguments": c.Arguments},
			})
		}
		writeJSON(w, map[string]any{
			"id": run, "thread_id": thread, "status": "requires_action",
			"required_action": map[string]any{
				"type":                "submit_tool_outputs",
				"submit_tool_outputs": map[string]any{"tool_calls": toolCalls},
			},
		})
	})
	mux.HandleFunc("POST /v1/threads/{thread}/runs/{run}/submit_tool_outputs", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ToolOutputs []toolOutput `json:"tool_outputs"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		thread := r.PathValue("thread")
		f.mu.Lock()
		f.submitted[thread] = req.ToolOutputs
		f.mu.Unlock()
		writeJSON(w, map[string]any{"id": r.PathValue("run"), "thread_id": thread, "status": "in_progress"})
	})
	mux.HandleFunc("GET /v1/threads/{thread}/messages", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		outputs := f.submitted[r.PathValue("thread")]
		f.mu.Unlock()

		reply := "Hello! How can I help?"
		if len(outputs) > 0 {
			reply = "Here you go:\n" + outputs[0].Output
		}
		writeJSON(w, map[string]any{"object": "list", "data": []map[string]any{
			{"id": "msg_2", "role": "assistant", "content": []map[string]any{{"type": "text", "text": map[string]any{"value": reply, "annotations": []any{}}}}},
		}})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return f, srv
}

// callsFor returns the scripted calls for the n-th thread. Caller holds mu.
func (f *fakeAssistants) callsFor(thread string) []toolCall {
	var n int
	fmt.Sscanf(thread, "thread_%d", &n)
	if n < 1 || n > len(f.script) {
		return nil
	}
	return f.script[n-1]
}

func (f *fakeAssistants) outputs(thread string) []toolOutput {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submitted[thread]
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// fakeNode is an in-process EVM backend with fixed balances.
type fakeNode struct {
	mu     sync.Mutex
	native *big.Int
	tokens map[common.Address]*big.Int
	sent   []*types.Transaction
}

func (n *fakeNode) BalanceAt(context.Context, common.Address, *big.Int) (*big.Int, error) {
	return n.native, nil
}

func (n *fakeNode) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	v, ok := n.tokens[*msg.To]
	if !ok {
		v = new(big.Int)
	}
	return common.LeftPadBytes(v.Bytes(), 32), nil
}

func (n *fakeNode) PendingNonceAt(context.Context, common.Address) (uint64, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return uint64(len(n.sent)), nil
}

func (n *fakeNode) SuggestGasPrice(context.Context) (*big.Int, error) {
	return big.NewInt(50_000_000_000), nil
}

func (n *fakeNode) EstimateGas(context.Context, ethereum.CallMsg) (uint64, error) {
	return 21000, nil
}

func (n *fakeNode) SendTransaction(_ context.Context, tx *types.Transaction) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, tx)
	return nil
}

func (n *fakeNode) TransactionReceipt(_ context.Context, hash common.Hash) (*types.Receipt, error) {
	return &types.Receipt{TxHash: hash, Status: types.ReceiptStatusSuccessful}, nil
}

func (n *fakeNode) sentCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}
