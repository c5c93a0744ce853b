package integration

import (
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Atharva-3000/pearl-monad/internal/adapter/httpapi"
	"github.com/Atharva-3000/pearl-monad/internal/adapter/tool"
	"github.com/Atharva-3000/pearl-monad/internal/application/service"
	"github.com/Atharva-3000/pearl-monad/internal/infrastructure/chain"
	"github.com/Atharva-3000/pearl-monad/internal/infrastructure/llm/assistants"
	"github.com/Atharva-3000/pearl-monad/internal/infrastructure/logger"
	"github.com/Atharva-3000/pearl-monad/internal/infrastructure/storage/memory"
	"github.com/Atharva-3000/pearl-monad/internal/infrastructure/swap"
	"github.com/Atharva-3000/pearl-monad/internal/usecase/account"
	"github.com/Atharva-3000/pearl-monad/internal/usecase/chat"
	"github.com/Atharva-3000/pearl-monad/internal/usecase/executor"
	"github.com/Atharva-3000/pearl-monad/internal/usecase/session"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const faucetKey = "0x8f2a55949038a9610f50fb23b5883af3b4ecb3c3bb792cbcefbd1542c692be63"

type app struct {
	handler http.Handler
	store   *memory.Store
	node    *fakeNode
	llm     *fakeAssistants
}

func newApp(t *testing.T, script ...[]toolCall) *app {
	t.Helper()
	log := logger.NewNop()
	store := memory.New()

	llm, llmServer := newFakeAssistants(t, script...)
	llmCfg := assistants.DefaultConfig("sk-test")
	llmCfg.BaseURL = llmServer.URL + "/v1"
	llmCfg.Logger = log
	assistantAPI := assistants.NewAdapter(llmCfg)

	usdc := chain.DefaultTokens()[1]
	node := &fakeNode{
		native: big.NewInt(1_500_000_000_000_000_000),
		tokens: map[common.Address]*big.Int{},
	}
	node.tokens[usdc.Address] = big.NewInt(2_500_000)
	chainCfg := chain.DefaultConfig()
	chainCfg.ReceiptPoll = time.Millisecond
	chainAdapter := chain.NewAdapter(node, chainCfg, log)

	wallets := chain.NewWalletProvider()
	registry := service.NewToolRegistry()
	registry.MustRegister(tool.All(tool.Deps{
		Chain:     chainAdapter,
		Wallets:   wallets,
		Swaps:     swap.NewClient(swap.DefaultConfig("")),
		Cooldowns: store,
		Faucet:    tool.DefaultFaucetConfig(faucetKey),
		Logger:    log,
	})...)

	sessions := session.New(assistantAPI, registry, log, session.Config{Model: "gpt-4o-mini", Instructions: "test"})
	driver := executor.New(assistantAPI, registry, log, time.Millisecond)
	chatSvc := chat.NewService(store, sessions, driver, log, chat.Config{})
	accounts := account.NewService(store, store, wallets, log, nil)

	cfg := httpapi.DefaultConfig()
	cfg.LogLevel = "error"
	cfg.TurnTimeout = 5 * time.Second

	return &app{
		handler: httpapi.NewRouter(chatSvc, accounts, log, cfg),
		store:   store,
		node:    node,
		llm:     llm,
	}
}

func (a *app) post(t *testing.T, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func (a *app) createUser(t *testing.T, did string) string {
	t.Helper()
	rec := a.post(t, "/api/users", `{"did":"`+did+`","email":"user@example.com"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var user struct {
		Address string `json:"address"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))
	return user.Address
}

// streamedText joins every content delta of an SSE body.
func streamedText(t *testing.T, body string) string {
	t.Helper()
	require.True(t, strings.HasSuffix(body, "data: [DONE]\n\n"), body)

	var b strings.Builder
	for _, frame := range strings.Split(strings.TrimSpace(body), "\n\n") {
		payload := strings.TrimPrefix(frame, "data: ")
		if payload == "[DONE]" {
			continue
		}
		var ev struct {
			Content string `json:"content"`
			Error   string `json:"error"`
		}
		require.NoError(t, json.Unmarshal([]byte(payload), &ev), frame)
		require.Empty(t, ev.Error)
		b.WriteString(ev.Content)
	}
	return b.String()
}

func TestChat_BalanceTurn(t *testing.T) {
	a := newApp(t, []toolCall{{Name: "get_balance", Arguments: "{}"}})
	address := a.createUser(t, "did:privy:alice")

	rec := a.post(t, "/api/chat", `{"message":"What's my balance?","userId":"did:privy:alice","chatId":"chat-1","isFirstMessage":true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	answer := streamedText(t, rec.Body.String())

	outputs := a.llm.outputs("thread_1")
	require.Len(t, outputs, 1)
	assert.Equal(t, "call_1", outputs[0].ToolCallID)
	assert.Contains(t, outputs[0].Output, "Balances for "+address)
	assert.Contains(t, outputs[0].Output, "- MON: 1.5")
	assert.Contains(t, outputs[0].Output, "- USDC: 2.5")
	assert.Equal(t, "Here you go:\n"+outputs[0].Output, answer)

	req := httptest.NewRequest(http.MethodGet, "/api/chat?chatId=chat-1", nil)
	history := httptest.NewRecorder()
	a.handler.ServeHTTP(history, req)
	require.Equal(t, http.StatusOK, history.Code)

	var msgs []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	require.NoError(t, json.Unmarshal(history.Body.Bytes(), &msgs))
	require.Len(t, msgs, 2)
	assert.Equal(t, "user", msgs[0].Role)
	assert.Equal(t, "assistant", msgs[1].Role)
	assert.Equal(t, answer, msgs[1].Content)
}

func TestChat_FaucetTwice(t *testing.T) {
	call := []toolCall{{Name: "request_funds", Arguments: "{}"}}
	a := newApp(t, call, call)
	a.createUser(t, "did:privy:bob")

	for i := 0; i < 2; i++ {
		rec := a.post(t, "/api/chat", `{"message":"Send me some MON","userId":"did:privy:bob","chatId":"chat-2"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		streamedText(t, rec.Body.String())
	}

	var first, second struct {
		Status     string `json:"status"`
		RetryAfter string `json:"retryAfter"`
	}
	require.NoError(t, json.Unmarshal([]byte(a.llm.outputs("thread_1")[0].Output), &first))
	require.NoError(t, json.Unmarshal([]byte(a.llm.outputs("thread_2")[0].Output), &second))

	assert.Equal(t, "SUCCESS", first.Status)
	assert.Equal(t, "RATE_LIMITED", second.Status)
	assert.NotEmpty(t, second.RetryAfter)
	assert.Equal(t, 1, a.node.sentCount())
}

func TestChat_ToolFailureStillAnswersEveryCall(t *testing.T) {
	a := newApp(t, []toolCall{
		{Name: "get_wallet_address", Arguments: "{}"},
		{Name: "send_transaction", Arguments: `{"to":"not-an-address","value":"1"}`},
		{Name: "deploy_contract", Arguments: "{}"},
	})

	// no user record: the wallet tools have no key to work with
	rec := a.post(t, "/api/chat", `{"message":"Do things","userId":"did:privy:ghost","chatId":"chat-3"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	streamedText(t, rec.Body.String())

	outputs := a.llm.outputs("thread_1")
	require.Len(t, outputs, 3)
	ids := map[string]string{}
	for _, o := range outputs {
		ids[o.ToolCallID] = o.Output
	}
	assert.Contains(t, ids["call_1"], "Error: ")
	assert.Contains(t, ids["call_2"], "Error: ")
	assert.Equal(t, "Error: unknown tool 'deploy_contract'", ids["call_3"])
	assert.Zero(t, a.node.sentCount())
}

func TestChat_ValidationHappensBeforeStreaming(t *testing.T) {
	a := newApp(t)

	rec := a.post(t, "/api/chat", `{"message":"","userId":"u","chatId":"c"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Message, userId, and chatId are required"}`, rec.Body.String())
}
