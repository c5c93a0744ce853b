package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/Atharva-3000/pearl-monad/internal/application/port/output"
	"github.com/Atharva-3000/pearl-monad/internal/domain/entity"
	"github.com/Atharva-3000/pearl-monad/internal/infrastructure/chain"
	"github.com/Atharva-3000/pearl-monad/internal/infrastructure/swap"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

type ExecuteSwapTool struct {
	chain   output.ChainPort
	wallets output.WalletProvider
	quotes  *QuoteService
	logger  output.LoggerPort
}

func NewExecuteSwapTool(chainPort output.ChainPort, wallets output.WalletProvider, quotes *QuoteService, logger output.LoggerPort) *ExecuteSwapTool {
	return &ExecuteSwapTool{chain: chainPort, wallets: wallets, quotes: quotes, logger: logger}
}

func (t *ExecuteSwapTool) Name() entity.ToolName { return entity.ToolExecuteSwap }
func (t *ExecuteSwapTool) Description() string {
	return "Execute a token swap on Monad Testnet using the 0x API. Pass sellToken, buyToken and sellAmount, or the quote object returned by fetch_quote."
}
func (t *ExecuteSwapTool) Parameters() map[string]interface{} {
	props := swapProperties()
	props["quote"] = map[string]interface{}{
		"type":        []string{"object", "string"},
		"description": "The quote object returned by fetch_quote (optional, used when token parameters are omitted)",
	}
	return object(props)
}

// Execute never returns a Go error for swap failures; they are reported as an
// ERROR status so the assistant can explain them.
func (t *ExecuteSwapTool) Execute(ctx context.Context, cred entity.Credential, args string) (string, error) {
	var input struct {
		QuoteParams
		Quote json.RawMessage `json:"quote"`
	}
	if err := decodeArgs(args, &input); err != nil {
		return "", err
	}

	hash, chainID, err := t.swap(ctx, cred, input.QuoteParams, quoteDocument(input.Quote))
	if err != nil {
		warn(t.logger, "Swap failed", "user", cred.UserID, "error", err)
		return jsonResult(entity.SwapResult{
			Status:  entity.StatusError,
			Message: "Failed to execute swap: " + err.Error(),
			Error:   err.Error(),
		})
	}

	info(t.logger, "Swap submitted", "user", cred.UserID, "hash", hash.Hex())
	return jsonResult(entity.SwapResult{
		Status:          entity.StatusSuccess,
		TransactionHash: hash.Hex(),
		Message:         "Swap transaction submitted successfully. Transaction hash: " + hash.Hex(),
		ExplorerURL:     t.chain.ExplorerTxURL(chainID, hash),
	})
}

func (t *ExecuteSwapTool) swap(ctx context.Context, cred entity.Credential, p QuoteParams, rawQuote string) (common.Hash, string, error) {
	wallet, err := t.wallets.Open(cred)
	if err != nil {
		return common.Hash{}, "", err
	}

	var quote *entity.SwapQuote
	switch {
	case p.complete():
		q, err := t.quotes.Firm(ctx, cred, p)
		if err != nil {
			return common.Hash{}, "", err
		}
		quote = q.SwapQuote
	case rawQuote != "":
		if quote, err = swap.DecodeQuote(rawQuote); err != nil {
			return common.Hash{}, "", fmt.Errorf("%w: %v", ErrInvalidQuote, err)
		}
	}
	if quote == nil || quote.Transaction == nil {
		return common.Hash{}, "", ErrInvalidQuote
	}

	chainID := p.ChainID
	if chainID == "" {
		chainID = quote.ChainID
	}

	req, err := quoteTxRequest(quote.Transaction)
	if err != nil {
		return common.Hash{}, chainID, err
	}

	var signature []byte
	if len(quote.Permit2) > 0 {
		if signature, err = wallet.SignTypedData(quote.Permit2); err != nil {
			return common.Hash{}, chainID, fmt.Errorf("failed to sign permit2 message: %w", err)
		}
		if req.Data, err = chain.SplicePermitSignature(req.Data, signature); err != nil {
			return common.Hash{}, chainID, err
		}
	}

	nonce, err := t.chain.PendingNonce(ctx, wallet.Address())
	if err != nil {
		return common.Hash{}, chainID, err
	}
	req.Nonce = &nonce

	// Native sells and permit-less quotes go out directly; permit swaps are
	// signed first and broadcast as a raw transaction.
	if req.Value.Sign() > 0 || signature == nil {
		hash, err := t.chain.Send(ctx, wallet, req)
		return hash, chainID, err
	}
	signed, err := t.chain.Sign(ctx, wallet, req)
	if err != nil {
		return common.Hash{}, chainID, err
	}
	hash, err := t.chain.SendSigned(ctx, signed)
	return hash, chainID, err
}

// quoteDocument accepts the quote as an object or as a JSON-encoded string.
func quoteDocument(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

func quoteTxRequest(tx *entity.QuoteTransaction) (entity.TxRequest, error) {
	to, err := chain.ParseAddress(tx.To)
	if err != nil {
		return entity.TxRequest{}, fmt.Errorf("%w: %v", ErrInvalidQuote, err)
	}
	req := entity.TxRequest{To: to, Value: new(big.Int)}

	if tx.Data != "" && tx.Data != "0x" {
		if req.Data, err = hexutil.Decode(tx.Data); err != nil {
			return req, fmt.Errorf("%w: data: %v", ErrInvalidQuote, err)
		}
	}
	if v, ok := chain.ParseBigInt(tx.Value); ok {
		req.Value = v
	}
	if g, ok := chain.ParseBigInt(tx.Gas); ok && g.IsUint64() {
		req.Gas = g.Uint64()
	}
	if gp, ok := chain.ParseBigInt(tx.GasPrice); ok {
		req.GasPrice = gp
	}
	return req, nil
}
