package tool

import (
	"context"
	"fmt"

	"github.com/Atharva-3000/pearl-monad/internal/application/port/output"
	"github.com/Atharva-3000/pearl-monad/internal/domain/entity"
	"github.com/Atharva-3000/pearl-monad/internal/infrastructure/chain"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

type SendTransactionTool struct {
	chain   output.ChainPort
	wallets output.WalletProvider
	logger  output.LoggerPort
}

func NewSendTransactionTool(chainPort output.ChainPort, wallets output.WalletProvider, logger output.LoggerPort) *SendTransactionTool {
	return &SendTransactionTool{chain: chainPort, wallets: wallets, logger: logger}
}

func (t *SendTransactionTool) Name() entity.ToolName { return entity.ToolSendTransaction }
func (t *SendTransactionTool) Description() string   { return "Send a transaction on Monad testnet" }
func (t *SendTransactionTool) Parameters() map[string]interface{} {
	return object(map[string]interface{}{
		"to":    addressParam("The recipient address"),
		"value": stringParam("The amount of MON to send (in MON, not wei)"),
		"data": map[string]interface{}{
			"type":        "string",
			"pattern":     "^0x[a-fA-F0-9]*$",
			"description": "Contract interaction data (hexadecimal)",
		},
		"nonce": map[string]interface{}{
			"type":        "integer",
			"minimum":     0,
			"description": "Explicit nonce for the transaction",
		},
		"gasPrice": stringParam("Gas price in gwei"),
	}, "to")
}

func (t *SendTransactionTool) Execute(ctx context.Context, cred entity.Credential, args string) (string, error) {
	var input struct {
		To       string  `json:"to"`
		Value    string  `json:"value"`
		Data     string  `json:"data"`
		Nonce    *uint64 `json:"nonce"`
		GasPrice string  `json:"gasPrice"`
	}
	if err := decodeArgs(args, &input); err != nil {
		return "", err
	}

	req, err := buildTxRequest(input.To, input.Value, input.Data, input.GasPrice)
	if err != nil {
		return "", err
	}
	req.Nonce = input.Nonce

	wallet, err := t.wallets.Open(cred)
	if err != nil {
		return "", err
	}

	hash, err := t.chain.Send(ctx, wallet, req)
	if err != nil {
		return "", fmt.Errorf("failed to send transaction: %w", err)
	}
	info(t.logger, "Transaction sent", "from", wallet.Address().Hex(), "hash", hash.Hex())

	return fmt.Sprintf("Transaction sent successfully!\n\nTransaction Hash: `%s`\n\nView on Explorer: [Open in Explorer](%s)",
		hash.Hex(), t.chain.ExplorerTxURL("", hash)), nil
}

// buildTxRequest validates the user supplied fields before anything is signed.
func buildTxRequest(to, value, data, gasPriceGwei string) (entity.TxRequest, error) {
	var req entity.TxRequest

	addr, err := chain.ParseAddress(to)
	if err != nil {
		return req, err
	}
	req.To = addr

	if value != "" {
		if req.Value, err = chain.ParseUnits(value, 18); err != nil {
			return req, fmt.Errorf("value: %w", err)
		}
	}
	if data != "" && data != "0x" {
		if req.Data, err = hexutil.Decode(data); err != nil {
			return req, fmt.Errorf("data: %w", err)
		}
	}
	if gasPriceGwei != "" {
		if req.GasPrice, err = chain.ParseUnits(gasPriceGwei, 9); err != nil {
			return req, fmt.Errorf("gasPrice: %w", err)
		}
	}
	return req, nil
}
