package tool

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Atharva-3000/pearl-monad/internal/application/port/output"
	"github.com/Atharva-3000/pearl-monad/internal/domain/entity"
	"github.com/Atharva-3000/pearl-monad/internal/infrastructure/chain"

	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrInvalidQuote        = errors.New("invalid quote object: missing transaction details")
	ErrFaucetNotConfigured = errors.New("faucet private key not configured")
)

// Deps are the collaborators shared by the built-in tools.
type Deps struct {
	Chain     output.ChainPort
	Wallets   output.WalletProvider
	Swaps     output.SwapPort
	Cooldowns output.CooldownStore
	Faucet    FaucetConfig
	Logger    output.LoggerPort
	// ApprovalTimeout bounds the wait for a Permit2 approval receipt.
	ApprovalTimeout time.Duration
	Now             func() time.Time
}

// All builds every assistant tool over the same dependencies.
func All(d Deps) []output.ToolPort {
	quotes := NewQuoteService(d.Chain, d.Wallets, d.Swaps, d.Logger, d.ApprovalTimeout)
	return []output.ToolPort{
		NewGetBalanceTool(d.Chain, d.Wallets, d.Logger),
		NewGetWalletAddressTool(d.Wallets),
		NewSendTransactionTool(d.Chain, d.Wallets, d.Logger),
		NewFetchQuoteTool(quotes),
		NewFetchPriceTool(quotes),
		NewExecuteSwapTool(d.Chain, d.Wallets, quotes, d.Logger),
		NewRequestFundsTool(d.Chain, d.Wallets, d.Cooldowns, d.Faucet, d.Now, d.Logger),
	}
}

func object(properties map[string]interface{}, required ...string) map[string]interface{} {
	if required == nil {
		required = []string{}
	}
	return map[string]interface{}{
		"type":       "object",
		"properties": properties,
		"required":   required,
	}
}

func stringParam(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": description,
	}
}

func addressParam(description string) map[string]interface{} {
	p := stringParam(description)
	p["pattern"] = "^0x[a-fA-F0-9]{40}$"
	return p
}

func decodeArgs(args string, v any) error {
	if strings.TrimSpace(args) == "" {
		args = "{}"
	}
	if err := json.Unmarshal([]byte(args), v); err != nil {
		return fmt.Errorf("decode arguments: %w", err)
	}
	return nil
}

func jsonResult(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode result: %w", err)
	}
	return string(b), nil
}

// targetAddress returns explicit when set, otherwise the caller's own address.
func targetAddress(wallets output.WalletProvider, cred entity.Credential, explicit string) (common.Address, error) {
	if strings.TrimSpace(explicit) != "" {
		return chain.ParseAddress(explicit)
	}
	w, err := wallets.Open(cred)
	if err != nil {
		return common.Address{}, err
	}
	return w.Address(), nil
}

func warn(logger output.LoggerPort, msg string, args ...any) {
	if logger != nil {
		logger.Warn(msg, args...)
	}
}

func info(logger output.LoggerPort, msg string, args ...any) {
	if logger != nil {
		logger.Info(msg, args...)
	}
}
