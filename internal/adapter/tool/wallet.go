package tool

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/Atharva-3000/pearl-monad/internal/application/port/output"
	"github.com/Atharva-3000/pearl-monad/internal/domain/entity"
	"github.com/Atharva-3000/pearl-monad/internal/infrastructure/chain"

	"github.com/ethereum/go-ethereum/common"
)

const nativeSymbol = "MON"

type GetBalanceTool struct {
	chain   output.ChainPort
	wallets output.WalletProvider
	logger  output.LoggerPort
}

func NewGetBalanceTool(chainPort output.ChainPort, wallets output.WalletProvider, logger output.LoggerPort) *GetBalanceTool {
	return &GetBalanceTool{chain: chainPort, wallets: wallets, logger: logger}
}

func (t *GetBalanceTool) Name() entity.ToolName { return entity.ToolGetBalance }
func (t *GetBalanceTool) Description() string {
	return "Get the native MON balance and the balance of every supported token for a wallet. Defaults to the user's own wallet."
}
func (t *GetBalanceTool) Concurrent() bool { return true }
func (t *GetBalanceTool) Parameters() map[string]interface{} {
	return object(map[string]interface{}{
		"address": addressParam("The wallet address to check (optional, defaults to the user's wallet)"),
	})
}

func (t *GetBalanceTool) Execute(ctx context.Context, cred entity.Credential, args string) (string, error) {
	var input struct {
		Address string `json:"address"`
	}
	if err := decodeArgs(args, &input); err != nil {
		return "", err
	}
	address, err := targetAddress(t.wallets, cred, input.Address)
	if err != nil {
		return "", err
	}

	balance, err := t.read(ctx, address)
	if err != nil {
		return "", err
	}
	return formatBalance(balance), nil
}

// read fetches the native balance and every configured token. A failed token
// read is reported as zero.
func (t *GetBalanceTool) read(ctx context.Context, address common.Address) (entity.WalletBalance, error) {
	native, err := t.chain.BalanceAt(ctx, address)
	if err != nil {
		return entity.WalletBalance{}, fmt.Errorf("get balance: %w", err)
	}

	result := entity.WalletBalance{Address: address, Native: native}
	for _, token := range t.chain.Tokens() {
		tb := entity.TokenBalance{Token: token}
		tb.Balance, tb.Err = t.chain.TokenBalance(ctx, token.Address, address)
		if tb.Err != nil {
			warn(t.logger, "Token balance read failed", "token", token.Symbol, "error", tb.Err)
			tb.Balance = new(big.Int)
		}
		result.Tokens = append(result.Tokens, tb)
	}
	return result, nil
}

func formatBalance(b entity.WalletBalance) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Balances for %s:\n", b.Address.Hex())
	fmt.Fprintf(&sb, "- %s: %s", nativeSymbol, chain.FormatUnits(b.Native, 18))
	for _, tb := range b.Tokens {
		fmt.Fprintf(&sb, "\n- %s: %s", tb.Token.Symbol, chain.FormatUnits(tb.Balance, tb.Token.Decimals))
	}
	return sb.String()
}

type GetWalletAddressTool struct {
	wallets output.WalletProvider
}

func NewGetWalletAddressTool(wallets output.WalletProvider) *GetWalletAddressTool {
	return &GetWalletAddressTool{wallets: wallets}
}

func (t *GetWalletAddressTool) Name() entity.ToolName { return entity.ToolGetWalletAddress }
func (t *GetWalletAddressTool) Description() string   { return "Get the user's wallet address" }
func (t *GetWalletAddressTool) Concurrent() bool      { return true }
func (t *GetWalletAddressTool) Parameters() map[string]interface{} {
	return object(map[string]interface{}{})
}

func (t *GetWalletAddressTool) Execute(_ context.Context, cred entity.Credential, _ string) (string, error) {
	w, err := t.wallets.Open(cred)
	if err != nil {
		return "", err
	}
	return w.Address().Hex(), nil
}
