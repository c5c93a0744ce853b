package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/Atharva-3000/pearl-monad/internal/application/port/output"
	"github.com/Atharva-3000/pearl-monad/internal/domain/entity"
	"github.com/Atharva-3000/pearl-monad/internal/infrastructure/chain"
	"github.com/Atharva-3000/pearl-monad/internal/infrastructure/swap"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/core/types"
)

// NativeTokenAddress is the swap API placeholder for the chain's native asset.
const NativeTokenAddress = "0xEeeeeEeeeEeEeeEeEeEeeEEEeeeeEeeeeeeeEEeE"

const defaultApprovalTimeout = 30 * time.Second

type QuoteParams struct {
	SellToken  string `json:"sellToken"`
	BuyToken   string `json:"buyToken"`
	SellAmount string `json:"sellAmount"`
	ChainID    string `json:"chainId"`
}

func (p QuoteParams) complete() bool {
	return p.SellToken != "" && p.BuyToken != "" && p.SellAmount != ""
}

type TokenRef struct {
	Address  string
	Symbol   string
	Decimals uint8
	Native   bool
}

type Quote struct {
	*entity.SwapQuote
	Sell TokenRef
	Buy  TokenRef
	// Approval is the Permit2 approval sent for this quote, zero when none was needed.
	Approval common.Hash
}

// QuoteService is the single quoting path used by fetch_quote, fetch_price
// and execute_swap.
type QuoteService struct {
	chain           output.ChainPort
	wallets         output.WalletProvider
	swaps           output.SwapPort
	logger          output.LoggerPort
	approvalTimeout time.Duration
}

func NewQuoteService(chainPort output.ChainPort, wallets output.WalletProvider, swaps output.SwapPort, logger output.LoggerPort, approvalTimeout time.Duration) *QuoteService {
	if approvalTimeout <= 0 {
		approvalTimeout = defaultApprovalTimeout
	}
	return &QuoteService{
		chain:           chainPort,
		wallets:         wallets,
		swaps:           swaps,
		logger:          logger,
		approvalTimeout: approvalTimeout,
	}
}

// Firm returns a quote for the caller. When the quote carries a transaction and
// the ERC-20 sell token's Permit2 allowance is too small, the allowance is
// approved after quoting. Nothing is sent on-chain for a failed or unfillable quote.
func (s *QuoteService) Firm(ctx context.Context, cred entity.Credential, p QuoteParams) (*Quote, error) {
	wallet, err := s.wallets.Open(cred)
	if err != nil {
		return nil, err
	}
	req, sell, buy, amount, err := s.prepare(p)
	if err != nil {
		return nil, err
	}
	req.Taker = wallet.Address().Hex()

	q, err := s.swaps.Quote(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch quote: %w", err)
	}
	quote := &Quote{SwapQuote: q, Sell: sell, Buy: buy}
	if sell.Native || q.Transaction == nil {
		return quote, nil
	}

	if quote.Approval, err = s.ensureAllowance(ctx, wallet, common.HexToAddress(sell.Address), amount); err != nil {
		return nil, err
	}
	return quote, nil
}

// Indicative returns a price without side effects. The caller is used as taker
// when a key is available.
func (s *QuoteService) Indicative(ctx context.Context, cred entity.Credential, p QuoteParams) (*Quote, error) {
	req, sell, buy, _, err := s.prepare(p)
	if err != nil {
		return nil, err
	}
	if w, err := s.wallets.Open(cred); err == nil {
		req.Taker = w.Address().Hex()
	}

	q, err := s.swaps.Price(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch price: %w", err)
	}
	return &Quote{SwapQuote: q, Sell: sell, Buy: buy}, nil
}

func (s *QuoteService) prepare(p QuoteParams) (entity.SwapRequest, TokenRef, TokenRef, *big.Int, error) {
	var req entity.SwapRequest
	sell, err := s.resolveToken(p.SellToken)
	if err != nil {
		return req, TokenRef{}, TokenRef{}, nil, fmt.Errorf("sellToken: %w", err)
	}
	buy, err := s.resolveToken(p.BuyToken)
	if err != nil {
		return req, TokenRef{}, TokenRef{}, nil, fmt.Errorf("buyToken: %w", err)
	}
	amount, err := parseAmount(p.SellAmount, sell.Decimals)
	if err != nil {
		return req, TokenRef{}, TokenRef{}, nil, fmt.Errorf("sellAmount: %w", err)
	}

	chainID := strings.TrimSpace(p.ChainID)
	if chainID == "" {
		chainID = s.chain.ChainID().String()
	}
	req = entity.SwapRequest{
		SellToken:  sell.Address,
		BuyToken:   buy.Address,
		SellAmount: amount.String(),
		ChainID:    chainID,
	}
	return req, sell, buy, amount, nil
}

func (s *QuoteService) resolveToken(v string) (TokenRef, error) {
	v = strings.TrimSpace(v)
	if strings.EqualFold(v, nativeSymbol) || strings.EqualFold(v, NativeTokenAddress) {
		return TokenRef{Address: NativeTokenAddress, Symbol: nativeSymbol, Decimals: 18, Native: true}, nil
	}
	if tok, ok := s.chain.TokenBySymbol(v); ok {
		return TokenRef{Address: tok.Address.Hex(), Symbol: tok.Symbol, Decimals: tok.Decimals}, nil
	}
	addr, err := chain.ParseAddress(v)
	if err != nil {
		return TokenRef{}, err
	}
	for _, tok := range s.chain.Tokens() {
		if tok.Address == addr {
			return TokenRef{Address: tok.Address.Hex(), Symbol: tok.Symbol, Decimals: tok.Decimals}, nil
		}
	}
	return TokenRef{Address: addr.Hex(), Decimals: 18}, nil
}

func (s *QuoteService) ensureAllowance(ctx context.Context, wallet output.Wallet, token common.Address, amount *big.Int) (common.Hash, error) {
	allowance, err := s.chain.Allowance(ctx, token, wallet.Address(), chain.Permit2Address)
	if err != nil {
		return common.Hash{}, fmt.Errorf("check Permit2 allowance: %w", err)
	}
	if allowance.Cmp(amount) >= 0 {
		return common.Hash{}, nil
	}

	info(s.logger, "Approving Permit2", "token", token.Hex(), "owner", wallet.Address().Hex())
	hash, err := s.chain.Approve(ctx, wallet, token, chain.Permit2Address, math.MaxBig256)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to approve Permit2 to spend %s: %w", token.Hex(), err)
	}

	waitCtx, cancel := context.WithTimeout(ctx, s.approvalTimeout)
	defer cancel()
	receipt, err := s.chain.WaitReceipt(waitCtx, hash)
	if err != nil {
		return common.Hash{}, fmt.Errorf("approval %s not confirmed: %w", hash.Hex(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return common.Hash{}, fmt.Errorf("approval %s reverted", hash.Hex())
	}
	return hash, nil
}

// parseAmount accepts base units ("1000000") or a decimal amount ("1.5").
func parseAmount(s string, decimals uint8) (*big.Int, error) {
	var (
		v   *big.Int
		err error
	)
	if strings.Contains(s, ".") {
		v, err = chain.ParseUnits(s, decimals)
	} else if parsed, ok := chain.ParseBigInt(s); ok {
		v = parsed
	} else {
		err = fmt.Errorf("%w: %q", chain.ErrInvalidAmount, s)
	}
	if err != nil {
		return nil, err
	}
	if v.Sign() <= 0 {
		return nil, fmt.Errorf("%w: must be positive", chain.ErrInvalidAmount)
	}
	return v, nil
}

type FetchQuoteTool struct {
	quotes *QuoteService
}

func NewFetchQuoteTool(quotes *QuoteService) *FetchQuoteTool {
	return &FetchQuoteTool{quotes: quotes}
}

func (t *FetchQuoteTool) Name() entity.ToolName { return entity.ToolFetchQuote }
func (t *FetchQuoteTool) Description() string {
	return "Fetch a quote for a token swap using the 0x Swap API on Monad Testnet. Returns a summary and, when the swap can be filled, a quote object for execute_swap."
}
func (t *FetchQuoteTool) Parameters() map[string]interface{} {
	return object(swapProperties(), "sellToken", "buyToken", "sellAmount")
}

func (t *FetchQuoteTool) Execute(ctx context.Context, cred entity.Credential, args string) (string, error) {
	var p QuoteParams
	if err := decodeArgs(args, &p); err != nil {
		return "", err
	}
	q, err := t.quotes.Firm(ctx, cred, p)
	if err != nil {
		return "", err
	}
	res := entity.QuoteResult{Summary: formatQuote("Quote Details", q)}
	if q.Approval != (common.Hash{}) {
		res.Summary += fmt.Sprintf("\n- Permit2 Approval: `%s`", q.Approval.Hex())
	}
	if q.Transaction != nil {
		doc, err := swap.EncodeQuote(q.SwapQuote)
		if err != nil {
			return "", err
		}
		res.Quote = json.RawMessage(doc)
	}
	return jsonResult(res)
}

type FetchPriceTool struct {
	quotes *QuoteService
}

func NewFetchPriceTool(quotes *QuoteService) *FetchPriceTool {
	return &FetchPriceTool{quotes: quotes}
}

func (t *FetchPriceTool) Name() entity.ToolName { return entity.ToolFetchPrice }
func (t *FetchPriceTool) Description() string {
	return "Fetch an indicative price for a token swap without preparing a transaction."
}
func (t *FetchPriceTool) Concurrent() bool { return true }
func (t *FetchPriceTool) Parameters() map[string]interface{} {
	return object(swapProperties(), "sellToken", "buyToken", "sellAmount")
}

func (t *FetchPriceTool) Execute(ctx context.Context, cred entity.Credential, args string) (string, error) {
	var p QuoteParams
	if err := decodeArgs(args, &p); err != nil {
		return "", err
	}
	q, err := t.quotes.Indicative(ctx, cred, p)
	if err != nil {
		return "", err
	}
	return formatQuote("Price Details", q), nil
}

func swapProperties() map[string]interface{} {
	return map[string]interface{}{
		"sellToken":  stringParam("The token to sell (symbol or contract address)"),
		"buyToken":   stringParam("The token to buy (symbol or contract address)"),
		"sellAmount": stringParam("The amount of sellToken to sell, in base units (e.g. wei) or as a decimal amount such as 1.5"),
		"chainId":    stringParam("The chain ID of the blockchain network (defaults to 10143 for Monad Testnet)"),
	}
}

func formatQuote(title string, q *Quote) string {
	sellSymbol := symbolOf(q.SellTokenSymbol, q.Sell)
	buySymbol := symbolOf(q.BuyTokenSymbol, q.Buy)
	sellAmount, _ := chain.ParseBigInt(q.SellAmount)
	buyAmount, _ := chain.ParseBigInt(q.BuyAmount)

	gas, gasPrice := "Unknown", "Unknown"
	if q.Transaction != nil {
		gas = orUnknown(q.Transaction.Gas)
		gasPrice = orUnknown(q.Transaction.GasPrice)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "**%s**:\n", title)
	fmt.Fprintf(&sb, "- Sell Token: %s (%s)\n", sellSymbol, q.SellToken)
	fmt.Fprintf(&sb, "- Buy Token: %s (%s)\n", buySymbol, q.BuyToken)
	fmt.Fprintf(&sb, "- Sell Amount: %s %s\n", chain.FormatUnits(sellAmount, q.Sell.Decimals), sellSymbol)
	fmt.Fprintf(&sb, "- Buy Amount: %s %s\n", chain.FormatUnits(buyAmount, q.Buy.Decimals), buySymbol)
	fmt.Fprintf(&sb, "- Exchange Rate: 1 %s = %s %s\n", sellSymbol, exchangeRate(sellAmount, q.Sell.Decimals, buyAmount, q.Buy.Decimals), buySymbol)
	fmt.Fprintf(&sb, "- Estimated Gas: %s\n", gas)
	fmt.Fprintf(&sb, "- Gas Price: %s wei\n", gasPrice)
	fmt.Fprintf(&sb, "- Sources: %s\n", formatFills(q.Fills))
	fmt.Fprintf(&sb, "- Issues Found: %s", formatIssues(q.Issues, sellSymbol, q.Sell.Decimals))
	return sb.String()
}

// exchangeRate is buy per one unit of sell, or "Unknown" when either side is
// missing or sell is zero.
func exchangeRate(sell *big.Int, sellDecimals uint8, buy *big.Int, buyDecimals uint8) string {
	if sell == nil || buy == nil || sell.Sign() == 0 {
		return "Unknown"
	}
	num := new(big.Int).Mul(buy, pow10(sellDecimals))
	den := new(big.Int).Mul(sell, pow10(buyDecimals))
	return new(big.Rat).SetFrac(num, den).FloatString(6)
}

func pow10(n uint8) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}

func formatFills(fills []entity.RouteFill) string {
	if len(fills) == 0 {
		return "Unknown"
	}
	parts := make([]string, 0, len(fills))
	for _, f := range fills {
		parts = append(parts, fmt.Sprintf("%s (%.1f%%)", f.Source, float64(f.ProportionBps)/100))
	}
	return strings.Join(parts, ", ")
}

func formatIssues(issues entity.QuoteIssues, sellSymbol string, sellDecimals uint8) string {
	if issues.Empty() {
		return "None"
	}
	var lines []string
	if a := issues.Allowance; a != nil {
		lines = append(lines, fmt.Sprintf("Allowance Issue: You have an allowance of %s for the spender %s.", a.Actual, a.Spender))
	}
	if b := issues.Balance; b != nil {
		actual, _ := chain.ParseBigInt(b.Actual)
		expected, _ := chain.ParseBigInt(b.Expected)
		lines = append(lines, fmt.Sprintf("Balance Issue: Your balance of %s is %s, while the expected amount for the swap is %s %s.",
			sellSymbol, chain.FormatUnits(actual, sellDecimals), chain.FormatUnits(expected, sellDecimals), sellSymbol))
	}
	return strings.Join(lines, "\n")
}

func symbolOf(fromRoute string, ref TokenRef) string {
	if fromRoute != "" && fromRoute != "Unknown" {
		return fromRoute
	}
	if ref.Symbol != "" {
		return ref.Symbol
	}
	return "Unknown"
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}
