package swap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Atharva-3000/pearl-monad/internal/application/port/output"
	"github.com/Atharva-3000/pearl-monad/internal/domain/entity"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

var (
	ErrMalformedResponse = errors.New("malformed swap api response")
	ErrUpstream          = errors.New("swap api error")
)

const (
	quotePath      = "/swap/permit2/quote"
	pricePath      = "/swap/permit2/price"
	maxBodyBytes   = 4 << 20
	maxEchoedBytes = 500
)

type Config struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     output.LoggerPort
}

func DefaultConfig(apiKey string) Config {
	return Config{
		BaseURL: "https://api.0x.org",
		APIKey:  apiKey,
		Timeout: 15 * time.Second,
	}
}

var _ output.SwapPort = (*Client)(nil)

// Client talks to the 0x Swap API v2 permit2 endpoints.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	logger  output.LoggerPort
}

func NewClient(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		http:    httpClient,
		logger:  cfg.Logger,
	}
}

func (c *Client) Quote(ctx context.Context, req entity.SwapRequest) (*entity.SwapQuote, error) {
	body, err := c.get(ctx, quotePath, req, "Failed to fetch quote")
	if err != nil {
		return nil, err
	}
	return parseQuote(body, req), nil
}

func (c *Client) Price(ctx context.Context, req entity.SwapRequest) (*entity.SwapQuote, error) {
	body, err := c.get(ctx, pricePath, req, "Failed to fetch price")
	if err != nil {
		return nil, err
	}
	return parseQuote(body, req), nil
}

func (c *Client) get(ctx context.Context, path string, req entity.SwapRequest, fallback string) (string, error) {
	params := url.Values{}
	params.Set("sellToken", req.SellToken)
	params.Set("buyToken", req.BuyToken)
	params.Set("sellAmount", req.SellAmount)
	params.Set("chainId", req.ChainID)
	if req.Taker != "" {
		params.Set("taker", req.Taker)
	}
	endpoint := c.baseURL + path + "?" + params.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("0x-api-key", c.apiKey)
	httpReq.Header.Set("0x-version", "v2")

	if c.logger != nil {
		c.logger.Debug("Swap API request", "path", path, "sellToken", req.SellToken, "buyToken", req.BuyToken, "chainId", req.ChainID)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("%w: read body: %v", ErrUpstream, err)
	}
	body := string(raw)

	if c.logger != nil {
		c.logger.Debug("Swap API response", "path", path, "status", resp.StatusCode, "bytes", len(raw))
	}

	if !gjson.Valid(body) {
		return "", fmt.Errorf("%w: Failed to parse response as JSON: %s", ErrMalformedResponse, truncate(body, maxEchoedBytes))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := gjson.Get(body, "message").String()
		if msg == "" {
			msg = fallback
		}
		return "", fmt.Errorf("%w (%d): %s", ErrUpstream, resp.StatusCode, msg)
	}
	return body, nil
}

// DecodeQuote parses a quote document previously returned by the quote
// endpoint, as handed back by the assistant.
func DecodeQuote(raw string) (*entity.SwapQuote, error) {
	if !gjson.Valid(raw) || !gjson.Parse(raw).IsObject() {
		return nil, fmt.Errorf("%w: quote is not a JSON object", ErrMalformedResponse)
	}
	return parseQuote(raw, entity.SwapRequest{ChainID: gjson.Get(raw, "chainId").String()}), nil
}

// EncodeQuote renders the executable parts of q in the quote endpoint's shape,
// so DecodeQuote can read it back.
func EncodeQuote(q *entity.SwapQuote) (string, error) {
	if q == nil || q.Transaction == nil {
		return "", fmt.Errorf("%w: quote has no transaction", ErrMalformedResponse)
	}
	fields := []struct{ path, value string }{
		{"chainId", q.ChainID},
		{"sellToken", q.SellToken},
		{"buyToken", q.BuyToken},
		{"sellAmount", q.SellAmount},
		{"buyAmount", q.BuyAmount},
		{"transaction.to", q.Transaction.To},
		{"transaction.data", q.Transaction.Data},
		{"transaction.value", q.Transaction.Value},
		{"transaction.gas", q.Transaction.Gas},
		{"transaction.gasPrice", q.Transaction.GasPrice},
	}

	doc := "{}"
	var err error
	for _, f := range fields {
		if f.value == "" {
			continue
		}
		if doc, err = sjson.Set(doc, f.path, f.value); err != nil {
			return "", fmt.Errorf("encode quote %s: %w", f.path, err)
		}
	}
	if len(q.Permit2) > 0 {
		if doc, err = sjson.SetRaw(doc, "permit2.eip712", string(q.Permit2)); err != nil {
			return "", fmt.Errorf("encode quote permit2: %w", err)
		}
	}
	return doc, nil
}

func parseQuote(body string, req entity.SwapRequest) *entity.SwapQuote {
	doc := gjson.Parse(body)

	q := &entity.SwapQuote{
		ChainID:            req.ChainID,
		SellToken:          firstNonEmpty(doc.Get("sellToken").String(), req.SellToken),
		BuyToken:           firstNonEmpty(doc.Get("buyToken").String(), req.BuyToken),
		SellAmount:         firstNonEmpty(doc.Get("sellAmount").String(), req.SellAmount),
		BuyAmount:          doc.Get("buyAmount").String(),
		LiquidityAvailable: doc.Get("liquidityAvailable").Bool(),
	}
	q.SellTokenSymbol = routeSymbol(doc, q.SellToken)
	q.BuyTokenSymbol = routeSymbol(doc, q.BuyToken)

	doc.Get("route.fills").ForEach(func(_, fill gjson.Result) bool {
		q.Fills = append(q.Fills, entity.RouteFill{
			Source:        fill.Get("source").String(),
			ProportionBps: fill.Get("proportionBps").Int(),
		})
		return true
	})

	if a := doc.Get("issues.allowance"); a.IsObject() {
		q.Issues.Allowance = &entity.AllowanceIssue{
			Actual:  a.Get("actual").String(),
			Spender: a.Get("spender").String(),
		}
	}
	if b := doc.Get("issues.balance"); b.IsObject() {
		q.Issues.Balance = &entity.BalanceIssue{
			Token:    b.Get("token").String(),
			Actual:   b.Get("actual").String(),
			Expected: b.Get("expected").String(),
		}
	}

	if tx := doc.Get("transaction"); tx.IsObject() && tx.Get("to").String() != "" {
		q.Transaction = &entity.QuoteTransaction{
			To:       tx.Get("to").String(),
			Data:     tx.Get("data").String(),
			Value:    tx.Get("value").String(),
			Gas:      tx.Get("gas").String(),
			GasPrice: tx.Get("gasPrice").String(),
		}
	}
	if eip712 := doc.Get("permit2.eip712"); eip712.IsObject() {
		q.Permit2 = json.RawMessage(eip712.Raw)
	}
	return q
}

func routeSymbol(doc gjson.Result, address string) string {
	symbol := "Unknown"
	doc.Get("route.tokens").ForEach(func(_, token gjson.Result) bool {
		if strings.EqualFold(token.Get("address").String(), address) {
			symbol = token.Get("symbol").String()
			return false
		}
		return true
	})
	return symbol
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
