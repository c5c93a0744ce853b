package entity

import "encoding/json"

type SwapRequest struct {
	SellToken  string
	BuyToken   string
	SellAmount string
	Taker      string
	ChainID    string
}

type RouteFill struct {
	Source        string
	ProportionBps int64
}

type QuoteTransaction struct {
	To       string
	Data     string
	Value    string
	Gas      string
	GasPrice string
}

type AllowanceIssue struct {
	Actual  string
	Spender string
}

type BalanceIssue struct {
	Token    string
	Actual   string
	Expected string
}

type QuoteIssues struct {
	Allowance *AllowanceIssue
	Balance   *BalanceIssue
}

func (i QuoteIssues) Empty() bool {
	return i.Allowance == nil && i.Balance == nil
}

// SwapQuote is the normalized view of a swap-API quote or price response.
// Transaction and Permit2 are only present on firm quotes.
type SwapQuote struct {
	ChainID            string
	SellToken          string
	BuyToken           string
	SellTokenSymbol    string
	BuyTokenSymbol     string
	SellAmount         string
	BuyAmount          string
	Fills              []RouteFill
	Issues             QuoteIssues
	Transaction        *QuoteTransaction
	Permit2            json.RawMessage
	LiquidityAvailable bool
}

type ResultStatus string

const (
	StatusSuccess     ResultStatus = "SUCCESS"
	StatusError       ResultStatus = "ERROR"
	StatusRateLimited ResultStatus = "RATE_LIMITED"
)

// QuoteResult is the fetch_quote output. Quote is set only for executable
// quotes and can be handed back to execute_swap unchanged.
type QuoteResult struct {
	Summary string          `json:"summary"`
	Quote   json.RawMessage `json:"quote,omitempty"`
}

type SwapResult struct {
	Status          ResultStatus `json:"status"`
	TransactionHash string       `json:"transactionHash,omitempty"`
	Message         string       `json:"message"`
	ExplorerURL     string       `json:"explorerUrl,omitempty"`
	Error           string       `json:"error,omitempty"`
}

type FaucetResult struct {
	Status          ResultStatus `json:"status"`
	Amount          string       `json:"amount,omitempty"`
	Recipient       string       `json:"recipient,omitempty"`
	TransactionHash string       `json:"transactionHash,omitempty"`
	ExplorerURL     string       `json:"explorerUrl,omitempty"`
	Message         string       `json:"message"`
	RetryAfter      string       `json:"retryAfter,omitempty"`
}
