package tool

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Atharva-3000/pearl-monad/internal/application/port/output"
	"github.com/Atharva-3000/pearl-monad/internal/domain/entity"
	"github.com/Atharva-3000/pearl-monad/internal/infrastructure/chain"
)

type FaucetConfig struct {
	PrivateKey string
	// Amount is in whole MON.
	Amount   string
	Cooldown time.Duration
}

func DefaultFaucetConfig(privateKey string) FaucetConfig {
	return FaucetConfig{PrivateKey: privateKey, Amount: "0.001", Cooldown: 24 * time.Hour}
}

type RequestFundsTool struct {
	chain     output.ChainPort
	wallets   output.WalletProvider
	cooldowns output.CooldownStore
	cfg       FaucetConfig
	now       func() time.Time
	logger    output.LoggerPort
}

func NewRequestFundsTool(chainPort output.ChainPort, wallets output.WalletProvider, cooldowns output.CooldownStore, cfg FaucetConfig, now func() time.Time, logger output.LoggerPort) *RequestFundsTool {
	if now == nil {
		now = time.Now
	}
	if cfg.Amount == "" {
		cfg.Amount = "0.001"
	}
	return &RequestFundsTool{
		chain:     chainPort,
		wallets:   wallets,
		cooldowns: cooldowns,
		cfg:       cfg,
		now:       now,
		logger:    logger,
	}
}

func (t *RequestFundsTool) Name() entity.ToolName { return entity.ToolRequestFunds }
func (t *RequestFundsTool) Description() string {
	if t.cfg.Cooldown <= 0 {
		return fmt.Sprintf("Request test MON from the faucet (%s MON per request)", t.cfg.Amount)
	}
	return fmt.Sprintf("Request test MON from the faucet (%s MON per request, once every %s per address)", t.cfg.Amount, formatRemaining(t.cfg.Cooldown))
}
func (t *RequestFundsTool) Parameters() map[string]interface{} {
	return object(map[string]interface{}{
		"recipientAddress": addressParam("The wallet address to receive tokens (optional, defaults to the user's wallet)"),
	})
}

func (t *RequestFundsTool) Execute(ctx context.Context, cred entity.Credential, args string) (string, error) {
	var input struct {
		RecipientAddress string `json:"recipientAddress"`
	}
	if err := decodeArgs(args, &input); err != nil {
		return "", err
	}
	return jsonResult(t.request(ctx, cred, input.RecipientAddress))
}

func (t *RequestFundsTool) request(ctx context.Context, cred entity.Credential, explicit string) entity.FaucetResult {
	recipient, err := targetAddress(t.wallets, cred, explicit)
	if err != nil {
		return faucetError(err)
	}
	key := strings.ToLower(recipient.Hex())

	now := t.now()
	last, ok, err := t.cooldowns.LastFaucetRequest(ctx, key)
	if err != nil {
		return faucetError(fmt.Errorf("read cooldown: %w", err))
	}
	if ok && t.cfg.Cooldown > 0 {
		if remaining := last.Add(t.cfg.Cooldown).Sub(now); remaining > 0 {
			wait := formatRemaining(remaining)
			info(t.logger, "Faucet rate limited", "recipient", recipient.Hex(), "remaining", remaining)
			return entity.FaucetResult{
				Status:     entity.StatusRateLimited,
				Recipient:  recipient.Hex(),
				RetryAfter: wait,
				Message:    fmt.Sprintf("This address already received funds recently. Please try again in %s.", wait),
			}
		}
	}

	if t.cfg.PrivateKey == "" {
		return faucetError(ErrFaucetNotConfigured)
	}
	faucet, err := t.wallets.OpenKey(t.cfg.PrivateKey)
	if err != nil {
		return faucetError(err)
	}
	amount, err := chain.ParseUnits(t.cfg.Amount, 18)
	if err != nil {
		return faucetError(err)
	}

	hash, err := t.chain.Send(ctx, faucet, entity.TxRequest{To: recipient, Value: amount})
	if err != nil {
		return faucetError(err)
	}
	if err := t.cooldowns.RecordFaucetRequest(ctx, key, now); err != nil {
		// funds already left the faucet; report success and keep the failure visible
		if t.logger != nil {
			t.logger.Error("Failed to record faucet request", "recipient", recipient.Hex(), "error", err)
		}
	}

	info(t.logger, "Faucet funds sent", "recipient", recipient.Hex(), "amount", t.cfg.Amount, "hash", hash.Hex())
	return entity.FaucetResult{
		Status:          entity.StatusSuccess,
		Amount:          t.cfg.Amount,
		Recipient:       recipient.Hex(),
		TransactionHash: hash.Hex(),
		ExplorerURL:     t.chain.ExplorerTxURL("", hash),
		Message:         fmt.Sprintf("You received %s %s from the faucet!", t.cfg.Amount, nativeSymbol),
	}
}

func faucetError(err error) entity.FaucetResult {
	return entity.FaucetResult{
		Status:  entity.StatusError,
		Message: "Failed to get funds from faucet: " + err.Error(),
	}
}

// formatRemaining renders a positive duration as "5h 12m", "12m" or "40s".
func formatRemaining(d time.Duration) string {
	if d < time.Minute {
		s := int((d + time.Second - 1) / time.Second)
		if s < 1 {
			s = 1
		}
		return fmt.Sprintf("%ds", s)
	}
	d = d.Round(time.Minute)
	h, m := int(d/time.Hour), int(d%time.Hour/time.Minute)
	switch {
	case h == 0:
		return fmt.Sprintf("%dm", m)
	case m == 0:
		return fmt.Sprintf("%dh", h)
	default:
		return fmt.Sprintf("%dh %dm", h, m)
	}
}
