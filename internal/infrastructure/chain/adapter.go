package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/Atharva-3000/pearl-monad/internal/application/port/output"
	"github.com/Atharva-3000/pearl-monad/internal/domain/entity"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
)

var (
	ErrPrepareFailed   = errors.New("prepare transaction failed")
	ErrBroadcastFailed = errors.New("network rejected transaction")
)

// Backend is the subset of ethclient.Client used by the adapter.
type Backend interface {
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

var _ output.ChainPort = (*Adapter)(nil)

type Adapter struct {
	backend Backend
	cfg     Config
	logger  output.LoggerPort
	closeFn func()
}

func Dial(ctx context.Context, cfg Config, logger output.LoggerPort) (*Adapter, error) {
	client, err := ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("dial rpc %s: %w", cfg.RPCURL, err)
	}
	a := NewAdapter(client, cfg, logger)
	a.closeFn = client.Close
	return a, nil
}

func NewAdapter(backend Backend, cfg Config, logger output.LoggerPort) *Adapter {
	if cfg.ReceiptPoll <= 0 {
		cfg.ReceiptPoll = time.Second
	}
	return &Adapter{backend: backend, cfg: cfg, logger: logger}
}

func (a *Adapter) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

func (a *Adapter) ChainID() *big.Int {
	return a.cfg.chainID()
}

func (a *Adapter) Tokens() []entity.Token {
	return a.cfg.Tokens
}

func (a *Adapter) TokenBySymbol(symbol string) (entity.Token, bool) {
	for _, t := range a.cfg.Tokens {
		if strings.EqualFold(t.Symbol, symbol) {
			return t, true
		}
	}
	return entity.Token{}, false
}

func (a *Adapter) ExplorerTxURL(chainID string, hash common.Hash) string {
	return ExplorerTxURL(a.cfg.ExplorerURL, a.cfg.ChainID, chainID, hash)
}

func (a *Adapter) BalanceAt(ctx context.Context, account common.Address) (*big.Int, error) {
	balance, err := a.backend.BalanceAt(ctx, account, nil)
	if err != nil {
		return nil, fmt.Errorf("balance of %s: %w", account.Hex(), err)
	}
	return balance, nil
}

func (a *Adapter) TokenBalance(ctx context.Context, token, owner common.Address) (*big.Int, error) {
	data, err := packBalanceOf(owner)
	if err != nil {
		return nil, err
	}
	return a.callUint256(ctx, token, "balanceOf", data)
}

func (a *Adapter) Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error) {
	data, err := packAllowance(owner, spender)
	if err != nil {
		return nil, err
	}
	return a.callUint256(ctx, token, "allowance", data)
}

func (a *Adapter) callUint256(ctx context.Context, contract common.Address, method string, data []byte) (*big.Int, error) {
	out, err := a.backend.CallContract(ctx, ethereum.CallMsg{To: &contract, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s on %s: %w", method, contract.Hex(), err)
	}
	return unpackUint256(method, out)
}

func (a *Adapter) PendingNonce(ctx context.Context, account common.Address) (uint64, error) {
	nonce, err := a.backend.PendingNonceAt(ctx, account)
	if err != nil {
		return 0, fmt.Errorf("pending nonce of %s: %w", account.Hex(), err)
	}
	return nonce, nil
}

func (a *Adapter) Send(ctx context.Context, wallet output.Wallet, req entity.TxRequest) (common.Hash, error) {
	tx, err := a.Sign(ctx, wallet, req)
	if err != nil {
		return common.Hash{}, err
	}
	return a.SendSigned(ctx, tx)
}

func (a *Adapter) Sign(ctx context.Context, wallet output.Wallet, req entity.TxRequest) (*types.Transaction, error) {
	from := wallet.Address()
	value := req.Value
	if value == nil {
		value = new(big.Int)
	}

	var nonce uint64
	if req.Nonce != nil {
		nonce = *req.Nonce
	} else {
		n, err := a.backend.PendingNonceAt(ctx, from)
		if err != nil {
			return nil, fmt.Errorf("%w: nonce: %v", ErrPrepareFailed, err)
		}
		nonce = n
	}

	gasPrice := req.GasPrice
	if gasPrice == nil {
		p, err := a.backend.SuggestGasPrice(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: gas price: %v", ErrPrepareFailed, err)
		}
		gasPrice = p
	}

	gas := req.Gas
	if gas == 0 {
		to := req.To
		g, err := a.backend.EstimateGas(ctx, ethereum.CallMsg{From: from, To: &to, Value: value, Data: req.Data})
		if err != nil {
			return nil, fmt.Errorf("%w: estimate gas: %v", ErrPrepareFailed, err)
		}
		gas = g
	}

	to := req.To
	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		GasPrice: gasPrice,
		Gas:      gas,
		To:       &to,
		Value:    value,
		Data:     req.Data,
	})

	signed, err := wallet.SignTx(tx, a.ChainID())
	if err != nil {
		if errors.Is(err, ErrSigningFailed) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrSigningFailed, err)
	}
	return signed, nil
}

func (a *Adapter) SendSigned(ctx context.Context, tx *types.Transaction) (common.Hash, error) {
	if err := a.backend.SendTransaction(ctx, tx); err != nil {
		return common.Hash{}, fmt.Errorf("%w: %v", ErrBroadcastFailed, err)
	}
	if a.logger != nil {
		a.logger.Info("Transaction broadcast", "hash", tx.Hash().Hex(), "nonce", tx.Nonce())
	}
	return tx.Hash(), nil
}

func (a *Adapter) Approve(ctx context.Context, wallet output.Wallet, token, spender common.Address, amount *big.Int) (common.Hash, error) {
	data, err := packApprove(spender, amount)
	if err != nil {
		return common.Hash{}, fmt.Errorf("%w: pack approve: %v", ErrPrepareFailed, err)
	}
	return a.Send(ctx, wallet, entity.TxRequest{To: token, Data: data})
}

// WaitReceipt polls until the transaction is mined or ctx is done.
func (a *Adapter) WaitReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	ticker := time.NewTicker(a.cfg.ReceiptPoll)
	defer ticker.Stop()

	for {
		receipt, err := a.backend.TransactionReceipt(ctx, hash)
		if err == nil {
			return receipt, nil
		}
		if !errors.Is(err, ethereum.NotFound) {
			return nil, fmt.Errorf("receipt of %s: %w", hash.Hex(), err)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
