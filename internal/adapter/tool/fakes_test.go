package tool

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/Atharva-3000/pearl-monad/internal/application/port/output"
	"github.com/Atharva-3000/pearl-monad/internal/domain/entity"
	"github.com/Atharva-3000/pearl-monad/internal/infrastructure/chain"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/mock"
)

const (
	testKey     = "0x4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"
	testAddress = "0x2c7536E3605D9C16a7a3D7b1898e529396a65c23"
	faucetKey   = "0x8f2a55949038a9610f50fb23b5883af3b4ecb3c3bb792cbcefbd1542c692be63"
)

var (
	wmon = chain.DefaultTokens()[0]
	usdc = chain.DefaultTokens()[1]
)

func testCred() entity.Credential {
	return entity.NewCredential("did:privy:test", testKey)
}

type sentTx struct {
	From common.Address
	Req  entity.TxRequest
	Raw  bool
}

type fakeChain struct {
	mu         sync.Mutex
	native     *big.Int
	nativeErr  error
	tokens     []entity.Token
	balances   map[common.Address]*big.Int
	balanceErr map[common.Address]error
	allowance  *big.Int
	nonce      uint64
	sendErr    error
	receipt    *types.Receipt
	approvals  []common.Address
	sent       []sentTx
}

var _ output.ChainPort = (*fakeChain)(nil)

func newFakeChain() *fakeChain {
	return &fakeChain{
		native:     big.NewInt(0),
		tokens:     chain.DefaultTokens(),
		balances:   map[common.Address]*big.Int{},
		balanceErr: map[common.Address]error{},
		allowance:  new(big.Int),
		nonce:      7,
		receipt:    &types.Receipt{Status: types.ReceiptStatusSuccessful},
	}
}

func (f *fakeChain) ChainID() *big.Int      { return big.NewInt(chain.MonadTestnetChainID) }
func (f *fakeChain) Tokens() []entity.Token { return f.tokens }

func (f *fakeChain) TokenBySymbol(symbol string) (entity.Token, bool) {
	for _, t := range f.tokens {
		if strings.EqualFold(t.Symbol, symbol) {
			return t, true
		}
	}
	return entity.Token{}, false
}

func (f *fakeChain) ExplorerTxURL(chainID string, hash common.Hash) string {
	return chain.ExplorerTxURL(chain.MonadExplorerURL, chain.MonadTestnetChainID, chainID, hash)
}

func (f *fakeChain) BalanceAt(context.Context, common.Address) (*big.Int, error) {
	return f.native, f.nativeErr
}

func (f *fakeChain) TokenBalance(_ context.Context, token, _ common.Address) (*big.Int, error) {
	if err := f.balanceErr[token]; err != nil {
		return nil, err
	}
	if b, ok := f.balances[token]; ok {
		return b, nil
	}
	return new(big.Int), nil
}

func (f *fakeChain) Allowance(context.Context, common.Address, common.Address, common.Address) (*big.Int, error) {
	return f.allowance, nil
}

func (f *fakeChain) PendingNonce(context.Context, common.Address) (uint64, error) {
	return f.nonce, nil
}

func (f *fakeChain) Send(ctx context.Context, wallet output.Wallet, req entity.TxRequest) (common.Hash, error) {
	if f.sendErr != nil {
		return common.Hash{}, f.sendErr
	}
	tx, err := f.Sign(ctx, wallet, req)
	if err != nil {
		return common.Hash{}, err
	}
	f.record(sentTx{From: wallet.Address(), Req: req})
	return tx.Hash(), nil
}

func (f *fakeChain) Sign(_ context.Context, wallet output.Wallet, req entity.TxRequest) (*types.Transaction, error) {
	nonce := f.nonce
	if req.Nonce != nil {
		nonce = *req.Nonce
	}
	value := req.Value
	if value == nil {
		value = new(big.Int)
	}
	to := req.To
	tx := types.NewTx(&types.LegacyTx{Nonce: nonce, To: &to, Value: value, Gas: 21000, GasPrice: big.NewInt(1), Data: req.Data})
	return wallet.SignTx(tx, f.ChainID())
}

func (f *fakeChain) SendSigned(_ context.Context, tx *types.Transaction) (common.Hash, error) {
	if f.sendErr != nil {
		return common.Hash{}, f.sendErr
	}
	from, err := types.Sender(types.LatestSignerForChainID(f.ChainID()), tx)
	if err != nil {
		return common.Hash{}, err
	}
	nonce := tx.Nonce()
	f.record(sentTx{From: from, Raw: true, Req: entity.TxRequest{To: *tx.To(), Value: tx.Value(), Data: tx.Data(), Nonce: &nonce}})
	return tx.Hash(), nil
}

func (f *fakeChain) Approve(_ context.Context, _ output.Wallet, token, _ common.Address, _ *big.Int) (common.Hash, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.approvals = append(f.approvals, token)
	return common.HexToHash("0xa11"), nil
}

func (f *fakeChain) WaitReceipt(context.Context, common.Hash) (*types.Receipt, error) {
	return f.receipt, nil
}

func (f *fakeChain) record(tx sentTx) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, tx)
}

type mockSwaps struct {
	mock.Mock
}

func (m *mockSwaps) Quote(ctx context.Context, req entity.SwapRequest) (*entity.SwapQuote, error) {
	args := m.Called(ctx, req)
	q, _ := args.Get(0).(*entity.SwapQuote)
	return q, args.Error(1)
}

func (m *mockSwaps) Price(ctx context.Context, req entity.SwapRequest) (*entity.SwapQuote, error) {
	args := m.Called(ctx, req)
	q, _ := args.Get(0).(*entity.SwapQuote)
	return q, args.Error(1)
}

type memCooldowns struct {
	mu      sync.Mutex
	last    map[string]time.Time
	readErr error
}

func newMemCooldowns() *memCooldowns {
	return &memCooldowns{last: map[string]time.Time{}}
}

func (m *memCooldowns) LastFaucetRequest(_ context.Context, address string) (time.Time, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return time.Time{}, false, m.readErr
	}
	t, ok := m.last[address]
	return t, ok, nil
}

func (m *memCooldowns) RecordFaucetRequest(_ context.Context, address string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.last[address] = at
	return nil
}

var errRPC = errors.New("rpc unavailable")
