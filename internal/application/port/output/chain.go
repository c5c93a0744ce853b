package output

import (
	"context"
	"math/big"

	"github.com/Atharva-3000/pearl-monad/internal/domain/entity"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Wallet is a signing capability derived from one caller credential.
type Wallet interface {
	Address() common.Address
	SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error)
	// SignTypedData signs an EIP-712 JSON document and returns the 65 byte signature.
	SignTypedData(typedData []byte) ([]byte, error)
}

type WalletProvider interface {
	Open(cred entity.Credential) (Wallet, error)
	OpenKey(privateKeyHex string) (Wallet, error)
	GenerateKey() (string, error)
}

type ChainPort interface {
	ChainID() *big.Int
	Tokens() []entity.Token
	TokenBySymbol(symbol string) (entity.Token, bool)
	ExplorerTxURL(chainID string, hash common.Hash) string

	BalanceAt(ctx context.Context, account common.Address) (*big.Int, error)
	TokenBalance(ctx context.Context, token, owner common.Address) (*big.Int, error)
	Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error)
	PendingNonce(ctx context.Context, account common.Address) (uint64, error)

	// Send fills missing nonce, gas and gas price, signs and broadcasts.
	Send(ctx context.Context, wallet Wallet, req entity.TxRequest) (common.Hash, error)
	Sign(ctx context.Context, wallet Wallet, req entity.TxRequest) (*types.Transaction, error)
	SendSigned(ctx context.Context, tx *types.Transaction) (common.Hash, error)
	Approve(ctx context.Context, wallet Wallet, token, spender common.Address, amount *big.Int) (common.Hash, error)
	WaitReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error)
}
