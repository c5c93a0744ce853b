package chain

import (
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/Atharva-3000/pearl-monad/internal/domain/entity"
	"github.com/ethereum/go-ethereum/common"
)

const (
	MonadTestnetChainID = 10143
	MonadTestnetRPCURL  = "https://testnet-rpc.monad.xyz"
	MonadExplorerURL    = "https://testnet.monadexplorer.com"
)

// Permit2Address is the canonical Permit2 deployment, identical on every chain.
var Permit2Address = common.HexToAddress("0x000000000022D473030F116dDEE9F6B43aC78BA3")

type Config struct {
	RPCURL      string
	ChainID     int64
	ExplorerURL string
	Tokens      []entity.Token
	// ReceiptPoll is the interval used while waiting for a transaction receipt.
	ReceiptPoll time.Duration
}

func DefaultConfig() Config {
	return Config{
		RPCURL:      MonadTestnetRPCURL,
		ChainID:     MonadTestnetChainID,
		ExplorerURL: MonadExplorerURL,
		Tokens:      DefaultTokens(),
		ReceiptPoll: time.Second,
	}
}

func DefaultTokens() []entity.Token {
	return []entity.Token{
		{Symbol: "wMON", Address: common.HexToAddress("0x760AfE86e5de5fa0Ee542fc7B7B713e1c5425701"), Decimals: 18},
		{Symbol: "USDC", Address: common.HexToAddress("0xf817257fed379853cDe0fa4F97AB987181B1E5Ea"), Decimals: 6},
	}
}

func (c Config) chainID() *big.Int {
	return big.NewInt(c.ChainID)
}

// ExplorerTxURL builds a block explorer link for a transaction on the given chain.
// Unknown chains fall back to blockscan.
func ExplorerTxURL(configured string, configuredChainID int64, chainID string, hash common.Hash) string {
	switch {
	case chainID == "" || chainID == fmt.Sprint(configuredChainID):
		return strings.TrimRight(configured, "/") + "/tx/" + hash.Hex()
	case chainID == "10143":
		return MonadExplorerURL + "/tx/" + hash.Hex()
	case chainID == "8453":
		return "https://basescan.org/tx/" + hash.Hex()
	case chainID == "1":
		return "https://etherscan.io/tx/" + hash.Hex()
	default:
		return "https://blockscan.com/tx/" + hash.Hex()
	}
}
