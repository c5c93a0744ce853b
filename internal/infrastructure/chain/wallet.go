package chain

import (
	"crypto/ecdsa"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/Atharva-3000/pearl-monad/internal/application/port/output"
	"github.com/Atharva-3000/pearl-monad/internal/domain/entity"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

var (
	ErrInvalidKey     = errors.New("invalid private key")
	ErrSigningFailed  = errors.New("signing failed")
	ErrInvalidAddress = errors.New("invalid address")
)

var _ output.Wallet = (*KeyWallet)(nil)

type KeyWallet struct {
	key     *ecdsa.PrivateKey
	address common.Address
}

func NewKeyWallet(privateKeyHex string) (*KeyWallet, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(privateKeyHex), "0x"))
	if err != nil {
		// the parse error may echo key material
		return nil, ErrInvalidKey
	}
	return &KeyWallet{key: key, address: crypto.PubkeyToAddress(key.PublicKey)}, nil
}

func (w *KeyWallet) Address() common.Address {
	return w.address
}

func (w *KeyWallet) SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(chainID), w.key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSigningFailed, err)
	}
	return signed, nil
}

func (w *KeyWallet) SignTypedData(typedData []byte) ([]byte, error) {
	var td apitypes.TypedData
	if err := json.Unmarshal(typedData, &td); err != nil {
		return nil, fmt.Errorf("%w: decode typed data: %v", ErrSigningFailed, err)
	}
	ensureDomainType(&td)

	hash, _, err := apitypes.TypedDataAndHash(td)
	if err != nil {
		return nil, fmt.Errorf("%w: hash typed data: %v", ErrSigningFailed, err)
	}
	sig, err := crypto.Sign(hash, w.key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSigningFailed, err)
	}
	sig[crypto.RecoveryIDOffset] += 27
	return sig, nil
}

// ensureDomainType fills in the EIP712Domain type when the payload omits it,
// using only the domain fields that are actually set.
func ensureDomainType(td *apitypes.TypedData) {
	if td.Types == nil {
		td.Types = apitypes.Types{}
	}
	if _, ok := td.Types["EIP712Domain"]; ok {
		return
	}
	var fields []apitypes.Type
	if td.Domain.Name != "" {
		fields = append(fields, apitypes.Type{Name: "name", Type: "string"})
	}
	if td.Domain.Version != "" {
		fields = append(fields, apitypes.Type{Name: "version", Type: "string"})
	}
	if td.Domain.ChainId != nil {
		fields = append(fields, apitypes.Type{Name: "chainId", Type: "uint256"})
	}
	if td.Domain.VerifyingContract != "" {
		fields = append(fields, apitypes.Type{Name: "verifyingContract", Type: "address"})
	}
	if td.Domain.Salt != "" {
		fields = append(fields, apitypes.Type{Name: "salt", Type: "bytes32"})
	}
	td.Types["EIP712Domain"] = fields
}

var _ output.WalletProvider = (*WalletProvider)(nil)

type WalletProvider struct{}

func NewWalletProvider() *WalletProvider {
	return &WalletProvider{}
}

func (p *WalletProvider) Open(cred entity.Credential) (output.Wallet, error) {
	key, err := cred.PrivateKey()
	if err != nil {
		return nil, err
	}
	return p.OpenKey(key)
}

func (p *WalletProvider) OpenKey(privateKeyHex string) (output.Wallet, error) {
	if privateKeyHex == "" {
		return nil, entity.ErrAuthRequired
	}
	return NewKeyWallet(privateKeyHex)
}

func (p *WalletProvider) GenerateKey() (string, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return "", fmt.Errorf("generate key: %w", err)
	}
	return hexutil.Encode(crypto.FromECDSA(key)), nil
}

// ParseAddress accepts only 0x-prefixed 20 byte hex addresses.
func ParseAddress(s string) (common.Address, error) {
	s = strings.TrimSpace(s)
	if !common.IsHexAddress(s) || !strings.HasPrefix(strings.ToLower(s), "0x") {
		return common.Address{}, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	return common.HexToAddress(s), nil
}
