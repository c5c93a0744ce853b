package entity

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

type Token struct {
	Symbol   string
	Address  common.Address
	Decimals uint8
}

// TxRequest describes a transaction before nonce, gas and signature are filled in.
// Nil pointers mean "let the chain adapter decide".
type TxRequest struct {
	To       common.Address
	Value    *big.Int
	Data     []byte
	Nonce    *uint64
	Gas      uint64
	GasPrice *big.Int
}

type TokenBalance struct {
	Token   Token
	Balance *big.Int
	// Err is set when the balanceOf read failed and Balance was defaulted to zero.
	Err error
}

type WalletBalance struct {
	Address common.Address
	Native  *big.Int
	Tokens  []TokenBalance
}
