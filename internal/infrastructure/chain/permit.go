package chain

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common/math"
)

var ErrEmptySignature = errors.New("empty permit signature")

// SplicePermitSignature appends a Permit2 signature to swap calldata as
// data || uint256(len(sig)) || sig.
func SplicePermitSignature(data, sig []byte) ([]byte, error) {
	if len(sig) == 0 {
		return nil, ErrEmptySignature
	}
	length := math.U256Bytes(big.NewInt(int64(len(sig))))

	out := make([]byte, 0, len(data)+len(length)+len(sig))
	out = append(out, data...)
	out = append(out, length...)
	out = append(out, sig...)
	return out, nil
}
