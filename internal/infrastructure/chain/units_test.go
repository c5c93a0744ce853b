package chain

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseUnits_Cases(t *testing.T) {
	tests := []struct {
		in       string
		decimals uint8
		want     string
	}{
		{"1", 18, "1000000000000000000"},
		{"0.001", 18, "1000000000000000"},
		{"1.5", 6, "1500000"},
		{".5", 6, "500000"},
		{"2.", 0, "2"},
		{"0", 18, "0"},
		{"1.2300", 2, "123"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseUnits(tt.in, tt.decimals)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestParseUnits_Rejects(t *testing.T) {
	for _, in := range []string{"", "-1", "abc", "1.2.3", "1e18", "0.1234567", "."} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseUnits(in, 6)
			assert.ErrorIs(t, err, ErrInvalidAmount)
		})
	}
}

func TestFormatUnits_Cases(t *testing.T) {
	wei, _ := new(big.Int).SetString("1500000000000000000", 10)

	assert.Equal(t, "1.5", FormatUnits(wei, 18))
	assert.Equal(t, "0.000000000000000005", FormatUnits(big.NewInt(5), 18))
	assert.Equal(t, "0", FormatUnits(big.NewInt(0), 18))
	assert.Equal(t, "42", FormatUnits(big.NewInt(42), 0))
	assert.Equal(t, "-0.1", FormatUnits(big.NewInt(-100000), 6))
	assert.Equal(t, "0", FormatUnits(nil, 18))
}

func TestParseUnits_FormatRoundTrip(t *testing.T) {
	for _, in := range []string{"0.001", "123.456", "1", "0.000001"} {
		v, err := ParseUnits(in, 18)
		require.NoError(t, err)
		assert.Equal(t, in, FormatUnits(v, 18))
	}
}

func TestParseBigInt_HexAndDecimal(t *testing.T) {
	v, ok := ParseBigInt("0x10")
	require.True(t, ok)
	assert.Equal(t, int64(16), v.Int64())

	v, ok = ParseBigInt("250")
	require.True(t, ok)
	assert.Equal(t, int64(250), v.Int64())

	_, ok = ParseBigInt("")
	assert.False(t, ok)
	_, ok = ParseBigInt("12a")
	assert.False(t, ok)
}
