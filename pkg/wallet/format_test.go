package wallet

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
)

func TestFormatEther(t *testing.T) {
	oneAndHalf, _ := new(big.Int).SetString("1500000000000000000", 10)
	tiny := big.NewInt(1)
	large, _ := new(big.Int).SetString("123456789000000000000000", 10)

	tests := []struct {
		name string
		in   *big.Int
		want string
	}{
		{"nil", nil, "0.0"},
		{"zero", new(big.Int), "0.0"},
		{"one and a half", oneAndHalf, "1.5"},
		{"one wei", tiny, "0.000000000000000001"},
		{"large", large, "123456.789"},
		{"negative", new(big.Int).Neg(oneAndHalf), "-1.5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatEther(tt.in))
		})
	}
}

func TestFormatUnitsZeroDecimals(t *testing.T) {
	assert.Equal(t, "42.0", FormatUnits(big.NewInt(42), 0))
}

func TestDisplayBalance(t *testing.T) {
	assert.Equal(t, "1.5000 SEP", DisplayBalance("1.5", "SEP"))
	assert.Equal(t, "0.1234 SEP", DisplayBalance("0.123456789", "SEP"))
	assert.Equal(t, "0.0000 SEP", DisplayBalance("0", "SEP"))
	assert.Equal(t, "0.0000", DisplayBalance("", ""))
}

func TestShortAddress(t *testing.T) {
	addr := common.HexToAddress("0x2D1FB38A63dF7f9e0Fe55beCE97F2981C32febCB")
	assert.Equal(t, "0x2D1F...ebCB", ShortAddress(addr))
}
