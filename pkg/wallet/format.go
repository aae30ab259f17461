package wallet

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// FormatUnits renders amount with decimals fractional digits, trimming
// trailing zeros but keeping at least one: 1500000000000000000 wei at 18
// decimals is "1.5", zero is "0.0".
func FormatUnits(amount *big.Int, decimals uint8) string {
	if amount == nil {
		return "0.0"
	}
	neg := amount.Sign() < 0
	abs := new(big.Int).Abs(amount)

	unit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	whole, frac := new(big.Int).QuoRem(abs, unit, new(big.Int))

	fracStr := ""
	if decimals > 0 {
		fracStr = frac.String()
		fracStr = strings.Repeat("0", int(decimals)-len(fracStr)) + fracStr
		fracStr = strings.TrimRight(fracStr, "0")
	}
	if fracStr == "" {
		fracStr = "0"
	}

	out := whole.String() + "." + fracStr
	if neg {
		out = "-" + out
	}
	return out
}

// FormatEther renders wei as ether.
func FormatEther(wei *big.Int) string {
	return FormatUnits(wei, 18)
}

// DisplayBalance renders an ether-formatted balance to 4 decimals with the
// currency symbol, truncating rather than rounding.
func DisplayBalance(balance, symbol string) string {
	if balance == "" {
		balance = "0"
	}
	whole, frac, _ := strings.Cut(balance, ".")
	frac = (frac + "0000")[:4]
	out := whole + "." + frac
	if symbol != "" {
		out += " " + symbol
	}
	return out
}

// ShortAddress renders addr as 0x1234...abcd.
func ShortAddress(addr common.Address) string {
	hex := addr.Hex()
	return hex[:6] + "..." + hex[len(hex)-4:]
}
