package ton

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// 1 TON = 1_000_000_000 nanoTON.
const nanoDigits = 9

// ToNano converts a decimal TON amount to nanoTON, truncating anything
// below one nano.
func ToNano(amount decimal.Decimal) *big.Int {
	return amount.Shift(nanoDigits).Truncate(0).BigInt()
}

// FromNano converts nanoTON back to a decimal TON amount.
func FromNano(nano *big.Int) decimal.Decimal {
	return decimal.NewFromBigInt(nano, -nanoDigits)
}
