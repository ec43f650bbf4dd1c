package finance

import "github.com/shopspring/decimal"

// NanoDecimals is the number of decimal places between TON and nanoton.
const NanoDecimals = 9

// ToNano converts a TON amount to its integer nanoton representation, dropping
// anything below one nanoton.
func ToNano(ton decimal.Decimal) string {
	return ton.Shift(NanoDecimals).Truncate(0).String()
}

// FromNano parses an integer nanoton string into TON.
func FromNano(nano string) (decimal.Decimal, error) {
	v, err := decimal.NewFromString(nano)
	if err != nil {
		return decimal.Zero, invalid("nanoAmount", nano, "not a number")
	}
	if !v.Equal(v.Truncate(0)) {
		return decimal.Zero, invalid("nanoAmount", nano, "must be an integer")
	}
	return v.Shift(-NanoDecimals), nil
}
