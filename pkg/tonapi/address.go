package tonapi

import (
	"strings"

	"github.com/tonkeeper/tongo/ton"
)

// NormalizeAddress returns the raw "workchain:hex" form of a TON address given
// in either raw or user-friendly encoding.
func NormalizeAddress(address string) (string, error) {
	id, err := ton.ParseAccountID(strings.TrimSpace(address))
	if err != nil {
		return "", err
	}
	return id.ToRaw(), nil
}

// SameAddress reports whether a and b name the same account. Addresses that do
// not parse are compared as plain strings.
func SameAddress(a, b string) bool {
	ra, errA := NormalizeAddress(a)
	rb, errB := NormalizeAddress(b)
	if errA != nil || errB != nil {
		return strings.TrimSpace(a) != "" && strings.TrimSpace(a) == strings.TrimSpace(b)
	}
	return ra == rb
}
