package tonapi

import (
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strings"
)

const txHashLen = 32

// ErrInvalidTxHash is returned for strings that do not encode a 32-byte hash.
var ErrInvalidTxHash = errors.New("invalid transaction hash")

var hashEncodings = []*base64.Encoding{
	base64.StdEncoding,
	base64.URLEncoding,
	base64.RawStdEncoding,
	base64.RawURLEncoding,
}

// NormalizeTxHash returns the canonical lower-case hex form of a transaction
// hash given as hex in any case or as standard or URL-safe base64.
func NormalizeTxHash(hash string) (string, error) {
	s := strings.TrimSpace(hash)
	if len(s) == hex.EncodedLen(txHashLen) {
		if b, err := hex.DecodeString(s); err == nil {
			return hex.EncodeToString(b), nil
		}
	}
	for _, enc := range hashEncodings {
		b, err := enc.DecodeString(s)
		if err == nil && len(b) == txHashLen {
			return hex.EncodeToString(b), nil
		}
	}
	return "", ErrInvalidTxHash
}
