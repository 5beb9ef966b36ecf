// Package address validates and formats 20-byte hex wallet addresses.
package address

import (
	"encoding/hex"
	"errors"
	"strings"

	"golang.org/x/crypto/sha3"
)

// ErrInvalid is returned for strings that are not 0x-prefixed 20-byte hex addresses.
var ErrInvalid = errors.New("address: invalid wallet address")

// Normalize validates s and returns its lowercase 0x form. Mixed-case input
// must carry a valid EIP-55 checksum.
func Normalize(s string) (string, error) {
	s = strings.TrimSpace(s)
	if len(s) != 42 || !(strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X")) {
		return "", ErrInvalid
	}
	body := s[2:]
	if _, err := hex.DecodeString(body); err != nil {
		return "", ErrInvalid
	}
	lower := "0x" + strings.ToLower(body)
	if body != strings.ToLower(body) && body != strings.ToUpper(body) {
		if Checksum(lower) != "0x"+body {
			return "", ErrInvalid
		}
	}
	return lower, nil
}

// Checksum renders a valid address in EIP-55 mixed case.
func Checksum(addr string) string {
	body := strings.ToLower(strings.TrimPrefix(strings.TrimPrefix(addr, "0x"), "0X"))

	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(body))
	digest := h.Sum(nil)

	out := []byte(body)
	for i, c := range out {
		if c < 'a' || c > 'f' {
			continue
		}
		nibble := digest[i/2]
		if i%2 == 0 {
			nibble >>= 4
		}
		if nibble&0x0f >= 8 {
			out[i] = c - 32
		}
	}
	return "0x" + string(out)
}
