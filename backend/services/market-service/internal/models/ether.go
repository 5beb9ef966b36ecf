package models

import (
	"errors"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// WeiDecimals is the number of fractional digits in one ether.
const WeiDecimals = 18

// ErrInvalidAmount is returned for ether strings that are not non-negative
// decimals with at most 18 fractional digits.
var ErrInvalidAmount = errors.New("models: invalid ether amount")

// ParseEther converts a decimal ether string such as "0.05" to wei.
func ParseEther(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		return nil, ErrInvalidAmount
	}
	wei := d.Shift(WeiDecimals)
	if !wei.IsInteger() {
		return nil, ErrInvalidAmount
	}
	return wei.BigInt(), nil
}

// FormatEther renders wei as a decimal ether string without trailing zeros.
func FormatEther(wei *big.Int) string {
	if wei == nil {
		return "0"
	}
	return decimal.NewFromBigInt(wei, -WeiDecimals).String()
}
