package ledger

import "math/big"

const (
	// FeeRateBasisPoints is the platform fee (2.5%) charged on the gross price of every trade.
	FeeRateBasisPoints = 250
	basisPoints        = 10_000
)

// MaxAmount is the largest representable wei amount (2^256 - 1), matching the settlement contract.
var MaxAmount = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// TotalPrice returns quantity * unitPrice or ErrOverflow when the product exceeds MaxAmount.
func TotalPrice(quantity int64, unitPrice *big.Int) (*big.Int, error) {
	total := new(big.Int).Mul(big.NewInt(quantity), unitPrice)
	if total.Cmp(MaxAmount) > 0 {
		return nil, ErrOverflow
	}
	return total, nil
}

// PlatformFee returns floor(gross * FeeRateBasisPoints / 10000).
func PlatformFee(gross *big.Int) *big.Int {
	fee := new(big.Int).Mul(gross, big.NewInt(FeeRateBasisPoints))
	return fee.Quo(fee, big.NewInt(basisPoints))
}

func cloneAmount(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(v)
}

func positive(v *big.Int) bool {
	return v != nil && v.Sign() > 0
}
