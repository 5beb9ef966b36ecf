package ledger

import "errors"

var (
	// ErrInvalidQuantity is returned when a listing quantity is not positive.
	ErrInvalidQuantity = errors.New("ledger: quantity must be positive")
	// ErrInvalidPrice is returned when a unit price is zero, negative or missing.
	ErrInvalidPrice = errors.New("ledger: unit price must be positive")
	// ErrInvalidDuration is returned when a listing duration is not positive.
	ErrInvalidDuration = errors.New("ledger: duration must be positive")
	// ErrOverflow is returned when quantity * unit price does not fit in uint256.
	ErrOverflow = errors.New("ledger: total price overflows uint256")
	ErrNotFound = errors.New("ledger: not found")
	// ErrAlreadySettled is returned for listings that were purchased or cancelled, and
	// for cancelling a listing that has expired.
	ErrAlreadySettled    = errors.New("ledger: listing already settled")
	ErrExpired           = errors.New("ledger: listing expired")
	ErrInsufficientFunds = errors.New("ledger: insufficient funds")
	ErrSelfTrade         = errors.New("ledger: seller cannot buy own listing")
	ErrUnauthorized      = errors.New("ledger: caller is not the seller")
	// ErrInvalidTransition is returned for any status change other than pending -> completed|failed.
	ErrInvalidTransition = errors.New("ledger: invalid transaction status transition")
	ErrNothingToWithdraw = errors.New("ledger: nothing to withdraw")
	// ErrInvalidAmount is returned when a deposit is zero, negative or missing.
	ErrInvalidAmount     = errors.New("ledger: amount must be positive")
	ErrInvalidSnapshot   = errors.New("ledger: invalid snapshot")
)
