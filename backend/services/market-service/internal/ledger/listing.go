package ledger

import (
	"math/big"
	"time"
)

// Account identifies a trading party. The ledger compares accounts byte for byte;
// normalisation (e.g. lowercasing hex addresses) is the caller's job.
type Account string

// ListingState records why a listing is, or stopped being, active.
type ListingState string

const (
	ListingActive    ListingState = "active"
	ListingSold      ListingState = "sold"
	ListingCancelled ListingState = "cancelled"
	ListingExpired   ListingState = "expired"
)

// Listing is an offer to sell a fixed quantity of energy at a fixed unit price.
type Listing struct {
	ID         uint64
	Seller     Account
	Quantity   int64
	UnitPrice  *big.Int
	TotalPrice *big.Int
	Duration   time.Duration
	CreatedAt  time.Time
	Active     bool
	State      ListingState
}

// ExpiresAt is the first instant at which the listing can no longer be purchased.
func (l Listing) ExpiresAt() time.Time {
	return l.CreatedAt.Add(l.Duration)
}

// ExpiredAt reports whether the listing window has elapsed at now.
func (l Listing) ExpiredAt(now time.Time) bool {
	return !now.Before(l.ExpiresAt())
}

func (l *Listing) clone() Listing {
	out := *l
	out.UnitPrice = cloneAmount(l.UnitPrice)
	out.TotalPrice = cloneAmount(l.TotalPrice)
	return out
}

func (l *Listing) close(state ListingState) {
	l.Active = false
	l.State = state
}
