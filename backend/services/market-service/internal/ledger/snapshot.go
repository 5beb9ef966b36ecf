package ledger

import (
	"fmt"
	"math/big"
	"sort"
)

// Snapshot is a deep copy of ledger state, used to persist and reload it.
type Snapshot struct {
	Listings     []Listing
	Transactions []Transaction
	Balances     map[Account]*big.Int
}

// Snapshot copies the current state. Listings and transactions are ordered by id.
func (l *Ledger) Snapshot() Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := Snapshot{
		Listings:     make([]Listing, 0, len(l.listings)),
		Transactions: make([]Transaction, 0, len(l.transactions)),
		Balances:     make(map[Account]*big.Int, len(l.balances)),
	}
	for _, listing := range l.listings {
		out.Listings = append(out.Listings, listing.clone())
	}
	sort.Slice(out.Listings, func(i, j int) bool { return out.Listings[i].ID < out.Listings[j].ID })
	for _, tx := range l.transactions {
		out.Transactions = append(out.Transactions, tx.clone())
	}
	for account, balance := range l.balances {
		out.Balances[account] = cloneAmount(balance)
	}
	return out
}

// Restore builds a ledger from a snapshot. Id sequences resume after the
// highest restored ids and the clock never reports a time before the newest
// restored record.
func Restore(s Snapshot, opts ...Option) (*Ledger, error) {
	l := New(opts...)

	for i := range s.Listings {
		listing := s.Listings[i].clone()
		if listing.ID == 0 {
			return nil, fmt.Errorf("%w: listing without id", ErrInvalidSnapshot)
		}
		if _, dup := l.listings[listing.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate listing %d", ErrInvalidSnapshot, listing.ID)
		}
		if listing.Quantity <= 0 || !positive(listing.UnitPrice) || listing.Duration <= 0 {
			return nil, fmt.Errorf("%w: listing %d has invalid terms", ErrInvalidSnapshot, listing.ID)
		}
		if listing.State == "" {
			listing.State = ListingActive
			if !listing.Active {
				listing.State = ListingCancelled
			}
		}
		l.listings[listing.ID] = &listing
		if listing.ID >= l.nextListingID {
			l.nextListingID = listing.ID + 1
		}
		l.clock.observe(listing.CreatedAt)
	}

	txs := make([]Transaction, len(s.Transactions))
	copy(txs, s.Transactions)
	sort.Slice(txs, func(i, j int) bool { return txs[i].ID < txs[j].ID })
	matched := make(map[uint64]uint64, len(txs))
	for i := range txs {
		tx := txs[i].clone()
		if tx.ID == 0 {
			return nil, fmt.Errorf("%w: transaction without id", ErrInvalidSnapshot)
		}
		if _, dup := l.txIndex[tx.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate transaction %d", ErrInvalidSnapshot, tx.ID)
		}
		listing, ok := l.listings[tx.ListingID]
		if !ok {
			return nil, fmt.Errorf("%w: transaction %d references unknown listing %d", ErrInvalidSnapshot, tx.ID, tx.ListingID)
		}
		if listing.Active {
			return nil, fmt.Errorf("%w: transaction %d recorded against active listing %d", ErrInvalidSnapshot, tx.ID, tx.ListingID)
		}
		if prev, dup := matched[tx.ListingID]; dup {
			return nil, fmt.Errorf("%w: listing %d matched by transactions %d and %d", ErrInvalidSnapshot, tx.ListingID, prev, tx.ID)
		}
		matched[tx.ListingID] = tx.ID
		l.appendTransaction(&tx)
		l.clock.observe(tx.Timestamp)
	}

	for account, balance := range s.Balances {
		if balance == nil || balance.Sign() < 0 {
			return nil, fmt.Errorf("%w: balance of %s is negative", ErrInvalidSnapshot, account)
		}
		if balance.Sign() > 0 {
			l.balances[account] = cloneAmount(balance)
		}
	}
	return l, nil
}
