// Package ledger is the authoritative registry of energy listings and the
// trades settled against them. It performs no I/O: persistence, events and
// transport are driven by callers from the values it returns.
package ledger

import (
	"math/big"
	"sort"
	"sync"
	"time"
)

// DefaultFeeAccount receives platform fees unless WithFeeAccount is used.
const DefaultFeeAccount Account = "platform"

// Ledger serialises every mutation behind one lock so that a listing is
// settled at most once and readers never see a listing flipped without its
// transaction.
type Ledger struct {
	mu         sync.RWMutex
	clock      monotonicClock
	feeAccount Account

	nextListingID uint64
	nextTxID      uint64

	listings     map[uint64]*Listing
	transactions []*Transaction
	txIndex      map[uint64]int
	balances     map[Account]*big.Int

	// expired holds ids closed by lazy expiry until TakeExpired drains them.
	expired []uint64
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock overrides the system clock.
func WithClock(c Clock) Option {
	return func(l *Ledger) {
		if c != nil {
			l.clock.source = c
		}
	}
}

// WithFeeAccount sets the account credited with platform fees.
func WithFeeAccount(account Account) Option {
	return func(l *Ledger) {
		if account != "" {
			l.feeAccount = account
		}
	}
}

// New returns an empty ledger.
func New(opts ...Option) *Ledger {
	l := &Ledger{
		clock:         monotonicClock{source: systemClock{}},
		feeAccount:    DefaultFeeAccount,
		nextListingID: 1,
		nextTxID:      1,
		listings:      make(map[uint64]*Listing),
		txIndex:       make(map[uint64]int),
		balances:      make(map[Account]*big.Int),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// FeeAccount returns the account credited with platform fees.
func (l *Ledger) FeeAccount() Account {
	return l.feeAccount
}

// CreateListing registers a new active listing owned by seller.
func (l *Ledger) CreateListing(seller Account, quantity int64, unitPrice *big.Int, duration time.Duration) (Listing, error) {
	if quantity <= 0 {
		return Listing{}, ErrInvalidQuantity
	}
	if !positive(unitPrice) {
		return Listing{}, ErrInvalidPrice
	}
	if duration <= 0 {
		return Listing{}, ErrInvalidDuration
	}
	total, err := TotalPrice(quantity, unitPrice)
	if err != nil {
		return Listing{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	listing := &Listing{
		ID:         l.nextListingID,
		Seller:     seller,
		Quantity:   quantity,
		UnitPrice:  cloneAmount(unitPrice),
		TotalPrice: total,
		Duration:   duration,
		CreatedAt:  l.clock.now(),
		Active:     true,
		State:      ListingActive,
	}
	l.listings[listing.ID] = listing
	l.nextListingID++
	return listing.clone(), nil
}

// Purchase settles listingID for buyer. On success the listing is closed and
// exactly one completed transaction is recorded; on failure nothing changes
// except the lazy deactivation of an expired listing.
func (l *Ledger) Purchase(listingID uint64, buyer Account, funds *big.Int) (Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	listing, ok := l.listings[listingID]
	if !ok {
		return Transaction{}, ErrNotFound
	}
	now := l.clock.now()
	l.expireLocked(listing, now)
	if listing.State == ListingExpired {
		return Transaction{}, ErrExpired
	}
	if !listing.Active {
		return Transaction{}, ErrAlreadySettled
	}
	if funds == nil || funds.Cmp(listing.TotalPrice) < 0 {
		return Transaction{}, ErrInsufficientFunds
	}
	if buyer == listing.Seller {
		return Transaction{}, ErrSelfTrade
	}

	gross := cloneAmount(listing.TotalPrice)
	fee := PlatformFee(gross)
	tx := &Transaction{
		ID:          l.nextTxID,
		ListingID:   listing.ID,
		Buyer:       buyer,
		Seller:      listing.Seller,
		Amount:      listing.Quantity,
		GrossPrice:  gross,
		PlatformFee: fee,
		NetAmount:   new(big.Int).Sub(gross, fee),
		Change:      new(big.Int).Sub(funds, gross),
		Status:      StatusCompleted,
		Timestamp:   now,
	}

	listing.close(ListingSold)
	l.appendTransaction(tx)
	l.applyCredits(tx.Credits(l.feeAccount))
	return tx.clone(), nil
}

// CancelListing closes an active listing on behalf of its seller. A listing
// whose window has passed is expired first and reported as settled.
func (l *Ledger) CancelListing(listingID uint64, caller Account) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	listing, ok := l.listings[listingID]
	if !ok {
		return ErrNotFound
	}
	l.expireLocked(listing, l.clock.now())
	if !listing.Active {
		return ErrAlreadySettled
	}
	if caller != listing.Seller {
		return ErrUnauthorized
	}
	listing.close(ListingCancelled)
	return nil
}

// Listing returns a listing by id, applying lazy expiry first.
func (l *Ledger) Listing(listingID uint64) (Listing, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	listing, ok := l.listings[listingID]
	if !ok {
		return Listing{}, ErrNotFound
	}
	l.expireLocked(listing, l.clock.now())
	return listing.clone(), nil
}

// ActiveListings returns listings still open at now, oldest first, ties by id.
// Listings found expired are deactivated on the way.
func (l *Ledger) ActiveListings(now time.Time) []Listing {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.activeLocked(now)
}

func (l *Ledger) activeLocked(now time.Time) []Listing {
	out := make([]Listing, 0, len(l.listings))
	for _, listing := range l.listings {
		if !listing.Active || l.expireLocked(listing, now) {
			continue
		}
		out = append(out, listing.clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// TakeExpired returns the listings closed by lazy expiry since the previous
// call, in the order they expired, so callers can persist them.
func (l *Ledger) TakeExpired() []Listing {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Listing, 0, len(l.expired))
	for _, id := range l.expired {
		out = append(out, l.listings[id].clone())
	}
	l.expired = nil
	return out
}

func (l *Ledger) expireLocked(listing *Listing, now time.Time) bool {
	if !listing.Active || !listing.ExpiredAt(now) {
		return false
	}
	listing.close(ListingExpired)
	l.expired = append(l.expired, listing.ID)
	return true
}

// TransactionsFor returns every transaction account took part in, newest first.
func (l *Ledger) TransactionsFor(account Account) []AccountTransaction {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]AccountTransaction, 0)
	for _, tx := range l.transactions {
		if tx.Involves(account) {
			out = append(out, viewFor(tx.clone(), account))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.After(out[j].Timestamp)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

// Transaction returns a transaction by id.
func (l *Ledger) Transaction(txID uint64) (Transaction, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	idx, ok := l.txIndex[txID]
	if !ok {
		return Transaction{}, ErrNotFound
	}
	return l.transactions[idx].clone(), nil
}

// UpdateTransactionStatus is the settlement layer hook. Only pending
// transactions may move, and only to completed or failed. Completing a
// transaction releases its escrow credits; failing it credits nothing.
func (l *Ledger) UpdateTransactionStatus(txID uint64, status TransactionStatus) (Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	idx, ok := l.txIndex[txID]
	if !ok {
		return Transaction{}, ErrNotFound
	}
	tx := l.transactions[idx]
	if tx.Status != StatusPending || !status.Terminal() {
		return Transaction{}, ErrInvalidTransition
	}
	tx.Status = status
	if status == StatusCompleted {
		l.applyCredits(tx.Credits(l.feeAccount))
	}
	return tx.clone(), nil
}

// Balance returns the escrowed amount account can withdraw.
func (l *Ledger) Balance(account Account) *big.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return cloneAmount(l.balances[account])
}

// Deposit adds amount to account's escrow balance and returns the new balance.
func (l *Ledger) Deposit(account Account, amount *big.Int) (*big.Int, error) {
	if !positive(amount) {
		return nil, ErrInvalidAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	next := new(big.Int).Add(cloneAmount(l.balances[account]), amount)
	if next.Cmp(MaxAmount) > 0 {
		return nil, ErrOverflow
	}
	l.balances[account] = next
	return cloneAmount(next), nil
}

// Withdraw empties account's escrow balance and returns what was released.
func (l *Ledger) Withdraw(account Account) (*big.Int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	balance := l.balances[account]
	if !positive(balance) {
		return nil, ErrNothingToWithdraw
	}
	delete(l.balances, account)
	return balance, nil
}

func (l *Ledger) appendTransaction(tx *Transaction) {
	l.txIndex[tx.ID] = len(l.transactions)
	l.transactions = append(l.transactions, tx)
	l.nextTxID = tx.ID + 1
}

func (l *Ledger) applyCredits(credits []Credit) {
	for _, c := range credits {
		current, ok := l.balances[c.Account]
		if !ok {
			current = new(big.Int)
			l.balances[c.Account] = current
		}
		current.Add(current, c.Amount)
	}
}
