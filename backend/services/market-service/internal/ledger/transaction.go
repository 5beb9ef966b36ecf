package ledger

import (
	"math/big"
	"time"
)

// TransactionStatus is the settlement state of a trade.
type TransactionStatus string

const (
	StatusPending   TransactionStatus = "pending"
	StatusCompleted TransactionStatus = "completed"
	StatusFailed    TransactionStatus = "failed"
)

// Terminal reports whether no further transition is allowed.
func (s TransactionStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Kind is the side of a trade as seen by one account.
type Kind string

const (
	KindSell Kind = "sell"
	KindBuy  Kind = "buy"
)

// Transaction is the immutable record of one settled purchase.
type Transaction struct {
	ID          uint64
	ListingID   uint64
	Buyer       Account
	Seller      Account
	Amount      int64
	GrossPrice  *big.Int
	PlatformFee *big.Int
	NetAmount   *big.Int
	// Change is the buyer's overpayment, returned through the buyer's escrow balance.
	Change    *big.Int
	Status    TransactionStatus
	Timestamp time.Time
}

// Involves reports whether account is the buyer or the seller.
func (t Transaction) Involves(account Account) bool {
	return t.Buyer == account || t.Seller == account
}

// Credit is a balance movement produced by settling a transaction or a withdrawal.
type Credit struct {
	Account Account
	Amount  *big.Int
}

// Credits lists the escrow credits a completed transaction produces:
// net to the seller, fee to feeAccount and change back to the buyer.
// Zero amounts are omitted.
func (t Transaction) Credits(feeAccount Account) []Credit {
	candidates := []Credit{
		{Account: t.Seller, Amount: t.NetAmount},
		{Account: feeAccount, Amount: t.PlatformFee},
		{Account: t.Buyer, Amount: t.Change},
	}
	out := make([]Credit, 0, len(candidates))
	for _, c := range candidates {
		if positive(c.Amount) {
			out = append(out, Credit{Account: c.Account, Amount: cloneAmount(c.Amount)})
		}
	}
	return out
}

// AccountTransaction is a transaction viewed from one participant.
type AccountTransaction struct {
	Transaction
	Kind         Kind
	Counterparty Account
}

func viewFor(t Transaction, account Account) AccountTransaction {
	if t.Seller == account {
		return AccountTransaction{Transaction: t, Kind: KindSell, Counterparty: t.Buyer}
	}
	return AccountTransaction{Transaction: t, Kind: KindBuy, Counterparty: t.Seller}
}

func (t *Transaction) clone() Transaction {
	out := *t
	out.GrossPrice = cloneAmount(t.GrossPrice)
	out.PlatformFee = cloneAmount(t.PlatformFee)
	out.NetAmount = cloneAmount(t.NetAmount)
	out.Change = cloneAmount(t.Change)
	return out
}
