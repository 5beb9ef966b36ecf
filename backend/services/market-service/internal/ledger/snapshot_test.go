package ledger_test

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arbigrid/backend/services/market-service/internal/ledger"
)

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	l, clock := newLedger(t)
	sold, err := l.CreateListing(alice, 10, big.NewInt(100), time.Hour)
	require.NoError(t, err)
	open, err := l.CreateListing(bob, 5, big.NewInt(300), time.Hour)
	require.NoError(t, err)
	_, err = l.Purchase(sold.ID, bob, big.NewInt(1500))
	require.NoError(t, err)

	restored, err := ledger.Restore(l.Snapshot(), ledger.WithClock(clock))
	require.NoError(t, err)

	active := restored.ActiveListings(clock.Now())
	require.Len(t, active, 1)
	assert.Equal(t, open.ID, active[0].ID)
	assertAmount(t, big.NewInt(975), restored.Balance(alice))
	assertAmount(t, big.NewInt(500), restored.Balance(bob))
	assert.Len(t, restored.TransactionsFor(bob), 1)

	next, err := restored.CreateListing(carol, 1, big.NewInt(1), time.Hour)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), next.ID)

	tx, err := restored.Purchase(next.ID, alice, big.NewInt(1))
	require.NoError(t, err)
	assert.Equal(t, uint64(2), tx.ID)
}

func TestRestoredPendingTransactionCanSettle(t *testing.T) {
	clock := newManualClock()
	now := clock.Now()
	snap := ledger.Snapshot{
		Listings: []ledger.Listing{{
			ID: 7, Seller: alice, Quantity: 10, UnitPrice: big.NewInt(100), TotalPrice: big.NewInt(1000),
			Duration: time.Hour, CreatedAt: now, Active: false, State: ledger.ListingSold,
		}},
		Transactions: []ledger.Transaction{{
			ID: 3, ListingID: 7, Buyer: bob, Seller: alice, Amount: 10,
			GrossPrice: big.NewInt(1000), PlatformFee: big.NewInt(25), NetAmount: big.NewInt(975), Change: big.NewInt(0),
			Status: ledger.StatusPending, Timestamp: now,
		}},
	}

	l, err := ledger.Restore(snap, ledger.WithClock(clock))
	require.NoError(t, err)
	assert.Zero(t, l.Balance(alice).Sign(), "pending transactions credit nothing")

	tx, err := l.UpdateTransactionStatus(3, ledger.StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusCompleted, tx.Status)
	assertAmount(t, big.NewInt(975), l.Balance(alice))
	assertAmount(t, big.NewInt(25), l.Balance(ledger.DefaultFeeAccount))

	_, err = l.UpdateTransactionStatus(3, ledger.StatusFailed)
	assert.ErrorIs(t, err, ledger.ErrInvalidTransition)
}

func TestRestoredPendingTransactionCanFail(t *testing.T) {
	clock := newManualClock()
	now := clock.Now()
	snap := ledger.Snapshot{
		Listings: []ledger.Listing{{
			ID: 1, Seller: alice, Quantity: 1, UnitPrice: big.NewInt(100), TotalPrice: big.NewInt(100),
			Duration: time.Hour, CreatedAt: now, State: ledger.ListingSold,
		}},
		Transactions: []ledger.Transaction{{
			ID: 1, ListingID: 1, Buyer: bob, Seller: alice, Amount: 1,
			GrossPrice: big.NewInt(100), PlatformFee: big.NewInt(2), NetAmount: big.NewInt(98),
			Status: ledger.StatusPending, Timestamp: now,
		}},
	}
	l, err := ledger.Restore(snap, ledger.WithClock(clock))
	require.NoError(t, err)

	_, err = l.UpdateTransactionStatus(1, ledger.StatusPending)
	assert.ErrorIs(t, err, ledger.ErrInvalidTransition)

	tx, err := l.UpdateTransactionStatus(1, ledger.StatusFailed)
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusFailed, tx.Status)
	assert.Zero(t, l.Balance(alice).Sign())

	listing, err := l.Listing(1)
	require.NoError(t, err)
	assert.False(t, listing.Active)
}

func TestRestoreRejectsInconsistentSnapshots(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	base := ledger.Listing{ID: 1, Seller: alice, Quantity: 1, UnitPrice: big.NewInt(1), TotalPrice: big.NewInt(1), Duration: time.Hour, CreatedAt: now, Active: true, State: ledger.ListingActive}
	closed := base
	closed.Active = false
	closed.State = ledger.ListingSold

	tests := []struct {
		name string
		snap ledger.Snapshot
	}{
		{"duplicate listing", ledger.Snapshot{Listings: []ledger.Listing{base, base}}},
		{"invalid terms", ledger.Snapshot{Listings: []ledger.Listing{{ID: 2, Seller: alice, Quantity: 0, UnitPrice: big.NewInt(1), Duration: time.Hour}}}},
		{"unknown listing", ledger.Snapshot{Transactions: []ledger.Transaction{{ID: 1, ListingID: 9}}}},
		{"transaction on active listing", ledger.Snapshot{
			Listings:     []ledger.Listing{base},
			Transactions: []ledger.Transaction{{ID: 1, ListingID: 1, Status: ledger.StatusCompleted}},
		}},
		{"listing matched twice", ledger.Snapshot{
			Listings: []ledger.Listing{closed},
			Transactions: []ledger.Transaction{
				{ID: 1, ListingID: 1, Buyer: bob, Seller: alice, Status: ledger.StatusCompleted},
				{ID: 2, ListingID: 1, Buyer: carol, Seller: alice, Status: ledger.StatusCompleted},
			},
		}},
		{"negative balance", ledger.Snapshot{Balances: map[ledger.Account]*big.Int{alice: big.NewInt(-1)}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ledger.Restore(tt.snap)
			assert.ErrorIs(t, err, ledger.ErrInvalidSnapshot)
		})
	}
}
