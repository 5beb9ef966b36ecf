package ledger

import (
	"math/big"
	"time"
)

// AccountStats summarises one account's completed trades.
type AccountStats struct {
	EnergySold   int64    `json:"energySold"`
	EnergyBought int64    `json:"energyBought"`
	Revenue      *big.Int `json:"revenue"`
	Spent        *big.Int `json:"spent"`
	Trades       int      `json:"trades"`
}

// MarketStats summarises the whole market.
type MarketStats struct {
	ActiveListings   int      `json:"activeListings"`
	EnergyTraded     int64    `json:"energyTraded"`
	Volume           *big.Int `json:"volume"`
	FeesCollected    *big.Int `json:"feesCollected"`
	Trades           int      `json:"trades"`
	AverageUnitPrice *big.Int `json:"averageUnitPrice"`
}

// Stats aggregates account's completed trades. Revenue is net of fees.
func (l *Ledger) Stats(account Account) AccountStats {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := AccountStats{Revenue: new(big.Int), Spent: new(big.Int)}
	for _, tx := range l.transactions {
		if tx.Status != StatusCompleted || !tx.Involves(account) {
			continue
		}
		out.Trades++
		if tx.Seller == account {
			out.EnergySold += tx.Amount
			out.Revenue.Add(out.Revenue, tx.NetAmount)
		}
		if tx.Buyer == account {
			out.EnergyBought += tx.Amount
			out.Spent.Add(out.Spent, tx.GrossPrice)
		}
	}
	return out
}

// MarketStats aggregates completed trades and counts listings open at now.
// Like ActiveListings it deactivates expired listings it encounters.
func (l *Ledger) MarketStats(now time.Time) MarketStats {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := MarketStats{
		ActiveListings:   len(l.activeLocked(now)),
		Volume:           new(big.Int),
		FeesCollected:    new(big.Int),
		AverageUnitPrice: new(big.Int),
	}
	for _, tx := range l.transactions {
		if tx.Status != StatusCompleted {
			continue
		}
		out.Trades++
		out.EnergyTraded += tx.Amount
		out.Volume.Add(out.Volume, tx.GrossPrice)
		out.FeesCollected.Add(out.FeesCollected, tx.PlatformFee)
	}
	if out.EnergyTraded > 0 {
		out.AverageUnitPrice.Quo(out.Volume, big.NewInt(out.EnergyTraded))
	}
	return out
}
