package models

import (
	"time"

	"arbigrid/backend/services/market-service/internal/address"
	"arbigrid/backend/services/market-service/internal/ledger"
)

// ListingDTO is the wire form of a listing. Prices are ether decimal strings.
type ListingDTO struct {
	ID          uint64    `json:"id"`
	Seller      string    `json:"seller"`
	KWh         int64     `json:"kwh"`
	PricePerKWh string    `json:"pricePerKwh"`
	TotalPrice  string    `json:"totalPrice"`
	Duration    int64     `json:"duration"`
	CreatedAt   time.Time `json:"createdAt"`
	ExpiresAt   time.Time `json:"expiresAt"`
	Active      bool      `json:"active"`
	State       string    `json:"state"`
	// Timestamp is CreatedAt in unix seconds.
	Timestamp int64 `json:"timestamp"`
}

// NewListingDTO converts a ledger listing.
func NewListingDTO(l ledger.Listing) ListingDTO {
	return ListingDTO{
		ID:          l.ID,
		Seller:      DisplayAccount(l.Seller),
		KWh:         l.Quantity,
		PricePerKWh: FormatEther(l.UnitPrice),
		TotalPrice:  FormatEther(l.TotalPrice),
		Duration:    int64(l.Duration / time.Second),
		CreatedAt:   l.CreatedAt,
		ExpiresAt:   l.ExpiresAt(),
		Active:      l.Active,
		State:       string(l.State),
		Timestamp:   l.CreatedAt.Unix(),
	}
}

// NewListingDTOs converts a slice of listings, never returning nil.
func NewListingDTOs(listings []ledger.Listing) []ListingDTO {
	out := make([]ListingDTO, 0, len(listings))
	for _, l := range listings {
		out = append(out, NewListingDTO(l))
	}
	return out
}

// TransactionDTO is a transaction as seen by one participant.
type TransactionDTO struct {
	ID           uint64    `json:"id"`
	ListingID    uint64    `json:"listingId"`
	Type         string    `json:"type"`
	Counterparty string    `json:"counterparty"`
	Amount       int64     `json:"amount"`
	GrossPrice   string    `json:"grossPrice"`
	PlatformFee  string    `json:"platformFee"`
	NetAmount    string    `json:"netAmount"`
	Status       string    `json:"status"`
	Timestamp    time.Time `json:"timestamp"`
}

// NewTransactionDTO converts an account-scoped transaction.
func NewTransactionDTO(t ledger.AccountTransaction) TransactionDTO {
	return TransactionDTO{
		ID:           t.ID,
		ListingID:    t.ListingID,
		Type:         string(t.Kind),
		Counterparty: DisplayAccount(t.Counterparty),
		Amount:       t.Amount,
		GrossPrice:   FormatEther(t.GrossPrice),
		PlatformFee:  FormatEther(t.PlatformFee),
		NetAmount:    FormatEther(t.NetAmount),
		Status:       string(t.Status),
		Timestamp:    t.Timestamp,
	}
}

// NewTransactionDTOs converts a history slice, never returning nil.
func NewTransactionDTOs(txs []ledger.AccountTransaction) []TransactionDTO {
	out := make([]TransactionDTO, 0, len(txs))
	for _, t := range txs {
		out = append(out, NewTransactionDTO(t))
	}
	return out
}

// SettlementDTO is the full record of a trade, both sides included.
type SettlementDTO struct {
	ID          uint64    `json:"id"`
	ListingID   uint64    `json:"listingId"`
	Buyer       string    `json:"buyer"`
	Seller      string    `json:"seller"`
	Amount      int64     `json:"amount"`
	GrossPrice  string    `json:"grossPrice"`
	PlatformFee string    `json:"platformFee"`
	NetAmount   string    `json:"netAmount"`
	Change      string    `json:"change"`
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewSettlementDTO converts a ledger transaction.
func NewSettlementDTO(t ledger.Transaction) SettlementDTO {
	return SettlementDTO{
		ID:          t.ID,
		ListingID:   t.ListingID,
		Buyer:       DisplayAccount(t.Buyer),
		Seller:      DisplayAccount(t.Seller),
		Amount:      t.Amount,
		GrossPrice:  FormatEther(t.GrossPrice),
		PlatformFee: FormatEther(t.PlatformFee),
		NetAmount:   FormatEther(t.NetAmount),
		Change:      FormatEther(t.Change),
		Status:      string(t.Status),
		Timestamp:   t.Timestamp,
	}
}

// BalanceDTO reports an escrow balance or a released withdrawal.
type BalanceDTO struct {
	Account string `json:"account"`
	Balance string `json:"balance"`
}

// WithdrawalDTO reports funds released from escrow.
type WithdrawalDTO struct {
	Account string `json:"account"`
	Amount  string `json:"amount"`
}

// AccountStatsDTO is the wire form of ledger.AccountStats.
type AccountStatsDTO struct {
	Account      string `json:"account"`
	EnergySold   int64  `json:"energySold"`
	EnergyBought int64  `json:"energyBought"`
	Revenue      string `json:"revenue"`
	Spent        string `json:"spent"`
	Trades       int    `json:"trades"`
}

// NewAccountStatsDTO converts account statistics.
func NewAccountStatsDTO(account ledger.Account, s ledger.AccountStats) AccountStatsDTO {
	return AccountStatsDTO{
		Account:      DisplayAccount(account),
		EnergySold:   s.EnergySold,
		EnergyBought: s.EnergyBought,
		Revenue:      FormatEther(s.Revenue),
		Spent:        FormatEther(s.Spent),
		Trades:       s.Trades,
	}
}

// MarketStatsDTO is the wire form of ledger.MarketStats.
type MarketStatsDTO struct {
	ActiveListings   int    `json:"activeListings"`
	EnergyTraded     int64  `json:"energyTraded"`
	Volume           string `json:"volume"`
	FeesCollected    string `json:"feesCollected"`
	Trades           int    `json:"trades"`
	AverageUnitPrice string `json:"averagePricePerKwh"`
}

// NewMarketStatsDTO converts market statistics.
func NewMarketStatsDTO(s ledger.MarketStats) MarketStatsDTO {
	return MarketStatsDTO{
		ActiveListings:   s.ActiveListings,
		EnergyTraded:     s.EnergyTraded,
		Volume:           FormatEther(s.Volume),
		FeesCollected:    FormatEther(s.FeesCollected),
		Trades:           s.Trades,
		AverageUnitPrice: FormatEther(s.AverageUnitPrice),
	}
}

// DisplayAccount renders wallet accounts with their EIP-55 checksum and
// leaves other accounts (such as the platform fee account) untouched.
func DisplayAccount(a ledger.Account) string {
	if normalized, err := address.Normalize(string(a)); err == nil {
		return address.Checksum(normalized)
	}
	return string(a)
}
