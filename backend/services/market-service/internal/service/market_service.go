package service

import (
	"context"
	"errors"
	"math/big"
	"time"

	"go.uber.org/zap"

	"arbigrid/backend/services/market-service/internal/ledger"
	"arbigrid/backend/services/market-service/internal/models"
)

// Store persists ledger changes. Writes for one listing may arrive in any
// order, so implementations must merge them: a stored listing never reopens.
type Store interface {
	SaveListing(ctx context.Context, l ledger.Listing) error
	SaveSettlement(ctx context.Context, l ledger.Listing, tx ledger.Transaction, credits []ledger.Credit) error
	SaveStatus(ctx context.Context, tx ledger.Transaction, credits []ledger.Credit) error
	SaveDeposit(ctx context.Context, account ledger.Account, amount *big.Int) error
	SaveWithdrawal(ctx context.Context, account ledger.Account, amount *big.Int) error
}

// StatsCache holds computed market statistics.
type StatsCache interface {
	Save(ctx context.Context, stats ledger.MarketStats) error
	Get(ctx context.Context) (*ledger.MarketStats, error)
	Invalidate(ctx context.Context) error
}

// Publisher delivers market events to subscribers.
type Publisher interface {
	Publish(ctx context.Context, event models.Event) error
}

// Option configures MarketService collaborators.
type Option func(*MarketService)

// WithStore enables write-through persistence.
func WithStore(store Store) Option {
	return func(s *MarketService) { s.store = store }
}

// WithStatsCache enables cached market statistics.
func WithStatsCache(cache StatsCache) Option {
	return func(s *MarketService) { s.cache = cache }
}

// WithPublisher enables market events.
func WithPublisher(p Publisher) Option {
	return func(s *MarketService) { s.publisher = p }
}

// WithClock overrides the time used for listing queries and event stamps.
func WithClock(now func() time.Time) Option {
	return func(s *MarketService) { s.now = now }
}

// MarketService drives the ledger and propagates its results to storage,
// cache and subscribers. The ledger is the source of truth: side effects that
// fail are logged and never undo a ledger decision.
type MarketService struct {
	ledger    *ledger.Ledger
	store     Store
	cache     StatsCache
	publisher Publisher
	now       func() time.Time
	logger    *zap.Logger
}

// NewMarketService builds service.
func NewMarketService(l *ledger.Ledger, logger *zap.Logger, opts ...Option) *MarketService {
	s := &MarketService{
		ledger: l,
		now:    func() time.Time { return time.Now().UTC() },
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateListingInput carries a sell order.
type CreateListingInput struct {
	Seller    ledger.Account
	KWh       int64
	UnitPrice *big.Int
	Duration  time.Duration
}

// CreateListing registers a listing and announces it.
func (s *MarketService) CreateListing(ctx context.Context, input CreateListingInput) (ledger.Listing, error) {
	listing, err := s.ledger.CreateListing(input.Seller, input.KWh, input.UnitPrice, input.Duration)
	if err != nil {
		return ledger.Listing{}, err
	}

	s.logger.Info("energy listed",
		zap.Uint64("listing_id", listing.ID),
		zap.String("seller", string(listing.Seller)),
		zap.Int64("kwh", listing.Quantity),
		zap.String("total_price_wei", listing.TotalPrice.String()),
	)
	if s.store != nil {
		s.persist("save listing", s.store.SaveListing(ctx, listing))
	}
	s.invalidateStats(ctx)
	s.publish(ctx, models.EventEnergyListed, models.EnergyListedData{Listing: models.NewListingDTO(listing)})
	return listing, nil
}

// Purchase buys a listing with funds.
func (s *MarketService) Purchase(ctx context.Context, listingID uint64, buyer ledger.Account, funds *big.Int) (ledger.Transaction, error) {
	tx, err := s.ledger.Purchase(listingID, buyer, funds)
	if err != nil {
		if errors.Is(err, ledger.ErrExpired) {
			s.flushExpired(ctx)
		}
		return ledger.Transaction{}, err
	}

	s.logger.Info("energy purchased",
		zap.Uint64("listing_id", tx.ListingID),
		zap.Uint64("transaction_id", tx.ID),
		zap.String("buyer", string(tx.Buyer)),
		zap.String("seller", string(tx.Seller)),
		zap.String("gross_wei", tx.GrossPrice.String()),
		zap.String("fee_wei", tx.PlatformFee.String()),
	)
	if s.store != nil {
		s.persist("save settlement", s.saveSettlement(ctx, tx))
	}
	s.invalidateStats(ctx)
	s.publish(ctx, models.EventEnergyPurchased, models.EnergyPurchasedData{
		ListingID:   tx.ListingID,
		Buyer:       models.DisplayAccount(tx.Buyer),
		Seller:      models.DisplayAccount(tx.Seller),
		KWh:         tx.Amount,
		GrossPrice:  models.FormatEther(tx.GrossPrice),
		PlatformFee: models.FormatEther(tx.PlatformFee),
	})
	return tx, nil
}

// CancelListing withdraws caller's listing from the market.
func (s *MarketService) CancelListing(ctx context.Context, listingID uint64, caller ledger.Account) error {
	if err := s.ledger.CancelListing(listingID, caller); err != nil {
		s.flushExpired(ctx)
		return err
	}

	s.logger.Info("listing cancelled", zap.Uint64("listing_id", listingID), zap.String("seller", string(caller)))
	if s.store != nil {
		s.persist("save cancelled listing", s.saveClosedListing(ctx, listingID))
	}
	s.invalidateStats(ctx)
	s.publish(ctx, models.EventListingCancelled, models.ListingCancelledData{
		ListingID: listingID,
		Seller:    models.DisplayAccount(caller),
	})
	return nil
}

// Listing returns one listing.
func (s *MarketService) Listing(ctx context.Context, listingID uint64) (ledger.Listing, error) {
	listing, err := s.ledger.Listing(listingID)
	s.flushExpired(ctx)
	return listing, err
}

// ActiveListings returns listings open now.
func (s *MarketService) ActiveListings(ctx context.Context) []ledger.Listing {
	listings := s.ledger.ActiveListings(s.now())
	s.flushExpired(ctx)
	return listings
}

// TransactionsFor returns account's trade history, newest first.
func (s *MarketService) TransactionsFor(_ context.Context, account ledger.Account) []ledger.AccountTransaction {
	return s.ledger.TransactionsFor(account)
}

// UpdateTransactionStatus settles a pending transaction reported by the settlement layer.
func (s *MarketService) UpdateTransactionStatus(ctx context.Context, txID uint64, status ledger.TransactionStatus) (ledger.Transaction, error) {
	tx, err := s.ledger.UpdateTransactionStatus(txID, status)
	if err != nil {
		return ledger.Transaction{}, err
	}

	s.logger.Info("transaction status changed", zap.Uint64("transaction_id", tx.ID), zap.String("status", string(tx.Status)))
	if s.store != nil {
		var credits []ledger.Credit
		if tx.Status == ledger.StatusCompleted {
			credits = tx.Credits(s.ledger.FeeAccount())
		}
		s.persist("save status", s.store.SaveStatus(ctx, tx, credits))
	}
	s.invalidateStats(ctx)
	s.publish(ctx, models.EventTransactionStatusChanged, models.TransactionStatusData{
		TransactionID: tx.ID,
		ListingID:     tx.ListingID,
		Status:        string(tx.Status),
	})
	return tx, nil
}

// Balance returns account's withdrawable escrow balance.
func (s *MarketService) Balance(_ context.Context, account ledger.Account) *big.Int {
	return s.ledger.Balance(account)
}

// Deposit credits amount to account's escrow balance and returns the new balance.
func (s *MarketService) Deposit(ctx context.Context, account ledger.Account, amount *big.Int) (*big.Int, error) {
	balance, err := s.ledger.Deposit(account, amount)
	if err != nil {
		return nil, err
	}

	s.logger.Info("funds deposited", zap.String("account", string(account)), zap.String("amount_wei", amount.String()))
	if s.store != nil {
		s.persist("save deposit", s.store.SaveDeposit(ctx, account, amount))
	}
	return balance, nil
}

// Withdraw releases account's whole escrow balance.
func (s *MarketService) Withdraw(ctx context.Context, account ledger.Account) (*big.Int, error) {
	amount, err := s.ledger.Withdraw(account)
	if err != nil {
		return nil, err
	}

	s.logger.Info("funds withdrawn", zap.String("account", string(account)), zap.String("amount_wei", amount.String()))
	if s.store != nil {
		s.persist("save withdrawal", s.store.SaveWithdrawal(ctx, account, amount))
	}
	return amount, nil
}

// AccountStats summarises account's completed trades.
func (s *MarketService) AccountStats(_ context.Context, account ledger.Account) ledger.AccountStats {
	return s.ledger.Stats(account)
}

// MarketStats serves cached statistics when available.
func (s *MarketService) MarketStats(ctx context.Context) ledger.MarketStats {
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx); err == nil && cached != nil {
			return *cached
		}
	}
	return s.RefreshMarketStats(ctx)
}

// RefreshMarketStats recomputes statistics, expiring stale listings on the
// way, and stores them in the cache.
func (s *MarketService) RefreshMarketStats(ctx context.Context) ledger.MarketStats {
	stats := s.ledger.MarketStats(s.now())
	s.flushExpired(ctx)
	if s.cache != nil {
		if err := s.cache.Save(ctx, stats); err != nil {
			s.logger.Warn("failed to cache market stats", zap.Error(err))
		}
	}
	return stats
}

func (s *MarketService) saveSettlement(ctx context.Context, tx ledger.Transaction) error {
	listing, err := s.ledger.Listing(tx.ListingID)
	if err != nil {
		return err
	}
	return s.store.SaveSettlement(ctx, listing, tx, tx.Credits(s.ledger.FeeAccount()))
}

func (s *MarketService) saveClosedListing(ctx context.Context, listingID uint64) error {
	listing, err := s.ledger.Listing(listingID)
	if err != nil {
		return err
	}
	return s.store.SaveListing(ctx, listing)
}

// flushExpired writes through listings the ledger closed lazily.
func (s *MarketService) flushExpired(ctx context.Context) {
	expired := s.ledger.TakeExpired()
	if len(expired) == 0 {
		return
	}
	for _, listing := range expired {
		s.logger.Info("listing expired", zap.Uint64("listing_id", listing.ID))
		if s.store != nil {
			s.persist("save expired listing", s.store.SaveListing(ctx, listing))
		}
	}
	s.invalidateStats(ctx)
}

func (s *MarketService) invalidateStats(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("failed to invalidate market stats", zap.Error(err))
	}
}

func (s *MarketService) publish(ctx context.Context, eventType string, payload interface{}) {
	if s.publisher == nil {
		return
	}
	event, err := models.NewEvent(eventType, payload, s.now())
	if err != nil {
		s.logger.Error("failed to encode market event", zap.String("type", eventType), zap.Error(err))
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish market event", zap.String("type", eventType), zap.Error(err))
	}
}

func (s *MarketService) persist(op string, err error) {
	if err != nil {
		s.logger.Error("failed to persist market change", zap.String("op", op), zap.Error(err))
	}
}
