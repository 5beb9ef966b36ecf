package handlers

import (
	"context"
	"math/big"
	"net/http"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"arbigrid/backend/services/market-service/internal/ledger"
	"arbigrid/backend/services/market-service/internal/service"
)

// Market is the trading surface the handlers drive.
type Market interface {
	CreateListing(ctx context.Context, input service.CreateListingInput) (ledger.Listing, error)
	Purchase(ctx context.Context, listingID uint64, buyer ledger.Account, funds *big.Int) (ledger.Transaction, error)
	CancelListing(ctx context.Context, listingID uint64, caller ledger.Account) error
	Listing(ctx context.Context, listingID uint64) (ledger.Listing, error)
	ActiveListings(ctx context.Context) []ledger.Listing
	TransactionsFor(ctx context.Context, account ledger.Account) []ledger.AccountTransaction
	UpdateTransactionStatus(ctx context.Context, txID uint64, status ledger.TransactionStatus) (ledger.Transaction, error)
	Balance(ctx context.Context, account ledger.Account) *big.Int
	Deposit(ctx context.Context, account ledger.Account, amount *big.Int) (*big.Int, error)
	Withdraw(ctx context.Context, account ledger.Account) (*big.Int, error)
	AccountStats(ctx context.Context, account ledger.Account) ledger.AccountStats
	MarketStats(ctx context.Context) ledger.MarketStats
}

// MarketHandlers serves the trading API.
type MarketHandlers struct {
	market     Market
	validate   *validator.Validate
	settlement ledger.Account
	logger     *zap.Logger
}

// NewMarketHandlers returns handlers. settlement is the only account allowed
// to change transaction status; empty disables the endpoint.
func NewMarketHandlers(market Market, settlement ledger.Account, logger *zap.Logger) *MarketHandlers {
	return &MarketHandlers{
		market:     market,
		validate:   newValidator(),
		settlement: settlement,
		logger:     logger,
	}
}

func (h *MarketHandlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := errorStatus(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("market request failed", zap.String("path", r.URL.Path), zap.Error(err))
		writeError(w, status, "internal error")
		return
	}
	writeDomainError(w, err)
}
