package handlers

import (
	"net/http"

	"arbigrid/backend/services/market-service/internal/http/middleware"
	"arbigrid/backend/services/market-service/internal/models"
)

// BalanceMe handles GET /api/balances/me.
func (h *MarketHandlers) BalanceMe(w http.ResponseWriter, r *http.Request) {
	account, ok := middleware.AddressFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	writeData(w, http.StatusOK, models.BalanceDTO{
		Account: models.DisplayAccount(account),
		Balance: models.FormatEther(h.market.Balance(r.Context(), account)),
	})
}

type depositRequest struct {
	Amount string `json:"amount" validate:"required"`
}

// DepositMe handles POST /api/balances/me/deposit.
func (h *MarketHandlers) DepositMe(w http.ResponseWriter, r *http.Request) {
	account, ok := middleware.AddressFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req depositRequest
	if err := decodeJSON(w, r, h.validate, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	amount, err := models.ParseEther(req.Amount)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	balance, err := h.market.Deposit(r.Context(), account, amount)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, models.BalanceDTO{
		Account: models.DisplayAccount(account),
		Balance: models.FormatEther(balance),
	})
}

// WithdrawMe handles POST /api/balances/me/withdraw.
func (h *MarketHandlers) WithdrawMe(w http.ResponseWriter, r *http.Request) {
	account, ok := middleware.AddressFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	amount, err := h.market.Withdraw(r.Context(), account)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, models.WithdrawalDTO{
		Account: models.DisplayAccount(account),
		Amount:  models.FormatEther(amount),
	})
}

// StatsMe handles GET /api/stats/me.
func (h *MarketHandlers) StatsMe(w http.ResponseWriter, r *http.Request) {
	account, ok := middleware.AddressFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	writeData(w, http.StatusOK, models.NewAccountStatsDTO(account, h.market.AccountStats(r.Context(), account)))
}

// MarketStats handles GET /api/market/stats.
func (h *MarketHandlers) MarketStats(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, models.NewMarketStatsDTO(h.market.MarketStats(r.Context())))
}
