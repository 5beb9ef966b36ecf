package handlers

import (
	"net/http"

	"arbigrid/backend/services/market-service/internal/address"
	"arbigrid/backend/services/market-service/internal/http/middleware"
	"arbigrid/backend/services/market-service/internal/ledger"
	"arbigrid/backend/services/market-service/internal/models"
)

type statusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending completed failed"`
}

// ListTransactions handles GET /api/transactions?address=0x...
// Addresses match case-insensitively.
func (h *MarketHandlers) ListTransactions(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("address")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "address query parameter is required")
		return
	}
	account, err := address.Normalize(raw)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	txs := h.market.TransactionsFor(r.Context(), ledger.Account(account))
	writeData(w, http.StatusOK, models.NewTransactionDTOs(txs))
}

// UpdateTransactionStatus handles PATCH /api/transactions/{id}/status. Only
// the settlement account may call it.
func (h *MarketHandlers) UpdateTransactionStatus(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.AddressFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if h.settlement == "" || caller != h.settlement {
		writeError(w, http.StatusForbidden, "caller is not the settlement account")
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req statusRequest
	if err := decodeJSON(w, r, h.validate, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	tx, err := h.market.UpdateTransactionStatus(r.Context(), id, ledger.TransactionStatus(req.Status))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, models.NewSettlementDTO(tx))
}
