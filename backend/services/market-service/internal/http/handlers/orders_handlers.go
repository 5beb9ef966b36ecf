package handlers

import (
	"math"
	"net/http"
	"time"

	"arbigrid/backend/services/market-service/internal/http/middleware"
	"arbigrid/backend/services/market-service/internal/models"
	"arbigrid/backend/services/market-service/internal/service"
)

const maxDurationSeconds = math.MaxInt64 / int64(time.Second)

// Numeric fields are pointers so that only a missing field is rejected here;
// zero and negative values reach the ledger's own checks.
type createOrderRequest struct {
	KWh         *int64 `json:"kwh" validate:"required"`
	PricePerKWh string `json:"pricePerKwh" validate:"required"`
	// Duration in seconds.
	Duration *int64 `json:"duration" validate:"required"`
}

type purchaseRequest struct {
	Funds string `json:"funds" validate:"required"`
}

// ListOrders handles GET /api/orders.
func (h *MarketHandlers) ListOrders(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, models.NewListingDTOs(h.market.ActiveListings(r.Context())))
}

// GetOrder handles GET /api/orders/{id}.
func (h *MarketHandlers) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	listing, err := h.market.Listing(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, models.NewListingDTO(listing))
}

// CreateOrder handles POST /api/orders for the authenticated seller.
func (h *MarketHandlers) CreateOrder(w http.ResponseWriter, r *http.Request) {
	seller, ok := middleware.AddressFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req createOrderRequest
	if err := decodeJSON(w, r, h.validate, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	price, err := models.ParseEther(req.PricePerKWh)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	seconds := *req.Duration
	if seconds > maxDurationSeconds {
		h.fail(w, r, badRequest("duration too large"))
		return
	}
	if seconds < 0 {
		seconds = 0
	}

	listing, err := h.market.CreateListing(r.Context(), service.CreateListingInput{
		Seller:    seller,
		KWh:       *req.KWh,
		UnitPrice: price,
		Duration:  time.Duration(seconds) * time.Second,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, models.NewListingDTO(listing))
}

// PurchaseOrder handles POST /api/orders/{id}/purchase for the authenticated buyer.
func (h *MarketHandlers) PurchaseOrder(w http.ResponseWriter, r *http.Request) {
	buyer, ok := middleware.AddressFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req purchaseRequest
	if err := decodeJSON(w, r, h.validate, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	funds, err := models.ParseEther(req.Funds)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	tx, err := h.market.Purchase(r.Context(), id, buyer, funds)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, models.NewSettlementDTO(tx))
}

// CancelOrder handles POST /api/orders/{id}/cancel for the listing's seller.
func (h *MarketHandlers) CancelOrder(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.AddressFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.market.CancelListing(r.Context(), id, caller); err != nil {
		h.fail(w, r, err)
		return
	}
	listing, err := h.market.Listing(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, models.NewListingDTO(listing))
}
