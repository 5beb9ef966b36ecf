package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"arbigrid/backend/services/market-service/internal/http/handlers"
)

// RouterDeps collects handler dependencies.
type RouterDeps struct {
	Market         *handlers.MarketHandlers
	MarketFeed     http.HandlerFunc
	HealthHandler  http.HandlerFunc
	AuthMiddleware func(http.Handler) http.Handler
}

// NewRouter wires HTTP routes.
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusMethodNotAllowed)
	})

	r.Get("/health", deps.HealthHandler)
	if deps.MarketFeed != nil {
		r.Get("/ws/market", deps.MarketFeed)
	}

	m := deps.Market
	r.Route("/api", func(r chi.Router) {
		r.Get("/orders", m.ListOrders)
		r.Get("/orders/{id}", m.GetOrder)
		r.Get("/transactions", m.ListTransactions)
		r.Get("/market/stats", m.MarketStats)

		r.Group(func(r chi.Router) {
			r.Use(deps.AuthMiddleware)
			r.Post("/orders", m.CreateOrder)
			r.Post("/orders/{id}/purchase", m.PurchaseOrder)
			r.Post("/orders/{id}/cancel", m.CancelOrder)
			r.Patch("/transactions/{id}/status", m.UpdateTransactionStatus)
			r.Get("/balances/me", m.BalanceMe)
			r.Post("/balances/me/deposit", m.DepositMe)
			r.Post("/balances/me/withdraw", m.WithdrawMe)
			r.Get("/stats/me", m.StatsMe)
		})
	})
	return r
}
