package middleware

import (
	"context"
	"net/http"
	"strings"

	"arbigrid/backend/services/market-service/internal/auth"
	"arbigrid/backend/services/market-service/internal/ledger"
)

// AuthMiddleware validates bearer tokens and stores the caller's wallet address.
func AuthMiddleware(tokens *auth.TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeError(w, http.StatusUnauthorized, "missing authorization header")
				return
			}
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				writeError(w, http.StatusUnauthorized, "invalid authorization header")
				return
			}

			claims, err := tokens.ValidateToken(strings.TrimSpace(parts[1]))
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			ctx := context.WithValue(r.Context(), addressKey, ledger.Account(claims.Address))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AddressFromContext returns the authenticated wallet address.
func AddressFromContext(ctx context.Context) (ledger.Account, bool) {
	account, ok := ctx.Value(addressKey).(ledger.Account)
	return account, ok && account != ""
}
