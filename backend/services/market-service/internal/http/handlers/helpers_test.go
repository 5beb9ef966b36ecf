package handlers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"arbigrid/backend/services/market-service/internal/address"
	"arbigrid/backend/services/market-service/internal/ledger"
	"arbigrid/backend/services/market-service/internal/models"
)

func TestErrorStatus(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{badRequest("x"), http.StatusBadRequest},
		{address.ErrInvalid, http.StatusBadRequest},
		{models.ErrInvalidAmount, http.StatusBadRequest},
		{ledger.ErrInvalidQuantity, http.StatusUnprocessableEntity},
		{ledger.ErrInvalidPrice, http.StatusUnprocessableEntity},
		{ledger.ErrInvalidDuration, http.StatusUnprocessableEntity},
		{ledger.ErrOverflow, http.StatusUnprocessableEntity},
		{ledger.ErrInvalidTransition, http.StatusUnprocessableEntity},
		{ledger.ErrInvalidAmount, http.StatusUnprocessableEntity},
		{ledger.ErrNotFound, http.StatusNotFound},
		{ledger.ErrAlreadySettled, http.StatusConflict},
		{ledger.ErrExpired, http.StatusConflict},
		{ledger.ErrSelfTrade, http.StatusConflict},
		{ledger.ErrNothingToWithdraw, http.StatusConflict},
		{ledger.ErrInsufficientFunds, http.StatusPaymentRequired},
		{ledger.ErrUnauthorized, http.StatusForbidden},
		{fmt.Errorf("purchase: %w", ledger.ErrExpired), http.StatusConflict},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.status, errorStatus(tc.err), tc.err.Error())
	}
}

func TestValidationMessageUsesJSONNames(t *testing.T) {
	v := newValidator()
	err := v.Struct(&createOrderRequest{PricePerKWh: "1"})
	assert.Contains(t, validationMessage(err), "kwh")
	assert.Contains(t, validationMessage(err), "duration")
}
