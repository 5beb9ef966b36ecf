package models

import (
	"encoding/json"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arbigrid/backend/services/market-service/internal/ledger"
)

func TestParseEther(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{in: "0.05", want: "50000000000000000"},
		{in: "1", want: "1000000000000000000"},
		{in: "0.000000000000000001", want: "1"},
		{in: "2.500000000000000000000", want: "2500000000000000000"},
		{in: " 0 ", want: "0"},
	}
	for _, tc := range cases {
		got, err := ParseEther(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got.String(), tc.in)
	}
}

func TestParseEtherRejects(t *testing.T) {
	for _, in := range []string{"", "abc", "-1", "0.0000000000000000001", "1e-19"} {
		_, err := ParseEther(in)
		assert.ErrorIs(t, err, ErrInvalidAmount, in)
	}
}

func TestFormatEther(t *testing.T) {
	v, _ := new(big.Int).SetString("4875000000000000000", 10)
	assert.Equal(t, "4.875", FormatEther(v))
	assert.Equal(t, "0", FormatEther(nil))
	assert.Equal(t, "0.000000000000000001", FormatEther(big.NewInt(1)))
}

func TestNewListingDTO(t *testing.T) {
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	l := ledger.Listing{
		ID:         7,
		Seller:     "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed",
		Quantity:   100,
		UnitPrice:  big.NewInt(50_000_000_000_000_000),
		TotalPrice: big.NewInt(5_000_000_000_000_000_000),
		Duration:   time.Hour,
		CreatedAt:  created,
		Active:     true,
		State:      ledger.ListingActive,
	}

	dto := NewListingDTO(l)
	assert.Equal(t, "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", dto.Seller)
	assert.Equal(t, "0.05", dto.PricePerKWh)
	assert.Equal(t, "5", dto.TotalPrice)
	assert.Equal(t, int64(3600), dto.Duration)
	assert.Equal(t, created.Add(time.Hour), dto.ExpiresAt)
	assert.Equal(t, created.Unix(), dto.Timestamp)
}

func TestNewEvent(t *testing.T) {
	ev, err := NewEvent(EventListingCancelled, ListingCancelledData{ListingID: 3, Seller: "x"}, time.Unix(10, 0))
	require.NoError(t, err)

	raw, err := json.Marshal(ev)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"ListingCancelled","data":{"listingId":3,"seller":"x"},"occurredAt":"1970-01-01T00:00:10Z"}`, string(raw))
}

func TestDisplayKeepsNonWalletAccounts(t *testing.T) {
	assert.Equal(t, "platform", DisplayAccount(ledger.DefaultFeeAccount))
}
