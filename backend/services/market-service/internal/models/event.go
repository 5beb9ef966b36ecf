package models

import (
	"encoding/json"
	"time"
)

// Market event types, named after the settlement contract's events where one exists.
const (
	EventEnergyListed             = "EnergyListed"
	EventEnergyPurchased          = "EnergyPurchased"
	EventListingCancelled         = "ListingCancelled"
	EventTransactionStatusChanged = "TransactionStatusChanged"
)

// Event is a market notification relayed to websocket subscribers.
type Event struct {
	Type       string          `json:"type"`
	Data       json.RawMessage `json:"data"`
	OccurredAt time.Time       `json:"occurredAt"`
}

// NewEvent encodes payload into an event of the given type.
func NewEvent(eventType string, payload interface{}, at time.Time) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{Type: eventType, Data: data, OccurredAt: at.UTC()}, nil
}

// EnergyListedData is the payload of EventEnergyListed.
type EnergyListedData struct {
	Listing ListingDTO `json:"listing"`
}

// EnergyPurchasedData is the payload of EventEnergyPurchased.
type EnergyPurchasedData struct {
	ListingID   uint64 `json:"listingId"`
	Buyer       string `json:"buyer"`
	Seller      string `json:"seller"`
	KWh         int64  `json:"kwh"`
	GrossPrice  string `json:"grossPrice"`
	PlatformFee string `json:"platformFee"`
}

// ListingCancelledData is the payload of EventListingCancelled.
type ListingCancelledData struct {
	ListingID uint64 `json:"listingId"`
	Seller    string `json:"seller"`
}

// TransactionStatusData is the payload of EventTransactionStatusChanged.
type TransactionStatusData struct {
	TransactionID uint64 `json:"transactionId"`
	ListingID     uint64 `json:"listingId"`
	Status        string `json:"status"`
}
