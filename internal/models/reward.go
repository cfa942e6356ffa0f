package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	RewardAvailable  = "available"
	RewardSoldOut    = "soldout"
	RewardComingSoon = "coming_soon"
)

// Reward is a catalog item customers may redeem points or currency for.
// At least one of PointsPrice and CurrencyPrice must be set.
type Reward struct {
	ID            uuid.UUID
	VendorID      uuid.UUID
	Title         string
	PointsPrice   *int64
	CurrencyPrice *decimal.Decimal
	Availability  string
}

const (
	RedeemMethodPoints   = "points"
	RedeemMethodCurrency = "currency"
)

// RedemptionResult is returned on a successful redemption.
type RedemptionResult struct {
	// Entry is the redeem ledger entry, nil for currency redemptions
	// (currency purchases do not consume points)
	Entry       *LedgerEntry
	Balance     int64
	Fulfillment Fulfillment
}
