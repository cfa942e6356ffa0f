package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	FulfillmentPending = "pending"
	FulfillmentSettled = "settled"
)

// Fulfillment records what a vendor owes a customer after a redemption.
// Points redemptions are settled immediately; currency redemptions stay
// pending until the payment collaborator confirms settlement.
type Fulfillment struct {
	ID        uuid.UUID
	CreatedAt time.Time
	AccountID uuid.UUID
	RewardID  uuid.UUID
	Method    string
	Status    string

	// Amount is the confirmed currency amount, nil for points redemptions
	Amount    *decimal.Decimal
	SettledAt *time.Time
}
