package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	TriggerPurchase     = "purchase"
	TriggerRegistration = "registration"
	TriggerBirthday     = "birthday"
	TriggerReferral     = "referral"
	TriggerManual       = "manual"
	TriggerEvent        = "event"
)

// PointRule is a vendor-configured policy for awarding points on an event.
type PointRule struct {
	ID       uuid.UUID
	VendorID uuid.UUID
	Trigger  string

	// Points is the base award, scaled by Multiplier when set
	Points     int64
	Multiplier *decimal.Decimal

	// Per-transaction and per-day award caps, unlimited when nil
	MaxPerTransaction *int64
	MaxPerDay         *int64

	Active  bool
	StartAt *time.Time
	EndAt   *time.Time
}

// ApplicableAt reports whether the rule may award points at the given moment.
func (r PointRule) ApplicableAt(now time.Time) bool {
	if !r.Active {
		return false
	}
	if r.StartAt != nil && now.Before(*r.StartAt) {
		return false
	}
	if r.EndAt != nil && now.After(*r.EndAt) {
		return false
	}
	return true
}
