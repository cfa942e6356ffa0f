package models

import (
	"github.com/google/uuid"
)

// Tier is one loyalty level of a vendor program.
// VendorID uuid.Nil means the platform-wide program.
type Tier struct {
	ID        uuid.UUID
	VendorID  uuid.UUID
	Name      string
	MinPoints int64
	Perks     []string
	Active    bool
}

// TierStatus is the result of resolving a balance against a tier catalog.
type TierStatus struct {
	Current Tier

	// Next is nil when Current is the top tier
	Next *Tier

	// ProgressPct is progress towards Next in percent, 100 at the top tier
	ProgressPct int
}
