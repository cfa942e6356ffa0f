package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	EntryKindEarn       = "earn"
	EntryKindRedeem     = "redeem"
	EntryKindAdminAward = "adminAward"
	EntryKindPurchase   = "purchase"
)

// LedgerEntry is one append-only point event. Entries are never edited;
// corrections are made with compensating entries.
type LedgerEntry struct {
	ID        int64
	CreatedAt time.Time
	AccountID uuid.UUID
	Kind      string
	Delta     int64
	Note      string

	// RuleID is set for entries produced by a point rule, nil otherwise
	RuleID *uuid.UUID
}

// KnownEntryKind reports whether kind is one of the ledger entry kinds
func KnownEntryKind(kind string) bool {
	switch kind {
	case EntryKindEarn, EntryKindRedeem, EntryKindAdminAward, EntryKindPurchase:
		return true
	default:
		return false
	}
}

// DeltaSignValid reports whether the delta sign is allowed for the kind.
// Earning kinds must not be negative, redeem must not be positive.
// Zero is allowed everywhere: a truncated-to-zero award is still auditable.
func DeltaSignValid(kind string, delta int64) bool {
	switch kind {
	case EntryKindEarn, EntryKindAdminAward, EntryKindPurchase:
		return delta >= 0
	case EntryKindRedeem:
		return delta <= 0
	default:
		return false
	}
}
