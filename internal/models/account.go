package models

import (
	"time"

	"github.com/google/uuid"
)

// Account is the materialized balance snapshot for one loyalty account.
// The ledger is the source of truth; Balance always equals the sum of the
// account's ledger deltas and is updated in the same transaction as the append.
type Account struct {
	ID        uuid.UUID
	CreatedAt time.Time
	Balance   int64
	Archived  bool
}
