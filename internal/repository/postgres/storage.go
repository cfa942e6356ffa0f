package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/marikmarie/collectovault/internal/repository"
)

// DefaultLockTimeout bounds how long a transaction may wait for an account
// row lock before the operation fails as retryable
const DefaultLockTimeout = 2 * time.Second

type Storage struct {
	db          DBTX
	lockTimeout time.Duration
}

func NewStorage(db DBTX) repository.Storage {
	return NewStorageLockTimeout(db, DefaultLockTimeout)
}

func NewStorageLockTimeout(db DBTX, lockTimeout time.Duration) repository.Storage {
	if lockTimeout <= 0 {
		lockTimeout = DefaultLockTimeout
	}

	return &Storage{db: db, lockTimeout: lockTimeout}
}

func (s *Storage) Ledger() repository.LedgerRepo {
	return &LedgerRepo{DB: s.db}
}

func (s *Storage) Accounts() repository.AccountRepo {
	return &AccountRepo{DB: s.db}
}

func (s *Storage) Tiers() repository.TierRepo {
	return &TierRepo{DB: s.db}
}

func (s *Storage) Rewards() repository.RewardRepo {
	return &RewardRepo{DB: s.db}
}

func (s *Storage) Rules() repository.RuleRepo {
	return &RuleRepo{DB: s.db}
}

func (s *Storage) Fulfillments() repository.FulfillmentRepo {
	return &FulfillmentRepo{DB: s.db}
}

func (s *Storage) InTx(ctx context.Context, fn func(repository.Storage) error) (err error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("db tx error: %w", err)
	}

	defer func() {
		switch err {
		case nil:
			err = tx.Commit(ctx)
		default:
			_ = tx.Rollback(ctx)
		}
	}()

	// Bound row lock waits inside the transaction. lock_timeout does not
	// accept bind parameters, the interval is formatted in.
	_, err = tx.Exec(ctx, fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", s.lockTimeout.Milliseconds()))
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	err = fn(NewStorageLockTimeout(tx, s.lockTimeout))

	return err
}
