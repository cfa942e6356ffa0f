// Package memory implements repository.Storage in process memory.
//
// It exists as a test double: service and handler tests run against it
// without a database. It must never back a production deployment, the
// ledger would not survive a restart.
package memory

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/marikmarie/collectovault/internal/apperrors"
	"github.com/marikmarie/collectovault/internal/models"
	"github.com/marikmarie/collectovault/internal/repository"
)

const DefaultLockTimeout = 2 * time.Second

type data struct {
	mu sync.Mutex

	accounts     map[uuid.UUID]models.Account
	entries      []models.LedgerEntry
	nextEntryID  int64
	tiers        map[uuid.UUID]models.Tier
	rewards      map[uuid.UUID]models.Reward
	rules        map[uuid.UUID]models.PointRule
	fulfillments map[uuid.UUID]models.Fulfillment
}

func (d *data) snapshot() *data {
	return &data{
		accounts:     maps.Clone(d.accounts),
		entries:      slices.Clone(d.entries),
		nextEntryID:  d.nextEntryID,
		tiers:        maps.Clone(d.tiers),
		rewards:      maps.Clone(d.rewards),
		rules:        maps.Clone(d.rules),
		fulfillments: maps.Clone(d.fulfillments),
	}
}

func (d *data) restore(snap *data) {
	d.accounts = snap.accounts
	d.entries = snap.entries
	d.nextEntryID = snap.nextEntryID
	d.tiers = snap.tiers
	d.rewards = snap.rewards
	d.rules = snap.rules
	d.fulfillments = snap.fulfillments
}

type Storage struct {
	data        *data
	txLock      chan struct{}
	lockTimeout time.Duration
	inTx        bool
}

func NewStorage() *Storage {
	return NewStorageLockTimeout(DefaultLockTimeout)
}

func NewStorageLockTimeout(lockTimeout time.Duration) *Storage {
	if lockTimeout <= 0 {
		lockTimeout = DefaultLockTimeout
	}

	return &Storage{
		data: &data{
			accounts:     make(map[uuid.UUID]models.Account),
			nextEntryID:  1,
			tiers:        make(map[uuid.UUID]models.Tier),
			rewards:      make(map[uuid.UUID]models.Reward),
			rules:        make(map[uuid.UUID]models.PointRule),
			fulfillments: make(map[uuid.UUID]models.Fulfillment),
		},
		txLock:      make(chan struct{}, 1),
		lockTimeout: lockTimeout,
	}
}

func (s *Storage) Ledger() repository.LedgerRepo {
	return &LedgerRepo{data: s.data}
}

func (s *Storage) Accounts() repository.AccountRepo {
	return &AccountRepo{data: s.data}
}

func (s *Storage) Tiers() repository.TierRepo {
	return &TierRepo{data: s.data}
}

func (s *Storage) Rewards() repository.RewardRepo {
	return &RewardRepo{data: s.data}
}

func (s *Storage) Rules() repository.RuleRepo {
	return &RuleRepo{data: s.data}
}

func (s *Storage) Fulfillments() repository.FulfillmentRepo {
	return &FulfillmentRepo{data: s.data}
}

// InTx serializes transactions behind one lock: there is a single logical
// writer, matching the per-account discipline the postgres storage gets from
// row locks. Waiting longer than the lock timeout fails with
// apperrors.ErrConcurrencyTimeout, like a lock_timeout would.
func (s *Storage) InTx(ctx context.Context, fn func(repository.Storage) error) error {
	if s.inTx {
		// nested transaction, behave like a savepoint
		return s.run(fn)
	}

	select {
	case s.txLock <- struct{}{}:
	case <-time.After(s.lockTimeout):
		return apperrors.ErrConcurrencyTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-s.txLock }()

	return s.run(fn)
}

func (s *Storage) run(fn func(repository.Storage) error) error {
	s.data.mu.Lock()
	snap := s.data.snapshot()
	s.data.mu.Unlock()

	err := fn(&Storage{
		data:        s.data,
		txLock:      s.txLock,
		lockTimeout: s.lockTimeout,
		inTx:        true,
	})
	if err != nil {
		s.data.mu.Lock()
		s.data.restore(snap)
		s.data.mu.Unlock()
		return err
	}

	return nil
}
