// Package ledger owns the append-only point ledger and the balance snapshot.
//
// Every point movement in the system goes through Apply: the entry and the
// snapshot update commit in one transaction, so an acknowledged append is
// durable and the snapshot never lags behind it.
package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/marikmarie/collectovault/internal/apperrors"
	"github.com/marikmarie/collectovault/internal/models"
	"github.com/marikmarie/collectovault/internal/repository"
)

type LedgerService struct {
	storage repository.Storage
}

func NewService(storage repository.Storage) *LedgerService {
	return &LedgerService{storage: storage}
}

// Apply validates the entry, appends it and moves the balance snapshot in
// lockstep, all within the given storage. Callers that need more work in the
// same transaction (redemptions, rule awards) call this inside their own InTx.
func Apply(ctx context.Context, s repository.Storage, entry models.LedgerEntry) (models.LedgerEntry, models.Account, error) {
	var account models.Account

	if !models.DeltaSignValid(entry.Kind, entry.Delta) {
		return entry, account, apperrors.ErrInvalidDelta
	}

	// accounts come to life on their first event
	_, err := s.Accounts().EnsureAccount(ctx, entry.AccountID)
	if err != nil {
		return entry, account, fmt.Errorf("can't ensure account. Err: %w", err)
	}

	entry, err = s.Ledger().Append(ctx, entry)
	if err != nil {
		return entry, account, fmt.Errorf("can't append ledger entry. Err: %w", err)
	}

	account, err = s.Accounts().ApplyDelta(ctx, entry.AccountID, entry.Delta)
	if err != nil {
		return entry, account, err
	}

	return entry, account, nil
}

// Append records a single point event and returns the entry with the
// account state after it
func (s *LedgerService) Append(ctx context.Context, accountID uuid.UUID, kind string, delta int64, note string) (models.LedgerEntry, models.Account, error) {
	var (
		entry   models.LedgerEntry
		account models.Account
	)

	err := s.storage.InTx(ctx, func(tx repository.Storage) error {
		var err error
		entry, account, err = Apply(ctx, tx, models.LedgerEntry{
			AccountID: accountID,
			Kind:      kind,
			Delta:     delta,
			Note:      note,
		})
		return err
	})

	return entry, account, err
}

// Balance returns the account's snapshot balance.
// Unknown accounts have balance 0, they simply earned nothing yet.
func (s *LedgerService) Balance(ctx context.Context, accountID uuid.UUID) (int64, error) {
	account, err := s.storage.Accounts().GetAccount(ctx, accountID)

	switch {
	case err == nil:
		return account.Balance, nil
	case errors.Is(err, apperrors.ErrAccountNotFound):
		return 0, nil
	default:
		return 0, fmt.Errorf("can't get account. Err: %w", err)
	}
}

// History returns the account's ledger entries in insertion order,
// optionally narrowed to the given kinds
func (s *LedgerService) History(ctx context.Context, accountID uuid.UUID, kinds []string) ([]models.LedgerEntry, error) {
	return s.storage.Ledger().ListForAccount(ctx, accountID, kinds)
}

// Rebuild replays the account's ledger into the snapshot and returns the
// repaired account. The ledger is the source of truth, the snapshot only a
// cache, so this is always safe to run.
func (s *LedgerService) Rebuild(ctx context.Context, accountID uuid.UUID) (models.Account, error) {
	var account models.Account

	err := s.storage.InTx(ctx, func(tx repository.Storage) error {
		_, err := tx.Accounts().LockAccount(ctx, accountID)
		if err != nil {
			return err
		}

		sum, err := tx.Ledger().SumForAccount(ctx, accountID)
		if err != nil {
			return err
		}

		account, err = tx.Accounts().SetBalance(ctx, accountID, sum)
		return err
	})

	return account, err
}
