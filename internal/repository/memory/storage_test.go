package memory

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/marikmarie/collectovault/internal/apperrors"
	"github.com/marikmarie/collectovault/internal/models"
	"github.com/marikmarie/collectovault/internal/repository"
)

func TestInTx(t *testing.T) {
	ctx := t.Context()

	t.Run("commits on success", func(t *testing.T) {
		s := NewStorage()
		accountID := uuid.New()

		err := s.InTx(ctx, func(tx repository.Storage) error {
			_, err := tx.Accounts().EnsureAccount(ctx, accountID)
			if err != nil {
				return err
			}
			_, err = tx.Accounts().ApplyDelta(ctx, accountID, 10)
			return err
		})

		require.NoError(t, err)

		account, err := s.Accounts().GetAccount(ctx, accountID)
		require.NoError(t, err)
		require.Equal(t, int64(10), account.Balance)
	})

	t.Run("rolls back on error", func(t *testing.T) {
		s := NewStorage()
		accountID := uuid.New()

		_, err := s.Accounts().EnsureAccount(ctx, accountID)
		require.NoError(t, err)

		err = s.InTx(ctx, func(tx repository.Storage) error {
			if _, err := tx.Accounts().ApplyDelta(ctx, accountID, 10); err != nil {
				return err
			}
			if _, err := tx.Ledger().Append(ctx, models.LedgerEntry{AccountID: accountID, Kind: models.EntryKindEarn, Delta: 10}); err != nil {
				return err
			}
			return fmt.Errorf("something broke late in the transaction")
		})
		require.Error(t, err)

		account, err := s.Accounts().GetAccount(ctx, accountID)
		require.NoError(t, err)
		require.Equal(t, int64(0), account.Balance, "rolled back delta must not stick")

		entries, err := s.Ledger().ListForAccount(ctx, accountID, nil)
		require.NoError(t, err)
		require.Empty(t, entries, "rolled back entries must not stick")
	})

	t.Run("nested transaction joins the outer one", func(t *testing.T) {
		s := NewStorage()
		accountID := uuid.New()

		err := s.InTx(ctx, func(tx repository.Storage) error {
			return tx.InTx(ctx, func(inner repository.Storage) error {
				_, err := inner.Accounts().EnsureAccount(ctx, accountID)
				return err
			})
		})

		require.NoError(t, err)

		_, err = s.Accounts().GetAccount(ctx, accountID)
		require.NoError(t, err)
	})

	t.Run("waiting for a busy storage times out", func(t *testing.T) {
		s := NewStorageLockTimeout(50 * time.Millisecond)

		release := make(chan struct{})
		holding := make(chan struct{})
		go func() {
			_ = s.InTx(ctx, func(tx repository.Storage) error {
				close(holding)
				<-release
				return nil
			})
		}()
		<-holding
		defer close(release)

		err := s.InTx(ctx, func(tx repository.Storage) error { return nil })

		require.ErrorIs(t, err, apperrors.ErrConcurrencyTimeout)
	})
}
