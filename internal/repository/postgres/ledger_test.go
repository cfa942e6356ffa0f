package postgres

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/marikmarie/collectovault/internal/apperrors"
	"github.com/marikmarie/collectovault/internal/models"
	"github.com/marikmarie/collectovault/internal/repository"
	"github.com/marikmarie/collectovault/internal/testutil"
)

func TestAccountsAndLedger(t *testing.T) {
	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	// Create storage over a transaction that is rolled back at test end
	// May be called several times (aka transaction in transaction)
	withStorage := func(t *testing.T, db DBTX, fn func(pgx.Tx, repository.Storage)) {
		testutil.WithTx(db, t, func(tx pgx.Tx) {
			fn(tx, NewStorage(tx))
		})
	}

	t.Run("EnsureAccount", func(t *testing.T) {
		withStorage(t, pg.Pool, func(tx pgx.Tx, s repository.Storage) {
			accountID := uuid.New()

			t.Run("creates on first call", func(t *testing.T) {
				account, err := s.Accounts().EnsureAccount(t.Context(), accountID)

				require.NoError(t, err)
				require.Equal(t, accountID, account.ID)
				require.Equal(t, int64(0), account.Balance)
				require.WithinDuration(t, time.Now(), account.CreatedAt, time.Second)
			})

			t.Run("idempotent", func(t *testing.T) {
				first, err := s.Accounts().EnsureAccount(t.Context(), accountID)
				require.NoError(t, err)

				again, err := s.Accounts().EnsureAccount(t.Context(), accountID)
				require.NoError(t, err)

				require.Equal(t, first.ID, again.ID)
				require.Equal(t, first.CreatedAt, again.CreatedAt)
			})
		})
	})

	t.Run("GetAccount unknown", func(t *testing.T) {
		withStorage(t, pg.Pool, func(tx pgx.Tx, s repository.Storage) {
			_, err := s.Accounts().GetAccount(t.Context(), uuid.New())

			require.ErrorIs(t, err, apperrors.ErrAccountNotFound)
		})
	})

	t.Run("ApplyDelta", func(t *testing.T) {
		withStorage(t, pg.Pool, func(tx pgx.Tx, s repository.Storage) {
			accountID := uuid.New()
			_, err := s.Accounts().EnsureAccount(t.Context(), accountID)
			require.NoError(t, err)

			t.Run("accumulates", func(t *testing.T) {
				withStorage(t, tx, func(tx pgx.Tx, s repository.Storage) {
					account, err := s.Accounts().ApplyDelta(t.Context(), accountID, 100)
					require.NoError(t, err)
					require.Equal(t, int64(100), account.Balance)

					account, err = s.Accounts().ApplyDelta(t.Context(), accountID, -30)
					require.NoError(t, err)
					require.Equal(t, int64(70), account.Balance)
				})
			})

			t.Run("rejects overdraft", func(t *testing.T) {
				withStorage(t, tx, func(tx pgx.Tx, s repository.Storage) {
					_, err := s.Accounts().ApplyDelta(t.Context(), accountID, -1)

					require.ErrorIs(t, err, apperrors.ErrInsufficientPoints)
				})
			})

			t.Run("unknown account", func(t *testing.T) {
				withStorage(t, tx, func(tx pgx.Tx, s repository.Storage) {
					_, err := s.Accounts().ApplyDelta(t.Context(), uuid.New(), 10)

					require.ErrorIs(t, err, apperrors.ErrAccountNotFound)
				})
			})
		})
	})

	t.Run("Append", func(t *testing.T) {
		withStorage(t, pg.Pool, func(tx pgx.Tx, s repository.Storage) {
			accountID := uuid.New()
			_, err := s.Accounts().EnsureAccount(t.Context(), accountID)
			require.NoError(t, err)

			t.Run("assigns monotonic ids", func(t *testing.T) {
				withStorage(t, tx, func(tx pgx.Tx, s repository.Storage) {
					first, err := s.Ledger().Append(t.Context(), models.LedgerEntry{
						AccountID: accountID,
						Kind:      models.EntryKindEarn,
						Delta:     100,
						Note:      "first",
					})
					require.NoError(t, err)
					require.NotZero(t, first.ID)
					require.WithinDuration(t, time.Now(), first.CreatedAt, time.Second)

					second, err := s.Ledger().Append(t.Context(), models.LedgerEntry{
						AccountID: accountID,
						Kind:      models.EntryKindRedeem,
						Delta:     -40,
					})
					require.NoError(t, err)
					require.Greater(t, second.ID, first.ID)
				})
			})

			t.Run("keeps rule reference", func(t *testing.T) {
				withStorage(t, tx, func(tx pgx.Tx, s repository.Storage) {
					rule, err := s.Rules().CreateRule(t.Context(), models.PointRule{
						VendorID: uuid.New(),
						Trigger:  models.TriggerPurchase,
						Points:   10,
						Active:   true,
					})
					require.NoError(t, err)

					entry, err := s.Ledger().Append(t.Context(), models.LedgerEntry{
						AccountID: accountID,
						Kind:      models.EntryKindPurchase,
						Delta:     10,
						RuleID:    &rule.ID,
					})
					require.NoError(t, err)
					require.NotNil(t, entry.RuleID)
					require.Equal(t, rule.ID, *entry.RuleID)
				})
			})

			t.Run("unknown account", func(t *testing.T) {
				withStorage(t, tx, func(tx pgx.Tx, s repository.Storage) {
					_, err := s.Ledger().Append(t.Context(), models.LedgerEntry{
						AccountID: uuid.New(),
						Kind:      models.EntryKindEarn,
						Delta:     10,
					})

					require.ErrorIs(t, err, apperrors.ErrAccountNotFound)
				})
			})

			t.Run("unknown kind", func(t *testing.T) {
				withStorage(t, tx, func(tx pgx.Tx, s repository.Storage) {
					_, err := s.Ledger().Append(t.Context(), models.LedgerEntry{
						AccountID: accountID,
						Kind:      "refund",
						Delta:     10,
					})

					require.ErrorIs(t, err, apperrors.ErrInvalidDelta)
				})
			})
		})
	})

	t.Run("ListForAccount", func(t *testing.T) {
		withStorage(t, pg.Pool, func(tx pgx.Tx, s repository.Storage) {
			accountID := uuid.New()
			_, err := s.Accounts().EnsureAccount(t.Context(), accountID)
			require.NoError(t, err)

			for _, e := range []struct {
				kind  string
				delta int64
			}{
				{models.EntryKindEarn, 100},
				{models.EntryKindRedeem, -40},
				{models.EntryKindAdminAward, 5},
			} {
				_, err := s.Ledger().Append(t.Context(), models.LedgerEntry{AccountID: accountID, Kind: e.kind, Delta: e.delta})
				require.NoError(t, err)
			}

			t.Run("all kinds in insertion order", func(t *testing.T) {
				entries, err := s.Ledger().ListForAccount(t.Context(), accountID, nil)

				require.NoError(t, err)
				require.Len(t, entries, 3)
				require.Less(t, entries[0].ID, entries[1].ID)
				require.Less(t, entries[1].ID, entries[2].ID)
			})

			t.Run("filtered", func(t *testing.T) {
				entries, err := s.Ledger().ListForAccount(t.Context(), accountID, []string{models.EntryKindRedeem, models.EntryKindAdminAward})

				require.NoError(t, err)
				require.Len(t, entries, 2)
			})

			t.Run("sum", func(t *testing.T) {
				sum, err := s.Ledger().SumForAccount(t.Context(), accountID)

				require.NoError(t, err)
				require.Equal(t, int64(65), sum)
			})
		})
	})

	t.Run("lock wait fails as retryable", func(t *testing.T) {
		// Two real connections race for one account row, so this test works
		// on the pool directly and cleans up after itself
		accountID := uuid.New()
		fast := NewStorageLockTimeout(pg.Pool, 100*time.Millisecond)

		_, err := fast.Accounts().EnsureAccount(t.Context(), accountID)
		require.NoError(t, err)
		t.Cleanup(func() {
			_, err := pg.Pool.Exec(t.Context(), "DELETE FROM accounts WHERE id = $1", accountID)
			require.NoError(t, err)
		})

		locked := make(chan struct{})
		release := make(chan struct{})
		done := make(chan error, 1)

		go func() {
			done <- fast.InTx(t.Context(), func(s repository.Storage) error {
				_, err := s.Accounts().LockAccount(t.Context(), accountID)
				close(locked)
				<-release
				return err
			})
		}()

		<-locked
		err = fast.InTx(t.Context(), func(s repository.Storage) error {
			_, err := s.Accounts().LockAccount(t.Context(), accountID)
			return err
		})
		close(release)

		require.ErrorIs(t, err, apperrors.ErrConcurrencyTimeout)
		require.NoError(t, <-done, "the lock holder must stay unaffected")
	})
}
