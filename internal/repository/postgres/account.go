package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/marikmarie/collectovault/internal/apperrors"
	"github.com/marikmarie/collectovault/internal/models"
)

type AccountRepo struct {
	DB DBTX
}

const getAccount = `-- name: GetAccount
SELECT id, created_at, balance, archived FROM accounts
WHERE id = $1
`

func (r *AccountRepo) GetAccount(ctx context.Context, accountID uuid.UUID) (models.Account, error) {
	rows, _ := r.DB.Query(ctx, getAccount, accountID)
	account, err := pgx.CollectOneRow(rows, rowToAccount)

	switch {
	case err == nil:
		return account, nil
	case errors.Is(err, pgx.ErrNoRows):
		return account, apperrors.ErrAccountNotFound
	default:
		return account, fmt.Errorf("db error: %w", err)
	}
}

// Insert account if absent, return the stored row either way
const ensureAccount = `-- name: EnsureAccount
WITH insert_account AS (
	INSERT INTO accounts (id)
	VALUES ($1)
	ON CONFLICT (id) DO NOTHING
	RETURNING id, created_at, balance, archived
)
SELECT id, created_at, balance, archived FROM insert_account
UNION
SELECT id, created_at, balance, archived FROM accounts WHERE id = $1
`

func (r *AccountRepo) EnsureAccount(ctx context.Context, accountID uuid.UUID) (models.Account, error) {
	rows, _ := r.DB.Query(ctx, ensureAccount, accountID)
	account, err := pgx.CollectOneRow(rows, rowToAccount)
	if err != nil {
		return account, fmt.Errorf("db error: %w", err)
	}

	return account, nil
}

// The no-op conflict update takes the row lock for the transaction: that is
// the per-account critical section redemptions rely on
const lockAccount = `-- name: LockAccount
INSERT INTO accounts (id)
VALUES ($1)
ON CONFLICT (id) DO UPDATE SET id = excluded.id
RETURNING id, created_at, balance, archived
`

func (r *AccountRepo) LockAccount(ctx context.Context, accountID uuid.UUID) (models.Account, error) {
	rows, _ := r.DB.Query(ctx, lockAccount, accountID)
	account, err := pgx.CollectOneRow(rows, rowToAccount)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.LockNotAvailable {
			return account, apperrors.ErrConcurrencyTimeout
		}

		return account, fmt.Errorf("db error: %w", err)
	}

	return account, nil
}

const applyDelta = `-- name: ApplyDelta
UPDATE accounts
SET balance = balance + $2
WHERE id = $1
RETURNING id, created_at, balance, archived
`

func (r *AccountRepo) ApplyDelta(ctx context.Context, accountID uuid.UUID, delta int64) (models.Account, error) {
	rows, _ := r.DB.Query(ctx, applyDelta, accountID, delta)
	account, err := pgx.CollectOneRow(rows, rowToAccount)

	switch {
	case err == nil:
		return account, nil
	case errors.Is(err, pgx.ErrNoRows):
		return account, apperrors.ErrAccountNotFound
	default:
		// the non-negative balance constraint backs up the service-level check
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.CheckViolation {
			return account, apperrors.ErrInsufficientPoints
		}

		return account, fmt.Errorf("db error: %w", err)
	}
}

const setBalance = `-- name: SetBalance
UPDATE accounts
SET balance = $2
WHERE id = $1
RETURNING id, created_at, balance, archived
`

func (r *AccountRepo) SetBalance(ctx context.Context, accountID uuid.UUID, balance int64) (models.Account, error) {
	rows, _ := r.DB.Query(ctx, setBalance, accountID, balance)
	account, err := pgx.CollectOneRow(rows, rowToAccount)

	switch {
	case err == nil:
		return account, nil
	case errors.Is(err, pgx.ErrNoRows):
		return account, apperrors.ErrAccountNotFound
	default:
		return account, fmt.Errorf("db error: %w", err)
	}
}

const archiveAccount = `-- name: ArchiveAccount
UPDATE accounts
SET archived = true
WHERE id = $1
`

func (r *AccountRepo) Archive(ctx context.Context, accountID uuid.UUID) error {
	tag, err := r.DB.Exec(ctx, archiveAccount, accountID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return apperrors.ErrAccountNotFound
	}

	return nil
}

func rowToAccount(row pgx.CollectableRow) (models.Account, error) {
	var a models.Account
	err := row.Scan(&a.ID, &a.CreatedAt, &a.Balance, &a.Archived)
	return a, err
}
