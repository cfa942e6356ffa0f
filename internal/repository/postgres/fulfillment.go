package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/marikmarie/collectovault/internal/apperrors"
	"github.com/marikmarie/collectovault/internal/models"
)

type FulfillmentRepo struct {
	DB DBTX
}

const createFulfillment = `-- name: CreateFulfillment
INSERT INTO fulfillments (id, account_id, reward_id, method, status, amount, settled_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, created_at, account_id, reward_id, method, status, amount, settled_at
`

func (r *FulfillmentRepo) CreateFulfillment(ctx context.Context, f models.Fulfillment) (models.Fulfillment, error) {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}

	rows, _ := r.DB.Query(ctx, createFulfillment, f.ID, f.AccountID, f.RewardID, f.Method, f.Status, f.Amount, f.SettledAt)
	f, err := pgx.CollectOneRow(rows, rowToFulfillment)
	if err != nil {
		return f, fmt.Errorf("db error: %w", err)
	}

	return f, nil
}

const getPendingFulfillment = `-- name: GetPendingFulfillment
SELECT id, created_at, account_id, reward_id, method, status, amount, settled_at FROM fulfillments
WHERE account_id = $1
	AND reward_id = $2
	AND status = 'pending'
ORDER BY created_at
LIMIT 1
`

func (r *FulfillmentRepo) GetPending(ctx context.Context, accountID uuid.UUID, rewardID uuid.UUID) (models.Fulfillment, error) {
	rows, _ := r.DB.Query(ctx, getPendingFulfillment, accountID, rewardID)
	f, err := pgx.CollectOneRow(rows, rowToFulfillment)

	switch {
	case err == nil:
		return f, nil
	case errors.Is(err, pgx.ErrNoRows):
		return f, apperrors.ErrFulfillmentNotFound
	default:
		return f, fmt.Errorf("db error: %w", err)
	}
}

// Settle only pending rows so a repeated settlement callback can not
// overwrite the recorded amount
const markSettled = `-- name: MarkSettled
UPDATE fulfillments
SET status = 'settled', amount = $2, settled_at = $3
WHERE id = $1
	AND status = 'pending'
RETURNING id, created_at, account_id, reward_id, method, status, amount, settled_at
`

func (r *FulfillmentRepo) MarkSettled(ctx context.Context, fulfillmentID uuid.UUID, amount decimal.Decimal, settledAt time.Time) (models.Fulfillment, error) {
	rows, _ := r.DB.Query(ctx, markSettled, fulfillmentID, amount, settledAt)
	f, err := pgx.CollectOneRow(rows, rowToFulfillment)

	switch {
	case err == nil:
		return f, nil
	case errors.Is(err, pgx.ErrNoRows):
		return f, apperrors.ErrFulfillmentNotFound
	default:
		return f, fmt.Errorf("db error: %w", err)
	}
}

const listFulfillments = `-- name: ListFulfillments
SELECT id, created_at, account_id, reward_id, method, status, amount, settled_at FROM fulfillments
WHERE account_id = $1
ORDER BY created_at
`

func (r *FulfillmentRepo) ListForAccount(ctx context.Context, accountID uuid.UUID) ([]models.Fulfillment, error) {
	rows, _ := r.DB.Query(ctx, listFulfillments, accountID)
	fulfillments, err := pgx.CollectRows(rows, rowToFulfillment)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return fulfillments, nil
}

func rowToFulfillment(row pgx.CollectableRow) (models.Fulfillment, error) {
	var f models.Fulfillment
	err := row.Scan(&f.ID, &f.CreatedAt, &f.AccountID, &f.RewardID, &f.Method, &f.Status, &f.Amount, &f.SettledAt)
	return f, err
}
