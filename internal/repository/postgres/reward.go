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

type RewardRepo struct {
	DB DBTX
}

const createReward = `-- name: CreateReward
INSERT INTO rewards (id, vendor_id, title, points_price, currency_price, availability)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, vendor_id, title, points_price, currency_price, availability
`

func (r *RewardRepo) CreateReward(ctx context.Context, reward models.Reward) (models.Reward, error) {
	if reward.ID == uuid.Nil {
		reward.ID = uuid.New()
	}

	rows, _ := r.DB.Query(ctx, createReward, reward.ID, reward.VendorID, reward.Title, reward.PointsPrice, reward.CurrencyPrice, reward.Availability)
	reward, err := pgx.CollectOneRow(rows, rowToReward)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.CheckViolation {
			return reward, apperrors.ErrRewardPriceRequired
		}

		return reward, fmt.Errorf("db error: %w", err)
	}

	return reward, nil
}

const updateReward = `-- name: UpdateReward
UPDATE rewards
SET title = $2, points_price = $3, currency_price = $4, availability = $5
WHERE id = $1 AND vendor_id = $6
RETURNING id, vendor_id, title, points_price, currency_price, availability
`

// UpdateReward is scoped to the reward's vendor
func (r *RewardRepo) UpdateReward(ctx context.Context, reward models.Reward) (models.Reward, error) {
	rows, _ := r.DB.Query(ctx, updateReward, reward.ID, reward.Title, reward.PointsPrice, reward.CurrencyPrice, reward.Availability, reward.VendorID)
	reward, err := pgx.CollectOneRow(rows, rowToReward)

	switch {
	case err == nil:
		return reward, nil
	case errors.Is(err, pgx.ErrNoRows):
		return reward, apperrors.ErrRewardNotFound
	default:
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.CheckViolation {
			return reward, apperrors.ErrRewardPriceRequired
		}

		return reward, fmt.Errorf("db error: %w", err)
	}
}

const getReward = `-- name: GetReward
SELECT id, vendor_id, title, points_price, currency_price, availability FROM rewards
WHERE id = $1
`

func (r *RewardRepo) GetReward(ctx context.Context, rewardID uuid.UUID) (models.Reward, error) {
	rows, _ := r.DB.Query(ctx, getReward, rewardID)
	reward, err := pgx.CollectOneRow(rows, rowToReward)

	switch {
	case err == nil:
		return reward, nil
	case errors.Is(err, pgx.ErrNoRows):
		return reward, apperrors.ErrRewardNotFound
	default:
		return reward, fmt.Errorf("db error: %w", err)
	}
}

const deleteReward = `-- name: DeleteReward
DELETE FROM rewards
WHERE id = $1 AND vendor_id = $2
`

func (r *RewardRepo) DeleteReward(ctx context.Context, vendorID uuid.UUID, rewardID uuid.UUID) error {
	tag, err := r.DB.Exec(ctx, deleteReward, rewardID, vendorID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return apperrors.ErrRewardNotFound
	}

	return nil
}

const listRewards = `-- name: ListRewards
SELECT id, vendor_id, title, points_price, currency_price, availability FROM rewards
WHERE vendor_id = $1
ORDER BY title
`

func (r *RewardRepo) ListRewards(ctx context.Context, vendorID uuid.UUID) ([]models.Reward, error) {
	rows, _ := r.DB.Query(ctx, listRewards, vendorID)
	rewards, err := pgx.CollectRows(rows, rowToReward)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return rewards, nil
}

func rowToReward(row pgx.CollectableRow) (models.Reward, error) {
	var rw models.Reward
	err := row.Scan(&rw.ID, &rw.VendorID, &rw.Title, &rw.PointsPrice, &rw.CurrencyPrice, &rw.Availability)
	return rw, err
}
