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

type TierRepo struct {
	DB DBTX
}

const createTier = `-- name: CreateTier
INSERT INTO tiers (id, vendor_id, name, min_points, perks, active)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, vendor_id, name, min_points, perks, active
`

func (r *TierRepo) CreateTier(ctx context.Context, tier models.Tier) (models.Tier, error) {
	if tier.ID == uuid.Nil {
		tier.ID = uuid.New()
	}
	if tier.Perks == nil {
		tier.Perks = []string{}
	}

	rows, _ := r.DB.Query(ctx, createTier, tier.ID, tier.VendorID, tier.Name, tier.MinPoints, tier.Perks, tier.Active)
	tier, err := pgx.CollectOneRow(rows, rowToTier)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return tier, apperrors.ErrTierThresholdTaken
		}

		return tier, fmt.Errorf("db error: %w", err)
	}

	return tier, nil
}

const updateTier = `-- name: UpdateTier
UPDATE tiers
SET name = $2, min_points = $3, perks = $4, active = $5
WHERE id = $1 AND vendor_id = $6
RETURNING id, vendor_id, name, min_points, perks, active
`

// UpdateTier is scoped to the tier's vendor so one vendor can not touch
// another vendor's ladder
func (r *TierRepo) UpdateTier(ctx context.Context, tier models.Tier) (models.Tier, error) {
	if tier.Perks == nil {
		tier.Perks = []string{}
	}

	rows, _ := r.DB.Query(ctx, updateTier, tier.ID, tier.Name, tier.MinPoints, tier.Perks, tier.Active, tier.VendorID)
	tier, err := pgx.CollectOneRow(rows, rowToTier)

	switch {
	case err == nil:
		return tier, nil
	case errors.Is(err, pgx.ErrNoRows):
		return tier, apperrors.ErrTierNotFound
	default:
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return tier, apperrors.ErrTierThresholdTaken
		}

		return tier, fmt.Errorf("db error: %w", err)
	}
}

const getTier = `-- name: GetTier
SELECT id, vendor_id, name, min_points, perks, active FROM tiers
WHERE id = $1
`

func (r *TierRepo) GetTier(ctx context.Context, tierID uuid.UUID) (models.Tier, error) {
	rows, _ := r.DB.Query(ctx, getTier, tierID)
	tier, err := pgx.CollectOneRow(rows, rowToTier)

	switch {
	case err == nil:
		return tier, nil
	case errors.Is(err, pgx.ErrNoRows):
		return tier, apperrors.ErrTierNotFound
	default:
		return tier, fmt.Errorf("db error: %w", err)
	}
}

const deleteTier = `-- name: DeleteTier
DELETE FROM tiers
WHERE id = $1 AND vendor_id = $2
`

func (r *TierRepo) DeleteTier(ctx context.Context, vendorID uuid.UUID, tierID uuid.UUID) error {
	tag, err := r.DB.Exec(ctx, deleteTier, tierID, vendorID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return apperrors.ErrTierNotFound
	}

	return nil
}

const listTiers = `-- name: ListTiers
SELECT id, vendor_id, name, min_points, perks, active FROM tiers
WHERE vendor_id = $1
	AND (NOT $2::boolean OR active)
ORDER BY min_points
`

func (r *TierRepo) ListTiers(ctx context.Context, vendorID uuid.UUID, activeOnly bool) ([]models.Tier, error) {
	rows, _ := r.DB.Query(ctx, listTiers, vendorID, activeOnly)
	tiers, err := pgx.CollectRows(rows, rowToTier)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return tiers, nil
}

func rowToTier(row pgx.CollectableRow) (models.Tier, error) {
	var t models.Tier
	err := row.Scan(&t.ID, &t.VendorID, &t.Name, &t.MinPoints, &t.Perks, &t.Active)
	return t, err
}
