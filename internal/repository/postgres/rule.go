package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/marikmarie/collectovault/internal/apperrors"
	"github.com/marikmarie/collectovault/internal/models"
)

type RuleRepo struct {
	DB DBTX
}

const createRule = `-- name: CreateRule
INSERT INTO point_rules (id, vendor_id, trigger, points, multiplier, max_per_transaction, max_per_day, active, start_at, end_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING id, vendor_id, trigger, points, multiplier, max_per_transaction, max_per_day, active, start_at, end_at
`

func (r *RuleRepo) CreateRule(ctx context.Context, rule models.PointRule) (models.PointRule, error) {
	if rule.ID == uuid.Nil {
		rule.ID = uuid.New()
	}

	rows, _ := r.DB.Query(ctx, createRule,
		rule.ID, rule.VendorID, rule.Trigger, rule.Points, rule.Multiplier,
		rule.MaxPerTransaction, rule.MaxPerDay, rule.Active, rule.StartAt, rule.EndAt)
	rule, err := pgx.CollectOneRow(rows, rowToRule)
	if err != nil {
		return rule, fmt.Errorf("db error: %w", err)
	}

	return rule, nil
}

const updateRule = `-- name: UpdateRule
UPDATE point_rules
SET trigger = $2, points = $3, multiplier = $4, max_per_transaction = $5, max_per_day = $6, active = $7, start_at = $8, end_at = $9
WHERE id = $1 AND vendor_id = $10
RETURNING id, vendor_id, trigger, points, multiplier, max_per_transaction, max_per_day, active, start_at, end_at
`

// UpdateRule is scoped to the rule's vendor
func (r *RuleRepo) UpdateRule(ctx context.Context, rule models.PointRule) (models.PointRule, error) {
	rows, _ := r.DB.Query(ctx, updateRule,
		rule.ID, rule.Trigger, rule.Points, rule.Multiplier,
		rule.MaxPerTransaction, rule.MaxPerDay, rule.Active, rule.StartAt, rule.EndAt, rule.VendorID)
	rule, err := pgx.CollectOneRow(rows, rowToRule)

	switch {
	case err == nil:
		return rule, nil
	case errors.Is(err, pgx.ErrNoRows):
		return rule, apperrors.ErrRuleNotFound
	default:
		return rule, fmt.Errorf("db error: %w", err)
	}
}

const getRule = `-- name: GetRule
SELECT id, vendor_id, trigger, points, multiplier, max_per_transaction, max_per_day, active, start_at, end_at FROM point_rules
WHERE id = $1
`

func (r *RuleRepo) GetRule(ctx context.Context, ruleID uuid.UUID) (models.PointRule, error) {
	rows, _ := r.DB.Query(ctx, getRule, ruleID)
	rule, err := pgx.CollectOneRow(rows, rowToRule)

	switch {
	case err == nil:
		return rule, nil
	case errors.Is(err, pgx.ErrNoRows):
		return rule, apperrors.ErrRuleNotFound
	default:
		return rule, fmt.Errorf("db error: %w", err)
	}
}

const deleteRule = `-- name: DeleteRule
DELETE FROM point_rules
WHERE id = $1 AND vendor_id = $2
`

func (r *RuleRepo) DeleteRule(ctx context.Context, vendorID uuid.UUID, ruleID uuid.UUID) error {
	tag, err := r.DB.Exec(ctx, deleteRule, ruleID, vendorID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return apperrors.ErrRuleNotFound
	}

	return nil
}

const listRules = `-- name: ListRules
SELECT id, vendor_id, trigger, points, multiplier, max_per_transaction, max_per_day, active, start_at, end_at FROM point_rules
WHERE vendor_id = $1
ORDER BY trigger, id
`

func (r *RuleRepo) ListRules(ctx context.Context, vendorID uuid.UUID) ([]models.PointRule, error) {
	rows, _ := r.DB.Query(ctx, listRules, vendorID)
	rules, err := pgx.CollectRows(rows, rowToRule)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return rules, nil
}

const listActiveByTrigger = `-- name: ListActiveByTrigger
SELECT id, vendor_id, trigger, points, multiplier, max_per_transaction, max_per_day, active, start_at, end_at FROM point_rules
WHERE vendor_id = $1
	AND trigger = $2
	AND active
ORDER BY id
`

func (r *RuleRepo) ListActiveByTrigger(ctx context.Context, vendorID uuid.UUID, trigger string) ([]models.PointRule, error) {
	rows, _ := r.DB.Query(ctx, listActiveByTrigger, vendorID, trigger)
	rules, err := pgx.CollectRows(rows, rowToRule)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return rules, nil
}

func rowToRule(row pgx.CollectableRow) (models.PointRule, error) {
	var pr models.PointRule
	err := row.Scan(&pr.ID, &pr.VendorID, &pr.Trigger, &pr.Points, &pr.Multiplier,
		&pr.MaxPerTransaction, &pr.MaxPerDay, &pr.Active, &pr.StartAt, &pr.EndAt)
	return pr, err
}
