// Package rules evaluates vendor point rules and turns qualifying events
// into ledger earn entries.
package rules

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marikmarie/collectovault/internal/apperrors"
	"github.com/marikmarie/collectovault/internal/models"
	"github.com/marikmarie/collectovault/internal/repository"
	"github.com/marikmarie/collectovault/internal/service/ledger"
)

// Award is the outcome of one rule applied to one event
type Award struct {
	RuleID uuid.UUID
	Points int64

	// Entry is nil when the award truncated to zero, nothing is logged then
	Entry *models.LedgerEntry
}

// Evaluate computes the points the rule would award before the daily cap:
// floor(points * multiplier) clamped to the per-transaction cap.
// Inactive rules and rules outside their validity window fail with
// apperrors.ErrRuleNotApplicable.
func Evaluate(rule models.PointRule, now time.Time) (int64, error) {
	if !rule.ApplicableAt(now) {
		return 0, apperrors.ErrRuleNotApplicable
	}

	awarded := rule.Points
	if rule.Multiplier != nil {
		awarded = decimal.NewFromInt(rule.Points).Mul(*rule.Multiplier).Floor().IntPart()
	}

	if rule.MaxPerTransaction != nil && awarded > *rule.MaxPerTransaction {
		awarded = *rule.MaxPerTransaction
	}

	return awarded, nil
}

type RuleService struct {
	storage repository.Storage
}

func NewService(storage repository.Storage) *RuleService {
	return &RuleService{storage: storage}
}

// Trigger applies every active rule the vendor has for the trigger and
// appends the resulting earn entries. An award already capped for the day is
// truncated to the remaining allowance, possibly to zero.
// Fails with apperrors.ErrRuleNotApplicable when no rule applies at all:
// callers treat that as a skip, not a failure of the triggering event.
func (s *RuleService) Trigger(ctx context.Context, accountID uuid.UUID, vendorID uuid.UUID, trigger string, note string) ([]Award, error) {
	matched, err := s.storage.Rules().ListActiveByTrigger(ctx, vendorID, trigger)
	if err != nil {
		return nil, fmt.Errorf("can't list rules. Err: %w", err)
	}

	now := time.Now()

	applicable := make([]models.PointRule, 0, len(matched))
	for _, rule := range matched {
		if rule.ApplicableAt(now) {
			applicable = append(applicable, rule)
		}
	}

	if len(applicable) == 0 {
		return nil, apperrors.ErrRuleNotApplicable
	}

	awards := make([]Award, 0, len(applicable))

	err = s.storage.InTx(ctx, func(tx repository.Storage) error {
		for _, rule := range applicable {
			award, err := s.apply(ctx, tx, accountID, rule, now, note)
			if err != nil {
				return err
			}
			awards = append(awards, award)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return awards, nil
}

// ApplyRule awards a single known rule to the account
func (s *RuleService) ApplyRule(ctx context.Context, accountID uuid.UUID, ruleID uuid.UUID, note string) (Award, error) {
	rule, err := s.storage.Rules().GetRule(ctx, ruleID)
	if err != nil {
		return Award{}, err
	}

	now := time.Now()
	if !rule.ApplicableAt(now) {
		return Award{}, apperrors.ErrRuleNotApplicable
	}

	var award Award
	err = s.storage.InTx(ctx, func(tx repository.Storage) error {
		award, err = s.apply(ctx, tx, accountID, rule, now, note)
		return err
	})
	if err != nil {
		return Award{}, err
	}

	return award, nil
}

func (s *RuleService) apply(ctx context.Context, tx repository.Storage, accountID uuid.UUID, rule models.PointRule, now time.Time, note string) (Award, error) {
	awarded, err := Evaluate(rule, now)
	if err != nil {
		return Award{}, err
	}

	if rule.MaxPerDay != nil {
		dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		earned, err := tx.Ledger().EarnedByRuleSince(ctx, accountID, rule.ID, dayStart)
		if err != nil {
			return Award{}, fmt.Errorf("can't sum daily awards. Err: %w", err)
		}

		remaining := *rule.MaxPerDay - earned
		if remaining < 0 {
			remaining = 0
		}
		if awarded > remaining {
			awarded = remaining
		}
	}

	award := Award{RuleID: rule.ID, Points: awarded}

	// truncated-to-zero awards are reported but never logged,
	// zero-delta entries would only pad the ledger
	if awarded == 0 {
		return award, nil
	}

	kind := models.EntryKindEarn
	if rule.Trigger == models.TriggerPurchase {
		kind = models.EntryKindPurchase
	}

	if note == "" {
		note = fmt.Sprintf("Points for %s", rule.Trigger)
	}

	entry, _, err := ledger.Apply(ctx, tx, models.LedgerEntry{
		AccountID: accountID,
		Kind:      kind,
		Delta:     awarded,
		Note:      note,
		RuleID:    &rule.ID,
	})
	if err != nil {
		return Award{}, err
	}

	award.Entry = &entry

	return award, nil
}

// Catalog management

func (s *RuleService) CreateRule(ctx context.Context, rule models.PointRule) (models.PointRule, error) {
	if err := validateRule(rule); err != nil {
		return rule, err
	}

	return s.storage.Rules().CreateRule(ctx, rule)
}

func (s *RuleService) UpdateRule(ctx context.Context, rule models.PointRule) (models.PointRule, error) {
	if err := validateRule(rule); err != nil {
		return rule, err
	}

	return s.storage.Rules().UpdateRule(ctx, rule)
}

func (s *RuleService) DeleteRule(ctx context.Context, vendorID uuid.UUID, ruleID uuid.UUID) error {
	return s.storage.Rules().DeleteRule(ctx, vendorID, ruleID)
}

func (s *RuleService) ListRules(ctx context.Context, vendorID uuid.UUID) ([]models.PointRule, error) {
	return s.storage.Rules().ListRules(ctx, vendorID)
}

func validateRule(rule models.PointRule) error {
	if rule.Points < 0 {
		return fmt.Errorf("rule base points must not be negative")
	}
	if rule.Multiplier != nil && rule.Multiplier.IsNegative() {
		return fmt.Errorf("rule multiplier must not be negative")
	}
	if rule.StartAt != nil && rule.EndAt != nil && rule.EndAt.Before(*rule.StartAt) {
		return fmt.Errorf("rule validity window ends before it starts")
	}

	return nil
}
