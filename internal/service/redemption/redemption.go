// Package redemption implements the transactional core: exchanging points
// or currency for rewards.
package redemption

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marikmarie/collectovault/internal/apperrors"
	"github.com/marikmarie/collectovault/internal/models"
	"github.com/marikmarie/collectovault/internal/repository"
	"github.com/marikmarie/collectovault/internal/service/ledger"
	"github.com/marikmarie/collectovault/internal/service/rules"
)

// ruleTrigger is what the redemption engine needs from the rule evaluator:
// settled currency purchases may earn points as a separate event
type ruleTrigger interface {
	Trigger(ctx context.Context, accountID uuid.UUID, vendorID uuid.UUID, trigger string, note string) ([]rules.Award, error)
}

type RedemptionService struct {
	storage repository.Storage
	rules   ruleTrigger
}

// NewService creates the redemption engine. rules may be nil: settled
// currency purchases then never award points.
func NewService(storage repository.Storage, rules ruleTrigger) *RedemptionService {
	return &RedemptionService{
		storage: storage,
		rules:   rules,
	}
}

// Redeem exchanges points or currency for a reward.
//
// The whole operation is one transaction. For the points method the account
// row is locked first, so two concurrent redemptions against one account
// serialize and the second sees the balance the first left behind: they can
// never jointly overspend. A redemption that fails any check writes nothing.
func (s *RedemptionService) Redeem(ctx context.Context, accountID uuid.UUID, rewardID uuid.UUID, method string) (models.RedemptionResult, error) {
	var result models.RedemptionResult

	err := s.storage.InTx(ctx, func(tx repository.Storage) error {
		reward, err := tx.Rewards().GetReward(ctx, rewardID)
		if err != nil {
			return err
		}
		if reward.Availability != models.RewardAvailable {
			return apperrors.ErrRewardNotFound
		}

		switch method {
		case models.RedeemMethodPoints:
			return s.redeemPoints(ctx, tx, accountID, reward, &result)
		case models.RedeemMethodCurrency:
			return s.redeemCurrency(ctx, tx, accountID, reward, &result)
		default:
			return fmt.Errorf("unknown redemption method: %q", method)
		}
	})
	if err != nil {
		return models.RedemptionResult{}, err
	}

	return result, nil
}

func (s *RedemptionService) redeemPoints(ctx context.Context, tx repository.Storage, accountID uuid.UUID, reward models.Reward, result *models.RedemptionResult) error {
	if reward.PointsPrice == nil {
		return apperrors.ErrRewardNotPointsRedeemable
	}
	price := *reward.PointsPrice

	account, err := tx.Accounts().LockAccount(ctx, accountID)
	if err != nil {
		return err
	}

	if account.Balance < price {
		return apperrors.ErrInsufficientPoints
	}

	entry, account, err := ledger.Apply(ctx, tx, models.LedgerEntry{
		AccountID: accountID,
		Kind:      models.EntryKindRedeem,
		Delta:     -price,
		Note:      "Redeemed: " + reward.Title,
	})
	if err != nil {
		return err
	}

	now := time.Now()
	fulfillment, err := tx.Fulfillments().CreateFulfillment(ctx, models.Fulfillment{
		AccountID: accountID,
		RewardID:  reward.ID,
		Method:    models.RedeemMethodPoints,
		Status:    models.FulfillmentSettled,
		SettledAt: &now,
	})
	if err != nil {
		return fmt.Errorf("can't create fulfillment. Err: %w", err)
	}

	result.Entry = &entry
	result.Balance = account.Balance
	result.Fulfillment = fulfillment

	return nil
}

// Currency redemptions move no points: the engine records the intent and the
// payment collaborator settles it off-core
func (s *RedemptionService) redeemCurrency(ctx context.Context, tx repository.Storage, accountID uuid.UUID, reward models.Reward, result *models.RedemptionResult) error {
	if reward.CurrencyPrice == nil {
		return apperrors.ErrRewardPriceRequired
	}

	fulfillment, err := tx.Fulfillments().CreateFulfillment(ctx, models.Fulfillment{
		AccountID: accountID,
		RewardID:  reward.ID,
		Method:    models.RedeemMethodCurrency,
		Status:    models.FulfillmentPending,
	})
	if err != nil {
		return fmt.Errorf("can't create fulfillment. Err: %w", err)
	}

	var balance int64
	account, err := tx.Accounts().GetAccount(ctx, accountID)
	switch {
	case err == nil:
		balance = account.Balance
	case errors.Is(err, apperrors.ErrAccountNotFound):
		balance = 0
	default:
		return fmt.Errorf("can't get account. Err: %w", err)
	}

	result.Entry = nil
	result.Balance = balance
	result.Fulfillment = fulfillment

	return nil
}

// OnSettlementConfirmed is the callback the payment collaborator invokes
// once a currency payment completed. It settles the pending fulfillment and,
// when the vendor awards points for purchases, runs the rule evaluator as a
// separate earn event.
func (s *RedemptionService) OnSettlementConfirmed(ctx context.Context, accountID uuid.UUID, rewardID uuid.UUID, amount decimal.Decimal) (models.Fulfillment, error) {
	var (
		fulfillment models.Fulfillment
		vendorID    uuid.UUID
	)

	err := s.storage.InTx(ctx, func(tx repository.Storage) error {
		reward, err := tx.Rewards().GetReward(ctx, rewardID)
		if err != nil {
			return err
		}
		vendorID = reward.VendorID

		pending, err := tx.Fulfillments().GetPending(ctx, accountID, rewardID)
		if err != nil {
			return err
		}

		fulfillment, err = tx.Fulfillments().MarkSettled(ctx, pending.ID, amount, time.Now())
		return err
	})
	if err != nil {
		return models.Fulfillment{}, err
	}

	if s.rules != nil {
		_, err := s.rules.Trigger(ctx, accountID, vendorID, models.TriggerPurchase, "Points for settled purchase")
		if err != nil && !errors.Is(err, apperrors.ErrRuleNotApplicable) {
			return fulfillment, fmt.Errorf("settlement recorded but purchase award failed. Err: %w", err)
		}
	}

	return fulfillment, nil
}

// Fulfillments lists the account's fulfillment records
func (s *RedemptionService) Fulfillments(ctx context.Context, accountID uuid.UUID) ([]models.Fulfillment, error) {
	return s.storage.Fulfillments().ListForAccount(ctx, accountID)
}
