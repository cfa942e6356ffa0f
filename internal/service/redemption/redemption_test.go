package redemption

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/marikmarie/collectovault/internal/apperrors"
	"github.com/marikmarie/collectovault/internal/models"
	"github.com/marikmarie/collectovault/internal/repository/memory"
	"github.com/marikmarie/collectovault/internal/service/ledger"
	"github.com/marikmarie/collectovault/internal/service/rules"
)

func ptr[T any](v T) *T { return &v }

type fixture struct {
	storage *memory.Storage
	svc     *RedemptionService
	ledger  *ledger.LedgerService
	rules   *rules.RuleService
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	storage := memory.NewStorage()
	ruleService := rules.NewService(storage)
	return fixture{
		storage: storage,
		svc:     NewService(storage, ruleService),
		ledger:  ledger.NewService(storage),
		rules:   ruleService,
	}
}

func (f fixture) createReward(t *testing.T, reward models.Reward) models.Reward {
	t.Helper()

	if reward.Availability == "" {
		reward.Availability = models.RewardAvailable
	}
	created, err := f.storage.Rewards().CreateReward(t.Context(), reward)
	require.NoError(t, err)
	return created
}

func (f fixture) fund(t *testing.T, accountID uuid.UUID, points int64) {
	t.Helper()

	_, _, err := f.ledger.Append(t.Context(), accountID, models.EntryKindEarn, points, "seed")
	require.NoError(t, err)
}

func TestRedeemPoints(t *testing.T) {
	ctx := t.Context()

	t.Run("success", func(t *testing.T) {
		f := newFixture(t)
		accountID := uuid.New()
		f.fund(t, accountID, 1240)
		reward := f.createReward(t, models.Reward{Title: "Coffee", PointsPrice: ptr(int64(1200))})

		result, err := f.svc.Redeem(ctx, accountID, reward.ID, models.RedeemMethodPoints)

		require.NoError(t, err)
		require.Equal(t, int64(40), result.Balance)
		require.NotNil(t, result.Entry)
		require.Equal(t, models.EntryKindRedeem, result.Entry.Kind)
		require.Equal(t, int64(-1200), result.Entry.Delta)
		require.Equal(t, models.FulfillmentSettled, result.Fulfillment.Status)
		require.Equal(t, models.RedeemMethodPoints, result.Fulfillment.Method)

		entries, err := f.storage.Ledger().ListForAccount(ctx, accountID, []string{models.EntryKindRedeem})
		require.NoError(t, err)
		require.Len(t, entries, 1)
	})

	t.Run("insufficient points", func(t *testing.T) {
		f := newFixture(t)
		accountID := uuid.New()
		f.fund(t, accountID, 1000)
		reward := f.createReward(t, models.Reward{Title: "Coffee", PointsPrice: ptr(int64(1200))})

		_, err := f.svc.Redeem(ctx, accountID, reward.ID, models.RedeemMethodPoints)

		require.ErrorIs(t, err, apperrors.ErrInsufficientPoints)

		account, err := f.storage.Accounts().GetAccount(ctx, accountID)
		require.NoError(t, err)
		require.Equal(t, int64(1000), account.Balance, "failed redemption must not move the balance")

		entries, err := f.storage.Ledger().ListForAccount(ctx, accountID, []string{models.EntryKindRedeem})
		require.NoError(t, err)
		require.Empty(t, entries, "failed redemption must not log entries")

		fulfillments, err := f.svc.Fulfillments(ctx, accountID)
		require.NoError(t, err)
		require.Empty(t, fulfillments)
	})

	t.Run("exact balance", func(t *testing.T) {
		f := newFixture(t)
		accountID := uuid.New()
		f.fund(t, accountID, 1200)
		reward := f.createReward(t, models.Reward{Title: "Coffee", PointsPrice: ptr(int64(1200))})

		result, err := f.svc.Redeem(ctx, accountID, reward.ID, models.RedeemMethodPoints)

		require.NoError(t, err)
		require.Equal(t, int64(0), result.Balance)
	})

	t.Run("unknown reward", func(t *testing.T) {
		f := newFixture(t)
		accountID := uuid.New()
		f.fund(t, accountID, 1000)

		_, err := f.svc.Redeem(ctx, accountID, uuid.New(), models.RedeemMethodPoints)

		require.ErrorIs(t, err, apperrors.ErrRewardNotFound)
	})

	t.Run("unavailable reward", func(t *testing.T) {
		f := newFixture(t)
		accountID := uuid.New()
		f.fund(t, accountID, 5000)

		for _, availability := range []string{models.RewardSoldOut, models.RewardComingSoon} {
			t.Run(availability, func(t *testing.T) {
				reward := f.createReward(t, models.Reward{
					Title:        "Phantom",
					PointsPrice:  ptr(int64(100)),
					Availability: availability,
				})

				_, err := f.svc.Redeem(ctx, accountID, reward.ID, models.RedeemMethodPoints)

				require.ErrorIs(t, err, apperrors.ErrRewardNotFound)
			})
		}
	})

	t.Run("currency only reward", func(t *testing.T) {
		f := newFixture(t)
		accountID := uuid.New()
		f.fund(t, accountID, 5000)
		price := decimal.RequireFromString("9.99")
		reward := f.createReward(t, models.Reward{Title: "Cash only", CurrencyPrice: &price})

		_, err := f.svc.Redeem(ctx, accountID, reward.ID, models.RedeemMethodPoints)

		require.ErrorIs(t, err, apperrors.ErrRewardNotPointsRedeemable)
	})

	t.Run("concurrent redemptions never overspend", func(t *testing.T) {
		f := newFixture(t)
		accountID := uuid.New()
		f.fund(t, accountID, 1800)
		reward := f.createReward(t, models.Reward{Title: "Coffee", PointsPrice: ptr(int64(1200))})

		const workers = 4
		errs := make([]error, workers)

		var wg sync.WaitGroup
		for i := range workers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, errs[i] = f.svc.Redeem(ctx, accountID, reward.ID, models.RedeemMethodPoints)
			}()
		}
		wg.Wait()

		succeeded := 0
		for _, err := range errs {
			if err == nil {
				succeeded++
				continue
			}
			require.ErrorIs(t, err, apperrors.ErrInsufficientPoints)
		}
		require.Equal(t, 1, succeeded, "the balance covers exactly one redemption")

		account, err := f.storage.Accounts().GetAccount(ctx, accountID)
		require.NoError(t, err)
		require.Equal(t, int64(600), account.Balance)

		entries, err := f.storage.Ledger().ListForAccount(ctx, accountID, []string{models.EntryKindRedeem})
		require.NoError(t, err)
		require.Len(t, entries, 1)
	})
}

func TestRedeemCurrency(t *testing.T) {
	ctx := t.Context()

	t.Run("records a pending fulfillment and moves no points", func(t *testing.T) {
		f := newFixture(t)
		accountID := uuid.New()
		f.fund(t, accountID, 500)
		price := decimal.RequireFromString("9.99")
		reward := f.createReward(t, models.Reward{Title: "Mug", CurrencyPrice: &price})

		result, err := f.svc.Redeem(ctx, accountID, reward.ID, models.RedeemMethodCurrency)

		require.NoError(t, err)
		require.Nil(t, result.Entry)
		require.Equal(t, int64(500), result.Balance)
		require.Equal(t, models.FulfillmentPending, result.Fulfillment.Status)
		require.Equal(t, models.RedeemMethodCurrency, result.Fulfillment.Method)
	})

	t.Run("reward without currency price", func(t *testing.T) {
		f := newFixture(t)
		reward := f.createReward(t, models.Reward{Title: "Points only", PointsPrice: ptr(int64(100))})

		_, err := f.svc.Redeem(ctx, uuid.New(), reward.ID, models.RedeemMethodCurrency)

		require.ErrorIs(t, err, apperrors.ErrRewardPriceRequired)
	})
}

func TestOnSettlementConfirmed(t *testing.T) {
	ctx := t.Context()

	t.Run("settles the pending fulfillment", func(t *testing.T) {
		f := newFixture(t)
		accountID := uuid.New()
		price := decimal.RequireFromString("9.99")
		reward := f.createReward(t, models.Reward{Title: "Mug", CurrencyPrice: &price})

		_, err := f.svc.Redeem(ctx, accountID, reward.ID, models.RedeemMethodCurrency)
		require.NoError(t, err)

		fulfillment, err := f.svc.OnSettlementConfirmed(ctx, accountID, reward.ID, price)

		require.NoError(t, err)
		require.Equal(t, models.FulfillmentSettled, fulfillment.Status)
		require.NotNil(t, fulfillment.Amount)
		require.True(t, fulfillment.Amount.Equal(price))
		require.NotNil(t, fulfillment.SettledAt)
	})

	t.Run("settled purchase earns points when a rule covers it", func(t *testing.T) {
		f := newFixture(t)
		accountID := uuid.New()
		price := decimal.RequireFromString("9.99")
		reward := f.createReward(t, models.Reward{Title: "Mug", CurrencyPrice: &price})

		_, err := f.rules.CreateRule(ctx, models.PointRule{
			VendorID: reward.VendorID,
			Trigger:  models.TriggerPurchase,
			Points:   25,
			Active:   true,
		})
		require.NoError(t, err)

		_, err = f.svc.Redeem(ctx, accountID, reward.ID, models.RedeemMethodCurrency)
		require.NoError(t, err)

		_, err = f.svc.OnSettlementConfirmed(ctx, accountID, reward.ID, price)
		require.NoError(t, err)

		account, err := f.storage.Accounts().GetAccount(ctx, accountID)
		require.NoError(t, err)
		require.Equal(t, int64(25), account.Balance)
	})

	t.Run("no pending fulfillment", func(t *testing.T) {
		f := newFixture(t)
		price := decimal.RequireFromString("9.99")
		reward := f.createReward(t, models.Reward{Title: "Mug", CurrencyPrice: &price})

		_, err := f.svc.OnSettlementConfirmed(ctx, uuid.New(), reward.ID, price)

		require.ErrorIs(t, err, apperrors.ErrFulfillmentNotFound)
	})

	t.Run("double settlement", func(t *testing.T) {
		f := newFixture(t)
		accountID := uuid.New()
		price := decimal.RequireFromString("9.99")
		reward := f.createReward(t, models.Reward{Title: "Mug", CurrencyPrice: &price})

		_, err := f.svc.Redeem(ctx, accountID, reward.ID, models.RedeemMethodCurrency)
		require.NoError(t, err)

		_, err = f.svc.OnSettlementConfirmed(ctx, accountID, reward.ID, price)
		require.NoError(t, err)

		_, err = f.svc.OnSettlementConfirmed(ctx, accountID, reward.ID, price)
		require.ErrorIs(t, err, apperrors.ErrFulfillmentNotFound, "a settled fulfillment can not settle twice")
	})
}
