package rules

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/marikmarie/collectovault/internal/apperrors"
	"github.com/marikmarie/collectovault/internal/models"
	"github.com/marikmarie/collectovault/internal/repository/memory"
)

func ptr[T any](v T) *T { return &v }

func TestEvaluate(t *testing.T) {
	now := time.Now()

	t.Run("base points", func(t *testing.T) {
		awarded, err := Evaluate(models.PointRule{Points: 200, Active: true}, now)

		require.NoError(t, err)
		require.Equal(t, int64(200), awarded)
	})

	t.Run("multiplier floors", func(t *testing.T) {
		tests := []struct {
			name       string
			points     int64
			multiplier string
			want       int64
		}{
			{"x1.5", 5, "1.5", 7},
			{"x0.5", 5, "0.5", 2},
			{"x2", 100, "2", 200},
			{"x0", 100, "0", 0},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				multiplier := decimal.RequireFromString(tt.multiplier)
				rule := models.PointRule{Points: tt.points, Multiplier: &multiplier, Active: true}

				awarded, err := Evaluate(rule, now)

				require.NoError(t, err)
				require.Equal(t, tt.want, awarded)
			})
		}
	})

	t.Run("per transaction cap", func(t *testing.T) {
		rule := models.PointRule{Points: 500, MaxPerTransaction: ptr(int64(300)), Active: true}

		awarded, err := Evaluate(rule, now)

		require.NoError(t, err)
		require.Equal(t, int64(300), awarded)
	})

	t.Run("inactive rule", func(t *testing.T) {
		_, err := Evaluate(models.PointRule{Points: 200, Active: false}, now)

		require.ErrorIs(t, err, apperrors.ErrRuleNotApplicable)
	})

	t.Run("validity window", func(t *testing.T) {
		t.Run("before start", func(t *testing.T) {
			rule := models.PointRule{Points: 200, Active: true, StartAt: ptr(now.Add(time.Hour))}

			_, err := Evaluate(rule, now)

			require.ErrorIs(t, err, apperrors.ErrRuleNotApplicable)
		})

		t.Run("after end", func(t *testing.T) {
			rule := models.PointRule{Points: 200, Active: true, EndAt: ptr(now.Add(-time.Hour))}

			_, err := Evaluate(rule, now)

			require.ErrorIs(t, err, apperrors.ErrRuleNotApplicable)
		})

		t.Run("inside window", func(t *testing.T) {
			rule := models.PointRule{
				Points:  200,
				Active:  true,
				StartAt: ptr(now.Add(-time.Hour)),
				EndAt:   ptr(now.Add(time.Hour)),
			}

			awarded, err := Evaluate(rule, now)

			require.NoError(t, err)
			require.Equal(t, int64(200), awarded)
		})
	})
}

func TestRuleService(t *testing.T) {
	ctx := t.Context()
	vendorID := uuid.New()

	t.Run("trigger awards and logs entries", func(t *testing.T) {
		storage := memory.NewStorage()
		svc := NewService(storage)
		accountID := uuid.New()

		rule, err := svc.CreateRule(ctx, models.PointRule{
			VendorID: vendorID,
			Trigger:  models.TriggerRegistration,
			Points:   150,
			Active:   true,
		})
		require.NoError(t, err)

		awards, err := svc.Trigger(ctx, accountID, vendorID, models.TriggerRegistration, "")

		require.NoError(t, err)
		require.Len(t, awards, 1)
		require.Equal(t, rule.ID, awards[0].RuleID)
		require.Equal(t, int64(150), awards[0].Points)
		require.NotNil(t, awards[0].Entry)
		require.Equal(t, models.EntryKindEarn, awards[0].Entry.Kind)
		require.NotNil(t, awards[0].Entry.RuleID)
		require.Equal(t, rule.ID, *awards[0].Entry.RuleID)

		account, err := storage.Accounts().GetAccount(ctx, accountID)
		require.NoError(t, err)
		require.Equal(t, int64(150), account.Balance)
	})

	t.Run("purchase trigger logs purchase entries", func(t *testing.T) {
		storage := memory.NewStorage()
		svc := NewService(storage)

		_, err := svc.CreateRule(ctx, models.PointRule{
			VendorID: vendorID,
			Trigger:  models.TriggerPurchase,
			Points:   10,
			Active:   true,
		})
		require.NoError(t, err)

		awards, err := svc.Trigger(ctx, uuid.New(), vendorID, models.TriggerPurchase, "")

		require.NoError(t, err)
		require.Len(t, awards, 1)
		require.Equal(t, models.EntryKindPurchase, awards[0].Entry.Kind)
	})

	t.Run("no applicable rule is a skip", func(t *testing.T) {
		svc := NewService(memory.NewStorage())

		_, err := svc.Trigger(ctx, uuid.New(), vendorID, models.TriggerBirthday, "")

		require.ErrorIs(t, err, apperrors.ErrRuleNotApplicable)
	})

	t.Run("expired rule is a skip", func(t *testing.T) {
		svc := NewService(memory.NewStorage())

		_, err := svc.CreateRule(ctx, models.PointRule{
			VendorID: vendorID,
			Trigger:  models.TriggerPurchase,
			Points:   100,
			Active:   true,
			EndAt:    ptr(time.Now().Add(-time.Hour)),
		})
		require.NoError(t, err)

		_, err = svc.Trigger(ctx, uuid.New(), vendorID, models.TriggerPurchase, "")

		require.ErrorIs(t, err, apperrors.ErrRuleNotApplicable)
	})

	t.Run("daily cap", func(t *testing.T) {
		storage := memory.NewStorage()
		svc := NewService(storage)
		accountID := uuid.New()

		_, err := svc.CreateRule(ctx, models.PointRule{
			VendorID:  vendorID,
			Trigger:   models.TriggerPurchase,
			Points:    200,
			MaxPerDay: ptr(int64(200)),
			Active:    true,
		})
		require.NoError(t, err)

		t.Run("first award gets the full amount", func(t *testing.T) {
			awards, err := svc.Trigger(ctx, accountID, vendorID, models.TriggerPurchase, "")

			require.NoError(t, err)
			require.Equal(t, int64(200), awards[0].Points)
		})

		t.Run("second award the same day truncates to zero", func(t *testing.T) {
			awards, err := svc.Trigger(ctx, accountID, vendorID, models.TriggerPurchase, "")

			require.NoError(t, err)
			require.Equal(t, int64(0), awards[0].Points)
			require.Nil(t, awards[0].Entry, "zero award must not be logged")
		})

		t.Run("daily total stays at the cap", func(t *testing.T) {
			account, err := storage.Accounts().GetAccount(ctx, accountID)
			require.NoError(t, err)
			require.Equal(t, int64(200), account.Balance)

			entries, err := storage.Ledger().ListForAccount(ctx, accountID, nil)
			require.NoError(t, err)
			require.Len(t, entries, 1)
		})

		t.Run("other accounts are capped independently", func(t *testing.T) {
			awards, err := svc.Trigger(ctx, uuid.New(), vendorID, models.TriggerPurchase, "")

			require.NoError(t, err)
			require.Equal(t, int64(200), awards[0].Points)
		})
	})

	t.Run("partial daily remainder", func(t *testing.T) {
		storage := memory.NewStorage()
		svc := NewService(storage)
		accountID := uuid.New()

		rule, err := svc.CreateRule(ctx, models.PointRule{
			VendorID:  vendorID,
			Trigger:   models.TriggerPurchase,
			Points:    150,
			MaxPerDay: ptr(int64(200)),
			Active:    true,
		})
		require.NoError(t, err)

		first, err := svc.ApplyRule(ctx, accountID, rule.ID, "")
		require.NoError(t, err)
		require.Equal(t, int64(150), first.Points)

		second, err := svc.ApplyRule(ctx, accountID, rule.ID, "")
		require.NoError(t, err)
		require.Equal(t, int64(50), second.Points, "second award only gets the daily remainder")
	})

	t.Run("validate", func(t *testing.T) {
		svc := NewService(memory.NewStorage())

		t.Run("negative points", func(t *testing.T) {
			_, err := svc.CreateRule(ctx, models.PointRule{VendorID: vendorID, Trigger: models.TriggerPurchase, Points: -1})
			require.Error(t, err)
		})

		t.Run("negative multiplier", func(t *testing.T) {
			multiplier := decimal.RequireFromString("-1")
			_, err := svc.CreateRule(ctx, models.PointRule{VendorID: vendorID, Trigger: models.TriggerPurchase, Points: 1, Multiplier: &multiplier})
			require.Error(t, err)
		})

		t.Run("window ends before start", func(t *testing.T) {
			now := time.Now()
			_, err := svc.CreateRule(ctx, models.PointRule{
				VendorID: vendorID,
				Trigger:  models.TriggerPurchase,
				Points:   1,
				StartAt:  ptr(now),
				EndAt:    ptr(now.Add(-time.Minute)),
			})
			require.Error(t, err)
		})
	})
}
