package reward

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/marikmarie/collectovault/internal/apperrors"
	"github.com/marikmarie/collectovault/internal/models"
	"github.com/marikmarie/collectovault/internal/repository/memory"
)

func ptr[T any](v T) *T { return &v }

func TestRewardService(t *testing.T) {
	ctx := t.Context()
	vendorID := uuid.New()

	t.Run("create", func(t *testing.T) {
		svc := NewService(memory.NewStorage())

		t.Run("with points price", func(t *testing.T) {
			reward, err := svc.CreateReward(ctx, models.Reward{
				VendorID:     vendorID,
				Title:        "Coffee",
				PointsPrice:  ptr(int64(1200)),
				Availability: models.RewardAvailable,
			})

			require.NoError(t, err)
			require.NotEqual(t, uuid.Nil, reward.ID)
		})

		t.Run("without any price", func(t *testing.T) {
			_, err := svc.CreateReward(ctx, models.Reward{
				VendorID:     vendorID,
				Title:        "Priceless",
				Availability: models.RewardAvailable,
			})

			require.ErrorIs(t, err, apperrors.ErrRewardPriceRequired)
		})

		t.Run("with negative price", func(t *testing.T) {
			_, err := svc.CreateReward(ctx, models.Reward{
				VendorID:     vendorID,
				Title:        "Trap",
				PointsPrice:  ptr(int64(-1)),
				Availability: models.RewardAvailable,
			})

			require.Error(t, err)
		})

		t.Run("with unknown availability", func(t *testing.T) {
			_, err := svc.CreateReward(ctx, models.Reward{
				VendorID:     vendorID,
				Title:        "Limbo",
				PointsPrice:  ptr(int64(10)),
				Availability: "maybe",
			})

			require.Error(t, err)
		})
	})

	t.Run("set availability", func(t *testing.T) {
		svc := NewService(memory.NewStorage())

		price := decimal.RequireFromString("4.20")
		reward, err := svc.CreateReward(ctx, models.Reward{
			VendorID:      vendorID,
			Title:         "Mug",
			CurrencyPrice: &price,
			Availability:  models.RewardAvailable,
		})
		require.NoError(t, err)

		updated, err := svc.SetAvailability(ctx, vendorID, reward.ID, models.RewardSoldOut)

		require.NoError(t, err)
		require.Equal(t, models.RewardSoldOut, updated.Availability)

		got, err := svc.GetReward(ctx, reward.ID)
		require.NoError(t, err)
		require.Equal(t, models.RewardSoldOut, got.Availability)

		_, err = svc.SetAvailability(ctx, vendorID, reward.ID, "maybe")
		require.Error(t, err)

		t.Run("another vendor can not flip it", func(t *testing.T) {
			_, err := svc.SetAvailability(ctx, uuid.New(), reward.ID, models.RewardAvailable)
			require.ErrorIs(t, err, apperrors.ErrRewardNotFound)

			got, err := svc.GetReward(ctx, reward.ID)
			require.NoError(t, err)
			require.Equal(t, models.RewardSoldOut, got.Availability)
		})
	})

	t.Run("mutations are vendor scoped", func(t *testing.T) {
		svc := NewService(memory.NewStorage())

		reward, err := svc.CreateReward(ctx, models.Reward{
			VendorID:     vendorID,
			Title:        "Tote",
			PointsPrice:  ptr(int64(300)),
			Availability: models.RewardAvailable,
		})
		require.NoError(t, err)

		stranger := uuid.New()

		hijacked := reward
		hijacked.VendorID = stranger
		hijacked.Title = "Hijacked"
		_, err = svc.UpdateReward(ctx, hijacked)
		require.ErrorIs(t, err, apperrors.ErrRewardNotFound)

		err = svc.DeleteReward(ctx, stranger, reward.ID)
		require.ErrorIs(t, err, apperrors.ErrRewardNotFound)

		got, err := svc.GetReward(ctx, reward.ID)
		require.NoError(t, err)
		require.Equal(t, "Tote", got.Title)

		require.NoError(t, svc.DeleteReward(ctx, vendorID, reward.ID))
	})

	t.Run("list is vendor scoped", func(t *testing.T) {
		svc := NewService(memory.NewStorage())

		for _, vendor := range []uuid.UUID{vendorID, uuid.New()} {
			_, err := svc.CreateReward(ctx, models.Reward{
				VendorID:     vendor,
				Title:        "Sticker",
				PointsPrice:  ptr(int64(50)),
				Availability: models.RewardAvailable,
			})
			require.NoError(t, err)
		}

		rewards, err := svc.ListRewards(ctx, vendorID)

		require.NoError(t, err)
		require.Len(t, rewards, 1)
	})
}
