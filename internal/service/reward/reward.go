// Package reward manages the vendor reward catalog.
package reward

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/marikmarie/collectovault/internal/apperrors"
	"github.com/marikmarie/collectovault/internal/models"
	"github.com/marikmarie/collectovault/internal/repository"
)

type RewardService struct {
	storage repository.Storage
}

func NewService(storage repository.Storage) *RewardService {
	return &RewardService{storage: storage}
}

func (s *RewardService) CreateReward(ctx context.Context, reward models.Reward) (models.Reward, error) {
	if err := validateReward(reward); err != nil {
		return reward, err
	}

	return s.storage.Rewards().CreateReward(ctx, reward)
}

func (s *RewardService) UpdateReward(ctx context.Context, reward models.Reward) (models.Reward, error) {
	if err := validateReward(reward); err != nil {
		return reward, err
	}

	return s.storage.Rewards().UpdateReward(ctx, reward)
}

func (s *RewardService) GetReward(ctx context.Context, rewardID uuid.UUID) (models.Reward, error) {
	return s.storage.Rewards().GetReward(ctx, rewardID)
}

func (s *RewardService) DeleteReward(ctx context.Context, vendorID uuid.UUID, rewardID uuid.UUID) error {
	return s.storage.Rewards().DeleteReward(ctx, vendorID, rewardID)
}

func (s *RewardService) ListRewards(ctx context.Context, vendorID uuid.UUID) ([]models.Reward, error) {
	return s.storage.Rewards().ListRewards(ctx, vendorID)
}

// SetAvailability flips only the availability state of the vendor's reward
func (s *RewardService) SetAvailability(ctx context.Context, vendorID uuid.UUID, rewardID uuid.UUID, availability string) (models.Reward, error) {
	if !validAvailability(availability) {
		return models.Reward{}, fmt.Errorf("unknown availability: %q", availability)
	}

	reward, err := s.storage.Rewards().GetReward(ctx, rewardID)
	if err != nil {
		return reward, err
	}
	if reward.VendorID != vendorID {
		return models.Reward{}, apperrors.ErrRewardNotFound
	}

	reward.Availability = availability

	return s.storage.Rewards().UpdateReward(ctx, reward)
}

func validateReward(reward models.Reward) error {
	if reward.PointsPrice == nil && reward.CurrencyPrice == nil {
		return apperrors.ErrRewardPriceRequired
	}
	if reward.PointsPrice != nil && *reward.PointsPrice < 0 {
		return fmt.Errorf("points price must not be negative")
	}
	if reward.CurrencyPrice != nil && reward.CurrencyPrice.IsNegative() {
		return fmt.Errorf("currency price must not be negative")
	}
	if !validAvailability(reward.Availability) {
		return fmt.Errorf("unknown availability: %q", reward.Availability)
	}

	return nil
}

func validAvailability(availability string) bool {
	switch availability {
	case models.RewardAvailable, models.RewardSoldOut, models.RewardComingSoon:
		return true
	}

	return false
}
