package memory

import (
	"cmp"
	"context"
	"slices"

	"github.com/google/uuid"

	"github.com/marikmarie/collectovault/internal/apperrors"
	"github.com/marikmarie/collectovault/internal/models"
)

type TierRepo struct {
	data *data
}

func (r *TierRepo) CreateTier(ctx context.Context, tier models.Tier) (models.Tier, error) {
	r.data.mu.Lock()
	defer r.data.mu.Unlock()

	if tier.ID == uuid.Nil {
		tier.ID = uuid.New()
	}
	if tier.Perks == nil {
		tier.Perks = []string{}
	}

	if tier.Active && r.thresholdTakenLocked(tier) {
		return tier, apperrors.ErrTierThresholdTaken
	}

	r.data.tiers[tier.ID] = tier

	return tier, nil
}

func (r *TierRepo) UpdateTier(ctx context.Context, tier models.Tier) (models.Tier, error) {
	r.data.mu.Lock()
	defer r.data.mu.Unlock()

	stored, ok := r.data.tiers[tier.ID]
	if !ok || stored.VendorID != tier.VendorID {
		return tier, apperrors.ErrTierNotFound
	}

	if tier.Perks == nil {
		tier.Perks = []string{}
	}

	if tier.Active && r.thresholdTakenLocked(tier) {
		return tier, apperrors.ErrTierThresholdTaken
	}

	r.data.tiers[tier.ID] = tier

	return tier, nil
}

func (r *TierRepo) GetTier(ctx context.Context, tierID uuid.UUID) (models.Tier, error) {
	r.data.mu.Lock()
	defer r.data.mu.Unlock()

	tier, ok := r.data.tiers[tierID]
	if !ok {
		return tier, apperrors.ErrTierNotFound
	}

	return tier, nil
}

func (r *TierRepo) DeleteTier(ctx context.Context, vendorID uuid.UUID, tierID uuid.UUID) error {
	r.data.mu.Lock()
	defer r.data.mu.Unlock()

	stored, ok := r.data.tiers[tierID]
	if !ok || stored.VendorID != vendorID {
		return apperrors.ErrTierNotFound
	}

	delete(r.data.tiers, tierID)

	return nil
}

func (r *TierRepo) ListTiers(ctx context.Context, vendorID uuid.UUID, activeOnly bool) ([]models.Tier, error) {
	r.data.mu.Lock()
	defer r.data.mu.Unlock()

	tiers := make([]models.Tier, 0)
	for _, t := range r.data.tiers {
		if t.VendorID != vendorID {
			continue
		}
		if activeOnly && !t.Active {
			continue
		}
		tiers = append(tiers, t)
	}

	slices.SortFunc(tiers, func(a, b models.Tier) int {
		return cmp.Compare(a.MinPoints, b.MinPoints)
	})

	return tiers, nil
}

func (r *TierRepo) thresholdTakenLocked(tier models.Tier) bool {
	for _, t := range r.data.tiers {
		if t.ID != tier.ID && t.Active && t.VendorID == tier.VendorID && t.MinPoints == tier.MinPoints {
			return true
		}
	}

	return false
}

type RewardRepo struct {
	data *data
}

func (r *RewardRepo) CreateReward(ctx context.Context, reward models.Reward) (models.Reward, error) {
	r.data.mu.Lock()
	defer r.data.mu.Unlock()

	if reward.ID == uuid.Nil {
		reward.ID = uuid.New()
	}

	if reward.PointsPrice == nil && reward.CurrencyPrice == nil {
		return reward, apperrors.ErrRewardPriceRequired
	}

	r.data.rewards[reward.ID] = reward

	return reward, nil
}

func (r *RewardRepo) UpdateReward(ctx context.Context, reward models.Reward) (models.Reward, error) {
	r.data.mu.Lock()
	defer r.data.mu.Unlock()

	stored, ok := r.data.rewards[reward.ID]
	if !ok || stored.VendorID != reward.VendorID {
		return reward, apperrors.ErrRewardNotFound
	}

	if reward.PointsPrice == nil && reward.CurrencyPrice == nil {
		return reward, apperrors.ErrRewardPriceRequired
	}

	r.data.rewards[reward.ID] = reward

	return reward, nil
}

func (r *RewardRepo) GetReward(ctx context.Context, rewardID uuid.UUID) (models.Reward, error) {
	r.data.mu.Lock()
	defer r.data.mu.Unlock()

	reward, ok := r.data.rewards[rewardID]
	if !ok {
		return reward, apperrors.ErrRewardNotFound
	}

	return reward, nil
}

func (r *RewardRepo) DeleteReward(ctx context.Context, vendorID uuid.UUID, rewardID uuid.UUID) error {
	r.data.mu.Lock()
	defer r.data.mu.Unlock()

	stored, ok := r.data.rewards[rewardID]
	if !ok || stored.VendorID != vendorID {
		return apperrors.ErrRewardNotFound
	}

	delete(r.data.rewards, rewardID)

	return nil
}

func (r *RewardRepo) ListRewards(ctx context.Context, vendorID uuid.UUID) ([]models.Reward, error) {
	r.data.mu.Lock()
	defer r.data.mu.Unlock()

	rewards := make([]models.Reward, 0)
	for _, rw := range r.data.rewards {
		if rw.VendorID == vendorID {
			rewards = append(rewards, rw)
		}
	}

	slices.SortFunc(rewards, func(a, b models.Reward) int {
		return cmp.Compare(a.Title, b.Title)
	})

	return rewards, nil
}

type RuleRepo struct {
	data *data
}

func (r *RuleRepo) CreateRule(ctx context.Context, rule models.PointRule) (models.PointRule, error) {
	r.data.mu.Lock()
	defer r.data.mu.Unlock()

	if rule.ID == uuid.Nil {
		rule.ID = uuid.New()
	}

	r.data.rules[rule.ID] = rule

	return rule, nil
}

func (r *RuleRepo) UpdateRule(ctx context.Context, rule models.PointRule) (models.PointRule, error) {
	r.data.mu.Lock()
	defer r.data.mu.Unlock()

	stored, ok := r.data.rules[rule.ID]
	if !ok || stored.VendorID != rule.VendorID {
		return rule, apperrors.ErrRuleNotFound
	}

	r.data.rules[rule.ID] = rule

	return rule, nil
}

func (r *RuleRepo) GetRule(ctx context.Context, ruleID uuid.UUID) (models.PointRule, error) {
	r.data.mu.Lock()
	defer r.data.mu.Unlock()

	rule, ok := r.data.rules[ruleID]
	if !ok {
		return rule, apperrors.ErrRuleNotFound
	}

	return rule, nil
}

func (r *RuleRepo) DeleteRule(ctx context.Context, vendorID uuid.UUID, ruleID uuid.UUID) error {
	r.data.mu.Lock()
	defer r.data.mu.Unlock()

	stored, ok := r.data.rules[ruleID]
	if !ok || stored.VendorID != vendorID {
		return apperrors.ErrRuleNotFound
	}

	delete(r.data.rules, ruleID)

	return nil
}

func (r *RuleRepo) ListRules(ctx context.Context, vendorID uuid.UUID) ([]models.PointRule, error) {
	r.data.mu.Lock()
	defer r.data.mu.Unlock()

	rules := make([]models.PointRule, 0)
	for _, rule := range r.data.rules {
		if rule.VendorID == vendorID {
			rules = append(rules, rule)
		}
	}

	slices.SortFunc(rules, func(a, b models.PointRule) int {
		return cmp.Compare(a.Trigger, b.Trigger)
	})

	return rules, nil
}

func (r *RuleRepo) ListActiveByTrigger(ctx context.Context, vendorID uuid.UUID, trigger string) ([]models.PointRule, error) {
	r.data.mu.Lock()
	defer r.data.mu.Unlock()

	rules := make([]models.PointRule, 0)
	for _, rule := range r.data.rules {
		if rule.VendorID == vendorID && rule.Trigger == trigger && rule.Active {
			rules = append(rules, rule)
		}
	}

	slices.SortFunc(rules, func(a, b models.PointRule) int {
		return cmp.Compare(a.ID.String(), b.ID.String())
	})

	return rules, nil
}
