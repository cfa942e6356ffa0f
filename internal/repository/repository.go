package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marikmarie/collectovault/internal/models"
)

// Ledger repository interface
// The ledger is append-only: entries are never updated or deleted
type LedgerRepo interface {
	// Append stores the entry and returns it with id and timestamp assigned
	Append(ctx context.Context, entry models.LedgerEntry) (models.LedgerEntry, error)

	// ListForAccount returns the account's entries in insertion order
	// Empty kinds means all kinds
	ListForAccount(ctx context.Context, accountID uuid.UUID, kinds []string) ([]models.LedgerEntry, error)

	// SumForAccount returns the sum of all deltas for the account
	// Used to rebuild the balance snapshot: the ledger is the source of truth
	SumForAccount(ctx context.Context, accountID uuid.UUID) (int64, error)

	// EarnedByRuleSince sums positive deltas the rule produced for the account
	// starting at 'since'. Needed to enforce daily caps.
	EarnedByRuleSince(ctx context.Context, accountID uuid.UUID, ruleID uuid.UUID, since time.Time) (int64, error)
}

// Account snapshot repository interface
type AccountRepo interface {
	// Get account by id
	// If account not found must return apperrors.ErrAccountNotFound
	GetAccount(ctx context.Context, accountID uuid.UUID) (models.Account, error)

	// EnsureAccount creates the account with zero balance if it does not exist
	// and returns the current row. Accounts are implicitly created this way
	// on the first earn event.
	EnsureAccount(ctx context.Context, accountID uuid.UUID) (models.Account, error)

	// LockAccount ensures the account exists and acquires its row lock for
	// the rest of the surrounding transaction. Must return
	// apperrors.ErrConcurrencyTimeout if the lock can not be acquired in time.
	LockAccount(ctx context.Context, accountID uuid.UUID) (models.Account, error)

	// ApplyDelta adjusts the balance snapshot and returns the updated account
	ApplyDelta(ctx context.Context, accountID uuid.UUID, delta int64) (models.Account, error)

	// SetBalance overwrites the snapshot (ledger replay) and returns the account
	SetBalance(ctx context.Context, accountID uuid.UUID, balance int64) (models.Account, error)

	// Archive soft-archives the account; accounts are never deleted
	Archive(ctx context.Context, accountID uuid.UUID) error
}

// Tier catalog repository interface
type TierRepo interface {
	// Create tier
	// If an active tier with same vendor and minPoints exists must return
	// apperrors.ErrTierThresholdTaken
	CreateTier(ctx context.Context, tier models.Tier) (models.Tier, error)

	// Update tier by its id, scoped to tier.VendorID
	// A tier that does not exist under that vendor must return
	// apperrors.ErrTierNotFound
	UpdateTier(ctx context.Context, tier models.Tier) (models.Tier, error)

	GetTier(ctx context.Context, tierID uuid.UUID) (models.Tier, error)

	// DeleteTier removes the vendor's tier
	// Another vendor's tier must return apperrors.ErrTierNotFound
	DeleteTier(ctx context.Context, vendorID uuid.UUID, tierID uuid.UUID) error

	// ListTiers returns the vendor's tiers ordered by minPoints ascending
	ListTiers(ctx context.Context, vendorID uuid.UUID, activeOnly bool) ([]models.Tier, error)
}

// Reward catalog repository interface
type RewardRepo interface {
	// Create reward
	// Rewards without any price must be rejected with apperrors.ErrRewardPriceRequired
	CreateReward(ctx context.Context, reward models.Reward) (models.Reward, error)

	// Update reward by its id, scoped to reward.VendorID
	// A reward that does not exist under that vendor must return
	// apperrors.ErrRewardNotFound
	UpdateReward(ctx context.Context, reward models.Reward) (models.Reward, error)

	GetReward(ctx context.Context, rewardID uuid.UUID) (models.Reward, error)

	// DeleteReward removes the vendor's reward
	// Another vendor's reward must return apperrors.ErrRewardNotFound
	DeleteReward(ctx context.Context, vendorID uuid.UUID, rewardID uuid.UUID) error
	ListRewards(ctx context.Context, vendorID uuid.UUID) ([]models.Reward, error)
}

// Point rule repository interface
type RuleRepo interface {
	CreateRule(ctx context.Context, rule models.PointRule) (models.PointRule, error)

	// Update rule by its id, scoped to rule.VendorID
	// A rule that does not exist under that vendor must return
	// apperrors.ErrRuleNotFound
	UpdateRule(ctx context.Context, rule models.PointRule) (models.PointRule, error)

	GetRule(ctx context.Context, ruleID uuid.UUID) (models.PointRule, error)

	// DeleteRule removes the vendor's rule
	// Another vendor's rule must return apperrors.ErrRuleNotFound
	DeleteRule(ctx context.Context, vendorID uuid.UUID, ruleID uuid.UUID) error
	ListRules(ctx context.Context, vendorID uuid.UUID) ([]models.PointRule, error)

	// ListActiveByTrigger returns the vendor's active rules for the trigger
	ListActiveByTrigger(ctx context.Context, vendorID uuid.UUID, trigger string) ([]models.PointRule, error)
}

// Fulfillment repository interface
type FulfillmentRepo interface {
	CreateFulfillment(ctx context.Context, f models.Fulfillment) (models.Fulfillment, error)

	// GetPending returns the oldest pending fulfillment for account and reward
	// If none exists must return apperrors.ErrFulfillmentNotFound
	GetPending(ctx context.Context, accountID uuid.UUID, rewardID uuid.UUID) (models.Fulfillment, error)

	// MarkSettled sets the settled status, amount and time
	// Already settled fulfillments must not be overwritten
	MarkSettled(ctx context.Context, fulfillmentID uuid.UUID, amount decimal.Decimal, settledAt time.Time) (models.Fulfillment, error)

	ListForAccount(ctx context.Context, accountID uuid.UUID) ([]models.Fulfillment, error)
}

// Storage combines all repositories over one connection or transaction
type Storage interface {
	Ledger() LedgerRepo
	Accounts() AccountRepo
	Tiers() TierRepo
	Rewards() RewardRepo
	Rules() RuleRepo
	Fulfillments() FulfillmentRepo

	// InTx runs fn within a transaction: commit if fn returns nil, rollback otherwise
	InTx(ctx context.Context, fn func(Storage) error) error
}
