// Package tier resolves balances to loyalty tiers and manages the tier catalog.
package tier

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/marikmarie/collectovault/internal/apperrors"
	"github.com/marikmarie/collectovault/internal/models"
	"github.com/marikmarie/collectovault/internal/repository"
)

// Resolve maps a balance to the program's current tier, the next one and
// the progress between them. Pure: same inputs, same answer.
//
// Only active tiers take part. Fails with apperrors.ErrNoTiersConfigured
// when no active tier covers the balance and with
// apperrors.ErrDegenerateTierConfig when thresholds are not distinct.
func Resolve(balance int64, tiers []models.Tier) (models.TierStatus, error) {
	var status models.TierStatus

	active := make([]models.Tier, 0, len(tiers))
	for _, t := range tiers {
		if t.Active {
			active = append(active, t)
		}
	}

	if len(active) == 0 {
		return status, apperrors.ErrNoTiersConfigured
	}

	slices.SortFunc(active, func(a, b models.Tier) int {
		return cmp.Compare(a.MinPoints, b.MinPoints)
	})

	for i := 1; i < len(active); i++ {
		if active[i].MinPoints == active[i-1].MinPoints {
			return status, apperrors.ErrDegenerateTierConfig
		}
	}

	current := -1
	for i, t := range active {
		if t.MinPoints <= balance {
			current = i
		}
	}

	// the lowest tier is expected to start at zero, a balance below every
	// threshold means the catalog lacks one
	if current == -1 {
		return status, apperrors.ErrNoTiersConfigured
	}

	status.Current = active[current]

	if current == len(active)-1 {
		status.ProgressPct = 100
		return status, nil
	}

	next := active[current+1]
	status.Next = &next

	span := next.MinPoints - status.Current.MinPoints
	if span <= 0 {
		return models.TierStatus{}, apperrors.ErrDegenerateTierConfig
	}

	pct := (100*(balance-status.Current.MinPoints) + span/2) / span
	status.ProgressPct = int(min(max(pct, 0), 100))

	return status, nil
}

type TierService struct {
	storage repository.Storage
}

func NewService(storage repository.Storage) *TierService {
	return &TierService{storage: storage}
}

// Status resolves the account's current standing in the vendor's program
func (s *TierService) Status(ctx context.Context, accountID uuid.UUID, vendorID uuid.UUID) (models.TierStatus, error) {
	var balance int64

	account, err := s.storage.Accounts().GetAccount(ctx, accountID)
	switch {
	case err == nil:
		balance = account.Balance
	case errors.Is(err, apperrors.ErrAccountNotFound):
		balance = 0
	default:
		return models.TierStatus{}, fmt.Errorf("can't get account. Err: %w", err)
	}

	tiers, err := s.storage.Tiers().ListTiers(ctx, vendorID, true)
	if err != nil {
		return models.TierStatus{}, fmt.Errorf("can't list tiers. Err: %w", err)
	}

	return Resolve(balance, tiers)
}

// Preview resolves an arbitrary balance against the vendor's catalog
func (s *TierService) Preview(ctx context.Context, vendorID uuid.UUID, balance int64) (models.TierStatus, error) {
	tiers, err := s.storage.Tiers().ListTiers(ctx, vendorID, true)
	if err != nil {
		return models.TierStatus{}, fmt.Errorf("can't list tiers. Err: %w", err)
	}

	return Resolve(balance, tiers)
}

func (s *TierService) CreateTier(ctx context.Context, tier models.Tier) (models.Tier, error) {
	if tier.MinPoints < 0 {
		return tier, fmt.Errorf("tier minimum points must not be negative")
	}

	return s.storage.Tiers().CreateTier(ctx, tier)
}

func (s *TierService) UpdateTier(ctx context.Context, tier models.Tier) (models.Tier, error) {
	if tier.MinPoints < 0 {
		return tier, fmt.Errorf("tier minimum points must not be negative")
	}

	return s.storage.Tiers().UpdateTier(ctx, tier)
}

func (s *TierService) DeleteTier(ctx context.Context, vendorID uuid.UUID, tierID uuid.UUID) error {
	return s.storage.Tiers().DeleteTier(ctx, vendorID, tierID)
}

func (s *TierService) ListTiers(ctx context.Context, vendorID uuid.UUID) ([]models.Tier, error) {
	return s.storage.Tiers().ListTiers(ctx, vendorID, false)
}
