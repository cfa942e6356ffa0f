package memory

import (
	"context"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marikmarie/collectovault/internal/apperrors"
	"github.com/marikmarie/collectovault/internal/models"
)

type FulfillmentRepo struct {
	data *data
}

func (r *FulfillmentRepo) CreateFulfillment(ctx context.Context, f models.Fulfillment) (models.Fulfillment, error) {
	r.data.mu.Lock()
	defer r.data.mu.Unlock()

	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now()
	}

	r.data.fulfillments[f.ID] = f

	return f, nil
}

func (r *FulfillmentRepo) GetPending(ctx context.Context, accountID uuid.UUID, rewardID uuid.UUID) (models.Fulfillment, error) {
	r.data.mu.Lock()
	defer r.data.mu.Unlock()

	var found *models.Fulfillment
	for _, f := range r.data.fulfillments {
		if f.AccountID != accountID || f.RewardID != rewardID || f.Status != models.FulfillmentPending {
			continue
		}
		if found == nil || f.CreatedAt.Before(found.CreatedAt) {
			found = &f
		}
	}

	if found == nil {
		return models.Fulfillment{}, apperrors.ErrFulfillmentNotFound
	}

	return *found, nil
}

func (r *FulfillmentRepo) MarkSettled(ctx context.Context, fulfillmentID uuid.UUID, amount decimal.Decimal, settledAt time.Time) (models.Fulfillment, error) {
	r.data.mu.Lock()
	defer r.data.mu.Unlock()

	f, ok := r.data.fulfillments[fulfillmentID]
	if !ok || f.Status != models.FulfillmentPending {
		return f, apperrors.ErrFulfillmentNotFound
	}

	f.Status = models.FulfillmentSettled
	f.Amount = &amount
	f.SettledAt = &settledAt
	r.data.fulfillments[fulfillmentID] = f

	return f, nil
}

func (r *FulfillmentRepo) ListForAccount(ctx context.Context, accountID uuid.UUID) ([]models.Fulfillment, error) {
	r.data.mu.Lock()
	defer r.data.mu.Unlock()

	fulfillments := make([]models.Fulfillment, 0)
	for _, f := range r.data.fulfillments {
		if f.AccountID == accountID {
			fulfillments = append(fulfillments, f)
		}
	}

	slices.SortFunc(fulfillments, func(a, b models.Fulfillment) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})

	return fulfillments, nil
}
