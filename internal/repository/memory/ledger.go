package memory

import (
	"context"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/marikmarie/collectovault/internal/apperrors"
	"github.com/marikmarie/collectovault/internal/models"
)

type LedgerRepo struct {
	data *data
}

func (r *LedgerRepo) Append(ctx context.Context, entry models.LedgerEntry) (models.LedgerEntry, error) {
	r.data.mu.Lock()
	defer r.data.mu.Unlock()

	if !models.DeltaSignValid(entry.Kind, entry.Delta) {
		return entry, apperrors.ErrInvalidDelta
	}

	if _, ok := r.data.accounts[entry.AccountID]; !ok {
		return entry, apperrors.ErrAccountNotFound
	}

	entry.ID = r.data.nextEntryID
	r.data.nextEntryID++
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	r.data.entries = append(r.data.entries, entry)

	return entry, nil
}

func (r *LedgerRepo) ListForAccount(ctx context.Context, accountID uuid.UUID, kinds []string) ([]models.LedgerEntry, error) {
	r.data.mu.Lock()
	defer r.data.mu.Unlock()

	entries := make([]models.LedgerEntry, 0)
	for _, e := range r.data.entries {
		if e.AccountID != accountID {
			continue
		}
		if len(kinds) > 0 && !slices.Contains(kinds, e.Kind) {
			continue
		}
		entries = append(entries, e)
	}

	return entries, nil
}

func (r *LedgerRepo) SumForAccount(ctx context.Context, accountID uuid.UUID) (int64, error) {
	r.data.mu.Lock()
	defer r.data.mu.Unlock()

	var sum int64
	for _, e := range r.data.entries {
		if e.AccountID == accountID {
			sum += e.Delta
		}
	}

	return sum, nil
}

func (r *LedgerRepo) EarnedByRuleSince(ctx context.Context, accountID uuid.UUID, ruleID uuid.UUID, since time.Time) (int64, error) {
	r.data.mu.Lock()
	defer r.data.mu.Unlock()

	var sum int64
	for _, e := range r.data.entries {
		if e.AccountID != accountID || e.RuleID == nil || *e.RuleID != ruleID {
			continue
		}
		if e.Delta <= 0 || e.CreatedAt.Before(since) {
			continue
		}
		sum += e.Delta
	}

	return sum, nil
}
