package memory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/marikmarie/collectovault/internal/apperrors"
	"github.com/marikmarie/collectovault/internal/models"
)

type AccountRepo struct {
	data *data
}

func (r *AccountRepo) GetAccount(ctx context.Context, accountID uuid.UUID) (models.Account, error) {
	r.data.mu.Lock()
	defer r.data.mu.Unlock()

	account, ok := r.data.accounts[accountID]
	if !ok {
		return account, apperrors.ErrAccountNotFound
	}

	return account, nil
}

func (r *AccountRepo) EnsureAccount(ctx context.Context, accountID uuid.UUID) (models.Account, error) {
	r.data.mu.Lock()
	defer r.data.mu.Unlock()

	return r.ensureLocked(accountID), nil
}

// LockAccount only ensures the account here: transaction serialization in
// this storage already makes the whole transaction the critical section
func (r *AccountRepo) LockAccount(ctx context.Context, accountID uuid.UUID) (models.Account, error) {
	r.data.mu.Lock()
	defer r.data.mu.Unlock()

	return r.ensureLocked(accountID), nil
}

func (r *AccountRepo) ApplyDelta(ctx context.Context, accountID uuid.UUID, delta int64) (models.Account, error) {
	r.data.mu.Lock()
	defer r.data.mu.Unlock()

	account, ok := r.data.accounts[accountID]
	if !ok {
		return account, apperrors.ErrAccountNotFound
	}

	if account.Balance+delta < 0 {
		return account, apperrors.ErrInsufficientPoints
	}

	account.Balance += delta
	r.data.accounts[accountID] = account

	return account, nil
}

func (r *AccountRepo) SetBalance(ctx context.Context, accountID uuid.UUID, balance int64) (models.Account, error) {
	r.data.mu.Lock()
	defer r.data.mu.Unlock()

	account, ok := r.data.accounts[accountID]
	if !ok {
		return account, apperrors.ErrAccountNotFound
	}

	account.Balance = balance
	r.data.accounts[accountID] = account

	return account, nil
}

func (r *AccountRepo) Archive(ctx context.Context, accountID uuid.UUID) error {
	r.data.mu.Lock()
	defer r.data.mu.Unlock()

	account, ok := r.data.accounts[accountID]
	if !ok {
		return apperrors.ErrAccountNotFound
	}

	account.Archived = true
	r.data.accounts[accountID] = account

	return nil
}

func (r *AccountRepo) ensureLocked(accountID uuid.UUID) models.Account {
	if account, ok := r.data.accounts[accountID]; ok {
		return account
	}

	account := models.Account{ID: accountID, CreatedAt: time.Now()}
	r.data.accounts[accountID] = account

	return account
}
