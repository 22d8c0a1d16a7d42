package memory

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"event-token-ledger/internal/core/domain"
)

// AccountRepo implements ports.AccountRepository. The mutex makes each
// Debit a check-and-subtract that no other call can interleave with.
type AccountRepo struct {
	mu       sync.Mutex
	accounts map[string]*domain.Account
}

func NewAccountRepo() *AccountRepo {
	return &AccountRepo{accounts: make(map[string]*domain.Account)}
}

func (r *AccountRepo) GetBalance(ctx context.Context, accountID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.accounts[accountID]; ok {
		return a.Balance, nil
	}
	return 0, nil
}

func (r *AccountRepo) Get(ctx context.Context, accountID string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[accountID]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (r *AccountRepo) Credit(ctx context.Context, accountID string, amount int64, lastAction string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	a, ok := r.accounts[accountID]
	if ok && amount > math.MaxInt64-a.Balance {
		return 0, fmt.Errorf("account %s: credit %d: %w", accountID, amount, domain.ErrBalanceOverflow)
	}
	if !ok {
		a = &domain.Account{ID: accountID, CreatedAt: now}
		r.accounts[accountID] = a
	}
	a.Balance += amount
	a.LastAction = lastAction
	a.UpdatedAt = now
	return a.Balance, nil
}

func (r *AccountRepo) Debit(ctx context.Context, accountID string, amount int64, lastAction string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[accountID]
	if !ok || a.Balance < amount {
		var available int64
		if ok {
			available = a.Balance
		}
		return 0, &domain.InsufficientBalanceError{AccountID: accountID, Required: amount, Available: available}
	}
	a.Balance -= amount
	a.LastAction = lastAction
	a.UpdatedAt = time.Now()
	return a.Balance, nil
}
