package memory

import (
	"context"
	"sync"

	"event-token-ledger/internal/core/domain"
	"event-token-ledger/internal/core/ports"
)

// TransactionRepo implements ports.TransactionRepository as an append-only slice.
type TransactionRepo struct {
	mu    sync.RWMutex
	byID  map[string]int
	items []domain.Transaction
}

func NewTransactionRepo() *TransactionRepo {
	return &TransactionRepo{byID: make(map[string]int)}
}

func (r *TransactionRepo) Record(ctx context.Context, t *domain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[t.ID]; ok {
		return domain.ErrDuplicateTransaction
	}
	r.byID[t.ID] = len(r.items)
	r.items = append(r.items, *t)
	return nil
}

func (r *TransactionRepo) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	idx, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	t := r.items[idx]
	return &t, nil
}

// ListByAccount walks the log newest first.
func (r *TransactionRepo) ListByAccount(ctx context.Context, params ports.TransactionListParams) ([]domain.Transaction, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []domain.Transaction
	for i := len(r.items) - 1; i >= 0; i-- {
		t := r.items[i]
		if !t.Involves(params.AccountID) {
			continue
		}
		if params.Kind != nil && t.Kind != *params.Kind {
			continue
		}
		matched = append(matched, t)
	}

	total := int64(len(matched))
	start := params.Offset()
	if start >= len(matched) {
		return nil, total, nil
	}
	end := len(matched)
	if params.PageSize > 0 && start+params.PageSize < end {
		end = start + params.PageSize
	}
	return matched[start:end], total, nil
}

// Len reports how many transactions are logged.
func (r *TransactionRepo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}
