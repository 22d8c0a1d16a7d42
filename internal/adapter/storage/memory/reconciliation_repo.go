package memory

import (
	"context"
	"sync"

	"event-token-ledger/internal/core/domain"
)

type ReconciliationRepo struct {
	mu    sync.RWMutex
	cases []domain.ReconciliationCase
}

func NewReconciliationRepo() *ReconciliationRepo {
	return &ReconciliationRepo{}
}

func (r *ReconciliationRepo) Create(ctx context.Context, c *domain.ReconciliationCase) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cases = append(r.cases, *c)
	return nil
}

// List returns the most recent cases first.
func (r *ReconciliationRepo) List(ctx context.Context, limit int) ([]domain.ReconciliationCase, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.ReconciliationCase
	for i := len(r.cases) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		out = append(out, r.cases[i])
	}
	return out, nil
}

type AuditRepo struct {
	mu   sync.Mutex
	logs []domain.AuditLog
}

func NewAuditRepo() *AuditRepo {
	return &AuditRepo{}
}

func (r *AuditRepo) Create(ctx context.Context, log *domain.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logs = append(r.logs, *log)
	return nil
}

// Logs returns a copy of everything recorded so far.
func (r *AuditRepo) Logs() []domain.AuditLog {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.AuditLog(nil), r.logs...)
}
