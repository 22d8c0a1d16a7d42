package memory

import (
	"context"
	"maps"
	"sync"

	"event-token-ledger/internal/core/domain"
)

type FormRepo struct {
	mu    sync.RWMutex
	forms map[string]domain.Form
}

func NewFormRepo() *FormRepo {
	return &FormRepo{forms: make(map[string]domain.Form)}
}

// Put inserts or replaces a form.
func (r *FormRepo) Put(f domain.Form) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.forms[f.ID] = f
}

func (r *FormRepo) GetByID(ctx context.Context, id string) (*domain.Form, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.forms[id]
	if !ok {
		return nil, nil
	}
	return &f, nil
}

// SubmissionRepo implements ports.SubmissionRepository, unique per transaction id.
type SubmissionRepo struct {
	mu          sync.RWMutex
	submissions map[string]domain.FormSubmission
}

func NewSubmissionRepo() *SubmissionRepo {
	return &SubmissionRepo{submissions: make(map[string]domain.FormSubmission)}
}

func (r *SubmissionRepo) Create(ctx context.Context, s *domain.FormSubmission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.submissions[s.TransactionID]; ok {
		return domain.ErrDuplicateTransaction
	}
	cp := *s
	cp.Answers = maps.Clone(s.Answers)
	r.submissions[s.TransactionID] = cp
	return nil
}

func (r *SubmissionRepo) GetByTransactionID(ctx context.Context, transactionID string) (*domain.FormSubmission, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.submissions[transactionID]
	if !ok {
		return nil, nil
	}
	s.Answers = maps.Clone(s.Answers)
	return &s, nil
}
