package memory

import (
	"context"
	"fmt"
	"sync"

	"event-token-ledger/internal/core/domain"
)

// TicketRepo implements ports.TicketRepository.
type TicketRepo struct {
	mu      sync.Mutex
	tickets map[string]*domain.TicketTier
}

func NewTicketRepo() *TicketRepo {
	return &TicketRepo{tickets: make(map[string]*domain.TicketTier)}
}

// Put inserts or replaces a ticket tier.
func (r *TicketRepo) Put(t domain.TicketTier) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tickets[t.ID] = &t
}

func (r *TicketRepo) GetByID(ctx context.Context, id string) (*domain.TicketTier, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tickets[id]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (r *TicketRepo) Reserve(ctx context.Context, ticketID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tickets[ticketID]
	if !ok || t.SoldOut() {
		return 0, domain.ErrSoldOut
	}
	t.AvailableQuantity--
	return t.AvailableQuantity, nil
}

func (r *TicketRepo) Release(ctx context.Context, ticketID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tickets[ticketID]
	if !ok {
		return fmt.Errorf("release ticket %s: %w", ticketID, domain.ErrNotFound)
	}
	t.AvailableQuantity++
	return nil
}

// PurchaseRepo implements ports.PurchaseRepository, unique per transaction id.
type PurchaseRepo struct {
	mu        sync.RWMutex
	purchases map[string]domain.TicketPurchase
}

func NewPurchaseRepo() *PurchaseRepo {
	return &PurchaseRepo{purchases: make(map[string]domain.TicketPurchase)}
}

func (r *PurchaseRepo) Create(ctx context.Context, p *domain.TicketPurchase) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.purchases[p.TransactionID]; ok {
		return domain.ErrDuplicateTransaction
	}
	r.purchases[p.TransactionID] = *p
	return nil
}

func (r *PurchaseRepo) GetByTransactionID(ctx context.Context, transactionID string) (*domain.TicketPurchase, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.purchases[transactionID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

// Count reports how many purchases exist for a ticket tier.
func (r *PurchaseRepo) Count(ticketID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, p := range r.purchases {
		if p.TicketID == ticketID {
			n++
		}
	}
	return n
}
