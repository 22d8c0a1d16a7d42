package memory

import (
	"context"
	"fmt"
	"sync"

	"event-token-ledger/internal/core/domain"
)

type EventRepo struct {
	mu     sync.RWMutex
	events map[string]domain.Event
}

func NewEventRepo() *EventRepo {
	return &EventRepo{events: make(map[string]domain.Event)}
}

// Put inserts or replaces an event.
func (r *EventRepo) Put(e domain.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events[e.ID] = e
}

func (r *EventRepo) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.events[id]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

// CandidateRepo implements ports.CandidateRepository.
type CandidateRepo struct {
	mu         sync.Mutex
	candidates map[string]*domain.Candidate
}

func NewCandidateRepo() *CandidateRepo {
	return &CandidateRepo{candidates: make(map[string]*domain.Candidate)}
}

// Put inserts or replaces a candidate.
func (r *CandidateRepo) Put(c domain.Candidate) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c.Recompute()
	r.candidates[c.ID] = &c
}

func (r *CandidateRepo) GetByID(ctx context.Context, id string) (*domain.Candidate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.candidates[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (r *CandidateRepo) AddVotes(ctx context.Context, candidateID string, votes int64) (*domain.Candidate, error) {
	return r.update(candidateID, func(c *domain.Candidate) { c.Votes += votes })
}

func (r *CandidateRepo) AddGifts(ctx context.Context, candidateID string, value int64) (*domain.Candidate, error) {
	return r.update(candidateID, func(c *domain.Candidate) { c.Gifts += value })
}

func (r *CandidateRepo) update(candidateID string, fn func(*domain.Candidate)) (*domain.Candidate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.candidates[candidateID]
	if !ok {
		return nil, fmt.Errorf("candidate %s: %w", candidateID, domain.ErrNotFound)
	}
	fn(c)
	c.Recompute()
	cp := *c
	return &cp, nil
}
