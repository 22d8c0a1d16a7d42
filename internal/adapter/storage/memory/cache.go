package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type entry struct {
	value     []byte
	expiresAt time.Time
}

func (e entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// IdempotencyCache implements ports.IdempotencyCache with lazy expiry.
type IdempotencyCache struct {
	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time
}

func NewIdempotencyCache() *IdempotencyCache {
	return &IdempotencyCache{entries: make(map[string]entry), now: time.Now}
}

func (c *IdempotencyCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, nil
	}
	if e.expired(c.now()) {
		delete(c.entries, key)
		return nil, nil
	}
	return append([]byte(nil), e.value...), nil
}

func (c *IdempotencyCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := entry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expiresAt = c.now().Add(ttl)
	}
	c.entries[key] = e
	return nil
}

type claim struct {
	token     string
	expiresAt time.Time
}

func (c claim) held(now time.Time) bool {
	return c.expiresAt.IsZero() || now.Before(c.expiresAt)
}

// ClaimStore implements ports.ClaimStore. Each claim carries an owner token
// so a holder whose lease lapsed cannot extend or drop a newer claim.
type ClaimStore struct {
	mu     sync.Mutex
	claims map[string]claim
	now    func() time.Time
}

func NewClaimStore() *ClaimStore {
	return &ClaimStore{claims: make(map[string]claim), now: time.Now}
}

func (s *ClaimStore) Claim(ctx context.Context, key string, ttl time.Duration) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if c, ok := s.claims[key]; ok && c.held(now) {
		return "", nil
	}
	c := claim{token: uuid.NewString()}
	if ttl > 0 {
		c.expiresAt = now.Add(ttl)
	}
	s.claims[key] = c
	return c.token, nil
}

func (s *ClaimStore) Extend(ctx context.Context, key, token string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	c, ok := s.claims[key]
	if !ok || c.token != token || !c.held(now) {
		return false, nil
	}
	if ttl > 0 {
		c.expiresAt = now.Add(ttl)
	}
	s.claims[key] = c
	return true, nil
}

func (s *ClaimStore) Release(ctx context.Context, key, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.claims[key]; ok && c.token == token {
		delete(s.claims, key)
	}
	return nil
}
