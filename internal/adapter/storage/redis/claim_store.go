package redis

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

var (
	//go:embed scripts/release_claim.lua
	releaseClaimLua string
	//go:embed scripts/extend_claim.lua
	extendClaimLua string

	releaseClaimScript = goredis.NewScript(releaseClaimLua)
	extendClaimScript  = goredis.NewScript(extendClaimLua)
)

// ClaimStore implements ports.ClaimStore using Redis SET NX.
// The stored value is a per-owner token; Extend and Release only act on a
// claim the caller still owns. A claim expires on its own if the holder dies
// mid-transfer.
type ClaimStore struct {
	client *goredis.Client
	prefix string
}

// NewClaimStore creates a new Redis-backed claim store.
func NewClaimStore(client *goredis.Client) *ClaimStore {
	return &ClaimStore{
		client: client,
		prefix: keyPrefix,
	}
}

// Claim atomically takes the key if nobody holds it.
// Returns the owner token, or "" if the key is already held.
func (s *ClaimStore) Claim(ctx context.Context, key string, ttl time.Duration) (string, error) {
	token := uuid.NewString()
	result, err := s.client.SetArgs(ctx, s.prefix+key, token, goredis.SetArgs{
		Mode: "NX",
		TTL:  ttl,
	}).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return "", nil
		}
		return "", fmt.Errorf("redis claim: %w", err)
	}
	if result != "OK" {
		return "", nil
	}
	return token, nil
}

// Extend resets the claim's expiry to ttl. Returns false if token no longer
// owns the key.
func (s *ClaimStore) Extend(ctx context.Context, key, token string, ttl time.Duration) (bool, error) {
	n, err := extendClaimScript.Run(ctx, s.client, []string{s.prefix + key}, token, ttl.Milliseconds()).Int64()
	if err != nil {
		return false, fmt.Errorf("redis claim extend: %w", err)
	}
	return n == 1, nil
}

// Release drops the claim so a later retry can proceed. A claim that has
// since passed to another owner is left alone.
func (s *ClaimStore) Release(ctx context.Context, key, token string) error {
	if err := releaseClaimScript.Run(ctx, s.client, []string{s.prefix + key}, token).Err(); err != nil {
		return fmt.Errorf("redis claim release: %w", err)
	}
	return nil
}
