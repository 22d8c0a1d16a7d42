package redis

import "event-token-ledger/internal/core/ports"

var (
	_ ports.AccountRepository = (*AccountStore)(nil)
	_ ports.IdempotencyCache  = (*IdempotencyCache)(nil)
	_ ports.ClaimStore        = (*ClaimStore)(nil)
	_ ports.HealthChecker     = (*HealthCheck)(nil)
)
