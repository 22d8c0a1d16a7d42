package redis

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strconv"
	"time"

	"event-token-ledger/internal/core/domain"

	goredis "github.com/redis/go-redis/v9"
)

//go:embed scripts/debit.lua
var debitLua string

var debitScript = goredis.NewScript(debitLua)

// AccountStore implements ports.AccountRepository on Redis hashes.
// Debit is a Lua script so the balance check and the decrement are one
// server-side step; Credit is a MULTI of HINCRBY and HSET.
type AccountStore struct {
	client *goredis.Client
	prefix string
}

// NewAccountStore creates a Redis-backed ledger store.
func NewAccountStore(client *goredis.Client) *AccountStore {
	return &AccountStore{
		client: client,
		prefix: keyPrefix + "account:",
	}
}

func (s *AccountStore) key(accountID string) string {
	return s.prefix + accountID
}

func (s *AccountStore) GetBalance(ctx context.Context, accountID string) (int64, error) {
	balance, err := s.client.HGet(ctx, s.key(accountID), "balance").Int64()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("redis get balance: %w", err)
	}
	return balance, nil
}

func (s *AccountStore) Get(ctx context.Context, accountID string) (*domain.Account, error) {
	fields, err := s.client.HGetAll(ctx, s.key(accountID)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis get account: %w", err)
	}
	if len(fields) == 0 {
		return nil, nil
	}

	balance, err := strconv.ParseInt(fields["balance"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("redis account %s: bad balance %q: %w", accountID, fields["balance"], err)
	}
	return &domain.Account{
		ID:         accountID,
		Balance:    balance,
		LastAction: fields["last_action"],
		CreatedAt:  parseMillis(fields["created_at"]),
		UpdatedAt:  parseMillis(fields["updated_at"]),
	}, nil
}

func (s *AccountStore) Credit(ctx context.Context, accountID string, amount int64, lastAction string) (int64, error) {
	key := s.key(accountID)
	now := strconv.FormatInt(time.Now().UnixMilli(), 10)

	var incr *goredis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		incr = pipe.HIncrBy(ctx, key, "balance", amount)
		pipe.HSet(ctx, key, "last_action", lastAction, "updated_at", now)
		pipe.HSetNX(ctx, key, "created_at", now)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("redis credit: %w", err)
	}
	return incr.Val(), nil
}

func (s *AccountStore) Debit(ctx context.Context, accountID string, amount int64, lastAction string) (int64, error) {
	now := time.Now().UnixMilli()
	res, err := debitScript.Run(ctx, s.client, []string{s.key(accountID)}, amount, lastAction, now).Int64Slice()
	if err != nil {
		return 0, fmt.Errorf("redis debit: %w", err)
	}
	if len(res) != 2 {
		return 0, fmt.Errorf("redis debit: unexpected script reply %v", res)
	}
	if res[0] == 0 {
		return 0, &domain.InsufficientBalanceError{
			AccountID: accountID,
			Required:  amount,
			Available: res[1],
		}
	}
	return res[1], nil
}

func parseMillis(v string) time.Time {
	ms, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}
