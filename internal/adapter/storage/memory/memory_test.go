package memory

import (
	"context"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"event-token-ledger/internal/core/domain"
	"event-token-ledger/internal/core/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountRepo_CreditDebit(t *testing.T) {
	repo := NewAccountRepo()
	ctx := context.Background()

	balance, err := repo.Credit(ctx, "alice", 100, "Top up")
	require.NoError(t, err)
	assert.Equal(t, int64(100), balance)

	balance, err = repo.Debit(ctx, "alice", 30, "Gift Flower")
	require.NoError(t, err)
	assert.Equal(t, int64(70), balance)

	_, err = repo.Debit(ctx, "alice", 71, "Gift Flower")
	var ibe *domain.InsufficientBalanceError
	require.ErrorAs(t, err, &ibe)
	assert.Equal(t, int64(70), ibe.Available)

	a, err := repo.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(70), a.Balance)
	assert.Equal(t, "Gift Flower", a.LastAction)
}

func TestAccountRepo_CreditOverflow(t *testing.T) {
	repo := NewAccountRepo()
	ctx := context.Background()

	_, err := repo.Credit(ctx, "alice", math.MaxInt64, "mint")
	require.NoError(t, err)

	_, err = repo.Credit(ctx, "alice", 1, "mint")
	assert.ErrorIs(t, err, domain.ErrBalanceOverflow)

	balance, err := repo.GetBalance(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt64), balance)
}

func TestAccountRepo_DebitMissing(t *testing.T) {
	repo := NewAccountRepo()
	_, err := repo.Debit(context.Background(), "ghost", 1, "x")
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)
}

func TestAccountRepo_ConcurrentDebits(t *testing.T) {
	repo := NewAccountRepo()
	ctx := context.Background()
	_, err := repo.Credit(ctx, "alice", 50, "Top up")
	require.NoError(t, err)

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := repo.Debit(ctx, "alice", 1, "Vote"); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, succeeded)
	balance, _ := repo.GetBalance(ctx, "alice")
	assert.Equal(t, int64(0), balance)
}

func TestTransactionRepo_RecordAndList(t *testing.T) {
	repo := NewTransactionRepo()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		kind := domain.TransactionKindVote
		if i%2 == 1 {
			kind = domain.TransactionKindGift
		}
		require.NoError(t, repo.Record(ctx, &domain.Transaction{
			ID: fmt.Sprintf("tx-%d", i), PayerID: "alice", PayeeID: "owner", Amount: 1, Kind: kind,
		}))
	}
	require.NoError(t, repo.Record(ctx, &domain.Transaction{ID: "other", PayerID: "bob", PayeeID: "owner", Amount: 1}))

	assert.ErrorIs(t, repo.Record(ctx, &domain.Transaction{ID: "tx-0"}), domain.ErrDuplicateTransaction)

	txns, total, err := repo.ListByAccount(ctx, ports.TransactionListParams{AccountID: "alice", Page: 1, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.Len(t, txns, 2)
	assert.Equal(t, "tx-4", txns[0].ID, "newest first")

	gift := domain.TransactionKindGift
	txns, total, err = repo.ListByAccount(ctx, ports.TransactionListParams{AccountID: "alice", Kind: &gift, Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, txns, 2)

	txns, total, err = repo.ListByAccount(ctx, ports.TransactionListParams{AccountID: "owner", Page: 9, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(6), total)
	assert.Empty(t, txns)
}

func TestCandidateRepo_Effects(t *testing.T) {
	repo := NewCandidateRepo()
	ctx := context.Background()
	repo.Put(domain.Candidate{ID: "cand-1", EventID: "gala", Name: "Ann"})

	c, err := repo.AddVotes(ctx, "cand-1", 7)
	require.NoError(t, err)
	assert.Equal(t, int64(0), c.Points)

	c, err = repo.AddGifts(ctx, "cand-1", 50)
	require.NoError(t, err)
	assert.Equal(t, int64(7), c.Votes)
	assert.Equal(t, int64(50), c.Gifts)
	assert.Equal(t, int64(5), c.Points)

	_, err = repo.AddVotes(ctx, "ghost", 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTicketRepo_ReserveRelease(t *testing.T) {
	repo := NewTicketRepo()
	ctx := context.Background()
	repo.Put(domain.TicketTier{ID: "vip", EventID: "gala", Price: 200, AvailableQuantity: 1})

	remaining, err := repo.Reserve(ctx, "vip")
	require.NoError(t, err)
	assert.Equal(t, int64(0), remaining)

	_, err = repo.Reserve(ctx, "vip")
	assert.ErrorIs(t, err, domain.ErrSoldOut)

	require.NoError(t, repo.Release(ctx, "vip"))
	tier, _ := repo.GetByID(ctx, "vip")
	assert.Equal(t, int64(1), tier.AvailableQuantity)
}

func TestSubmissionRepo_CopiesAnswers(t *testing.T) {
	repo := NewSubmissionRepo()
	ctx := context.Background()
	answers := map[string]string{"name": "Alice"}

	require.NoError(t, repo.Create(ctx, &domain.FormSubmission{ID: "s-1", TransactionID: "form:a:1", Answers: answers}))
	answers["name"] = "Mallory"

	s, err := repo.GetByTransactionID(ctx, "form:a:1")
	require.NoError(t, err)
	assert.Equal(t, "Alice", s.Answers["name"])

	assert.ErrorIs(t, repo.Create(ctx, &domain.FormSubmission{TransactionID: "form:a:1"}), domain.ErrDuplicateTransaction)
}

func TestIdempotencyCache_Expiry(t *testing.T) {
	cache := NewIdempotencyCache()
	now := time.Now()
	cache.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "k", []byte("v"), time.Minute))
	v, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), v)

	now = now.Add(2 * time.Minute)
	v, err = cache.Get(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestClaimStore(t *testing.T) {
	store := NewClaimStore()
	now := time.Now()
	store.now = func() time.Time { return now }
	ctx := context.Background()

	first, _ := store.Claim(ctx, "claim:a", time.Second)
	assert.NotEmpty(t, first)
	lost, _ := store.Claim(ctx, "claim:a", time.Second)
	assert.Empty(t, lost)

	now = now.Add(2 * time.Second)
	second, _ := store.Claim(ctx, "claim:a", time.Second)
	assert.NotEmpty(t, second, "expired claim is reclaimable")

	require.NoError(t, store.Release(ctx, "claim:a", first))
	lost, _ = store.Claim(ctx, "claim:a", time.Second)
	assert.Empty(t, lost, "a stale token must not release the new owner")

	require.NoError(t, store.Release(ctx, "claim:a", second))
	third, _ := store.Claim(ctx, "claim:a", time.Second)
	assert.NotEmpty(t, third)
}

func TestClaimStore_Extend(t *testing.T) {
	store := NewClaimStore()
	now := time.Now()
	store.now = func() time.Time { return now }
	ctx := context.Background()

	token, _ := store.Claim(ctx, "claim:a", time.Second)
	require.NotEmpty(t, token)

	now = now.Add(800 * time.Millisecond)
	ok, err := store.Extend(ctx, "claim:a", token, time.Second)
	require.NoError(t, err)
	assert.True(t, ok)

	now = now.Add(800 * time.Millisecond)
	lost, _ := store.Claim(ctx, "claim:a", time.Second)
	assert.Empty(t, lost, "extended claim is still held")

	ok, _ = store.Extend(ctx, "claim:a", "other", time.Second)
	assert.False(t, ok)

	now = now.Add(2 * time.Second)
	ok, _ = store.Extend(ctx, "claim:a", token, time.Second)
	assert.False(t, ok, "a lapsed claim cannot be revived")
}

func TestReconciliationRepo_ListNewestFirst(t *testing.T) {
	repo := NewReconciliationRepo()
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, &domain.ReconciliationCase{TransactionID: "a"}))
	require.NoError(t, repo.Create(ctx, &domain.ReconciliationCase{TransactionID: "b"}))

	cases, err := repo.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, cases, 1)
	assert.Equal(t, "b", cases[0].TransactionID)
}
