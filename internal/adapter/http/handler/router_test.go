package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"event-token-ledger/config"
	httpHandler "event-token-ledger/internal/adapter/http/handler"
	"event-token-ledger/internal/adapter/http/middleware"
	"event-token-ledger/internal/adapter/storage/memory"
	redisStorage "event-token-ledger/internal/adapter/storage/redis"
	"event-token-ledger/internal/core/domain"
	"event-token-ledger/internal/core/ports"
	"event-token-ledger/internal/service"
	"event-token-ledger/pkg/logger"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testApp runs the real router, middleware and services over miniredis
// balances, cache and claims plus the in-memory domain repositories.
type testApp struct {
	server   *httptest.Server
	tokens   *service.JWTTokenService
	accounts *redisStorage.AccountStore
	audit    *memory.AuditRepo
	cands    *memory.CandidateRepo
}

func newTestApp(t *testing.T, limits config.RateLimitConfig) *testApp {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	log := logger.New("error", false)
	cfg := config.LedgerConfig{
		TokenPerVote:     1,
		TransferRetries:  2,
		RetryInterval:    time.Millisecond,
		EffectRetries:    2,
		IdempotencyTTL:   time.Hour,
		ClaimTTL:         time.Minute,
		LogRetryAttempts: 2,
		LogRetryInterval: time.Millisecond,
		LogRetryQueue:    8,
	}

	accounts := redisStorage.NewAccountStore(rdb)
	txRepo := memory.NewTransactionRepo()
	events := memory.NewEventRepo()
	candidates := memory.NewCandidateRepo()
	tickets := memory.NewTicketRepo()
	purchases := memory.NewPurchaseRepo()
	forms := memory.NewFormRepo()
	submissions := memory.NewSubmissionRepo()
	auditRepo := memory.NewAuditRepo()

	events.Put(domain.Event{ID: "evt-1", OwnerAccountID: "owner", Title: "Finals"})
	candidates.Put(domain.Candidate{ID: "cand-1", EventID: "evt-1", Name: "Mai"})
	tickets.Put(domain.TicketTier{ID: "tkt-vip", EventID: "evt-1", Name: "VIP", Price: 50, AvailableQuantity: 1})
	forms.Put(domain.Form{ID: "form-1", EventID: "evt-1", Title: "Registration", TokenAmount: 20})

	recon := service.NewReconciliationRecorder(memory.NewReconciliationRepo(), log)
	retrier := service.NewLogRetrier(txRepo, cfg, log)
	transfer := service.NewTransferService(
		accounts, txRepo,
		redisStorage.NewIdempotencyCache(rdb), redisStorage.NewClaimStore(rdb),
		nil, retrier, recon, cfg, logger.Component(log, "transfer"),
	)
	actors := middleware.ContextActorProvider{}
	tokens := service.NewJWTTokenService("test-jwt-secret-key-32bytes!!", time.Hour, "test-issuer")

	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		VoteSvc:        service.NewVoteService(transfer, actors, events, candidates, recon, cfg, log),
		GiftSvc:        service.NewGiftService(transfer, actors, events, candidates, recon, cfg, log),
		TicketSvc:      service.NewTicketService(transfer, actors, events, tickets, purchases, recon, cfg, log),
		FormSvc:        service.NewFormService(transfer, actors, events, forms, submissions, recon, cfg, log),
		WalletSvc:      service.NewWalletService(accounts, txRepo, transfer, actors),
		TokenSvc:       tokens,
		AuditSvc:       service.NewAuditService(auditRepo, log),
		RateLimitStore: redisStorage.NewRateLimitStore(rdb),
		RateLimitRules: middleware.RateLimitRules(limits),
		HealthCheckers: []ports.HealthChecker{redisStorage.NewHealthCheck(rdb)},
		Logger:         log,
	})

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &testApp{server: server, tokens: tokens, accounts: accounts, audit: auditRepo, cands: candidates}
}

func defaultLimits() config.RateLimitConfig {
	return config.RateLimitConfig{Enabled: true, Spend: 1000, Read: 1000, Topup: 1000, Window: time.Minute}
}

func (a *testApp) token(t *testing.T, accountID, role string) string {
	t.Helper()
	tok, _, err := a.tokens.Generate(ports.Actor{AccountID: accountID, Role: role})
	require.NoError(t, err)
	return tok
}

type apiResponse struct {
	Data      map[string]any `json:"data"`
	ErrorCode string         `json:"error_code"`
	Details   map[string]any `json:"details"`
}

func (a *testApp) do(t *testing.T, method, path, token string, body any) (int, apiResponse) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, a.server.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out apiResponse
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

func (a *testApp) topup(t *testing.T, accountID string, amount int64) {
	t.Helper()
	status, resp := a.do(t, http.MethodPost, "/api/v1/wallet/topup", a.token(t, "ops", ports.RoleAdmin), map[string]any{
		"account_id": accountID, "amount": amount, "request_id": fmt.Sprintf("seed-%d", time.Now().UnixNano()),
	})
	require.Equal(t, http.StatusCreated, status, "topup: %+v", resp)
}

func TestAPI_HealthCheck(t *testing.T) {
	app := newTestApp(t, defaultLimits())

	resp, err := http.Get(app.server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "healthy", body["status"])
}

func TestAPI_RequiresToken(t *testing.T) {
	app := newTestApp(t, defaultLimits())

	status, resp := app.do(t, http.MethodGet, "/api/v1/wallet", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "AUTH_001", resp.ErrorCode)

	status, resp = app.do(t, http.MethodGet, "/api/v1/wallet", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "AUTH_002", resp.ErrorCode)

	status, _ = app.do(t, http.MethodGet, "/api/v1/gifts", "", nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestAPI_TopupIsAdminOnly(t *testing.T) {
	app := newTestApp(t, defaultLimits())

	status, resp := app.do(t, http.MethodPost, "/api/v1/wallet/topup", app.token(t, "alice", ""), map[string]any{
		"account_id": "alice", "amount": 1000, "request_id": "t1",
	})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "AUTH_003", resp.ErrorCode)

	status, _ = app.do(t, http.MethodGet, "/api/v1/wallet", app.token(t, "alice", ""), nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestAPI_VoteFlow(t *testing.T) {
	app := newTestApp(t, defaultLimits())
	app.topup(t, "alice", 100)
	alice := app.token(t, "alice", "")

	status, resp := app.do(t, http.MethodPost, "/api/v1/events/evt-1/candidates/cand-1/votes", alice, map[string]any{
		"vote_count": 3, "request_id": "r1",
	})
	require.Equal(t, http.StatusCreated, status, "%+v", resp)
	assert.Equal(t, float64(97), resp.Data["balance"])
	assert.Equal(t, float64(3), resp.Data["vote_count"])

	// Same request id replays without moving tokens again.
	status, resp = app.do(t, http.MethodPost, "/api/v1/events/evt-1/candidates/cand-1/votes", alice, map[string]any{
		"vote_count": 3, "request_id": "r1",
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, resp.Data["replayed"])

	status, resp = app.do(t, http.MethodGet, "/api/v1/wallet", alice, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(97), resp.Data["balance"])
	assert.Equal(t, "Vote for Mai in Finals", resp.Data["last_action"])

	status, resp = app.do(t, http.MethodGet, "/api/v1/wallet/transactions?kind=VOTE", alice, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(1), resp.Data["total"])

	owner, err := app.accounts.GetBalance(t.Context(), "owner")
	require.NoError(t, err)
	assert.Equal(t, int64(3), owner)

	assert.Eventually(t, func() bool {
		for _, entry := range app.audit.Logs() {
			if entry.Action == domain.AuditActionVote && entry.ResourceID == "vote:alice:r1" {
				return true
			}
		}
		return false
	}, time.Second, 10*time.Millisecond)
}

func TestAPI_InsufficientFunds(t *testing.T) {
	app := newTestApp(t, defaultLimits())
	app.topup(t, "alice", 2)

	status, resp := app.do(t, http.MethodPost, "/api/v1/events/evt-1/candidates/cand-1/votes", app.token(t, "alice", ""), map[string]any{
		"vote_count": 3, "request_id": "r1",
	})
	assert.Equal(t, http.StatusPaymentRequired, status)
	assert.Equal(t, "LED_001", resp.ErrorCode)
	assert.Equal(t, float64(3), resp.Details["required"])
	assert.Equal(t, float64(2), resp.Details["available"])
}

func TestAPI_TicketAndForm(t *testing.T) {
	app := newTestApp(t, defaultLimits())
	app.topup(t, "alice", 100)
	app.topup(t, "bob", 100)

	status, resp := app.do(t, http.MethodPost, "/api/v1/tickets/tkt-vip/purchases", app.token(t, "alice", ""), map[string]any{"request_id": "p1"})
	require.Equal(t, http.StatusCreated, status, "%+v", resp)
	assert.Equal(t, float64(50), resp.Data["balance"])

	status, resp = app.do(t, http.MethodPost, "/api/v1/tickets/tkt-vip/purchases", app.token(t, "bob", ""), map[string]any{"request_id": "p1"})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "DOM_001", resp.ErrorCode)

	status, resp = app.do(t, http.MethodPost, "/api/v1/forms/form-1/submissions", app.token(t, "bob", ""), map[string]any{
		"answers": map[string]string{"name": "Bob"}, "request_id": "f1",
	})
	require.Equal(t, http.StatusCreated, status, "%+v", resp)
	assert.Equal(t, float64(80), resp.Data["balance"])
}

func TestAPI_UnknownGift(t *testing.T) {
	app := newTestApp(t, defaultLimits())
	app.topup(t, "alice", 100)

	status, resp := app.do(t, http.MethodPost, "/api/v1/events/evt-1/candidates/cand-1/gifts", app.token(t, "alice", ""), map[string]any{
		"gift_name": "Rocket", "request_id": "g1",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "DOM_003", resp.ErrorCode)
}

func TestAPI_SpendRateLimited(t *testing.T) {
	limits := defaultLimits()
	limits.Spend = 2
	app := newTestApp(t, limits)
	app.topup(t, "alice", 100)
	alice := app.token(t, "alice", "")

	for i := 0; i < 2; i++ {
		status, _ := app.do(t, http.MethodPost, "/api/v1/events/evt-1/candidates/cand-1/votes", alice, map[string]any{
			"vote_count": 1, "request_id": fmt.Sprintf("r%d", i),
		})
		require.Equal(t, http.StatusCreated, status)
	}

	status, resp := app.do(t, http.MethodPost, "/api/v1/events/evt-1/candidates/cand-1/votes", alice, map[string]any{
		"vote_count": 1, "request_id": "r-over",
	})
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.Equal(t, "RATE_001", resp.ErrorCode)

	// Other accounts have their own budget.
	app.topup(t, "bob", 10)
	status, _ = app.do(t, http.MethodPost, "/api/v1/events/evt-1/candidates/cand-1/votes", app.token(t, "bob", ""), map[string]any{
		"vote_count": 1, "request_id": "r0",
	})
	assert.Equal(t, http.StatusCreated, status)
}

// TestAPI_ConcurrentVotesNeverOverspend fires more single-token votes than
// alice can afford; exactly her balance worth must succeed.
func TestAPI_ConcurrentVotesNeverOverspend(t *testing.T) {
	app := newTestApp(t, defaultLimits())
	app.topup(t, "alice", 25)
	alice := app.token(t, "alice", "")

	const attempts = 40
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results = map[int]int{}
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			status, _ := app.do(t, http.MethodPost, "/api/v1/events/evt-1/candidates/cand-1/votes", alice, map[string]any{
				"vote_count": 1, "request_id": fmt.Sprintf("c%d", i),
			})
			mu.Lock()
			results[status]++
			mu.Unlock()
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 25, results[http.StatusCreated])
	assert.Equal(t, attempts-25, results[http.StatusPaymentRequired])

	balance, err := app.accounts.GetBalance(t.Context(), "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(0), balance)

	owner, err := app.accounts.GetBalance(t.Context(), "owner")
	require.NoError(t, err)
	assert.Equal(t, int64(25), owner)

	cand, err := app.cands.GetByID(t.Context(), "cand-1")
	require.NoError(t, err)
	assert.Equal(t, int64(25), cand.Votes)
}
