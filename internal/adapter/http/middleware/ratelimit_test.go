package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"event-token-ledger/config"
	"event-token-ledger/internal/adapter/http/middleware"
	redisStore "event-token-ledger/internal/adapter/storage/redis"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func newRateLimitStore(t *testing.T) (*redisStore.RateLimitStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return redisStore.NewRateLimitStore(client), mr
}

// setupRateLimitRouter lets the X-Test-Account header stand in for JWTAuth.
func setupRateLimitRouter(store *redisStore.RateLimitStore, limit int64) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	rule := middleware.RateLimitRule{Limit: limit, Window: time.Minute}
	fakeAuth := func(c *gin.Context) {
		if id := c.GetHeader("X-Test-Account"); id != "" {
			c.Set(middleware.CtxAccountID, id)
		}
		c.Next()
	}

	r.GET("/test", fakeAuth, middleware.RateLimiter(store, "test", rule, zerolog.Nop()), func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	return r
}

func doGet(router *gin.Engine, account string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequestWithContext(context.Background(), http.MethodGet, "/test", nil)
	if account != "" {
		req.Header.Set("X-Test-Account", account)
	}
	router.ServeHTTP(w, req)
	return w
}

func TestRateLimiter_AllowsWithinLimit(t *testing.T) {
	store, _ := newRateLimitStore(t)
	router := setupRateLimitRouter(store, 3)

	for i := 0; i < 3; i++ {
		w := doGet(router, "")
		assert.Equal(t, 200, w.Code, "request %d should succeed", i+1)
		assert.Equal(t, "3", w.Header().Get("X-RateLimit-Limit"))
		assert.NotEmpty(t, w.Header().Get("X-RateLimit-Remaining"))
		assert.NotEmpty(t, w.Header().Get("X-RateLimit-Reset"))
	}
}

func TestRateLimiter_BlocksOverLimit(t *testing.T) {
	store, _ := newRateLimitStore(t)
	router := setupRateLimitRouter(store, 3)

	for i := 0; i < 3; i++ {
		assert.Equal(t, 200, doGet(router, "").Code)
	}

	w := doGet(router, "")
	assert.Equal(t, 429, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), "RATE_001")
}

func TestRateLimiter_CountsPerAccount(t *testing.T) {
	store, _ := newRateLimitStore(t)
	router := setupRateLimitRouter(store, 3)

	for i := 0; i < 3; i++ {
		assert.Equal(t, 200, doGet(router, "alice").Code)
	}
	assert.Equal(t, 429, doGet(router, "alice").Code)

	// Independent counter for another account.
	assert.Equal(t, 200, doGet(router, "bob").Code)
}

func TestRateLimiter_DegradesOpenWhenRedisDown(t *testing.T) {
	store, mr := newRateLimitStore(t)
	router := setupRateLimitRouter(store, 1)
	mr.Close()

	for i := 0; i < 3; i++ {
		w := doGet(router, "alice")
		assert.Equal(t, 200, w.Code)
		assert.Empty(t, w.Header().Get("X-RateLimit-Limit"))
	}
}

func TestRateLimiter_ZeroLimitDisablesGroup(t *testing.T) {
	store, _ := newRateLimitStore(t)
	router := setupRateLimitRouter(store, 0)

	for i := 0; i < 5; i++ {
		assert.Equal(t, 200, doGet(router, "alice").Code)
	}
}

func TestRateLimitRules(t *testing.T) {
	rules := middleware.RateLimitRules(config.RateLimitConfig{Spend: 120, Read: 300, Topup: 20})

	assert.Equal(t, int64(120), rules[middleware.GroupSpend].Limit)
	assert.Equal(t, int64(300), rules[middleware.GroupRead].Limit)
	assert.Equal(t, int64(20), rules[middleware.GroupTopup].Limit)
	assert.Equal(t, time.Minute, rules[middleware.GroupSpend].Window)

	rules = middleware.RateLimitRules(config.RateLimitConfig{Spend: 1, Window: 10 * time.Second})
	assert.Equal(t, 10*time.Second, rules[middleware.GroupSpend].Window)
}
