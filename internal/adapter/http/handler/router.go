package handler

import (
	"event-token-ledger/internal/adapter/http/middleware"
	redisStore "event-token-ledger/internal/adapter/storage/redis"
	"event-token-ledger/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const defaultMaxBodyBytes = 64 << 10

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	VoteSvc        ports.VoteService
	GiftSvc        ports.GiftService
	TicketSvc      ports.TicketService
	FormSvc        ports.FormService
	WalletSvc      ports.WalletService
	TokenSvc       ports.TokenService
	AuditSvc       ports.AuditService         // nil = audit logging disabled
	RateLimitStore *redisStore.RateLimitStore // nil = rate limiting disabled
	RateLimitRules map[string]middleware.RateLimitRule
	HealthCheckers []ports.HealthChecker
	MaxBodyBytes   int64
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()

	maxBody := deps.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = defaultMaxBodyBytes
	}

	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(maxBody))

	// Audit logging runs after the response is written.
	if deps.AuditSvc != nil {
		r.Use(middleware.AuditLog(deps.AuditSvc))
	}

	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	swagger := r.Group("/swagger")
	{
		swagger.GET("", SwaggerUI)
		swagger.GET("/spec", SwaggerSpec)
	}

	rl := func(group string) gin.HandlerFunc {
		rule, ok := deps.RateLimitRules[group]
		if deps.RateLimitStore == nil || !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rule, deps.Logger)
	}

	v1 := r.Group("/api/v1")
	v1.GET("/gifts", rl(middleware.GroupRead), GiftCatalog)

	jwtAuth := middleware.JWTAuth(deps.TokenSvc, deps.Logger)
	authed := v1.Group("", jwtAuth)

	walletHandler := NewWalletHandler(deps.WalletSvc)
	wallet := authed.Group("/wallet")
	{
		wallet.GET("", rl(middleware.GroupRead), walletHandler.GetWallet)
		wallet.GET("/transactions", rl(middleware.GroupRead), walletHandler.ListTransactions)
		wallet.POST("/topup", middleware.RequireAdmin(), rl(middleware.GroupTopup), walletHandler.Topup)
	}

	spend := NewSpendHandler(deps.VoteSvc, deps.GiftSvc, deps.TicketSvc, deps.FormSvc)
	spendRL := rl(middleware.GroupSpend)
	authed.POST("/events/:eventID/candidates/:candidateID/votes", spendRL, spend.Vote)
	authed.POST("/events/:eventID/candidates/:candidateID/gifts", spendRL, spend.SendGift)
	authed.POST("/tickets/:ticketID/purchases", spendRL, spend.PurchaseTicket)
	authed.POST("/forms/:formID/submissions", spendRL, spend.SubmitForm)

	return r
}
