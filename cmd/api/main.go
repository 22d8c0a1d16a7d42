package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"event-token-ledger/config"
	natsBus "event-token-ledger/internal/adapter/bus/nats"
	httpHandler "event-token-ledger/internal/adapter/http/handler"
	"event-token-ledger/internal/adapter/http/middleware"
	"event-token-ledger/internal/adapter/storage/memory"
	pgStorage "event-token-ledger/internal/adapter/storage/postgres"
	redisStorage "event-token-ledger/internal/adapter/storage/redis"
	"event-token-ledger/internal/core/ports"
	"event-token-ledger/internal/service"
	"event-token-ledger/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// stores groups every repository the services depend on.
type stores struct {
	accounts    ports.AccountRepository
	txRepo      ports.TransactionRepository
	events      ports.EventRepository
	candidates  ports.CandidateRepository
	tickets     ports.TicketRepository
	purchases   ports.PurchaseRepository
	forms       ports.FormRepository
	submissions ports.SubmissionRepository
	recon       ports.ReconciliationRepository
	audit       ports.AuditRepository
	cache       ports.IdempotencyCache
	claims      ports.ClaimStore
}

func main() {
	cfg, err := config.Load(os.Getenv("ETL_CONFIG_FILE"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Str("storage", cfg.Storage.Driver).
		Str("balances", cfg.Storage.BalanceDriver()).
		Msg("Starting Event Token Ledger")

	if cfg.JWT.Secret == "" {
		log.Fatal().Msg("jwt.secret must be set (ETL_JWT_SECRET)")
	}

	ctx := context.Background()
	var healthCheckers []ports.HealthChecker

	var pool *pgxpool.Pool
	if cfg.Storage.Driver == config.DriverPostgres || cfg.Storage.BalanceDriver() == config.DriverPostgres {
		if cfg.Database.AutoMigrate {
			if err := pgStorage.RunMigrations(ctx, cfg.Database.DSN(), "up"); err != nil {
				log.Fatal().Err(err).Msg("Failed to apply migrations")
			}
			log.Info().Msg("Migrations applied")
		}

		pool, err = pgStorage.NewPool(ctx, cfg.Database, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
		}
		defer pool.Close()
		healthCheckers = append(healthCheckers, pgStorage.NewHealthCheck(pool))
	}

	// Redis backs the result cache, claims and rate limits whenever the
	// durable driver is in use, and balances when asked to.
	var rdb *goredis.Client
	if cfg.Storage.Driver == config.DriverPostgres || cfg.Storage.BalanceDriver() == config.DriverRedis {
		rdb, err = redisStorage.NewClient(ctx, cfg.Redis, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer rdb.Close()
		healthCheckers = append(healthCheckers, redisStorage.NewHealthCheck(rdb))
	}

	st, err := buildStores(cfg, pool, rdb, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize storage")
	}

	var publisher ports.EventPublisher
	nc, err := natsBus.Connect(cfg.NATS, logger.Component(log, "nats"))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to NATS")
	}
	if nc != nil {
		defer nc.Drain()
		publisher = natsBus.NewPublisher(nc, cfg.NATS.SubjectPrefix)
		healthCheckers = append(healthCheckers, natsBus.NewHealthCheck(nc))
	}

	// Services
	recon := service.NewReconciliationRecorder(st.recon, logger.Component(log, "reconciliation"))
	retrier := service.NewLogRetrier(st.txRepo, cfg.Ledger, logger.Component(log, "log_retrier"))
	transfer := service.NewTransferService(
		st.accounts, st.txRepo, st.cache, st.claims,
		publisher, retrier, recon, cfg.Ledger, logger.Component(log, "transfer"),
	)
	actors := middleware.ContextActorProvider{}
	tokenSvc := service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)

	retrier.Start(ctx)

	var rateLimitStore *redisStorage.RateLimitStore
	if cfg.RateLimit.Enabled && rdb != nil {
		rateLimitStore = redisStorage.NewRateLimitStore(rdb)
	}

	if specBytes, err := os.ReadFile("docs/api/openapi.yaml"); err == nil {
		httpHandler.SetSwaggerSpec(specBytes)
		log.Info().Msg("OpenAPI spec loaded for Swagger UI at /swagger")
	} else {
		log.Warn().Err(err).Msg("OpenAPI spec not found, Swagger UI will be unavailable")
	}

	gin.SetMode(cfg.Server.Mode)
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		VoteSvc:        service.NewVoteService(transfer, actors, st.events, st.candidates, recon, cfg.Ledger, logger.Component(log, "vote")),
		GiftSvc:        service.NewGiftService(transfer, actors, st.events, st.candidates, recon, cfg.Ledger, logger.Component(log, "gift")),
		TicketSvc:      service.NewTicketService(transfer, actors, st.events, st.tickets, st.purchases, recon, cfg.Ledger, logger.Component(log, "ticket")),
		FormSvc:        service.NewFormService(transfer, actors, st.events, st.forms, st.submissions, recon, cfg.Ledger, logger.Component(log, "form")),
		WalletSvc:      service.NewWalletService(st.accounts, st.txRepo, transfer, actors),
		TokenSvc:       tokenSvc,
		AuditSvc:       service.NewAuditService(st.audit, logger.Component(log, "audit")),
		RateLimitStore: rateLimitStore,
		RateLimitRules: middleware.RateLimitRules(cfg.RateLimit),
		HealthCheckers: healthCheckers,
		MaxBodyBytes:   cfg.Server.MaxBodyBytes,
		Logger:         log,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// In-flight handlers are done; flush pending transaction log writes.
	retrier.Stop()

	log.Info().Msg("Server exited")
}

func buildStores(cfg *config.Config, pool *pgxpool.Pool, rdb *goredis.Client, log zerolog.Logger) (*stores, error) {
	st := &stores{}

	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		st.txRepo = pgStorage.NewTransactionRepo(pool)
		st.events = pgStorage.NewEventRepo(pool)
		st.candidates = pgStorage.NewCandidateRepo(pool)
		st.tickets = pgStorage.NewTicketRepo(pool)
		st.purchases = pgStorage.NewPurchaseRepo(pool)
		st.forms = pgStorage.NewFormRepo(pool)
		st.submissions = pgStorage.NewSubmissionRepo(pool)
		st.recon = pgStorage.NewReconciliationRepo(pool)
		st.audit = pgStorage.NewAuditRepo(pool)
	case config.DriverMemory:
		events, candidates := memory.NewEventRepo(), memory.NewCandidateRepo()
		tickets, forms := memory.NewTicketRepo(), memory.NewFormRepo()
		if cfg.Storage.SeedFile != "" {
			seed, err := memory.LoadSeed(cfg.Storage.SeedFile)
			if err != nil {
				return nil, err
			}
			seed.Apply(events, candidates, tickets, forms)
			log.Info().Str("file", cfg.Storage.SeedFile).Int("events", len(seed.Events)).Msg("Memory catalog seeded")
		}
		st.txRepo = memory.NewTransactionRepo()
		st.events, st.candidates, st.tickets, st.forms = events, candidates, tickets, forms
		st.purchases = memory.NewPurchaseRepo()
		st.submissions = memory.NewSubmissionRepo()
		st.recon = memory.NewReconciliationRepo()
		st.audit = memory.NewAuditRepo()
		log.Warn().Msg("Memory storage selected: nothing survives a restart")
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}

	switch cfg.Storage.BalanceDriver() {
	case config.DriverPostgres:
		st.accounts = pgStorage.NewAccountRepo(pool)
	case config.DriverRedis:
		st.accounts = redisStorage.NewAccountStore(rdb)
	case config.DriverMemory:
		st.accounts = memory.NewAccountRepo()
	default:
		return nil, fmt.Errorf("unknown balance driver %q", cfg.Storage.BalanceDriver())
	}

	if rdb != nil {
		st.cache = redisStorage.NewIdempotencyCache(rdb)
		st.claims = redisStorage.NewClaimStore(rdb)
	} else {
		st.cache = memory.NewIdempotencyCache()
		st.claims = memory.NewClaimStore()
	}

	return st, nil
}
