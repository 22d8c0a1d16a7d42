package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"event-token-ledger/config"
	"event-token-ledger/internal/core/domain"
	"event-token-ledger/internal/core/ports"
	"event-token-ledger/pkg/apperror"
	"event-token-ledger/pkg/logger"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"
)

// TransferServiceImpl implements ports.TransferService.
//
// A transfer is a conditional debit followed by a credit. There is no shared
// database transaction between the two, so a failed credit is compensated by
// crediting the payer back. Everything after the debit runs on a context that
// ignores caller cancellation.
type TransferServiceImpl struct {
	accounts  ports.AccountRepository
	txRepo    ports.TransactionRepository
	cache     ports.IdempotencyCache
	claims    ports.ClaimStore
	publisher ports.EventPublisher
	retrier   ports.TransactionLogRetrier
	recon     ports.ReconciliationRecorder
	cfg       config.LedgerConfig
	log       zerolog.Logger
}

// NewTransferService creates a new TransferServiceImpl. publisher and retrier
// may be nil.
func NewTransferService(
	accounts ports.AccountRepository,
	txRepo ports.TransactionRepository,
	cache ports.IdempotencyCache,
	claims ports.ClaimStore,
	publisher ports.EventPublisher,
	retrier ports.TransactionLogRetrier,
	recon ports.ReconciliationRecorder,
	cfg config.LedgerConfig,
	log zerolog.Logger,
) *TransferServiceImpl {
	return &TransferServiceImpl{
		accounts:  accounts,
		txRepo:    txRepo,
		cache:     cache,
		claims:    claims,
		publisher: publisher,
		retrier:   retrier,
		recon:     recon,
		cfg:       cfg,
		log:       log,
	}
}

// Transfer moves req.Amount from the payer to the payee exactly once per
// transaction id.
func (s *TransferServiceImpl) Transfer(ctx context.Context, req ports.TransferRequest) (*ports.TransferResult, error) {
	if req.Amount <= 0 {
		return nil, apperror.ErrInvalidAmount()
	}
	if req.PayerID == "" || req.PayeeID == "" {
		return nil, apperror.Validation("payer and payee are required")
	}
	if req.PayerID == req.PayeeID {
		return nil, apperror.ErrSameAccount()
	}
	if req.TransactionID == "" {
		return nil, apperror.Validation("transaction_id is required")
	}

	kind := req.Kind
	if kind == "" {
		kind = domain.TransactionKindTransfer
	}
	tx := &domain.Transaction{
		ID:          req.TransactionID,
		PayerID:     req.PayerID,
		PayeeID:     req.PayeeID,
		Amount:      req.Amount,
		Description: req.Description,
		Reference:   req.Reference,
		Kind:        kind,
	}
	return s.execute(ctx, tx, true)
}

// TopUp mints tokens into an account. Only the credit side is applied.
func (s *TransferServiceImpl) TopUp(ctx context.Context, req ports.TopUpRequest) (*ports.TransferResult, error) {
	if req.Amount <= 0 || req.Amount > domain.MaxTopUpAmount {
		return nil, apperror.ErrInvalidAmount()
	}
	if req.AccountID == "" {
		return nil, apperror.Validation("account_id is required")
	}
	if req.AccountID == domain.SystemMintAccount {
		return nil, apperror.ErrSameAccount()
	}
	if req.TransactionID == "" {
		return nil, apperror.Validation("transaction_id is required")
	}

	desc := req.Description
	if desc == "" {
		desc = fmt.Sprintf("Top up %d tokens", req.Amount)
	}
	tx := &domain.Transaction{
		ID:          req.TransactionID,
		PayerID:     domain.SystemMintAccount,
		PayeeID:     req.AccountID,
		Amount:      req.Amount,
		Description: desc,
		Reference:   domain.BuildReference("topup", req.AccountID),
		Kind:        domain.TransactionKindTopup,
	}
	return s.execute(ctx, tx, false)
}

// Lookup returns a completed transaction by id, or nil if none exists.
func (s *TransferServiceImpl) Lookup(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	if res := s.cachedResult(ctx, transactionID); res != nil {
		return res.Transaction, nil
	}
	tx, err := s.txRepo.GetByID(ctx, transactionID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("lookup transaction: %w", err))
	}
	return tx, nil
}

func (s *TransferServiceImpl) execute(ctx context.Context, tx *domain.Transaction, debit bool) (*ports.TransferResult, error) {
	if res, err := s.replay(ctx, tx); res != nil || err != nil {
		return res, err
	}

	claimKey := domain.BuildClaimKey(tx.ID)
	token, err := s.claims.Claim(ctx, claimKey, s.cfg.ClaimTTL)
	if err != nil {
		return nil, apperror.ErrTransferFailed(fmt.Errorf("claim transaction: %w", err))
	}
	if token == "" {
		return nil, apperror.ErrTransferFailed(fmt.Errorf("transaction %s already in progress", tx.ID))
	}
	detached := context.WithoutCancel(ctx)
	stopHold := s.hold(detached, claimKey, token)
	defer func() {
		stopHold()
		s.release(detached, claimKey, token)
	}()

	// The previous owner of the claim may have finished between the first
	// lookup and our claim.
	if res, err := s.replay(ctx, tx); res != nil || err != nil {
		return res, err
	}

	var payerBalance int64
	if debit {
		payerBalance, err = s.accounts.Debit(ctx, tx.PayerID, tx.Amount, tx.Description)
		if err != nil {
			var ibe *domain.InsufficientBalanceError
			if errors.As(err, &ibe) {
				return nil, apperror.ErrInsufficientFunds(ibe.Required, ibe.Available)
			}
			return nil, apperror.ErrTransferFailed(fmt.Errorf("debit payer: %w", err))
		}
	}

	payeeBalance, err := s.accounts.Credit(detached, tx.PayeeID, tx.Amount, tx.Description)
	if err != nil {
		s.txLog(tx).Error().Err(err).Msg("credit payee failed")
		if debit {
			s.refund(detached, tx, err)
		}
		return nil, apperror.ErrTransferFailed(fmt.Errorf("credit payee: %w", err))
	}

	tx.CreatedAt = time.Now().UTC()
	s.record(detached, tx)

	result := &ports.TransferResult{
		Transaction:  tx,
		PayerBalance: payerBalance,
		PayeeBalance: payeeBalance,
	}
	s.cacheResult(detached, result)
	s.publish(detached, result, debit)

	s.txLog(tx).Info().Msg("transfer completed")

	return result, nil
}

// replay returns the stored outcome of a transaction id that already
// completed, or nil if it has not.
func (s *TransferServiceImpl) replay(ctx context.Context, tx *domain.Transaction) (*ports.TransferResult, error) {
	if res := s.cachedResult(ctx, tx.ID); res != nil {
		if res.Transaction.PayerID != tx.PayerID {
			return nil, apperror.ErrIdempotencyConflict()
		}
		res.Replayed = true
		return res, nil
	}

	stored, err := s.txRepo.GetByID(ctx, tx.ID)
	if err != nil {
		return nil, apperror.ErrTransferFailed(fmt.Errorf("lookup transaction: %w", err))
	}
	if stored == nil {
		return nil, nil
	}
	if stored.PayerID != tx.PayerID {
		return nil, apperror.ErrIdempotencyConflict()
	}

	res := &ports.TransferResult{Transaction: stored, Replayed: true}
	if stored.PayerID != domain.SystemMintAccount {
		if res.PayerBalance, err = s.accounts.GetBalance(ctx, stored.PayerID); err != nil {
			return nil, apperror.ErrTransferFailed(fmt.Errorf("read payer balance: %w", err))
		}
	}
	if res.PayeeBalance, err = s.accounts.GetBalance(ctx, stored.PayeeID); err != nil {
		return nil, apperror.ErrTransferFailed(fmt.Errorf("read payee balance: %w", err))
	}
	return res, nil
}

func (s *TransferServiceImpl) cachedResult(ctx context.Context, transactionID string) *ports.TransferResult {
	key := domain.BuildResultKey(transactionID)
	cached, err := s.cache.Get(ctx, key)
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("idempotency cache read failed, falling through to log")
		return nil
	}
	if cached == nil {
		return nil
	}
	var res ports.TransferResult
	if err := json.Unmarshal(cached, &res); err != nil || res.Transaction == nil {
		s.log.Warn().Err(err).Str("key", key).Msg("discarding unreadable cached result")
		return nil
	}
	return &res
}

func (s *TransferServiceImpl) cacheResult(ctx context.Context, res *ports.TransferResult) {
	key := domain.BuildResultKey(res.Transaction.ID)
	data, err := json.Marshal(res)
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("failed to marshal transfer result")
		return
	}
	if err := s.cache.Set(ctx, key, data, s.cfg.IdempotencyTTL); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("failed to cache transfer result")
	}
}

func (s *TransferServiceImpl) record(ctx context.Context, tx *domain.Transaction) {
	err := s.txRepo.Record(ctx, tx)
	if err == nil || errors.Is(err, domain.ErrDuplicateTransaction) {
		return
	}
	if s.retrier != nil && s.retrier.Enqueue(tx) {
		s.txLog(tx).Warn().Err(err).Msg("transaction log write failed, queued for retry")
		return
	}
	s.txLog(tx).Error().Err(err).Msg("transaction log write failed and retry queue is unavailable")
}

func (s *TransferServiceImpl) txLog(tx *domain.Transaction) *zerolog.Logger {
	l := logger.Transfer(s.log, tx.ID, string(tx.Kind), tx.PayerID, tx.PayeeID, tx.Amount)
	return &l
}

// refund credits the payer back after a failed payee credit.
func (s *TransferServiceImpl) refund(ctx context.Context, tx *domain.Transaction, cause error) {
	backoff := retry.WithMaxRetries(s.cfg.EffectRetries, retry.NewConstant(retryInterval(s.cfg.RetryInterval)))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if _, err := s.accounts.Credit(ctx, tx.PayerID, tx.Amount, "Refund: "+tx.Description); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err == nil {
		s.txLog(tx).Warn().Err(cause).Msg("transfer rolled back, payer refunded")
		return
	}

	s.recon.Record(ctx, &domain.ReconciliationCase{
		ID:            uuid.New(),
		Kind:          domain.ReconciliationRefundFailed,
		TransactionID: tx.ID,
		AccountID:     tx.PayerID,
		Reference:     tx.Reference,
		Amount:        tx.Amount,
		Detail:        fmt.Sprintf("credit payee %s: %v; refund: %v", tx.PayeeID, cause, err),
		CreatedAt:     time.Now().UTC(),
	})
}

// hold renews the claim every third of ClaimTTL until the returned stop func
// is called. The claim must outlive any slow credit or refund retry.
func (s *TransferServiceImpl) hold(ctx context.Context, key, token string) (stop func()) {
	ttl := s.cfg.ClaimTTL
	interval := ttl / 3
	if interval <= 0 {
		return func() {}
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				ok, err := s.claims.Extend(ctx, key, token, ttl)
				if err != nil {
					if ctx.Err() != nil {
						return
					}
					s.log.Warn().Err(err).Str("key", key).Msg("failed to extend transaction claim")
					continue
				}
				if !ok {
					s.log.Error().Str("key", key).Msg("transaction claim lost while transfer in flight")
					return
				}
			}
		}
	}()
	return func() {
		cancel()
		<-done
	}
}

func (s *TransferServiceImpl) release(ctx context.Context, key, token string) {
	if err := s.claims.Release(ctx, key, token); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("failed to release transaction claim")
	}
}

func (s *TransferServiceImpl) publish(ctx context.Context, res *ports.TransferResult, debit bool) {
	if s.publisher == nil {
		return
	}
	tx := res.Transaction
	if err := s.publisher.PublishTransfer(ctx, domain.TransferCompleted{
		Transaction:  *tx,
		PayerBalance: res.PayerBalance,
		PayeeBalance: res.PayeeBalance,
	}); err != nil {
		s.log.Warn().Err(err).Str("tx_id", tx.ID).Msg("failed to publish transfer event")
	}

	changes := []domain.BalanceChanged{{
		AccountID: tx.PayeeID, Balance: res.PayeeBalance,
	}}
	if debit {
		changes = append(changes, domain.BalanceChanged{AccountID: tx.PayerID, Balance: res.PayerBalance})
	}
	for _, c := range changes {
		c.LastAction = tx.Description
		c.TransactionID = tx.ID
		c.OccurredAt = tx.CreatedAt
		if err := s.publisher.PublishBalance(ctx, c); err != nil {
			s.log.Warn().Err(err).Str("account", c.AccountID).Msg("failed to publish balance event")
		}
	}
}
