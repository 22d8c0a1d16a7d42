package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"event-token-ledger/config"
	"event-token-ledger/internal/core/domain"
	"event-token-ledger/internal/core/ports"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"
)

// LogRetrier re-records transactions whose log write failed after the balances
// had already moved. It is the only background worker in the ledger.
type LogRetrier struct {
	txRepo   ports.TransactionRepository
	queue    chan *domain.Transaction
	attempts uint64
	interval time.Duration
	log      zerolog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewLogRetrier creates a retrier. Call Start before enqueueing.
func NewLogRetrier(txRepo ports.TransactionRepository, cfg config.LedgerConfig, log zerolog.Logger) *LogRetrier {
	size := cfg.LogRetryQueue
	if size <= 0 {
		size = 1
	}
	interval := cfg.LogRetryInterval
	if interval <= 0 {
		interval = time.Second
	}
	return &LogRetrier{
		txRepo:   txRepo,
		queue:    make(chan *domain.Transaction, size),
		attempts: cfg.LogRetryAttempts,
		interval: interval,
		log:      log,
	}
}

// Enqueue hands tx to the worker. It returns false when the queue is full.
func (r *LogRetrier) Enqueue(tx *domain.Transaction) bool {
	select {
	case r.queue <- tx:
		return true
	default:
		return false
	}
}

// Start launches the worker. It stops when ctx is cancelled or Stop is called.
func (r *LogRetrier) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		return
	}
	ctx, r.cancel = context.WithCancel(ctx)
	r.wg.Add(1)
	go r.run(ctx)
}

// Stop cancels the worker and makes one last attempt for anything still queued.
func (r *LogRetrier) Stop() {
	r.mu.Lock()
	cancel := r.cancel
	r.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	r.wg.Wait()
}

func (r *LogRetrier) run(ctx context.Context) {
	defer r.wg.Done()
	for {
		// Shutdown wins over pending work; drain handles what is left.
		select {
		case <-ctx.Done():
			r.drain()
			return
		default:
		}

		select {
		case <-ctx.Done():
			r.drain()
			return
		case tx := <-r.queue:
			r.write(ctx, tx)
		}
	}
}

func (r *LogRetrier) write(ctx context.Context, tx *domain.Transaction) {
	backoff := retry.WithMaxRetries(r.attempts, retry.NewExponential(r.interval))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := r.txRepo.Record(ctx, tx)
		if err == nil || errors.Is(err, domain.ErrDuplicateTransaction) {
			return nil
		}
		return retry.RetryableError(err)
	})
	switch {
	case err == nil:
		r.log.Info().Str("tx_id", tx.ID).Msg("transaction log entry recovered")
	case ctx.Err() != nil:
		r.final(tx)
	default:
		r.lost(tx, err)
	}
}

func (r *LogRetrier) drain() {
	for {
		select {
		case tx := <-r.queue:
			r.final(tx)
		default:
			return
		}
	}
}

// final makes one attempt that is not bound to the worker's context.
func (r *LogRetrier) final(tx *domain.Transaction) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := r.txRepo.Record(ctx, tx)
	if err != nil && !errors.Is(err, domain.ErrDuplicateTransaction) {
		r.lost(tx, err)
	}
}

func (r *LogRetrier) lost(tx *domain.Transaction, err error) {
	r.log.Error().Err(err).
		Str("tx_id", tx.ID).
		Str("payer", tx.PayerID).
		Str("payee", tx.PayeeID).
		Int64("amount", tx.Amount).
		Str("reference", tx.Reference).
		Msg("transaction log entry lost after retries")
}
