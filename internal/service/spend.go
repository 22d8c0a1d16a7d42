package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"event-token-ledger/config"
	"event-token-ledger/internal/core/domain"
	"event-token-ledger/internal/core/ports"
	"event-token-ledger/pkg/apperror"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"
)

// spender is embedded by every use-case adapter. It resolves the actor, pays
// through the transfer engine and applies the domain effect afterwards.
type spender struct {
	transfer ports.TransferService
	actors   ports.ActorProvider
	recon    ports.ReconciliationRecorder
	cfg      config.LedgerConfig
	log      zerolog.Logger
}

func (s *spender) actor(ctx context.Context) (ports.Actor, error) {
	actor, ok := s.actors.CurrentActor(ctx)
	if !ok || actor.AccountID == "" {
		return ports.Actor{}, apperror.ErrUnauthenticated()
	}
	return actor, nil
}

// pay runs the transfer, retrying with the same transaction id while the
// engine reports a retryable failure.
func (s *spender) pay(ctx context.Context, req ports.TransferRequest) (*ports.TransferResult, error) {
	var res *ports.TransferResult
	backoff := retry.WithMaxRetries(s.cfg.TransferRetries, retry.NewExponential(retryInterval(s.cfg.RetryInterval)))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		r, err := s.transfer.Transfer(ctx, req)
		if err != nil {
			if apperror.IsRetryable(err) {
				s.log.Warn().Err(err).Str("tx_id", req.TransactionID).Msg("transfer failed, retrying")
				return retry.RetryableError(err)
			}
			return err
		}
		res = r
		return nil
	})
	if err != nil {
		var appErr *apperror.AppError
		if !errors.As(err, &appErr) {
			// Context cancellation while waiting between attempts.
			return nil, apperror.ErrTransferFailed(err)
		}
		return nil, err
	}
	return res, nil
}

// applyEffect runs fn with bounded retry once tokens have moved. A final
// failure is recorded for reconciliation and surfaced as
// EffectApplicationFailed.
func (s *spender) applyEffect(ctx context.Context, tx *domain.Transaction, fn func(ctx context.Context) error) error {
	ctx = context.WithoutCancel(ctx)
	backoff := retry.WithMaxRetries(s.cfg.EffectRetries, retry.NewConstant(retryInterval(s.cfg.RetryInterval)))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := fn(ctx); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return err
			}
			return retry.RetryableError(err)
		}
		return nil
	})
	if err == nil {
		return nil
	}

	s.recon.Record(ctx, &domain.ReconciliationCase{
		Kind:          domain.ReconciliationEffectFailed,
		TransactionID: tx.ID,
		AccountID:     tx.PayerID,
		Reference:     tx.Reference,
		Amount:        tx.Amount,
		Detail:        fmt.Sprintf("%s: %v", tx.Description, err),
		CreatedAt:     time.Now().UTC(),
	})
	return apperror.ErrEffectApplicationFailed(tx.ID, err)
}

func newSpendResult(res *ports.TransferResult) ports.SpendResult {
	return ports.SpendResult{
		Transaction: res.Transaction,
		Balance:     res.PayerBalance,
		Replayed:    res.Replayed,
	}
}

// retryInterval guards against a zero interval, which go-retry rejects.
func retryInterval(d time.Duration) time.Duration {
	if d <= 0 {
		return 100 * time.Millisecond
	}
	return d
}
