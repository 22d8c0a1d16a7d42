package service

import (
	"context"
	"time"

	"event-token-ledger/internal/core/domain"
	"event-token-ledger/internal/core/ports"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type reconciliationRecorder struct {
	repo ports.ReconciliationRepository
	log  zerolog.Logger
}

// NewReconciliationRecorder creates a recorder for partially applied
// operations. Every case is logged at error level even if persisting it fails.
func NewReconciliationRecorder(repo ports.ReconciliationRepository, log zerolog.Logger) ports.ReconciliationRecorder {
	return &reconciliationRecorder{repo: repo, log: log}
}

func (r *reconciliationRecorder) Record(ctx context.Context, c *domain.ReconciliationCase) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}

	r.log.Error().
		Str("case_id", c.ID.String()).
		Str("kind", string(c.Kind)).
		Str("tx_id", c.TransactionID).
		Str("account", c.AccountID).
		Str("reference", c.Reference).
		Int64("amount", c.Amount).
		Str("detail", c.Detail).
		Msg("reconciliation required")

	if r.repo == nil {
		return
	}
	if err := r.repo.Create(context.WithoutCancel(ctx), c); err != nil {
		r.log.Error().Err(err).Str("case_id", c.ID.String()).Msg("failed to persist reconciliation case")
	}
}
