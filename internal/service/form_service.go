package service

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"time"

	"event-token-ledger/config"
	"event-token-ledger/internal/core/domain"
	"event-token-ledger/internal/core/ports"
	"event-token-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// FormServiceImpl implements ports.FormService for paid registration forms.
type FormServiceImpl struct {
	spender
	events      ports.EventRepository
	forms       ports.FormRepository
	submissions ports.SubmissionRepository
}

func NewFormService(
	transfer ports.TransferService,
	actors ports.ActorProvider,
	events ports.EventRepository,
	forms ports.FormRepository,
	submissions ports.SubmissionRepository,
	recon ports.ReconciliationRecorder,
	cfg config.LedgerConfig,
	log zerolog.Logger,
) *FormServiceImpl {
	return &FormServiceImpl{
		spender:     spender{transfer: transfer, actors: actors, recon: recon, cfg: cfg, log: log},
		events:      events,
		forms:       forms,
		submissions: submissions,
	}
}

// Submit charges the form's token amount and stores the answers.
func (s *FormServiceImpl) Submit(ctx context.Context, req ports.FormSubmissionRequest) (*ports.FormOutcome, error) {
	actor, err := s.actor(ctx)
	if err != nil {
		return nil, err
	}
	if req.RequestID == "" {
		return nil, apperror.Validation("request_id is required")
	}

	form, err := s.forms.GetByID(ctx, req.FormID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("get form: %w", err))
	}
	if form == nil {
		return nil, apperror.ErrNotFound("Form")
	}
	if form.TokenAmount <= 0 {
		return nil, apperror.ErrMisconfigured("Form has no token amount")
	}
	event, err := s.events.GetByID(ctx, form.EventID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("get event: %w", err))
	}
	if event == nil {
		return nil, apperror.ErrNotFound("Event")
	}
	if event.OwnerAccountID == "" {
		return nil, apperror.ErrMisconfigured("Event has no owner account")
	}

	txID := domain.BuildTransactionID(domain.TransactionKindForm, actor.AccountID, req.RequestID)
	existing, err := s.submissions.GetByTransactionID(ctx, txID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("get submission: %w", err))
	}
	if existing != nil {
		settled, err := s.transfer.Lookup(ctx, txID)
		if err != nil {
			return nil, err
		}
		if settled == nil {
			return &ports.FormOutcome{SpendResult: ports.SpendResult{Replayed: true}, Submission: existing}, nil
		}
	}

	res, err := s.pay(ctx, ports.TransferRequest{
		TransactionID: txID,
		PayerID:       actor.AccountID,
		PayeeID:       event.OwnerAccountID,
		Amount:        form.TokenAmount,
		Description:   fmt.Sprintf("Form %s for %s", form.Title, event.Title),
		Reference:     domain.BuildReference("form", form.ID),
		Kind:          domain.TransactionKindForm,
	})
	if err != nil {
		return nil, err
	}

	out := &ports.FormOutcome{SpendResult: newSpendResult(res), Submission: existing}
	if existing != nil {
		return out, nil
	}

	err = s.applyEffect(ctx, res.Transaction, func(ctx context.Context) error {
		submission := &domain.FormSubmission{
			ID:            uuid.New().String(),
			FormID:        form.ID,
			AccountID:     actor.AccountID,
			TransactionID: txID,
			Answers:       maps.Clone(req.Answers),
			CreatedAt:     time.Now().UTC(),
		}
		err := s.submissions.Create(ctx, submission)
		if errors.Is(err, domain.ErrDuplicateTransaction) {
			submission, err = s.submissions.GetByTransactionID(ctx, txID)
		}
		if err != nil {
			return err
		}
		out.Submission = submission
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("tx_id", txID).
		Str("form_id", form.ID).
		Int64("amount", form.TokenAmount).
		Msg("form submitted")
	return out, nil
}
