package service

import (
	"context"
	"fmt"

	"event-token-ledger/config"
	"event-token-ledger/internal/core/domain"
	"event-token-ledger/internal/core/ports"
	"event-token-ledger/pkg/apperror"

	"github.com/rs/zerolog"
)

// GiftServiceImpl implements ports.GiftService.
type GiftServiceImpl struct {
	spender
	events     ports.EventRepository
	candidates ports.CandidateRepository
}

func NewGiftService(
	transfer ports.TransferService,
	actors ports.ActorProvider,
	events ports.EventRepository,
	candidates ports.CandidateRepository,
	recon ports.ReconciliationRecorder,
	cfg config.LedgerConfig,
	log zerolog.Logger,
) *GiftServiceImpl {
	return &GiftServiceImpl{
		spender:    spender{transfer: transfer, actors: actors, recon: recon, cfg: cfg, log: log},
		events:     events,
		candidates: candidates,
	}
}

// SendGift charges the catalog value of the gift and credits the same value to
// the candidate's gift total.
func (s *GiftServiceImpl) SendGift(ctx context.Context, req ports.GiftRequest) (*ports.GiftOutcome, error) {
	actor, err := s.actor(ctx)
	if err != nil {
		return nil, err
	}
	gift, ok := domain.LookupGift(req.GiftName)
	if !ok {
		return nil, apperror.ErrUnknownGift(req.GiftName)
	}
	if gift.Value <= 0 {
		return nil, apperror.ErrInvalidAmount()
	}
	if req.RequestID == "" {
		return nil, apperror.Validation("request_id is required")
	}

	event, candidate, err := loadCandidate(ctx, s.events, s.candidates, req.EventID, req.CandidateID)
	if err != nil {
		return nil, err
	}

	res, err := s.pay(ctx, ports.TransferRequest{
		TransactionID: domain.BuildTransactionID(domain.TransactionKindGift, actor.AccountID, req.RequestID),
		PayerID:       actor.AccountID,
		PayeeID:       event.OwnerAccountID,
		Amount:        gift.Value,
		Description:   fmt.Sprintf("Gift %s to %s in %s", gift.Name, candidate.Name, event.Title),
		Reference:     domain.BuildReference("gift", candidate.ID),
		Kind:          domain.TransactionKindGift,
	})
	if err != nil {
		return nil, err
	}

	out := &ports.GiftOutcome{
		SpendResult: newSpendResult(res),
		Gift:        gift,
		Candidate:   candidate,
	}
	if res.Replayed {
		return out, nil
	}

	err = s.applyEffect(ctx, res.Transaction, func(ctx context.Context) error {
		updated, err := s.candidates.AddGifts(ctx, candidate.ID, gift.Value)
		if err != nil {
			return err
		}
		out.Candidate = updated
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("tx_id", res.Transaction.ID).
		Str("candidate_id", candidate.ID).
		Str("gift", gift.Name).
		Msg("gift applied")
	return out, nil
}
