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

// VoteServiceImpl implements ports.VoteService.
type VoteServiceImpl struct {
	spender
	events     ports.EventRepository
	candidates ports.CandidateRepository
}

func NewVoteService(
	transfer ports.TransferService,
	actors ports.ActorProvider,
	events ports.EventRepository,
	candidates ports.CandidateRepository,
	recon ports.ReconciliationRecorder,
	cfg config.LedgerConfig,
	log zerolog.Logger,
) *VoteServiceImpl {
	return &VoteServiceImpl{
		spender:    spender{transfer: transfer, actors: actors, recon: recon, cfg: cfg, log: log},
		events:     events,
		candidates: candidates,
	}
}

// Vote charges voteCount * TokenPerVote and adds the votes to the candidate.
func (s *VoteServiceImpl) Vote(ctx context.Context, req ports.VoteRequest) (*ports.VoteOutcome, error) {
	actor, err := s.actor(ctx)
	if err != nil {
		return nil, err
	}
	if req.VoteCount <= 0 {
		return nil, apperror.ErrInvalidAmount()
	}
	if req.RequestID == "" {
		return nil, apperror.Validation("request_id is required")
	}
	amount := req.VoteCount * s.cfg.TokenPerVote
	if amount <= 0 || amount/s.cfg.TokenPerVote != req.VoteCount {
		return nil, apperror.ErrInvalidAmount()
	}

	event, candidate, err := loadCandidate(ctx, s.events, s.candidates, req.EventID, req.CandidateID)
	if err != nil {
		return nil, err
	}

	res, err := s.pay(ctx, ports.TransferRequest{
		TransactionID: domain.BuildTransactionID(domain.TransactionKindVote, actor.AccountID, req.RequestID),
		PayerID:       actor.AccountID,
		PayeeID:       event.OwnerAccountID,
		Amount:        amount,
		Description:   fmt.Sprintf("Vote for %s in %s", candidate.Name, event.Title),
		Reference:     domain.BuildReference("vote", candidate.ID),
		Kind:          domain.TransactionKindVote,
	})
	if err != nil {
		return nil, err
	}

	out := &ports.VoteOutcome{
		SpendResult: newSpendResult(res),
		VoteCount:   req.VoteCount,
		Candidate:   candidate,
	}
	if res.Replayed {
		return out, nil
	}

	err = s.applyEffect(ctx, res.Transaction, func(ctx context.Context) error {
		updated, err := s.candidates.AddVotes(ctx, candidate.ID, req.VoteCount)
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
		Int64("votes", req.VoteCount).
		Msg("vote applied")
	return out, nil
}

// loadCandidate resolves an event and one of its candidates.
func loadCandidate(
	ctx context.Context,
	events ports.EventRepository,
	candidates ports.CandidateRepository,
	eventID, candidateID string,
) (*domain.Event, *domain.Candidate, error) {
	event, err := events.GetByID(ctx, eventID)
	if err != nil {
		return nil, nil, apperror.ErrDatabaseError(fmt.Errorf("get event: %w", err))
	}
	if event == nil {
		return nil, nil, apperror.ErrNotFound("Event")
	}
	if event.OwnerAccountID == "" {
		return nil, nil, apperror.ErrMisconfigured("Event has no owner account")
	}

	candidate, err := candidates.GetByID(ctx, candidateID)
	if err != nil {
		return nil, nil, apperror.ErrDatabaseError(fmt.Errorf("get candidate: %w", err))
	}
	if candidate == nil || candidate.EventID != event.ID {
		return nil, nil, apperror.ErrNotFound("Candidate")
	}
	return event, candidate, nil
}
