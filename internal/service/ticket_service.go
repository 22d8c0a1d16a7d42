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

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// TicketServiceImpl implements ports.TicketService. Inventory is reserved
// before any tokens move so a sold out tier never charges the buyer.
type TicketServiceImpl struct {
	spender
	events    ports.EventRepository
	tickets   ports.TicketRepository
	purchases ports.PurchaseRepository
}

func NewTicketService(
	transfer ports.TransferService,
	actors ports.ActorProvider,
	events ports.EventRepository,
	tickets ports.TicketRepository,
	purchases ports.PurchaseRepository,
	recon ports.ReconciliationRecorder,
	cfg config.LedgerConfig,
	log zerolog.Logger,
) *TicketServiceImpl {
	return &TicketServiceImpl{
		spender:   spender{transfer: transfer, actors: actors, recon: recon, cfg: cfg, log: log},
		events:    events,
		tickets:   tickets,
		purchases: purchases,
	}
}

func (s *TicketServiceImpl) Purchase(ctx context.Context, req ports.TicketPurchaseRequest) (*ports.TicketOutcome, error) {
	actor, err := s.actor(ctx)
	if err != nil {
		return nil, err
	}
	if req.RequestID == "" {
		return nil, apperror.Validation("request_id is required")
	}

	ticket, err := s.tickets.GetByID(ctx, req.TicketID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("get ticket: %w", err))
	}
	if ticket == nil {
		return nil, apperror.ErrNotFound("Ticket")
	}
	if ticket.Price <= 0 {
		return nil, apperror.ErrMisconfigured("Ticket has no price")
	}
	event, err := s.events.GetByID(ctx, ticket.EventID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("get event: %w", err))
	}
	if event == nil {
		return nil, apperror.ErrNotFound("Event")
	}
	if event.OwnerAccountID == "" {
		return nil, apperror.ErrMisconfigured("Event has no owner account")
	}

	txID := domain.BuildTransactionID(domain.TransactionKindTicket, actor.AccountID, req.RequestID)

	existing, err := s.purchases.GetByTransactionID(ctx, txID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("get purchase: %w", err))
	}
	settled, err := s.transfer.Lookup(ctx, txID)
	if err != nil {
		return nil, err
	}
	if existing != nil && settled == nil {
		// Purchase stored but its log entry is still pending in the retrier.
		return &ports.TicketOutcome{
			SpendResult: ports.SpendResult{Replayed: true},
			Purchase:    existing,
		}, nil
	}

	// A settled transaction already holds its unit of inventory.
	reserved := false
	if settled == nil {
		if _, err := s.tickets.Reserve(ctx, ticket.ID); err != nil {
			if errors.Is(err, domain.ErrSoldOut) {
				return nil, apperror.ErrSoldOut()
			}
			return nil, apperror.ErrDatabaseError(fmt.Errorf("reserve ticket: %w", err))
		}
		reserved = true
	}

	res, err := s.pay(ctx, ports.TransferRequest{
		TransactionID: txID,
		PayerID:       actor.AccountID,
		PayeeID:       event.OwnerAccountID,
		Amount:        ticket.Price,
		Description:   fmt.Sprintf("Ticket %s for %s", ticket.Name, event.Title),
		Reference:     domain.BuildReference("ticket", ticket.ID),
		Kind:          domain.TransactionKindTicket,
	})
	if err != nil {
		if reserved {
			s.release(ctx, ticket, txID, err)
		}
		return nil, err
	}
	if res.Replayed && reserved {
		// Another request with the same id settled while we were reserving.
		s.release(ctx, ticket, txID, nil)
	}

	out := &ports.TicketOutcome{SpendResult: newSpendResult(res), Purchase: existing}
	if existing != nil {
		return out, nil
	}

	err = s.applyEffect(ctx, res.Transaction, func(ctx context.Context) error {
		purchase := &domain.TicketPurchase{
			ID:            uuid.New().String(),
			TicketID:      ticket.ID,
			AccountID:     actor.AccountID,
			TransactionID: txID,
			Price:         ticket.Price,
			CreatedAt:     time.Now().UTC(),
		}
		err := s.purchases.Create(ctx, purchase)
		if errors.Is(err, domain.ErrDuplicateTransaction) {
			purchase, err = s.purchases.GetByTransactionID(ctx, txID)
		}
		if err != nil {
			return err
		}
		out.Purchase = purchase
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("tx_id", txID).
		Str("ticket_id", ticket.ID).
		Int64("price", ticket.Price).
		Msg("ticket purchased")
	return out, nil
}

func (s *TicketServiceImpl) release(ctx context.Context, ticket *domain.TicketTier, txID string, cause error) {
	ctx = context.WithoutCancel(ctx)
	err := s.tickets.Release(ctx, ticket.ID)
	if err == nil {
		return
	}
	detail := fmt.Sprintf("release ticket %s: %v", ticket.ID, err)
	if cause != nil {
		detail += fmt.Sprintf(" (after transfer error: %v)", cause)
	}
	s.recon.Record(ctx, &domain.ReconciliationCase{
		Kind:          domain.ReconciliationInventoryReleaseFailed,
		TransactionID: txID,
		Reference:     domain.BuildReference("ticket", ticket.ID),
		Detail:        detail,
		CreatedAt:     time.Now().UTC(),
	})
}
