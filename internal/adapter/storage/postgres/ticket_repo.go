package postgres

import (
	"context"
	"errors"
	"fmt"

	"event-token-ledger/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// TicketRepo implements ports.TicketRepository.
type TicketRepo struct {
	pool Pool
}

func NewTicketRepo(pool Pool) *TicketRepo {
	return &TicketRepo{pool: pool}
}

func (r *TicketRepo) GetByID(ctx context.Context, id string) (*domain.TicketTier, error) {
	query := `SELECT ticket_id, event_id, name, price, available_quantity
		FROM ticket_tiers WHERE ticket_id = $1`

	t := &domain.TicketTier{}
	err := r.pool.QueryRow(ctx, query, id).Scan(&t.ID, &t.EventID, &t.Name, &t.Price, &t.AvailableQuantity)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get ticket tier: %w", err)
	}
	return t, nil
}

// Reserve takes one ticket out of inventory. Two buyers racing for the last
// ticket both run this statement; only one sees a row come back.
func (r *TicketRepo) Reserve(ctx context.Context, ticketID string) (int64, error) {
	query := `UPDATE ticket_tiers
		SET available_quantity = available_quantity - 1
		WHERE ticket_id = $1 AND available_quantity > 0
		RETURNING available_quantity`

	var remaining int64
	err := r.pool.QueryRow(ctx, query, ticketID).Scan(&remaining)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ErrSoldOut
		}
		return 0, fmt.Errorf("reserve ticket: %w", err)
	}
	return remaining, nil
}

// Release puts one reserved ticket back.
func (r *TicketRepo) Release(ctx context.Context, ticketID string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE ticket_tiers SET available_quantity = available_quantity + 1 WHERE ticket_id = $1`, ticketID)
	if err != nil {
		return fmt.Errorf("release ticket: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("release ticket %s: %w", ticketID, domain.ErrNotFound)
	}
	return nil
}

// PurchaseRepo implements ports.PurchaseRepository.
type PurchaseRepo struct {
	pool Pool
}

func NewPurchaseRepo(pool Pool) *PurchaseRepo {
	return &PurchaseRepo{pool: pool}
}

func (r *PurchaseRepo) Create(ctx context.Context, p *domain.TicketPurchase) error {
	query := `INSERT INTO ticket_purchases (purchase_id, ticket_id, account_id, transaction_id, price, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (transaction_id) DO NOTHING`

	tag, err := r.pool.Exec(ctx, query, p.ID, p.TicketID, p.AccountID, p.TransactionID, p.Price, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert ticket purchase: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrDuplicateTransaction
	}
	return nil
}

func (r *PurchaseRepo) GetByTransactionID(ctx context.Context, transactionID string) (*domain.TicketPurchase, error) {
	query := `SELECT purchase_id, ticket_id, account_id, transaction_id, price, created_at
		FROM ticket_purchases WHERE transaction_id = $1`

	p := &domain.TicketPurchase{}
	err := r.pool.QueryRow(ctx, query, transactionID).Scan(
		&p.ID, &p.TicketID, &p.AccountID, &p.TransactionID, &p.Price, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get ticket purchase: %w", err)
	}
	return p, nil
}
