package ports

//go:generate mockgen -source=repositories.go -destination=mocks/mock_repositories.go -package=mocks

import (
	"context"

	"event-token-ledger/internal/core/domain"
)

// AccountRepository is the ledger store. Debit and Credit are each a single
// atomic write; a balance is never observed below zero.
type AccountRepository interface {
	// GetBalance returns 0 for an account that does not exist yet.
	GetBalance(ctx context.Context, accountID string) (int64, error)
	// Get returns nil, nil if the account does not exist.
	Get(ctx context.Context, accountID string) (*domain.Account, error)
	// Credit creates the account on first use and returns the new balance.
	Credit(ctx context.Context, accountID string, amount int64, lastAction string) (int64, error)
	// Debit subtracts amount only if the balance covers it. A shortfall returns
	// *domain.InsufficientBalanceError and leaves the account untouched.
	Debit(ctx context.Context, accountID string, amount int64, lastAction string) (int64, error)
}

// TransactionRepository is the append-only transaction log.
type TransactionRepository interface {
	// Record returns domain.ErrDuplicateTransaction if the id is already logged.
	Record(ctx context.Context, tx *domain.Transaction) error
	GetByID(ctx context.Context, id string) (*domain.Transaction, error)
	ListByAccount(ctx context.Context, params TransactionListParams) ([]domain.Transaction, int64, error)
}

// TransactionListParams holds filter + pagination for wallet history.
type TransactionListParams struct {
	AccountID string
	Kind      *domain.TransactionKind
	Page      int
	PageSize  int
}

// Offset converts the 1-based page into a row offset.
func (p TransactionListParams) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.PageSize
}

type EventRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Event, error)
}

// CandidateRepository applies vote and gift effects. Each Add* call is one
// atomic increment that also refreshes points.
type CandidateRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Candidate, error)
	AddVotes(ctx context.Context, candidateID string, votes int64) (*domain.Candidate, error)
	AddGifts(ctx context.Context, candidateID string, value int64) (*domain.Candidate, error)
}

// TicketRepository manages ticket inventory.
type TicketRepository interface {
	GetByID(ctx context.Context, id string) (*domain.TicketTier, error)
	// Reserve decrements available_quantity if it is positive and returns the
	// remaining quantity, or domain.ErrSoldOut.
	Reserve(ctx context.Context, ticketID string) (int64, error)
	// Release returns one reserved ticket to inventory.
	Release(ctx context.Context, ticketID string) error
}

type PurchaseRepository interface {
	// Create returns domain.ErrDuplicateTransaction if a purchase already
	// references the same transaction.
	Create(ctx context.Context, purchase *domain.TicketPurchase) error
	GetByTransactionID(ctx context.Context, transactionID string) (*domain.TicketPurchase, error)
}

type FormRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Form, error)
}

type SubmissionRepository interface {
	// Create returns domain.ErrDuplicateTransaction if a submission already
	// references the same transaction.
	Create(ctx context.Context, submission *domain.FormSubmission) error
	GetByTransactionID(ctx context.Context, transactionID string) (*domain.FormSubmission, error)
}

// ReconciliationRepository stores partially applied operations for operators.
type ReconciliationRepository interface {
	Create(ctx context.Context, c *domain.ReconciliationCase) error
	List(ctx context.Context, limit int) ([]domain.ReconciliationCase, error)
}

type AuditRepository interface {
	Create(ctx context.Context, log *domain.AuditLog) error
}
