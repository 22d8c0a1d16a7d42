package postgres

import (
	"context"
	"errors"
	"fmt"

	"event-token-ledger/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// AccountRepo implements ports.AccountRepository.
// Each balance change is one conditional statement, so concurrent debits on
// the same row serialize on the row lock and none can overdraw.
type AccountRepo struct {
	pool Pool
}

// NewAccountRepo creates a new AccountRepo.
func NewAccountRepo(pool Pool) *AccountRepo {
	return &AccountRepo{pool: pool}
}

// GetBalance returns the balance, or 0 if the account has never been credited.
func (r *AccountRepo) GetBalance(ctx context.Context, accountID string) (int64, error) {
	var balance int64
	err := r.pool.QueryRow(ctx, `SELECT balance FROM accounts WHERE account_id = $1`, accountID).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("get balance: %w", err)
	}
	return balance, nil
}

// Get fetches an account by id.
func (r *AccountRepo) Get(ctx context.Context, accountID string) (*domain.Account, error) {
	query := `SELECT account_id, balance, last_action, created_at, updated_at
		FROM accounts WHERE account_id = $1`

	a := &domain.Account{}
	err := r.pool.QueryRow(ctx, query, accountID).Scan(
		&a.ID, &a.Balance, &a.LastAction, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get account: %w", err)
	}
	return a, nil
}

// Credit upserts the account and adds amount in one statement.
func (r *AccountRepo) Credit(ctx context.Context, accountID string, amount int64, lastAction string) (int64, error) {
	query := `INSERT INTO accounts (account_id, balance, last_action)
		VALUES ($1, $2, $3)
		ON CONFLICT (account_id) DO UPDATE
		SET balance = accounts.balance + EXCLUDED.balance,
			last_action = EXCLUDED.last_action,
			updated_at = NOW()
		RETURNING balance`

	var balance int64
	if err := r.pool.QueryRow(ctx, query, accountID, amount, lastAction).Scan(&balance); err != nil {
		return 0, fmt.Errorf("credit account: %w", err)
	}
	return balance, nil
}

// Debit subtracts amount only when the stored balance covers it.
func (r *AccountRepo) Debit(ctx context.Context, accountID string, amount int64, lastAction string) (int64, error) {
	query := `UPDATE accounts
		SET balance = balance - $1, last_action = $2, updated_at = NOW()
		WHERE account_id = $3 AND balance >= $1
		RETURNING balance`

	var balance int64
	err := r.pool.QueryRow(ctx, query, amount, lastAction, accountID).Scan(&balance)
	if err == nil {
		return balance, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("debit account: %w", err)
	}

	// No row matched: either the account is missing or it is short.
	available, err := r.GetBalance(ctx, accountID)
	if err != nil {
		return 0, err
	}
	return 0, &domain.InsufficientBalanceError{
		AccountID: accountID,
		Required:  amount,
		Available: available,
	}
}
