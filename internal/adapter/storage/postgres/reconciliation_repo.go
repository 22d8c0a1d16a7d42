package postgres

import (
	"context"
	"fmt"

	"event-token-ledger/internal/core/domain"
)

// ReconciliationRepo implements ports.ReconciliationRepository.
type ReconciliationRepo struct {
	pool Pool
}

func NewReconciliationRepo(pool Pool) *ReconciliationRepo {
	return &ReconciliationRepo{pool: pool}
}

func (r *ReconciliationRepo) Create(ctx context.Context, c *domain.ReconciliationCase) error {
	query := `INSERT INTO reconciliation_cases
		(case_id, kind, transaction_id, account_id, reference, amount, detail, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.pool.Exec(ctx, query,
		c.ID, c.Kind, c.TransactionID, c.AccountID, c.Reference, c.Amount, c.Detail, c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert reconciliation case: %w", err)
	}
	return nil
}

// List returns the most recent cases first.
func (r *ReconciliationRepo) List(ctx context.Context, limit int) ([]domain.ReconciliationCase, error) {
	query := `SELECT case_id, kind, transaction_id, account_id, reference, amount, detail, created_at
		FROM reconciliation_cases ORDER BY created_at DESC LIMIT $1`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list reconciliation cases: %w", err)
	}
	defer rows.Close()

	var cases []domain.ReconciliationCase
	for rows.Next() {
		c := domain.ReconciliationCase{}
		if err := rows.Scan(&c.ID, &c.Kind, &c.TransactionID, &c.AccountID,
			&c.Reference, &c.Amount, &c.Detail, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan reconciliation case: %w", err)
		}
		cases = append(cases, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reconciliation cases: %w", err)
	}
	return cases, nil
}
