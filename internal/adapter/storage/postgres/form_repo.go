package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"event-token-ledger/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// FormRepo implements ports.FormRepository.
type FormRepo struct {
	pool Pool
}

func NewFormRepo(pool Pool) *FormRepo {
	return &FormRepo{pool: pool}
}

func (r *FormRepo) GetByID(ctx context.Context, id string) (*domain.Form, error) {
	f := &domain.Form{}
	err := r.pool.QueryRow(ctx,
		`SELECT form_id, event_id, title, token_amount FROM forms WHERE form_id = $1`, id,
	).Scan(&f.ID, &f.EventID, &f.Title, &f.TokenAmount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get form: %w", err)
	}
	return f, nil
}

// SubmissionRepo implements ports.SubmissionRepository. Answers are stored as JSONB.
type SubmissionRepo struct {
	pool Pool
}

func NewSubmissionRepo(pool Pool) *SubmissionRepo {
	return &SubmissionRepo{pool: pool}
}

func (r *SubmissionRepo) Create(ctx context.Context, s *domain.FormSubmission) error {
	answers, err := json.Marshal(s.Answers)
	if err != nil {
		return fmt.Errorf("marshal answers: %w", err)
	}

	query := `INSERT INTO form_submissions (submission_id, form_id, account_id, transaction_id, answers, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (transaction_id) DO NOTHING`

	tag, err := r.pool.Exec(ctx, query, s.ID, s.FormID, s.AccountID, s.TransactionID, answers, s.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert form submission: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrDuplicateTransaction
	}
	return nil
}

func (r *SubmissionRepo) GetByTransactionID(ctx context.Context, transactionID string) (*domain.FormSubmission, error) {
	query := `SELECT submission_id, form_id, account_id, transaction_id, answers, created_at
		FROM form_submissions WHERE transaction_id = $1`

	s := &domain.FormSubmission{}
	var answers []byte
	err := r.pool.QueryRow(ctx, query, transactionID).Scan(
		&s.ID, &s.FormID, &s.AccountID, &s.TransactionID, &answers, &s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get form submission: %w", err)
	}
	if err := json.Unmarshal(answers, &s.Answers); err != nil {
		return nil, fmt.Errorf("unmarshal answers: %w", err)
	}
	return s, nil
}
