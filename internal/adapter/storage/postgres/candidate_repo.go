package postgres

import (
	"context"
	"errors"
	"fmt"

	"event-token-ledger/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

const candidateColumns = `candidate_id, event_id, name, votes, gifts, points`

// CandidateRepo implements ports.CandidateRepository.
// Points are recomputed in the same UPDATE as the counter they depend on.
type CandidateRepo struct {
	pool Pool
}

func NewCandidateRepo(pool Pool) *CandidateRepo {
	return &CandidateRepo{pool: pool}
}

func (r *CandidateRepo) GetByID(ctx context.Context, id string) (*domain.Candidate, error) {
	c, err := scanCandidate(r.pool.QueryRow(ctx,
		`SELECT `+candidateColumns+` FROM candidates WHERE candidate_id = $1`, id))
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	return c, err
}

// AddVotes increments votes by n.
func (r *CandidateRepo) AddVotes(ctx context.Context, candidateID string, votes int64) (*domain.Candidate, error) {
	query := `UPDATE candidates
		SET votes = votes + $1, points = (votes + $1 + gifts) / 10
		WHERE candidate_id = $2
		RETURNING ` + candidateColumns

	c, err := scanCandidate(r.pool.QueryRow(ctx, query, votes, candidateID))
	if err != nil {
		return nil, fmt.Errorf("add votes to %s: %w", candidateID, err)
	}
	return c, nil
}

// AddGifts adds a gift's token value to the candidate's gift total.
func (r *CandidateRepo) AddGifts(ctx context.Context, candidateID string, value int64) (*domain.Candidate, error) {
	query := `UPDATE candidates
		SET gifts = gifts + $1, points = (votes + gifts + $1) / 10
		WHERE candidate_id = $2
		RETURNING ` + candidateColumns

	c, err := scanCandidate(r.pool.QueryRow(ctx, query, value, candidateID))
	if err != nil {
		return nil, fmt.Errorf("add gifts to %s: %w", candidateID, err)
	}
	return c, nil
}

func scanCandidate(row pgx.Row) (*domain.Candidate, error) {
	c := &domain.Candidate{}
	err := row.Scan(&c.ID, &c.EventID, &c.Name, &c.Votes, &c.Gifts, &c.Points)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scan candidate: %w", err)
	}
	return c, nil
}
