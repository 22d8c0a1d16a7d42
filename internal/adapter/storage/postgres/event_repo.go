package postgres

import (
	"context"
	"errors"
	"fmt"

	"event-token-ledger/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// EventRepo implements ports.EventRepository.
type EventRepo struct {
	pool Pool
}

func NewEventRepo(pool Pool) *EventRepo {
	return &EventRepo{pool: pool}
}

func (r *EventRepo) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	e := &domain.Event{}
	err := r.pool.QueryRow(ctx,
		`SELECT event_id, owner_account_id, title FROM events WHERE event_id = $1`, id,
	).Scan(&e.ID, &e.OwnerAccountID, &e.Title)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return e, nil
}
