package postgres

import (
	"context"
	"testing"

	"event-token-ledger/internal/core/domain"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func candidateRows() *pgxmock.Rows {
	return pgxmock.NewRows([]string{"candidate_id", "event_id", "name", "votes", "gifts", "points"})
}

func TestEventRepo_GetByID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewEventRepo(mock)

	mock.ExpectQuery("SELECT .+ FROM events WHERE event_id").
		WithArgs("gala").
		WillReturnRows(pgxmock.NewRows([]string{"event_id", "owner_account_id", "title"}).
			AddRow("gala", "owner", "Gala Night"))

	e, err := repo.GetByID(context.Background(), "gala")
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Equal(t, "owner", e.OwnerAccountID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepo_GetByID_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT .+ FROM events").
		WithArgs("nope").
		WillReturnError(pgx.ErrNoRows)

	e, err := NewEventRepo(mock).GetByID(context.Background(), "nope")
	assert.NoError(t, err)
	assert.Nil(t, e)
}

func TestCandidateRepo_GetByID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewCandidateRepo(mock)

	mock.ExpectQuery("SELECT .+ FROM candidates WHERE candidate_id").
		WithArgs("cand-1").
		WillReturnRows(candidateRows().AddRow("cand-1", "gala", "Ann", int64(7), int64(50), int64(5)))

	c, err := repo.GetByID(context.Background(), "cand-1")
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, "Ann", c.Name)
	assert.Equal(t, int64(5), c.Points)
}

func TestCandidateRepo_GetByID_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT .+ FROM candidates").
		WithArgs("ghost").
		WillReturnRows(candidateRows())

	c, err := NewCandidateRepo(mock).GetByID(context.Background(), "ghost")
	assert.NoError(t, err)
	assert.Nil(t, c)
}

func TestCandidateRepo_AddVotes(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewCandidateRepo(mock)

	mock.ExpectQuery("UPDATE candidates\\s+SET votes = votes \\+ \\$1, points = \\(votes \\+ \\$1 \\+ gifts\\) / 10").
		WithArgs(int64(3), "cand-1").
		WillReturnRows(candidateRows().AddRow("cand-1", "gala", "Ann", int64(10), int64(0), int64(1)))

	c, err := repo.AddVotes(context.Background(), "cand-1", 3)
	require.NoError(t, err)
	assert.Equal(t, int64(10), c.Votes)
	assert.Equal(t, int64(1), c.Points)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCandidateRepo_AddGifts_Missing(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("UPDATE candidates\\s+SET gifts = gifts \\+ \\$1").
		WithArgs(int64(500), "ghost").
		WillReturnError(pgx.ErrNoRows)

	_, err = NewCandidateRepo(mock).AddGifts(context.Background(), "ghost", 500)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
