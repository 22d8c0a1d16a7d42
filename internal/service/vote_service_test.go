package service

import (
	"context"
	"errors"
	"testing"

	"event-token-ledger/internal/core/domain"
	"event-token-ledger/internal/core/ports"
	"event-token-ledger/internal/core/ports/mocks"
	"event-token-ledger/pkg/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func voteReq(requestID string, count int64) ports.VoteRequest {
	return ports.VoteRequest{EventID: "evt-1", CandidateID: "cand-1", VoteCount: count, RequestID: requestID}
}

func TestVote_ChargesAndCounts(t *testing.T) {
	w := newWorld(t)
	w.fund(t, "alice", 100)

	out, err := w.voteService().Vote(as("alice"), voteReq("r1", 3))
	require.NoError(t, err)

	assert.Equal(t, int64(97), out.Balance)
	assert.Equal(t, int64(3), out.VoteCount)
	assert.Equal(t, int64(3), out.Candidate.Votes)
	assert.False(t, out.Replayed)

	assert.Equal(t, "vote:alice:r1", out.Transaction.ID)
	assert.Equal(t, "Vote for Mai in Finals", out.Transaction.Description)
	assert.Equal(t, "vote_cand-1", out.Transaction.Reference)
	assert.Equal(t, domain.TransactionKindVote, out.Transaction.Kind)

	assert.Equal(t, int64(97), w.balance(t, "alice"))
	assert.Equal(t, int64(3), w.balance(t, "owner"))

	cand, err := w.candidates.GetByID(context.Background(), "cand-1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), cand.Votes)
	assert.Equal(t, int64(0), cand.Points)
}

func TestVote_RecomputesPoints(t *testing.T) {
	w := newWorld(t)
	w.fund(t, "alice", 100)

	out, err := w.voteService().Vote(as("alice"), voteReq("r1", 25))
	require.NoError(t, err)
	assert.Equal(t, int64(2), out.Candidate.Points)
}

func TestVote_ReplayAppliesOnce(t *testing.T) {
	w := newWorld(t)
	w.fund(t, "alice", 100)
	svc := w.voteService()

	_, err := svc.Vote(as("alice"), voteReq("r1", 3))
	require.NoError(t, err)

	out, err := svc.Vote(as("alice"), voteReq("r1", 3))
	require.NoError(t, err)
	assert.True(t, out.Replayed)
	assert.Equal(t, int64(97), out.Balance)
	assert.Equal(t, int64(3), out.Candidate.Votes)

	assert.Equal(t, int64(97), w.balance(t, "alice"))
	assert.Equal(t, 1, w.txRepo.Len())
}

func TestVote_TokenPerVote(t *testing.T) {
	w := newWorld(t)
	w.fund(t, "alice", 100)

	cfg := testLedgerConfig()
	cfg.TokenPerVote = 5
	svc := NewVoteService(w.svc, ctxActors{}, w.events, w.candidates, w.reconciler(), cfg, newTestLogger())

	out, err := svc.Vote(as("alice"), voteReq("r1", 3))
	require.NoError(t, err)
	assert.Equal(t, int64(15), out.Transaction.Amount)
	assert.Equal(t, int64(85), out.Balance)
	assert.Equal(t, int64(3), out.Candidate.Votes)
}

func TestVote_InsufficientFunds(t *testing.T) {
	w := newWorld(t)
	w.fund(t, "alice", 2)

	_, err := w.voteService().Vote(as("alice"), voteReq("r1", 3))
	assertAppError(t, err, apperror.CodeInsufficientFunds)

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, int64(3), appErr.Details["required"])
	assert.Equal(t, int64(2), appErr.Details["available"])

	cand, err := w.candidates.GetByID(context.Background(), "cand-1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), cand.Votes)
	assert.Equal(t, int64(2), w.balance(t, "alice"))
}

func TestVote_Rejections(t *testing.T) {
	tests := []struct {
		name string
		ctx  context.Context
		req  ports.VoteRequest
		code string
	}{
		{"anonymous", context.Background(), voteReq("r1", 3), "AUTH_001"},
		{"zero votes", as("alice"), voteReq("r1", 0), apperror.CodeInvalidAmount},
		{"negative votes", as("alice"), voteReq("r1", -2), apperror.CodeInvalidAmount},
		{"missing request id", as("alice"), voteReq("", 1), "VAL_001"},
		{"unknown event", as("alice"), ports.VoteRequest{EventID: "nope", CandidateID: "cand-1", VoteCount: 1, RequestID: "r"}, "DOM_002"},
		{"unknown candidate", as("alice"), ports.VoteRequest{EventID: "evt-1", CandidateID: "nope", VoteCount: 1, RequestID: "r"}, "DOM_002"},
		{"candidate of other event", as("alice"), ports.VoteRequest{EventID: "evt-1", CandidateID: "cand-9", VoteCount: 1, RequestID: "r"}, "DOM_002"},
		{"owner votes in own event", as("owner"), voteReq("r1", 1), apperror.CodeSameAccount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := newWorld(t)
			w.fund(t, "alice", 100)
			w.fund(t, "owner", 100)

			_, err := w.voteService().Vote(tt.ctx, tt.req)
			assertAppError(t, err, tt.code)
			assert.Equal(t, int64(100), w.balance(t, "alice"))
			assert.Equal(t, 0, w.txRepo.Len())
		})
	}
}

func TestVote_EffectFailureIsReported(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	w := newWorld(t)
	w.fund(t, "alice", 100)

	candidates := mocks.NewMockCandidateRepository(ctrl)
	candidates.EXPECT().GetByID(gomock.Any(), "cand-1").
		Return(&domain.Candidate{ID: "cand-1", EventID: "evt-1", Name: "Mai"}, nil)
	candidates.EXPECT().AddVotes(gomock.Any(), "cand-1", int64(3)).
		Return(nil, errors.New("candidate store down")).Times(3)

	svc := NewVoteService(w.svc, ctxActors{}, w.events, candidates, w.reconciler(), testLedgerConfig(), newTestLogger())

	_, err := svc.Vote(as("alice"), voteReq("r1", 3))
	assertAppError(t, err, apperror.CodeEffectApplicationFailed)

	// Tokens moved and are not silently lost.
	assert.Equal(t, int64(97), w.balance(t, "alice"))
	cases := w.cases(t)
	require.Len(t, cases, 1)
	assert.Equal(t, domain.ReconciliationEffectFailed, cases[0].Kind)
	assert.Equal(t, "vote:alice:r1", cases[0].TransactionID)
}
