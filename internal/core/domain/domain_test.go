package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputePoints(t *testing.T) {
	tests := []struct {
		name  string
		votes int64
		gifts int64
		want  int64
	}{
		{"nothing", 0, 0, 0},
		{"below one point", 9, 0, 0},
		{"votes only", 25, 0, 2},
		{"gifts in token units", 3, 50, 5},
		{"mixed", 103, 1000, 110},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputePoints(tt.votes, tt.gifts))
		})
	}
}

func TestCandidate_Recompute(t *testing.T) {
	c := &Candidate{Votes: 40, Gifts: 100, Points: 999}
	c.Recompute()
	assert.Equal(t, int64(14), c.Points)
}

func TestLookupGift(t *testing.T) {
	tests := []struct {
		name  string
		value int64
	}{
		{"Smile", 10},
		{"Flower", 50},
		{"Star", 100},
		{"Heart", 200},
		{"Crown", 500},
		{"Dragon", 1000},
		{"Jet", 3000},
		{"FortuneBox", 5000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, ok := LookupGift(tt.name)
			require.True(t, ok)
			assert.Equal(t, tt.value, g.Value)
		})
	}

	_, ok := LookupGift("Rocket")
	assert.False(t, ok)
}

func TestGiftCatalog_SortedByValue(t *testing.T) {
	gifts := GiftCatalog()
	require.Len(t, gifts, 8)
	assert.Equal(t, "Smile", gifts[0].Name)
	assert.Equal(t, "FortuneBox", gifts[len(gifts)-1].Name)
	for i := 1; i < len(gifts); i++ {
		assert.Less(t, gifts[i-1].Value, gifts[i].Value)
	}
}

func TestTicketTier_SoldOut(t *testing.T) {
	assert.True(t, (&TicketTier{AvailableQuantity: 0}).SoldOut())
	assert.False(t, (&TicketTier{AvailableQuantity: 1}).SoldOut())
}

func TestTransaction_SignedAmount(t *testing.T) {
	tx := &Transaction{PayerID: "alice", PayeeID: "owner", Amount: 30}

	assert.Equal(t, int64(-30), tx.SignedAmount("alice"))
	assert.Equal(t, int64(30), tx.SignedAmount("owner"))
	assert.Equal(t, int64(0), tx.SignedAmount("bob"))
	assert.True(t, tx.Involves("owner"))
	assert.False(t, tx.Involves("bob"))
}

func TestInsufficientBalanceError(t *testing.T) {
	err := fmt.Errorf("debit: %w", &InsufficientBalanceError{AccountID: "alice", Required: 50, Available: 20})

	assert.True(t, errors.Is(err, ErrInsufficientBalance))

	var ibe *InsufficientBalanceError
	require.ErrorAs(t, err, &ibe)
	assert.Equal(t, int64(50), ibe.Required)
	assert.Equal(t, int64(20), ibe.Available)
	assert.Contains(t, err.Error(), "required 50, available 20")
}

func TestBuildTransactionID(t *testing.T) {
	id := BuildTransactionID(TransactionKindVote, "user-1", "req-42")
	assert.Equal(t, "vote:user-1:req-42", id)
	assert.Equal(t, "claim:vote:user-1:req-42", BuildClaimKey(id))
}

func TestBuildReference(t *testing.T) {
	assert.Equal(t, "vote_cand-7", BuildReference("vote", "cand-7"))
}
