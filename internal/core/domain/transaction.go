package domain

import "time"

// TransactionKind classifies what a transfer paid for.
type TransactionKind string

const (
	TransactionKindVote     TransactionKind = "VOTE"
	TransactionKindGift     TransactionKind = "GIFT"
	TransactionKindTicket   TransactionKind = "TICKET"
	TransactionKindForm     TransactionKind = "FORM"
	TransactionKindTopup    TransactionKind = "TOPUP"
	TransactionKindTransfer TransactionKind = "TRANSFER"
)

// Transaction is an immutable record of a completed transfer.
// It is written once, after both balances have been updated.
type Transaction struct {
	ID          string          `json:"transaction_id"`
	PayerID     string          `json:"payer_account_id"`
	PayeeID     string          `json:"payee_account_id"`
	Amount      int64           `json:"amount"`
	Description string          `json:"description"`
	Reference   string          `json:"reference"` // e.g. vote_<candidateID>
	Kind        TransactionKind `json:"kind"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Involves reports whether the account paid or received this transaction.
func (t *Transaction) Involves(accountID string) bool {
	return t.PayerID == accountID || t.PayeeID == accountID
}

// SignedAmount returns the amount as seen from accountID: negative for the payer.
func (t *Transaction) SignedAmount(accountID string) int64 {
	switch accountID {
	case t.PayerID:
		return -t.Amount
	case t.PayeeID:
		return t.Amount
	default:
		return 0
	}
}
