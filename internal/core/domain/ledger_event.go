package domain

import "time"

// TransferCompleted is published after a transfer's balances are final.
type TransferCompleted struct {
	Transaction  Transaction `json:"transaction"`
	PayerBalance int64       `json:"payer_balance"`
	PayeeBalance int64       `json:"payee_balance"`
}

// BalanceChanged is published per account so open wallets can refresh.
type BalanceChanged struct {
	AccountID     string    `json:"account_id"`
	Balance       int64     `json:"balance"`
	LastAction    string    `json:"last_action"`
	TransactionID string    `json:"transaction_id"`
	OccurredAt    time.Time `json:"occurred_at"`
}
