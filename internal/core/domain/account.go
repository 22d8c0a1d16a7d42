package domain

import "time"

// SystemMintAccount is the payer recorded for top-ups. It never holds a balance.
const SystemMintAccount = "system:mint"

// MaxTopUpAmount caps a single mint.
const MaxTopUpAmount int64 = 1_000_000_000_000

// Account is a token balance holder: an end user or an event publisher.
type Account struct {
	ID         string    `json:"account_id"`
	Balance    int64     `json:"balance"`     // smallest token unit, never negative
	LastAction string    `json:"last_action"` // display only, not history
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
