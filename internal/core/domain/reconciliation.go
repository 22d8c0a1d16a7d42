package domain

import (
	"time"

	"github.com/google/uuid"
)

// ReconciliationKind names the partial failure an operator must resolve.
type ReconciliationKind string

const (
	// Tokens moved but the vote/gift/purchase/submission was not applied.
	ReconciliationEffectFailed ReconciliationKind = "EFFECT_FAILED"
	// Payee credit failed and the payer refund failed too.
	ReconciliationRefundFailed ReconciliationKind = "REFUND_FAILED"
	// A reserved ticket could not be returned to inventory.
	ReconciliationInventoryReleaseFailed ReconciliationKind = "INVENTORY_RELEASE_FAILED"
)

// ReconciliationCase is a durable record of a partially applied operation.
type ReconciliationCase struct {
	ID            uuid.UUID          `json:"case_id"`
	Kind          ReconciliationKind `json:"kind"`
	TransactionID string             `json:"transaction_id"`
	AccountID     string             `json:"account_id"`
	Reference     string             `json:"reference"`
	Amount        int64              `json:"amount"`
	Detail        string             `json:"detail"`
	CreatedAt     time.Time          `json:"created_at"`
}
