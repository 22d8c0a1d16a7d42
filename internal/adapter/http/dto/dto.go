package dto

import (
	"time"

	"event-token-ledger/internal/core/domain"
)

// VoteRequest is the request body for casting paid votes. VoteCount is
// range-checked by the service so a non-positive count reports an invalid amount.
type VoteRequest struct {
	VoteCount int64  `json:"vote_count"`
	RequestID string `json:"request_id" binding:"required,max=128,safe_id"`
}

// GiftRequest is the request body for sending a catalog gift.
type GiftRequest struct {
	GiftName  string `json:"gift_name" binding:"required,max=64"`
	RequestID string `json:"request_id" binding:"required,max=128,safe_id"`
}

type PurchaseRequest struct {
	RequestID string `json:"request_id" binding:"required,max=128,safe_id"`
}

// FormSubmissionRequest carries free-form answers keyed by field name.
type FormSubmissionRequest struct {
	Answers   map[string]string `json:"answers" binding:"max=50,dive,keys,required,max=64,endkeys,max=2000"`
	RequestID string            `json:"request_id" binding:"required,max=128,safe_id"`
}

// TopupRequest is the operator request body for minting tokens.
type TopupRequest struct {
	AccountID string `json:"account_id" binding:"required,max=128,safe_id"`
	Amount    int64  `json:"amount"`
	RequestID string `json:"request_id" binding:"required,max=128,safe_id"`
}

// TransactionResponse is one history row as seen by the requesting account.
type TransactionResponse struct {
	ID          string `json:"transaction_id"`
	Kind        string `json:"kind"`
	PayerID     string `json:"payer_account_id"`
	PayeeID     string `json:"payee_account_id"`
	Amount      int64  `json:"amount"`
	Delta       int64  `json:"delta"`
	Description string `json:"description"`
	Reference   string `json:"reference"`
	CreatedAt   string `json:"created_at"`
}

// NewTransactionResponse renders tx from the point of view of accountID.
func NewTransactionResponse(tx domain.Transaction, accountID string) TransactionResponse {
	return TransactionResponse{
		ID:          tx.ID,
		Kind:        string(tx.Kind),
		PayerID:     tx.PayerID,
		PayeeID:     tx.PayeeID,
		Amount:      tx.Amount,
		Delta:       tx.SignedAmount(accountID),
		Description: tx.Description,
		Reference:   tx.Reference,
		CreatedAt:   tx.CreatedAt.UTC().Format(time.RFC3339),
	}
}

type WalletResponse struct {
	AccountID  string  `json:"account_id"`
	Balance    int64   `json:"balance"`
	LastAction string  `json:"last_action,omitempty"`
	UpdatedAt  *string `json:"updated_at,omitempty"`
}

func NewWalletResponse(acct *domain.Account) WalletResponse {
	resp := WalletResponse{
		AccountID:  acct.ID,
		Balance:    acct.Balance,
		LastAction: acct.LastAction,
	}
	if !acct.UpdatedAt.IsZero() {
		s := acct.UpdatedAt.UTC().Format(time.RFC3339)
		resp.UpdatedAt = &s
	}
	return resp
}

// TransactionListResponse wraps paginated transaction list.
type TransactionListResponse struct {
	Items      []TransactionResponse `json:"items"`
	Total      int64                 `json:"total"`
	Page       int                   `json:"page"`
	PageSize   int                   `json:"page_size"`
	TotalPages int                   `json:"total_pages"`
}

// GiftCatalogResponse lists the gifts that can be sent and their token values.
type GiftCatalogResponse struct {
	Gifts []domain.Gift `json:"gifts"`
}
