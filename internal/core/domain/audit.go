package domain

import "time"

// AuditAction represents the type of audited action.
type AuditAction string

const (
	AuditActionVote   AuditAction = "VOTE"
	AuditActionGift   AuditAction = "GIFT"
	AuditActionTicket AuditAction = "TICKET_PURCHASE"
	AuditActionForm   AuditAction = "FORM_SUBMISSION"
	AuditActionTopup  AuditAction = "TOPUP"
)

// AuditLog records a single audited request.
type AuditLog struct {
	ID           string      `json:"id"`
	AccountID    string      `json:"account_id,omitempty"`
	Action       AuditAction `json:"action"`
	ResourceType string      `json:"resource_type"`
	ResourceID   string      `json:"resource_id,omitempty"`
	Details      string      `json:"details,omitempty"` // JSON string
	IPAddress    string      `json:"ip_address"`
	CreatedAt    time.Time   `json:"created_at"`
}
