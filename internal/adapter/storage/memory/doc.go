// Package memory provides mutex-guarded, process-local implementations of the
// storage ports. It backs the "memory" storage driver for local development
// and the service-level tests. Nothing survives a restart.
package memory

import "event-token-ledger/internal/core/ports"

var (
	_ ports.AccountRepository        = (*AccountRepo)(nil)
	_ ports.TransactionRepository    = (*TransactionRepo)(nil)
	_ ports.EventRepository          = (*EventRepo)(nil)
	_ ports.CandidateRepository      = (*CandidateRepo)(nil)
	_ ports.TicketRepository         = (*TicketRepo)(nil)
	_ ports.PurchaseRepository       = (*PurchaseRepo)(nil)
	_ ports.FormRepository           = (*FormRepo)(nil)
	_ ports.SubmissionRepository     = (*SubmissionRepo)(nil)
	_ ports.ReconciliationRepository = (*ReconciliationRepo)(nil)
	_ ports.AuditRepository          = (*AuditRepo)(nil)
	_ ports.IdempotencyCache         = (*IdempotencyCache)(nil)
	_ ports.ClaimStore               = (*ClaimStore)(nil)
)
