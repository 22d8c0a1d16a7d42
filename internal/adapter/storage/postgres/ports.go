package postgres

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
	_ ports.HealthChecker            = (*HealthCheck)(nil)
)
