package ports

//go:generate mockgen -source=services.go -destination=mocks/mock_services.go -package=mocks

import (
	"context"
	"time"

	"event-token-ledger/internal/core/domain"
)

// RoleAdmin may mint tokens through top-up.
const RoleAdmin = "admin"

// Actor is the authenticated account behind a request.
type Actor struct {
	AccountID string
	Role      string
}

// IsAdmin reports whether the actor may perform operator actions.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// ActorProvider resolves the authenticated actor of the current request.
type ActorProvider interface {
	// CurrentActor returns false when the request is anonymous.
	CurrentActor(ctx context.Context) (Actor, bool)
}

// TokenService handles JWT token operations.
type TokenService interface {
	Generate(actor Actor) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed JWT claims.
type TokenClaims struct {
	AccountID string
	Role      string
}

// IdempotencyCache is the Redis-layer idempotency check (fast path).
type IdempotencyCache interface {
	Get(ctx context.Context, key string) ([]byte, error) // Returns cached result JSON or nil
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// ClaimStore marks a transaction id as in flight so concurrent retries of the
// same id cannot both debit.
type ClaimStore interface {
	// Claim returns an owner token if the caller now holds the key, or ""
	// if someone else does.
	Claim(ctx context.Context, key string, ttl time.Duration) (string, error)
	// Extend pushes the expiry out to ttl. Returns false once token no
	// longer owns the key.
	Extend(ctx context.Context, key, token string, ttl time.Duration) (bool, error)
	// Release drops the key only while token still owns it.
	Release(ctx context.Context, key, token string) error
}

// EventPublisher pushes ledger events to realtime consumers. Delivery is best effort.
type EventPublisher interface {
	PublishTransfer(ctx context.Context, evt domain.TransferCompleted) error
	PublishBalance(ctx context.Context, evt domain.BalanceChanged) error
}

// --- Service Ports (Business Logic) ---

// TransferService moves tokens between two accounts as one logical operation.
type TransferService interface {
	Transfer(ctx context.Context, req TransferRequest) (*TransferResult, error)
	// TopUp mints tokens into an account from domain.SystemMintAccount.
	TopUp(ctx context.Context, req TopUpRequest) (*TransferResult, error)
	// Lookup returns the logged or cached transaction for id, or nil.
	Lookup(ctx context.Context, transactionID string) (*domain.Transaction, error)
}

// TransferRequest holds validated input for a transfer.
type TransferRequest struct {
	TransactionID string
	PayerID       string
	PayeeID       string
	Amount        int64
	Description   string
	Reference     string
	Kind          domain.TransactionKind
}

// TransferResult is returned by Transfer and TopUp. Replayed is set when the
// transaction id had already completed and nothing was moved this time.
type TransferResult struct {
	Transaction  *domain.Transaction `json:"transaction"`
	PayerBalance int64               `json:"payer_balance"`
	PayeeBalance int64               `json:"payee_balance"`
	Replayed     bool                `json:"replayed"`
}

type TopUpRequest struct {
	TransactionID string
	AccountID     string
	Amount        int64
	Description   string
}

// SpendResult is the ledger half of every use-case outcome.
type SpendResult struct {
	Transaction *domain.Transaction `json:"transaction"`
	Balance     int64               `json:"balance"`
	Replayed    bool                `json:"replayed"`
}

type VoteService interface {
	Vote(ctx context.Context, req VoteRequest) (*VoteOutcome, error)
}

type VoteRequest struct {
	EventID     string
	CandidateID string
	VoteCount   int64
	RequestID   string
}

type VoteOutcome struct {
	SpendResult
	VoteCount int64             `json:"vote_count"`
	Candidate *domain.Candidate `json:"candidate"`
}

type GiftService interface {
	SendGift(ctx context.Context, req GiftRequest) (*GiftOutcome, error)
}

type GiftRequest struct {
	EventID     string
	CandidateID string
	GiftName    string
	RequestID   string
}

type GiftOutcome struct {
	SpendResult
	Gift      domain.Gift       `json:"gift"`
	Candidate *domain.Candidate `json:"candidate"`
}

type TicketService interface {
	Purchase(ctx context.Context, req TicketPurchaseRequest) (*TicketOutcome, error)
}

type TicketPurchaseRequest struct {
	TicketID  string
	RequestID string
}

type TicketOutcome struct {
	SpendResult
	Purchase *domain.TicketPurchase `json:"purchase"`
}

type FormService interface {
	Submit(ctx context.Context, req FormSubmissionRequest) (*FormOutcome, error)
}

type FormSubmissionRequest struct {
	FormID    string
	Answers   map[string]string
	RequestID string
}

type FormOutcome struct {
	SpendResult
	Submission *domain.FormSubmission `json:"submission"`
}

// WalletService serves balance and history reads plus operator top-ups.
type WalletService interface {
	GetWallet(ctx context.Context, accountID string) (*domain.Account, error)
	ListTransactions(ctx context.Context, params TransactionListParams) ([]domain.Transaction, int64, error)
	TopUp(ctx context.Context, accountID string, amount int64, requestID string) (*TransferResult, error)
}

// ReconciliationRecorder persists a case and logs it. It never returns an
// error because it runs on paths that are already failing.
type ReconciliationRecorder interface {
	Record(ctx context.Context, c *domain.ReconciliationCase)
}

// TransactionLogRetrier re-attempts transaction log writes in the background.
type TransactionLogRetrier interface {
	Enqueue(tx *domain.Transaction) bool
}

// AuditService records audit entries asynchronously.
type AuditService interface {
	Log(ctx context.Context, entry *domain.AuditLog)
}
