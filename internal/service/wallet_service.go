package service

import (
	"context"
	"fmt"

	"event-token-ledger/internal/core/domain"
	"event-token-ledger/internal/core/ports"
	"event-token-ledger/pkg/apperror"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// walletService implements ports.WalletService.
type walletService struct {
	accounts ports.AccountRepository
	txRepo   ports.TransactionRepository
	transfer ports.TransferService
	actors   ports.ActorProvider
}

// NewWalletService creates a new wallet service.
func NewWalletService(
	accounts ports.AccountRepository,
	txRepo ports.TransactionRepository,
	transfer ports.TransferService,
	actors ports.ActorProvider,
) ports.WalletService {
	return &walletService{
		accounts: accounts,
		txRepo:   txRepo,
		transfer: transfer,
		actors:   actors,
	}
}

// GetWallet returns the account, or an empty one if it has never been credited.
func (s *walletService) GetWallet(ctx context.Context, accountID string) (*domain.Account, error) {
	if accountID == "" {
		return nil, apperror.Validation("account_id is required")
	}
	account, err := s.accounts.Get(ctx, accountID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}
	if account == nil {
		return &domain.Account{ID: accountID}, nil
	}
	return account, nil
}

// ListTransactions returns a page of transactions where the account is payer or payee.
func (s *walletService) ListTransactions(ctx context.Context, params ports.TransactionListParams) ([]domain.Transaction, int64, error) {
	if params.AccountID == "" {
		return nil, 0, apperror.Validation("account_id is required")
	}
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PageSize < 1 {
		params.PageSize = defaultPageSize
	}
	if params.PageSize > maxPageSize {
		params.PageSize = maxPageSize
	}

	txns, total, err := s.txRepo.ListByAccount(ctx, params)
	if err != nil {
		return nil, 0, apperror.ErrDatabaseError(err)
	}
	return txns, total, nil
}

// TopUp mints tokens into accountID. Only admins may call it.
func (s *walletService) TopUp(ctx context.Context, accountID string, amount int64, requestID string) (*ports.TransferResult, error) {
	actor, ok := s.actors.CurrentActor(ctx)
	if !ok || actor.AccountID == "" {
		return nil, apperror.ErrUnauthenticated()
	}
	if !actor.IsAdmin() {
		return nil, apperror.ErrForbidden()
	}
	if requestID == "" {
		return nil, apperror.Validation("request_id is required")
	}

	return s.transfer.TopUp(ctx, ports.TopUpRequest{
		TransactionID: domain.BuildTransactionID(domain.TransactionKindTopup, accountID, requestID),
		AccountID:     accountID,
		Amount:        amount,
		Description:   fmt.Sprintf("Top up %d tokens by %s", amount, actor.AccountID),
	})
}
