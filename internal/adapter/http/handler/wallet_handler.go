package handler

import (
	"math"
	"strconv"

	"event-token-ledger/internal/adapter/http/dto"
	"event-token-ledger/internal/adapter/http/middleware"
	"event-token-ledger/internal/core/domain"
	"event-token-ledger/internal/core/ports"
	"event-token-ledger/pkg/apperror"
	"event-token-ledger/pkg/response"

	"github.com/gin-gonic/gin"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// WalletHandler serves the caller's balance and history plus operator top-ups.
type WalletHandler struct {
	walletSvc ports.WalletService
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(walletSvc ports.WalletService) *WalletHandler {
	return &WalletHandler{walletSvc: walletSvc}
}

// GetWallet handles GET /api/v1/wallet.
func (h *WalletHandler) GetWallet(c *gin.Context) {
	accountID := c.GetString(middleware.CtxAccountID)
	if accountID == "" {
		response.Error(c, apperror.ErrUnauthenticated())
		return
	}

	acct, err := h.walletSvc.GetWallet(c.Request.Context(), accountID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.NewWalletResponse(acct))
}

// ListTransactions handles GET /api/v1/wallet/transactions.
func (h *WalletHandler) ListTransactions(c *gin.Context) {
	accountID := c.GetString(middleware.CtxAccountID)
	if accountID == "" {
		response.Error(c, apperror.ErrUnauthenticated())
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(defaultPageSize)))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > maxPageSize {
		pageSize = defaultPageSize
	}

	params := ports.TransactionListParams{
		AccountID: accountID,
		Page:      page,
		PageSize:  pageSize,
	}
	if k := c.Query("kind"); k != "" {
		kind := domain.TransactionKind(k)
		params.Kind = &kind
	}

	txns, total, err := h.walletSvc.ListTransactions(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.TransactionResponse, 0, len(txns))
	for i := range txns {
		items = append(items, dto.NewTransactionResponse(txns[i], accountID))
	}

	response.OK(c, dto.TransactionListResponse{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: int(math.Ceil(float64(total) / float64(pageSize))),
	})
}

// Topup handles POST /api/v1/wallet/topup. Admin only.
func (h *WalletHandler) Topup(c *gin.Context) {
	var req dto.TopupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	result, err := h.walletSvc.TopUp(c.Request.Context(), req.AccountID, req.Amount, req.RequestID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Set(middleware.CtxResourceID, result.Transaction.ID)
	response.Settled(c, result, result.Replayed)
}
