package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appErr   *AppError
		expected string
	}{
		{
			name:     "without wrapped error",
			appErr:   New("LED_002", "Invalid amount", http.StatusBadRequest),
			expected: "[LED_002] Invalid amount",
		},
		{
			name:     "with wrapped error",
			appErr:   Wrap("SYS_001", "DB error", http.StatusInternalServerError, fmt.Errorf("connection refused")),
			expected: "[SYS_001] DB error: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.appErr.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	inner := fmt.Errorf("inner error")
	appErr := Wrap("SYS_001", "wrapped", http.StatusInternalServerError, inner)

	assert.True(t, errors.Is(appErr, inner))
}

func TestAppError_IsNilUnwrap(t *testing.T) {
	appErr := New("LED_002", "test", http.StatusBadRequest)
	assert.Nil(t, appErr.Unwrap())
}

func TestLedgerErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		code       string
		httpStatus int
	}{
		{"InsufficientFunds", ErrInsufficientFunds(10, 3), CodeInsufficientFunds, 402},
		{"InvalidAmount", ErrInvalidAmount(), CodeInvalidAmount, 400},
		{"SameAccount", ErrSameAccount(), CodeSameAccount, 400},
		{"DuplicateTransaction", ErrDuplicateTransaction(), CodeDuplicateTransaction, 409},
		{"TransferFailed", ErrTransferFailed(nil), CodeTransferFailed, 503},
		{"EffectApplicationFailed", ErrEffectApplicationFailed("tx-1", nil), CodeEffectApplicationFailed, 500},
		{"IdempotencyConflict", ErrIdempotencyConflict(), CodeIdempotencyConflict, 409},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.httpStatus, tt.err.HTTPStatus)
		})
	}
}

func TestDomainAndAuthErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		code       string
		httpStatus int
	}{
		{"SoldOut", ErrSoldOut(), "DOM_001", 409},
		{"NotFound", ErrNotFound("Candidate"), "DOM_002", 404},
		{"UnknownGift", ErrUnknownGift("Rocket"), "DOM_003", 400},
		{"Misconfigured", ErrMisconfigured("no price"), "DOM_004", 422},
		{"Unauthenticated", ErrUnauthenticated(), "AUTH_001", 401},
		{"InvalidToken", ErrInvalidToken(), "AUTH_002", 401},
		{"Forbidden", ErrForbidden(), "AUTH_003", 403},
		{"RateLimit", ErrRateLimitExceeded(), "RATE_001", 429},
		{"Validation", Validation("bad"), "VAL_001", 400},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.httpStatus, tt.err.HTTPStatus)
		})
	}
}

func TestErrInsufficientFunds_Details(t *testing.T) {
	err := ErrInsufficientFunds(50, 20)

	assert.Equal(t, int64(50), err.Details["required"])
	assert.Equal(t, int64(20), err.Details["available"])
	assert.Contains(t, err.Message, "50 required")
	assert.Contains(t, err.Message, "20 available")
}

func TestErrTransferFailed_IsRetryable(t *testing.T) {
	inner := errors.New("connection reset")
	err := fmt.Errorf("vote: %w", ErrTransferFailed(inner))

	assert.True(t, IsRetryable(err))
	assert.True(t, Is(err, CodeTransferFailed))
	assert.True(t, errors.Is(err, inner))
	assert.False(t, IsRetryable(ErrInsufficientFunds(1, 0)))
	assert.False(t, IsRetryable(errors.New("plain")))
}

func TestErrEffectApplicationFailed_CarriesTransactionID(t *testing.T) {
	err := ErrEffectApplicationFailed("vote:u1:r1", errors.New("candidate update failed"))

	assert.Equal(t, "vote:u1:r1", err.Details["transaction_id"])
	assert.False(t, err.Retryable)
}

func TestErrorsAs(t *testing.T) {
	original := ErrSoldOut()
	wrapped := fmt.Errorf("purchase: %w", original)

	var appErr *AppError
	assert.True(t, errors.As(wrapped, &appErr))
	assert.Equal(t, "DOM_001", appErr.Code)
}

func TestInternalError(t *testing.T) {
	inner := fmt.Errorf("something broke")
	err := InternalError(inner)

	assert.Equal(t, "SYS_002", err.Code)
	assert.Equal(t, http.StatusInternalServerError, err.HTTPStatus)
	assert.True(t, errors.Is(err, inner))
}
