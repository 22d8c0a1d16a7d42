package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string         `json:"error_code"`
	Message    string         `json:"message"`
	Details    map[string]any `json:"details,omitempty"`
	HTTPStatus int            `json:"-"`
	Retryable  bool           `json:"-"`
	Err        error          `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// Is reports whether err is an *AppError with the given code.
func Is(err error, code string) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// IsRetryable reports whether err is an *AppError marked safe to retry.
func IsRetryable(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Retryable
}

// ---- Ledger (LED) ----

const (
	CodeInsufficientFunds       = "LED_001"
	CodeInvalidAmount           = "LED_002"
	CodeSameAccount             = "LED_003"
	CodeDuplicateTransaction    = "LED_004"
	CodeTransferFailed          = "LED_005"
	CodeEffectApplicationFailed = "LED_006"
	CodeIdempotencyConflict     = "LED_007"
)

// ErrInsufficientFunds carries the amount needed and the amount held so the
// caller can tell the user how much to top up.
func ErrInsufficientFunds(required, available int64) *AppError {
	e := New(CodeInsufficientFunds,
		fmt.Sprintf("Insufficient tokens: %d required, %d available", required, available),
		http.StatusPaymentRequired)
	e.Details = map[string]any{"required": required, "available": available}
	return e
}

func ErrInvalidAmount() *AppError {
	return New(CodeInvalidAmount, "Invalid amount", http.StatusBadRequest)
}

func ErrSameAccount() *AppError {
	return New(CodeSameAccount, "Payer and payee must be different accounts", http.StatusBadRequest)
}

func ErrDuplicateTransaction() *AppError {
	return New(CodeDuplicateTransaction, "Duplicate transaction", http.StatusConflict)
}

// ErrTransferFailed is an infrastructure failure. Retrying with the same
// transaction id is safe.
func ErrTransferFailed(err error) *AppError {
	e := Wrap(CodeTransferFailed, "Transfer failed, please try again", http.StatusServiceUnavailable, err)
	e.Retryable = true
	return e
}

// ErrEffectApplicationFailed means tokens moved but the domain effect did not apply.
func ErrEffectApplicationFailed(transactionID string, err error) *AppError {
	e := Wrap(CodeEffectApplicationFailed,
		"Payment received but the action could not be completed; it has been queued for review",
		http.StatusInternalServerError, err)
	e.Details = map[string]any{"transaction_id": transactionID}
	return e
}

func ErrIdempotencyConflict() *AppError {
	return New(CodeIdempotencyConflict, "Transaction id already used by another account", http.StatusConflict)
}

// ---- Domain (DOM) ----

func ErrSoldOut() *AppError {
	return New("DOM_001", "Ticket sold out", http.StatusConflict)
}

func ErrNotFound(entity string) *AppError {
	return New("DOM_002", fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

func ErrUnknownGift(name string) *AppError {
	return New("DOM_003", fmt.Sprintf("Unknown gift %q", name), http.StatusBadRequest)
}

// ErrMisconfigured is returned when a ticket or form has no usable price.
func ErrMisconfigured(message string) *AppError {
	return New("DOM_004", message, http.StatusUnprocessableEntity)
}

// ---- Authentication (AUTH) ----

func ErrUnauthenticated() *AppError {
	return New("AUTH_001", "Sign in required", http.StatusUnauthorized)
}

func ErrInvalidToken() *AppError {
	return New("AUTH_002", "Invalid or expired token", http.StatusUnauthorized)
}

func ErrForbidden() *AppError {
	return New("AUTH_003", "Forbidden", http.StatusForbidden)
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

func ErrDatabaseError(err error) *AppError {
	return Wrap("SYS_001", "Internal database error", http.StatusInternalServerError, err)
}

// InternalError wraps an internal error as a SYS_002 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_002", "Internal server error", http.StatusInternalServerError, err)
}

// Validation returns a request validation error.
func Validation(message string) *AppError {
	return New("VAL_001", message, http.StatusBadRequest)
}

func ErrPayloadTooLarge(limit int64) *AppError {
	e := New("VAL_002", "Request body too large", http.StatusRequestEntityTooLarge)
	e.Details = map[string]any{"limit_bytes": limit}
	return e
}
