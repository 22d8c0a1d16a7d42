package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateTransaction is returned by the transaction log when the id is
	// already recorded. Callers treat it as a replay, not a failure.
	ErrDuplicateTransaction = errors.New("duplicate transaction")

	// ErrInsufficientBalance matches any *InsufficientBalanceError.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrSoldOut is returned when a ticket tier has no inventory left.
	ErrSoldOut = errors.New("ticket sold out")

	// ErrNotFound is returned by writes that target a missing row.
	ErrNotFound = errors.New("not found")

	// ErrBalanceOverflow is returned by a credit that would exceed the int64 range.
	ErrBalanceOverflow = errors.New("balance overflow")
)

// InsufficientBalanceError is returned by a conditional debit that found too few tokens.
type InsufficientBalanceError struct {
	AccountID string
	Required  int64
	Available int64
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("account %s: insufficient balance: required %d, available %d",
		e.AccountID, e.Required, e.Available)
}

// Is lets errors.Is(err, ErrInsufficientBalance) match.
func (e *InsufficientBalanceError) Is(target error) bool {
	return target == ErrInsufficientBalance
}
