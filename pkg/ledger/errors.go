package ledger

import (
	"errors"
	"fmt"
)

// Errors
var (
	ErrLedgerNotFound = errors.New("ledger not initialized in store")
	ErrLedgerExists   = errors.New("ledger already initialized")
	ErrConservation   = errors.New("ledger state violates conservation")
)

// InsufficientBalanceError is returned by Transfer when the sender does
// not hold the requested amount.
type InsufficientBalanceError struct {
	Requested uint64
	Available uint64
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance: requested %d, available %d", e.Requested, e.Available)
}

// IsInsufficientBalance reports whether err is an InsufficientBalanceError.
func IsInsufficientBalance(err error) bool {
	var target *InsufficientBalanceError
	return errors.As(err, &target)
}
