package state

import "errors"

var (
	// ErrTxReadOnly indicates a write was attempted inside a View transaction.
	ErrTxReadOnly = errors.New("state: transaction is read-only")
)
