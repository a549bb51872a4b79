package ledger

import "errors"

var (
	// ErrInsufficientFunds indicates the account balance does not cover the
	// requested debit.
	ErrInsufficientFunds = errors.New("ledger: insufficient funds")

	// ErrBalanceOverflow indicates a credit would overflow the balance.
	ErrBalanceOverflow = errors.New("ledger: balance overflow")

	// ErrZeroAccount indicates the zero account was used where a real
	// account is required.
	ErrZeroAccount = errors.New("ledger: zero account")
)
