package account

import "errors"

var (
	// ErrInvalidAddress indicates a malformed address string or byte slice.
	ErrInvalidAddress = errors.New("account: invalid address")
)
