package market

import "errors"

var (
	// ErrNotOwner indicates the caller is not the marketplace owner.
	ErrNotOwner = errors.New("market: caller is not the marketplace owner")

	// ErrNotWhitelisted indicates the registry is not approved for
	// settlement on this marketplace.
	ErrNotWhitelisted = errors.New("market: registry not whitelisted")

	// ErrInsufficientAmount indicates the payment does not cover the
	// required price.
	ErrInsufficientAmount = errors.New("market: payment below required price")

	// ErrNotListedForSale indicates a secondary sale was attempted on a
	// token that is not listed.
	ErrNotListedForSale = errors.New("market: token not listed for sale")

	// ErrZeroAddress indicates the zero account was used where a real
	// account is required.
	ErrZeroAddress = errors.New("market: zero address")

	// ErrUnsupportedTreasury indicates the active payout configuration has
	// no treasury of the requested kind.
	ErrUnsupportedTreasury = errors.New("market: payout configuration has no such treasury")
)
