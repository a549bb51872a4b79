package asset

import "errors"

var (
	// ErrNotAuthorized indicates the caller is not the registry owner.
	ErrNotAuthorized = errors.New("asset: caller is not the registry owner")

	// ErrInvalidMintAmount indicates a mint to the zero account or a batch
	// mint of zero items.
	ErrInvalidMintAmount = errors.New("asset: invalid mint amount")

	// ErrMaxSupplyExceeded indicates the mint would push the registry past
	// its supply ceiling.
	ErrMaxSupplyExceeded = errors.New("asset: max supply exceeded")

	// ErrNotOwnerOfToken indicates the caller does not own the token.
	ErrNotOwnerOfToken = errors.New("asset: caller is not the token owner")

	// ErrAlreadyListed indicates the token is already listed for sale.
	ErrAlreadyListed = errors.New("asset: token already listed for sale")

	// ErrNotListed indicates the token is not listed for sale.
	ErrNotListed = errors.New("asset: token not listed for sale")

	// ErrInvalidTokenID indicates the token does not exist in this registry.
	ErrInvalidTokenID = errors.New("asset: invalid token id")

	// ErrTokenNotApproved indicates the operator is not approved to move
	// the token on the owner's behalf.
	ErrTokenNotApproved = errors.New("asset: token not approved for operator")

	// ErrNotOwnerNorApproved indicates the transfer caller is neither the
	// owner nor the approved account.
	ErrNotOwnerNorApproved = errors.New("asset: caller is not owner nor approved")

	// ErrZeroAddress indicates the zero account was used where a real
	// account is required.
	ErrZeroAddress = errors.New("asset: zero address")

	// ErrZeroPrice indicates a listing price of zero; a listed token must
	// always carry a positive price.
	ErrZeroPrice = errors.New("asset: listing price must be positive")

	// ErrRegistryExists indicates a registry record already exists at the
	// address.
	ErrRegistryExists = errors.New("asset: registry already exists")

	// ErrRegistryNotFound indicates no registry record exists at the
	// address.
	ErrRegistryNotFound = errors.New("asset: registry not found")
)
