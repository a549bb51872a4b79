package fee

import "errors"

var (
	// ErrInvalidFeePercentage indicates a fee percentage above 100.
	ErrInvalidFeePercentage = errors.New("fee: percentage exceeds 100")

	// ErrInvalidFeeCombination indicates the secondary artist and platform
	// percentages together exceed 100.
	ErrInvalidFeeCombination = errors.New("fee: secondary fee combination exceeds 100")

	// ErrInvalidFeeConfiguration indicates a bundle that cannot be settled
	// under the active marketplace configuration.
	ErrInvalidFeeConfiguration = errors.New("fee: bundle invalid under active configuration")
)
