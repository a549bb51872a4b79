// Package fee implements the fee policy of the marketplace: validation of
// per-item fee bundles and computation of settlement splits. All functions
// are pure; the package holds no mutable state.
package fee

import "fmt"

// maxPercent is the upper bound for any individual fee percentage.
const maxPercent = 100

// Bundle is the triple of percentages governing artist/platform splits for
// an item's primary and secondary sales. It is fixed at mint time and
// immutable thereafter.
type Bundle struct {
	PrimaryArtist   uint64 // percent of the primary price paid to the artist
	SecondaryArtist uint64 // percent of a resale price paid to the artist
	SecondaryTaex   uint64 // percent of a resale price paid to the platform
}

// Validate checks a fee bundle before an item is created with it.
//
// Every percentage must be at most 100, and the two percentages applied
// together on a secondary sale must not sum above 100, or the seller share
// would be negative.
func Validate(b Bundle) error {
	if b.PrimaryArtist > maxPercent || b.SecondaryArtist > maxPercent || b.SecondaryTaex > maxPercent {
		return fmt.Errorf("%w: bundle (%d, %d, %d)", ErrInvalidFeePercentage,
			b.PrimaryArtist, b.SecondaryArtist, b.SecondaryTaex)
	}
	if b.SecondaryArtist+b.SecondaryTaex > maxPercent {
		return fmt.Errorf("%w: %d + %d", ErrInvalidFeeCombination,
			b.SecondaryArtist, b.SecondaryTaex)
	}
	return nil
}

// RequirePlatformShare rejects bundles whose primary artist fee leaves no
// share for the platform. The per-item payout configuration applies it at
// sale time; registries created with StrictFees apply it at mint time
// instead.
func RequirePlatformShare(b Bundle) error {
	if b.PrimaryArtist >= maxPercent {
		return fmt.Errorf("%w: primary artist fee %d leaves no platform share",
			ErrInvalidFeeConfiguration, b.PrimaryArtist)
	}
	return nil
}
