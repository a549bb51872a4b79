package fee

import "math/bits"

// SplitPrimary divides a primary-sale price between the artist and the
// platform. The artist amount is price * artistPercent / 100 with truncating
// division; the platform keeps the remainder, so artist + platform == price
// exactly.
//
// artistPercent must come from a validated bundle (at most 100).
func SplitPrimary(price, artistPercent uint64) (artist, platform uint64) {
	artist = percentOf(price, artistPercent)
	platform = price - artist
	return artist, platform
}

// SplitSecondary divides a secondary-sale price between the artist, the
// platform and the seller. Both fee amounts use the same truncating rule
// against the full price; the seller receives the remainder, so the three
// amounts always sum to price exactly.
//
// The percentages must come from a validated bundle (each at most 100,
// summing to at most 100), which keeps the seller share non-negative.
func SplitSecondary(price, artistPercent, taexPercent uint64) (artist, platform, seller uint64) {
	artist = percentOf(price, artistPercent)
	platform = percentOf(price, taexPercent)
	seller = price - artist - platform
	return artist, platform, seller
}

// percentOf computes amount * percent / 100 without overflowing on large
// prices by going through a 128-bit intermediate.
func percentOf(amount, percent uint64) uint64 {
	hi, lo := bits.Mul64(amount, percent)
	q, _ := bits.Div64(hi, lo, 100)
	return q
}
