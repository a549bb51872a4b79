// Package account defines the 20-byte account identifier shared by the
// registry, ledger and marketplace packages. Every operation that is gated
// on a caller takes an explicit Address argument.
package account

import (
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/sha3"
)

// AddressSize is the length of an account address in bytes.
const AddressSize = 20

// Address identifies an account: a user, a treasury, a registry or the
// marketplace itself.
type Address [AddressSize]byte

// ZeroAddress is the null account. It can never own a token or receive
// settlement proceeds.
var ZeroAddress Address

// IsZero reports whether the address is the null account.
func (a Address) IsZero() bool {
	return a == ZeroAddress
}

// Bytes returns the address as a byte slice.
func (a Address) Bytes() []byte {
	b := make([]byte, AddressSize)
	copy(b, a[:])
	return b
}

// String returns the 0x-prefixed lowercase hex form of the address.
func (a Address) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

// Parse decodes a 0x-prefixed (or bare) 40-digit hex string into an Address.
func Parse(s string) (Address, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "0x")
	b, err := hex.DecodeString(s)
	if err != nil {
		return ZeroAddress, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	return FromBytes(b)
}

// FromBytes converts a 20-byte slice into an Address.
func FromBytes(b []byte) (Address, error) {
	if len(b) != AddressSize {
		return ZeroAddress, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidAddress, AddressSize, len(b))
	}
	var a Address
	copy(a[:], b)
	return a, nil
}

// FromPublicKey derives an address from a public key: the last 20 bytes of
// SHA3-256(pubKey).
func FromPublicKey(pubKey []byte) Address {
	sum := sha3.Sum256(pubKey)
	var a Address
	copy(a[:], sum[32-AddressSize:])
	return a
}
