package market

import (
	"sync"

	"github.com/taexart/taexmarket/account"
	"github.com/taexart/taexmarket/asset"
	"github.com/taexart/taexmarket/fee"
)

// PayoutPolicy is the deployment-variant strategy selected when the
// marketplace is constructed. It decides where settlement proceeds go and
// which price a primary sale uses; the settlement flow itself is shared.
//
// Implementations are safe for concurrent use: treasury updates arrive
// through the HTTP surface while sales are settling.
type PayoutPolicy interface {
	// PrimaryPrice returns the price a primary sale of the token requires.
	PrimaryPrice(rec *asset.Record, tok *asset.TokenData) uint64

	// ArtistRecipient returns the account receiving the artist share.
	ArtistRecipient(tok *asset.TokenData) account.Address

	// PlatformRecipient returns the account receiving the platform share.
	PlatformRecipient() account.Address

	// CheckPrimaryFees applies the configuration's sale-time fee rule to a
	// token's bundle before a primary sale settles.
	CheckPrimaryFees(b fee.Bundle) error
}

// FixedTreasuries is the simple two-treasury configuration: the artist share
// always goes to a fixed artist treasury, the platform share to a fixed
// platform treasury, and primary sales use the registry-wide primary price.
type FixedTreasuries struct {
	mu     sync.RWMutex
	artist account.Address
	taex   account.Address
}

// Compile-time interface check.
var _ PayoutPolicy = (*FixedTreasuries)(nil)

// NewFixedTreasuries builds the two-treasury payout configuration.
func NewFixedTreasuries(artist, taex account.Address) (*FixedTreasuries, error) {
	if artist.IsZero() || taex.IsZero() {
		return nil, ErrZeroAddress
	}
	return &FixedTreasuries{artist: artist, taex: taex}, nil
}

func (p *FixedTreasuries) PrimaryPrice(rec *asset.Record, _ *asset.TokenData) uint64 {
	return rec.Config.PrimaryPrice
}

func (p *FixedTreasuries) ArtistRecipient(_ *asset.TokenData) account.Address {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.artist
}

func (p *FixedTreasuries) PlatformRecipient() account.Address {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.taex
}

// CheckPrimaryFees accepts every validated bundle: with fixed treasuries a
// 100% artist fee simply leaves the platform share at zero.
func (p *FixedTreasuries) CheckPrimaryFees(fee.Bundle) error { return nil }

func (p *FixedTreasuries) setTreasuries(artist, taex account.Address) error {
	if artist.IsZero() || taex.IsZero() {
		return ErrZeroAddress
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.artist = artist
	p.taex = taex
	return nil
}

// PerItemPayout is the richer configuration: the artist share goes to the
// recipient captured on the item at mint time, primary sales use the
// per-item price, and the platform must always retain a share, which makes
// a 100% artist fee a sale-time failure.
type PerItemPayout struct {
	mu       sync.RWMutex
	platform account.Address
}

// Compile-time interface check.
var _ PayoutPolicy = (*PerItemPayout)(nil)

// NewPerItemPayout builds the per-item-recipient payout configuration.
func NewPerItemPayout(platform account.Address) (*PerItemPayout, error) {
	if platform.IsZero() {
		return nil, ErrZeroAddress
	}
	return &PerItemPayout{platform: platform}, nil
}

func (p *PerItemPayout) PrimaryPrice(_ *asset.Record, tok *asset.TokenData) uint64 {
	return tok.Price
}

func (p *PerItemPayout) ArtistRecipient(tok *asset.TokenData) account.Address { return tok.Artist }

func (p *PerItemPayout) PlatformRecipient() account.Address {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.platform
}

func (p *PerItemPayout) CheckPrimaryFees(b fee.Bundle) error {
	return fee.RequirePlatformShare(b)
}

func (p *PerItemPayout) setPlatform(platform account.Address) error {
	if platform.IsZero() {
		return ErrZeroAddress
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.platform = platform
	return nil
}
