// Package asset implements the registry that owns unique items: minting,
// per-item listing state, sale prices and fee configuration. A registry
// persists its state in the shared store so the marketplace can read and
// settle against it inside one transaction.
package asset

import (
	"github.com/taexart/taexmarket/account"
	"github.com/taexart/taexmarket/fee"
)

// TokenData is the full per-item record. The marketplace reads a snapshot of
// it before every sale.
type TokenData struct {
	ID          uint64
	Owner       account.Address
	Artist      account.Address // fee recipient under the per-item payout configuration
	Approved    account.Address // account allowed to transfer on the owner's behalf
	Listed      bool
	Price       uint64 // sale price while listed; primed with the registry primary price at mint
	PrimarySold bool   // set once the first monetized transfer has settled
	Fees        fee.Bundle
}

// Config is the registry-wide configuration fixed at construction (economics
// are adjustable later by the registry owner via SetDefaultData).
type Config struct {
	Name         string
	Symbol       string
	BaseURI      string
	PrimaryPrice uint64
	DefaultFees  fee.Bundle

	// MaxSupply caps cumulative mints for the batch-aware variant.
	// Zero means uncapped (the single-unit variant).
	MaxSupply uint64

	// StrictFees moves the platform-share fee check from sale time to mint
	// time: bundles with a 100% primary artist fee are rejected when the
	// item is created instead of when it is first sold.
	StrictFees bool
}

// Record is the persisted per-registry state: identity, owner, id counter
// and configuration.
type Record struct {
	Address account.Address
	Owner   account.Address
	NextID  uint64
	Config  Config
}
