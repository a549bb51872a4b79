// Package market implements the settlement engine: primary and secondary
// sales against whitelisted registries, with payment splitting, refunds and
// atomic ownership transfer. Every sale runs as one store transaction, so
// no observer ever sees a payment split without the matching ownership
// change or vice versa.
package market

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/taexart/taexmarket/account"
	"github.com/taexart/taexmarket/asset"
	"github.com/taexart/taexmarket/fee"
	"github.com/taexart/taexmarket/ledger"
	"github.com/taexart/taexmarket/state"
)

// SaleKind distinguishes the two settlement paths on a receipt.
type SaleKind string

const (
	PrimarySaleKind   SaleKind = "primary"
	SecondarySaleKind SaleKind = "secondary"
)

// Receipt is the record of one settled sale.
type Receipt struct {
	ID       uuid.UUID
	Kind     SaleKind
	Registry account.Address
	TokenID  uint64
	Buyer    account.Address
	Seller   account.Address // previous owner

	Price          uint64
	ArtistAmount   uint64
	PlatformAmount uint64
	SellerAmount   uint64 // zero on primary sales
	Refund         uint64

	ArtistRecipient   account.Address
	PlatformRecipient account.Address
}

// Marketplace settles sales against whitelisted registries. Its address is
// the operator identity that token owners approve; its owner controls the
// whitelist and the treasuries.
type Marketplace struct {
	store  state.Store
	addr   account.Address
	owner  account.Address
	payout PayoutPolicy
	log    *zap.Logger
}

// New creates a marketplace with the given payout configuration.
func New(store state.Store, addr, owner account.Address, payout PayoutPolicy, log *zap.Logger) (*Marketplace, error) {
	if addr.IsZero() || owner.IsZero() {
		return nil, fmt.Errorf("%w: marketplace address and owner", ErrZeroAddress)
	}
	if payout == nil {
		return nil, fmt.Errorf("market: nil payout policy")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Marketplace{store: store, addr: addr, owner: owner, payout: payout, log: log}, nil
}

// Address returns the operator identity token owners must approve.
func (m *Marketplace) Address() account.Address { return m.addr }

// AddToWhitelist approves a registry for settlement. Marketplace owner
// only; adding an already-whitelisted registry is a no-op.
func (m *Marketplace) AddToWhitelist(caller, registry account.Address) error {
	if caller != m.owner {
		return fmt.Errorf("%w: %s", ErrNotOwner, caller)
	}
	if registry.IsZero() {
		return fmt.Errorf("%w: registry", ErrZeroAddress)
	}
	return m.store.Update(func(tx state.Tx) error {
		return tx.Bucket(state.BucketWhitelist).Put(m.whitelistKey(registry), []byte{1})
	})
}

// RemoveFromWhitelist revokes a registry. Marketplace owner only;
// removing an absent registry is a no-op.
func (m *Marketplace) RemoveFromWhitelist(caller, registry account.Address) error {
	if caller != m.owner {
		return fmt.Errorf("%w: %s", ErrNotOwner, caller)
	}
	return m.store.Update(func(tx state.Tx) error {
		return tx.Bucket(state.BucketWhitelist).Delete(m.whitelistKey(registry))
	})
}

// IsWhitelisted reports whether a registry is approved for settlement.
func (m *Marketplace) IsWhitelisted(registry account.Address) (bool, error) {
	var ok bool
	err := m.store.View(func(tx state.Tx) error {
		ok = m.whitelistedTx(tx, registry)
		return nil
	})
	return ok, err
}

// SetTreasuries updates the fixed artist and platform treasuries.
// Marketplace owner only; fails when the active payout configuration does
// not use fixed treasuries.
func (m *Marketplace) SetTreasuries(caller, artist, taex account.Address) error {
	if caller != m.owner {
		return fmt.Errorf("%w: %s", ErrNotOwner, caller)
	}
	p, ok := m.payout.(*FixedTreasuries)
	if !ok {
		return ErrUnsupportedTreasury
	}
	return p.setTreasuries(artist, taex)
}

// SetPlatformTreasury updates the platform treasury of the per-item payout
// configuration. Marketplace owner only.
func (m *Marketplace) SetPlatformTreasury(caller, platform account.Address) error {
	if caller != m.owner {
		return fmt.Errorf("%w: %s", ErrNotOwner, caller)
	}
	p, ok := m.payout.(*PerItemPayout)
	if !ok {
		return ErrUnsupportedTreasury
	}
	return p.setPlatform(platform)
}

// PrimarySale settles the first monetized transfer of a token: the buyer
// pays the primary price, the artist and the platform split it, the token
// moves to the buyer and any overpayment is refunded. The whole sequence
// commits or aborts as one transaction.
func (m *Marketplace) PrimarySale(buyer, registry account.Address, tokenID, payment uint64) (*Receipt, error) {
	var receipt *Receipt
	err := m.store.Update(func(tx state.Tx) error {
		if !m.whitelistedTx(tx, registry) {
			return fmt.Errorf("%w: %s", ErrNotWhitelisted, registry)
		}
		rec, err := asset.LoadRecord(tx, registry)
		if err != nil {
			return err
		}
		tok, err := asset.LoadToken(tx, registry, tokenID)
		if err != nil {
			return err
		}

		price := m.payout.PrimaryPrice(rec, tok)
		if payment < price {
			return fmt.Errorf("%w: sent %d, need %d", ErrInsufficientAmount, payment, price)
		}
		if tok.Approved != m.addr {
			return fmt.Errorf("%w: token %d", asset.ErrTokenNotApproved, tokenID)
		}
		if err := m.payout.CheckPrimaryFees(tok.Fees); err != nil {
			return err
		}

		artistAmt, platformAmt := fee.SplitPrimary(price, tok.Fees.PrimaryArtist)
		seller := tok.Owner

		if err := ledger.Debit(tx, buyer, payment); err != nil {
			return err
		}
		if err := ledger.Credit(tx, m.payout.ArtistRecipient(tok), artistAmt); err != nil {
			return err
		}
		if err := ledger.Credit(tx, m.payout.PlatformRecipient(), platformAmt); err != nil {
			return err
		}
		tok, err = asset.ApplySaleTransfer(tx, registry, tokenID, m.addr, buyer, true)
		if err != nil {
			return err
		}
		refund := payment - price
		if err := ledger.Credit(tx, buyer, refund); err != nil {
			return err
		}

		receipt = &Receipt{
			ID:                uuid.New(),
			Kind:              PrimarySaleKind,
			Registry:          registry,
			TokenID:           tokenID,
			Buyer:             buyer,
			Seller:            seller,
			Price:             price,
			ArtistAmount:      artistAmt,
			PlatformAmount:    platformAmt,
			Refund:            refund,
			ArtistRecipient:   m.payout.ArtistRecipient(tok),
			PlatformRecipient: m.payout.PlatformRecipient(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.logReceipt(receipt)
	return receipt, nil
}

// SecondarySale settles a resale of a listed token: the buyer pays the
// listed price, the artist and the platform take their configured cuts, the
// seller receives the remainder, the listing is cleared and the token moves
// to the buyer. One transaction, all or nothing.
func (m *Marketplace) SecondarySale(buyer, registry account.Address, tokenID, payment uint64) (*Receipt, error) {
	var receipt *Receipt
	err := m.store.Update(func(tx state.Tx) error {
		if !m.whitelistedTx(tx, registry) {
			return fmt.Errorf("%w: %s", ErrNotWhitelisted, registry)
		}
		if _, err := asset.LoadRecord(tx, registry); err != nil {
			return err
		}
		tok, err := asset.LoadToken(tx, registry, tokenID)
		if err != nil {
			return err
		}
		if !tok.Listed {
			return fmt.Errorf("%w: token %d", ErrNotListedForSale, tokenID)
		}

		price := tok.Price
		if payment < price {
			return fmt.Errorf("%w: sent %d, need %d", ErrInsufficientAmount, payment, price)
		}
		if tok.Approved != m.addr {
			return fmt.Errorf("%w: token %d", asset.ErrTokenNotApproved, tokenID)
		}

		artistAmt, platformAmt, sellerAmt := fee.SplitSecondary(price, tok.Fees.SecondaryArtist, tok.Fees.SecondaryTaex)
		seller := tok.Owner
		artistRecipient := m.payout.ArtistRecipient(tok)

		if err := ledger.Debit(tx, buyer, payment); err != nil {
			return err
		}
		if err := ledger.Credit(tx, artistRecipient, artistAmt); err != nil {
			return err
		}
		if err := ledger.Credit(tx, m.payout.PlatformRecipient(), platformAmt); err != nil {
			return err
		}
		if err := ledger.Credit(tx, seller, sellerAmt); err != nil {
			return err
		}
		if _, err := asset.ApplySaleTransfer(tx, registry, tokenID, m.addr, buyer, false); err != nil {
			return err
		}
		refund := payment - price
		if err := ledger.Credit(tx, buyer, refund); err != nil {
			return err
		}

		receipt = &Receipt{
			ID:                uuid.New(),
			Kind:              SecondarySaleKind,
			Registry:          registry,
			TokenID:           tokenID,
			Buyer:             buyer,
			Seller:            seller,
			Price:             price,
			ArtistAmount:      artistAmt,
			PlatformAmount:    platformAmt,
			SellerAmount:      sellerAmt,
			Refund:            refund,
			ArtistRecipient:   artistRecipient,
			PlatformRecipient: m.payout.PlatformRecipient(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.logReceipt(receipt)
	return receipt, nil
}

func (m *Marketplace) whitelistKey(registry account.Address) []byte {
	k := make([]byte, 2*account.AddressSize)
	copy(k, m.addr[:])
	copy(k[account.AddressSize:], registry[:])
	return k
}

func (m *Marketplace) whitelistedTx(tx state.Tx, registry account.Address) bool {
	return tx.Bucket(state.BucketWhitelist).Get(m.whitelistKey(registry)) != nil
}

func (m *Marketplace) logReceipt(r *Receipt) {
	m.log.Info("sale settled",
		zap.String("receipt", r.ID.String()),
		zap.String("kind", string(r.Kind)),
		zap.String("registry", r.Registry.String()),
		zap.Uint64("token", r.TokenID),
		zap.String("buyer", r.Buyer.String()),
		zap.String("seller", r.Seller.String()),
		zap.Uint64("price", r.Price),
		zap.Uint64("artist", r.ArtistAmount),
		zap.Uint64("platform", r.PlatformAmount),
		zap.Uint64("sellerAmount", r.SellerAmount),
		zap.Uint64("refund", r.Refund))
}
