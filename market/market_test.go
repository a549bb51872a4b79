package market

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taexart/taexmarket/account"
	"github.com/taexart/taexmarket/asset"
	"github.com/taexart/taexmarket/fee"
	"github.com/taexart/taexmarket/ledger"
	"github.com/taexart/taexmarket/state"
)

func addr(seed byte) account.Address {
	var a account.Address
	for i := range a {
		a[i] = seed
	}
	return a
}

var (
	mktAddr    = addr(0x01)
	mktOwner   = addr(0x02)
	regAddr    = addr(0x03)
	regOwner   = addr(0x04)
	artistTre  = addr(0x05)
	taexTre    = addr(0x06)
	buyerAddr  = addr(0x07)
	sellerAddr = addr(0x08)
)

const primaryPrice = 1_000_000

type fixture struct {
	store *state.MemStore
	reg   *asset.Registry
	mkt   *Marketplace
	led   *ledger.Ledger
}

func defaultConfig() asset.Config {
	return asset.Config{
		Name:         "Taex Art",
		Symbol:       "TAEX",
		BaseURI:      "https://meta.taex.test/",
		PrimaryPrice: primaryPrice,
		DefaultFees:  fee.Bundle{PrimaryArtist: 85, SecondaryArtist: 10, SecondaryTaex: 10},
	}
}

func newFixture(t *testing.T, payout PayoutPolicy, cfg asset.Config) *fixture {
	t.Helper()

	store := state.NewMemStore()
	reg, err := asset.NewRegistry(store, regAddr, regOwner, cfg, nil)
	require.NoError(t, err)

	mkt, err := New(store, mktAddr, mktOwner, payout, nil)
	require.NoError(t, err)
	require.NoError(t, mkt.AddToWhitelist(mktOwner, regAddr))

	return &fixture{store: store, reg: reg, mkt: mkt, led: ledger.New(store)}
}

func fixedPayout(t *testing.T) PayoutPolicy {
	t.Helper()
	p, err := NewFixedTreasuries(artistTre, taexTre)
	require.NoError(t, err)
	return p
}

func perItemPayout(t *testing.T) PayoutPolicy {
	t.Helper()
	p, err := NewPerItemPayout(taexTre)
	require.NoError(t, err)
	return p
}

// mintApproved mints a token to sellerAddr and approves the marketplace.
func (f *fixture) mintApproved(t *testing.T) uint64 {
	t.Helper()
	id, err := f.reg.Mint(regOwner, sellerAddr)
	require.NoError(t, err)
	require.NoError(t, f.reg.Approve(sellerAddr, f.mkt.Address(), id))
	return id
}

func (f *fixture) balance(t *testing.T, a account.Address) uint64 {
	t.Helper()
	bal, err := f.led.Balance(a)
	require.NoError(t, err)
	return bal
}

func TestNew_Validation(t *testing.T) {
	store := state.NewMemStore()
	payout := fixedPayout(t)

	_, err := New(store, account.ZeroAddress, mktOwner, payout, nil)
	require.ErrorIs(t, err, ErrZeroAddress)

	_, err = New(store, mktAddr, account.ZeroAddress, payout, nil)
	require.ErrorIs(t, err, ErrZeroAddress)

	_, err = New(store, mktAddr, mktOwner, nil, nil)
	require.Error(t, err)
}

func TestWhitelist(t *testing.T) {
	f := newFixture(t, fixedPayout(t), defaultConfig())
	other := addr(0x20)

	ok, err := f.mkt.IsWhitelisted(regAddr)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.mkt.IsWhitelisted(other)
	require.NoError(t, err)
	assert.False(t, ok)

	// owner gate
	require.ErrorIs(t, f.mkt.AddToWhitelist(buyerAddr, other), ErrNotOwner)
	require.ErrorIs(t, f.mkt.RemoveFromWhitelist(buyerAddr, regAddr), ErrNotOwner)

	require.ErrorIs(t, f.mkt.AddToWhitelist(mktOwner, account.ZeroAddress), ErrZeroAddress)

	// idempotent both ways
	require.NoError(t, f.mkt.AddToWhitelist(mktOwner, regAddr))
	require.NoError(t, f.mkt.RemoveFromWhitelist(mktOwner, other))

	require.NoError(t, f.mkt.RemoveFromWhitelist(mktOwner, regAddr))
	ok, err = f.mkt.IsWhitelisted(regAddr)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPrimarySale_FixedTreasuries(t *testing.T) {
	f := newFixture(t, fixedPayout(t), defaultConfig())
	id := f.mintApproved(t)
	require.NoError(t, f.led.Deposit(buyerAddr, 2_000_000))

	r, err := f.mkt.PrimarySale(buyerAddr, regAddr, id, 1_200_000)
	require.NoError(t, err)

	assert.Equal(t, PrimarySaleKind, r.Kind)
	assert.Equal(t, uint64(primaryPrice), r.Price)
	assert.Equal(t, uint64(850_000), r.ArtistAmount)
	assert.Equal(t, uint64(150_000), r.PlatformAmount)
	assert.Equal(t, uint64(0), r.SellerAmount)
	assert.Equal(t, uint64(200_000), r.Refund)
	assert.Equal(t, sellerAddr, r.Seller)
	assert.Equal(t, artistTre, r.ArtistRecipient)
	assert.Equal(t, taexTre, r.PlatformRecipient)

	// net buyer outflow is exactly the price, overpayment came back
	assert.Equal(t, uint64(1_000_000), f.balance(t, buyerAddr))
	assert.Equal(t, uint64(850_000), f.balance(t, artistTre))
	assert.Equal(t, uint64(150_000), f.balance(t, taexTre))
	assert.Equal(t, uint64(0), f.balance(t, sellerAddr))

	tok, err := f.reg.TokenData(id)
	require.NoError(t, err)
	assert.Equal(t, buyerAddr, tok.Owner)
	assert.True(t, tok.PrimarySold)
	assert.Equal(t, account.ZeroAddress, tok.Approved)
}

func TestPrimarySale_NotWhitelisted(t *testing.T) {
	f := newFixture(t, fixedPayout(t), defaultConfig())
	id := f.mintApproved(t)
	require.NoError(t, f.led.Deposit(buyerAddr, 5_000_000))
	require.NoError(t, f.mkt.RemoveFromWhitelist(mktOwner, regAddr))

	// fails regardless of how much is paid
	_, err := f.mkt.PrimarySale(buyerAddr, regAddr, id, 5_000_000)
	require.ErrorIs(t, err, ErrNotWhitelisted)

	tok, err := f.reg.TokenData(id)
	require.NoError(t, err)
	assert.Equal(t, sellerAddr, tok.Owner)
	assert.Equal(t, uint64(5_000_000), f.balance(t, buyerAddr))
}

func TestPrimarySale_UnknownToken(t *testing.T) {
	f := newFixture(t, fixedPayout(t), defaultConfig())
	_, err := f.mkt.PrimarySale(buyerAddr, regAddr, 99, primaryPrice)
	require.ErrorIs(t, err, asset.ErrInvalidTokenID)
}

func TestPrimarySale_InsufficientPayment(t *testing.T) {
	f := newFixture(t, fixedPayout(t), defaultConfig())
	id := f.mintApproved(t)
	require.NoError(t, f.led.Deposit(buyerAddr, 2_000_000))

	_, err := f.mkt.PrimarySale(buyerAddr, regAddr, id, primaryPrice-1)
	require.ErrorIs(t, err, ErrInsufficientAmount)

	tok, err := f.reg.TokenData(id)
	require.NoError(t, err)
	assert.Equal(t, sellerAddr, tok.Owner)
	assert.Equal(t, uint64(2_000_000), f.balance(t, buyerAddr))
	assert.Equal(t, uint64(0), f.balance(t, artistTre))
}

func TestPrimarySale_NotApproved(t *testing.T) {
	f := newFixture(t, fixedPayout(t), defaultConfig())
	id, err := f.reg.Mint(regOwner, sellerAddr)
	require.NoError(t, err)
	require.NoError(t, f.led.Deposit(buyerAddr, 2_000_000))

	_, err = f.mkt.PrimarySale(buyerAddr, regAddr, id, primaryPrice)
	require.ErrorIs(t, err, asset.ErrTokenNotApproved)
}

func TestPrimarySale_InsufficientFunds(t *testing.T) {
	f := newFixture(t, fixedPayout(t), defaultConfig())
	id := f.mintApproved(t)
	require.NoError(t, f.led.Deposit(buyerAddr, primaryPrice/2))

	_, err := f.mkt.PrimarySale(buyerAddr, regAddr, id, primaryPrice)
	require.ErrorIs(t, err, ledger.ErrInsufficientFunds)

	// nothing moved
	tok, err := f.reg.TokenData(id)
	require.NoError(t, err)
	assert.Equal(t, sellerAddr, tok.Owner)
	assert.False(t, tok.PrimarySold)
	assert.Equal(t, f.mkt.Address(), tok.Approved)
	assert.Equal(t, uint64(primaryPrice/2), f.balance(t, buyerAddr))
	assert.Equal(t, uint64(0), f.balance(t, artistTre))
	assert.Equal(t, uint64(0), f.balance(t, taexTre))
}

func TestPrimarySale_PerItemPayout(t *testing.T) {
	f := newFixture(t, perItemPayout(t), defaultConfig())
	id := f.mintApproved(t)
	require.NoError(t, f.led.Deposit(buyerAddr, 2_000_000))

	r, err := f.mkt.PrimarySale(buyerAddr, regAddr, id, primaryPrice)
	require.NoError(t, err)

	// artist share goes to the minted-to account, not a fixed treasury
	assert.Equal(t, sellerAddr, r.ArtistRecipient)
	assert.Equal(t, uint64(850_000), f.balance(t, sellerAddr))
	assert.Equal(t, uint64(150_000), f.balance(t, taexTre))
}

func TestPrimarySale_PerItemRejectsFullArtistFee(t *testing.T) {
	f := newFixture(t, perItemPayout(t), defaultConfig())
	id, err := f.reg.MintWithSpecifiedFee(regOwner, sellerAddr,
		fee.Bundle{PrimaryArtist: 100, SecondaryArtist: 10, SecondaryTaex: 10})
	require.NoError(t, err)
	require.NoError(t, f.reg.Approve(sellerAddr, f.mkt.Address(), id))
	require.NoError(t, f.led.Deposit(buyerAddr, 2_000_000))

	_, err = f.mkt.PrimarySale(buyerAddr, regAddr, id, primaryPrice)
	require.ErrorIs(t, err, fee.ErrInvalidFeeConfiguration)

	tok, err := f.reg.TokenData(id)
	require.NoError(t, err)
	assert.Equal(t, sellerAddr, tok.Owner)
	assert.Equal(t, uint64(2_000_000), f.balance(t, buyerAddr))
}

func TestPrimarySale_FixedAcceptsFullArtistFee(t *testing.T) {
	f := newFixture(t, fixedPayout(t), defaultConfig())
	id, err := f.reg.MintWithSpecifiedFee(regOwner, sellerAddr,
		fee.Bundle{PrimaryArtist: 100, SecondaryArtist: 10, SecondaryTaex: 10})
	require.NoError(t, err)
	require.NoError(t, f.reg.Approve(sellerAddr, f.mkt.Address(), id))
	require.NoError(t, f.led.Deposit(buyerAddr, primaryPrice))

	r, err := f.mkt.PrimarySale(buyerAddr, regAddr, id, primaryPrice)
	require.NoError(t, err)
	assert.Equal(t, uint64(primaryPrice), r.ArtistAmount)
	assert.Equal(t, uint64(0), r.PlatformAmount)
}

func TestSecondarySale(t *testing.T) {
	f := newFixture(t, fixedPayout(t), defaultConfig())
	id := f.mintApproved(t)
	require.NoError(t, f.reg.ListForSale(sellerAddr, id, 1_000_000))
	require.NoError(t, f.led.Deposit(buyerAddr, 2_000_000))

	r, err := f.mkt.SecondarySale(buyerAddr, regAddr, id, 1_200_000)
	require.NoError(t, err)

	assert.Equal(t, SecondarySaleKind, r.Kind)
	assert.Equal(t, uint64(1_000_000), r.Price)
	assert.Equal(t, uint64(100_000), r.ArtistAmount)
	assert.Equal(t, uint64(100_000), r.PlatformAmount)
	assert.Equal(t, uint64(800_000), r.SellerAmount)
	assert.Equal(t, uint64(200_000), r.Refund)

	assert.Equal(t, uint64(1_000_000), f.balance(t, buyerAddr))
	assert.Equal(t, uint64(100_000), f.balance(t, artistTre))
	assert.Equal(t, uint64(100_000), f.balance(t, taexTre))
	assert.Equal(t, uint64(800_000), f.balance(t, sellerAddr))

	tok, err := f.reg.TokenData(id)
	require.NoError(t, err)
	assert.Equal(t, buyerAddr, tok.Owner)
	assert.False(t, tok.Listed)
	assert.Equal(t, account.ZeroAddress, tok.Approved)
}

func TestSecondarySale_NotListed(t *testing.T) {
	f := newFixture(t, fixedPayout(t), defaultConfig())
	id := f.mintApproved(t)
	require.NoError(t, f.led.Deposit(buyerAddr, 2_000_000))

	_, err := f.mkt.SecondarySale(buyerAddr, regAddr, id, 2_000_000)
	require.ErrorIs(t, err, ErrNotListedForSale)
}

func TestSecondarySale_NotWhitelisted(t *testing.T) {
	f := newFixture(t, fixedPayout(t), defaultConfig())
	id := f.mintApproved(t)
	require.NoError(t, f.reg.ListForSale(sellerAddr, id, 1_000_000))
	require.NoError(t, f.led.Deposit(buyerAddr, 2_000_000))
	require.NoError(t, f.mkt.RemoveFromWhitelist(mktOwner, regAddr))

	_, err := f.mkt.SecondarySale(buyerAddr, regAddr, id, 2_000_000)
	require.ErrorIs(t, err, ErrNotWhitelisted)
}

func TestSecondarySale_InsufficientPayment(t *testing.T) {
	f := newFixture(t, fixedPayout(t), defaultConfig())
	id := f.mintApproved(t)
	require.NoError(t, f.reg.ListForSale(sellerAddr, id, 1_000_000))
	require.NoError(t, f.led.Deposit(buyerAddr, 2_000_000))

	_, err := f.mkt.SecondarySale(buyerAddr, regAddr, id, 999_999)
	require.ErrorIs(t, err, ErrInsufficientAmount)

	tok, err := f.reg.TokenData(id)
	require.NoError(t, err)
	assert.Equal(t, sellerAddr, tok.Owner)
	assert.True(t, tok.Listed)
	assert.Equal(t, uint64(2_000_000), f.balance(t, buyerAddr))
}

func TestSecondarySale_ListingInheritedAfterDirectTransfer(t *testing.T) {
	f := newFixture(t, fixedPayout(t), defaultConfig())
	id := f.mintApproved(t)
	require.NoError(t, f.reg.ListForSale(sellerAddr, id, 1_000_000))

	// direct transfer keeps the listing; the new owner approves and the
	// inherited offer settles with proceeds going to the new owner
	heir := addr(0x30)
	require.NoError(t, f.reg.TransferFrom(sellerAddr, sellerAddr, heir, id))
	require.NoError(t, f.reg.Approve(heir, f.mkt.Address(), id))
	require.NoError(t, f.led.Deposit(buyerAddr, 1_000_000))

	r, err := f.mkt.SecondarySale(buyerAddr, regAddr, id, 1_000_000)
	require.NoError(t, err)
	assert.Equal(t, heir, r.Seller)
	assert.Equal(t, uint64(800_000), f.balance(t, heir))
	assert.Equal(t, uint64(0), f.balance(t, sellerAddr))
}

func TestSetTreasuries(t *testing.T) {
	f := newFixture(t, fixedPayout(t), defaultConfig())
	newArtist, newTaex := addr(0x40), addr(0x41)

	require.ErrorIs(t, f.mkt.SetTreasuries(buyerAddr, newArtist, newTaex), ErrNotOwner)
	require.ErrorIs(t, f.mkt.SetTreasuries(mktOwner, account.ZeroAddress, newTaex), ErrZeroAddress)
	require.ErrorIs(t, f.mkt.SetPlatformTreasury(mktOwner, newTaex), ErrUnsupportedTreasury)

	require.NoError(t, f.mkt.SetTreasuries(mktOwner, newArtist, newTaex))

	id := f.mintApproved(t)
	require.NoError(t, f.led.Deposit(buyerAddr, primaryPrice))
	r, err := f.mkt.PrimarySale(buyerAddr, regAddr, id, primaryPrice)
	require.NoError(t, err)
	assert.Equal(t, newArtist, r.ArtistRecipient)
	assert.Equal(t, newTaex, r.PlatformRecipient)
}

func TestSetPlatformTreasury(t *testing.T) {
	f := newFixture(t, perItemPayout(t), defaultConfig())
	newPlatform := addr(0x42)

	require.ErrorIs(t, f.mkt.SetPlatformTreasury(buyerAddr, newPlatform), ErrNotOwner)
	require.ErrorIs(t, f.mkt.SetPlatformTreasury(mktOwner, account.ZeroAddress), ErrZeroAddress)
	require.ErrorIs(t, f.mkt.SetTreasuries(mktOwner, newPlatform, newPlatform), ErrUnsupportedTreasury)

	require.NoError(t, f.mkt.SetPlatformTreasury(mktOwner, newPlatform))

	id := f.mintApproved(t)
	require.NoError(t, f.led.Deposit(buyerAddr, primaryPrice))
	r, err := f.mkt.PrimarySale(buyerAddr, regAddr, id, primaryPrice)
	require.NoError(t, err)
	assert.Equal(t, newPlatform, r.PlatformRecipient)
	assert.Equal(t, uint64(150_000), f.balance(t, newPlatform))
}

// Treasury updates arrive over HTTP while sales settle, so the payout
// policy is read and written concurrently. Every share must land on a
// treasury that was configured at some point, and no value may leak.
func TestSetTreasuries_ConcurrentWithSales(t *testing.T) {
	f := newFixture(t, fixedPayout(t), defaultConfig())
	altArtist, altTaex := addr(0x50), addr(0x51)

	const sales = 20
	ids, err := f.reg.BatchMint(regOwner, sellerAddr, sales)
	require.NoError(t, err)
	for _, id := range ids {
		require.NoError(t, f.reg.Approve(sellerAddr, f.mkt.Address(), id))
	}
	require.NoError(t, f.led.Deposit(buyerAddr, sales*primaryPrice))

	var wg sync.WaitGroup
	receipts := make([]*Receipt, sales)
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id uint64) {
			defer wg.Done()
			r, err := f.mkt.PrimarySale(buyerAddr, regAddr, id, primaryPrice)
			if assert.NoError(t, err) {
				receipts[i] = r
			}
		}(i, id)
	}
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				assert.NoError(t, f.mkt.SetTreasuries(mktOwner, altArtist, altTaex))
			} else {
				assert.NoError(t, f.mkt.SetTreasuries(mktOwner, artistTre, taexTre))
			}
		}(i)
	}
	wg.Wait()

	// every receipt names a treasury that was configured at some point
	for _, r := range receipts {
		require.NotNil(t, r)
		assert.Contains(t, []account.Address{artistTre, altArtist}, r.ArtistRecipient)
		assert.Contains(t, []account.Address{taexTre, altTaex}, r.PlatformRecipient)
	}

	// value conservation: the buyer's outflow is split across the four
	// candidate treasuries with nothing lost to a half-updated address
	assert.Equal(t, uint64(0), f.balance(t, buyerAddr))
	total := f.balance(t, artistTre) + f.balance(t, altArtist) +
		f.balance(t, taexTre) + f.balance(t, altTaex)
	assert.Equal(t, uint64(sales*primaryPrice), total)
}
