package asset

import (
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/taexart/taexmarket/account"
	"github.com/taexart/taexmarket/fee"
	"github.com/taexart/taexmarket/state"
)

// Registry is a handle on one registry instance inside the shared store.
// Every mutating operation takes the caller explicitly and runs as a single
// store transaction; a failure leaves no partial state.
type Registry struct {
	store state.Store
	addr  account.Address
	log   *zap.Logger
}

// NewRegistry creates a registry at addr owned by owner and returns a handle
// on it. The default fee bundle is validated before anything is persisted;
// with Config.StrictFees it must also leave a platform share on primary
// sales. Fails with ErrRegistryExists if the address is taken.
func NewRegistry(store state.Store, addr, owner account.Address, cfg Config, log *zap.Logger) (*Registry, error) {
	if addr.IsZero() || owner.IsZero() {
		return nil, fmt.Errorf("%w: registry address and owner", ErrZeroAddress)
	}
	if err := validateFees(cfg, cfg.DefaultFees); err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}

	err := store.Update(func(tx state.Tx) error {
		if tx.Bucket(state.BucketRegistries).Get(addr.Bytes()) != nil {
			return fmt.Errorf("%w: %s", ErrRegistryExists, addr)
		}
		return saveRecord(tx, &Record{
			Address: addr,
			Owner:   owner,
			NextID:  1,
			Config:  cfg,
		})
	})
	if err != nil {
		return nil, err
	}

	log.Info("registry created",
		zap.String("registry", addr.String()),
		zap.String("owner", owner.String()),
		zap.Uint64("maxSupply", cfg.MaxSupply))
	return &Registry{store: store, addr: addr, log: log}, nil
}

// OpenRegistry returns a handle on an existing registry.
func OpenRegistry(store state.Store, addr account.Address, log *zap.Logger) (*Registry, error) {
	if log == nil {
		log = zap.NewNop()
	}
	err := store.View(func(tx state.Tx) error {
		_, err := LoadRecord(tx, addr)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &Registry{store: store, addr: addr, log: log}, nil
}

// Address returns the registry's account address.
func (r *Registry) Address() account.Address { return r.addr }

// Record returns a snapshot of the registry's persisted state.
func (r *Registry) Record() (Record, error) {
	var rec Record
	err := r.store.View(func(tx state.Tx) error {
		p, err := LoadRecord(tx, r.addr)
		if err != nil {
			return err
		}
		rec = *p
		return nil
	})
	return rec, err
}

// Mint creates one item owned by to, carrying the registry's default fee
// bundle and primed with the registry primary price. Registry owner only.
func (r *Registry) Mint(caller, to account.Address) (uint64, error) {
	ids, err := r.mint(caller, to, 1, nil)
	if err != nil {
		return 0, err
	}
	return ids[0], nil
}

// MintWithSpecifiedFee creates one item with a per-call fee bundle instead
// of the registry default. The bundle is validated before the item exists.
func (r *Registry) MintWithSpecifiedFee(caller, to account.Address, fees fee.Bundle) (uint64, error) {
	ids, err := r.mint(caller, to, 1, &fees)
	if err != nil {
		return 0, err
	}
	return ids[0], nil
}

// BatchMint creates count items in one transaction. If the supply ceiling
// would be exceeded partway through, the whole batch fails and the id
// counter is untouched.
func (r *Registry) BatchMint(caller, to account.Address, count uint64) ([]uint64, error) {
	return r.mint(caller, to, count, nil)
}

func (r *Registry) mint(caller, to account.Address, count uint64, fees *fee.Bundle) ([]uint64, error) {
	if to.IsZero() {
		return nil, fmt.Errorf("%w: mint to the zero account", ErrInvalidMintAmount)
	}
	if count == 0 {
		return nil, fmt.Errorf("%w: count is zero", ErrInvalidMintAmount)
	}

	var ids []uint64
	err := r.store.Update(func(tx state.Tx) error {
		rec, err := LoadRecord(tx, r.addr)
		if err != nil {
			return err
		}
		if caller != rec.Owner {
			return fmt.Errorf("%w: %s", ErrNotAuthorized, caller)
		}

		bundle := rec.Config.DefaultFees
		if fees != nil {
			if err := validateFees(rec.Config, *fees); err != nil {
				return err
			}
			bundle = *fees
		}

		minted := rec.NextID - 1
		if rec.Config.MaxSupply > 0 && minted+count > rec.Config.MaxSupply {
			return fmt.Errorf("%w: %d minted, %d requested, ceiling %d",
				ErrMaxSupplyExceeded, minted, count, rec.Config.MaxSupply)
		}

		ids = make([]uint64, 0, count)
		for i := uint64(0); i < count; i++ {
			id := rec.NextID
			rec.NextID++
			tok := &TokenData{
				ID:     id,
				Owner:  to,
				Artist: to,
				Price:  rec.Config.PrimaryPrice,
				Fees:   bundle,
			}
			if err := saveToken(tx, r.addr, tok); err != nil {
				return err
			}
			ids = append(ids, id)
		}
		return saveRecord(tx, rec)
	})
	if err != nil {
		return nil, err
	}

	r.log.Info("minted",
		zap.String("registry", r.addr.String()),
		zap.String("to", to.String()),
		zap.Uint64s("ids", ids))
	return ids, nil
}

// ListForSale offers a token for resale at price. Token owner only; the
// token must not already be listed and the price must be positive.
func (r *Registry) ListForSale(caller account.Address, id, price uint64) error {
	return r.store.Update(func(tx state.Tx) error {
		return listOne(tx, r.addr, caller, id, price)
	})
}

// BatchListForSale lists every id at the same price in one transaction; any
// single failure aborts the whole batch.
func (r *Registry) BatchListForSale(caller account.Address, ids []uint64, price uint64) error {
	return r.store.Update(func(tx state.Tx) error {
		for _, id := range ids {
			if err := listOne(tx, r.addr, caller, id, price); err != nil {
				return err
			}
		}
		return nil
	})
}

func listOne(tx state.Tx, reg, caller account.Address, id, price uint64) error {
	if price == 0 {
		return fmt.Errorf("%w: token %d", ErrZeroPrice, id)
	}
	tok, err := LoadToken(tx, reg, id)
	if err != nil {
		return err
	}
	if tok.Owner != caller {
		return fmt.Errorf("%w: token %d", ErrNotOwnerOfToken, id)
	}
	if tok.Listed {
		return fmt.Errorf("%w: token %d", ErrAlreadyListed, id)
	}
	tok.Listed = true
	tok.Price = price
	return saveToken(tx, reg, tok)
}

// UnlistFromSale withdraws a listing. Token owner only.
func (r *Registry) UnlistFromSale(caller account.Address, id uint64) error {
	return r.store.Update(func(tx state.Tx) error {
		tok, err := LoadToken(tx, r.addr, id)
		if err != nil {
			return err
		}
		if tok.Owner != caller {
			return fmt.Errorf("%w: token %d", ErrNotOwnerOfToken, id)
		}
		if !tok.Listed {
			return fmt.Errorf("%w: token %d", ErrNotListed, id)
		}
		tok.Listed = false
		return saveToken(tx, r.addr, tok)
	})
}

// AdjustPrice overwrites the sale price of a listed token without changing
// its listing state. Token owner only.
func (r *Registry) AdjustPrice(caller account.Address, id, newPrice uint64) error {
	return r.store.Update(func(tx state.Tx) error {
		if newPrice == 0 {
			return fmt.Errorf("%w: token %d", ErrZeroPrice, id)
		}
		tok, err := LoadToken(tx, r.addr, id)
		if err != nil {
			return err
		}
		if tok.Owner != caller {
			return fmt.Errorf("%w: token %d", ErrNotOwnerOfToken, id)
		}
		if !tok.Listed {
			return fmt.Errorf("%w: token %d", ErrNotListed, id)
		}
		tok.Price = newPrice
		return saveToken(tx, r.addr, tok)
	})
}

// Approve authorizes spender to transfer the token on the owner's behalf.
// The marketplace must be approved before it can settle a sale.
func (r *Registry) Approve(caller, spender account.Address, id uint64) error {
	return r.store.Update(func(tx state.Tx) error {
		tok, err := LoadToken(tx, r.addr, id)
		if err != nil {
			return err
		}
		if tok.Owner != caller {
			return fmt.Errorf("%w: token %d", ErrNotOwnerOfToken, id)
		}
		tok.Approved = spender
		return saveToken(tx, r.addr, tok)
	})
}

// TransferFrom moves a token directly between accounts, outside settlement.
// The caller must be the owner or the approved account. The listing is
// deliberately left intact: an active resale offer survives the transfer
// and is inherited by the new owner.
func (r *Registry) TransferFrom(caller, from, to account.Address, id uint64) error {
	if to.IsZero() {
		return fmt.Errorf("%w: transfer to the zero account", ErrZeroAddress)
	}
	return r.store.Update(func(tx state.Tx) error {
		tok, err := LoadToken(tx, r.addr, id)
		if err != nil {
			return err
		}
		if tok.Owner != from {
			return fmt.Errorf("%w: token %d is not owned by %s", ErrNotOwnerOfToken, id, from)
		}
		if caller != tok.Owner && caller != tok.Approved {
			return fmt.Errorf("%w: token %d", ErrNotOwnerNorApproved, id)
		}
		tok.Owner = to
		tok.Approved = account.ZeroAddress
		return saveToken(tx, r.addr, tok)
	})
}

// TokenData returns a read-only snapshot of a token.
func (r *Registry) TokenData(id uint64) (TokenData, error) {
	var tok TokenData
	err := r.store.View(func(tx state.Tx) error {
		p, err := LoadToken(tx, r.addr, id)
		if err != nil {
			return err
		}
		tok = *p
		return nil
	})
	return tok, err
}

// TokenURI returns the metadata location for a token: the registry base URI
// followed by the decimal id.
func (r *Registry) TokenURI(id uint64) (string, error) {
	rec, err := r.Record()
	if err != nil {
		return "", err
	}
	if _, err := r.TokenData(id); err != nil {
		return "", err
	}
	return rec.Config.BaseURI + strconv.FormatUint(id, 10), nil
}

// SetDefaultData updates the registry's primary price and default fee
// bundle for future mints. Registry owner only; the bundle is validated the
// same way as at construction.
func (r *Registry) SetDefaultData(caller account.Address, primaryPrice uint64, fees fee.Bundle) error {
	return r.store.Update(func(tx state.Tx) error {
		rec, err := LoadRecord(tx, r.addr)
		if err != nil {
			return err
		}
		if caller != rec.Owner {
			return fmt.Errorf("%w: %s", ErrNotAuthorized, caller)
		}
		if err := validateFees(rec.Config, fees); err != nil {
			return err
		}
		rec.Config.PrimaryPrice = primaryPrice
		rec.Config.DefaultFees = fees
		return saveRecord(tx, rec)
	})
}

// SetBaseURI updates the metadata prefix. Registry owner only.
func (r *Registry) SetBaseURI(caller account.Address, baseURI string) error {
	return r.store.Update(func(tx state.Tx) error {
		rec, err := LoadRecord(tx, r.addr)
		if err != nil {
			return err
		}
		if caller != rec.Owner {
			return fmt.Errorf("%w: %s", ErrNotAuthorized, caller)
		}
		rec.Config.BaseURI = baseURI
		return saveRecord(tx, rec)
	})
}

// validateFees applies the mint-time fee rules: the bundle itself must be
// valid, and strict registries also demand a platform share on primary
// sales here instead of at sale time.
func validateFees(cfg Config, b fee.Bundle) error {
	if err := fee.Validate(b); err != nil {
		return err
	}
	if cfg.StrictFees {
		return fee.RequirePlatformShare(b)
	}
	return nil
}
