// Package ledger tracks native-currency balances inside the shared state
// store. The transaction-scoped functions (Credit, Debit, Transfer) are what
// the marketplace calls while settling a sale, so every balance movement
// commits or aborts together with the ownership change in the same store
// transaction.
package ledger

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/taexart/taexmarket/account"
	"github.com/taexart/taexmarket/state"
)

// Ledger reads and funds account balances through a state store.
type Ledger struct {
	store state.Store
}

// New creates a ledger over the shared store.
func New(store state.Store) *Ledger {
	return &Ledger{store: store}
}

// Balance returns the current balance of an account. Accounts with no
// history have a zero balance.
func (l *Ledger) Balance(addr account.Address) (uint64, error) {
	var bal uint64
	err := l.store.View(func(tx state.Tx) error {
		bal = BalanceTx(tx, addr)
		return nil
	})
	return bal, err
}

// Deposit adds funds to an account. This is how external value enters the
// system (a funding gateway, or the dev faucet in the daemon).
func (l *Ledger) Deposit(addr account.Address, amount uint64) error {
	if addr.IsZero() {
		return fmt.Errorf("%w: deposit recipient", ErrZeroAccount)
	}
	return l.store.Update(func(tx state.Tx) error {
		return Credit(tx, addr, amount)
	})
}

// BalanceTx returns an account balance inside an open transaction.
func BalanceTx(tx state.Tx, addr account.Address) uint64 {
	v := tx.Bucket(state.BucketBalances).Get(addr.Bytes())
	if v == nil {
		return 0
	}
	return binary.BigEndian.Uint64(v)
}

// Credit adds amount to an account balance inside an open transaction.
func Credit(tx state.Tx, addr account.Address, amount uint64) error {
	bal := BalanceTx(tx, addr)
	if bal > math.MaxUint64-amount {
		return fmt.Errorf("%w: %s", ErrBalanceOverflow, addr)
	}
	return putBalance(tx, addr, bal+amount)
}

// Debit removes amount from an account balance inside an open transaction.
// Fails with ErrInsufficientFunds if the balance is too small.
func Debit(tx state.Tx, addr account.Address, amount uint64) error {
	bal := BalanceTx(tx, addr)
	if bal < amount {
		return fmt.Errorf("%w: %s has %d, needs %d", ErrInsufficientFunds, addr, bal, amount)
	}
	return putBalance(tx, addr, bal-amount)
}

// Transfer moves amount between two accounts inside an open transaction.
func Transfer(tx state.Tx, from, to account.Address, amount uint64) error {
	if err := Debit(tx, from, amount); err != nil {
		return err
	}
	return Credit(tx, to, amount)
}

func putBalance(tx state.Tx, addr account.Address, bal uint64) error {
	v := make([]byte, 8)
	binary.BigEndian.PutUint64(v, bal)
	return tx.Bucket(state.BucketBalances).Put(addr.Bytes(), v)
}
