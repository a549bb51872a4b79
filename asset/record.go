package asset

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"

	"github.com/taexart/taexmarket/account"
	"github.com/taexart/taexmarket/state"
)

// tokenKey builds the composite key for a token: registry address followed
// by the big-endian token id, so one bucket holds every registry's tokens.
func tokenKey(reg account.Address, id uint64) []byte {
	k := make([]byte, account.AddressSize+8)
	copy(k, reg[:])
	binary.BigEndian.PutUint64(k[account.AddressSize:], id)
	return k
}

// LoadRecord reads a registry record inside an open transaction.
func LoadRecord(tx state.Tx, addr account.Address) (*Record, error) {
	data := tx.Bucket(state.BucketRegistries).Get(addr.Bytes())
	if data == nil {
		return nil, fmt.Errorf("%w: %s", ErrRegistryNotFound, addr)
	}
	var rec Record
	if err := decodeGob(data, &rec); err != nil {
		return nil, fmt.Errorf("asset: decode registry record: %w", err)
	}
	return &rec, nil
}

func saveRecord(tx state.Tx, rec *Record) error {
	data, err := encodeGob(rec)
	if err != nil {
		return fmt.Errorf("asset: encode registry record: %w", err)
	}
	return tx.Bucket(state.BucketRegistries).Put(rec.Address.Bytes(), data)
}

// LoadToken reads a token record inside an open transaction.
func LoadToken(tx state.Tx, reg account.Address, id uint64) (*TokenData, error) {
	data := tx.Bucket(state.BucketTokens).Get(tokenKey(reg, id))
	if data == nil {
		return nil, fmt.Errorf("%w: token %d in %s", ErrInvalidTokenID, id, reg)
	}
	var tok TokenData
	if err := decodeGob(data, &tok); err != nil {
		return nil, fmt.Errorf("asset: decode token record: %w", err)
	}
	return &tok, nil
}

func saveToken(tx state.Tx, reg account.Address, tok *TokenData) error {
	data, err := encodeGob(tok)
	if err != nil {
		return fmt.Errorf("asset: encode token record: %w", err)
	}
	return tx.Bucket(state.BucketTokens).Put(tokenKey(reg, tok.ID), data)
}

// ApplySaleTransfer moves a token to the buyer on behalf of an approved
// marketplace operator, inside the settlement transaction. A primary sale
// marks the token sold; a secondary sale clears the listing. The approval
// is consumed either way.
func ApplySaleTransfer(tx state.Tx, reg account.Address, id uint64, operator, buyer account.Address, primary bool) (*TokenData, error) {
	if buyer.IsZero() {
		return nil, fmt.Errorf("%w: buyer", ErrZeroAddress)
	}
	tok, err := LoadToken(tx, reg, id)
	if err != nil {
		return nil, err
	}
	if tok.Approved != operator {
		return nil, fmt.Errorf("%w: token %d, operator %s", ErrTokenNotApproved, id, operator)
	}

	tok.Owner = buyer
	tok.Approved = account.ZeroAddress
	if primary {
		tok.PrimarySold = true
	} else {
		tok.Listed = false
	}
	if err := saveToken(tx, reg, tok); err != nil {
		return nil, err
	}
	return tok, nil
}

func encodeGob(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeGob(data []byte, v interface{}) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(v)
}
