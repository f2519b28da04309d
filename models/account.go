package models

import "github.com/0xmsu/tycho-indexer/codec"

// SlotValue holds a single storage slot's value. A nil Value (IsCleared
// true) denotes a cleared (zero) slot; otherwise Value holds the exact
// bytes read from the chain.
type SlotValue struct {
	Value     codec.Bytes
	IsCleared bool
}

// ClearedSlot is the zero-value convention for a cleared storage slot.
var ClearedSlot = SlotValue{IsCleared: true}

// SomeSlot wraps a concrete storage value.
func SomeSlot(v codec.Bytes) SlotValue {
	return SlotValue{Value: v}
}

// AccountDelta is a diff against an account's prior state, scoped to a
// single transaction (or, for extractor snapshots, to a single block).
type AccountDelta struct {
	Address codec.Bytes
	Chain   Chain
	Slots   map[string]SlotValue // keyed by the storage key's hex string
	Balance codec.Bytes          // nil when not part of this delta
	Code    codec.Bytes          // nil when not part of this delta; zero-length means "known empty"
	Change  ChangeType
}

// NewAccountDelta builds an AccountDelta with an initialized Slots map.
func NewAccountDelta(address codec.Bytes, chain Chain, balance, code codec.Bytes, change ChangeType) *AccountDelta {
	return &AccountDelta{
		Address: address,
		Chain:   chain,
		Slots:   make(map[string]SlotValue),
		Balance: balance,
		Code:    code,
		Change:  change,
	}
}

// SetSlot records the value of a storage slot, keyed by its hex string.
func (a *AccountDelta) SetSlot(key codec.Bytes, value SlotValue) {
	if a.Slots == nil {
		a.Slots = make(map[string]SlotValue)
	}
	a.Slots[key.String()] = value
}

// AccountBalance is an ERC20-style balance of a token held by an account,
// keyed by (Account, Token).
type AccountBalance struct {
	Account  codec.Bytes
	Token    codec.Bytes
	Balance  codec.Bytes
	ModifyTx codec.Bytes
}
