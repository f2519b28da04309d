package ethereum

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/0xmsu/tycho-indexer/codec"
)

// StorageSnapshotRequest asks the extractor for one account's code,
// balance, and (optionally scoped) storage at a given block (spec.md
// §4.3). The mode is fixed by the constructor that built the request, not
// by whether Slots is nil: FullDumpRequest (and a zero-value request) means
// "all slots" (full dump); CodeAndBalanceRequest, or SlotsRequest with an
// empty list, means "just code and balance"; SlotsRequest with a non-empty
// list means "these slots only".
type StorageSnapshotRequest struct {
	Address common.Address
	Slots   []common.Hash
	hasSlots bool
}

// FullDumpRequest builds a request for every storage slot of address.
func FullDumpRequest(address common.Address) StorageSnapshotRequest {
	return StorageSnapshotRequest{Address: address}
}

// CodeAndBalanceRequest builds a request for just code and balance, no
// storage.
func CodeAndBalanceRequest(address common.Address) StorageSnapshotRequest {
	return StorageSnapshotRequest{Address: address, Slots: []common.Hash{}, hasSlots: true}
}

// SlotsRequest builds a request scoped to the given storage slots.
func SlotsRequest(address common.Address, slots []common.Hash) StorageSnapshotRequest {
	return StorageSnapshotRequest{Address: address, Slots: slots, hasSlots: true}
}

// IsFullDump reports whether this request asks for every storage slot.
func (r StorageSnapshotRequest) IsFullDump() bool {
	return !r.hasSlots
}

// dedupKey returns a key identifying this request by full equality
// (address + slot list), used by the batched extractor's deduplication
// pass (spec.md §4.3.b step 1, invariant 7).
func (r StorageSnapshotRequest) dedupKey() string {
	key := r.Address.Hex()
	if !r.hasSlots {
		return key + "|full"
	}
	key += "|slots"
	for _, s := range r.Slots {
		key += "|" + s.Hex()
	}
	return key
}

// SlotResult is one storage slot's key and value, with a nil Value meaning
// the slot is cleared (spec.md §8 invariant 5).
type SlotResult struct {
	Key   codec.Bytes
	Value *codec.Bytes
}

// AccountResult is the extractor's output for one account: code, balance,
// and the slots that were in scope for the originating request.
type AccountResult struct {
	Address codec.Bytes
	Balance codec.Bytes
	Code    codec.Bytes
	Slots   map[string]SlotResult // by slot-key hex string
}
