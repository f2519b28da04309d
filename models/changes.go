package models

import "github.com/0xmsu/tycho-indexer/codec"

// EntryPointParamSet is a set-valued binding of tracing params to an
// optional owning component, keyed by a deterministic fingerprint so
// duplicate (params, component) pairs collapse exactly once.
type EntryPointParamSet map[string]EntryPointParamEntry

// EntryPointParamEntry pairs tracing parameters with the component that
// requested them, if any.
type EntryPointParamEntry struct {
	Params      TracingParams
	ComponentID *string
}

// TxWithChanges is the per-transaction aggregate produced by the decoder:
// every change any single transaction caused, keyed for O(1) collision
// detection during decode and O(1) lookup afterwards.
type TxWithChanges struct {
	Tx                  Transaction
	ProtocolComponents  map[string]ProtocolComponent           // by component id
	AccountDeltas       map[string]AccountDelta                // by address hex
	StateUpdates        map[string]ProtocolComponentStateDelta // by component id
	ComponentBalances   map[string]map[string]ComponentBalance // by component id, then token hex
	AccountBalances     map[string]map[string]AccountBalance   // by account hex, then token hex
	EntryPoints         map[string]map[string]EntryPoint       // by component id, set of entry point external id
	EntryPointParams    map[string]EntryPointParamSet          // by entry point external id
}

// NewTxWithChanges builds a TxWithChanges with every map initialized, ready
// for incremental population during decode.
func NewTxWithChanges(tx Transaction) *TxWithChanges {
	return &TxWithChanges{
		Tx:                 tx,
		ProtocolComponents: make(map[string]ProtocolComponent),
		AccountDeltas:      make(map[string]AccountDelta),
		StateUpdates:       make(map[string]ProtocolComponentStateDelta),
		ComponentBalances:  make(map[string]map[string]ComponentBalance),
		AccountBalances:    make(map[string]map[string]AccountBalance),
		EntryPoints:        make(map[string]map[string]EntryPoint),
		EntryPointParams:   make(map[string]EntryPointParamSet),
	}
}

// TxWithStorageChanges is the per-transaction aggregate of raw contract
// storage writes, independent of the higher-level entity/account change
// streams (§3's BlockChanges.block_storage_changes).
type TxWithStorageChanges struct {
	Tx             Transaction
	StorageChanges map[string]map[string]codec.Bytes // by address hex, then slot key hex
}

// BlockChanges is the canonical per-block ingestion output: every
// transaction's changes, ordered by transaction index, plus the block's raw
// storage changes in the same order.
type BlockChanges struct {
	Extractor             string
	Chain                 Chain
	Block                 Block
	FinalizedBlockHeight  uint64
	Reverted              bool
	TxsWithChanges        []TxWithChanges
	BlockStorageChanges   []TxWithStorageChanges
}

// BlockAccountChanges is the realtime projection of a block's account
// deltas, sent to subscribers over the realtime client (§4.4).
type BlockAccountChanges struct {
	Extractor      string
	Chain          Chain
	Block          Block
	AccountUpdates map[string]AccountDelta // by address hex
}
