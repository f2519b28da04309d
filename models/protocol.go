package models

import (
	"time"

	"github.com/0xmsu/tycho-indexer/codec"
)

// ComponentBalance is the balance of a token held by a protocol component
// (e.g. a pool's reserve of one of its tokens), keyed by (ComponentID,
// Token).
type ComponentBalance struct {
	ComponentID  string
	Token        codec.Bytes
	Balance      codec.Bytes
	BalanceFloat float64 // NaN if the big-endian decoding overflows
	ModifyTx     codec.Bytes
}

// ProtocolType describes a registered kind of protocol component (e.g.
// "WeightedPool"). The registry is supplied by the caller and is read-only
// to the decoder.
type ProtocolType struct {
	Name string
}

// ProtocolTypeRegistry maps a protocol_type_name to its registration. A
// component whose type name is absent from the registry fails decoding.
type ProtocolTypeRegistry map[string]ProtocolType

// ProtocolComponent is a logical on-chain trading venue (a pool) identified
// by a stable string ID.
type ProtocolComponent struct {
	ID                string
	ProtocolSystem    string
	ProtocolTypeName  string
	Tokens            []codec.Bytes
	ContractAddresses []codec.Bytes
	StaticAttributes  map[string]codec.Bytes
	Chain             Chain
	Change            ChangeType
	CreationTx        codec.Bytes
	CreatedAt         time.Time
}

// ProtocolComponentStateDelta is a diff of a protocol component's entity
// attributes, scoped to a single transaction. UpdatedAttributes and
// DeletedAttributes are disjoint.
type ProtocolComponentStateDelta struct {
	ComponentID       string
	UpdatedAttributes map[string]codec.Bytes
	DeletedAttributes map[string]struct{}
}

// NewProtocolComponentStateDelta builds a delta with initialized maps.
func NewProtocolComponentStateDelta(componentID string) *ProtocolComponentStateDelta {
	return &ProtocolComponentStateDelta{
		ComponentID:       componentID,
		UpdatedAttributes: make(map[string]codec.Bytes),
		DeletedAttributes: make(map[string]struct{}),
	}
}
