package pb

import "google.golang.org/protobuf/encoding/protowire"

// BlockContractChanges is the top-level substreams module output carrying
// only account/contract-level changes (spec.md §6's first input shape).
type BlockContractChanges struct {
	Block   *Block
	Changes []*TransactionContractChanges
}

// Unmarshal decodes a wire-format BlockContractChanges message.
func (m *BlockContractChanges) Unmarshal(b []byte) error {
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			m.Block = &Block{}
			return unmarshalSub(b, m.Block)
		case 2:
			tc := &TransactionContractChanges{}
			n, err := unmarshalSubInto(b, tc)
			if err == nil {
				m.Changes = append(m.Changes, tc)
			}
			return n, err
		default:
			return skipField(typ, b)
		}
	})
}

// BlockEntityChanges is the top-level substreams module output carrying
// only protocol-component/entity-level changes (spec.md §6's second input
// shape).
type BlockEntityChanges struct {
	Block   *Block
	Changes []*TransactionEntityChanges
}

// Unmarshal decodes a wire-format BlockEntityChanges message.
func (m *BlockEntityChanges) Unmarshal(b []byte) error {
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			m.Block = &Block{}
			return unmarshalSub(b, m.Block)
		case 2:
			tc := &TransactionEntityChanges{}
			n, err := unmarshalSubInto(b, tc)
			if err == nil {
				m.Changes = append(m.Changes, tc)
			}
			return n, err
		default:
			return skipField(typ, b)
		}
	})
}

// BlockChanges is the unified top-level substreams module output carrying
// every change kind a block may produce: contract, entity, balance,
// entry-point and raw storage changes alike. This is the message shape the
// Tycho-native substreams modules emit and the one the decoder (§4.2)
// targets.
type BlockChanges struct {
	Block          *Block
	Changes        []*TransactionChanges
	StorageChanges []*TransactionStorageChanges
}

// Unmarshal decodes a wire-format BlockChanges message.
func (m *BlockChanges) Unmarshal(b []byte) error {
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			m.Block = &Block{}
			return unmarshalSub(b, m.Block)
		case 2:
			tc := &TransactionChanges{}
			n, err := unmarshalSubInto(b, tc)
			if err == nil {
				m.Changes = append(m.Changes, tc)
			}
			return n, err
		case 3:
			sc := &TransactionStorageChanges{}
			n, err := unmarshalSubInto(b, sc)
			if err == nil {
				m.StorageChanges = append(m.StorageChanges, sc)
			}
			return n, err
		default:
			return skipField(typ, b)
		}
	})
}
