// Package pb holds the wire-shaped types of the substreams block messages
// this indexer consumes (BlockContractChanges, BlockEntityChanges,
// BlockChanges — see spec.md §6). No .proto schema ships with this
// repository, so these mirror the upstream tycho-substreams schema by hand
// and are decoded from the wire with google.golang.org/protobuf's low-level
// protowire primitives rather than full codegen.
package pb

import (
	"google.golang.org/protobuf/encoding/protowire"
)

// ChangeType is the wire enum for a field's mutation kind. Protobuf enums
// default to zero meaning "unspecified".
type ChangeType int32

const (
	ChangeTypeUnspecified ChangeType = 0
	ChangeTypeCreation    ChangeType = 1
	ChangeTypeUpdate      ChangeType = 2
	ChangeTypeDeletion    ChangeType = 3
)

// Block is the wire shape of a single chain block.
type Block struct {
	Number     uint64
	Hash       []byte
	ParentHash []byte
	Ts         uint64
}

func (m *Block) unmarshal(b []byte) error {
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n := protowire.ConsumeVarint(b)
			m.Number = v
			return n, protowireErr(n)
		case 2:
			v, n := protowire.ConsumeBytes(b)
			m.Hash = append([]byte(nil), v...)
			return n, protowireErr(n)
		case 3:
			v, n := protowire.ConsumeBytes(b)
			m.ParentHash = append([]byte(nil), v...)
			return n, protowireErr(n)
		case 4:
			v, n := protowire.ConsumeVarint(b)
			m.Ts = v
			return n, protowireErr(n)
		default:
			return skipField(typ, b)
		}
	})
}

// Transaction is the wire shape of a single transaction.
type Transaction struct {
	Hash  []byte
	From  []byte
	To    []byte
	Index uint64
}

func (m *Transaction) unmarshal(b []byte) error {
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n := protowire.ConsumeBytes(b)
			m.Hash = append([]byte(nil), v...)
			return n, protowireErr(n)
		case 2:
			v, n := protowire.ConsumeBytes(b)
			m.From = append([]byte(nil), v...)
			return n, protowireErr(n)
		case 3:
			v, n := protowire.ConsumeBytes(b)
			m.To = append([]byte(nil), v...)
			return n, protowireErr(n)
		case 4:
			v, n := protowire.ConsumeVarint(b)
			m.Index = v
			return n, protowireErr(n)
		default:
			return skipField(typ, b)
		}
	})
}

// SlotChange is a single storage slot write.
type SlotChange struct {
	Slot  []byte
	Value []byte
}

func (m *SlotChange) unmarshal(b []byte) error {
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n := protowire.ConsumeBytes(b)
			m.Slot = append([]byte(nil), v...)
			return n, protowireErr(n)
		case 2:
			v, n := protowire.ConsumeBytes(b)
			m.Value = append([]byte(nil), v...)
			return n, protowireErr(n)
		default:
			return skipField(typ, b)
		}
	})
}

// TokenBalance is a single account-held token balance.
type TokenBalance struct {
	Token   []byte
	Balance []byte
}

func (m *TokenBalance) unmarshal(b []byte) error {
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n := protowire.ConsumeBytes(b)
			m.Token = append([]byte(nil), v...)
			return n, protowireErr(n)
		case 2:
			v, n := protowire.ConsumeBytes(b)
			m.Balance = append([]byte(nil), v...)
			return n, protowireErr(n)
		default:
			return skipField(typ, b)
		}
	})
}

// ContractChange is the wire shape of an account-level delta within a
// transaction.
type ContractChange struct {
	Address       []byte
	Slots         []*SlotChange
	Balance       []byte
	Code          []byte
	Change        ChangeType
	TokenBalances []*TokenBalance
}

func (m *ContractChange) unmarshal(b []byte) error {
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n := protowire.ConsumeBytes(b)
			m.Address = append([]byte(nil), v...)
			return n, protowireErr(n)
		case 2:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return n, protowireErr(n)
			}
			s := &SlotChange{}
			if err := s.unmarshal(v); err != nil {
				return n, err
			}
			m.Slots = append(m.Slots, s)
			return n, nil
		case 3:
			v, n := protowire.ConsumeBytes(b)
			m.Balance = append([]byte(nil), v...)
			return n, protowireErr(n)
		case 4:
			v, n := protowire.ConsumeBytes(b)
			m.Code = append([]byte(nil), v...)
			return n, protowireErr(n)
		case 5:
			v, n := protowire.ConsumeVarint(b)
			m.Change = ChangeType(v)
			return n, protowireErr(n)
		case 6:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return n, protowireErr(n)
			}
			tb := &TokenBalance{}
			if err := tb.unmarshal(v); err != nil {
				return n, err
			}
			m.TokenBalances = append(m.TokenBalances, tb)
			return n, nil
		default:
			return skipField(typ, b)
		}
	})
}

// Attribute is a single entity attribute change (create/update/delete of a
// named value on a protocol component).
type Attribute struct {
	Name   string
	Value  []byte
	Change ChangeType
}

func (m *Attribute) unmarshal(b []byte) error {
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n := protowire.ConsumeString(b)
			m.Name = v
			return n, protowireErr(n)
		case 2:
			v, n := protowire.ConsumeBytes(b)
			m.Value = append([]byte(nil), v...)
			return n, protowireErr(n)
		case 3:
			v, n := protowire.ConsumeVarint(b)
			m.Change = ChangeType(v)
			return n, protowireErr(n)
		default:
			return skipField(typ, b)
		}
	})
}

// EntityChanges is the wire shape of a protocol component's attribute
// deltas within a transaction.
type EntityChanges struct {
	ComponentID string
	Attributes  []*Attribute
}

func (m *EntityChanges) unmarshal(b []byte) error {
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n := protowire.ConsumeString(b)
			m.ComponentID = v
			return n, protowireErr(n)
		case 2:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return n, protowireErr(n)
			}
			a := &Attribute{}
			if err := a.unmarshal(v); err != nil {
				return n, err
			}
			m.Attributes = append(m.Attributes, a)
			return n, nil
		default:
			return skipField(typ, b)
		}
	})
}

// ProtocolType names a registered kind of protocol component.
type ProtocolType struct {
	Name string
}

func (m *ProtocolType) unmarshal(b []byte) error {
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n := protowire.ConsumeString(b)
			m.Name = v
			return n, protowireErr(n)
		default:
			return skipField(typ, b)
		}
	})
}

// StaticAttribute is a (name, value) pair attached to a protocol component
// at creation time.
type StaticAttribute struct {
	Name  string
	Value []byte
}

func (m *StaticAttribute) unmarshal(b []byte) error {
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n := protowire.ConsumeString(b)
			m.Name = v
			return n, protowireErr(n)
		case 2:
			v, n := protowire.ConsumeBytes(b)
			m.Value = append([]byte(nil), v...)
			return n, protowireErr(n)
		default:
			return skipField(typ, b)
		}
	})
}

// ProtocolComponent is the wire shape of a newly-created protocol
// component.
type ProtocolComponent struct {
	ID           string
	Tokens       [][]byte
	Contracts    [][]byte
	StaticAtt    []*StaticAttribute
	Change       ChangeType
	ProtocolType *ProtocolType
}

func (m *ProtocolComponent) unmarshal(b []byte) error {
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n := protowire.ConsumeString(b)
			m.ID = v
			return n, protowireErr(n)
		case 2:
			v, n := protowire.ConsumeBytes(b)
			m.Tokens = append(m.Tokens, append([]byte(nil), v...))
			return n, protowireErr(n)
		case 3:
			v, n := protowire.ConsumeBytes(b)
			m.Contracts = append(m.Contracts, append([]byte(nil), v...))
			return n, protowireErr(n)
		case 4:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return n, protowireErr(n)
			}
			a := &StaticAttribute{}
			if err := a.unmarshal(v); err != nil {
				return n, err
			}
			m.StaticAtt = append(m.StaticAtt, a)
			return n, nil
		case 5:
			v, n := protowire.ConsumeVarint(b)
			m.Change = ChangeType(v)
			return n, protowireErr(n)
		case 6:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return n, protowireErr(n)
			}
			pt := &ProtocolType{}
			if err := pt.unmarshal(v); err != nil {
				return n, err
			}
			m.ProtocolType = pt
			return n, nil
		default:
			return skipField(typ, b)
		}
	})
}

// BalanceChange is the wire shape of a protocol component's token balance
// change. ComponentID is raw bytes on the wire (it is UTF-8 validated by
// the decoder, not by the wire format).
type BalanceChange struct {
	Token       []byte
	Balance     []byte
	ComponentID []byte
}

func (m *BalanceChange) unmarshal(b []byte) error {
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n := protowire.ConsumeBytes(b)
			m.Token = append([]byte(nil), v...)
			return n, protowireErr(n)
		case 2:
			v, n := protowire.ConsumeBytes(b)
			m.Balance = append([]byte(nil), v...)
			return n, protowireErr(n)
		case 3:
			v, n := protowire.ConsumeBytes(b)
			m.ComponentID = append([]byte(nil), v...)
			return n, protowireErr(n)
		default:
			return skipField(typ, b)
		}
	})
}

// EntryPoint is the wire shape of a discovered contract entry point.
type EntryPoint struct {
	ID          string
	Target      []byte
	Signature   string
	ComponentID string
}

func (m *EntryPoint) unmarshal(b []byte) error {
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n := protowire.ConsumeString(b)
			m.ID = v
			return n, protowireErr(n)
		case 2:
			v, n := protowire.ConsumeBytes(b)
			m.Target = append([]byte(nil), v...)
			return n, protowireErr(n)
		case 3:
			v, n := protowire.ConsumeString(b)
			m.Signature = v
			return n, protowireErr(n)
		case 4:
			v, n := protowire.ConsumeString(b)
			m.ComponentID = v
			return n, protowireErr(n)
		default:
			return skipField(typ, b)
		}
	})
}

// RPCTraceData carries the caller and calldata used by an RPC-based tracer.
type RPCTraceData struct {
	Caller   []byte // nil if unset
	Calldata []byte
}

func (m *RPCTraceData) unmarshal(b []byte) error {
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n := protowire.ConsumeBytes(b)
			m.Caller = append([]byte(nil), v...)
			return n, protowireErr(n)
		case 2:
			v, n := protowire.ConsumeBytes(b)
			m.Calldata = append([]byte(nil), v...)
			return n, protowireErr(n)
		default:
			return skipField(typ, b)
		}
	})
}

// EntryPointParams is the wire shape of tracing parameters bound to an
// entry point, optionally scoped to one component.
type EntryPointParams struct {
	EntrypointID string
	ComponentID  *string
	Rpc          *RPCTraceData
}

func (m *EntryPointParams) unmarshal(b []byte) error {
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n := protowire.ConsumeString(b)
			m.EntrypointID = v
			return n, protowireErr(n)
		case 2:
			v, n := protowire.ConsumeString(b)
			cid := v
			m.ComponentID = &cid
			return n, protowireErr(n)
		case 3:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return n, protowireErr(n)
			}
			rpc := &RPCTraceData{}
			if err := rpc.unmarshal(v); err != nil {
				return n, err
			}
			m.Rpc = rpc
			return n, nil
		default:
			return skipField(typ, b)
		}
	})
}
