package pb

import "google.golang.org/protobuf/encoding/protowire"

// TransactionContractChanges is the per-transaction wire shape used by
// BlockContractChanges.
type TransactionContractChanges struct {
	Tx                *Transaction
	ContractChanges   []*ContractChange
	ComponentChanges  []*ProtocolComponent
	BalanceChanges    []*BalanceChange
}

func (m *TransactionContractChanges) unmarshal(b []byte) error {
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			return unmarshalSub(b, m.newTx())
		case 2:
			cc := &ContractChange{}
			n, err := unmarshalSubInto(b, cc)
			if err == nil {
				m.ContractChanges = append(m.ContractChanges, cc)
			}
			return n, err
		case 3:
			pc := &ProtocolComponent{}
			n, err := unmarshalSubInto(b, pc)
			if err == nil {
				m.ComponentChanges = append(m.ComponentChanges, pc)
			}
			return n, err
		case 4:
			bc := &BalanceChange{}
			n, err := unmarshalSubInto(b, bc)
			if err == nil {
				m.BalanceChanges = append(m.BalanceChanges, bc)
			}
			return n, err
		default:
			return skipField(typ, b)
		}
	})
}

func (m *TransactionContractChanges) newTx() *Transaction {
	m.Tx = &Transaction{}
	return m.Tx
}

// TransactionEntityChanges is the per-transaction wire shape used by
// BlockEntityChanges.
type TransactionEntityChanges struct {
	Tx               *Transaction
	ComponentChanges []*ProtocolComponent
	EntityChanges    []*EntityChanges
	BalanceChanges   []*BalanceChange
}

func (m *TransactionEntityChanges) unmarshal(b []byte) error {
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			m.Tx = &Transaction{}
			return unmarshalSub(b, m.Tx)
		case 2:
			pc := &ProtocolComponent{}
			n, err := unmarshalSubInto(b, pc)
			if err == nil {
				m.ComponentChanges = append(m.ComponentChanges, pc)
			}
			return n, err
		case 3:
			ec := &EntityChanges{}
			n, err := unmarshalSubInto(b, ec)
			if err == nil {
				m.EntityChanges = append(m.EntityChanges, ec)
			}
			return n, err
		case 4:
			bc := &BalanceChange{}
			n, err := unmarshalSubInto(b, bc)
			if err == nil {
				m.BalanceChanges = append(m.BalanceChanges, bc)
			}
			return n, err
		default:
			return skipField(typ, b)
		}
	})
}

// TransactionChanges is the per-transaction wire shape used by the unified
// BlockChanges message, carrying every change kind a transaction may
// produce.
type TransactionChanges struct {
	Tx               *Transaction
	ComponentChanges []*ProtocolComponent
	ContractChanges  []*ContractChange
	EntityChanges    []*EntityChanges
	BalanceChanges   []*BalanceChange
	Entrypoints      []*EntryPoint
	EntrypointParams []*EntryPointParams
}

func (m *TransactionChanges) unmarshal(b []byte) error {
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			m.Tx = &Transaction{}
			return unmarshalSub(b, m.Tx)
		case 2:
			pc := &ProtocolComponent{}
			n, err := unmarshalSubInto(b, pc)
			if err == nil {
				m.ComponentChanges = append(m.ComponentChanges, pc)
			}
			return n, err
		case 3:
			cc := &ContractChange{}
			n, err := unmarshalSubInto(b, cc)
			if err == nil {
				m.ContractChanges = append(m.ContractChanges, cc)
			}
			return n, err
		case 4:
			ec := &EntityChanges{}
			n, err := unmarshalSubInto(b, ec)
			if err == nil {
				m.EntityChanges = append(m.EntityChanges, ec)
			}
			return n, err
		case 5:
			bc := &BalanceChange{}
			n, err := unmarshalSubInto(b, bc)
			if err == nil {
				m.BalanceChanges = append(m.BalanceChanges, bc)
			}
			return n, err
		case 6:
			ep := &EntryPoint{}
			n, err := unmarshalSubInto(b, ep)
			if err == nil {
				m.Entrypoints = append(m.Entrypoints, ep)
			}
			return n, err
		case 7:
			epp := &EntryPointParams{}
			n, err := unmarshalSubInto(b, epp)
			if err == nil {
				m.EntrypointParams = append(m.EntrypointParams, epp)
			}
			return n, err
		default:
			return skipField(typ, b)
		}
	})
}

// ContractSlotsChanges is a single account's storage slot writes within a
// TransactionStorageChanges message.
type ContractSlotsChanges struct {
	Address []byte
	Slots   []*SlotChange
}

func (m *ContractSlotsChanges) unmarshal(b []byte) error {
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n := protowire.ConsumeBytes(b)
			m.Address = append([]byte(nil), v...)
			return n, protowireErr(n)
		case 2:
			s := &SlotChange{}
			n, err := unmarshalSubInto(b, s)
			if err == nil {
				m.Slots = append(m.Slots, s)
			}
			return n, err
		default:
			return skipField(typ, b)
		}
	})
}

// TransactionStorageChanges is the per-transaction wire shape of raw
// storage writes, independent of the entity/account change streams.
type TransactionStorageChanges struct {
	Tx             *Transaction
	StorageChanges []*ContractSlotsChanges
}

func (m *TransactionStorageChanges) unmarshal(b []byte) error {
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			m.Tx = &Transaction{}
			return unmarshalSub(b, m.Tx)
		case 2:
			sc := &ContractSlotsChanges{}
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

// subUnmarshaler is implemented by every message type defined in this
// package, allowing the generic helpers below to recurse without a type
// switch per field.
type subUnmarshaler interface {
	unmarshal(b []byte) error
}

// unmarshalSub consumes a length-delimited field into dst, returning the
// number of bytes consumed from the outer buffer.
func unmarshalSub(b []byte, dst subUnmarshaler) (int, error) {
	v, n := protowire.ConsumeBytes(b)
	if n < 0 {
		return n, protowire.ParseError(n)
	}
	if err := dst.unmarshal(v); err != nil {
		return n, err
	}
	return n, nil
}

// unmarshalSubInto is an alias of unmarshalSub kept for call-site clarity
// where the destination is freshly allocated immediately before the call.
func unmarshalSubInto(b []byte, dst subUnmarshaler) (int, error) {
	return unmarshalSub(b, dst)
}
