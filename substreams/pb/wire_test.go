package pb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"
)

func appendBlock(buf []byte, number uint64, hash []byte, ts uint64) []byte {
	var inner []byte
	inner = protowire.AppendTag(inner, 1, protowire.VarintType)
	inner = protowire.AppendVarint(inner, number)
	inner = protowire.AppendTag(inner, 2, protowire.BytesType)
	inner = protowire.AppendBytes(inner, hash)
	inner = protowire.AppendTag(inner, 4, protowire.VarintType)
	inner = protowire.AppendVarint(inner, ts)

	buf = protowire.AppendTag(buf, 1, protowire.BytesType)
	buf = protowire.AppendBytes(buf, inner)
	return buf
}

func appendTx(num uint64, index uint64, hash []byte) []byte {
	var inner []byte
	inner = protowire.AppendTag(inner, 1, protowire.BytesType)
	inner = protowire.AppendBytes(inner, hash)
	inner = protowire.AppendTag(inner, 4, protowire.VarintType)
	inner = protowire.AppendVarint(inner, index)

	var out []byte
	out = protowire.AppendTag(out, num, protowire.BytesType)
	out = protowire.AppendBytes(out, inner)
	return out
}

// TestBlockChangesUnmarshalRoundTrip hand-encodes a minimal BlockChanges
// wire message (one block, one transaction, one attribute change) and
// verifies Unmarshal reconstructs it, exercising the protowire decoding
// path directly rather than via pre-built Go structs.
func TestBlockChangesUnmarshalRoundTrip(t *testing.T) {
	var buf []byte
	buf = appendBlock(buf, 42, []byte{0xDE, 0xAD}, 1_700_000_001)

	// TransactionChanges (field 2), containing tx (field 1) + one
	// EntityChanges (field 4).
	var entityChanges []byte
	entityChanges = protowire.AppendTag(entityChanges, 1, protowire.BytesType)
	entityChanges = protowire.AppendString(entityChanges, "poolA")
	var attr []byte
	attr = protowire.AppendTag(attr, 1, protowire.BytesType)
	attr = protowire.AppendString(attr, "x")
	attr = protowire.AppendTag(attr, 2, protowire.BytesType)
	attr = protowire.AppendBytes(attr, []byte{0x2a})
	attr = protowire.AppendTag(attr, 3, protowire.VarintType)
	attr = protowire.AppendVarint(attr, uint64(ChangeTypeUpdate))
	entityChanges = protowire.AppendTag(entityChanges, 2, protowire.BytesType)
	entityChanges = protowire.AppendBytes(entityChanges, attr)

	var txChanges []byte
	txChanges = protowire.AppendTag(txChanges, 1, protowire.BytesType)
	txChanges = protowire.AppendBytes(txChanges, func() []byte {
		var inner []byte
		inner = protowire.AppendTag(inner, 1, protowire.BytesType)
		inner = protowire.AppendBytes(inner, []byte{0x01})
		inner = protowire.AppendTag(inner, 4, protowire.VarintType)
		inner = protowire.AppendVarint(inner, 7)
		return inner
	}())
	txChanges = protowire.AppendTag(txChanges, 4, protowire.BytesType)
	txChanges = protowire.AppendBytes(txChanges, entityChanges)

	buf = protowire.AppendTag(buf, 2, protowire.BytesType)
	buf = protowire.AppendBytes(buf, txChanges)

	var msg BlockChanges
	require.NoError(t, msg.Unmarshal(buf))

	require.NotNil(t, msg.Block)
	assert.EqualValues(t, 42, msg.Block.Number)
	assert.Equal(t, []byte{0xDE, 0xAD}, msg.Block.Hash)
	assert.EqualValues(t, 1_700_000_001, msg.Block.Ts)

	require.Len(t, msg.Changes, 1)
	assert.EqualValues(t, 7, msg.Changes[0].Tx.Index)
	require.Len(t, msg.Changes[0].EntityChanges, 1)
	assert.Equal(t, "poolA", msg.Changes[0].EntityChanges[0].ComponentID)
	require.Len(t, msg.Changes[0].EntityChanges[0].Attributes, 1)
	assert.Equal(t, "x", msg.Changes[0].EntityChanges[0].Attributes[0].Name)
	assert.Equal(t, ChangeTypeUpdate, msg.Changes[0].EntityChanges[0].Attributes[0].Change)
}

// TestUnknownFieldsAreSkipped checks forward compatibility: an unrecognized
// field number in a message must not fail the decode.
func TestUnknownFieldsAreSkipped(t *testing.T) {
	var buf []byte
	buf = protowire.AppendTag(buf, 1, protowire.VarintType)
	buf = protowire.AppendVarint(buf, 99)
	buf = protowire.AppendTag(buf, 99, protowire.BytesType)
	buf = protowire.AppendBytes(buf, []byte("unknown field payload"))

	var b Block
	require.NoError(t, b.unmarshal(buf))
	assert.EqualValues(t, 99, b.Number)
}
