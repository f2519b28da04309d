package ethereum

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"

	"github.com/0xmsu/tycho-indexer/codec"
)

// TestDedupRequests exercises invariant 7: repeated identical requests
// collapse to one, while requests differing only in slot scope remain
// distinct.
func TestDedupRequests(t *testing.T) {
	addr := common.HexToAddress("0xBA12222222228d8Ba445958a75a0704d566BF2C8")
	reqs := []StorageSnapshotRequest{
		FullDumpRequest(addr),
		FullDumpRequest(addr),
		FullDumpRequest(addr),
		SlotsRequest(addr, []common.Hash{common.HexToHash("0x01")}),
		SlotsRequest(addr, []common.Hash{common.HexToHash("0x01")}),
		CodeAndBalanceRequest(addr),
	}

	unique := dedupRequests(reqs)
	assert.Len(t, unique, 3)
}

func TestDedupRequestsPreservesDistinctSlotLists(t *testing.T) {
	addr := common.HexToAddress("0xBA12222222228d8Ba445958a75a0704d566BF2C8")
	reqs := []StorageSnapshotRequest{
		SlotsRequest(addr, []common.Hash{common.HexToHash("0x01")}),
		SlotsRequest(addr, []common.Hash{common.HexToHash("0x02")}),
	}
	unique := dedupRequests(reqs)
	assert.Len(t, unique, 2)
}

func TestBalanceBytesIsAlways32BytesBigEndian(t *testing.T) {
	out := balanceBytes(big.NewInt(42))
	assert.Len(t, out, 32)
	assert.Equal(t, byte(42), out[31])

	zero := balanceBytes(nil)
	assert.Equal(t, make([]byte, 32), zero)
}

func TestSlotResultsClearingConvention(t *testing.T) {
	cleared := common.HexToHash("0x00")
	nonzero := common.HexToHash("0x2a")
	in := map[common.Hash]*common.Hash{
		common.HexToHash("0x01"): nil,
		common.HexToHash("0x02"): &nonzero,
	}
	assert.Nil(t, normalizeStorageValue(cleared))
	assert.Equal(t, &nonzero, normalizeStorageValue(nonzero))
	out := slotResults(in)
	assert.Nil(t, out[codec.Bytes(common.HexToHash("0x01").Bytes()).String()].Value)
	assert.NotNil(t, out[codec.Bytes(common.HexToHash("0x02").Bytes()).String()].Value)
}

func TestBlockNumberTag(t *testing.T) {
	assert.Equal(t, "latest", blockNumberTag(nil))
	assert.Equal(t, "0x64", blockNumberTag(big.NewInt(100)))
}

func TestIsFullDump(t *testing.T) {
	addr := common.HexToAddress("0x01")
	assert.True(t, FullDumpRequest(addr).IsFullDump())
	assert.False(t, CodeAndBalanceRequest(addr).IsFullDump())
	assert.False(t, SlotsRequest(addr, []common.Hash{common.HexToHash("0x01")}).IsFullDump())
}
