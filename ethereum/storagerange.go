package ethereum

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rpc"
)

// storageRangeLimit bounds each debug_storageRangeAt page (spec.md §4.3.a).
const storageRangeLimit = 100_000

// storageRangeEntry is one (preimage key, value) pair as returned by
// debug_storageRangeAt.
type storageRangeEntry struct {
	Key   *common.Hash `json:"key"`
	Value common.Hash  `json:"value"`
}

// storageRangeResult is the wire shape of debug_storageRangeAt's response.
type storageRangeResult struct {
	Storage map[common.Hash]storageRangeEntry `json:"storage"`
	NextKey *common.Hash                      `json:"nextKey"`
}

// fetchFullStorage pages through debug_storageRangeAt until the node
// reports no further key, returning every (slot, value) pair it saw. A
// full dump always reports a concrete value for every slot the node
// enumerates, including all-zero ones: the zero-means-cleared convention
// only applies to explicit per-slot eth_getStorageAt fetches, where a zero
// result is ambiguous between "never written" and "written to zero"
// (spec.md §4.3.b step 3).
func fetchFullStorage(ctx context.Context, client *rpc.Client, blockHash common.Hash, address common.Address) (map[common.Hash]*common.Hash, error) {
	out := make(map[common.Hash]*common.Hash)
	var start common.Hash // zero hash is the correct starting point
	for {
		var result storageRangeResult
		err := client.CallContext(ctx, &result, "debug_storageRangeAt", blockHash, 0, address, start, storageRangeLimit)
		if err != nil {
			return nil, RequestError(err)
		}
		for _, entry := range result.Storage {
			if entry.Key == nil {
				return nil, UnknownErr("debug_storageRangeAt returned an entry without a preimage key")
			}
			v := entry.Value
			out[*entry.Key] = &v
		}
		if result.NextKey == nil {
			break
		}
		start = *result.NextKey
	}
	return out, nil
}

// normalizeStorageValue applies the zero-clearing convention used by
// explicit per-slot eth_getStorageAt fetches: an all-zero 32-byte value is
// represented as a nil pointer (cleared slot). It must not be applied to
// debug_storageRangeAt full-dump results, which are always concrete.
func normalizeStorageValue(v common.Hash) *common.Hash {
	if v == (common.Hash{}) {
		return nil
	}
	cp := v
	return &cp
}
