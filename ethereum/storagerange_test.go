package ethereum

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStorageRangeAPI serves a single canned debug_storageRangeAt page.
type fakeStorageRangeAPI struct {
	result storageRangeResult
}

func (f *fakeStorageRangeAPI) StorageRangeAt(ctx context.Context, blockHash common.Hash, txIndex int, address common.Address, start common.Hash, maxResult int) (storageRangeResult, error) {
	return f.result, nil
}

// TestFetchFullStorageDoesNotClearZeroValues exercises spec.md §4.3.b step
// 3: the zero-means-cleared convention applies only to explicit per-slot
// eth_getStorageAt fetches, never to a debug_storageRangeAt full dump. An
// all-zero slot reported by a full dump must still surface as a concrete
// (non-nil) value.
func TestFetchFullStorageDoesNotClearZeroValues(t *testing.T) {
	key := common.HexToHash("0x01")
	srv := rpc.NewServer()
	defer srv.Stop()
	require.NoError(t, srv.RegisterName("debug", &fakeStorageRangeAPI{
		result: storageRangeResult{
			Storage: map[common.Hash]storageRangeEntry{
				key: {Key: &key, Value: common.Hash{}},
			},
			NextKey: nil,
		},
	}))

	client := rpc.DialInProc(srv)
	defer client.Close()

	out, err := fetchFullStorage(context.Background(), client, common.Hash{}, common.Address{})
	require.NoError(t, err)
	require.Contains(t, out, key)
	assert.NotNil(t, out[key])
	assert.Equal(t, common.Hash{}, *out[key])
}
