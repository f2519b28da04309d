package ethereum

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"golang.org/x/sync/errgroup"

	"github.com/0xmsu/tycho-indexer/codec"
)

// maxBatchSize bounds how many accounts' code+balance calls share one
// JSON-RPC batch (spec.md §4.3.b).
const maxBatchSize = 100

// storageMaxBatchSize bounds how many eth_getStorageAt calls share one
// JSON-RPC batch, per account (spec.md §4.3.b step 3).
const storageMaxBatchSize = 10_000

// BatchExtractor implements the preferred account extractor variant
// against nodes supporting JSON-RPC batching (spec.md §4.3.b).
type BatchExtractor struct {
	rpc *rpc.Client
}

// NewBatchExtractor builds a BatchExtractor over a dialed RPC client.
func NewBatchExtractor(client *rpc.Client) *BatchExtractor {
	return &BatchExtractor{rpc: client}
}

// GetAccountsAtBlock implements the extractor's public contract (spec.md
// §4.3): deduplicate, then process chunks of up to maxBatchSize unique
// requests sequentially, with concurrent work only within a chunk
// (invariant 7's dedup guarantee; "Ordering guarantees" in §4.3.b).
func (b *BatchExtractor) GetAccountsAtBlock(ctx context.Context, blockHash common.Hash, blockNumber *big.Int, requests []StorageSnapshotRequest) (map[string]AccountResult, error) {
	unique := dedupRequests(requests)

	out := make(map[string]AccountResult, len(unique))
	for start := 0; start < len(unique); start += maxBatchSize {
		end := start + maxBatchSize
		if end > len(unique) {
			end = len(unique)
		}
		chunk := unique[start:end]

		results, err := b.processChunk(ctx, blockHash, blockNumber, chunk)
		if err != nil {
			return nil, err
		}
		for _, res := range results {
			out[res.Address.String()] = res
		}
	}
	return out, nil
}

// dedupRequests collapses requests into a stable-ordered set, deduplicated
// by full request equality (address + slot list) per spec.md §4.3.b step 1.
func dedupRequests(requests []StorageSnapshotRequest) []StorageSnapshotRequest {
	seen := make(map[string]struct{}, len(requests))
	unique := make([]StorageSnapshotRequest, 0, len(requests))
	for _, r := range requests {
		key := r.dedupKey()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, r)
	}
	return unique
}

func (b *BatchExtractor) processChunk(ctx context.Context, blockHash common.Hash, blockNumber *big.Int, chunk []StorageSnapshotRequest) ([]AccountResult, error) {
	blockTag := blockNumberTag(blockNumber)

	codes := make([]hexutil.Bytes, len(chunk))
	balances := make([]hexutil.Big, len(chunk))
	batch := make([]rpc.BatchElem, 0, 2*len(chunk))
	for i, req := range chunk {
		batch = append(batch,
			rpc.BatchElem{Method: "eth_getCode", Args: []interface{}{req.Address, blockTag}, Result: &codes[i]},
			rpc.BatchElem{Method: "eth_getBalance", Args: []interface{}{req.Address, blockTag}, Result: &balances[i]},
		)
	}
	if err := b.rpc.BatchCallContext(ctx, batch); err != nil {
		return nil, RequestError(err)
	}
	for i := range batch {
		if batch[i].Error != nil {
			return nil, RequestError(batch[i].Error)
		}
	}

	results := make([]AccountResult, len(chunk))
	g, gctx := errgroup.WithContext(ctx)
	for i, req := range chunk {
		i, req := i, req
		g.Go(func() error {
			slots, err := b.fetchSlots(gctx, blockHash, blockNumber, blockTag, req)
			if err != nil {
				return err
			}
			results[i] = AccountResult{
				Address: codec.Bytes(req.Address.Bytes()),
				Balance: codec.Bytes(balanceBytes((*big.Int)(&balances[i]))),
				Code:    codec.Bytes([]byte(codes[i])),
				Slots:   slots,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (b *BatchExtractor) fetchSlots(ctx context.Context, blockHash common.Hash, blockNumber *big.Int, blockTag string, req StorageSnapshotRequest) (map[string]SlotResult, error) {
	if req.IsFullDump() {
		slots, err := fetchFullStorage(ctx, b.rpc, blockHash, req.Address)
		if err != nil {
			return nil, err
		}
		return slotResults(slots), nil
	}
	if len(req.Slots) == 0 {
		return map[string]SlotResult{}, nil
	}

	out := make(map[string]SlotResult, len(req.Slots))
	for start := 0; start < len(req.Slots); start += storageMaxBatchSize {
		end := start + storageMaxBatchSize
		if end > len(req.Slots) {
			end = len(req.Slots)
		}
		subChunk := req.Slots[start:end]

		values := make([]common.Hash, len(subChunk))
		batch := make([]rpc.BatchElem, len(subChunk))
		for i, slot := range subChunk {
			batch[i] = rpc.BatchElem{Method: "eth_getStorageAt", Args: []interface{}{req.Address, slot, blockTag}, Result: &values[i]}
		}
		if err := b.rpc.BatchCallContext(ctx, batch); err != nil {
			return nil, RequestError(err)
		}
		for i, slot := range subChunk {
			if batch[i].Error != nil {
				return nil, RequestError(batch[i].Error)
			}
			key := codec.Bytes(slot.Bytes())
			var val *codec.Bytes
			if v := normalizeStorageValue(values[i]); v != nil {
				vb := codec.Bytes(v.Bytes())
				val = &vb
			}
			out[key.String()] = SlotResult{Key: key, Value: val}
		}
	}
	return out, nil
}

// blockNumberTag renders blockNumber as the JSON-RPC "latest"/hex-number
// block tag argument expected by eth_getCode/eth_getBalance/eth_getStorageAt.
func blockNumberTag(blockNumber *big.Int) string {
	if blockNumber == nil {
		return "latest"
	}
	return hexutil.EncodeBig(blockNumber)
}
