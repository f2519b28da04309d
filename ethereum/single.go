package ethereum

import (
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/rpc"
	"golang.org/x/sync/errgroup"

	"github.com/0xmsu/tycho-indexer/codec"
)

// SingleCallExtractor implements the account extractor against nodes that
// lack JSON-RPC batching (spec.md §4.3.a): one call per value, concurrent
// balance/code retrieval, paginated full-storage dumps.
type SingleCallExtractor struct {
	eth *ethclient.Client
	rpc *rpc.Client
}

// NewSingleCallExtractor builds a SingleCallExtractor over a client pair
// dialed against the same endpoint (ethclient.Client wraps an rpc.Client
// but does not expose debug_* methods, so both handles are kept).
func NewSingleCallExtractor(eth *ethclient.Client, raw *rpc.Client) *SingleCallExtractor {
	return &SingleCallExtractor{eth: eth, rpc: raw}
}

// GetAccountsAtBlock implements the extractor's public contract (spec.md
// §4.3) for every request, dispatching accounts concurrently.
func (s *SingleCallExtractor) GetAccountsAtBlock(ctx context.Context, blockHash common.Hash, blockNumber *big.Int, requests []StorageSnapshotRequest) (map[string]AccountResult, error) {
	out := make(map[string]AccountResult, len(requests))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for _, req := range requests {
		req := req
		g.Go(func() error {
			res, err := s.getAccount(gctx, blockHash, blockNumber, req)
			if err != nil {
				return err
			}
			mu.Lock()
			out[res.Address.String()] = res
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *SingleCallExtractor) getAccount(ctx context.Context, blockHash common.Hash, blockNumber *big.Int, req StorageSnapshotRequest) (AccountResult, error) {
	var balance *big.Int
	var code []byte

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		b, err := s.eth.BalanceAt(gctx, req.Address, blockNumber)
		if err != nil {
			return RequestError(err)
		}
		balance = b
		return nil
	})
	g.Go(func() error {
		c, err := s.eth.CodeAt(gctx, req.Address, blockNumber)
		if err != nil {
			return RequestError(err)
		}
		code = c
		return nil
	})
	if err := g.Wait(); err != nil {
		return AccountResult{}, err
	}

	if req.hasSlots && len(req.Slots) == 0 {
		return AccountResult{
			Address: codec.Bytes(req.Address.Bytes()),
			Balance: codec.Bytes(balanceBytes(balance)),
			Code:    codec.Bytes(code),
			Slots:   map[string]SlotResult{},
		}, nil
	}

	if req.hasSlots && len(req.Slots) > 0 {
		log.Warn("single-call extractor does not support specific-slot requests, falling back to full dump",
			"address", req.Address.Hex())
	}

	slots, err := fetchFullStorage(ctx, s.rpc, blockHash, req.Address)
	if err != nil {
		return AccountResult{}, err
	}

	return AccountResult{
		Address: codec.Bytes(req.Address.Bytes()),
		Balance: codec.Bytes(balanceBytes(balance)),
		Code:    codec.Bytes(code),
		Slots:   slotResults(slots),
	}, nil
}

func slotResults(slots map[common.Hash]*common.Hash) map[string]SlotResult {
	out := make(map[string]SlotResult, len(slots))
	for k, v := range slots {
		key := codec.Bytes(k.Bytes())
		var val *codec.Bytes
		if v != nil {
			b := codec.Bytes(v.Bytes())
			val = &b
		}
		out[key.String()] = SlotResult{Key: key, Value: val}
	}
	return out
}

// balanceBytes renders a balance as exactly 32 big-endian bytes (spec.md
// §4.3, "Edge cases and numeric semantics").
func balanceBytes(b *big.Int) []byte {
	out := make([]byte, 32)
	if b == nil {
		return out
	}
	b.FillBytes(out)
	return out
}
