package models

import (
	"time"

	"github.com/0xmsu/tycho-indexer/codec"
)

// Block is a single chain block. (chain, number) and (chain, hash) each
// uniquely identify a block; ParentHash references the prior block on the
// same chain.
type Block struct {
	Number     uint64
	Hash       codec.Bytes
	ParentHash codec.Bytes
	Chain      Chain
	Timestamp  time.Time
}

// Transaction is a single on-chain transaction. Within a block, Index is
// unique and total-ordered.
type Transaction struct {
	Hash      codec.Bytes
	BlockHash codec.Bytes
	From      codec.Bytes
	To        codec.Bytes // nil when the transaction has no recipient (contract creation)
	Index     uint64
}
