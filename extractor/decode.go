// Package extractor implements the substreams message decoder (spec.md
// §4.2): translating the wire-shaped protobuf messages in
// github.com/0xmsu/tycho-indexer/substreams/pb into the typed change-set
// model in github.com/0xmsu/tycho-indexer/models.
package extractor

import (
	"sort"
	"time"
	"unicode/utf8"

	"github.com/ethereum/go-ethereum/log"
	"github.com/pkg/errors"

	"github.com/0xmsu/tycho-indexer/codec"
	"github.com/0xmsu/tycho-indexer/models"
	"github.com/0xmsu/tycho-indexer/substreams/pb"
)

// Decode translates a unified substreams BlockChanges wire message into the
// normalized models.BlockChanges, per spec.md §4.2.
//
// extractorName identifies the calling extractor instance; chain and
// protocolSystem annotate every produced component; registry constrains
// which protocol_type names are acceptable; finalizedBlockHeight is carried
// through unchanged into the result.
func Decode(
	msg *pb.BlockChanges,
	extractorName string,
	chain models.Chain,
	protocolSystem string,
	registry models.ProtocolTypeRegistry,
	finalizedBlockHeight uint64,
) (*models.BlockChanges, error) {
	if msg == nil || msg.Block == nil {
		return nil, models.ErrEmpty
	}

	block, err := decodeBlock(msg.Block, chain)
	if err != nil {
		return nil, err
	}

	txsWithChanges := make([]models.TxWithChanges, 0, len(msg.Changes))
	for _, tc := range msg.Changes {
		twc, err := decodeTransactionChanges(tc, block, chain, protocolSystem, registry)
		if err != nil {
			return nil, err
		}
		txsWithChanges = append(txsWithChanges, *twc)
	}
	sort.SliceStable(txsWithChanges, func(i, j int) bool {
		return txsWithChanges[i].Tx.Index < txsWithChanges[j].Tx.Index
	})

	storageChanges := make([]models.TxWithStorageChanges, 0, len(msg.StorageChanges))
	for _, sc := range msg.StorageChanges {
		twsc, err := decodeStorageChanges(sc, block)
		if err != nil {
			return nil, err
		}
		storageChanges = append(storageChanges, *twsc)
	}
	sort.SliceStable(storageChanges, func(i, j int) bool {
		return storageChanges[i].Tx.Index < storageChanges[j].Tx.Index
	})

	return &models.BlockChanges{
		Extractor:            extractorName,
		Chain:                chain,
		Block:                block,
		FinalizedBlockHeight: finalizedBlockHeight,
		Reverted:             false,
		TxsWithChanges:       txsWithChanges,
		BlockStorageChanges:  storageChanges,
	}, nil
}

func decodeBlock(b *pb.Block, chain models.Chain) (models.Block, error) {
	ts, err := secondsToTime(b.Ts)
	if err != nil {
		return models.Block{}, models.NewDecodeError("block timestamp: " + err.Error())
	}
	return models.Block{
		Number:     b.Number,
		Hash:       codec.Bytes(b.Hash),
		ParentHash: codec.Bytes(b.ParentHash),
		Chain:      chain,
		Timestamp:  ts,
	}, nil
}

func secondsToTime(ts uint64) (time.Time, error) {
	const maxReasonableSeconds = 1 << 40 // guards against garbage timestamps overflowing time.Time
	if ts > maxReasonableSeconds {
		return time.Time{}, errors.Errorf("timestamp %d seconds out of range", ts)
	}
	return time.Unix(int64(ts), 0).UTC(), nil
}

func decodeTransaction(t *pb.Transaction, blockHash codec.Bytes) models.Transaction {
	return models.Transaction{
		Hash:      codec.Bytes(t.Hash),
		BlockHash: blockHash,
		From:      codec.Bytes(t.From),
		To:        codec.Bytes(t.To),
		Index:     t.Index,
	}
}

func decodeTransactionChanges(
	tc *pb.TransactionChanges,
	block models.Block,
	chain models.Chain,
	protocolSystem string,
	registry models.ProtocolTypeRegistry,
) (*models.TxWithChanges, error) {
	if tc.Tx == nil {
		return nil, models.NewDecodeError("transaction change misses a transaction")
	}
	tx := decodeTransaction(tc.Tx, block.Hash)
	twc := models.NewTxWithChanges(tx)

	for _, pc := range tc.ComponentChanges {
		comp, err := decodeProtocolComponent(pc, chain, protocolSystem, registry, tx.Hash)
		if err != nil {
			return nil, err
		}
		twc.ProtocolComponents[comp.ID] = comp
	}

	for _, cc := range tc.ContractChanges {
		delta, err := decodeContractChange(cc, chain)
		if err != nil {
			return nil, err
		}
		twc.AccountDeltas[delta.Address.String()] = delta
		for _, tb := range cc.TokenBalances {
			ab := models.AccountBalance{
				Account:  delta.Address,
				Token:    codec.Bytes(tb.Token),
				Balance:  codec.Bytes(tb.Balance),
				ModifyTx: tx.Hash,
			}
			byToken, ok := twc.AccountBalances[ab.Account.String()]
			if !ok {
				byToken = make(map[string]models.AccountBalance)
				twc.AccountBalances[ab.Account.String()] = byToken
			}
			if _, existed := byToken[ab.Token.String()]; existed {
				log.Warn("overwriting account balance within transaction", "account", ab.Account, "token", ab.Token)
			}
			byToken[ab.Token.String()] = ab
		}
	}

	for _, ec := range tc.EntityChanges {
		delta, err := decodeEntityChanges(ec)
		if err != nil {
			return nil, err
		}
		if _, existed := twc.StateUpdates[delta.ComponentID]; existed {
			log.Warn("overwriting state delta within transaction", "component_id", delta.ComponentID)
		}
		twc.StateUpdates[delta.ComponentID] = delta
	}

	for _, bc := range tc.BalanceChanges {
		if !utf8.Valid(bc.ComponentID) {
			return nil, models.NewDecodeError("balance change component id is not valid UTF-8")
		}
		cb := models.ComponentBalance{
			ComponentID:  string(bc.ComponentID),
			Token:        codec.Bytes(bc.Token),
			Balance:      codec.Bytes(bc.Balance),
			BalanceFloat: codec.BytesToF64(bc.Balance),
			ModifyTx:     tx.Hash,
		}
		byToken, ok := twc.ComponentBalances[cb.ComponentID]
		if !ok {
			byToken = make(map[string]models.ComponentBalance)
			twc.ComponentBalances[cb.ComponentID] = byToken
		}
		if _, existed := byToken[cb.Token.String()]; existed {
			log.Warn("overwriting component balance within transaction", "component_id", cb.ComponentID, "token", cb.Token)
		}
		byToken[cb.Token.String()] = cb
	}

	for _, ep := range tc.Entrypoints {
		entry := models.EntryPoint{
			ExternalID: ep.ID,
			Target:     codec.Bytes(ep.Target),
			Signature:  ep.Signature,
		}
		byID, ok := twc.EntryPoints[ep.ComponentID]
		if !ok {
			byID = make(map[string]models.EntryPoint)
			twc.EntryPoints[ep.ComponentID] = byID
		}
		byID[entry.ExternalID] = entry
	}

	for _, epp := range tc.EntrypointParams {
		params, err := decodeEntryPointParams(epp)
		if err != nil {
			return nil, err
		}
		set, ok := twc.EntryPointParams[epp.EntrypointID]
		if !ok {
			set = make(models.EntryPointParamSet)
			twc.EntryPointParams[epp.EntrypointID] = set
		}
		set[fingerprintParams(params, epp.ComponentID)] = models.EntryPointParamEntry{
			Params:      params,
			ComponentID: epp.ComponentID,
		}
	}

	return twc, nil
}

func decodeProtocolComponent(
	pc *pb.ProtocolComponent,
	chain models.Chain,
	protocolSystem string,
	registry models.ProtocolTypeRegistry,
	creationTx codec.Bytes,
) (models.ProtocolComponent, error) {
	if pc.ProtocolType == nil {
		return models.ProtocolComponent{}, models.NewDecodeError("protocol component missing protocol_type")
	}
	if _, ok := registry[pc.ProtocolType.Name]; !ok {
		return models.ProtocolComponent{}, models.NewDecodeError("Unknown protocol type name: " + pc.ProtocolType.Name)
	}

	tokens := make([]codec.Bytes, len(pc.Tokens))
	for i, t := range pc.Tokens {
		tokens[i] = codec.Bytes(t)
	}
	contracts := make([]codec.Bytes, len(pc.Contracts))
	for i, c := range pc.Contracts {
		contracts[i] = codec.Bytes(c)
	}
	attrs := make(map[string]codec.Bytes, len(pc.StaticAtt))
	for _, a := range pc.StaticAtt {
		attrs[a.Name] = codec.Bytes(a.Value)
	}

	change := decodeChangeType(pc.Change)
	if change == models.ChangeTypeUnspecified {
		return models.ProtocolComponent{}, models.NewDecodeError("protocol component \"" + pc.ID + "\" has unspecified change type")
	}

	return models.ProtocolComponent{
		ID:                pc.ID,
		ProtocolSystem:    protocolSystem,
		ProtocolTypeName:  pc.ProtocolType.Name,
		Tokens:            tokens,
		ContractAddresses: contracts,
		StaticAttributes:  attrs,
		Chain:             chain,
		Change:            change,
		CreationTx:        creationTx,
		CreatedAt:         time.Time{},
	}, nil
}

func decodeContractChange(cc *pb.ContractChange, chain models.Chain) (models.AccountDelta, error) {
	change := decodeChangeType(cc.Change)
	if change == models.ChangeTypeUnspecified {
		return models.AccountDelta{}, models.NewDecodeError("account \"" + codec.Bytes(cc.Address).String() + "\" has unspecified change type")
	}
	delta := models.AccountDelta{
		Address: codec.Bytes(cc.Address),
		Chain:   chain,
		Slots:   make(map[string]models.SlotValue, len(cc.Slots)),
		Change:  change,
	}
	if cc.Balance != nil {
		delta.Balance = codec.Bytes(cc.Balance)
	}
	if cc.Code != nil {
		delta.Code = codec.Bytes(cc.Code)
	}
	for _, s := range cc.Slots {
		key := codec.Bytes(s.Slot)
		if isAllZero(s.Value) {
			delta.SetSlot(key, models.ClearedSlot)
		} else {
			delta.SetSlot(key, models.SomeSlot(codec.Bytes(s.Value)))
		}
	}
	return delta, nil
}

func decodeEntityChanges(ec *pb.EntityChanges) (models.ProtocolComponentStateDelta, error) {
	delta := models.NewProtocolComponentStateDelta(ec.ComponentID)
	for _, a := range ec.Attributes {
		switch decodeChangeType(a.Change) {
		case models.ChangeTypeCreation, models.ChangeTypeUpdate:
			delta.UpdatedAttributes[a.Name] = codec.Bytes(a.Value)
			delete(delta.DeletedAttributes, a.Name)
		case models.ChangeTypeDeletion:
			delta.DeletedAttributes[a.Name] = struct{}{}
			delete(delta.UpdatedAttributes, a.Name)
		default:
			return models.ProtocolComponentStateDelta{}, models.NewDecodeError("attribute \"" + a.Name + "\" has unspecified change type")
		}
	}
	return *delta, nil
}

func decodeEntryPointParams(epp *pb.EntryPointParams) (models.TracingParams, error) {
	if epp.Rpc == nil {
		return models.TracingParams{}, models.NewDecodeError("entry point params missing rpc tracer data")
	}
	var caller codec.Bytes
	if epp.Rpc.Caller != nil {
		caller = codec.Bytes(epp.Rpc.Caller)
	}
	return models.NewRPCTracerParams(caller, codec.Bytes(epp.Rpc.Calldata)), nil
}

func decodeStorageChanges(sc *pb.TransactionStorageChanges, block models.Block) (*models.TxWithStorageChanges, error) {
	if sc.Tx == nil {
		return nil, models.NewDecodeError("storage change misses a transaction")
	}
	tx := decodeTransaction(sc.Tx, block.Hash)
	twsc := &models.TxWithStorageChanges{
		Tx:             tx,
		StorageChanges: make(map[string]map[string]codec.Bytes, len(sc.StorageChanges)),
	}
	for _, acc := range sc.StorageChanges {
		addr := codec.Bytes(acc.Address)
		slots, ok := twsc.StorageChanges[addr.String()]
		if !ok {
			slots = make(map[string]codec.Bytes, len(acc.Slots))
			twsc.StorageChanges[addr.String()] = slots
		}
		for _, s := range acc.Slots {
			slots[codec.Bytes(s.Slot).String()] = codec.Bytes(s.Value)
		}
	}
	return twsc, nil
}

func decodeChangeType(t pb.ChangeType) models.ChangeType {
	switch t {
	case pb.ChangeTypeCreation:
		return models.ChangeTypeCreation
	case pb.ChangeTypeUpdate:
		return models.ChangeTypeUpdate
	case pb.ChangeTypeDeletion:
		return models.ChangeTypeDeletion
	default:
		return models.ChangeTypeUnspecified
	}
}

func isAllZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}

// fingerprintParams derives a deterministic dedup key for a (params,
// component) binding so repeated EntryPointParams messages collapse.
func fingerprintParams(p models.TracingParams, componentID *string) string {
	key := codec.Bytes(p.RPC.Calldata).String() + "|" + codec.Bytes(p.RPC.Caller).String()
	if componentID != nil {
		key += "|" + *componentID
	}
	return key
}
