// Package client implements the realtime subscription websocket client and
// the contract-state HTTP client (spec.md §4.4, §4.7, §6).
package client

import (
	"encoding/json"
	"net/url"
	"strconv"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/0xmsu/tycho-indexer/codec"
	"github.com/0xmsu/tycho-indexer/models"
)

// ExtractorIdentity names one extractor instance a realtime client can
// subscribe to.
type ExtractorIdentity struct {
	Chain     string `json:"chain"`
	Extractor string `json:"extractor"`
}

// CommandKind discriminates an outbound control frame.
type CommandKind string

const (
	CommandSubscribe   CommandKind = "Subscribe"
	CommandUnsubscribe CommandKind = "Unsubscribe"
)

// Command is an outbound control-plane frame (spec.md §4.4). RequestID is a
// client-generated correlation identifier, not part of the server protocol
// but carried along for client-side logging/dedup of outstanding sends.
type Command struct {
	Kind           CommandKind        `json:"-"`
	RequestID      string             `json:"-"`
	ExtractorID    *ExtractorIdentity `json:"extractor_id,omitempty"`
	SubscriptionID *string            `json:"subscription_id,omitempty"`
}

// MarshalJSON renders Command as a tagged-union object keyed by its kind,
// matching the server's textual JSON protocol.
func (c Command) MarshalJSON() ([]byte, error) {
	type payload struct {
		RequestID      string             `json:"request_id"`
		ExtractorID    *ExtractorIdentity `json:"extractor_id,omitempty"`
		SubscriptionID *string            `json:"subscription_id,omitempty"`
	}
	return json.Marshal(map[string]payload{
		string(c.Kind): {RequestID: c.RequestID, ExtractorID: c.ExtractorID, SubscriptionID: c.SubscriptionID},
	})
}

// SubscribeCommand builds a Subscribe command for the given extractor.
func SubscribeCommand(id ExtractorIdentity) Command {
	return Command{Kind: CommandSubscribe, RequestID: uuid.NewString(), ExtractorID: &id}
}

// UnsubscribeCommand builds an Unsubscribe command for the given
// subscription.
func UnsubscribeCommand(subscriptionID string) Command {
	return Command{Kind: CommandUnsubscribe, RequestID: uuid.NewString(), SubscriptionID: &subscriptionID}
}

// ResponseKind discriminates an inbound control-plane frame.
type ResponseKind string

const (
	ResponseNewSubscription   ResponseKind = "NewSubscription"
	ResponseSubscriptionEnded ResponseKind = "SubscriptionEnded"
)

// Response is an inbound control-plane frame (spec.md §4.4).
type Response struct {
	Kind           ResponseKind
	ExtractorID    ExtractorIdentity
	SubscriptionID string
}

// UnmarshalJSON parses the tagged-union wire shape
// {"NewSubscription": {...}} or {"SubscriptionEnded": {...}}.
func (r *Response) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if body, ok := raw[string(ResponseNewSubscription)]; ok {
		var v struct {
			ExtractorID    ExtractorIdentity `json:"extractor_id"`
			SubscriptionID string            `json:"subscription_id"`
		}
		if err := json.Unmarshal(body, &v); err != nil {
			return err
		}
		r.Kind = ResponseNewSubscription
		r.ExtractorID = v.ExtractorID
		r.SubscriptionID = v.SubscriptionID
		return nil
	}
	if body, ok := raw[string(ResponseSubscriptionEnded)]; ok {
		var v struct {
			SubscriptionID string `json:"subscription_id"`
		}
		if err := json.Unmarshal(body, &v); err != nil {
			return err
		}
		r.Kind = ResponseSubscriptionEnded
		r.SubscriptionID = v.SubscriptionID
		return nil
	}
	return errors.Errorf("unrecognized Response variant in %s", string(data))
}

// WebSocketMessageKind discriminates whether an inbound envelope carries
// data-plane or control-plane content.
type WebSocketMessageKind uint8

const (
	MessageKindBlockAccountChanges WebSocketMessageKind = iota
	MessageKindResponse
)

// WebSocketMessage is the application-level envelope carried over the
// realtime websocket (spec.md §4.4).
type WebSocketMessage struct {
	Kind                WebSocketMessageKind
	BlockAccountChanges *models.BlockAccountChanges
	Response            *Response
}

// UnmarshalJSON tries Response first (it is a small, clearly-tagged
// object), falling back to the data-plane shape.
func (m *WebSocketMessage) UnmarshalJSON(data []byte) error {
	var resp Response
	if err := json.Unmarshal(data, &resp); err == nil {
		m.Kind = MessageKindResponse
		m.Response = &resp
		return nil
	}

	var wire wireBlockAccountChanges
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	bac, err := wire.toModel()
	if err != nil {
		return err
	}
	m.Kind = MessageKindBlockAccountChanges
	m.BlockAccountChanges = bac
	return nil
}

// wireBlockAccountChanges is the JSON wire shape of a data-plane frame.
type wireBlockAccountChanges struct {
	Extractor string                     `json:"extractor"`
	Chain     string                     `json:"chain"`
	Block     wireBlock                  `json:"block"`
	Accounts  map[string]wireAccountDelta `json:"account_updates"`
}

type wireBlock struct {
	Number     uint64 `json:"number"`
	Hash       string `json:"hash"`
	ParentHash string `json:"parent_hash"`
}

type wireAccountDelta struct {
	Address string            `json:"address"`
	Slots   map[string]string `json:"slots"` // value == "" means cleared
	Balance string            `json:"balance,omitempty"`
	Code    string            `json:"code,omitempty"`
	Change  string            `json:"change"`
}

func (w wireBlockAccountChanges) toModel() (*models.BlockAccountChanges, error) {
	chain, err := models.ChainFromString(w.Chain)
	if err != nil {
		return nil, err
	}

	hash, err := codec.FromHex(w.Block.Hash)
	if err != nil {
		return nil, err
	}
	parentHash, err := codec.FromHex(w.Block.ParentHash)
	if err != nil {
		return nil, err
	}
	block := models.Block{
		Number:     w.Block.Number,
		Hash:       hash,
		ParentHash: parentHash,
		Chain:      chain,
	}

	updates := make(map[string]models.AccountDelta, len(w.Accounts))
	for addrHex, wd := range w.Accounts {
		addr, err := codec.FromHex(wd.Address)
		if err != nil {
			return nil, err
		}
		var change models.ChangeType
		switch wd.Change {
		case "creation":
			change = models.ChangeTypeCreation
		case "update":
			change = models.ChangeTypeUpdate
		case "deletion":
			change = models.ChangeTypeDeletion
		default:
			change = models.ChangeTypeUnspecified
		}
		delta := models.NewAccountDelta(addr, chain, nil, nil, change)
		if wd.Balance != "" {
			b, err := codec.FromHex(wd.Balance)
			if err != nil {
				return nil, err
			}
			delta.Balance = b
		}
		if wd.Code != "" {
			c, err := codec.FromHex(wd.Code)
			if err != nil {
				return nil, err
			}
			delta.Code = c
		}
		for slotHex, valHex := range wd.Slots {
			slotKey, err := codec.FromHex(slotHex)
			if err != nil {
				return nil, err
			}
			if valHex == "" {
				delta.SetSlot(slotKey, models.ClearedSlot)
				continue
			}
			val, err := codec.FromHex(valHex)
			if err != nil {
				return nil, err
			}
			delta.SetSlot(slotKey, models.SomeSlot(val))
		}
		updates[addrHex] = *delta
	}

	return &models.BlockAccountChanges{
		Extractor:      w.Extractor,
		Chain:          chain,
		Block:          block,
		AccountUpdates: updates,
	}, nil
}

// StateRequestParameters are the query-string parameters of the
// contract-state HTTP endpoint (spec.md §6).
type StateRequestParameters struct {
	Chain        string
	TvlGt        *float64
	InertiaMinGt *float64
}

// ToQueryString renders the parameters as a URL query string.
func (p StateRequestParameters) ToQueryString() string {
	v := url.Values{}
	v.Set("chain", p.Chain)
	if p.TvlGt != nil {
		v.Set("tvl_gt", strconv.FormatFloat(*p.TvlGt, 'f', -1, 64))
	}
	if p.InertiaMinGt != nil {
		v.Set("inertia_min_gt", strconv.FormatFloat(*p.InertiaMinGt, 'f', -1, 64))
	}
	return v.Encode()
}

// BlockIdentifier identifies a block by any combination of hash, number,
// chain and parent hash (spec.md §6's version-resolution input).
type BlockIdentifier struct {
	Hash       *string `json:"hash,omitempty"`
	Number     *uint64 `json:"number,omitempty"`
	Chain      *string `json:"chain,omitempty"`
	ParentHash *string `json:"parent_hash,omitempty"`
}

// VersionParam is the request body's version selector: a timestamp, a
// block identifier, or both (resolved per the precedence rules in §6).
type VersionParam struct {
	Timestamp *string          `json:"timestamp,omitempty"`
	Block     *BlockIdentifier `json:"block,omitempty"`
}

// ResolvedVersionKind discriminates how a VersionParam resolved.
type ResolvedVersionKind uint8

const (
	ResolvedByHash ResolvedVersionKind = iota
	ResolvedByChainAndNumber
	ResolvedByTimestamp
)

// ResolvedVersion is the result of applying §6's version-resolution
// precedence to a VersionParam.
type ResolvedVersion struct {
	Kind      ResolvedVersionKind
	Hash      string
	Chain     string
	Number    uint64
	Timestamp string
}

// Resolve applies the bit-exact precedence from spec.md §6: block.hash
// first, then (chain, number), then timestamp; otherwise a Parse error.
func (v VersionParam) Resolve() (ResolvedVersion, error) {
	if v.Block != nil {
		if v.Block.Hash != nil {
			return ResolvedVersion{Kind: ResolvedByHash, Hash: *v.Block.Hash}, nil
		}
		if v.Block.Chain != nil && v.Block.Number != nil {
			return ResolvedVersion{Kind: ResolvedByChainAndNumber, Chain: *v.Block.Chain, Number: *v.Block.Number}, nil
		}
		// Once block is present, an under-specified block never falls
		// back to timestamp — timestamp-fallback only applies when block
		// is absent entirely.
		return ResolvedVersion{}, NewParseError("Insufficient block information")
	}
	if v.Timestamp != nil {
		return ResolvedVersion{Kind: ResolvedByTimestamp, Timestamp: *v.Timestamp}, nil
	}
	return ResolvedVersion{}, NewParseError("Missing timestamp or block identifier")
}

// ContractID identifies one contract on one chain.
type ContractID struct {
	Chain   string `json:"chain"`
	Address string `json:"address"`
}

// StateRequestBody is the contract-state endpoint's request body (spec.md
// §6).
type StateRequestBody struct {
	ContractIDs []ContractID `json:"contract_ids,omitempty"`
	Version     VersionParam `json:"version"`
}

// ResponseAccount is one account's state as returned by the contract-state
// endpoint.
type ResponseAccount struct {
	Chain   string            `json:"chain"`
	Address string            `json:"address"`
	Balance string            `json:"balance"`
	Code    string            `json:"code"`
	Slots   map[string]string `json:"slots"`
}

// StateRequestResponse is the contract-state endpoint's response body.
type StateRequestResponse struct {
	Accounts []ResponseAccount `json:"accounts"`
}

// ParseError signals a malformed contract-state request (spec.md §6, §7).
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string { return "parse error: " + e.Reason }

// NewParseError builds a ParseError.
func NewParseError(reason string) error {
	return &ParseError{Reason: reason}
}
