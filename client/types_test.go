package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }
func u64Ptr(n uint64) *uint64 { return &n }

// S6: both block.hash and timestamp present resolves to Block(Hash(h)),
// discarding the timestamp.
func TestVersionResolutionHashWins(t *testing.T) {
	v := VersionParam{
		Timestamp: strPtr("2024-01-01T00:00:00Z"),
		Block:     &BlockIdentifier{Hash: strPtr("0xabc")},
	}
	resolved, err := v.Resolve()
	require.NoError(t, err)
	assert.Equal(t, ResolvedByHash, resolved.Kind)
	assert.Equal(t, "0xabc", resolved.Hash)
}

func TestVersionResolutionChainAndNumber(t *testing.T) {
	v := VersionParam{
		Block: &BlockIdentifier{Chain: strPtr("ethereum"), Number: u64Ptr(100)},
	}
	resolved, err := v.Resolve()
	require.NoError(t, err)
	assert.Equal(t, ResolvedByChainAndNumber, resolved.Kind)
	assert.Equal(t, "ethereum", resolved.Chain)
	assert.EqualValues(t, 100, resolved.Number)
}

// An under-specified block never falls back to timestamp: once block is
// present at all, it must resolve by hash or by (chain, number), or the
// request fails outright. Timestamp-fallback only applies when block is
// absent entirely (see TestVersionResolutionMissingEverything and the
// timestamp-only path exercised by Resolve's final branch).
func TestVersionResolutionTimestampDoesNotFallBackUnderBlock(t *testing.T) {
	v := VersionParam{
		Timestamp: strPtr("2024-01-01T00:00:00Z"),
		Block:     &BlockIdentifier{},
	}
	_, err := v.Resolve()
	require.Error(t, err)
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "Insufficient block information", parseErr.Reason)
}

func TestVersionResolutionInsufficientBlockInformation(t *testing.T) {
	v := VersionParam{Block: &BlockIdentifier{}}
	_, err := v.Resolve()
	require.Error(t, err)
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "Insufficient block information", parseErr.Reason)
}

func TestVersionResolutionMissingEverything(t *testing.T) {
	_, err := VersionParam{}.Resolve()
	require.Error(t, err)
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "Missing timestamp or block identifier", parseErr.Reason)
}

func TestStateRequestParametersToQueryString(t *testing.T) {
	tvl := 1000.5
	p := StateRequestParameters{Chain: "ethereum", TvlGt: &tvl}
	qs := p.ToQueryString()
	assert.Contains(t, qs, "chain=ethereum")
	assert.Contains(t, qs, "tvl_gt=1000.5")
}

func TestResponseUnmarshalNewSubscription(t *testing.T) {
	raw := `{"NewSubscription": {"extractor_id": {"chain": "ethereum", "extractor": "vm"}, "subscription_id": "sub-1"}}`
	var r Response
	require.NoError(t, r.UnmarshalJSON([]byte(raw)))
	assert.Equal(t, ResponseNewSubscription, r.Kind)
	assert.Equal(t, "sub-1", r.SubscriptionID)
	assert.Equal(t, "ethereum", r.ExtractorID.Chain)
}

func TestResponseUnmarshalSubscriptionEnded(t *testing.T) {
	raw := `{"SubscriptionEnded": {"subscription_id": "sub-1"}}`
	var r Response
	require.NoError(t, r.UnmarshalJSON([]byte(raw)))
	assert.Equal(t, ResponseSubscriptionEnded, r.Kind)
	assert.Equal(t, "sub-1", r.SubscriptionID)
}

func TestCommandMarshalSubscribe(t *testing.T) {
	cmd := SubscribeCommand(ExtractorIdentity{Chain: "ethereum", Extractor: "vm"})
	data, err := cmd.MarshalJSON()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"Subscribe"`)
	assert.Contains(t, string(data), `"chain":"ethereum"`)
}
