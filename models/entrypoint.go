package models

import "github.com/0xmsu/tycho-indexer/codec"

// EntryPoint is an externally addressable entry into a contract's
// executable surface, discovered via indexing, that downstream simulators
// may want to trace.
type EntryPoint struct {
	ExternalID string
	Target     codec.Bytes
	Signature  string
}

// TracingParamsKind discriminates the closed set of supported tracer
// configurations. RPCTracer is the only member today; the type is kept
// closed (rather than open-world dispatch) per spec.md §9's redesign note,
// since the set of tracer kinds is known at compile time.
type TracingParamsKind uint8

const (
	TracingParamsUnspecified TracingParamsKind = iota
	TracingParamsRPCTracer
)

// RPCTracerParams carries the caller and calldata used to drive an
// RPC-based execution trace.
type RPCTracerParams struct {
	Caller   codec.Bytes // nil if unset
	Calldata codec.Bytes
}

// TracingParams is a closed tagged variant over the supported tracer
// configurations.
type TracingParams struct {
	Kind TracingParamsKind
	RPC  RPCTracerParams
}

// NewRPCTracerParams builds a TracingParams carrying RPC tracer parameters.
func NewRPCTracerParams(caller codec.Bytes, calldata codec.Bytes) TracingParams {
	return TracingParams{Kind: TracingParamsRPCTracer, RPC: RPCTracerParams{Caller: caller, Calldata: calldata}}
}
