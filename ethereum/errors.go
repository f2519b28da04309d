// Package ethereum implements the account/storage extractor (spec.md
// §4.3) against an Ethereum-style JSON-RPC node, in both the single-call
// and batched-RPC variants.
package ethereum

import "github.com/pkg/errors"

// RPCError is the extractor's closed error taxonomy (spec.md §4.3,
// "Failure semantics").
type RPCError struct {
	Kind   RPCErrorKind
	Detail string
	cause  error
}

// RPCErrorKind discriminates the three ways an extractor call can fail.
type RPCErrorKind uint8

const (
	// RequestErrorKind wraps any transport/JSON-RPC error returned by the
	// node; retries are the caller's responsibility.
	RequestErrorKind RPCErrorKind = iota
	// UnknownErrorKind marks a protocol invariant violation: the node
	// replied without error but omitted a result the extractor required.
	UnknownErrorKind
	// SetupErrorKind marks a misconfiguration discovered before any RPC
	// call was issued (e.g. an unparsable endpoint URL).
	SetupErrorKind
)

func (e *RPCError) Error() string {
	switch e.Kind {
	case RequestErrorKind:
		return "rpc request error: " + e.Detail
	case UnknownErrorKind:
		return "rpc protocol invariant violation: " + e.Detail
	case SetupErrorKind:
		return "rpc setup error: " + e.Detail
	default:
		return "rpc error: " + e.Detail
	}
}

func (e *RPCError) Unwrap() error { return e.cause }

// RequestError wraps a failed JSON-RPC call.
func RequestError(cause error) error {
	return &RPCError{Kind: RequestErrorKind, Detail: cause.Error(), cause: cause}
}

// UnknownErr builds an UnknownErrorKind for a missing-but-required result.
func UnknownErr(detail string) error {
	return &RPCError{Kind: UnknownErrorKind, Detail: detail}
}

// SetupErr builds a SetupErrorKind for a pre-flight configuration failure.
func SetupErr(detail string) error {
	return &RPCError{Kind: SetupErrorKind, Detail: detail}
}

// IsRequestError reports whether err is an RPCError of RequestErrorKind.
func IsRequestError(err error) bool {
	var rpcErr *RPCError
	return errors.As(err, &rpcErr) && rpcErr.Kind == RequestErrorKind
}
