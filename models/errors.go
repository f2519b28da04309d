package models

import "github.com/pkg/errors"

// ErrEmpty is returned by the decoder when the inbound substreams message
// carries no block field at all (spec.md §4.2 step 1).
var ErrEmpty = errors.New("substreams message carries no block")

// DecodeError wraps a reason string describing why a substreams message
// could not be translated into the typed change-set model. It is the only
// other error kind the decoder surfaces (spec.md §4.2).
type DecodeError struct {
	Reason string
}

func (e *DecodeError) Error() string {
	return "decode error: " + e.Reason
}

// NewDecodeError builds a DecodeError from a formatted reason.
func NewDecodeError(reason string) error {
	return &DecodeError{Reason: reason}
}
