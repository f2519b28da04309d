package pb

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// fieldFunc consumes one field's value from b (the remaining buffer after
// the tag), returning the number of bytes consumed or a negative value on
// malformed wire data.
type fieldFunc func(num protowire.Number, typ protowire.Type, b []byte) (int, error)

// consumeFields walks every (tag, value) pair in b, calling fn for each.
// Unknown field numbers are skipped rather than rejected, so that producers
// may add fields without breaking older consumers.
func consumeFields(b []byte, fn fieldFunc) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
		consumed, err := fn(num, typ, b)
		if err != nil {
			return err
		}
		if consumed < 0 {
			return protowire.ParseError(consumed)
		}
		b = b[consumed:]
	}
	return nil
}

// skipField discards a field's value of the given wire type, used for
// unrecognized field numbers.
func skipField(typ protowire.Type, b []byte) (int, error) {
	n := protowire.ConsumeFieldValue(0, typ, b)
	if n < 0 {
		return n, protowire.ParseError(n)
	}
	return n, nil
}

// protowireErr converts a protowire negative-length sentinel into an error,
// or returns nil when n is non-negative.
func protowireErr(n int) error {
	if n < 0 {
		return protowire.ParseError(n)
	}
	return nil
}

// ErrTruncated describes a length-delimited submessage that could not be
// consumed because the outer buffer ran out of bytes. The decoders in this
// package do not return it: they report such input as a protowire parse
// error.
var ErrTruncated = fmt.Errorf("substreams message: truncated submessage")
