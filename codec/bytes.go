// Package codec implements bit-exact conversions between wire-level byte
// forms (addresses, hashes, storage keys and values, balances) and the
// internal Bytes representation used throughout the indexer core.
package codec

import (
	"bytes"
	"encoding/hex"
	"math"
	"math/big"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"
)

// Bytes is an opaque, immutable byte sequence with lexicographic ordering
// and a lowercase-hex string form. It is the ByteString primitive: every
// chain-native identifier (address, hash, storage key, storage value,
// balance, raw calldata) is a Bytes.
type Bytes []byte

// DecodeError is returned whenever a byte sequence fails to satisfy the
// expected shape of the wire form it's being converted to or from.
type DecodeError struct {
	Reason string
}

func (e *DecodeError) Error() string {
	return "decode error: " + e.Reason
}

func newWidthError(what string, want, got int) error {
	return &DecodeError{Reason: errors.Errorf("%s: expected %d bytes, got %d", what, want, got).Error()}
}

// AddressWidth is the fixed width, in bytes, of a chain account address.
const AddressWidth = 20

// HashWidth is the fixed width, in bytes, of a block or transaction hash.
const HashWidth = 32

// StorageKeyWidth is the fixed width, in bytes, of a contract storage slot
// key or value.
const StorageKeyWidth = 32

// BalanceWidth is the fixed width, in bytes, of an account or token balance.
const BalanceWidth = 32

// AddressFromBytes converts a raw byte slice into an address Bytes value.
// It fails if b is not exactly AddressWidth bytes long.
func AddressFromBytes(b []byte) (Bytes, error) {
	if len(b) != AddressWidth {
		return nil, newWidthError("address", AddressWidth, len(b))
	}
	return cloneBytes(b), nil
}

// HashFromBytes converts a raw byte slice into a hash Bytes value. It fails
// if b is not exactly HashWidth bytes long.
func HashFromBytes(b []byte) (Bytes, error) {
	if len(b) != HashWidth {
		return nil, newWidthError("hash", HashWidth, len(b))
	}
	return cloneBytes(b), nil
}

// StorageKeyFromBytes converts a raw byte slice into a storage key Bytes
// value. It fails if b is not exactly StorageKeyWidth bytes long.
func StorageKeyFromBytes(b []byte) (Bytes, error) {
	if len(b) != StorageKeyWidth {
		return nil, newWidthError("storage key", StorageKeyWidth, len(b))
	}
	return cloneBytes(b), nil
}

// BalanceFromBEBytes converts a 32-byte big-endian balance into a Bytes
// value, zero-padding is the caller's responsibility — this call is total
// only on exactly BalanceWidth bytes, matching the fixed-width convention
// used by the account extractor (§4.3).
func BalanceFromBEBytes(b []byte) (Bytes, error) {
	if len(b) != BalanceWidth {
		return nil, newWidthError("balance", BalanceWidth, len(b))
	}
	return cloneBytes(b), nil
}

// BytesToF64 interprets b as an unsigned big-endian integer and converts it
// to a float64. If the magnitude overflows float64's range, it returns NaN
// rather than failing, so that downstream ranking pipelines degrade
// gracefully instead of rejecting the whole update.
func BytesToF64(b []byte) float64 {
	if len(b) == 0 {
		return 0
	}
	if len(b) <= 32 {
		var u uint256.Int
		u.SetBytes(b)
		f, _ := new(big.Float).SetInt(u.ToBig()).Float64()
		if isOverflow(f) {
			return math.NaN()
		}
		return f
	}
	// Wider than a uint256: fall back to big.Int, which handles arbitrary
	// magnitude, then detect overflow on conversion to float64.
	i := new(big.Int).SetBytes(b)
	f := new(big.Float).SetInt(i)
	val, acc := f.Float64()
	if acc != big.Exact && isOverflow(val) {
		return math.NaN()
	}
	return val
}

func isOverflow(f float64) bool {
	return f > math.MaxFloat64 || f < -math.MaxFloat64
}

// String renders b as lowercase hex without a leading "0x", the default
// display convention for every byte sequence in this system unless a
// protocol boundary requires the prefix (see Hex).
func (b Bytes) String() string {
	return hex.EncodeToString(b)
}

// Hex renders b as lowercase hex with a leading "0x", for protocol
// boundaries (JSON wire bodies) that require it.
func (b Bytes) Hex() string {
	return "0x" + hex.EncodeToString(b)
}

// Equal reports whether b and other hold identical byte sequences.
func (b Bytes) Equal(other Bytes) bool {
	return bytes.Equal(b, other)
}

// Less implements lexicographic ordering over Bytes values.
func (b Bytes) Less(other Bytes) bool {
	return bytes.Compare(b, other) < 0
}

// IsZero reports whether every byte of b is zero. A zero-length value is
// considered zero.
func (b Bytes) IsZero() bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}

// FromHex parses a hex string (with or without a "0x" prefix) into a Bytes
// value.
func FromHex(s string) (Bytes, error) {
	s = trimHexPrefix(s)
	decoded, err := hex.DecodeString(s)
	if err != nil {
		return nil, &DecodeError{Reason: err.Error()}
	}
	return decoded, nil
}

func trimHexPrefix(s string) string {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}

func cloneBytes(b []byte) Bytes {
	out := make(Bytes, len(b))
	copy(out, b)
	return out
}
