package codec

import (
	"math"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddressFromBytesWidth(t *testing.T) {
	addr, err := AddressFromBytes(make([]byte, 20))
	require.NoError(t, err)
	assert.Len(t, addr, 20)

	_, err = AddressFromBytes(make([]byte, 19))
	require.Error(t, err)

	_, err = AddressFromBytes(make([]byte, 21))
	require.Error(t, err)
}

func TestHashFromBytesWidth(t *testing.T) {
	_, err := HashFromBytes(make([]byte, 32))
	require.NoError(t, err)

	_, err = HashFromBytes(make([]byte, 31))
	require.Error(t, err)
}

func TestStorageKeyFromBytesWidth(t *testing.T) {
	_, err := StorageKeyFromBytes(make([]byte, 32))
	require.NoError(t, err)

	_, err = StorageKeyFromBytes(make([]byte, 33))
	require.Error(t, err)
}

// TestCodecRoundTrip covers invariant 4: for any 32-byte ByteString b,
// decoding b as a big-endian integer then re-encoding yields b.
func TestCodecRoundTrip(t *testing.T) {
	input := make([]byte, 32)
	for i := range input {
		input[i] = byte(i * 7)
	}

	f := BytesToF64(input)
	require.False(t, math.IsNaN(f))

	var u uint256.Int
	u.SetBytes(input)
	reencoded := u.ToBig().FillBytes(make([]byte, 32))
	assert.Equal(t, input, reencoded)

	b, err := BalanceFromBEBytes(input)
	require.NoError(t, err)
	assert.Equal(t, Bytes(input), b)
}

func TestBytesToF64Overflow(t *testing.T) {
	// float64's magnitude tops out around 2^1024; an integer wider than
	// that (here 150 bytes, all 0xFF, ~1200 bits) overflows on conversion
	// and must decode to NaN rather than erroring.
	huge := make([]byte, 150)
	for i := range huge {
		huge[i] = 0xFF
	}
	f := BytesToF64(huge)
	assert.True(t, math.IsNaN(f))
}

func TestBytesToF64EmptyIsZero(t *testing.T) {
	assert.Equal(t, float64(0), BytesToF64(nil))
}

func TestBytesHexDisplay(t *testing.T) {
	b := Bytes{0xAB, 0xCD}
	assert.Equal(t, "abcd", b.String())
	assert.Equal(t, "0xabcd", b.Hex())
}

func TestBytesOrdering(t *testing.T) {
	a := Bytes{0x01}
	b := Bytes{0x02}
	assert.True(t, a.Less(b))
	assert.False(t, b.Less(a))
}

func TestBytesIsZero(t *testing.T) {
	assert.True(t, Bytes(make([]byte, 32)).IsZero())
	assert.False(t, Bytes{0x00, 0x01}.IsZero())
}

func TestFromHex(t *testing.T) {
	b, err := FromHex("0xabCD")
	require.NoError(t, err)
	assert.Equal(t, Bytes{0xab, 0xcd}, b)

	b2, err := FromHex("abcd")
	require.NoError(t, err)
	assert.Equal(t, b, b2)
}
