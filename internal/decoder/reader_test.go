package decoder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReaderSequentialReads(t *testing.T) {
	r := NewReader([]byte{
		0x01,
		0x02, 0x03,
		0x04, 0x05, 0x06, 0x07,
		0x08, 0x09, 0x0A, 0x0B, 0x0C, 0x0D, 0x0E, 0x0F,
	})

	u8, err := r.Uint8()
	require.NoError(t, err)
	assert.Equal(t, uint8(0x01), u8)

	u16, err := r.Uint16()
	require.NoError(t, err)
	assert.Equal(t, uint16(0x0203), u16)

	u32, err := r.Uint32()
	require.NoError(t, err)
	assert.Equal(t, uint32(0x04050607), u32)

	u64, err := r.Uint64()
	require.NoError(t, err)
	assert.Equal(t, uint64(0x08090A0B0C0D0E0F), u64)

	assert.Equal(t, 0, r.Remaining())
	assert.Equal(t, 15, r.Offset())
}

func TestReaderTruncated(t *testing.T) {
	r := NewReader([]byte{0x01, 0x02, 0x03})

	_, err := r.Uint32()
	assert.ErrorIs(t, err, ErrTruncated)

	// A failed read consumes nothing
	assert.Equal(t, 3, r.Remaining())
	u16, err := r.Uint16()
	require.NoError(t, err)
	assert.Equal(t, uint16(0x0102), u16)

	_, err = r.Uint16()
	assert.ErrorIs(t, err, ErrTruncated)
}

func TestReaderBytes(t *testing.T) {
	r := NewReader([]byte{0xAA, 0xBB, 0xCC})

	b, err := r.Bytes(2)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xAA, 0xBB}, b)

	_, err = r.Bytes(2)
	assert.ErrorIs(t, err, ErrTruncated)

	b, err = r.Bytes(0)
	require.NoError(t, err)
	assert.Empty(t, b)
}

func TestToIPv4(t *testing.T) {
	s, err := ToIPv4([]byte{192, 168, 1, 100})
	require.NoError(t, err)
	assert.Equal(t, "192.168.1.100", s)

	_, err = ToIPv4([]byte{192, 168})
	assert.ErrorIs(t, err, ErrFieldLength)
	_, err = ToIPv4(nil)
	assert.ErrorIs(t, err, ErrFieldLength)
}

func TestToIPv6(t *testing.T) {
	b := []byte{0x20, 0x01, 0x0d, 0xb8, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0x01}
	s, err := ToIPv6(b)
	require.NoError(t, err)
	assert.Equal(t, "2001:db8::1", s)

	_, err = ToIPv6(b[:8])
	assert.ErrorIs(t, err, ErrFieldLength)
}

func TestToMAC(t *testing.T) {
	s, err := ToMAC([]byte{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF})
	require.NoError(t, err)
	assert.Equal(t, "aa:bb:cc:dd:ee:ff", s)

	_, err = ToMAC([]byte{0xAA})
	assert.ErrorIs(t, err, ErrFieldLength)
}

func TestToHex(t *testing.T) {
	assert.Equal(t, "AA-BB-CC", ToHex([]byte{0xAA, 0xBB, 0xCC}))
	assert.Equal(t, "00", ToHex([]byte{0x00}))
	assert.Equal(t, "", ToHex(nil))
}
