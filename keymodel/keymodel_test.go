package keymodel_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/janwillem32/rsbd8/keymodel"
)

func TestClassifyAuto(t *testing.T) {
	require.Equal(t, keymodel.Descriptor{Width: 4, Kind: keymodel.Unsigned, SignByteOffset: -1}, keymodel.Classify[uint32](keymodel.Auto))
	require.Equal(t, keymodel.Descriptor{Width: 4, Kind: keymodel.Signed, SignByteOffset: 3}, keymodel.Classify[int32](keymodel.Auto))
	require.Equal(t, keymodel.Descriptor{Width: 8, Kind: keymodel.Float, SignByteOffset: 7}, keymodel.Classify[float64](keymodel.Auto))
	require.Equal(t, keymodel.Descriptor{Width: 10, Kind: keymodel.Unsigned, SignByteOffset: -1}, keymodel.Classify[keymodel.LDouble80](keymodel.Auto))
}

func TestClassifyForceOverridesStaticType(t *testing.T) {
	require.Equal(t, keymodel.Float, keymodel.Classify[uint32](keymodel.ForceFloat).Kind)
	require.Equal(t, keymodel.Signed, keymodel.Classify[uint16](keymodel.ForceSigned).Kind)
	require.Equal(t, keymodel.Unsigned, keymodel.Classify[int8](keymodel.ForceUnsigned).Kind)
}

func TestBytesOfIsZeroCopy(t *testing.T) {
	buf := []uint32{1, 2, 3}
	b := keymodel.BytesOf(buf)
	require.Len(t, b, 12)
	b[0] = 0xFF
	require.Equal(t, byte(0xFF), byte(buf[0]))
}

func TestNormalizedDigitUnsigned(t *testing.T) {
	desc := keymodel.Descriptor{Width: 1, Kind: keymodel.Unsigned, SignByteOffset: -1}
	require.Equal(t, byte(0x07), keymodel.NormalizedDigit([]byte{0x07}, 0, desc))
}

func TestNormalizedDigitSignedRotatesOnlySignByte(t *testing.T) {
	desc := keymodel.Descriptor{Width: 2, Kind: keymodel.Signed, SignByteOffset: 1}
	key := []byte{0x34, 0x80} // -128*256+0x34 in two's complement, i.e. a negative int16
	require.Equal(t, byte(0x34), keymodel.NormalizedDigit(key, 0, desc))
	require.Equal(t, byte(0x00), keymodel.NormalizedDigit(key, 1, desc)) // 0x80 ^ 0x80 = 0
}

func TestNormalizedDigitFloatComplementsNegative(t *testing.T) {
	desc := keymodel.Descriptor{Width: 4, Kind: keymodel.Float, SignByteOffset: 3}
	// 0x80000002 as little-endian bytes: 02 00 00 80, sign bit set.
	key := []byte{0x02, 0x00, 0x00, 0x80}
	require.Equal(t, byte(^uint8(0x02)), keymodel.NormalizedDigit(key, 0, desc))
	require.Equal(t, byte(^uint8(0x00)), keymodel.NormalizedDigit(key, 1, desc))
	require.Equal(t, byte(0x7F), keymodel.NormalizedDigit(key, 3, desc)) // ^0x80: a negative key's sign byte is complemented too
}

func TestNormalizedDigitFloatNonNegativePassesThrough(t *testing.T) {
	desc := keymodel.Descriptor{Width: 4, Kind: keymodel.Float, SignByteOffset: 3}
	key := []byte{0x03, 0x00, 0x00, 0x00}
	require.Equal(t, byte(0x03), keymodel.NormalizedDigit(key, 0, desc))
	require.Equal(t, byte(0x80), keymodel.NormalizedDigit(key, 3, desc))
}

func TestLDouble80PackUnpack(t *testing.T) {
	r := keymodel.NewLDouble80(0x0102030405060708, 0xABCD)
	require.Equal(t, uint64(0x0102030405060708), r.Mantissa())
	require.Equal(t, uint16(0xABCD), r.SignExp())
}

func TestFieldOffsetProjector(t *testing.T) {
	type rec struct {
		a uint32
		b uint64
	}
	proj := keymodel.FieldOffset[rec, uint64](8)
	require.Equal(t, uint64(99), proj(rec{a: 1, b: 99}))
}
