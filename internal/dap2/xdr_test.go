package dap2

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/met-norway/dars/internal/daperr"
)

func TestXdrLength_DoublesThePrefix(t *testing.T) {
	buf, err := XdrLength(42)
	require.NoError(t, err)
	require.Len(t, buf, 8)
	require.Equal(t, buf[0:4], buf[4:8])
	require.Equal(t, []byte{0, 0, 0, 42}, buf[0:4])
}

func TestXdrLength_Zero(t *testing.T) {
	buf, err := XdrLength(0)
	require.NoError(t, err)
	require.Equal(t, []byte{0, 0, 0, 0, 0, 0, 0, 0}, buf)
}

func TestXdrLength_OverflowsUint32(t *testing.T) {
	_, err := XdrLength(uint64(math.MaxUint32) + 1)
	require.Error(t, err)
	kind, ok := daperr.KindOf(err)
	require.True(t, ok)
	require.Equal(t, daperr.Overflow, kind)
}

func TestSwapInPlace_Width4RoundTrips(t *testing.T) {
	orig := []byte{0x01, 0x02, 0x03, 0x04, 0xaa, 0xbb, 0xcc, 0xdd}
	buf := append([]byte(nil), orig...)
	SwapInPlace(buf, 4)
	require.NotEqual(t, orig, buf)
	SwapInPlace(buf, 4)
	require.Equal(t, orig, buf)
}

func TestSwapInPlace_Width1NoOp(t *testing.T) {
	orig := []byte{0x01, 0x02, 0x03}
	buf := append([]byte(nil), orig...)
	SwapInPlace(buf, 1)
	require.Equal(t, orig, buf)
}

func TestPackFloat32_BigEndian(t *testing.T) {
	dst := make([]byte, 4)
	PackFloat32(dst, []float32{1.0})
	require.Equal(t, []byte{0x3f, 0x80, 0x00, 0x00}, dst)
}

func TestPackFloat64_BigEndian(t *testing.T) {
	dst := make([]byte, 8)
	PackFloat64(dst, []float64{1.0})
	require.Equal(t, []byte{0x3f, 0xf0, 0, 0, 0, 0, 0, 0}, dst)
}

func TestPackInt16_WidenedToInt32Slot(t *testing.T) {
	dst := make([]byte, 4)
	PackInt16(dst, []int16{-1})
	require.Equal(t, []byte{0xff, 0xff, 0xff, 0xff}, dst)
}

func TestPackInt32_BigEndian(t *testing.T) {
	dst := make([]byte, 4)
	PackInt32(dst, []int32{256})
	require.Equal(t, []byte{0x00, 0x00, 0x01, 0x00}, dst)
}

func TestPackByte_Unpadded(t *testing.T) {
	dst := make([]byte, 2)
	PackByte(dst, []uint8{7, 200})
	require.Equal(t, []byte{7, 200}, dst)
}

func TestWireWidth(t *testing.T) {
	require.Equal(t, 8, WireWidth(TypeFloat64))
	require.Equal(t, 4, WireWidth(TypeFloat32))
	require.Equal(t, 4, WireWidth(TypeInt16))
	require.Equal(t, 4, WireWidth(TypeInt32))
	require.Equal(t, 1, WireWidth(TypeByte))
}
