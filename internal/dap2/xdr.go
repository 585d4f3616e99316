package dap2

import (
	"encoding/binary"
	"math"

	"github.com/met-norway/dars/internal/daperr"
)

const maxXdrCount = math.MaxUint32

// XdrLength returns the length-prefix DAP2 writes ahead of a non-scalar
// variable's data: the element count as a big-endian uint32, written
// twice (the DAP2 wire convention doubles the prefix). Scalars carry no
// prefix at all; callers must not call this for a scalar variable.
func XdrLength(n uint64) ([]byte, error) {
	if n > maxXdrCount {
		return nil, daperr.New(daperr.Overflow, "element count exceeds the XDR uint32 range")
	}
	buf := make([]byte, 8)
	binary.BigEndian.PutUint32(buf[0:4], uint32(n))
	binary.BigEndian.PutUint32(buf[4:8], uint32(n))
	return buf, nil
}

// ElementWidth returns the native storage byte width of one element of t
// (see WireWidth for its width in the DODS body), for chunked streaming
// that needs to byte-swap raw storage bytes directly.
func ElementWidth(t ElemType) int {
	return t.Width()
}

// SwapInPlace byte-swaps every width-byte element of buf in place. len(buf)
// must be a multiple of width. Widths of 1 (Byte) are a no-op. This
// converts little-endian element storage, as HDF5/NetCDF-4 containers
// typically hold, into XDR's big-endian wire form; applying it twice is
// the identity, so the same function also reverses the conversion.
func SwapInPlace(buf []byte, width int) {
	if width <= 1 {
		return
	}
	for i := 0; i+width <= len(buf); i += width {
		for l, r := i, i+width-1; l < r; l, r = l+1, r-1 {
			buf[l], buf[r] = buf[r], buf[l]
		}
	}
}

// PackFloat32 encodes vs as big-endian IEEE 754 single-precision values
// into dst, which must be at least 4*len(vs) bytes.
func PackFloat32(dst []byte, vs []float32) {
	for i, v := range vs {
		binary.BigEndian.PutUint32(dst[i*4:], math.Float32bits(v))
	}
}

// PackFloat64 encodes vs as big-endian IEEE 754 double-precision values
// into dst, which must be at least 8*len(vs) bytes.
func PackFloat64(dst []byte, vs []float64) {
	for i, v := range vs {
		binary.BigEndian.PutUint64(dst[i*8:], math.Float64bits(v))
	}
}

// PackInt16 encodes vs as big-endian two's-complement int16 values into
// dst, which must be at least 4*len(vs) bytes. DAP2 has no native Int16
// wire type; per convention each value is widened to a 4-byte Int32 slot.
func PackInt16(dst []byte, vs []int16) {
	for i, v := range vs {
		binary.BigEndian.PutUint32(dst[i*4:], uint32(int32(v)))
	}
}

// PackInt32 encodes vs as big-endian two's-complement int32 values into
// dst, which must be at least 4*len(vs) bytes.
func PackInt32(dst []byte, vs []int32) {
	for i, v := range vs {
		binary.BigEndian.PutUint32(dst[i*4:], uint32(v))
	}
}

// PackByte copies vs into dst verbatim: DAP2 Byte values are unsigned
// octets with no byte-order concerns and no padding — widths are
// preserved on the wire, unlike Int16.
func PackByte(dst []byte, vs []uint8) {
	copy(dst, vs)
}

// WireWidth returns the number of bytes t occupies in the DODS binary
// body. Byte is unpadded (width preserved); Int16 is widened to a 4-byte
// slot per DAP2 convention; the rest match their native width.
func WireWidth(t ElemType) int {
	switch t {
	case TypeFloat64:
		return 8
	case TypeByte:
		return 1
	default:
		return 4
	}
}
