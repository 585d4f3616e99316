package hdf5index

import (
	"encoding/binary"
	"fmt"
	"math"

	hdf5 "github.com/scigolib/hdf5"

	"github.com/met-norway/dars/internal/dap2"
)

// readVariable materializes one dataset's full data through scigolib/hdf5
// and returns its index entry alongside the raw, little-endian bytes to
// append to the payload file.
//
// Shape discovery relies on the library's public surface: ChunkIterator
// exposes DatasetDims for chunked layouts (the common case for the large,
// gridded data variables this server streams); compact/contiguous
// datasets (typically 1-D coordinate variables in NetCDF-4 files) fall
// back to Read, which only reports a flat length, so they are always
// indexed as 1-D. A dataset that is neither successfully describable by
// ChunkIterator nor readable via Read is skipped.
func readVariable(ds *hdf5.Dataset) (*VariableIndex, []byte, error) {
	name := ds.Name()

	var dims []uint64
	var raw []byte
	var elemType dap2.ElemType

	if it, err := ds.ChunkIterator(); err == nil {
		dims = it.DatasetDims()
		start := make([]uint64, len(dims))
		value, rerr := ds.ReadSlice(start, dims)
		if rerr != nil {
			return nil, nil, fmt.Errorf("read chunked dataset %s: %w", name, rerr)
		}
		elemType, raw, err = encodeValues(value)
		if err != nil {
			return nil, nil, fmt.Errorf("encode dataset %s: %w", name, err)
		}
	} else {
		values, rerr := ds.Read()
		if rerr != nil {
			return nil, nil, fmt.Errorf("read dataset %s: %w", name, rerr)
		}
		dims = []uint64{uint64(len(values))}
		elemType = dap2.TypeFloat64
		raw = encodeFloat64(values)
	}

	dimNames := make([]string, len(dims))
	if len(dims) == 1 {
		dimNames[0] = name
	} else {
		for j := range dims {
			dimNames[j] = fmt.Sprintf("%s_dim%d", name, j)
		}
	}

	attrs := readAttributes(ds)

	return &VariableIndex{
		Name:     name,
		Type:     elemType,
		Dims:     dims,
		DimNames: dimNames,
		Attrs:    attrs,
	}, raw, nil
}

// readAttributes reads every attribute attached to ds through
// ListAttributes/ReadAttribute, the only decoded-value accessors the
// library exports for datasets.
func readAttributes(ds *hdf5.Dataset) []dap2.Attribute {
	names, err := ds.ListAttributes()
	if err != nil {
		return nil
	}
	attrs := make([]dap2.Attribute, 0, len(names))
	for _, name := range names {
		value, err := ds.ReadAttribute(name)
		if err != nil {
			attrs = append(attrs, dap2.Attribute{Name: name, Value: dap2.AttrValue{
				Kind: dap2.AttrUnimplemented, Reason: err.Error(),
			}})
			continue
		}
		attrs = append(attrs, dap2.Attribute{Name: name, Value: convertAttrValue(value)})
	}
	return attrs
}

// convertAttrValue maps a decoded attribute value (as scigolib/hdf5
// reports it) onto the dap2 AttrValue variant it corresponds to.
func convertAttrValue(v interface{}) dap2.AttrValue {
	switch x := v.(type) {
	case string:
		return dap2.AttrValue{Kind: dap2.AttrString, Str: x}
	case float32:
		return dap2.AttrValue{Kind: dap2.AttrFloat32, F32: x}
	case []float32:
		return dap2.AttrValue{Kind: dap2.AttrFloat32Slice, F32s: x}
	case float64:
		return dap2.AttrValue{Kind: dap2.AttrFloat64, F64: x}
	case []float64:
		return dap2.AttrValue{Kind: dap2.AttrFloat64Slice, F64s: x}
	case int16:
		return dap2.AttrValue{Kind: dap2.AttrInt16, I16: x}
	case []int16:
		return dap2.AttrValue{Kind: dap2.AttrInt16Slice, I16s: x}
	case int32:
		return dap2.AttrValue{Kind: dap2.AttrInt32, I32: x}
	case []int32:
		return dap2.AttrValue{Kind: dap2.AttrInt32Slice, I32s: x}
	case uint8:
		return dap2.AttrValue{Kind: dap2.AttrByte, Byte: x}
	default:
		return dap2.AttrValue{Kind: dap2.AttrUnimplemented, Reason: fmt.Sprintf("unsupported attribute Go type %T", v)}
	}
}

// encodeValues dispatches on the Go type scigolib/hdf5 reports for a
// fully-read dataset's native type, returning the matching ElemType and
// its little-endian-packed bytes.
func encodeValues(v interface{}) (dap2.ElemType, []byte, error) {
	switch vs := v.(type) {
	case []float32:
		return dap2.TypeFloat32, encodeFloat32(vs), nil
	case []float64:
		return dap2.TypeFloat64, encodeFloat64(vs), nil
	case []int16:
		return dap2.TypeInt16, encodeInt16(vs), nil
	case []int32:
		return dap2.TypeInt32, encodeInt32(vs), nil
	case []uint8:
		return dap2.TypeByte, vs, nil
	default:
		return 0, nil, fmt.Errorf("unsupported element type %T", v)
	}
}

func encodeFloat32(vs []float32) []byte {
	buf := make([]byte, len(vs)*4)
	for i, v := range vs {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

func encodeFloat64(vs []float64) []byte {
	buf := make([]byte, len(vs)*8)
	for i, v := range vs {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
	}
	return buf
}

func encodeInt16(vs []int16) []byte {
	buf := make([]byte, len(vs)*2)
	for i, v := range vs {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(v))
	}
	return buf
}

func encodeInt32(vs []int32) []byte {
	buf := make([]byte, len(vs)*4)
	for i, v := range vs {
		binary.LittleEndian.PutUint32(buf[i*4:], uint32(v))
	}
	return buf
}

// renameSharedDims resolves multi-dimensional variables' synthetic
// "<var>_dim<j>" axis names to a same-sized coordinate variable's name
// when one exists, approximating NetCDF-4 dimension-scale resolution
// (not exposed by the library's public API): a 1-D variable is assumed
// to be the coordinate for any other axis of matching size. Ambiguous
// ties (two coordinate variables sharing a size) resolve to whichever
// was scanned last; this is a best-effort heuristic, not an exact
// reconstruction of the source file's dimension graph.
func renameSharedDims(idx *Index) {
	bySize := make(map[uint64]string)
	for _, v := range idx.Variables {
		if len(v.Dims) == 1 {
			bySize[v.Dims[0]] = v.Name
		}
	}
	for i := range idx.Variables {
		v := &idx.Variables[i]
		if len(v.Dims) < 2 {
			continue
		}
		for j, size := range v.Dims {
			if coord, ok := bySize[size]; ok {
				v.DimNames[j] = coord
			}
		}
	}
}
