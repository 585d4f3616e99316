// Package hdf5index builds and serves a per-container index: variable
// shapes, types and attributes read once via github.com/scigolib/hdf5,
// plus a flat, byte-addressable payload this package itself owns so the
// request-time read path never touches the HDF5 decoder again (§4.6).
package hdf5index

import (
	"os"
	"time"

	hdf5 "github.com/scigolib/hdf5"

	"github.com/met-norway/dars/internal/daperr"
	"github.com/met-norway/dars/internal/dap2"
	"github.com/met-norway/dars/internal/xlog"
)

// VariableIndex locates one variable's decoded data inside the payload
// file built alongside this Index, plus the shape/type metadata the DAP2
// layer needs.
type VariableIndex struct {
	Name     string
	Type     dap2.ElemType
	Dims     []uint64
	DimNames []string // defaults set by readVariable, refined by renameSharedDims
	Attrs    []dap2.Attribute
	Offset   uint64 // byte offset into the payload file
	Length   uint64 // byte length of this variable's payload
}

// Index is the persisted, per-container metadata and payload layout:
// everything the DAP2 layer and the streamer need without reopening the
// source HDF5 file. SchemaVersion guards chunkstore deserialization
// across incompatible Index layout changes.
type Index struct {
	SchemaVersion int
	SourcePath    string
	PayloadPath   string
	ModTime       time.Time
	GlobalAttrs   []dap2.Attribute
	Variables     []VariableIndex
}

// SchemaVersion is bumped whenever Index's shape changes incompatibly;
// chunkstore rejects cached blobs with a mismatched version.
const SchemaVersion = 1

// Container returns the dap2.Container view of this Index's metadata.
func (idx *Index) Container(name string) *dap2.Container {
	vars := make([]dap2.Variable, len(idx.Variables))
	for i, v := range idx.Variables {
		dims := make([]dap2.Dimension, len(v.Dims))
		for j, size := range v.Dims {
			dims[j] = dap2.Dimension{Name: v.DimNames[j], Size: size}
		}
		vars[i] = dap2.Variable{Name: v.Name, Type: v.Type, Dims: dims, Attrs: v.Attrs}
	}
	return &dap2.Container{Name: name, GlobalAttrs: idx.GlobalAttrs, Variables: vars}
}

// Variable looks up a variable's index entry by name.
func (idx *Index) Variable(name string) (*VariableIndex, bool) {
	for i := range idx.Variables {
		if idx.Variables[i].Name == name {
			return &idx.Variables[i], true
		}
	}
	return nil, false
}

// Stale reports whether the source file's current mtime no longer
// matches the mtime recorded when the index was built.
func (idx *Index) Stale() (bool, error) {
	fi, err := os.Stat(idx.SourcePath)
	if err != nil {
		return false, daperr.Wrap(daperr.IoError, "stat source file: "+idx.SourcePath, err)
	}
	return !fi.ModTime().Equal(idx.ModTime), nil
}

// Build opens sourcePath with scigolib/hdf5, walks every dataset, reads
// its attributes and fully materializes its data once, and writes that
// data sequentially into payloadPath (truncated and recreated) as raw,
// little-endian, native-width bytes. The returned Index records, per
// variable, the byte range within payloadPath where its data landed.
//
// This is the one and only point in the system that calls into the HDF5
// decoder: §4.6 keeps the chunked streamer's hot path independent of it,
// reading back through the payload file via mmap instead (streamer.go).
func Build(sourcePath, payloadPath string) (*Index, error) {
	fi, err := os.Stat(sourcePath)
	if err != nil {
		return nil, daperr.Wrap(daperr.IoError, "stat source file: "+sourcePath, err)
	}

	f, err := hdf5.Open(sourcePath)
	if err != nil {
		return nil, daperr.Wrap(daperr.CorruptIndex, "open hdf5 container: "+sourcePath, err)
	}
	defer f.Close()

	payload, err := os.Create(payloadPath)
	if err != nil {
		return nil, daperr.Wrap(daperr.IoError, "create payload file: "+payloadPath, err)
	}
	defer payload.Close()

	idx := &Index{
		SchemaVersion: SchemaVersion,
		SourcePath:    sourcePath,
		PayloadPath:   payloadPath,
		ModTime:       fi.ModTime(),
	}

	// Group-level attributes are exposed only as raw, undecoded records
	// (Dataset is the only type with a decoded ReadAttribute accessor),
	// so global attributes are recorded as AttrUnimplemented; BuildDAS
	// silently drops them from the rendered NC_GLOBAL block.
	if rootAttrs, err := f.Root().Attributes(); err == nil {
		for _, a := range rootAttrs {
			idx.GlobalAttrs = append(idx.GlobalAttrs, dap2.Attribute{
				Name: a.Name,
				Value: dap2.AttrValue{
					Kind:   dap2.AttrUnimplemented,
					Reason: "group-level attribute decoding is not exposed outside dataset scope",
				},
			})
		}
	}

	var offset uint64
	var walkErr error

	f.Walk(func(path string, obj hdf5.Object) {
		if walkErr != nil {
			return
		}
		ds, ok := obj.(*hdf5.Dataset)
		if !ok {
			return
		}

		vi, raw, err := readVariable(ds)
		if err != nil {
			xlog.Log.Warn().Err(err).Str("path", path).Msg("skipping unreadable dataset")
			return
		}
		vi.Offset = offset
		vi.Length = uint64(len(raw))

		if _, werr := payload.Write(raw); werr != nil {
			walkErr = daperr.Wrap(daperr.IoError, "write payload: "+payloadPath, werr)
			return
		}
		offset += uint64(len(raw))
		idx.Variables = append(idx.Variables, *vi)
	})
	if walkErr != nil {
		return nil, walkErr
	}

	renameSharedDims(idx)
	return idx, nil
}
