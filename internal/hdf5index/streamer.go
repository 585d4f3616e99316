package hdf5index

import (
	"context"
	"fmt"

	mmap "github.com/edsrzf/mmap-go"

	"github.com/met-norway/dars/internal/daperr"
)

// Streamer implements streamio.RawSource over an Index's payload file,
// memory-mapped once and sliced per read instead of issuing a seek+read
// syscall pair per chunk: request-time memory is bounded to the pages the
// kernel actually faults in while streamio walks its run plan, matching
// the technique saferwall-pe uses to read PE sections without buffering
// whole files.
type Streamer struct {
	idx *Index
	mm  mmap.MMap
}

// Open memory-maps idx's payload file read-only. Callers must call
// Close when done streaming from it.
func Open(idx *Index) (*Streamer, error) {
	f, err := openPayload(idx.PayloadPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, daperr.Wrap(daperr.IoError, "mmap payload: "+idx.PayloadPath, err)
	}
	return &Streamer{idx: idx, mm: m}, nil
}

// Close unmaps the payload file.
func (s *Streamer) Close() error {
	return s.mm.Unmap()
}

// ReadElements implements streamio.RawSource: it returns a copy of
// count*width raw little-endian bytes for variable, starting at flat
// element index offset.
func (s *Streamer) ReadElements(_ context.Context, variable string, offset, count uint64) ([]byte, error) {
	vi, ok := s.idx.Variable(variable)
	if !ok {
		return nil, daperr.New(daperr.UnknownVariable, "unknown variable: "+variable)
	}

	width := uint64(vi.Type.Width())
	start := vi.Offset + offset*width
	end := start + count*width
	if end > vi.Offset+vi.Length {
		return nil, daperr.New(daperr.SlabOutOfRange,
			fmt.Sprintf("read past payload for variable %s: [%d:%d) exceeds %d bytes", variable, offset, offset+count, vi.Length))
	}

	out := make([]byte, count*width)
	copy(out, s.mm[start:end])
	return out, nil
}
