package ncml

import (
	"context"
	"fmt"

	"github.com/met-norway/dars/internal/daperr"
	"github.com/met-norway/dars/internal/dap2"
	"github.com/met-norway/dars/internal/hdf5index"
)

// streamers holds one open hdf5index.Streamer per member, all opened by
// OpenReaders and kept until CloseReaders.
type streamers struct {
	byPath map[string]*hdf5index.Streamer
}

// OpenReaders memory-maps every member's payload file, so later
// ReadElements calls never block on mmap setup.
func (a *Aggregation) OpenReaders() error {
	a.readers = &streamers{byPath: make(map[string]*hdf5index.Streamer, len(a.Members))}
	for _, m := range a.Members {
		s, err := hdf5index.Open(m.Index)
		if err != nil {
			return err
		}
		a.readers.byPath[m.Path] = s
	}
	return nil
}

// CloseReaders unmaps every member's payload file.
func (a *Aggregation) CloseReaders() error {
	if a.readers == nil {
		return nil
	}
	var first error
	for _, s := range a.readers.byPath {
		if err := s.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// ReadElements implements streamio.RawSource across the aggregation: a
// read of the join coordinate itself is served from the cached,
// concatenated array; a read of a variable that does not depend on the
// join dimension passes through to member 0 unchanged; any other
// variable is split across however many members the requested flat
// range spans and stitched together (§4.7's three-way dispatch).
func (a *Aggregation) ReadElements(ctx context.Context, variable string, offset, count uint64) ([]byte, error) {
	if variable == a.DimName {
		return a.readCoordinate(offset, count)
	}

	v, ok := a.container.Variable(variable)
	if !ok {
		return nil, daperr.New(daperr.UnknownVariable, "unknown variable: "+variable)
	}
	if !a.DependsOnJoinDim(v) {
		return a.readers.byPath[a.Members[0].Path].ReadElements(ctx, variable, offset, count)
	}

	return a.stitchedRead(ctx, v, variable, offset, count)
}

func (a *Aggregation) readCoordinate(offset, count uint64) ([]byte, error) {
	width := uint64(a.CoordType.Width())
	start := offset * width
	end := start + count*width
	if end > uint64(len(a.Coordinate)) {
		return nil, daperr.New(daperr.SlabOutOfRange, "coordinate read out of range")
	}
	out := make([]byte, count*width)
	copy(out, a.Coordinate[start:end])
	return out, nil
}

// stitchedRead assumes the join dimension is v's outermost (first) axis,
// as joinExisting requires: the flat row-major range [offset, offset+
// count) decomposes into whole "rows" of size rowSize (the product of
// every dimension but the first) plus, at most, a partial row at each
// end. streamio.Plan never hands this function a range that straddles a
// partial row on both sides of a row boundary within the *same* request:
// either the whole range is row-aligned (offset and count both multiples
// of rowSize, §4.7's multi-member walk applies directly to dim0 "rows"),
// or the range sits entirely inside a single dim0 row, in which case it
// belongs to exactly one member and is translated to that member's own
// flat offset directly.
func (a *Aggregation) stitchedRead(ctx context.Context, v *dap2.Variable, variable string, offset, count uint64) ([]byte, error) {
	rowSize := uint64(1)
	for _, d := range v.Dims[1:] {
		rowSize *= d.Size
	}
	if rowSize == 0 {
		return nil, daperr.New(daperr.SlabOutOfRange, "zero-size inner dimension for "+variable)
	}

	dim0Start := offset / rowSize
	within := offset % rowSize

	if within == 0 && count%rowSize == 0 {
		return a.stitchedRowRead(ctx, variable, dim0Start, count/rowSize, rowSize)
	}
	if within+count > rowSize {
		return nil, daperr.New(daperr.InternalDecodeError,
			fmt.Sprintf("read of %s spans a row boundary mid-row, which the chunk planner should never produce", variable))
	}

	memberStart := uint64(0)
	for _, m := range a.Members {
		n, err := m.dimLen(a.DimName)
		if err != nil {
			return nil, err
		}
		if dim0Start < memberStart+n {
			local := (dim0Start-memberStart)*rowSize + within
			return a.readers.byPath[m.Path].ReadElements(ctx, variable, local, count)
		}
		memberStart += n
	}
	return nil, daperr.New(daperr.SlabOutOfRange, "row index out of range for "+variable)
}

// stitchedRowRead implements §4.7 Case C's member walk directly over whole
// dim0 rows: indices0 = start, counts0 = rows are the per-dimension
// (start, count) the spec describes, with every later dimension passed
// through unchanged (rowSize elements per row, in full).
func (a *Aggregation) stitchedRowRead(ctx context.Context, variable string, start, rows, rowSize uint64) ([]byte, error) {
	out := make([]byte, 0, rows*rowSize*uint64(a.elemWidth(variable)))

	memberStart := uint64(0)
	wantEnd := start + rows
	for _, m := range a.Members {
		n, err := m.dimLen(a.DimName)
		if err != nil {
			return nil, err
		}
		memberEnd := memberStart + n

		switch {
		case start >= memberStart && start < memberEnd:
			localStart := start - memberStart
			localCount := minU64(rows, n-localStart)
			raw, err := a.readers.byPath[m.Path].ReadElements(ctx, variable, localStart*rowSize, localCount*rowSize)
			if err != nil {
				return nil, err
			}
			out = append(out, raw...)
		case start < memberStart && memberStart < wantEnd:
			localCount := minU64(wantEnd-memberStart, n)
			raw, err := a.readers.byPath[m.Path].ReadElements(ctx, variable, 0, localCount*rowSize)
			if err != nil {
				return nil, err
			}
			out = append(out, raw...)
		case wantEnd <= memberStart:
			return out, nil
		}
		memberStart = memberEnd
	}
	return out, nil
}

// elemWidth returns variable's native element byte width, read off member
// 0's index (every member agrees on type per validateMembers).
func (a *Aggregation) elemWidth(variable string) int {
	vi, ok := a.Members[0].Index.Variable(variable)
	if !ok {
		return 0
	}
	return vi.Type.Width()
}

func minU64(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}
