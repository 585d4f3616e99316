package streamio

import (
	"context"
	"io"

	"github.com/met-norway/dars/internal/dap2"
)

// RawSource supplies raw, little-endian element bytes from a variable's
// backing storage. Offset and count are flat, row-major element indices
// into the variable's full (unconstrained) shape; the returned slice has
// length count*elemWidth. Implementations (hdf5index.Streamer,
// ncml.Aggregation) serve bytes that were already decoded, filters
// included, when the index was built.
type RawSource interface {
	ReadElements(ctx context.Context, variable string, offset, count uint64) ([]byte, error)
}

// StreamVariable writes one variable's DODS wire representation to w: a
// doubled length prefix for non-scalars (nothing for scalars), followed
// by its data in XDR big-endian form, one Plan run at a time. Runs are
// grouped into batches of about budget bytes (budget <= 0 selects
// Budget), but each run is read and written as a single buffer: a run
// larger than budget, such as a fully selected variable (one run), is
// held in memory whole.
func StreamVariable(ctx context.Context, w io.Writer, cv dap2.ConstrainedVariable, src RawSource, budget int) error {
	width := dap2.ElementWidth(cv.Type)
	wireWidth := dap2.WireWidth(cv.Type)

	if cv.IsScalar() {
		raw, err := src.ReadElements(ctx, cv.Name, 0, 1)
		if err != nil {
			return err
		}
		return writePacked(w, cv.Type, raw, width, wireWidth)
	}

	n := cv.Len()
	prefix, err := dap2.XdrLength(n)
	if err != nil {
		return err
	}
	if _, err := w.Write(prefix); err != nil {
		return err
	}

	runs := Plan(cv.FullDims, cv.Indices, cv.Counts)
	for _, batch := range Batch(runs, width, budget) {
		for _, r := range batch {
			raw, err := src.ReadElements(ctx, cv.Name, r.Offset, r.Count)
			if err != nil {
				return err
			}
			if err := writePacked(w, cv.Type, raw, width, wireWidth); err != nil {
				return err
			}
		}
	}
	return nil
}

// writePacked byte-swaps raw (little-endian, width bytes per element)
// into XDR's big-endian form and writes it to w, widening Int16 elements
// to their 4-byte DAP2 wire slot. Byte's width and wire width are both 1
// (widths preserved, per spec), so it always takes the in-place branch.
func writePacked(w io.Writer, t dap2.ElemType, raw []byte, width, wireWidth int) error {
	if width == wireWidth {
		dap2.SwapInPlace(raw, width)
		_, err := w.Write(raw)
		return err
	}

	n := len(raw) / width
	out := make([]byte, n*wireWidth)
	if t == dap2.TypeInt16 {
		vs := make([]int16, n)
		for i := range vs {
			lo, hi := raw[i*2], raw[i*2+1]
			vs[i] = int16(uint16(hi)<<8 | uint16(lo))
		}
		dap2.PackInt16(out, vs)
	}
	_, err := w.Write(out)
	return err
}
