// Package streamio implements the row-major chunked streaming plan that
// turns a hyperslab selection over an N-D array into a bounded sequence
// of contiguous storage reads, so a DODS response can be produced without
// ever materializing a whole variable in memory.
package streamio

// Budget is the approximate per-batch byte budget the chunker targets
// when grouping runs (see Batch).
const Budget = 10 * 1024 * 1024

// Run is one maximal contiguous row-major element run to read from
// underlying storage: Offset is the flat element index into the full,
// unconstrained variable (row-major order), Count is the number of
// consecutive elements the run covers.
type Run struct {
	Offset uint64
	Count  uint64
}

// Plan walks a hyperslab selection over an N-D variable's full shape in
// row-major order and returns the maximal contiguous runs needed to cover
// it. A run only spans dimensions selected in full: the innermost
// dimension with a partial selection (or the outermost dimension, if
// every dimension is selected in full) bounds each run; dimensions before
// it are walked one index at a time via a mixed-radix counter with carry.
//
// dims is the full (unconstrained) size of each dimension; start and
// count describe the hyperslab selection, one entry per dimension, in
// the same order as dims. All three slices must share the same length; a
// zero length (a scalar) yields a single one-element run at offset 0.
func Plan(dims, start, count []uint64) []Run {
	n := len(dims)
	if n == 0 {
		return []Run{{Offset: 0, Count: 1}}
	}

	// jump[i] is the flat-index stride of dimension i: the number of
	// elements to advance to move one step along dimension i while every
	// later dimension holds its position. jump[n-1] = 1; earlier entries
	// are built in reverse dimension order.
	jump := make([]uint64, n)
	jump[n-1] = 1
	for i := n - 2; i >= 0; i-- {
		jump[i] = jump[i+1] * dims[i+1]
	}

	// runDim is the outermost dimension index at which dimensions
	// runDim+1..n-1 are all selected in full; it defaults to 0 when the
	// whole shape is selected in full, collapsing to a single run.
	runDim := 0
	for i := n - 1; i >= 0; i-- {
		if count[i] != dims[i] {
			runDim = i
			break
		}
	}

	runLen := count[runDim]
	for i := runDim + 1; i < n; i++ {
		runLen *= dims[i]
	}

	var runs []Run
	idx := make([]uint64, runDim) // position within the selection, dims[0:runDim]
	for {
		offset := start[runDim] * jump[runDim]
		for i := 0; i < runDim; i++ {
			offset += (start[i] + idx[i]) * jump[i]
		}
		runs = append(runs, Run{Offset: offset, Count: runLen})

		i := runDim - 1
		for i >= 0 {
			idx[i]++
			if idx[i] < count[i] {
				break
			}
			idx[i] = 0
			i--
		}
		if i < 0 {
			break
		}
	}
	return runs
}

// Batch groups consecutive runs so each batch's total byte size
// (run length * elemWidth, summed) stays at or under budget. A single
// run whose own size already exceeds budget still forms its own batch:
// callers must be prepared to stream an oversized batch rather than
// buffer it whole. budget <= 0 selects Budget.
func Batch(runs []Run, elemWidth int, budget int) [][]Run {
	if budget <= 0 {
		budget = Budget
	}

	var batches [][]Run
	var cur []Run
	var curBytes uint64

	for _, r := range runs {
		size := r.Count * uint64(elemWidth)
		if len(cur) > 0 && curBytes+size > uint64(budget) {
			batches = append(batches, cur)
			cur = nil
			curBytes = 0
		}
		cur = append(cur, r)
		curBytes += size
	}
	if len(cur) > 0 {
		batches = append(batches, cur)
	}
	return batches
}

// TotalElements returns the total number of elements covered by runs.
func TotalElements(runs []Run) uint64 {
	var n uint64
	for _, r := range runs {
		n += r.Count
	}
	return n
}
