package dap2

import (
	"strconv"
	"strings"

	"github.com/met-norway/dars/internal/daperr"
)

// Hyperslab is a single dimension's (start, count) selection. Count is the
// post-selection element count; there is no stride in this system.
type Hyperslab struct {
	Start uint64
	Count uint64
}

// parseOneHyperslab parses the content of a single bracket pair, i.e. the
// `hyper` production:
//
//	hyper = uint (":" uint (":" uint)?)?
//
// `[i]` yields (i, 1). `[i:j]` yields (i, j-i+1). `[i:s:j]` (three
// numbers) is a stride expression and is rejected.
func parseOneHyperslab(s string) (Hyperslab, error) {
	parts := strings.Split(s, ":")
	switch len(parts) {
	case 1:
		i, err := strconv.ParseUint(parts[0], 10, 64)
		if err != nil {
			return Hyperslab{}, daperr.Wrap(daperr.InvalidConstraint, "malformed integer in hyperslab: "+s, err)
		}
		return Hyperslab{Start: i, Count: 1}, nil

	case 2:
		start, err := strconv.ParseUint(parts[0], 10, 64)
		if err != nil {
			return Hyperslab{}, daperr.Wrap(daperr.InvalidConstraint, "malformed integer in hyperslab: "+s, err)
		}
		stop, err := strconv.ParseUint(parts[1], 10, 64)
		if err != nil {
			return Hyperslab{}, daperr.Wrap(daperr.InvalidConstraint, "malformed integer in hyperslab: "+s, err)
		}
		if stop < start {
			return Hyperslab{}, daperr.New(daperr.InvalidConstraint, "hyperslab stop before start: "+s)
		}
		return Hyperslab{Start: start, Count: stop - start + 1}, nil

	case 3:
		return Hyperslab{}, daperr.New(daperr.StrideUnsupported, "strides not implemented: "+s)

	default:
		return Hyperslab{}, daperr.New(daperr.InvalidConstraint, "malformed hyperslab: "+s)
	}
}

// parseHyperslabs parses a sequence of zero or more `[hyper]` groups
// trailing a projection name, e.g. "[0:9][1]". Unbalanced brackets are
// rejected.
func parseHyperslabs(s string) ([]Hyperslab, error) {
	var slabs []Hyperslab
	for len(s) > 0 {
		if s[0] != '[' {
			return nil, daperr.New(daperr.InvalidConstraint, "expected '[' in hyperslab list: "+s)
		}
		end := strings.IndexByte(s, ']')
		if end < 0 {
			return nil, daperr.New(daperr.InvalidConstraint, "unbalanced brackets: "+s)
		}
		inner := s[1:end]
		if inner == "" {
			return nil, daperr.New(daperr.InvalidConstraint, "empty hyperslab: "+s)
		}
		slab, err := parseOneHyperslab(inner)
		if err != nil {
			return nil, err
		}
		slabs = append(slabs, slab)
		s = s[end+1:]
	}
	return slabs, nil
}
