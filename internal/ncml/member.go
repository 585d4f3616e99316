package ncml

import (
	"context"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/met-norway/dars/internal/daperr"
	"github.com/met-norway/dars/internal/dap2"
	"github.com/met-norway/dars/internal/hdf5index"
)

// Member is one resolved, opened file of an aggregation: its path, built
// index, and the rank used to order it within the joined dimension.
type Member struct {
	Path  string
	Index *hdf5index.Index
	Rank  float64
}

// ResolvePaths expands a Descriptor's explicit members and scan
// directives into the full, deduplicated set of candidate file paths, in
// deterministic order: explicit members first, then each scan's matches
// in the order os.ReadDir returns them. Hidden (dot-prefixed) file names
// are always excluded from scan results, regardless of Ignore.
func ResolvePaths(desc *Descriptor) ([]string, error) {
	seen := make(map[string]bool)
	var out []string

	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}

	for _, p := range desc.Explicit {
		add(p)
	}

	for _, scan := range desc.Scans {
		entries, err := os.ReadDir(scan.Location)
		if err != nil {
			return nil, daperr.Wrap(daperr.AggregationMisconfigured, "scan directory: "+scan.Location, err)
		}
		for _, e := range entries {
			if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
				continue
			}
			if scan.Suffix != "" && !strings.HasSuffix(e.Name(), scan.Suffix) {
				continue
			}
			full := filepath.Join(scan.Location, e.Name())
			if scan.Ignore != "" && strings.Contains(full, scan.Ignore) {
				continue
			}
			add(full)
		}
	}

	return out, nil
}

// dimLen returns member's element count along dimName, the per-member
// n_i of §4.7's member walk.
func (m Member) dimLen(dimName string) (uint64, error) {
	vi, ok := m.Index.Variable(dimName)
	if !ok || len(vi.Dims) != 1 {
		return 0, daperr.New(daperr.MemberMismatch, "member missing 1-D dimension variable: "+dimName+" in "+m.Path)
	}
	return vi.Dims[0], nil
}

// Rank reads the first value of the join dimension's coordinate variable
// from member's index, the value members are ranked by. Members whose
// coordinate variable cannot be found or read fall back to +Inf, sorting
// them last rather than aborting the whole aggregation.
func Rank(idx *hdf5index.Index, dimName string) float64 {
	vi, ok := idx.Variable(dimName)
	if !ok || len(vi.Dims) != 1 || vi.Dims[0] == 0 {
		return math.Inf(1)
	}

	s, err := hdf5index.Open(idx)
	if err != nil {
		return math.Inf(1)
	}
	defer s.Close()

	raw, err := s.ReadElements(context.Background(), dimName, 0, 1)
	if err != nil {
		return math.Inf(1)
	}
	return decodeFirst(vi.Type, raw)
}

// decodeFirst decodes the single little-endian element in raw as a
// float64, for ranking purposes only.
func decodeFirst(t dap2.ElemType, raw []byte) float64 {
	switch t {
	case dap2.TypeFloat32:
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(raw)))
	case dap2.TypeFloat64:
		return math.Float64frombits(binary.LittleEndian.Uint64(raw))
	case dap2.TypeInt16:
		return float64(int16(binary.LittleEndian.Uint16(raw)))
	case dap2.TypeInt32:
		return float64(int32(binary.LittleEndian.Uint32(raw)))
	case dap2.TypeByte:
		return float64(raw[0])
	default:
		return math.Inf(1)
	}
}

// SortMembers orders members by ascending Rank, breaking ties by Path so
// the ordering is stable and reproducible across runs.
func SortMembers(members []Member) {
	sort.SliceStable(members, func(i, j int) bool {
		if members[i].Rank != members[j].Rank {
			return members[i].Rank < members[j].Rank
		}
		return members[i].Path < members[j].Path
	})
}
