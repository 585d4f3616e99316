package ncml

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/alitto/pond"

	"github.com/met-norway/dars/internal/daperr"
	"github.com/met-norway/dars/internal/dap2"
	"github.com/met-norway/dars/internal/hdf5index"
)

// Aggregation is a built join-existing aggregation: its ranked, opened
// members and the cached, concatenated coordinate variable along the
// join dimension.
type Aggregation struct {
	DimName    string
	Members    []Member
	Coordinate []byte // concatenated, little-endian raw bytes of the join coordinate
	CoordType  dap2.ElemType
	CoordLen   uint64

	container *dap2.Container
	readers   *streamers
}

// Indexer builds or loads a cached hdf5index.Index for one member path.
// The dataset layer supplies an implementation backed by chunkstore, so
// this package stays free of chunkstore's concrete locking type.
type Indexer func(path string) (*hdf5index.Index, error)

// Build parses ncmlPath, resolves and opens every member file
// concurrently (bounded by a pond worker pool), ranks them by their
// first join-coordinate value, validates that every member's
// non-aggregation dimensions agree, and caches the join coordinate's
// concatenated values.
func Build(ncmlPath string, indexer Indexer, workers int) (*Aggregation, error) {
	desc, err := ParseFile(ncmlPath)
	if err != nil {
		return nil, err
	}

	paths, err := ResolvePaths(desc)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, daperr.New(daperr.AggregationMisconfigured, "no members resolved: "+ncmlPath)
	}

	if workers <= 0 {
		workers = 4
	}
	pool := pond.New(workers, len(paths))
	members := make([]Member, len(paths))
	errs := make([]error, len(paths))

	for i, p := range paths {
		i, p := i, p
		pool.Submit(func() {
			idx, err := indexer(p)
			if err != nil {
				errs[i] = fmt.Errorf("index member %s: %w", p, err)
				return
			}
			members[i] = Member{Path: p, Index: idx, Rank: Rank(idx, desc.DimName)}
		})
	}
	pool.StopAndWait()

	for _, err := range errs {
		if err != nil {
			return nil, daperr.Wrap(daperr.AggregationMisconfigured, "opening aggregation members", err)
		}
	}

	SortMembers(members)

	if err := validateMembers(members, desc.DimName); err != nil {
		return nil, err
	}

	agg := &Aggregation{DimName: desc.DimName, Members: members}
	if err := agg.cacheCoordinate(); err != nil {
		return nil, err
	}
	agg.buildContainer(filepath.Base(ncmlPath))

	return agg, nil
}

// validateMembers checks that every member agrees on every dimension
// except the join dimension, and on every variable's type, rejecting the
// aggregation with MemberMismatch otherwise.
func validateMembers(members []Member, dimName string) error {
	first := members[0].Index
	for _, m := range members[1:] {
		for _, v := range first.Variables {
			mv, ok := m.Index.Variable(v.Name)
			if !ok {
				return daperr.New(daperr.MemberMismatch,
					fmt.Sprintf("member %s missing variable %s present in %s", m.Path, v.Name, members[0].Path))
			}
			if mv.Type != v.Type {
				return daperr.New(daperr.MemberMismatch,
					fmt.Sprintf("member %s has a different type for %s than %s", m.Path, v.Name, members[0].Path))
			}
			if len(mv.Dims) != len(v.Dims) {
				return daperr.New(daperr.MemberMismatch,
					fmt.Sprintf("member %s has a different rank for %s than %s", m.Path, v.Name, members[0].Path))
			}
			for i, size := range v.Dims {
				if v.DimNames[i] == dimName {
					continue
				}
				if mv.Dims[i] != size {
					return daperr.New(daperr.MemberMismatch,
						fmt.Sprintf("member %s disagrees on dimension %s of %s", m.Path, v.DimNames[i], v.Name))
				}
			}
		}
	}
	return nil
}

// cacheCoordinate reads and concatenates every member's join-coordinate
// values, in member order, so coordinate-only requests never need to
// touch a member file again.
func (a *Aggregation) cacheCoordinate() error {
	first, ok := a.Members[0].Index.Variable(a.DimName)
	if !ok {
		return daperr.New(daperr.AggregationMisconfigured, "join dimension has no coordinate variable: "+a.DimName)
	}
	a.CoordType = first.Type

	for _, m := range a.Members {
		vi, ok := m.Index.Variable(a.DimName)
		if !ok {
			return daperr.New(daperr.MemberMismatch, "member missing join coordinate: "+m.Path)
		}
		s, err := hdf5index.Open(m.Index)
		if err != nil {
			return err
		}
		raw, err := s.ReadElements(context.Background(), a.DimName, 0, vi.Dims[0])
		s.Close()
		if err != nil {
			return err
		}
		a.Coordinate = append(a.Coordinate, raw...)
		a.CoordLen += vi.Dims[0]
	}
	return nil
}

// buildContainer derives the aggregation's merged DAP2 metadata: every
// variable from member 0, with the join dimension's size replaced by the
// sum across all members.
func (a *Aggregation) buildContainer(name string) {
	base := a.Members[0].Index.Container(name)
	vars := make([]dap2.Variable, len(base.Variables))
	for i, v := range base.Variables {
		dims := make([]dap2.Dimension, len(v.Dims))
		for j, d := range v.Dims {
			if d.Name == a.DimName {
				d.Size = a.CoordLen
			}
			dims[j] = d
		}
		vars[i] = dap2.Variable{Name: v.Name, Type: v.Type, Dims: dims, Attrs: v.Attrs}
	}
	a.container = &dap2.Container{Name: name, GlobalAttrs: base.GlobalAttrs, Variables: vars}
}

// Container returns the aggregation's merged DAP2 metadata view.
func (a *Aggregation) Container() *dap2.Container {
	return a.container
}

// DependsOnJoinDim reports whether v's outermost dimension is the
// aggregation's join dimension, the test the read dispatch uses to choose
// between the coordinate-cache, passthrough and stitched-read paths
// (§4.7). joinExisting requires the join dimension to be a variable's
// first axis when present at all; a variable carrying it anywhere else
// is not something this aggregation type supports, so it is treated like
// any other non-aggregated variable and passed through to member 0.
func (a *Aggregation) DependsOnJoinDim(v *dap2.Variable) bool {
	return len(v.Dims) > 0 && v.Dims[0].Name == a.DimName
}
