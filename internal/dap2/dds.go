package dap2

import (
	"fmt"
	"strings"

	"github.com/met-norway/dars/internal/daperr"
)

// DimProj names a dimension alongside the size to print for it: the full
// dimension size when unconstrained, or a hyperslab's count when
// projected.
type DimProj struct {
	Name string
	Size uint64
}

// AtomicNode is a single typed array, or a scalar when Dims is empty.
type AtomicNode struct {
	Type ElemType
	Name string
	Dims []DimProj
}

func (n AtomicNode) render(ind int) string {
	if len(n.Dims) == 0 {
		return fmt.Sprintf("%s%s %s;", indent(ind), n.Type, n.Name)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s%s %s", indent(ind), n.Type, n.Name)
	for _, d := range n.Dims {
		fmt.Fprintf(&b, "[%s = %d]", d.Name, d.Size)
	}
	b.WriteString(";")
	return b.String()
}

// GridNode bundles an N-D array with one coordinate-variable map per
// dimension.
type GridNode struct {
	Array AtomicNode
	Maps  []AtomicNode
}

func (n GridNode) render(ind int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%sGrid {\n", indent(ind))
	fmt.Fprintf(&b, "%sARRAY:\n", indent(ind+1))
	fmt.Fprintf(&b, "%s\n", n.Array.render(ind+2))
	fmt.Fprintf(&b, "%sMAPS:\n", indent(ind+1))
	for _, m := range n.Maps {
		fmt.Fprintf(&b, "%s\n", m.render(ind+2))
	}
	fmt.Fprintf(&b, "%s} %s;", indent(ind), n.Array.Name)
	return b.String()
}

// StructureNode projects a single Grid map (or the array itself) without
// its siblings, the result of a "var.member" constraint.
type StructureNode struct {
	Of     string // the Grid variable's name, for the closing "} name;"
	Member AtomicNode
}

func (n StructureNode) render(ind int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%sStructure {\n", indent(ind))
	fmt.Fprintf(&b, "%s\n", n.Member.render(ind+1))
	fmt.Fprintf(&b, "%s} %s;", indent(ind), n.Of)
	return b.String()
}

// NodeKind discriminates the DDS node shapes.
type NodeKind int

const (
	NodeAtomic NodeKind = iota
	NodeGrid
	NodeStructure
)

// Node is a tagged union over AtomicNode, GridNode and StructureNode.
type Node struct {
	Kind      NodeKind
	Atomic    AtomicNode
	Grid      GridNode
	Structure StructureNode
}

func (n Node) render(ind int) string {
	switch n.Kind {
	case NodeGrid:
		return n.Grid.render(ind)
	case NodeStructure:
		return n.Structure.render(ind)
	default:
		return n.Atomic.render(ind)
	}
}

// variableName returns the container variable that backs a node's data
// (for Structure, the member's own name; it may differ from n.Structure.Of).
func (n Node) variableName() string {
	switch n.Kind {
	case NodeGrid:
		return n.Grid.Array.Name
	case NodeStructure:
		return n.Structure.Member.Name
	default:
		return n.Atomic.Name
	}
}

// DDS holds the unconstrained, per-variable DDS nodes of a container plus
// the precomputed Grid structure aliases ("var.member" -> Structure).
type DDS struct {
	Name      string
	nodeOrder []string          // variable names in declaration order
	nodes     map[string]Node   // keyed by variable name
	aliases   map[string]Node   // keyed by "var.member"
	variables map[string]*Variable
}

// BuildDDS derives the unconstrained DDS from a container: a Grid node for
// every ≥2-D variable whose every dimension resolves to a same-named 1-D
// coordinate variable in the container, an Atomic node for everything
// else, and "var.member" structure aliases for each Grid's array and maps.
func BuildDDS(c *Container) *DDS {
	dds := &DDS{
		Name:      c.Name,
		nodes:     make(map[string]Node),
		aliases:   make(map[string]Node),
		variables: make(map[string]*Variable),
	}

	for i := range c.Variables {
		v := &c.Variables[i]
		dds.variables[v.Name] = v
	}

	for i := range c.Variables {
		v := &c.Variables[i]
		dds.nodeOrder = append(dds.nodeOrder, v.Name)

		if len(v.Dims) < 2 || !isGrid(c, v) {
			atomic := atomicOf(v, nil)
			dds.nodes[v.Name] = Node{Kind: NodeAtomic, Atomic: atomic}
			continue
		}

		array := atomicOf(v, nil)
		maps := make([]AtomicNode, len(v.Dims))
		for i, d := range v.Dims {
			dvar, _ := c.Variable(d.Name)
			maps[i] = atomicOf(dvar, nil)
		}
		grid := GridNode{Array: array, Maps: maps}
		dds.nodes[v.Name] = Node{Kind: NodeGrid, Grid: grid}

		dds.aliases[v.Name+"."+v.Name] = Node{
			Kind:      NodeStructure,
			Structure: StructureNode{Of: v.Name, Member: array},
		}
		for _, d := range v.Dims {
			dvar, _ := c.Variable(d.Name)
			dds.aliases[v.Name+"."+d.Name] = Node{
				Kind:      NodeStructure,
				Structure: StructureNode{Of: v.Name, Member: atomicOf(dvar, nil)},
			}
		}
	}

	return dds
}

// isGrid reports whether every dimension of v resolves to a 1-D
// coordinate variable of the same name in c.
func isGrid(c *Container, v *Variable) bool {
	for _, d := range v.Dims {
		dvar, ok := c.Variable(d.Name)
		if !ok || !dvar.IsCoordinate() {
			return false
		}
	}
	return true
}

// atomicOf builds an AtomicNode for v, substituting constrained dimension
// sizes from slabs when given (by position; nil means unconstrained).
func atomicOf(v *Variable, slabs []Hyperslab) AtomicNode {
	dims := make([]DimProj, len(v.Dims))
	for i, d := range v.Dims {
		size := d.Size
		if slabs != nil && i < len(slabs) {
			size = slabs[i].Count
		}
		dims[i] = DimProj{Name: d.Name, Size: size}
	}
	return AtomicNode{Type: v.Type, Name: v.Name, Dims: dims}
}

// Render returns the unconstrained DDS text: "Dataset { ... } name;".
func (d *DDS) Render() string {
	var b strings.Builder
	b.WriteString("Dataset {\n")
	for _, name := range d.nodeOrder {
		fmt.Fprintf(&b, "%s\n", d.nodes[name].render(1))
	}
	fmt.Fprintf(&b, "} %s;", d.Name)
	return b.String()
}

// ConstrainedVariable is one container-level variable read the DODS
// streamer must perform: its element type, its constrained dimensions
// (Dims[i].Size already equals Counts[i]), and the absolute start/count of
// each dimension in the underlying variable.
type ConstrainedVariable struct {
	Name     string
	Type     ElemType
	Dims     []DimProj
	Indices  []uint64
	Counts   []uint64
	FullDims []uint64 // the backing variable's unconstrained dimension sizes
}

// IsScalar reports whether this variable has no dimensions.
func (cv ConstrainedVariable) IsScalar() bool {
	return len(cv.Dims) == 0
}

// Len returns the total element count across all dimensions (1 for a
// scalar).
func (cv ConstrainedVariable) Len() uint64 {
	n := uint64(1)
	for _, c := range cv.Counts {
		n *= c
	}
	return n
}

// ConstrainedDDS is the result of projecting a Constraint against a DDS:
// its rendered text and the ordered list of variable reads the DODS body
// must stream.
type ConstrainedDDS struct {
	Text      string
	Variables []ConstrainedVariable
}

// Project applies a Constraint to the DDS, producing a ConstrainedDDS. An
// empty Constraint (no projections) projects every variable unconstrained,
// in declaration order, skipping structure aliases.
func (d *DDS) Project(c Constraint) (ConstrainedDDS, error) {
	if len(c.Projections) == 0 {
		var vars []ConstrainedVariable
		var b strings.Builder
		b.WriteString("Dataset {\n")
		for _, name := range d.nodeOrder {
			node := d.nodes[name]
			fmt.Fprintf(&b, "%s\n", node.render(1))
			vars = append(vars, unconstrainedVariables(d, node)...)
		}
		fmt.Fprintf(&b, "} %s;", d.Name)
		return ConstrainedDDS{Text: b.String(), Variables: vars}, nil
	}

	var nodes []Node
	var vars []ConstrainedVariable

	for _, p := range c.Projections {
		if p.HasMember() {
			key := p.Variable + "." + p.Member
			alias, ok := d.aliases[key]
			if !ok {
				return ConstrainedDDS{}, daperr.New(daperr.UnknownVariable, "unknown structure member: "+key)
			}
			member := alias.Structure.Member
			slabbed, cv, err := applySlabs(d.variables[member.Name], p.Slabs)
			if err != nil {
				return ConstrainedDDS{}, err
			}
			node := Node{Kind: NodeStructure, Structure: StructureNode{Of: alias.Structure.Of, Member: slabbed}}
			nodes = append(nodes, node)
			vars = append(vars, cv)
			continue
		}

		v, ok := d.variables[p.Variable]
		if !ok {
			return ConstrainedDDS{}, daperr.New(daperr.UnknownVariable, "unknown variable: "+p.Variable)
		}

		if v.IsScalar() && len(p.Slabs) > 0 {
			return ConstrainedDDS{}, daperr.New(daperr.InvalidConstraint, "hyperslab on scalar variable: "+p.Variable)
		}

		base := d.nodes[p.Variable]
		switch base.Kind {
		case NodeGrid:
			array, cvArray, err := applySlabs(v, p.Slabs)
			if err != nil {
				return ConstrainedDDS{}, err
			}
			maps := make([]AtomicNode, len(base.Grid.Maps))
			mapVars := make([]ConstrainedVariable, len(base.Grid.Maps))
			for i, m := range base.Grid.Maps {
				mapVar := d.variables[m.Name]
				var mslabs []Hyperslab
				if i < len(p.Slabs) {
					mslabs = []Hyperslab{p.Slabs[i]}
				}
				mapped, mcv, err := applySlabs(mapVar, mslabs)
				if err != nil {
					return ConstrainedDDS{}, err
				}
				maps[i] = mapped
				mapVars[i] = mcv
			}
			nodes = append(nodes, Node{Kind: NodeGrid, Grid: GridNode{Array: array, Maps: maps}})
			vars = append(vars, cvArray)
			vars = append(vars, mapVars...)
		default:
			atomic, cv, err := applySlabs(v, p.Slabs)
			if err != nil {
				return ConstrainedDDS{}, err
			}
			nodes = append(nodes, Node{Kind: NodeAtomic, Atomic: atomic})
			vars = append(vars, cv)
		}
	}

	var b strings.Builder
	b.WriteString("Dataset {\n")
	for _, n := range nodes {
		fmt.Fprintf(&b, "%s\n", n.render(1))
	}
	fmt.Fprintf(&b, "} %s;", d.Name)

	return ConstrainedDDS{Text: b.String(), Variables: vars}, nil
}

// applySlabs projects v's dimensions by the given per-dimension
// hyperslabs (trailing omitted hyperslabs default to the full dimension),
// validating ranges, and returns both the rendered Atomic node and the
// ConstrainedVariable the streamer needs.
func applySlabs(v *Variable, slabs []Hyperslab) (AtomicNode, ConstrainedVariable, error) {
	if len(slabs) > len(v.Dims) {
		return AtomicNode{}, ConstrainedVariable{}, daperr.New(daperr.InvalidConstraint,
			fmt.Sprintf("too many hyperslabs for variable %s", v.Name))
	}

	dims := make([]DimProj, len(v.Dims))
	indices := make([]uint64, len(v.Dims))
	counts := make([]uint64, len(v.Dims))

	for i, d := range v.Dims {
		start, count := uint64(0), d.Size
		if i < len(slabs) {
			start, count = slabs[i].Start, slabs[i].Count
		}
		if count == 0 {
			return AtomicNode{}, ConstrainedVariable{}, daperr.New(daperr.SlabOutOfRange,
				fmt.Sprintf("zero count for dimension %s of %s", d.Name, v.Name))
		}
		if start+count > d.Size {
			return AtomicNode{}, ConstrainedVariable{}, daperr.New(daperr.SlabOutOfRange,
				fmt.Sprintf("hyperslab [%d:%d] exceeds dimension %s (size %d) of %s", start, start+count-1, d.Name, d.Size, v.Name))
		}
		dims[i] = DimProj{Name: d.Name, Size: count}
		indices[i] = start
		counts[i] = count
	}

	full := make([]uint64, len(v.Dims))
	for i, d := range v.Dims {
		full[i] = d.Size
	}

	atomic := AtomicNode{Type: v.Type, Name: v.Name, Dims: dims}
	cv := ConstrainedVariable{Name: v.Name, Type: v.Type, Dims: dims, Indices: indices, Counts: counts, FullDims: full}
	return atomic, cv, nil
}

// unconstrainedVariables flattens a node into the ConstrainedVariable(s)
// an unconstrained request must stream: one for Atomic, array+maps for
// Grid.
func unconstrainedVariables(d *DDS, n Node) []ConstrainedVariable {
	switch n.Kind {
	case NodeGrid:
		out := []ConstrainedVariable{fullVariable(d.variables[n.Grid.Array.Name])}
		for _, m := range n.Grid.Maps {
			out = append(out, fullVariable(d.variables[m.Name]))
		}
		return out
	default:
		return []ConstrainedVariable{fullVariable(d.variables[n.variableName()])}
	}
}

func fullVariable(v *Variable) ConstrainedVariable {
	dims := make([]DimProj, len(v.Dims))
	indices := make([]uint64, len(v.Dims))
	counts := make([]uint64, len(v.Dims))
	full := make([]uint64, len(v.Dims))
	for i, d := range v.Dims {
		dims[i] = DimProj{Name: d.Name, Size: d.Size}
		indices[i] = 0
		counts[i] = d.Size
		full[i] = d.Size
	}
	return ConstrainedVariable{Name: v.Name, Type: v.Type, Dims: dims, Indices: indices, Counts: counts, FullDims: full}
}
