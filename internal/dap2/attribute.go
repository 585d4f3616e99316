// Package dap2 implements the DAP2 (Data Access Protocol v2) metadata and
// wire-format primitives: attribute values, the DAS and DDS text builders,
// the hyperslab/constraint grammar, and XDR packing.
package dap2

// AttrKind discriminates the variant held by an AttrValue.
type AttrKind int

const (
	AttrString AttrKind = iota
	AttrFloat32
	AttrFloat32Slice
	AttrFloat64
	AttrFloat64Slice
	AttrInt16
	AttrInt16Slice
	AttrInt32
	AttrInt32Slice
	AttrByte
	// AttrIgnored marks a value the source deliberately hides from DAS
	// output (e.g. an internal bookkeeping attribute).
	AttrIgnored
	// AttrUnimplemented marks a container attribute type this server does
	// not know how to render in DAP2 text.
	AttrUnimplemented
)

// AttrValue is a typed attribute value. Exactly one field is meaningful,
// selected by Kind; Reason carries the message for AttrIgnored and
// AttrUnimplemented.
type AttrValue struct {
	Kind   AttrKind
	Str    string
	F32    float32
	F32s   []float32
	F64    float64
	F64s   []float64
	I16    int16
	I16s   []int16
	I32    int32
	I32s   []int32
	Byte   uint8
	Reason string
}

// Attribute is a named, typed value attached either to the global
// container (NC_GLOBAL) or to a single variable.
type Attribute struct {
	Name  string
	Value AttrValue
}

// ElemType is the primitive element type of a Variable.
type ElemType int

const (
	TypeFloat32 ElemType = iota
	TypeFloat64
	TypeInt16
	TypeInt32
	TypeByte
)

// Width returns the element's size in bytes.
func (t ElemType) Width() int {
	switch t {
	case TypeFloat32, TypeInt32:
		return 4
	case TypeFloat64:
		return 8
	case TypeInt16:
		return 2
	case TypeByte:
		return 1
	default:
		return 0
	}
}

// String returns the DAP2 type tag, e.g. "Float32".
func (t ElemType) String() string {
	switch t {
	case TypeFloat32:
		return "Float32"
	case TypeFloat64:
		return "Float64"
	case TypeInt16:
		return "Int16"
	case TypeInt32:
		return "Int32"
	case TypeByte:
		return "Byte"
	default:
		return "Unimplemented"
	}
}

// Dimension is a named, sized axis of a Variable.
type Dimension struct {
	Name string
	Size uint64
}

// Variable is a named array of a primitive numeric type with an ordered
// list of named dimensions and an attribute set. A Variable with zero
// Dims is a scalar. A Variable whose Name equals the name of its one
// Dim is a coordinate variable.
type Variable struct {
	Name  string
	Type  ElemType
	Dims  []Dimension
	Attrs []Attribute
}

// IsScalar reports whether the variable has no dimensions.
func (v *Variable) IsScalar() bool {
	return len(v.Dims) == 0
}

// IsCoordinate reports whether v is a 1-D variable whose name equals its
// single dimension's name.
func (v *Variable) IsCoordinate() bool {
	return len(v.Dims) == 1 && v.Dims[0].Name == v.Name
}

// Container is the minimal read-only view of a dataset's metadata that
// the DAS and DDS builders need. Concrete implementations wrap an
// hdf5index.Index or an aggregation's first member.
type Container struct {
	Name        string
	GlobalAttrs []Attribute
	Variables   []Variable
}

// Variable looks up a variable by name.
func (c *Container) Variable(name string) (*Variable, bool) {
	for i := range c.Variables {
		if c.Variables[i].Name == name {
			return &c.Variables[i], true
		}
	}
	return nil, false
}
