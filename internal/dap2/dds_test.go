package dap2

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/met-norway/dars/internal/daperr"
)

func gridContainer() *Container {
	return &Container{
		Name: "example",
		Variables: []Variable{
			{Name: "time", Type: TypeFloat64, Dims: []Dimension{{Name: "time", Size: 3}}},
			{Name: "lat", Type: TypeFloat32, Dims: []Dimension{{Name: "lat", Size: 31}}},
			{Name: "lon", Type: TypeFloat32, Dims: []Dimension{{Name: "lon", Size: 28}}},
			{
				Name: "temperature",
				Type: TypeFloat32,
				Dims: []Dimension{
					{Name: "time", Size: 3},
					{Name: "lat", Size: 31},
					{Name: "lon", Size: 28},
				},
			},
			{Name: "scalar_flag", Type: TypeByte},
		},
	}
}

func TestBuildDDS_CoordinateVariablesAreAtomic(t *testing.T) {
	dds := BuildDDS(gridContainer())
	node, ok := dds.nodes["time"]
	require.True(t, ok)
	require.Equal(t, NodeAtomic, node.Kind)
}

func TestBuildDDS_MultiDimVariableWithCoordsIsGrid(t *testing.T) {
	dds := BuildDDS(gridContainer())
	node, ok := dds.nodes["temperature"]
	require.True(t, ok)
	require.Equal(t, NodeGrid, node.Kind)
	require.Len(t, node.Grid.Maps, 3)
}

func TestBuildDDS_ScalarIsAtomic(t *testing.T) {
	dds := BuildDDS(gridContainer())
	node, ok := dds.nodes["scalar_flag"]
	require.True(t, ok)
	require.Equal(t, NodeAtomic, node.Kind)
	require.Empty(t, node.Atomic.Dims)
}

func TestBuildDDS_Render(t *testing.T) {
	dds := BuildDDS(gridContainer())
	text := dds.Render()
	require.Contains(t, text, "Dataset {")
	require.Contains(t, text, "Grid {")
	require.Contains(t, text, "} example;")
	require.Contains(t, text, "Float64 time[time = 3];")
}

func TestBuildDDS_GridWithoutMatchingCoordsIsAtomic(t *testing.T) {
	c := &Container{
		Name: "x",
		Variables: []Variable{
			{Name: "a", Type: TypeFloat32, Dims: []Dimension{{Name: "i", Size: 2}}},
			{Name: "b", Type: TypeFloat32, Dims: []Dimension{{Name: "i", Size: 2}, {Name: "j", Size: 2}}},
		},
	}
	dds := BuildDDS(c)
	node := dds.nodes["b"]
	require.Equal(t, NodeAtomic, node.Kind)
}

func TestProject_Unconstrained(t *testing.T) {
	dds := BuildDDS(gridContainer())
	cdds, err := dds.Project(Constraint{})
	require.NoError(t, err)
	require.Contains(t, cdds.Text, "Dataset {")
	// time, lat, lon, temperature(array+3 maps), scalar_flag
	require.Len(t, cdds.Variables, 3+1+3+1)
}

func TestProject_BareVariable(t *testing.T) {
	dds := BuildDDS(gridContainer())
	c, err := ParseConstraint("lat")
	require.NoError(t, err)
	cdds, err := dds.Project(c)
	require.NoError(t, err)
	require.Len(t, cdds.Variables, 1)
	require.Equal(t, "lat", cdds.Variables[0].Name)
	require.Equal(t, uint64(31), cdds.Variables[0].Counts[0])
}

func TestProject_HyperslabOnCoordinate(t *testing.T) {
	dds := BuildDDS(gridContainer())
	c, err := ParseConstraint("lat[0:9]")
	require.NoError(t, err)
	cdds, err := dds.Project(c)
	require.NoError(t, err)
	require.Equal(t, uint64(0), cdds.Variables[0].Indices[0])
	require.Equal(t, uint64(10), cdds.Variables[0].Counts[0])
}

func TestProject_GridProjectsArrayAndMaps(t *testing.T) {
	dds := BuildDDS(gridContainer())
	c, err := ParseConstraint("temperature[0:0][0:9][0:9]")
	require.NoError(t, err)
	cdds, err := dds.Project(c)
	require.NoError(t, err)
	// array + 3 maps
	require.Len(t, cdds.Variables, 4)
	require.Equal(t, "temperature", cdds.Variables[0].Name)
	require.Equal(t, uint64(1), cdds.Variables[0].Counts[0])
	require.Equal(t, uint64(10), cdds.Variables[0].Counts[1])
	require.Equal(t, uint64(10), cdds.Variables[0].Counts[2])
	// the "time" map gets slab 0, "lat" map gets slab 1, "lon" map gets slab 2
	require.Equal(t, "time", cdds.Variables[1].Name)
	require.Equal(t, uint64(1), cdds.Variables[1].Counts[0])
	require.Equal(t, "lat", cdds.Variables[2].Name)
	require.Equal(t, uint64(10), cdds.Variables[2].Counts[0])
}

func TestProject_StructureMemberSelector(t *testing.T) {
	dds := BuildDDS(gridContainer())
	c, err := ParseConstraint("temperature.lat")
	require.NoError(t, err)
	cdds, err := dds.Project(c)
	require.NoError(t, err)
	require.Len(t, cdds.Variables, 1)
	require.Equal(t, "lat", cdds.Variables[0].Name)
	require.Contains(t, cdds.Text, "Structure {")
	require.Contains(t, cdds.Text, "} temperature;")
}

func TestProject_UnknownVariable(t *testing.T) {
	dds := BuildDDS(gridContainer())
	c, err := ParseConstraint("nonexistent")
	require.NoError(t, err)
	_, err = dds.Project(c)
	require.Error(t, err)
	kind, ok := daperr.KindOf(err)
	require.True(t, ok)
	require.Equal(t, daperr.UnknownVariable, kind)
}

func TestProject_UnknownStructureMember(t *testing.T) {
	dds := BuildDDS(gridContainer())
	c, err := ParseConstraint("temperature.nope")
	require.NoError(t, err)
	_, err = dds.Project(c)
	require.Error(t, err)
	kind, ok := daperr.KindOf(err)
	require.True(t, ok)
	require.Equal(t, daperr.UnknownVariable, kind)
}

func TestProject_HyperslabOnScalarRejected(t *testing.T) {
	dds := BuildDDS(gridContainer())
	c, err := ParseConstraint("scalar_flag[0]")
	require.NoError(t, err)
	_, err = dds.Project(c)
	require.Error(t, err)
	kind, ok := daperr.KindOf(err)
	require.True(t, ok)
	require.Equal(t, daperr.InvalidConstraint, kind)
}

func TestProject_SlabOutOfRange(t *testing.T) {
	dds := BuildDDS(gridContainer())
	c, err := ParseConstraint("lat[0:40]")
	require.NoError(t, err)
	_, err = dds.Project(c)
	require.Error(t, err)
	kind, ok := daperr.KindOf(err)
	require.True(t, ok)
	require.Equal(t, daperr.SlabOutOfRange, kind)
}

func TestProject_TooManyHyperslabs(t *testing.T) {
	dds := BuildDDS(gridContainer())
	c, err := ParseConstraint("lat[0:9][0:9]")
	require.NoError(t, err)
	_, err = dds.Project(c)
	require.Error(t, err)
	kind, ok := daperr.KindOf(err)
	require.True(t, ok)
	require.Equal(t, daperr.InvalidConstraint, kind)
}

func TestConstrainedVariable_Len(t *testing.T) {
	cv := ConstrainedVariable{Counts: []uint64{3, 31, 28}}
	require.Equal(t, uint64(3*31*28), cv.Len())
}

func TestConstrainedVariable_ScalarLenIsOne(t *testing.T) {
	cv := ConstrainedVariable{}
	require.True(t, cv.IsScalar())
	require.Equal(t, uint64(1), cv.Len())
}
