package dap2

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestElemType_Width(t *testing.T) {
	require.Equal(t, 4, TypeFloat32.Width())
	require.Equal(t, 8, TypeFloat64.Width())
	require.Equal(t, 2, TypeInt16.Width())
	require.Equal(t, 4, TypeInt32.Width())
	require.Equal(t, 1, TypeByte.Width())
}

func TestElemType_String(t *testing.T) {
	require.Equal(t, "Float32", TypeFloat32.String())
	require.Equal(t, "Byte", TypeByte.String())
}

func TestVariable_IsScalar(t *testing.T) {
	v := &Variable{Name: "x"}
	require.True(t, v.IsScalar())

	v.Dims = []Dimension{{Name: "i", Size: 3}}
	require.False(t, v.IsScalar())
}

func TestVariable_IsCoordinate(t *testing.T) {
	v := &Variable{Name: "lat", Dims: []Dimension{{Name: "lat", Size: 31}}}
	require.True(t, v.IsCoordinate())

	other := &Variable{Name: "temperature", Dims: []Dimension{{Name: "lat", Size: 31}}}
	require.False(t, other.IsCoordinate())

	multiDim := &Variable{Name: "lat", Dims: []Dimension{{Name: "lat", Size: 31}, {Name: "x", Size: 2}}}
	require.False(t, multiDim.IsCoordinate())
}

func TestContainer_Variable(t *testing.T) {
	c := &Container{Variables: []Variable{{Name: "a"}, {Name: "b"}}}
	v, ok := c.Variable("b")
	require.True(t, ok)
	require.Equal(t, "b", v.Name)

	_, ok = c.Variable("missing")
	require.False(t, ok)
}
