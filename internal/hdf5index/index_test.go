package hdf5index

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/met-norway/dars/internal/dap2"
)

func TestIndex_VariableLookup(t *testing.T) {
	idx := &Index{Variables: []VariableIndex{{Name: "temperature"}}}
	vi, ok := idx.Variable("temperature")
	require.True(t, ok)
	require.Equal(t, "temperature", vi.Name)

	_, ok = idx.Variable("missing")
	require.False(t, ok)
}

func TestIndex_Container(t *testing.T) {
	idx := &Index{
		GlobalAttrs: []dap2.Attribute{{Name: "title", Value: dap2.AttrValue{Kind: dap2.AttrString, Str: "t"}}},
		Variables: []VariableIndex{
			{
				Name: "temperature", Type: dap2.TypeFloat32,
				Dims: []uint64{2, 3}, DimNames: []string{"time", "x"},
			},
		},
	}
	c := idx.Container("example")
	require.Equal(t, "example", c.Name)
	require.Len(t, c.Variables, 1)
	require.Equal(t, "temperature", c.Variables[0].Name)
	require.Equal(t, []dap2.Dimension{{Name: "time", Size: 2}, {Name: "x", Size: 3}}, c.Variables[0].Dims)
}

func TestIndex_StaleWhenMtimeDiffers(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "source.nc")
	require.NoError(t, os.WriteFile(path, []byte("data"), 0o644))

	idx := &Index{SourcePath: path, ModTime: time.Now().Add(-time.Hour)}
	stale, err := idx.Stale()
	require.NoError(t, err)
	require.True(t, stale)
}

func TestIndex_NotStaleWhenMtimeMatches(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "source.nc")
	require.NoError(t, os.WriteFile(path, []byte("data"), 0o644))
	fi, err := os.Stat(path)
	require.NoError(t, err)

	idx := &Index{SourcePath: path, ModTime: fi.ModTime()}
	stale, err := idx.Stale()
	require.NoError(t, err)
	require.False(t, stale)
}

func TestIndex_StaleMissingFile(t *testing.T) {
	idx := &Index{SourcePath: "/does/not/exist"}
	_, err := idx.Stale()
	require.Error(t, err)
}

func TestStreamer_ReadElementsSlicesPayload(t *testing.T) {
	dir := t.TempDir()
	payload := filepath.Join(dir, "payload.bin")
	// two float32 elements: 1.0, 2.0 little-endian
	require.NoError(t, os.WriteFile(payload, []byte{0, 0, 0x80, 0x3f, 0, 0, 0, 0x40}, 0o644))

	idx := &Index{
		PayloadPath: payload,
		Variables: []VariableIndex{
			{Name: "v", Type: dap2.TypeFloat32, Offset: 0, Length: 8},
		},
	}

	s, err := Open(idx)
	require.NoError(t, err)
	defer s.Close()

	raw, err := s.ReadElements(context.Background(), "v", 1, 1)
	require.NoError(t, err)
	require.Equal(t, []byte{0, 0, 0, 0x40}, raw)
}

func TestStreamer_ReadElementsOutOfRange(t *testing.T) {
	dir := t.TempDir()
	payload := filepath.Join(dir, "payload.bin")
	require.NoError(t, os.WriteFile(payload, []byte{0, 0, 0, 0}, 0o644))

	idx := &Index{
		PayloadPath: payload,
		Variables:   []VariableIndex{{Name: "v", Type: dap2.TypeFloat32, Offset: 0, Length: 4}},
	}
	s, err := Open(idx)
	require.NoError(t, err)
	defer s.Close()

	_, err = s.ReadElements(context.Background(), "v", 0, 2)
	require.Error(t, err)
}

func TestStreamer_UnknownVariable(t *testing.T) {
	dir := t.TempDir()
	payload := filepath.Join(dir, "payload.bin")
	require.NoError(t, os.WriteFile(payload, []byte{0, 0, 0, 0}, 0o644))

	idx := &Index{PayloadPath: payload}
	s, err := Open(idx)
	require.NoError(t, err)
	defer s.Close()

	_, err = s.ReadElements(context.Background(), "nope", 0, 1)
	require.Error(t, err)
}
