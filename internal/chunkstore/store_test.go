package chunkstore

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/met-norway/dars/internal/hdf5index"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := Open(filepath.Join(dir, "index.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_GetMissReturnsOkFalse(t *testing.T) {
	s := openTestStore(t)
	idx, ok, err := s.Get("/nowhere")
	require.NoError(t, err)
	require.False(t, ok)
	require.Nil(t, idx)
}

func TestStore_PutThenGetRoundTrips(t *testing.T) {
	s := openTestStore(t)
	want := &hdf5index.Index{
		SchemaVersion: hdf5index.SchemaVersion,
		SourcePath:    "/data/a.nc",
		Variables:     []hdf5index.VariableIndex{{Name: "temperature"}},
	}
	require.NoError(t, s.Put("/data/a.nc", want))

	got, ok, err := s.Get("/data/a.nc")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, want.SourcePath, got.SourcePath)
	require.Len(t, got.Variables, 1)
	require.Equal(t, "temperature", got.Variables[0].Name)
}

func TestStore_SchemaVersionMismatchIsCacheMiss(t *testing.T) {
	s := openTestStore(t)
	stale := &hdf5index.Index{SchemaVersion: hdf5index.SchemaVersion + 1, SourcePath: "/data/b.nc"}
	require.NoError(t, s.Put("/data/b.nc", stale))

	_, ok, err := s.Get("/data/b.nc")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestStore_PutReplacesExisting(t *testing.T) {
	s := openTestStore(t)
	first := &hdf5index.Index{SchemaVersion: hdf5index.SchemaVersion, SourcePath: "/x"}
	second := &hdf5index.Index{SchemaVersion: hdf5index.SchemaVersion, SourcePath: "/y"}
	require.NoError(t, s.Put("/k", first))
	require.NoError(t, s.Put("/k", second))

	got, ok, err := s.Get("/k")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "/y", got.SourcePath)
}

func TestStore_LockReturnsSameMutexForSamePath(t *testing.T) {
	s := openTestStore(t)
	a := s.Lock("/data/a.nc")
	b := s.Lock("/data/a.nc")
	require.Same(t, a, b)
}

func TestStore_LockReturnsDifferentMutexForDifferentPaths(t *testing.T) {
	s := openTestStore(t)
	a := s.Lock("/data/a.nc")
	b := s.Lock("/data/b.nc")
	require.NotSame(t, a, b)
}
